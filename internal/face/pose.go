// Package face turns calibrated motion plus an emotion target into the
// low-level pose the rendering surface consumes.
package face

import "github.com/axon-robotics/axon_runtime/internal/policy"

// Head orientation limits in degrees. Values outside are clamped before
// the pose leaves the core.
const (
	MaxYaw   = 45.0
	MaxPitch = 30.0
	MaxRoll  = 30.0
)

// Pose is one full set of face actuator values. Channels are unitless
// multipliers around the neutral face except for the orientation fields,
// which are degrees.
type Pose struct {
	EyeOpenness float64 `json:"eye_openness"`
	EyeCurve    float64 `json:"eye_curve"`
	BrowRaise   float64 `json:"brow_raise"`
	BrowTilt    float64 `json:"brow_tilt"`
	MouthCurve  float64 `json:"mouth_curve"`
	MouthOpen   float64 `json:"mouth_open"`
	MouthWidth  float64 `json:"mouth_width"`
	MouthHeight float64 `json:"mouth_height"`
	IrisSize    float64 `json:"iris_size"`

	AccentColor [3]uint8 `json:"accent_color"`

	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`

	Emotion policy.Emotion `json:"emotion"`
}

// presets holds the canonical face channel values per emotion.
var presets = map[policy.Emotion]Pose{
	policy.EmotionNeutral: {
		EyeOpenness: 1.0, EyeCurve: 0.0, BrowRaise: 0.0, BrowTilt: 0.0,
		MouthCurve: 0.0, MouthOpen: 0.05, MouthWidth: 1.0, MouthHeight: 1.0,
		IrisSize: 1.0, AccentColor: [3]uint8{70, 200, 255},
	},
	policy.EmotionHappy: {
		EyeOpenness: 1.2, EyeCurve: 0.35, BrowRaise: 0.35, BrowTilt: -0.2,
		MouthCurve: 0.8, MouthOpen: 0.3, MouthWidth: 1.05, MouthHeight: 1.2,
		IrisSize: 1.05, AccentColor: [3]uint8{90, 240, 210},
	},
	policy.EmotionSad: {
		EyeOpenness: 0.85, EyeCurve: -0.45, BrowRaise: -0.3, BrowTilt: 0.35,
		MouthCurve: -0.6, MouthOpen: 0.05, MouthWidth: 0.85, MouthHeight: 0.9,
		IrisSize: 0.95, AccentColor: [3]uint8{140, 120, 255},
	},
	policy.EmotionSurprised: {
		EyeOpenness: 1.45, EyeCurve: 0.1, BrowRaise: 0.5, BrowTilt: 0.0,
		MouthCurve: 0.0, MouthOpen: 0.9, MouthWidth: 0.95, MouthHeight: 1.4,
		IrisSize: 1.15, AccentColor: [3]uint8{255, 200, 120},
	},
	policy.EmotionSleepy: {
		EyeOpenness: 0.35, EyeCurve: -0.2, BrowRaise: -0.15, BrowTilt: -0.1,
		MouthCurve: 0.0, MouthOpen: 0.05, MouthWidth: 0.9, MouthHeight: 0.7,
		IrisSize: 0.9, AccentColor: [3]uint8{120, 180, 255},
	},
	policy.EmotionCurious: {
		EyeOpenness: 1.1, EyeCurve: 0.15, BrowRaise: 0.15, BrowTilt: 0.4,
		MouthCurve: 0.35, MouthOpen: 0.18, MouthWidth: 1.0, MouthHeight: 1.0,
		IrisSize: 1.1, AccentColor: [3]uint8{255, 120, 210},
	},
	policy.EmotionExcited: {
		EyeOpenness: 1.35, EyeCurve: 0.45, BrowRaise: 0.4, BrowTilt: -0.25,
		MouthCurve: 1.1, MouthOpen: 0.75, MouthWidth: 1.1, MouthHeight: 1.3,
		IrisSize: 1.08, AccentColor: [3]uint8{255, 140, 100},
	},
	policy.EmotionAngry: {
		EyeOpenness: 0.7, EyeCurve: -0.55, BrowRaise: -0.45, BrowTilt: 0.55,
		MouthCurve: -0.4, MouthOpen: 0.2, MouthWidth: 0.95, MouthHeight: 0.85,
		IrisSize: 0.92, AccentColor: [3]uint8{255, 90, 90},
	},
	policy.EmotionFearful: {
		EyeOpenness: 1.5, EyeCurve: -0.1, BrowRaise: 0.35, BrowTilt: 0.25,
		MouthCurve: -0.1, MouthOpen: 0.85, MouthWidth: 0.9, MouthHeight: 1.35,
		IrisSize: 1.12, AccentColor: [3]uint8{255, 220, 160},
	},
	policy.EmotionDisgusted: {
		EyeOpenness: 0.75, EyeCurve: -0.25, BrowRaise: -0.35, BrowTilt: -0.45,
		MouthCurve: -0.2, MouthOpen: 0.12, MouthWidth: 0.88, MouthHeight: 0.8,
		IrisSize: 0.9, AccentColor: [3]uint8{140, 220, 110},
	},
	policy.EmotionSmirk: {
		EyeOpenness: 0.95, EyeCurve: 0.1, BrowRaise: 0.05, BrowTilt: 0.5,
		MouthCurve: 0.55, MouthOpen: 0.12, MouthWidth: 1.02, MouthHeight: 0.95,
		IrisSize: 1.0, AccentColor: [3]uint8{255, 170, 200},
	},
	policy.EmotionProud: {
		EyeOpenness: 1.05, EyeCurve: 0.25, BrowRaise: 0.28, BrowTilt: -0.15,
		MouthCurve: 0.65, MouthOpen: 0.18, MouthWidth: 1.08, MouthHeight: 1.05,
		IrisSize: 1.02, AccentColor: [3]uint8{255, 200, 150},
	},
}

// PresetPose returns the canonical pose channels for an emotion. Unknown
// emotions fall back to neutral.
func PresetPose(e policy.Emotion) Pose {
	if p, ok := presets[e]; ok {
		p.Emotion = e
		return p
	}
	p := presets[policy.EmotionNeutral]
	p.Emotion = policy.EmotionNeutral
	return p
}
