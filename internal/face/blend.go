// Copyright (c) 2026 Axon Robotics
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package face

import (
	"github.com/axon-robotics/axon_runtime/internal/policy"
	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

// Blend composes the target emotion over the neutral face at the target
// intensity and applies the head orientation from the sample. Intensity 0
// yields the neutral face, intensity 1 the full preset. The same sample and
// target always produce the same pose.
func Blend(s telemetry.Sample, t policy.Target) Pose {
	base := presets[policy.EmotionNeutral]
	full := PresetPose(t.Emotion)

	k := t.Intensity
	if k < 0 {
		k = 0
	} else if k > 1 {
		k = 1
	}

	p := Pose{
		EyeOpenness: lerp(base.EyeOpenness, full.EyeOpenness, k),
		EyeCurve:    lerp(base.EyeCurve, full.EyeCurve, k),
		BrowRaise:   lerp(base.BrowRaise, full.BrowRaise, k),
		BrowTilt:    lerp(base.BrowTilt, full.BrowTilt, k),
		MouthCurve:  lerp(base.MouthCurve, full.MouthCurve, k),
		MouthOpen:   lerp(base.MouthOpen, full.MouthOpen, k),
		MouthWidth:  lerp(base.MouthWidth, full.MouthWidth, k),
		MouthHeight: lerp(base.MouthHeight, full.MouthHeight, k),
		IrisSize:    lerp(base.IrisSize, full.IrisSize, k),
		AccentColor: lerpColor(base.AccentColor, full.AccentColor, k),
		Yaw:         clamp(s.Yaw, MaxYaw),
		Pitch:       clamp(s.Pitch, MaxPitch),
		Roll:        clamp(s.Roll, MaxRoll),
		Emotion:     full.Emotion,
	}
	return p
}

func lerp(a, b, k float64) float64 {
	return a + (b-a)*k
}

func lerpColor(a, b [3]uint8, k float64) [3]uint8 {
	var c [3]uint8
	for i := range c {
		c[i] = uint8(lerp(float64(a[i]), float64(b[i]), k) + 0.5)
	}
	return c
}

func clamp(v, limit float64) float64 {
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}
