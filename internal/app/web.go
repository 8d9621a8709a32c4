package app

import (
	"bufio"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/axon-robotics/axon_runtime/internal/config"
	"github.com/axon-robotics/axon_runtime/internal/face"
	"github.com/axon-robotics/axon_runtime/internal/logging"
	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from the same host; no cross-origin clients.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// webState mirrors the latest bridge output for HTTP snapshots and fans
// lines out to websocket subscribers.
type webState struct {
	mu         sync.RWMutex
	lastSample telemetry.Sample
	haveSample bool
	lastPose   face.Pose
	havePose   bool
	streaming  bool

	subMu sync.Mutex
	subs  map[chan string]struct{}
}

func newWebState() *webState {
	return &webState{subs: make(map[chan string]struct{})}
}

func (w *webState) ingest(line string) {
	switch {
	case strings.HasPrefix(line, "telemetry "):
		var s telemetry.Sample
		if json.Unmarshal([]byte(line[len("telemetry "):]), &s) == nil {
			w.mu.Lock()
			w.lastSample = s
			w.haveSample = true
			w.mu.Unlock()
		}
	case strings.HasPrefix(line, "pose "):
		var p face.Pose
		if json.Unmarshal([]byte(line[len("pose "):]), &p) == nil {
			w.mu.Lock()
			w.lastPose = p
			w.havePose = true
			w.mu.Unlock()
		}
	case strings.HasPrefix(line, "streaming "):
		w.mu.Lock()
		w.streaming = line[len("streaming "):] == "true"
		w.mu.Unlock()
	}

	w.subMu.Lock()
	for ch := range w.subs {
		select {
		case ch <- line:
		default: // slow websocket, drop the line
		}
	}
	w.subMu.Unlock()
}

func (w *webState) subscribe() chan string {
	ch := make(chan string, 64)
	w.subMu.Lock()
	w.subs[ch] = struct{}{}
	w.subMu.Unlock()
	return ch
}

func (w *webState) unsubscribe(ch chan string) {
	w.subMu.Lock()
	delete(w.subs, ch)
	w.subMu.Unlock()
}

// RunWeb serves a dashboard that follows the bridge stream: JSON snapshot
// endpoints plus a websocket relay of every bridge line.
func RunWeb(envPath string) error {
	if err := config.InitGlobal(envPath); err != nil {
		return err
	}
	cfg := config.Get()
	logging.Init(cfg.LogLevel)
	log := logging.L()

	state := newWebState()

	bridgeAddr := cfg.BridgeAddr
	if strings.HasPrefix(bridgeAddr, ":") {
		bridgeAddr = "localhost" + bridgeAddr
	}

	// Follow the bridge, reconnecting with a fixed backoff when the
	// runtime restarts.
	go func() {
		for {
			conn, err := net.Dial("tcp", bridgeAddr)
			if err != nil {
				log.Warn("web: bridge unreachable, retrying", "addr", bridgeAddr, "error", err)
				time.Sleep(2 * time.Second)
				continue
			}
			log.Info("web: following bridge", "addr", bridgeAddr)
			sc := bufio.NewScanner(conn)
			for sc.Scan() {
				state.ingest(sc.Text())
			}
			conn.Close()
			log.Warn("web: bridge connection lost, reconnecting")
			time.Sleep(time.Second)
		}
	}()

	http.HandleFunc("/api/telemetry", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()
		if !state.haveSample {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state.lastSample); err != nil {
			log.Error("web: telemetry encode failed", "error", err)
		}
	})

	http.HandleFunc("/api/pose", func(w http.ResponseWriter, r *http.Request) {
		state.mu.RLock()
		defer state.mu.RUnlock()
		if !state.havePose {
			http.Error(w, "no data yet", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state.lastPose); err != nil {
			log.Error("web: pose encode failed", "error", err)
		}
	})

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Error("web: websocket upgrade failed", "error", err)
			return
		}
		defer ws.Close()

		ch := state.subscribe()
		defer state.unsubscribe(ch)

		for line := range ch {
			ws.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
	})

	http.Handle("/", http.FileServer(http.Dir("web")))

	log.Info("web server listening", "addr", cfg.WebAddr)
	return http.ListenAndServe(cfg.WebAddr, nil)
}
