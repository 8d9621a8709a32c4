package source

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/axon-robotics/axon_runtime/internal/telemetry"
)

// feed holds the state shared by every source implementation: the line
// consumer set, the frame decoder, and the single-slot latest-sample cell
// exchanged between the acquisition goroutine and the tick loop.
type feed struct {
	dec *telemetry.Decoder

	mu        sync.RWMutex
	consumers []LineConsumer

	latest atomic.Pointer[telemetry.Sample]
}

func newFeed(origin telemetry.Origin) feed {
	return feed{dec: telemetry.NewDecoder(origin)}
}

func (f *feed) addConsumer(c LineConsumer) {
	f.mu.Lock()
	f.consumers = append(f.consumers, c)
	f.mu.Unlock()
}

// ingest forwards one raw line to every consumer and, when it decodes,
// replaces the latest-sample cell. Called only from the acquisition
// goroutine; the cell swap keeps readers from ever seeing a torn sample.
func (f *feed) ingest(line string) {
	f.mu.RLock()
	for _, c := range f.consumers {
		c.OnLine(line)
	}
	f.mu.RUnlock()

	s, err := f.dec.Decode(line)
	if err != nil {
		if err != telemetry.ErrNoSample {
			slog.Debug("dropping undecodable line", "err", err, "line", line)
		}
		return
	}
	f.latest.Store(&s)
}

// take removes and returns the freshest sample. Samples that arrived
// between takes have already been overwritten, newest wins.
func (f *feed) take() (telemetry.Sample, bool) {
	p := f.latest.Swap(nil)
	if p == nil {
		return telemetry.Sample{}, false
	}
	return *p, true
}
