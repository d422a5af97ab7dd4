package event

import (
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
	"go.uber.org/zap"
)

// Writer wraps the async WriteAPI and tracks the age of the last write
// error for /healthz and /readyz.
type Writer struct {
	api api.WriteAPI
	log *zap.SugaredLogger

	mu      sync.RWMutex
	lastErr time.Time
	counts  map[string]int64
}

// NewWriter starts the listener on the WriteAPI's async error channel.
func NewWriter(w api.WriteAPI, log *zap.SugaredLogger) *Writer {
	ww := &Writer{
		api: w,
		log: log,
		// Start "healthy": pretend the last error is long gone.
		lastErr: time.Now().Add(-24 * time.Hour),
		counts:  make(map[string]int64),
	}
	go func() {
		for err := range w.Errors() {
			if err != nil {
				ww.mu.Lock()
				ww.lastErr = time.Now()
				ww.mu.Unlock()
				ww.log.Errorf("influx write error: %v", err)
			}
		}
	}()
	return ww
}

// WriteEvent normalizes and enqueues the event. Errors surface later on
// the async channel.
func (w *Writer) WriteEvent(evt CommonEvent) {
	w.api.WritePoint(EventToPoint(evt))
	w.markIngest(evt.EventType)
}

// LastErrorAge returns how long the writer has gone without a failure.
func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return time.Since(t)
}

func (w *Writer) markIngest(eventType string) {
	w.mu.Lock()
	w.counts[eventType]++
	w.mu.Unlock()
}

// Count reports how many events of the given type were ingested.
func (w *Writer) Count(eventType string) int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	c := w.counts[eventType]
	w.mu.RUnlock()
	return c
}
