package mqttbus

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// Deduper remembers ids for a TTL window so QoS 1 redeliveries and
// retained duplicates can be dropped. Safe for concurrent use.
type Deduper struct {
	mu   sync.Mutex
	ttl  time.Duration
	cap  int
	seen map[string]time.Time
	now  func() time.Time
}

// NewDeduper creates a Deduper holding at most capacity ids for ttl
// each. Non-positive arguments fall back to 10 minutes and 10000 ids.
func NewDeduper(ttl time.Duration, capacity int) *Deduper {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if capacity <= 0 {
		capacity = 10000
	}
	return &Deduper{ttl: ttl, cap: capacity, seen: make(map[string]time.Time, capacity), now: time.Now}
}

// ShouldProcess reports whether id is new within the TTL window,
// recording it when it is. Empty ids always pass.
func (d *Deduper) ShouldProcess(id string) bool {
	if id == "" {
		return true
	}
	now := d.now()
	d.mu.Lock()
	defer d.mu.Unlock()
	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false
	}
	if _, ok := d.seen[id]; !ok && len(d.seen) >= d.cap {
		d.evictLocked(now)
	}
	d.seen[id] = now.Add(d.ttl)
	return true
}

// evictLocked drops expired entries first, then the soonest-to-expire
// ones until the map is back under capacity.
func (d *Deduper) evictLocked(now time.Time) {
	for id, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, id)
		}
	}
	for len(d.seen) >= d.cap {
		var oldest string
		var oldestExp time.Time
		for id, exp := range d.seen {
			if oldest == "" || exp.Before(oldestExp) {
				oldest, oldestExp = id, exp
			}
		}
		delete(d.seen, oldest)
	}
}

// Fingerprint returns the dedup id for a raw payload.
func Fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
