package mqttbus

import (
	"fmt"
	"testing"
	"time"
)

func TestDeduperDropsRepeats(t *testing.T) {
	d := NewDeduper(time.Minute, 100)
	if !d.ShouldProcess("a") {
		t.Fatal("first sight of id must process")
	}
	if d.ShouldProcess("a") {
		t.Fatal("repeat within TTL must be dropped")
	}
	if !d.ShouldProcess("b") {
		t.Fatal("different id must process")
	}
}

func TestDeduperTTLExpiry(t *testing.T) {
	d := NewDeduper(time.Minute, 100)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return base }

	d.ShouldProcess("a")
	d.now = func() time.Time { return base.Add(30 * time.Second) }
	if d.ShouldProcess("a") {
		t.Fatal("id still inside TTL must be dropped")
	}
	d.now = func() time.Time { return base.Add(2 * time.Minute) }
	if !d.ShouldProcess("a") {
		t.Fatal("id past TTL must process again")
	}
}

func TestDeduperCapEviction(t *testing.T) {
	d := NewDeduper(time.Hour, 10)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		i := i
		d.now = func() time.Time { return base.Add(time.Duration(i) * time.Second) }
		if !d.ShouldProcess(fmt.Sprintf("id-%d", i)) {
			t.Fatalf("fresh id-%d must process", i)
		}
	}
	d.mu.Lock()
	n := len(d.seen)
	d.mu.Unlock()
	if n > 10 {
		t.Fatalf("seen map holds %d ids, cap is 10", n)
	}
	// The newest id must have survived eviction.
	if d.ShouldProcess("id-14") {
		t.Fatal("id-14 should still be remembered")
	}
}

func TestDeduperEmptyID(t *testing.T) {
	d := NewDeduper(time.Minute, 10)
	if !d.ShouldProcess("") || !d.ShouldProcess("") {
		t.Fatal("empty ids must always pass")
	}
}

func TestFingerprintStable(t *testing.T) {
	a := Fingerprint([]byte(`{"x":1}`))
	b := Fingerprint([]byte(`{"x":1}`))
	c := Fingerprint([]byte(`{"x":2}`))
	if a != b {
		t.Fatal("same payload must fingerprint identically")
	}
	if a == c {
		t.Fatal("different payloads must not collide")
	}
	if len(a) != 64 {
		t.Fatalf("fingerprint length = %d, want 64 hex chars", len(a))
	}
}
