package prefilter

import (
	"bytes"
	"testing"
)

func TestTrackerNil(t *testing.T) {
	if NewTracker(nil) != nil {
		t.Error("NewTracker(nil) should return nil")
	}
}

func TestTrackerRetiresIneffectivePrefilter(t *testing.T) {
	pf := newMemchrPrefilter('a', false)
	tracker := NewTrackerWithConfig(pf, TrackerConfig{
		CheckInterval: 4,
		MinEfficiency: 0.5,
		WarmupPeriod:  8,
	})
	haystack := bytes.Repeat([]byte("a"), 32)

	pos := 0
	for i := 0; i < 8; i++ {
		pos = tracker.Find(haystack, pos) + 1
	}
	if tracker.IsActive() {
		t.Fatal("tracker should retire after 8 unconfirmed candidates")
	}
	candidates, confirms, efficiency, active := tracker.Stats()
	if candidates != 8 || confirms != 0 || efficiency != 0 || active {
		t.Errorf("Stats() = (%d, %d, %v, %v)", candidates, confirms, efficiency, active)
	}

	// Retired trackers keep answering but stop counting.
	if got := tracker.Find(haystack, 10); got != 10 {
		t.Errorf("Find after retirement = %d, want 10", got)
	}
	if c, _, _, _ := tracker.Stats(); c != 8 {
		t.Errorf("candidates after retirement = %d, want 8", c)
	}

	tracker.Reset()
	if !tracker.IsActive() {
		t.Error("Reset should re-enable the tracker")
	}
	if tracker.Inner() != pf {
		t.Error("Inner() should return the wrapped prefilter")
	}
}

func TestTrackerStaysActiveWhenConfirmed(t *testing.T) {
	tracker := NewTrackerWithConfig(newMemchrPrefilter('a', false), TrackerConfig{
		CheckInterval: 1,
		MinEfficiency: 0.5,
		WarmupPeriod:  4,
	})
	haystack := bytes.Repeat([]byte("a"), 64)
	for i := 0; i < 64; i++ {
		if tracker.Find(haystack, i) != i {
			t.Fatalf("Find(%d) missed", i)
		}
		tracker.ConfirmMatch()
	}
	if !tracker.IsActive() {
		t.Error("tracker with every candidate confirmed should stay active")
	}
}
