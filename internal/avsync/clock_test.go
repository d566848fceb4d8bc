package avsync

import (
	"testing"
	"time"
)

func fixedClock(now time.Time) *Clock {
	c := NewClock()
	c.now = func() time.Time { return now }
	return c
}

func TestClockEstablishOnce(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := fixedClock(now)

	c.Establish(2 * time.Second)
	anchor, ok := c.Anchor()
	if !ok {
		t.Fatal("Anchor() not established after Establish")
	}
	if got, want := anchor, now.Add(-2*time.Second); !got.Equal(want) {
		t.Fatalf("anchor = %v, want %v", got, want)
	}

	// A second chunk must not move the anchor.
	c.Establish(10 * time.Second)
	if got, _ := c.Anchor(); !got.Equal(anchor) {
		t.Errorf("anchor moved on second Establish: %v, want %v", got, anchor)
	}
}

func TestClockResetAllowsReanchor(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := fixedClock(now)
	c.Establish(time.Second)
	c.Reset()

	if _, ok := c.Anchor(); ok {
		t.Fatal("Anchor() still established after Reset")
	}

	c.Establish(5 * time.Second)
	anchor, ok := c.Anchor()
	if !ok {
		t.Fatal("Anchor() not established after re-anchor")
	}
	if got, want := anchor, now.Add(-5*time.Second); !got.Equal(want) {
		t.Errorf("anchor = %v, want %v", got, want)
	}
}

func TestClockPresentationTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := fixedClock(now)

	if _, ok := c.PresentationTime(time.Second); ok {
		t.Fatal("PresentationTime ok before Establish")
	}

	c.Establish(0)
	got, ok := c.PresentationTime(3 * time.Second)
	if !ok {
		t.Fatal("PresentationTime not ok after Establish")
	}
	if want := now.Add(3 * time.Second); !got.Equal(want) {
		t.Errorf("PresentationTime(3s) = %v, want %v", got, want)
	}
}

func TestClockDrift(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := fixedClock(start)
	c.Establish(0)

	// 2s of wall clock elapse while the stream advances 1.5s: audio is
	// 500ms behind real time.
	c.now = func() time.Time { return start.Add(2 * time.Second) }
	drift, ok := c.Drift(1500 * time.Millisecond)
	if !ok {
		t.Fatal("Drift not ok after Establish")
	}
	if want := 500 * time.Millisecond; drift != want {
		t.Errorf("Drift = %v, want %v", drift, want)
	}

	// Stream time ahead of wall clock yields negative drift.
	drift, _ = c.Drift(2500 * time.Millisecond)
	if want := -500 * time.Millisecond; drift != want {
		t.Errorf("Drift = %v, want %v", drift, want)
	}
}
