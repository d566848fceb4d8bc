// Package avsync holds the synchronization clock and the pacing arithmetic
// that keep video presentation locked to the audio device clock. The clock
// maps stream time to wall-clock instants through a single anchor
// established when the first audio lands after start or a seek.
package avsync

import (
	"sync"
	"time"
)

// DriftThreshold is the slack allowed between expected and actual elapsed
// time before the driver reacts. Sleeps computed from drift subtract it so
// the decode loop never oversleeps.
const DriftThreshold = time.Millisecond

// DefaultBufferTarget is how much decoded data each queue should hold before
// presentation starts draining it.
const DefaultBufferTarget = 250 * time.Millisecond

// Clock is the sync anchor: the wall-clock instant corresponding to stream
// time zero. It is written by the decode driver (single writer) and
// snapshot-read by the video convert stage.
type Clock struct {
	mu          sync.Mutex
	anchor      time.Time
	established bool
	now         func() time.Time
}

// NewClock creates an unestablished clock.
func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Establish anchors the clock at now − streamTime, so that a frame with
// stream time t presents at anchor + t. Only the first call after
// construction or Reset takes effect; later chunks measure drift instead of
// re-anchoring.
func (c *Clock) Establish(streamTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.established {
		return
	}
	c.anchor = c.now().Add(-streamTime)
	c.established = true
}

// Reset clears the anchor. Called on every seek.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.anchor = time.Time{}
	c.established = false
}

// Anchor returns the current anchor instant and whether it is established.
func (c *Clock) Anchor() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anchor, c.established
}

// PresentationTime maps a stream time to its wall-clock presentation
// instant. ok is false while the clock is unestablished.
func (c *Clock) PresentationTime(streamTime time.Duration) (t time.Time, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.established {
		return time.Time{}, false
	}
	return c.anchor.Add(streamTime), true
}

// Drift returns actual − expected for a chunk at the given stream time:
// positive when audio is behind real time (frames need skipping), negative
// when the decoder is running ahead (it may sleep the surplus).
func (c *Clock) Drift(streamTime time.Duration) (d time.Duration, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.established {
		return 0, false
	}
	actual := c.now().Sub(c.anchor)
	return actual - streamTime, true
}
