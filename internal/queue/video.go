// Package queue implements the mutex-guarded buffers that decouple decode
// throughput from presentation: a timestamp-ordered video frame queue and a
// FIFO of interleaved audio samples. Both are shared between a producer
// thread (decode pipeline) and a consumer thread (display poll, audio device
// callback) and carry the output delay used to keep the two in step.
package queue

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tessera-media/tessera/internal/media"
)

// VideoQueue holds converted frames ordered by presentation instant along
// with the delay the display must add to every candidate frame to stay in
// sync with audio. Pushed by the scale stage, popped by the display-pull
// site.
type VideoQueue struct {
	mu     sync.Mutex
	log    *slog.Logger
	frames []*media.VideoFrame
	delay  time.Duration
}

// NewVideoQueue creates an empty video queue. If log is nil, slog.Default()
// is used.
func NewVideoQueue(log *slog.Logger) *VideoQueue {
	if log == nil {
		log = slog.Default()
	}
	return &VideoQueue{log: log.With("component", "video-queue")}
}

// Push appends a frame, first discarding every queued frame whose
// presentation instant is newer than the incoming one. That keeps the queue
// non-decreasing in presentation time and flushes stale frames left over
// from a seek or out-of-order delivery. Frames without an instant are never
// discarded and never cause discards.
func (q *VideoQueue) Push(f *media.VideoFrame) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if f.HasPresentAt() {
		kept := q.frames[:0]
		for _, other := range q.frames {
			if !other.HasPresentAt() || !other.PresentAt.After(f.PresentAt) {
				kept = append(kept, other)
			}
		}
		if dropped := len(q.frames) - len(kept); dropped > 0 {
			q.log.Debug("discarded newer frames on push", "count", dropped)
		}
		for i := len(kept); i < len(q.frames); i++ {
			q.frames[i] = nil
		}
		q.frames = kept
	}
	q.frames = append(q.frames, f)
}

// PopReady pops frames from the front while each frame's presentation
// instant, adjusted by the current delay, is at or before now, and returns
// the last such frame. Older ready frames are superseded and counted as
// skipped. The first frame whose instant is still in the future stays
// queued. Frames without an instant are immediately presentable.
func (q *VideoQueue) PopReady(now time.Time) *media.VideoFrame {
	q.mu.Lock()
	defer q.mu.Unlock()

	var ready *media.VideoFrame
	skipped := 0
	for len(q.frames) > 0 {
		f := q.frames[0]
		if f.HasPresentAt() && f.PresentAt.Add(q.delay).After(now) {
			break
		}
		if ready != nil {
			skipped++
		}
		ready = f
		q.frames[0] = nil
		q.frames = q.frames[1:]
	}
	if skipped > 0 {
		q.log.Warn("skipped video frames", "count", skipped)
	}
	return ready
}

// Duration returns the span between the oldest and newest presentation
// instants currently queued. Frames without an instant do not count.
func (q *VideoQueue) Duration() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()

	var start, end time.Time
	for _, f := range q.frames {
		if !f.HasPresentAt() {
			continue
		}
		t := f.PresentAt
		if start.IsZero() || t.Before(start) {
			start = t
		}
		if end.IsZero() || t.After(end) {
			end = t
		}
	}
	if start.IsZero() {
		return 0
	}
	return end.Sub(start)
}

// Len returns the number of queued frames.
func (q *VideoQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.frames)
}

// Delay returns the current output delay.
func (q *VideoQueue) Delay() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delay
}

// SetDelay replaces the output delay applied to every candidate frame.
func (q *VideoQueue) SetDelay(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.delay = d
}

// Clear drops all queued frames, used when a seek invalidates them.
func (q *VideoQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := range q.frames {
		q.frames[i] = nil
	}
	q.frames = q.frames[:0]
}
