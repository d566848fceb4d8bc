// Package media defines the decoded-frame value types that flow through the
// Tessera playback pipeline, from the demux/decode driver through the scale
// and resample stages to the presentation queues.
package media

import "time"

// Channel buffer sizes used between the decode driver (producer) and the
// convert stages (consumers). The video handoffs are deliberately tiny so a
// slow consumer blocks the decoder instead of accumulating stale pictures:
// freshness beats completeness on the video path.
const (
	VideoPacketBufferSize = 2
	VideoFrameBufferSize  = 2
)

// VideoFrame is one display-ready picture: tightly packed RGBA pixels at a
// fixed width and height, plus the decoder presentation timestamp and, once
// the sync clock is anchored, the wall-clock instant the picture should be
// shown. A frame is exclusively owned by whichever queue or stage currently
// holds it; ownership transfers on dequeue and frames are never aliased.
type VideoFrame struct {
	Pix    []byte
	Width  int
	Height int

	// PTS is in stream time-base units and only meaningful when HasPTS is set.
	PTS    int64
	HasPTS bool

	// PresentAt is the computed wall-clock presentation instant. The zero
	// value means unknown (no sync anchor was available when the frame was
	// converted); such frames are presented immediately.
	PresentAt time.Time
}

// Bytes exposes the packed pixel buffer without copying. The display layer
// must not retain the slice past the frame's lifetime.
func (f *VideoFrame) Bytes() []byte {
	return f.Pix
}

// HasPresentAt reports whether a presentation instant was computed.
func (f *VideoFrame) HasPresentAt() bool {
	return !f.PresentAt.IsZero()
}

// AudioChunk is the resample stage's output for one decoded audio frame:
// interleaved float32 samples at the sink's negotiated rate and channel
// count. Chunks are an implementation convenience; once appended to the
// audio queue the samples form one continuous sequence and the chunk
// boundary is gone.
type AudioChunk struct {
	Samples    []float32
	Channels   int
	SampleRate int
}

// SampleCount returns the number of per-channel sample frames in the chunk.
func (c *AudioChunk) SampleCount() int {
	if c.Channels == 0 {
		return 0
	}
	return len(c.Samples) / c.Channels
}
