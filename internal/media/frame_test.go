package media

import (
	"testing"
	"time"
)

func TestVideoFrameHasPresentAt(t *testing.T) {
	t.Parallel()

	f := &VideoFrame{}
	if f.HasPresentAt() {
		t.Error("zero PresentAt reported as known")
	}
	f.PresentAt = time.Now()
	if !f.HasPresentAt() {
		t.Error("set PresentAt reported as unknown")
	}
}

func TestAudioChunkSampleCount(t *testing.T) {
	t.Parallel()

	c := &AudioChunk{Samples: make([]float32, 960), Channels: 2, SampleRate: 48000}
	if got, want := c.SampleCount(), 480; got != want {
		t.Errorf("SampleCount() = %d, want %d", got, want)
	}

	empty := &AudioChunk{}
	if got := empty.SampleCount(); got != 0 {
		t.Errorf("SampleCount() on zero-channel chunk = %d, want 0", got)
	}
}
