package queue

import (
	"testing"
	"time"
)

func TestAudioQueueReadShortfall(t *testing.T) {
	t.Parallel()

	q := NewAudioQueue(2, 48000)
	q.Write([]float32{1, 2, 3})

	dst := make([]float32, 8)
	if got, want := q.Read(dst), 3; got != want {
		t.Fatalf("Read() = %d, want %d", got, want)
	}
	for i, v := range []float32{1, 2, 3} {
		if dst[i] != v {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], v)
		}
	}
	if got, want := q.Len(), 0; got != want {
		t.Errorf("Len() after draining read = %d, want %d", got, want)
	}
}

func TestAudioQueueReadPreservesOrder(t *testing.T) {
	t.Parallel()

	q := NewAudioQueue(2, 48000)
	q.Write([]float32{1, 2, 3, 4})

	dst := make([]float32, 2)
	q.Read(dst)
	q.Read(dst)
	if dst[0] != 3 || dst[1] != 4 {
		t.Errorf("second Read = %v, want [3 4]", dst)
	}
}

func TestAudioQueueDuration(t *testing.T) {
	t.Parallel()

	q := NewAudioQueue(2, 48000)
	// 4800 interleaved samples = 2400 stereo frames = 50ms at 48kHz.
	q.Write(make([]float32, 4800))

	if got, want := q.Duration(), 50*time.Millisecond; got != want {
		t.Errorf("Duration() = %v, want %v", got, want)
	}
	if got, want := q.DurationForSamples(960), 10*time.Millisecond; got != want {
		t.Errorf("DurationForSamples(960) = %v, want %v", got, want)
	}
}

func TestAudioQueueClear(t *testing.T) {
	t.Parallel()

	q := NewAudioQueue(1, 48000)
	q.Write(make([]float32, 100))
	q.Clear()

	if got, want := q.Len(), 0; got != want {
		t.Errorf("Len() after Clear = %d, want %d", got, want)
	}
}
