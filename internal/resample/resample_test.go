package resample

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestFloatsFromBytes(t *testing.T) {
	t.Parallel()

	want := []float32{0, 1, -1, 0.25, -0.75}
	b := make([]byte, len(want)*bytesPerSample)
	for i, v := range want {
		binary.LittleEndian.PutUint32(b[i*bytesPerSample:], math.Float32bits(v))
	}

	got := floatsFromBytes(b)
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestNewRejectsChannelCount(t *testing.T) {
	t.Parallel()

	if _, err := New(6, 48000); err == nil {
		t.Error("New(6, 48000) succeeded, want channel count error")
	}
	if _, err := New(0, 48000); err == nil {
		t.Error("New(0, 48000) succeeded, want channel count error")
	}
}
