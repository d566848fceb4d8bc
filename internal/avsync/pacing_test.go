package avsync

import (
	"testing"
	"time"
)

func TestDelayFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		buffered time.Duration
		want     time.Duration
	}{
		{"below target", 100 * time.Millisecond, 150 * time.Millisecond},
		{"at target", 250 * time.Millisecond, 0},
		{"above target", 300 * time.Millisecond, 0},
		{"empty", 0, 250 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DelayFor(tt.buffered, DefaultBufferTarget); got != tt.want {
				t.Errorf("DelayFor(%v, %v) = %v, want %v", tt.buffered, DefaultBufferTarget, got, tt.want)
			}
		})
	}
}

func TestSleepFor(t *testing.T) {
	t.Parallel()

	if got, want := SleepFor(300*time.Millisecond, DefaultBufferTarget), 50*time.Millisecond; got != want {
		t.Errorf("SleepFor above target = %v, want %v", got, want)
	}
	if got := SleepFor(200*time.Millisecond, DefaultBufferTarget); got != 0 {
		t.Errorf("SleepFor below target = %v, want 0", got)
	}
}

func TestSleepForDrift(t *testing.T) {
	t.Parallel()

	// 10ms ahead of real time sleeps the surplus minus the threshold.
	if got, want := SleepForDrift(-10*time.Millisecond), 9*time.Millisecond; got != want {
		t.Errorf("SleepForDrift(-10ms) = %v, want %v", got, want)
	}
	// Within the threshold, no sleep.
	if got := SleepForDrift(-time.Millisecond); got != 0 {
		t.Errorf("SleepForDrift(-1ms) = %v, want 0", got)
	}
	// Behind real time, no sleep.
	if got := SleepForDrift(5 * time.Millisecond); got != 0 {
		t.Errorf("SleepForDrift(5ms) = %v, want 0", got)
	}
}
