package queue

import (
	"sync"
	"time"
)

// AudioQueue is a FIFO of interleaved float32 samples shared between the
// resample stage (push) and the audio device callback (pop). It records the
// device's reported output latency so the video side can match it.
type AudioQueue struct {
	mu       sync.Mutex
	channels int
	rate     float64
	samples  []float32
	delay    time.Duration
}

// NewAudioQueue creates an empty queue for the sink's negotiated channel
// count and sample rate.
func NewAudioQueue(channels, sampleRate int) *AudioQueue {
	return &AudioQueue{
		channels: channels,
		rate:     float64(sampleRate),
	}
}

// Channels returns the negotiated channel count.
func (q *AudioQueue) Channels() int { return q.channels }

// SampleRate returns the negotiated sample rate in Hz.
func (q *AudioQueue) SampleRate() int { return int(q.rate) }

// Write appends interleaved samples. Every sample handed to Write is kept:
// audio, unlike video, must never skip.
func (q *AudioQueue) Write(samples []float32) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.samples = append(q.samples, samples...)
}

// Read pops up to len(dst) samples into dst and returns how many were
// popped. The caller substitutes silence for the shortfall.
func (q *AudioQueue) Read(dst []float32) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := copy(dst, q.samples)
	rest := copy(q.samples, q.samples[n:])
	q.samples = q.samples[:rest]
	return n
}

// Len returns the number of queued samples.
func (q *AudioQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.samples)
}

// Duration returns the playback time of the queued samples.
func (q *AudioQueue) Duration() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.durationForSamples(len(q.samples))
}

// DurationForSamples converts an interleaved sample count to playback time
// at the queue's rate and channel count.
func (q *AudioQueue) DurationForSamples(samples int) time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.durationForSamples(samples)
}

func (q *AudioQueue) durationForSamples(samples int) time.Duration {
	if q.channels == 0 || q.rate == 0 {
		return 0
	}
	frames := samples / q.channels
	return time.Duration(float64(frames) / q.rate * float64(time.Second))
}

// Delay returns the output latency last reported by the audio device.
func (q *AudioQueue) Delay() time.Duration {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.delay
}

// SetDelay records the audio device's reported output latency. Called from
// the device callback on every invocation.
func (q *AudioQueue) SetDelay(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.delay = d
}

// Clear drops all queued samples, used when a seek invalidates them.
func (q *AudioQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.samples = q.samples[:0]
}
