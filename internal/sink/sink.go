// Package sink owns the platform audio output device. The device pulls:
// oto invokes the queue reader on its own playback goroutine at its own
// cadence, and the reader pops exactly the requested samples from the
// shared audio queue, substituting silence when the producer has fallen
// behind.
package sink

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hajimehoshi/oto/v2"

	"github.com/tessera-media/tessera/internal/queue"
)

const (
	// DefaultSampleRate and DefaultChannels are requested from the device
	// when the caller expresses no preference.
	DefaultSampleRate = 48000
	DefaultChannels   = 2

	bytesPerSample = 2 // s16le on the wire to the device
)

// Sink is the live audio output: an oto player draining the shared
// AudioQueue. Construction negotiates the output format with the OS default
// device; failure to obtain a device is fatal to the session since there is
// nothing to play audio through.
type Sink struct {
	log      *slog.Logger
	player   oto.Player
	reader   *queueReader
	queue    *queue.AudioQueue
	channels int
	rate     int
}

// Open negotiates an output stream with the default audio device and starts
// pulling from a fresh AudioQueue. channels must be 1 or 2; the resample
// stage rejects anything else before audio ever reaches the sink.
func Open(sampleRate, channels int, log *slog.Logger) (*Sink, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "audio-sink")

	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if channels <= 0 {
		channels = DefaultChannels
	}

	ctx, ready, err := oto.NewContext(sampleRate, channels, bytesPerSample)
	if err != nil {
		return nil, fmt.Errorf("opening audio output device: %w", err)
	}
	<-ready

	q := queue.NewAudioQueue(channels, sampleRate)
	r := newQueueReader(q, sampleRate, channels, log)
	p := ctx.NewPlayer(r)
	r.attach(p)

	log.Info("audio output ready", "rate", sampleRate, "channels", channels)
	return &Sink{
		log:      log,
		player:   p,
		reader:   r,
		queue:    q,
		channels: channels,
		rate:     sampleRate,
	}, nil
}

// Queue returns the audio queue the resample stage appends into.
func (s *Sink) Queue() *queue.AudioQueue { return s.queue }

// SampleRate returns the negotiated output sample rate.
func (s *Sink) SampleRate() int { return s.rate }

// Channels returns the negotiated output channel count.
func (s *Sink) Channels() int { return s.channels }

// Start begins playback. Safe to call again after Pause.
func (s *Sink) Start() { s.player.Play() }

// Pause suspends the device pull without dropping queued samples.
func (s *Sink) Pause() { s.player.Pause() }

// SetVolume scales output amplitude; v is clamped to [0, 1] by oto.
func (s *Sink) SetVolume(v float64) { s.player.SetVolume(v) }

// Underruns returns the total number of silence samples substituted so far.
func (s *Sink) Underruns() int64 { return s.reader.underruns.Load() }

// Close stops the device stream. The device goroutine makes no further
// reads once Close returns.
func (s *Sink) Close() error {
	return s.player.Close()
}

// queueReader adapts the AudioQueue to the io.Reader the oto player pulls
// from. Each Read is one device callback.
type queueReader struct {
	log   *slog.Logger
	queue *queue.AudioQueue

	mu     sync.Mutex
	player oto.Player

	scratch     []float32
	bytesPerSec float64
	underruns   atomic.Int64
}

func newQueueReader(q *queue.AudioQueue, sampleRate, channels int, log *slog.Logger) *queueReader {
	return &queueReader{
		log:         log,
		queue:       q,
		bytesPerSec: float64(sampleRate * channels * bytesPerSample),
	}
}

func (r *queueReader) attach(p oto.Player) {
	r.mu.Lock()
	r.player = p
	r.mu.Unlock()
}

// Read pops as many samples as the device asked for, converts them to
// s16le, and fills any shortfall with silence. Underruns are counted and
// logged but never fatal: silence is the designed degraded behavior when
// the producer starves. Each invocation also records the device's buffered
// output latency into the queue so video can match it.
func (r *queueReader) Read(p []byte) (int, error) {
	want := len(p) / bytesPerSample
	if cap(r.scratch) < want {
		r.scratch = make([]float32, want)
	}
	samples := r.scratch[:want]

	got := r.queue.Read(samples)
	for i := 0; i < got; i++ {
		s16 := int16(clamp(samples[i]) * 32767)
		p[2*i] = byte(s16)
		p[2*i+1] = byte(s16 >> 8)
	}
	for i := got * bytesPerSample; i < want*bytesPerSample; i++ {
		p[i] = 0
	}

	if missed := want - got; missed > 0 {
		r.underruns.Add(int64(missed))
		r.log.Error("audio underrun", "samples", missed)
	}

	r.recordDelay()
	return want * bytesPerSample, nil
}

// recordDelay converts the device's unplayed buffer size into the latency
// queued audio will experience before hitting the speakers.
func (r *queueReader) recordDelay() {
	r.mu.Lock()
	p := r.player
	r.mu.Unlock()
	if p == nil || r.bytesPerSec == 0 {
		return
	}
	buffered := float64(p.UnplayedBufferSize())
	r.queue.SetDelay(time.Duration(buffered / r.bytesPerSec * float64(time.Second)))
}

func clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
