// Package player exposes the narrow control surface the UI layer consumes:
// open a locator, queue playback commands, poll for the frame to show now,
// and close with a bounded teardown guarantee. A Session owns every moving
// part of one playback — queues, sync clock, audio sink, decode driver —
// so nothing playback-scoped lives in package state.
package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tessera-media/tessera/internal/avsync"
	"github.com/tessera-media/tessera/internal/decode"
	"github.com/tessera-media/tessera/internal/hwaccel"
	"github.com/tessera-media/tessera/internal/locator"
	"github.com/tessera-media/tessera/internal/media"
	"github.com/tessera-media/tessera/internal/queue"
	"github.com/tessera-media/tessera/internal/resample"
	"github.com/tessera-media/tessera/internal/sink"
)

// Session is one playback of one locator. Created by Open, destroyed by
// Close; a seek resets its clock and queues but the session itself persists
// until closed.
type Session struct {
	log        *slog.Logger
	driver     *decode.Driver
	sink       *sink.Sink
	resampler  *resample.Resampler
	clock      *avsync.Clock
	videoQueue *queue.VideoQueue

	cancel context.CancelFunc
	group  *errgroup.Group
	done   chan struct{}

	mu     sync.Mutex
	paused bool
	closed bool
}

// Open resolves the locator, acquires the audio output device, and starts
// the decode pipeline. Open failures (bad locator, unreadable container, no
// output device, unsupported channel layout) return before any goroutine is
// spawned.
func Open(rawLocator string, hw hwaccel.DeviceType, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	plog := log.With("component", "player")

	resolved, err := locator.Resolve(rawLocator)
	if err != nil {
		return nil, fmt.Errorf("resolving locator: %w", err)
	}

	out, err := sink.Open(0, 0, log)
	if err != nil {
		return nil, err
	}

	rs, err := resample.New(out.Channels(), out.SampleRate())
	if err != nil {
		out.Close()
		return nil, err
	}

	clock := avsync.NewClock()
	vq := queue.NewVideoQueue(log)

	driver, err := decode.Open(resolved, decode.Options{
		HWDecoder:  hw,
		Clock:      clock,
		VideoQueue: vq,
		AudioQueue: out.Queue(),
		Resampler:  rs,
		Log:        log,
	})
	if err != nil {
		rs.Close()
		out.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	s := &Session{
		log:        plog,
		driver:     driver,
		sink:       out,
		resampler:  rs,
		clock:      clock,
		videoQueue: vq,
		cancel:     cancel,
		group:      g,
		done:       make(chan struct{}),
	}

	g.Go(func() error {
		defer close(s.done)
		return driver.Run(gctx)
	})
	out.Start()

	plog.Info("playback started", "locator", resolved)
	return s, nil
}

// Send queues a playback command without blocking. Commands sent after
// Close are dropped.
func (s *Session) Send(cmd decode.Command) bool {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false
	}
	return s.driver.Send(cmd)
}

// PollFrame returns the frame that should be on screen at now, or nil when
// none is ready. It never blocks beyond the queue mutex and consumes the
// frames it supersedes.
func (s *Session) PollFrame(now time.Time) *media.VideoFrame {
	return s.videoQueue.PopReady(now)
}

// SetPaused suspends or resumes the audio device pull. Video polling is the
// UI's to stop; with audio paused the sync clock stops advancing playback.
func (s *Session) SetPaused(paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.paused == paused {
		return
	}
	s.paused = paused
	if paused {
		s.sink.Pause()
	} else {
		s.sink.Start()
	}
}

// Paused reports whether audio output is suspended.
func (s *Session) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// SeekBy queues a relative seek without blocking.
func (s *Session) SeekBy(offset time.Duration) bool {
	return s.Send(decode.SeekRelative{Seconds: offset.Seconds()})
}

// SetVolume scales audio output amplitude in [0, 1].
func (s *Session) SetVolume(v float64) {
	s.sink.SetVolume(v)
}

// Position returns the last known playback position.
func (s *Session) Position() time.Duration {
	return s.driver.Position()
}

// Duration returns the container's reported duration, or zero when unknown.
func (s *Session) Duration() time.Duration {
	return s.driver.Duration()
}

// Done is closed when the decode pipeline stops, whether by reaching end
// of stream, failing, or being closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Underruns returns the audio sink's cumulative underrun sample count.
func (s *Session) Underruns() int64 {
	return s.sink.Underruns()
}

// Close cancels the decode pipeline, waits for its goroutines to stop
// touching shared state, then releases the decoder and the audio device.
// Safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	err := s.group.Wait()

	s.driver.Close()
	s.resampler.Close()
	if cerr := s.sink.Close(); err == nil {
		err = cerr
	}
	s.log.Info("playback closed")
	return err
}
