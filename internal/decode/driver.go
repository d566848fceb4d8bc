// Package decode drives demuxing and decoding for one playback session: it
// opens the container, selects the best video and audio streams, constructs
// one decoder per stream (with best-effort hardware acceleration), and runs
// the packet loop that feeds the scale and resample stages until end of
// stream, a fatal read error, or cancellation.
package decode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/asticode/go-astiav"
	"golang.org/x/sync/errgroup"

	"github.com/tessera-media/tessera/internal/avsync"
	"github.com/tessera-media/tessera/internal/hwaccel"
	"github.com/tessera-media/tessera/internal/media"
	"github.com/tessera-media/tessera/internal/queue"
	"github.com/tessera-media/tessera/internal/resample"
	"github.com/tessera-media/tessera/internal/scale"
)

// commandBufferSize bounds the UI-to-driver command queue. Sends beyond it
// are dropped rather than blocking the UI thread.
const commandBufferSize = 16

// Options configures Open.
type Options struct {
	// HWDecoder is the preferred hardware decode backend. Acquisition is
	// best-effort; failure falls back to software decoding.
	HWDecoder hwaccel.DeviceType

	// Clock, VideoQueue, and AudioQueue are the session-owned sync state
	// the driver feeds. AudioQueue may be nil when the session has no
	// audio sink.
	Clock      *avsync.Clock
	VideoQueue *queue.VideoQueue
	AudioQueue *queue.AudioQueue

	// Resampler converts decoded audio to the sink format. Required when
	// AudioQueue is set.
	Resampler *resample.Resampler

	// BufferTarget overrides the queue buffer target used for pacing.
	// Defaults to avsync.DefaultBufferTarget.
	BufferTarget time.Duration

	Log *slog.Logger
}

// Driver owns the demux loop and the per-stream decoders for one open
// container.
type Driver struct {
	log    *slog.Logger
	fc     *astiav.FormatContext
	target time.Duration

	videoIndex    int
	videoDecoder  *astiav.CodecContext
	videoTimeBase astiav.Rational
	hwDevice      *astiav.HardwareDeviceContext
	hwPixFmt      astiav.PixelFormat
	hwActive      bool

	audioIndex    int
	audioDecoder  *astiav.CodecContext
	audioTimeBase float64
	audioFrame    *astiav.Frame

	clock      *avsync.Clock
	videoQueue *queue.VideoQueue
	audioQueue *queue.AudioQueue
	resampler  *resample.Resampler

	commands chan Command

	// position is the last known playback position in seconds, stored as
	// float64 bits. Written by the demux loop, read by Position callers.
	position atomic.Uint64
}

// Open opens the locator and prepares both stream decoders. It fails with
// an *OpenError when the container cannot be read or holds no decodable
// video stream; a missing audio stream is not an error, the session then
// degrades to video-only pacing anchored at the first video frame.
func Open(locator string, o Options) (*Driver, error) {
	if o.Log == nil {
		o.Log = slog.Default()
	}
	if o.BufferTarget <= 0 {
		o.BufferTarget = avsync.DefaultBufferTarget
	}

	d := &Driver{
		log:        o.Log.With("component", "decode-driver"),
		target:     o.BufferTarget,
		videoIndex: -1,
		audioIndex: -1,
		clock:      o.Clock,
		videoQueue: o.VideoQueue,
		audioQueue: o.AudioQueue,
		resampler:  o.Resampler,
		commands:   make(chan Command, commandBufferSize),
	}

	fc := astiav.AllocFormatContext()
	if fc == nil {
		return nil, &OpenError{Locator: locator, Err: errors.New("allocating format context failed")}
	}
	d.fc = fc

	if err := fc.OpenInput(locator, nil, nil); err != nil {
		fc.Free()
		return nil, &OpenError{Locator: locator, Err: err}
	}
	if err := fc.FindStreamInfo(nil); err != nil {
		d.release()
		return nil, &OpenError{Locator: locator, Err: fmt.Errorf("finding stream info: %w", err)}
	}

	var videoStream, audioStream *astiav.Stream
	for _, s := range fc.Streams() {
		switch s.CodecParameters().MediaType() {
		case astiav.MediaTypeVideo:
			if videoStream == nil {
				videoStream = s
			}
		case astiav.MediaTypeAudio:
			if audioStream == nil {
				audioStream = s
			}
		}
	}
	if videoStream == nil {
		d.release()
		return nil, &OpenError{Locator: locator, Err: errors.New("no decodable video stream")}
	}

	vdec, err := d.openDecoder(videoStream, o.HWDecoder)
	if err != nil {
		d.release()
		return nil, &OpenError{Locator: locator, Err: err}
	}
	d.videoDecoder = vdec
	d.videoIndex = videoStream.Index()
	d.videoTimeBase = videoStream.TimeBase()

	if audioStream != nil && d.audioQueue != nil {
		adec, err := d.openDecoder(audioStream, hwaccel.None)
		if err != nil {
			d.release()
			return nil, &OpenError{Locator: locator, Err: err}
		}
		d.audioDecoder = adec
		d.audioIndex = audioStream.Index()
		tb := audioStream.TimeBase()
		if tb.Den() != 0 {
			d.audioTimeBase = float64(tb.Num()) / float64(tb.Den())
		}
		d.audioFrame = astiav.AllocFrame()
	} else {
		d.log.Info("no audio stream, pacing against first video frame")
	}

	return d, nil
}

// openDecoder builds a codec context for one stream, attaching a hardware
// device context when a backend is preferred and can be created.
func (d *Driver) openDecoder(s *astiav.Stream, hw hwaccel.DeviceType) (*astiav.CodecContext, error) {
	cp := s.CodecParameters()
	codec := astiav.FindDecoder(cp.CodecID())
	if codec == nil {
		return nil, fmt.Errorf("no decoder for codec %s", cp.CodecID())
	}
	cc := astiav.AllocCodecContext(codec)
	if cc == nil {
		return nil, errors.New("allocating codec context failed")
	}
	if err := cp.ToCodecContext(cc); err != nil {
		cc.Free()
		return nil, fmt.Errorf("applying codec parameters: %w", err)
	}

	if hw != hwaccel.None {
		switch ctx, err := hw.NewDeviceContext(); {
		case err != nil:
			d.log.Warn("hardware decoding unavailable, falling back to software",
				"backend", hw.ShortName(), "error", err)
		default:
			cc.SetHardwareDeviceContext(ctx)
			d.hwDevice = ctx
			d.hwPixFmt = hw.PixelFormat()
			d.hwActive = true
			d.log.Info("hardware decoding enabled", "backend", hw.ShortName())
		}
	}

	if err := cc.Open(codec, nil); err != nil {
		cc.Free()
		return nil, fmt.Errorf("opening %s decoder: %w", codec.Name(), err)
	}
	return cc, nil
}

// Send queues a playback command without blocking. It reports false when
// the command queue is full and the command was dropped.
func (d *Driver) Send(cmd Command) bool {
	select {
	case d.commands <- cmd:
		return true
	default:
		d.log.Warn("command queue full, dropping command")
		return false
	}
}

// Position returns the last known playback position.
func (d *Driver) Position() time.Duration {
	secs := math.Float64frombits(d.position.Load())
	return time.Duration(secs * float64(time.Second))
}

// Duration returns the container's reported duration, or zero when unknown.
func (d *Driver) Duration() time.Duration {
	us := d.fc.Duration()
	if us <= 0 {
		return 0
	}
	return time.Duration(us) * time.Microsecond
}

// Run executes the decode pipeline until end of stream, a fatal container
// error, or ctx cancellation. The video path fans out over three
// goroutines (decode, hardware transfer, scale/convert) joined by bounded
// channels so a slow consumer backpressures the demuxer; audio is decoded
// and resampled inline because it must never drop samples.
func (d *Driver) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	packetCh := make(chan *astiav.Packet, media.VideoPacketBufferSize)
	rawCh := make(chan *astiav.Frame, media.VideoFrameBufferSize)
	cpuCh := make(chan *astiav.Frame, media.VideoFrameBufferSize)

	g.Go(func() error { return d.videoDecodeLoop(gctx, packetCh, rawCh) })
	g.Go(func() error { return d.transferLoop(gctx, rawCh, cpuCh) })
	g.Go(func() error { return d.scaleLoop(gctx, cpuCh) })

	err := d.demuxLoop(gctx, packetCh)
	close(packetCh)

	if gerr := g.Wait(); err == nil {
		err = gerr
	}
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	return err
}

// demuxLoop reads container packets and routes them by stream index. It
// returns nil on clean EOF and on non-EOF read errors (logged; the session
// simply ends), reserving error returns for cancellation.
func (d *Driver) demuxLoop(ctx context.Context, packetCh chan<- *astiav.Packet) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		pkt := astiav.AllocPacket()
		if err := d.fc.ReadFrame(pkt); err != nil {
			pkt.Free()
			if errors.Is(err, astiav.ErrEof) {
				d.flushAudio()
				return nil
			}
			d.log.Error("container read failed", "error", err)
			return nil
		}

		switch pkt.StreamIndex() {
		case d.videoIndex:
			select {
			case packetCh <- pkt:
			case <-ctx.Done():
				pkt.Free()
				return ctx.Err()
			}
		case d.audioIndex:
			d.decodeAudio(ctx, pkt)
			pkt.Free()
		default:
			pkt.Free()
		}

		d.pace(ctx)
		d.drainCommands()
	}
}

// decodeAudio sends one packet to the audio decoder and fully resamples
// every frame it yields before the demux loop moves on. The first
// resampled frame after start or a seek establishes the sync anchor;
// subsequent frames only measure drift.
func (d *Driver) decodeAudio(ctx context.Context, pkt *astiav.Packet) {
	if err := d.audioDecoder.SendPacket(pkt); err != nil && !errors.Is(err, astiav.ErrEagain) {
		d.log.Warn("audio packet decode failed, skipping", "error", err)
		return
	}
	d.drainAudioFrames(ctx)
}

func (d *Driver) drainAudioFrames(ctx context.Context) {
	var streamTime time.Duration
	havePTS := false

	for {
		if err := d.audioDecoder.ReceiveFrame(d.audioFrame); err != nil {
			if !errors.Is(err, astiav.ErrEagain) && !errors.Is(err, astiav.ErrEof) {
				d.log.Warn("audio frame decode failed, skipping", "error", err)
			}
			break
		}

		if pts := d.audioFrame.Pts(); pts != astiav.NoPtsValue {
			secs := float64(pts) * d.audioTimeBase
			streamTime = time.Duration(secs * float64(time.Second))
			havePTS = true
			d.position.Store(math.Float64bits(secs))
		}

		chunk, err := d.resampler.Convert(d.audioFrame)
		d.audioFrame.Unref()
		if err != nil {
			d.log.Warn("audio resample failed, skipping frame", "error", err)
			continue
		}
		if havePTS {
			d.clock.Establish(streamTime)
		}
		d.audioQueue.Write(chunk.Samples)
	}

	if !havePTS {
		return
	}
	if drift, ok := d.clock.Drift(streamTime); ok {
		if sleep := avsync.SleepForDrift(drift); sleep > 0 {
			// Decoder is racing ahead of the audio device clock.
			d.log.Debug("audio ahead", "sleep", sleep)
			sleepCtx(ctx, sleep)
		} else if drift > avsync.DriftThreshold {
			// Audio is behind real time; frame skipping is the remedy.
			d.log.Debug("audio behind", "drift", drift)
		}
	}
}

// flushAudio signals end of stream to the audio decoder and drains both it
// and the resampler.
func (d *Driver) flushAudio() {
	if d.audioDecoder == nil {
		return
	}
	if err := d.audioDecoder.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
		d.log.Warn("audio decoder flush failed", "error", err)
	}
	d.drainAudioFrames(context.Background())
	if chunk, err := d.resampler.Flush(); err == nil && len(chunk.Samples) > 0 {
		d.audioQueue.Write(chunk.Samples)
	}
}

// pace recomputes the video output delay from both queues' buffered
// durations and sleeps off any surplus so the loop does not race its
// consumers. The audio device's own buffering latency is always added to
// the video delay; audio it has already accepted will take that long to
// reach the speakers.
func (d *Driver) pace(ctx context.Context) {
	videoDur := d.videoQueue.Duration()
	delay := avsync.DelayFor(videoDur, d.target)

	minDur := videoDur
	if d.audioQueue != nil {
		audioDur := d.audioQueue.Duration()
		delay += d.audioQueue.Delay()
		if audioDur < minDur {
			minDur = audioDur
		}
	}
	d.videoQueue.SetDelay(delay)

	if sleep := avsync.SleepFor(minDur, d.target); sleep > 0 {
		d.log.Debug("queues full", "sleep", sleep)
		sleepCtx(ctx, sleep)
	}
}

// drainCommands consumes queued playback commands without blocking.
func (d *Driver) drainCommands() {
	for {
		select {
		case cmd := <-d.commands:
			switch c := cmd.(type) {
			case SeekRelative:
				d.seekRelative(c.Seconds)
			}
		default:
			return
		}
	}
}

// seekRelative seeks the container relative to the current position,
// resets the sync clock, and purges both queues. Seek failures are logged
// and playback continues from wherever the container lands.
func (d *Driver) seekRelative(seconds float64) {
	current := math.Float64frombits(d.position.Load())
	ts, backward := seekTarget(current, seconds)

	flags := astiav.NewSeekFlags()
	if backward {
		flags = astiav.NewSeekFlags(astiav.SeekFlagBackward)
	}
	d.log.Info("seeking", "from", current, "relative", seconds, "target_us", ts, "backward", backward)
	if err := d.fc.SeekFrame(-1, ts, flags); err != nil {
		d.log.Warn("seek failed", "error", err)
		return
	}

	d.clock.Reset()
	d.videoQueue.Clear()
	if d.audioQueue != nil {
		d.audioQueue.Clear()
	}
}

// seekTarget converts a relative seek into an absolute container timestamp
// in microseconds, clamped at zero. Backward seeks land on the nearest
// keyframe at or before the target, forward seeks at or after.
func seekTarget(currentSeconds, relSeconds float64) (ts int64, backward bool) {
	target := currentSeconds + relSeconds
	if target < 0 {
		target = 0
	}
	return int64(target * 1e6), relSeconds < 0
}

// videoDecodeLoop feeds packets to the video decoder and forwards every
// decoded frame. When the packet channel closes it flushes the decoder so
// buffered frames still reach the display.
func (d *Driver) videoDecodeLoop(ctx context.Context, packetCh <-chan *astiav.Packet, out chan<- *astiav.Frame) error {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pkt, ok := <-packetCh:
			if !ok {
				if err := d.videoDecoder.SendPacket(nil); err != nil && !errors.Is(err, astiav.ErrEof) {
					d.log.Warn("video decoder flush failed", "error", err)
				}
				return d.receiveVideoFrames(ctx, out)
			}
			if err := d.videoDecoder.SendPacket(pkt); err != nil && !errors.Is(err, astiav.ErrEagain) {
				d.log.Warn("video packet decode failed, skipping", "error", err)
			}
			pkt.Free()
			if err := d.receiveVideoFrames(ctx, out); err != nil {
				return err
			}
		}
	}
}

func (d *Driver) receiveVideoFrames(ctx context.Context, out chan<- *astiav.Frame) error {
	for {
		f := astiav.AllocFrame()
		if err := d.videoDecoder.ReceiveFrame(f); err != nil {
			f.Free()
			if !errors.Is(err, astiav.ErrEagain) && !errors.Is(err, astiav.ErrEof) {
				d.log.Warn("video frame decode failed, skipping", "error", err)
			}
			return nil
		}
		select {
		case out <- f:
		case <-ctx.Done():
			f.Free()
			return ctx.Err()
		}
	}
}

// transferLoop copies hardware frames to host memory before conversion.
// Software frames pass through untouched. A failed transfer drops that one
// frame and keeps the pipeline running.
func (d *Driver) transferLoop(ctx context.Context, in <-chan *astiav.Frame, out chan<- *astiav.Frame) error {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-in:
			if !ok {
				return nil
			}
			if d.hwActive && f.PixelFormat() == d.hwPixFmt {
				cpu, err := scale.Transfer(f)
				f.Free()
				if err != nil {
					d.log.Error("hardware frame transfer failed, dropping frame", "error", err)
					continue
				}
				f = cpu
			}
			select {
			case out <- f:
			case <-ctx.Done():
				f.Free()
				return ctx.Err()
			}
		}
	}
}

// scaleLoop converts frames to RGBA and pushes them onto the video queue.
// When it falls behind it drops all but the most recently decoded pending
// frame: stale video is worth less than fresh video.
func (d *Driver) scaleLoop(ctx context.Context, in <-chan *astiav.Frame) error {
	conv := scale.NewConverter(d.videoTimeBase, d.log)
	defer conv.Close()

	for {
		var f *astiav.Frame
		select {
		case <-ctx.Done():
			return ctx.Err()
		case first, ok := <-in:
			if !ok {
				return nil
			}
			f = first
		}

		// Drain whatever queued up while we were converting, keeping only
		// the newest frame.
		skipped := 0
		for {
			select {
			case extra, ok := <-in:
				if !ok {
					d.convertAndPush(conv, f)
					return nil
				}
				f.Free()
				f = extra
				skipped++
				continue
			default:
			}
			break
		}
		if skipped > 0 {
			d.log.Warn("skipped raw video frames", "count", skipped)
		}

		d.convertAndPush(conv, f)
	}
}

func (d *Driver) convertAndPush(conv *scale.Converter, f *astiav.Frame) {
	anchor, anchored := d.clock.Anchor()
	if d.audioDecoder == nil {
		if pts := f.Pts(); pts != astiav.NoPtsValue {
			tb := 0.0
			if d.videoTimeBase.Den() != 0 {
				tb = float64(d.videoTimeBase.Num()) / float64(d.videoTimeBase.Den())
			}
			secs := float64(pts) * tb
			d.position.Store(math.Float64bits(secs))
			if !anchored {
				// Audio-less sync policy: anchor at the first video frame
				// so pacing degrades to wall clock since the stream began.
				d.clock.Establish(time.Duration(secs * float64(time.Second)))
				anchor, anchored = d.clock.Anchor()
			}
		}
	}

	out, err := conv.Convert(f, anchor, anchored)
	f.Free()
	if err != nil {
		d.log.Warn("video convert failed, dropping frame", "error", err)
		return
	}
	d.videoQueue.Push(out)
}

// Close releases the container and decoder resources. Call only after Run
// has returned.
func (d *Driver) Close() {
	d.release()
}

func (d *Driver) release() {
	if d.audioFrame != nil {
		d.audioFrame.Free()
		d.audioFrame = nil
	}
	if d.audioDecoder != nil {
		d.audioDecoder.Free()
		d.audioDecoder = nil
	}
	if d.videoDecoder != nil {
		d.videoDecoder.Free()
		d.videoDecoder = nil
	}
	if d.hwDevice != nil {
		d.hwDevice.Free()
		d.hwDevice = nil
	}
	if d.fc != nil {
		d.fc.CloseInput()
		d.fc.Free()
		d.fc = nil
	}
}

// sleepCtx sleeps for dur unless ctx is cancelled first.
func sleepCtx(ctx context.Context, dur time.Duration) {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
