package decode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/asticode/go-astiav"

	"github.com/tessera-media/tessera/internal/avsync"
	"github.com/tessera-media/tessera/internal/hwaccel"
	"github.com/tessera-media/tessera/internal/media"
	"github.com/tessera-media/tessera/internal/queue"
	"github.com/tessera-media/tessera/internal/scale"
)

// CaptureAuto asks Capture to pick the capture point from the container
// duration: ten seconds in, or the midpoint for clips shorter than twenty
// seconds.
const CaptureAuto = time.Duration(-1)

// Capture opens the locator, seeks to at, and decodes frames until one lands
// at or past the target, returning it converted to RGBA. It runs the same
// open/decode path as playback but synchronously and without audio.
func Capture(ctx context.Context, locator string, at time.Duration, hw hwaccel.DeviceType, log *slog.Logger) (*media.VideoFrame, error) {
	if log == nil {
		log = slog.Default()
	}

	d, err := Open(locator, Options{
		HWDecoder:  hw,
		Clock:      avsync.NewClock(),
		VideoQueue: queue.NewVideoQueue(log),
		Log:        log,
	})
	if err != nil {
		return nil, err
	}
	defer d.Close()

	if at < 0 {
		at = defaultCaptureTime(d.Duration())
	}
	if at > 0 {
		if err := d.fc.SeekFrame(-1, at.Microseconds(), astiav.NewSeekFlags(astiav.SeekFlagBackward)); err != nil {
			log.Warn("capture seek failed, decoding from start", "error", err)
			at = 0
		}
	}

	conv := scale.NewConverter(d.videoTimeBase, log)
	defer conv.Close()

	tb := 0.0
	if d.videoTimeBase.Den() != 0 {
		tb = float64(d.videoTimeBase.Num()) / float64(d.videoTimeBase.Den())
	}

	pkt := astiav.AllocPacket()
	defer pkt.Free()
	f := astiav.AllocFrame()
	defer f.Free()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := d.fc.ReadFrame(pkt); err != nil {
			if errors.Is(err, astiav.ErrEof) {
				break
			}
			return nil, fmt.Errorf("reading container: %w", err)
		}
		if pkt.StreamIndex() != d.videoIndex {
			pkt.Unref()
			continue
		}

		err := d.videoDecoder.SendPacket(pkt)
		pkt.Unref()
		if err != nil && !errors.Is(err, astiav.ErrEagain) {
			log.Warn("capture packet decode failed, skipping", "error", err)
			continue
		}

		for d.videoDecoder.ReceiveFrame(f) == nil {
			frame, ok, err := captureFrame(d, conv, f, tb, at)
			f.Unref()
			if err != nil {
				return nil, err
			}
			if ok {
				return frame, nil
			}
		}
	}
	return nil, fmt.Errorf("no frame at or after %s in %s", at, locator)
}

func defaultCaptureTime(duration time.Duration) time.Duration {
	if duration > 0 && duration < 20*time.Second {
		return duration / 2
	}
	return 10 * time.Second
}

// captureFrame converts one decoded frame if it is at or past the capture
// target. Hardware frames are transferred to host memory first.
func captureFrame(d *Driver, conv *scale.Converter, f *astiav.Frame, tb float64, at time.Duration) (*media.VideoFrame, bool, error) {
	if pts := f.Pts(); pts != astiav.NoPtsValue && at > 0 {
		if time.Duration(float64(pts)*tb*float64(time.Second)) < at {
			return nil, false, nil
		}
	}

	src := f
	if d.hwActive && f.PixelFormat() == d.hwPixFmt {
		cpu, err := scale.Transfer(f)
		if err != nil {
			return nil, false, fmt.Errorf("transferring capture frame: %w", err)
		}
		defer cpu.Free()
		src = cpu
	}

	out, err := conv.Convert(src, time.Time{}, false)
	if err != nil {
		return nil, false, fmt.Errorf("converting capture frame: %w", err)
	}
	return out, true, nil
}
