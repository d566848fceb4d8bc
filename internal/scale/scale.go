// Package scale converts decoded pictures from whatever pixel format and
// layout the decoder produced into tightly packed RGBA ready for display,
// and hosts the GPU-to-host transfer step hardware-decoded frames need
// first. The swscale context is cached and rebuilt only when the source
// geometry or format changes, never per frame.
package scale

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/asticode/go-astiav"

	"github.com/tessera-media/tessera/internal/media"
)

// Converter turns raw decoded frames into display-ready media.VideoFrames,
// stamping each with its PTS and, when a sync anchor snapshot is supplied,
// the computed wall-clock presentation instant.
type Converter struct {
	log      *slog.Logger
	ssc      *astiav.SoftwareScaleContext
	dst      *astiav.Frame
	srcW     int
	srcH     int
	srcPix   astiav.PixelFormat
	timeBase float64 // seconds per PTS unit
}

// NewConverter creates a converter for a stream with the given time base.
// If log is nil, slog.Default() is used.
func NewConverter(timeBase astiav.Rational, log *slog.Logger) *Converter {
	if log == nil {
		log = slog.Default()
	}
	tb := 0.0
	if timeBase.Den() != 0 {
		tb = float64(timeBase.Num()) / float64(timeBase.Den())
	}
	return &Converter{
		log:      log.With("component", "video-scale"),
		timeBase: tb,
	}
}

// ensure rebuilds the scale context when the source format or dimensions
// change and reuses it otherwise.
func (c *Converter) ensure(src *astiav.Frame) error {
	w, h, pix := src.Width(), src.Height(), src.PixelFormat()
	if c.ssc != nil && w == c.srcW && h == c.srcH && pix == c.srcPix {
		return nil
	}
	c.release()

	ssc, err := astiav.CreateSoftwareScaleContext(
		w, h, pix,
		w, h, astiav.PixelFormatRgba,
		astiav.NewSoftwareScaleContextFlags(),
	)
	if err != nil {
		return fmt.Errorf("creating scale context (%dx%d %s to RGBA): %w", w, h, pix, err)
	}

	dst := astiav.AllocFrame()
	dst.SetWidth(w)
	dst.SetHeight(h)
	dst.SetPixelFormat(astiav.PixelFormatRgba)
	if err := dst.AllocBuffer(1); err != nil {
		dst.Free()
		ssc.Free()
		return fmt.Errorf("allocating scale output buffer: %w", err)
	}

	c.ssc = ssc
	c.dst = dst
	c.srcW, c.srcH, c.srcPix = w, h, pix
	c.log.Debug("scale context ready", "width", w, "height", h, "format", pix.String())
	return nil
}

// Convert produces one display-ready frame. anchor is a snapshot of the
// sync clock taken when the source packet was read; when the clock was not
// yet established the frame carries no presentation instant and is shown
// immediately.
func (c *Converter) Convert(src *astiav.Frame, anchor time.Time, anchored bool) (*media.VideoFrame, error) {
	if err := c.ensure(src); err != nil {
		return nil, err
	}
	if err := c.ssc.ScaleFrame(src, c.dst); err != nil {
		return nil, fmt.Errorf("scaling frame: %w", err)
	}

	n, err := c.dst.ImageBufferSize(1)
	if err != nil {
		return nil, fmt.Errorf("sizing converted frame: %w", err)
	}
	pix := make([]byte, n)
	if _, err := c.dst.ImageCopyToBuffer(pix, 1); err != nil {
		return nil, fmt.Errorf("copying converted frame: %w", err)
	}

	out := &media.VideoFrame{
		Pix:    pix,
		Width:  c.srcW,
		Height: c.srcH,
	}
	if pts := src.Pts(); pts != astiav.NoPtsValue {
		out.PTS = pts
		out.HasPTS = true
		if anchored {
			streamTime := time.Duration(float64(pts) * c.timeBase * float64(time.Second))
			out.PresentAt = anchor.Add(streamTime)
		}
	}
	return out, nil
}

func (c *Converter) release() {
	if c.dst != nil {
		c.dst.Free()
		c.dst = nil
	}
	if c.ssc != nil {
		c.ssc.Free()
		c.ssc = nil
	}
}

// Close frees the cached scale context and output frame.
func (c *Converter) Close() {
	c.release()
}

// Transfer copies a GPU-resident hardware frame into host memory so the
// converter can read it. The returned frame carries the source PTS and is
// owned by the caller. Failure drops only the one frame.
func Transfer(src *astiav.Frame) (*astiav.Frame, error) {
	dst := astiav.AllocFrame()
	if err := dst.TransferHardwareData(src); err != nil {
		dst.Free()
		return nil, fmt.Errorf("transferring hardware frame to host memory: %w", err)
	}
	dst.SetPts(src.Pts())
	return dst, nil
}
