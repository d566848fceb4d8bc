// Package thumbnail renders a single representative frame of a container
// to a PNG file. It reuses the playback decode path in its synchronous
// capture form, then optionally downscales before encoding.
package thumbnail

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/tessera-media/tessera/internal/decode"
	"github.com/tessera-media/tessera/internal/hwaccel"
	"github.com/tessera-media/tessera/internal/media"
)

// Options control the capture point and output geometry.
type Options struct {
	// At is the capture position. decode.CaptureAuto picks it from the
	// container duration.
	At time.Duration
	// MaxWidth and MaxHeight bound the output, preserving aspect ratio.
	// Zero means no bound.
	MaxWidth  int
	MaxHeight int
	// HWDecoder selects the decode backend for the capture.
	HWDecoder hwaccel.DeviceType
}

// Write captures a frame from locator and writes it to output as PNG.
func Write(ctx context.Context, locator, output string, o Options, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "thumbnail")

	frame, err := decode.Capture(ctx, locator, o.At, o.HWDecoder, log)
	if err != nil {
		return fmt.Errorf("capturing thumbnail frame: %w", err)
	}

	img := frameImage(frame)
	if w, h := fitWithin(img.Rect.Dx(), img.Rect.Dy(), o.MaxWidth, o.MaxHeight); w != img.Rect.Dx() || h != img.Rect.Dy() {
		img = downscale(img, w, h)
	}

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("creating thumbnail file: %w", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("encoding thumbnail: %w", err)
	}
	log.Info("thumbnail written", "output", output, "width", img.Rect.Dx(), "height", img.Rect.Dy())
	return nil
}

// frameImage wraps the frame's RGBA bytes without copying.
func frameImage(f *media.VideoFrame) *image.RGBA {
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// fitWithin shrinks (w, h) to fit the bounds while preserving aspect ratio.
// It never enlarges.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if maxW <= 0 || maxW > w {
		maxW = w
	}
	if maxH <= 0 || maxH > h {
		maxH = h
	}
	if maxW == w && maxH == h {
		return w, h
	}

	outW := maxW
	outH := h * maxW / w
	if outH > maxH {
		outH = maxH
		outW = w * maxH / h
	}
	if outW < 1 {
		outW = 1
	}
	if outH < 1 {
		outH = 1
	}
	return outW, outH
}

// downscale resamples with nearest neighbor, which is adequate for
// thumbnail-sized output.
func downscale(src *image.RGBA, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	srcW, srcH := src.Rect.Dx(), src.Rect.Dy()
	for y := 0; y < h; y++ {
		sy := y * srcH / h
		for x := 0; x < w; x++ {
			sx := x * srcW / w
			si := src.PixOffset(sx, sy)
			di := dst.PixOffset(x, y)
			copy(dst.Pix[di:di+4], src.Pix[si:si+4])
		}
	}
	return dst
}
