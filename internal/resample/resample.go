// Package resample converts decoder-native audio frames to the packed
// float32 format, sample rate, and channel layout the audio sink negotiated
// with the output device. Unlike the video path, this stage is lossless:
// every decoded sample is converted and handed to the audio queue.
package resample

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/asticode/go-astiav"

	"github.com/tessera-media/tessera/internal/media"
)

const bytesPerSample = 4 // packed f32

// Resampler owns the libswresample context for one audio stream. The
// context configures itself from the first source frame, so construction
// only needs the sink's output format.
type Resampler struct {
	swr      *astiav.SoftwareResampleContext
	layout   astiav.ChannelLayout
	channels int
	rate     int
}

// New creates a resampler targeting the sink's rate and channel count. Only
// mono and stereo output layouts are supported; any other channel count is
// a configuration error and fatal at startup.
func New(channels, sampleRate int) (*Resampler, error) {
	var layout astiav.ChannelLayout
	switch channels {
	case 1:
		layout = astiav.ChannelLayoutMono
	case 2:
		layout = astiav.ChannelLayoutStereo
	default:
		return nil, fmt.Errorf("unsupported audio output channel count %d (want 1 or 2)", channels)
	}

	swr := astiav.AllocSoftwareResampleContext()
	if swr == nil {
		return nil, fmt.Errorf("allocating software resample context failed")
	}
	return &Resampler{
		swr:      swr,
		layout:   layout,
		channels: channels,
		rate:     sampleRate,
	}, nil
}

// Convert resamples one decoded frame into an AudioChunk. The chunk holds
// exactly the resampler's output for the frame's samples at the configured
// rate ratio; nothing is dropped.
func (r *Resampler) Convert(src *astiav.Frame) (*media.AudioChunk, error) {
	return r.convert(src)
}

// Flush drains samples libswresample buffered for rate conversion. Called
// once at end of stream.
func (r *Resampler) Flush() (*media.AudioChunk, error) {
	return r.convert(nil)
}

func (r *Resampler) convert(src *astiav.Frame) (*media.AudioChunk, error) {
	dst := astiav.AllocFrame()
	if dst == nil {
		return nil, fmt.Errorf("allocating resample output frame failed")
	}
	defer dst.Free()

	dst.SetChannelLayout(r.layout)
	dst.SetSampleFormat(astiav.SampleFormatFlt)
	dst.SetSampleRate(r.rate)

	if err := r.swr.ConvertFrame(src, dst); err != nil {
		return nil, fmt.Errorf("resampling frame: %w", err)
	}

	n := dst.NbSamples() * r.channels
	if n == 0 {
		return &media.AudioChunk{Channels: r.channels, SampleRate: r.rate}, nil
	}

	// Packed samples live entirely in plane 0; the safe byte view replaces
	// any pointer arithmetic over the plane.
	raw, err := dst.Data().Bytes(0)
	if err != nil {
		return nil, fmt.Errorf("reading resampled plane: %w", err)
	}
	if need := n * bytesPerSample; len(raw) > need {
		raw = raw[:need]
	}

	return &media.AudioChunk{
		Samples:    floatsFromBytes(raw),
		Channels:   r.channels,
		SampleRate: r.rate,
	}, nil
}

// Close frees the resample context.
func (r *Resampler) Close() {
	if r.swr != nil {
		r.swr.Free()
		r.swr = nil
	}
}

// floatsFromBytes reinterprets little-endian packed f32 bytes as samples.
func floatsFromBytes(b []byte) []float32 {
	out := make([]float32, len(b)/bytesPerSample)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*bytesPerSample:]))
	}
	return out
}
