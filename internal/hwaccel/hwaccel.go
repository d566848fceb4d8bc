// Package hwaccel names the hardware decoder backends a user can prefer and
// maps them onto FFmpeg hardware device contexts. Acquisition is always
// best-effort: a backend that cannot be created falls back to software
// decoding upstream.
package hwaccel

import (
	"fmt"
	"strings"

	"github.com/asticode/go-astiav"
)

// DeviceType identifies one hardware decode backend. The zero value is
// None (pure software decoding).
type DeviceType int

const (
	None DeviceType = iota
	CUDA
	D3D11VA
	DXVA2
	DRM
	MediaCodec
	OpenCL
	QSV
	VAAPI
	VDPAU
	VideoToolbox
	Vulkan
)

// All lists every backend in declaration order, used for help output and
// parse errors.
var All = []DeviceType{
	None, CUDA, D3D11VA, DXVA2, DRM, MediaCodec,
	OpenCL, QSV, VAAPI, VDPAU, VideoToolbox, Vulkan,
}

// ShortName returns the identifier used in configs and CLI flags.
func (d DeviceType) ShortName() string {
	switch d {
	case CUDA:
		return "cuda"
	case D3D11VA:
		return "d3d11va"
	case DXVA2:
		return "dxva2"
	case DRM:
		return "drm"
	case MediaCodec:
		return "mediacodec"
	case OpenCL:
		return "opencl"
	case QSV:
		return "qsv"
	case VAAPI:
		return "vaapi"
	case VDPAU:
		return "vdpau"
	case VideoToolbox:
		return "videotoolbox"
	case Vulkan:
		return "vulkan"
	default:
		return "none"
	}
}

// Name returns the user-facing display name.
func (d DeviceType) Name() string {
	switch d {
	case CUDA:
		return "CUDA"
	case D3D11VA:
		return "DirectX 11 Video Acceleration"
	case DXVA2:
		return "DirectX Video Acceleration 2.0"
	case DRM:
		return "Direct Rendering Manager (DRM)"
	case MediaCodec:
		return "MediaCodec"
	case OpenCL:
		return "OpenCL"
	case QSV:
		return "Intel Quick Sync Video"
	case VAAPI:
		return "VA-API"
	case VDPAU:
		return "VDPAU"
	case VideoToolbox:
		return "VideoToolbox"
	case Vulkan:
		return "Vulkan"
	default:
		return "None"
	}
}

func (d DeviceType) String() string { return d.Name() }

// Parse resolves a config or CLI value to a DeviceType. Unknown names fail
// with an error listing the valid choices, so configuration mistakes
// surface at load time instead of as silent software fallback.
func Parse(s string) (DeviceType, error) {
	for _, d := range All {
		if s == d.ShortName() {
			return d, nil
		}
	}
	valid := make([]string, len(All))
	for i, d := range All {
		valid[i] = d.ShortName()
	}
	return None, fmt.Errorf("unknown hardware decoder %q (valid values: %s)", s, strings.Join(valid, ", "))
}

// astiavType maps a DeviceType to FFmpeg's device type enum.
func (d DeviceType) astiavType() astiav.HardwareDeviceType {
	switch d {
	case CUDA:
		return astiav.HardwareDeviceTypeCUDA
	case D3D11VA:
		return astiav.HardwareDeviceTypeD3D11VA
	case DXVA2:
		return astiav.HardwareDeviceTypeDXVA2
	case DRM:
		return astiav.HardwareDeviceTypeDRM
	case MediaCodec:
		return astiav.HardwareDeviceTypeMediaCodec
	case OpenCL:
		return astiav.HardwareDeviceTypeOpenCL
	case QSV:
		return astiav.HardwareDeviceTypeQSV
	case VAAPI:
		return astiav.HardwareDeviceTypeVAAPI
	case VDPAU:
		return astiav.HardwareDeviceTypeVDPAU
	case VideoToolbox:
		return astiav.HardwareDeviceTypeVideoToolbox
	case Vulkan:
		return astiav.HardwareDeviceTypeVulkan
	default:
		return astiav.HardwareDeviceTypeNone
	}
}

// PixelFormat returns the hardware pixel format frames decoded through this
// backend arrive in. Frames in this format are GPU-resident and must be
// transferred to host memory before conversion.
func (d DeviceType) PixelFormat() astiav.PixelFormat {
	switch d {
	case CUDA:
		return astiav.PixelFormatCuda
	case D3D11VA:
		return astiav.PixelFormatD3D11
	case DXVA2:
		return astiav.PixelFormatDxva2Vld
	case DRM:
		return astiav.PixelFormatDrmPrime
	case MediaCodec:
		return astiav.PixelFormatMediacodec
	case OpenCL:
		return astiav.PixelFormatOpencl
	case QSV:
		return astiav.PixelFormatQsv
	case VAAPI:
		return astiav.PixelFormatVaapi
	case VDPAU:
		return astiav.PixelFormatVdpau
	case VideoToolbox:
		return astiav.PixelFormatVideotoolbox
	case Vulkan:
		return astiav.PixelFormatVulkan
	default:
		return astiav.PixelFormatNone
	}
}

// NewDeviceContext creates the FFmpeg hardware device context for this
// backend. Callers treat failure as non-fatal and decode in software.
func (d DeviceType) NewDeviceContext() (*astiav.HardwareDeviceContext, error) {
	if d == None {
		return nil, fmt.Errorf("no hardware decoder selected")
	}
	ctx, err := astiav.CreateHardwareDeviceContext(d.astiavType(), "", nil, 0)
	if err != nil {
		return nil, fmt.Errorf("creating %s device context: %w", d.ShortName(), err)
	}
	return ctx, nil
}

// Supported filters All down to the backends this FFmpeg build knows about.
func Supported() []DeviceType {
	var out []DeviceType
	for _, d := range All {
		if d == None {
			continue
		}
		if astiav.FindHardwareDeviceTypeByName(d.ShortName()) != astiav.HardwareDeviceTypeNone {
			out = append(out, d)
		}
	}
	return out
}
