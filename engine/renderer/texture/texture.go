// Package texture describes the textures a frame graph reasons about: logical descriptors,
// the Surface view of a physical texture, and the Allocator that creates them.
package texture

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// ErrInvalidDescriptor is returned when a descriptor has non-positive dimensions,
// an unsupported pixel format, or an unsupported depth/sample configuration.
var ErrInvalidDescriptor = errors.New("invalid texture descriptor")

// DepthBits is the number of depth buffer bits a texture carries. Zero means color only.
type DepthBits int

const (
	DepthNone DepthBits = 0
	Depth16   DepthBits = 16
	Depth24   DepthBits = 24
	Depth32   DepthBits = 32
)

// formatInfo holds the per-format facts the registry and allocators need.
type formatInfo struct {
	name          string
	bytesPerPixel int
	depth         bool
}

// supportedFormats lists the pixel formats a Desc may use.
var supportedFormats = map[wgpu.TextureFormat]formatInfo{
	wgpu.TextureFormatRGBA8Unorm:          {"RGBA8Unorm", 4, false},
	wgpu.TextureFormatRGBA8UnormSrgb:      {"RGBA8UnormSrgb", 4, false},
	wgpu.TextureFormatBGRA8Unorm:          {"BGRA8Unorm", 4, false},
	wgpu.TextureFormatBGRA8UnormSrgb:      {"BGRA8UnormSrgb", 4, false},
	wgpu.TextureFormatRGB10A2Unorm:        {"RGB10A2Unorm", 4, false},
	wgpu.TextureFormatRG16Float:           {"RG16Float", 4, false},
	wgpu.TextureFormatRGBA16Float:         {"RGBA16Float", 8, false},
	wgpu.TextureFormatR32Float:            {"R32Float", 4, false},
	wgpu.TextureFormatRGBA32Float:         {"RGBA32Float", 16, false},
	wgpu.TextureFormatDepth16Unorm:        {"Depth16Unorm", 2, true},
	wgpu.TextureFormatDepth24Plus:         {"Depth24Plus", 4, true},
	wgpu.TextureFormatDepth24PlusStencil8: {"Depth24PlusStencil8", 4, true},
	wgpu.TextureFormatDepth32Float:        {"Depth32Float", 4, true},
}

// FormatSupported reports whether f can be used in a Desc.
func FormatSupported(f wgpu.TextureFormat) bool {
	_, ok := supportedFormats[f]
	return ok
}

// IsDepthFormat reports whether f is one of the supported depth formats.
func IsDepthFormat(f wgpu.TextureFormat) bool {
	return supportedFormats[f].depth
}

// FormatName returns a readable name for f, or its numeric value when unsupported.
func FormatName(f wgpu.TextureFormat) string {
	if info, ok := supportedFormats[f]; ok {
		return info.name
	}
	return fmt.Sprintf("TextureFormat(%d)", uint32(f))
}

// ParseFormat looks up a supported format by name, as written in pipeline assets.
//
// Parameters:
//   - name: a format name such as "RGBA16Float"
//
// Returns:
//   - wgpu.TextureFormat: the format
//   - error: an error wrapping ErrInvalidDescriptor when the name is unknown
func ParseFormat(name string) (wgpu.TextureFormat, error) {
	for f, info := range supportedFormats {
		if info.name == name {
			return f, nil
		}
	}
	return wgpu.TextureFormatUndefined, fmt.Errorf("%w: unknown format %q", ErrInvalidDescriptor, name)
}

// Desc is the logical description of a texture. It never owns GPU memory; an Allocator
// turns it into a Surface when the frame graph first needs the storage.
type Desc struct {
	// Width and Height are the texture size in pixels, both must be positive.
	Width, Height int

	// Format is the pixel format.
	Format wgpu.TextureFormat

	// DepthBits is the depth precision for depth targets, DepthNone for color targets.
	DepthBits DepthBits

	// MSAASamples is the multisample count; zero is treated as 1.
	MSAASamples int

	// ClearBuffer requests a clear to ClearColor (or depth 1.0) on first use in a frame.
	ClearBuffer bool

	// ClearColor is the color used when ClearBuffer is set.
	ClearColor common.Color

	// Name is a debug label.
	Name string
}

// Samples returns the effective multisample count.
func (d Desc) Samples() int {
	if d.MSAASamples <= 0 {
		return 1
	}
	return d.MSAASamples
}

// IsDepth reports whether the descriptor describes a depth target.
func (d Desc) IsDepth() bool {
	return IsDepthFormat(d.Format)
}

// SizeBytes estimates the memory footprint of the texture.
func (d Desc) SizeBytes() int64 {
	return int64(d.Width) * int64(d.Height) * int64(supportedFormats[d.Format].bytesPerPixel) * int64(d.Samples())
}

// Validate checks the descriptor and returns an error wrapping ErrInvalidDescriptor when it
// cannot be allocated.
//
// Returns:
//   - error: nil when the descriptor is valid
func (d Desc) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: %q has size %dx%d", ErrInvalidDescriptor, d.Name, d.Width, d.Height)
	}
	info, ok := supportedFormats[d.Format]
	if !ok {
		return fmt.Errorf("%w: %q uses unsupported format %s", ErrInvalidDescriptor, d.Name, FormatName(d.Format))
	}
	switch d.DepthBits {
	case DepthNone, Depth16, Depth24, Depth32:
	default:
		return fmt.Errorf("%w: %q has %d depth bits", ErrInvalidDescriptor, d.Name, d.DepthBits)
	}
	if info.depth && d.DepthBits == DepthNone {
		return fmt.Errorf("%w: %q uses depth format %s without depth bits", ErrInvalidDescriptor, d.Name, info.name)
	}
	switch d.Samples() {
	case 1, 2, 4, 8:
	default:
		return fmt.Errorf("%w: %q has %d samples", ErrInvalidDescriptor, d.Name, d.MSAASamples)
	}
	return nil
}

// Compatible reports whether storage allocated for other can back d. Names and clear
// settings are per-use and do not affect compatibility.
func (d Desc) Compatible(other Desc) bool {
	return d.Width == other.Width &&
		d.Height == other.Height &&
		d.Format == other.Format &&
		d.DepthBits == other.DepthBits &&
		d.Samples() == other.Samples()
}

func (d Desc) String() string {
	return fmt.Sprintf("%s %dx%d %s depth=%d samples=%d", d.Name, d.Width, d.Height, FormatName(d.Format), d.DepthBits, d.Samples())
}
