package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuSurface is a texture.Surface backed by a GPU texture.
type wgpuSurface struct {
	desc    texture.Desc
	texture *wgpu.Texture
	view    *wgpu.TextureView

	// swapchain surfaces are owned by the wgpu surface and released on present
	swapchain bool
}

var _ texture.Surface = &wgpuSurface{}

func (s *wgpuSurface) Name() string               { return s.desc.Name }
func (s *wgpuSurface) Width() int                 { return s.desc.Width }
func (s *wgpuSurface) Height() int                { return s.desc.Height }
func (s *wgpuSurface) Format() wgpu.TextureFormat { return s.desc.Format }
func (s *wgpuSurface) Samples() int               { return s.desc.Samples() }

func (s *wgpuSurface) String() string {
	return fmt.Sprintf("wgpuSurface(%s)", s.desc)
}

func (s *wgpuSurface) release() {
	if s.view != nil {
		s.view.Release()
		s.view = nil
	}
	if s.texture != nil {
		s.texture.Release()
		s.texture = nil
	}
}

// surfaceUsage is the usage of every frame-graph texture: rendered to, sampled by later passes
// and copied by blits.
const surfaceUsage = wgpu.TextureUsageRenderAttachment |
	wgpu.TextureUsageTextureBinding |
	wgpu.TextureUsageCopySrc |
	wgpu.TextureUsageCopyDst

// newWGPUSurface creates the GPU texture and default view for desc.
//
// Parameters:
//   - device: the device to allocate on
//   - desc: the validated surface description
//
// Returns:
//   - *wgpuSurface: the new surface
//   - error: an error if texture or view creation fails
func newWGPUSurface(device *wgpu.Device, desc texture.Desc) (*wgpuSurface, error) {
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Name,
		Size: wgpu.Extent3D{
			Width:              uint32(desc.Width),
			Height:             uint32(desc.Height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   uint32(desc.Samples()),
		Dimension:     wgpu.TextureDimension2D,
		Format:        desc.Format,
		Usage:         surfaceUsage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Name, err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create view %q: %w", desc.Name, err)
	}
	return &wgpuSurface{desc: desc, texture: tex, view: view}, nil
}
