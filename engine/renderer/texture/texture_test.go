package texture

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescValidate(t *testing.T) {
	valid := Desc{Width: 64, Height: 32, Format: wgpu.TextureFormatRGBA8Unorm, Name: "color"}
	require.NoError(t, valid.Validate())

	depth := Desc{Width: 64, Height: 32, Format: wgpu.TextureFormatDepth24Plus, DepthBits: Depth24, Name: "depth"}
	require.NoError(t, depth.Validate())
	assert.True(t, depth.IsDepth())

	tests := []struct {
		name string
		desc Desc
	}{
		{"zero width", Desc{Width: 0, Height: 32, Format: wgpu.TextureFormatRGBA8Unorm}},
		{"negative height", Desc{Width: 16, Height: -1, Format: wgpu.TextureFormatRGBA8Unorm}},
		{"unsupported format", Desc{Width: 16, Height: 16, Format: wgpu.TextureFormatUndefined}},
		{"odd depth bits", Desc{Width: 16, Height: 16, Format: wgpu.TextureFormatDepth24Plus, DepthBits: 12}},
		{"depth format without bits", Desc{Width: 16, Height: 16, Format: wgpu.TextureFormatDepth32Float}},
		{"bad sample count", Desc{Width: 16, Height: 16, Format: wgpu.TextureFormatRGBA8Unorm, MSAASamples: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.desc.Validate(), ErrInvalidDescriptor)
		})
	}
}

func TestDescCompatible(t *testing.T) {
	a := Desc{Width: 8, Height: 8, Format: wgpu.TextureFormatRGBA16Float, Name: "a", ClearBuffer: true}
	b := Desc{Width: 8, Height: 8, Format: wgpu.TextureFormatRGBA16Float, Name: "b", MSAASamples: 1}
	assert.True(t, a.Compatible(b))

	b.Width = 16
	assert.False(t, a.Compatible(b))
	assert.Equal(t, int64(8*8*8), a.SizeBytes())
}

func TestMemoryAllocator(t *testing.T) {
	alloc := NewMemoryAllocator()
	s, err := alloc.Allocate(Desc{Width: 4, Height: 2, Format: wgpu.TextureFormatRGBA8Unorm, Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, 4, s.Width())
	assert.Equal(t, 2, s.Height())
	assert.Equal(t, wgpu.TextureFormatRGBA8Unorm, s.Format())
	assert.Equal(t, 1, alloc.Live())

	alloc.Release(s)
	alloc.Release(s)
	assert.Equal(t, 0, alloc.Live())
	assert.True(t, s.(*RenderTexture).Released())

	_, err = alloc.Allocate(Desc{Width: 0, Height: 2, Format: wgpu.TextureFormatRGBA8Unorm})
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
	assert.Equal(t, 1, alloc.Allocated())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("RGBA16Float")
	assert.NoError(t, err)
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, f)
	assert.Equal(t, "RGBA16Float", FormatName(f))

	_, err = ParseFormat("ARGBHalf")
	assert.ErrorIs(t, err, ErrInvalidDescriptor)
}
