package camera

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// GPUCameraUniformSource is the WGSL definition of the CameraUniform struct used by the
// full-screen sky and lighting programs. It matches GPUCameraUniform exactly.
const GPUCameraUniformSource = `struct CameraUniform {
    view_proj: mat4x4<f32>,
    inv_view_proj: mat4x4<f32>,
    position: vec3<f32>,
    _pad: f32,
};
`

// GPUCameraUniform is the GPU-aligned representation of the camera uniform buffer.
// Size: 144 bytes (WGSL aligned).
type GPUCameraUniform struct {
	ViewProj        [16]float32 // offset   0: combined view-projection matrix
	InverseViewProj [16]float32 // offset  64: inverse view-projection, used to rebuild view rays
	CameraPosition  [3]float32  // offset 128: world-space camera position
	_pad            float32     // offset 140: padding to 144 bytes
}

// Size returns the size of the GPUCameraUniform struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (144)
func (g *GPUCameraUniform) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUCameraUniform struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized byte buffer
func (g *GPUCameraUniform) Marshal() []byte {
	buf := make([]byte, g.Size())
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(g.ViewProj[i]))
		binary.LittleEndian.PutUint32(buf[64+i*4:], math.Float32bits(g.InverseViewProj[i]))
	}
	for i := range 3 {
		binary.LittleEndian.PutUint32(buf[128+i*4:], math.Float32bits(g.CameraPosition[i]))
	}
	return buf
}

// Uniform builds the GPU uniform for c.
//
// Parameters:
//   - c: the camera
//
// Returns:
//   - GPUCameraUniform: the uniform data
func Uniform(c Camera) GPUCameraUniform {
	u := GPUCameraUniform{ViewProj: c.ViewProjectionMatrix(), CameraPosition: c.Position()}
	if !common.Invert4(u.InverseViewProj[:], u.ViewProj[:]) {
		u.InverseViewProj = u.ViewProj
	}
	return u
}
