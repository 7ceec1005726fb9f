package shader

import (
	"unsafe"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// DrawUniformsSource is the WGSL definition of the per-draw uniform block, bound at group 0
// binding 0 of every program. It matches DrawUniforms exactly.
const DrawUniformsSource = `struct DrawUniforms {
    model: mat4x4<f32>,
    view: mat4x4<f32>,
    view_proj: mat4x4<f32>,
    inv_view_proj: mat4x4<f32>,
    light_dir: vec4<f32>,
    light_color: vec4<f32>,
    params: vec4<f32>,
};
`

// DrawUniforms is the GPU-aligned per-draw uniform block.
// Size: 304 bytes (WGSL aligned).
type DrawUniforms struct {
	Model       [16]float32 // offset   0
	View        [16]float32 // offset  64: _MatrixV
	ViewProj    [16]float32 // offset 128: _MatrixVP
	InvViewProj [16]float32 // offset 192: _InvMatrixVP
	LightDir    [4]float32  // offset 256: _LightDir
	LightColor  [4]float32  // offset 272: _LightColor
	Params      [4]float32  // offset 288: x = _LightAsQuad, y = 1 when HDR_ON
}

// Size returns the size of the DrawUniforms struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (304)
func (d *DrawUniforms) Size() int {
	return int(unsafe.Sizeof(*d))
}

// Marshal returns a copy of the uniform bytes suitable for GPU upload.
//
// Returns:
//   - []byte: the serialized bytes
func (d *DrawUniforms) Marshal() []byte {
	return append([]byte(nil), common.StructToBytes(d)...)
}
