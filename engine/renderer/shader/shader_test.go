package shader

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lightingSource = `//@oxy:include draw
@group(0) @binding(0) var<uniform> draw: DrawUniforms;
@group(1) @binding(0) var samp: sampler;
@group(1) @binding(1) var gbuffer0: texture_2d<f32>;
@group(1) @binding(2) var depth: texture_depth_2d;

struct VertexInput {
    @location(0) position: vec3<f32>,
};

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.clip = vec4<f32>(in.position, 1.0);
    out.uv = in.position.xy * 0.5 + 0.5;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    //@oxy:if HDR_ON
    let c = draw.light_color.rgb;
    //@oxy:else
    let c = exp2(-draw.light_color.rgb);
    //@oxy:endif
    return vec4<f32>(c, 1.0);
}
`

func TestDrawUniformsSize(t *testing.T) {
	var d DrawUniforms
	assert.Equal(t, 304, d.Size())
	assert.Len(t, d.Marshal(), 304)

	structs := parseStructBlocks(stripComments(DrawUniformsSource))
	sizes := computeStructSizes(structs)
	assert.Equal(t, uint64(304), sizes["DrawUniforms"].size)
}

func TestProcessSelectsKeywordBlocks(t *testing.T) {
	pre := NewPreProcessor()

	on, err := pre.Process(lightingSource, map[string]bool{"HDR_ON": true})
	require.NoError(t, err)
	assert.Contains(t, on, "let c = draw.light_color.rgb;")
	assert.NotContains(t, on, "exp2")
	assert.Contains(t, on, "struct DrawUniforms")

	off, err := pre.Process(lightingSource, nil)
	require.NoError(t, err)
	assert.Contains(t, off, "exp2")
	assert.NotContains(t, off, "let c = draw.light_color.rgb;")
}

func TestProcessNestedAndNegated(t *testing.T) {
	src := "a\n//@oxy:if !X\nb\n//@oxy:if Y\nc\n//@oxy:endif\n//@oxy:else\nd\n//@oxy:endif\ne"
	pre := NewPreProcessor()

	out, err := pre.Process(src, map[string]bool{"Y": true})
	require.NoError(t, err)
	assert.Equal(t, "a\nb\nc\ne", out)

	out, err = pre.Process(src, map[string]bool{"X": true, "Y": true})
	require.NoError(t, err)
	assert.Equal(t, "a\nd\ne", out)
}

func TestProcessErrors(t *testing.T) {
	pre := NewPreProcessor()
	cases := map[string]string{
		"else without if":  "//@oxy:else",
		"endif without if": "//@oxy:endif",
		"double else":      "//@oxy:if A\n//@oxy:else\n//@oxy:else\n//@oxy:endif",
		"unterminated":     "//@oxy:if A\nx",
		"unknown include":  "//@oxy:include lights",
		"unknown type":     "//@oxy:loop A",
		"if without arg":   "//@oxy:if",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := pre.Process(src, nil)
			assert.Error(t, err)
		})
	}
}

func TestPlainCommentsAreNotAnnotations(t *testing.T) {
	a, err := parseAnnotation("// a note about lighting", 1)
	require.NoError(t, err)
	assert.Nil(t, a)

	a, err = parseAnnotation("let x = 1; //@oxy:if A", 1)
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestCompileReflectsLayouts(t *testing.T) {
	c := NewCompiler()
	p := &material.Program{Name: "Lighting", Source: lightingSource}

	v, err := c.Compile(p, map[string]bool{"HDR_ON": true})
	require.NoError(t, err)

	assert.Equal(t, "Lighting|HDR_ON", v.Key)
	assert.Equal(t, "vs_main", v.VertexEntryPoint)
	assert.Equal(t, "fs_main", v.FragmentEntryPoint)
	assert.Equal(t, 2, v.GroupCount())

	require.Len(t, v.VertexLayouts, 1)
	assert.Equal(t, uint64(12), v.VertexLayouts[0].ArrayStride)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, v.VertexLayouts[0].Attributes[0].Format)

	g0 := v.BindGroupLayouts[0].Entries
	require.Len(t, g0, 1)
	assert.Equal(t, wgpu.BufferBindingTypeUniform, g0[0].Buffer.Type)
	assert.Equal(t, uint64(304), g0[0].Buffer.MinBindingSize)

	g1 := v.BindGroupLayouts[1].Entries
	require.Len(t, g1, 3)
	assert.Equal(t, wgpu.SamplerBindingTypeNonFiltering, g1[0].Sampler.Type)
	assert.Equal(t, wgpu.TextureSampleTypeUnfilterableFloat, g1[1].Texture.SampleType)
	assert.Equal(t, wgpu.TextureSampleTypeDepth, g1[2].Texture.SampleType)
	assert.Equal(t, wgpu.TextureViewDimension2D, g1[2].Texture.ViewDimension)
	assert.Equal(t, "gbuffer0", v.BindingNames[1][1])
}

func TestCompileCachesPerKeywordSet(t *testing.T) {
	c := NewCompiler()
	p := &material.Program{Name: "Lighting", Source: lightingSource}

	_, err := c.Compile(p, map[string]bool{"HDR_ON": true})
	require.NoError(t, err)
	_, err = c.Compile(p, map[string]bool{"HDR_ON": true, "UNUSED": false})
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = c.Compile(p, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
}

func TestCompileErrors(t *testing.T) {
	c := NewCompiler()

	_, err := c.Compile(nil, nil)
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = c.Compile(&material.Program{Name: "Empty"}, nil)
	assert.ErrorIs(t, err, ErrNoSource)

	_, err = c.Compile(&material.Program{Name: "VertexOnly", Source: "@vertex fn vs() {}"}, nil)
	assert.ErrorIs(t, err, ErrNoEntryPoint)
}

func TestFullScreenProgramHasNoVertexLayout(t *testing.T) {
	src := `struct Out {
    @builtin(position) clip: vec4<f32>,
};
@vertex fn vs_main(@builtin(vertex_index) i: u32) -> Out { var o: Out; return o; }
@fragment fn fs_main() -> @location(0) vec4<f32> { return vec4<f32>(0.0); }`
	assert.Empty(t, parseVertexLayouts(src))
}

func TestFragmentOutputStructIsNotVertexInput(t *testing.T) {
	src := `struct VertexInput { @location(0) position: vec3<f32>, };
struct VertexOutput { @builtin(position) clip: vec4<f32>, };
struct GBufferOutput { @location(0) diffuse: vec4<f32>, @location(1) normal: vec4<f32>, };
@vertex fn vs_main(in: VertexInput) -> VertexOutput { var o: VertexOutput; return o; }
@fragment fn fs_main(in: VertexOutput) -> GBufferOutput { var o: GBufferOutput; return o; }`
	layouts := parseVertexLayouts(src)
	require.Len(t, layouts, 1)
	assert.Equal(t, uint64(12), layouts[0].ArrayStride)
}

func TestStripComments(t *testing.T) {
	src := "a /* b /* nested */ c */ d\n// line\ne // tail\nf"
	assert.Equal(t, "a  d\n\ne \nf", stripComments(src))
}
