package pipeline

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	key     string
	variant shader.Variant

	colorFormats []wgpu.TextureFormat
	depthFormat  wgpu.TextureFormat

	renderPipeline *wgpu.RenderPipeline

	depthTestEnabled  bool
	depthWriteEnabled bool
	cullMode          wgpu.CullMode
	topology          wgpu.PrimitiveTopology
	frontFace         wgpu.FrontFace
	writeMask         wgpu.ColorWriteMask
	blendState        *wgpu.BlendState
}

// Pipeline is the fixed-function state of one program variant drawn into one attachment layout.
// A wgpu render pipeline is immutable, so the same program bound to a different set of target
// formats is a different Pipeline with a different Key.
type Pipeline interface {
	// Key returns the cache key: variant key plus attachment formats.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	Key() string

	// Variant returns the compiled program variant.
	//
	// Returns:
	//   - shader.Variant: the variant this pipeline draws with
	Variant() shader.Variant

	// ColorFormats returns the formats of the color attachments, in attachment order.
	//
	// Returns:
	//   - []wgpu.TextureFormat: the color formats
	ColorFormats() []wgpu.TextureFormat

	// DepthFormat returns the depth attachment format, or wgpu.TextureFormatUndefined when the
	// pipeline draws without depth.
	//
	// Returns:
	//   - wgpu.TextureFormat: the depth format
	DepthFormat() wgpu.TextureFormat

	DepthTestEnabled() bool
	DepthWriteEnabled() bool
	CullMode() wgpu.CullMode
	Topology() wgpu.PrimitiveTopology
	FrontFace() wgpu.FrontFace
	WriteMask() wgpu.ColorWriteMask

	// BlendState returns the blend state, or nil for opaque programs.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// Descriptor builds the wgpu render pipeline descriptor for the given shader module and layout.
	//
	// Parameters:
	//   - module: the compiled shader module holding both entry points
	//   - layout: the pipeline layout built from the variant's bind group layouts
	//
	// Returns:
	//   - *wgpu.RenderPipelineDescriptor: the descriptor
	Descriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) *wgpu.RenderPipelineDescriptor

	// RenderPipeline returns the created GPU pipeline, or nil before SetRenderPipeline.
	//
	// Returns:
	//   - *wgpu.RenderPipeline: the GPU pipeline
	RenderPipeline() *wgpu.RenderPipeline

	// SetRenderPipeline stores the created GPU pipeline.
	//
	// Parameters:
	//   - p: the WebGPU render pipeline
	SetRenderPipeline(p *wgpu.RenderPipeline)
}

var _ Pipeline = &pipeline{}

var (
	alphaBlend = &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorSrcAlpha,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			Operation: wgpu.BlendOperationAdd,
		},
	}
	additiveBlend = &wgpu.BlendState{
		Color: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
		Alpha: wgpu.BlendComponent{
			SrcFactor: wgpu.BlendFactorOne,
			DstFactor: wgpu.BlendFactorOne,
			Operation: wgpu.BlendOperationAdd,
		},
	}
)

// NewPipeline creates the pipeline state for a variant drawn into the given attachment formats.
// Depth testing and writing default to on, culling to off.
//
// Parameters:
//   - variant: the compiled program variant
//   - colorFormats: the color attachment formats in attachment order
//   - depthFormat: the depth attachment format, or wgpu.TextureFormatUndefined for none
//   - opts: functional options overriding the default state
//
// Returns:
//   - Pipeline: the new pipeline state
func NewPipeline(variant shader.Variant, colorFormats []wgpu.TextureFormat, depthFormat wgpu.TextureFormat, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		variant:           variant,
		colorFormats:      append([]wgpu.TextureFormat(nil), colorFormats...),
		depthFormat:       depthFormat,
		depthTestEnabled:  true,
		depthWriteEnabled: true,
		cullMode:          wgpu.CullModeNone,
		topology:          wgpu.PrimitiveTopologyTriangleList,
		frontFace:         wgpu.FrontFaceCCW,
		writeMask:         wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.key = Key(variant.Key, p.colorFormats, depthFormat, p.stateKey())
	return p
}

// FromProgram creates the pipeline state for a variant of program, taking blend and depth
// state from the program.
//
// Parameters:
//   - variant: the compiled variant of program
//   - program: the program whose render state applies
//   - colorFormats: the color attachment formats
//   - depthFormat: the depth attachment format, or wgpu.TextureFormatUndefined
//
// Returns:
//   - Pipeline: the new pipeline state
func FromProgram(variant shader.Variant, program *material.Program, colorFormats []wgpu.TextureFormat, depthFormat wgpu.TextureFormat) Pipeline {
	var opts []PipelineBuilderOption
	if program != nil {
		switch program.Blend {
		case material.BlendAlpha:
			opts = append(opts, WithBlendState(alphaBlend))
		case material.BlendAdditive:
			opts = append(opts, WithBlendState(additiveBlend))
		}
		opts = append(opts,
			WithDepthWriteEnabled(!program.NoDepthWrite),
			WithDepthTestEnabled(!program.NoDepthTest),
		)
	}
	return NewPipeline(variant, colorFormats, depthFormat, opts...)
}

// Key builds a pipeline cache key.
//
// Parameters:
//   - variantKey: the program variant key
//   - colors: color attachment formats
//   - depth: depth attachment format
//   - state: an encoding of the fixed-function state
//
// Returns:
//   - string: the key
func Key(variantKey string, colors []wgpu.TextureFormat, depth wgpu.TextureFormat, state string) string {
	names := make([]string, len(colors))
	for i, f := range colors {
		names[i] = texture.FormatName(f)
	}
	d := "none"
	if depth != wgpu.TextureFormatUndefined {
		d = texture.FormatName(depth)
	}
	return fmt.Sprintf("%s [%s] depth=%s %s", variantKey, strings.Join(names, ","), d, state)
}

func (p *pipeline) stateKey() string {
	blend := "opaque"
	switch p.blendState {
	case alphaBlend:
		blend = "alpha"
	case additiveBlend:
		blend = "add"
	case nil:
	default:
		blend = fmt.Sprintf("%v", *p.blendState)
	}
	return fmt.Sprintf("ztest=%t zwrite=%t cull=%d blend=%s", p.depthTestEnabled, p.depthWriteEnabled, p.cullMode, blend)
}

func (p *pipeline) Descriptor(module *wgpu.ShaderModule, layout *wgpu.PipelineLayout) *wgpu.RenderPipelineDescriptor {
	targets := make([]wgpu.ColorTargetState, len(p.colorFormats))
	for i, f := range p.colorFormats {
		targets[i] = wgpu.ColorTargetState{
			Format:    f,
			WriteMask: p.writeMask,
			Blend:     p.blendState,
		}
	}

	desc := &wgpu.RenderPipelineDescriptor{
		Label:  p.key,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     module,
			EntryPoint: p.variant.VertexEntryPoint,
			Buffers:    p.variant.VertexLayouts,
		},
		Fragment: &wgpu.FragmentState{
			Module:     module,
			EntryPoint: p.variant.FragmentEntryPoint,
			Targets:    targets,
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  p.topology,
			FrontFace: p.frontFace,
			CullMode:  p.cullMode,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if p.depthFormat != wgpu.TextureFormatUndefined {
		compare := wgpu.CompareFunctionLessEqual
		if !p.depthTestEnabled {
			compare = wgpu.CompareFunctionAlways
		}
		desc.DepthStencil = &wgpu.DepthStencilState{
			Format:            p.depthFormat,
			DepthWriteEnabled: p.depthWriteEnabled,
			DepthCompare:      compare,
			StencilFront:      wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:       wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}
	return desc
}

func (p *pipeline) Key() string                        { return p.key }
func (p *pipeline) Variant() shader.Variant            { return p.variant }
func (p *pipeline) ColorFormats() []wgpu.TextureFormat { return p.colorFormats }
func (p *pipeline) DepthFormat() wgpu.TextureFormat    { return p.depthFormat }
func (p *pipeline) DepthTestEnabled() bool             { return p.depthTestEnabled }
func (p *pipeline) DepthWriteEnabled() bool            { return p.depthWriteEnabled }
func (p *pipeline) CullMode() wgpu.CullMode            { return p.cullMode }
func (p *pipeline) Topology() wgpu.PrimitiveTopology   { return p.topology }
func (p *pipeline) FrontFace() wgpu.FrontFace          { return p.frontFace }
func (p *pipeline) WriteMask() wgpu.ColorWriteMask     { return p.writeMask }
func (p *pipeline) BlendState() *wgpu.BlendState       { return p.blendState }

func (p *pipeline) RenderPipeline() *wgpu.RenderPipeline {
	return p.renderPipeline
}

func (p *pipeline) SetRenderPipeline(rp *wgpu.RenderPipeline) {
	p.renderPipeline = rp
}
