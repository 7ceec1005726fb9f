package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	ErrForeignSurface = errors.New("surface was not allocated by the wgpu backend")
	ErrFrameInFlight  = errors.New("previous frame surface not yet presented")
)

// blitProgram copies one surface into another of any size and format with a full-screen
// triangle. It samples with textureLoad, scaling by the destination size in draw.params.zw.
var blitProgram = &material.Program{
	Name:         "Hidden/Blit",
	NoDepthTest:  true,
	NoDepthWrite: true,
	Textures:     []string{blitSourceName},
	Source: `//@oxy:include draw
@group(0) @binding(0) var<uniform> draw: DrawUniforms;
@group(1) @binding(0) var blit_source: texture_2d<f32>;

struct VertexOutput {
    @builtin(position) clip: vec4<f32>,
};

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    let uv = vec2<f32>(f32((index << 1u) & 2u), f32(index & 2u));
    var out: VertexOutput;
    out.clip = vec4<f32>(uv * 2.0 - 1.0, 0.0, 1.0);
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    let size = vec2<f32>(textureDimensions(blit_source));
    let p = vec2<i32>(in.clip.xy * size / draw.params.zw);
    return textureLoad(blit_source, p, 0);
}
`,
}

const blitSourceName = "_BlitSource"

// clearColorProgram fills the viewport of one color attachment with draw.light_color. Load-op
// clears always cover the whole attachment, so partial clears draw instead.
var clearColorProgram = &material.Program{
	Name:         "Hidden/ClearColor",
	NoDepthTest:  true,
	NoDepthWrite: true,
	Source: `//@oxy:include draw
@group(0) @binding(0) var<uniform> draw: DrawUniforms;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    let uv = vec2<f32>(f32((index << 1u) & 2u), f32(index & 2u));
    return vec4<f32>(uv * 2.0 - 1.0, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return draw.light_color;
}
`,
}

// clearDepthProgram resets the viewport of a depth attachment to the far plane.
var clearDepthProgram = &material.Program{
	Name:        "Hidden/ClearDepth",
	NoDepthTest: true,
	Source: `//@oxy:include draw
@group(0) @binding(0) var<uniform> draw: DrawUniforms;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> @builtin(position) vec4<f32> {
    let uv = vec2<f32>(f32((index << 1u) & 2u), f32(index & 2u));
    return vec4<f32>(uv * 2.0 - 1.0, 1.0, 1.0);
}

@fragment
fn fs_main() {
}
`,
}

// variantResources are the GPU objects shared by every pipeline of one program variant.
type variantResources struct {
	module       *wgpu.ShaderModule
	groupLayouts []*wgpu.BindGroupLayout
	layout       *wgpu.PipelineLayout
}

type wgpuRendererBackendImpl struct {
	mu     *sync.Mutex
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat wgpu.TextureFormat
	presentMode   wgpu.PresentMode
	width, height int

	// backbuffer is the acquired swapchain image, nil between Present and BeginFrame
	backbuffer *wgpuSurface

	compiler  shader.Compiler
	variants  map[string]*variantResources
	pipelines map[string]pipeline.Pipeline
	meshes    map[*command.Mesh]bind_group_provider.BindGroupProvider
	sampler   *wgpu.Sampler

	state   *frameState
	encoder *wgpu.CommandEncoder
	// draws are the per-draw providers of the commands encoded since the last Submit
	draws []bind_group_provider.BindGroupProvider
}

// WGPURendererBackend is the WebGPU render context. It presents to a window surface, allocates
// frame-graph surfaces as GPU textures and replays recorded command buffers as render passes.
type WGPURendererBackend interface {
	Backend

	// SetPresentMode sets the present mode used by the next ConfigureSurface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// Compiler returns the program variant compiler.
	//
	// Returns:
	//   - shader.Compiler: the compiler
	Compiler() shader.Compiler
}

var _ WGPURendererBackend = &wgpuRendererBackendImpl{}

// WGPUBackendOption is a functional option for NewWGPURendererBackend.
type WGPUBackendOption func(*wgpuBackendConfig)

type wgpuBackendConfig struct {
	presentMode          PresentMode
	forceFallbackAdapter bool
}

// WithPresentMode sets the initial present mode.
func WithPresentMode(mode PresentMode) WGPUBackendOption {
	return func(c *wgpuBackendConfig) {
		c.presentMode = mode
	}
}

// WithFallbackAdapter requests the software adapter.
func WithFallbackAdapter(force bool) WGPUBackendOption {
	return func(c *wgpuBackendConfig) {
		c.forceFallbackAdapter = force
	}
}

// NewWGPURendererBackend creates the instance, surface, adapter and device. The calling
// goroutine is locked to its OS thread, which must be the window's thread.
//
// Parameters:
//   - surfaceDescriptor: the platform surface descriptor from the window
//   - options: functional options
//
// Returns:
//   - WGPURendererBackend: the backend, surface not yet configured
//   - error: an error if no adapter or device is available
func NewWGPURendererBackend(surfaceDescriptor *wgpu.SurfaceDescriptor, options ...WGPUBackendOption) (WGPURendererBackend, error) {
	cfg := wgpuBackendConfig{presentMode: PresentModeUncapped}
	for _, opt := range options {
		opt(&cfg)
	}

	runtime.LockOSThread()
	b := &wgpuRendererBackendImpl{
		mu:        &sync.Mutex{},
		instance:  wgpu.CreateInstance(nil),
		compiler:  shader.NewCompiler(),
		variants:  make(map[string]*variantResources),
		pipelines: make(map[string]pipeline.Pipeline),
		meshes:    make(map[*command.Mesh]bind_group_provider.BindGroupProvider),
		state:     newFrameState(),
	}
	b.SetPresentMode(cfg.presentMode)
	b.surface = b.instance.CreateSurface(surfaceDescriptor)

	a, err := b.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    b.surface,
	})
	if err != nil {
		return nil, fmt.Errorf("request adapter: %w", err)
	}
	b.adapter = a

	d, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: wgpu.DefaultLimits(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("request device: %w", err)
	}
	b.device = d
	b.queue = d.GetQueue()

	b.sampler, err = d.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Point Clamp Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeNearest,
		MinFilter:     wgpu.FilterModeNearest,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		LodMaxClamp:   32,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler: %w", err)
	}
	return b, nil
}

func (b *wgpuRendererBackendImpl) ConfigureSurface(width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.width, b.height = max(width, 0), max(height, 0)
	if b.width == 0 || b.height == 0 {
		// minimized; frames are skipped until the next resize
		return
	}
	capabilities := b.surface.GetCapabilities(b.adapter)
	b.surfaceFormat = capabilities.Formats[0]

	b.surface.Configure(b.adapter, b.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      b.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: b.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})
	common.Logger().Debug("wgpu: surface configured", "width", width, "height", height, "format", texture.FormatName(b.surfaceFormat))
}

func (b *wgpuRendererBackendImpl) SetPresentMode(mode PresentMode) {
	switch mode {
	case PresentModeVSync:
		b.presentMode = wgpu.PresentModeFifo
	default:
		b.presentMode = wgpu.PresentModeImmediate
	}
}

func (b *wgpuRendererBackendImpl) Compiler() shader.Compiler {
	return b.compiler
}

func (b *wgpuRendererBackendImpl) DisplaySize() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *wgpuRendererBackendImpl) Backbuffer() texture.Surface {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backbuffer == nil {
		return nil
	}
	return b.backbuffer
}

func (b *wgpuRendererBackendImpl) BeginFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.backbuffer != nil {
		return ErrFrameInFlight
	}
	b.state.reset()
	if b.width == 0 || b.height == 0 {
		return nil
	}
	surfaceTexture, err := b.surface.GetCurrentTexture()
	if err != nil {
		return err
	}
	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}
	b.backbuffer = &wgpuSurface{
		desc: texture.Desc{
			Name:   "Backbuffer",
			Width:  b.width,
			Height: b.height,
			Format: b.surfaceFormat,
		},
		texture:   surfaceTexture,
		view:      view,
		swapchain: true,
	}
	return nil
}

func (b *wgpuRendererBackendImpl) Present() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.backbuffer == nil {
		return
	}
	b.surface.Present()
	b.backbuffer.release()
	b.backbuffer = nil
}

func (b *wgpuRendererBackendImpl) Allocate(desc texture.Desc) (texture.Surface, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return newWGPUSurface(b.device, desc)
}

func (b *wgpuRendererBackendImpl) Release(s texture.Surface) {
	ws, ok := s.(*wgpuSurface)
	if !ok || ws.swapchain {
		return
	}
	ws.release()
}

func (b *wgpuRendererBackendImpl) ExecuteCommandBuffer(cmd command.Buffer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil {
		encoder, err := b.device.CreateCommandEncoder(nil)
		if err != nil {
			return fmt.Errorf("create command encoder: %w", err)
		}
		b.encoder = encoder
	}
	for i, c := range cmd.Commands() {
		if err := b.execute(c); err != nil {
			return fmt.Errorf("%s: command %d (%T): %w", cmd.Name(), i, c, err)
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) execute(c command.Command) error {
	if b.state.apply(c) {
		return nil
	}
	switch c := c.(type) {
	case command.ClearRenderTarget:
		return b.clear(c)
	case command.DrawMesh:
		return b.draw(c.Mesh, c.Matrix, c.Material, c.Properties)
	case command.DrawRendererList:
		for _, item := range c.List.Items {
			m, ok := item.(interface{ Mesh() *command.Mesh })
			if !ok {
				continue
			}
			if err := b.draw(m.Mesh(), item.Matrix(), item.Material(), nil); err != nil {
				return fmt.Errorf("renderer %q: %w", item.Name(), err)
			}
		}
		return nil
	case command.Blit:
		return b.blit(c.Src, c.Dst)
	}
	return fmt.Errorf("unknown command %T", c)
}

func (b *wgpuRendererBackendImpl) Submit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder == nil {
		return nil
	}
	encoder := b.encoder
	b.encoder = nil
	defer encoder.Release()
	defer b.releaseDraws()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("finish command encoder: %w", err)
	}
	b.queue.Submit(commandBuffer)
	commandBuffer.Release()
	return nil
}

func (b *wgpuRendererBackendImpl) releaseDraws() {
	for _, p := range b.draws {
		p.Release()
	}
	b.draws = b.draws[:0]
}

// attachments converts the bound targets to GPU surfaces.
func (b *wgpuRendererBackendImpl) attachments() ([]*wgpuSurface, *wgpuSurface, error) {
	colors := make([]*wgpuSurface, 0, len(b.state.colors))
	for _, s := range b.state.colors {
		ws, err := asWGPUSurface(s)
		if err != nil {
			return nil, nil, err
		}
		colors = append(colors, ws)
	}
	var depth *wgpuSurface
	if b.state.depth != nil {
		var err error
		if depth, err = asWGPUSurface(b.state.depth); err != nil {
			return nil, nil, err
		}
	}
	if len(colors) == 0 && depth == nil {
		return nil, nil, ErrNoRenderTarget
	}
	return colors, depth, nil
}

func asWGPUSurface(s texture.Surface) (*wgpuSurface, error) {
	ws, ok := s.(*wgpuSurface)
	if !ok || ws.view == nil {
		return nil, fmt.Errorf("%w: %v", ErrForeignSurface, s)
	}
	return ws, nil
}

// beginPass opens a render pass on the bound attachments. Attachments load their contents
// unless a clear value is given.
func (b *wgpuRendererBackendImpl) beginPass(colors []*wgpuSurface, depth *wgpuSurface, clearColor *common.Color, clearDepth bool) *wgpu.RenderPassEncoder {
	desc := &wgpu.RenderPassDescriptor{
		ColorAttachments: make([]wgpu.RenderPassColorAttachment, len(colors)),
	}
	for i, c := range colors {
		att := wgpu.RenderPassColorAttachment{
			View:    c.view,
			LoadOp:  wgpu.LoadOpLoad,
			StoreOp: wgpu.StoreOpStore,
		}
		if clearColor != nil {
			att.LoadOp = wgpu.LoadOpClear
			att.ClearValue = wgpu.Color{
				R: float64(clearColor[0]),
				G: float64(clearColor[1]),
				B: float64(clearColor[2]),
				A: float64(clearColor[3]),
			}
		}
		desc.ColorAttachments[i] = att
	}
	if depth != nil {
		load := wgpu.LoadOpLoad
		if clearDepth {
			load = wgpu.LoadOpClear
		}
		desc.DepthStencilAttachment = &wgpu.RenderPassDepthStencilAttachment{
			View:            depth.view,
			DepthLoadOp:     load,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		}
	}
	return b.encoder.BeginRenderPass(desc)
}

func (b *wgpuRendererBackendImpl) clear(c command.ClearRenderTarget) error {
	colors, depth, err := b.attachments()
	if err != nil {
		return err
	}
	if !c.Color {
		colors = nil
	}
	if !c.Depth {
		depth = nil
	}
	if len(colors) == 0 && depth == nil {
		return nil
	}
	region, full, err := b.state.region()
	if err != nil {
		return err
	}
	if region.Empty() {
		return nil
	}
	if !full {
		return b.clearRegion(c)
	}
	var value *common.Color
	if c.Color {
		value = &c.Value
	}
	pass := b.beginPass(colors, depth, value, c.Depth)
	pass.End()
	return nil
}

// clearRegion clears the viewport of each requested attachment with a full-screen draw.
func (b *wgpuRendererBackendImpl) clearRegion(c command.ClearRenderTarget) error {
	saved := *b.state
	defer func() { *b.state = saved }()

	tri := command.FullScreenTriangle()
	if c.Color {
		props := material.NewPropertyBlock()
		props.SetColor(deferred.PropLightColor, c.Value)
		for _, s := range saved.colors {
			b.state.colors = []texture.Surface{s}
			b.state.depth = nil
			if err := b.drawProgram(clearColorProgram, tri, common.IdentityMatrix(), props); err != nil {
				return err
			}
		}
	}
	if c.Depth && saved.depth != nil {
		b.state.colors = nil
		b.state.depth = saved.depth
		if err := b.drawProgram(clearDepthProgram, tri, common.IdentityMatrix(), nil); err != nil {
			return err
		}
	}
	return nil
}

func (b *wgpuRendererBackendImpl) blit(src, dst texture.Surface) error {
	saved := *b.state
	defer func() { *b.state = saved }()

	b.state.colors = []texture.Surface{dst}
	b.state.depth = nil
	b.state.viewport, b.state.hasViewport = common.Rect{}, false
	b.state.textures = map[string]texture.Surface{blitSourceName: src}
	return b.drawProgram(blitProgram, command.FullScreenTriangle(), common.IdentityMatrix(), nil)
}

// draw records one mesh draw. Materials without a program and programs without source are
// host-only handles and draw nothing.
func (b *wgpuRendererBackendImpl) draw(mesh *command.Mesh, model [16]float32, mat *material.Material, props *material.PropertyBlock) error {
	if mesh == nil || !mat.Drawable() {
		return nil
	}
	prog := mat.Program()
	if prog.Source == "" {
		return nil
	}
	return b.drawProgram(prog, mesh, model, props)
}

func (b *wgpuRendererBackendImpl) drawProgram(prog *material.Program, mesh *command.Mesh, model [16]float32, props *material.PropertyBlock) error {
	colors, depth, err := b.attachments()
	if err != nil {
		return err
	}
	region, _, err := b.state.region()
	if err != nil {
		return err
	}
	if region.Empty() {
		return nil
	}
	variant, err := b.compiler.Compile(prog, b.state.keywordSet())
	if err != nil {
		return err
	}
	textures, err := b.state.textureBindings(variant, prog)
	if err != nil {
		return fmt.Errorf("program %q: %w", prog.Name, err)
	}

	colorFormats := make([]wgpu.TextureFormat, len(colors))
	for i, c := range colors {
		colorFormats[i] = c.Format()
	}
	depthFormat := wgpu.TextureFormatUndefined
	if depth != nil {
		depthFormat = depth.Format()
	}
	p, res, err := b.renderPipeline(pipeline.FromProgram(variant, prog, colorFormats, depthFormat))
	if err != nil {
		return err
	}
	gpuMesh, err := b.mesh(mesh)
	if err != nil {
		return err
	}
	u := b.state.uniforms(model, props)
	provider, err := b.drawBindings(prog.Name, variant, res, &u, textures)
	if err != nil {
		return err
	}

	pass := b.beginPass(colors, depth, nil, false)
	pass.SetViewport(float32(region.X), float32(region.Y), float32(region.Width), float32(region.Height), 0, 1)
	pass.SetScissorRect(uint32(region.X), uint32(region.Y), uint32(region.Width), uint32(region.Height))
	pass.SetPipeline(p.RenderPipeline())
	for g, bg := range provider.BindGroups() {
		pass.SetBindGroup(uint32(g), bg, nil)
	}
	if len(variant.VertexLayouts) > 0 {
		pass.SetVertexBuffer(0, gpuMesh.VertexBuffer(), 0, wgpu.WholeSize)
	}
	pass.SetIndexBuffer(gpuMesh.IndexBuffer(), wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(uint32(gpuMesh.IndexCount()), 1, 0, 0, 0)
	pass.End()
	return nil
}

// renderPipeline returns the cached GPU pipeline for p's key, creating the variant's shader
// module and layouts and the pipeline on first use.
func (b *wgpuRendererBackendImpl) renderPipeline(p pipeline.Pipeline) (pipeline.Pipeline, *variantResources, error) {
	variant := p.Variant()
	res, err := b.variantResources(variant)
	if err != nil {
		return nil, nil, err
	}
	if cached, ok := b.pipelines[p.Key()]; ok {
		return cached, res, nil
	}

	created, err := b.device.CreateRenderPipeline(p.Descriptor(res.module, res.layout))
	if err != nil {
		return nil, nil, fmt.Errorf("create render pipeline %q: %w", p.Key(), err)
	}
	p.SetRenderPipeline(created)
	b.pipelines[p.Key()] = p
	common.Logger().Debug("wgpu: pipeline created", "key", p.Key())
	return p, res, nil
}

func (b *wgpuRendererBackendImpl) variantResources(variant shader.Variant) (*variantResources, error) {
	if res, ok := b.variants[variant.Key]; ok {
		return res, nil
	}

	module, err := b.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: variant.Key,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: variant.Source,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create shader module %q: %w", variant.Key, err)
	}
	res := &variantResources{module: module}

	// groups below the highest declared one still need a layout, even if empty
	for g := range variant.GroupCount() {
		desc := variant.BindGroupLayouts[g]
		desc.Label = fmt.Sprintf("%s group %d", variant.Key, g)
		layout, err := b.device.CreateBindGroupLayout(&desc)
		if err != nil {
			return nil, fmt.Errorf("create bind group layout for group %d: %w", g, err)
		}
		res.groupLayouts = append(res.groupLayouts, layout)
	}
	res.layout, err = b.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            variant.Key,
		BindGroupLayouts: res.groupLayouts,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %q: %w", variant.Key, err)
	}
	b.variants[variant.Key] = res
	return res, nil
}

// mesh returns the cached vertex and index buffers of m, uploading them on first use.
func (b *wgpuRendererBackendImpl) mesh(m *command.Mesh) (bind_group_provider.BindGroupProvider, error) {
	if p, ok := b.meshes[m]; ok {
		return p, nil
	}
	if len(m.Indices) == 0 {
		return nil, fmt.Errorf("mesh %q has no indices", m.Name)
	}

	p := bind_group_provider.NewBindGroupProvider(m.Name)
	if len(m.Vertices) > 0 {
		data := wgpu.ToBytes(m.Vertices)
		buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: m.Name + " Vertex Buffer",
			Size:  uint64(len(data)),
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return nil, err
		}
		b.queue.WriteBuffer(buf, 0, data)
		p.SetVertexBuffer(buf)
	}

	data := wgpu.ToBytes(m.Indices)
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: m.Name + " Index Buffer",
		Size:  uint64(len(data)),
		Usage: wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		p.Release()
		return nil, err
	}
	b.queue.WriteBuffer(buf, 0, data)
	p.SetIndexBuffer(buf)
	p.SetIndexCount(len(m.Indices))

	b.meshes[m] = p
	return p, nil
}

// drawBindings creates the uniform buffer and bind groups of one draw. The provider lives
// until the next Submit.
func (b *wgpuRendererBackendImpl) drawBindings(label string, variant shader.Variant, res *variantResources, u *shader.DrawUniforms, textures map[uint32]texture.Surface) (bind_group_provider.BindGroupProvider, error) {
	p := bind_group_provider.NewBindGroupProvider(label)
	b.draws = append(b.draws, p)

	for g, layout := range res.groupLayouts {
		entries := make([]wgpu.BindGroupEntry, 0, len(variant.BindGroupLayouts[g].Entries))
		for _, e := range variant.BindGroupLayouts[g].Entries {
			switch {
			case e.Buffer.Type != wgpu.BufferBindingTypeUndefined:
				buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
					Label: label + " Draw Uniforms",
					Size:  uint64(u.Size()),
					Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
				})
				if err != nil {
					return nil, err
				}
				p.SetBuffer(int(e.Binding), buf)
				b.flush(bind_group_provider.BufferWrite{Provider: p, Binding: int(e.Binding), Data: u.Marshal()})
				entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Buffer: buf, Size: wgpu.WholeSize})
			case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
				entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, Sampler: b.sampler})
			default:
				ws, err := asWGPUSurface(textures[e.Binding])
				if err != nil {
					return nil, err
				}
				entries = append(entries, wgpu.BindGroupEntry{Binding: e.Binding, TextureView: ws.view})
			}
		}
		bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:   fmt.Sprintf("%s group %d", label, g),
			Layout:  layout,
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("create bind group %d: %w", g, err)
		}
		p.SetBindGroup(g, bg)
	}
	return p, nil
}

func (b *wgpuRendererBackendImpl) flush(w bind_group_provider.BufferWrite) {
	if buf := w.Provider.Buffer(w.Binding); buf != nil {
		b.queue.WriteBuffer(buf, w.Offset, w.Data)
	}
}

func (b *wgpuRendererBackendImpl) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.encoder != nil {
		b.encoder.Release()
		b.encoder = nil
	}
	b.releaseDraws()
	for m, p := range b.meshes {
		p.Release()
		delete(b.meshes, m)
	}
	for k, p := range b.pipelines {
		if rp := p.RenderPipeline(); rp != nil {
			rp.Release()
		}
		delete(b.pipelines, k)
	}
	for k, res := range b.variants {
		res.layout.Release()
		for _, l := range res.groupLayouts {
			l.Release()
		}
		res.module.Release()
		delete(b.variants, k)
	}
	if b.backbuffer != nil {
		b.backbuffer.release()
		b.backbuffer = nil
	}
	if b.sampler != nil {
		b.sampler.Release()
	}
	if b.device != nil {
		b.device.Release()
	}
	if b.adapter != nil {
		b.adapter.Release()
	}
	if b.surface != nil {
		b.surface.Release()
	}
	if b.instance != nil {
		b.instance.Release()
	}
}
