package deferred

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/framegraph"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

// ErrEmptyCamera is returned for cameras whose pixel rectangle covers no pixels.
var ErrEmptyCamera = errors.New("camera pixel rect is empty")

// Renderer records the deferred passes of one camera into a frame graph.
type Renderer struct {
	cfg Config
}

// NewRenderer creates a Renderer that owns cfg.
//
// Parameters:
//   - cfg: the configuration built by NewConfig
//
// Returns:
//   - *Renderer: the renderer
func NewRenderer(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Config returns the renderer's configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// cameraState is the immutable camera snapshot a pass data record carries.
type cameraState struct {
	name        string
	rect        common.Rect
	clearFlags  camera.ClearFlags
	background  common.Color
	view        [16]float32
	proj        [16]float32
	viewProj    [16]float32
	invViewProj [16]float32
	before      []command.Buffer
	after       []command.Buffer
}

func snapshot(cam camera.Camera) cameraState {
	u := camera.Uniform(cam)
	return cameraState{
		name:        cam.Name(),
		rect:        cam.PixelRect(),
		clearFlags:  cam.ClearFlags(),
		background:  cam.BackgroundColor(),
		view:        cam.ViewMatrix(),
		proj:        cam.ProjectionMatrix(),
		viewProj:    u.ViewProj,
		invViewProj: u.InverseViewProj,
		before:      cam.CommandBuffers(camera.EventBeforeGBuffer),
		after:       cam.CommandBuffers(camera.EventAfterGBuffer),
	}
}

// bind sets the render target and limits it to the camera's pixel rect.
func (c *cameraState) bind(cmd command.Buffer, colors []texture.Surface, depth texture.Surface) {
	cmd.SetRenderTarget(colors, depth)
	cmd.SetViewport(c.rect)
}

func (c *cameraState) setMatrices(cmd command.Buffer) {
	cmd.SetGlobalMatrix(PropMatrixV, c.view)
	cmd.SetGlobalMatrix(PropMatrixP, c.proj)
	cmd.SetGlobalMatrix(PropMatrixVP, c.viewProj)
}

// GBuffers are the handles the G-buffer pass produces.
type GBuffers struct {
	Diffuse  framegraph.TextureHandle
	Specular framegraph.TextureHandle
	Normals  framegraph.TextureHandle
	Depth    framegraph.TextureHandle
}

type gbufferPass struct {
	cam    cameraState
	gbuf   GBuffers
	output framegraph.TextureHandle
	opaque framegraph.RendererListHandle
}

type skyboxPass struct {
	cam    cameraState
	output framegraph.TextureHandle
	depth  framegraph.TextureHandle
	cfg    *Config
}

type lightingPass struct {
	cam    cameraState
	gbuf   GBuffers
	output framegraph.TextureHandle
	lights []light.VisibleLight
	cfg    *Config
}

type transparentPass struct {
	cam         cameraState
	output      framegraph.TextureHandle
	depth       framegraph.TextureHandle
	transparent framegraph.RendererListHandle
}

type blitPass struct {
	source framegraph.TextureHandle
	dest   framegraph.TextureHandle
}

// RenderCamera records the deferred passes for cam. The running output starts as target and
// is updated in place by every stage. When cam renders to its own surface and that surface's
// format differs from the working format, the stages run on an intermediate working buffer that
// a final pinned blit copies into target.
//
// The G-buffer and depth targets match the output's size so they bind together, and every
// stage draws and clears only inside the camera's pixel rect. Cameras sharing one output
// therefore keep each other's pixels. A rect entirely outside target records nothing.
//
// Parameters:
//   - g: the frame graph with an open frame
//   - cam: the camera
//   - cull: what cam sees
//   - target: the camera's output, imported into g
//
// Returns:
//   - framegraph.TextureHandle: the latest version of target
//   - error: a descriptor or pass-building error
func (r *Renderer) RenderCamera(g *framegraph.Graph, cam camera.Camera, cull *scene.CullingResults, target framegraph.TextureHandle) (framegraph.TextureHandle, error) {
	rect := cam.PixelRect()
	if rect.Empty() {
		return target, fmt.Errorf("deferred: camera %q: %w", cam.Name(), ErrEmptyCamera)
	}
	targetDesc, err := g.Desc(target)
	if err != nil {
		return target, fmt.Errorf("deferred: camera %q target: %w", cam.Name(), err)
	}
	size := common.Rect{Width: targetDesc.Width, Height: targetDesc.Height}
	if size.Intersect(rect).Empty() {
		common.Logger().Debug("deferred: camera rect outside its target", "camera", cam.Name(), "rect", rect, "target", size)
		return target, nil
	}
	state := snapshot(cam)

	output := target
	intermediate := cam.TargetTexture() != nil && targetDesc.Format != r.cfg.WorkingFormat
	if intermediate {
		output, err = g.CreateTexture(texture.Desc{
			Name:        "Working " + state.name,
			Width:       size.Width,
			Height:      size.Height,
			Format:      r.cfg.WorkingFormat,
			ClearBuffer: true,
			ClearColor:  common.Color{0, 0, 0, 0},
		})
		if err != nil {
			return target, err
		}
	}

	gbuf, output, err := r.addGBufferPass(g, state, size, cull, output)
	if err != nil {
		return target, err
	}
	if state.clearFlags != camera.ClearNothing {
		if output, err = r.addSkyboxPass(g, state, gbuf.Depth, output); err != nil {
			return target, err
		}
	}
	if output, err = r.addLightingPass(g, state, gbuf, cull, output); err != nil {
		return target, err
	}
	if output, err = r.addTransparentPass(g, state, gbuf.Depth, cull, output); err != nil {
		return target, err
	}
	if intermediate {
		return AddBlitPass(g, "Blit "+state.name, output, target)
	}
	return output, nil
}

func (r *Renderer) createTarget(g *framegraph.Graph, name string, size common.Rect, format texture.Desc) (framegraph.TextureHandle, error) {
	format.Name = name
	format.Width = size.Width
	format.Height = size.Height
	format.ClearBuffer = true
	return g.CreateTexture(format)
}

func (r *Renderer) addGBufferPass(g *framegraph.Graph, cam cameraState, size common.Rect, cull *scene.CullingResults, output framegraph.TextureHandle) (GBuffers, framegraph.TextureHandle, error) {
	var gbuf GBuffers
	var err error
	textures := []struct {
		dst  *framegraph.TextureHandle
		name string
		desc texture.Desc
	}{
		{&gbuf.Diffuse, "GBuffer Diffuse", texture.Desc{Format: r.cfg.DiffuseFormat, ClearColor: common.Black}},
		{&gbuf.Specular, "GBuffer Specular", texture.Desc{Format: r.cfg.SpecularFormat, ClearColor: common.Black}},
		{&gbuf.Normals, "GBuffer Normals", texture.Desc{Format: r.cfg.NormalsFormat, ClearColor: common.Black}},
		{&gbuf.Depth, "GBuffer Depth", texture.Desc{Format: r.cfg.DepthFormat, DepthBits: r.cfg.DepthBits}},
	}
	for _, t := range textures {
		if *t.dst, err = r.createTarget(g, t.name+" "+cam.name, size, t.desc); err != nil {
			return gbuf, output, err
		}
	}

	data, err := framegraph.AddRenderPass(g, "GBuffer "+cam.name, func(b *framegraph.PassBuilder[gbufferPass], d *gbufferPass) {
		d.cam = cam
		d.gbuf.Diffuse = b.WriteTexture(gbuf.Diffuse)
		d.gbuf.Specular = b.WriteTexture(gbuf.Specular)
		d.gbuf.Normals = b.WriteTexture(gbuf.Normals)
		d.gbuf.Depth = b.UseDepthBuffer(gbuf.Depth, framegraph.DepthAccessWrite)
		d.output = b.ReadWriteTexture(output)
		d.opaque = b.UseRendererList(command.RendererListDesc{
			Tags:    []command.ShaderTag{command.TagDeferred},
			Sorting: command.SortCommonOpaque,
			Queue:   command.QueueOpaque,
			Source:  source(cull),
		})
		b.SetRenderFunc(renderGBuffer)
	})
	if err != nil {
		return gbuf, output, err
	}
	return data.gbuf, data.output, nil
}

func renderGBuffer(d *gbufferPass, ctx *framegraph.RenderContext) error {
	colors, err := resolveAll(ctx, d.gbuf.Diffuse, d.gbuf.Specular, d.gbuf.Normals, d.output)
	if err != nil {
		return err
	}
	depth, err := ctx.Texture(d.gbuf.Depth)
	if err != nil {
		return err
	}
	list, err := ctx.RendererList(d.opaque)
	if err != nil {
		return err
	}

	cmd := ctx.Cmd
	switch d.cam.clearFlags {
	case camera.ClearSkybox:
		d.cam.bind(cmd, colors[3:], nil)
		cmd.ClearRenderTarget(false, true, common.Color{0, 0, 0, 0})
	case camera.ClearSolidColor:
		d.cam.bind(cmd, colors[3:], nil)
		cmd.ClearRenderTarget(false, true, d.cam.background)
	}
	d.cam.bind(cmd, colors, depth)
	cmd.EnableShaderKeyword(KeywordHDR)
	d.cam.setMatrices(cmd)

	for _, buf := range d.cam.before {
		cmd.Append(buf)
	}
	cmd.DrawRendererList(list)
	for _, buf := range d.cam.after {
		cmd.Append(buf)
	}
	return nil
}

func (r *Renderer) addSkyboxPass(g *framegraph.Graph, cam cameraState, depth, output framegraph.TextureHandle) (framegraph.TextureHandle, error) {
	data, err := framegraph.AddRenderPass(g, "Skybox "+cam.name, func(b *framegraph.PassBuilder[skyboxPass], d *skyboxPass) {
		d.cam = cam
		d.cfg = &r.cfg
		d.depth = b.UseDepthBuffer(depth, framegraph.DepthAccessRead)
		d.output = b.ReadWriteTexture(output)
		b.SetRenderFunc(renderSkybox)
	})
	if err != nil {
		return output, err
	}
	return data.output, nil
}

func renderSkybox(d *skyboxPass, ctx *framegraph.RenderContext) error {
	out, err := ctx.Texture(d.output)
	if err != nil {
		return err
	}
	depth, err := ctx.Texture(d.depth)
	if err != nil {
		return err
	}
	cmd := ctx.Cmd
	d.cam.bind(cmd, []texture.Surface{out}, depth)
	d.cam.setMatrices(cmd)
	cmd.SetGlobalMatrix(PropInvMatrixVP, d.cam.invViewProj)
	cmd.DrawMesh(d.cfg.FullScreen, common.IdentityMatrix(), d.cfg.Sky, 0, nil)
	return nil
}

func (r *Renderer) addLightingPass(g *framegraph.Graph, cam cameraState, gbuf GBuffers, cull *scene.CullingResults, output framegraph.TextureHandle) (framegraph.TextureHandle, error) {
	var lights []light.VisibleLight
	if cull != nil {
		lights = cull.Lights
	}
	data, err := framegraph.AddRenderPass(g, "Lighting "+cam.name, func(b *framegraph.PassBuilder[lightingPass], d *lightingPass) {
		d.cam = cam
		d.cfg = &r.cfg
		d.lights = lights
		d.gbuf.Diffuse = b.ReadTexture(gbuf.Diffuse)
		d.gbuf.Specular = b.ReadTexture(gbuf.Specular)
		d.gbuf.Normals = b.ReadTexture(gbuf.Normals)
		d.gbuf.Depth = b.ReadTexture(gbuf.Depth)
		d.output = b.ReadWriteTexture(output)
		b.SetRenderFunc(renderLighting)
	})
	if err != nil {
		return output, err
	}
	return data.output, nil
}

func renderLighting(d *lightingPass, ctx *framegraph.RenderContext) error {
	textures, err := resolveAll(ctx, d.gbuf.Diffuse, d.gbuf.Specular, d.gbuf.Normals, d.gbuf.Depth, d.output)
	if err != nil {
		return err
	}
	cmd := ctx.Cmd
	cmd.SetGlobalTexture(PropCameraDepth, textures[3])
	cmd.SetGlobalTexture(PropGBuffer0, textures[0])
	cmd.SetGlobalTexture(PropGBuffer1, textures[1])
	cmd.SetGlobalTexture(PropGBuffer2, textures[2])
	d.cam.bind(cmd, textures[4:], nil)

	draws := 0
	for _, l := range d.lights {
		draws += drawLight(cmd, d.cfg, l)
	}
	common.Logger().Debug("deferred: lighting", "pass", ctx.PassName(), "lights", len(d.lights), "draws", draws)
	return nil
}

func (r *Renderer) addTransparentPass(g *framegraph.Graph, cam cameraState, depth framegraph.TextureHandle, cull *scene.CullingResults, output framegraph.TextureHandle) (framegraph.TextureHandle, error) {
	data, err := framegraph.AddRenderPass(g, "Transparent "+cam.name, func(b *framegraph.PassBuilder[transparentPass], d *transparentPass) {
		d.cam = cam
		d.output = b.ReadWriteTexture(output)
		d.depth = b.UseDepthBuffer(depth, framegraph.DepthAccessRead)
		d.transparent = b.UseRendererList(command.RendererListDesc{
			Tags:    []command.ShaderTag{command.TagForwardBase, command.TagUnlit},
			Sorting: command.SortCommonTransparent,
			Queue:   command.QueueTransparent,
			Source:  source(cull),
		})
		b.SetRenderFunc(renderTransparent)
	})
	if err != nil {
		return output, err
	}
	return data.output, nil
}

func renderTransparent(d *transparentPass, ctx *framegraph.RenderContext) error {
	out, err := ctx.Texture(d.output)
	if err != nil {
		return err
	}
	depth, err := ctx.Texture(d.depth)
	if err != nil {
		return err
	}
	list, err := ctx.RendererList(d.transparent)
	if err != nil {
		return err
	}
	cmd := ctx.Cmd
	d.cam.bind(cmd, []texture.Surface{out}, depth)
	d.cam.setMatrices(cmd)
	cmd.DrawRendererList(list)
	return nil
}

// AddBlitPass records a pinned pass copying source into dest.
//
// Parameters:
//   - g: the frame graph
//   - name: the pass name
//   - source: the texture to read
//   - dest: the texture to write
//
// Returns:
//   - framegraph.TextureHandle: the new version of dest
//   - error: a pass-building error
func AddBlitPass(g *framegraph.Graph, name string, source, dest framegraph.TextureHandle) (framegraph.TextureHandle, error) {
	data, err := framegraph.AddRenderPass(g, name, func(b *framegraph.PassBuilder[blitPass], d *blitPass) {
		d.source = b.ReadTexture(source)
		d.dest = b.WriteTexture(dest)
		b.AllowPassCulling(false)
		b.SetRenderFunc(func(d *blitPass, ctx *framegraph.RenderContext) error {
			src, err := ctx.Texture(d.source)
			if err != nil {
				return err
			}
			dst, err := ctx.Texture(d.dest)
			if err != nil {
				return err
			}
			ctx.Cmd.Blit(src, dst)
			return nil
		})
	})
	if err != nil {
		return dest, err
	}
	return data.dest, nil
}

func resolveAll(ctx *framegraph.RenderContext, handles ...framegraph.TextureHandle) ([]texture.Surface, error) {
	out := make([]texture.Surface, len(handles))
	for i, h := range handles {
		s, err := ctx.Texture(h)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// source avoids storing a typed nil in the renderer-list description.
func source(cull *scene.CullingResults) command.RendererSource {
	if cull == nil {
		return nil
	}
	return cull
}
