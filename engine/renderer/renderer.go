package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/framegraph"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrDisposed is returned by Render after Dispose.
	ErrDisposed = errors.New("pipeline disposed")

	// ErrNoRenderContext is returned by Render when no render context is given.
	ErrNoRenderContext = errors.New("no render context")
)

// pipelineImpl is the implementation of the Pipeline interface.
type pipelineImpl struct {
	mu *sync.Mutex

	name    string
	asset   Asset
	library material.Library
	scene   scene.Scene
	alloc   texture.Allocator

	graph    *framegraph.Graph
	deferred *deferred.Renderer
	cmdPool  *command.Pool

	hdrFormat wgpu.TextureFormat
	shared    texture.Surface
	frame     uint64
	disposed  bool
}

// Pipeline is the frame driver. Each Render call builds one frame graph holding the deferred
// passes of every camera, executes it into a command buffer and hands that buffer to the
// render context. Cameras without a target texture share one HDR surface the size of the
// display, which is blitted to the backbuffer once all cameras are recorded.
type Pipeline interface {
	// Name returns the pipeline name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Render renders one frame for cameras in the given order.
	// A build or execution error aborts the frame; the frame is still closed and the frame
	// counter still advances.
	//
	// Parameters:
	//   - ctx: the render context receiving the recorded commands
	//   - cameras: the active cameras
	//
	// Returns:
	//   - error: the first error building or executing the frame
	Render(ctx RenderContext, cameras []camera.Camera) error

	// FrameCount returns the number of frames rendered so far.
	//
	// Returns:
	//   - uint64: the frame counter
	FrameCount() uint64

	// Asset returns the pipeline asset the pipeline was built from.
	//
	// Returns:
	//   - Asset: the asset with defaults applied
	Asset() Asset

	// LastFrame returns what the frame graph ran and culled in the last frame and its pool
	// counters, read under the pipeline lock so it is safe while another goroutine renders or
	// disposes.
	//
	// Returns:
	//   - framegraph.Execution: the executed and culled passes
	//   - framegraph.Stats: the physical allocation counters
	LastFrame() (framegraph.Execution, framegraph.Stats)

	// Graph returns the frame graph. Only the goroutine driving Render may use it; use LastFrame
	// for statistics.
	//
	// Returns:
	//   - *framegraph.Graph: the frame graph
	Graph() *framegraph.Graph

	// SharedSurface returns the shared HDR surface, or nil before the first frame.
	//
	// Returns:
	//   - texture.Surface: the shared surface
	SharedSurface() texture.Surface

	// Dispose releases the shared surface and every pooled texture. Render fails afterwards.
	Dispose()
}

var _ Pipeline = &pipelineImpl{}

// NewPipeline creates a Pipeline. The name, program names and formats come from the asset; an
// in-memory allocator backs the textures unless WithAllocator is given.
//
// Parameters:
//   - options: functional options to configure the pipeline
//
// Returns:
//   - Pipeline: the pipeline
//   - error: an error if the asset names an unknown or unusable format
func NewPipeline(options ...PipelineBuilderOption) (Pipeline, error) {
	p := &pipelineImpl{
		mu:      &sync.Mutex{},
		asset:   DefaultAsset(),
		cmdPool: command.NewPool(),
	}
	for _, opt := range options {
		opt(p)
	}
	if p.alloc == nil {
		p.alloc = texture.NewMemoryAllocator()
	}
	p.asset = p.asset.WithDefaults()
	if p.name == "" {
		p.name = p.asset.Name
	}

	hdr, err := texture.ParseFormat(p.asset.HDRFormat)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: hdr format: %w", p.name, err)
	}
	if texture.IsDepthFormat(hdr) {
		return nil, fmt.Errorf("pipeline %q: %w: hdr format %s is a depth format", p.name, texture.ErrInvalidDescriptor, p.asset.HDRFormat)
	}
	p.hdrFormat = hdr

	cfg, err := deferred.NewConfig(p.library, p.asset.Deferred)
	if err != nil {
		return nil, fmt.Errorf("pipeline %q: %w", p.name, err)
	}
	p.deferred = deferred.NewRenderer(cfg)
	p.graph = framegraph.NewGraph(
		framegraph.WithName(p.name),
		framegraph.WithAllocator(p.alloc),
		framegraph.WithMaxIdleFrames(p.asset.MaxIdleFrames),
	)
	return p, nil
}

func (p *pipelineImpl) Name() string {
	return p.name
}

func (p *pipelineImpl) FrameCount() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

func (p *pipelineImpl) Asset() Asset {
	return p.asset
}

func (p *pipelineImpl) Graph() *framegraph.Graph {
	return p.graph
}

func (p *pipelineImpl) LastFrame() (framegraph.Execution, framegraph.Stats) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.graph.LastExecution(), p.graph.Stats()
}

func (p *pipelineImpl) SharedSurface() texture.Surface {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shared
}

func (p *pipelineImpl) Render(ctx RenderContext, cameras []camera.Camera) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return ErrDisposed
	}
	if ctx == nil {
		return ErrNoRenderContext
	}
	width, height := ctx.DisplaySize()
	if width <= 0 || height <= 0 {
		common.Logger().Debug("pipeline: display has no area, skipping frame", "pipeline", p.name, "width", width, "height", height)
		return nil
	}
	if err := p.ensureShared(width, height); err != nil {
		return err
	}

	cmd := p.cmdPool.Get(fmt.Sprintf("%s Frame %d", p.name, p.frame))
	defer p.cmdPool.Release(cmd)

	p.graph.Begin(framegraph.Params{Cmd: cmd, FrameIndex: p.frame})
	defer func() {
		p.graph.EndFrame()
		p.frame++
	}()

	shared, usedShared, err := p.record(cameras)
	if err == nil {
		err = p.graph.Execute()
	}
	if err == nil {
		err = p.submit(ctx, cmd)
	}
	if err == nil && usedShared {
		err = p.finalBlit(ctx, shared)
	}
	if err != nil {
		common.Logger().Error("pipeline: frame aborted", "pipeline", p.name, "frame", p.frame, "err", err)
		return fmt.Errorf("pipeline %q frame %d: %w", p.name, p.frame, err)
	}
	return nil
}

// record adds the passes of every camera to the graph. It reports whether any camera rendered
// into the shared surface.
func (p *pipelineImpl) record(cameras []camera.Camera) (texture.Surface, bool, error) {
	shared := p.graph.ImportTexture(p.shared)
	usedShared := false
	for _, cam := range cameras {
		if cam == nil {
			continue
		}
		if cam.PixelRect().Empty() {
			common.Logger().Debug("pipeline: skipping camera with empty pixel rect", "camera", cam.Name())
			continue
		}

		target := shared
		own := cam.TargetTexture()
		if own != nil {
			target = p.graph.ImportTexture(own)
		}
		out, err := p.deferred.RenderCamera(p.graph, cam, p.cull(cam), target)
		if err != nil {
			return nil, false, err
		}
		if own == nil {
			shared = out
			usedShared = true
		}
	}
	return p.shared, usedShared, nil
}

func (p *pipelineImpl) cull(cam camera.Camera) *scene.CullingResults {
	if p.scene == nil {
		return &scene.CullingResults{Camera: cam}
	}
	return p.scene.Cull(cam)
}

func (p *pipelineImpl) submit(ctx RenderContext, cmd command.Buffer) error {
	if err := ctx.ExecuteCommandBuffer(cmd); err != nil {
		return err
	}
	return ctx.Submit()
}

// finalBlit copies the shared surface to the display backbuffer.
func (p *pipelineImpl) finalBlit(ctx RenderContext, shared texture.Surface) error {
	back := ctx.Backbuffer()
	if back == nil {
		return nil
	}
	cmd := p.cmdPool.Get(p.name + " Final Blit")
	defer p.cmdPool.Release(cmd)
	cmd.Blit(shared, back)
	return p.submit(ctx, cmd)
}

// ensureShared reallocates the shared HDR surface only when the display size changed.
func (p *pipelineImpl) ensureShared(width, height int) error {
	if p.shared != nil && p.shared.Width() == width && p.shared.Height() == height {
		return nil
	}
	s, err := p.alloc.Allocate(texture.Desc{
		Name:   p.name + " Shared HDR",
		Width:  width,
		Height: height,
		Format: p.hdrFormat,
	})
	if err != nil {
		return fmt.Errorf("pipeline %q: shared surface: %w", p.name, err)
	}
	if p.shared != nil {
		p.alloc.Release(p.shared)
	}
	common.Logger().Debug("pipeline: shared surface resized", "pipeline", p.name, "width", width, "height", height)
	p.shared = s
	return nil
}

func (p *pipelineImpl) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed {
		return
	}
	if p.shared != nil {
		p.alloc.Release(p.shared)
		p.shared = nil
	}
	p.graph.Cleanup()
	p.disposed = true
}
