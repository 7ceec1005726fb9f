// Package framegraph schedules the passes of one frame: it tracks logical textures, culls
// passes whose outputs nobody consumes, backs the remaining textures with pooled physical
// storage and runs the passes in the order they were recorded.
//
// A Graph is not safe for concurrent use.
package framegraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

// Params configures one frame.
type Params struct {
	// Cmd receives the commands recorded by passes. A nil Cmd gets a fresh buffer.
	Cmd command.Buffer

	// FrameIndex is a diagnostic frame number.
	FrameIndex uint64
}

// Execution describes the outcome of the last Execute call.
type Execution struct {
	FrameIndex uint64
	Executed   []string
	Culled     []string
}

// Graph is the frame graph. One Graph lives as long as its pipeline; each frame is bracketed
// by Begin and EndFrame.
type Graph struct {
	name    string
	alloc   texture.Allocator
	maxIdle int
	reg     *registry

	params     Params
	frame      uint64
	open       bool
	executed   bool
	passes     []*pass
	nextPassID int
	err        error
	executing  *pass
	last       Execution
}

// NewGraph creates a Graph.
//
// Parameters:
//   - options: functional options such as WithAllocator
//
// Returns:
//   - *Graph: the new graph
func NewGraph(options ...GraphBuilderOption) *Graph {
	g := &Graph{
		name:    "FrameGraph",
		maxIdle: DefaultMaxIdleFrames,
	}
	for _, opt := range options {
		opt(g)
	}
	if g.alloc == nil {
		g.alloc = texture.NewMemoryAllocator()
	}
	g.reg = newRegistry(g.alloc, g.maxIdle)
	return g
}

// Begin opens a frame. Handles from earlier frames become invalid. An unfinished previous frame
// is ended first.
//
// Parameters:
//   - params: the command buffer and frame index of the frame
func (g *Graph) Begin(params Params) {
	if g.open {
		common.Logger().Warn("framegraph: Begin without EndFrame", "graph", g.name, "frame", g.params.FrameIndex)
		g.EndFrame()
	}
	if params.Cmd == nil {
		params.Cmd = command.NewBuffer(g.name)
	}
	g.params = params
	g.frame++
	g.open = true
	g.executed = false
	g.nextPassID = 0
	g.err = nil
}

// Cmd returns the command buffer of the open frame.
func (g *Graph) Cmd() command.Buffer {
	return g.params.Cmd
}

// Err returns the first pass-building error of the open frame.
func (g *Graph) Err() error {
	return g.err
}

func (g *Graph) fail(err error) {
	if g.err == nil {
		g.err = err
	}
}

// CreateTexture creates a transient texture usable by any pass of the frame.
//
// Parameters:
//   - desc: the texture description
//
// Returns:
//   - TextureHandle: the new handle at version 0
//   - error: an error wrapping ErrInvalidDescriptor or ErrFrameNotBegun
func (g *Graph) CreateTexture(desc texture.Desc) (TextureHandle, error) {
	if !g.open {
		return TextureHandle{}, ErrFrameNotBegun
	}
	index, err := g.reg.create(desc, -1)
	if err != nil {
		return TextureHandle{}, fmt.Errorf("framegraph: create texture: %w", err)
	}
	return TextureHandle{index: index, frame: g.frame}, nil
}

// ImportTexture wraps an externally owned surface. The graph never releases it.
//
// Parameters:
//   - s: the surface
//
// Returns:
//   - TextureHandle: the handle, invalid when no frame is open or s is nil
func (g *Graph) ImportTexture(s texture.Surface) TextureHandle {
	return g.importSurface(s, false)
}

// ImportBackbuffer wraps the display backbuffer.
//
// Parameters:
//   - s: the backbuffer surface
//
// Returns:
//   - TextureHandle: the handle, invalid when no frame is open or s is nil
func (g *Graph) ImportBackbuffer(s texture.Surface) TextureHandle {
	return g.importSurface(s, true)
}

func (g *Graph) importSurface(s texture.Surface, backbuffer bool) TextureHandle {
	if !g.open || s == nil {
		common.Logger().Warn("framegraph: import ignored", "graph", g.name, "open", g.open)
		return TextureHandle{}
	}
	return TextureHandle{index: g.reg.importSurface(s, backbuffer), frame: g.frame}
}

// Desc returns the descriptor of h.
//
// Parameters:
//   - h: a handle of the open frame
//
// Returns:
//   - texture.Desc: the descriptor
//   - error: an error wrapping ErrInvalidHandle
func (g *Graph) Desc(h TextureHandle) (texture.Desc, error) {
	res, err := g.resource(h)
	if err != nil {
		return texture.Desc{}, err
	}
	return res.desc, nil
}

// IsImported reports whether h wraps an external surface.
func (g *Graph) IsImported(h TextureHandle) bool {
	res, err := g.resource(h)
	return err == nil && res.imported
}

// Resolve returns the surface of h for the executing pass. Outside pass execution it always
// fails with ErrUnresolvedHandle.
func (g *Graph) Resolve(h TextureHandle) (texture.Surface, error) {
	if g.executing == nil {
		return nil, fmt.Errorf("%w: %s resolved outside pass execution", ErrUnresolvedHandle, h)
	}
	return g.resolve(g.executing, h)
}

func (g *Graph) resource(h TextureHandle) (*resource, error) {
	if !g.open {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidHandle, h, ErrFrameNotBegun)
	}
	if !h.IsValid() || h.frame != g.frame {
		return nil, fmt.Errorf("%w: %s is not from frame %d", ErrInvalidHandle, h, g.frame)
	}
	if h.index < 0 || h.index >= len(g.reg.resources) {
		return nil, fmt.Errorf("%w: %s out of range", ErrInvalidHandle, h)
	}
	return g.reg.resources[h.index], nil
}

func (g *Graph) resolve(p *pass, h TextureHandle) (texture.Surface, error) {
	res, err := g.resource(h)
	if err != nil {
		return nil, err
	}
	if _, ok := p.declared[h.index]; !ok {
		return nil, fmt.Errorf("%w: %s not declared by %q", ErrUnresolvedHandle, res.desc.Name, p.name)
	}
	if res.surface == nil {
		return nil, fmt.Errorf("%w: %s has no storage", ErrUnresolvedHandle, res.desc.Name)
	}
	return res.surface, nil
}

// PassCount returns the number of passes recorded in the open frame.
func (g *Graph) PassCount() int {
	return len(g.passes)
}

// LastExecution reports which passes the last Execute ran and culled.
func (g *Graph) LastExecution() Execution {
	return g.last
}

// Stats returns the physical allocation counters.
func (g *Graph) Stats() Stats {
	return g.reg.stats
}

// Execute culls and runs the recorded passes. It fails without running anything when a pass
// failed to build, and stops at the first render function error.
//
// Returns:
//   - error: the build error, an allocation error or the first render function error
func (g *Graph) Execute() error {
	if !g.open {
		return ErrFrameNotBegun
	}
	if g.executed {
		return fmt.Errorf("framegraph: frame %d already executed", g.params.FrameIndex)
	}
	g.executed = true
	g.last = Execution{FrameIndex: g.params.FrameIndex}
	if g.err != nil {
		return fmt.Errorf("framegraph: frame %d not executed: %w", g.params.FrameIndex, g.err)
	}

	kept := g.cull()
	acquireAt, releaseAt := g.lifetimes(kept)

	for pos, p := range kept {
		for _, res := range acquireAt[pos] {
			if err := g.reg.acquire(res); err != nil {
				return err
			}
			g.clearOnFirstUse(res)
		}

		ctx := &RenderContext{Cmd: g.params.Cmd, FrameIndex: g.params.FrameIndex, graph: g, pass: p}
		g.executing = p
		err := p.execute(ctx)
		g.executing = nil
		if err != nil {
			common.Logger().Error("framegraph: pass failed", "graph", g.name, "pass", p.name, "err", err)
			return fmt.Errorf("framegraph: pass %q: %w", p.name, err)
		}
		g.last.Executed = append(g.last.Executed, p.name)

		for _, res := range releaseAt[pos] {
			g.reg.release(res)
		}
	}
	return nil
}

// cull walks the passes backwards keeping pinned passes, passes that write an imported
// texture and passes producing a version a kept pass reads.
func (g *Graph) cull() []*pass {
	keep := make([]bool, len(g.passes))
	needed := make(map[access]struct{})
	for i := len(g.passes) - 1; i >= 0; i-- {
		p := g.passes[i]
		k := !p.allowCulling
		for _, w := range p.writes {
			if _, ok := needed[w]; ok || g.reg.resources[w.index].imported {
				k = true
			}
		}
		if !k {
			continue
		}
		keep[i] = true
		for _, r := range p.reads {
			needed[r] = struct{}{}
		}
	}

	kept := make([]*pass, 0, len(g.passes))
	for i, p := range g.passes {
		if keep[i] {
			kept = append(kept, p)
			continue
		}
		g.last.Culled = append(g.last.Culled, p.name)
		common.Logger().Debug("framegraph: culled pass", "graph", g.name, "pass", p.name)
	}
	return kept
}

// lifetimes computes, per executed pass position, which transients get storage before the
// pass and give it back after.
func (g *Graph) lifetimes(kept []*pass) (acquireAt, releaseAt [][]*resource) {
	for pos, p := range kept {
		for index := range p.declared {
			res := g.reg.resources[index]
			if res.firstUse < 0 {
				res.firstUse = pos
			}
			res.lastUse = pos
		}
	}
	acquireAt = make([][]*resource, len(kept))
	releaseAt = make([][]*resource, len(kept))
	for _, res := range g.reg.resources {
		if res.imported || res.firstUse < 0 {
			continue
		}
		acquireAt[res.firstUse] = append(acquireAt[res.firstUse], res)
		releaseAt[res.lastUse] = append(releaseAt[res.lastUse], res)
	}
	return acquireAt, releaseAt
}

func (g *Graph) clearOnFirstUse(res *resource) {
	if !res.desc.ClearBuffer {
		return
	}
	cmd := g.params.Cmd
	if res.desc.IsDepth() {
		cmd.SetRenderTarget(nil, res.surface)
		cmd.ClearRenderTarget(true, false, res.desc.ClearColor)
		return
	}
	cmd.SetRenderTarget([]texture.Surface{res.surface}, nil)
	cmd.ClearRenderTarget(false, true, res.desc.ClearColor)
}

// EndFrame closes the frame: transient storage goes back to the pool, idle pooled surfaces are
// destroyed and every handle of the frame becomes invalid.
func (g *Graph) EndFrame() {
	if !g.open {
		return
	}
	g.reg.endFrame()
	clear(g.passes)
	g.passes = g.passes[:0]
	g.open = false
	g.executing = nil
	g.err = nil
}

// Cleanup destroys all pooled storage. The graph stays usable.
func (g *Graph) Cleanup() {
	g.EndFrame()
	g.reg.cleanup()
}
