package framegraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

// PassBuilder records the resource declarations of one pass. It is only valid inside the setup
// function given to AddRenderPass. The first contract violation sticks: later calls are ignored
// and AddRenderPass returns that error.
type PassBuilder[T any] struct {
	g   *Graph
	p   *pass
	err error
	fn  func(data *T, ctx *RenderContext) error
}

// AddRenderPass records a pass named name. setup declares the pass' resources, fills the pass'
// data record and sets its render function. The pass is appended to the frame when setup
// returns without a contract violation.
//
// Parameters:
//   - g: the graph to record into
//   - name: the pass name used in diagnostics
//   - setup: declares resources on the builder and fills data
//
// Returns:
//   - *T: the pass data record, nil on error
//   - error: the first contract violation, also reported by the next Execute
func AddRenderPass[T any](g *Graph, name string, setup func(b *PassBuilder[T], data *T)) (*T, error) {
	if !g.open {
		return nil, fmt.Errorf("framegraph: pass %q: %w", name, ErrFrameNotBegun)
	}
	data := new(T)
	b := &PassBuilder[T]{g: g, p: newPass(g.nextPassID, name)}
	g.nextPassID++
	mark := len(g.reg.resources)

	setup(b, data)

	if b.err == nil && b.fn == nil {
		b.err = ErrNoRenderFunc
	}
	if b.err != nil {
		g.reg.truncate(mark)
		err := fmt.Errorf("framegraph: pass %q: %w", name, b.err)
		g.fail(err)
		return nil, err
	}
	fn := b.fn
	b.p.execute = func(ctx *RenderContext) error {
		return fn(data, ctx)
	}
	g.passes = append(g.passes, b.p)
	return data, nil
}

// Err returns the violation recorded so far, if any.
func (b *PassBuilder[T]) Err() error {
	return b.err
}

func (b *PassBuilder[T]) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// lookup validates that h belongs to this frame and may be used by this pass.
func (b *PassBuilder[T]) lookup(h TextureHandle) (*resource, bool) {
	if b.err != nil {
		return nil, false
	}
	res, err := b.g.resource(h)
	if err != nil {
		b.fail(err)
		return nil, false
	}
	if res.owner >= 0 && res.owner != b.p.id {
		b.fail(fmt.Errorf("%w: %s belongs to another pass", ErrInvalidHandle, res.desc.Name))
		return nil, false
	}
	return res, true
}

// current fails the pass when h is not the latest version of res.
func (b *PassBuilder[T]) current(h TextureHandle, res *resource) bool {
	if h.version != res.version {
		b.fail(fmt.Errorf("%w: %s v%d, latest is v%d", ErrStaleHandle, res.desc.Name, h.version, res.version))
		return false
	}
	return true
}

func (b *PassBuilder[T]) bump(h TextureHandle, res *resource) TextureHandle {
	res.version++
	b.p.writes = append(b.p.writes, access{index: h.index, version: res.version})
	b.p.declare(h.index)
	return TextureHandle{index: h.index, version: res.version, frame: h.frame}
}

// WriteTexture declares that the pass produces a new version of h.
//
// Parameters:
//   - h: the latest version of the texture
//
// Returns:
//   - TextureHandle: the new version, to be used by later passes
func (b *PassBuilder[T]) WriteTexture(h TextureHandle) TextureHandle {
	res, ok := b.lookup(h)
	if !ok {
		return h
	}
	if b.p.depth == h.index && b.p.depthAccess == DepthAccessRead {
		b.fail(fmt.Errorf("%w: %s is bound as read-only depth", ErrDepthConflict, res.desc.Name))
		return h
	}
	if !b.current(h, res) {
		return h
	}
	return b.bump(h, res)
}

// ReadTexture declares that the pass consumes h.
//
// Parameters:
//   - h: the latest version of the texture
//
// Returns:
//   - TextureHandle: h unchanged
func (b *PassBuilder[T]) ReadTexture(h TextureHandle) TextureHandle {
	res, ok := b.lookup(h)
	if !ok {
		return h
	}
	if b.p.depth == h.index && b.p.depthAccess == DepthAccessWrite {
		b.fail(fmt.Errorf("%w: %s is bound as writable depth", ErrDepthConflict, res.desc.Name))
		return h
	}
	if !b.current(h, res) {
		return h
	}
	b.p.reads = append(b.p.reads, access{index: h.index, version: h.version})
	b.p.declare(h.index)
	return h
}

// ReadWriteTexture declares an in-place update of h, such as an accumulation buffer.
//
// Parameters:
//   - h: the latest version of the texture
//
// Returns:
//   - TextureHandle: the new version
func (b *PassBuilder[T]) ReadWriteTexture(h TextureHandle) TextureHandle {
	res, ok := b.lookup(h)
	if !ok {
		return h
	}
	if b.p.depth == h.index {
		b.fail(fmt.Errorf("%w: %s is already bound as depth", ErrDepthConflict, res.desc.Name))
		return h
	}
	if !b.current(h, res) {
		return h
	}
	b.p.reads = append(b.p.reads, access{index: h.index, version: h.version})
	return b.bump(h, res)
}

// UseDepthBuffer binds h as the pass' depth buffer. A pass has at most one depth binding, and
// a writable depth buffer cannot also be read by the same pass.
//
// Parameters:
//   - h: the latest version of a depth texture
//   - mode: DepthAccessRead or DepthAccessWrite, DepthAccessNone is a no-op
//
// Returns:
//   - TextureHandle: the new version for DepthAccessWrite, h otherwise
func (b *PassBuilder[T]) UseDepthBuffer(h TextureHandle, mode DepthAccess) TextureHandle {
	if mode == DepthAccessNone {
		return h
	}
	res, ok := b.lookup(h)
	if !ok {
		return h
	}
	if !res.desc.IsDepth() {
		b.fail(fmt.Errorf("%w: %s is not a depth texture", ErrInvalidHandle, res.desc.Name))
		return h
	}
	if b.p.depth >= 0 {
		b.fail(fmt.Errorf("%w: depth already bound with %s access", ErrDepthConflict, b.p.depthAccess))
		return h
	}
	if mode == DepthAccessWrite && b.p.readsIndex(h.index) || mode == DepthAccessRead && b.p.writesIndex(h.index) {
		b.fail(fmt.Errorf("%w: %s is also a color access of this pass", ErrDepthConflict, res.desc.Name))
		return h
	}
	if !b.current(h, res) {
		return h
	}
	switch mode {
	case DepthAccessRead:
		b.p.depth, b.p.depthAccess = h.index, mode
		b.p.reads = append(b.p.reads, access{index: h.index, version: h.version})
		b.p.declare(h.index)
		return h
	case DepthAccessWrite:
		b.p.depth, b.p.depthAccess = h.index, mode
		return b.bump(h, res)
	default:
		b.fail(fmt.Errorf("%w: unknown depth access %d", ErrDepthConflict, mode))
		return h
	}
}

// UseRendererList declares a renderer list the pass draws. The list is resolved against its
// source only when the pass executes.
//
// Parameters:
//   - desc: the list description
//
// Returns:
//   - RendererListHandle: a handle resolvable through RenderContext.RendererList
func (b *PassBuilder[T]) UseRendererList(desc command.RendererListDesc) RendererListHandle {
	if b.err != nil {
		return RendererListHandle{}
	}
	b.p.lists = append(b.p.lists, desc)
	return RendererListHandle{index: len(b.p.lists) - 1, frame: b.g.frame}
}

// CreateTransientTexture creates a texture only this pass may use.
//
// Parameters:
//   - desc: the texture description
//
// Returns:
//   - TextureHandle: a handle declared by this pass
func (b *PassBuilder[T]) CreateTransientTexture(desc texture.Desc) TextureHandle {
	if b.err != nil {
		return TextureHandle{}
	}
	index, err := b.g.reg.create(desc, b.p.id)
	if err != nil {
		b.fail(err)
		return TextureHandle{}
	}
	b.p.declare(index)
	return TextureHandle{index: index, frame: b.g.frame}
}

// AllowPassCulling sets whether the pass may be skipped when nothing consumes its outputs.
// Passes default to cullable; passes with effects outside the graph pin themselves with false.
func (b *PassBuilder[T]) AllowPassCulling(allow bool) {
	b.p.allowCulling = allow
}

// SetRenderFunc sets the function run when the pass executes. It receives the pass' own data
// record.
func (b *PassBuilder[T]) SetRenderFunc(fn func(data *T, ctx *RenderContext) error) {
	b.fn = fn
}
