package framegraph

import "github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"

// access is one (texture, version) pair a pass consumes or produces.
type access struct {
	index   int
	version uint32
}

// pass is a recorded unit of work. It is immutable once AddRenderPass returns.
type pass struct {
	id   int
	name string

	reads  []access
	writes []access

	depth       int
	depthAccess DepthAccess

	lists        []command.RendererListDesc
	allowCulling bool
	execute      func(ctx *RenderContext) error

	// declared holds every texture index the pass may resolve.
	declared map[int]struct{}
}

func newPass(id int, name string) *pass {
	return &pass{
		id:           id,
		name:         name,
		depth:        -1,
		allowCulling: true,
		declared:     make(map[int]struct{}),
	}
}

func (p *pass) declare(index int) {
	p.declared[index] = struct{}{}
}

func (p *pass) readsIndex(index int) bool {
	for _, a := range p.reads {
		if a.index == index {
			return true
		}
	}
	return false
}

func (p *pass) writesIndex(index int) bool {
	for _, a := range p.writes {
		if a.index == index {
			return true
		}
	}
	return false
}
