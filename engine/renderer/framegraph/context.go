package framegraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

// RenderContext is handed to a pass' render function. It is only valid during that call.
type RenderContext struct {
	// Cmd is the command buffer of the frame.
	Cmd command.Buffer

	// FrameIndex is the index given to Begin.
	FrameIndex uint64

	graph *Graph
	pass  *pass
}

// PassName returns the name of the executing pass.
func (c *RenderContext) PassName() string {
	if c.pass == nil {
		return ""
	}
	return c.pass.name
}

// Texture resolves h to its physical surface.
//
// Parameters:
//   - h: a handle declared by the executing pass
//
// Returns:
//   - texture.Surface: the backing surface
//   - error: ErrUnresolvedHandle if the pass did not declare h or has finished executing
func (c *RenderContext) Texture(h TextureHandle) (texture.Surface, error) {
	if c == nil || c.graph == nil || c.pass == nil || c.graph.executing != c.pass {
		return nil, fmt.Errorf("%w: %s resolved outside its pass", ErrUnresolvedHandle, h)
	}
	return c.graph.resolve(c.pass, h)
}

// RendererList resolves a renderer list declared by the executing pass.
//
// Parameters:
//   - h: the handle returned by UseRendererList
//
// Returns:
//   - command.RendererList: the resolved list
//   - error: ErrUnresolvedHandle if the handle does not belong to the executing pass
func (c *RenderContext) RendererList(h RendererListHandle) (command.RendererList, error) {
	if c == nil || c.graph == nil || c.pass == nil || c.graph.executing != c.pass {
		return command.RendererList{}, fmt.Errorf("%w: renderer list resolved outside its pass", ErrUnresolvedHandle)
	}
	if h.frame != c.graph.frame || h.index < 0 || h.index >= len(c.pass.lists) {
		return command.RendererList{}, fmt.Errorf("%w: renderer list %d not declared by %q", ErrUnresolvedHandle, h.index, c.pass.name)
	}
	return c.pass.lists[h.index].Resolve(), nil
}
