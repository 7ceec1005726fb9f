package framegraph

import "fmt"

// TextureHandle is an opaque reference to a logical texture in one frame. The zero value is
// invalid. Handles are cheap values; they never own storage.
type TextureHandle struct {
	index   int
	version uint32
	frame   uint64
}

// IsValid reports whether the handle was issued by a graph. It does not check that the
// handle's frame is still open.
func (h TextureHandle) IsValid() bool {
	return h.frame != 0
}

// Version returns the logical version of the texture this handle refers to.
func (h TextureHandle) Version() uint32 {
	return h.version
}

func (h TextureHandle) String() string {
	if !h.IsValid() {
		return "TextureHandle(invalid)"
	}
	return fmt.Sprintf("TextureHandle(%d v%d f%d)", h.index, h.version, h.frame)
}

// RendererListHandle references a renderer-list description declared by a pass.
type RendererListHandle struct {
	index int
	frame uint64
}

// IsValid reports whether the handle was issued by a pass builder.
func (h RendererListHandle) IsValid() bool {
	return h.frame != 0
}

// DepthAccess is how a pass binds its depth buffer.
type DepthAccess int

const (
	DepthAccessNone DepthAccess = iota
	DepthAccessRead
	DepthAccessWrite
)

func (a DepthAccess) String() string {
	switch a {
	case DepthAccessRead:
		return "Read"
	case DepthAccessWrite:
		return "Write"
	default:
		return "None"
	}
}
