package texture

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cogentcore/webgpu/wgpu"
)

// Surface is a physical texture: allocated storage, an imported camera target or the display
// backbuffer. The frame graph resolves handles to Surfaces while a pass executes.
type Surface interface {
	// Name returns the debug label of the surface.
	Name() string

	// Width returns the width in pixels.
	Width() int

	// Height returns the height in pixels.
	Height() int

	// Format returns the pixel format.
	Format() wgpu.TextureFormat

	// Samples returns the multisample count.
	Samples() int
}

// Allocator creates and destroys physical textures.
type Allocator interface {
	// Allocate creates storage matching desc.
	//
	// Parameters:
	//   - desc: a validated descriptor
	//
	// Returns:
	//   - Surface: the allocated surface
	//   - error: an error if the backend could not create the texture
	Allocate(desc Desc) (Surface, error)

	// Release destroys a surface previously returned by Allocate.
	//
	// Parameters:
	//   - s: the surface to destroy
	Release(s Surface)
}

var renderTextureCount atomic.Uint64

// RenderTexture is a CPU-side Surface with no GPU backing. It stands in for externally owned
// targets in headless runs and is what MemoryAllocator hands out.
type RenderTexture struct {
	id       uint64
	desc     Desc
	released atomic.Bool
}

var _ Surface = &RenderTexture{}

// NewRenderTexture creates a RenderTexture for desc.
//
// Parameters:
//   - desc: the texture description
//
// Returns:
//   - *RenderTexture: the new texture
//   - error: an error wrapping ErrInvalidDescriptor if desc is invalid
func NewRenderTexture(desc Desc) (*RenderTexture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return &RenderTexture{id: renderTextureCount.Add(1), desc: desc}, nil
}

// ID returns a process-unique identifier for the texture.
func (t *RenderTexture) ID() uint64                 { return t.id }
func (t *RenderTexture) Desc() Desc                 { return t.desc }
func (t *RenderTexture) Name() string               { return t.desc.Name }
func (t *RenderTexture) Width() int                 { return t.desc.Width }
func (t *RenderTexture) Height() int                { return t.desc.Height }
func (t *RenderTexture) Format() wgpu.TextureFormat { return t.desc.Format }
func (t *RenderTexture) Samples() int               { return t.desc.Samples() }

// Released reports whether Release has been called.
func (t *RenderTexture) Released() bool { return t.released.Load() }

// Release marks the texture as destroyed.
func (t *RenderTexture) Release() { t.released.Store(true) }

func (t *RenderTexture) String() string {
	return fmt.Sprintf("RenderTexture#%d(%s)", t.id, t.desc)
}

// MemoryAllocator is an Allocator that hands out RenderTextures and tracks how many are live.
// It is safe for concurrent use.
type MemoryAllocator struct {
	mu        sync.Mutex
	live      map[uint64]*RenderTexture
	allocated int
}

var _ Allocator = &MemoryAllocator{}

// NewMemoryAllocator creates an empty MemoryAllocator.
func NewMemoryAllocator() *MemoryAllocator {
	return &MemoryAllocator{live: make(map[uint64]*RenderTexture)}
}

func (a *MemoryAllocator) Allocate(desc Desc) (Surface, error) {
	t, err := NewRenderTexture(desc)
	if err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.live[t.id] = t
	a.allocated++
	return t, nil
}

func (a *MemoryAllocator) Release(s Surface) {
	t, ok := s.(*RenderTexture)
	if !ok {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, live := a.live[t.id]; !live {
		return
	}
	delete(a.live, t.id)
	t.Release()
}

// Live returns the number of allocated and not yet released textures.
func (a *MemoryAllocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.live)
}

// Allocated returns the total number of Allocate calls that succeeded.
func (a *MemoryAllocator) Allocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}
