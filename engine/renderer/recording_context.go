package renderer

import (
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// RecordedBuffer is one command buffer as the recording context received it.
type RecordedBuffer struct {
	Name     string
	Commands []command.Command
}

// RecordingContext is a headless Backend. It keeps a copy of every executed buffer grouped by
// submission and backs textures with an in-memory allocator.
type RecordingContext struct {
	*texture.MemoryAllocator

	mu *sync.Mutex

	width, height int
	backbuffer    *texture.RenderTexture

	pending   []RecordedBuffer
	submitted [][]RecordedBuffer
	frames    int
	presents  int
}

var _ Backend = &RecordingContext{}

// NewRecordingContext creates a RecordingContext with a BGRA8 backbuffer of the given size.
//
// Parameters:
//   - width: the display width in pixels
//   - height: the display height in pixels
//
// Returns:
//   - *RecordingContext: the context
func NewRecordingContext(width, height int) *RecordingContext {
	c := &RecordingContext{MemoryAllocator: texture.NewMemoryAllocator(), mu: &sync.Mutex{}}
	c.SetDisplaySize(width, height)
	return c
}

// SetDisplaySize changes the display resolution. The backbuffer is recreated when the size changes.
//
// Parameters:
//   - width: the display width in pixels
//   - height: the display height in pixels
func (c *RecordingContext) SetDisplaySize(width, height int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backbuffer != nil && width == c.width && height == c.height {
		return
	}
	c.width, c.height = width, height
	if c.backbuffer != nil {
		c.backbuffer.Release()
		c.backbuffer = nil
	}
	if width <= 0 || height <= 0 {
		return
	}
	bb, err := texture.NewRenderTexture(texture.Desc{
		Name:   "Backbuffer",
		Width:  width,
		Height: height,
		Format: wgpu.TextureFormatBGRA8Unorm,
	})
	if err == nil {
		c.backbuffer = bb
	}
}

func (c *RecordingContext) DisplaySize() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *RecordingContext) Backbuffer() texture.Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backbuffer == nil {
		return nil
	}
	return c.backbuffer
}

func (c *RecordingContext) ExecuteCommandBuffer(cmd command.Buffer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, RecordedBuffer{Name: cmd.Name(), Commands: slices.Clone(cmd.Commands())})
	return nil
}

func (c *RecordingContext) Submit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitted = append(c.submitted, c.pending)
	c.pending = nil
	return nil
}

// Submissions returns the submitted buffers, one slice per Submit call.
//
// Returns:
//   - [][]RecordedBuffer: the submissions in order
func (c *RecordingContext) Submissions() [][]RecordedBuffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.submitted)
}

// Commands returns every submitted command in order.
//
// Returns:
//   - []command.Command: the flattened commands
func (c *RecordingContext) Commands() []command.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []command.Command
	for _, sub := range c.submitted {
		for _, buf := range sub {
			out = append(out, buf.Commands...)
		}
	}
	return out
}

// Reset forgets every recorded buffer.
func (c *RecordingContext) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.submitted = nil
}

func (c *RecordingContext) ConfigureSurface(width, height int) {
	c.SetDisplaySize(width, height)
}

func (c *RecordingContext) BeginFrame() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames++
	return nil
}

func (c *RecordingContext) Present() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presents++
}

func (c *RecordingContext) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.backbuffer != nil {
		c.backbuffer.Release()
		c.backbuffer = nil
	}
}

// Frames returns how many frames were begun and presented.
//
// Returns:
//   - int: BeginFrame calls
//   - int: Present calls
func (c *RecordingContext) Frames() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frames, c.presents
}
