package window

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// KeyCallback receives a key code and the modifiers held when the event fired.
type KeyCallback func(keyCode uint32, mods common.KeyMod)

// Window is the display the pipeline presents to. It reports the framebuffer size and forwards
// key events with their modifiers.
type Window interface {
	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events. Auto-repeat does not fire it.
	//
	// Parameters:
	//   - callback: function receiving the key code and held modifiers
	SetKeyDownCallback(callback KeyCallback)

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the key code and held modifiers
	SetKeyUpCallback(callback KeyCallback)

	// SurfaceDescriptor returns a platform-appropriate wgpu.SurfaceDescriptor for the window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor, or nil if the window is not initialized
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: true if the window is running
	IsRunning() bool

	// Close closes the window and releases platform resources.
	//
	// Returns:
	//   - error: an error if the window was never initialized
	Close() error

	// ProcessMessages runs the message loop until the window closes, calling the update
	// callback each iteration.
	ProcessMessages()

	// Size returns the framebuffer size in pixels.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	Size() (int, int)
}

// engineWindow is the implementation of the Window interface.
type engineWindow struct {
	mu *sync.Mutex

	title               string
	minWidth, minHeight int
	maxWidth, maxHeight int
	width, height       int
	closeOnEscape       bool

	// internal holds the platform window (glfwWindow).
	internal any

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown KeyCallback
	onKeyUp   KeyCallback
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a Window.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the window
//   - error: an error if the platform window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		mu:            &sync.Mutex{},
		title:         "oxy-deferred",
		minWidth:      320,
		minHeight:     200,
		maxWidth:      3840,
		maxHeight:     2160,
		width:         1280,
		height:        720,
		closeOnEscape: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("window %q: %w", w.title, err)
	}
	return w, nil
}

func (w *engineWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetKeyDownCallback(callback KeyCallback) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback KeyCallback) {
	w.onKeyUp = callback
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return platformSurfaceDescriptor(w)
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunning(w)
}

func (w *engineWindow) Close() error {
	return platformClose(w)
}

func (w *engineWindow) ProcessMessages() {
	for w.IsRunning() {
		if !platformPollEvents(w) {
			break
		}
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *engineWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// setSize records a framebuffer resize and notifies the resize callback.
func (w *engineWindow) setSize(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

// keyEvent dispatches a key event. Escape closes the window when closeOnEscape is set and
// reports true.
func (w *engineWindow) keyEvent(key uint32, mods common.KeyMod, pressed bool) (closed bool) {
	if pressed && w.closeOnEscape && key == common.KeyEsc {
		return true
	}
	switch {
	case pressed && w.onKeyDown != nil:
		w.onKeyDown(key, mods)
	case !pressed && w.onKeyUp != nil:
		w.onKeyUp(key, mods)
	}
	return false
}
