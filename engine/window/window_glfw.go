package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

var ErrNotInitialized = errors.New("window is not initialized")

// glfwWindow holds the GLFW-specific window state.
type glfwWindow struct {
	window  *glfw.Window
	running bool
}

// newPlatformWindow creates the GLFW window and registers its input callbacks.
//
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("initialize GLFW: %w", err)
	}

	// WebGPU owns the swapchain, so no OpenGL context.
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	gw := &glfwWindow{window: win, running: true}
	w.internal = gw

	win.SetKeyCallback(func(_ *glfw.Window, key glfw.Key, _ int, action glfw.Action, mods glfw.ModifierKey) {
		// repeats are dropped so held keys fire once
		if key == glfw.KeyUnknown || action == glfw.Repeat {
			return
		}
		if w.keyEvent(uint32(key), common.KeyMod(mods), action == glfw.Press) {
			gw.running = false
			win.SetShouldClose(true)
		}
	})

	// Framebuffer size, not window size: the two differ on high-DPI displays and the surface
	// is configured in pixels.
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.setSize(width, height)
	})

	fbWidth, fbHeight := win.GetFramebufferSize()
	w.mu.Lock()
	w.width, w.height = fbWidth, fbHeight
	w.mu.Unlock()
	return nil
}

// platformSurfaceDescriptor builds the surface descriptor through the wgpuglfw bridge.
func platformSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	gw, ok := w.internal.(*glfwWindow)
	if !ok {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(gw.window)
}

func platformIsRunning(w *engineWindow) bool {
	gw, ok := w.internal.(*glfwWindow)
	if !ok {
		return false
	}
	return gw.running && !gw.window.ShouldClose()
}

func platformClose(w *engineWindow) error {
	gw, ok := w.internal.(*glfwWindow)
	if !ok {
		return ErrNotInitialized
	}
	gw.running = false
	gw.window.SetShouldClose(true)
	gw.window.Destroy()
	glfw.Terminate()
	w.internal = nil
	return nil
}

// platformPollEvents polls GLFW without blocking.
func platformPollEvents(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunning(w)
}
