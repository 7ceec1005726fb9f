package renderer

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

// RendererBackendType identifies the render context implementation used by the engine.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU render context.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeRecording selects the headless recording render context.
	BackendTypeRecording
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// RenderContext is the host side of a frame: it knows the display, owns the backbuffer and
// consumes recorded command buffers.
type RenderContext interface {
	// DisplaySize returns the display resolution in pixels.
	//
	// Returns:
	//   - int: the width
	//   - int: the height
	DisplaySize() (int, int)

	// Backbuffer returns the surface presented to the display this frame, or nil if there is none.
	//
	// Returns:
	//   - texture.Surface: the backbuffer
	Backbuffer() texture.Surface

	// ExecuteCommandBuffer schedules the commands of cmd. The buffer may be reused by the caller
	// as soon as the call returns.
	//
	// Parameters:
	//   - cmd: the recorded commands
	//
	// Returns:
	//   - error: an error if a command cannot be translated
	ExecuteCommandBuffer(cmd command.Buffer) error

	// Submit sends every scheduled command to the device.
	//
	// Returns:
	//   - error: an error if submission fails
	Submit() error
}

// Backend is a RenderContext that also owns the display surface and the storage behind
// frame-graph textures. The engine drives one per window: BeginFrame, render, Present.
type Backend interface {
	RenderContext
	texture.Allocator

	// ConfigureSurface resizes the display surface. A zero size means the display is minimized
	// and frames render nothing until the next resize.
	//
	// Parameters:
	//   - width: the new width in pixels
	//   - height: the new height in pixels
	ConfigureSurface(width, height int)

	// BeginFrame acquires the backbuffer for the next frame and resets replay state.
	//
	// Returns:
	//   - error: an error if the backbuffer cannot be acquired
	BeginFrame() error

	// Present shows the acquired backbuffer. It is a no-op when none is held.
	Present()

	// Destroy releases everything the backend owns.
	Destroy()
}
