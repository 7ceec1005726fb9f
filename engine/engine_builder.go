package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
type EngineBuilderOption func(*engine)

// WithProfiling enables or disables profiling output.
//
// Parameters:
//   - enabled: if true, enables profiling
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithProfiling(enabled bool) EngineBuilderOption {
	return func(e *engine) {
		e.profilingEnabled.Store(enabled)
	}
}

// WithTickRate sets the engine tick rate in ticks per second. Values <= 0 mean 60.
//
// Parameters:
//   - fps: ticks per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithRenderFrameLimit caps the render loop. 0 leaves it uncapped.
//
// Parameters:
//   - fps: maximum frames per second
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps > 0 {
			e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
		}
	}
}

// WithWindow sets the window the engine presents to and reads key events from.
//
// Parameters:
//   - w: the window
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithBackend sets the render backend, replacing the one the engine would create.
//
// Parameters:
//   - b: the backend
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithBackend(b renderer.Backend) EngineBuilderOption {
	return func(e *engine) {
		e.backend = b
	}
}

// WithScene sets the scene cameras are culled against.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithLibrary sets the program library lighting and sky programs are looked up in.
//
// Parameters:
//   - lib: the program library
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithLibrary(lib material.Library) EngineBuilderOption {
	return func(e *engine) {
		e.library = lib
	}
}

// WithCameras adds cameras to the frame.
//
// Parameters:
//   - cams: the cameras
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithCameras(cams ...camera.Camera) EngineBuilderOption {
	return func(e *engine) {
		e.cameras = append(e.cameras, cams...)
	}
}

// WithAsset sets the pipeline asset.
//
// Parameters:
//   - a: the asset
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAsset(a renderer.Asset) EngineBuilderOption {
	return func(e *engine) {
		e.asset = a
	}
}

// WithAssetFile loads the pipeline asset from path and reloads it whenever the file changes
// while the engine runs.
//
// Parameters:
//   - path: a TOML or YAML asset file
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithAssetFile(path string) EngineBuilderOption {
	return func(e *engine) {
		e.assetPath = path
	}
}

// WithPipelineActive controls whether the pipeline is installed at startup. Defaults to true.
//
// Parameters:
//   - active: false to start with the pipeline uninstalled
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPipelineActive(active bool) EngineBuilderOption {
	return func(e *engine) {
		e.startInactive = !active
	}
}
