package scene

import "github.com/Carmen-Shannon/oxy-deferred/engine/light"

// SceneBuilderOption is a function that configures a Scene during construction.
type SceneBuilderOption func(*scene)

// WithObjects registers objects with the scene.
//
// Parameters:
//   - objects: the objects to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithObjects(objects ...Object) SceneBuilderOption {
	return func(s *scene) {
		for _, o := range objects {
			if o != nil {
				s.objects = append(s.objects, o)
			}
		}
	}
}

// WithLights registers lights with the scene.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		for _, l := range lights {
			if l != nil {
				s.lights = append(s.lights, l)
			}
		}
	}
}

// WithCullWorkers sets the number of worker goroutines used by Cull. Defaults to
// runtime.NumCPU()-1.
//
// Parameters:
//   - n: the number of workers (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullWorkers(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.cullWorkers = n
	}
}

// WithCullChunkSize sets how many objects one culling task tests.
//
// Parameters:
//   - n: objects per task (minimum 1)
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullChunkSize(n int) SceneBuilderOption {
	return func(s *scene) {
		if n < 1 {
			n = 1
		}
		s.chunkSize = n
	}
}

// WithCullingDisabled disables frustum culling for the scene. Layer masks still apply.
//
// Parameters:
//   - disabled: true to disable frustum culling
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithCullingDisabled(disabled bool) SceneBuilderOption {
	return func(s *scene) {
		s.cullingDisabled = disabled
	}
}
