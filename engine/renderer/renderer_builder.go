package renderer

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
)

// PipelineBuilderOption is a functional option applied to a pipeline during construction via NewPipeline.
type PipelineBuilderOption func(*pipelineImpl)

// WithName sets the pipeline name used in logs and texture labels.
//
// Parameters:
//   - name: the pipeline name
//
// Returns:
//   - PipelineBuilderOption: a function that applies the name option to a pipeline
func WithName(name string) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		if name != "" {
			p.name = name
		}
	}
}

// WithAsset sets the pipeline asset. Empty fields fall back to DefaultAsset.
//
// Parameters:
//   - asset: the pipeline asset
//
// Returns:
//   - PipelineBuilderOption: a function that applies the asset option to a pipeline
func WithAsset(asset Asset) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.asset = asset
	}
}

// WithLibrary sets the shader program library the lighting and sky programs are looked up in.
// Without a library those draws are skipped.
//
// Parameters:
//   - lib: the program library
//
// Returns:
//   - PipelineBuilderOption: a function that applies the library option to a pipeline
func WithLibrary(lib material.Library) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.library = lib
	}
}

// WithScene sets the scene cameras are culled against. Without a scene every camera sees an
// empty scene.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - PipelineBuilderOption: a function that applies the scene option to a pipeline
func WithScene(s scene.Scene) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.scene = s
	}
}

// WithAllocator sets the allocator backing the shared surface and every frame-graph texture.
//
// Parameters:
//   - alloc: the texture allocator
//
// Returns:
//   - PipelineBuilderOption: a function that applies the allocator option to a pipeline
func WithAllocator(alloc texture.Allocator) PipelineBuilderOption {
	return func(p *pipelineImpl) {
		p.alloc = alloc
	}
}
