package framegraph

import "github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"

// DefaultMaxIdleFrames is how many frames a pooled surface may go unused before it is destroyed.
const DefaultMaxIdleFrames = 3

// GraphBuilderOption is a functional option for configuring a Graph.
type GraphBuilderOption func(*Graph)

// WithName sets the name used in logs.
//
// Parameters:
//   - name: the graph name
//
// Returns:
//   - GraphBuilderOption: a function that applies the name to a Graph
func WithName(name string) GraphBuilderOption {
	return func(g *Graph) {
		g.name = name
	}
}

// WithAllocator sets the allocator that backs transient textures.
//
// Parameters:
//   - alloc: the allocator
//
// Returns:
//   - GraphBuilderOption: a function that applies the allocator to a Graph
func WithAllocator(alloc texture.Allocator) GraphBuilderOption {
	return func(g *Graph) {
		g.alloc = alloc
	}
}

// WithMaxIdleFrames sets how long pooled surfaces survive without reuse.
//
// Parameters:
//   - frames: the idle frame limit, zero destroys surfaces at the end of the frame they were last used
//
// Returns:
//   - GraphBuilderOption: a function that applies the limit to a Graph
func WithMaxIdleFrames(frames int) GraphBuilderOption {
	return func(g *Graph) {
		g.maxIdle = frames
	}
}
