package scene

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// ObjectBuilderOption is a function that configures an Object during construction.
type ObjectBuilderOption func(*object)

// WithMesh sets the object's geometry.
//
// Parameters:
//   - mesh: the mesh
//
// Returns:
//   - ObjectBuilderOption: option function to apply
func WithMesh(mesh *command.Mesh) ObjectBuilderOption {
	return func(o *object) {
		o.mesh = mesh
	}
}

// WithMaterial sets the object's material.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - ObjectBuilderOption: option function to apply
func WithMaterial(m *material.Material) ObjectBuilderOption {
	return func(o *object) {
		o.material = m
	}
}

// WithTransparent marks the object as forward-rendered transparent geometry: it moves to the
// transparent queue and provides the forward and unlit passes instead of the deferred one.
//
// Returns:
//   - ObjectBuilderOption: option function to apply
func WithTransparent() ObjectBuilderOption {
	return func(o *object) {
		o.queue = QueueTransparent
		o.tags = []command.ShaderTag{command.TagForwardBase, command.TagUnlit}
	}
}

// WithTags overrides the shader passes the object provides.
//
// Parameters:
//   - tags: the tags
//
// Returns:
//   - ObjectBuilderOption: option function to apply
func WithTags(tags ...command.ShaderTag) ObjectBuilderOption {
	return func(o *object) {
		o.tags = tags
	}
}

// WithQueue sets the render queue value.
//
// Parameters:
//   - queue: the queue value
//
// Returns:
//   - ObjectBuilderOption: option function to apply
func WithQueue(queue int) ObjectBuilderOption {
	return func(o *object) {
		o.queue = queue
	}
}

// WithLayer places the object on layer bit index.
//
// Parameters:
//   - index: the layer index, 0 to 31
//
// Returns:
//   - ObjectBuilderOption: option function to apply
func WithLayer(index int) ObjectBuilderOption {
	return func(o *object) {
		o.layer = 1 << uint(index&31)
	}
}

// WithTransform sets position, Euler rotation in radians and scale.
//
// Parameters:
//   - pos: the position
//   - rot: the rotation
//   - scale: the scale
//
// Returns:
//   - ObjectBuilderOption: option function to apply
func WithTransform(pos, rot, scale [3]float32) ObjectBuilderOption {
	return func(o *object) {
		o.position = pos
		o.rotation = rot
		o.scale = scale
	}
}

// WithBoundsRadius sets the unscaled bounding sphere radius.
//
// Parameters:
//   - radius: the radius
//
// Returns:
//   - ObjectBuilderOption: option function to apply
func WithBoundsRadius(radius float32) ObjectBuilderOption {
	return func(o *object) {
		o.radius = radius
	}
}
