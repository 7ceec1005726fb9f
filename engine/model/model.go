package model

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/chewxy/math32"
)

// Part is one drawable piece of a model: a mesh in object space plus the world-space bounding
// sphere it was recentered on.
type Part struct {
	Mesh   *command.Mesh
	Center [3]float32
	Radius float32
}

// model is the implementation of the Model interface.
type model struct {
	name  string
	parts []Part
}

// Model is static geometry imported from a model file. It holds no GPU state; Instantiate turns
// it into scene objects that the deferred pipeline draws.
type Model interface {
	// Name retrieves the model identifier.
	//
	// Returns:
	//   - string: the model name
	Name() string

	// Parts retrieves the model's drawable pieces in file order.
	//
	// Returns:
	//   - []Part: the parts
	Parts() []Part

	// Bounds returns a bounding sphere enclosing every part.
	//
	// Returns:
	//   - center: the sphere center
	//   - radius: the sphere radius
	Bounds() (center [3]float32, radius float32)

	// TriangleCount returns the number of triangles across all parts.
	TriangleCount() int

	// Instantiate creates one scene object per part, positioned at the part center plus offset.
	// The options apply to every object after the mesh, transform and bounds are set, so they
	// can override the material, layer or queue.
	//
	// Parameters:
	//   - offset: the world-space translation applied to the whole model
	//   - options: object options shared by every part
	//
	// Returns:
	//   - []scene.Object: the objects, ready for scene.Add
	Instantiate(offset [3]float32, options ...scene.ObjectBuilderOption) []scene.Object
}

var _ Model = &model{}

// NewModel creates a Model with the given options applied.
//
// Parameters:
//   - options: functional options to configure the model
//
// Returns:
//   - Model: the new model
func NewModel(options ...ModelBuilderOption) Model {
	m := &model{}
	for _, option := range options {
		option(m)
	}
	return m
}

func (m *model) Name() string {
	return m.name
}

func (m *model) Parts() []Part {
	return m.parts
}

func (m *model) Bounds() ([3]float32, float32) {
	if len(m.parts) == 0 {
		return [3]float32{}, 0
	}
	lo, hi := m.parts[0].Center, m.parts[0].Center
	for _, p := range m.parts {
		for a := range 3 {
			lo[a] = math32.Min(lo[a], p.Center[a]-p.Radius)
			hi[a] = math32.Max(hi[a], p.Center[a]+p.Radius)
		}
	}
	center := [3]float32{(lo[0] + hi[0]) / 2, (lo[1] + hi[1]) / 2, (lo[2] + hi[2]) / 2}

	var radius float32
	for _, p := range m.parts {
		d := [3]float32{p.Center[0] - center[0], p.Center[1] - center[1], p.Center[2] - center[2]}
		radius = math32.Max(radius, math32.Sqrt(d[0]*d[0]+d[1]*d[1]+d[2]*d[2])+p.Radius)
	}
	return center, radius
}

func (m *model) TriangleCount() int {
	n := 0
	for _, p := range m.parts {
		if p.Mesh != nil {
			n += len(p.Mesh.Indices) / 3
		}
	}
	return n
}

func (m *model) Instantiate(offset [3]float32, options ...scene.ObjectBuilderOption) []scene.Object {
	objects := make([]scene.Object, 0, len(m.parts))
	for i, p := range m.parts {
		name := fmt.Sprintf("%s/%d", m.name, i)
		if p.Mesh != nil && p.Mesh.Name != "" {
			name = m.name + "/" + p.Mesh.Name
		}
		pos := [3]float32{p.Center[0] + offset[0], p.Center[1] + offset[1], p.Center[2] + offset[2]}
		opts := append([]scene.ObjectBuilderOption{
			scene.WithMesh(p.Mesh),
			scene.WithTransform(pos, [3]float32{}, [3]float32{1, 1, 1}),
			scene.WithBoundsRadius(p.Radius),
		}, options...)
		objects = append(objects, scene.NewObject(name, opts...))
	}
	return objects
}
