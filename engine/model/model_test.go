package model

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoParts() Model {
	quad := &command.Mesh{Name: "quad", Vertices: make([][3]float32, 4), Indices: []uint32{0, 1, 2, 2, 1, 3}}
	return NewModel(WithName("pair"), WithParts(
		Part{Mesh: quad, Center: [3]float32{-2, 0, 0}, Radius: 1},
		Part{Mesh: &command.Mesh{Indices: []uint32{0, 1, 2}}, Center: [3]float32{2, 0, 0}, Radius: 1},
	))
}

func TestBoundsAndTriangles(t *testing.T) {
	m := twoParts()
	center, radius := m.Bounds()
	assert.Equal(t, [3]float32{0, 0, 0}, center)
	assert.InDelta(t, 3, radius, 1e-6)
	assert.Equal(t, 3, m.TriangleCount())

	center, radius = NewModel().Bounds()
	assert.Zero(t, center)
	assert.Zero(t, radius)
}

func TestInstantiate(t *testing.T) {
	objs := twoParts().Instantiate([3]float32{0, 5, 0}, scene.WithLayer(3))
	require.Len(t, objs, 2)

	assert.Equal(t, "pair/quad", objs[0].Name())
	assert.Equal(t, "pair/1", objs[1].Name())
	assert.Equal(t, [3]float32{-2, 5, 0}, objs[0].Position())
	assert.Equal(t, uint32(1<<3), objs[1].Layer())

	center, radius := objs[1].Bounds()
	assert.Equal(t, [3]float32{2, 5, 0}, center)
	assert.InDelta(t, 1, radius, 1e-6)
}
