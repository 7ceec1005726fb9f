package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRectIntersect(t *testing.T) {
	target := Rect{Width: 64, Height: 32}

	assert.Equal(t, Rect{X: 32, Width: 32, Height: 32}, Rect{X: 32, Width: 32, Height: 32}.Intersect(target))
	assert.Equal(t, Rect{X: 48, Y: 16, Width: 16, Height: 16}, Rect{X: 48, Y: 16, Width: 40, Height: 40}.Intersect(target))
	assert.True(t, Rect{X: 64, Width: 8, Height: 8}.Intersect(target).Empty())
	assert.Equal(t, target, target.Intersect(target))
}
