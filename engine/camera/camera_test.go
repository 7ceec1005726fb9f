package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/stretchr/testify/assert"
)

func TestNewCameraDefaults(t *testing.T) {
	c := NewCamera(WithName("Main"), WithPixelRect(common.Rect{Width: 800, Height: 600}))

	assert.Equal(t, "Main", c.Name())
	assert.Equal(t, ClearSkybox, c.ClearFlags())
	assert.Equal(t, AllLayers, c.CullingMask())
	assert.Nil(t, c.TargetTexture())
	assert.Equal(t, common.Rect{Width: 800, Height: 600}, c.PixelRect())
	assert.NotEqual(t, common.IdentityMatrix(), c.ViewProjectionMatrix())
}

func TestFrustumSeesLookAtPoint(t *testing.T) {
	c := NewCamera(WithPixelRect(common.Rect{Width: 4, Height: 4}), WithLookAt([3]float32{0, 0, 5}, [3]float32{}))
	f := c.Frustum()

	assert.True(t, f.ContainsSphere([3]float32{0, 0, 0}, 0.5))
	assert.False(t, f.ContainsSphere([3]float32{0, 0, 20}, 0.5))
}

func TestCommandBuffers(t *testing.T) {
	c := NewCamera()
	before := command.NewBuffer("before")
	c.AddCommandBuffer(EventBeforeGBuffer, before)
	c.AddCommandBuffer(EventBeforeGBuffer, nil)

	assert.Equal(t, []command.Buffer{before}, c.CommandBuffers(EventBeforeGBuffer))
	assert.Empty(t, c.CommandBuffers(EventAfterGBuffer))

	c.RemoveCommandBuffers(EventBeforeGBuffer)
	assert.Empty(t, c.CommandBuffers(EventBeforeGBuffer))
}

func TestUniformMarshal(t *testing.T) {
	c := NewCamera(WithPixelRect(common.Rect{Width: 2, Height: 1}), WithLookAt([3]float32{1, 2, 3}, [3]float32{}))
	u := Uniform(c)

	assert.Equal(t, 144, u.Size())
	assert.Len(t, u.Marshal(), 144)
	assert.Equal(t, [3]float32{1, 2, 3}, u.CameraPosition)
}

func TestClearFlagsString(t *testing.T) {
	assert.Equal(t, "Nothing", ClearNothing.String())
	assert.Equal(t, "ClearFlags(9)", ClearFlags(9).String())
}
