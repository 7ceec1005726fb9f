package scene

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCamera(options ...camera.CameraBuilderOption) camera.Camera {
	base := []camera.CameraBuilderOption{
		camera.WithPixelRect(common.Rect{Width: 100, Height: 100}),
		camera.WithLookAt([3]float32{0, 0, 10}, [3]float32{}),
	}
	return camera.NewCamera(append(base, options...)...)
}

func names(ds []command.Drawable) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.Name()
	}
	return out
}

func TestCullFiltersFrustumLayerAndEnabled(t *testing.T) {
	at := func(z float32) ObjectBuilderOption {
		return WithTransform([3]float32{0, 0, z}, [3]float32{}, [3]float32{1, 1, 1})
	}
	hidden := NewObject("hidden", at(0))
	hidden.SetEnabled(false)
	s := NewScene("test", WithCullWorkers(2), WithCullChunkSize(1), WithObjects(
		NewObject("front", at(0)),
		NewObject("behind", at(50)),
		NewObject("layer5", at(0), WithLayer(5)),
		hidden,
	))

	res := s.Cull(testCamera(camera.WithCullingMask(1)))
	require.Len(t, res.Objects, 1)
	assert.Equal(t, "front", res.Objects[0].Name())

	s.SetCullingDisabled(true)
	res = s.Cull(testCamera(camera.WithCullingMask(1)))
	assert.Len(t, res.Objects, 2)
}

func TestCullLights(t *testing.T) {
	s := NewScene("lights", WithLights(
		light.NewLight(light.LightTypeDirectional),
		light.NewLight(light.LightTypePoint, light.WithPosition(0, 0, 100), light.WithRange(1)),
		light.NewLight(light.LightTypeSpot, light.WithPosition(0, 0, 0)),
		light.NewLight(light.LightTypeDirectional, light.WithEnabled(false)),
	))

	res := s.Cull(testCamera())
	require.Len(t, res.Lights, 2)
	assert.Len(t, res.LightsOfType(light.LightTypeDirectional), 1)
	assert.Len(t, res.LightsOfType(light.LightTypeSpot), 1)
}

func TestRenderersFilterAndSort(t *testing.T) {
	at := func(z float32) ObjectBuilderOption {
		return WithTransform([3]float32{0, 0, z}, [3]float32{}, [3]float32{1, 1, 1})
	}
	s := NewScene("sort", WithObjects(
		NewObject("far-opaque", at(-5)),
		NewObject("near-opaque", at(5)),
		NewObject("far-glass", at(-5), WithTransparent()),
		NewObject("near-glass", at(5), WithTransparent()),
	))
	res := s.Cull(testCamera())

	opaque := res.Renderers(command.RendererListDesc{
		Tags:    []command.ShaderTag{command.TagDeferred},
		Sorting: command.SortCommonOpaque,
		Queue:   command.QueueOpaque,
	})
	assert.Equal(t, []string{"near-opaque", "far-opaque"}, names(opaque))

	transparent := res.Renderers(command.RendererListDesc{
		Tags:    []command.ShaderTag{command.TagForwardBase, command.TagUnlit},
		Sorting: command.SortCommonTransparent,
		Queue:   command.QueueTransparent,
	})
	assert.Equal(t, []string{"far-glass", "near-glass"}, names(transparent))

	var none *CullingResults
	assert.Nil(t, none.Renderers(command.RendererListDesc{}))
}

func TestSceneRegistry(t *testing.T) {
	s := NewScene("registry")
	id := s.Add(NewObject("a"))
	s.Add(nil)
	assert.Equal(t, 1, s.Count())
	assert.Equal(t, "a", s.Get(id).Name())

	s.Remove(id)
	assert.Nil(t, s.Get(id))

	l := light.NewLight(light.LightTypePoint)
	s.AddLight(l)
	s.RemoveLight(l)
	assert.Empty(t, s.Lights())
}
