package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/stretchr/testify/assert"
)

func TestFindFirstFallsBack(t *testing.T) {
	lib := NewProgramLibrary(&Program{Name: "Hidden/Graphics-DeferredShading"})

	p := FindFirst(lib, "Hidden/Internal-DeferredShading", "Hidden/Graphics-DeferredShading")
	if assert.NotNil(t, p) {
		assert.Equal(t, "Hidden/Graphics-DeferredShading", p.Name)
	}
	assert.Nil(t, FindFirst(lib, "missing", ""))
	assert.Nil(t, FindFirst(nil, "Hidden/Graphics-DeferredShading"))
}

func TestNilProgramMaterial(t *testing.T) {
	m := NewMaterial("sky", nil)
	assert.False(t, m.Drawable())
	assert.Nil(t, m.Program())

	var none *Material
	assert.False(t, none.Drawable())
	assert.Equal(t, "", none.Name())
}

func TestPropertyBlock(t *testing.T) {
	b := NewPropertyBlock()
	b.SetColor("_LightColor", common.Color{1, 0.5, 0, 1})
	b.SetVector("_LightDir", [4]float32{0, 0, 1, 0})
	b.SetFloat("_LightAsQuad", 1)

	assert.Equal(t, [4]float32{1, 0.5, 0, 1}, b.Vectors["_LightColor"])
	assert.Equal(t, float32(1), b.Floats["_LightAsQuad"])
}
