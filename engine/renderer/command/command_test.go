package command

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticSource struct {
	items []Drawable
	seen  []RendererListDesc
}

func (s *staticSource) Renderers(desc RendererListDesc) []Drawable {
	s.seen = append(s.seen, desc)
	return s.items
}

type drawable struct{ name string }

func (d drawable) Name() string                 { return d.name }
func (d drawable) Material() *material.Material { return nil }
func (d drawable) Matrix() [16]float32          { return [16]float32{} }

func TestRecorderOrderAndSkippedDraws(t *testing.T) {
	b := NewBuffer("test")
	prog := &material.Program{Name: "Hidden/Graphics-DeferredShading"}

	b.SetGlobalMatrix("_ViewProj", common.IdentityMatrix())
	b.SetViewport(common.Rect{X: 8, Width: 16, Height: 16})
	b.ClearRenderTarget(true, true, common.Black)
	b.DrawMesh(FullScreenTriangle(), common.IdentityMatrix(), material.NewMaterial("none", nil), 0, nil)
	b.DrawMesh(FullScreenTriangle(), common.IdentityMatrix(), material.NewMaterial("light", prog), 0, nil)
	b.EnableShaderKeyword("UNITY_HDR_ON")

	cmds := b.Commands()
	require.Len(t, cmds, 5)
	assert.IsType(t, SetGlobalMatrix{}, cmds[0])
	assert.Equal(t, SetViewport{Rect: common.Rect{X: 8, Width: 16, Height: 16}}, cmds[1])
	assert.IsType(t, ClearRenderTarget{}, cmds[2])
	assert.IsType(t, DrawMesh{}, cmds[3])
	assert.Equal(t, SetKeyword{Name: "UNITY_HDR_ON", Enabled: true}, cmds[4])
	assert.Equal(t, 1, Count[DrawMesh](cmds))
}

func TestAppendAndPool(t *testing.T) {
	p := NewPool()
	hook := NewBuffer("hook")
	hook.Blit(nil, nil)

	b := p.Get("frame")
	assert.Equal(t, "frame", b.Name())
	b.DisableShaderKeyword("X")
	b.Append(hook)
	b.Append(nil)
	assert.Equal(t, 2, b.Len())

	p.Release(b)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, "", b.Name())
}

func TestRendererListResolve(t *testing.T) {
	src := &staticSource{items: []Drawable{drawable{"a"}, drawable{"b"}}}
	desc := RendererListDesc{
		Tags:    []ShaderTag{TagForwardBase, TagUnlit},
		Sorting: SortCommonTransparent,
		Queue:   QueueTransparent,
		Source:  src,
	}

	list := desc.Resolve()
	assert.Len(t, list.Items, 2)
	assert.False(t, list.Empty())
	require.Len(t, src.seen, 1)
	assert.True(t, src.seen[0].HasTag(TagUnlit))
	assert.False(t, src.seen[0].HasTag(TagDeferred))

	assert.True(t, RendererListDesc{}.Resolve().Empty())
	assert.True(t, QueueOpaque.Contains(2000))
	assert.False(t, QueueOpaque.Contains(3000))
	assert.Equal(t, "CommonOpaque", SortCommonOpaque.String())
}
