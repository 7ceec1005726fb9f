package bind_group_provider

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestBindGroupsInGroupOrder(t *testing.T) {
	p := NewBindGroupProvider("draw")
	g0 := &wgpu.BindGroup{}
	g2 := &wgpu.BindGroup{}
	p.SetBindGroup(2, g2)
	p.SetBindGroup(0, g0)

	groups := p.BindGroups()
	assert.Len(t, groups, 3)
	assert.Same(t, g0, groups[0])
	assert.Nil(t, groups[1])
	assert.Same(t, g2, groups[2])
	assert.Same(t, g2, p.BindGroup(2))
}

func TestEmptyProvider(t *testing.T) {
	p := NewBindGroupProvider("mesh")
	assert.Equal(t, "mesh", p.Label())
	assert.Nil(t, p.BindGroups())
	assert.Nil(t, p.Buffer(0))

	p.SetIndexCount(3)
	assert.Equal(t, 3, p.IndexCount())

	p.Release()
	p.Release()
	assert.Equal(t, 0, p.IndexCount())
}
