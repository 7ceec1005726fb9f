package bind_group_provider

import (
	"sort"

	"github.com/cogentcore/webgpu/wgpu"
)

// bindGroupProvider is the unexported implementation of BindGroupProvider.
type bindGroupProvider struct {
	label string

	// GPU objects owned by the provider, released by Release.
	bindGroups map[int]*wgpu.BindGroup
	buffers    map[int]*wgpu.Buffer

	vertexBuffer *wgpu.Buffer
	indexBuffer  *wgpu.Buffer
	indexCount   int
}

// BindGroupProvider owns the GPU objects behind a draw: the bind groups set on the render pass,
// the buffers they reference and, for meshes, the vertex and index buffers.
//
// Usage pattern:
//  1. The backend creates a provider per mesh (cached) or per draw (released after submit)
//  2. It creates buffers and bind groups and stores them with the setters
//  3. It binds BindGroups() in group order and issues the draw
//  4. Release frees everything the provider holds
type BindGroupProvider interface {
	// Release releases every GPU object held by this provider. It is safe to call more than once.
	Release()

	// Label returns the debug label for this provider.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BindGroup returns the bind group for a group index.
	//
	// Parameters:
	//   - group: the @group index
	//
	// Returns:
	//   - *wgpu.BindGroup: the bind group, or nil if none is set
	BindGroup(group int) *wgpu.BindGroup

	// BindGroups returns the bind groups ordered by group index, one slot per index from zero to
	// the highest set group. Missing groups are nil.
	//
	// Returns:
	//   - []*wgpu.BindGroup: the bind groups in group order
	BindGroups() []*wgpu.BindGroup

	// SetBindGroup stores the bind group for a group index, taking ownership of it.
	//
	// Parameters:
	//   - group: the @group index
	//   - bg: the bind group
	SetBindGroup(group int, bg *wgpu.BindGroup)

	// Buffer returns the buffer stored under a binding key.
	//
	// Parameters:
	//   - binding: the binding key
	//
	// Returns:
	//   - *wgpu.Buffer: the buffer, or nil
	Buffer(binding int) *wgpu.Buffer

	// SetBuffer stores a buffer under a binding key, releasing any buffer it replaces.
	//
	// Parameters:
	//   - binding: the binding key
	//   - buf: the buffer
	SetBuffer(binding int, buf *wgpu.Buffer)

	VertexBuffer() *wgpu.Buffer
	IndexBuffer() *wgpu.Buffer
	IndexCount() int
	SetVertexBuffer(buf *wgpu.Buffer)
	SetIndexBuffer(buf *wgpu.Buffer)
	SetIndexCount(count int)
}

var _ BindGroupProvider = &bindGroupProvider{}

// NewBindGroupProvider creates an empty provider.
//
// Parameters:
//   - label: debug label used for the provider's GPU objects
//
// Returns:
//   - BindGroupProvider: the new provider
func NewBindGroupProvider(label string) BindGroupProvider {
	return &bindGroupProvider{
		label:      label,
		bindGroups: make(map[int]*wgpu.BindGroup),
		buffers:    make(map[int]*wgpu.Buffer),
	}
}

func (p *bindGroupProvider) Label() string {
	return p.label
}

func (p *bindGroupProvider) BindGroup(group int) *wgpu.BindGroup {
	return p.bindGroups[group]
}

func (p *bindGroupProvider) BindGroups() []*wgpu.BindGroup {
	if len(p.bindGroups) == 0 {
		return nil
	}
	groups := make([]int, 0, len(p.bindGroups))
	for g := range p.bindGroups {
		groups = append(groups, g)
	}
	sort.Ints(groups)
	out := make([]*wgpu.BindGroup, groups[len(groups)-1]+1)
	for _, g := range groups {
		out[g] = p.bindGroups[g]
	}
	return out
}

func (p *bindGroupProvider) SetBindGroup(group int, bg *wgpu.BindGroup) {
	if old := p.bindGroups[group]; old != nil && old != bg {
		old.Release()
	}
	p.bindGroups[group] = bg
}

func (p *bindGroupProvider) Buffer(binding int) *wgpu.Buffer {
	return p.buffers[binding]
}

func (p *bindGroupProvider) SetBuffer(binding int, buf *wgpu.Buffer) {
	if old := p.buffers[binding]; old != nil && old != buf {
		old.Release()
	}
	p.buffers[binding] = buf
}

func (p *bindGroupProvider) VertexBuffer() *wgpu.Buffer { return p.vertexBuffer }
func (p *bindGroupProvider) IndexBuffer() *wgpu.Buffer  { return p.indexBuffer }
func (p *bindGroupProvider) IndexCount() int            { return p.indexCount }

func (p *bindGroupProvider) SetVertexBuffer(buf *wgpu.Buffer) {
	p.vertexBuffer = buf
}

func (p *bindGroupProvider) SetIndexBuffer(buf *wgpu.Buffer) {
	p.indexBuffer = buf
}

func (p *bindGroupProvider) SetIndexCount(count int) {
	p.indexCount = count
}

func (p *bindGroupProvider) Release() {
	// bind groups reference the buffers, so they go first
	for g, bg := range p.bindGroups {
		if bg != nil {
			bg.Release()
		}
		delete(p.bindGroups, g)
	}
	for b, buf := range p.buffers {
		if buf != nil {
			buf.Release()
		}
		delete(p.buffers, b)
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
		p.vertexBuffer = nil
	}
	if p.indexBuffer != nil {
		p.indexBuffer.Release()
		p.indexBuffer = nil
	}
	p.indexCount = 0
}
