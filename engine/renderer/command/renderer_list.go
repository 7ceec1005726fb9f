package command

import (
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// ShaderTag selects which shader pass a renderer list draws.
type ShaderTag string

const (
	TagDeferred    ShaderTag = "DEFERRED"
	TagForwardBase ShaderTag = "FORWARDBASE"
	TagUnlit       ShaderTag = "SRPDefaultUnlit"
)

// SortingCriteria controls draw order inside a renderer list.
type SortingCriteria int

const (
	SortNone SortingCriteria = iota
	// SortCommonOpaque sorts front to back.
	SortCommonOpaque
	// SortCommonTransparent sorts back to front.
	SortCommonTransparent
)

// String returns the criteria name.
func (s SortingCriteria) String() string {
	switch s {
	case SortCommonOpaque:
		return "CommonOpaque"
	case SortCommonTransparent:
		return "CommonTransparent"
	default:
		return "None"
	}
}

// QueueRange is an inclusive render-queue range.
type QueueRange struct {
	Lower int
	Upper int
}

var (
	QueueOpaque      = QueueRange{Lower: 0, Upper: 2500}
	QueueTransparent = QueueRange{Lower: 2501, Upper: 5000}
	QueueAll         = QueueRange{Lower: 0, Upper: 5000}
)

// Contains reports whether queue falls inside the range.
func (q QueueRange) Contains(queue int) bool {
	return queue >= q.Lower && queue <= q.Upper
}

// Drawable is one visible renderer as seen by a renderer list.
type Drawable interface {
	Name() string
	Material() *material.Material
	Matrix() [16]float32
}

// RendererSource produces the drawables that match a renderer-list description. The scene's
// culling results implement it.
type RendererSource interface {
	Renderers(desc RendererListDesc) []Drawable
}

// RendererListDesc describes a filtered, sorted set of visible renderers.
type RendererListDesc struct {
	Tags    []ShaderTag
	Sorting SortingCriteria
	Queue   QueueRange
	Source  RendererSource
}

// HasTag reports whether the description selects tag.
func (d RendererListDesc) HasTag(tag ShaderTag) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Resolve produces the list from the description's source. A nil source yields an empty list.
func (d RendererListDesc) Resolve() RendererList {
	list := RendererList{Desc: d}
	if d.Source != nil {
		list.Items = d.Source.Renderers(d)
	}
	return list
}

// RendererList is a resolved renderer-list handle.
type RendererList struct {
	Desc  RendererListDesc
	Items []Drawable
}

// Empty reports whether the list draws nothing.
func (l RendererList) Empty() bool {
	return len(l.Items) == 0
}
