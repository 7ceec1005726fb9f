package scene

import (
	"cmp"
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
)

// CullingResults is what one camera sees. It is the source renderer lists resolve against.
type CullingResults struct {
	Camera  camera.Camera
	Objects []Object
	Lights  []light.VisibleLight
}

var _ command.RendererSource = &CullingResults{}

// Renderers filters the visible objects by tag and queue range and sorts them by the
// description's criteria.
//
// Parameters:
//   - desc: the renderer-list description
//
// Returns:
//   - []command.Drawable: the matching objects in draw order
func (c *CullingResults) Renderers(desc command.RendererListDesc) []command.Drawable {
	if c == nil {
		return nil
	}
	type entry struct {
		obj   Object
		queue int
		dist  float32
	}
	var eye [3]float32
	if c.Camera != nil {
		eye = c.Camera.Position()
	}

	entries := make([]entry, 0, len(c.Objects))
	for _, o := range c.Objects {
		q := o.Queue()
		if !desc.Queue.Contains(q) || !hasAnyTag(o, desc.Tags) {
			continue
		}
		center, _ := o.Bounds()
		entries = append(entries, entry{obj: o, queue: q, dist: common.DistanceSquared3(eye, center)})
	}

	switch desc.Sorting {
	case command.SortCommonOpaque:
		slices.SortStableFunc(entries, func(a, b entry) int {
			return cmp.Or(cmp.Compare(a.queue, b.queue), cmp.Compare(a.dist, b.dist))
		})
	case command.SortCommonTransparent:
		slices.SortStableFunc(entries, func(a, b entry) int {
			return cmp.Or(cmp.Compare(a.queue, b.queue), cmp.Compare(b.dist, a.dist))
		})
	}

	out := make([]command.Drawable, len(entries))
	for i, e := range entries {
		out[i] = e.obj
	}
	return out
}

// LightsOfType returns the visible lights of type t.
func (c *CullingResults) LightsOfType(t light.LightType) []light.VisibleLight {
	var out []light.VisibleLight
	for _, l := range c.Lights {
		if l.Type == t {
			out = append(out, l)
		}
	}
	return out
}
