package framegraph

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// resource is one logical texture of the current frame.
type resource struct {
	desc       texture.Desc
	imported   bool
	backbuffer bool

	// owner is the id of the pass that created a pass-scoped transient, or -1.
	owner int

	// version is the latest version issued for the texture.
	version uint32

	// surface is the physical storage. Imported resources have it from the start, transients
	// get it on first use and give it back after last use.
	surface texture.Surface

	// firstUse and lastUse are positions in the executed pass list, -1 when unused.
	firstUse int
	lastUse  int
}

type poolKey struct {
	format  wgpu.TextureFormat
	width   int
	height  int
	depth   texture.DepthBits
	samples int
}

func keyOf(d texture.Desc) poolKey {
	return poolKey{format: d.Format, width: d.Width, height: d.Height, depth: d.DepthBits, samples: d.Samples()}
}

type pooledSurface struct {
	surface  texture.Surface
	lastUsed uint64
}

// Stats counts physical allocation activity since the graph was created.
type Stats struct {
	// Allocations is the number of surfaces created through the allocator.
	Allocations int
	// Reuses is the number of times a pooled surface backed a new transient.
	Reuses int
	// Destroyed is the number of pooled surfaces given back to the allocator.
	Destroyed int
	// Live is the number of surfaces currently backing a transient.
	Live int
	// PeakLive is the highest value Live has reached.
	PeakLive int
	// Pooled is the number of idle surfaces waiting for reuse.
	Pooled int
}

// registry owns transient lifetimes for one frame and the physical reuse pool across frames.
type registry struct {
	alloc     texture.Allocator
	resources []*resource
	pool      map[poolKey][]pooledSurface
	maxIdle   uint64
	frames    uint64
	stats     Stats
}

func newRegistry(alloc texture.Allocator, maxIdle int) *registry {
	return &registry{
		alloc:   alloc,
		pool:    make(map[poolKey][]pooledSurface),
		maxIdle: uint64(max(maxIdle, 0)),
	}
}

func (r *registry) create(desc texture.Desc, owner int) (int, error) {
	if err := desc.Validate(); err != nil {
		return 0, err
	}
	r.resources = append(r.resources, &resource{desc: desc, owner: owner, firstUse: -1, lastUse: -1})
	return len(r.resources) - 1, nil
}

func (r *registry) importSurface(s texture.Surface, backbuffer bool) int {
	desc := texture.Desc{
		Width:       s.Width(),
		Height:      s.Height(),
		Format:      s.Format(),
		MSAASamples: s.Samples(),
		Name:        s.Name(),
	}
	if desc.IsDepth() {
		desc.DepthBits = texture.Depth24
	}
	r.resources = append(r.resources, &resource{
		desc:       desc,
		imported:   true,
		backbuffer: backbuffer,
		owner:      -1,
		surface:    s,
		firstUse:   -1,
		lastUse:    -1,
	})
	return len(r.resources) - 1
}

// truncate drops resources created after n, used when a pass fails to build.
func (r *registry) truncate(n int) {
	if n < len(r.resources) {
		clear(r.resources[n:])
		r.resources = r.resources[:n]
	}
}

// acquire gives res physical storage, preferring a pooled surface with the same key.
func (r *registry) acquire(res *resource) error {
	if res.imported || res.surface != nil {
		return nil
	}
	key := keyOf(res.desc)
	if free := r.pool[key]; len(free) > 0 {
		res.surface = free[len(free)-1].surface
		r.pool[key] = free[:len(free)-1]
		r.stats.Reuses++
		r.stats.Pooled--
		// pooled storage keeps the name of the texture it was first allocated for
		common.Logger().Debug("framegraph: reused surface", "texture", res.desc.Name, "surface", res.surface.Name())
	} else {
		if r.alloc == nil {
			return fmt.Errorf("framegraph: allocate %s: no allocator", res.desc)
		}
		s, err := r.alloc.Allocate(res.desc)
		if err != nil {
			return fmt.Errorf("framegraph: allocate %s: %w", res.desc, err)
		}
		res.surface = s
		r.stats.Allocations++
		common.Logger().Debug("framegraph: allocated surface", "texture", res.desc.Name)
	}
	r.stats.Live++
	r.stats.PeakLive = max(r.stats.PeakLive, r.stats.Live)
	return nil
}

// release returns the storage of a transient to the pool.
func (r *registry) release(res *resource) {
	if res.imported || res.surface == nil {
		return
	}
	key := keyOf(res.desc)
	r.pool[key] = append(r.pool[key], pooledSurface{surface: res.surface, lastUsed: r.frames})
	res.surface = nil
	r.stats.Live--
	r.stats.Pooled++
}

// endFrame releases every transient still holding storage, drops the frame's resources and
// destroys pooled surfaces that have sat idle for longer than maxIdle frames.
func (r *registry) endFrame() {
	for _, res := range r.resources {
		r.release(res)
	}
	r.truncate(0)
	r.frames++
	for key, free := range r.pool {
		kept := free[:0]
		for _, p := range free {
			if r.frames-p.lastUsed > r.maxIdle {
				r.destroy(p.surface)
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(r.pool, key)
		} else {
			r.pool[key] = kept
		}
	}
}

func (r *registry) destroy(s texture.Surface) {
	if r.alloc != nil {
		r.alloc.Release(s)
	}
	r.stats.Destroyed++
	r.stats.Pooled--
}

// cleanup destroys every pooled surface.
func (r *registry) cleanup() {
	for key, free := range r.pool {
		for _, p := range free {
			r.destroy(p.surface)
		}
		delete(r.pool, key)
	}
}
