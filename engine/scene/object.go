package scene

import (
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// Render queue values used by materials. Opaque geometry sits at or below QueueGeometry,
// transparent geometry at QueueTransparent and above.
const (
	QueueBackground  = 1000
	QueueGeometry    = 2000
	QueueAlphaTest   = 2450
	QueueTransparent = 3000
	QueueOverlay     = 4000
)

var objectCount atomic.Uint64

type object struct {
	mu *sync.Mutex

	id       uint64
	name     string
	mesh     *command.Mesh
	material *material.Material
	tags     []command.ShaderTag
	queue    int
	layer    uint32
	position [3]float32
	rotation [3]float32
	scale    [3]float32
	radius   float32
	enabled  bool
}

// Object is a mesh renderer in the scene. It satisfies command.Drawable so culling results can
// hand objects straight to renderer lists.
type Object interface {
	command.Drawable

	// ID returns the process-unique object id.
	ID() uint64

	// Mesh returns the geometry to draw.
	Mesh() *command.Mesh

	// Tags returns the shader passes the object's material provides.
	//
	// Returns:
	//   - []command.ShaderTag: the tags
	Tags() []command.ShaderTag

	// Queue returns the render queue value.
	Queue() int

	// Layer returns the single layer bit the object lives on.
	Layer() uint32

	// Position returns the world-space position.
	Position() [3]float32

	// Bounds returns the world-space bounding sphere.
	//
	// Returns:
	//   - center: the sphere center
	//   - radius: the sphere radius
	Bounds() (center [3]float32, radius float32)

	// Enabled returns whether the object is drawn.
	Enabled() bool

	// SetPosition moves the object.
	SetPosition(p [3]float32)

	// SetMaterial replaces the material.
	SetMaterial(m *material.Material)

	// SetEnabled shows or hides the object.
	SetEnabled(enabled bool)
}

var _ Object = &object{}

// NewObject creates an opaque, deferred-shaded object on layer 0.
//
// Parameters:
//   - name: the object name
//   - options: functional options to configure the object
//
// Returns:
//   - Object: the new object
func NewObject(name string, options ...ObjectBuilderOption) Object {
	o := &object{
		mu:      &sync.Mutex{},
		id:      objectCount.Add(1),
		name:    name,
		tags:    []command.ShaderTag{command.TagDeferred},
		queue:   QueueGeometry,
		layer:   1,
		scale:   [3]float32{1, 1, 1},
		radius:  1,
		enabled: true,
	}
	for _, option := range options {
		option(o)
	}
	return o
}

func (o *object) ID() uint64 {
	return o.id
}

func (o *object) Name() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.name
}

func (o *object) Mesh() *command.Mesh {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mesh
}

func (o *object) Material() *material.Material {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.material
}

func (o *object) Matrix() [16]float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	var m [16]float32
	common.BuildModelMatrix(m[:], o.position, o.rotation, o.scale)
	return m
}

func (o *object) Tags() []command.ShaderTag {
	o.mu.Lock()
	defer o.mu.Unlock()
	return slices.Clone(o.tags)
}

func (o *object) Queue() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.queue
}

func (o *object) Layer() uint32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.layer
}

func (o *object) Position() [3]float32 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.position
}

func (o *object) Bounds() ([3]float32, float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := max(o.scale[0], o.scale[1], o.scale[2])
	return o.position, o.radius * s
}

func (o *object) Enabled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.enabled
}

func (o *object) SetPosition(p [3]float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.position = p
}

func (o *object) SetMaterial(m *material.Material) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.material = m
}

func (o *object) SetEnabled(enabled bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.enabled = enabled
}

// hasAnyTag reports whether o provides one of tags. An empty tag list matches everything.
func hasAnyTag(o Object, tags []command.ShaderTag) bool {
	if len(tags) == 0 {
		return true
	}
	for _, t := range o.Tags() {
		if slices.Contains(tags, t) {
			return true
		}
	}
	return false
}
