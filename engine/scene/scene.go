package scene

import (
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
)

// Scene holds the objects and lights a frame draws and answers per-camera visibility queries.
// Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Add registers an object.
	//
	// Parameters:
	//   - obj: the object to add
	//
	// Returns:
	//   - uint64: the object's id
	Add(obj Object) uint64

	// Get returns the object with id, or nil.
	Get(id uint64) Object

	// Remove unregisters the object with id.
	Remove(id uint64)

	// Objects returns the registered objects in insertion order.
	Objects() []Object

	// Count returns the number of registered objects.
	Count() int

	// Clear removes every object and light.
	Clear()

	// AddLight registers a light.
	AddLight(l light.Light)

	// RemoveLight unregisters a light.
	RemoveLight(l light.Light)

	// Lights returns the registered lights.
	Lights() []light.Light

	// CullingDisabled returns whether frustum culling is skipped.
	CullingDisabled() bool

	// SetCullingDisabled enables or disables frustum culling. Layer masks still apply.
	SetCullingDisabled(disabled bool)

	// Cull computes what cam can see. Object tests fan out over the scene's worker pool and
	// complete before Cull returns.
	//
	// Parameters:
	//   - cam: the camera
	//
	// Returns:
	//   - *CullingResults: the visible objects and lights
	Cull(cam camera.Camera) *CullingResults
}

type scene struct {
	mu *sync.RWMutex

	name            string
	objects         []Object
	lights          []light.Light
	cullingDisabled bool

	// cullPool runs object visibility tests. Workers persist across frames and idle-exit.
	cullPool    worker.DynamicWorkerPool
	cullWorkers int
	chunkSize   int
}

var _ Scene = &scene{}

// NewScene creates an empty Scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:          &sync.RWMutex{},
		name:        name,
		cullWorkers: max(runtime.NumCPU()-1, 1),
		chunkSize:   64,
	}
	for _, option := range options {
		option(s)
	}

	// Initialize the pool after options so WithCullWorkers can override the default.
	s.cullPool = worker.NewDynamicWorkerPool(s.cullWorkers, 256, 1*time.Second)
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Add(obj Object) uint64 {
	if obj == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, obj)
	return obj.ID()
}

func (s *scene) Get(id uint64) Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, o := range s.objects {
		if o.ID() == id {
			return o
		}
	}
	return nil
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = slices.DeleteFunc(s.objects, func(o Object) bool { return o.ID() == id })
}

func (s *scene) Objects() []Object {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.objects)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = nil
	s.lights = nil
}

func (s *scene) AddLight(l light.Light) {
	if l == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = slices.DeleteFunc(s.lights, func(x light.Light) bool { return x == l })
}

func (s *scene) Lights() []light.Light {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.lights)
}

func (s *scene) CullingDisabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cullingDisabled
}

func (s *scene) SetCullingDisabled(disabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cullingDisabled = disabled
}

func (s *scene) Cull(cam camera.Camera) *CullingResults {
	s.mu.RLock()
	objects := slices.Clone(s.objects)
	lights := slices.Clone(s.lights)
	disabled := s.cullingDisabled
	s.mu.RUnlock()

	res := &CullingResults{Camera: cam}
	if cam == nil {
		return res
	}
	mask := cam.CullingMask()
	frustum := cam.Frustum()

	visible := make([]bool, len(objects))
	// per-call barrier; the pool's Wait only returns once its workers idle out
	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < len(objects); start += s.chunkSize {
		end := min(start+s.chunkSize, len(objects))
		wg.Add(1)
		id := taskID
		taskID++
		s.cullPool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := start; i < end; i++ {
					visible[i] = objectVisible(objects[i], mask, &frustum, disabled)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()

	for i, o := range objects {
		if visible[i] {
			res.Objects = append(res.Objects, o)
		}
	}
	for _, l := range lights {
		if lightVisible(l, mask, &frustum, disabled) {
			res.Lights = append(res.Lights, light.Snapshot(l))
		}
	}
	common.Logger().Debug("scene: culled", "scene", s.name, "camera", cam.Name(),
		"objects", len(res.Objects), "of", len(objects), "lights", len(res.Lights))
	return res
}

func objectVisible(o Object, mask uint32, f *common.Frustum, disabled bool) bool {
	if !o.Enabled() || o.Layer()&mask == 0 {
		return false
	}
	if disabled {
		return true
	}
	center, radius := o.Bounds()
	return f.ContainsSphere(center, radius)
}

func lightVisible(l light.Light, mask uint32, f *common.Frustum, disabled bool) bool {
	if !l.Enabled() || l.Layer()&mask == 0 {
		return false
	}
	if disabled || l.Type() == light.LightTypeDirectional {
		return true
	}
	return f.ContainsSphere(l.Position(), l.Range())
}
