package loader

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/model"
)

// ErrUnsupportedFormat is returned for files that are neither .gltf nor .glb.
var ErrUnsupportedFormat = errors.New("unsupported model format")

// loader is the implementation of the Loader interface.
type loader struct {
	mu         sync.RWMutex
	modelCache map[string]model.Model
}

// Loader imports static geometry from glTF 2.0 files and caches the result by path or name.
type Loader interface {
	// Load imports a .gltf or .glb file and caches the result by path. A cached model is
	// returned without touching the file.
	//
	// Parameters:
	//   - path: the file path to the model file
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: ErrUnsupportedFormat, ErrInvalidModel or an I/O error
	Load(path string) (model.Model, error)

	// LoadReader imports a model from r and caches it under name, replacing any earlier entry.
	// External buffer URIs resolve against the working directory.
	//
	// Parameters:
	//   - name: the cache key and model name
	//   - r: the model data
	//   - isGLB: true if r holds a GLB container
	//
	// Returns:
	//   - model.Model: the loaded model
	//   - error: ErrInvalidModel or a read error
	LoadReader(name string, r io.Reader, isGLB bool) (model.Model, error)

	// Get retrieves a cached model by name. Returns nil if not found.
	Get(name string) model.Model

	// Models returns a copy of the model cache.
	//
	// Returns:
	//   - map[string]model.Model: all cached models keyed by name
	Models() map[string]model.Model

	// Evict drops a model from the cache so the next Load reads the file again.
	Evict(name string)
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the options applied.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: the new loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		modelCache: make(map[string]model.Model),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (model.Model, error) {
	l.mu.RLock()
	cached, ok := l.modelCache[path]
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gltf", ".glb":
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	p := &gltfParser{}
	if err := p.parseFile(path); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	m, err := l.build(p, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return l.store(path, m), nil
}

func (l *loader) LoadReader(name string, r io.Reader, isGLB bool) (model.Model, error) {
	p := &gltfParser{}
	if err := p.parseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}
	m, err := l.build(p, name)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", name, err)
	}

	l.mu.Lock()
	l.modelCache[name] = m
	l.mu.Unlock()
	return m, nil
}

func (l *loader) build(p *gltfParser, name string) (model.Model, error) {
	parts, err := p.extractMeshes()
	if err != nil {
		return nil, err
	}
	m := model.NewModel(model.WithName(name), model.WithParts(parts...))
	common.Logger().Debug("model loaded", "name", name, "parts", len(parts), "triangles", m.TriangleCount())
	return m, nil
}

// store caches m under key unless a concurrent Load got there first, returning the cached model.
func (l *loader) store(key string, m model.Model) model.Model {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.modelCache[key]; ok {
		return existing
	}
	l.modelCache[key] = m
	return m
}

func (l *loader) Get(name string) model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.modelCache[name]
}

func (l *loader) Models() map[string]model.Model {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]model.Model, len(l.modelCache))
	for k, v := range l.modelCache {
		out[k] = v
	}
	return out
}

func (l *loader) Evict(name string) {
	l.mu.Lock()
	delete(l.modelCache, name)
	l.mu.Unlock()
}
