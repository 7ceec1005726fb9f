package engine

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
)

// PipelineFactory builds the pipeline a PipelineSwitch installs.
type PipelineFactory func(asset renderer.Asset) (renderer.Pipeline, error)

// PipelineSwitch installs and uninstalls the deferred pipeline at runtime. While uninstalled
// the engine falls back to clearing the display.
type PipelineSwitch interface {
	// Activate installs the pipeline. It does nothing when the pipeline is already installed.
	//
	// Returns:
	//   - error: an error if the pipeline cannot be built
	Activate() error

	// Deactivate uninstalls and disposes the pipeline. It does nothing when none is installed.
	Deactivate()

	// Toggle flips between installed and uninstalled.
	//
	// Returns:
	//   - bool: whether the pipeline is installed afterwards
	//   - error: an error if installing failed
	Toggle() (bool, error)

	// Active reports whether the pipeline is installed.
	//
	// Returns:
	//   - bool: true if installed
	Active() bool

	// Pipeline returns the installed pipeline, or nil.
	//
	// Returns:
	//   - renderer.Pipeline: the pipeline
	Pipeline() renderer.Pipeline

	// Reload replaces the asset. An installed pipeline is rebuilt from it; on failure the
	// previous pipeline stays installed.
	//
	// Parameters:
	//   - asset: the new asset
	//
	// Returns:
	//   - error: an error if the rebuilt pipeline cannot be built
	Reload(asset renderer.Asset) error

	// Asset returns the asset the next Activate builds from.
	//
	// Returns:
	//   - renderer.Asset: the asset
	Asset() renderer.Asset
}

type pipelineSwitch struct {
	mu      *sync.Mutex
	factory PipelineFactory
	asset   renderer.Asset
	active  renderer.Pipeline
}

var _ PipelineSwitch = &pipelineSwitch{}

// NewPipelineSwitch creates an uninstalled PipelineSwitch.
//
// Parameters:
//   - asset: the asset pipelines are built from
//   - factory: builds a pipeline from an asset
//
// Returns:
//   - PipelineSwitch: the switch
func NewPipelineSwitch(asset renderer.Asset, factory PipelineFactory) PipelineSwitch {
	return &pipelineSwitch{mu: &sync.Mutex{}, factory: factory, asset: asset}
}

func (s *pipelineSwitch) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activate()
}

func (s *pipelineSwitch) activate() error {
	if s.active != nil {
		return nil
	}
	p, err := s.factory(s.asset)
	if err != nil {
		return fmt.Errorf("install pipeline %q: %w", s.asset.Name, err)
	}
	s.active = p
	common.Logger().Info("engine: pipeline installed", "pipeline", p.Name())
	return nil
}

func (s *pipelineSwitch) Deactivate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deactivate()
}

func (s *pipelineSwitch) deactivate() {
	if s.active == nil {
		return
	}
	s.active.Dispose()
	common.Logger().Info("engine: pipeline uninstalled", "pipeline", s.active.Name())
	s.active = nil
}

func (s *pipelineSwitch) Toggle() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active != nil {
		s.deactivate()
		return false, nil
	}
	if err := s.activate(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *pipelineSwitch) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *pipelineSwitch) Pipeline() renderer.Pipeline {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *pipelineSwitch) Reload(asset renderer.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		s.asset = asset
		return nil
	}
	p, err := s.factory(asset)
	if err != nil {
		return fmt.Errorf("reload pipeline %q: %w", asset.Name, err)
	}
	s.active.Dispose()
	s.active = p
	s.asset = asset
	common.Logger().Info("engine: pipeline reloaded", "pipeline", p.Name())
	return nil
}

func (s *pipelineSwitch) Asset() renderer.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.asset
}
