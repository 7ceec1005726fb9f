package engine

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingFactory struct {
	built int
	fail  bool
}

var errBuild = errors.New("no device")

func (f *countingFactory) build(asset renderer.Asset) (renderer.Pipeline, error) {
	if f.fail {
		return nil, errBuild
	}
	f.built++
	return renderer.NewPipeline(renderer.WithAsset(asset))
}

func TestSwitchIsIdempotent(t *testing.T) {
	f := &countingFactory{}
	s := NewPipelineSwitch(renderer.DefaultAsset(), f.build)
	assert.False(t, s.Active())
	assert.Nil(t, s.Pipeline())

	require.NoError(t, s.Activate())
	p := s.Pipeline()
	require.NoError(t, s.Activate())
	assert.Same(t, p, s.Pipeline())
	assert.Equal(t, 1, f.built)

	s.Deactivate()
	s.Deactivate()
	assert.False(t, s.Active())
	assert.ErrorIs(t, p.Render(renderer.NewRecordingContext(4, 4), nil), renderer.ErrDisposed)
}

func TestSwitchToggle(t *testing.T) {
	f := &countingFactory{}
	s := NewPipelineSwitch(renderer.DefaultAsset(), f.build)

	on, err := s.Toggle()
	require.NoError(t, err)
	assert.True(t, on)
	on, err = s.Toggle()
	require.NoError(t, err)
	assert.False(t, on)

	f.fail = true
	on, err = s.Toggle()
	assert.ErrorIs(t, err, errBuild)
	assert.False(t, on)
	assert.False(t, s.Active())
}

func TestSwitchReload(t *testing.T) {
	f := &countingFactory{}
	s := NewPipelineSwitch(renderer.DefaultAsset(), f.build)

	next := renderer.DefaultAsset()
	next.Name = "Inactive"
	require.NoError(t, s.Reload(next))
	assert.Zero(t, f.built)
	require.NoError(t, s.Activate())
	assert.Equal(t, "Inactive", s.Pipeline().Name())

	f.fail = true
	next.Name = "Broken"
	assert.ErrorIs(t, s.Reload(next), errBuild)
	assert.Equal(t, "Inactive", s.Pipeline().Name())
	assert.Equal(t, "Inactive", s.Asset().Name)
}
