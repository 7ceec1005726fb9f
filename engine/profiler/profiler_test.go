package profiler

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/framegraph"
	"github.com/stretchr/testify/assert"
)

func fakeClock(p *Profiler) *time.Time {
	now := time.Unix(0, 0)
	p.now = func() time.Time { return now }
	p.last = now
	return &now
}

func TestTickReportsOncePerInterval(t *testing.T) {
	p := NewProfiler()
	now := fakeClock(p)

	p.RecordFrame(framegraph.Execution{Executed: []string{"GBuffer", "Lighting"}, Culled: []string{"Unused"}}, framegraph.Stats{Allocations: 4})
	assert.False(t, p.Tick())
	p.RecordFrame(framegraph.Execution{Executed: []string{"GBuffer", "Lighting", "Transparent", "Skybox"}}, framegraph.Stats{Allocations: 4, Reuses: 3, PeakLive: 5})

	*now = now.Add(time.Second)
	assert.True(t, p.Tick())

	r := p.Last()
	assert.InDelta(t, 2.0, r.FPS, 1e-9)
	assert.InDelta(t, 3.0, r.Passes, 1e-9)
	assert.InDelta(t, 0.5, r.CulledPasses, 1e-9)
	assert.Equal(t, 3, r.Graph.Reuses)
	assert.Equal(t, 5, r.Graph.PeakLive)

	// counters restart with the next interval
	assert.False(t, p.Tick())
}

func TestSetInterval(t *testing.T) {
	p := NewProfiler()
	now := fakeClock(p)
	p.SetInterval(0)
	assert.Equal(t, time.Second, p.interval)

	p.SetInterval(10 * time.Millisecond)
	*now = now.Add(10 * time.Millisecond)
	assert.True(t, p.Tick())
	assert.Zero(t, p.Last().Passes)
}
