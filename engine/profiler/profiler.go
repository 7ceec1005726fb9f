// Package profiler logs frame rate, memory and frame-graph statistics at a fixed interval.
package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/framegraph"
)

// Report is one interval's worth of statistics.
type Report struct {
	FPS float64

	// HeapMB is live heap memory, AllocRateMB the heap churn per second.
	HeapMB      float64
	AllocRateMB float64
	NumGC       uint32
	MaxPauseUs  uint64

	// Passes and CulledPasses average the executed and culled pass counts per frame.
	Passes       float64
	CulledPasses float64

	// Graph holds the frame graph's pool counters as of the last recorded frame.
	Graph framegraph.Stats
}

// Profiler accumulates per-frame counters and logs a Report every interval.
// It is not safe for concurrent use; the render loop owns it.
type Profiler struct {
	interval time.Duration
	now      func() time.Time

	frames   int
	graphed  int
	passes   int
	culled   int
	graph    framegraph.Stats
	last     time.Time
	lastGC   uint32
	lastHeap uint64
	memStats runtime.MemStats
	report   Report
}

// NewProfiler creates a Profiler reporting once per second.
//
// Returns:
//   - *Profiler: the profiler
func NewProfiler() *Profiler {
	return &Profiler{interval: time.Second, now: time.Now, last: time.Now()}
}

// SetInterval changes the reporting interval. Non-positive values are ignored.
//
// Parameters:
//   - d: the interval
func (p *Profiler) SetInterval(d time.Duration) {
	if d > 0 {
		p.interval = d
	}
}

// RecordFrame adds the outcome of one frame-graph execution to the current interval.
//
// Parameters:
//   - exec: the graph's last execution
//   - stats: the graph's pool counters
func (p *Profiler) RecordFrame(exec framegraph.Execution, stats framegraph.Stats) {
	p.graphed++
	p.passes += len(exec.Executed)
	p.culled += len(exec.Culled)
	p.graph = stats
}

// Tick counts one rendered frame and logs a Report once the interval has elapsed.
//
// Returns:
//   - bool: true if a report was logged
func (p *Profiler) Tick() bool {
	p.frames++
	now := p.now()
	elapsed := now.Sub(p.last)
	if elapsed < p.interval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	r := Report{
		FPS:         float64(p.frames) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastHeap) / 1024 / 1024 / elapsed.Seconds(),
		NumGC:       p.memStats.NumGC,
		MaxPauseUs:  p.maxPause(),
		Graph:       p.graph,
	}
	if p.graphed > 0 {
		r.Passes = float64(p.passes) / float64(p.graphed)
		r.CulledPasses = float64(p.culled) / float64(p.graphed)
	}
	p.report = r

	common.Logger().Info("profiler",
		"fps", r.FPS,
		"heap_mb", r.HeapMB,
		"alloc_rate_mb", r.AllocRateMB,
		"gc", r.NumGC,
		"max_pause_us", r.MaxPauseUs,
		"passes", r.Passes,
		"culled", r.CulledPasses,
		"allocations", r.Graph.Allocations,
		"reuses", r.Graph.Reuses,
		"live", r.Graph.Live,
		"peak_live", r.Graph.PeakLive,
	)

	p.frames, p.graphed, p.passes, p.culled = 0, 0, 0, 0
	p.last = now
	p.lastGC = p.memStats.NumGC
	p.lastHeap = p.memStats.TotalAlloc
	return true
}

// maxPause returns the longest GC pause since the last report, in microseconds.
func (p *Profiler) maxPause() uint64 {
	n := p.memStats.NumGC
	start := p.lastGC
	if n-start > 256 {
		start = n - 256
	}
	var longest uint64
	for i := start; i < n; i++ {
		longest = max(longest, p.memStats.PauseNs[i%256]/1000)
	}
	return longest
}

// Last returns the most recent Report.
//
// Returns:
//   - Report: the report, zero before the first interval elapses
func (p *Profiler) Last() Report {
	return p.report
}
