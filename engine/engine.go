package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/diagnostics"
	"github.com/Carmen-Shannon/oxy-deferred/engine/profiler"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-deferred/engine/scene"
	"github.com/Carmen-Shannon/oxy-deferred/engine/window"
)

// engine implements the Engine interface.
// Coordinates the tick, render and quit goroutines with the window's message loop.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration
	running         atomic.Bool
	wg              sync.WaitGroup
	quitChannel     chan struct{}
	quitOnce        sync.Once

	window  window.Window
	backend renderer.Backend
	scene   scene.Scene
	library material.Library
	cameras []camera.Camera

	asset         renderer.Asset
	assetPath     string
	toggle        common.KeyChord
	startInactive bool
	pipelines     PipelineSwitch

	profiler         *profiler.Profiler
	profilingEnabled atomic.Bool

	engineTickRate   time.Duration
	tickCallback     func(deltaTime float32)
	renderCallback   func(deltaTime float32)
	renderFrameLimit time.Duration
}

// Engine owns the window, the render backend and the installed pipeline, and drives them from
// a fixed-rate tick loop and a render loop.
type Engine interface {
	// Window returns the window, or nil when running headless.
	//
	// Returns:
	//   - window.Window: the window
	Window() window.Window

	// Backend returns the render backend frames are drawn with.
	//
	// Returns:
	//   - renderer.Backend: the backend
	Backend() renderer.Backend

	// Pipelines returns the switch that installs and uninstalls the deferred pipeline.
	//
	// Returns:
	//   - PipelineSwitch: the switch
	Pipelines() PipelineSwitch

	// Scene returns the scene cameras are culled against.
	//
	// Returns:
	//   - scene.Scene: the scene
	Scene() scene.Scene

	// AddCamera adds cameras to the frame. Cameras render in ascending Depth order.
	//
	// Parameters:
	//   - cams: the cameras to add
	AddCamera(cams ...camera.Camera)

	// RemoveCamera removes a camera from the frame.
	//
	// Parameters:
	//   - cam: the camera to remove
	RemoveCamera(cam camera.Camera)

	// Cameras returns the cameras in render order.
	//
	// Returns:
	//   - []camera.Camera: a sorted copy of the cameras
	Cameras() []camera.Camera

	// HandleKey handles a key press. The pipeline toggle chord flips the PipelineSwitch.
	//
	// Parameters:
	//   - key: the key code
	//   - mods: the held modifiers
	//
	// Returns:
	//   - bool: true if the key was consumed
	HandleKey(key uint32, mods common.KeyMod) bool

	// RenderFrame renders and presents one frame.
	//
	// Returns:
	//   - error: an error from acquiring the backbuffer or rendering
	RenderFrame() error

	// EnableProfiler enables periodic profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables profiling output.
	DisableProfiler()

	// Profiler returns the profiler.
	//
	// Returns:
	//   - *profiler.Profiler: the profiler
	Profiler() *profiler.Profiler

	// SetTickRate sets the engine tick rate in ticks per second.
	//
	// Parameters:
	//   - fps: ticks per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: receives the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function called after each rendered frame.
	//
	// Parameters:
	//   - callback: receives the delta time in seconds
	SetRenderCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit caps the render loop. Pass 0 to uncap it.
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the loops and blocks until the window closes or Quit is called, then shuts
	// the engine down.
	Run()

	// Quit signals every engine goroutine to stop. Safe to call multiple times.
	Quit()
}

// NewEngine creates an Engine. Without a backend the engine draws through the wgpu backend of
// its window, or headless through a RecordingContext when there is no window either. The
// pipeline is installed immediately unless WithPipelineActive(false) is given.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the engine
//   - error: an error if the asset, backend or pipeline cannot be set up
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		asset:           renderer.DefaultAsset(),
		profiler:        profiler.NewProfiler(),
		engineTickRate:  time.Second / 60,
	}
	for _, opt := range options {
		opt(e)
	}

	if e.assetPath != "" {
		a, err := renderer.LoadAssetFile(e.assetPath)
		if err != nil {
			return nil, err
		}
		e.asset = a
	}
	e.asset = e.asset.WithDefaults()
	toggle, err := common.ParseKeyChord(e.asset.ToggleKey)
	if err != nil {
		return nil, fmt.Errorf("engine: toggle key: %w", err)
	}
	e.toggle = toggle

	if e.backend == nil {
		if err := e.createBackend(); err != nil {
			return nil, err
		}
	}
	if e.scene == nil {
		e.scene = scene.NewScene("Main")
	}

	e.pipelines = NewPipelineSwitch(e.asset, e.buildPipeline)
	if !e.startInactive {
		if err := e.pipelines.Activate(); err != nil {
			return nil, err
		}
	}

	if e.window != nil {
		e.window.SetKeyDownCallback(func(key uint32, mods common.KeyMod) {
			e.HandleKey(key, mods)
		})
		e.window.SetResizeCallback(func(width, height int) {
			e.backend.ConfigureSurface(width, height)
		})
	}
	return e, nil
}

func (e *engine) createBackend() error {
	if e.window == nil {
		e.backend = renderer.NewRecordingContext(1280, 720)
		return nil
	}
	b, err := renderer.NewWGPURendererBackend(e.window.SurfaceDescriptor())
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	b.ConfigureSurface(e.window.Size())
	e.backend = b
	return nil
}

// buildPipeline is the PipelineFactory of the engine's switch.
func (e *engine) buildPipeline(asset renderer.Asset) (renderer.Pipeline, error) {
	return renderer.NewPipeline(
		renderer.WithAsset(asset),
		renderer.WithLibrary(e.library),
		renderer.WithScene(e.scene),
		renderer.WithAllocator(e.backend),
	)
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Backend() renderer.Backend {
	return e.backend
}

func (e *engine) Pipelines() PipelineSwitch {
	return e.pipelines
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) AddCamera(cams ...camera.Camera) {
	e.mu.Lock()
	for _, c := range cams {
		if c != nil && !slices.Contains(e.cameras, c) {
			e.cameras = append(e.cameras, c)
		}
	}
	e.mu.Unlock()
	e.logCameras()
}

func (e *engine) RemoveCamera(cam camera.Camera) {
	e.mu.Lock()
	e.cameras = slices.DeleteFunc(e.cameras, func(c camera.Camera) bool { return c == cam })
	e.mu.Unlock()
	e.logCameras()
}

// logCameras writes the camera table at debug level.
func (e *engine) logCameras() {
	log := common.Logger()
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	var sb strings.Builder
	if err := diagnostics.DumpCameras(&sb, e.Cameras()); err != nil {
		return
	}
	log.Debug("cameras changed", "table", "\n"+sb.String())
}

func (e *engine) Cameras() []camera.Camera {
	e.mu.Lock()
	cams := slices.Clone(e.cameras)
	e.mu.Unlock()
	slices.SortStableFunc(cams, func(a, b camera.Camera) int {
		switch {
		case a.Depth() < b.Depth():
			return -1
		case a.Depth() > b.Depth():
			return 1
		}
		return 0
	})
	return cams
}

func (e *engine) HandleKey(key uint32, mods common.KeyMod) bool {
	e.mu.Lock()
	toggle := e.toggle
	e.mu.Unlock()
	if !toggle.Matches(key, mods) {
		return false
	}
	if _, err := e.pipelines.Toggle(); err != nil {
		common.Logger().Error("engine: pipeline toggle failed", "key", toggle.String(), "err", err)
	}
	return true
}

func (e *engine) RenderFrame() error {
	if err := e.backend.BeginFrame(); err != nil {
		return fmt.Errorf("begin frame: %w", err)
	}
	defer e.backend.Present()

	cams := e.Cameras()
	p := e.pipelines.Pipeline()
	if p == nil {
		return e.clearDisplay(cams)
	}
	err := p.Render(e.backend, cams)
	if errors.Is(err, renderer.ErrDisposed) {
		// uninstalled between Pipeline and Render
		return nil
	}
	if e.profilingEnabled.Load() {
		e.profiler.RecordFrame(p.LastFrame())
	}
	return err
}

// clearDisplay is the frame drawn while no pipeline is installed: the backbuffer cleared to
// the first camera's background color.
func (e *engine) clearDisplay(cams []camera.Camera) error {
	back := e.backend.Backbuffer()
	if back == nil {
		return nil
	}
	color := common.Black
	if len(cams) > 0 {
		color = cams[0].BackgroundColor()
	}
	cmd := command.NewBuffer("Clear Display")
	cmd.SetRenderTarget([]texture.Surface{back}, nil)
	cmd.ClearRenderTarget(false, true, color)
	if err := e.backend.ExecuteCommandBuffer(cmd); err != nil {
		return err
	}
	return e.backend.Submit()
}

func (e *engine) Run() {
	e.running.Store(true)
	if e.assetPath != "" {
		if err := e.watchAsset(e.assetPath); err != nil {
			common.Logger().Warn("engine: asset hot reload disabled", "path", e.assetPath, "err", err)
		}
	}
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	} else {
		<-e.quitChannel
	}
	e.wg.Wait()
	e.shutdown()
}

func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel exactly once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running.Store(false)
		close(e.quitChannel)
	})
}

// shutdown disposes the pipeline and releases the backend once every loop has stopped.
func (e *engine) shutdown() {
	e.pipelines.Deactivate()
	e.backend.Destroy()
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			common.Logger().Warn("engine: close window", "err", err)
		}
	}
}

// handle launches the tick and render goroutines.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleTick()
	go e.handleRender()
}

// handleTick runs the fixed-rate tick loop and picks up tick rate changes.
func (e *engine) handleTick() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()
	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case rate := <-e.tickRateChannel:
			ticker.Reset(rate)
			e.engineTickRate = rate
		}
	}
}

// handleRender renders frames until quit. A panic stops the engine instead of the process.
func (e *engine) handleRender() {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			common.Logger().Error("engine: render loop panicked", "panic", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()
	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.RenderFrame(); err != nil {
			common.Logger().Error("engine: frame failed", "err", err)
		}
		if e.renderCallback != nil {
			e.renderCallback(dt)
		}
		if e.profilingEnabled.Load() {
			e.profiler.Tick()
		}
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

func (e *engine) EnableProfiler() {
	e.profilingEnabled.Store(true)
}

func (e *engine) DisableProfiler() {
	e.profilingEnabled.Store(false)
}

func (e *engine) Profiler() *profiler.Profiler {
	return e.profiler
}

// SetTickRate takes effect immediately when the engine is running.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	rate := time.Duration(float64(time.Second) / fps)
	if !e.running.Load() {
		e.engineTickRate = rate
		return
	}
	// replace any pending update
	select {
	case e.tickRateChannel <- rate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- rate
	}
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderCallback(callback func(deltaTime float32)) {
	e.renderCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
