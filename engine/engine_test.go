package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeadlessEngine(t *testing.T, options ...EngineBuilderOption) (Engine, *renderer.RecordingContext) {
	t.Helper()
	ctx := renderer.NewRecordingContext(64, 32)
	e, err := NewEngine(append([]EngineBuilderOption{WithBackend(ctx)}, options...)...)
	require.NoError(t, err)
	return e, ctx
}

func testCamera(name string, depth float32) camera.Camera {
	return camera.NewCamera(
		camera.WithName(name),
		camera.WithPixelRect(common.Rect{Width: 64, Height: 32}),
		camera.WithDepth(depth),
		camera.WithBackgroundColor(common.Color{0.1, 0.2, 0.3, 1}),
	)
}

func TestRenderFrameRunsPipeline(t *testing.T) {
	e, ctx := newHeadlessEngine(t, WithCameras(testCamera("Main", 0)))

	require.NoError(t, e.RenderFrame())

	begun, presented := ctx.Frames()
	assert.Equal(t, 1, begun)
	assert.Equal(t, 1, presented)
	assert.Equal(t, uint64(1), e.Pipelines().Pipeline().FrameCount())
	assert.Equal(t, 1, command.Count[command.Blit](ctx.Commands()))
}

func TestToggleChordSwitchesToClear(t *testing.T) {
	e, ctx := newHeadlessEngine(t, WithCameras(testCamera("Main", 0)))
	require.True(t, e.Pipelines().Active())

	assert.False(t, e.HandleKey(common.KeyJ, 0))
	assert.True(t, e.HandleKey(common.KeyJ, common.ModAlt))
	assert.False(t, e.Pipelines().Active())

	require.NoError(t, e.RenderFrame())
	subs := ctx.Submissions()
	require.Len(t, subs, 1)
	require.Len(t, subs[0], 1)
	assert.Equal(t, "Clear Display", subs[0][0].Name)
	cleared, ok := subs[0][0].Commands[1].(command.ClearRenderTarget)
	require.True(t, ok)
	assert.Equal(t, common.Color{0.1, 0.2, 0.3, 1}, cleared.Value)

	assert.True(t, e.HandleKey(common.KeyJ, common.ModAlt))
	assert.True(t, e.Pipelines().Active())
}

func TestCamerasSortByDepth(t *testing.T) {
	back, front, mid := testCamera("Back", -1), testCamera("Front", 5), testCamera("Mid", 1)
	e, _ := newHeadlessEngine(t, WithCameras(front, back))
	e.AddCamera(mid, mid, nil)

	cams := e.Cameras()
	require.Len(t, cams, 3)
	assert.Equal(t, []string{"Back", "Mid", "Front"}, []string{cams[0].Name(), cams[1].Name(), cams[2].Name()})

	e.RemoveCamera(mid)
	assert.Len(t, e.Cameras(), 2)
}

func TestStartInactiveAndCustomToggle(t *testing.T) {
	asset := renderer.DefaultAsset()
	asset.ToggleKey = "ctrl+p"
	e, _ := newHeadlessEngine(t, WithAsset(asset), WithPipelineActive(false))

	assert.False(t, e.Pipelines().Active())
	assert.False(t, e.HandleKey(common.KeyJ, common.ModAlt))
	assert.True(t, e.HandleKey('P', common.ModControl))
	assert.True(t, e.Pipelines().Active())
}

func TestNewEngineRejectsBadAsset(t *testing.T) {
	asset := renderer.DefaultAsset()
	asset.ToggleKey = "alt+"
	_, err := NewEngine(WithBackend(renderer.NewRecordingContext(8, 8)), WithAsset(asset))
	assert.ErrorIs(t, err, common.ErrInvalidKeyChord)

	asset = renderer.DefaultAsset()
	asset.HDRFormat = "Bogus"
	_, err = NewEngine(WithBackend(renderer.NewRecordingContext(8, 8)), WithAsset(asset))
	assert.Error(t, err)

	_, err = NewEngine(WithAssetFile(filepath.Join(t.TempDir(), "missing.toml")))
	assert.Error(t, err)
}

func TestReloadAssetRebuildsPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = \"First\"\n"), 0o644))
	e, _ := newHeadlessEngine(t, WithAssetFile(path))
	first := e.Pipelines().Pipeline()
	assert.Equal(t, "First", first.Name())

	require.NoError(t, os.WriteFile(path, []byte("name = \"Second\"\ntoggle_key = \"alt+k\"\n"), 0o644))
	impl := e.(*engine)
	require.NoError(t, impl.reloadAsset(path))

	assert.Equal(t, "Second", e.Pipelines().Pipeline().Name())
	assert.ErrorIs(t, first.Render(renderer.NewRecordingContext(8, 8), nil), renderer.ErrDisposed)
	assert.True(t, e.HandleKey('K', common.ModAlt))

	// a broken file leaves the running pipeline alone
	require.NoError(t, os.WriteFile(path, []byte("name = "), 0o644))
	assert.Error(t, impl.reloadAsset(path))
	assert.Equal(t, "Second", e.Pipelines().Asset().Name)
}

func TestRunHeadlessUntilQuit(t *testing.T) {
	e, ctx := newHeadlessEngine(t, WithCameras(testCamera("Main", 0)), WithProfiling(true))
	frames := 0
	e.SetRenderCallback(func(float32) {
		frames++
		if frames == 3 {
			e.Quit()
		}
	})

	e.Run()

	assert.GreaterOrEqual(t, frames, 3)
	begun, presented := ctx.Frames()
	assert.Equal(t, begun, presented)
	assert.False(t, e.Pipelines().Active())
	e.Quit()
}

type failingBackend struct {
	*renderer.RecordingContext
}

var errAcquire = errors.New("surface lost")

func (failingBackend) BeginFrame() error { return errAcquire }

func TestRenderFrameBeginError(t *testing.T) {
	e, err := NewEngine(WithBackend(failingBackend{renderer.NewRecordingContext(8, 8)}))
	require.NoError(t, err)
	assert.ErrorIs(t, e.RenderFrame(), errAcquire)
}
