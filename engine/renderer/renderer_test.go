package renderer

import (
	"errors"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errExecute = errors.New("device lost")

// failingContext records like RecordingContext but rejects every buffer.
type failingContext struct {
	*RecordingContext
}

func (c failingContext) ExecuteCommandBuffer(command.Buffer) error {
	return errExecute
}

func newTestPipeline(t *testing.T, alloc texture.Allocator) Pipeline {
	t.Helper()
	p, err := NewPipeline(WithName("Test"), WithAllocator(alloc))
	require.NoError(t, err)
	t.Cleanup(p.Dispose)
	return p
}

func mainCamera(name string, w, h int) camera.Camera {
	return camera.NewCamera(camera.WithName(name), camera.WithPixelRect(common.Rect{Width: w, Height: h}))
}

func TestRenderSingleCameraBlitsToBackbuffer(t *testing.T) {
	ctx := NewRecordingContext(64, 32)
	p := newTestPipeline(t, texture.NewMemoryAllocator())

	require.NoError(t, p.Render(ctx, []camera.Camera{mainCamera("Main", 64, 32)}))

	assert.Equal(t, []string{"GBuffer Main", "Skybox Main", "Lighting Main", "Transparent Main"}, p.Graph().LastExecution().Executed)

	subs := ctx.Submissions()
	require.Len(t, subs, 2)
	require.Len(t, subs[1], 1)
	assert.Equal(t, "Test Final Blit", subs[1][0].Name)
	require.Len(t, subs[1][0].Commands, 1)
	blit, ok := subs[1][0].Commands[0].(command.Blit)
	require.True(t, ok)
	assert.Same(t, p.SharedSurface(), blit.Src)
	assert.Same(t, ctx.Backbuffer(), blit.Dst)
	assert.Equal(t, uint64(1), p.FrameCount())
}

func TestSharedSurfaceFollowsDisplaySize(t *testing.T) {
	alloc := texture.NewMemoryAllocator()
	ctx := NewRecordingContext(64, 32)
	p := newTestPipeline(t, alloc)
	cams := []camera.Camera{mainCamera("Main", 64, 32)}

	require.NoError(t, p.Render(ctx, cams))
	first := p.SharedSurface()
	require.NoError(t, p.Render(ctx, cams))
	assert.Same(t, first, p.SharedSurface())

	ctx.SetDisplaySize(128, 64)
	require.NoError(t, p.Render(ctx, cams))
	assert.NotSame(t, first, p.SharedSurface())
	assert.Equal(t, 128, p.SharedSurface().Width())
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, p.SharedSurface().Format())
	assert.True(t, first.(*texture.RenderTexture).Released())
}

func TestOwnTargetCameraSkipsFinalBlit(t *testing.T) {
	ctx := NewRecordingContext(64, 32)
	p := newTestPipeline(t, texture.NewMemoryAllocator())
	rt, err := texture.NewRenderTexture(texture.Desc{Name: "Mirror", Width: 32, Height: 32, Format: wgpu.TextureFormatRGBA16Float})
	require.NoError(t, err)
	cam := camera.NewCamera(camera.WithName("Mirror"), camera.WithPixelRect(common.Rect{Width: 32, Height: 32}), camera.WithTargetTexture(rt))

	require.NoError(t, p.Render(ctx, []camera.Camera{cam}))
	assert.Len(t, ctx.Submissions(), 1)
	assert.Zero(t, command.Count[command.Blit](ctx.Commands()))
}

func TestCamerasRenderInOrderAndSkipEmptyRects(t *testing.T) {
	ctx := NewRecordingContext(64, 32)
	p := newTestPipeline(t, texture.NewMemoryAllocator())
	empty := camera.NewCamera(camera.WithName("Empty"), camera.WithPixelRect(common.Rect{}))

	require.NoError(t, p.Render(ctx, []camera.Camera{mainCamera("A", 64, 32), nil, empty, mainCamera("B", 64, 32)}))

	executed := p.Graph().LastExecution().Executed
	assert.Equal(t, "GBuffer A", executed[0])
	assert.Contains(t, executed, "GBuffer B")
	assert.NotContains(t, executed, "GBuffer Empty")
}

func TestZeroDisplaySkipsFrame(t *testing.T) {
	ctx := NewRecordingContext(0, 0)
	p := newTestPipeline(t, texture.NewMemoryAllocator())

	require.NoError(t, p.Render(ctx, []camera.Camera{mainCamera("Main", 64, 32)}))
	assert.Empty(t, ctx.Submissions())
	assert.Nil(t, p.SharedSurface())
	assert.Zero(t, p.FrameCount())
}

func TestExecuteErrorAbortsFrame(t *testing.T) {
	alloc := texture.NewMemoryAllocator()
	ctx := failingContext{NewRecordingContext(64, 32)}
	p := newTestPipeline(t, alloc)

	err := p.Render(ctx, []camera.Camera{mainCamera("Main", 64, 32)})
	require.ErrorIs(t, err, errExecute)
	assert.Contains(t, err.Error(), "frame 0")
	assert.Equal(t, uint64(1), p.FrameCount())
	assert.Empty(t, ctx.Submissions())

	// the frame was closed, so the next one can begin
	err = p.Render(ctx, []camera.Camera{mainCamera("Main", 64, 32)})
	assert.ErrorIs(t, err, errExecute)
	assert.Equal(t, uint64(2), p.FrameCount())
}

func TestRenderArgumentsAndDispose(t *testing.T) {
	alloc := texture.NewMemoryAllocator()
	p, err := NewPipeline(WithAllocator(alloc))
	require.NoError(t, err)

	assert.ErrorIs(t, p.Render(nil, nil), ErrNoRenderContext)
	require.NoError(t, p.Render(NewRecordingContext(16, 16), []camera.Camera{mainCamera("Main", 16, 16)}))
	assert.Positive(t, alloc.Live())

	p.Dispose()
	p.Dispose()
	assert.Zero(t, alloc.Live())
	assert.Nil(t, p.SharedSurface())
	assert.ErrorIs(t, p.Render(NewRecordingContext(16, 16), nil), ErrDisposed)
}

func TestNewPipelineRejectsBadHDRFormat(t *testing.T) {
	_, err := NewPipeline(WithAsset(Asset{HDRFormat: "NotAFormat"}))
	assert.Error(t, err)

	_, err = NewPipeline(WithAsset(Asset{HDRFormat: "Depth24Plus"}))
	assert.ErrorIs(t, err, texture.ErrInvalidDescriptor)
}

// viewports returns, for each command, the viewport in force when it ran. A zero Rect means
// the whole bound target.
func viewports(cmds []command.Command) []common.Rect {
	out := make([]common.Rect, len(cmds))
	var cur common.Rect
	for i, c := range cmds {
		switch c := c.(type) {
		case command.SetRenderTarget:
			cur = common.Rect{}
		case command.SetViewport:
			cur = c.Rect
		}
		out[i] = cur
	}
	return out
}

func TestSplitScreenCamerasKeepTheirRects(t *testing.T) {
	ctx := NewRecordingContext(64, 32)
	p := newTestPipeline(t, texture.NewMemoryAllocator())
	leftRect := common.Rect{Width: 32, Height: 32}
	rightRect := common.Rect{X: 32, Width: 32, Height: 32}
	leftColor := common.Color{1, 0, 0, 1}
	rightColor := common.Color{0, 0, 1, 1}
	left := camera.NewCamera(camera.WithName("L"), camera.WithPixelRect(leftRect),
		camera.WithClearFlags(camera.ClearSolidColor), camera.WithBackgroundColor(leftColor))
	right := camera.NewCamera(camera.WithName("R"), camera.WithPixelRect(rightRect),
		camera.WithClearFlags(camera.ClearSolidColor), camera.WithBackgroundColor(rightColor))

	require.NoError(t, p.Render(ctx, []camera.Camera{left, right}))
	shared := p.SharedSurface()
	require.NotNil(t, shared)

	cmds := ctx.Commands()
	vps := viewports(cmds)
	var bound []texture.Surface
	cleared := map[common.Color]common.Rect{}
	for i, c := range cmds {
		switch c := c.(type) {
		case command.SetRenderTarget:
			bound = append(append([]texture.Surface(nil), c.Colors...), c.Depth)
			for _, s := range bound {
				if s == nil {
					continue
				}
				assert.Equal(t, shared.Width(), s.Width(), "attachment %s", s.Name())
				assert.Equal(t, shared.Height(), s.Height(), "attachment %s", s.Name())
			}
		case command.ClearRenderTarget:
			for _, s := range bound {
				if s == shared {
					assert.False(t, vps[i].Empty(), "shared surface cleared outside a camera rect")
				}
			}
			if c.Value == leftColor || c.Value == rightColor {
				cleared[c.Value] = vps[i]
			}
		case command.DrawRendererList:
			assert.Contains(t, []common.Rect{leftRect, rightRect}, vps[i])
		}
	}
	assert.Equal(t, map[common.Color]common.Rect{leftColor: leftRect, rightColor: rightRect}, cleared)
}

func TestOwnSurfaceFormatMismatchAddsOneBlit(t *testing.T) {
	ctx := NewRecordingContext(64, 32)
	p := newTestPipeline(t, texture.NewMemoryAllocator())
	mirror, err := texture.NewRenderTexture(texture.Desc{Name: "Mirror", Width: 32, Height: 32, Format: wgpu.TextureFormatBGRA8Unorm})
	require.NoError(t, err)
	cams := []camera.Camera{
		mainCamera("Main", 64, 32),
		camera.NewCamera(camera.WithName("Mirror"), camera.WithPixelRect(common.Rect{Width: 32, Height: 32}), camera.WithTargetTexture(mirror)),
	}

	require.NoError(t, p.Render(ctx, cams))

	exec, _ := p.LastFrame()
	assert.Equal(t, []string{
		"GBuffer Main", "Skybox Main", "Lighting Main", "Transparent Main",
		"GBuffer Mirror", "Skybox Mirror", "Lighting Mirror", "Transparent Mirror", "Blit Mirror",
	}, exec.Executed)
	assert.Empty(t, exec.Culled)

	subs := ctx.Submissions()
	require.Len(t, subs, 2)
	var frameBlits []command.Blit
	for _, c := range subs[0][0].Commands {
		if b, ok := c.(command.Blit); ok {
			frameBlits = append(frameBlits, b)
		}
	}
	require.Len(t, frameBlits, 1)
	assert.Same(t, mirror, frameBlits[0].Dst)
	assert.Equal(t, "Test Final Blit", subs[1][0].Name)
}

func TestLastFrameIsSafeDuringDispose(t *testing.T) {
	ctx := NewRecordingContext(16, 16)
	p, err := NewPipeline(WithAllocator(texture.NewMemoryAllocator()))
	require.NoError(t, err)
	require.NoError(t, p.Render(ctx, []camera.Camera{mainCamera("Main", 16, 16)}))

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for range 100 {
			p.LastFrame()
		}
	}()
	go func() {
		defer wg.Done()
		p.Dispose()
	}()
	wg.Wait()

	exec, stats := p.LastFrame()
	assert.Contains(t, exec.Executed, "GBuffer Main")
	assert.Positive(t, stats.Allocations)
}
