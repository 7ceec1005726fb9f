package framegraph

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passData struct {
	In  TextureHandle
	Out TextureHandle
}

func colorDesc(name string) texture.Desc {
	return texture.Desc{Name: name, Width: 64, Height: 32, Format: wgpu.TextureFormatRGBA16Float}
}

func depthDesc(name string) texture.Desc {
	return texture.Desc{Name: name, Width: 64, Height: 32, Format: wgpu.TextureFormatDepth24Plus, DepthBits: texture.Depth24}
}

func newTestGraph(t *testing.T, options ...GraphBuilderOption) (*Graph, *texture.MemoryAllocator) {
	t.Helper()
	alloc := texture.NewMemoryAllocator()
	g := NewGraph(append([]GraphBuilderOption{WithAllocator(alloc)}, options...)...)
	g.Begin(Params{FrameIndex: 1})
	return g, alloc
}

func importTarget(t *testing.T, g *Graph) TextureHandle {
	t.Helper()
	rt, err := texture.NewRenderTexture(texture.Desc{Name: "target", Width: 64, Height: 32, Format: wgpu.TextureFormatBGRA8Unorm})
	require.NoError(t, err)
	return g.ImportTexture(rt)
}

// writePass records a pass writing h, returning the new version.
func writePass(t *testing.T, g *Graph, name string, h TextureHandle, pinned bool, ran *[]string) TextureHandle {
	t.Helper()
	data, err := AddRenderPass(g, name, func(b *PassBuilder[passData], d *passData) {
		d.Out = b.WriteTexture(h)
		b.AllowPassCulling(!pinned)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error {
			*ran = append(*ran, ctx.PassName())
			return nil
		})
	})
	require.NoError(t, err)
	return data.Out
}

func TestCreateThenResolveMatchesDescriptor(t *testing.T) {
	g, _ := newTestGraph(t)
	h, err := g.CreateTexture(colorDesc("color"))
	require.NoError(t, err)

	var got texture.Surface
	_, err = AddRenderPass(g, "write", func(b *PassBuilder[passData], d *passData) {
		d.Out = b.WriteTexture(h)
		b.AllowPassCulling(false)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error {
			s, err := ctx.Texture(d.Out)
			got = s
			return err
		})
	})
	require.NoError(t, err)
	require.NoError(t, g.Execute())

	require.NotNil(t, got)
	assert.Equal(t, 64, got.Width())
	assert.Equal(t, 32, got.Height())
	assert.Equal(t, wgpu.TextureFormatRGBA16Float, got.Format())
}

func TestCreateTextureRejectsInvalidDescriptors(t *testing.T) {
	g, _ := newTestGraph(t)

	bad := []texture.Desc{
		{Name: "zero", Width: 0, Height: 4, Format: wgpu.TextureFormatRGBA8Unorm},
		{Name: "negative", Width: 4, Height: -1, Format: wgpu.TextureFormatRGBA8Unorm},
		{Name: "format", Width: 4, Height: 4, Format: wgpu.TextureFormatUndefined},
		{Name: "samples", Width: 4, Height: 4, Format: wgpu.TextureFormatRGBA8Unorm, MSAASamples: 3},
	}
	for _, d := range bad {
		_, err := g.CreateTexture(d)
		assert.ErrorIs(t, err, ErrInvalidDescriptor, d.Name)
	}
}

func TestUnreadTransientPassIsCulled(t *testing.T) {
	g, _ := newTestGraph(t)
	var ran []string

	tmp, err := g.CreateTexture(colorDesc("unused"))
	require.NoError(t, err)
	pinned, err := g.CreateTexture(colorDesc("pinned"))
	require.NoError(t, err)
	target := importTarget(t, g)

	writePass(t, g, "unused", tmp, false, &ran)
	writePass(t, g, "pinned", pinned, true, &ran)
	writePass(t, g, "present", target, false, &ran)

	require.NoError(t, g.Execute())
	assert.Equal(t, []string{"pinned", "present"}, ran)
	assert.Equal(t, []string{"pinned", "present"}, g.LastExecution().Executed)
	assert.Equal(t, []string{"unused"}, g.LastExecution().Culled)
}

func TestProducerOfConsumedVersionIsKept(t *testing.T) {
	g, _ := newTestGraph(t)
	var ran []string

	tmp, err := g.CreateTexture(colorDesc("gbuffer"))
	require.NoError(t, err)
	target := importTarget(t, g)

	tmp = writePass(t, g, "produce", tmp, false, &ran)
	orphan, err := g.CreateTexture(colorDesc("orphan"))
	require.NoError(t, err)
	writePass(t, g, "orphan", orphan, false, &ran)

	_, err = AddRenderPass(g, "consume", func(b *PassBuilder[passData], d *passData) {
		d.In = b.ReadTexture(tmp)
		d.Out = b.ReadWriteTexture(target)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error {
			ran = append(ran, ctx.PassName())
			return nil
		})
	})
	require.NoError(t, err)

	require.NoError(t, g.Execute())
	assert.Equal(t, []string{"produce", "consume"}, ran)
	assert.Equal(t, []string{"orphan"}, g.LastExecution().Culled)
}

func TestCullingFollowsReadersTransitively(t *testing.T) {
	g, alloc := newTestGraph(t)
	var ran []string

	first, err := g.CreateTexture(colorDesc("first"))
	require.NoError(t, err)
	second, err := g.CreateTexture(colorDesc("second"))
	require.NoError(t, err)
	target := importTarget(t, g)

	first = writePass(t, g, "produce", first, false, &ran)
	_, err = AddRenderPass(g, "refine", func(b *PassBuilder[passData], d *passData) {
		d.In = b.ReadTexture(first)
		d.Out = b.WriteTexture(second)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error {
			ran = append(ran, ctx.PassName())
			return nil
		})
	})
	require.NoError(t, err)
	writePass(t, g, "present", target, false, &ran)

	require.NoError(t, g.Execute())
	assert.Equal(t, []string{"present"}, ran)
	assert.Equal(t, []string{"produce", "refine"}, g.LastExecution().Culled)
	assert.Zero(t, alloc.Allocated())
}

func TestResolveOutsideDeclaringPass(t *testing.T) {
	g, _ := newTestGraph(t)
	declared, err := g.CreateTexture(colorDesc("declared"))
	require.NoError(t, err)
	other, err := g.CreateTexture(colorDesc("other"))
	require.NoError(t, err)

	var saved *RenderContext
	_, err = AddRenderPass(g, "declares", func(b *PassBuilder[passData], d *passData) {
		d.Out = b.WriteTexture(declared)
		b.AllowPassCulling(false)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error {
			saved = ctx
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, g.Execute())

	_, err = g.Resolve(declared)
	assert.ErrorIs(t, err, ErrUnresolvedHandle)
	require.NotNil(t, saved)
	_, err = saved.Texture(declared)
	assert.ErrorIs(t, err, ErrUnresolvedHandle)

	g.EndFrame()
	g.Begin(Params{FrameIndex: 2})
	declared, err = g.CreateTexture(colorDesc("declared"))
	require.NoError(t, err)
	other, err = g.CreateTexture(colorDesc("other"))
	require.NoError(t, err)
	_, err = AddRenderPass(g, "undeclared", func(b *PassBuilder[passData], d *passData) {
		d.Out = b.WriteTexture(declared)
		d.In = other
		b.AllowPassCulling(false)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error {
			_, err := ctx.Texture(d.In)
			return err
		})
	})
	require.NoError(t, err)
	err = g.Execute()
	assert.ErrorIs(t, err, ErrUnresolvedHandle)
}

func TestStaleWriteFailsTheFrame(t *testing.T) {
	g, _ := newTestGraph(t)
	var ran []string
	h, err := g.CreateTexture(colorDesc("accum"))
	require.NoError(t, err)

	writePass(t, g, "first", h, true, &ran)
	_, err = AddRenderPass(g, "stale", func(b *PassBuilder[passData], d *passData) {
		d.Out = b.WriteTexture(h)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return nil })
	})
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.Equal(t, 1, g.PassCount())

	err = g.Execute()
	assert.ErrorIs(t, err, ErrStaleHandle)
	assert.Empty(t, ran)
}

func TestDepthConflicts(t *testing.T) {
	g, _ := newTestGraph(t)
	depth, err := g.CreateTexture(depthDesc("depth"))
	require.NoError(t, err)

	_, err = AddRenderPass(g, "write-then-read", func(b *PassBuilder[passData], d *passData) {
		b.UseDepthBuffer(depth, DepthAccessWrite)
		b.ReadTexture(depth)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return nil })
	})
	assert.ErrorIs(t, err, ErrDepthConflict)

	g.EndFrame()
	g.Begin(Params{FrameIndex: 2})
	depth, err = g.CreateTexture(depthDesc("depth"))
	require.NoError(t, err)
	_, err = AddRenderPass(g, "bound-twice", func(b *PassBuilder[passData], d *passData) {
		b.UseDepthBuffer(depth, DepthAccessRead)
		b.UseDepthBuffer(depth, DepthAccessRead)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return nil })
	})
	assert.ErrorIs(t, err, ErrDepthConflict)

	g.EndFrame()
	g.Begin(Params{FrameIndex: 3})
	color, err := g.CreateTexture(colorDesc("color"))
	require.NoError(t, err)
	_, err = AddRenderPass(g, "not-depth", func(b *PassBuilder[passData], d *passData) {
		b.UseDepthBuffer(color, DepthAccessWrite)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return nil })
	})
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestSharedDepthReadIsAllowed(t *testing.T) {
	g, _ := newTestGraph(t)
	depth, err := g.CreateTexture(depthDesc("depth"))
	require.NoError(t, err)
	target := importTarget(t, g)

	_, err = AddRenderPass(g, "depth-prepass", func(b *PassBuilder[passData], d *passData) {
		depth = b.UseDepthBuffer(depth, DepthAccessWrite)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return nil })
	})
	require.NoError(t, err)
	_, err = AddRenderPass(g, "depth-test", func(b *PassBuilder[passData], d *passData) {
		b.UseDepthBuffer(depth, DepthAccessRead)
		b.ReadWriteTexture(target)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return nil })
	})
	require.NoError(t, err)

	require.NoError(t, g.Execute())
	assert.Equal(t, []string{"depth-prepass", "depth-test"}, g.LastExecution().Executed)
}

func TestPreviousFrameHandleIsInvalid(t *testing.T) {
	g, _ := newTestGraph(t)
	old, err := g.CreateTexture(colorDesc("old"))
	require.NoError(t, err)
	g.EndFrame()

	g.Begin(Params{FrameIndex: 2})
	_, err = AddRenderPass(g, "uses-old", func(b *PassBuilder[passData], d *passData) {
		b.ReadTexture(old)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return nil })
	})
	assert.ErrorIs(t, err, ErrInvalidHandle)

	_, err = g.Desc(TextureHandle{})
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestMissingRenderFuncAndClosedFrame(t *testing.T) {
	g, _ := newTestGraph(t)
	_, err := AddRenderPass(g, "empty", func(b *PassBuilder[passData], d *passData) {})
	assert.ErrorIs(t, err, ErrNoRenderFunc)

	g.EndFrame()
	_, err = AddRenderPass(g, "late", func(b *PassBuilder[passData], d *passData) {})
	assert.ErrorIs(t, err, ErrFrameNotBegun)
	assert.ErrorIs(t, g.Execute(), ErrFrameNotBegun)
	assert.False(t, g.ImportTexture(nil).IsValid())
}

func TestPassScopedTransient(t *testing.T) {
	g, _ := newTestGraph(t)
	var scoped TextureHandle
	_, err := AddRenderPass(g, "owner", func(b *PassBuilder[passData], d *passData) {
		scoped = b.CreateTransientTexture(colorDesc("scratch"))
		b.AllowPassCulling(false)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return nil })
	})
	require.NoError(t, err)

	_, err = AddRenderPass(g, "intruder", func(b *PassBuilder[passData], d *passData) {
		b.ReadTexture(scoped)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return nil })
	})
	assert.ErrorIs(t, err, ErrInvalidHandle)
}

func TestPoolReusesReleasedSurface(t *testing.T) {
	g, alloc := newTestGraph(t)
	a, err := g.CreateTexture(colorDesc("a"))
	require.NoError(t, err)
	b, err := g.CreateTexture(colorDesc("b"))
	require.NoError(t, err)

	var surfaces []texture.Surface
	for _, h := range []TextureHandle{a, b} {
		_, err := AddRenderPass(g, h.String(), func(pb *PassBuilder[passData], d *passData) {
			d.Out = pb.WriteTexture(h)
			pb.AllowPassCulling(false)
			pb.SetRenderFunc(func(d *passData, ctx *RenderContext) error {
				s, err := ctx.Texture(d.Out)
				surfaces = append(surfaces, s)
				return err
			})
		})
		require.NoError(t, err)
	}
	require.NoError(t, g.Execute())

	require.Len(t, surfaces, 2)
	assert.Same(t, surfaces[0], surfaces[1])
	stats := g.Stats()
	assert.Equal(t, 1, stats.Allocations)
	assert.Equal(t, 1, stats.Reuses)
	assert.Equal(t, 1, stats.PeakLive)
	assert.Equal(t, 1, alloc.Allocated())
}

func TestReuseLogsLogicalAndPhysicalNames(t *testing.T) {
	var logs bytes.Buffer
	common.SetLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { common.SetLogger(nil) })

	g, _ := newTestGraph(t)
	var ran []string
	left, err := g.CreateTexture(colorDesc("GBuffer Diffuse L"))
	require.NoError(t, err)
	right, err := g.CreateTexture(colorDesc("GBuffer Diffuse R"))
	require.NoError(t, err)
	writePass(t, g, "L", left, true, &ran)
	writePass(t, g, "R", right, true, &ran)
	require.NoError(t, g.Execute())

	desc, err := g.Desc(right)
	require.NoError(t, err)
	assert.Equal(t, "GBuffer Diffuse R", desc.Name)
	assert.Contains(t, logs.String(), `msg="framegraph: reused surface" texture="GBuffer Diffuse R" surface="GBuffer Diffuse L"`)
}

func TestIdleSurfacesAreReclaimed(t *testing.T) {
	g, alloc := newTestGraph(t, WithMaxIdleFrames(1))
	var ran []string
	h, err := g.CreateTexture(colorDesc("once"))
	require.NoError(t, err)
	writePass(t, g, "once", h, true, &ran)
	require.NoError(t, g.Execute())
	g.EndFrame()
	assert.Equal(t, 1, alloc.Live())
	assert.Equal(t, 1, g.Stats().Pooled)

	g.Begin(Params{FrameIndex: 2})
	g.EndFrame()
	assert.Equal(t, 0, alloc.Live())
	assert.Equal(t, 1, g.Stats().Destroyed)
	assert.Equal(t, 0, g.Stats().Pooled)
}

func TestImportedSurfacesAreNeverReleased(t *testing.T) {
	g, _ := newTestGraph(t)
	rt, err := texture.NewRenderTexture(texture.Desc{Name: "camera", Width: 8, Height: 8, Format: wgpu.TextureFormatRGBA8Unorm})
	require.NoError(t, err)

	var ran []string
	writePass(t, g, "draw", g.ImportTexture(rt), false, &ran)
	require.NoError(t, g.Execute())
	g.Cleanup()

	assert.False(t, rt.Released())
	assert.Equal(t, []string{"draw"}, ran)
}

func TestClearBufferRecordsClearOnFirstUse(t *testing.T) {
	cmd := command.NewBuffer("frame")
	g := NewGraph()
	g.Begin(Params{Cmd: cmd, FrameIndex: 7})

	desc := colorDesc("cleared")
	desc.ClearBuffer = true
	desc.ClearColor = common.Color{0, 0, 1, 1}
	h, err := g.CreateTexture(desc)
	require.NoError(t, err)

	_, err = AddRenderPass(g, "draw", func(b *PassBuilder[passData], d *passData) {
		d.Out = b.WriteTexture(h)
		b.AllowPassCulling(false)
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error {
			assert.Equal(t, uint64(7), ctx.FrameIndex)
			ctx.Cmd.EnableShaderKeyword("DRAWN")
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, g.Execute())

	cmds := cmd.Commands()
	require.Len(t, cmds, 3)
	assert.IsType(t, command.SetRenderTarget{}, cmds[0])
	assert.Equal(t, command.ClearRenderTarget{Color: true, Value: common.Color{0, 0, 1, 1}}, cmds[1])
	assert.IsType(t, command.SetKeyword{}, cmds[2])
}

func TestRenderFuncErrorAbortsFrame(t *testing.T) {
	g, _ := newTestGraph(t)
	boom := errors.New("boom")
	target := importTarget(t, g)

	var ran []string
	_, err := AddRenderPass(g, "fails", func(b *PassBuilder[passData], d *passData) {
		d.Out = b.ReadWriteTexture(target)
		target = d.Out
		b.SetRenderFunc(func(d *passData, ctx *RenderContext) error { return boom })
	})
	require.NoError(t, err)
	writePass(t, g, "after", target, false, &ran)

	err = g.Execute()
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, ran)

	g.EndFrame()
	g.Begin(Params{FrameIndex: 2})
	h := importTarget(t, g)
	writePass(t, g, "next", h, false, &ran)
	assert.NoError(t, g.Execute())
	assert.Equal(t, []string{"next"}, ran)
}

type countingSource struct{ calls int }

func (s *countingSource) Renderers(command.RendererListDesc) []command.Drawable {
	s.calls++
	return nil
}

func TestRendererListResolvedAtExecution(t *testing.T) {
	g, _ := newTestGraph(t)
	src := &countingSource{}
	target := importTarget(t, g)

	type listData struct {
		List RendererListHandle
	}
	_, err := AddRenderPass(g, "transparent", func(b *PassBuilder[listData], d *listData) {
		b.ReadWriteTexture(target)
		d.List = b.UseRendererList(command.RendererListDesc{Tags: []command.ShaderTag{command.TagForwardBase}, Source: src})
		b.SetRenderFunc(func(d *listData, ctx *RenderContext) error {
			list, err := ctx.RendererList(d.List)
			if err != nil {
				return err
			}
			ctx.Cmd.DrawRendererList(list)
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, 0, src.calls)

	require.NoError(t, g.Execute())
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, 1, command.Count[command.DrawRendererList](g.Cmd().Commands()))
}
