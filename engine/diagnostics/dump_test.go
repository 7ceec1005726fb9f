package diagnostics

import (
	"errors"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/camera"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayers(t *testing.T) {
	assert.Equal(t, "all", Layers(camera.AllLayers))
	assert.Equal(t, "none", Layers(0))
	assert.Equal(t, "0,3,31", Layers(1|1<<3|1<<31))
}

func TestDumpCameras(t *testing.T) {
	rt, err := texture.NewRenderTexture(texture.Desc{Name: "Mirror", Width: 256, Height: 128, Format: wgpu.TextureFormatRGBA8Unorm})
	require.NoError(t, err)
	cams := []camera.Camera{
		camera.NewCamera(camera.WithName("Main"), camera.WithDepth(-1)),
		nil,
		camera.NewCamera(camera.WithName("Reflection"), camera.WithTargetTexture(rt), camera.WithCullingMask(1<<2|1<<4), camera.WithDepth(2.5)),
	}

	var sb strings.Builder
	require.NoError(t, DumpCameras(&sb, cams))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, []string{"#", "CAMERA", "TARGET", "DEPTH", "MASK", "LAYERS"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"0", "Main", "display", "-1", "0xFFFFFFFF", "all"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"1", "<nil>", "-", "-", "-", "-"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"2", "Reflection", "Mirror", "256x128", "RGBA8Unorm", "2.5", "0x00000014", "2,4"}, strings.Fields(lines[3]))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed") }

func TestDumpCamerasReportsWriteError(t *testing.T) {
	err := DumpCameras(failingWriter{}, []camera.Camera{camera.NewCamera(camera.WithPixelRect(common.Rect{Width: 1, Height: 1}))})
	assert.Error(t, err)
}
