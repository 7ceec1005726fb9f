package renderer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/framegraph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAssetAppliesDefaults(t *testing.T) {
	a, err := LoadAsset(strings.NewReader(`
hdr_format = "RGBA32Float"

[deferred]
lighting_programs = ["Custom/Lighting"]
`))
	require.NoError(t, err)

	assert.Equal(t, "Deferred", a.Name)
	assert.Equal(t, "RGBA32Float", a.HDRFormat)
	assert.Equal(t, framegraph.DefaultMaxIdleFrames, a.MaxIdleFrames)
	assert.Equal(t, "alt+j", a.ToggleKey)
	assert.Equal(t, []string{"Custom/Lighting"}, a.Deferred.LightingPrograms)
	assert.Empty(t, a.Deferred.SkyPrograms)
}

func TestLoadAssetRejectsUnknownKeys(t *testing.T) {
	_, err := LoadAsset(strings.NewReader(`hdr_fromat = "RGBA16Float"`))
	assert.ErrorContains(t, err, "pipeline asset")

	_, err = LoadAsset(strings.NewReader(`name = `))
	assert.Error(t, err)
}

func TestAssetEncodeRoundTrip(t *testing.T) {
	in := DefaultAsset()
	in.Name = "Editor"
	in.MaxIdleFrames = 7

	var buf bytes.Buffer
	require.NoError(t, in.Encode(&buf))
	out, err := LoadAsset(&buf)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadAssetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.toml")
	require.NoError(t, os.WriteFile(path, []byte("name = \"FromFile\"\ntoggle_key = \"ctrl+k\"\n"), 0o644))

	a, err := LoadAssetFile(path)
	require.NoError(t, err)
	assert.Equal(t, "FromFile", a.Name)
	assert.Equal(t, "ctrl+k", a.ToggleKey)

	_, err = LoadAssetFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestPipelineUsesAssetName(t *testing.T) {
	p, err := NewPipeline(WithAsset(Asset{Name: "Ignored"}), WithName("Explicit"))
	require.NoError(t, err)
	defer p.Dispose()

	assert.Equal(t, "Explicit", p.Name())
	assert.Equal(t, "Ignored", p.Asset().Name)
	assert.Equal(t, "RGBA16Float", p.Asset().HDRFormat)

	named, err := NewPipeline(WithAsset(Asset{Name: "FromAsset"}))
	require.NoError(t, err)
	defer named.Dispose()
	assert.Equal(t, "FromAsset", named.Name())
}

func TestLoadAssetYAML(t *testing.T) {
	a, err := LoadAssetYAML(strings.NewReader("name: Yaml\ndeferred:\n  sky_programs: [Custom/Sky]\n"))
	require.NoError(t, err)
	assert.Equal(t, "Yaml", a.Name)
	assert.Equal(t, []string{"Custom/Sky"}, a.Deferred.SkyPrograms)
	assert.Equal(t, "RGBA16Float", a.HDRFormat)

	_, err = LoadAssetYAML(strings.NewReader("nmae: typo\n"))
	assert.Error(t, err)

	empty, err := LoadAssetYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultAsset().Name, empty.Name)
}

func TestAssetYAMLFileRoundTrip(t *testing.T) {
	in := DefaultAsset()
	in.ToggleKey = "ctrl+shift+p"

	var buf bytes.Buffer
	require.NoError(t, in.EncodeYAML(&buf))
	path := filepath.Join(t.TempDir(), "pipeline.yml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	out, err := LoadAssetFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
