// Package deferred builds the per-camera deferred shading passes: G-buffer, skybox, lighting
// and forward transparency, threaded through one running output texture.
package deferred

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// Shader property and keyword names shared with the lighting, sky and opaque programs.
const (
	PropMatrixV        = "_MatrixV"
	PropMatrixVP       = "_MatrixVP"
	PropMatrixP        = "_MatrixP"
	PropInvMatrixVP    = "_InvMatrixVP"
	PropCameraDepth    = "_CameraDepthTexture"
	PropGBuffer0       = "_CameraGBufferTexture0"
	PropGBuffer1       = "_CameraGBufferTexture1"
	PropGBuffer2       = "_CameraGBufferTexture2"
	PropLightDir       = "_LightDir"
	PropLightColor     = "_LightColor"
	PropLightAsQuad    = "_LightAsQuad"
	KeywordHDR         = "HDR_ON"
	KeywordDirectional = "DIRECTIONAL"
	KeywordPoint       = "POINT"
)

// Settings are the tunables a pipeline asset carries for the deferred renderer.
type Settings struct {
	// LightingPrograms are the deferred lighting program names, tried in order.
	LightingPrograms []string `toml:"lighting_programs" yaml:"lighting_programs"`

	// SkyPrograms are the sky program names, tried in order.
	SkyPrograms []string `toml:"sky_programs" yaml:"sky_programs"`

	// WorkingFormat is the HDR color format lighting accumulates into.
	WorkingFormat string `toml:"working_format" yaml:"working_format"`

	// DiffuseFormat, SpecularFormat and NormalsFormat are the G-buffer color formats.
	DiffuseFormat  string `toml:"diffuse_format" yaml:"diffuse_format"`
	SpecularFormat string `toml:"specular_format" yaml:"specular_format"`
	NormalsFormat  string `toml:"normals_format" yaml:"normals_format"`
}

// DefaultSettings returns the settings used when an asset leaves fields empty.
func DefaultSettings() Settings {
	return Settings{
		LightingPrograms: []string{"Hidden/Internal-DeferredShading", "Hidden/Graphics-DeferredShading"},
		SkyPrograms:      []string{"Skybox/Procedural", "Hidden/Graphics-Skybox"},
		WorkingFormat:    "RGBA16Float",
		DiffuseFormat:    "RGBA8Unorm",
		SpecularFormat:   "RGBA8Unorm",
		NormalsFormat:    "RGB10A2Unorm",
	}
}

// Config is the renderer's owned, read-only state. Build it once per pipeline with NewConfig.
type Config struct {
	WorkingFormat  wgpu.TextureFormat
	DiffuseFormat  wgpu.TextureFormat
	SpecularFormat wgpu.TextureFormat
	NormalsFormat  wgpu.TextureFormat
	DepthFormat    wgpu.TextureFormat
	DepthBits      texture.DepthBits

	// Lighting and Sky may hold a nil program; their draws are then skipped.
	Lighting *material.Material
	Sky      *material.Material

	FullScreen *command.Mesh
}

// NewConfig resolves programs through lib and parses the formats in s. Empty fields fall back
// to DefaultSettings.
//
// Parameters:
//   - lib: the program lookup collaborator
//   - s: the asset settings
//
// Returns:
//   - Config: the config
//   - error: an error if a format name is unknown
func NewConfig(lib material.Library, s Settings) (Config, error) {
	def := DefaultSettings()
	if len(s.LightingPrograms) == 0 {
		s.LightingPrograms = def.LightingPrograms
	}
	if len(s.SkyPrograms) == 0 {
		s.SkyPrograms = def.SkyPrograms
	}

	cfg := Config{
		DepthFormat: wgpu.TextureFormatDepth24Plus,
		DepthBits:   texture.Depth24,
		Lighting:    material.NewMaterial("Deferred Lighting", material.FindFirst(lib, s.LightingPrograms...)),
		Sky:         material.NewMaterial("Skybox", material.FindFirst(lib, s.SkyPrograms...)),
		FullScreen:  command.FullScreenTriangle(),
	}
	formats := []struct {
		dst  *wgpu.TextureFormat
		name string
		def  string
	}{
		{&cfg.WorkingFormat, s.WorkingFormat, def.WorkingFormat},
		{&cfg.DiffuseFormat, s.DiffuseFormat, def.DiffuseFormat},
		{&cfg.SpecularFormat, s.SpecularFormat, def.SpecularFormat},
		{&cfg.NormalsFormat, s.NormalsFormat, def.NormalsFormat},
	}
	for _, f := range formats {
		name := f.name
		if name == "" {
			name = f.def
		}
		parsed, err := texture.ParseFormat(name)
		if err != nil {
			return Config{}, fmt.Errorf("deferred: %w", err)
		}
		if texture.IsDepthFormat(parsed) {
			return Config{}, fmt.Errorf("deferred: %w: %s is a depth format", texture.ErrInvalidDescriptor, name)
		}
		*f.dst = parsed
	}
	return cfg, nil
}
