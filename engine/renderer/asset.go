package renderer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/framegraph"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Asset is the pipeline asset: the serialized settings a Pipeline is built from. Assets are
// TOML documents; files ending in .yaml or .yml are read as YAML with the same keys.
//
//	name = "Deferred"
//	hdr_format = "RGBA16Float"
//	max_idle_frames = 3
//	toggle_key = "alt+j"
//
//	[deferred]
//	lighting_programs = ["Hidden/Internal-DeferredShading", "Hidden/Graphics-DeferredShading"]
//	working_format = "RGBA16Float"
type Asset struct {
	Name string `toml:"name" yaml:"name"`

	// HDRFormat is the format of the shared surface cameras without a target render into.
	HDRFormat string `toml:"hdr_format" yaml:"hdr_format"`

	// MaxIdleFrames is how many frames a pooled texture may stay unused before it is destroyed.
	MaxIdleFrames int `toml:"max_idle_frames" yaml:"max_idle_frames"`

	// ToggleKey is the key chord that installs and uninstalls the pipeline, e.g. "alt+j".
	ToggleKey string `toml:"toggle_key" yaml:"toggle_key"`

	Deferred deferred.Settings `toml:"deferred" yaml:"deferred"`
}

// DefaultAsset returns the asset used when none is given.
//
// Returns:
//   - Asset: the default asset
func DefaultAsset() Asset {
	return Asset{
		Name:          "Deferred",
		HDRFormat:     "RGBA16Float",
		MaxIdleFrames: framegraph.DefaultMaxIdleFrames,
		ToggleKey:     "alt+j",
		Deferred:      deferred.DefaultSettings(),
	}
}

// WithDefaults returns a with empty fields filled from DefaultAsset. Deferred settings are filled by
// deferred.NewConfig.
func (a Asset) WithDefaults() Asset {
	def := DefaultAsset()
	if a.Name == "" {
		a.Name = def.Name
	}
	if a.HDRFormat == "" {
		a.HDRFormat = def.HDRFormat
	}
	if a.MaxIdleFrames <= 0 {
		a.MaxIdleFrames = def.MaxIdleFrames
	}
	if a.ToggleKey == "" {
		a.ToggleKey = def.ToggleKey
	}
	return a
}

// LoadAsset decodes a TOML pipeline asset. Unknown keys are rejected.
//
// Parameters:
//   - r: the TOML document
//
// Returns:
//   - Asset: the decoded asset with defaults applied
//   - error: an error if the document is malformed or has unknown keys
func LoadAsset(r io.Reader) (Asset, error) {
	var a Asset
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&a); err != nil {
		return Asset{}, fmt.Errorf("pipeline asset: %w", err)
	}
	return a.WithDefaults(), nil
}

// LoadAssetYAML decodes a YAML pipeline asset. Unknown keys are rejected.
//
// Parameters:
//   - r: the YAML document
//
// Returns:
//   - Asset: the decoded asset with defaults applied
//   - error: an error if the document is malformed or has unknown keys
func LoadAssetYAML(r io.Reader) (Asset, error) {
	var a Asset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&a); err != nil && !errors.Is(err, io.EOF) {
		return Asset{}, fmt.Errorf("pipeline asset: %w", err)
	}
	return a.WithDefaults(), nil
}

// LoadAssetFile decodes the pipeline asset at path, choosing YAML or TOML by extension.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Asset: the decoded asset with defaults applied
//   - error: an error if the file cannot be read or decoded
func LoadAssetFile(path string) (Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Asset{}, fmt.Errorf("pipeline asset: %w", err)
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadAssetYAML(f)
	}
	return LoadAsset(f)
}

// Encode writes a as TOML.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - error: an error if encoding or writing fails
func (a Asset) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(a)
}

// EncodeYAML writes a as YAML.
//
// Parameters:
//   - w: the destination
//
// Returns:
//   - error: an error if encoding or writing fails
func (a Asset) EncodeYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(a); err != nil {
		return err
	}
	return enc.Close()
}
