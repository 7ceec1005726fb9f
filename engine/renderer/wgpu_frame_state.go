package renderer

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/deferred"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	ErrNoRenderTarget    = errors.New("draw without a bound render target")
	ErrMissingTexture    = errors.New("program samples a texture that is not set")
	ErrUnsupportedLayout = errors.New("program declares bindings the backend cannot provide")
)

// Bind group layout every program follows.
const (
	drawGroup     = 0
	drawBinding   = 0
	textureGroup  = 1
	maxGroupCount = 2
)

// frameState is the replay state a GPU backend carries across the commands of a frame: bound
// targets, global textures and matrices, and shader keywords.
type frameState struct {
	colors   []texture.Surface
	depth    texture.Surface
	// viewport is meaningful only while hasViewport is set; otherwise the whole target is used
	viewport    common.Rect
	hasViewport bool
	textures map[string]texture.Surface
	matrices map[string][16]float32
	keywords map[string]bool
}

func newFrameState() *frameState {
	s := &frameState{}
	s.reset()
	return s
}

func (s *frameState) reset() {
	s.colors = nil
	s.depth = nil
	s.viewport, s.hasViewport = common.Rect{}, false
	s.textures = make(map[string]texture.Surface)
	s.matrices = make(map[string][16]float32)
	s.keywords = make(map[string]bool)
}

// apply updates the state for a state-setting command. It reports false for commands that
// produce GPU work.
func (s *frameState) apply(c command.Command) bool {
	switch c := c.(type) {
	case command.SetRenderTarget:
		s.colors = slices.Clone(c.Colors)
		s.depth = c.Depth
		s.viewport, s.hasViewport = common.Rect{}, false
	case command.SetViewport:
		s.viewport, s.hasViewport = c.Rect, true
	case command.SetGlobalTexture:
		s.textures[c.Name] = c.Surface
	case command.SetGlobalMatrix:
		s.matrices[c.Name] = c.Matrix
	case command.SetKeyword:
		s.keywords[c.Name] = c.Enabled
	default:
		return false
	}
	return true
}

// keywordSet returns a snapshot of the keywords for variant selection.
func (s *frameState) keywordSet() map[string]bool {
	return maps.Clone(s.keywords)
}

// targetSize returns the size of the first bound attachment.
func (s *frameState) targetSize() (int, int, error) {
	switch {
	case len(s.colors) > 0 && s.colors[0] != nil:
		return s.colors[0].Width(), s.colors[0].Height(), nil
	case s.depth != nil:
		return s.depth.Width(), s.depth.Height(), nil
	}
	return 0, 0, ErrNoRenderTarget
}

// region returns the viewport clipped to the bound target, and whether it covers the whole
// target. An empty region means draws and clears do nothing.
func (s *frameState) region() (common.Rect, bool, error) {
	w, h, err := s.targetSize()
	if err != nil {
		return common.Rect{}, false, err
	}
	whole := common.Rect{Width: w, Height: h}
	if !s.hasViewport {
		return whole, true, nil
	}
	r := s.viewport.Intersect(whole)
	return r, r == whole, nil
}

// uniforms assembles the per-draw uniform block from the global matrices, the property block
// and the bound target.
//
// Parameters:
//   - model: the object-to-world matrix of the draw
//   - props: per-draw properties, may be nil
//
// Returns:
//   - shader.DrawUniforms: the uniform block
func (s *frameState) uniforms(model [16]float32, props *material.PropertyBlock) shader.DrawUniforms {
	u := shader.DrawUniforms{
		Model:       model,
		View:        common.IdentityMatrix(),
		ViewProj:    common.IdentityMatrix(),
		InvViewProj: common.IdentityMatrix(),
	}
	if m, ok := s.matrices[deferred.PropMatrixV]; ok {
		u.View = m
	}
	if m, ok := s.matrices[deferred.PropMatrixVP]; ok {
		u.ViewProj = m
	}
	if m, ok := s.matrices[deferred.PropInvMatrixVP]; ok {
		u.InvViewProj = m
	}
	if props != nil {
		u.LightDir = props.Vectors[deferred.PropLightDir]
		u.LightColor = props.Vectors[deferred.PropLightColor]
		u.Params[0] = props.Floats[deferred.PropLightAsQuad]
	}
	if s.keywords[deferred.KeywordHDR] {
		u.Params[1] = 1
	}
	if w, h, err := s.targetSize(); err == nil {
		u.Params[2], u.Params[3] = float32(w), float32(h)
	}
	return u
}

// textureBindings resolves the texture bindings of a variant's texture group to global
// textures. The i-th texture binding takes program.Textures[i] when the program lists names,
// otherwise the global named like the WGSL variable.
//
// Parameters:
//   - variant: the compiled variant
//   - program: the program the variant was compiled from
//
// Returns:
//   - map[uint32]texture.Surface: surfaces keyed by binding index
//   - error: ErrMissingTexture if a global is unset, ErrUnsupportedLayout for bindings the
//     backend cannot provide
func (s *frameState) textureBindings(variant shader.Variant, program *material.Program) (map[uint32]texture.Surface, error) {
	if variant.GroupCount() > maxGroupCount {
		return nil, fmt.Errorf("%w: %d bind groups", ErrUnsupportedLayout, variant.GroupCount())
	}
	for _, e := range variant.BindGroupLayouts[drawGroup].Entries {
		if e.Binding != drawBinding || e.Buffer.Type != wgpu.BufferBindingTypeUniform {
			return nil, fmt.Errorf("%w: group %d binding %d", ErrUnsupportedLayout, drawGroup, e.Binding)
		}
	}

	out := make(map[uint32]texture.Surface)
	next := 0
	for _, e := range variant.BindGroupLayouts[textureGroup].Entries {
		switch {
		case e.Sampler.Type != wgpu.SamplerBindingTypeUndefined:
			continue
		case e.Texture.SampleType == wgpu.TextureSampleTypeUndefined:
			return nil, fmt.Errorf("%w: group %d binding %d", ErrUnsupportedLayout, textureGroup, e.Binding)
		}
		name := variant.BindingNames[textureGroup][int(e.Binding)]
		if program != nil && next < len(program.Textures) {
			name = program.Textures[next]
		}
		next++
		surf, ok := s.textures[name]
		if !ok || surf == nil {
			return nil, fmt.Errorf("%w: %q", ErrMissingTexture, name)
		}
		out[e.Binding] = surf
	}
	return out, nil
}
