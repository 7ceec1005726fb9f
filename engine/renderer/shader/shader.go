package shader

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/cogentcore/webgpu/wgpu"
)

// Stage identifies a programmable pipeline stage.
type Stage string

const (
	StageVertex   Stage = "vertex"
	StageFragment Stage = "fragment"
)

var (
	ErrNoSource     = errors.New("program has no source")
	ErrNoEntryPoint = errors.New("program is missing an entry point")
)

// Variant is one keyword permutation of a program, pre-processed and reflected.
type Variant struct {
	// Key identifies the variant: the program name followed by its enabled keywords.
	Key string

	// Source is the processed WGSL.
	Source string

	VertexEntryPoint   string
	FragmentEntryPoint string

	// BindGroupLayouts holds the reflected layout descriptors keyed by group index.
	BindGroupLayouts map[int]wgpu.BindGroupLayoutDescriptor

	// BindingNames holds the declared variable name of each binding, keyed by group then binding.
	BindingNames map[int]map[int]string

	// VertexLayouts is empty for programs that synthesize vertices from vertex_index.
	VertexLayouts []wgpu.VertexBufferLayout
}

// GroupCount returns one past the highest bind group index the variant declares.
//
// Returns:
//   - int: the number of bind group slots the pipeline layout needs
func (v Variant) GroupCount() int {
	n := 0
	for g := range v.BindGroupLayouts {
		n = max(n, g+1)
	}
	return n
}

// compiler is the implementation of the Compiler interface.
type compiler struct {
	mu       *sync.Mutex
	pre      PreProcessor
	variants map[string]Variant
}

// Compiler turns programs into keyword variants and caches them.
type Compiler interface {
	// Compile returns the variant of program selected by the enabled keywords, building it on
	// first use.
	//
	// Parameters:
	//   - program: the program to compile
	//   - keywords: the currently enabled shader keywords
	//
	// Returns:
	//   - Variant: the compiled variant
	//   - error: an error if the program has no source or the source does not reflect
	Compile(program *material.Program, keywords map[string]bool) (Variant, error)

	// Len returns the number of cached variants.
	//
	// Returns:
	//   - int: the cache size
	Len() int
}

var _ Compiler = &compiler{}

// NewCompiler creates a Compiler with an empty variant cache.
//
// Returns:
//   - Compiler: the new compiler
func NewCompiler() Compiler {
	return &compiler{
		mu:       &sync.Mutex{},
		pre:      NewPreProcessor(),
		variants: make(map[string]Variant),
	}
}

func (c *compiler) Compile(program *material.Program, keywords map[string]bool) (Variant, error) {
	if program == nil || program.Source == "" {
		return Variant{}, ErrNoSource
	}
	key := VariantKey(program.Name, keywords)

	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.variants[key]; ok {
		return v, nil
	}

	src, err := c.pre.Process(program.Source, keywords)
	if err != nil {
		return Variant{}, fmt.Errorf("program %q: %w", program.Name, err)
	}

	v := Variant{
		Key:                key,
		Source:             src,
		VertexEntryPoint:   parseEntryPoint(src, StageVertex),
		FragmentEntryPoint: parseEntryPoint(src, StageFragment),
		VertexLayouts:      parseVertexLayouts(src),
	}
	if v.VertexEntryPoint == "" || v.FragmentEntryPoint == "" {
		return Variant{}, fmt.Errorf("program %q: %w", program.Name, ErrNoEntryPoint)
	}
	v.BindGroupLayouts, v.BindingNames = parseBindGroupLayouts(src, wgpu.ShaderStageVertex|wgpu.ShaderStageFragment)

	c.variants[key] = v
	return v, nil
}

func (c *compiler) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.variants)
}

// VariantKey builds the cache key for a program and keyword set. Disabled keywords do not
// contribute, so toggling an unrelated keyword off and on maps to the same variant.
//
// Parameters:
//   - name: the program name
//   - keywords: the keyword states
//
// Returns:
//   - string: the variant key, e.g. "Deferred Lighting|HDR_ON"
func VariantKey(name string, keywords map[string]bool) string {
	enabled := make([]string, 0, len(keywords))
	for k, on := range keywords {
		if on {
			enabled = append(enabled, k)
		}
	}
	slices.Sort(enabled)
	return strings.Join(append([]string{name}, enabled...), "|")
}
