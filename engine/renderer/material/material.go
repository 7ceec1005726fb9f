package material

import "github.com/Carmen-Shannon/oxy-deferred/common"

// Material binds a Program to the engine. A Material with a nil program is valid: every draw
// issued with it is skipped by the backends.
type Material struct {
	name    string
	program *Program
}

// NewMaterial creates a material for program, which may be nil.
//
// Parameters:
//   - name: a debug label
//   - program: the program to draw with, or nil
//
// Returns:
//   - *Material: the new material
func NewMaterial(name string, program *Program) *Material {
	return &Material{name: name, program: program}
}

// Name returns the material's debug label.
func (m *Material) Name() string {
	if m == nil {
		return ""
	}
	return m.name
}

// Program returns the bound program or nil.
func (m *Material) Program() *Program {
	if m == nil {
		return nil
	}
	return m.program
}

// Drawable reports whether draws with this material do any work.
func (m *Material) Drawable() bool {
	return m != nil && m.program != nil
}

// PropertyBlock carries per-draw shader parameters.
type PropertyBlock struct {
	Vectors map[string][4]float32
	Floats  map[string]float32
}

// NewPropertyBlock creates an empty PropertyBlock.
func NewPropertyBlock() *PropertyBlock {
	return &PropertyBlock{
		Vectors: make(map[string][4]float32),
		Floats:  make(map[string]float32),
	}
}

// SetVector sets a vector parameter.
func (b *PropertyBlock) SetVector(name string, v [4]float32) {
	b.Vectors[name] = v
}

// SetColor sets a color parameter. Colors are stored as vectors.
func (b *PropertyBlock) SetColor(name string, c common.Color) {
	b.Vectors[name] = c
}

// SetFloat sets a scalar parameter.
func (b *PropertyBlock) SetFloat(name string, f float32) {
	b.Floats[name] = f
}
