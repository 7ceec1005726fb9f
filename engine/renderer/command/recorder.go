package command

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

type recorder struct {
	name     string
	commands []Command
}

var _ Buffer = &recorder{}

// NewBuffer creates an empty recording Buffer.
//
// Parameters:
//   - name: a debug label
//
// Returns:
//   - Buffer: the new buffer
func NewBuffer(name string) Buffer {
	return &recorder{name: name}
}

func (r *recorder) Name() string {
	return r.name
}

func (r *recorder) SetRenderTarget(colors []texture.Surface, depth texture.Surface) {
	r.commands = append(r.commands, SetRenderTarget{Colors: slices.Clone(colors), Depth: depth})
}

func (r *recorder) SetViewport(rect common.Rect) {
	r.commands = append(r.commands, SetViewport{Rect: rect})
}

func (r *recorder) ClearRenderTarget(depth, color bool, value common.Color) {
	r.commands = append(r.commands, ClearRenderTarget{Depth: depth, Color: color, Value: value})
}

func (r *recorder) SetGlobalTexture(name string, s texture.Surface) {
	r.commands = append(r.commands, SetGlobalTexture{Name: name, Surface: s})
}

func (r *recorder) SetGlobalMatrix(name string, m [16]float32) {
	r.commands = append(r.commands, SetGlobalMatrix{Name: name, Matrix: m})
}

func (r *recorder) EnableShaderKeyword(name string) {
	r.commands = append(r.commands, SetKeyword{Name: name, Enabled: true})
}

func (r *recorder) DisableShaderKeyword(name string) {
	r.commands = append(r.commands, SetKeyword{Name: name, Enabled: false})
}

func (r *recorder) DrawMesh(mesh *Mesh, matrix [16]float32, mat *material.Material, pass int, props *material.PropertyBlock) {
	if mesh == nil || !mat.Drawable() {
		return
	}
	r.commands = append(r.commands, DrawMesh{Mesh: mesh, Matrix: matrix, Material: mat, Pass: pass, Properties: props})
}

func (r *recorder) DrawRendererList(list RendererList) {
	r.commands = append(r.commands, DrawRendererList{List: list})
}

func (r *recorder) Blit(src, dst texture.Surface) {
	r.commands = append(r.commands, Blit{Src: src, Dst: dst})
}

func (r *recorder) Append(other Buffer) {
	if other == nil {
		return
	}
	r.commands = append(r.commands, other.Commands()...)
}

func (r *recorder) Commands() []Command {
	return r.commands
}

func (r *recorder) Len() int {
	return len(r.commands)
}

func (r *recorder) Clear() {
	clear(r.commands)
	r.commands = r.commands[:0]
}

// Count returns how many commands in cmds have concrete type T.
func Count[T Command](cmds []Command) int {
	n := 0
	for _, c := range cmds {
		if _, ok := c.(T); ok {
			n++
		}
	}
	return n
}
