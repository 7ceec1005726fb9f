package command

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

// Command is one recorded GPU command. Backends switch over the concrete types below.
type Command interface {
	command()
}

// SetRenderTarget binds color attachments and an optional depth attachment.
type SetRenderTarget struct {
	Colors []texture.Surface
	Depth  texture.Surface
}

// SetViewport restricts later draws and clears to Rect, in pixels of the bound target.
type SetViewport struct {
	Rect common.Rect
}

// ClearRenderTarget clears the bound targets inside the current viewport.
type ClearRenderTarget struct {
	Depth bool
	Color bool
	Value common.Color
}

// SetGlobalTexture exposes a surface to every later draw under Name.
type SetGlobalTexture struct {
	Name    string
	Surface texture.Surface
}

// SetGlobalMatrix exposes a matrix to every later draw under Name.
type SetGlobalMatrix struct {
	Name   string
	Matrix [16]float32
}

// SetKeyword toggles a global shader keyword.
type SetKeyword struct {
	Name    string
	Enabled bool
}

// DrawMesh draws a mesh with a material pass.
type DrawMesh struct {
	Mesh       *Mesh
	Matrix     [16]float32
	Material   *material.Material
	Pass       int
	Properties *material.PropertyBlock
}

// DrawRendererList draws every item in a resolved renderer list.
type DrawRendererList struct {
	List RendererList
}

// Blit copies Src into Dst, converting format if needed.
type Blit struct {
	Src texture.Surface
	Dst texture.Surface
}

func (SetRenderTarget) command()   {}
func (SetViewport) command()       {}
func (ClearRenderTarget) command() {}
func (SetGlobalTexture) command()  {}
func (SetGlobalMatrix) command()   {}
func (SetKeyword) command()        {}
func (DrawMesh) command()          {}
func (DrawRendererList) command()  {}
func (Blit) command()              {}

// Buffer records commands for later submission.
type Buffer interface {
	// Name returns the buffer's debug label.
	Name() string

	// SetRenderTarget binds colors and depth. A nil depth binds no depth attachment. The
	// viewport resets to the whole target.
	SetRenderTarget(colors []texture.Surface, depth texture.Surface)

	// SetViewport restricts later draws and clears to rect until the next SetRenderTarget.
	SetViewport(rect common.Rect)

	// ClearRenderTarget clears the bound depth and/or color targets inside the viewport.
	ClearRenderTarget(depth, color bool, value common.Color)

	// SetGlobalTexture binds a surface globally under name.
	SetGlobalTexture(name string, s texture.Surface)

	// SetGlobalMatrix binds a matrix globally under name.
	SetGlobalMatrix(name string, m [16]float32)

	// EnableShaderKeyword turns a global keyword on.
	EnableShaderKeyword(name string)

	// DisableShaderKeyword turns a global keyword off.
	DisableShaderKeyword(name string)

	// DrawMesh records a mesh draw. Draws whose material has no program are dropped.
	//
	// Parameters:
	//   - mesh: the mesh to draw
	//   - matrix: the object-to-world matrix
	//   - mat: the material to draw with
	//   - pass: the material pass index
	//   - props: optional per-draw parameters
	DrawMesh(mesh *Mesh, matrix [16]float32, mat *material.Material, pass int, props *material.PropertyBlock)

	// DrawRendererList records a draw of every item in list.
	DrawRendererList(list RendererList)

	// Blit records a copy from src to dst.
	Blit(src, dst texture.Surface)

	// Append copies the commands recorded in other onto the end of this buffer.
	Append(other Buffer)

	// Commands returns the recorded commands in order.
	Commands() []Command

	// Len returns the number of recorded commands.
	Len() int

	// Clear drops every recorded command.
	Clear()
}
