package deferred

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/light"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/material"
)

// lightHandler records the lighting work for one visible light and reports how many draws it
// issued.
type lightHandler func(cmd command.Buffer, cfg *Config, l light.VisibleLight) int

// lightHandlers has exactly one entry per light.LightType.
var lightHandlers = [light.LightTypeCount]lightHandler{
	light.LightTypeDirectional: drawDirectional,
	light.LightTypePoint:       unsupportedLight,
	light.LightTypeSpot:        unsupportedLight,
	light.LightTypeArea:        unsupportedLight,
}

// drawLight dispatches l to its handler. Unknown types draw nothing.
func drawLight(cmd command.Buffer, cfg *Config, l light.VisibleLight) int {
	if l.Type < 0 || int(l.Type) >= len(lightHandlers) {
		common.Logger().Debug("deferred: unknown light type", "type", l.Type)
		return 0
	}
	return lightHandlers[l.Type](cmd, cfg, l)
}

func drawDirectional(cmd command.Buffer, cfg *Config, l light.VisibleLight) int {
	if !cfg.Lighting.Drawable() {
		return 0
	}
	cmd.EnableShaderKeyword(KeywordDirectional)
	cmd.DisableShaderKeyword(KeywordPoint)

	fwd := l.Forward()
	props := material.NewPropertyBlock()
	props.SetVector(PropLightDir, [4]float32{fwd[0], fwd[1], fwd[2], 0})
	props.SetColor(PropLightColor, l.FinalColor)
	props.SetFloat(PropLightAsQuad, 1)
	drawFullScreen(cmd, cfg, cfg.Lighting, props)
	return 1
}

// unsupportedLight is the handler for point, spot and area lights, which the deferred
// lighting program does not shade yet.
func unsupportedLight(command.Buffer, *Config, light.VisibleLight) int {
	return 0
}

// fullScreenVP maps the full-screen triangle's clip-space corners onto the viewport with a
// flipped Y and near-zero depth scale.
var fullScreenVP = [16]float32{
	2, 0, 0, 0,
	0, -2, 0, 0,
	0, 0, 0.001, 0,
	-1, 1, 1, 1,
}

// drawFullScreen draws the full-screen triangle with identity view and the full-screen
// view-projection.
func drawFullScreen(cmd command.Buffer, cfg *Config, mat *material.Material, props *material.PropertyBlock) {
	cmd.SetGlobalMatrix(PropMatrixV, common.IdentityMatrix())
	cmd.SetGlobalMatrix(PropMatrixVP, fullScreenVP)
	cmd.DrawMesh(cfg.FullScreen, common.IdentityMatrix(), mat, 0, props)
}
