package light

import (
	"strconv"
	"sync"

	"github.com/Carmen-Shannon/oxy-deferred/common"
)

// LightType identifies the kind of light source. The set is closed: the deferred renderer keeps
// one handler per value.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	LightTypeSpot

	// LightTypeArea represents a rectangular emitter.
	LightTypeArea

	// LightTypeCount is the number of light types.
	LightTypeCount
)

func (t LightType) String() string {
	switch t {
	case LightTypeDirectional:
		return "Directional"
	case LightTypePoint:
		return "Point"
	case LightTypeSpot:
		return "Spot"
	case LightTypeArea:
		return "Area"
	default:
		return "LightType(" + strconv.Itoa(int(t)) + ")"
	}
}

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu *sync.Mutex

	name       string
	lightType  LightType
	position   [3]float32
	direction  [3]float32
	color      [3]float32
	intensity  float32
	lightRange float32
	spotAngle  float32
	layer      uint32
	enabled    bool
}

// Light defines the interface for a light source in the scene.
//
// All light types share this interface; type-specific properties return their stored values
// even when the type ignores them.
type Light interface {
	// Name returns the light's debug name.
	Name() string

	// Type returns the kind of light source.
	//
	// Returns:
	//   - LightType: the light type
	Type() LightType

	// Position returns the world-space position of the light.
	// Meaningless for directional lights.
	//
	// Returns:
	//   - [3]float32: position as (x, y, z)
	Position() [3]float32

	// Direction returns the normalized forward axis of the light.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// LocalToWorld returns the light's transform. Column 2 is the forward axis.
	//
	// Returns:
	//   - [16]float32: the column-major matrix
	LocalToWorld() [16]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// FinalColor returns color * intensity with alpha 1.
	//
	// Returns:
	//   - common.Color: the premultiplied color
	FinalColor() common.Color

	// Range returns the maximum attenuation distance for point and spot lights.
	//
	// Returns:
	//   - float32: the range value
	Range() float32

	// SpotAngle returns the full cone angle of spot lights in degrees.
	//
	// Returns:
	//   - float32: the cone angle
	SpotAngle() float32

	// Layer returns the layer bit the light lives on. Cameras only see lights whose layer is in
	// their culling mask.
	//
	// Returns:
	//   - uint32: a single layer bit
	Layer() uint32

	// Enabled returns whether this light is active for rendering.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetPosition sets the world-space position of the light.
	//
	// Parameters:
	//   - p: the position
	SetPosition(p [3]float32)

	// SetDirection sets the direction of the light and normalizes it.
	//
	// Parameters:
	//   - d: the direction (will be normalized)
	SetDirection(d [3]float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - c: the color
	SetColor(c [3]float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetEnabled enables or disables the light for rendering.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := &lightImpl{
		mu:         &sync.Mutex{},
		name:       lightType.String() + " Light",
		lightType:  lightType,
		direction:  [3]float32{0, -1, 0},
		color:      [3]float32{1, 1, 1},
		intensity:  1.0,
		lightRange: 10.0,
		spotAngle:  30.0,
		layer:      1,
		enabled:    true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Name() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.name
}

func (l *lightImpl) Type() LightType {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lightType
}

func (l *lightImpl) Position() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.position
}

func (l *lightImpl) Direction() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.direction
}

func (l *lightImpl) LocalToWorld() [16]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return localToWorld(l.position, l.direction)
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.intensity
}

func (l *lightImpl) FinalColor() common.Color {
	l.mu.Lock()
	defer l.mu.Unlock()
	return common.Color{l.color[0] * l.intensity, l.color[1] * l.intensity, l.color[2] * l.intensity, 1}
}

func (l *lightImpl) Range() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lightRange
}

func (l *lightImpl) SpotAngle() float32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.spotAngle
}

func (l *lightImpl) Layer() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.layer
}

func (l *lightImpl) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

func (l *lightImpl) SetPosition(p [3]float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.position = p
}

func (l *lightImpl) SetDirection(d [3]float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = common.Normalize3(d[0], d[1], d[2])
}

func (l *lightImpl) SetColor(c [3]float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = c
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// localToWorld builds an orthonormal transform whose forward (Z) axis is dir.
func localToWorld(pos, dir [3]float32) [16]float32 {
	fwd := common.Normalize3(dir[0], dir[1], dir[2])
	up := [3]float32{0, 1, 0}
	if d := common.Dot3(fwd, up); d > 0.999 || d < -0.999 {
		up = [3]float32{1, 0, 0}
	}
	right := cross(up, fwd)
	right = common.Normalize3(right[0], right[1], right[2])
	up = cross(fwd, right)
	return [16]float32{
		right[0], right[1], right[2], 0,
		up[0], up[1], up[2], 0,
		fwd[0], fwd[1], fwd[2], 0,
		pos[0], pos[1], pos[2], 1,
	}
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// VisibleLight is a per-camera snapshot of a light that survived culling.
type VisibleLight struct {
	Light        Light
	Type         LightType
	FinalColor   common.Color
	LocalToWorld [16]float32
	Range        float32
	SpotAngle    float32
}

// Snapshot captures l for one frame.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - VisibleLight: the snapshot
func Snapshot(l Light) VisibleLight {
	return VisibleLight{
		Light:        l,
		Type:         l.Type(),
		FinalColor:   l.FinalColor(),
		LocalToWorld: l.LocalToWorld(),
		Range:        l.Range(),
		SpotAngle:    l.SpotAngle(),
	}
}

// Forward returns the light's forward axis from its LocalToWorld matrix.
func (v VisibleLight) Forward() [3]float32 {
	return [3]float32{v.LocalToWorld[8], v.LocalToWorld[9], v.LocalToWorld[10]}
}

// Position returns the translation of the light's LocalToWorld matrix.
func (v VisibleLight) Position() [3]float32 {
	return [3]float32{v.LocalToWorld[12], v.LocalToWorld[13], v.LocalToWorld[14]}
}
