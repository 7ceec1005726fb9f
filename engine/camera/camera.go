package camera

import (
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/command"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

// cameraCount is an atomic counter used to generate default camera names.
var cameraCount atomic.Uint64

// ClearFlags is how a camera clears its target before drawing.
type ClearFlags int

const (
	// ClearSkybox clears depth and draws the sky behind opaque geometry.
	ClearSkybox ClearFlags = iota
	// ClearSolidColor clears color to the background color and clears depth.
	ClearSolidColor
	// ClearDepth clears depth only.
	ClearDepth
	// ClearNothing leaves the target untouched.
	ClearNothing
)

func (f ClearFlags) String() string {
	switch f {
	case ClearSkybox:
		return "Skybox"
	case ClearSolidColor:
		return "SolidColor"
	case ClearDepth:
		return "Depth"
	case ClearNothing:
		return "Nothing"
	default:
		return "ClearFlags(" + strconv.Itoa(int(f)) + ")"
	}
}

// Event is a point in the deferred pipeline where camera command buffers run.
type Event int

const (
	// EventBeforeGBuffer runs before the opaque geometry is drawn into the G-buffer.
	EventBeforeGBuffer Event = iota
	// EventAfterGBuffer runs after the opaque geometry is drawn into the G-buffer.
	EventAfterGBuffer
)

// AllLayers is a culling mask that sees every layer.
const AllLayers uint32 = 0xFFFFFFFF

type cameraImpl struct {
	mu *sync.Mutex

	name       string
	pixelRect  common.Rect
	clearFlags ClearFlags
	background common.Color
	target     texture.Surface
	mask       uint32
	depth      float32

	position [3]float32
	lookAt   [3]float32
	up       [3]float32

	fov  float32
	near float32
	far  float32

	viewMatrix              [16]float32
	projectionMatrix        [16]float32
	viewProjectionMatrix    [16]float32
	inverseProjectionMatrix [16]float32

	buffers map[Event][]command.Buffer
}

// Camera defines the interface for a camera rendered by the deferred pipeline.
// The pipeline only reads cameras; the host owns and mutates them between frames.
type Camera interface {
	// Name returns the camera's name.
	//
	// Returns:
	//   - string: the name
	Name() string

	// PixelRect returns the area of the target the camera renders to, in pixels.
	//
	// Returns:
	//   - common.Rect: the pixel rectangle
	PixelRect() common.Rect

	// ClearFlags returns how the camera clears its target.
	//
	// Returns:
	//   - ClearFlags: the clear mode
	ClearFlags() ClearFlags

	// BackgroundColor returns the clear color used by ClearSolidColor.
	//
	// Returns:
	//   - common.Color: the background color
	BackgroundColor() common.Color

	// TargetTexture returns the explicit output surface, or nil when the camera draws to the display.
	//
	// Returns:
	//   - texture.Surface: the target or nil
	TargetTexture() texture.Surface

	// CullingMask returns the layer bits the camera can see.
	//
	// Returns:
	//   - uint32: the layer mask
	CullingMask() uint32

	// Depth returns the camera's draw order; lower draws first.
	//
	// Returns:
	//   - float32: the depth
	Depth() float32

	// Position returns the world-space eye position.
	//
	// Returns:
	//   - [3]float32: the position
	Position() [3]float32

	// Target returns the look-at point.
	//
	// Returns:
	//   - [3]float32: the look-at point
	Target() [3]float32

	// Fov returns the vertical field of view in radians.
	Fov() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// ViewMatrix returns the 4x4 view matrix (column-major).
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the 4x4 projection matrix (column-major).
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns projection * view (column-major).
	ViewProjectionMatrix() [16]float32

	// InverseProjectionMatrix returns the inverse of the projection matrix (column-major).
	InverseProjectionMatrix() [16]float32

	// Frustum returns the world-space view frustum used for geometry culling.
	//
	// Returns:
	//   - common.Frustum: the frustum planes
	Frustum() common.Frustum

	// CommandBuffers returns the buffers attached to event, in attach order.
	//
	// Parameters:
	//   - event: the pipeline event
	//
	// Returns:
	//   - []command.Buffer: the attached buffers
	CommandBuffers(event Event) []command.Buffer

	// AddCommandBuffer attaches buf to run at event.
	//
	// Parameters:
	//   - event: the pipeline event
	//   - buf: the buffer to run
	AddCommandBuffer(event Event, buf command.Buffer)

	// RemoveCommandBuffers detaches every buffer from event.
	//
	// Parameters:
	//   - event: the pipeline event
	RemoveCommandBuffers(event Event)

	// SetPixelRect sets the pixel rectangle and recomputes the projection aspect.
	SetPixelRect(r common.Rect)

	// SetClearFlags sets the clear mode.
	SetClearFlags(f ClearFlags)

	// SetBackgroundColor sets the clear color.
	SetBackgroundColor(c common.Color)

	// SetTargetTexture sets the explicit output surface, nil draws to the display.
	SetTargetTexture(s texture.Surface)

	// SetCullingMask sets the visible layer bits.
	SetCullingMask(mask uint32)

	// SetPosition sets the eye position and recomputes matrices.
	SetPosition(p [3]float32)

	// SetTarget sets the look-at point and recomputes matrices.
	SetTarget(t [3]float32)
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera with default perspective settings looking down -Z from
// (0, 0, 5), clearing to the skybox and seeing every layer.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	c := &cameraImpl{
		mu:         &sync.Mutex{},
		name:       "Camera " + strconv.FormatUint(cameraCount.Add(1), 10),
		pixelRect:  common.Rect{Width: 1, Height: 1},
		clearFlags: ClearSkybox,
		background: common.Color{0.19, 0.3, 0.47, 1},
		mask:       AllLayers,
		position:   [3]float32{0, 0, 5},
		up:         [3]float32{0, 1, 0},
		fov:        60.0 * (math.Pi / 180.0),
		near:       0.3,
		far:        1000.0,
		buffers:    make(map[Event][]command.Buffer),
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

func (c *cameraImpl) Name() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.name
}

func (c *cameraImpl) PixelRect() common.Rect {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pixelRect
}

func (c *cameraImpl) ClearFlags() ClearFlags {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.clearFlags
}

func (c *cameraImpl) BackgroundColor() common.Color {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.background
}

func (c *cameraImpl) TargetTexture() texture.Surface {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) CullingMask() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mask
}

func (c *cameraImpl) Depth() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth
}

func (c *cameraImpl) Position() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() [3]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookAt
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) InverseProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inverseProjectionMatrix
}

func (c *cameraImpl) Frustum() common.Frustum {
	c.mu.Lock()
	defer c.mu.Unlock()
	return common.ExtractFrustumFromMatrix(c.viewProjectionMatrix[:])
}

func (c *cameraImpl) CommandBuffers(event Event) []command.Buffer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]command.Buffer(nil), c.buffers[event]...)
}

func (c *cameraImpl) AddCommandBuffer(event Event, buf command.Buffer) {
	if buf == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffers[event] = append(c.buffers[event], buf)
}

func (c *cameraImpl) RemoveCommandBuffers(event Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buffers, event)
}

func (c *cameraImpl) SetPixelRect(r common.Rect) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pixelRect = r
	c.updateMatrices()
}

func (c *cameraImpl) SetClearFlags(f ClearFlags) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clearFlags = f
}

func (c *cameraImpl) SetBackgroundColor(col common.Color) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.background = col
}

func (c *cameraImpl) SetTargetTexture(s texture.Surface) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = s
}

func (c *cameraImpl) SetCullingMask(mask uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mask = mask
}

func (c *cameraImpl) SetPosition(p [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(t [3]float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookAt = t
	c.updateMatrices()
}

// updateMatrices recalculates the view, projection, view-projection, and inverse projection matrices.
// The aspect ratio follows the pixel rectangle. Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	common.LookAt(c.viewMatrix[:], c.position, c.lookAt, c.up)
	common.Perspective(c.projectionMatrix[:], c.fov, c.pixelRect.Aspect(), c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
	common.Invert4(c.inverseProjectionMatrix[:], c.projectionMatrix[:])
}
