package camera

import (
	"github.com/Carmen-Shannon/oxy-deferred/common"
	"github.com/Carmen-Shannon/oxy-deferred/engine/renderer/texture"
)

type CameraBuilderOption func(*cameraImpl)

// WithName sets the camera's name.
//
// Parameters:
//   - name: the camera name
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's name
func WithName(name string) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.name = name
	}
}

// WithPixelRect sets the area of the target the camera renders to.
//
// Parameters:
//   - r: the pixel rectangle
//
// Returns:
//   - CameraBuilderOption: a function that sets the pixel rectangle
func WithPixelRect(r common.Rect) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.pixelRect = r
	}
}

// WithClearFlags sets how the camera clears its target.
//
// Parameters:
//   - f: the clear mode
//
// Returns:
//   - CameraBuilderOption: a function that sets the clear mode
func WithClearFlags(f ClearFlags) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.clearFlags = f
	}
}

// WithBackgroundColor sets the solid clear color.
//
// Parameters:
//   - col: the color
//
// Returns:
//   - CameraBuilderOption: a function that sets the background color
func WithBackgroundColor(col common.Color) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.background = col
	}
}

// WithTargetTexture renders the camera into s instead of the display.
//
// Parameters:
//   - s: the output surface
//
// Returns:
//   - CameraBuilderOption: a function that sets the target
func WithTargetTexture(s texture.Surface) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.target = s
	}
}

// WithCullingMask sets the visible layer bits.
//
// Parameters:
//   - mask: the layer mask
//
// Returns:
//   - CameraBuilderOption: a function that sets the culling mask
func WithCullingMask(mask uint32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.mask = mask
	}
}

// WithDepth sets the draw order.
//
// Parameters:
//   - depth: lower values draw first
//
// Returns:
//   - CameraBuilderOption: a function that sets the depth
func WithDepth(depth float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.depth = depth
	}
}

// WithLookAt places the camera at eye looking at target.
//
// Parameters:
//   - eye: the eye position
//   - target: the look-at point
//
// Returns:
//   - CameraBuilderOption: a function that sets position and target
func WithLookAt(eye, target [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position = eye
		c.lookAt = target
	}
}

// WithUp sets the camera's up vector.
//
// Parameters:
//   - up: the up vector
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's up vector
func WithUp(up [3]float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.up = up
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithClipPlanes sets the near and far clipping plane distances.
//
// Parameters:
//   - near: near plane distance
//   - far: far plane distance
//
// Returns:
//   - CameraBuilderOption: a function that sets the clip planes
func WithClipPlanes(near, far float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.near = near
		c.far = far
	}
}
