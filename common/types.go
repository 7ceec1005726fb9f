// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// Rect is an integer pixel rectangle. X and Y are the top-left corner in pixels.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Empty reports whether the rectangle covers no pixels.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Aspect returns width / height, or 1 for an empty rectangle.
func (r Rect) Aspect() float32 {
	if r.Empty() {
		return 1
	}
	return float32(r.Width) / float32(r.Height)
}

// Intersect returns the part of r inside o. Disjoint rectangles give the zero Rect.
//
// Parameters:
//   - o: the rectangle to clip against
//
// Returns:
//   - Rect: the overlap
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.Width, o.X+o.Width), min(r.Y+r.Height, o.Y+o.Height)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Color is a linear RGBA color.
type Color [4]float32

var (
	// Black is opaque black.
	Black = Color{0, 0, 0, 1}
	// White is opaque white.
	White = Color{1, 1, 1, 1}
)
