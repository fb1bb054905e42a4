// package common contains plain value types shared by the camera, the sun shaft effect and the render backends.
// They are not interface-wrapped structs, just small data-types with a handful of helpers.
package common

import "github.com/go-gl/mathgl/mgl32"

// Color is a linear RGBA color. Components are not clamped so HDR values above 1 are preserved.
type Color [4]float32

// White is the opaque white color.
var White = Color{1, 1, 1, 1}

// Clear is the fully transparent black color.
var Clear = Color{}

// NewColor builds a Color from its components.
//
// Parameters:
//   - r, g, b, a: the color components
//
// Returns:
//   - Color: the assembled color
func NewColor(r, g, b, a float32) Color {
	return Color{r, g, b, a}
}

func (c Color) R() float32 { return c[0] }
func (c Color) G() float32 { return c[1] }
func (c Color) B() float32 { return c[2] }
func (c Color) A() float32 { return c[3] }

// Scale multiplies every component, alpha included, by f.
//
// Parameters:
//   - f: the scalar multiplier
//
// Returns:
//   - Color: the scaled color
func (c Color) Scale(f float32) Color {
	return Color{c[0] * f, c[1] * f, c[2] * f, c[3] * f}
}

// Mul multiplies two colors component-wise.
//
// Parameters:
//   - o: the color to multiply with
//
// Returns:
//   - Color: the component-wise product
func (c Color) Mul(o Color) Color {
	return Color{c[0] * o[0], c[1] * o[1], c[2] * o[2], c[3] * o[3]}
}

// Vec4 returns the color as an mgl32.Vec4, the layout used for shader uniforms.
func (c Color) Vec4() mgl32.Vec4 {
	return mgl32.Vec4(c)
}

// IsZeroVector reports whether v is exactly the zero vector.
// The sun shaft effect treats a zero sun position as "use the viewport center".
//
// Parameters:
//   - v: the vector to test
//
// Returns:
//   - bool: true if all components are zero
func IsZeroVector(v mgl32.Vec3) bool {
	return v == mgl32.Vec3{}
}
