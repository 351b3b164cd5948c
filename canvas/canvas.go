// Package canvas defines the value types shared across the host: logical
// geometry, colors, input events, and the per-frame draw command stream.
//
// All geometry is in logical (DPI-independent) units. Translation to
// physical pixels or terminal cells happens only in presentation backends.
package canvas

import "fmt"

// Color is an RGBA color with components in [0, 1].
type Color struct {
	R, G, B, A float32
}

// RGBA returns an opaque-by-default color.
func RGBA(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

// Hex returns the color as a #rrggbb string for terminal styling.
// Alpha is dropped; terminal cells have no alpha channel.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", clamp255(c.R), clamp255(c.G), clamp255(c.B))
}

func clamp255(v float32) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v * 255)
}

// Vec2 is a point or extent in logical coordinates.
type Vec2 struct {
	X, Y float32
}

// LogicalSize is the guest-visible canvas size plus the scale factor the
// presentation layer uses to map logical units to physical pixels.
type LogicalSize struct {
	Width       float32
	Height      float32
	ScaleFactor float32
}
