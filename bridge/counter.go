package bridge

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/frontierui/canvas-host/canvas"
)

// CounterGuest is the built-in fallback guest: a click counter with
// increment/decrement buttons, a count label, and a hint line. It runs in
// process against the same capability surface as a WebAssembly guest and
// doubles as the test fixture for the host pipeline.
type CounterGuest struct {
	imports Imports

	size          canvas.LogicalSize
	count         int32
	activePointer uint64
	activeButton  counterButton
	hasActive     bool
	hover         counterButton
	hasHover      bool
	cursor        canvas.Vec2
}

type counterButton uint8

const (
	buttonMinus counterButton = iota
	buttonPlus
)

// TrapKey is a debug key string that makes the counter guest fail its
// callback, for exercising fault containment end to end.
const TrapKey = "__trap"

// NewCounterGuest creates the built-in guest against the given imports.
func NewCounterGuest(imports Imports) *CounterGuest {
	return &CounterGuest{imports: imports}
}

// Count exposes the current count for tests.
func (g *CounterGuest) Count() int32 { return g.count }

func (g *CounterGuest) Init(_ context.Context, size canvas.LogicalSize) error {
	g.size = size
	g.imports.Log(LogInfo, fmt.Sprintf("counter guest ready at %.0fx%.0f", size.Width, size.Height))
	g.imports.RequestFrame()
	return nil
}

func (g *CounterGuest) Resize(_ context.Context, size canvas.LogicalSize) error {
	g.size = size
	g.imports.RequestFrame()
	return nil
}

func (g *CounterGuest) PointerDown(_ context.Context, evt canvas.PointerEvent) error {
	g.cursor = evt.Position
	if btn, ok := g.buttonAt(evt.Position); ok {
		g.activePointer = evt.PointerID
		g.activeButton = btn
		g.hasActive = true
		g.imports.RequestFrame()
	}
	return nil
}

func (g *CounterGuest) PointerUp(_ context.Context, evt canvas.PointerEvent) error {
	g.cursor = evt.Position
	if g.hasActive && g.activePointer == evt.PointerID {
		if btn, ok := g.buttonAt(evt.Position); ok && btn == g.activeButton {
			switch btn {
			case buttonMinus:
				g.adjust(-1)
			case buttonPlus:
				g.adjust(1)
			}
		}
	}
	if g.hasActive {
		g.hasActive = false
		g.imports.RequestFrame()
	}
	return nil
}

func (g *CounterGuest) PointerMove(_ context.Context, evt canvas.PointerEvent) error {
	g.cursor = evt.Position
	btn, ok := g.buttonAt(evt.Position)
	if ok != g.hasHover || (ok && btn != g.hover) {
		g.hover = btn
		g.hasHover = ok
		g.imports.RequestFrame()
	}
	return nil
}

func (g *CounterGuest) KeyDown(_ context.Context, evt canvas.KeyEvent) error {
	switch strings.TrimSpace(evt.Key) {
	case "+", "=":
		g.adjust(1)
	case "-":
		g.adjust(-1)
	case "Space":
		g.adjust(1)
	case "Enter":
		g.reset()
	case TrapKey:
		return fmt.Errorf("counter guest trapped on request (key %q)", evt.Key)
	}
	return nil
}

func (g *CounterGuest) KeyUp(_ context.Context, _ canvas.KeyEvent) error {
	return nil
}

func (g *CounterGuest) Frame(_ context.Context, _ float32) error {
	l := counterLayoutFor(g.size)
	g.imports.Clear(canvas.RGBA(0.09, 0.1, 0.12, 1.0))

	g.imports.FillRect(l.panel.origin(), l.panel.size(), canvas.RGBA(0.12, 0.14, 0.18, 1.0))
	g.drawButton(l.minus, "-", buttonMinus)
	g.drawButton(l.plus, "+", buttonPlus)

	g.imports.DrawText(fmt.Sprintf("%d", g.count), l.countOrigin, l.countTextSize,
		canvas.RGBA(0.92, 0.94, 0.98, 1.0))
	g.imports.DrawText("Use +/- keys or Space/Enter", l.hintOrigin, l.countTextSize*0.4,
		canvas.RGBA(0.6, 0.68, 0.78, 1.0))
	return nil
}

func (g *CounterGuest) Close(_ context.Context) error {
	return nil
}

func (g *CounterGuest) adjust(delta int32) {
	next := saturatingAdd(g.count, delta)
	if next != g.count {
		g.count = next
		g.imports.RequestFrame()
	}
}

func (g *CounterGuest) reset() {
	if g.count != 0 {
		g.count = 0
		g.imports.RequestFrame()
	}
}

func (g *CounterGuest) drawButton(r counterRect, label string, kind counterButton) {
	color := canvas.RGBA(0.24, 0.28, 0.36, 1.0)
	if g.hasHover && g.hover == kind {
		color = canvas.RGBA(0.3, 0.36, 0.46, 1.0)
	}
	if g.hasActive && g.activeButton == kind {
		color = canvas.RGBA(0.32, 0.4, 0.52, 1.0)
	}
	g.imports.FillRect(r.origin(), r.size(), color)

	textSize := r.h * 0.6
	cx, cy := r.center()
	g.imports.DrawText(label,
		canvas.Vec2{X: cx - textSize*0.25, Y: cy + textSize*0.35},
		textSize, canvas.RGBA(0.95, 0.96, 0.98, 1.0))
}

func (g *CounterGuest) buttonAt(p canvas.Vec2) (counterButton, bool) {
	l := counterLayoutFor(g.size)
	if l.minus.contains(p) {
		return buttonMinus, true
	}
	if l.plus.contains(p) {
		return buttonPlus, true
	}
	return 0, false
}

func saturatingAdd(a, b int32) int32 {
	sum := int64(a) + int64(b)
	if sum > math.MaxInt32 {
		return math.MaxInt32
	}
	if sum < math.MinInt32 {
		return math.MinInt32
	}
	return int32(sum)
}

type counterRect struct {
	x, y, w, h float32
}

func (r counterRect) contains(p canvas.Vec2) bool {
	return p.X >= r.x && p.X <= r.x+r.w && p.Y >= r.y && p.Y <= r.y+r.h
}

func (r counterRect) origin() canvas.Vec2 { return canvas.Vec2{X: r.x, Y: r.y} }
func (r counterRect) size() canvas.Vec2   { return canvas.Vec2{X: r.w, Y: r.h} }

func (r counterRect) center() (float32, float32) {
	return r.x + r.w*0.5, r.y + r.h*0.5
}

type counterLayout struct {
	panel         counterRect
	minus         counterRect
	plus          counterRect
	countTextSize float32
	countOrigin   canvas.Vec2
	hintOrigin    canvas.Vec2
}

func counterLayoutFor(size canvas.LogicalSize) counterLayout {
	width := max32(size.Width, 1)
	height := max32(size.Height, 1)
	margin := clamp32(min32(width, height)*0.08, 12, 48)

	panel := counterRect{
		x: margin,
		y: margin,
		w: width - margin*2,
		h: height - margin*2,
	}

	buttonHeight := clamp32(panel.h*0.35, 48, 160)
	buttonWidth := clamp32(panel.w*0.25, 96, 220)
	buttonY := panel.y + panel.h - buttonHeight - margin
	buttonMargin := margin * 0.5

	minus := counterRect{
		x: panel.x + buttonMargin,
		y: buttonY,
		w: buttonWidth,
		h: buttonHeight,
	}
	plus := counterRect{
		x: panel.x + panel.w - buttonMargin - buttonWidth,
		y: buttonY,
		w: buttonWidth,
		h: buttonHeight,
	}

	countTextSize := clamp32(panel.h*0.35, 48, 160)

	return counterLayout{
		panel:         panel,
		minus:         minus,
		plus:          plus,
		countTextSize: countTextSize,
		countOrigin: canvas.Vec2{
			X: panel.x + panel.w*0.5 - countTextSize*0.35,
			Y: panel.y + panel.h*0.4,
		},
		hintOrigin: canvas.Vec2{
			X: panel.x + buttonMargin,
			Y: panel.y + panel.h - buttonMargin*0.5,
		},
	}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func clamp32(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
