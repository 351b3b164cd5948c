package term

import (
	"strings"
	"testing"

	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/present"
)

func TestRenderer_Geometry(t *testing.T) {
	r := New(0, 0) // zero falls back to defaults
	r.SetSize(10, 4)

	size := r.LogicalSize()
	if size.Width != 80 || size.Height != 64 {
		t.Fatalf("logical size = %gx%g, want 80x64", size.Width, size.Height)
	}
	if size.ScaleFactor != 1 {
		t.Fatalf("scale factor = %g, want 1", size.ScaleFactor)
	}

	p := r.CellToLogical(0, 0)
	if p.X != 4 || p.Y != 8 {
		t.Fatalf("cell (0,0) center = (%g, %g), want (4, 8)", p.X, p.Y)
	}
	p = r.CellToLogical(9, 3)
	if p.X != 76 || p.Y != 56 {
		t.Fatalf("cell (9,3) center = (%g, %g), want (76, 56)", p.X, p.Y)
	}
}

func TestRenderer_TextLandsInCells(t *testing.T) {
	r := New(8, 16)
	r.SetSize(20, 4)

	frame := &canvas.Frame{
		Clear: &canvas.Color{R: 0.1, G: 0.1, B: 0.1, A: 1},
		Commands: []canvas.DrawCommand{
			// Baseline at y=32 puts the glyph row on terminal row 1.
			canvas.DrawText("42", canvas.Vec2{X: 8, Y: 32}, 16, canvas.RGBA(1, 1, 1, 1)),
		},
	}
	if err := r.Present(frame, nil); err != nil {
		t.Fatalf("present: %v", err)
	}

	view := r.View()
	lines := strings.Split(view, "\n")
	if len(lines) != 4 {
		t.Fatalf("view has %d lines, want 4", len(lines))
	}
	if !strings.Contains(lines[1], "42") {
		t.Fatalf("text missing from row 1: %q", lines[1])
	}
	if strings.Contains(lines[0], "42") {
		t.Fatalf("text leaked into row 0: %q", lines[0])
	}
}

func TestRenderer_FillPaintsOverText(t *testing.T) {
	r := New(8, 16)
	r.SetSize(20, 4)

	frame := &canvas.Frame{
		Commands: []canvas.DrawCommand{
			canvas.DrawText("hidden", canvas.Vec2{X: 0, Y: 16}, 16, canvas.RGBA(1, 1, 1, 1)),
			// Painted after the text, covering the whole surface.
			canvas.FillRect(canvas.Vec2{}, canvas.Vec2{X: 160, Y: 64}, canvas.RGBA(0, 0, 1, 1)),
		},
	}
	if err := r.Present(frame, nil); err != nil {
		t.Fatalf("present: %v", err)
	}
	if strings.Contains(r.View(), "hidden") {
		t.Fatal("fill should paint over earlier glyphs")
	}
}

func TestRenderer_ClipsOutOfRange(t *testing.T) {
	r := New(8, 16)
	r.SetSize(5, 2)

	frame := &canvas.Frame{
		Commands: []canvas.DrawCommand{
			canvas.FillRect(canvas.Vec2{X: -100, Y: -100}, canvas.Vec2{X: 10000, Y: 10000}, canvas.RGBA(1, 0, 0, 1)),
			canvas.DrawText("far away", canvas.Vec2{X: 9000, Y: 9000}, 16, canvas.RGBA(1, 1, 1, 1)),
		},
	}
	// Out-of-range geometry clips instead of panicking.
	if err := r.Present(frame, nil); err != nil {
		t.Fatalf("present: %v", err)
	}
	if lines := strings.Split(r.View(), "\n"); len(lines) != 2 {
		t.Fatalf("view has %d lines, want 2", len(lines))
	}
}

func TestRenderer_Overlay(t *testing.T) {
	r := New(8, 16)
	r.SetSize(60, 20)

	overlay := &present.Overlay{
		Title:  "Guest component faulted",
		Body:   []string{"guest exploded", "[ERROR] last words"},
		Footer: "Press r to restart the component",
	}
	if err := r.Present(nil, overlay); err != nil {
		t.Fatalf("present: %v", err)
	}

	view := r.View()
	for _, want := range []string{overlay.Title, "guest exploded", "Press r"} {
		if !strings.Contains(view, want) {
			t.Errorf("overlay missing %q", want)
		}
	}
}

func TestRenderer_ZeroSizeIsQuiet(t *testing.T) {
	r := New(8, 16)
	frame := &canvas.Frame{Commands: []canvas.DrawCommand{
		canvas.FillRect(canvas.Vec2{}, canvas.Vec2{X: 10, Y: 10}, canvas.RGBA(1, 0, 0, 1)),
	}}
	if err := r.Present(frame, nil); err != nil {
		t.Fatalf("present before size: %v", err)
	}
	if r.View() != "" {
		t.Fatalf("unexpected output before a size is known: %q", r.View())
	}
}
