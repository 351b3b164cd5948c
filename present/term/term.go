// Package term renders scenes into terminal cells for the bubbletea
// application shell. Logical coordinates map to cells through a fixed cell
// geometry; fills become background runs, text runs become glyphs.
package term

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/present"
)

// Default logical units per terminal cell. A terminal cell is roughly
// twice as tall as it is wide, so the defaults keep logical space square.
const (
	DefaultCellWidth  float32 = 8
	DefaultCellHeight float32 = 16
)

// Renderer converts frames to a styled string for a terminal view.
type Renderer struct {
	cellW, cellH float32
	cols, rows   int
	view         string
}

// New creates a renderer with the given cell geometry. Zero values fall
// back to the defaults.
func New(cellW, cellH float32) *Renderer {
	if cellW <= 0 {
		cellW = DefaultCellWidth
	}
	if cellH <= 0 {
		cellH = DefaultCellHeight
	}
	return &Renderer{cellW: cellW, cellH: cellH}
}

// SetSize updates the terminal size in cells.
func (r *Renderer) SetSize(cols, rows int) {
	r.cols = cols
	r.rows = rows
}

// LogicalSize returns the canvas size the current terminal maps to.
func (r *Renderer) LogicalSize() canvas.LogicalSize {
	return canvas.LogicalSize{
		Width:       float32(r.cols) * r.cellW,
		Height:      float32(r.rows) * r.cellH,
		ScaleFactor: 1,
	}
}

// CellToLogical maps a cell coordinate to the logical center of the cell.
func (r *Renderer) CellToLogical(x, y int) canvas.Vec2 {
	return canvas.Vec2{
		X: (float32(x) + 0.5) * r.cellW,
		Y: (float32(y) + 0.5) * r.cellH,
	}
}

// View returns the most recently presented output.
func (r *Renderer) View() string { return r.view }

// Present implements present.Presenter.
func (r *Renderer) Present(frame *canvas.Frame, overlay *present.Overlay) error {
	if r.cols <= 0 || r.rows <= 0 {
		r.view = ""
		return nil
	}
	if overlay != nil {
		r.view = r.renderOverlay(overlay)
		return nil
	}
	if frame == nil {
		r.view = ""
		return nil
	}
	r.view = r.renderFrame(frame)
	return nil
}

type cell struct {
	bg    canvas.Color
	glyph rune
	fg    canvas.Color
}

func (r *Renderer) renderFrame(frame *canvas.Frame) string {
	grid := make([][]cell, r.rows)
	bg := canvas.Color{A: 1}
	if frame.Clear != nil {
		bg = *frame.Clear
	}
	for y := range grid {
		grid[y] = make([]cell, r.cols)
		for x := range grid[y] {
			grid[y][x] = cell{bg: bg}
		}
	}

	for _, cmd := range frame.Commands {
		switch cmd.Op {
		case canvas.OpFillRect:
			r.paintRect(grid, cmd)
		case canvas.OpDrawText:
			r.paintText(grid, cmd)
		}
	}

	var b strings.Builder
	for y, row := range grid {
		if y > 0 {
			b.WriteByte('\n')
		}
		r.renderRow(&b, row)
	}
	return b.String()
}

func (r *Renderer) paintRect(grid [][]cell, cmd canvas.DrawCommand) {
	x0 := int(cmd.Origin.X / r.cellW)
	y0 := int(cmd.Origin.Y / r.cellH)
	x1 := int((cmd.Origin.X + cmd.Size.X) / r.cellW)
	y1 := int((cmd.Origin.Y + cmd.Size.Y) / r.cellH)
	for y := clampInt(y0, 0, r.rows); y < clampInt(y1, 0, r.rows); y++ {
		for x := clampInt(x0, 0, r.cols); x < clampInt(x1, 0, r.cols); x++ {
			// A fill paints over anything below it, glyphs included.
			grid[y][x] = cell{bg: cmd.Color}
		}
	}
}

func (r *Renderer) paintText(grid [][]cell, cmd canvas.DrawCommand) {
	// Origin is a baseline; the glyph row sits just above it.
	y := int((cmd.Origin.Y - 1) / r.cellH)
	x := int(cmd.Origin.X / r.cellW)
	if y < 0 || y >= r.rows {
		return
	}
	for _, ch := range cmd.Text {
		if x >= r.cols {
			break
		}
		if x >= 0 {
			grid[y][x].glyph = ch
			grid[y][x].fg = cmd.Color
		}
		x++
	}
}

func (r *Renderer) renderRow(b *strings.Builder, row []cell) {
	// Group adjacent cells sharing style into one styled run.
	runStart := 0
	for i := 1; i <= len(row); i++ {
		if i < len(row) && sameStyle(row[i], row[runStart]) {
			continue
		}
		run := row[runStart:i]
		var text strings.Builder
		for _, c := range run {
			if c.glyph == 0 {
				text.WriteByte(' ')
			} else {
				text.WriteRune(c.glyph)
			}
		}
		style := lipgloss.NewStyle().
			Background(lipgloss.Color(run[0].bg.Hex())).
			Foreground(lipgloss.Color(run[0].fg.Hex()))
		b.WriteString(style.Render(text.String()))
		runStart = i
	}
}

func sameStyle(a, b cell) bool {
	return a.bg == b.bg && a.fg == b.fg
}

var (
	overlayTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#B03030")).
				Padding(0, 1)

	overlayBodyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#E0E0E0"))

	overlayFooterStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#999999"))

	overlayBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#B03030")).
			Padding(1, 2)
)

func (r *Renderer) renderOverlay(overlay *present.Overlay) string {
	parts := []string{overlayTitleStyle.Render(overlay.Title), ""}
	for _, line := range overlay.Body {
		parts = append(parts, overlayBodyStyle.Render(line))
	}
	parts = append(parts, "", overlayFooterStyle.Render(overlay.Footer))

	box := overlayBoxStyle.Render(strings.Join(parts, "\n"))
	return lipgloss.Place(r.cols, r.rows, lipgloss.Center, lipgloss.Center, box)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
