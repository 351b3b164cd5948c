// Package raster renders scenes off screen with the gg 2D canvas. It
// backs the headless snapshot mode and the render tests: logical
// coordinates scale to physical pixels by the canvas scale factor.
package raster

import (
	"image"

	"github.com/gogpu/gg"
	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/errors"
	"github.com/frontierui/canvas-host/present"
)

// Renderer rasterizes frames into a pixmap.
type Renderer struct {
	ctx   *gg.Context
	size  canvas.LogicalSize
	scale float64
	log   *zap.Logger

	fontWarned bool
}

// New creates a renderer for the given logical size. fontPath optionally
// names a TTF face for text runs; without one, text commands are skipped.
func New(size canvas.LogicalSize, fontPath string, log *zap.Logger) (*Renderer, error) {
	if log == nil {
		log = zap.NewNop()
	}
	scale := float64(size.ScaleFactor)
	if scale <= 0 {
		scale = 1
	}
	w := int(float64(size.Width) * scale)
	h := int(float64(size.Height) * scale)
	if w <= 0 || h <= 0 {
		return nil, errors.Presentation(nil, "raster surface has zero extent")
	}

	ctx := gg.NewContext(w, h)
	r := &Renderer{ctx: ctx, size: size, scale: scale, log: log}
	if fontPath != "" {
		// Face size is rewritten per text run; load at a nominal size.
		if err := ctx.LoadFontFace(fontPath, 16); err != nil {
			return nil, errors.Presentation(err, "load font face "+fontPath)
		}
	}
	return r, nil
}

// Size returns the logical size the surface was created for.
func (r *Renderer) Size() canvas.LogicalSize { return r.size }

// Image returns the current pixmap contents.
func (r *Renderer) Image() image.Image { return r.ctx.Image() }

// WritePNG writes the current pixmap to path.
func (r *Renderer) WritePNG(path string) error {
	if err := r.ctx.SavePNG(path); err != nil {
		return errors.Presentation(err, "write snapshot "+path)
	}
	return nil
}

// Close releases the drawing context. gg contexts hold no external
// resources, so there is nothing to release.
func (r *Renderer) Close() error { return nil }

// Present implements present.Presenter. Paint operations apply in issue
// order; later operations paint over earlier ones.
func (r *Renderer) Present(frame *canvas.Frame, overlay *present.Overlay) error {
	if overlay != nil {
		return r.presentOverlay(overlay)
	}
	if frame == nil {
		return nil
	}

	if frame.Clear != nil {
		r.ctx.ClearWithColor(toRGBA(*frame.Clear))
	} else {
		r.ctx.ClearWithColor(gg.RGBA{A: 1})
	}

	for _, cmd := range frame.Commands {
		switch cmd.Op {
		case canvas.OpFillRect:
			r.fillRect(cmd)
		case canvas.OpDrawText:
			r.drawText(cmd)
		}
	}
	return nil
}

func (r *Renderer) fillRect(cmd canvas.DrawCommand) {
	c := toRGBA(cmd.Color)
	r.ctx.SetRGBA(c.R, c.G, c.B, c.A)
	r.ctx.DrawRectangle(
		float64(cmd.Origin.X)*r.scale,
		float64(cmd.Origin.Y)*r.scale,
		float64(cmd.Size.X)*r.scale,
		float64(cmd.Size.Y)*r.scale,
	)
	r.ctx.Fill()
}

func (r *Renderer) drawText(cmd canvas.DrawCommand) {
	if r.ctx.Font() == nil {
		if !r.fontWarned {
			r.log.Debug("no font face loaded; skipping text runs")
			r.fontWarned = true
		}
		return
	}
	c := toRGBA(cmd.Color)
	r.ctx.SetRGBA(c.R, c.G, c.B, c.A)
	r.ctx.DrawString(cmd.Text,
		float64(cmd.Origin.X)*r.scale,
		float64(cmd.Origin.Y)*r.scale,
	)
}

func (r *Renderer) presentOverlay(overlay *present.Overlay) error {
	r.ctx.ClearWithColor(gg.RGBA{R: 0.15, G: 0.05, B: 0.05, A: 1})
	if r.ctx.Font() == nil {
		return nil
	}
	r.ctx.SetRGBA(0.95, 0.9, 0.9, 1)
	y := 32.0
	r.ctx.DrawString(overlay.Title, 16, y)
	for _, line := range overlay.Body {
		y += 24
		r.ctx.DrawString(line, 16, y)
	}
	r.ctx.DrawString(overlay.Footer, 16, y+40)
	return nil
}

func toRGBA(c canvas.Color) gg.RGBA {
	return gg.RGBA{R: float64(c.R), G: float64(c.G), B: float64(c.B), A: float64(c.A)}
}
