package canvas

import "fmt"

// Op discriminates DrawCommand variants.
type Op uint8

const (
	// OpFillRect fills an axis-aligned rectangle.
	OpFillRect Op = iota
	// OpDrawText draws a single text run at a baseline origin.
	OpDrawText
)

// DrawCommand is one paint operation recorded during a guest frame call.
// Later commands paint over earlier ones.
type DrawCommand struct {
	Op     Op
	Origin Vec2
	Size   Vec2 // rect extent; for text, Size.X carries the font size
	Color  Color
	Text   string
}

func (c DrawCommand) String() string {
	switch c.Op {
	case OpFillRect:
		return fmt.Sprintf("FillRect(origin=(%.1f, %.1f), size=(%.1f, %.1f))",
			c.Origin.X, c.Origin.Y, c.Size.X, c.Size.Y)
	case OpDrawText:
		return fmt.Sprintf("DrawText(text=%q, origin=(%.1f, %.1f), size=%.1f)",
			c.Text, c.Origin.X, c.Origin.Y, c.Size.X)
	}
	return fmt.Sprintf("DrawCommand(op=%d)", c.Op)
}

// FillRect builds an OpFillRect command.
func FillRect(origin, size Vec2, color Color) DrawCommand {
	return DrawCommand{Op: OpFillRect, Origin: origin, Size: size, Color: color}
}

// DrawText builds an OpDrawText command. size is the font size in logical
// units; origin is the text baseline.
func DrawText(text string, origin Vec2, size float32, color Color) DrawCommand {
	return DrawCommand{Op: OpDrawText, Text: text, Origin: origin, Size: Vec2{X: size}, Color: color}
}

// Frame is the renderable scene drained from one guest frame invocation:
// an optional background clear plus paint operations in issue order.
type Frame struct {
	Clear    *Color
	Commands []DrawCommand
}
