package canvas

// Modifiers is the modifier-key snapshot attached to every input event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool
}

// Bits packs the modifiers for the wire ABI.
func (m Modifiers) Bits() uint32 {
	var b uint32
	if m.Shift {
		b |= 1
	}
	if m.Ctrl {
		b |= 2
	}
	if m.Alt {
		b |= 4
	}
	if m.Meta {
		b |= 8
	}
	return b
}

// PointerButtons is the button state snapshot carried on pointer events.
type PointerButtons struct {
	Primary   bool
	Secondary bool
}

// Bits packs the button state for the wire ABI.
func (b PointerButtons) Bits() uint32 {
	var v uint32
	if b.Primary {
		v |= 1
	}
	if b.Secondary {
		v |= 2
	}
	return v
}

// PointerKind identifies the contact source. Terminal event sources only
// produce mouse contacts; the vocabulary keeps touch and pen for parity
// with the capability schema.
type PointerKind uint8

const (
	PointerMouse PointerKind = iota
	PointerTouch
	PointerPen
)

func (k PointerKind) String() string {
	switch k {
	case PointerMouse:
		return "mouse"
	case PointerTouch:
		return "touch"
	case PointerPen:
		return "pen"
	}
	return "unknown"
}

// PointerEvent is a normalized pointer event in logical coordinates.
// PointerID is stable for the duration of one contact (press to release)
// and is never reused while that contact is active.
type PointerEvent struct {
	Kind      PointerKind
	Position  Vec2
	Buttons   PointerButtons
	Modifiers Modifiers
	PointerID uint64
}

// KeyEvent is a normalized keyboard event. Key is the logical key (UTF-8
// text or a named identifier such as "Enter"); Code is the physical
// identifier as far as the platform reports one.
type KeyEvent struct {
	Key       string
	Code      string
	Modifiers Modifiers
	Repeat    bool
}
