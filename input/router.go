// Package input normalizes terminal events into the guest's event
// vocabulary. The router owns focus state and per-contact pointer
// identity, and dispatches events synchronously, in arrival order, through
// the fault supervisor. Events arriving while the guest is faulted are
// dropped, never buffered for replay.
package input

import (
	"context"
	stderrors "errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/bridge"
	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/errors"
	"github.com/frontierui/canvas-host/frame"
	"github.com/frontierui/canvas-host/supervisor"
)

// ambientContact is the pointer id for unpressed motion: the mouse hover
// pointer that exists between contacts.
const ambientContact uint64 = 0

// Router translates platform events and dispatches them to the guest.
// Single-threaded, driven by the application event loop.
type Router struct {
	sup  *supervisor.Supervisor
	orch *frame.Orchestrator
	log  *zap.Logger

	cellW, cellH float32

	focused    bool
	buttons    canvas.PointerButtons
	contactSeq uint64
	activeID   uint64
}

// New creates a router. cellW/cellH give the logical units per terminal
// cell, matching the presentation geometry.
func New(sup *supervisor.Supervisor, orch *frame.Orchestrator, cellW, cellH float32, log *zap.Logger) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	return &Router{
		sup:   sup,
		orch:  orch,
		log:   log,
		cellW: cellW,
		cellH: cellH,
	}
}

// Focused reports whether the canvas holds keyboard focus.
func (r *Router) Focused() bool { return r.focused }

// SetFocus records a platform focus change. Key events are only delivered
// while focused.
func (r *Router) SetFocus(focused bool) {
	r.focused = focused
}

// HandleMouse routes one mouse event. Pointer events are always delivered
// regardless of focus; a press grants focus before its own delivery.
func (r *Router) HandleMouse(ctx context.Context, msg tea.MouseMsg) {
	mods := canvas.Modifiers{Shift: msg.Shift, Ctrl: msg.Ctrl, Alt: msg.Alt}
	pos := canvas.Vec2{
		X: (float32(msg.X) + 0.5) * r.cellW,
		Y: (float32(msg.Y) + 0.5) * r.cellH,
	}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			r.buttons.Primary = true
		case tea.MouseButtonRight:
			r.buttons.Secondary = true
		default:
			return // wheel and friends are not part of the event vocabulary
		}
		// Clicking the canvas grants focus before the event is delivered.
		r.focused = true
		if r.activeID == ambientContact {
			r.contactSeq++
			r.activeID = r.contactSeq
		}
		evt := r.pointerEvent(pos, mods, r.activeID)
		r.dispatch(ctx, func(inst *bridge.Instance) (bridge.CallResult, error) {
			return inst.CallPointerDown(ctx, evt)
		})

	case tea.MouseActionRelease:
		id := r.activeID
		switch msg.Button {
		case tea.MouseButtonLeft:
			r.buttons.Primary = false
		case tea.MouseButtonRight:
			r.buttons.Secondary = false
		default:
			// Legacy terminals report releases without naming the button;
			// treat those as releasing everything held so the contact
			// cannot leak.
			r.buttons = canvas.PointerButtons{}
		}
		evt := r.pointerEvent(pos, mods, id)
		r.dispatch(ctx, func(inst *bridge.Instance) (bridge.CallResult, error) {
			return inst.CallPointerUp(ctx, evt)
		})
		if !r.buttons.Primary && !r.buttons.Secondary {
			// Contact ended; its id is retired, never reused.
			r.activeID = ambientContact
		}

	case tea.MouseActionMotion:
		evt := r.pointerEvent(pos, mods, r.activeID)
		r.dispatch(ctx, func(inst *bridge.Instance) (bridge.CallResult, error) {
			return inst.CallPointerMove(ctx, evt)
		})
	}
}

// HandleKey routes one key event. Keys are delivered only while the canvas
// holds focus. The terminal reports no key releases, so a release is
// synthesized immediately after each press to keep the guest's held-key
// tracking sound.
func (r *Router) HandleKey(ctx context.Context, msg tea.KeyMsg) {
	if !r.focused {
		r.log.Debug("key event without focus; dropped", zap.String("key", msg.String()))
		return
	}
	evt := NormalizeKey(msg)
	r.dispatch(ctx, func(inst *bridge.Instance) (bridge.CallResult, error) {
		return inst.CallKeyDown(ctx, evt)
	})
	r.dispatch(ctx, func(inst *bridge.Instance) (bridge.CallResult, error) {
		return inst.CallKeyUp(ctx, evt)
	})
}

func (r *Router) pointerEvent(pos canvas.Vec2, mods canvas.Modifiers, id uint64) canvas.PointerEvent {
	return canvas.PointerEvent{
		Kind:      canvas.PointerMouse,
		Position:  pos,
		Buttons:   r.buttons,
		Modifiers: mods,
		PointerID: id,
	}
}

func (r *Router) dispatch(ctx context.Context, call func(*bridge.Instance) (bridge.CallResult, error)) {
	var result bridge.CallResult
	err := r.sup.Dispatch(ctx, func(inst *bridge.Instance) error {
		res, callErr := call(inst)
		result = res
		return callErr
	})
	if err != nil {
		if stderrors.Is(err, errors.Suppressed("")) {
			r.log.Debug("input dropped while guest unavailable")
			return
		}
		// A trap already moved the supervisor to Faulted; request a frame
		// so the overlay paints.
		r.orch.RequestRedraw()
		return
	}
	if result.RequestedRedraw {
		r.orch.RequestRedraw()
	}
}

// NormalizeKey converts a terminal key message to the guest vocabulary.
// Named keys use their capability-schema identifiers ("Enter", "Space",
// "ArrowLeft", ...); text keys carry their UTF-8 text. The terminal
// reports neither physical scancodes nor auto-repeat, so Code mirrors Key
// and Repeat is always false.
func NormalizeKey(msg tea.KeyMsg) canvas.KeyEvent {
	mods := canvas.Modifiers{Alt: msg.Alt}
	var key string

	switch msg.Type {
	case tea.KeyRunes:
		key = string(msg.Runes)
		if key == " " {
			key = "Space"
		}
	case tea.KeySpace:
		key = "Space"
	case tea.KeyEnter:
		key = "Enter"
	case tea.KeyTab:
		key = "Tab"
	case tea.KeyBackspace:
		key = "Backspace"
	case tea.KeyDelete:
		key = "Delete"
	case tea.KeyEsc:
		key = "Escape"
	case tea.KeyUp:
		key = "ArrowUp"
	case tea.KeyDown:
		key = "ArrowDown"
	case tea.KeyLeft:
		key = "ArrowLeft"
	case tea.KeyRight:
		key = "ArrowRight"
	case tea.KeyHome:
		key = "Home"
	case tea.KeyEnd:
		key = "End"
	case tea.KeyPgUp:
		key = "PageUp"
	case tea.KeyPgDown:
		key = "PageDown"
	default:
		s := msg.String()
		if rest, ok := strings.CutPrefix(s, "ctrl+"); ok {
			mods.Ctrl = true
			key = rest
		} else {
			key = s
		}
	}

	return canvas.KeyEvent{Key: key, Code: key, Modifiers: mods}
}
