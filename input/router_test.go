package input

import (
	"context"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/frontierui/canvas-host/bridge"
	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/frame"
	"github.com/frontierui/canvas-host/present"
	"github.com/frontierui/canvas-host/supervisor"
)

// recorded is one delivered guest event.
type recorded struct {
	kind    string
	pointer canvas.PointerEvent
	key     canvas.KeyEvent
}

// recordGuest captures every delivered event in arrival order.
type recordGuest struct {
	imports bridge.Imports
	events  []recorded
	keyErr  error
}

func (g *recordGuest) Init(context.Context, canvas.LogicalSize) error   { return nil }
func (g *recordGuest) Resize(context.Context, canvas.LogicalSize) error { return nil }
func (g *recordGuest) Frame(context.Context, float32) error             { return nil }
func (g *recordGuest) Close(context.Context) error                      { return nil }

func (g *recordGuest) PointerDown(_ context.Context, evt canvas.PointerEvent) error {
	g.events = append(g.events, recorded{kind: "down", pointer: evt})
	return nil
}
func (g *recordGuest) PointerUp(_ context.Context, evt canvas.PointerEvent) error {
	g.events = append(g.events, recorded{kind: "up", pointer: evt})
	return nil
}
func (g *recordGuest) PointerMove(_ context.Context, evt canvas.PointerEvent) error {
	g.events = append(g.events, recorded{kind: "move", pointer: evt})
	return nil
}
func (g *recordGuest) KeyDown(_ context.Context, evt canvas.KeyEvent) error {
	g.events = append(g.events, recorded{kind: "keydown", key: evt})
	return g.keyErr
}
func (g *recordGuest) KeyUp(_ context.Context, evt canvas.KeyEvent) error {
	g.events = append(g.events, recorded{kind: "keyup", key: evt})
	return nil
}

type nopPresenter struct{}

func (nopPresenter) Present(*canvas.Frame, *present.Overlay) error { return nil }

func newRouter(t *testing.T) (*Router, *recordGuest, *frame.Orchestrator, *supervisor.Supervisor) {
	t.Helper()
	var guest *recordGuest
	sup := supervisor.New(func(context.Context) (*bridge.Instance, error) {
		host := bridge.NewHostContext(nil)
		guest = &recordGuest{imports: host}
		return bridge.NewInstance(guest, host, "test", 0, nil), nil
	}, nil)
	if err := sup.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	orch := frame.New(sup, nopPresenter{}, nil)
	return New(sup, orch, 8, 16, nil), guest, orch, sup
}

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func release(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft}
}

func motion(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionMotion, Button: tea.MouseButtonNone}
}

func runesKey(s string) tea.KeyMsg {
	return tea.KeyMsg(tea.Key{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestRouter_ContactIdentity(t *testing.T) {
	r, guest, _, _ := newRouter(t)
	ctx := context.Background()

	r.HandleMouse(ctx, motion(1, 1))
	r.HandleMouse(ctx, press(2, 2))
	r.HandleMouse(ctx, motion(3, 3))
	r.HandleMouse(ctx, release(3, 3))
	r.HandleMouse(ctx, motion(4, 4))
	r.HandleMouse(ctx, press(5, 5))

	kinds := []string{"move", "down", "move", "up", "move", "down"}
	if len(guest.events) != len(kinds) {
		t.Fatalf("delivered %d events, want %d: %+v", len(guest.events), len(kinds), guest.events)
	}
	for i, want := range kinds {
		if guest.events[i].kind != want {
			t.Fatalf("event %d = %s, want %s", i, guest.events[i].kind, want)
		}
	}

	// Hover motion outside a contact uses the ambient id.
	if id := guest.events[0].pointer.PointerID; id != 0 {
		t.Fatalf("ambient motion id = %d, want 0", id)
	}
	// The id is stable from press through drag to release.
	for _, i := range []int{1, 2, 3} {
		if id := guest.events[i].pointer.PointerID; id != 1 {
			t.Fatalf("contact event %d id = %d, want 1", i, id)
		}
	}
	// After release, motion is ambient again and the next contact gets a
	// fresh id.
	if id := guest.events[4].pointer.PointerID; id != 0 {
		t.Fatalf("post-release motion id = %d, want 0", id)
	}
	if id := guest.events[5].pointer.PointerID; id != 2 {
		t.Fatalf("second contact id = %d, want 2 (ids are never reused)", id)
	}
}

func TestRouter_PointerGeometryAndButtons(t *testing.T) {
	r, guest, _, _ := newRouter(t)
	ctx := context.Background()

	r.HandleMouse(ctx, press(4, 2))
	evt := guest.events[0].pointer

	// Cell (4, 2) maps to the logical center of the cell.
	if evt.Position.X != 36 || evt.Position.Y != 40 {
		t.Fatalf("position = (%g, %g), want (36, 40)", evt.Position.X, evt.Position.Y)
	}
	if !evt.Buttons.Primary {
		t.Fatal("press should carry the primary button held")
	}

	r.HandleMouse(ctx, release(4, 2))
	if guest.events[1].pointer.Buttons.Primary {
		t.Fatal("release should carry the primary button cleared")
	}
}

func TestRouter_KeysNeedFocus(t *testing.T) {
	r, guest, _, _ := newRouter(t)
	ctx := context.Background()

	r.SetFocus(false)
	r.HandleKey(ctx, runesKey("a"))
	if len(guest.events) != 0 {
		t.Fatalf("unfocused key was delivered: %+v", guest.events)
	}

	// Clicking the canvas grants focus; keys flow afterwards.
	r.HandleMouse(ctx, press(0, 0))
	r.HandleMouse(ctx, release(0, 0))
	if !r.Focused() {
		t.Fatal("press should grant focus")
	}
	r.HandleKey(ctx, runesKey("a"))

	kinds := []string{"down", "up", "keydown", "keyup"}
	if len(guest.events) != len(kinds) {
		t.Fatalf("delivered %d events, want %d", len(guest.events), len(kinds))
	}
	for i, want := range kinds {
		if guest.events[i].kind != want {
			t.Fatalf("event %d = %s, want %s", i, guest.events[i].kind, want)
		}
	}
	// Terminals report no releases; one is synthesized per press.
	if guest.events[2].key.Key != "a" || guest.events[3].key.Key != "a" {
		t.Fatalf("key pair = %q/%q, want a/a", guest.events[2].key.Key, guest.events[3].key.Key)
	}
}

func TestRouter_AnonymousReleaseEndsContact(t *testing.T) {
	r, guest, _, _ := newRouter(t)
	ctx := context.Background()

	r.HandleMouse(ctx, press(2, 2))
	// Legacy non-SGR terminals report the release with no button name.
	r.HandleMouse(ctx, tea.MouseMsg{X: 2, Y: 2, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})

	up := guest.events[1]
	if up.kind != "up" {
		t.Fatalf("second event = %s, want up", up.kind)
	}
	if up.pointer.PointerID != 1 {
		t.Fatalf("release id = %d, want 1", up.pointer.PointerID)
	}
	if up.pointer.Buttons.Primary || up.pointer.Buttons.Secondary {
		t.Fatalf("anonymous release left buttons held: %+v", up.pointer.Buttons)
	}

	// The contact is retired: later motion is ambient and the next press
	// starts a fresh contact.
	r.HandleMouse(ctx, motion(3, 3))
	if id := guest.events[2].pointer.PointerID; id != 0 {
		t.Fatalf("post-release motion id = %d, want 0", id)
	}
	r.HandleMouse(ctx, press(4, 4))
	if id := guest.events[3].pointer.PointerID; id != 2 {
		t.Fatalf("next contact id = %d, want 2", id)
	}
}

func TestRouter_FaultedGuestDropsInput(t *testing.T) {
	r, guest, orch, sup := newRouter(t)
	ctx := context.Background()

	r.SetFocus(true)
	guest.keyErr = fmt.Errorf("guest exploded")
	r.HandleKey(ctx, runesKey("a"))

	if sup.State() != supervisor.Faulted {
		t.Fatalf("supervisor state = %v, want faulted", sup.State())
	}
	// The overlay still needs a paint.
	if !orch.Pending() {
		t.Fatal("fault should schedule an overlay frame")
	}

	// Later input is dropped, not buffered.
	delivered := len(guest.events)
	r.HandleKey(ctx, runesKey("b"))
	r.HandleMouse(ctx, press(1, 1))
	if len(guest.events) != delivered {
		t.Fatalf("input reached a faulted guest: %+v", guest.events[delivered:])
	}
}

func TestNormalizeKey(t *testing.T) {
	cases := []struct {
		msg  tea.KeyMsg
		want string
	}{
		{runesKey("+"), "+"},
		{runesKey(" "), "Space"},
		{tea.KeyMsg(tea.Key{Type: tea.KeySpace}), "Space"},
		{tea.KeyMsg(tea.Key{Type: tea.KeyEnter}), "Enter"},
		{tea.KeyMsg(tea.Key{Type: tea.KeyEsc}), "Escape"},
		{tea.KeyMsg(tea.Key{Type: tea.KeyUp}), "ArrowUp"},
		{tea.KeyMsg(tea.Key{Type: tea.KeyPgDown}), "PageDown"},
	}
	for _, tc := range cases {
		evt := NormalizeKey(tc.msg)
		if evt.Key != tc.want {
			t.Errorf("NormalizeKey(%v) = %q, want %q", tc.msg, evt.Key, tc.want)
		}
		if evt.Code != evt.Key {
			t.Errorf("code %q should mirror key %q", evt.Code, evt.Key)
		}
		if evt.Repeat {
			t.Error("terminal keys never report repeat")
		}
	}

	alt := tea.KeyMsg(tea.Key{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true})
	if evt := NormalizeKey(alt); !evt.Modifiers.Alt {
		t.Error("alt modifier dropped")
	}
}
