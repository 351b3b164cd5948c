package supervisor

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/frontierui/canvas-host/bridge"
	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/errors"
)

// testGuest counts lifecycle calls and traps on demand.
type testGuest struct {
	imports bridge.Imports
	inits   int
	closed  bool
	keyErr  error
}

func (g *testGuest) Init(_ context.Context, _ canvas.LogicalSize) error {
	g.inits++
	g.imports.Log(bridge.LogInfo, "guest up")
	g.imports.RequestFrame()
	return nil
}
func (g *testGuest) Resize(context.Context, canvas.LogicalSize) error       { return nil }
func (g *testGuest) PointerDown(context.Context, canvas.PointerEvent) error { return nil }
func (g *testGuest) PointerUp(context.Context, canvas.PointerEvent) error   { return nil }
func (g *testGuest) PointerMove(context.Context, canvas.PointerEvent) error { return nil }
func (g *testGuest) KeyDown(context.Context, canvas.KeyEvent) error         { return g.keyErr }
func (g *testGuest) KeyUp(context.Context, canvas.KeyEvent) error           { return nil }
func (g *testGuest) Frame(context.Context, float32) error                   { return nil }
func (g *testGuest) Close(context.Context) error {
	g.closed = true
	return nil
}

// harness tracks every guest the factory produced.
type harness struct {
	guests     []*testGuest
	factoryErr error
}

func (h *harness) factory(context.Context) (*bridge.Instance, error) {
	if h.factoryErr != nil {
		return nil, h.factoryErr
	}
	host := bridge.NewHostContext(nil)
	g := &testGuest{imports: host}
	h.guests = append(h.guests, g)
	return bridge.NewInstance(g, host, "test", 0, nil), nil
}

func (h *harness) current() *testGuest {
	return h.guests[len(h.guests)-1]
}

func keyDown(ctx context.Context, key string) func(*bridge.Instance) error {
	return func(inst *bridge.Instance) error {
		_, err := inst.CallKeyDown(ctx, canvas.KeyEvent{Key: key})
		return err
	}
}

func TestSupervisor_SuppressesBeforeStart(t *testing.T) {
	h := &harness{}
	sup := New(h.factory, nil)
	ctx := context.Background()

	if sup.State() != Faulted {
		t.Fatalf("state before start = %v, want faulted", sup.State())
	}
	err := sup.Dispatch(ctx, keyDown(ctx, "a"))
	if !stderrors.Is(err, errors.Suppressed("")) {
		t.Fatalf("dispatch before start = %v, want suppressed", err)
	}
	if len(h.guests) != 0 {
		t.Fatal("factory ran before Start")
	}
}

func TestSupervisor_FaultContainsAndSuppresses(t *testing.T) {
	h := &harness{}
	sup := New(h.factory, nil)
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if sup.State() != Running {
		t.Fatalf("state after start = %v, want running", sup.State())
	}

	// Seed a guest log line, then trap.
	if _, err := sup.Instance().CallInit(ctx, canvas.LogicalSize{Width: 100, Height: 100}); err != nil {
		t.Fatalf("init: %v", err)
	}
	h.current().keyErr = fmt.Errorf("guest exploded")
	err := sup.Dispatch(ctx, keyDown(ctx, "a"))
	if err == nil {
		t.Fatal("expected the trap to surface")
	}
	if !errors.IsGuestFault(err) {
		t.Fatalf("fault not classified: %v", err)
	}

	if sup.State() != Faulted {
		t.Fatalf("state after trap = %v, want faulted", sup.State())
	}
	if !h.current().closed {
		t.Fatal("faulted guest was not closed")
	}
	if sup.Instance() != nil {
		t.Fatal("faulted supervisor still hands out an instance")
	}

	report := sup.Report()
	if report.Reason == "" {
		t.Fatal("fault report has no reason")
	}
	var sawLog bool
	for _, line := range report.GuestLogs {
		if strings.Contains(line, "guest up") {
			sawLog = true
		}
	}
	if !sawLog {
		t.Fatalf("fault report missing guest logs: %v", report.GuestLogs)
	}

	// Everything after the fault is refused until restart.
	err = sup.Dispatch(ctx, keyDown(ctx, "b"))
	if !stderrors.Is(err, errors.Suppressed("")) {
		t.Fatalf("dispatch while faulted = %v, want suppressed", err)
	}
}

func TestSupervisor_RestartDeliversInitOnce(t *testing.T) {
	h := &harness{}
	sup := New(h.factory, nil)
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.current().keyErr = fmt.Errorf("guest exploded")
	_ = sup.Dispatch(ctx, keyDown(ctx, "a"))

	redraw, err := sup.Restart(ctx, canvas.LogicalSize{Width: 100, Height: 100, ScaleFactor: 1})
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if sup.State() != Running {
		t.Fatalf("state after restart = %v, want running", sup.State())
	}
	if !redraw {
		t.Fatal("restart should carry the fresh guest's redraw request")
	}
	if len(h.guests) != 2 {
		t.Fatalf("factory ran %d times, want 2", len(h.guests))
	}
	if h.current().inits != 1 {
		t.Fatalf("fresh guest saw %d init calls, want exactly 1", h.current().inits)
	}
	if h.guests[0].inits != 0 {
		t.Fatalf("old guest received init after being discarded")
	}
}

func TestSupervisor_FailedRestartStaysFaulted(t *testing.T) {
	h := &harness{}
	sup := New(h.factory, nil)
	ctx := context.Background()

	if err := sup.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	h.factoryErr = fmt.Errorf("module vanished")

	if _, err := sup.Restart(ctx, canvas.LogicalSize{Width: 100, Height: 100}); err == nil {
		t.Fatal("expected restart failure")
	}
	if sup.State() != Faulted {
		t.Fatalf("state after failed restart = %v, want faulted", sup.State())
	}
	if report := sup.Report(); !strings.Contains(report.Reason, "restart failed") {
		t.Fatalf("reason = %q, want restart failure", report.Reason)
	}

	// The failure is contained; a later restart can still succeed.
	h.factoryErr = nil
	if _, err := sup.Restart(ctx, canvas.LogicalSize{Width: 100, Height: 100}); err != nil {
		t.Fatalf("recovery restart: %v", err)
	}
	if sup.State() != Running {
		t.Fatalf("state after recovery = %v, want running", sup.State())
	}
}
