package bridge

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/errors"
)

// Guest is the host-to-guest call surface. Every callback is synchronous:
// the guest runs to completion (or traps) before control returns. A guest
// may no-op any callback; the host always delivers all of them at the
// documented times.
type Guest interface {
	Init(ctx context.Context, size canvas.LogicalSize) error
	Resize(ctx context.Context, size canvas.LogicalSize) error
	PointerDown(ctx context.Context, evt canvas.PointerEvent) error
	PointerUp(ctx context.Context, evt canvas.PointerEvent) error
	PointerMove(ctx context.Context, evt canvas.PointerEvent) error
	KeyDown(ctx context.Context, evt canvas.KeyEvent) error
	KeyUp(ctx context.Context, evt canvas.KeyEvent) error
	Frame(ctx context.Context, dtMs float32) error
	Close(ctx context.Context) error
}

// CallResult is the outcome of a non-frame guest call.
type CallResult struct {
	RequestedRedraw bool
}

// FrameResult is the outcome of a guest frame call: the drained scene plus
// whether the guest scheduled another frame during the call.
type FrameResult struct {
	Frame           canvas.Frame
	RequestedRedraw bool
}

// DefaultCallTimeout is the bounded-execution guard for a single guest
// call. A guest exceeding it is treated as trapped; the only recovery is
// restart.
const DefaultCallTimeout = 2 * time.Second

// Instance is one live guest instantiation bound against the capability
// boundary: the guest, its host context, and an identity for log
// correlation. Owned exclusively by the fault supervisor.
type Instance struct {
	id          uuid.UUID
	host        *HostContext
	guest       Guest
	label       string
	callTimeout time.Duration
	log         *zap.Logger
}

// NewInstance binds a guest against a host context. label names the guest
// source in logs and fault reports ("builtin", a file path, ...).
func NewInstance(guest Guest, host *HostContext, label string, callTimeout time.Duration, log *zap.Logger) *Instance {
	if log == nil {
		log = zap.NewNop()
	}
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	return &Instance{
		id:          uuid.New(),
		host:        host,
		guest:       guest,
		label:       label,
		callTimeout: callTimeout,
		log:         log,
	}
}

// ID returns the instance identity.
func (i *Instance) ID() uuid.UUID { return i.id }

// Label returns the guest source label.
func (i *Instance) Label() string { return i.label }

// RecentGuestLogs returns the guest's recent log lines for fault reports.
func (i *Instance) RecentGuestLogs() []string { return i.host.RecentLogs() }

// Close releases the guest.
func (i *Instance) Close(ctx context.Context) error {
	return i.guest.Close(ctx)
}

// CallInit delivers the init callback with the initial canvas size.
func (i *Instance) CallInit(ctx context.Context, size canvas.LogicalSize) (CallResult, error) {
	return i.invoke(ctx, PhaseInit, errors.PhaseInit, func(ctx context.Context) error {
		return i.guest.Init(ctx, size)
	})
}

// CallResize delivers the resize callback.
func (i *Instance) CallResize(ctx context.Context, size canvas.LogicalSize) (CallResult, error) {
	return i.invoke(ctx, PhaseResize, errors.PhaseResize, func(ctx context.Context) error {
		return i.guest.Resize(ctx, size)
	})
}

// CallPointerDown delivers a pointer press.
func (i *Instance) CallPointerDown(ctx context.Context, evt canvas.PointerEvent) (CallResult, error) {
	return i.invoke(ctx, PhaseEvent, errors.PhaseEvent, func(ctx context.Context) error {
		return i.guest.PointerDown(ctx, evt)
	})
}

// CallPointerUp delivers a pointer release.
func (i *Instance) CallPointerUp(ctx context.Context, evt canvas.PointerEvent) (CallResult, error) {
	return i.invoke(ctx, PhaseEvent, errors.PhaseEvent, func(ctx context.Context) error {
		return i.guest.PointerUp(ctx, evt)
	})
}

// CallPointerMove delivers pointer motion.
func (i *Instance) CallPointerMove(ctx context.Context, evt canvas.PointerEvent) (CallResult, error) {
	return i.invoke(ctx, PhaseEvent, errors.PhaseEvent, func(ctx context.Context) error {
		return i.guest.PointerMove(ctx, evt)
	})
}

// CallKeyDown delivers a key press.
func (i *Instance) CallKeyDown(ctx context.Context, evt canvas.KeyEvent) (CallResult, error) {
	return i.invoke(ctx, PhaseEvent, errors.PhaseEvent, func(ctx context.Context) error {
		return i.guest.KeyDown(ctx, evt)
	})
}

// CallKeyUp delivers a key release.
func (i *Instance) CallKeyUp(ctx context.Context, evt canvas.KeyEvent) (CallResult, error) {
	return i.invoke(ctx, PhaseEvent, errors.PhaseEvent, func(ctx context.Context) error {
		return i.guest.KeyUp(ctx, evt)
	})
}

// CallFrame delivers the frame callback and drains the command buffer.
// The buffer is reset on phase entry and drained on every exit path, so a
// trapping frame never leaves stale commands for the next one.
func (i *Instance) CallFrame(ctx context.Context, dtMs float32) (FrameResult, error) {
	i.host.EnterPhase(PhaseFrame)

	callCtx, cancel := context.WithTimeout(ctx, i.callTimeout)
	err := i.guest.Frame(callCtx, dtMs)
	cancel()

	requested := i.host.TakeRedraw()
	frame := i.host.TakeFrame()
	i.host.ExitPhase()

	if err != nil {
		return FrameResult{}, i.asFault(errors.PhaseFrame, err)
	}
	return FrameResult{Frame: frame, RequestedRedraw: requested}, nil
}

func (i *Instance) invoke(ctx context.Context, phase Phase, errPhase errors.Phase, fn func(context.Context) error) (CallResult, error) {
	i.host.EnterPhase(phase)

	callCtx, cancel := context.WithTimeout(ctx, i.callTimeout)
	err := fn(callCtx)
	cancel()

	requested := i.host.TakeRedraw()
	i.host.ExitPhase()

	if err != nil {
		return CallResult{}, i.asFault(errPhase, err)
	}
	return CallResult{RequestedRedraw: requested}, nil
}

func (i *Instance) asFault(phase errors.Phase, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.Timeout(phase, i.id.String(),
			"guest exceeded execution guard of "+i.callTimeout.String())
	}
	return errors.Trap(phase, i.id.String(), err)
}
