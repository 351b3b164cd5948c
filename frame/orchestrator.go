// Package frame schedules and dispatches guest frames. The orchestrator
// coalesces redraw requests to at most one pending frame, invokes the
// guest frame callback exactly once per dispatch, drains the command
// buffer into a scene, and hands the scene to the presenter. While the
// guest is faulted it renders a fixed overlay instead.
package frame

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/bridge"
	"github.com/frontierui/canvas-host/errors"
	"github.com/frontierui/canvas-host/present"
	"github.com/frontierui/canvas-host/supervisor"
)

// State is the orchestrator's scheduling state.
type State uint8

const (
	// Idle: no frame obligation outstanding.
	Idle State = iota
	// Requested: a frame is due; waiting on the pacing signal.
	Requested
	// InFlight: the guest frame callback is running.
	InFlight
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requested:
		return "requested"
	case InFlight:
		return "in-flight"
	}
	return "unknown"
}

// Orchestrator drives the per-frame pipeline. Single-threaded; all methods
// must be called from the event loop that owns guest execution.
type Orchestrator struct {
	sup       *supervisor.Supervisor
	presenter present.Presenter
	state     State
	lastFrame time.Time
	haveLast  bool
	log       *zap.Logger
}

// New creates an orchestrator over a supervisor and a presenter.
func New(sup *supervisor.Supervisor, presenter present.Presenter, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{sup: sup, presenter: presenter, log: log}
}

// RequestRedraw notes a redraw obligation. Requests coalesce: no matter
// how often this is called before the next dispatch, exactly one frame is
// scheduled.
func (o *Orchestrator) RequestRedraw() {
	if o.state == Idle {
		o.state = Requested
	}
}

// Pending reports whether a frame is due, i.e. the pacing source should
// deliver a tick.
func (o *Orchestrator) Pending() bool {
	return o.state == Requested
}

// State returns the current scheduling state.
func (o *Orchestrator) State() State { return o.state }

// ResetClock discards the frame-time baseline so the next frame sees
// dt = 0. Used after init and restart.
func (o *Orchestrator) ResetClock() {
	o.haveLast = false
}

// RenderFrame runs one frame in response to a pacing tick. The pending
// obligation is cleared before the guest runs, so request-frame calls made
// during the callback schedule the next frame instead of being lost.
//
// A guest fault is contained here: the overlay is presented and nil is
// returned. A presenter error is returned as a fatal presentation failure.
func (o *Orchestrator) RenderFrame(ctx context.Context) error {
	if o.sup.State() != supervisor.Running {
		// The overlay consumes the obligation like any other frame;
		// otherwise the pacer would keep ticking for a scene that never
		// changes.
		o.state = Idle
		return o.renderOverlay()
	}

	o.state = InFlight
	dt := o.tick()

	var result bridge.FrameResult
	err := o.sup.Dispatch(ctx, func(inst *bridge.Instance) error {
		res, callErr := inst.CallFrame(ctx, dt)
		result = res
		return callErr
	})
	if err != nil {
		// Trap: supervisor is Faulted now, command buffer already drained.
		o.state = Idle
		return o.renderOverlay()
	}

	if perr := o.presenter.Present(&result.Frame, nil); perr != nil {
		o.state = Idle
		return errors.Presentation(perr, "present frame")
	}

	if result.RequestedRedraw {
		o.state = Requested
	} else {
		o.state = Idle
	}
	return nil
}

// renderOverlay presents the fault overlay. The command buffer is not
// touched; the last drained scene stays dropped.
func (o *Orchestrator) renderOverlay() error {
	report := o.sup.Report()
	if perr := o.presenter.Present(nil, OverlayFor(report)); perr != nil {
		return errors.Presentation(perr, "present overlay")
	}
	return nil
}

// OverlayFor builds the fixed fault overlay from a supervisor report.
func OverlayFor(report supervisor.Report) *present.Overlay {
	body := []string{report.Reason}
	if len(report.GuestLogs) > 0 {
		body = append(body, "", "recent guest output:")
		body = append(body, report.GuestLogs...)
	}
	return &present.Overlay{
		Title:  "Guest component faulted",
		Body:   body,
		Footer: "Press r to restart the component",
	}
}

func (o *Orchestrator) tick() float32 {
	now := time.Now()
	var dt float32
	if o.haveLast {
		dt = float32(now.Sub(o.lastFrame).Seconds() * 1000)
	}
	o.lastFrame = now
	o.haveLast = true
	return dt
}
