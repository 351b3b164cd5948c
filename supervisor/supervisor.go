// Package supervisor contains guest faults. Every host-to-guest call is
// dispatched through it: a trap or exceeded execution guard moves the
// supervisor to Faulted, discards the instance, and suppresses further
// dispatch until a restart re-instantiates the guest from scratch. Guest
// faults never propagate as host-level failures.
package supervisor

import (
	"context"

	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/bridge"
	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/errors"
)

// State governs whether guest invocations are permitted.
type State uint8

const (
	Running State = iota
	Faulted
	Restarting
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Faulted:
		return "faulted"
	case Restarting:
		return "restarting"
	}
	return "unknown"
}

// Factory re-instantiates the guest. Called once at start and once per
// restart; each call must produce a fresh instance.
type Factory func(ctx context.Context) (*bridge.Instance, error)

// Report is the user-visible fault state rendered in the overlay.
type Report struct {
	State      State
	Reason     string
	InstanceID string
	GuestLogs  []string
}

// Supervisor owns the live guest instance and its lifecycle.
type Supervisor struct {
	factory Factory
	inst    *bridge.Instance
	state   State
	reason  string
	logs    []string
	log     *zap.Logger
}

// New creates a supervisor around a guest factory. Call Start before
// dispatching.
func New(factory Factory, log *zap.Logger) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Supervisor{
		factory: factory,
		state:   Faulted,
		reason:  "guest not started",
		log:     log,
	}
}

// Start performs the initial instantiation. Unlike Restart, a failure here
// is returned to the caller so it can fall back to another guest source.
func (s *Supervisor) Start(ctx context.Context) error {
	inst, err := s.factory(ctx)
	if err != nil {
		s.state = Faulted
		s.reason = err.Error()
		return err
	}
	s.inst = inst
	s.state = Running
	s.reason = ""
	s.logs = nil
	s.log.Info("guest started",
		zap.String("instance", inst.ID().String()),
		zap.String("source", inst.Label()),
	)
	return nil
}

// State returns the current supervisor state.
func (s *Supervisor) State() State { return s.state }

// Instance returns the live instance, or nil when not Running.
func (s *Supervisor) Instance() *bridge.Instance {
	if s.state != Running {
		return nil
	}
	return s.inst
}

// Report snapshots the fault state for the overlay.
func (s *Supervisor) Report() Report {
	r := Report{State: s.state, Reason: s.reason}
	if s.inst != nil {
		r.InstanceID = s.inst.ID().String()
	}
	r.GuestLogs = append(r.GuestLogs, s.logs...)
	return r
}

// Dispatch runs one host-to-guest call. While not Running every call is
// refused with a suppressed error; a guest fault during the call moves the
// supervisor to Faulted and the error is returned for the caller to treat
// as contained.
func (s *Supervisor) Dispatch(ctx context.Context, call func(inst *bridge.Instance) error) error {
	if s.state != Running {
		return errors.Suppressed(s.state.String())
	}
	err := call(s.inst)
	if err != nil {
		s.fault(ctx, err)
	}
	return err
}

// Restart discards the current instance, re-instantiates via the factory,
// and on success delivers init exactly once. The returned redraw flag
// schedules the first frame. A failed restart keeps the supervisor
// Faulted with an updated reason; it is never fatal to the host.
func (s *Supervisor) Restart(ctx context.Context, size canvas.LogicalSize) (redraw bool, err error) {
	s.state = Restarting
	if s.inst != nil {
		if cerr := s.inst.Close(ctx); cerr != nil {
			s.log.Warn("closing faulted guest", zap.Error(cerr))
		}
		s.inst = nil
	}

	inst, err := s.factory(ctx)
	if err != nil {
		s.state = Faulted
		s.reason = "restart failed: " + err.Error()
		s.log.Error("guest restart failed", zap.Error(err))
		return false, err
	}

	s.inst = inst
	s.state = Running
	s.reason = ""
	s.logs = nil
	s.log.Info("guest restarted", zap.String("instance", inst.ID().String()))

	res, err := inst.CallInit(ctx, size)
	if err != nil {
		s.fault(ctx, err)
		return false, err
	}
	return res.RequestedRedraw, nil
}

func (s *Supervisor) fault(ctx context.Context, cause error) {
	s.state = Faulted
	s.reason = cause.Error()
	s.logs = s.inst.RecentGuestLogs()
	s.log.Error("guest faulted",
		zap.String("instance", s.inst.ID().String()),
		zap.Error(cause),
	)
	if cerr := s.inst.Close(ctx); cerr != nil {
		s.log.Warn("closing faulted guest", zap.Error(cerr))
	}
}

// Close releases the guest if one is live.
func (s *Supervisor) Close(ctx context.Context) error {
	if s.inst == nil {
		return nil
	}
	inst := s.inst
	s.inst = nil
	s.state = Faulted
	s.reason = "guest closed"
	return inst.Close(ctx)
}
