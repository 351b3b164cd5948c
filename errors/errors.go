// Package errors provides the structured error types used across the host.
//
// Every failure is classified by the Phase of the guest lifecycle it
// occurred in and a Kind describing what went wrong. Guest-originated
// failures (traps, timeouts) are ordinary error values; they are
// interpreted into supervisor state transitions exactly once, at the fault
// supervisor, and never unwind as panics.
package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the guest lifecycle the error occurred.
type Phase string

const (
	PhaseInstantiate Phase = "instantiate" // loading and instantiating a guest
	PhaseInit        Phase = "init"        // guest init callback
	PhaseResize      Phase = "resize"      // guest resize callback
	PhaseEvent       Phase = "event"       // pointer/key dispatch
	PhaseFrame       Phase = "frame"       // guest frame callback
	PhasePresent     Phase = "present"     // presentation pipeline
	PhaseDispatch    Phase = "dispatch"    // supervisor gating
)

// Kind categorizes the error.
type Kind string

const (
	// KindIncompatibleInterface: the guest declares a capability-interface
	// version the host cannot serve, or lacks a required export.
	KindIncompatibleInterface Kind = "incompatible_interface"
	// KindGuestTrap: guest execution faulted during a callback.
	KindGuestTrap Kind = "guest_trap"
	// KindTimeout: guest exceeded the bounded-execution guard.
	KindTimeout Kind = "timeout"
	// KindOutOfFrameDraw: drawing capability called outside a frame phase.
	KindOutOfFrameDraw Kind = "out_of_frame_draw"
	// KindPresentation: the presentation layer cannot produce output.
	// Fatal to the host process.
	KindPresentation Kind = "presentation_failure"
	// KindSuppressed: dispatch refused while the supervisor is not Running.
	KindSuppressed Kind = "dispatch_suppressed"
	// KindInvalidInput: malformed host-side input (config, flags, files).
	KindInvalidInput Kind = "invalid_input"
)

// Error is the structured error type used throughout the host.
type Error struct {
	Phase  Phase
	Kind   Kind
	Guest  string // guest identity (instance id or source label), if known
	Detail string
	Cause  error
}

func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Guest != "" {
		b.WriteString(" guest=")
		b.WriteString(e.Guest)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on phase and kind, so sentinel values for a (phase, kind)
// pair work with the standard errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{err: Error{Phase: phase, Kind: kind}}
}

// Guest records the guest identity.
func (b *Builder) Guest(id string) *Builder {
	b.err.Guest = id
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common patterns.

// IncompatibleInterface reports a guest whose declared capability-interface
// version (or export surface) the host cannot serve.
func IncompatibleInterface(detail string, args ...any) *Error {
	return New(PhaseInstantiate, KindIncompatibleInterface).Detail(detail, args...).Build()
}

// Trap wraps an abnormal guest termination during the given phase.
func Trap(phase Phase, guest string, cause error) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindGuestTrap,
		Guest:  guest,
		Detail: "guest call failed",
		Cause:  cause,
	}
}

// Timeout reports a guest call that exceeded the execution guard.
func Timeout(phase Phase, guest string, detail string) *Error {
	return &Error{Phase: phase, Kind: KindTimeout, Guest: guest, Detail: detail}
}

// Presentation reports a presentation-layer failure. These are fatal to the
// host process; they are never attributed to the guest.
func Presentation(cause error, detail string) *Error {
	return &Error{Phase: PhasePresent, Kind: KindPresentation, Detail: detail, Cause: cause}
}

// Suppressed reports dispatch refused while the supervisor is not Running.
func Suppressed(state string) *Error {
	return &Error{Phase: PhaseDispatch, Kind: KindSuppressed, Detail: state}
}

// InvalidInput reports malformed host-side input.
func InvalidInput(detail string, args ...any) *Error {
	return New(PhaseInstantiate, KindInvalidInput).Detail(detail, args...).Build()
}

// IsGuestFault reports whether err is a contained guest-side failure
// (trap or timeout), as opposed to a host-infrastructure failure.
func IsGuestFault(err error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	return e.Kind == KindGuestTrap || e.Kind == KindTimeout
}
