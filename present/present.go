// Package present defines the contract between the host core and the
// presentation pipeline. The core hands a finished scene (ordered paint
// operations in logical coordinates) to a Presenter once per dispatched
// frame; pacing, surface management, and pixel mapping are the backend's
// concern.
package present

import "github.com/frontierui/canvas-host/canvas"

// Overlay is the fixed fault overlay rendered instead of guest output
// while the supervisor is Faulted.
type Overlay struct {
	Title  string
	Body   []string
	Footer string
}

// Presenter consumes one finished scene per dispatched frame. frame may be
// nil when only the overlay is shown; overlay is nil during normal
// rendering. A Presenter error is a host-infrastructure failure, never a
// guest fault.
type Presenter interface {
	Present(frame *canvas.Frame, overlay *Overlay) error
}
