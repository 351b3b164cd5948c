package bridge

import (
	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/canvas"
)

// Phase tracks which host-to-guest call, if any, is in progress. Guest
// capability calls are only meaningful while a call is in progress; the
// phase decides which capabilities are live.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseInit
	PhaseResize
	PhaseEvent
	PhaseFrame
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseInit:
		return "init"
	case PhaseResize:
		return "resize"
	case PhaseEvent:
		return "event"
	case PhaseFrame:
		return "frame"
	}
	return "unknown"
}

func (p Phase) allowsDraw() bool {
	return p == PhaseFrame
}

func (p Phase) allowsRequestFrame() bool {
	return p != PhaseIdle
}

// LogLevel is the guest log severity on the wire.
type LogLevel uint32

const (
	LogTrace LogLevel = iota
	LogDebug
	LogInfo
	LogWarn
	LogError
)

func (l LogLevel) String() string {
	switch l {
	case LogTrace:
		return "TRACE"
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	}
	return "LOG"
}

// recentLogLimit bounds the guest log ring kept for fault reports.
const recentLogLimit = 16

// Imports is the host capability surface exposed to a guest. Only valid
// while a host-to-guest call is in progress.
type Imports interface {
	Clear(color canvas.Color)
	FillRect(origin, size canvas.Vec2, color canvas.Color)
	DrawText(text string, origin canvas.Vec2, size float32, color canvas.Color)
	RequestFrame()
	Log(level LogLevel, message string)
}

// HostContext implements Imports with phase gating. It owns the per-frame
// command buffer and the redraw flag. Mutated only from the single control
// thread that drives guest execution; no locking.
type HostContext struct {
	phase      Phase
	frame      canvas.Frame
	redraw     bool
	recentLogs []string
	log        *zap.Logger
	guestLog   *zap.Logger
}

// NewHostContext creates a host context. A nil logger disables logging.
func NewHostContext(log *zap.Logger) *HostContext {
	if log == nil {
		log = zap.NewNop()
	}
	return &HostContext{
		log:      log,
		guestLog: log.Named("guest"),
	}
}

// EnterPhase marks a host-to-guest call as in progress. Entering the frame
// phase resets the command buffer so each frame call records from scratch.
func (h *HostContext) EnterPhase(p Phase) {
	if p == PhaseFrame {
		h.frame.Clear = nil
		h.frame.Commands = h.frame.Commands[:0]
	}
	h.phase = p
}

// ExitPhase marks the call as finished. Runs on every exit path, trap
// included, so a faulted call never leaves the context mid-phase.
func (h *HostContext) ExitPhase() {
	h.phase = PhaseIdle
}

// TakeFrame drains the recorded frame output, leaving the buffer empty.
func (h *HostContext) TakeFrame() canvas.Frame {
	out := canvas.Frame{Clear: h.frame.Clear}
	if len(h.frame.Commands) > 0 {
		out.Commands = make([]canvas.DrawCommand, len(h.frame.Commands))
		copy(out.Commands, h.frame.Commands)
	}
	h.frame.Clear = nil
	h.frame.Commands = h.frame.Commands[:0]
	return out
}

// TakeRedraw returns and clears the coalesced redraw request. Repeated
// request-frame calls within one guest call collapse to a single true.
func (h *HostContext) TakeRedraw() bool {
	requested := h.redraw
	h.redraw = false
	return requested
}

// RecentLogs returns a snapshot of the guest's recent log lines.
func (h *HostContext) RecentLogs() []string {
	out := make([]string, len(h.recentLogs))
	copy(out, h.recentLogs)
	return out
}

// Clear implements the clear capability.
func (h *HostContext) Clear(color canvas.Color) {
	if !h.phase.allowsDraw() {
		h.warnOutOfFrame("clear")
		return
	}
	c := color
	h.frame.Clear = &c
}

// FillRect implements the fill-rect capability.
func (h *HostContext) FillRect(origin, size canvas.Vec2, color canvas.Color) {
	if !h.phase.allowsDraw() {
		h.warnOutOfFrame("fill-rect")
		return
	}
	h.frame.Commands = append(h.frame.Commands, canvas.FillRect(origin, size, color))
}

// DrawText implements the draw-text capability.
func (h *HostContext) DrawText(text string, origin canvas.Vec2, size float32, color canvas.Color) {
	if !h.phase.allowsDraw() {
		h.warnOutOfFrame("draw-text")
		return
	}
	h.frame.Commands = append(h.frame.Commands, canvas.DrawText(text, origin, size, color))
}

// RequestFrame implements the request-frame capability. Valid during any
// host-to-guest call; repeated requests coalesce.
func (h *HostContext) RequestFrame() {
	if !h.phase.allowsRequestFrame() {
		h.log.Debug("guest requested frame while idle; ignoring")
		return
	}
	h.redraw = true
}

// Log implements the log capability: forwards to the host logger and keeps
// a bounded ring of recent lines for fault reports.
func (h *HostContext) Log(level LogLevel, message string) {
	if len(h.recentLogs) == recentLogLimit {
		copy(h.recentLogs, h.recentLogs[1:])
		h.recentLogs = h.recentLogs[:recentLogLimit-1]
	}
	h.recentLogs = append(h.recentLogs, "["+level.String()+"] "+message)

	switch level {
	case LogTrace, LogDebug:
		h.guestLog.Debug(message)
	case LogInfo:
		h.guestLog.Info(message)
	case LogWarn:
		h.guestLog.Warn(message)
	case LogError:
		h.guestLog.Error(message)
	}
}

// The call is dropped, not buffered: there is no frame to flush it into.
func (h *HostContext) warnOutOfFrame(capability string) {
	h.log.Warn("guest drawing call outside frame phase",
		zap.String("capability", capability),
		zap.String("phase", h.phase.String()),
	)
}
