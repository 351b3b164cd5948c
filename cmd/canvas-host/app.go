package main

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/bridge"
	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/config"
	"github.com/frontierui/canvas-host/frame"
	"github.com/frontierui/canvas-host/input"
	"github.com/frontierui/canvas-host/present/term"
	"github.com/frontierui/canvas-host/supervisor"
)

type keyMap struct {
	Restart      key.Binding
	ForceRestart key.Binding
	Quit         key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		// The one event type deliverable while the guest is faulted.
		Restart: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "restart guest"),
		),
		ForceRestart: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "restart guest"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// frameTickMsg is the pacing signal: one is armed whenever a frame is
// pending and fires after the configured frame interval.
type frameTickMsg struct{}

// appModel is the event loop: it feeds platform events to the input
// router, paces the frame orchestrator, and shows the renderer's output.
type appModel struct {
	ctx      context.Context
	cfg      config.Config
	sup      *supervisor.Supervisor
	orch     *frame.Orchestrator
	router   *input.Router
	renderer *term.Renderer
	keys     keyMap
	log      *zap.Logger

	size    canvas.LogicalSize
	ready   bool
	ticking bool
	fatal   error
}

func newAppModel(cfg config.Config, sup *supervisor.Supervisor, log *zap.Logger) *appModel {
	renderer := term.New(cfg.CellWidth, cfg.CellHeight)
	orch := frame.New(sup, renderer, log)
	router := input.New(sup, orch, cfg.CellWidth, cfg.CellHeight, log)
	return &appModel{
		ctx:      context.Background(),
		cfg:      cfg,
		sup:      sup,
		orch:     orch,
		router:   router,
		renderer: renderer,
		keys:     defaultKeyMap(),
		log:      log,
	}
}

func (m *appModel) Init() tea.Cmd {
	// A foreground terminal program starts focused; blur events correct
	// this if the terminal reports otherwise.
	m.router.SetFocus(true)
	return nil
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.renderer.SetSize(msg.Width, msg.Height)
		m.size = m.renderer.LogicalSize()
		if !m.ready {
			m.ready = true
			m.deliverInit()
		} else {
			m.deliverResize()
		}
		// The first frame after init/resize is always scheduled.
		m.orch.RequestRedraw()
		return m, m.armTick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.ForceRestart),
			m.sup.State() == supervisor.Faulted && key.Matches(msg, m.keys.Restart):
			m.restart()
			return m, m.armTick()
		}
		m.router.HandleKey(m.ctx, msg)
		return m, m.armTick()

	case tea.MouseMsg:
		m.router.HandleMouse(m.ctx, msg)
		return m, m.armTick()

	case tea.FocusMsg:
		m.router.SetFocus(true)
		return m, nil

	case tea.BlurMsg:
		m.router.SetFocus(false)
		return m, nil

	case frameTickMsg:
		m.ticking = false
		if err := m.orch.RenderFrame(m.ctx); err != nil {
			// Presentation failures are host-fatal; guest faults were
			// already contained inside RenderFrame.
			m.fatal = err
			return m, tea.Quit
		}
		return m, m.armTick()
	}

	return m, nil
}

func (m *appModel) View() string {
	if !m.ready {
		return "starting canvas host..."
	}
	return m.renderer.View()
}

func (m *appModel) deliverInit() {
	m.orch.ResetClock()
	err := m.sup.Dispatch(m.ctx, func(inst *bridge.Instance) error {
		res, callErr := inst.CallInit(m.ctx, m.size)
		if res.RequestedRedraw {
			m.orch.RequestRedraw()
		}
		return callErr
	})
	if err != nil {
		m.log.Error("guest init failed", zap.Error(err))
	}
}

func (m *appModel) deliverResize() {
	err := m.sup.Dispatch(m.ctx, func(inst *bridge.Instance) error {
		res, callErr := inst.CallResize(m.ctx, m.size)
		if res.RequestedRedraw {
			m.orch.RequestRedraw()
		}
		return callErr
	})
	if err != nil {
		m.log.Error("guest resize failed", zap.Error(err))
	}
}

func (m *appModel) restart() {
	if _, err := m.sup.Restart(m.ctx, m.size); err != nil {
		m.log.Warn("restart failed", zap.Error(err))
	}
	m.orch.ResetClock()
	// Either the fresh guest's first frame or an updated overlay.
	m.orch.RequestRedraw()
}

func (m *appModel) armTick() tea.Cmd {
	if m.ticking || !m.orch.Pending() {
		return nil
	}
	m.ticking = true
	return tea.Tick(m.cfg.FrameInterval, func(time.Time) tea.Msg {
		return frameTickMsg{}
	})
}
