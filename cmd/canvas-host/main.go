// Command canvas-host loads a sandboxed canvas guest component and renders
// its output. Without --guest it runs the built-in counter guest.
//
// Guest faults never affect the exit code: they are contained by the fault
// supervisor and shown as an in-window overlay with a restart control.
// Only host-infrastructure failures (bad flags, presentation failures)
// exit non-zero.
package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/frontierui/canvas-host/bridge"
	"github.com/frontierui/canvas-host/config"
	"github.com/frontierui/canvas-host/supervisor"
)

func main() {
	var (
		guestPath    = flag.String("guest", "", "path to a guest component (.wasm); default is the built-in counter")
		configPath   = flag.String("config", "", "path to a yaml config file")
		snapshotPath = flag.String("snapshot", "", "headless mode: render to this PNG and exit")
		frames       = flag.Int("frames", 1, "frames to render in snapshot mode")
		logFile      = flag.String("log-file", "", "host log destination (overrides config)")
	)
	flag.Parse()

	if err := run(*guestPath, *configPath, *snapshotPath, *frames, *logFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(guestPath, configPath, snapshotPath string, frames int, logFile string) error {
	ctx := context.Background()

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}

	headless := snapshotPath != ""
	logger, sync, err := buildLogger(cfg, headless)
	if err != nil {
		return err
	}
	defer sync()

	engine := &bridge.Engine{
		MemoryLimitPages: cfg.GuestMemoryPages,
		CallTimeout:      cfg.CallTimeout,
		Log:              logger,
	}

	sup, err := startSupervisor(ctx, engine, guestPath, logger)
	if err != nil {
		return err
	}
	defer sup.Close(ctx)

	if headless {
		return runSnapshot(ctx, cfg, sup, snapshotPath, frames, logger)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("stdout is not a terminal; use --snapshot for headless rendering")
	}

	model := newAppModel(cfg, sup, logger)
	program := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithReportFocus(),
	)
	final, err := program.Run()
	if err != nil {
		return fmt.Errorf("event loop: %w", err)
	}
	if m, ok := final.(*appModel); ok && m.fatal != nil {
		return m.fatal
	}
	return nil
}

// startSupervisor starts the requested guest. An explicit guest that fails
// to instantiate (incompatible interface, bad module) falls back to the
// built-in guest with a warning; only an unreadable file is a hard error.
func startSupervisor(ctx context.Context, engine *bridge.Engine, guestPath string, logger *zap.Logger) (*supervisor.Supervisor, error) {
	builtin := func(context.Context) (*bridge.Instance, error) {
		return engine.Builtin(), nil
	}

	if guestPath == "" {
		sup := supervisor.New(builtin, logger)
		if err := sup.Start(ctx); err != nil {
			return nil, err
		}
		return sup, nil
	}

	wasmBytes, err := os.ReadFile(guestPath)
	if err != nil {
		return nil, fmt.Errorf("read guest module: %w", err)
	}

	sup := supervisor.New(func(ctx context.Context) (*bridge.Instance, error) {
		return engine.Instantiate(ctx, wasmBytes, guestPath)
	}, logger)
	startErr := sup.Start(ctx)
	if startErr == nil {
		return sup, nil
	}
	logger.Warn("guest failed to start; falling back to built-in guest",
		zap.String("guest", guestPath), zap.Error(startErr))

	sup = supervisor.New(builtin, logger)
	if err := sup.Start(ctx); err != nil {
		return nil, err
	}
	return sup, nil
}

// buildLogger routes host logs away from the screen: in TUI mode the
// terminal belongs to the renderer, so logs go to the configured file.
func buildLogger(cfg config.Config, headless bool) (*zap.Logger, func(), error) {
	if headless {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, nil, err
		}
		return logger, func() { _ = logger.Sync() }, nil
	}

	zcfg := zap.NewProductionConfig()
	zcfg.OutputPaths = []string{cfg.LogFile}
	zcfg.ErrorOutputPaths = []string{cfg.LogFile}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("open log file %s: %w", cfg.LogFile, err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}
