package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/bridge"
	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/config"
	"github.com/frontierui/canvas-host/frame"
	"github.com/frontierui/canvas-host/present/raster"
	"github.com/frontierui/canvas-host/supervisor"
)

// Snapshot surface size, matching the host's default window geometry.
var snapshotSize = canvas.LogicalSize{Width: 900, Height: 600, ScaleFactor: 1}

// runSnapshot renders the guest headless and writes the last frame as a
// PNG: init, then the requested number of frames through the regular
// orchestrator pipeline.
func runSnapshot(ctx context.Context, cfg config.Config, sup *supervisor.Supervisor, outPath string, frames int, logger *zap.Logger) error {
	if frames < 1 {
		frames = 1
	}

	renderer, err := raster.New(snapshotSize, cfg.FontPath, logger)
	if err != nil {
		return err
	}
	defer renderer.Close()

	orch := frame.New(sup, renderer, logger)

	err = sup.Dispatch(ctx, func(inst *bridge.Instance) error {
		res, callErr := inst.CallInit(ctx, snapshotSize)
		if res.RequestedRedraw {
			orch.RequestRedraw()
		}
		return callErr
	})
	if err != nil {
		logger.Warn("guest init faulted; snapshot will show the overlay", zap.Error(err))
	}
	orch.RequestRedraw()

	for i := 0; i < frames; i++ {
		if err := orch.RenderFrame(ctx); err != nil {
			return err
		}
	}

	if err := renderer.WritePNG(outPath); err != nil {
		return err
	}
	fmt.Printf("wrote %d frame(s) to %s\n", frames, outPath)
	return nil
}
