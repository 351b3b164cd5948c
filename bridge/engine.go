package bridge

import (
	"context"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/errors"
)

// Engine instantiates WebAssembly guests against the capability boundary.
// Each instantiation gets a fresh wazero runtime so a discarded guest
// leaves nothing behind; restart is re-instantiation from scratch.
type Engine struct {
	// MemoryLimitPages caps guest linear memory in 64KiB pages. 0 uses the
	// wazero default.
	MemoryLimitPages uint32
	// CallTimeout is the bounded-execution guard per guest call.
	CallTimeout time.Duration
	Log         *zap.Logger
}

// Instantiate compiles and instantiates guest module bytes, binds the
// capability imports, and verifies the declared interface version. label
// names the source in logs (usually the module path).
func (e *Engine) Instantiate(ctx context.Context, wasmBytes []byte, label string) (*Instance, error) {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}

	cfg := wazero.NewRuntimeConfig().
		// Lets a per-call context deadline terminate a spinning guest.
		WithCloseOnContextDone(true)
	if e.MemoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(e.MemoryLimitPages)
	}

	runtime := wazero.NewRuntimeWithConfig(ctx, cfg)
	host := NewHostContext(log)

	if err := instantiateHostModule(ctx, runtime, host); err != nil {
		runtime.Close(ctx)
		return nil, errors.New(errors.PhaseInstantiate, errors.KindInvalidInput).
			Detail("bind capability imports").Cause(err).Build()
	}

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		runtime.Close(ctx)
		return nil, errors.New(errors.PhaseInstantiate, errors.KindInvalidInput).
			Guest(label).Detail("compile guest module").Cause(err).Build()
	}

	// No WASI is registered: guests have no filesystem, clock, or network.
	// A module importing anything beyond the capability set fails here.
	mod, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().
		WithName("guest").
		WithStartFunctions())
	if err != nil {
		runtime.Close(ctx)
		return nil, errors.New(errors.PhaseInstantiate, errors.KindIncompatibleInterface).
			Guest(label).Detail("instantiate guest module").Cause(err).Build()
	}

	guest, err := newWASMGuest(ctx, runtime, mod, log)
	if err != nil {
		runtime.Close(ctx)
		return nil, err
	}

	return NewInstance(guest, host, label, e.CallTimeout, log), nil
}

// Builtin creates an instance of the built-in counter guest, the fallback
// used when no guest module is supplied.
func (e *Engine) Builtin() *Instance {
	log := e.Log
	if log == nil {
		log = zap.NewNop()
	}
	host := NewHostContext(log)
	return NewInstance(NewCounterGuest(host), host, "builtin", e.CallTimeout, log)
}

func instantiateHostModule(ctx context.Context, runtime wazero.Runtime, host *HostContext) error {
	_, err := runtime.NewHostModuleBuilder(HostModule).
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, r, g, b, a float32) {
			host.Clear(canvas.Color{R: r, G: g, B: b, A: a})
		}).
		Export("clear").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, x, y, w, h, r, g, b, a float32) {
			host.FillRect(canvas.Vec2{X: x, Y: y}, canvas.Vec2{X: w, Y: h},
				canvas.Color{R: r, G: g, B: b, A: a})
		}).
		Export("fill-rect").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, ptr, length uint32, x, y, size, r, g, b, a float32) {
			text, ok := readString(m, ptr, length)
			if !ok {
				host.Log(LogWarn, "draw-text with out-of-range string; dropped")
				return
			}
			host.DrawText(text, canvas.Vec2{X: x, Y: y}, size,
				canvas.Color{R: r, G: g, B: b, A: a})
		}).
		Export("draw-text").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context) {
			host.RequestFrame()
		}).
		Export("request-frame").
		NewFunctionBuilder().
		WithFunc(func(_ context.Context, m api.Module, level, ptr, length uint32) {
			msg, ok := readString(m, ptr, length)
			if !ok {
				host.Log(LogWarn, "log with out-of-range string; dropped")
				return
			}
			host.Log(LogLevel(level), msg)
		}).
		Export("log").
		Instantiate(ctx)
	return err
}

func readString(m api.Module, ptr, length uint32) (string, bool) {
	if length == 0 {
		return "", true
	}
	buf, ok := m.Memory().Read(ptr, length)
	if !ok {
		return "", false
	}
	return string(buf), true
}
