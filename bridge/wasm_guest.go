package bridge

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/frontierui/canvas-host/canvas"
	"github.com/frontierui/canvas-host/errors"
)

// Guest export names in the capability interface description.
const (
	exportVersion     = "canvas-abi-version"
	exportAlloc       = "canvas-alloc"
	exportInit        = "init"
	exportResize      = "resize"
	exportPointerDown = "pointer-down"
	exportPointerUp   = "pointer-up"
	exportPointerMove = "pointer-move"
	exportKeyDown     = "key-down"
	exportKeyUp       = "key-up"
	exportFrame       = "frame"
)

// wasmGuest drives a wazero module through the Guest surface. Callbacks
// the module does not export are no-ops; only the version export is
// mandatory. Absence of a handler is never an error.
type wasmGuest struct {
	runtime wazero.Runtime
	mod     api.Module
	alloc   api.Function

	initFn        api.Function
	resizeFn      api.Function
	pointerDownFn api.Function
	pointerUpFn   api.Function
	pointerMoveFn api.Function
	keyDownFn     api.Function
	keyUpFn       api.Function
	frameFn       api.Function

	log *zap.Logger
}

func newWASMGuest(ctx context.Context, runtime wazero.Runtime, mod api.Module, log *zap.Logger) (*wasmGuest, error) {
	versionFn := mod.ExportedFunction(exportVersion)
	if versionFn == nil {
		return nil, errors.IncompatibleInterface("guest does not export %s", exportVersion)
	}
	raw, err := versionFn.Call(ctx)
	if err != nil {
		return nil, errors.New(errors.PhaseInstantiate, errors.KindIncompatibleInterface).
			Detail("query guest interface version").Cause(err).Build()
	}
	if len(raw) != 1 {
		return nil, errors.IncompatibleInterface("%s returned %d results, want 1", exportVersion, len(raw))
	}
	if err := CheckVersion(UnpackVersion(uint32(raw[0]))); err != nil {
		return nil, err
	}

	g := &wasmGuest{
		runtime:       runtime,
		mod:           mod,
		alloc:         mod.ExportedFunction(exportAlloc),
		initFn:        mod.ExportedFunction(exportInit),
		resizeFn:      mod.ExportedFunction(exportResize),
		pointerDownFn: mod.ExportedFunction(exportPointerDown),
		pointerUpFn:   mod.ExportedFunction(exportPointerUp),
		pointerMoveFn: mod.ExportedFunction(exportPointerMove),
		keyDownFn:     mod.ExportedFunction(exportKeyDown),
		keyUpFn:       mod.ExportedFunction(exportKeyUp),
		frameFn:       mod.ExportedFunction(exportFrame),
		log:           log,
	}
	return g, nil
}

func (g *wasmGuest) Init(ctx context.Context, size canvas.LogicalSize) error {
	return g.callSize(ctx, g.initFn, size)
}

func (g *wasmGuest) Resize(ctx context.Context, size canvas.LogicalSize) error {
	return g.callSize(ctx, g.resizeFn, size)
}

func (g *wasmGuest) PointerDown(ctx context.Context, evt canvas.PointerEvent) error {
	return g.callPointer(ctx, g.pointerDownFn, evt)
}

func (g *wasmGuest) PointerUp(ctx context.Context, evt canvas.PointerEvent) error {
	return g.callPointer(ctx, g.pointerUpFn, evt)
}

func (g *wasmGuest) PointerMove(ctx context.Context, evt canvas.PointerEvent) error {
	return g.callPointer(ctx, g.pointerMoveFn, evt)
}

func (g *wasmGuest) KeyDown(ctx context.Context, evt canvas.KeyEvent) error {
	return g.callKey(ctx, g.keyDownFn, evt)
}

func (g *wasmGuest) KeyUp(ctx context.Context, evt canvas.KeyEvent) error {
	return g.callKey(ctx, g.keyUpFn, evt)
}

func (g *wasmGuest) Frame(ctx context.Context, dtMs float32) error {
	if g.frameFn == nil {
		return nil
	}
	_, err := g.frameFn.Call(ctx, uint64(api.EncodeF32(dtMs)))
	return err
}

func (g *wasmGuest) Close(ctx context.Context) error {
	return g.runtime.Close(ctx)
}

func (g *wasmGuest) callSize(ctx context.Context, fn api.Function, size canvas.LogicalSize) error {
	if fn == nil {
		return nil
	}
	_, err := fn.Call(ctx,
		uint64(api.EncodeF32(size.Width)),
		uint64(api.EncodeF32(size.Height)),
		uint64(api.EncodeF32(size.ScaleFactor)),
	)
	return err
}

func (g *wasmGuest) callPointer(ctx context.Context, fn api.Function, evt canvas.PointerEvent) error {
	if fn == nil {
		return nil
	}
	_, err := fn.Call(ctx,
		evt.PointerID,
		uint64(api.EncodeF32(evt.Position.X)),
		uint64(api.EncodeF32(evt.Position.Y)),
		uint64(evt.Buttons.Bits()),
		uint64(evt.Modifiers.Bits()),
	)
	return err
}

func (g *wasmGuest) callKey(ctx context.Context, fn api.Function, evt canvas.KeyEvent) error {
	if fn == nil {
		return nil
	}
	if g.alloc == nil {
		// Without a guest allocator there is no way to hand over the key
		// strings; the guest opted out of keyboard input.
		g.log.Debug("guest has no canvas-alloc export; dropping key event")
		return nil
	}

	keyPtr, keyLen, err := g.writeString(ctx, evt.Key)
	if err != nil {
		return err
	}
	codePtr, codeLen, err := g.writeString(ctx, evt.Code)
	if err != nil {
		return err
	}

	var repeat uint64
	if evt.Repeat {
		repeat = 1
	}
	_, err = fn.Call(ctx,
		uint64(keyPtr), uint64(keyLen),
		uint64(codePtr), uint64(codeLen),
		uint64(evt.Modifiers.Bits()),
		repeat,
	)
	return err
}

// writeString allocates guest memory via canvas-alloc and copies s into
// it. The guest owns the allocation; the flat ABI has no host-side free.
func (g *wasmGuest) writeString(ctx context.Context, s string) (ptr, length uint32, err error) {
	if s == "" {
		return 0, 0, nil
	}
	raw, err := g.alloc.Call(ctx, uint64(len(s)))
	if err != nil {
		return 0, 0, err
	}
	ptr = uint32(raw[0])
	if !g.mod.Memory().Write(ptr, []byte(s)) {
		return 0, 0, errors.New(errors.PhaseEvent, errors.KindInvalidInput).
			Detail("canvas-alloc returned out-of-range pointer %d", ptr).Build()
	}
	return ptr, uint32(len(s)), nil
}
