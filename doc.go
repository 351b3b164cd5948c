// Package canvashost is a desktop-style host runtime for sandboxed canvas
// guest components.
//
// A guest is an independently compiled WebAssembly module (or the built-in
// native fallback) driven through a fixed, versioned capability interface.
// The guest never touches the terminal, the filesystem, or the process
// environment; every effect it produces passes through the host's typed
// capability imports.
//
// # Architecture Overview
//
// The repository is organized into packages with distinct responsibilities:
//
//	canvashost/      Root package documentation
//	├── canvas/      Shared value types: geometry, colors, events, draw commands
//	├── errors/      Structured error taxonomy (phase + kind)
//	├── bridge/      Capability Bridge: wazero engine, ABI, host context, guests
//	├── frame/       Frame Orchestrator: redraw coalescing and scene dispatch
//	├── input/       Input Router: terminal events to guest event vocabulary
//	├── supervisor/  Fault Supervisor: trap containment and guest restart
//	├── present/     Presentation contract plus terminal and raster backends
//	├── config/      Host configuration
//	└── cmd/         canvas-host entrypoint
//
// # Control Flow
//
// Platform events and the frame clock feed the Input Router and the Frame
// Orchestrator. Both invoke guest callbacks through the Fault Supervisor via
// the Capability Bridge. Guest calls into host capabilities record draw
// commands into the per-frame command buffer; the orchestrator drains the
// buffer into a scene and hands it to a present.Presenter.
//
// # Fault Containment
//
// Every host-to-guest call returns an error instead of unwinding: a guest
// trap, exit, or exceeded execution guard transitions the supervisor to
// Faulted, suppresses further dispatch, and renders an overlay with the trap
// reason and a restart affordance. Guest faults never terminate the host.
//
// # Concurrency
//
// All guest interaction is single-threaded and cooperative: exactly one
// guest call is in flight at a time, driven by the event loop. The command
// buffer, redraw flag, and focus state are only mutated from that control
// thread.
package canvashost
