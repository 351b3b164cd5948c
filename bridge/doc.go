// Package bridge implements the capability boundary between the host and a
// guest component.
//
// The boundary is a fixed, versioned interface (Version): a small set of
// host capability imports the guest may call while a host-to-guest call is
// in progress, and a fixed set of guest exports the host invokes. Guests
// come in two forms: a WebAssembly core module executed under wazero, and
// the built-in native counter guest used as the fallback when no module is
// supplied.
//
// HostContext owns the per-frame command buffer and the redraw flag. It is
// phase-gated: drawing capabilities only record during a frame phase;
// out-of-frame draws are logged and dropped. Every host-to-guest call goes
// through Instance, which brackets the call with phase entry/exit so a
// trapping guest can never leave stale commands behind.
package bridge
