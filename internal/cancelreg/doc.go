// Package cancelreg implements the cancellation fabric from spec §4.2: a
// registry of Cancellable handles that can be broadcast-cancelled by any
// owning subsystem. The registry holds ordinary (strong) references until
// Unregister. Register and Unregister are O(1); CancelAll is linear in
// the number of registered handles. All operations are thread-safe,
// idempotent, and never panic.
package cancelreg
