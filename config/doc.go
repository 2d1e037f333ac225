// Package config holds ApiConfig, the process-wide frozen configuration
// snapshot consumed by the discovery, transport, and queue subsystems.
//
// ApiConfig is loaded once via Load and is immutable afterwards — callers
// that need per-instance overrides should copy DefaultApiConfig() and pass
// the copy explicitly rather than mutating the global snapshot.
package config
