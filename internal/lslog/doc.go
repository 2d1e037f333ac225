// Package lslog provides the module's logging surface: a thin wrapper
// around log/slog that tags every line with the component that emitted
// it, without forcing an interface or dependency injection on callers
// that just want to log.
package lslog
