package lslog

import (
	"io"
	"log/slog"
	"os"
)

var defaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetDefault replaces the logger every Component call builds on top of.
func SetDefault(l *slog.Logger) {
	defaultLogger = l
}

// Default returns the module-wide logger.
func Default() *slog.Logger {
	return defaultLogger
}

// New builds a text-handler logger writing to w at the given level,
// for callers that want their own sink instead of the package default.
func New(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Component returns a logger tagged with "component", reading the
// current default at call time so SetDefault takes effect for loggers
// already handed out.
type Component struct {
	name string
}

// Named returns a Component-tagged logger for the given subsystem, e.g.
// "discovery" or "tcp.session".
func Named(name string) *Component {
	return &Component{name: name}
}

func (c *Component) logger() *slog.Logger {
	return defaultLogger.With("component", c.name)
}

func (c *Component) Debug(msg string, args ...any) { c.logger().Debug(msg, args...) }
func (c *Component) Info(msg string, args ...any)  { c.logger().Info(msg, args...) }
func (c *Component) Warn(msg string, args ...any)  { c.logger().Warn(msg, args...) }
func (c *Component) Error(msg string, args ...any) { c.logger().Error(msg, args...) }

// With returns a slog.Logger carrying both the component tag and the
// given extra attributes, for call sites that want to attach context
// (stream uid, query id) once and reuse the logger across a few lines.
func (c *Component) With(args ...any) *slog.Logger {
	return c.logger().With(args...)
}
