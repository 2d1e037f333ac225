package lslog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComponent_TagsComponentName(t *testing.T) {
	var buf bytes.Buffer
	orig := Default()
	defer SetDefault(orig)
	SetDefault(New(&buf, slog.LevelDebug))

	Named("discovery").Info("resolved stream", "uid", "abc")

	out := buf.String()
	assert.True(t, strings.Contains(out, "component=discovery"))
	assert.True(t, strings.Contains(out, "resolved stream"))
	assert.True(t, strings.Contains(out, "uid=abc"))
}

func TestComponent_With_AttachesExtraAttrs(t *testing.T) {
	var buf bytes.Buffer
	orig := Default()
	defer SetDefault(orig)
	SetDefault(New(&buf, slog.LevelDebug))

	logger := Named("tcp.session").With("stream_uid", "s1")
	logger.Warn("downgrading protocol")

	out := buf.String()
	assert.True(t, strings.Contains(out, "component=tcp.session"))
	assert.True(t, strings.Contains(out, "stream_uid=s1"))
}

func TestComponent_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(New(&buf, slog.LevelWarn))
	defer SetDefault(New(&bytes.Buffer{}, slog.LevelInfo))

	Named("acceptor").Debug("should not appear")
	assert.Empty(t, buf.String())

	Named("acceptor").Warn("should appear")
	assert.NotEmpty(t, buf.String())
}
