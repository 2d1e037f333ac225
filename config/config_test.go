package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultApiConfig_Valid(t *testing.T) {
	cfg := DefaultApiConfig()
	require.NotNil(t, cfg)
	assert.NoError(t, cfg.Validate())
}

func TestApiConfig_Validate(t *testing.T) {
	t.Run("empty session id", func(t *testing.T) {
		cfg := DefaultApiConfig().WithSessionID("")
		assert.Error(t, cfg.Validate())
	})

	t.Run("invalid port range", func(t *testing.T) {
		cfg := DefaultApiConfig().WithDataPortRange(100, 10)
		assert.Error(t, cfg.Validate())
	})

	t.Run("negative ttl", func(t *testing.T) {
		cfg := DefaultApiConfig().WithMulticastTTL(-1)
		assert.Error(t, cfg.Validate())
	})

	t.Run("bad ipv6 mode", func(t *testing.T) {
		cfg := DefaultApiConfig()
		cfg.IPv6Mode = "maybe"
		assert.Error(t, cfg.Validate())
	})
}

func TestApiConfig_WithChaining(t *testing.T) {
	cfg := DefaultApiConfig().WithSessionID("lab1").WithMulticastTTL(4).WithDataPortRange(17000, 17010)
	assert.Equal(t, "lab1", cfg.SessionID)
	assert.Equal(t, 4, cfg.MulticastTTL)
	assert.Equal(t, 17000, cfg.DataPortRangeStart)
	assert.Equal(t, 17010, cfg.DataPortRangeEnd)
	assert.NoError(t, cfg.Validate())
}

func TestApplyFile_LayersUnderDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lsl.cfg")
	require.NoError(t, os.WriteFile(path, []byte("[lsl]\nsessionid=lab2\nmulticastttl=3\n"), 0o600))

	cfg := DefaultApiConfig()
	require.NoError(t, applyFile(cfg, path))
	assert.Equal(t, "lab2", cfg.SessionID)
	assert.Equal(t, 3, cfg.MulticastTTL)
}

func TestParseDurationEnv(t *testing.T) {
	d, err := ParseDurationEnv("1h30m")
	require.NoError(t, err)
	assert.Equal(t, "1h30m0s", d.String())

	_, err = ParseDurationEnv("not-a-duration")
	assert.Error(t, err)
}
