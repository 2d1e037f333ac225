package lsl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstenner/liblsl/config"
	"github.com/tstenner/liblsl/internal/cancelreg"
)

func TestResolver_Resolve_CancelledBeforeStart_ReturnsEmpty(t *testing.T) {
	r := NewResolver(config.DefaultApiConfig(), cancelreg.New())
	r.Cancel()

	out, err := r.Resolve(nil, "type='EEG'", 1, time.Second, 0)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestResolver_ResolveContinuous_CancelledBeforeStart(t *testing.T) {
	r := NewResolver(nil, cancelreg.New())
	r.Cancel()

	err := r.ResolveContinuous(nil, "type='EEG'", time.Second)
	assert.Error(t, err)
}

func TestResolver_NewResolverDoesNotRegisterWithCancelreg(t *testing.T) {
	reg := cancelreg.New()
	_ = NewResolver(nil, reg)
	// NewResolver itself doesn't register anything until an attempt
	// starts; the registry only grows once Resolve/ResolveContinuous runs.
	assert.Equal(t, 0, reg.Len())
}
