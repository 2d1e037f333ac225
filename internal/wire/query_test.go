package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryID_Deterministic(t *testing.T) {
	a := QueryID("name='Foo' and type='EEG'")
	b := QueryID("name='Foo' and type='EEG'")
	assert.Equal(t, a, b)
}

func TestBuildParseQuery_Roundtrip(t *testing.T) {
	msg := BuildQuery("type='EEG'", 16572)
	query, recvPort, queryID, err := ParseQuery(msg)
	require.NoError(t, err)
	assert.Equal(t, "type='EEG'", query)
	assert.Equal(t, 16572, recvPort)
	assert.Equal(t, QueryID("type='EEG'"), queryID)
}

func TestParseQuery_RejectsMalformed(t *testing.T) {
	_, _, _, err := ParseQuery([]byte("garbage"))
	assert.Error(t, err)
}

func TestBuildParseResponse_Roundtrip(t *testing.T) {
	msg := BuildResponse("123456", "<info><name>Foo</name></info>")
	id, payload, ok := ParseResponse(msg)
	require.True(t, ok)
	assert.Equal(t, "123456", id)
	assert.Equal(t, "<info><name>Foo</name></info>", payload)
}

func TestParseResponse_NoSeparator(t *testing.T) {
	_, _, ok := ParseResponse([]byte("nosep"))
	assert.False(t, ok)
}
