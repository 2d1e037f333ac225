package wire

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseHeader_ModernFields(t *testing.T) {
	raw := "UID: abc-123\r\nByte-Order: 1234\r\nSuppress-Subnormals: true\r\nData-Protocol-Version: 110\r\n\r\n"
	h, err := ParseResponseHeader(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, "abc-123", h.UID)
	assert.Equal(t, 1234, h.ByteOrder)
	assert.True(t, h.SuppressSubnormals)
	assert.Equal(t, 110, h.DataProtocolVersion)
}

func TestParseResponseHeader_UnknownKeysIgnored(t *testing.T) {
	raw := "X-Custom: whatever\r\nUID: u1\r\n\r\n"
	h, err := ParseResponseHeader(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, "u1", h.UID)
}
