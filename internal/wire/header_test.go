package wire

import (
	"bufio"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultFeedHeader(t *testing.T) {
	h := DefaultFeedHeader()
	assert.True(t, h.HasIEEE754Floats)
	assert.True(t, h.SupportsSubnormals)
	assert.False(t, h.Has("value-size"))
}

func TestParseFeedHeader_AllFields(t *testing.T) {
	raw := "Native-Byte-Order: 1234\r\n" +
		"Endian-Performance: 12.5 ; informational\r\n" +
		"Has-IEEE754-Floats: 0\r\n" +
		"Supports-Subnormals: 1\r\n" +
		"Value-Size: 8\r\n" +
		"Max-Buffer-Length: 360\r\n" +
		"Max-Chunk-Length: 128\r\n" +
		"Protocol-Version: 110\r\n" +
		"\r\n"
	h, err := ParseFeedHeader(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, 1234, h.NativeByteOrder)
	assert.InDelta(t, 12.5, h.EndianPerformance, 1e-9)
	assert.False(t, h.HasIEEE754Floats)
	assert.True(t, h.SupportsSubnormals)
	assert.Equal(t, 8, h.ValueSize)
	assert.Equal(t, 360, h.MaxBufferLength)
	assert.Equal(t, 128, h.MaxChunkLength)
	assert.Equal(t, 110, h.ProtocolVersion)
	assert.True(t, h.Has("value-size"))
	assert.True(t, h.Has("VALUE-SIZE"))
}

func TestParseFeedHeader_CaseInsensitiveKeys(t *testing.T) {
	raw := "vALUE-sIZE: 4\r\n\r\n"
	h, err := ParseFeedHeader(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, 4, h.ValueSize)
}

func TestParseFeedHeader_IgnoresMalformedLines(t *testing.T) {
	raw := "not-a-kv-line\r\nValue-Size: 8\r\n\r\n"
	h, err := ParseFeedHeader(bufio.NewReader(strings.NewReader(raw)))
	require.NoError(t, err)
	assert.Equal(t, 8, h.ValueSize)
}

func TestFeedHeader_RenderParseRoundtrip(t *testing.T) {
	h := DefaultFeedHeader()
	h.NativeByteOrder = 1234
	h.ValueSize = 8
	h.MaxBufferLength = 360
	h.MaxChunkLength = 128
	h.ProtocolVersion = 110

	rendered := h.Render()
	parsed, err := ParseFeedHeader(bufio.NewReader(strings.NewReader(rendered)))
	require.NoError(t, err)
	assert.Equal(t, h.NativeByteOrder, parsed.NativeByteOrder)
	assert.Equal(t, h.ValueSize, parsed.ValueSize)
	assert.Equal(t, h.MaxBufferLength, parsed.MaxBufferLength)
	assert.Equal(t, h.MaxChunkLength, parsed.MaxChunkLength)
	assert.Equal(t, h.ProtocolVersion, parsed.ProtocolVersion)
}
