package wire

import (
	"bufio"
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tstenner/liblsl/internal/endian"
	"github.com/tstenner/liblsl/internal/model"
)

func TestBinaryCodec_Float64Roundtrip(t *testing.T) {
	bc := &BinaryCodec{Format: model.FormatFloat64, ChannelCount: 3, TargetOrder: endian.LittleEndian}
	var buf bytes.Buffer
	in := model.Sample{Timestamp: 123.456, Values: []float64{1.5, -2.5, 3.25}}
	require.NoError(t, bc.EncodeSample(&buf, in))

	out, err := bc.DecodeSample(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.InDelta(t, in.Timestamp, out.Timestamp, 1e-9)
	assert.Equal(t, in.Values, out.Values)
}

func TestBinaryCodec_Int16ReversedOrder(t *testing.T) {
	bc := &BinaryCodec{Format: model.FormatInt16, ChannelCount: 2, TargetOrder: endian.BigEndian}
	var buf bytes.Buffer
	in := model.Sample{Timestamp: 1, Values: []int16{-5, 1000}}
	require.NoError(t, bc.EncodeSample(&buf, in))

	out, err := bc.DecodeSample(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, in.Values, out.Values)
}

func TestBinaryCodec_StringChannels(t *testing.T) {
	bc := &BinaryCodec{Format: model.FormatString, ChannelCount: 2, TargetOrder: endian.LittleEndian}
	var buf bytes.Buffer
	in := model.Sample{Timestamp: 42, Values: []string{"hello", ""}}
	require.NoError(t, bc.EncodeSample(&buf, in))

	out, err := bc.DecodeSample(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, in.Values, out.Values)
}

func TestBinaryCodec_PingSampleCarriesNoPayload(t *testing.T) {
	bc := &BinaryCodec{Format: model.FormatFloat32, ChannelCount: 4, TargetOrder: endian.LittleEndian}
	var buf bytes.Buffer
	require.NoError(t, bc.EncodeSample(&buf, model.NewPingSample(99)))
	assert.Equal(t, 9, buf.Len())
}

func TestBinaryCodec_FlushesSubnormalFloats(t *testing.T) {
	bc := &BinaryCodec{Format: model.FormatFloat32, ChannelCount: 1, TargetOrder: endian.LittleEndian, FlushSubnormals: true}
	subnormal := math.Float32frombits(0x00000001)
	var buf bytes.Buffer
	require.NoError(t, bc.EncodeSample(&buf, model.Sample{Timestamp: 0, Values: []float32{subnormal}}))

	out, err := bc.DecodeSample(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, []float32{0}, out.Values)
}

func TestBinaryCodec_PreservesSubnormalWhenNotFlushing(t *testing.T) {
	bc := &BinaryCodec{Format: model.FormatFloat32, ChannelCount: 1, TargetOrder: endian.LittleEndian}
	subnormal := math.Float32frombits(0x00000001)
	var buf bytes.Buffer
	require.NoError(t, bc.EncodeSample(&buf, model.Sample{Timestamp: 0, Values: []float32{subnormal}}))

	out, err := bc.DecodeSample(bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.Equal(t, []float32{subnormal}, out.Values)
}
