package wire

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/tstenner/liblsl/internal/endian"
	"github.com/tstenner/liblsl/internal/model"
)

// BinaryCodec serializes and parses samples for protocol >= 110: a
// timestamp, the sample payload, in targetOrder, with subnormal
// flushing applied on encode when requested (spec §4.7 "binary
// streambuf with byte-reversal and subnormal flushing"). Every sample
// carries its timestamp; the original protocol's duplicate-timestamp
// elision is a transport-size optimization this core does not need.
type BinaryCodec struct {
	Format       model.ChannelFormat
	ChannelCount int
	TargetOrder  int // endian.LittleEndian or endian.BigEndian
	FlushSubnormals bool
}

const timestampPresentTag = 1

// EncodeSample writes one sample to w in the codec's target byte order.
func (bc *BinaryCodec) EncodeSample(w io.Writer, s model.Sample) error {
	var hdr [9]byte
	hdr[0] = timestampPresentTag
	endian.StoreUnsigned(hdr[1:9], 8, bc.TargetOrder, math.Float64bits(s.Timestamp))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	if s.IsPing {
		return nil
	}
	if bc.Format == model.FormatString {
		values, ok := s.Values.([]string)
		if !ok {
			return fmt.Errorf("wire: expected []string payload for string format")
		}
		for _, v := range values {
			var lenBuf [4]byte
			endian.StoreUnsigned(lenBuf[:], 4, bc.TargetOrder, uint64(len(v)))
			if _, err := w.Write(lenBuf[:]); err != nil {
				return err
			}
			if _, err := io.WriteString(w, v); err != nil {
				return err
			}
		}
		return nil
	}
	return bc.encodeNumeric(w, s.Values)
}

func (bc *BinaryCodec) encodeNumeric(w io.Writer, values any) error {
	width := bc.Format.ByteWidth()
	buf := make([]byte, width)
	switch v := values.(type) {
	case []float32:
		for _, f := range v {
			if bc.FlushSubnormals {
				f = flushSubnormal32(f)
			}
			endian.StoreUnsigned(buf, 4, bc.TargetOrder, uint64(math.Float32bits(f)))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	case []float64:
		for _, f := range v {
			if bc.FlushSubnormals {
				f = flushSubnormal64(f)
			}
			endian.StoreUnsigned(buf, 8, bc.TargetOrder, math.Float64bits(f))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	case []int8:
		for _, n := range v {
			buf[0] = byte(n)
			if _, err := w.Write(buf[:1]); err != nil {
				return err
			}
		}
	case []int16:
		for _, n := range v {
			endian.StoreSigned(buf, 2, bc.TargetOrder, int64(n))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	case []int32:
		for _, n := range v {
			endian.StoreSigned(buf, 4, bc.TargetOrder, int64(n))
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	case []int64:
		for _, n := range v {
			endian.StoreSigned(buf, 8, bc.TargetOrder, n)
			if _, err := w.Write(buf); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("wire: unsupported payload type %T", values)
	}
	return nil
}

// DecodeSample reads one sample from r, using the same target byte
// order and format the corresponding EncodeSample call used.
func (bc *BinaryCodec) DecodeSample(r *bufio.Reader) (model.Sample, error) {
	var hdr [9]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return model.Sample{}, err
	}
	ts := math.Float64frombits(endian.LoadUnsigned(hdr[1:9], 8, bc.TargetOrder))
	s := model.Sample{Timestamp: ts}

	if bc.Format == model.FormatString {
		values := make([]string, bc.ChannelCount)
		for i := range values {
			var lenBuf [4]byte
			if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
				return model.Sample{}, err
			}
			n := endian.LoadUnsigned(lenBuf[:], 4, bc.TargetOrder)
			strBuf := make([]byte, n)
			if _, err := io.ReadFull(r, strBuf); err != nil {
				return model.Sample{}, err
			}
			values[i] = string(strBuf)
		}
		s.Values = values
		return s, nil
	}

	values, err := bc.decodeNumeric(r)
	if err != nil {
		return model.Sample{}, err
	}
	s.Values = values
	return s, nil
}

func (bc *BinaryCodec) decodeNumeric(r *bufio.Reader) (any, error) {
	width := bc.Format.ByteWidth()
	buf := make([]byte, width)
	switch bc.Format {
	case model.FormatFloat32:
		out := make([]float32, bc.ChannelCount)
		for i := range out {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			out[i] = math.Float32frombits(uint32(endian.LoadUnsigned(buf, 4, bc.TargetOrder)))
		}
		return out, nil
	case model.FormatFloat64:
		out := make([]float64, bc.ChannelCount)
		for i := range out {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			out[i] = math.Float64frombits(endian.LoadUnsigned(buf, 8, bc.TargetOrder))
		}
		return out, nil
	case model.FormatInt8:
		out := make([]int8, bc.ChannelCount)
		for i := range out {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			out[i] = int8(buf[0])
		}
		return out, nil
	case model.FormatInt16:
		out := make([]int16, bc.ChannelCount)
		for i := range out {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			out[i] = int16(endian.LoadSigned(buf, 2, bc.TargetOrder))
		}
		return out, nil
	case model.FormatInt32:
		out := make([]int32, bc.ChannelCount)
		for i := range out {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			out[i] = int32(endian.LoadSigned(buf, 4, bc.TargetOrder))
		}
		return out, nil
	case model.FormatInt64:
		out := make([]int64, bc.ChannelCount)
		for i := range out {
			if _, err := io.ReadFull(r, buf); err != nil {
				return nil, err
			}
			out[i] = endian.LoadSigned(buf, 8, bc.TargetOrder)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wire: unsupported format %v", bc.Format)
	}
}

func flushSubnormal32(f float32) float32 {
	bits := math.Float32bits(f)
	exponent := (bits >> 23) & 0xFF
	mantissa := bits & 0x7FFFFF
	if exponent == 0 && mantissa != 0 {
		return 0
	}
	return f
}

func flushSubnormal64(f float64) float64 {
	bits := math.Float64bits(f)
	exponent := (bits >> 52) & 0x7FF
	mantissa := bits & 0xFFFFFFFFFFFFF
	if exponent == 0 && mantissa != 0 {
		return 0
	}
	return f
}
