package wire

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/tstenner/liblsl/internal/endian"
	"github.com/tstenner/liblsl/internal/model"
)

// PortableCodec serializes samples for the legacy protocol 100 ("portable
// archive") path: no byte-order negotiation (everything travels as
// little-endian, the archive's native order) and every numeric channel
// widens to float64 on the wire regardless of its declared format,
// mirroring the original boost::archive::portable_binary_oarchive
// behavior this protocol version grew up with. Newer deployments should
// prefer BinaryCodec; this type exists only so protocol-100 peers are
// still interoperable.
type PortableCodec struct {
	Format       model.ChannelFormat
	ChannelCount int
}

// EncodeSample writes one sample in the protocol-100 wire form.
func (pc *PortableCodec) EncodeSample(w io.Writer, s model.Sample) error {
	var ts [8]byte
	endian.StoreUnsigned(ts[:], 8, endian.LittleEndian, math.Float64bits(s.Timestamp))
	if _, err := w.Write(ts[:]); err != nil {
		return err
	}
	if s.IsPing {
		return nil
	}
	if pc.Format == model.FormatString {
		values, ok := s.Values.([]string)
		if !ok {
			return fmt.Errorf("wire: expected []string payload for string format")
		}
		for _, v := range values {
			var lenBuf [4]byte
			endian.StoreUnsigned(lenBuf[:], 4, endian.LittleEndian, uint64(len(v)))
			if _, err := w.Write(lenBuf[:]); err != nil {
				return err
			}
			if _, err := io.WriteString(w, v); err != nil {
				return err
			}
		}
		return nil
	}
	widened, err := widenToFloat64(pc.Format, s.Values)
	if err != nil {
		return err
	}
	var buf [8]byte
	for _, f := range widened {
		endian.StoreUnsigned(buf[:], 8, endian.LittleEndian, math.Float64bits(f))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSample reads one sample in the protocol-100 wire form. Numeric
// channels always come back widened as float64; callers that need the
// original narrower type are expected to narrow it back down themselves
// (lossily, same as the original protocol-100 peers did).
func (pc *PortableCodec) DecodeSample(r *bufio.Reader) (model.Sample, error) {
	var ts [8]byte
	if _, err := io.ReadFull(r, ts[:]); err != nil {
		return model.Sample{}, err
	}
	s := model.Sample{Timestamp: math.Float64frombits(endian.LoadUnsigned(ts[:], 8, endian.LittleEndian))}

	if pc.Format == model.FormatString {
		values := make([]string, pc.ChannelCount)
		for i := range values {
			var lenBuf [4]byte
			if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
				return model.Sample{}, err
			}
			n := endian.LoadUnsigned(lenBuf[:], 4, endian.LittleEndian)
			strBuf := make([]byte, n)
			if _, err := io.ReadFull(r, strBuf); err != nil {
				return model.Sample{}, err
			}
			values[i] = string(strBuf)
		}
		s.Values = values
		return s, nil
	}

	out := make([]float64, pc.ChannelCount)
	var buf [8]byte
	for i := range out {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return model.Sample{}, err
		}
		out[i] = math.Float64frombits(endian.LoadUnsigned(buf[:], 8, endian.LittleEndian))
	}
	s.Values = out
	return s, nil
}

func widenToFloat64(format model.ChannelFormat, values any) ([]float64, error) {
	switch v := values.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, f := range v {
			out[i] = float64(f)
		}
		return out, nil
	case []int8:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, nil
	case []int16:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, nil
	case []int64:
		out := make([]float64, len(v))
		for i, n := range v {
			out[i] = float64(n)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("wire: unsupported payload type %T for format %v", values, format)
	}
}
