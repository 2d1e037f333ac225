package endian

import "math"

// Byte-order tags, matching the wire values of the feed-header
// Native-Byte-Order field (spec §4.7): 1234 is little-endian, 4321 is
// big-endian — the classic "decimal digits read in memory order" trick.
const (
	LittleEndian = 1234
	BigEndian    = 4321
)

// LoadUnsigned reads size bytes (1..8) from b starting at offset 0 as an
// unsigned integer, interpreting b according to order.
func LoadUnsigned(b []byte, size int, order int) uint64 {
	if size < 1 || size > 8 {
		panic("endian: size out of range")
	}
	var v uint64
	if order == LittleEndian {
		for i := size - 1; i >= 0; i-- {
			v = v<<8 | uint64(b[i])
		}
	} else {
		for i := 0; i < size; i++ {
			v = v<<8 | uint64(b[i])
		}
	}
	return v
}

// LoadSigned reads size bytes (1..8) as a signed integer and sign-extends
// the result to int64, matching spec §4.1's 3/5/6/7-byte sign extension
// requirement.
func LoadSigned(b []byte, size int, order int) int64 {
	v := LoadUnsigned(b, size, order)
	signBit := uint64(1) << (uint(size)*8 - 1)
	if v&signBit != 0 {
		// Sign-extend: set all bits above the value's width.
		mask := ^uint64(0) << (uint(size) * 8)
		v |= mask
	}
	return int64(v)
}

// StoreUnsigned writes the low size bytes of v into b, truncating any
// higher bits, in the requested byte order.
func StoreUnsigned(b []byte, size int, order int, v uint64) {
	if size < 1 || size > 8 {
		panic("endian: size out of range")
	}
	if order == LittleEndian {
		for i := 0; i < size; i++ {
			b[i] = byte(v)
			v >>= 8
		}
	} else {
		for i := size - 1; i >= 0; i-- {
			b[i] = byte(v)
			v >>= 8
		}
	}
}

// StoreSigned is StoreUnsigned with an int64 source; the sign bits above
// the target width are simply truncated.
func StoreSigned(b []byte, size int, order int, v int64) {
	StoreUnsigned(b, size, order, uint64(v))
}

// ReverseBytes reverses a byte slice in place and returns it, used for
// the "byte-reverse primitive" spec §4.1 builds every sized load/store on.
func ReverseBytes(b []byte) []byte {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return b
}

// ConditionalReverseUint reverses the low size bytes of x if from != to,
// else returns x unchanged (spec §4.1 conditional_reverse).
func ConditionalReverseUint(x uint64, size int, from, to int) uint64 {
	if from == to {
		return x
	}
	var buf [8]byte
	StoreUnsigned(buf[:size], size, LittleEndian, x)
	ReverseBytes(buf[:size])
	return LoadUnsigned(buf[:size], size, LittleEndian)
}

// ConditionalReverseFloat32 reverses the bytes of f's bit pattern when
// from != to, routing the float through its bit-identical uint32 alias
// as spec §4.1 requires ("floats go through their bit-identical integral
// alias before reversal").
func ConditionalReverseFloat32(f float32, from, to int) float32 {
	if from == to {
		return f
	}
	bits := uint64(math.Float32bits(f))
	reversed := ConditionalReverseUint(bits, 4, from, to)
	return math.Float32frombits(uint32(reversed))
}

// ConditionalReverseFloat64 is ConditionalReverseFloat32 for float64.
func ConditionalReverseFloat64(f float64, from, to int) float64 {
	if from == to {
		return f
	}
	bits := math.Float64bits(f)
	reversed := ConditionalReverseUint(bits, 8, from, to)
	return math.Float64frombits(reversed)
}

// ReverseArray byte-reverses every elemSize-byte element of data in
// place, as required for reversing a vector of numeric samples.
func ReverseArray(data []byte, elemSize int) {
	if elemSize <= 1 {
		return
	}
	for off := 0; off+elemSize <= len(data); off += elemSize {
		ReverseBytes(data[off : off+elemSize])
	}
}

// HasReversalFor reports whether a byte-reversal routine is defined for
// the given value size, per the endian-reversal decision in spec §4.7
// ("a reversal is defined for client_value_size").
func HasReversalFor(size int) bool {
	return size >= 1 && size <= 8
}
