package common

import (
	"encoding/binary"
	"math"
)

// Coalesce returns the first non-zero value from the provided values, or the zero value if all are zero.
//
// Parameters:
//   - values: a variadic list of values to check for non-zero status
//
// Returns:
//   - T: the first non-zero value from the input, or the zero value if all are zero
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// PutFloat32s writes values into buf as little-endian float32s starting at off.
//
// Parameters:
//   - buf: destination byte slice, must hold off + 4*len(values) bytes
//   - off: starting byte offset
//   - values: the floats to write
//
// Returns:
//   - int: the byte offset immediately after the last written value
func PutFloat32s(buf []byte, off int, values ...float32) int {
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v))
		off += 4
	}
	return off
}

// PutUint32s writes values into buf as little-endian uint32s starting at off.
func PutUint32s(buf []byte, off int, values ...uint32) int {
	for _, v := range values {
		binary.LittleEndian.PutUint32(buf[off:], v)
		off += 4
	}
	return off
}

// Float32At reads the little-endian float32 stored at off.
func Float32At(buf []byte, off int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[off:]))
}
