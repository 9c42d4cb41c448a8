package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/chewxy/math32"
)

// FloatEpsilon is the tolerance used when comparing lighting parameters between frames.
const FloatEpsilon float32 = 1e-4

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	totalBytes := int(size) * len(data)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), totalBytes)
}

// CeilDiv divides n by d rounding up. Used for workgroup and texel-block counts.
//
// Parameters:
//   - n: the numerator
//   - d: the denominator, must be positive
//
// Returns:
//   - int: ceil(n / d)
func CeilDiv(n, d int) int {
	return (n + d - 1) / d
}

// Clamp restricts v to the closed range [lo, hi].
func Clamp(v, lo, hi float32) float32 {
	return math32.Max(lo, math32.Min(hi, v))
}

// ClampInt restricts v to the closed range [lo, hi].
func ClampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

// Saturate clamps v to [0, 1], matching the WGSL saturate builtin.
func Saturate(v float32) float32 {
	return Clamp(v, 0, 1)
}

// NearlyEqual reports whether a and b differ by less than FloatEpsilon.
func NearlyEqual(a, b float32) bool {
	return math32.Abs(a-b) < FloatEpsilon
}

// PutFloat32s writes values as little-endian float32s into buf starting at offset.
//
// Parameters:
//   - buf: the destination buffer
//   - offset: byte offset of the first value
//   - values: the values to write
func PutFloat32s(buf []byte, offset int, values ...float32) {
	for i, v := range values {
		o := offset + i*4
		binary.LittleEndian.PutUint32(buf[o:o+4], math.Float32bits(v))
	}
}

// PutUint32s writes values as little-endian uint32s into buf starting at offset.
//
// Parameters:
//   - buf: the destination buffer
//   - offset: byte offset of the first value
//   - values: the values to write
func PutUint32s(buf []byte, offset int, values ...uint32) {
	for i, v := range values {
		o := offset + i*4
		binary.LittleEndian.PutUint32(buf[o:o+4], v)
	}
}

// Float32At decodes the little-endian float32 at offset.
func Float32At(buf []byte, offset int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[offset : offset+4]))
}
