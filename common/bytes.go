package common

import "unsafe"

// SliceToBytes reinterprets a slice of fixed-size values as the bytes backing it, for uniform
// buffer writes and typed-array copies.
// The returned slice aliases data: it must not outlive data or be modified.
//
// Parameters:
//   - data: source slice, e.g. []float32 or []int32
//
// Returns:
//   - []byte: byte view of the input in host byte order, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(unsafe.Sizeof(zero))*len(data))
}
