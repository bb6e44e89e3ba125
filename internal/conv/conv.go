// Package conv provides checked integer conversions.
//
// The functions panic on overflow: a value out of range here means a
// compiler or interpreter invariant was broken, not bad user input.
package conv

import "math"

// IntToUint32 safely converts an int to uint32.
// Panics if n < 0 or n > math.MaxUint32.
//
//go:inline
func IntToUint32(n int) uint32 {
	// Use uint for comparison to avoid overflow on 32-bit platforms
	// where int cannot represent math.MaxUint32
	if n < 0 || uint(n) > math.MaxUint32 {
		panic("integer overflow: int value out of uint32 range")
	}
	return uint32(n)
}

// RuneToUint16 converts a code unit held in a rune to uint16.
// Panics if r is negative or above 0xFFFF.
//
//go:inline
func RuneToUint16(r rune) uint16 {
	if r < 0 || r > math.MaxUint16 {
		panic("integer overflow: rune value out of code unit range")
	}
	return uint16(r)
}
