package meta

import (
	"sort"
	"unicode/utf16"
	"unicode/utf8"
)

// Input is a Go string converted to the code units the interpreter reads.
//
// ASCII strings become one-byte inputs whose unit offsets are byte
// offsets. Anything else becomes UTF-16, with a table mapping each unit
// back to the byte offset of the rune it belongs to. Invalid UTF-8 bytes
// decode to U+FFFD one byte at a time.
type Input struct {
	s       string
	bytes   []byte
	units   []uint16
	offsets []int
}

// NewInput converts s.
func NewInput(s string) *Input {
	in := &Input{s: s}
	if isASCII(s) {
		in.bytes = []byte(s)
		return in
	}

	in.units = make([]uint16, 0, len(s))
	in.offsets = make([]int, 0, len(s)+1)
	for i, r := range s {
		n := len(in.units)
		in.units = utf16.AppendRune(in.units, r)
		for range len(in.units) - n {
			in.offsets = append(in.offsets, i)
		}
	}
	in.offsets = append(in.offsets, len(s))
	return in
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// IsOneByte reports whether the input is held as bytes.
func (in *Input) IsOneByte() bool {
	return in.units == nil
}

// Len returns the input length in code units.
func (in *Input) Len() int {
	if in.IsOneByte() {
		return len(in.bytes)
	}
	return len(in.units)
}

// String returns the original string.
func (in *Input) String() string {
	return in.s
}

// StartOffset maps a unit index to a byte offset, rounding down to the
// start of the rune. -1 stays -1.
func (in *Input) StartOffset(unit int) int {
	if unit < 0 || in.IsOneByte() {
		return unit
	}
	return in.offsets[unit]
}

// EndOffset maps a unit index to a byte offset, rounding up to the end of
// the rune when unit falls between the two halves of a surrogate pair.
// -1 stays -1.
func (in *Input) EndOffset(unit int) int {
	if unit <= 0 || in.IsOneByte() {
		return unit
	}
	off := in.offsets[unit]
	if off == in.offsets[unit-1] {
		return in.offsets[unit+1]
	}
	return off
}

// UnitIndex maps a byte offset to the index of the first unit at or after
// it.
func (in *Input) UnitIndex(offset int) int {
	if in.IsOneByte() {
		return offset
	}
	return sort.SearchInts(in.offsets, offset)
}
