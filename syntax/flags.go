package syntax

import (
	"strings"
)

// Flags is a bitmask of regexp flags.
// The zero value corresponds to a pattern with no flags.
type Flags uint16

const (
	Global     Flags = 1 << iota // g
	IgnoreCase                   // i
	Multiline                    // m
	Sticky                       // y
	Unicode                      // u
	DotAll                       // s
	Linear                       // l: request the linear-time engine
)

var flagLetters = []struct {
	flag   Flags
	letter byte
}{
	{Global, 'g'},
	{IgnoreCase, 'i'},
	{Linear, 'l'},
	{Multiline, 'm'},
	{DotAll, 's'},
	{Unicode, 'u'},
	{Sticky, 'y'},
}

// ParseFlags converts a flag string such as "gmy" into Flags.
// Unknown or repeated letters are rejected.
func ParseFlags(s string) (Flags, error) {
	var flags Flags
	for i := 0; i < len(s); i++ {
		f, ok := flagForLetter(s[i])
		if !ok || flags&f != 0 {
			return 0, &Error{Code: ErrInvalidFlags, Expr: s}
		}
		flags |= f
	}
	return flags, nil
}

func flagForLetter(c byte) (Flags, bool) {
	for _, fl := range flagLetters {
		if fl.letter == c {
			return fl.flag, true
		}
	}
	return 0, false
}

// Has reports whether all of want are set.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// String returns the canonical flag string, letters in alphabetical order.
func (f Flags) String() string {
	var b strings.Builder
	for _, fl := range flagLetters {
		if f&fl.flag != 0 {
			b.WriteByte(fl.letter)
		}
	}
	return b.String()
}
