package nfa

import (
	"github.com/coregx/linregex/syntax"
)

// Char is a code unit of the input: a byte for one-byte (Latin-1) input or
// a UTF-16 code unit.
type Char interface {
	~uint8 | ~uint16
}

func satisfiesAssertion[C Char](kind syntax.AssertionType, input []C, pos int) bool {
	switch kind {
	case syntax.StartOfInput:
		return pos == 0
	case syntax.EndOfInput:
		return pos == len(input)
	case syntax.StartOfLine:
		return pos == 0 || syntax.IsLineTerminator(rune(input[pos-1]))
	case syntax.EndOfLine:
		return pos == len(input) || syntax.IsLineTerminator(rune(input[pos]))
	case syntax.Boundary:
		return isWordBoundary(input, pos)
	case syntax.NonBoundary:
		return !isWordBoundary(input, pos)
	default:
		panic("nfa: unknown assertion " + kind.String())
	}
}

func isWordBoundary[C Char](input []C, pos int) bool {
	switch {
	case len(input) == 0:
		return false
	case pos == 0:
		return syntax.IsWordChar(rune(input[0]))
	case pos == len(input):
		return syntax.IsWordChar(rune(input[pos-1]))
	default:
		return syntax.IsWordChar(rune(input[pos-1])) != syntax.IsWordChar(rune(input[pos]))
	}
}
