// Package syntax parses ECMAScript-style regular expressions into the
// abstract syntax tree consumed by the linear-time compiler in package nfa.
//
// The tree mirrors the node kinds of a JavaScript regexp parser rather than
// Go's regexp/syntax: lookarounds, backreferences and modifier groups are
// represented explicitly so that the compiler can decide whether a pattern
// is eligible for breadth-first execution.
package syntax

import (
	"fmt"
	"math"
	"strings"
)

// Infinity is the upper bound of unbounded quantifiers and the maximum
// match length of patterns that can match arbitrarily long input.
const Infinity = math.MaxInt32

// Op identifies the kind of a Regexp node.
type Op uint8

const (
	OpDisjunction        Op = iota + 1 // Sub[0] | Sub[1] | ...
	OpAlternative                      // Sub[0] Sub[1] ... (concatenation)
	OpAssertion                        // zero-width assertion, see Assertion
	OpAtom                             // literal code units in Units
	OpText                             // concatenation of Atom and ClassRanges
	OpQuantifier                       // Sub[0]{Min,Max}
	OpCapture                          // capturing group Index
	OpGroup                            // non-capturing group, possibly with modifiers
	OpLookaround                       // (?=…) (?!…) (?<=…) (?<!…)
	OpBackReference                    // \N or \k<name>
	OpClassRanges                      // [...] as code point ranges
	OpClassSetOperand                  // class set operand (v-mode), may carry strings
	OpClassSetExpression               // class set expression (v-mode)
	OpEmpty                            // matches the empty string
)

var opNames = [...]string{
	OpDisjunction:        "Disjunction",
	OpAlternative:        "Alternative",
	OpAssertion:          "Assertion",
	OpAtom:               "Atom",
	OpText:               "Text",
	OpQuantifier:         "Quantifier",
	OpCapture:            "Capture",
	OpGroup:              "Group",
	OpLookaround:         "Lookaround",
	OpBackReference:      "BackReference",
	OpClassRanges:        "ClassRanges",
	OpClassSetOperand:    "ClassSetOperand",
	OpClassSetExpression: "ClassSetExpression",
	OpEmpty:              "Empty",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("Op(%d)", op)
}

// AssertionType is the kind of a zero-width assertion.
type AssertionType uint8

const (
	StartOfInput AssertionType = iota
	EndOfInput
	StartOfLine
	EndOfLine
	Boundary
	NonBoundary
)

func (a AssertionType) String() string {
	switch a {
	case StartOfInput:
		return "START_OF_INPUT"
	case EndOfInput:
		return "END_OF_INPUT"
	case StartOfLine:
		return "START_OF_LINE"
	case EndOfLine:
		return "END_OF_LINE"
	case Boundary:
		return "BOUNDARY"
	case NonBoundary:
		return "NON_BOUNDARY"
	default:
		return fmt.Sprintf("AssertionType(%d)", a)
	}
}

// QuantifierType selects how a quantifier prefers repetitions.
type QuantifierType uint8

const (
	Greedy QuantifierType = iota
	NonGreedy
	Possessive
)

// LookType distinguishes lookahead from lookbehind.
type LookType uint8

const (
	Lookahead LookType = iota
	Lookbehind
)

// Range is an inclusive code point range.
type Range struct {
	Lo, Hi rune
}

// Regexp is a node of the pattern syntax tree.
//
// Which fields are meaningful depends on Op:
//   - Disjunction, Alternative, Text: Sub
//   - Assertion: Assertion
//   - Atom: Units (UTF-16 code units, or code points in unicode mode)
//   - Quantifier: Sub[0], Min, Max, Quantifier
//   - Capture: Sub[0], Index (1-based), Name
//   - Group: Sub[0], Flags (effective flags inside the group)
//   - Lookaround: Sub[0], Look, Positive, Index (0-based lookaround id)
//   - BackReference: Index, Name
//   - ClassRanges: Ranges, Negated
//   - ClassSetOperand: Ranges, Strings
//   - ClassSetExpression: Sub
type Regexp struct {
	Op         Op
	Sub        []*Regexp
	Units      []rune
	Ranges     []Range
	Strings    []string
	Negated    bool
	Assertion  AssertionType
	Min, Max   int
	Quantifier QuantifierType
	Index      int
	Name       string
	Look       LookType
	Positive   bool
	Flags      Flags
}

// HasStrings reports whether a class set operand contains multi-character
// string members.
func (re *Regexp) HasStrings() bool {
	return len(re.Strings) > 0
}

// Body returns the single child of a Quantifier, Capture, Group or
// Lookaround node.
func (re *Regexp) Body() *Regexp {
	return re.Sub[0]
}

// MinMatch returns the minimum number of code units any match of re
// consumes.
func (re *Regexp) MinMatch() int {
	switch re.Op {
	case OpDisjunction:
		result := Infinity
		for _, sub := range re.Sub {
			result = min(result, sub.MinMatch())
		}
		if len(re.Sub) == 0 {
			return 0
		}
		return result
	case OpAlternative, OpText:
		result := 0
		for _, sub := range re.Sub {
			result = saturatingAdd(result, sub.MinMatch())
		}
		return result
	case OpAtom:
		return len(re.Units)
	case OpClassRanges, OpClassSetOperand, OpClassSetExpression:
		return 1
	case OpQuantifier:
		return saturatingMul(re.Min, re.Body().MinMatch())
	case OpCapture, OpGroup:
		return re.Body().MinMatch()
	case OpAssertion, OpLookaround, OpBackReference, OpEmpty:
		return 0
	default:
		panic("syntax: unknown op " + re.Op.String())
	}
}

// MaxMatch returns the maximum number of code units any match of re
// consumes, or Infinity.
func (re *Regexp) MaxMatch() int {
	switch re.Op {
	case OpDisjunction:
		result := 0
		for _, sub := range re.Sub {
			result = max(result, sub.MaxMatch())
		}
		return result
	case OpAlternative, OpText:
		result := 0
		for _, sub := range re.Sub {
			result = saturatingAdd(result, sub.MaxMatch())
		}
		return result
	case OpAtom:
		return len(re.Units)
	case OpClassRanges:
		return 1
	case OpClassSetOperand, OpClassSetExpression:
		longest := 1
		for _, s := range re.Strings {
			longest = max(longest, len(s))
		}
		return longest
	case OpQuantifier:
		return saturatingMul(re.Max, re.Body().MaxMatch())
	case OpCapture, OpGroup:
		return re.Body().MaxMatch()
	case OpBackReference:
		return Infinity
	case OpAssertion, OpLookaround, OpEmpty:
		return 0
	default:
		panic("syntax: unknown op " + re.Op.String())
	}
}

// IsAnchoredAtStart reports whether every match of re must begin at the
// start of the input.
func (re *Regexp) IsAnchoredAtStart() bool {
	switch re.Op {
	case OpAssertion:
		return re.Assertion == StartOfInput
	case OpAlternative:
		for _, sub := range re.Sub {
			if sub.IsAnchoredAtStart() {
				return true
			}
			if sub.MaxMatch() > 0 {
				return false
			}
		}
		return false
	case OpDisjunction:
		if len(re.Sub) == 0 {
			return false
		}
		for _, sub := range re.Sub {
			if !sub.IsAnchoredAtStart() {
				return false
			}
		}
		return true
	case OpLookaround:
		return re.Positive && re.Look == Lookahead && re.Body().IsAnchoredAtStart()
	case OpCapture, OpGroup:
		return re.Body().IsAnchoredAtStart()
	default:
		return false
	}
}

// Interval is an inclusive range of register indices. The zero-length
// interval is represented by From > To.
type Interval struct {
	From, To int
}

// Empty reports whether the interval contains no registers.
func (iv Interval) Empty() bool {
	return iv.From > iv.To
}

func (iv Interval) union(other Interval) Interval {
	if iv.Empty() {
		return other
	}
	if other.Empty() {
		return iv
	}
	return Interval{From: min(iv.From, other.From), To: max(iv.To, other.To)}
}

var emptyInterval = Interval{From: 0, To: -1}

// StartRegister returns the register holding the start of capture index.
func StartRegister(index int) int { return 2 * index }

// EndRegister returns the register holding the end of capture index.
func EndRegister(index int) int { return 2*index + 1 }

// CaptureRegisters returns the registers written by captures inside re.
func (re *Regexp) CaptureRegisters() Interval {
	result := emptyInterval
	if re.Op == OpCapture {
		result = Interval{From: StartRegister(re.Index), To: EndRegister(re.Index)}
	}
	for _, sub := range re.Sub {
		result = result.union(sub.CaptureRegisters())
	}
	return result
}

// MaxCap returns the highest capture index in re, or 0 if there are none.
func (re *Regexp) MaxCap() int {
	m := 0
	if re.Op == OpCapture {
		m = re.Index
	}
	for _, sub := range re.Sub {
		m = max(m, sub.MaxCap())
	}
	return m
}

// CapNames returns the capture group names indexed by capture index.
// Index 0 (the whole match) and unnamed groups have the empty name.
func (re *Regexp) CapNames() []string {
	names := make([]string, re.MaxCap()+1)
	re.capNames(names)
	return names
}

func (re *Regexp) capNames(names []string) {
	if re.Op == OpCapture {
		names[re.Index] = re.Name
	}
	for _, sub := range re.Sub {
		sub.capNames(names)
	}
}

// LookaroundCount returns one more than the highest lookaround id in re.
func (re *Regexp) LookaroundCount() int {
	n := 0
	if re.Op == OpLookaround {
		n = re.Index + 1
	}
	for _, sub := range re.Sub {
		n = max(n, sub.LookaroundCount())
	}
	return n
}

// String returns a parenthesized dump of the tree, for tests and debugging.
func (re *Regexp) String() string {
	var b strings.Builder
	re.dump(&b)
	return b.String()
}

func (re *Regexp) dump(b *strings.Builder) {
	b.WriteString(re.Op.String())
	switch re.Op {
	case OpAtom:
		fmt.Fprintf(b, "%q", string(re.Units))
	case OpAssertion:
		b.WriteString("{" + re.Assertion.String() + "}")
	case OpClassRanges, OpClassSetOperand:
		b.WriteString("{")
		if re.Negated {
			b.WriteString("^")
		}
		for i, r := range re.Ranges {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(b, "%#x-%#x", r.Lo, r.Hi)
		}
		b.WriteString("}")
	case OpQuantifier:
		hi := "inf"
		if re.Max != Infinity {
			hi = fmt.Sprint(re.Max)
		}
		fmt.Fprintf(b, "{%d,%s", re.Min, hi)
		switch re.Quantifier {
		case NonGreedy:
			b.WriteString(",lazy")
		case Possessive:
			b.WriteString(",possessive")
		}
		b.WriteString("}")
	case OpCapture, OpBackReference:
		fmt.Fprintf(b, "{%d", re.Index)
		if re.Name != "" {
			b.WriteString("," + re.Name)
		}
		b.WriteString("}")
	case OpLookaround:
		kind := "ahead"
		if re.Look == Lookbehind {
			kind = "behind"
		}
		fmt.Fprintf(b, "{%d,%s,%v}", re.Index, kind, re.Positive)
	}
	if len(re.Sub) > 0 {
		b.WriteString("(")
		for i, sub := range re.Sub {
			if i > 0 {
				b.WriteString(" ")
			}
			sub.dump(b)
		}
		b.WriteString(")")
	}
}

func saturatingAdd(a, b int) int {
	if a >= Infinity-b {
		return Infinity
	}
	return a + b
}

func saturatingMul(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a >= Infinity/b {
		return Infinity
	}
	return a * b
}
