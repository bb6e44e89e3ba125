package nfa

import (
	"fmt"

	"github.com/coregx/linregex/syntax"
)

// MaxReplicationFactor bounds how often the bytecode of any node may be
// replicated by enclosing bounded quantifiers.
const MaxReplicationFactor = 16

// allowedFlags are the flags the breadth-first engine implements.
const allowedFlags = syntax.Global | syntax.Sticky | syntax.Multiline | syntax.DotAll | syntax.Linear

// CanBeHandled reports whether re under flags can be compiled to bytecode.
func CanBeHandled(re *syntax.Regexp, flags syntax.Flags) bool {
	return Check(re, flags) == nil
}

// Check is like CanBeHandled but returns an error wrapping ErrUnsupported
// that names the first construct that prevents compilation.
func Check(re *syntax.Regexp, flags syntax.Flags) error {
	if flags&^allowedFlags != 0 {
		return unsupported("flags %q", (flags &^ allowedFlags).String())
	}
	v := &feasibility{flags: flags, replication: 1}
	return v.visit(re)
}

func unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

type feasibility struct {
	flags       syntax.Flags
	replication int
}

func (v *feasibility) visitAll(subs []*syntax.Regexp) error {
	for _, sub := range subs {
		if err := v.visit(sub); err != nil {
			return err
		}
	}
	return nil
}

func (v *feasibility) visit(re *syntax.Regexp) error {
	switch re.Op {
	case syntax.OpDisjunction, syntax.OpAlternative, syntax.OpText, syntax.OpCapture:
		return v.visitAll(re.Sub)
	case syntax.OpAssertion, syntax.OpAtom, syntax.OpClassRanges, syntax.OpEmpty:
		return nil
	case syntax.OpGroup:
		if re.Flags&^allowedFlags != 0 {
			return unsupported("group flags %q", (re.Flags &^ allowedFlags).String())
		}
		return v.visitAll(re.Sub)
	case syntax.OpQuantifier:
		return v.visitQuantifier(re)
	case syntax.OpLookaround:
		return v.visitLookaround(re)
	case syntax.OpBackReference:
		return unsupported("backreference")
	case syntax.OpClassSetOperand:
		if re.HasStrings() {
			return unsupported("class string disjunction")
		}
		return nil
	case syntax.OpClassSetExpression:
		return unsupported("class set expression")
	default:
		panic("nfa: unknown op " + re.Op.String())
	}
}

func (v *feasibility) visitQuantifier(re *syntax.Regexp) error {
	// Rule out large bounds before the ambient factor so the products
	// below cannot overflow.
	if re.Min > MaxReplicationFactor || (re.Max != syntax.Infinity && re.Max > MaxReplicationFactor) {
		return unsupported("repetition count above %d", MaxReplicationFactor)
	}
	if re.Quantifier == syntax.Possessive {
		return unsupported("possessive quantifier")
	}

	var local int
	switch {
	case re.Max != syntax.Infinity:
		local = re.Max
	case re.Min > 0 && re.MinMatch() > 0:
		// Compiles to min-1 copies plus a loop around one more copy.
		local = max(re.Min, 1)
	default:
		local = re.Min + 1
	}

	saved := v.replication
	v.replication *= local
	if v.replication > MaxReplicationFactor {
		return unsupported("replication factor above %d", MaxReplicationFactor)
	}
	if err := v.visit(re.Body()); err != nil {
		return err
	}
	v.replication = saved
	return nil
}

func (v *feasibility) visitLookaround(re *syntax.Regexp) error {
	if v.flags&(syntax.Global|syntax.Sticky) != 0 {
		return unsupported("lookaround with global or sticky flag")
	}
	if re.Look == syntax.Lookahead {
		return unsupported("lookahead")
	}
	if re.Positive && !re.Body().CaptureRegisters().Empty() {
		return unsupported("capture inside positive lookbehind")
	}
	return v.visit(re.Body())
}
