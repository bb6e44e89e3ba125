package literal

import (
	"github.com/coregx/linregex/syntax"
)

// ExtractorConfig configures literal extraction limits.
//
// These limits prevent excessive extraction from complex patterns:
//   - MaxLiterals: prevents memory bloat from alternations like (a|b|c|d|...)
//   - MaxLiteralLen: prevents extracting very long literals that hurt cache locality
//   - MaxClassSize: prevents expanding large character classes like [a-z]
type ExtractorConfig struct {
	// MaxLiterals limits the number of literals in a Seq. Default: 64.
	MaxLiterals int

	// MaxLiteralLen limits the length of each literal. Longer literals are
	// truncated and become incomplete. Default: 64.
	MaxLiteralLen int

	// MaxClassSize limits the size of character classes to expand.
	// Character classes like [abc] are expanded to ["a", "b", "c"].
	// Default: 10.
	MaxClassSize int
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
		MaxClassSize:  10,
	}
}

// maxDepth bounds recursion into nested groups.
const maxDepth = 100

// Extractor extracts literal prefixes from syntax trees.
//
// Literals are byte strings over Latin-1 code units, for searching one-byte
// input. A pattern whose prefix needs a code unit above 0xFF yields no
// literals.
//
// Example:
//
//	re, _ := syntax.Parse("(hello|world)", 0)
//	extractor := literal.New(literal.DefaultConfig())
//	prefixes := extractor.ExtractPrefixes(re)
//	// prefixes = ["hello", "world"]
type Extractor struct {
	config ExtractorConfig
}

// New creates a new Extractor with the given configuration.
func New(config ExtractorConfig) *Extractor {
	return &Extractor{config: config}
}

// ExtractPrefixes returns literals one of which begins every match of re,
// or an empty Seq if no such set is known.
//
// Examples:
//
//	"hello"         → ["hello"]
//	"(foo|bar)"     → ["foo", "bar"]
//	"[abc]test"     → ["atest", "btest", "ctest"]
//	"hello.*world"  → ["hello"] (incomplete)
//	".*foo"         → [] (no prefix requirement)
//	"a?b"           → []
func (e *Extractor) ExtractPrefixes(re *syntax.Regexp) *Seq {
	seq := e.extractPrefixes(re, 0)
	if seq == nil || seq.HasEmpty() {
		return NewSeq()
	}
	seq.Minimize()
	return seq
}

// extractPrefixes returns nil when nothing is known about the prefix.
func (e *Extractor) extractPrefixes(re *syntax.Regexp, depth int) *Seq {
	if depth > maxDepth {
		return nil
	}

	switch re.Op {
	case syntax.OpAtom:
		b := latin1Prefix(re.Units)
		if len(b) == 0 {
			return nil
		}
		return NewSeq(e.truncate(NewLiteral(b, len(b) == len(re.Units))))

	case syntax.OpClassRanges:
		return e.expandClass(re)

	case syntax.OpAlternative, syntax.OpText:
		return e.concat(re.Sub, depth)

	case syntax.OpDisjunction:
		var lits []Literal
		for _, sub := range re.Sub {
			seq := e.extractPrefixes(sub, depth+1)
			if seq == nil {
				return nil
			}
			lits = append(lits, seq.literals...)
			if len(lits) > e.config.MaxLiterals {
				return nil
			}
		}
		return NewSeq(lits...)

	case syntax.OpCapture, syntax.OpGroup:
		return e.extractPrefixes(re.Body(), depth+1)

	case syntax.OpQuantifier:
		if re.Min == 0 {
			return nil
		}
		seq := e.extractPrefixes(re.Body(), depth+1)
		if seq == nil {
			return nil
		}
		if re.Min != 1 || re.Max != 1 {
			seq.makeInexact()
		}
		return seq

	case syntax.OpAssertion, syntax.OpLookaround, syntax.OpEmpty:
		// Zero-width: contributes the empty string.
		return NewSeq(NewLiteral(nil, true))

	default:
		return nil
	}
}

// concat computes the prefixes of a concatenation as the cross product of
// its parts, stopping at the first part that is unknown or once no literal
// can be extended.
func (e *Extractor) concat(subs []*syntax.Regexp, depth int) *Seq {
	acc := NewSeq(NewLiteral(nil, true))
	for _, sub := range subs {
		if !acc.anyComplete() {
			break
		}
		next := e.extractPrefixes(sub, depth+1)
		if next == nil {
			acc.makeInexact()
			break
		}
		var out []Literal
		for _, lit := range acc.literals {
			if !lit.Complete {
				out = append(out, lit)
				continue
			}
			for _, n := range next.literals {
				b := make([]byte, 0, len(lit.Bytes)+len(n.Bytes))
				b = append(append(b, lit.Bytes...), n.Bytes...)
				out = append(out, e.truncate(NewLiteral(b, n.Complete)))
			}
		}
		if len(out) > e.config.MaxLiterals {
			acc.makeInexact()
			break
		}
		acc = NewSeq(out...)
	}
	return acc
}

func (e *Extractor) expandClass(re *syntax.Regexp) *Seq {
	if re.Negated {
		return nil
	}
	var lits []Literal
	for _, r := range syntax.Canonicalize(re.Ranges) {
		if r.Hi > 0xFF || len(lits)+int(r.Hi-r.Lo)+1 > e.config.MaxClassSize {
			return nil
		}
		for c := r.Lo; c <= r.Hi; c++ {
			lits = append(lits, NewLiteral([]byte{byte(c)}, true))
		}
	}
	if len(lits) == 0 {
		return nil
	}
	return NewSeq(lits...)
}

func (e *Extractor) truncate(lit Literal) Literal {
	if len(lit.Bytes) > e.config.MaxLiteralLen {
		return NewLiteral(lit.Bytes[:e.config.MaxLiteralLen], false)
	}
	return lit
}

// latin1Prefix converts the leading code units that fit in a byte.
func latin1Prefix(units []rune) []byte {
	b := make([]byte, 0, len(units))
	for _, u := range units {
		if u < 0 || u > 0xFF {
			break
		}
		b = append(b, byte(u))
	}
	return b
}
