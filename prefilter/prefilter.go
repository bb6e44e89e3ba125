// Package prefilter provides fast candidate filtering for regex search using
// extracted literal sequences.
//
// A prefilter rejects positions in the haystack that cannot begin a match.
// The search engine asks it for the next candidate and resumes its automaton
// there instead of stepping over every position in between.
//
// The package selects a strategy from the extracted literals:
//   - Single byte → memchr
//   - Single substring, or several literals sharing a long prefix → memmem
//   - Several literals → Aho-Corasick automaton
//
// Example usage:
//
//	re, _ := syntax.Parse("(hello|world)", 0)
//	prefixes := literal.New(literal.DefaultConfig()).ExtractPrefixes(re)
//	pf := prefilter.NewBuilder(prefixes).Build()
//
//	haystack := []byte("foo hello bar world baz")
//	pos := pf.Find(haystack, 0)
//	// pos == 4 (position of "hello")
package prefilter

import (
	"bytes"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/linregex/literal"
)

// minSharedPrefix is the shortest common prefix worth searching for with
// memmem instead of building an automaton over all literals.
const minSharedPrefix = 3

// Prefilter is used to quickly find candidate match positions before running
// the full regex engine.
type Prefilter interface {
	// Find returns the index of the first candidate match starting at or after
	// 'start', or -1 if no candidate is found.
	//
	// A candidate is a position where one of the prefilter literals occurs.
	// It does not guarantee a match; the caller verifies it with the engine.
	Find(haystack []byte, start int) int

	// IsComplete returns true if a prefilter match guarantees a full regex match.
	IsComplete() bool

	// LiteralLen returns the length of the matched literal when IsComplete()
	// is true, or 0 when the prefilter matches variable lengths.
	LiteralLen() int

	// HeapBytes returns the number of bytes of heap memory used by this prefilter.
	HeapBytes() int
}

// Builder constructs a prefilter from extracted prefix literals.
//
// Example:
//
//	builder := prefilter.NewBuilder(prefixes)
//	if pf := builder.Build(); pf != nil {
//	    pos := pf.Find(haystack, 0)
//	}
type Builder struct {
	prefixes *literal.Seq
}

// NewBuilder creates a new prefilter builder. prefixes may be nil.
func NewBuilder(prefixes *literal.Seq) *Builder {
	return &Builder{prefixes: prefixes}
}

// Build constructs the best prefilter for the given literals.
//
// Returns nil if no prefilter can be built: there are no literals, one of
// them is empty, or the automaton fails to build.
func (b *Builder) Build() Prefilter {
	seq := b.prefixes
	if seq.IsEmpty() || seq.HasEmpty() {
		return nil
	}

	if seq.Len() == 1 {
		lit := seq.Get(0)
		if len(lit.Bytes) == 1 {
			return newMemchrPrefilter(lit.Bytes[0], lit.Complete)
		}
		return newMemmemPrefilter(lit.Bytes, lit.Complete)
	}

	if lcp := seq.LongestCommonPrefix(); len(lcp) >= minSharedPrefix {
		return newMemmemPrefilter(lcp, false)
	}

	pf, err := newAhoCorasickPrefilter(seq)
	if err != nil {
		return nil
	}
	return pf
}

// memchrPrefilter searches for a single byte.
//
// Example patterns:
//
//	/a.*/         → search for 'a'
//	/x+y/         → search for 'x'
type memchrPrefilter struct {
	needle   byte
	complete bool
}

func newMemchrPrefilter(needle byte, complete bool) Prefilter {
	return &memchrPrefilter{
		needle:   needle,
		complete: complete,
	}
}

// Find implements Prefilter.Find using bytes.IndexByte.
func (p *memchrPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}

	idx := bytes.IndexByte(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memchrPrefilter) IsComplete() bool {
	return p.complete
}

// LiteralLen implements Prefilter.LiteralLen.
func (p *memchrPrefilter) LiteralLen() int {
	if p.complete {
		return 1
	}
	return 0
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *memchrPrefilter) HeapBytes() int {
	return 0
}

// memmemPrefilter searches for a single substring.
//
// Example patterns:
//
//	/hello/       → search for "hello"
//	/foo|foobar/  → after minimization → search for "foo"
//	/prefix.*/    → search for "prefix"
type memmemPrefilter struct {
	needle   []byte
	complete bool
}

// newMemmemPrefilter copies needle to prevent aliasing.
func newMemmemPrefilter(needle []byte, complete bool) Prefilter {
	needleCopy := make([]byte, len(needle))
	copy(needleCopy, needle)

	return &memmemPrefilter{
		needle:   needleCopy,
		complete: complete,
	}
}

// Find implements Prefilter.Find using bytes.Index.
func (p *memmemPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}

	idx := bytes.Index(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memmemPrefilter) IsComplete() bool {
	return p.complete
}

// LiteralLen implements Prefilter.LiteralLen.
func (p *memmemPrefilter) LiteralLen() int {
	if p.complete {
		return len(p.needle)
	}
	return 0
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *memmemPrefilter) HeapBytes() int {
	return len(p.needle)
}

// ahoCorasickPrefilter searches for any of several literals at once.
//
// Example patterns:
//
//	/foo|bar|baz/    → search for "foo", "bar" or "baz"
//	/[xyz]\d+/       → search for 'x', 'y' or 'z'
type ahoCorasickPrefilter struct {
	auto     *ahocorasick.Automaton
	complete bool
	litLen   int
	maxLen   int
	size     int
}

func newAhoCorasickPrefilter(seq *literal.Seq) (Prefilter, error) {
	builder := ahocorasick.NewBuilder()
	p := &ahoCorasickPrefilter{complete: seq.AllComplete()}
	for i := 0; i < seq.Len(); i++ {
		lit := seq.Get(i)
		builder.AddPattern(lit.Bytes)
		p.size += len(lit.Bytes)
		p.maxLen = max(p.maxLen, len(lit.Bytes))
		switch {
		case i == 0:
			p.litLen = len(lit.Bytes)
		case p.litLen != len(lit.Bytes):
			p.litLen = 0
		}
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	p.auto = auto
	return p, nil
}

// Find implements Prefilter.Find.
//
// The automaton reports the occurrence that ends first. A literal starting
// before it ends after it, so it starts within maxLen of m.End; those
// positions are checked one by one.
func (p *ahoCorasickPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	for at := max(start, m.End-p.maxLen+1); at < m.Start; at++ {
		if p.auto.FindAt(haystack, at) != nil {
			return at
		}
	}
	return m.Start
}

// IsComplete implements Prefilter.IsComplete.
func (p *ahoCorasickPrefilter) IsComplete() bool {
	return p.complete
}

// LiteralLen implements Prefilter.LiteralLen. Only literals of one length
// give a fixed match length.
func (p *ahoCorasickPrefilter) LiteralLen() int {
	if p.complete {
		return p.litLen
	}
	return 0
}

// HeapBytes implements Prefilter.HeapBytes. It counts the pattern bytes;
// the automaton's own tables are not visible.
func (p *ahoCorasickPrefilter) HeapBytes() int {
	return p.size
}
