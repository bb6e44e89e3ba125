package nfa

import (
	"fmt"
	"strings"
)

// Program is compiled bytecode. A Program is immutable and safe for
// concurrent use by multiple Interpreters.
type Program struct {
	insts         []Inst
	registerCount int

	// lookStarts holds the entry pc of each lookbehind automaton in the
	// order they were compiled. Inner lookbehinds come after the automata
	// that read them.
	lookStarts []int
	lookCount  int

	// prefixPC is the pc of the CONSUME_RANGE of the unanchored .*? prefix,
	// or -1 if the program is anchored or sticky.
	prefixPC int
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.insts) }

// Inst returns the instruction at pc.
func (p *Program) Inst(pc int) Inst { return p.insts[pc] }

// RegisterCount returns the length of every register array, which is
// 2 * (capture count + 1).
func (p *Program) RegisterCount() int { return p.registerCount }

// CaptureCount returns the number of capture groups, excluding the whole
// match.
func (p *Program) CaptureCount() int { return p.registerCount/2 - 1 }

// LookCount returns the number of look-table cells.
func (p *Program) LookCount() int { return p.lookCount }

// HasLookbehind reports whether the program runs lookbehind automata.
func (p *Program) HasLookbehind() bool { return len(p.lookStarts) > 0 }

// Unanchored reports whether the program begins with a .*? prefix, so a
// search may skip ahead to any candidate start position.
func (p *Program) Unanchored() bool { return p.prefixPC >= 0 }

// String returns a disassembly listing, one instruction per line.
func (p *Program) String() string {
	var b strings.Builder
	width := len(fmt.Sprint(max(len(p.insts)-1, 0)))
	for pc, inst := range p.insts {
		fmt.Fprintf(&b, "%0*d: %s\n", width, pc, inst)
	}
	return b.String()
}
