package nfa

import (
	"github.com/coregx/linregex/syntax"
)

// label is a forward reference into the instruction stream.
//
// While unbound, pos is the head of a patch list threaded through the
// targets of the FORK and JMP instructions that refer to the label, with
// -1 terminating the list. Once bound, pos is the target index.
type label struct {
	bound bool
	pos   int
}

func newLabel() *label {
	return &label{pos: -1}
}

// assembler emits instructions and resolves labels.
type assembler struct {
	code    []Inst
	pending map[*label]struct{}
}

func newAssembler() *assembler {
	return &assembler{pending: make(map[*label]struct{})}
}

func (a *assembler) len() int { return len(a.code) }

func (a *assembler) emit(inst Inst) {
	a.code = append(a.code, inst)
}

func (a *assembler) consumeRange(lo, hi uint16) { a.emit(ConsumeRange(lo, hi)) }

func (a *assembler) consumeAnyChar() { a.emit(ConsumeAny()) }

func (a *assembler) fail() { a.emit(Fail()) }

func (a *assembler) assertion(kind syntax.AssertionType) { a.emit(Assert(kind)) }

func (a *assembler) accept() { a.emit(Accept()) }

func (a *assembler) setRegisterToCp(reg int) { a.emit(SetRegisterToCp(reg)) }

func (a *assembler) clearRegister(reg int) { a.emit(ClearRegister(reg)) }

func (a *assembler) beginLoop() { a.emit(BeginLoop()) }

func (a *assembler) endLoop() { a.emit(EndLoop()) }

func (a *assembler) writeLookTable(id int) { a.emit(WriteLookTable(id)) }

func (a *assembler) readLookTable(id int, positive bool) { a.emit(ReadLookTable(id, positive)) }

func (a *assembler) fork(l *label) { a.emit(Fork(a.target(l))) }

func (a *assembler) jmp(l *label) { a.emit(Jmp(a.target(l))) }

// target returns the payload for a reference to l from the instruction
// about to be emitted, linking it into the patch list if l is unbound.
func (a *assembler) target(l *label) int {
	if l.bound {
		return l.pos
	}
	prev := l.pos
	l.pos = len(a.code)
	a.pending[l] = struct{}{}
	return prev
}

// bind resolves l to the next instruction index.
func (a *assembler) bind(l *label) {
	if l.bound {
		panic("nfa: label bound twice")
	}
	here := len(a.code)
	for pc := l.pos; pc != -1; {
		next := a.code[pc].arg
		a.code[pc].arg = here
		pc = next
	}
	l.bound = true
	l.pos = here
	delete(a.pending, l)
}

// finish returns the emitted code. Every referenced label must be bound.
func (a *assembler) finish() []Inst {
	if len(a.pending) != 0 {
		panic("nfa: unbound label at end of compilation")
	}
	return a.code
}
