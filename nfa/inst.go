package nfa

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/coregx/linregex/syntax"
)

// Opcode identifies the operation of an Inst.
type Opcode uint8

const (
	// OpConsumeRange consumes one code unit in [lo, hi]. A thread whose
	// next code unit is outside the range dies. An empty range (lo > hi)
	// never matches and is used as FAIL.
	OpConsumeRange Opcode = iota

	// OpAssertion continues only if the zero-width assertion holds at the
	// current input position.
	OpAssertion

	// OpFork spawns a lower priority thread at the target and continues
	// with the next instruction.
	OpFork

	// OpJmp continues at the target.
	OpJmp

	// OpAccept records the thread's registers as the best match.
	OpAccept

	// OpSetRegisterToCp stores the current input position in a register.
	OpSetRegisterToCp

	// OpClearRegister marks a register undefined.
	OpClearRegister

	// OpBeginLoop resets the thread's consumed flag.
	OpBeginLoop

	// OpEndLoop kills the thread unless it consumed input since the
	// matching OpBeginLoop.
	OpEndLoop

	// OpWriteLookTable marks a lookbehind as satisfied at the current
	// position and ends the thread.
	OpWriteLookTable

	// OpReadLookTable continues only if the look-table cell of a
	// lookbehind matches the expected polarity.
	OpReadLookTable
)

// Inst is one bytecode instruction. Instructions are immutable once a
// Program has been built.
type Inst struct {
	op Opcode

	// lo and hi bound OpConsumeRange.
	lo, hi uint16

	// arg is the jump target of OpFork and OpJmp, the register of
	// OpSetRegisterToCp and OpClearRegister, the assertion kind of
	// OpAssertion, and the lookaround id of the look-table ops.
	arg int

	positive bool
}

// ConsumeRange returns an instruction consuming one code unit in [lo, hi].
func ConsumeRange(lo, hi uint16) Inst {
	return Inst{op: OpConsumeRange, lo: lo, hi: hi}
}

// ConsumeAny returns an instruction consuming any code unit.
func ConsumeAny() Inst {
	return ConsumeRange(0, 0xFFFF)
}

// Fail returns an instruction no thread can get past.
func Fail() Inst {
	return ConsumeRange(0xFFFF, 0)
}

// Assert returns an assertion instruction.
func Assert(kind syntax.AssertionType) Inst {
	return Inst{op: OpAssertion, arg: int(kind)}
}

// Fork returns a fork to target.
func Fork(target int) Inst {
	return Inst{op: OpFork, arg: target}
}

// Jmp returns a jump to target.
func Jmp(target int) Inst {
	return Inst{op: OpJmp, arg: target}
}

// Accept returns an accepting instruction.
func Accept() Inst {
	return Inst{op: OpAccept}
}

// SetRegisterToCp returns an instruction storing the input position in reg.
func SetRegisterToCp(reg int) Inst {
	return Inst{op: OpSetRegisterToCp, arg: reg}
}

// ClearRegister returns an instruction clearing reg.
func ClearRegister(reg int) Inst {
	return Inst{op: OpClearRegister, arg: reg}
}

// BeginLoop returns a loop guard opening instruction.
func BeginLoop() Inst {
	return Inst{op: OpBeginLoop}
}

// EndLoop returns a loop guard closing instruction.
func EndLoop() Inst {
	return Inst{op: OpEndLoop}
}

// WriteLookTable returns an instruction setting look-table cell id.
func WriteLookTable(id int) Inst {
	return Inst{op: OpWriteLookTable, arg: id}
}

// ReadLookTable returns an instruction testing look-table cell id.
func ReadLookTable(id int, positive bool) Inst {
	return Inst{op: OpReadLookTable, arg: id, positive: positive}
}

// Op returns the opcode.
func (i Inst) Op() Opcode { return i.op }

// Range returns the bounds of an OpConsumeRange.
func (i Inst) Range() (lo, hi uint16) { return i.lo, i.hi }

// Target returns the jump target of OpFork or OpJmp.
func (i Inst) Target() int { return i.arg }

// Register returns the register of OpSetRegisterToCp or OpClearRegister.
func (i Inst) Register() int { return i.arg }

// Assertion returns the assertion kind of OpAssertion.
func (i Inst) Assertion() syntax.AssertionType { return syntax.AssertionType(i.arg) }

// LookID returns the lookaround id of the look-table ops.
func (i Inst) LookID() int { return i.arg }

// Positive returns the polarity of OpReadLookTable.
func (i Inst) Positive() bool { return i.positive }

func (i Inst) matches(c uint16) bool {
	return i.lo <= c && c <= i.hi
}

func (op Opcode) String() string {
	switch op {
	case OpConsumeRange:
		return "CONSUME_RANGE"
	case OpAssertion:
		return "ASSERTION"
	case OpFork:
		return "FORK"
	case OpJmp:
		return "JMP"
	case OpAccept:
		return "ACCEPT"
	case OpSetRegisterToCp:
		return "SET_REGISTER_TO_CP"
	case OpClearRegister:
		return "CLEAR_REGISTER"
	case OpBeginLoop:
		return "BEGIN_LOOP"
	case OpEndLoop:
		return "END_LOOP"
	case OpWriteLookTable:
		return "WRITE_LOOK_TABLE"
	case OpReadLookTable:
		return "READ_LOOK_TABLE"
	default:
		panic("nfa: unknown opcode " + strconv.Itoa(int(op)))
	}
}

func (i Inst) String() string {
	switch i.op {
	case OpConsumeRange:
		if i.lo > i.hi {
			return "FAIL"
		}
		var b strings.Builder
		b.WriteString("CONSUME_RANGE [")
		writeCodeUnit(&b, i.lo)
		if i.lo != i.hi {
			b.WriteByte('-')
			writeCodeUnit(&b, i.hi)
		}
		b.WriteByte(']')
		return b.String()
	case OpAssertion:
		return "ASSERTION " + i.Assertion().String()
	case OpFork, OpJmp, OpSetRegisterToCp, OpClearRegister, OpWriteLookTable:
		return i.op.String() + " " + strconv.Itoa(i.arg)
	case OpReadLookTable:
		if i.positive {
			return fmt.Sprintf("READ_LOOK_TABLE %d", i.arg)
		}
		return fmt.Sprintf("READ_LOOK_TABLE %d negated", i.arg)
	case OpAccept, OpBeginLoop, OpEndLoop:
		return i.op.String()
	default:
		panic("nfa: unknown opcode " + strconv.Itoa(int(i.op)))
	}
}

// writeCodeUnit prints printable ASCII as is and everything else in hex.
func writeCodeUnit(b *strings.Builder, c uint16) {
	if 0x20 <= c && c < 0x7F {
		b.WriteByte(byte(c))
		return
	}
	fmt.Fprintf(b, "0x%04x", c)
}
