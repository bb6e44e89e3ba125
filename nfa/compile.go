package nfa

import (
	"github.com/coregx/linregex/internal/conv"
	"github.com/coregx/linregex/syntax"
)

// Compile lowers re into a Program. It fails with an error wrapping
// ErrUnsupported when Check rejects the pattern, and never returns a
// partially emitted program.
func Compile(re *syntax.Regexp, flags syntax.Flags) (*Program, error) {
	if err := Check(re, flags); err != nil {
		return nil, &CompileError{Err: err}
	}

	c := &compiler{asm: newAssembler()}
	prefixPC := -1
	if flags&syntax.Sticky == 0 && !re.IsAnchoredAtStart() {
		// A match may start anywhere: prepend a lazy .* so the earliest
		// start has the highest priority.
		prefixPC = c.compileNonGreedyStar(c.asm.consumeAnyChar, false)
	}

	c.asm.setRegisterToCp(syntax.StartRegister(0))
	c.visit(re)
	c.asm.setRegisterToCp(syntax.EndRegister(0))
	c.asm.accept()

	// Each lookbehind runs as its own automaton after the main program.
	// Nested lookbehinds are appended to the queue while it is drained.
	c.insideLookaround = true
	var lookStarts []int
	for i := 0; i < len(c.lookbehinds); i++ {
		lb := c.lookbehinds[i]
		lookStarts = append(lookStarts, c.asm.len())
		c.compileNonGreedyStar(c.asm.consumeAnyChar, false)
		c.visit(lb.Body())
		c.asm.writeLookTable(lb.Index)
	}

	return &Program{
		insts:         c.asm.finish(),
		registerCount: syntax.EndRegister(re.MaxCap()) + 1,
		lookStarts:    lookStarts,
		lookCount:     re.LookaroundCount(),
		prefixPC:      prefixPC,
	}, nil
}

type compiler struct {
	asm              *assembler
	insideLookaround bool
	lookbehinds      []*syntax.Regexp
}

func (c *compiler) visit(re *syntax.Regexp) {
	switch re.Op {
	case syntax.OpDisjunction:
		c.compileDisjunction(len(re.Sub), func(i int) { c.visit(re.Sub[i]) })
	case syntax.OpAlternative, syntax.OpText:
		for _, sub := range re.Sub {
			c.visit(sub)
		}
	case syntax.OpAssertion:
		c.asm.assertion(re.Assertion)
	case syntax.OpAtom:
		for _, u := range re.Units {
			c.asm.consumeRange(conv.RuneToUint16(u), conv.RuneToUint16(u))
		}
	case syntax.OpClassRanges:
		c.visitClassRanges(re)
	case syntax.OpQuantifier:
		c.visitQuantifier(re)
	case syntax.OpCapture:
		// Lookbehind automata carry no registers, so captures there always
		// read as undefined.
		if c.insideLookaround {
			c.visit(re.Body())
			return
		}
		c.asm.setRegisterToCp(syntax.StartRegister(re.Index))
		c.visit(re.Body())
		c.asm.setRegisterToCp(syntax.EndRegister(re.Index))
	case syntax.OpGroup:
		c.visit(re.Body())
	case syntax.OpLookaround:
		c.asm.readLookTable(re.Index, re.Positive)
		c.lookbehinds = append(c.lookbehinds, re)
	case syntax.OpEmpty:
	default:
		panic("nfa: cannot compile " + re.Op.String())
	}
}

func (c *compiler) visitClassRanges(re *syntax.Regexp) {
	ranges := syntax.Canonicalize(re.Ranges)
	if re.Negated {
		ranges = syntax.Negate(ranges, syntax.MaxCodePoint)
	}
	// Input is UTF-16, so anything above the BMP can never match a unit.
	units := ranges[:0:0]
	for _, r := range ranges {
		if r.Lo > syntax.MaxCodeUnit {
			break
		}
		units = append(units, syntax.Range{Lo: r.Lo, Hi: min(r.Hi, syntax.MaxCodeUnit)})
	}
	c.compileDisjunction(len(units), func(i int) {
		c.asm.consumeRange(conv.RuneToUint16(units[i].Lo), conv.RuneToUint16(units[i].Hi))
	})
}

// compileDisjunction emits n alternatives in decreasing priority:
//
//	FORK tail_1; alt_1; JMP end; tail_1:
//	...
//	alt_n
//	end:
func (c *compiler) compileDisjunction(n int, emitAlt func(i int)) {
	if n == 0 {
		c.asm.fail()
		return
	}
	end := newLabel()
	for i := 0; i < n-1; i++ {
		tail := newLabel()
		c.asm.fork(tail)
		emitAlt(i)
		c.asm.jmp(end)
		c.asm.bind(tail)
	}
	emitAlt(n - 1)
	c.asm.bind(end)
}

// clearRegisters clears the start registers of the captures in iv. An
// undefined start makes the whole capture undefined.
func (c *compiler) clearRegisters(iv syntax.Interval) {
	if iv.Empty() || c.insideLookaround {
		return
	}
	for reg := iv.From; reg <= iv.To; reg += 2 {
		c.asm.clearRegister(reg)
	}
}

func (c *compiler) visitQuantifier(re *syntax.Regexp) {
	body := re.Body()
	emitBody := func() {
		c.clearRegisters(body.CaptureRegisters())
		c.visit(body)
	}
	guards := body.MinMatch() == 0
	greedy := re.Quantifier == syntax.Greedy

	if re.Min > 0 && re.Max == syntax.Infinity && body.MinMatch() > 0 {
		for i := 0; i < re.Min-1; i++ {
			emitBody()
		}
		if greedy {
			c.compileNonEmptyGreedyPlus(emitBody)
		} else {
			c.compileNonEmptyNonGreedyPlus(emitBody)
		}
		return
	}

	for i := 0; i < re.Min; i++ {
		emitBody()
	}
	switch {
	case re.Max == syntax.Infinity && greedy:
		c.compileGreedyStar(emitBody, guards)
	case re.Max == syntax.Infinity:
		c.compileNonGreedyStar(emitBody, guards)
	case greedy:
		c.compileGreedyRepetition(emitBody, re.Max-re.Min, guards)
	default:
		c.compileNonGreedyRepetition(emitBody, re.Max-re.Min, guards)
	}
}

func (c *compiler) guarded(emitBody func(), guards bool) {
	if guards {
		c.asm.beginLoop()
	}
	emitBody()
	if guards {
		c.asm.endLoop()
	}
}

// compileGreedyStar emits
//
//	begin: FORK end; BEGIN_LOOP; body; END_LOOP; JMP begin; end:
func (c *compiler) compileGreedyStar(emitBody func(), guards bool) {
	begin := newLabel()
	end := newLabel()
	c.asm.bind(begin)
	c.asm.fork(end)
	c.guarded(emitBody, guards)
	c.asm.jmp(begin)
	c.asm.bind(end)
}

// compileNonGreedyStar emits
//
//	FORK body; JMP end; body: BEGIN_LOOP; body; END_LOOP; FORK body; end:
//
// and returns the index of the first body instruction.
func (c *compiler) compileNonGreedyStar(emitBody func(), guards bool) int {
	bodyLabel := newLabel()
	end := newLabel()
	c.asm.fork(bodyLabel)
	c.asm.jmp(end)
	c.asm.bind(bodyLabel)
	start := c.asm.len()
	c.guarded(emitBody, guards)
	c.asm.fork(bodyLabel)
	c.asm.bind(end)
	return start
}

// compileGreedyRepetition emits count optional copies of the body, each
// preferring to match:
//
//	FORK end; BEGIN_LOOP; body; END_LOOP
//	...
//	end:
func (c *compiler) compileGreedyRepetition(emitBody func(), count int, guards bool) {
	end := newLabel()
	for i := 0; i < count; i++ {
		c.asm.fork(end)
		c.guarded(emitBody, guards)
	}
	c.asm.bind(end)
}

// compileNonGreedyRepetition emits count optional copies of the body, each
// preferring to skip:
//
//	FORK body_i; JMP end; body_i: BEGIN_LOOP; body; END_LOOP
//	...
//	end:
func (c *compiler) compileNonGreedyRepetition(emitBody func(), count int, guards bool) {
	end := newLabel()
	for i := 0; i < count; i++ {
		bodyLabel := newLabel()
		c.asm.fork(bodyLabel)
		c.asm.jmp(end)
		c.asm.bind(bodyLabel)
		c.guarded(emitBody, guards)
	}
	c.asm.bind(end)
}

// compileNonEmptyGreedyPlus emits a loop for a body that cannot match the
// empty string, so no loop guards are needed:
//
//	begin: body; FORK end; JMP begin; end:
func (c *compiler) compileNonEmptyGreedyPlus(emitBody func()) {
	begin := newLabel()
	end := newLabel()
	c.asm.bind(begin)
	emitBody()
	c.asm.fork(end)
	c.asm.jmp(begin)
	c.asm.bind(end)
}

// compileNonEmptyNonGreedyPlus emits
//
//	begin: body; FORK begin
func (c *compiler) compileNonEmptyNonGreedyPlus(emitBody func()) {
	begin := newLabel()
	c.asm.bind(begin)
	emitBody()
	c.asm.fork(begin)
}
