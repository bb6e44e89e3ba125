package nfa

import (
	"github.com/coregx/linregex/internal/conv"
	"github.com/coregx/linregex/internal/sparse"
)

// TicksBetweenChecks is the number of consumed code units between two
// calls of the checkpoint.
const TicksBetweenChecks = 64

// Option configures an Interpreter.
type Option func(*options)

type options struct {
	checkpoint func() error
	skip       func(at int) int

	// trace is called for every (pc, index) pair a thread executes.
	trace func(pc, index int)
}

// WithCheckpoint installs a function polled every TicksBetweenChecks
// consumed code units. A non-nil result aborts the search, discards any
// match in progress and is returned to the caller unchanged. Checkpoints
// should return errors wrapping ErrInterrupted or ErrResourceExhausted.
func WithCheckpoint(f func() error) Option {
	return func(o *options) { o.checkpoint = f }
}

// WithSkip installs a candidate finder for unanchored programs without
// lookbehind. skip(at) returns the smallest position >= at where a match
// may start, or -1 if no match can start at or after at.
func WithSkip(f func(at int) int) Option {
	return func(o *options) { o.skip = f }
}

// Stats counts the work done by an Interpreter.
type Stats struct {
	// Steps is the number of code units consumed.
	Steps int
	// Forks is the number of threads created by FORK.
	Forks int
	// Accepts is the number of ACCEPT instructions executed.
	Accepts int
	// Skips is the number of times a search jumped ahead to a candidate.
	Skips int
	// PeakRegisterArrays is the largest number of register arrays alive at
	// the same time.
	PeakRegisterArrays int
}

// thread is one execution path through the program.
type thread struct {
	pc   int
	regs int
	// consumed is set when the thread consumes input and cleared by
	// BEGIN_LOOP.
	consumed bool
}

// lookState is the state of the lookbehind automata at one input index,
// after they ran there. It depends on the input only, so any search
// starting at or after index may resume from it.
type lookState struct {
	index   int
	blocked [][]thread
	table   []uint32
}

// Interpreter runs a Program over one input, breadth first.
//
// Threads are kept in priority order: the active list from low to high
// priority and the blocked list from high to low. A thread forked by t has
// lower priority than t and higher priority than every thread t had lower
// priority than. An ACCEPT kills all lower priority threads, and the search
// ends once no higher priority thread remains.
//
// An Interpreter is not safe for concurrent use.
type Interpreter[C Char] struct {
	prog      *Program
	input     []C
	index     int
	exhausted bool
	opts      options

	// pcLastIndex[pc] is the last input index a thread executed pc at.
	pcLastIndex []int

	active  []thread
	blocked []thread

	// Per lookbehind automaton thread lists, in program order.
	lookActive  [][]thread
	lookBlocked [][]thread
	lookTable   *sparse.SparseSet
	// saved is the automata state at the end of the last accepted match.
	saved lookState

	arena arena
	best  int

	stats Stats
}

// NewInterpreter returns an Interpreter searching input from start.
func NewInterpreter[C Char](prog *Program, input []C, start int, opts ...Option) *Interpreter[C] {
	in := &Interpreter[C]{
		prog:        prog,
		pcLastIndex: make([]int, prog.Len()),
		lookActive:  make([][]thread, len(prog.lookStarts)),
		lookBlocked: make([][]thread, len(prog.lookStarts)),
		lookTable:   sparse.NewSparseSet(conv.IntToUint32(prog.lookCount)),
		saved:       lookState{index: -1, blocked: make([][]thread, len(prog.lookStarts))},
		arena:       newArena(prog.registerCount),
		best:        noRegisters,
	}
	for _, opt := range opts {
		opt(&in.opts)
	}
	in.Reset(input, start)
	return in
}

// Reset prepares the Interpreter for a new search over input from start,
// keeping its allocations.
func (in *Interpreter[C]) Reset(input []C, start int) {
	if start < 0 || start > len(input) {
		panic("nfa: start index out of range")
	}
	in.releaseAll()
	in.saved.index = -1
	in.input = input
	in.index = start
	in.exhausted = false
	in.stats = Stats{}
	in.arena.peak = in.arena.live
}

// Stats returns the counters accumulated since the last Reset.
func (in *Interpreter[C]) Stats() Stats {
	s := in.stats
	s.PeakRegisterArrays = in.arena.peak
	return s
}

// FindNextMatch returns the registers of the next match, or nil if there
// is none. Undefined registers are -1.
func (in *Interpreter[C]) FindNextMatch() ([]int, error) {
	out := make([]int, in.prog.registerCount)
	n, err := in.FindMatches(out)
	if err != nil || n == 0 {
		return nil, err
	}
	return out, nil
}

// FindMatches writes up to len(out)/RegisterCount successive
// non-overlapping matches into out, each as (start, end, capture 1 start,
// capture 1 end, ...), and returns the number written. On error no match
// is reported. A later call continues after the last reported match; after
// an error it retries from where the failed call started.
func (in *Interpreter[C]) FindMatches(out []int) (int, error) {
	width := in.prog.registerCount
	n := 0
	for (n+1)*width <= len(out) && !in.exhausted {
		from := in.index
		if err := in.findNextMatch(); err != nil {
			in.releaseAll()
			in.index = from
			return 0, err
		}
		if in.best == noRegisters {
			in.exhausted = true
			break
		}
		match := out[n*width : (n+1)*width]
		copyMatch(match, in.arena.get(in.best))
		n++
		in.advance(match[0], match[1])
	}
	return n, nil
}

// FindMatches runs prog over input from start, filling out as described
// by Interpreter.FindMatches.
func FindMatches[C Char](prog *Program, input []C, start int, out []int, opts ...Option) (int, error) {
	return NewInterpreter(prog, input, start, opts...).FindMatches(out)
}

// copyMatch copies registers to dst. A capture whose start is undefined is
// reported as undefined regardless of its end register.
func copyMatch(dst, regs []int) {
	copy(dst, regs)
	for i := 0; i+1 < len(dst); i += 2 {
		if dst[i] == undefined {
			dst[i+1] = undefined
		}
	}
}

// advance moves past a match. An empty match moves one code unit forward
// so the next search cannot report it again.
func (in *Interpreter[C]) advance(start, end int) {
	switch {
	case start != end:
		in.index = end
	case end == len(in.input):
		in.index = end
		in.exhausted = true
	default:
		in.index = end + 1
	}
}

func (in *Interpreter[C]) canSkip() bool {
	return in.opts.skip != nil && in.prog.prefixPC >= 0 && !in.prog.HasLookbehind()
}

// idle reports whether the only live thread is the one scanning the .*?
// prefix, so that no partial match is in progress.
func (in *Interpreter[C]) idle() bool {
	return in.best == noRegisters && len(in.blocked) == 1 && in.blocked[0].pc == in.prog.prefixPC
}

func (in *Interpreter[C]) findNextMatch() error {
	for i := range in.pcLastIndex {
		in.pcLastIndex[i] = -1
	}
	in.releaseAll()

	start := in.index
	if in.canSkip() {
		at := in.opts.skip(start)
		if at < 0 {
			in.index = len(in.input)
			return nil
		}
		if at > start {
			in.stats.Skips++
		}
		start = at
		in.index = at
	}

	if in.prog.HasLookbehind() {
		if err := in.catchUp(start); err != nil {
			return err
		}
	}
	in.active = append(in.active, thread{pc: 0, regs: in.arena.allocateUndefined()})
	in.runThreads(&in.active, &in.blocked)

	// Stop at the end of input, or once a match was found and no higher
	// priority thread is left. Lower priority threads were killed when the
	// match was accepted.
	for in.index != len(in.input) && !(in.best != noRegisters && len(in.blocked) == 0) {
		if in.canSkip() && in.idle() {
			at := in.opts.skip(in.index + 1)
			if at < 0 {
				in.releaseAll()
				in.index = len(in.input)
				return nil
			}
			if at > in.index+1 {
				in.restartAt(at)
				continue
			}
		}

		c := in.input[in.index]
		in.index++
		if err := in.tick(); err != nil {
			return err
		}
		in.flushLookBlocked(c)
		in.active = in.flush(in.blocked, in.active, c)
		in.blocked = in.blocked[:0]
		in.runStep()
	}
	return nil
}

// restartAt abandons the idle prefix thread and starts over at position at.
func (in *Interpreter[C]) restartAt(at int) {
	in.releaseThreads(in.blocked)
	in.blocked = in.blocked[:0]
	in.index = at
	in.stats.Skips++
	in.active = append(in.active, thread{pc: 0, regs: in.arena.allocateUndefined()})
	in.runThreads(&in.active, &in.blocked)
}

// catchUp runs the lookbehind automata alone up to start, so that
// lookbehinds see the text before the search start. They resume from the
// state saved at the last match when it lies at or before start, and
// otherwise run from the start of the input.
func (in *Interpreter[C]) catchUp(start int) error {
	if in.saved.index >= 0 && in.saved.index <= start {
		in.restoreLook()
	} else {
		for k, pc := range in.prog.lookStarts {
			in.lookActive[k] = append(in.lookActive[k][:0], thread{pc: pc, regs: noRegisters})
			in.lookBlocked[k] = in.lookBlocked[k][:0]
		}
		in.index = 0
		in.runLookStep()
	}
	for in.index < start {
		c := in.input[in.index]
		in.index++
		if err := in.tick(); err != nil {
			return err
		}
		in.flushLookBlocked(c)
		in.runLookStep()
	}
	return nil
}

func (in *Interpreter[C]) saveLook() {
	in.saved.index = in.index
	for k := range in.lookBlocked {
		in.saved.blocked[k] = append(in.saved.blocked[k][:0], in.lookBlocked[k]...)
	}
	in.saved.table = append(in.saved.table[:0], in.lookTable.Values()...)
}

func (in *Interpreter[C]) restoreLook() {
	in.index = in.saved.index
	for k := range in.lookBlocked {
		in.lookActive[k] = in.lookActive[k][:0]
		in.lookBlocked[k] = append(in.lookBlocked[k][:0], in.saved.blocked[k]...)
	}
	in.lookTable.Clear()
	for _, id := range in.saved.table {
		in.lookTable.Insert(id)
	}
}

func (in *Interpreter[C]) tick() error {
	in.stats.Steps++
	if in.opts.checkpoint == nil || in.index%TicksBetweenChecks != 0 {
		return nil
	}
	return in.opts.checkpoint()
}

// runStep runs every thread at the current index. Lookbehind automata run
// first, innermost first, so the main program reads a complete look-table.
func (in *Interpreter[C]) runStep() {
	in.runLookStep()
	in.runThreads(&in.active, &in.blocked)
}

func (in *Interpreter[C]) runLookStep() {
	if !in.prog.HasLookbehind() {
		return
	}
	in.lookTable.Clear()
	for k := len(in.lookActive) - 1; k >= 0; k-- {
		in.runThreads(&in.lookActive[k], &in.lookBlocked[k])
	}
}

func (in *Interpreter[C]) flushLookBlocked(c C) {
	for k := range in.lookBlocked {
		in.lookActive[k] = in.flush(in.lookBlocked[k], in.lookActive[k], c)
		in.lookBlocked[k] = in.lookBlocked[k][:0]
	}
}

// flush feeds c to the blocked threads and appends the survivors to
// active. Blocked is ordered high to low priority and active low to high,
// so it is walked backwards.
func (in *Interpreter[C]) flush(blocked, active []thread, c C) []thread {
	for i := len(blocked) - 1; i >= 0; i-- {
		t := blocked[i]
		if !in.prog.insts[t.pc].matches(uint16(c)) {
			in.arena.release(t.regs)
			continue
		}
		t.pc++
		t.consumed = true
		active = append(active, t)
	}
	return active
}

func (in *Interpreter[C]) runThreads(active, blocked *[]thread) {
	for len(*active) > 0 {
		last := len(*active) - 1
		t := (*active)[last]
		*active = (*active)[:last]
		in.runThread(t, active, blocked)
	}
}

// runThread runs t until it blocks on input, accepts, dies, or reaches a pc
// another thread already executed at this index.
func (in *Interpreter[C]) runThread(t thread, active, blocked *[]thread) {
	for {
		if in.pcLastIndex[t.pc] == in.index {
			in.arena.release(t.regs)
			return
		}
		in.pcLastIndex[t.pc] = in.index
		if in.opts.trace != nil {
			in.opts.trace(t.pc, in.index)
		}

		inst := in.prog.insts[t.pc]
		switch inst.op {
		case OpConsumeRange:
			*blocked = append(*blocked, t)
			return
		case OpAssertion:
			if !satisfiesAssertion(inst.Assertion(), in.input, in.index) {
				in.arena.release(t.regs)
				return
			}
			t.pc++
		case OpFork:
			*active = append(*active, thread{pc: inst.arg, regs: in.arena.clone(t.regs), consumed: t.consumed})
			in.stats.Forks++
			t.pc++
		case OpJmp:
			t.pc = inst.arg
		case OpAccept:
			in.accept(t, active)
			return
		case OpSetRegisterToCp:
			if t.regs != noRegisters {
				in.arena.get(t.regs)[inst.arg] = in.index
			}
			t.pc++
		case OpClearRegister:
			if t.regs != noRegisters {
				in.arena.get(t.regs)[inst.arg] = undefined
			}
			t.pc++
		case OpBeginLoop:
			t.consumed = false
			t.pc++
		case OpEndLoop:
			if !t.consumed {
				in.arena.release(t.regs)
				return
			}
			t.pc++
		case OpWriteLookTable:
			in.lookTable.Insert(conv.IntToUint32(inst.arg))
			in.arena.release(t.regs)
			return
		case OpReadLookTable:
			if in.lookTable.Contains(conv.IntToUint32(inst.arg)) != inst.positive {
				in.arena.release(t.regs)
				return
			}
			t.pc++
		default:
			panic("nfa: unknown opcode " + inst.op.String())
		}
	}
}

// accept makes t's registers the best match and kills every lower
// priority thread still waiting to run at this index.
func (in *Interpreter[C]) accept(t thread, active *[]thread) {
	in.arena.release(in.best)
	in.best = t.regs
	in.releaseThreads(*active)
	*active = (*active)[:0]
	in.stats.Accepts++
	if in.prog.HasLookbehind() {
		in.saveLook()
	}
}

func (in *Interpreter[C]) releaseThreads(ts []thread) {
	for _, t := range ts {
		in.arena.release(t.regs)
	}
}

// releaseAll drops every thread and the best match.
func (in *Interpreter[C]) releaseAll() {
	in.releaseThreads(in.active)
	in.releaseThreads(in.blocked)
	in.active = in.active[:0]
	in.blocked = in.blocked[:0]
	for k := range in.lookActive {
		in.lookActive[k] = in.lookActive[k][:0]
		in.lookBlocked[k] = in.lookBlocked[k][:0]
	}
	in.arena.release(in.best)
	in.best = noRegisters
}
