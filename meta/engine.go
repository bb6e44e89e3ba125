package meta

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/coregx/linregex/literal"
	"github.com/coregx/linregex/nfa"
	"github.com/coregx/linregex/prefilter"
	"github.com/coregx/linregex/syntax"
)

// Engine is a compiled pattern together with the engine selected to run it.
// An Engine is safe for concurrent use.
//
// Example:
//
//	engine, err := meta.Compile(`(\w+)@(\w+)`, 0, meta.DefaultConfig())
//	if err != nil {
//	    return err
//	}
//	matches, err := engine.FindAll(ctx, "mail bob@example now", 0, -1)
//	// matches[0] == []int{5, 16, 5, 8, 9, 16}
type Engine struct {
	pattern  string
	flags    syntax.Flags
	config   Config
	strategy Strategy

	// reason is why the linear engine was not selected, if it was not.
	reason error

	prog      *nfa.Program
	prefilter prefilter.Prefilter
	bt        *backtracker

	names []string
	pool  *searchStatePool
	stats Stats
}

// Stats tracks execution statistics for performance analysis.
// Counters are updated atomically and may be read while searches run.
type Stats struct {
	// LinearSearches counts searches run by the breadth-first interpreter.
	LinearSearches uint64

	// BacktrackSearches counts searches run by the backtracking engine.
	BacktrackSearches uint64

	// Matches counts matches reported by either engine.
	Matches uint64

	// PrefilterSkips counts jumps to a prefilter candidate.
	PrefilterSkips uint64

	// PrefilterAbandoned counts searches whose prefilter was retired for
	// reporting too many false candidates.
	PrefilterAbandoned uint64

	// Interrupts counts searches aborted by context or timeout.
	Interrupts uint64

	// ResourceExhausted counts searches aborted by a memory limit.
	ResourceExhausted uint64
}

func (s *Stats) add(counter *uint64) {
	atomic.AddUint64(counter, 1)
}

// Compile parses pattern under flags and prepares the engine that runs it.
//
// Patterns rejected by nfa.Check go to the backtracking engine when
// config.EnableFallback is set and the Linear flag is not, and fail with an
// *nfa.CompileError wrapping nfa.ErrUnsupported otherwise. Parse errors are returned as
// *syntax.Error.
func Compile(pattern string, flags syntax.Flags, config Config) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	re, err := syntax.Parse(pattern, flags)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		pattern: pattern,
		flags:   flags,
		config:  config,
		names:   re.CapNames(),
	}
	e.strategy, e.reason = selectStrategy(re, flags)

	switch e.strategy {
	case UseLinear:
		prog, err := nfa.Compile(re, flags)
		if err != nil {
			return nil, err
		}
		e.prog = prog
		e.prefilter = buildPrefilter(re, prog, config)
		e.pool = newSearchStatePool(e)
	case UseBacktrack:
		if !config.EnableFallback || flags.Has(syntax.Linear) {
			return nil, &nfa.CompileError{Pattern: pattern, Err: e.reason}
		}
		bt, err := newBacktracker(pattern, flags, e.names, config.FallbackTimeout)
		if err != nil {
			return nil, err
		}
		e.bt = bt
	}
	return e, nil
}

// buildPrefilter returns nil unless every match must start with one of a
// few literals and the program can jump between candidates: it scans for
// a start anywhere and has no lookbehind that would need the skipped text.
func buildPrefilter(re *syntax.Regexp, prog *nfa.Program, config Config) prefilter.Prefilter {
	if !config.EnablePrefilter || !prog.Unanchored() || prog.HasLookbehind() {
		return nil
	}
	extractorConfig := literal.DefaultConfig()
	extractorConfig.MaxLiterals = config.MaxLiterals
	prefixes := literal.New(extractorConfig).ExtractPrefixes(re)
	return prefilter.NewBuilder(prefixes).Build()
}

// Pattern returns the source pattern.
func (e *Engine) Pattern() string {
	return e.pattern
}

// Flags returns the flags the pattern was compiled with.
func (e *Engine) Flags() syntax.Flags {
	return e.flags
}

// Strategy returns the execution strategy selected for this engine.
func (e *Engine) Strategy() Strategy {
	return e.strategy
}

// FallbackReason returns why the linear engine was not selected, or nil
// when it was.
func (e *Engine) FallbackReason() error {
	return e.reason
}

// Program returns the bytecode, or nil for the backtracking strategy.
func (e *Engine) Program() *nfa.Program {
	return e.prog
}

// HasPrefilter reports whether linear searches over one-byte input jump
// between literal candidates.
func (e *Engine) HasPrefilter() bool {
	return e.prefilter != nil
}

// NumCaptures returns the number of capture groups in the pattern.
func (e *Engine) NumCaptures() int {
	return len(e.names) - 1
}

// SubexpNames returns the names of capture groups in the pattern.
// Index 0 is always "" (entire match). Unnamed groups return "".
func (e *Engine) SubexpNames() []string {
	return e.names
}

// Stats returns a snapshot of the execution statistics.
func (e *Engine) Stats() Stats {
	return Stats{
		LinearSearches:     atomic.LoadUint64(&e.stats.LinearSearches),
		BacktrackSearches:  atomic.LoadUint64(&e.stats.BacktrackSearches),
		Matches:            atomic.LoadUint64(&e.stats.Matches),
		PrefilterSkips:     atomic.LoadUint64(&e.stats.PrefilterSkips),
		PrefilterAbandoned: atomic.LoadUint64(&e.stats.PrefilterAbandoned),
		Interrupts:         atomic.LoadUint64(&e.stats.Interrupts),
		ResourceExhausted:  atomic.LoadUint64(&e.stats.ResourceExhausted),
	}
}

// ResetStats resets execution statistics to zero.
func (e *Engine) ResetStats() {
	for _, c := range []*uint64{
		&e.stats.LinearSearches, &e.stats.BacktrackSearches, &e.stats.Matches,
		&e.stats.PrefilterSkips, &e.stats.PrefilterAbandoned,
		&e.stats.Interrupts, &e.stats.ResourceExhausted,
	} {
		atomic.StoreUint64(c, 0)
	}
}

// FindAll returns up to n successive non-overlapping matches of the
// pattern in s that start at or after the byte offset start; n < 0 means
// all of them. Each match is a register tuple (start, end, capture 1
// start, capture 1 end, ...) of byte offsets into s, with -1 for captures
// that did not participate.
//
// A search aborted by ctx fails with an error wrapping nfa.ErrInterrupted;
// one aborted by a memory limit wraps nfa.ErrResourceExhausted. Partial
// results are never returned.
func (e *Engine) FindAll(ctx context.Context, s string, start, n int) ([][]int, error) {
	if start < 0 || start > len(s) {
		return nil, nil
	}
	if n == 0 {
		return nil, nil
	}

	var (
		matches [][]int
		err     error
	)
	if e.strategy == UseBacktrack {
		e.stats.add(&e.stats.BacktrackSearches)
		matches, err = e.bt.findAll(ctx, s, start, n)
	} else {
		e.stats.add(&e.stats.LinearSearches)
		matches, err = e.findAllLinear(ctx, NewInput(s), start, n)
	}

	switch {
	case errors.Is(err, nfa.ErrInterrupted):
		e.stats.add(&e.stats.Interrupts)
	case errors.Is(err, nfa.ErrResourceExhausted):
		e.stats.add(&e.stats.ResourceExhausted)
	}
	if err != nil {
		return nil, err
	}
	atomic.AddUint64(&e.stats.Matches, uint64(len(matches)))
	return matches, nil
}

// Find returns the first match at or after start, or nil.
func (e *Engine) Find(ctx context.Context, s string, start int) ([]int, error) {
	matches, err := e.FindAll(ctx, s, start, 1)
	if err != nil || len(matches) == 0 {
		return nil, err
	}
	return matches[0], nil
}

func (e *Engine) findAllLinear(ctx context.Context, in *Input, start, n int) ([][]int, error) {
	st := e.pool.get()
	defer e.pool.put(st)
	st.ctx = ctx

	unit := in.UnitIndex(start)
	if in.IsOneByte() {
		st.haystack = in.bytes
		st.bytes.Reset(in.bytes, unit)
		st.current = st.bytes
		return collect(e, st, st.bytes, in, n)
	}
	st.units.Reset(in.units, unit)
	st.current = st.units
	return collect(e, st, st.units, in, n)
}

// collect pulls matches out of interp in batches and converts them to
// byte offsets. In two-byte input a match may end between the halves of a
// surrogate pair; its byte span then covers the whole rune, and a later
// match overlapping it is dropped.
func collect[C nfa.Char](e *Engine, st *SearchState, interp *nfa.Interpreter[C], in *Input, n int) ([][]int, error) {
	width := e.prog.RegisterCount()
	var matches [][]int
	prevEnd := -1
	for n < 0 || len(matches) < n {
		k, err := interp.FindMatches(st.out)
		if err != nil {
			return nil, err
		}
		for i := 0; i < k && (n < 0 || len(matches) < n); i++ {
			regs := st.out[i*width : (i+1)*width]
			m := make([]int, width)
			for r, u := range regs {
				if r%2 == 0 {
					m[r] = in.StartOffset(u)
				} else {
					m[r] = in.EndOffset(u)
				}
			}
			if m[0] < prevEnd {
				continue
			}
			prevEnd = m[1]
			matches = append(matches, m)
			if st.tracker != nil {
				st.tracker.ConfirmMatch()
			}
		}
		if k < searchBatch {
			break
		}
	}
	atomic.AddUint64(&e.stats.PrefilterSkips, uint64(interp.Stats().Skips))
	return matches, nil
}
