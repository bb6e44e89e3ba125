package meta

import (
	"context"
	"fmt"
	"sync"

	"github.com/coregx/linregex/internal/rusage"
	"github.com/coregx/linregex/nfa"
	"github.com/coregx/linregex/prefilter"
)

// searchBatch is the number of matches fetched from an interpreter per call.
const searchBatch = 16

// SearchState holds per-search mutable state for thread-safe concurrent
// searches. It is obtained from a sync.Pool so one Engine can serve many
// goroutines.
//
// The interpreters keep their register arenas and thread lists between
// searches; their options call back into the state, which is pointed at
// the current search before each run.
type SearchState struct {
	engine *Engine

	bytes *nfa.Interpreter[byte]
	units *nfa.Interpreter[uint16]
	out   []int

	// Per-search fields.
	ctx      context.Context
	haystack []byte
	tracker  *prefilter.Tracker
	current  interface{ Stats() nfa.Stats }
}

func newSearchState(e *Engine) *SearchState {
	st := &SearchState{
		engine: e,
		out:    make([]int, searchBatch*e.prog.RegisterCount()),
	}

	opts := []nfa.Option{nfa.WithCheckpoint(st.checkpoint)}
	st.units = nfa.NewInterpreter[uint16](e.prog, nil, 0, opts...)
	if e.prefilter != nil {
		st.tracker = prefilter.NewTracker(e.prefilter)
		opts = append(opts, nfa.WithSkip(st.skip))
	}
	st.bytes = nfa.NewInterpreter[byte](e.prog, nil, 0, opts...)
	return st
}

// checkpoint is polled by the interpreter while it consumes input.
func (st *SearchState) checkpoint() error {
	if err := st.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", nfa.ErrInterrupted, err)
	}
	config := st.engine.config
	if config.MemoryLimit > 0 {
		if rss := rusage.PeakRSS(); rss > config.MemoryLimit {
			return fmt.Errorf("%w: peak resident set %d bytes exceeds limit %d",
				nfa.ErrResourceExhausted, rss, config.MemoryLimit)
		}
	}
	if config.MaxRegisterArrays > 0 {
		if peak := st.current.Stats().PeakRegisterArrays; peak > config.MaxRegisterArrays {
			return fmt.Errorf("%w: %d register arrays exceed limit %d",
				nfa.ErrResourceExhausted, peak, config.MaxRegisterArrays)
		}
	}
	return nil
}

// skip is the interpreter's candidate finder. Once the tracker retires
// the prefilter every position is a candidate.
func (st *SearchState) skip(at int) int {
	if !st.tracker.IsActive() {
		return at
	}
	pos := st.tracker.Find(st.haystack, at)
	if !st.tracker.IsActive() {
		st.engine.stats.add(&st.engine.stats.PrefilterAbandoned)
	}
	return pos
}

// reset drops references to the last search.
func (st *SearchState) reset() {
	st.ctx = nil
	st.haystack = nil
	st.current = nil
	st.bytes.Reset(nil, 0)
	st.units.Reset(nil, 0)
	if st.tracker != nil {
		st.tracker.Reset()
	}
}

// searchStatePool manages SearchState instances for one Engine.
type searchStatePool struct {
	pool sync.Pool
}

func newSearchStatePool(e *Engine) *searchStatePool {
	p := &searchStatePool{}
	p.pool = sync.Pool{
		New: func() any {
			return newSearchState(e)
		},
	}
	return p
}

func (p *searchStatePool) get() *SearchState {
	return p.pool.Get().(*SearchState)
}

func (p *searchStatePool) put(state *SearchState) {
	if state == nil {
		return
	}
	state.reset()
	p.pool.Put(state)
}
