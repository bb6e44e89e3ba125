package meta

import (
	"github.com/coregx/linregex/nfa"
	"github.com/coregx/linregex/syntax"
)

// Strategy represents the engine a compiled pattern runs on.
type Strategy int

const (
	// UseLinear runs nfa bytecode breadth first, in time linear in the
	// input. Selected whenever nfa.Check accepts the pattern.
	UseLinear Strategy = iota

	// UseBacktrack runs a backtracking engine. Selected for:
	//   - Backreferences and lookahead
	//   - Case-insensitive or unicode-mode patterns
	//   - Bounded quantifiers that would replicate too much bytecode
	//   - Lookbehind together with the global or sticky flag
	UseBacktrack
)

// String returns a human-readable representation of the Strategy.
func (s Strategy) String() string {
	switch s {
	case UseLinear:
		return "UseLinear"
	case UseBacktrack:
		return "UseBacktrack"
	default:
		return "Unknown"
	}
}

// selectStrategy picks the engine for re. The returned error names the
// construct that keeps the pattern off the linear engine, if any.
func selectStrategy(re *syntax.Regexp, flags syntax.Flags) (Strategy, error) {
	if err := nfa.Check(re, flags); err != nil {
		return UseBacktrack, err
	}
	return UseLinear, nil
}
