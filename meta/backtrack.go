package meta

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/coregx/linregex/nfa"
	"github.com/coregx/linregex/syntax"
)

// backtracker runs patterns the linear engine rejects.
//
// regexp2 numbers named groups after all unnamed ones, so captures are
// looked up through groups, indexed by capture index. regexp2 has no sticky
// mode; a sticky backtracker drops every match that does not start where
// the previous one ended.
type backtracker struct {
	re     *regexp2.Regexp
	groups []int
	sticky bool
}

// backtrackOptions maps flags to regexp2 options. regexp2 only accepts
// ECMAScript together with IgnoreCase and Multiline, so dotAll patterns
// use the default dialect with Singleline instead.
func backtrackOptions(flags syntax.Flags) regexp2.RegexOptions {
	var opts regexp2.RegexOptions
	if flags&syntax.IgnoreCase != 0 {
		opts |= regexp2.IgnoreCase
	}
	if flags&syntax.Multiline != 0 {
		opts |= regexp2.Multiline
	}
	if flags&syntax.DotAll != 0 {
		opts |= regexp2.Singleline
	} else {
		opts |= regexp2.ECMAScript
	}
	return opts
}

func newBacktracker(pattern string, flags syntax.Flags, names []string, timeout time.Duration) (*backtracker, error) {
	re, err := regexp2.Compile(pattern, backtrackOptions(flags))
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		re.MatchTimeout = timeout
	}

	var unnamed []int
	for _, num := range re.GetGroupNumbers() {
		if num != 0 && re.GroupNameFromNumber(num) == strconv.Itoa(num) {
			unnamed = append(unnamed, num)
		}
	}
	groups := make([]int, len(names))
	for i, name := range names {
		switch {
		case i == 0:
			groups[i] = 0
		case name != "":
			groups[i] = re.GroupNumberFromName(name)
		case len(unnamed) > 0:
			groups[i] = unnamed[0]
			unnamed = unnamed[1:]
		default:
			groups[i] = -1
		}
	}
	return &backtracker{re: re, groups: groups, sticky: flags.Has(syntax.Sticky)}, nil
}

// findAll returns up to n matches (all if n < 0) starting at or after the
// byte offset start, as byte offset registers.
func (b *backtracker) findAll(ctx context.Context, s string, start, n int) ([][]int, error) {
	runes := []rune(s)
	offsets := runeOffsets(s, len(runes))
	runeStart := 0
	for runeStart < len(runes) && offsets[runeStart] < start {
		runeStart++
	}

	var matches [][]int
	next := runeStart
	m, err := b.re.FindRunesMatchStartingAt(runes, runeStart)
	for ; m != nil && err == nil && (n < 0 || len(matches) < n); m, err = b.re.FindNextMatch(m) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", nfa.ErrInterrupted, err)
		}
		if b.sticky && m.Index != next {
			break
		}
		next = m.Index + m.Length
		if m.Length == 0 {
			next++
		}
		regs := make([]int, 2*len(b.groups))
		for i, num := range b.groups {
			regs[2*i], regs[2*i+1] = -1, -1
			g := m.GroupByNumber(num)
			if g == nil || len(g.Captures) == 0 {
				continue
			}
			regs[2*i] = offsets[g.Index]
			regs[2*i+1] = offsets[g.Index+g.Length]
		}
		matches = append(matches, regs)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", nfa.ErrInterrupted, err)
	}
	return matches, nil
}

// runeOffsets returns the byte offset of every rune of s, plus len(s).
func runeOffsets(s string, count int) []int {
	offsets := make([]int, 0, count+1)
	for i := range s {
		offsets = append(offsets, i)
	}
	return append(offsets, len(s))
}
