package nfa

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/google/go-cmp/cmp"

	"github.com/coregx/linregex/syntax"
)

func units(s string) []uint16 {
	return utf16.Encode([]rune(s))
}

// findAll returns every match of prog in input as register tuples.
func findAll(t *testing.T, prog *Program, input string, opts ...Option) [][]int {
	t.Helper()
	in := units(input)
	width := prog.RegisterCount()
	out := make([]int, width*(len(in)+1))
	n, err := FindMatches(prog, in, 0, out, opts...)
	if err != nil {
		t.Fatalf("FindMatches(%q): %v", input, err)
	}
	matches := make([][]int, n)
	for i := range matches {
		matches[i] = out[i*width : (i+1)*width]
	}
	return matches
}

func withTrace(f func(pc, index int)) Option {
	return func(o *options) { o.trace = f }
}

func TestPriorityAcrossSteps(t *testing.T) {
	// ".." accepts one step before "abc", but "abc" has higher priority
	// and is still alive, so it replaces the earlier match.
	prog := mustCompile(t, "abc|..|[a-c]{10,}", 0)
	in := NewInterpreter(prog, units("abcccccccccccccc"), 0)
	got, err := in.FindNextMatch()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 3}, got); diff != "" {
		t.Errorf("match mismatch (-want +got):\n%s", diff)
	}
	if accepts := in.Stats().Accepts; accepts != 2 {
		t.Errorf("Accepts = %d, want 2", accepts)
	}
}

func TestFindMatchesAdvance(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    [][]int
	}{
		{"a*", "aaa", [][]int{{0, 3}, {3, 3}}},
		{"a*", "", [][]int{{0, 0}}},
		{"a*", "baa", [][]int{{0, 0}, {1, 3}, {3, 3}}},
		{"", "ab", [][]int{{0, 0}, {1, 1}, {2, 2}}},
		{"a", "banana", [][]int{{1, 2}, {3, 4}, {5, 6}}},
		{"x", "banana", [][]int{}},
		{"an|a", "banana", [][]int{{1, 3}, {3, 5}, {5, 6}}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			got := findAll(t, mustCompile(t, tt.pattern, 0), tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("matches mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFindMatchesCapacity(t *testing.T) {
	prog := mustCompile(t, "a", 0)
	in := NewInterpreter(prog, units("aaaa"), 0)
	out := make([]int, 2*3)
	n, err := in.FindMatches(out)
	if err != nil || n != 3 {
		t.Fatalf("FindMatches = %d, %v; want 3", n, err)
	}
	if diff := cmp.Diff([]int{0, 1, 1, 2, 2, 3}, out); diff != "" {
		t.Errorf("out mismatch (-want +got):\n%s", diff)
	}
	// The next call resumes after the last reported match.
	n, err = in.FindMatches(out)
	if err != nil || n != 1 || out[0] != 3 || out[1] != 4 {
		t.Errorf("resumed FindMatches = %d, %v, %v", n, err, out[:2])
	}
	if n, _ := in.FindMatches(out); n != 0 {
		t.Errorf("exhausted FindMatches = %d, want 0", n)
	}
}

func TestMatchSemantics(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		flags   syntax.Flags
		input   string
		want    []int
	}{
		{"greedy star", "a*", 0, "aaa", []int{0, 3}},
		{"lazy plus", "a+?", 0, "aaa", []int{0, 1}},
		{"lazy bounded", "a{2,3}?", 0, "aaaa", []int{0, 2}},
		{"greedy bounded", "a{2,3}", 0, "aaaa", []int{0, 3}},
		{"leftmost", "b+", 0, "aabbb", []int{2, 5}},
		{"first alternative", "a|ab", 0, "ab", []int{0, 1}},
		{"captures", "(a|ab)(c|bcd)(d*)", 0, "abcd", []int{0, 4, 0, 1, 1, 4, 4, 4}},
		{"capture reset per iteration", "(?:(a)|b)+", 0, "ab", []int{0, 2, -1, -1}},
		{"last iteration wins", "(a?)*", 0, "aa", []int{0, 2, 1, 2}},
		{"empty iteration rejected", "(a?)*", 0, "b", []int{0, 0, -1, -1}},
		{"nested nullable loops", "(?:a*)*b", 0, "aab", []int{0, 3}},
		{"unmatched group", "(x)?y", 0, "y", []int{0, 1, -1, -1}},
		{"dot skips newline", "a.c", 0, "a\nc abc", []int{4, 7}},
		{"dotAll", "a.c", syntax.DotAll, "a\nc", []int{0, 3}},
		{"class", "[0-9]+", 0, "ab123c", []int{2, 5}},
		{"negated class", "[^a-z]+", 0, "abc12d", []int{3, 5}},
		{"negated class on astral", "[^a]", 0, "\U0001F600", []int{0, 1}},
		{"everything class", "[^]+", 0, "a\nb", []int{0, 3}},
		{"start anchor", "^b", 0, "ab", nil},
		{"end anchor", "b$", 0, "abb", []int{2, 3}},
		{"multiline start", "^b", syntax.Multiline, "a\nb", []int{2, 3}},
		{"multiline end", "a$", syntax.Multiline, "a\rb", []int{0, 1}},
		{"line separator", "^b", syntax.Multiline, "a\u2028b", []int{2, 3}},
		{"word boundary", `\bfoo\b`, 0, "afoo foo", []int{5, 8}},
		{"non boundary", `\Boo`, 0, "oo foo", []int{4, 6}},
		{"boundary at end", `o\b`, 0, "foo", []int{2, 3}},
		{"sticky", "a", syntax.Sticky, "ba", nil},
		{"surrogate units", "\U0001F600", 0, "x\U0001F600", []int{1, 3}},
		{"empty alternative", "a|", 0, "b", []int{0, 0}},
		{"anchored capture", "(^a)|b", 0, "ab", []int{0, 1, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustCompile(t, tt.pattern, tt.flags)
			got, err := NewInterpreter(prog, units(tt.input), 0).FindNextMatch()
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%q on %q mismatch (-want +got):\n%s", tt.pattern, tt.input, diff)
			}
		})
	}
}

func TestLookbehind(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    [][]int
	}{
		{"positive", "(?<=abc)d", "xabcd", [][]int{{4, 5}}},
		{"positive no match", "(?<=abc)d", "xabd", [][]int{}},
		{"negative", "(?<!a)b", "abcb", [][]int{{3, 4}}},
		{"at start", "(?<!a)b", "b", [][]int{{0, 1}}},
		{"repeated", "(?<=a)b", "abab", [][]int{{1, 2}, {3, 4}}},
		{"nested", "(?<=(?<!x)a)b", "xabab", [][]int{{4, 5}}},
		{"two lookbehinds", "(?<=a)(?<=[ab])c", "bcac", [][]int{{3, 4}}},
		{"negative capture undefined", "(?<!(z))b", "ab", [][]int{{1, 2, -1, -1}}},
		{"variable length", "(?<=a+)b", "caaab", [][]int{{4, 5}}},
		{"alternation", "(?<=ab|c)d", "adcdabd", [][]int{{3, 4}, {6, 7}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := findAll(t, mustCompile(t, tt.pattern, 0), tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("%q on %q mismatch (-want +got):\n%s", tt.pattern, tt.input, diff)
			}
		})
	}
}

func TestLookbehindSeesTextBeforeStart(t *testing.T) {
	prog := mustCompile(t, "(?<=a)b", 0)
	got, err := NewInterpreter(prog, units("ab"), 1).FindNextMatch()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestOneByteInput(t *testing.T) {
	prog := mustCompile(t, "caf[ée]", 0)
	input := []byte{'c', 'a', 'f', 0xE9}
	got, err := NewInterpreter(prog, input, 0).FindNextMatch()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{0, 4}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFindMatchesIdempotent(t *testing.T) {
	patterns := []string{"(a|b)*c", "(?<=a)b", "x*", `\b\w+\b`}
	input := units("abcab abab c xx bbb")
	for _, p := range patterns {
		prog := mustCompile(t, p, 0)
		out1 := make([]int, prog.RegisterCount()*len(input))
		out2 := make([]int, prog.RegisterCount()*len(input))
		n1, err1 := FindMatches(prog, input, 2, out1)
		n2, err2 := FindMatches(prog, input, 2, out2)
		if err1 != nil || err2 != nil {
			t.Fatalf("%q: %v, %v", p, err1, err2)
		}
		if n1 != n2 {
			t.Fatalf("%q: counts differ: %d vs %d", p, n1, n2)
		}
		if diff := cmp.Diff(out1, out2); diff != "" {
			t.Errorf("%q: outputs differ:\n%s", p, diff)
		}
	}
}

func TestDedupInvariant(t *testing.T) {
	patterns := []string{"(a|a)*b", "(?:a*)*", "(a?){3}a*", "(?:a|ab|abc)+d", "(?<=a*)b"}
	input := units(strings.Repeat("a", 50) + "ab")
	for _, p := range patterns {
		prog := mustCompile(t, p, 0)
		seen := make(map[[2]int]bool)
		trace := withTrace(func(pc, index int) {
			key := [2]int{pc, index}
			if seen[key] {
				t.Errorf("%q: pc %d executed twice at index %d", p, pc, index)
			}
			seen[key] = true
		})
		in := NewInterpreter(prog, input, 0, trace)
		if _, err := in.FindNextMatch(); err != nil {
			t.Fatal(err)
		}
		perIndex := make(map[int]int)
		for key := range seen {
			perIndex[key[1]]++
		}
		for index, n := range perIndex {
			if n > prog.Len() {
				t.Errorf("%q: %d pcs at index %d exceeds program size %d", p, n, index, prog.Len())
			}
		}
	}
}

func TestPeakRegisterArraysIndependentOfInputLength(t *testing.T) {
	patterns := []string{"(a|b)*c", "((a)|(b))+?z", "(?:x*y*)*q", "(?<!b)(a)c"}
	for _, p := range patterns {
		prog := mustCompile(t, p, 0)
		peak := func(n int) int {
			in := NewInterpreter(prog, units(strings.Repeat("ab", n/2)), 0)
			if _, err := in.FindNextMatch(); err != nil {
				t.Fatal(err)
			}
			return in.Stats().PeakRegisterArrays
		}
		short, long := peak(10), peak(10000)
		if short != long {
			t.Errorf("%q: peak register arrays %d for 10 units, %d for 10000", p, short, long)
		}
	}
}

func TestCheckpoint(t *testing.T) {
	prog := mustCompile(t, "z", 0)
	input := units(strings.Repeat("a", 200))

	calls := 0
	count := WithCheckpoint(func() error {
		calls++
		return nil
	})
	in := NewInterpreter(prog, input, 0, count)
	if m, err := in.FindNextMatch(); err != nil || m != nil {
		t.Fatalf("FindNextMatch = %v, %v", m, err)
	}
	if calls != 200/TicksBetweenChecks {
		t.Errorf("checkpoint called %d times, want %d", calls, 200/TicksBetweenChecks)
	}
	if steps := in.Stats().Steps; steps != 200 {
		t.Errorf("Steps = %d, want 200", steps)
	}
}

func TestCheckpointAborts(t *testing.T) {
	prog := mustCompile(t, "a+$", 0)
	input := units(strings.Repeat("a", 100))
	out := make([]int, 2)

	for _, want := range []error{ErrInterrupted, ErrResourceExhausted} {
		abort := WithCheckpoint(func() error { return want })
		n, err := FindMatches(prog, input, 0, out, abort)
		if !errors.Is(err, want) || n != 0 {
			t.Errorf("FindMatches = %d, %v; want 0, %v", n, err, want)
		}
	}

	// An interrupted search can be retried from the same start.
	n, err := FindMatches(prog, input, 0, out)
	if err != nil || n != 1 || out[0] != 0 || out[1] != 100 {
		t.Errorf("retry = %d, %v, %v", n, err, out)
	}
}

func TestCheckpointRetrySameInterpreter(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    []int
	}{
		{"a+$", strings.Repeat("a", 100), []int{0, 100}},
		{"(?<=b)a+$", "b" + strings.Repeat("a", 100), []int{1, 101}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			interrupted := false
			once := WithCheckpoint(func() error {
				if interrupted {
					return nil
				}
				interrupted = true
				return ErrInterrupted
			})
			in := NewInterpreter(mustCompile(t, tt.pattern, 0), units(tt.input), 0, once)
			out := make([]int, 2)
			if n, err := in.FindMatches(out); !errors.Is(err, ErrInterrupted) || n != 0 {
				t.Fatalf("first FindMatches = %d, %v; want 0, ErrInterrupted", n, err)
			}
			n, err := in.FindMatches(out)
			if err != nil || n != 1 {
				t.Fatalf("retry = %d, %v", n, err)
			}
			if diff := cmp.Diff(tt.want, out); diff != "" {
				t.Errorf("retry mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// Successive searches resume the lookbehind automata instead of running
// them again from the start of the input.
func TestLookbehindFindAllIsLinear(t *testing.T) {
	prog := mustCompile(t, "(?<=a)b", 0)
	for _, n := range []int{1000, 4000} {
		input := units(strings.Repeat("ab", n))
		in := NewInterpreter(prog, input, 0)
		out := make([]int, prog.RegisterCount()*16)
		total := 0
		for {
			k, err := in.FindMatches(out)
			if err != nil {
				t.Fatal(err)
			}
			total += k
			if k < 16 {
				break
			}
		}
		if total != n {
			t.Errorf("len %d: %d matches, want %d", len(input), total, n)
		}
		if steps := in.Stats().Steps; steps > 2*len(input) {
			t.Errorf("len %d: %d steps, want at most %d", len(input), steps, 2*len(input))
		}
	}
}

// Matches reported in batches of one agree with a single pass, for
// lookbehinds that see across match boundaries.
func TestLookbehindAcrossBatches(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    [][]int
	}{
		{"(?<=a)x*", "aab", [][]int{{1, 1}, {2, 2}}},
		{"(?<!a)b", "bbabb", [][]int{{0, 1}, {1, 2}, {4, 5}}},
		{"(?<=ab)c|(?<=c)a", "abcabca", [][]int{{2, 3}, {3, 4}, {5, 6}, {6, 7}}},
		{"(?<=a+)b+", "aabbxbab", [][]int{{2, 4}, {7, 8}}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			prog := mustCompile(t, tt.pattern, 0)
			if diff := cmp.Diff(tt.want, findAll(t, prog, tt.input)); diff != "" {
				t.Errorf("single pass (-want +got):\n%s", diff)
			}

			in := NewInterpreter(prog, units(tt.input), 0)
			var got [][]int
			for {
				m, err := in.FindNextMatch()
				if err != nil {
					t.Fatal(err)
				}
				if m == nil {
					break
				}
				got = append(got, m)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("one at a time (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSkip(t *testing.T) {
	prog := mustCompile(t, "needle|noodle", 0)
	text := strings.Repeat("x", 300) + "needle" + strings.Repeat("y", 300) + "noodle"
	input := units(text)
	skip := WithSkip(func(at int) int {
		if at > len(text) {
			return -1
		}
		i := strings.IndexByte(text[at:], 'n')
		if i < 0 {
			return -1
		}
		return at + i
	})

	plain := findAll(t, prog, text)
	skipped := findAll(t, prog, text, skip)
	if diff := cmp.Diff(plain, skipped); diff != "" {
		t.Errorf("skip changed matches (-plain +skip):\n%s", diff)
	}

	in := NewInterpreter(prog, input, 0, skip)
	if _, err := in.FindNextMatch(); err != nil {
		t.Fatal(err)
	}
	if s := in.Stats(); s.Skips == 0 || s.Steps >= 300 {
		t.Errorf("Stats = %+v, want skips and fewer than 300 steps", s)
	}
}

func TestSkipIgnoredForAnchoredPrograms(t *testing.T) {
	prog := mustCompile(t, "^a", 0)
	called := false
	skip := WithSkip(func(at int) int {
		called = true
		return -1
	})
	got, err := NewInterpreter(prog, units("a"), 0, skip).FindNextMatch()
	if err != nil || got == nil {
		t.Fatalf("FindNextMatch = %v, %v", got, err)
	}
	if called {
		t.Error("skip called for an anchored program")
	}
}

func TestReset(t *testing.T) {
	prog := mustCompile(t, "(b+)", 0)
	in := NewInterpreter(prog, units("abb"), 0)
	first, _ := in.FindNextMatch()
	in.Reset(units("bbbb"), 1)
	second, _ := in.FindNextMatch()
	if diff := cmp.Diff([]int{1, 3, 1, 3}, first); diff != "" {
		t.Errorf("first mismatch:\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 4, 1, 4}, second); diff != "" {
		t.Errorf("second mismatch:\n%s", diff)
	}
}

func TestArenaReuse(t *testing.T) {
	a := newArena(4)
	h1 := a.allocateUndefined()
	h2 := a.clone(h1)
	a.get(h2)[0] = 7
	if a.get(h1)[0] != undefined {
		t.Error("clone aliases its source")
	}
	a.release(h1)
	h3 := a.allocate()
	if h3 != h1 {
		t.Errorf("allocate = %d, want recycled %d", h3, h1)
	}
	if a.peak != 2 || a.live != 2 {
		t.Errorf("live = %d, peak = %d; want 2, 2", a.live, a.peak)
	}
	if a.clone(noRegisters) != noRegisters {
		t.Error("clone of noRegisters allocated")
	}
}
