// Package linregex provides ECMAScript regular expressions that run in time
// linear in the input.
//
// Patterns are compiled to bytecode for a breadth-first NFA interpreter
// that reports the same matches a backtracking engine would, including
// captures, lazy quantifiers and lookbehind, but never backtracks. Patterns
// it cannot run (backreferences, lookahead, case-insensitive or unicode
// mode) fall back to a backtracking engine unless the configuration
// forbids it.
//
// Basic usage:
//
//	re, err := linregex.Compile(`(\d+)-(\d+)`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(re.FindStringSubmatch("range 10-20")) // [10-20 10 20]
//
// Flags use the ECMAScript letters:
//
//	re, err := linregex.CompileWithFlags(`^\w+$`, "m")
//
// Searches that must be bounded take a context:
//
//	ctx, cancel := context.WithTimeout(ctx, time.Second)
//	defer cancel()
//	loc, err := re.FindStringSubmatchIndexContext(ctx, input)
//
// Offsets are byte offsets into the searched string, as in package regexp.
//
// Methods without a context cannot be interrupted. If a search exceeds
// Config.MemoryLimit or Config.MaxRegisterArrays it is aborted and reported
// as no match; the Context variants return the error instead.
package linregex

import (
	"context"
	"strconv"
	"strings"

	"github.com/coregx/linregex/meta"
	"github.com/coregx/linregex/syntax"
)

// Regex represents a compiled regular expression.
//
// A Regex is safe to use concurrently from multiple goroutines, except for
// ResetStats.
//
// Example:
//
//	re := linregex.MustCompile(`hello`)
//	if re.MatchString("hello world") {
//	    println("matched!")
//	}
type Regex struct {
	engine  *meta.Engine
	pattern string
}

// Regexp is an alias for Regex for code written against package regexp.
type Regexp = Regex

// Compile compiles a regular expression pattern with no flags.
//
// Example:
//
//	re, err := linregex.Compile(`\d{3}-\d{4}`)
//	if err != nil {
//	    log.Fatal(err)
//	}
func Compile(pattern string) (*Regex, error) {
	return CompileWithConfig(pattern, "", meta.DefaultConfig())
}

// CompileWithFlags compiles pattern with ECMAScript flag letters such as
// "gm". Unknown or repeated letters are an error.
func CompileWithFlags(pattern, flags string) (*Regex, error) {
	return CompileWithConfig(pattern, flags, meta.DefaultConfig())
}

// MustCompile compiles a regular expression pattern and panics if it fails.
//
// Example:
//
//	var emailRegex = linregex.MustCompile(`[a-z]+@[a-z]+\.[a-z]+`)
func MustCompile(pattern string) *Regex {
	re, err := Compile(pattern)
	if err != nil {
		panic("regexp: Compile(`" + pattern + "`): " + err.Error())
	}
	return re
}

// CompileWithConfig compiles a pattern with flags and a custom configuration.
//
// Example:
//
//	config := linregex.DefaultConfig()
//	config.EnableFallback = false // Only accept linear-time patterns
//	re, err := linregex.CompileWithConfig(`(a|b)*c`, "", config)
func CompileWithConfig(pattern, flags string, config meta.Config) (*Regex, error) {
	f, err := syntax.ParseFlags(flags)
	if err != nil {
		return nil, err
	}
	engine, err := meta.Compile(pattern, f, config)
	if err != nil {
		return nil, err
	}
	return &Regex{
		engine:  engine,
		pattern: pattern,
	}, nil
}

// DefaultConfig returns the default configuration for compilation.
func DefaultConfig() meta.Config {
	return meta.DefaultConfig()
}

// QuoteMeta returns a string that escapes all regular expression
// metacharacters inside the argument text; the returned string is a
// regular expression matching the literal text.
//
// Example:
//
//	escaped := linregex.QuoteMeta("1+1=2?")
//	// escaped = `1\+1=2\?`
func QuoteMeta(s string) string {
	const special = `\^$.*+?()[]{}|/`

	n := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			n++
		}
	}
	if n == 0 {
		return s
	}

	buf := make([]byte, 0, len(s)+n)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			buf = append(buf, '\\')
		}
		buf = append(buf, s[i])
	}
	return string(buf)
}

// String returns the source text used to compile the regular expression.
func (r *Regex) String() string {
	return r.pattern
}

// Flags returns the flags the expression was compiled with, as letters in
// alphabetical order.
func (r *Regex) Flags() string {
	return r.engine.Flags().String()
}

// Strategy returns the engine selected for the expression.
func (r *Regex) Strategy() meta.Strategy {
	return r.engine.Strategy()
}

// Program returns a disassembly of the bytecode, or "" when the
// expression runs on the backtracking engine.
func (r *Regex) Program() string {
	if prog := r.engine.Program(); prog != nil {
		return prog.String()
	}
	return ""
}

// Stats returns execution statistics accumulated by all searches.
func (r *Regex) Stats() meta.Stats {
	return r.engine.Stats()
}

// ResetStats resets execution statistics to zero.
func (r *Regex) ResetStats() {
	r.engine.ResetStats()
}

// NumSubexp returns the number of parenthesized subexpressions (capture groups).
func (r *Regex) NumSubexp() int {
	return r.engine.NumCaptures()
}

// SubexpNames returns the names of the parenthesized subexpressions in this Regex.
// The name for the first sub-expression is names[1], so that if m is a match slice,
// the name for m[i] is SubexpNames()[i]. names[0] is always the empty string.
// The slice returned is shared and must not be modified.
func (r *Regex) SubexpNames() []string {
	return r.engine.SubexpNames()
}

// SubexpIndex returns the index of the first subexpression with the given
// name, or -1 if there is none.
func (r *Regex) SubexpIndex(name string) int {
	if name == "" {
		return -1
	}
	for i, n := range r.engine.SubexpNames() {
		if n == name {
			return i
		}
	}
	return -1
}

// findAll is the one search entry point. n < 0 means all matches.
func (r *Regex) findAll(ctx context.Context, s string, n int) ([][]int, error) {
	return r.engine.FindAll(ctx, s, 0, n)
}

// find returns the registers of the first match, or nil. Searches without
// a context only fail on configured resource limits, and report no match.
func (r *Regex) find(s string) []int {
	m, err := r.engine.Find(context.Background(), s, 0)
	if err != nil {
		return nil
	}
	return m
}

func (r *Regex) findAllNoContext(s string, n int) [][]int {
	matches, err := r.findAll(context.Background(), s, n)
	if err != nil {
		return nil
	}
	return matches
}

// Match reports whether the byte slice b contains any match of the pattern.
func (r *Regex) Match(b []byte) bool {
	return r.MatchString(string(b))
}

// MatchString reports whether the string s contains any match of the pattern.
// A search aborted by a configured resource limit reports false; use
// MatchStringContext to tell the two apart.
//
// Example:
//
//	re := linregex.MustCompile(`(?<=\$)\d+`)
//	re.MatchString("cost: $30") // true
func (r *Regex) MatchString(s string) bool {
	return r.find(s) != nil
}

// MatchStringContext is like MatchString but stops when ctx is done and
// reports why a search was aborted.
func (r *Regex) MatchStringContext(ctx context.Context, s string) (bool, error) {
	m, err := r.engine.Find(ctx, s, 0)
	return m != nil, err
}

// Find returns a slice holding the text of the leftmost match in b.
// Returns nil if no match is found.
func (r *Regex) Find(b []byte) []byte {
	loc := r.FindIndex(b)
	if loc == nil {
		return nil
	}
	return b[loc[0]:loc[1]:loc[1]]
}

// FindIndex returns a two-element slice of integers defining the location of
// the leftmost match in b. Returns nil if no match is found.
func (r *Regex) FindIndex(b []byte) []int {
	return r.FindStringIndex(string(b))
}

// FindString returns a string holding the text of the leftmost match in s.
// Returns empty string if no match is found.
//
// Example:
//
//	re := linregex.MustCompile(`\d+`)
//	println(re.FindString("age: 42")) // "42"
func (r *Regex) FindString(s string) string {
	loc := r.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	return s[loc[0]:loc[1]]
}

// FindStringIndex returns a two-element slice of integers defining the location
// of the leftmost match in s. Returns nil if no match is found.
func (r *Regex) FindStringIndex(s string) []int {
	m := r.find(s)
	if m == nil {
		return nil
	}
	return m[:2:2]
}

// FindStringSubmatch returns a slice of strings holding the text of the
// leftmost match and its capture groups. Groups that did not participate
// are empty strings. Returns nil if no match is found.
//
// Example:
//
//	re := linregex.MustCompile(`(\w+)@(\w+)\.com`)
//	m := re.FindStringSubmatch("mail: user@example.com")
//	// m = ["user@example.com", "user", "example"]
func (r *Regex) FindStringSubmatch(s string) []string {
	m := r.find(s)
	if m == nil {
		return nil
	}
	return submatchStrings(s, m)
}

// FindStringSubmatchIndex returns the index pairs identifying the leftmost
// match of the pattern in s and its capture groups. Unmatched groups have
// -1 indices. Returns nil if no match is found.
func (r *Regex) FindStringSubmatchIndex(s string) []int {
	return r.find(s)
}

// FindStringSubmatchIndexContext is like FindStringSubmatchIndex but stops
// when ctx is done and reports why a search was aborted.
func (r *Regex) FindStringSubmatchIndexContext(ctx context.Context, s string) ([]int, error) {
	return r.engine.Find(ctx, s, 0)
}

// FindAllString returns a slice of all successive matches of the pattern in s.
// If n >= 0, it returns at most n matches. If n < 0, it returns all matches.
// Like every FindAll method without a context, it returns nil when a
// configured resource limit aborts the search; see
// FindAllStringSubmatchIndexContext.
//
// Example:
//
//	re := linregex.MustCompile(`\d+`)
//	matches := re.FindAllString("1 22 333", -1)
//	// matches = ["1", "22", "333"]
func (r *Regex) FindAllString(s string, n int) []string {
	matches := r.findAllNoContext(s, n)
	if matches == nil {
		return nil
	}
	result := make([]string, len(matches))
	for i, m := range matches {
		result[i] = s[m[0]:m[1]]
	}
	return result
}

// FindAllStringIndex returns a slice of all successive matches of the
// pattern in s, as index pairs [start, end].
// If n >= 0, it returns at most n matches. If n < 0, it returns all matches.
func (r *Regex) FindAllStringIndex(s string, n int) [][]int {
	matches := r.findAllNoContext(s, n)
	for i, m := range matches {
		matches[i] = m[:2:2]
	}
	return matches
}

// FindAllIndex is like FindAllStringIndex for a byte slice.
func (r *Regex) FindAllIndex(b []byte, n int) [][]int {
	return r.FindAllStringIndex(string(b), n)
}

// FindAllStringSubmatch returns a slice of all successive matches of the
// pattern in s, where each match includes all capture groups as strings.
// If n >= 0, it returns at most n matches. If n < 0, it returns all matches.
func (r *Regex) FindAllStringSubmatch(s string, n int) [][]string {
	matches := r.findAllNoContext(s, n)
	if matches == nil {
		return nil
	}
	result := make([][]string, len(matches))
	for i, m := range matches {
		result[i] = submatchStrings(s, m)
	}
	return result
}

// FindAllStringSubmatchIndex returns a slice of all successive matches of
// the pattern in s, where each match includes index pairs for all capture
// groups.
// If n >= 0, it returns at most n matches. If n < 0, it returns all matches.
func (r *Regex) FindAllStringSubmatchIndex(s string, n int) [][]int {
	return r.findAllNoContext(s, n)
}

// FindAllStringSubmatchIndexContext is like FindAllStringSubmatchIndex but
// stops when ctx is done and reports why a search was aborted. No partial
// results are returned on error.
func (r *Regex) FindAllStringSubmatchIndexContext(ctx context.Context, s string, n int) ([][]int, error) {
	return r.findAll(ctx, s, n)
}

// CountString returns the number of non-overlapping matches of the pattern in s.
// If n >= 0, counts at most n matches. If n < 0, counts all matches.
func (r *Regex) CountString(s string, n int) int {
	return len(r.findAllNoContext(s, n))
}

func submatchStrings(s string, m []int) []string {
	result := make([]string, len(m)/2)
	for i := range result {
		if m[2*i] >= 0 {
			result[i] = s[m[2*i]:m[2*i+1]]
		}
	}
	return result
}

// expand appends template to dst and returns the result; during the
// append, it replaces $1, $2, etc. with the corresponding submatch,
// $<name> with a named group, $& with the entire match and $$ with $.
func (r *Regex) expand(dst []byte, template string, src string, match []int) []byte {
	group := func(i int) {
		if 2*i+1 < len(match) && match[2*i] >= 0 {
			dst = append(dst, src[match[2*i]:match[2*i+1]]...)
		}
	}

	i := 0
	for i < len(template) {
		if template[i] != '$' || i+1 >= len(template) {
			dst = append(dst, template[i])
			i++
			continue
		}

		next := template[i+1]
		switch {
		case next == '$':
			dst = append(dst, '$')
			i += 2
		case next == '&':
			group(0)
			i += 2
		case next >= '0' && next <= '9':
			// Two digits are taken when they name an existing group.
			j := i + 2
			if j < len(template) && template[j] >= '0' && template[j] <= '9' {
				if n, _ := strconv.Atoi(template[i+1 : j+1]); n <= r.NumSubexp() {
					j++
				}
			}
			n, _ := strconv.Atoi(template[i+1 : j])
			if n == 0 || n > r.NumSubexp() {
				dst = append(dst, template[i:j]...)
			} else {
				group(n)
			}
			i = j
		case next == '<':
			end := strings.IndexByte(template[i+2:], '>')
			if end < 0 {
				dst = append(dst, '$')
				i++
				continue
			}
			if idx := r.SubexpIndex(template[i+2 : i+2+end]); idx > 0 {
				group(idx)
			}
			i += end + 3
		default:
			dst = append(dst, '$')
			i++
		}
	}
	return dst
}

// ReplaceAllString returns a copy of src, replacing matches of the pattern
// with the replacement string repl. Inside repl, $ sequences follow
// ECMAScript String.prototype.replace: $& is the entire match, $1 to $99
// are capture groups, $<name> is a named group and $$ is a literal $.
//
// Example:
//
//	re := linregex.MustCompile(`(\w+)@(\w+)\.(\w+)`)
//	result := re.ReplaceAllString("user@example.com", "$1 at $2 dot $3")
//	// result = "user at example dot com"
func (r *Regex) ReplaceAllString(src, repl string) string {
	matches := r.findAllNoContext(src, -1)
	if len(matches) == 0 {
		return src
	}

	var result []byte
	lastEnd := 0
	for _, m := range matches {
		result = append(result, src[lastEnd:m[0]]...)
		result = r.expand(result, repl, src, m)
		lastEnd = m[1]
	}
	result = append(result, src[lastEnd:]...)
	return string(result)
}

// ReplaceAllLiteralString returns a copy of src, replacing matches of the pattern
// with the replacement string repl.
// The replacement is substituted directly, without expanding $ variables.
func (r *Regex) ReplaceAllLiteralString(src, repl string) string {
	return r.ReplaceAllStringFunc(src, func(string) string { return repl })
}

// ReplaceAllStringFunc returns a copy of src in which all matches of the pattern
// have been replaced by the return value of function repl applied to the matched
// string.
//
// Example:
//
//	re := linregex.MustCompile(`\d+`)
//	result := re.ReplaceAllStringFunc("1 2 3", func(s string) string {
//	    n, _ := strconv.Atoi(s)
//	    return strconv.Itoa(n * 2)
//	})
//	// result = "2 4 6"
func (r *Regex) ReplaceAllStringFunc(src string, repl func(string) string) string {
	indices := r.FindAllStringIndex(src, -1)
	if len(indices) == 0 {
		return src
	}

	var b strings.Builder
	lastEnd := 0
	for _, idx := range indices {
		b.WriteString(src[lastEnd:idx[0]])
		b.WriteString(repl(src[idx[0]:idx[1]]))
		lastEnd = idx[1]
	}
	b.WriteString(src[lastEnd:])
	return b.String()
}

// Split slices s into substrings separated by the expression and returns a slice
// of the substrings between those expression matches.
//
// The count determines the number of substrings to return:
//
//	n > 0: at most n substrings; the last substring will be the unsplit remainder.
//	n == 0: the result is nil (zero substrings)
//	n < 0: all substrings
//
// Example:
//
//	re := linregex.MustCompile(`,\s*`)
//	parts := re.Split("a, b,c", -1)
//	// parts = ["a", "b", "c"]
func (r *Regex) Split(s string, n int) []string {
	if n == 0 {
		return nil
	}

	indices := r.FindAllStringIndex(s, -1)
	if len(indices) == 0 {
		return []string{s}
	}

	result := make([]string, 0, len(indices)+1)
	beg, end := 0, 0
	for _, idx := range indices {
		if n > 0 && len(result) == n-1 {
			break
		}
		end = idx[0]
		// An empty match at the start separates nothing.
		if idx[1] != 0 {
			result = append(result, s[beg:end])
		}
		beg = idx[1]
	}
	if end != len(s) {
		result = append(result, s[beg:])
	}
	return result
}
