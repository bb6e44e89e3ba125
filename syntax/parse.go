package syntax

import (
	"unicode/utf16"
)

const (
	// MaxCodePoint is the largest code point in unicode mode.
	MaxCodePoint = 0x10FFFF

	// MaxCodeUnit is the largest UTF-16 code unit.
	MaxCodeUnit = 0xFFFF

	// maxNesting bounds the depth of nested groups the parser accepts.
	maxNesting = 1000
)

var (
	digitRanges = []Range{{'0', '9'}}
	wordRanges  = []Range{{'0', '9'}, {'A', 'Z'}, {'_', '_'}, {'a', 'z'}}
	spaceRanges = []Range{
		{'\t', '\r'}, {' ', ' '}, {0xA0, 0xA0}, {0x1680, 0x1680},
		{0x2000, 0x200A}, {0x2028, 0x2029}, {0x202F, 0x202F},
		{0x205F, 0x205F}, {0x3000, 0x3000}, {0xFEFF, 0xFEFF},
	}
	lineTerminatorRanges = []Range{{'\n', '\n'}, {'\r', '\r'}, {0x2028, 0x2029}}
)

// IsLineTerminator reports whether c is an ECMAScript line terminator.
func IsLineTerminator(c rune) bool {
	return c == '\n' || c == '\r' || c == 0x2028 || c == 0x2029
}

// IsWordChar reports whether c belongs to \w.
func IsWordChar(c rune) bool {
	return c == '_' || ('0' <= c && c <= '9') || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

type parser struct {
	expr      string
	src       []rune
	pos       int
	flags     Flags
	unicode   bool
	depth     int
	capIndex  int
	lookIndex int
	totalCaps int
	names     map[string]int
	seenNames map[string]bool
}

// Parse parses a regular expression pattern under the given flags.
//
// Outside unicode mode the pattern is processed as UTF-16 code units, so an
// astral character becomes a two-unit Atom.
func Parse(s string, flags Flags) (*Regexp, error) {
	p := &parser{
		expr:      s,
		flags:     flags,
		unicode:   flags&Unicode != 0,
		seenNames: make(map[string]bool),
	}
	runes := []rune(s)
	if p.unicode {
		p.src = runes
	} else {
		units := utf16.Encode(runes)
		p.src = make([]rune, len(units))
		for i, u := range units {
			p.src[i] = rune(u)
		}
	}
	p.scanGroups()

	re, err := p.parseDisjunction()
	if err != nil {
		return nil, err
	}
	if !p.eof() {
		// Only an unmatched ')' stops the top-level disjunction early.
		return nil, p.error(ErrUnexpectedParen)
	}
	return re, nil
}

func (p *parser) error(code ErrorCode) error {
	return &Error{Code: code, Expr: p.expr}
}

func (p *parser) eof() bool {
	return p.pos >= len(p.src)
}

func (p *parser) peek() rune {
	if p.eof() {
		return -1
	}
	return p.src[p.pos]
}

func (p *parser) peekAt(n int) rune {
	if p.pos+n >= len(p.src) {
		return -1
	}
	return p.src[p.pos+n]
}

func (p *parser) consume(c rune) bool {
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *parser) lookingAt(s string) bool {
	for i, c := range s {
		if p.peekAt(i) != c {
			return false
		}
	}
	return true
}

func (p *parser) maxChar() rune {
	if p.unicode {
		return MaxCodePoint
	}
	return MaxCodeUnit
}

// scanGroups counts capturing groups and collects their names so that
// backreferences may refer forward.
func (p *parser) scanGroups() {
	p.names = make(map[string]int)
	inClass := false
	for i := 0; i < len(p.src); i++ {
		switch c := p.src[i]; {
		case c == '\\':
			i++
		case c == '[':
			inClass = true
		case c == ']':
			inClass = false
		case c == '(' && !inClass:
			if i+1 >= len(p.src) || p.src[i+1] != '?' {
				p.totalCaps++
				continue
			}
			if i+2 < len(p.src) && p.src[i+2] == '<' && i+3 < len(p.src) &&
				p.src[i+3] != '=' && p.src[i+3] != '!' {
				p.totalCaps++
				end := i + 3
				for end < len(p.src) && p.src[end] != '>' {
					end++
				}
				name := string(p.src[i+3 : min(end, len(p.src))])
				if _, dup := p.names[name]; !dup {
					p.names[name] = p.totalCaps
				}
			}
		}
	}
}

func (p *parser) parseDisjunction() (*Regexp, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > maxNesting {
		return nil, p.error(ErrNestingDepth)
	}

	first, err := p.parseAlternative()
	if err != nil {
		return nil, err
	}
	if p.peek() != '|' {
		return first, nil
	}
	alts := []*Regexp{first}
	for p.consume('|') {
		alt, err := p.parseAlternative()
		if err != nil {
			return nil, err
		}
		alts = append(alts, alt)
	}
	return &Regexp{Op: OpDisjunction, Sub: alts}, nil
}

func (p *parser) parseAlternative() (*Regexp, error) {
	var terms []*Regexp
	for !p.eof() && p.peek() != '|' && p.peek() != ')' {
		term, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	terms = mergeText(terms)
	switch len(terms) {
	case 0:
		return &Regexp{Op: OpEmpty}, nil
	case 1:
		return terms[0], nil
	default:
		return &Regexp{Op: OpAlternative, Sub: terms}, nil
	}
}

// mergeText joins adjacent atoms into one Atom and adjacent runs of atoms
// and character classes into a Text node.
func mergeText(terms []*Regexp) []*Regexp {
	out := terms[:0:0]
	for _, t := range terms {
		if n := len(out); n > 0 && t.Op == OpAtom && out[n-1].Op == OpAtom {
			out[n-1] = &Regexp{Op: OpAtom, Units: append(append([]rune(nil), out[n-1].Units...), t.Units...)}
			continue
		}
		out = append(out, t)
	}
	merged := out[:0:0]
	for i := 0; i < len(out); {
		j := i
		hasClass := false
		for j < len(out) && (out[j].Op == OpAtom || out[j].Op == OpClassRanges) {
			hasClass = hasClass || out[j].Op == OpClassRanges
			j++
		}
		if j-i >= 2 && hasClass {
			merged = append(merged, &Regexp{Op: OpText, Sub: append([]*Regexp(nil), out[i:j]...)})
			i = j
			continue
		}
		if j == i {
			j = i + 1
		}
		merged = append(merged, out[i:j]...)
		i = j
	}
	return merged
}

func (p *parser) parseTerm() (*Regexp, error) {
	switch {
	case p.consume('^'):
		kind := StartOfInput
		if p.flags&Multiline != 0 {
			kind = StartOfLine
		}
		return p.noQuantifier(&Regexp{Op: OpAssertion, Assertion: kind})
	case p.consume('$'):
		kind := EndOfInput
		if p.flags&Multiline != 0 {
			kind = EndOfLine
		}
		return p.noQuantifier(&Regexp{Op: OpAssertion, Assertion: kind})
	case p.lookingAt(`\b`):
		p.pos += 2
		return p.noQuantifier(&Regexp{Op: OpAssertion, Assertion: Boundary})
	case p.lookingAt(`\B`):
		p.pos += 2
		return p.noQuantifier(&Regexp{Op: OpAssertion, Assertion: NonBoundary})
	case p.lookingAt("(?<=") || p.lookingAt("(?<!"):
		positive := p.peekAt(3) == '='
		p.pos += 4
		look, err := p.parseLookaround(Lookbehind, positive)
		if err != nil {
			return nil, err
		}
		return p.noQuantifier(look)
	case p.lookingAt("(?=") || p.lookingAt("(?!"):
		positive := p.peekAt(2) == '='
		p.pos += 3
		look, err := p.parseLookaround(Lookahead, positive)
		if err != nil {
			return nil, err
		}
		if p.unicode {
			return p.noQuantifier(look)
		}
		return p.parseQuantifier(look)
	}

	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	return p.parseQuantifier(atom)
}

func (p *parser) noQuantifier(re *Regexp) (*Regexp, error) {
	if _, _, ok := p.quantifierAhead(); ok {
		return nil, p.error(ErrNothingToRepeat)
	}
	return re, nil
}

func (p *parser) parseLookaround(look LookType, positive bool) (*Regexp, error) {
	index := p.lookIndex
	p.lookIndex++
	body, err := p.parseDisjunction()
	if err != nil {
		return nil, err
	}
	if !p.consume(')') {
		return nil, p.error(ErrMissingParen)
	}
	return &Regexp{Op: OpLookaround, Sub: []*Regexp{body}, Look: look, Positive: positive, Index: index}, nil
}

// quantifierAhead reports whether a quantifier starts at the current
// position and returns its bounds without consuming it.
func (p *parser) quantifierAhead() (lo, hi int, ok bool) {
	switch p.peek() {
	case '*':
		return 0, Infinity, true
	case '+':
		return 1, Infinity, true
	case '?':
		return 0, 1, true
	case '{':
		save := p.pos
		defer func() { p.pos = save }()
		p.pos++
		lo, ok = p.parseDecimal()
		if !ok {
			return 0, 0, false
		}
		hi = lo
		if p.consume(',') {
			hi = Infinity
			if n, more := p.parseDecimal(); more {
				hi = n
			}
		}
		if !p.consume('}') {
			return 0, 0, false
		}
		return lo, hi, true
	}
	return 0, 0, false
}

func (p *parser) parseDecimal() (int, bool) {
	start := p.pos
	n := 0
	for c := p.peek(); '0' <= c && c <= '9'; c = p.peek() {
		n = saturatingAdd(saturatingMul(n, 10), int(c-'0'))
		p.pos++
	}
	return n, p.pos > start
}

func (p *parser) parseQuantifier(atom *Regexp) (*Regexp, error) {
	lo, hi, ok := p.quantifierAhead()
	if !ok {
		return atom, nil
	}
	if p.peek() == '{' {
		for p.peek() != '}' {
			p.pos++
		}
	}
	p.pos++
	if lo > hi {
		return nil, p.error(ErrInvalidRepeatSize)
	}
	kind := Greedy
	if p.consume('?') {
		kind = NonGreedy
	}
	return &Regexp{Op: OpQuantifier, Sub: []*Regexp{atom}, Min: lo, Max: hi, Quantifier: kind}, nil
}

func (p *parser) parseAtom() (*Regexp, error) {
	c := p.peek()
	switch c {
	case '.':
		p.pos++
		if p.flags&DotAll != 0 {
			return &Regexp{Op: OpClassRanges, Ranges: []Range{{0, p.maxChar()}}}, nil
		}
		return &Regexp{Op: OpClassRanges, Ranges: append([]Range(nil), lineTerminatorRanges...), Negated: true}, nil
	case '(':
		return p.parseGroup()
	case '[':
		return p.parseClass()
	case '\\':
		return p.parseAtomEscape()
	case '*', '+', '?':
		return nil, p.error(ErrNothingToRepeat)
	case '{':
		if _, _, ok := p.quantifierAhead(); ok || p.unicode {
			return nil, p.error(ErrNothingToRepeat)
		}
	case '}', ']':
		if p.unicode {
			return nil, p.error(ErrLoneBracket)
		}
	}
	p.pos++
	return &Regexp{Op: OpAtom, Units: []rune{c}}, nil
}

func (p *parser) parseGroup() (*Regexp, error) {
	p.pos++ // (
	if !p.consume('?') {
		p.capIndex++
		return p.parseGroupBody(&Regexp{Op: OpCapture, Index: p.capIndex})
	}
	switch {
	case p.consume(':'):
		return p.parseGroupBody(&Regexp{Op: OpGroup, Flags: p.flags})
	case p.peek() == '<':
		p.pos++
		name, err := p.parseGroupName()
		if err != nil {
			return nil, err
		}
		if p.seenNames[name] {
			return nil, p.error(ErrDuplicateGroupName)
		}
		p.seenNames[name] = true
		p.capIndex++
		return p.parseGroupBody(&Regexp{Op: OpCapture, Index: p.capIndex, Name: name})
	default:
		return p.parseModifierGroup()
	}
}

func (p *parser) parseGroupBody(group *Regexp) (*Regexp, error) {
	body, err := p.parseDisjunction()
	if err != nil {
		return nil, err
	}
	if !p.consume(')') {
		return nil, p.error(ErrMissingParen)
	}
	group.Sub = []*Regexp{body}
	return group, nil
}

// parseModifierGroup parses (?ims-ims:…).
func (p *parser) parseModifierGroup() (*Regexp, error) {
	var add, remove Flags
	removing := false
	for {
		c := p.peek()
		var f Flags
		switch c {
		case 'i':
			f = IgnoreCase
		case 'm':
			f = Multiline
		case 's':
			f = DotAll
		case '-':
			if removing {
				return nil, p.error(ErrInvalidModifiers)
			}
			removing = true
			p.pos++
			continue
		case ':':
			p.pos++
			if add&remove != 0 || (removing && remove == 0) || (!removing && add == 0) {
				return nil, p.error(ErrInvalidModifiers)
			}
			saved := p.flags
			p.flags = (p.flags | add) &^ remove
			group, err := p.parseGroupBody(&Regexp{Op: OpGroup, Flags: p.flags})
			p.flags = saved
			return group, err
		default:
			return nil, p.error(ErrInvalidGroup)
		}
		if (add|remove)&f != 0 {
			return nil, p.error(ErrInvalidModifiers)
		}
		if removing {
			remove |= f
		} else {
			add |= f
		}
		p.pos++
	}
}

func (p *parser) parseGroupName() (string, error) {
	start := p.pos
	for !p.eof() && p.peek() != '>' {
		c := p.peek()
		if !(IsWordChar(c) || c == '$' || c >= 0x80) || (p.pos == start && '0' <= c && c <= '9') {
			return "", p.error(ErrInvalidGroupName)
		}
		p.pos++
	}
	if p.eof() || p.pos == start {
		return "", p.error(ErrInvalidGroupName)
	}
	name := string(p.src[start:p.pos])
	p.pos++ // >
	return name, nil
}

func (p *parser) parseAtomEscape() (*Regexp, error) {
	p.pos++ // backslash
	if p.eof() {
		return nil, p.error(ErrTrailingBackslash)
	}
	c := p.peek()
	switch {
	case c == 'd' || c == 'D' || c == 'w' || c == 'W' || c == 's' || c == 'S':
		p.pos++
		ranges, negated := classEscape(c)
		return &Regexp{Op: OpClassRanges, Ranges: append([]Range(nil), ranges...), Negated: negated}, nil
	case '1' <= c && c <= '9':
		save := p.pos
		n, _ := p.parseDecimal()
		if n <= p.totalCaps {
			return &Regexp{Op: OpBackReference, Index: n}, nil
		}
		if p.unicode {
			return nil, p.error(ErrInvalidEscape)
		}
		p.pos = save
		ch, err := p.parseCharEscape(false)
		if err != nil {
			return nil, err
		}
		return &Regexp{Op: OpAtom, Units: []rune{ch}}, nil
	case c == 'k' && (p.unicode || len(p.names) > 0):
		p.pos++
		if !p.consume('<') {
			return nil, p.error(ErrInvalidBackReference)
		}
		name, err := p.parseGroupName()
		if err != nil {
			return nil, err
		}
		index, ok := p.names[name]
		if !ok {
			return nil, p.error(ErrInvalidBackReference)
		}
		return &Regexp{Op: OpBackReference, Index: index, Name: name}, nil
	}
	ch, err := p.parseCharEscape(false)
	if err != nil {
		return nil, err
	}
	return &Regexp{Op: OpAtom, Units: []rune{ch}}, nil
}

func classEscape(c rune) ([]Range, bool) {
	switch c {
	case 'd':
		return digitRanges, false
	case 'D':
		return digitRanges, true
	case 'w':
		return wordRanges, false
	case 'W':
		return wordRanges, true
	case 's':
		return spaceRanges, false
	default:
		return spaceRanges, true
	}
}

// parseCharEscape parses the escape after a backslash and returns the
// character it denotes.
func (p *parser) parseCharEscape(inClass bool) (rune, error) {
	c := p.peek()
	p.pos++
	switch c {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case 'v':
		return '\v', nil
	case 'f':
		return '\f', nil
	case 'b':
		if inClass {
			return '\b', nil
		}
	case '0':
		if d := p.peek(); d < '0' || d > '9' {
			return 0, nil
		}
		if p.unicode {
			return 0, p.error(ErrInvalidEscape)
		}
		p.pos--
		return p.parseLegacyOctal(), nil
	case 'c':
		if l := p.peek(); ('a' <= l && l <= 'z') || ('A' <= l && l <= 'Z') {
			p.pos++
			return l % 32, nil
		}
		if p.unicode {
			return 0, p.error(ErrInvalidEscape)
		}
		// \c without a control letter is a literal backslash.
		p.pos--
		return '\\', nil
	case 'x':
		if v, ok := p.parseHex(2); ok {
			return v, nil
		}
		if p.unicode {
			return 0, p.error(ErrInvalidEscape)
		}
		return 'x', nil
	case 'u':
		if v, ok := p.parseUnicodeEscape(); ok {
			return v, nil
		}
		if p.unicode {
			return 0, p.error(ErrInvalidEscape)
		}
		return 'u', nil
	}
	if '1' <= c && c <= '9' && !p.unicode {
		if c >= '8' {
			return c, nil
		}
		p.pos--
		return p.parseLegacyOctal(), nil
	}
	if p.unicode {
		if isSyntaxChar(c) || c == '/' || (inClass && c == '-') {
			return c, nil
		}
		return 0, p.error(ErrInvalidEscape)
	}
	if c == -1 {
		return 0, p.error(ErrTrailingBackslash)
	}
	return c, nil
}

func isSyntaxChar(c rune) bool {
	switch c {
	case '^', '$', '\\', '.', '*', '+', '?', '(', ')', '[', ']', '{', '}', '|':
		return true
	}
	return false
}

func (p *parser) parseLegacyOctal() rune {
	v := rune(0)
	for i := 0; i < 3; i++ {
		d := p.peek()
		if d < '0' || d > '7' || v*8+(d-'0') > 0377 {
			break
		}
		v = v*8 + (d - '0')
		p.pos++
	}
	return v
}

func (p *parser) parseHex(n int) (rune, bool) {
	v := rune(0)
	for i := 0; i < n; i++ {
		d, ok := hexValue(p.peekAt(i))
		if !ok {
			return 0, false
		}
		v = v*16 + d
	}
	p.pos += n
	return v, true
}

func hexValue(c rune) (rune, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func (p *parser) parseUnicodeEscape() (rune, bool) {
	if p.unicode && p.peek() == '{' {
		save := p.pos
		p.pos++
		v := rune(0)
		digits := 0
		for {
			d, ok := hexValue(p.peek())
			if !ok {
				break
			}
			v = v*16 + d
			digits++
			p.pos++
			if v > MaxCodePoint {
				p.pos = save
				return 0, false
			}
		}
		if digits == 0 || !p.consume('}') {
			p.pos = save
			return 0, false
		}
		return v, true
	}
	v, ok := p.parseHex(4)
	if !ok {
		return 0, false
	}
	if p.unicode && utf16.IsSurrogate(v) && v < 0xDC00 && p.lookingAt(`\u`) {
		save := p.pos
		p.pos += 2
		if lo, ok := p.parseHex(4); ok && 0xDC00 <= lo && lo <= 0xDFFF {
			return utf16.DecodeRune(v, lo), true
		}
		p.pos = save
	}
	return v, true
}

func (p *parser) parseClass() (*Regexp, error) {
	p.pos++ // [
	negated := p.consume('^')
	var ranges []Range
	for {
		if p.eof() {
			return nil, p.error(ErrMissingBracket)
		}
		if p.consume(']') {
			break
		}
		lo, loSet, err := p.parseClassAtom()
		if err != nil {
			return nil, err
		}
		if p.peek() == '-' && p.peekAt(1) != ']' && p.peekAt(1) != -1 {
			p.pos++
			hi, hiSet, err := p.parseClassAtom()
			if err != nil {
				return nil, err
			}
			if loSet != nil || hiSet != nil {
				if p.unicode {
					return nil, p.error(ErrInvalidRange)
				}
				ranges = appendClassAtom(ranges, lo, loSet)
				ranges = append(ranges, Range{'-', '-'})
				ranges = appendClassAtom(ranges, hi, hiSet)
				continue
			}
			if lo > hi {
				return nil, p.error(ErrInvalidRange)
			}
			ranges = append(ranges, Range{lo, hi})
			continue
		}
		ranges = appendClassAtom(ranges, lo, loSet)
	}
	return &Regexp{Op: OpClassRanges, Ranges: ranges, Negated: negated}, nil
}

func appendClassAtom(ranges []Range, c rune, set []Range) []Range {
	if set != nil {
		return append(ranges, set...)
	}
	return append(ranges, Range{c, c})
}

// parseClassAtom returns either a single character or, for class escapes
// such as \d, the set of ranges it denotes.
func (p *parser) parseClassAtom() (rune, []Range, error) {
	c := p.peek()
	if c != '\\' {
		p.pos++
		return c, nil, nil
	}
	p.pos++
	if p.eof() {
		return 0, nil, p.error(ErrTrailingBackslash)
	}
	switch e := p.peek(); e {
	case 'd', 'D', 'w', 'W', 's', 'S':
		p.pos++
		ranges, negated := classEscape(e)
		if negated {
			ranges = Negate(ranges, p.maxChar())
		}
		return 0, ranges, nil
	case '-':
		if p.unicode {
			p.pos++
			return '-', nil, nil
		}
	}
	ch, err := p.parseCharEscape(true)
	return ch, nil, err
}
