package prefilter

import (
	"testing"

	"github.com/coregx/linregex/literal"
)

func seqOf(complete bool, lits ...string) *literal.Seq {
	out := make([]literal.Literal, len(lits))
	for i, s := range lits {
		out[i] = literal.NewLiteral([]byte(s), complete)
	}
	return literal.NewSeq(out...)
}

func TestBuildSelection(t *testing.T) {
	tests := []struct {
		name string
		seq  *literal.Seq
		want string
	}{
		{"nil", nil, "<nil>"},
		{"empty", literal.NewSeq(), "<nil>"},
		{"empty literal", seqOf(true, "", "a"), "<nil>"},
		{"single byte", seqOf(true, "a"), "*prefilter.memchrPrefilter"},
		{"substring", seqOf(true, "hello"), "*prefilter.memmemPrefilter"},
		{"shared prefix", seqOf(true, "hello", "help"), "*prefilter.memmemPrefilter"},
		{"alternation", seqOf(true, "foo", "bar"), "*prefilter.ahoCorasickPrefilter"},
		{"short shared prefix", seqOf(true, "abx", "aby"), "*prefilter.ahoCorasickPrefilter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := NewBuilder(tt.seq).Build()
			got := "<nil>"
			if pf != nil {
				got = typeName(pf)
			}
			if got != tt.want {
				t.Errorf("Build() = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(pf Prefilter) string {
	switch pf.(type) {
	case *memchrPrefilter:
		return "*prefilter.memchrPrefilter"
	case *memmemPrefilter:
		return "*prefilter.memmemPrefilter"
	case *ahoCorasickPrefilter:
		return "*prefilter.ahoCorasickPrefilter"
	default:
		return "unknown"
	}
}

func TestFind(t *testing.T) {
	haystack := []byte("foo hello bar world baz")
	tests := []struct {
		name  string
		seq   *literal.Seq
		start int
		want  int
	}{
		{"memchr", seqOf(true, "b"), 0, 10},
		{"memchr from start", seqOf(true, "b"), 11, 20},
		{"memchr miss", seqOf(true, "q"), 0, -1},
		{"memmem", seqOf(true, "world"), 0, 14},
		{"memmem past last", seqOf(true, "world"), 15, -1},
		{"shared prefix", seqOf(true, "barn", "bark"), 0, 10},
		{"aho-corasick leftmost", seqOf(true, "world", "hello"), 0, 4},
		{"aho-corasick resumes", seqOf(true, "world", "hello"), 5, 14},
		{"aho-corasick miss", seqOf(true, "xyz", "qrs"), 0, -1},
		{"start at end", seqOf(true, "a"), len(haystack), -1},
		{"negative start", seqOf(true, "a"), -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := NewBuilder(tt.seq).Build()
			if got := pf.Find(haystack, tt.start); got != tt.want {
				t.Errorf("Find(%d) = %d, want %d", tt.start, got, tt.want)
			}
		})
	}
}

// The automaton finds the literal that ends first; Find must still report
// the leftmost start.
func TestFindEarliestStart(t *testing.T) {
	tests := []struct {
		name     string
		seq      *literal.Seq
		haystack string
		start    int
		want     int
	}{
		{"longer literal contains shorter", seqOf(true, "c", "abab", "b"), "ccccabab", 4, 4},
		{"suffix literal ends first", seqOf(true, "abcd", "b"), "xxabcdxx", 0, 2},
		{"inner literal ends first", seqOf(true, "abcdef", "cd", "e"), "xabcdefx", 0, 1},
		{"window clipped at start", seqOf(true, "abcd", "b"), "xxabcdxx", 3, 3},
		{"no earlier start", seqOf(true, "abcd", "zz"), "zzabcd", 1, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := NewBuilder(tt.seq).Build()
			if _, ok := pf.(*ahoCorasickPrefilter); !ok {
				t.Fatalf("Build() = %s, want Aho-Corasick", typeName(pf))
			}
			if got := pf.Find([]byte(tt.haystack), tt.start); got != tt.want {
				t.Errorf("Find(%q, %d) = %d, want %d", tt.haystack, tt.start, got, tt.want)
			}
		})
	}
}

func TestCompleteness(t *testing.T) {
	tests := []struct {
		name         string
		seq          *literal.Seq
		wantComplete bool
		wantLen      int
	}{
		{"complete byte", seqOf(true, "a"), true, 1},
		{"complete substring", seqOf(true, "abc"), true, 3},
		{"incomplete substring", seqOf(false, "abc"), false, 0},
		{"shared prefix is never complete", seqOf(true, "hello", "help"), false, 0},
		{"same length alternation", seqOf(true, "foo", "bar"), true, 3},
		{"mixed length alternation", seqOf(true, "fo", "bar"), true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pf := NewBuilder(tt.seq).Build()
			if got := pf.IsComplete(); got != tt.wantComplete {
				t.Errorf("IsComplete() = %v, want %v", got, tt.wantComplete)
			}
			if got := pf.LiteralLen(); got != tt.wantLen {
				t.Errorf("LiteralLen() = %d, want %d", got, tt.wantLen)
			}
		})
	}
}

func TestHeapBytes(t *testing.T) {
	if got := NewBuilder(seqOf(true, "a")).Build().HeapBytes(); got != 0 {
		t.Errorf("memchr HeapBytes() = %d, want 0", got)
	}
	if got := NewBuilder(seqOf(true, "hello")).Build().HeapBytes(); got != 5 {
		t.Errorf("memmem HeapBytes() = %d, want 5", got)
	}
	if got := NewBuilder(seqOf(true, "ab", "xyz")).Build().HeapBytes(); got != 5 {
		t.Errorf("aho-corasick HeapBytes() = %d, want 5", got)
	}
}
