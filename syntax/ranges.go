package syntax

import (
	"slices"
)

// Canonicalize returns ranges sorted by Lo with overlapping and adjacent
// ranges merged. The input is not modified.
func Canonicalize(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	out := slices.Clone(ranges)
	slices.SortFunc(out, func(a, b Range) int {
		if a.Lo != b.Lo {
			return int(a.Lo - b.Lo)
		}
		return int(a.Hi - b.Hi)
	})
	w := 0
	for _, r := range out[1:] {
		if r.Lo <= out[w].Hi+1 {
			out[w].Hi = max(out[w].Hi, r.Hi)
			continue
		}
		w++
		out[w] = r
	}
	return out[:w+1]
}

// Negate returns the complement of ranges within [0, maxChar].
func Negate(ranges []Range, maxChar rune) []Range {
	var out []Range
	next := rune(0)
	for _, r := range Canonicalize(ranges) {
		if r.Lo > maxChar {
			break
		}
		if r.Lo > next {
			out = append(out, Range{next, r.Lo - 1})
		}
		next = r.Hi + 1
	}
	if next <= maxChar {
		out = append(out, Range{next, maxChar})
	}
	return out
}
