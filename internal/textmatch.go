package internal

import (
	"golang.org/x/text/cases"
)

// TextSpan is a half-open range of rune indices.
type TextSpan struct {
	Start, End int
}

// FindAll returns the non-overlapping occurrences of query in text, left to
// right. Without CaseSensitive, matching uses Unicode case folding.
func FindAll(text []rune, query string, opts SearchOptions) []TextSpan {
	needle, _ := foldRunes([]rune(query), opts.CaseSensitive)
	if len(needle) == 0 {
		return nil
	}
	hay, index := foldRunes(text, opts.CaseSensitive)

	var spans []TextSpan
	for i := 0; i+len(needle) <= len(hay); {
		if !runesEqual(hay[i:i+len(needle)], needle) {
			i++
			continue
		}
		spans = append(spans, TextSpan{Start: index[i], End: index[i+len(needle)-1] + 1})
		i += len(needle)
	}
	return spans
}

// foldRunes folds rs and maps every folded rune back to its source index.
func foldRunes(rs []rune, caseSensitive bool) ([]rune, []int) {
	out := make([]rune, 0, len(rs))
	index := make([]int, 0, len(rs))
	if caseSensitive {
		for i, r := range rs {
			out = append(out, r)
			index = append(index, i)
		}
		return out, index
	}

	folder := cases.Fold()
	for i, r := range rs {
		for _, f := range folder.String(string(r)) {
			out = append(out, f)
			index = append(index, i)
		}
	}
	return out, index
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
