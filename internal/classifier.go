package internal

import "fmt"

const DefaultThreshold = 0.5

// Match is the highlight annotation judged to cover a set of occurrences.
type Match struct {
	ID    AnnotationID
	Color *Color
	Ratio float64
}

func ValidateThreshold(t float64) error {
	if !(t > 0 && t <= 1) {
		return fmt.Errorf("threshold %v outside (0,1]: %w", t, ErrInvalidThreshold)
	}
	return nil
}

// OverlapRatio is the share of ref covered by r.
func OverlapRatio(ref, r Rect) float64 {
	a := Area(ref)
	if a == 0 {
		return 0
	}
	return IntersectionArea(ref, r) / a
}

// Classify finds the highlight annotation that best covers targets.
//
// Highlights are first scored against the union of targets. When none
// reaches threshold, each highlight is scored against the single occurrence
// it covers best, so a set of per-occurrence highlights spread over a page
// still classifies as highlighted. Ties go to the annotation seen first.
func Classify(targets []Rect, annots []Annotation, threshold float64) (Match, bool) {
	union, ok := targetUnion(targets)
	if !ok {
		return Match{}, false
	}

	if m, ok := bestMatch(annots, threshold, func(r Rect) float64 {
		return OverlapRatio(union, r)
	}); ok {
		return m, true
	}

	return bestMatch(annots, threshold, func(r Rect) float64 {
		return bestOccurrenceRatio(targets, r)
	})
}

// Covering returns every highlight annotation that covers targets under
// either scoring of Classify. Removing all of them leaves targets
// unhighlighted.
func Covering(targets []Rect, annots []Annotation, threshold float64) []Annotation {
	union, ok := targetUnion(targets)
	if !ok {
		return nil
	}

	var out []Annotation
	for _, a := range annots {
		if !a.IsHighlight() {
			continue
		}
		if OverlapRatio(union, a.Rect) >= threshold || bestOccurrenceRatio(targets, a.Rect) >= threshold {
			out = append(out, a)
		}
	}
	return out
}

func targetUnion(targets []Rect) (Rect, bool) {
	if len(targets) == 0 {
		return Rect{}, false
	}
	union, err := Union(targets)
	if err != nil || Area(union) == 0 {
		return Rect{}, false
	}
	return union, true
}

func bestMatch(annots []Annotation, threshold float64, score func(Rect) float64) (Match, bool) {
	var best Match
	found := false
	for _, a := range annots {
		if !a.IsHighlight() {
			continue
		}
		ratio := score(a.Rect)
		if !found || ratio > best.Ratio {
			best = Match{ID: a.ID, Color: a.Color, Ratio: ratio}
			found = true
		}
	}
	if !found || best.Ratio < threshold {
		return Match{}, false
	}
	return best, true
}

func bestOccurrenceRatio(targets []Rect, r Rect) float64 {
	best := 0.0
	for _, t := range targets {
		if ratio := OverlapRatio(t, r); ratio > best {
			best = ratio
		}
	}
	return best
}
