package internal

import (
	"errors"
	"testing"
)

func highlight(id int, r Rect, c *Color) Annotation {
	return Annotation{ID: AnnotationID(id), Kind: KindHighlight, Rect: r, Color: c}
}

func TestValidateThreshold(t *testing.T) {
	for _, v := range []float64{0.01, 0.5, 1} {
		if err := ValidateThreshold(v); err != nil {
			t.Errorf("ValidateThreshold(%v) returned error: %v", v, err)
		}
	}
	for _, v := range []float64{0, -1, 1.5} {
		if err := ValidateThreshold(v); !errors.Is(err, ErrInvalidThreshold) {
			t.Errorf("ValidateThreshold(%v) expected ErrInvalidThreshold, got %v", v, err)
		}
	}
}

func TestOverlapRatio(t *testing.T) {
	ref := Rect{URx: 10, URy: 10}
	if got := OverlapRatio(ref, Rect{URx: 5, URy: 10}); got != 0.5 {
		t.Errorf("expected 0.5, got %v", got)
	}
	if got := OverlapRatio(ref, Rect{LLx: -5, LLy: -5, URx: 20, URy: 20}); got != 1 {
		t.Errorf("expected 1, got %v", got)
	}
	if got := OverlapRatio(Rect{}, ref); got != 0 {
		t.Errorf("zero-area reference should give 0, got %v", got)
	}
}

func TestClassifyFullCover(t *testing.T) {
	occ := []Rect{{LLx: 100, LLy: 700, URx: 130, URy: 712}}
	annots := []Annotation{highlight(7, occ[0], &Green)}

	m, ok := Classify(occ, annots, DefaultThreshold)
	if !ok {
		t.Fatal("expected a match")
	}
	if m.ID != 7 || m.Color == nil || *m.Color != Green || m.Ratio != 1 {
		t.Errorf("unexpected match %+v", m)
	}
}

func TestClassifyBelowThreshold(t *testing.T) {
	occ := []Rect{{URx: 10, URy: 10}}
	annots := []Annotation{highlight(1, Rect{URx: 4, URy: 10}, &Yellow)}

	if _, ok := Classify(occ, annots, DefaultThreshold); ok {
		t.Error("40% coverage should not classify at threshold 0.5")
	}
	if _, ok := Classify(occ, annots, 0.4); !ok {
		t.Error("40% coverage should classify at threshold 0.4")
	}
}

func TestClassifyThresholdBoundary(t *testing.T) {
	occ := []Rect{{URx: 100, URy: 100}}
	annots := []Annotation{highlight(1, Rect{URx: 60, URy: 100}, &Yellow)}

	if _, ok := Classify(occ, annots, 0.5); !ok {
		t.Error("60% coverage should classify at threshold 0.5")
	}
	if _, ok := Classify(occ, annots, 0.7); ok {
		t.Error("60% coverage should not classify at threshold 0.7")
	}
}

// With a single occurrence the union and the occurrence are the same
// rectangle, so the per-occurrence pass must not change any decision.
func TestClassifySingleOccurrenceBoundaries(t *testing.T) {
	occ := []Rect{{LLx: 100, LLy: 100, URx: 200, URy: 200}}
	tests := []struct {
		name  string
		r     Rect
		ratio float64
		match bool
	}{
		{"just below", Rect{LLx: 100, LLy: 100, URx: 149, URy: 200}, 0.49, false},
		{"exactly at", Rect{LLx: 100, LLy: 100, URx: 150, URy: 200}, 0.5, true},
		{"just above", Rect{LLx: 100, LLy: 100, URx: 151, URy: 200}, 0.51, true},
		{"shifted half off", Rect{LLx: 150, LLy: 100, URx: 250, URy: 200}, 0.5, true},
		{"touching edge", Rect{LLx: 200, LLy: 100, URx: 300, URy: 200}, 0, false},
		{"disjoint", Rect{LLx: 300, LLy: 300, URx: 400, URy: 400}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			annots := []Annotation{highlight(1, tt.r, &Yellow)}
			if got := bestOccurrenceRatio(occ, tt.r); got != OverlapRatio(occ[0], tt.r) {
				t.Fatalf("occurrence ratio %v differs from union ratio %v", got, OverlapRatio(occ[0], tt.r))
			}

			m, ok := Classify(occ, annots, 0.5)
			if ok != tt.match {
				t.Fatalf("Classify ok = %v, want %v", ok, tt.match)
			}
			if ok && m.Ratio != tt.ratio {
				t.Errorf("ratio = %v, want %v", m.Ratio, tt.ratio)
			}
			if covering := Covering(occ, annots, 0.5); (len(covering) == 1) != tt.match {
				t.Errorf("Covering = %v, want match %v", covering, tt.match)
			}
		})
	}
}

func TestClassifyIgnoresOtherKinds(t *testing.T) {
	occ := []Rect{{URx: 10, URy: 10}}
	annots := []Annotation{
		{ID: 1, Kind: KindFreeText, Rect: occ[0]},
		{ID: 2, Kind: KindOther, Rect: occ[0]},
	}
	if _, ok := Classify(occ, annots, DefaultThreshold); ok {
		t.Error("non-highlight annotations must not match")
	}
}

func TestClassifyNoTargets(t *testing.T) {
	annots := []Annotation{highlight(1, Rect{URx: 10, URy: 10}, nil)}
	if _, ok := Classify(nil, annots, DefaultThreshold); ok {
		t.Error("no targets should give no match")
	}
	if _, ok := Classify([]Rect{{LLx: 5, LLy: 5, URx: 5, URy: 5}}, annots, DefaultThreshold); ok {
		t.Error("zero-area union should give no match")
	}
}

func TestClassifyTieGoesToFirst(t *testing.T) {
	occ := []Rect{{URx: 10, URy: 10}}
	annots := []Annotation{
		highlight(4, occ[0], &Red),
		highlight(2, occ[0], &Cyan),
	}
	m, ok := Classify(occ, annots, DefaultThreshold)
	if !ok || m.ID != 4 {
		t.Errorf("expected first annotation 4, got %+v (ok=%v)", m, ok)
	}
}

func TestClassifyPrefersLargestOverlap(t *testing.T) {
	occ := []Rect{{URx: 10, URy: 10}}
	annots := []Annotation{
		highlight(1, Rect{URx: 6, URy: 10}, &Red),
		highlight(2, Rect{URx: 9, URy: 10}, &Cyan),
	}
	m, ok := Classify(occ, annots, DefaultThreshold)
	if !ok || m.ID != 2 {
		t.Errorf("expected annotation 2, got %+v (ok=%v)", m, ok)
	}
}

func TestClassifySpreadOccurrences(t *testing.T) {
	// two occurrences far apart; each has its own highlight covering it
	occ := []Rect{
		{LLx: 72, LLy: 700, URx: 102, URy: 712},
		{LLx: 72, LLy: 100, URx: 102, URy: 112},
	}
	annots := []Annotation{
		highlight(10, occ[0], &Yellow),
		highlight(11, occ[1], &Yellow),
	}

	m, ok := Classify(occ, annots, DefaultThreshold)
	if !ok {
		t.Fatal("per-occurrence highlights should classify as highlighted")
	}
	if m.ID != 10 {
		t.Errorf("expected first highlight, got %+v", m)
	}

	covering := Covering(occ, annots, DefaultThreshold)
	if len(covering) != 2 {
		t.Errorf("expected both highlights to be covering, got %d", len(covering))
	}
}

func TestCoveringSkipsUnrelated(t *testing.T) {
	occ := []Rect{{LLx: 72, LLy: 700, URx: 102, URy: 712}}
	annots := []Annotation{
		highlight(1, occ[0], &Yellow),
		highlight(2, Rect{LLx: 300, LLy: 300, URx: 400, URy: 320}, &Yellow),
		{ID: 3, Kind: KindFreeText, Rect: occ[0]},
	}
	covering := Covering(occ, annots, DefaultThreshold)
	if len(covering) != 1 || covering[0].ID != 1 {
		t.Errorf("expected only annotation 1, got %+v", covering)
	}
}
