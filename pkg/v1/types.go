package v1

import "github.com/4thel00z/highlights/internal"

// Errors returned by the client. Compare with errors.Is.
var (
	ErrDocumentNotFound    = internal.ErrDocumentNotFound
	ErrDocumentCorrupt     = internal.ErrDocumentCorrupt
	ErrUnsupportedDocument = internal.ErrUnsupportedDocument
	ErrNoDocument          = internal.ErrNoDocument
	ErrPageOutOfRange      = internal.ErrPageOutOfRange
	ErrNoOccurrences       = internal.ErrNoOccurrences
	ErrInvalidColor        = internal.ErrInvalidColor
	ErrInvalidThreshold    = internal.ErrInvalidThreshold
	ErrPreconditionNotMet  = internal.ErrPreconditionNotMet
	ErrPersistenceFailure  = internal.ErrPersistenceFailure
	ErrNothingToUndo       = internal.ErrNothingToUndo
	ErrNothingToRedo       = internal.ErrNothingToRedo
)

// Rect is an axis-aligned rectangle in PDF user space.
type Rect struct {
	LLx float64 `json:"llx"`
	LLy float64 `json:"lly"`
	URx float64 `json:"urx"`
	URy float64 `json:"ury"`
}

// Color channels are in [0,1].
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// SearchResult describes the matches of a query on one page.
type SearchResult struct {
	Page          int    `json:"page"`
	Matches       []Rect `json:"matches"`
	Highlighted   bool   `json:"highlighted"`
	Color         *Color `json:"color,omitempty"`
	AnnotationIDs []int  `json:"annotation_ids,omitempty"`
	Context       string `json:"context,omitempty"`
}

// FileResult holds the results of one file of a directory search.
type FileResult struct {
	Path    string         `json:"path"`
	Results []SearchResult `json:"results"`
	Error   string         `json:"error,omitempty"`
}

// ToggleResult reports what a toggle did. Outcome is "added", "removed",
// "no_color_selected" or "error".
type ToggleResult struct {
	Outcome     string `json:"outcome"`
	Page        int    `json:"page"`
	Query       string `json:"query"`
	Annotations []int  `json:"annotations"`
}

func fromRect(r internal.Rect) Rect {
	return Rect{LLx: r.LLx, LLy: r.LLy, URx: r.URx, URy: r.URy}
}

func fromColor(c *internal.Color) *Color {
	if c == nil {
		return nil
	}
	return &Color{R: c.R, G: c.G, B: c.B}
}

func fromIDs(ids []internal.AnnotationID) []int {
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		out = append(out, int(id))
	}
	return out
}

func fromResults(results []internal.SearchResult) []SearchResult {
	out := make([]SearchResult, 0, len(results))
	for _, r := range results {
		sr := SearchResult{
			Page:          r.Page,
			Highlighted:   r.Highlighted(),
			Color:         fromColor(r.Color),
			AnnotationIDs: fromIDs(r.AnnotationIDs),
			Context:       r.Context,
		}
		for _, m := range r.Rects {
			sr.Matches = append(sr.Matches, fromRect(m))
		}
		out = append(out, sr)
	}
	return out
}
