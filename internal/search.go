package internal

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// SearchResult describes the occurrences of a query on one page.
type SearchResult struct {
	Page          int
	Query         string
	Rects         []Rect
	Color         *Color
	AnnotationIDs []AnnotationID
	Context       string
}

func (r SearchResult) MatchCount() int {
	return len(r.Rects)
}

func (r SearchResult) Highlighted() bool {
	return r.Color != nil || len(r.AnnotationIDs) > 0
}

// SearchService runs a query over every page of the session's document.
type SearchService struct {
	session  *Session
	settings Settings
	logger   *zap.Logger
}

func NewSearchService(session *Session, settings Settings, logger *zap.Logger) *SearchService {
	return &SearchService{
		session:  session,
		settings: settings,
		logger:   orNop(logger),
	}
}

// Search returns one result per page containing query, in page order.
// Pages without occurrences are omitted.
func (s *SearchService) Search(ctx context.Context, query string) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	doc, err := s.session.Document()
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for page := 1; page <= doc.PageCount(); page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		res, ok, err := s.searchPage(doc, page, query)
		if err != nil {
			return nil, fmt.Errorf("search page %d: %w", page, err)
		}
		if ok {
			results = append(results, res)
		}
	}

	s.logger.Debug("search",
		zap.String("path", s.session.Path()),
		zap.String("query", query),
		zap.Int("pages", len(results)),
	)
	return results, nil
}

func (s *SearchService) searchPage(doc Document, page int, query string) (SearchResult, bool, error) {
	occs, err := doc.SearchPage(page, query, s.settings.SearchOptions())
	if err != nil {
		return SearchResult{}, false, err
	}
	if len(occs) == 0 {
		return SearchResult{}, false, nil
	}

	annots, err := doc.PageAnnotations(page)
	if err != nil {
		return SearchResult{}, false, fmt.Errorf("read annotations: %w", err)
	}

	res := SearchResult{
		Page:    page,
		Query:   query,
		Rects:   occs,
		Context: s.snippet(doc, page, occs[0]),
	}
	if m, ok := Classify(occs, annots, s.settings.Threshold); ok {
		res.Color = m.Color
		res.AnnotationIDs = annotationIDs(Covering(occs, annots, s.settings.Threshold))
	}
	return res, true, nil
}

// snippet extracts the text around r. Failures yield an empty snippet.
func (s *SearchService) snippet(doc Document, page int, r Rect) string {
	bounds, err := doc.PageBounds(page)
	if err != nil {
		s.logger.Debug("page bounds", zap.Int("page", page), zap.Error(err))
		return ""
	}

	clip := Clamp(InflateXY(r, s.settings.ContextMarginX, s.settings.ContextMarginY), bounds)
	if Area(clip) == 0 {
		return ""
	}

	text, err := doc.ExtractText(page, clip)
	if err != nil {
		s.logger.Debug("extract context", zap.Int("page", page), zap.Error(err))
		return ""
	}
	return strings.Join(strings.Fields(text), " ")
}
