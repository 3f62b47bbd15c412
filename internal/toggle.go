package internal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

type Outcome int

const (
	OutcomeAdded Outcome = iota
	OutcomeRemoved
	OutcomeNoColorSelected
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAdded:
		return "added"
	case OutcomeRemoved:
		return "removed"
	case OutcomeNoColorSelected:
		return "no_color_selected"
	default:
		return "error"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(b []byte) error {
	for _, c := range []Outcome{OutcomeAdded, OutcomeRemoved, OutcomeNoColorSelected, OutcomeError} {
		if c.String() == string(b) {
			*o = c
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", b)
}

type ToggleRequest struct {
	Page  int
	Query string
	Color *Color
}

// ToggleResult is the outcome of one toggle. Err explains OutcomeError and
// OutcomeNoColorSelected and is nil otherwise.
type ToggleResult struct {
	Outcome     Outcome
	Page        int
	Query       string
	Annotations []AnnotationID
	Err         error
}

// HighlightService toggles highlights for a query on one page.
type HighlightService struct {
	session  *Session
	settings Settings
	logger   *zap.Logger
}

func NewHighlightService(session *Session, settings Settings, logger *zap.Logger) *HighlightService {
	return &HighlightService{
		session:  session,
		settings: settings,
		logger:   orNop(logger),
	}
}

// Toggle removes the highlights covering query on the page when there are
// any, and otherwise adds one highlight per occurrence in req.Color.
// Successive calls with the same request alternate between the two.
func (s *HighlightService) Toggle(ctx context.Context, req ToggleRequest) ToggleResult {
	res := s.toggle(ctx, req)
	res.Page, res.Query = req.Page, req.Query

	s.logger.Debug("toggle",
		zap.Int("page", req.Page),
		zap.String("query", req.Query),
		zap.Stringer("outcome", res.Outcome),
		zap.Any("annotations", res.Annotations),
		zap.Error(res.Err),
	)
	return res
}

func (s *HighlightService) toggle(ctx context.Context, req ToggleRequest) ToggleResult {
	if req.Color != nil {
		if err := req.Color.Validate(); err != nil {
			return failed(err)
		}
	}
	if strings.TrimSpace(req.Query) == "" {
		return failed(fmt.Errorf("empty query: %w", ErrNoOccurrences))
	}

	doc, err := s.session.Document()
	if err != nil {
		return failed(err)
	}

	occs, err := doc.SearchPage(req.Page, req.Query, s.settings.SearchOptions())
	if err != nil {
		return failed(fmt.Errorf("search page %d: %w", req.Page, err))
	}
	if len(occs) == 0 {
		return failed(fmt.Errorf("%q on page %d: %w", req.Query, req.Page, ErrNoOccurrences))
	}

	annots, err := doc.PageAnnotations(req.Page)
	if err != nil {
		return failed(fmt.Errorf("read annotations on page %d: %w", req.Page, err))
	}

	if _, ok := Classify(occs, annots, s.settings.Threshold); ok {
		return s.remove(ctx, req, Covering(occs, annots, s.settings.Threshold))
	}

	if req.Color == nil {
		return ToggleResult{
			Outcome: OutcomeNoColorSelected,
			Err:     fmt.Errorf("adding a highlight needs a color: %w", ErrPreconditionNotMet),
		}
	}
	return s.add(ctx, req, occs, *req.Color)
}

func (s *HighlightService) remove(ctx context.Context, req ToggleRequest, covering []Annotation) ToggleResult {
	if err := s.session.Mutate(ctx, func(doc Document) error {
		return deleteAll(doc, req.Page, covering)
	}); err != nil {
		return failed(err)
	}

	ids := annotationIDs(covering)
	s.session.Forget(req.Page, ids...)
	s.session.record(Change{Page: req.Page, Query: req.Query, Outcome: OutcomeRemoved, Removed: covering})
	return ToggleResult{Outcome: OutcomeRemoved, Annotations: ids}
}

func (s *HighlightService) add(ctx context.Context, req ToggleRequest, occs []Rect, color Color) ToggleResult {
	var added []Annotation
	if err := s.session.Mutate(ctx, func(doc Document) error {
		added = added[:0]
		for _, occ := range occs {
			a, err := doc.AddHighlight(req.Page, HighlightSpec{
				Rect:    occ,
				Color:   color,
				Subject: req.Query,
				Opacity: s.settings.Opacity,
			})
			if err != nil {
				return fmt.Errorf("add highlight on page %d: %w", req.Page, err)
			}
			added = append(added, a)
		}
		return nil
	}); err != nil {
		return failed(err)
	}

	ids := annotationIDs(added)
	s.session.Track(req.Page, ids...)
	s.session.record(Change{Page: req.Page, Query: req.Query, Outcome: OutcomeAdded, Added: added})
	return ToggleResult{Outcome: OutcomeAdded, Annotations: ids}
}

// Undo reverts the most recent toggle of the session. The reverted change
// can be applied again with Redo.
func (s *HighlightService) Undo(ctx context.Context) (Change, error) {
	c, ok := s.session.popChange()
	if !ok {
		return Change{}, ErrNothingToUndo
	}

	var restored []Annotation
	err := s.session.Mutate(ctx, func(doc Document) error {
		var err error
		switch c.Outcome {
		case OutcomeAdded:
			err = deletePresent(doc, c.Page, c.Added)
		case OutcomeRemoved:
			restored, err = s.readd(doc, c.Page, c.Removed)
		}
		return err
	})
	if err != nil {
		s.session.pushBack(c)
		return Change{}, fmt.Errorf("undo %s of %q: %w", c.Outcome, c.Query, err)
	}

	switch c.Outcome {
	case OutcomeAdded:
		s.session.Forget(c.Page, annotationIDs(c.Added)...)
	case OutcomeRemoved:
		s.session.Track(c.Page, annotationIDs(restored)...)
		c.Removed = restored
	}
	s.session.pushRedo(c)
	s.logger.Debug("undo", zap.Int("page", c.Page), zap.String("query", c.Query), zap.Stringer("outcome", c.Outcome))
	return c, nil
}

// Redo applies the most recently undone change again. A toggle made after
// the undo discards what could have been redone.
func (s *HighlightService) Redo(ctx context.Context) (Change, error) {
	c, ok := s.session.popRedo()
	if !ok {
		return Change{}, ErrNothingToRedo
	}

	var added []Annotation
	err := s.session.Mutate(ctx, func(doc Document) error {
		var err error
		switch c.Outcome {
		case OutcomeAdded:
			added, err = s.readd(doc, c.Page, c.Added)
		case OutcomeRemoved:
			err = deletePresent(doc, c.Page, c.Removed)
		}
		return err
	})
	if err != nil {
		s.session.pushRedo(c)
		return Change{}, fmt.Errorf("redo %s of %q: %w", c.Outcome, c.Query, err)
	}

	switch c.Outcome {
	case OutcomeAdded:
		s.session.Track(c.Page, annotationIDs(added)...)
		c.Added = added
	case OutcomeRemoved:
		s.session.Forget(c.Page, annotationIDs(c.Removed)...)
	}
	s.session.pushBack(c)
	s.logger.Debug("redo", zap.Int("page", c.Page), zap.String("query", c.Query), zap.Stringer("outcome", c.Outcome))
	return c, nil
}

// readd creates a highlight like each of annots and returns the new ones.
func (s *HighlightService) readd(doc Document, page int, annots []Annotation) ([]Annotation, error) {
	out := make([]Annotation, 0, len(annots))
	for _, a := range annots {
		color := Yellow
		if a.Color != nil {
			color = *a.Color
		}
		na, err := doc.AddHighlight(page, HighlightSpec{
			Rect:    a.Rect,
			Color:   color,
			Subject: a.Subject,
			Opacity: s.settings.Opacity,
		})
		if err != nil {
			return nil, fmt.Errorf("restore highlight on page %d: %w", page, err)
		}
		out = append(out, na)
	}
	return out, nil
}

// deletePresent deletes those of annots the page still has.
func deletePresent(doc Document, page int, annots []Annotation) error {
	present, err := doc.PageAnnotations(page)
	if err != nil {
		return err
	}
	return deleteAll(doc, page, stillPresent(annots, present))
}

func deleteAll(doc Document, page int, annots []Annotation) error {
	for _, a := range annots {
		if err := doc.DeleteAnnotation(page, a.ID); err != nil {
			return fmt.Errorf("delete annotation %s on page %d: %w", a.ID, page, err)
		}
	}
	return nil
}

func stillPresent(want, present []Annotation) []Annotation {
	ids := make(map[AnnotationID]bool, len(present))
	for _, a := range present {
		ids[a.ID] = true
	}
	var out []Annotation
	for _, a := range want {
		if ids[a.ID] {
			out = append(out, a)
		}
	}
	return out
}

func failed(err error) ToggleResult {
	return ToggleResult{Outcome: OutcomeError, Err: err}
}

// IsUserError reports whether err was caused by the request rather than by
// the document or the file system.
func IsUserError(err error) bool {
	return errors.Is(err, ErrNoOccurrences) ||
		errors.Is(err, ErrInvalidColor) ||
		errors.Is(err, ErrPreconditionNotMet) ||
		errors.Is(err, ErrPageOutOfRange) ||
		errors.Is(err, ErrInvalidGeometry)
}
