package internal

import (
	"context"
	"errors"
	"strconv"
)

var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrDocumentCorrupt     = errors.New("document corrupt")
	ErrUnsupportedDocument = errors.New("unsupported document")
	ErrInvalidGeometry     = errors.New("invalid geometry")
	ErrInvalidColor        = errors.New("invalid color")
	ErrInvalidThreshold    = errors.New("invalid threshold")
	ErrNoOccurrences       = errors.New("no occurrences")
	ErrPersistenceFailure  = errors.New("persistence failure")
	ErrPreconditionNotMet  = errors.New("precondition not met")
	ErrNoDocument          = errors.New("no document open")
	ErrPageOutOfRange      = errors.New("page out of range")
	ErrAnnotationNotFound  = errors.New("annotation not found")
	ErrNothingToUndo       = errors.New("nothing to undo")
	ErrNothingToRedo       = errors.New("nothing to redo")
)

type AnnotationKind int

const (
	KindOther AnnotationKind = iota
	KindHighlight
	KindFreeText
)

func (k AnnotationKind) String() string {
	switch k {
	case KindHighlight:
		return "highlight"
	case KindFreeText:
		return "freetext"
	default:
		return "other"
	}
}

// AnnotationID is the object number of an annotation inside its document.
type AnnotationID int

func (id AnnotationID) String() string {
	return strconv.Itoa(int(id))
}

// Annotation is a read-only view of an annotation stored in a document.
type Annotation struct {
	ID      AnnotationID   `yaml:"id"`
	Kind    AnnotationKind `yaml:"kind"`
	Rect    Rect           `yaml:"rect"`
	Color   *Color         `yaml:"color,omitempty"`
	Subject string         `yaml:"subject,omitempty"`
}

func (a Annotation) IsHighlight() bool {
	return a.Kind == KindHighlight
}

// HighlightSpec describes a highlight annotation to be created.
type HighlightSpec struct {
	Rect    Rect
	Color   Color
	Subject string
	Opacity float64
}

type SearchOptions struct {
	CaseSensitive bool
}

// Engine opens documents from disk. Open fails with ErrDocumentNotFound or
// ErrDocumentCorrupt.
type Engine interface {
	Open(ctx context.Context, path string) (Document, error)
}

// Document is an open document handle. Pages are numbered from 1.
// Mutations are in-memory until Save writes the document to a path.
type Document interface {
	PageCount() int
	PageBounds(page int) (Rect, error)
	SearchPage(page int, query string, opts SearchOptions) ([]Rect, error)
	PageAnnotations(page int) ([]Annotation, error)
	AddHighlight(page int, spec HighlightSpec) (Annotation, error)
	DeleteAnnotation(page int, id AnnotationID) error
	ExtractText(page int, clip Rect) (string, error)
	Save(path string) error
	Close() error
}

func highlightsOf(annots []Annotation) []Annotation {
	out := make([]Annotation, 0, len(annots))
	for _, a := range annots {
		if a.IsHighlight() {
			out = append(out, a)
		}
	}
	return out
}

func annotationIDs(annots []Annotation) []AnnotationID {
	ids := make([]AnnotationID, 0, len(annots))
	for _, a := range annots {
		ids = append(ids, a.ID)
	}
	return ids
}
