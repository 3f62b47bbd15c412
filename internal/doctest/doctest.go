// Package doctest provides a file-backed document engine for tests.
//
// Documents are YAML files holding pages of monospaced text lines and
// their annotations, so saving and reloading go through the disk exactly
// as they do for PDFs.
package doctest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/4thel00z/highlights/internal"
	"gopkg.in/yaml.v3"
)

// Layout of the fake pages in points.
const (
	PageWidth  = 612.0
	PageHeight = 792.0
	Margin     = 72.0
	CharWidth  = 6.0
	FontSize   = 12.0
	LineHeight = 14.0
)

var ErrClosed = errors.New("document closed")

type File struct {
	Pages  []Page `yaml:"pages"`
	NextID int    `yaml:"next_id"`
}

type Page struct {
	Lines       []string     `yaml:"lines"`
	Annotations []Annotation `yaml:"annotations,omitempty"`
}

type Annotation struct {
	ID      int        `yaml:"id"`
	Kind    string     `yaml:"kind"`
	Rect    [4]float64 `yaml:"rect"`
	Color   []float64  `yaml:"color,omitempty"`
	Subject string     `yaml:"subject,omitempty"`
	Opacity float64    `yaml:"opacity,omitempty"`
}

// NewFile builds a document with one page per argument; each page's text is
// split into lines at "\n".
func NewFile(pages ...string) File {
	f := File{NextID: 1}
	for _, text := range pages {
		f.Pages = append(f.Pages, Page{Lines: strings.Split(text, "\n")})
	}
	return f
}

func Write(path string, f File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

func Read(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, fmt.Errorf("%s: %w", path, internal.ErrDocumentNotFound)
		}
		return File{}, err
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%s: %w: %v", path, internal.ErrDocumentCorrupt, err)
	}
	return f, nil
}

// AnnotationCount counts the annotations stored on disk at path.
func AnnotationCount(path string) (int, error) {
	f, err := Read(path)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range f.Pages {
		n += len(p.Annotations)
	}
	return n, nil
}

// Engine opens fake documents and injects failures on demand.
type Engine struct {
	mu        sync.Mutex
	openErr   error
	saveFails int
	opens     int
	saves     int
}

func NewEngine() *Engine {
	return &Engine{}
}

// FailOpens makes every following Open return err. A nil err clears it.
func (e *Engine) FailOpens(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.openErr = err
}

// FailSaves makes the next n saves fail before writing anything.
func (e *Engine) FailSaves(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.saveFails = n
}

func (e *Engine) Opens() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opens
}

func (e *Engine) Saves() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saves
}

func (e *Engine) Open(_ context.Context, path string) (internal.Document, error) {
	e.mu.Lock()
	openErr := e.openErr
	e.opens++
	e.mu.Unlock()

	if openErr != nil {
		return nil, openErr
	}
	f, err := Read(path)
	if err != nil {
		return nil, err
	}
	return &Document{engine: e, file: f}, nil
}

func (e *Engine) takeSaveFailure() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.saves++
	if e.saveFails > 0 {
		e.saveFails--
		return true
	}
	return false
}

type Document struct {
	engine *Engine
	file   File
	closed bool
}

func (d *Document) page(n int) (*Page, error) {
	if d.closed {
		return nil, ErrClosed
	}
	if n < 1 || n > len(d.file.Pages) {
		return nil, fmt.Errorf("page %d of %d: %w", n, len(d.file.Pages), internal.ErrPageOutOfRange)
	}
	return &d.file.Pages[n-1], nil
}

func (d *Document) PageCount() int {
	return len(d.file.Pages)
}

func (d *Document) PageBounds(n int) (internal.Rect, error) {
	if _, err := d.page(n); err != nil {
		return internal.Rect{}, err
	}
	return internal.Rect{URx: PageWidth, URy: PageHeight}, nil
}

// CharRect is the box of the character at column col of line line.
func CharRect(line, col int) internal.Rect {
	top := PageHeight - Margin - float64(line)*LineHeight
	return internal.Rect{
		LLx: Margin + float64(col)*CharWidth,
		LLy: top - FontSize,
		URx: Margin + float64(col+1)*CharWidth,
		URy: top,
	}
}

// SpanRect is the box covering columns [start,end) of line.
func SpanRect(line, start, end int) internal.Rect {
	a, b := CharRect(line, start), CharRect(line, end-1)
	return internal.Rect{LLx: a.LLx, LLy: a.LLy, URx: b.URx, URy: b.URy}
}

func (d *Document) SearchPage(n int, query string, opts internal.SearchOptions) ([]internal.Rect, error) {
	p, err := d.page(n)
	if err != nil {
		return nil, err
	}
	var rects []internal.Rect
	for i, line := range p.Lines {
		for _, sp := range internal.FindAll([]rune(line), query, opts) {
			rects = append(rects, SpanRect(i, sp.Start, sp.End))
		}
	}
	return rects, nil
}

func (d *Document) PageAnnotations(n int) ([]internal.Annotation, error) {
	p, err := d.page(n)
	if err != nil {
		return nil, err
	}
	out := make([]internal.Annotation, 0, len(p.Annotations))
	for _, a := range p.Annotations {
		out = append(out, a.toInternal())
	}
	return out, nil
}

func (d *Document) AddHighlight(n int, spec internal.HighlightSpec) (internal.Annotation, error) {
	p, err := d.page(n)
	if err != nil {
		return internal.Annotation{}, err
	}
	if err := internal.ValidateRect(spec.Rect); err != nil {
		return internal.Annotation{}, err
	}
	if err := spec.Color.Validate(); err != nil {
		return internal.Annotation{}, err
	}
	if d.file.NextID < 1 {
		d.file.NextID = 1
	}

	a := Annotation{
		ID:      d.file.NextID,
		Kind:    internal.KindHighlight.String(),
		Rect:    [4]float64{spec.Rect.LLx, spec.Rect.LLy, spec.Rect.URx, spec.Rect.URy},
		Color:   []float64{spec.Color.R, spec.Color.G, spec.Color.B},
		Subject: spec.Subject,
		Opacity: spec.Opacity,
	}
	d.file.NextID++
	p.Annotations = append(p.Annotations, a)
	return a.toInternal(), nil
}

func (d *Document) DeleteAnnotation(n int, id internal.AnnotationID) error {
	p, err := d.page(n)
	if err != nil {
		return err
	}
	for i, a := range p.Annotations {
		if a.ID == int(id) {
			p.Annotations = append(p.Annotations[:i], p.Annotations[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("annotation %s on page %d: %w", id, n, internal.ErrAnnotationNotFound)
}

func (d *Document) ExtractText(n int, clip internal.Rect) (string, error) {
	p, err := d.page(n)
	if err != nil {
		return "", err
	}
	var lines []string
	for i, line := range p.Lines {
		var b strings.Builder
		for col, r := range []rune(line) {
			c := CharRect(i, col)
			cx, cy := (c.LLx+c.URx)/2, (c.LLy+c.URy)/2
			if cx >= clip.LLx && cx <= clip.URx && cy >= clip.LLy && cy <= clip.URy {
				b.WriteRune(r)
			}
		}
		if b.Len() > 0 {
			lines = append(lines, b.String())
		}
	}
	return strings.Join(lines, "\n"), nil
}

func (d *Document) Save(path string) error {
	if d.closed {
		return ErrClosed
	}
	if d.engine.takeSaveFailure() {
		return fmt.Errorf("save %s: injected failure", path)
	}
	return Write(path, d.file)
}

func (d *Document) Close() error {
	d.closed = true
	return nil
}

func (a Annotation) toInternal() internal.Annotation {
	out := internal.Annotation{
		ID:      internal.AnnotationID(a.ID),
		Kind:    kindOf(a.Kind),
		Rect:    internal.Rect{LLx: a.Rect[0], LLy: a.Rect[1], URx: a.Rect[2], URy: a.Rect[3]},
		Subject: a.Subject,
	}
	if len(a.Color) == 3 {
		out.Color = &internal.Color{R: a.Color[0], G: a.Color[1], B: a.Color[2]}
	}
	return out
}

func kindOf(s string) internal.AnnotationKind {
	switch s {
	case internal.KindHighlight.String():
		return internal.KindHighlight
	case internal.KindFreeText.String():
		return internal.KindFreeText
	default:
		return internal.KindOther
	}
}
