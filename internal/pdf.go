package internal

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"math"
	"os"
	"slices"
	"strconv"

	"go.uber.org/zap"
	"seehuhn.de/go/geom/matrix"
	"seehuhn.de/go/pdf"
	"seehuhn.de/go/pdf/pagetree"
	"seehuhn.de/go/pdf/reader"
)

const annotationAuthor = "highlights"

// PDFEngine opens PDF files. Saving rewrites the whole file with a fresh
// cross-reference table; object numbers and generations are kept, so
// annotation ids stay valid across a save and reload.
type PDFEngine struct {
	logger *zap.Logger
}

func NewPDFEngine(logger *zap.Logger) *PDFEngine {
	return &PDFEngine{logger: orNop(logger)}
}

func (e *PDFEngine) Open(ctx context.Context, path string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := OpenPDF(data, e.logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// pdfEdit replaces an object of the underlying file. Streams keep their
// dictionary in obj and their raw data in data.
type pdfEdit struct {
	gen     uint16
	obj     pdf.Native
	data    []byte
	stream  bool
	deleted bool
}

type pdfPage struct {
	ref     pdf.Reference
	dict    pdf.Dict // with inherited attributes
	bounds  Rect
	glyphs  []glyph
	laidOut bool
}

// PDFDocument is an open PDF held in memory. Changes are kept as edits
// over the file read at open time and only written out by Save.
type PDFDocument struct {
	logger  *zap.Logger
	r       *pdf.Reader
	edits   map[uint32]*pdfEdit
	nextNum uint32
	pages   []*pdfPage
	text    *reader.Reader
	closed  bool
}

// OpenPDF parses data. Encrypted documents are rejected.
func OpenPDF(data []byte, logger *zap.Logger) (*PDFDocument, error) {
	encrypted := false
	opt := &pdf.ReaderOptions{
		ReadPassword: func([]byte, int) string {
			encrypted = true
			return ""
		},
	}
	r, err := pdf.NewReader(bytes.NewReader(data), opt)
	if err != nil {
		if encrypted {
			return nil, fmt.Errorf("%w: encrypted documents are not supported", ErrUnsupportedDocument)
		}
		return nil, fmt.Errorf("%w: %v", ErrDocumentCorrupt, err)
	}
	meta := r.GetMeta()
	if meta.Trailer["Encrypt"] != nil {
		return nil, fmt.Errorf("%w: encrypted documents are not supported", ErrUnsupportedDocument)
	}
	if meta.Catalog == nil || meta.Catalog.Pages == 0 {
		return nil, fmt.Errorf("%w: no page tree", ErrDocumentCorrupt)
	}

	d := &PDFDocument{
		logger: orNop(logger),
		r:      r,
		edits:  make(map[uint32]*pdfEdit),
	}
	if size, ok := meta.Trailer["Size"].(pdf.Integer); ok && size > 0 {
		d.nextNum = uint32(size)
	}
	if err := d.loadPages(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDocumentCorrupt, err)
	}
	// the trailer size is only a hint; never hand out a number in use
	for _, ref := range d.reachable() {
		if ref.Number() >= d.nextNum {
			d.nextNum = ref.Number() + 1
		}
	}
	return d, nil
}

// GetMeta and Get make the document a pdf.Getter which sees the edits.
func (d *PDFDocument) GetMeta() *pdf.MetaInfo {
	return d.r.GetMeta()
}

func (d *PDFDocument) Get(ref pdf.Reference, canObjStm bool) (pdf.Native, error) {
	e, ok := d.edits[ref.Number()]
	if !ok {
		return d.r.Get(ref, canObjStm)
	}
	if e.deleted {
		return nil, nil
	}
	if e.stream {
		return &pdf.Stream{Dict: maps.Clone(e.obj.(pdf.Dict)), R: bytes.NewReader(e.data)}, nil
	}
	return e.obj, nil
}

func (d *PDFDocument) put(ref pdf.Reference, obj pdf.Native) {
	d.edits[ref.Number()] = &pdfEdit{gen: ref.Generation(), obj: obj}
}

func (d *PDFDocument) alloc() pdf.Reference {
	ref := pdf.NewReference(d.nextNum, 0)
	d.nextNum++
	return ref
}

func (d *PDFDocument) add(obj pdf.Native) pdf.Reference {
	ref := d.alloc()
	d.put(ref, obj)
	return ref
}

func (d *PDFDocument) addStream(dict pdf.Dict, data []byte) pdf.Reference {
	ref := d.alloc()
	d.edits[ref.Number()] = &pdfEdit{obj: dict, data: data, stream: true}
	return ref
}

func (d *PDFDocument) drop(ref pdf.Reference) {
	d.edits[ref.Number()] = &pdfEdit{gen: ref.Generation(), deleted: true}
}

func (d *PDFDocument) loadPages() error {
	n, err := pagetree.NumPages(d)
	if err != nil {
		return err
	}
	letter := Rect{URx: 612, URy: 792}
	for i := 0; i < n; i++ {
		ref, dict, err := pagetree.GetPage(d, i)
		if err != nil {
			return fmt.Errorf("page %d: %w", i+1, err)
		}
		box := letter
		if mb, _ := pdf.GetRectangle(d, dict["MediaBox"]); mb != nil {
			box = Rect{LLx: mb.LLx, LLy: mb.LLy, URx: mb.URx, URy: mb.URy}
		}
		if cb, _ := pdf.GetRectangle(d, dict["CropBox"]); cb != nil {
			if c, ok := Intersection(box, Rect{LLx: cb.LLx, LLy: cb.LLy, URx: cb.URx, URy: cb.URy}); ok {
				box = c
			}
		}
		d.pages = append(d.pages, &pdfPage{ref: ref, dict: dict, bounds: box})
	}
	return nil
}

func (d *PDFDocument) page(n int) (*pdfPage, error) {
	if d.closed {
		return nil, fmt.Errorf("document closed")
	}
	if n < 1 || n > len(d.pages) {
		return nil, fmt.Errorf("page %d of %d: %w", n, len(d.pages), ErrPageOutOfRange)
	}
	return d.pages[n-1], nil
}

func (d *PDFDocument) PageCount() int {
	return len(d.pages)
}

func (d *PDFDocument) PageBounds(n int) (Rect, error) {
	p, err := d.page(n)
	if err != nil {
		return Rect{}, err
	}
	return p.bounds, nil
}

func (d *PDFDocument) SearchPage(n int, query string, opts SearchOptions) ([]Rect, error) {
	p, err := d.page(n)
	if err != nil {
		return nil, err
	}
	gs := d.layout(p)
	var rects []Rect
	for _, sp := range FindAll(glyphText(gs), query, opts) {
		rects = append(rects, spanRects(gs, sp)...)
	}
	return rects, nil
}

func (d *PDFDocument) ExtractText(n int, clip Rect) (string, error) {
	p, err := d.page(n)
	if err != nil {
		return "", err
	}
	return clipText(d.layout(p), clip), nil
}

// layout runs the page's content streams and records every shown glyph.
// Fonts, encodings and stream filters are handled by the content reader.
func (d *PDFDocument) layout(p *pdfPage) []glyph {
	if p.laidOut {
		return p.glyphs
	}
	p.laidOut = true

	if d.text == nil {
		d.text = reader.New(d, nil)
	}
	rd := d.text
	c := &glyphCollector{}
	at := func() pen {
		x, y := rd.GetTextPositionDevice()
		m := rd.TextMatrix.Mul(rd.CTM)
		return newPen(x, y, m[0], m[1], m[2], m[3], rd.TextFontSize)
	}
	rd.Text = func(text string) error {
		c.show(text, at())
		return nil
	}
	rd.EveryOp = func(op string, _ []pdf.Object) error {
		switch op {
		case "Tj", "TJ", "'", "\"":
			c.finish(at())
		}
		return nil
	}

	if err := rd.ParsePage(p.dict, matrix.Identity); err != nil {
		d.logger.Debug("content stream", zap.Uint32("object", p.ref.Number()), zap.Error(err))
	}
	p.glyphs = c.flush()
	return p.glyphs
}

// annotRefs returns the page's annotation references, moving any inline
// annotation dictionaries into objects of their own first.
func (d *PDFDocument) annotRefs(p *pdfPage) ([]pdf.Reference, error) {
	pageDict, err := pdf.GetDict(d, p.ref)
	if err != nil {
		return nil, err
	}
	arr, err := pdf.GetArray(d, pageDict["Annots"])
	if err != nil {
		return nil, err
	}

	refs := make([]pdf.Reference, 0, len(arr))
	moved := false
	for _, item := range arr {
		switch v := item.(type) {
		case pdf.Reference:
			refs = append(refs, v)
		case pdf.Dict:
			refs = append(refs, d.add(v))
			moved = true
		}
	}
	if moved {
		if err := d.setAnnots(p, refs); err != nil {
			return nil, err
		}
	}
	return refs, nil
}

func (d *PDFDocument) setAnnots(p *pdfPage, refs []pdf.Reference) error {
	arr := make(pdf.Array, 0, len(refs))
	for _, r := range refs {
		arr = append(arr, r)
	}

	pageDict, err := pdf.GetDict(d, p.ref)
	if err != nil {
		return err
	}
	if ref, ok := pageDict["Annots"].(pdf.Reference); ok {
		if _, err := pdf.GetArray(d, ref); err == nil {
			d.put(ref, arr)
			return nil
		}
	}

	pageDict = maps.Clone(pageDict)
	if len(arr) == 0 {
		delete(pageDict, "Annots")
	} else {
		pageDict["Annots"] = arr
	}
	d.put(p.ref, pageDict)
	return nil
}

func (d *PDFDocument) PageAnnotations(n int) ([]Annotation, error) {
	p, err := d.page(n)
	if err != nil {
		return nil, err
	}
	refs, err := d.annotRefs(p)
	if err != nil {
		return nil, err
	}

	out := make([]Annotation, 0, len(refs))
	for _, ref := range refs {
		dict, err := pdf.GetDict(d, ref)
		if err != nil || dict == nil {
			continue
		}
		out = append(out, d.annotation(ref, dict))
	}
	return out, nil
}

func (d *PDFDocument) annotation(ref pdf.Reference, dict pdf.Dict) Annotation {
	a := Annotation{ID: AnnotationID(ref.Number())}
	subtype, _ := pdf.GetName(d, dict["Subtype"])
	switch subtype {
	case "Highlight":
		a.Kind = KindHighlight
	case "FreeText":
		a.Kind = KindFreeText
	default:
		a.Kind = KindOther
	}
	if r, _ := pdf.GetRectangle(d, dict["Rect"]); r != nil {
		a.Rect = Rect{LLx: r.LLx, LLy: r.LLy, URx: r.URx, URy: r.URy}
	}

	if c, _ := pdf.GetArray(d, dict["C"]); len(c) == 3 {
		var rgb [3]float64
		valid := true
		for i, item := range c {
			x, err := pdf.GetNumber(d, item)
			valid = valid && err == nil
			rgb[i] = float64(x)
		}
		if col, err := NewColor(rgb[0], rgb[1], rgb[2]); valid && err == nil {
			a.Color = &col
		}
	}

	for _, key := range []pdf.Name{"Subj", "Contents"} {
		if s, err := pdf.GetTextString(d, dict[key]); err == nil && s != "" {
			a.Subject = string(s)
			break
		}
	}
	return a
}

func (d *PDFDocument) AddHighlight(n int, spec HighlightSpec) (Annotation, error) {
	p, err := d.page(n)
	if err != nil {
		return Annotation{}, err
	}
	if err := ValidateRect(spec.Rect); err != nil {
		return Annotation{}, err
	}
	if err := spec.Color.Validate(); err != nil {
		return Annotation{}, err
	}
	refs, err := d.annotRefs(p)
	if err != nil {
		return Annotation{}, err
	}

	r := spec.Rect
	c := spec.Color
	opacity := pdfNum(spec.Opacity)

	ap := pdf.Dict{
		"Type":    pdf.Name("XObject"),
		"Subtype": pdf.Name("Form"),
		"BBox":    rectArray(r),
		"Resources": pdf.Dict{
			"ExtGState": pdf.Dict{
				"GS0": pdf.Dict{"CA": opacity, "ca": opacity, "BM": pdf.Name("Multiply")},
			},
		},
	}
	apData := fmt.Sprintf("/GS0 gs\n%s %s %s rg\n%s %s %s %s re\nf\n",
		fmtNum(c.R), fmtNum(c.G), fmtNum(c.B),
		fmtNum(r.LLx), fmtNum(r.LLy), fmtNum(r.URx-r.LLx), fmtNum(r.URy-r.LLy))
	apRef := d.addStream(ap, []byte(apData))

	ref := d.alloc()
	annot := pdf.Dict{
		"Type":    pdf.Name("Annot"),
		"Subtype": pdf.Name("Highlight"),
		"Rect":    rectArray(r),
		"QuadPoints": pdf.Array{
			pdfNum(r.LLx), pdfNum(r.URy), pdfNum(r.URx), pdfNum(r.URy),
			pdfNum(r.LLx), pdfNum(r.LLy), pdfNum(r.URx), pdfNum(r.LLy),
		},
		"C":    pdf.Array{pdfNum(c.R), pdfNum(c.G), pdfNum(c.B)},
		"CA":   opacity,
		"Subj": pdf.TextString(spec.Subject),
		"T":    pdf.TextString(annotationAuthor),
		"F":    pdf.Integer(4),
		"P":    p.ref,
		"AP":   pdf.Dict{"N": apRef},
		"NM":   pdf.TextString("hl-" + strconv.FormatUint(uint64(ref.Number()), 10)),
	}
	d.put(ref, annot)

	if err := d.setAnnots(p, append(refs, ref)); err != nil {
		return Annotation{}, err
	}
	return Annotation{
		ID:      AnnotationID(ref.Number()),
		Kind:    KindHighlight,
		Rect:    r,
		Color:   &c,
		Subject: spec.Subject,
	}, nil
}

// DeleteAnnotation removes the annotation together with its appearance
// stream and its popup.
func (d *PDFDocument) DeleteAnnotation(n int, id AnnotationID) error {
	p, err := d.page(n)
	if err != nil {
		return err
	}
	refs, err := d.annotRefs(p)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(refs, func(ref pdf.Reference) bool { return ref.Number() == uint32(id) })
	if i < 0 {
		return fmt.Errorf("annotation %s on page %d: %w", id, n, ErrAnnotationNotFound)
	}
	ref := refs[i]

	gone := map[uint32]bool{ref.Number(): true}
	if annot, _ := pdf.GetDict(d, ref); annot != nil {
		if ap, _ := pdf.GetDict(d, annot["AP"]); ap != nil {
			if normal, ok := ap["N"].(pdf.Reference); ok {
				d.drop(normal)
			}
		}
		if popup, ok := annot["Popup"].(pdf.Reference); ok {
			gone[popup.Number()] = true
			d.drop(popup)
		}
	}
	d.drop(ref)

	kept := slices.DeleteFunc(slices.Clone(refs), func(r pdf.Reference) bool { return gone[r.Number()] })
	return d.setAnnots(p, kept)
}

// reachable lists the objects reachable from the catalog and the info
// dictionary, in object number order.
func (d *PDFDocument) reachable() []pdf.Reference {
	meta := d.GetMeta()
	seen := make(map[uint32]pdf.Reference)
	var todo []pdf.Object
	if meta.Catalog != nil {
		todo = append(todo, pdf.AsDict(meta.Catalog))
	}
	if meta.Info != nil {
		todo = append(todo, pdf.AsDict(meta.Info))
	}

	for len(todo) > 0 {
		obj := todo[len(todo)-1]
		todo = todo[:len(todo)-1]

		switch v := obj.(type) {
		case pdf.Reference:
			if _, ok := seen[v.Number()]; ok {
				continue
			}
			seen[v.Number()] = v
			native, err := d.Get(v, true)
			if err != nil {
				d.logger.Debug("skip unreadable object", zap.Uint32("object", v.Number()), zap.Error(err))
				continue
			}
			if native != nil {
				todo = append(todo, native)
			}
		case pdf.Dict:
			for _, x := range v {
				todo = append(todo, x)
			}
		case pdf.Array:
			todo = append(todo, v...)
		case *pdf.Stream:
			todo = append(todo, v.Dict)
		}
	}

	refs := slices.Collect(maps.Values(seen))
	slices.SortFunc(refs, func(a, b pdf.Reference) int { return int(a.Number()) - int(b.Number()) })
	return refs
}

// Save writes the whole document to path. Only objects reachable from the
// catalog and the info dictionary are carried over.
func (d *PDFDocument) Save(path string) error {
	if d.closed {
		return fmt.Errorf("document closed")
	}
	data, err := d.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (d *PDFDocument) Bytes() ([]byte, error) {
	meta := d.GetMeta()
	ver := meta.Version
	if ver < pdf.V1_4 {
		ver = pdf.V1_4 // transparency in highlight appearances
	}

	buf := &bytes.Buffer{}
	w, err := pdf.NewWriter(buf, ver, nil)
	if err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	refs := d.reachable()
	if len(refs) > 0 {
		top := refs[len(refs)-1].Number()
		for w.Alloc().Number() < top {
		}
	}

	for _, ref := range refs {
		obj, err := d.Get(ref, true)
		if err != nil {
			return nil, fmt.Errorf("object %d: %w", ref.Number(), err)
		}
		if obj == nil {
			continue
		}
		if stm, ok := obj.(*pdf.Stream); ok {
			dict := maps.Clone(stm.Dict)
			delete(dict, "Length")
			obj = &pdf.Stream{Dict: dict, R: stm.R}
		}
		if err := w.Put(ref, obj); err != nil {
			return nil, fmt.Errorf("object %d: %w", ref.Number(), err)
		}
	}

	out := w.GetMeta()
	out.Catalog = meta.Catalog
	out.Info = meta.Info
	out.ID = meta.ID
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (d *PDFDocument) Close() error {
	d.closed = true
	d.edits = nil
	d.pages = nil
	d.text = nil
	return nil
}

func pdfNum(x float64) pdf.Number {
	return pdf.Number(math.Round(x*1e4) / 1e4)
}

func fmtNum(x float64) string {
	return strconv.FormatFloat(math.Round(x*1e4)/1e4, 'f', -1, 64)
}

func rectArray(r Rect) pdf.Array {
	return pdf.Array{pdfNum(r.LLx), pdfNum(r.LLy), pdfNum(r.URx), pdfNum(r.URy)}
}
