package internal

import (
	"math"
	"strings"
)

const (
	glyphDescent = 0.2
	glyphAscent  = 0.8

	// fallbackAdvance is used when the next pen position says nothing
	// about a glyph's width, for example at a kerning gap.
	fallbackAdvance = 0.5
)

// glyph is one laid-out character. Separators inserted between text runs
// have a zero-area box.
type glyph struct {
	r   rune
	box Rect
	sep bool
}

// pen is the text position in device space together with the unit
// baseline direction and the up vector scaled to the font size.
type pen struct {
	x, y   float64
	bx, by float64
	ux, uy float64
}

// newPen builds a pen from the position and the combined text and
// transformation matrix [a b c d] of the current text state.
func newPen(x, y, a, b, c, d, fontSize float64) pen {
	p := pen{x: x, y: y, bx: 1, ux: c * fontSize, uy: d * fontSize}
	if n := math.Hypot(a, b); n > 0 {
		p.bx, p.by = a/n, b/n
	}
	return p
}

func (p pen) size() float64 {
	return math.Hypot(p.ux, p.uy)
}

// glyphCollector turns the per-glyph callbacks of a content stream reader
// into glyph boxes. A glyph's advance is only known once the pen has
// moved on, so the most recent glyph stays pending until then.
type glyphCollector struct {
	glyphs []glyph

	pending *pendingGlyph
	last    pen
	endX    float64
	endY    float64
	hasLast bool
}

type pendingGlyph struct {
	text []rune
	at   pen
}

// show records text drawn at the pen position at.
func (c *glyphCollector) show(text string, at pen) {
	if c.pending != nil {
		c.close(at.x, at.y, true)
	}
	if text == "" {
		return
	}
	c.separate(at)
	c.pending = &pendingGlyph{text: []rune(text), at: at}
}

// finish closes the pending glyph at the pen position reached after a
// text showing operator.
func (c *glyphCollector) finish(at pen) {
	if c.pending != nil {
		c.close(at.x, at.y, true)
	}
}

// flush closes the pending glyph with the fallback advance.
func (c *glyphCollector) flush() []glyph {
	if c.pending != nil {
		c.close(0, 0, false)
	}
	return c.glyphs
}

func (c *glyphCollector) close(x, y float64, moved bool) {
	p := c.pending
	c.pending = nil

	at := p.at
	size := at.size()
	adv := fallbackAdvance * size
	if moved {
		d := (x-at.x)*at.bx + (y-at.y)*at.by
		if d > 0 && d <= size {
			adv = d
		}
	}

	n := float64(len(p.text))
	for i, r := range p.text {
		a := adv * float64(i) / n
		b := adv * float64(i+1) / n
		c.glyphs = append(c.glyphs, glyph{r: r, box: glyphBox(at, a, b)})
	}

	c.last = at
	c.endX = at.x + at.bx*adv
	c.endY = at.y + at.by*adv
	c.hasLast = true
}

// separate inserts a line break or a space when the pen jumped since the
// previous glyph.
func (c *glyphCollector) separate(at pen) {
	if !c.hasLast || len(c.glyphs) == 0 {
		return
	}
	size := math.Max(at.size(), c.last.size())
	if size == 0 {
		size = 1
	}

	dx, dy := at.x-c.endX, at.y-c.endY
	along := dx*c.last.bx + dy*c.last.by
	across := -dx*c.last.by + dy*c.last.bx

	prev := c.glyphs[len(c.glyphs)-1]
	switch {
	case math.Abs(across) > size/2:
		c.glyphs = append(c.glyphs, glyph{r: '\n', box: Rect{LLx: at.x, LLy: at.y, URx: at.x, URy: at.y}, sep: true})
	case math.Abs(along) > size/4 && prev.r != ' ':
		c.glyphs = append(c.glyphs, glyph{r: ' ', box: Rect{LLx: c.endX, LLy: c.endY, URx: c.endX, URy: c.endY}, sep: true})
	}
}

// glyphBox covers the baseline stretch [a, b] from the pen, from the
// descender up to the ascender.
func glyphBox(at pen, a, b float64) Rect {
	x0, y0 := at.x+at.bx*a, at.y+at.by*a
	x1, y1 := at.x+at.bx*b, at.y+at.by*b
	lx, ly := -glyphDescent*at.ux, -glyphDescent*at.uy
	hx, hy := glyphAscent*at.ux, glyphAscent*at.uy

	xs := [4]float64{x0 + lx, x1 + lx, x0 + hx, x1 + hx}
	ys := [4]float64{y0 + ly, y1 + ly, y0 + hy, y1 + hy}
	r := Rect{LLx: xs[0], LLy: ys[0], URx: xs[0], URy: ys[0]}
	for i := 1; i < 4; i++ {
		r.LLx = math.Min(r.LLx, xs[i])
		r.LLy = math.Min(r.LLy, ys[i])
		r.URx = math.Max(r.URx, xs[i])
		r.URy = math.Max(r.URy, ys[i])
	}
	return r
}

func glyphText(gs []glyph) []rune {
	out := make([]rune, len(gs))
	for i, g := range gs {
		out[i] = g.r
	}
	return out
}

// spanRects returns one rectangle per line covered by gs[span].
func spanRects(gs []glyph, span TextSpan) []Rect {
	var rects []Rect
	var cur []Rect
	flush := func() {
		if len(cur) == 0 {
			return
		}
		u, _ := Union(cur)
		rects = append(rects, u)
		cur = cur[:0]
	}
	for _, g := range gs[span.Start:span.End] {
		if g.sep {
			if g.r == '\n' {
				flush()
			}
			continue
		}
		cur = append(cur, g.box)
	}
	flush()
	return rects
}

// clipText returns the characters whose centre lies inside clip.
func clipText(gs []glyph, clip Rect) string {
	var b strings.Builder
	for _, g := range gs {
		cx, cy := (g.box.LLx+g.box.URx)/2, (g.box.LLy+g.box.URy)/2
		if cx < clip.LLx || cx > clip.URx || cy < clip.LLy || cy > clip.URy {
			continue
		}
		if g.sep && b.Len() == 0 {
			continue
		}
		b.WriteRune(g.r)
	}
	return b.String()
}
