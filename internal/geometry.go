package internal

import (
	"fmt"
	"math"

	"seehuhn.de/go/geom/rect"
)

// Rect is an axis-aligned rectangle in page space.
type Rect = rect.Rect

// Area never returns a negative value; inverted rectangles have area 0.
func Area(r Rect) float64 {
	return math.Max(0, r.URx-r.LLx) * math.Max(0, r.URy-r.LLy)
}

// Intersection reports false when a and b share no area.
func Intersection(a, b Rect) (Rect, bool) {
	r := Rect{
		LLx: math.Max(a.LLx, b.LLx),
		LLy: math.Max(a.LLy, b.LLy),
		URx: math.Min(a.URx, b.URx),
		URy: math.Min(a.URy, b.URy),
	}
	if r.URx <= r.LLx || r.URy <= r.LLy {
		return Rect{}, false
	}
	return r, true
}

func IntersectionArea(a, b Rect) float64 {
	r, ok := Intersection(a, b)
	if !ok {
		return 0
	}
	return Area(r)
}

// Union returns the bounding box of rs.
func Union(rs []Rect) (Rect, error) {
	if len(rs) == 0 {
		return Rect{}, fmt.Errorf("union of no rectangles: %w", ErrInvalidGeometry)
	}

	u := rs[0]
	for _, r := range rs[1:] {
		u.LLx = math.Min(u.LLx, r.LLx)
		u.LLy = math.Min(u.LLy, r.LLy)
		u.URx = math.Max(u.URx, r.URx)
		u.URy = math.Max(u.URy, r.URy)
	}
	return u, nil
}

// Inflate moves every edge outward by amount. A negative amount shrinks the
// rectangle and may invert it.
func Inflate(r Rect, amount float64) Rect {
	return InflateXY(r, amount, amount)
}

func InflateXY(r Rect, dx, dy float64) Rect {
	return Rect{
		LLx: r.LLx - dx,
		LLy: r.LLy - dy,
		URx: r.URx + dx,
		URy: r.URy + dy,
	}
}

// Clamp limits every coordinate of r to bounds.
func Clamp(r, bounds Rect) Rect {
	clamp := func(v, lo, hi float64) float64 {
		return math.Min(math.Max(v, lo), hi)
	}
	return Rect{
		LLx: clamp(r.LLx, bounds.LLx, bounds.URx),
		LLy: clamp(r.LLy, bounds.LLy, bounds.URy),
		URx: clamp(r.URx, bounds.LLx, bounds.URx),
		URy: clamp(r.URy, bounds.LLy, bounds.URy),
	}
}

// ValidateRect rejects non-finite and inverted rectangles. Degenerate
// rectangles with zero width or height are valid.
func ValidateRect(r Rect) error {
	for _, v := range []float64{r.LLx, r.LLy, r.URx, r.URy} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite coordinate in %v: %w", r, ErrInvalidGeometry)
		}
	}
	if r.URx < r.LLx || r.URy < r.LLy {
		return fmt.Errorf("inverted rectangle %v: %w", r, ErrInvalidGeometry)
	}
	return nil
}
