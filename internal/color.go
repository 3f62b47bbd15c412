package internal

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Color is an RGB triple with components in [0,1].
type Color struct {
	R float64 `json:"r" yaml:"r"`
	G float64 `json:"g" yaml:"g"`
	B float64 `json:"b" yaml:"b"`
}

var (
	Yellow = Color{R: 1, G: 1, B: 0}
	Green  = Color{R: 0, G: 1, B: 0}
	Red    = Color{R: 1, G: 0, B: 0}
	Cyan   = Color{R: 0, G: 1, B: 1}
)

func NewColor(r, g, b float64) (Color, error) {
	c := Color{R: r, G: g, B: b}
	if err := c.Validate(); err != nil {
		return Color{}, err
	}
	return c, nil
}

func (c Color) Validate() error {
	for _, v := range []float64{c.R, c.G, c.B} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("component %v outside [0,1]: %w", v, ErrInvalidColor)
		}
	}
	return nil
}

// Hex formats c as a lowercase "#rrggbb" string.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.R), channel(c.G), channel(c.B))
}

func (c Color) String() string {
	return c.Hex()
}

// Near reports whether c and o are within one 8-bit step on every channel.
func (c Color) Near(o Color) bool {
	const eps = 1.0 / 255
	return math.Abs(c.R-o.R) <= eps && math.Abs(c.G-o.G) <= eps && math.Abs(c.B-o.B) <= eps
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Min(math.Max(v, 0), 1) * 255))
}

// ParseHex accepts "#rrggbb" or "rrggbb".
func ParseHex(s string) (Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return Color{}, fmt.Errorf("parse hex %q: %w", s, ErrInvalidColor)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("parse hex %q: %w", s, ErrInvalidColor)
	}
	return Color{
		R: float64(n>>16&0xff) / 255,
		G: float64(n>>8&0xff) / 255,
		B: float64(n&0xff) / 255,
	}, nil
}

// Palette maps lowercase color names to colors.
type Palette map[string]Color

func DefaultPalette() Palette {
	return Palette{
		"yellow": Yellow,
		"green":  Green,
		"red":    Red,
		"cyan":   Cyan,
	}
}

// Resolve accepts a palette name or a hex color.
func (p Palette) Resolve(s string) (Color, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if c, ok := p[name]; ok {
		return c, nil
	}
	if c, err := ParseHex(name); err == nil {
		return c, nil
	}
	return Color{}, fmt.Errorf("unknown color %q: %w", s, ErrInvalidColor)
}

func (p Palette) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NameOf returns the palette name closest to c, or its hex form.
func (p Palette) NameOf(c Color) string {
	for _, name := range p.Names() {
		if p[name].Near(c) {
			return name
		}
	}
	return c.Hex()
}
