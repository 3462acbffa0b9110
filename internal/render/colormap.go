package render

import (
	"errors"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
)

// projection is a regular raster over the image plane holding the maximum
// value that fell into each bin. Empty bins are NaN.
type projection struct {
	cols, rows int
	u0, v0     float64 // Lower-left corner.
	cell       float64
	z          []float64
}

func newProjection(cols, rows int, u0, v0, cell float64) *projection {
	z := make([]float64, cols*rows)
	for i := range z {
		z[i] = math.NaN()
	}
	return &projection{cols: cols, rows: rows, u0: u0, v0: v0, cell: cell, z: z}
}

func (p *projection) add(u, v, val float64) {
	c := int(math.Floor((u - p.u0) / p.cell))
	r := int(math.Floor((v - p.v0) / p.cell))
	if c < 0 || c >= p.cols || r < 0 || r >= p.rows {
		return
	}
	i := r*p.cols + c
	if math.IsNaN(p.z[i]) || val > p.z[i] {
		p.z[i] = val
	}
}

func (p *projection) Dims() (c, r int)   { return p.cols, p.rows }
func (p *projection) Z(c, r int) float64 { return p.z[r*p.cols+c] }
func (p *projection) X(c int) float64    { return p.u0 + (float64(c)+0.5)*p.cell }
func (p *projection) Y(r int) float64    { return p.v0 + (float64(r)+0.5)*p.cell }

var errOutOfRange = errors.New("render: value outside color map range")

// grayMap is a linear black-to-white color map.
type grayMap struct {
	min, max, alpha float64
}

func (g *grayMap) At(v float64) (color.Color, error) {
	if math.IsNaN(v) || v < g.min || v > g.max {
		return nil, errOutOfRange
	}
	t := 0.0
	if g.max > g.min {
		t = (v - g.min) / (g.max - g.min)
	}
	return g.shade(t), nil
}

func (g *grayMap) shade(t float64) color.Color {
	l := uint8(math.Round(255 * t))
	return color.NRGBA{R: l, G: l, B: l, A: uint8(math.Round(255 * g.alpha))}
}

func (g *grayMap) Max() float64       { return g.max }
func (g *grayMap) Min() float64       { return g.min }
func (g *grayMap) SetMax(v float64)   { g.max = v }
func (g *grayMap) SetMin(v float64)   { g.min = v }
func (g *grayMap) Alpha() float64     { return g.alpha }
func (g *grayMap) SetAlpha(a float64) { g.alpha = a }

func (g *grayMap) Palette(n int) palette.Palette {
	cs := make(colors, n)
	for i := range cs {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		cs[i] = g.shade(t)
	}
	return cs
}

// reversed flips a color map end to end.
type reversed struct {
	palette.ColorMap
}

func (r reversed) At(v float64) (color.Color, error) {
	return r.ColorMap.At(r.Min() + r.Max() - v)
}

func (r reversed) Palette(n int) palette.Palette {
	in := r.ColorMap.Palette(n).Colors()
	cs := make(colors, len(in))
	for i, c := range in {
		cs[len(in)-1-i] = c
	}
	return cs
}

type colors []color.Color

func (c colors) Colors() []color.Color { return c }
