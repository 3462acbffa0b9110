package render

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"os"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/backmassage/cloudviz/internal/camera"
	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/field"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/planner"
	"github.com/backmassage/cloudviz/internal/vtk"
)

const (
	dpi       = 96
	barShare  = 0.12 // Fraction of the image width used by the color bars.
	margin    = 0.05
	minGlyph  = 0.5 // Points.
	paletteN  = 256
	minBins   = 2
	radiusArr = "radius"
)

// background matches ParaView's default render view color.
var background = color.NRGBA{R: 82, G: 87, B: 110, A: 255}

// Plot renders frames natively: a maximum-intensity projection of the field
// onto the camera's image plane, with particles drawn over it colored by
// radius.
type Plot struct {
	cfg *config.Config
	log *logging.Logger
}

func (r *Plot) Name() string { return config.RenderPlot }

// Render reads both inputs and writes the PNG.
func (r *Plot) Render(ctx context.Context, plan *planner.FramePlan) error {
	rc := &r.cfg.Render
	f, err := field.Read(plan.EulerianPath, []string{rc.Variable})
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	cloud, err := vtk.ReadPoints(plan.LagrangianPath)
	if err != nil {
		return err
	}
	basis, err := camera.NewBasis(plan.Camera, plan.Focal, plan.Up)
	if err != nil {
		return err
	}

	scene := newScene(rc, basis, plan.Focal)
	scene.fit(f)
	scene.project(f.Var(rc.Variable), f)

	c, err := scene.draw(cloud)
	if err != nil {
		return err
	}
	if err := savePNG(plan.ImagePath, c); err != nil {
		return err
	}
	r.log.Debug(r.cfg.Verbose, "projected %d particles onto %dx%d bins", cloud.Len(), scene.grid.cols, scene.grid.rows)
	return nil
}

// scene holds the view geometry of one frame.
type scene struct {
	rc     *config.RenderConfig
	basis  camera.Basis
	origin r3.Vec

	mainW, height vg.Length // Canvas size of the projection area.
	grid          *projection
}

func newScene(rc *config.RenderConfig, basis camera.Basis, origin r3.Vec) *scene {
	w := vg.Length(rc.Width) * vg.Inch / dpi
	return &scene{
		rc:     rc,
		basis:  basis,
		origin: origin,
		mainW:  w * (1 - barShare),
		height: vg.Length(rc.Height) * vg.Inch / dpi,
	}
}

// fit sizes the projection grid so the projected bounding box of the field
// fills the view at the canvas aspect ratio.
func (s *scene) fit(f *field.Field) {
	umin, vmin := math.Inf(1), math.Inf(1)
	umax, vmax := math.Inf(-1), math.Inf(-1)
	for _, x := range bounds(f.X) {
		for _, y := range bounds(f.Y) {
			for _, z := range bounds(f.Z) {
				u, v, _ := s.basis.Project(r3.Vec{X: x, Y: y, Z: z}, s.origin)
				umin, umax = math.Min(umin, u), math.Max(umax, u)
				vmin, vmax = math.Min(vmin, v), math.Max(vmax, v)
			}
		}
	}
	ew, eh := umax-umin, vmax-vmin
	if ew <= 0 || eh <= 0 || math.IsInf(ew, 0) {
		umin, vmin, ew, eh = -1, -1, 2, 2
	}
	aspect := float64(s.mainW / s.height)
	if ew/eh < aspect {
		grow := eh*aspect - ew
		umin -= grow / 2
		ew += grow
	} else {
		grow := ew/aspect - eh
		vmin -= grow / 2
		eh += grow
	}
	umin -= ew * margin
	vmin -= eh * margin
	ew *= 1 + 2*margin
	eh *= 1 + 2*margin

	cols := max(s.rc.ProjectionBins, minBins)
	cell := ew / float64(cols)
	rows := max(int(math.Ceil(eh/cell)), minBins)
	s.grid = newProjection(cols, rows, umin, vmin, cell)
}

func bounds(c []int32) []float64 {
	if len(c) == 0 {
		return []float64{0}
	}
	lo, hi := c[0], c[0]
	for _, v := range c {
		lo, hi = min(lo, v), max(hi, v)
	}
	return []float64{float64(lo), float64(hi)}
}

// project accumulates the per-bin maximum of v over the grid.
func (s *scene) project(v *field.Variable, f *field.Field) {
	if v == nil {
		return
	}
	lo, hi := s.rc.MixingRatioMin, s.rc.MixingRatioMax
	data := v.Data.Elements
	nz, ny, nx := len(f.Z), len(f.Y), len(f.X)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			row := (k*ny + j) * nx
			for i := 0; i < nx; i++ {
				val := data[row+i]
				if math.IsNaN(val) || val <= lo {
					continue
				}
				p := r3.Vec{X: float64(f.X[i]), Y: float64(f.Y[j]), Z: float64(f.Z[k])}
				u, w, _ := s.basis.Project(p, s.origin)
				s.grid.add(u, w, math.Min(val, hi))
			}
		}
	}
}

// draw lays out the projection and the two color bars on one canvas.
func (s *scene) draw(cloud *vtk.Cloud) (*vgimg.Canvas, error) {
	rc := s.rc
	gray := &grayMap{min: rc.MixingRatioMin, max: rc.MixingRatioMax, alpha: 1}
	warm := reversed{moreland.SmoothBlueRed()}
	warm.SetMin(rc.RadiusMin)
	warm.SetMax(rc.RadiusMax)

	p := plot.New()
	p.HideAxes()
	p.BackgroundColor = background
	p.X.Min, p.X.Max = s.grid.u0, s.grid.u0+float64(s.grid.cols)*s.grid.cell
	p.Y.Min, p.Y.Max = s.grid.v0, s.grid.v0+float64(s.grid.rows)*s.grid.cell

	heat := plotter.NewHeatMap(s.grid, gray.Palette(paletteN))
	heat.Min, heat.Max = rc.MixingRatioMin, rc.MixingRatioMax
	heat.NaN = background
	heat.Rasterized = true
	p.Add(heat)

	sc, err := s.particles(cloud, warm, p.X.Max-p.X.Min)
	if err != nil {
		return nil, err
	}
	if sc != nil {
		p.Add(sc)
	}

	width := s.mainW / (1 - barShare)
	c := vgimg.NewWith(vgimg.UseWH(width, s.height), vgimg.UseDPI(dpi))
	dc := draw.New(c)
	barW := width - s.mainW

	dc.SetColor(background)
	dc.Fill(dc.Rectangle.Path())
	p.Draw(draw.Crop(dc, 0, -barW, 0, 0))
	colorBar("Mixing Ratio", gray).Draw(draw.Crop(dc, s.mainW, 0, s.height/2, 0))
	colorBar("Radius (μm)", warm).Draw(draw.Crop(dc, s.mainW, 0, 0, -s.height/2))
	return c, nil
}

// particles builds the scatter, farthest first so nearer particles are drawn
// on top. It returns nil for an empty cloud.
func (s *scene) particles(cloud *vtk.Cloud, cmap palette.ColorMap, viewWidth float64) (*plotter.Scatter, error) {
	n := cloud.Len()
	if n == 0 {
		return nil, nil
	}
	radius := cloud.Array(radiusArr)

	type pt struct {
		u, v, depth float64
		r           float64
	}
	pts := make([]pt, n)
	for i := 0; i < n; i++ {
		p := r3.Vec{X: float64(cloud.X[i]), Y: float64(cloud.Y[i]), Z: float64(cloud.Z[i])}
		u, v, d := s.basis.Project(p, s.origin)
		pts[i] = pt{u: u, v: v, depth: d}
		if radius != nil {
			pts[i].r = float64(radius[i])
		}
	}
	sort.SliceStable(pts, func(a, b int) bool { return pts[a].depth > pts[b].depth })

	xys := make(plotter.XYs, n)
	for i, p := range pts {
		xys[i] = plotter.XY{X: p.u, Y: p.v}
	}
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("particles: %w", err)
	}

	glyph := vg.Length(s.rc.GaussianRadius) * s.mainW / vg.Length(viewWidth)
	glyph = max(glyph, minGlyph)
	sc.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  clampedAt(cmap, pts[i].r),
			Radius: glyph,
			Shape:  draw.CircleGlyph{},
		}
	}
	return sc, nil
}

func colorBar(title string, cmap palette.ColorMap) *plot.Plot {
	p := plot.New()
	p.BackgroundColor = background
	p.HideX()
	p.Title.Text = title
	p.Title.TextStyle.Color = color.White
	p.Y.LineStyle.Color = color.White
	p.Y.Tick.LineStyle.Color = color.White
	p.Y.Tick.Label.Color = color.White
	p.Add(&plotter.ColorBar{ColorMap: cmap, Vertical: true, Colors: paletteN})
	return p
}

// clampedAt returns the map color of v clamped into the map range.
func clampedAt(cmap palette.ColorMap, v float64) color.Color {
	if math.IsNaN(v) {
		v = cmap.Min()
	}
	v = math.Max(cmap.Min(), math.Min(cmap.Max(), v))
	c, err := cmap.At(v)
	if err != nil {
		return color.Black
	}
	return c
}

func savePNG(path string, c *vgimg.Canvas) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	_, err = vgimg.PngCanvas{Canvas: c}.WriteTo(f)
	return err
}
