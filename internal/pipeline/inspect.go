package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/display"
	"github.com/backmassage/cloudviz/internal/field"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/naming"
	"github.com/backmassage/cloudviz/internal/particle"
	"github.com/backmassage/cloudviz/internal/term"
	"github.com/backmassage/cloudviz/internal/vtk"
)

// Row is one inspected file. Metric is the value screened for outliers:
// the variable maximum for fields and the particle count for dumps.
type Row struct {
	Name   string
	Kind   string // "field", "vtu" or "text".
	Shape  string // ZxYxX for fields, particle count otherwise.
	Metric float64
	Mean   float64 // Variable mean or mean radius.
	Size   int64
	Class  string // "", "outlier" or "extreme".
}

// InspectReport is the result of an inspect run.
type InspectReport struct {
	Rows      []Row
	Skipped   int
	Alignment *Alignment
}

// Alignment compares an Eulerian and a Lagrangian directory pairwise.
type Alignment struct {
	Eulerian, Lagrangian int
	Mismatched           []string // "n: eulr <-> lagr" for pairs whose time indices differ.
	Collisions           []string // Lagrangian files that map to an already claimed image.
}

// Inspect summarizes every .nc, .vtu and .txt file in cfg.Inspect.Input,
// prints a table with IQR outlier flags, and, when cfg.Inspect.Lagrangian
// is set, reports how the two directories pair up for rendering.
func Inspect(ctx context.Context, cfg *config.Config, log *logging.Logger) InspectReport {
	var rep InspectReport
	ic := &cfg.Inspect

	files, err := Discover(ic.Input, extNetCDF, extVTU, extText)
	if err != nil {
		log.Error("File discovery failed: %v", err)
		return rep
	}
	if len(files) == 0 {
		log.Warn("No %s, %s or %s files found in %s", extNetCDF, extVTU, extText, ic.Input)
		return rep
	}

	log.Info("Inspecting %d files in %s …", len(files), ic.Input)
	blank()

	ncols := 0
	for _, path := range files {
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			return rep
		}
		if ncols == 0 && strings.EqualFold(filepath.Ext(path), extText) {
			ncols, _ = particle.CountColumns(path)
		}
		row, err := inspectFile(cfg, path, ncols)
		if err != nil {
			rep.Skipped++
			log.Warn("Skip (%v)", err)
			continue
		}
		rep.Rows = append(rep.Rows, row)
	}

	if len(rep.Rows) == 0 {
		log.Warn("No files could be read")
		return rep
	}

	bounds := computeStats(metrics(rep.Rows))
	for i := range rep.Rows {
		rep.Rows[i].Class = bounds.classify(rep.Rows[i].Metric)
	}
	printInspectTable(rep.Rows)
	printInspectSummary(log, rep.Rows, bounds)

	if ic.Lagrangian != "" {
		a, err := align(ic.Input, ic.Lagrangian)
		if err != nil {
			log.Error("Alignment check failed: %v", err)
		} else {
			rep.Alignment = a
			logAlignment(log, a)
		}
	}
	return rep
}

func inspectFile(cfg *config.Config, path string, ncols int) (Row, error) {
	row := Row{Name: filepath.Base(path), Size: fileSize(path)}
	switch strings.ToLower(filepath.Ext(path)) {
	case extNetCDF:
		f, err := field.Read(path, []string{cfg.Render.Variable})
		if err != nil {
			return row, err
		}
		s := f.Var(cfg.Render.Variable).Stats()
		sh := f.Shape()
		row.Kind = "field"
		row.Shape = fmt.Sprintf("%dx%dx%d", sh[0], sh[1], sh[2])
		row.Metric, row.Mean = s.Max, s.Mean
	case extVTU:
		c, err := vtk.ReadPoints(path)
		if err != nil {
			return row, err
		}
		row.Kind = "vtu"
		row.Shape = fmt.Sprintf("%d", c.Len())
		row.Metric = float64(c.Len())
		if r := c.Array("radius"); len(r) > 0 {
			vals := make([]float64, len(r))
			for i, v := range r {
				vals[i] = float64(v)
			}
			row.Mean = stat.Mean(vals, nil)
		}
	default:
		rs, err := particle.ReadText(path, ncols)
		if err != nil {
			return row, err
		}
		row.Kind = "text"
		row.Shape = fmt.Sprintf("%d", len(rs))
		row.Metric = float64(len(rs))
		mean, _ := particle.RadiusStats(rs)
		row.Mean = mean * cfg.Points.RadiusScale
	}
	return row, nil
}

func metrics(rows []Row) []float64 {
	vals := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Metric > 0 {
			vals = append(vals, r.Metric)
		}
	}
	return vals
}

// iqrBounds holds the IQR-based thresholds for outlier classification.
type iqrBounds struct {
	q1, q3    float64
	outlierLo float64 // Q1 - 1.5*IQR
	outlierHi float64 // Q3 + 1.5*IQR
	extremeLo float64 // Q1 - 3.0*IQR
	extremeHi float64 // Q3 + 3.0*IQR
	valid     bool
}

func computeStats(vals []float64) iqrBounds {
	if len(vals) < 4 {
		return iqrBounds{}
	}

	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)

	q1 := stat.Quantile(0.25, stat.LinInterp, sorted, nil)
	q3 := stat.Quantile(0.75, stat.LinInterp, sorted, nil)
	iqr := q3 - q1

	return iqrBounds{
		q1:        q1,
		q3:        q3,
		outlierLo: q1 - 1.5*iqr,
		outlierHi: q3 + 1.5*iqr,
		extremeLo: q1 - 3.0*iqr,
		extremeHi: q3 + 3.0*iqr,
		valid:     iqr > 0,
	}
}

// classify returns "" (normal), "outlier", or "extreme" for a value.
func (b *iqrBounds) classify(v float64) string {
	if !b.valid {
		return ""
	}
	if v < b.extremeLo || v > b.extremeHi {
		return "extreme"
	}
	if v < b.outlierLo || v > b.outlierHi {
		return "outlier"
	}
	return ""
}

func printInspectTable(rows []Row) {
	nameW, shapeW, metricW := len("File"), len("Shape/Count"), len("Max/Count")
	cells := make([]string, len(rows))
	for i, r := range rows {
		nameW = max(nameW, len(r.Name))
		shapeW = max(shapeW, len(r.Shape))
		cells[i] = fmt.Sprintf("%.4g", r.Metric)
		metricW = max(metricW, len(cells[i]))
	}
	nameW = min(nameW, 50)

	header := fmt.Sprintf("  %-*s  %-5s  %-*s  %-*s  %-10s  %s",
		nameW, "File", "Kind", shapeW, "Shape/Count", metricW, "Max/Count", "Mean", "Size")
	fmt.Fprintln(stdout, header)
	fmt.Fprintln(stdout, "  "+strings.Repeat("─", len(header)-2))

	for i, r := range rows {
		name := r.Name
		if len(name) > nameW {
			name = name[:nameW-1] + "…"
		}
		// Pad the plain text first, then wrap in ANSI color, so escape bytes
		// do not count toward the column width.
		fmt.Fprintf(stdout, "  %-*s  %-5s  %-*s  %s  %-10.4g  %-9s %s\n",
			nameW, name, r.Kind, shapeW, r.Shape,
			colorPad(cells[i], metricW, r.Class), r.Mean,
			display.FormatBytes(r.Size), formatFlag(r.Class))
	}
	blank()
}

func printInspectSummary(log *logging.Logger, rows []Row, b iqrBounds) {
	var outliers, extremes int
	for _, r := range rows {
		switch r.Class {
		case "extreme":
			extremes++
		case "outlier":
			outliers++
		}
	}

	log.Info("Inspected %d files", len(rows))
	if b.valid {
		log.Info("  IQR: %.4g – %.4g (outlier < %.4g or > %.4g)", b.q1, b.q3, b.outlierLo, b.outlierHi)
	}
	if outliers > 0 {
		log.Outlier("  %d outlier(s) flagged [*]", outliers)
	}
	if extremes > 0 {
		log.Error("  %d extreme outlier(s) flagged [!]", extremes)
	}
	if outliers == 0 && extremes == 0 {
		log.Success("  No outliers detected")
	}
}

func formatFlag(flag string) string {
	switch flag {
	case "extreme":
		return term.Paint(term.Red, "[!]")
	case "outlier":
		return term.Paint(term.Orange, "[*]")
	default:
		return ""
	}
}

func colorPad(s string, width int, class string) string {
	padded := fmt.Sprintf("%-*s", width, s)
	switch class {
	case "extreme":
		return term.Paint(term.Red, padded)
	case "outlier":
		return term.Paint(term.Orange, padded)
	default:
		return padded
	}
}

// align pairs the sorted Eulerian and Lagrangian files by position, the way
// the render stage does, and reports pairs whose time indices disagree and
// images claimed twice.
func align(eulrDir, lagrDir string) (*Alignment, error) {
	eulr, err := Discover(eulrDir, extNetCDF)
	if err != nil {
		return nil, err
	}
	lagr, err := Discover(lagrDir, extVTU)
	if err != nil {
		return nil, err
	}
	a := &Alignment{Eulerian: len(eulr), Lagrangian: len(lagr)}
	claims := naming.NewClaimTracker()
	for n := 0; n < min(len(eulr), len(lagr)); n++ {
		e, l := filepath.Base(eulr[n]), filepath.Base(lagr[n])
		te, errE := naming.TimeIndex(e)
		tl, errL := naming.TimeIndex(l)
		if errE != nil || errL != nil || te != tl {
			a.Mismatched = append(a.Mismatched, fmt.Sprintf("%d: %s <-> %s", n, e, l))
		}
		if img, err := naming.ImageName(l); err == nil {
			if _, ok := claims.Claim(l, img); !ok {
				a.Collisions = append(a.Collisions, l)
			}
		}
	}
	return a, nil
}

func logAlignment(log *logging.Logger, a *Alignment) {
	log.Info("Alignment: %d Eulerian, %d Lagrangian files", a.Eulerian, a.Lagrangian)
	if a.Eulerian != a.Lagrangian {
		log.Warn("  File counts differ; render pairs only the first %d", min(a.Eulerian, a.Lagrangian))
	}
	for i, m := range a.Mismatched {
		if i == maxListed {
			log.Warn("  … %d more", len(a.Mismatched)-maxListed)
			break
		}
		log.Warn("  Time index mismatch %s", m)
	}
	if len(a.Collisions) > 0 {
		log.Warn("  %d file(s) map to an image already claimed: %s", len(a.Collisions), listed(a.Collisions))
	}
	if len(a.Mismatched) == 0 && len(a.Collisions) == 0 && a.Eulerian == a.Lagrangian {
		log.Success("  Directories pair up cleanly")
	}
}
