package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"text/template"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/planner"
)

// OffscreenFlag makes pvbatch render without an X display.
const OffscreenFlag = "--force-offscreen-rendering"

// ParaView renders frames by running a generated pvpython script through
// pvbatch.
type ParaView struct {
	cfg *config.Config
	log *logging.Logger

	offscreen bool // Set after the first display failure.
}

func (r *ParaView) Name() string { return config.RenderParaView }

// Render writes the frame script to a temporary file and runs pvbatch on it.
// A display failure switches this renderer to offscreen mode and retries
// once, unless strict mode is set.
func (r *ParaView) Render(ctx context.Context, plan *planner.FramePlan) error {
	script, err := os.CreateTemp("", "cloudviz-frame-*.py")
	if err != nil {
		return err
	}
	defer os.Remove(script.Name())

	if err := WriteScript(script, r.cfg, plan); err != nil {
		script.Close()
		return err
	}
	if err := script.Close(); err != nil {
		return err
	}

	out, err := r.run(ctx, script.Name())
	if err != nil && !r.offscreen && !r.cfg.StrictMode && MatchDisplayIssue(out) {
		r.log.Warn("pvbatch could not open a display; retrying with %s", OffscreenFlag)
		r.offscreen = true
		out, err = r.run(ctx, script.Name())
	}
	if err != nil {
		return fmt.Errorf("pvbatch: %w\n%s", err, lastLines(out, 10))
	}
	return checkImage(plan.ImagePath)
}

func (r *ParaView) run(ctx context.Context, script string) (string, error) {
	var args []string
	if r.offscreen {
		args = append(args, OffscreenFlag)
	}
	args = append(args, script)

	cmd := exec.CommandContext(ctx, r.cfg.Render.PVBatch, args...)
	var buf bytes.Buffer
	if r.cfg.Verbose {
		cmd.Stdout = io.MultiWriter(&buf, os.Stderr)
		cmd.Stderr = io.MultiWriter(&buf, os.Stderr)
	} else {
		cmd.Stdout = &buf
		cmd.Stderr = &buf
	}
	err := cmd.Run()
	return buf.String(), err
}

// scriptData is the template input for one frame.
type scriptData struct {
	R    *config.RenderConfig
	Plan *planner.FramePlan
}

// WriteScript writes the pvpython script that renders plan.
func WriteScript(w io.Writer, cfg *config.Config, plan *planner.FramePlan) error {
	return frameScript.Execute(w, scriptData{R: &cfg.Render, Plan: plan})
}

var frameScript = template.Must(template.New("frame").Funcs(template.FuncMap{
	"py":  strconv.Quote,
	"num": func(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) },
}).Parse(`from paraview.simple import *

paraview.simple._DisableFirstRenderCameraReset()
{{- with .R.PresetsFile}}

ImportPresets(filename={{py .}})
{{- end}}

view = GetActiveViewOrCreate('RenderView')
view.ViewSize = [{{.R.Width}}, {{.R.Height}}]
view.OrientationAxesVisibility = 0

camera = GetActiveCamera()
camera.SetFocalPoint({{num .Plan.Focal.X}}, {{num .Plan.Focal.Y}}, {{num .Plan.Focal.Z}})
camera.SetPosition({{num .Plan.Camera.X}}, {{num .Plan.Camera.Y}}, {{num .Plan.Camera.Z}})
camera.SetViewUp({{num .Plan.Up.X}}, {{num .Plan.Up.Y}}, {{num .Plan.Up.Z}})

# Eulerian field
eulr = NetCDFReader(FileName=[{{py .Plan.EulerianPath}}])
eulr.Dimensions = '(z, y, x)'
eulrDisplay = Show(eulr, view)
eulrDisplay.SetRepresentationType('Volume')
ColorBy(eulrDisplay, ('POINTS', {{py .R.Variable}}))

# Lagrangian particles
lagr = XMLUnstructuredGridReader(FileName=[{{py .Plan.LagrangianPath}}])
lagr.CellArrayStatus = []
lagr.PointArrayStatus = ['radius', 'ID']
lagrDisplay = Show(lagr, view)
ColorBy(lagrDisplay, ('POINTS', 'radius'))
lagrDisplay.SetRepresentationType('Point Gaussian')
lagrDisplay.GaussianRadius = {{num .R.GaussianRadius}}
lagrDisplay.ShaderPreset = 'Plain circle'

eulrLUT = GetColorTransferFunction({{py .R.Variable}})
eulrPWF = GetOpacityTransferFunction({{py .R.Variable}})
radiusLUT = GetColorTransferFunction('radius')
radiusPWF = GetOpacityTransferFunction('radius')

eulrLUT.ApplyPreset({{py .R.EulerianColorMap}}, True)
eulrPWF.ApplyPreset({{py .R.EulerianColorMap}}, True)
radiusLUT.ApplyPreset({{py .R.LagrangianColorMap}}, True)
radiusPWF.ApplyPreset({{py .R.LagrangianColorMap}}, True)

eulrLUT.RescaleTransferFunction({{num .R.MixingRatioMin}}, {{num .R.MixingRatioMax}})
eulrPWF.RescaleTransferFunction({{num .R.MixingRatioMin}}, {{num .R.MixingRatioMax}})
radiusLUT.RescaleTransferFunction({{num .R.RadiusMin}}, {{num .R.RadiusMax}})
radiusPWF.RescaleTransferFunction({{num .R.RadiusMin}}, {{num .R.RadiusMax}})

eulrDisplay.SetScalarBarVisibility(view, True)
lagrDisplay.SetScalarBarVisibility(view, True)
for bar, title in ((GetScalarBar(eulrLUT, view), 'Mixing Ratio'),
                   (GetScalarBar(radiusLUT, view), u'Radius (μm)')):
    bar.Title = title
    bar.TitleFontFamily = 'Arial'
    bar.TitleFontSize = 12
    bar.LabelFontFamily = 'Courier'
    bar.LabelFontSize = 10
    bar.RangeLabelFormat = '%-#7.4'
    bar.AddRangeAnnotations = 0

SaveScreenshot({{py .Plan.ImagePath}}, view)
`))

// lastLines returns at most n trailing lines of s.
func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
