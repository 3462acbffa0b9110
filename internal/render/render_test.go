package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/backmassage/cloudviz/internal/camera"
	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/field"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/planner"
	"github.com/backmassage/cloudviz/internal/vtk"
)

func testConfig(t *testing.T, backend string) (*config.Config, *logging.Logger) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Stage = config.StageRender
	cfg.Render.Backend = backend
	cfg.ColorMode = config.ColorNever
	log, err := logging.NewLogger(&cfg)
	require.NoError(t, err)
	log.SetOutput(io.Discard, io.Discard)
	return &cfg, log
}

func testPlan(dir string) *planner.FramePlan {
	return &planner.FramePlan{
		Index:          3,
		EulerianPath:   filepath.Join(dir, "fields.000300.nc"),
		LagrangianPath: filepath.Join(dir, "particles.000300.vtu"),
		ImagePath:      filepath.Join(dir, "img.3.png"),
		Frame:          3,
		Camera:         r3.Vec{X: 35, Y: 60, Z: 300},
		Focal:          r3.Vec{X: 35, Y: 35, Z: 35},
		Up:             camera.Up,
	}
}

// writeInputs writes an 8^3 field with a bright core and a small cloud.
func writeInputs(t *testing.T, plan *planner.FramePlan) {
	t.Helper()
	f := &field.Field{}
	for i := 0; i < 8; i++ {
		f.Z = append(f.Z, int32(i*10))
		f.Y = append(f.Y, int32(i*10))
		f.X = append(f.X, int32(i*10))
	}
	data := sparse.ZerosDense(8, 8, 8)
	for k := 2; k < 6; k++ {
		for j := 2; j < 6; j++ {
			for i := 2; i < 6; i++ {
				data.Set(0.0001*float64(i+j+k), k, j, i)
			}
		}
	}
	f.Vars = []*field.Variable{{Name: "mixing_ratio", Data: data}}
	require.NoError(t, field.Write(plan.EulerianPath, f))

	cloud := &vtk.Cloud{
		X: []float32{10, 35, 60},
		Y: []float32{10, 35, 60},
		Z: []float32{30, 35, 40},
		Arrays: []vtk.Array{
			{Name: "radius", Values: []float32{2, 9, 30}},
			{Name: "ID", Values: []float32{1, 2, 3}},
		},
	}
	require.NoError(t, vtk.WritePoints(plan.LagrangianPath, cloud, vtk.Binary))
}

func TestNew(t *testing.T) {
	cfg, log := testConfig(t, config.RenderPlot)
	r, err := New(cfg, log)
	require.NoError(t, err)
	assert.Equal(t, "plot", r.Name())

	cfg.Render.Backend = config.RenderParaView
	r, err = New(cfg, log)
	require.NoError(t, err)
	assert.Equal(t, "paraview", r.Name())

	cfg.Render.Backend = "povray"
	_, err = New(cfg, log)
	assert.Error(t, err)
}

func TestPlot_Render(t *testing.T) {
	cfg, log := testConfig(t, config.RenderPlot)
	cfg.Render.Width, cfg.Render.Height = 320, 180
	cfg.Render.ProjectionBins = 32
	plan := testPlan(t.TempDir())
	writeInputs(t, plan)

	r, err := New(cfg, log)
	require.NoError(t, err)
	require.NoError(t, r.Render(context.Background(), plan))

	f, err := os.Open(plan.ImagePath)
	require.NoError(t, err)
	defer f.Close()
	ic, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.InDelta(t, 320, ic.Width, 1)
	assert.InDelta(t, 180, ic.Height, 1)
}

func TestPlot_MissingInput(t *testing.T) {
	cfg, log := testConfig(t, config.RenderPlot)
	plan := testPlan(t.TempDir())
	r, _ := New(cfg, log)
	assert.Error(t, r.Render(context.Background(), plan))
	assert.NoFileExists(t, plan.ImagePath)
}

func TestProjection(t *testing.T) {
	p := newProjection(4, 2, 0, 0, 1)
	p.add(0.5, 0.5, 1)
	p.add(0.7, 0.2, 3)
	p.add(0.9, 0.9, 2)
	p.add(10, 0, 5) // Outside.
	c, r := p.Dims()
	assert.Equal(t, 4, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 3.0, p.Z(0, 0))
	assert.True(t, p.Z(1, 0) != p.Z(1, 0), "empty bin is NaN")
	assert.Equal(t, 2.5, p.X(2))
	assert.Equal(t, 1.5, p.Y(1))
}

func TestGrayMap(t *testing.T) {
	g := &grayMap{min: 0, max: 0.0012, alpha: 1}
	c, err := g.At(0.0012)
	require.NoError(t, err)
	r, _, _, _ := c.RGBA()
	assert.Equal(t, uint32(0xffff), r)
	_, err = g.At(0.002)
	assert.Error(t, err)

	pal := g.Palette(3).Colors()
	require.Len(t, pal, 3)
	r, _, _, _ = pal[0].RGBA()
	assert.Zero(t, r)
}

func TestWriteScript(t *testing.T) {
	cfg, _ := testConfig(t, config.RenderParaView)
	cfg.Render.PresetsFile = "/presets/eulr_gray.json"
	plan := testPlan("/data")
	var buf bytes.Buffer
	require.NoError(t, WriteScript(&buf, cfg, plan))
	s := buf.String()

	for _, want := range []string{
		`ImportPresets(filename="/presets/eulr_gray.json")`,
		`view.ViewSize = [2555, 1376]`,
		`camera.SetPosition(35, 60, 300)`,
		`camera.SetFocalPoint(35, 35, 35)`,
		`camera.SetViewUp(0, 1, 0)`,
		`NetCDFReader(FileName=["/data/fields.000300.nc"])`,
		`eulr.Dimensions = '(z, y, x)'`,
		`ColorBy(eulrDisplay, ('POINTS', "mixing_ratio"))`,
		`lagrDisplay.GaussianRadius = 1.3`,
		`eulrLUT.ApplyPreset("eulr_gray.8", True)`,
		`radiusLUT.ApplyPreset("Warm to Cool", True)`,
		`eulrLUT.RescaleTransferFunction(0, 0.0012)`,
		`radiusLUT.RescaleTransferFunction(0, 18)`,
		`'Mixing Ratio'`,
		`SaveScreenshot("/data/img.3.png", view)`,
	} {
		assert.Contains(t, s, want)
	}

	cfg.Render.PresetsFile = ""
	buf.Reset()
	require.NoError(t, WriteScript(&buf, cfg, plan))
	assert.NotContains(t, buf.String(), "ImportPresets")
}

func TestMatchDisplayIssue(t *testing.T) {
	assert.True(t, MatchDisplayIssue("ERROR: In vtkXOpenGLRenderWindow.cxx: bad X server connection. DISPLAY=:0"))
	assert.True(t, MatchDisplayIssue("cannot open display: localhost:10.0"))
	assert.False(t, MatchDisplayIssue("Traceback: NameError: name 'NetCDFReader' is not defined"))
}

// fakePVBatch installs a pvbatch stand-in that fails with a display error
// unless run offscreen, and records its arguments.
func fakePVBatch(t *testing.T, plan *planner.FramePlan) (bin, argsLog string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in")
	}
	dir := t.TempDir()
	bin = filepath.Join(dir, "pvbatch")
	argsLog = filepath.Join(dir, "args")
	script := `#!/bin/sh
echo "$@" >> "$ARGS_LOG"
if [ "$1" != "--force-offscreen-rendering" ]; then
  echo "cannot open display: :0" >&2
  exit 1
fi
printf png > "$FAKE_IMAGE"
`
	require.NoError(t, os.WriteFile(bin, []byte(script), 0o755))
	t.Setenv("ARGS_LOG", argsLog)
	t.Setenv("FAKE_IMAGE", plan.ImagePath)
	return bin, argsLog
}

func TestParaView_OffscreenRetry(t *testing.T) {
	cfg, log := testConfig(t, config.RenderParaView)
	plan := testPlan(t.TempDir())
	cfg.Render.PVBatch, _ = fakePVBatch(t, plan)

	r, err := New(cfg, log)
	require.NoError(t, err)
	require.NoError(t, r.Render(context.Background(), plan))
	assert.FileExists(t, plan.ImagePath)

	// The renderer stays offscreen for later frames.
	require.NoError(t, os.Remove(plan.ImagePath))
	require.NoError(t, r.Render(context.Background(), plan))
	data, err := os.ReadFile(os.Getenv("ARGS_LOG"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3)
}

func TestParaView_StrictNoRetry(t *testing.T) {
	cfg, log := testConfig(t, config.RenderParaView)
	cfg.StrictMode = true
	plan := testPlan(t.TempDir())
	cfg.Render.PVBatch, _ = fakePVBatch(t, plan)

	r, _ := New(cfg, log)
	err := r.Render(context.Background(), plan)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot open display")
}

func TestParaView_NoImage(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stand-in")
	}
	cfg, log := testConfig(t, config.RenderParaView)
	plan := testPlan(t.TempDir())
	bin := filepath.Join(t.TempDir(), "pvbatch")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	cfg.Render.PVBatch = bin

	r, _ := New(cfg, log)
	err := r.Render(context.Background(), plan)
	assert.True(t, errors.Is(err, ErrNoImage))
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c\nd", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", lastLines("a", 5))
}
