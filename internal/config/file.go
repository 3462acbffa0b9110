package config

import (
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"
)

// Example config file sections. Every uncommented value is the built-in
// default, so an unedited example file changes nothing but the paths.
const (
	ExampleExtractFile = `[Extract]

# Directory containing the full-resolution NetCDF files (one per time step).
# Input = path/to/eulerian
# Directory the down-sampled files are written to, under the same names.
# Output = path/to/eulerian_small

# Variables copied to the output, comma separated.
Variables = mixing_ratio

# Keep every Stride-th point along z, y and x.
Stride = 2
`
	ExamplePointsFile = `[Points]

# Directory of whitespace-delimited particle dumps (id x y z radius).
# Input = path/to/lagrangian
# Directory the .vtu files are written to. A _stride_<n> suffix is added
# when Stride is above 1.
# Output = path/to/lagrangian_vtk

# Keep every Stride-th particle.
Stride = 1

# Data array encoding: ascii, binary or zlib.
Encoding = binary

# Positions are multiplied into grid units and radii into micrometres.
PositionScale = 10
RadiusScale = 10000
`
	ExampleRenderFile = `[Render]

# Input directories, paired by sorted position, and the image directory.
# Eulerian = path/to/eulerian_small
# Lagrangian = path/to/lagrangian_vtk
# Images = path/to/images

# paraview runs pvbatch; plot renders a projection in-process.
Backend = paraview
Overwrite = false

# Absolute index of the first file and the number of files to render.
Start = 0
Frames = 80

Variable = mixing_ratio
EulerianColorMap = eulr_gray.8
LagrangianColorMap = "Warm to Cool"
# PresetsFile = path/to/eulr_gray.json
MixingRatioMin = 0
MixingRatioMax = 0.0012
RadiusMin = 0
RadiusMax = 18
GaussianRadius = 1.3

# The camera orbits the focal point about the vertical axis by Rotation
# degrees per file index. Zero holds it still.
Rotation = 1
CameraX = -1000
CameraY = 1300
CameraZ = 3000
FocalX = 512
FocalY = 400
FocalZ = 512

Width = 2555
Height = 1376

PVBatch = pvbatch
ProjectionBins = 256
`
	ExampleVideoFile = `[Video]

# Directory of img.<N>.png frames.
# Input = path/to/images
# Output = path/to/images/CloudDropletVisualization.avi

# mjpeg writes the AVI in-process; ffmpeg streams the frames to ffmpeg.
Backend = mjpeg
FPS = 5
Quality = 90
Codec = mpeg4
Tag = DIVX
`
)

// fileConfig is the gcfg wrapper; each field is one [Section].
type fileConfig struct {
	Extract ExtractConfig
	Points  PointsConfig
	Render  RenderConfig
	Video   VideoConfig
}

// LoadFile reads an INI-style config file on top of the values already in
// cfg. Sections and variables absent from the file are left unchanged.
func LoadFile(cfg *Config, fname string) error {
	wrap := fileConfig{
		Extract: cfg.Extract,
		Points:  cfg.Points,
		Render:  cfg.Render,
		Video:   cfg.Video,
	}
	if err := gcfg.ReadFileInto(&wrap, fname); err != nil {
		return fmt.Errorf("config file %s: %w", fname, err)
	}
	cfg.Extract = wrap.Extract
	cfg.Points = wrap.Points
	cfg.Render = wrap.Render
	cfg.Video = wrap.Video
	for _, dir := range []*string{
		&cfg.Extract.Input, &cfg.Extract.Output,
		&cfg.Points.Input, &cfg.Points.Output,
		&cfg.Render.Eulerian, &cfg.Render.Lagrangian, &cfg.Render.Images,
		&cfg.Video.Input,
	} {
		if *dir != "" {
			*dir = NormalizeDirArg(*dir)
		}
	}
	return nil
}

// ExampleConfig returns the example file for one stage, or for every stage
// when stage is empty.
func ExampleConfig(stage Stage) (string, error) {
	switch stage {
	case "":
		return strings.Join([]string{
			ExampleExtractFile, ExamplePointsFile, ExampleRenderFile, ExampleVideoFile,
		}, "\n"), nil
	case StageExtract:
		return ExampleExtractFile, nil
	case StagePoints:
		return ExamplePointsFile, nil
	case StageRender:
		return ExampleRenderFile, nil
	case StageVideo:
		return ExampleVideoFile, nil
	}
	return "", fmt.Errorf("no example config for %q", stage)
}
