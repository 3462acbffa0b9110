// Package config holds runtime configuration: defaults, config-file loading,
// subcommand flag parsing, and validation. Defaults reproduce the constants of
// the cloud-droplet processing scripts so that a bare invocation behaves the
// same way they did.
package config

import (
	"errors"
	"fmt"
	"strings"
)

// Stage names the subcommand being run.
type Stage string

const (
	StageExtract Stage = "extract"        // Down-sample NetCDF fields.
	StagePoints  Stage = "points"         // Particle text to VTU point clouds.
	StageRender  Stage = "render"         // Per-frame PNG rendering.
	StageVideo   Stage = "video"          // Frame assembly into a video.
	StageInspect Stage = "inspect"        // Per-file summary table.
	StageCheck   Stage = "check"          // External tool diagnostics.
	StageExample Stage = "example-config" // Print an example config file.
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Render backends.
const (
	RenderParaView = "paraview" // pvbatch driven by a generated script.
	RenderPlot     = "plot"     // In-process projection renderer.
)

// Video backends.
const (
	VideoMJPEG  = "mjpeg"  // In-process Motion-JPEG AVI writer (default).
	VideoFFmpeg = "ffmpeg" // ffmpeg image2pipe encode.
)

// VTU data array encodings.
const (
	EncodingASCII  = "ascii"
	EncodingBinary = "binary"
	EncodingZlib   = "zlib"
)

// ExtractConfig configures field down-sampling. The same fields can be set in
// the [Extract] section of a config file.
type ExtractConfig struct {
	Input     string
	Output    string
	Variables string // Comma-separated variable names. Default: "mixing_ratio".
	Stride    int    // Default: 2.
}

// PointsConfig configures particle conversion ([Points] section).
type PointsConfig struct {
	Input         string
	Output        string
	Stride        int     // Default: 1. Values above 1 add a _stride_<n> suffix to Output.
	Encoding      string  // ascii | binary | zlib. Default: binary.
	PositionScale float64 // Default: 10 (grid units).
	RadiusScale   float64 // Default: 10000 (micrometres).
}

// RenderConfig configures frame rendering ([Render] section).
type RenderConfig struct {
	Eulerian   string // Directory of down-sampled .nc files.
	Lagrangian string // Directory of .vtu files.
	Images     string // Output image directory.
	Backend    string // paraview | plot. Default: paraview.
	Overwrite  bool   // Re-render frames whose image exists.

	Start  int // First absolute file index. Default: 0.
	Frames int // Number of files to render. Default: 80.

	Variable           string  // Default: "mixing_ratio".
	EulerianColorMap   string  // Default: "eulr_gray.8".
	LagrangianColorMap string  // Default: "Warm to Cool".
	PresetsFile        string  // Optional ParaView color-map presets (.json/.xml) to import.
	MixingRatioMin     float64 // Default: 0.
	MixingRatioMax     float64 // Default: 0.0012.
	RadiusMin          float64 // Default: 0.
	RadiusMax          float64 // Default: 18.
	GaussianRadius     float64 // Default: 1.3.

	Rotation float64 // Degrees per frame. Default: 1. Zero holds the camera still.
	CameraX  float64 // Default: -1000.
	CameraY  float64 // Default: 1300.
	CameraZ  float64 // Default: 3000.
	FocalX   float64 // Default: 512.
	FocalY   float64 // Default: 400.
	FocalZ   float64 // Default: 512.

	Width  int // Default: 2555.
	Height int // Default: 1376.

	PVBatch        string // pvbatch binary. Default: "pvbatch".
	ProjectionBins int    // plot backend raster resolution. Default: 256.
}

// VideoConfig configures frame assembly ([Video] section).
type VideoConfig struct {
	Input   string // Image directory.
	Output  string // Default: <Input>/CloudDropletVisualization.avi.
	Backend string // mjpeg | ffmpeg. Default: mjpeg.
	FPS     int    // Default: 5.
	Quality int    // JPEG quality for mjpeg. Default: 90.
	Codec   string // ffmpeg video codec. Default: "mpeg4".
	Tag     string // ffmpeg fourcc tag. Default: "DIVX".
}

// InspectConfig configures the inspect subcommand.
type InspectConfig struct {
	Input      string // Directory of .nc or .vtu/.txt files.
	Lagrangian string // Optional second directory for the alignment report.
}

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then by an optional config file, then by [ParseArgs], before being passed
// (by pointer) to packages that need it.
type Config struct {
	Stage      Stage
	ConfigFile string // -config path; loaded before flags are applied.
	ExampleFor Stage  // Stage argument of example-config.

	Extract ExtractConfig
	Points  PointsConfig
	Render  RenderConfig
	Video   VideoConfig
	Inspect InspectConfig

	// Behavior flags.
	DryRun       bool
	SkipExisting bool // Default: true. Cleared by -force.
	StrictMode   bool // Disable retry fallbacks for external tools.

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional log file path.
}

// DefaultOutputVideo is the video file name used when none is given.
const DefaultOutputVideo = "CloudDropletVisualization.avi"

// DefaultConfig returns a Config carrying the processing scripts' constants.
func DefaultConfig() Config {
	return Config{
		Extract: ExtractConfig{
			Variables: "mixing_ratio",
			Stride:    2,
		},
		Points: PointsConfig{
			Stride:        1,
			Encoding:      EncodingBinary,
			PositionScale: 10,
			RadiusScale:   10000,
		},
		Render: RenderConfig{
			Backend:            RenderParaView,
			Start:              0,
			Frames:             80,
			Variable:           "mixing_ratio",
			EulerianColorMap:   "eulr_gray.8",
			LagrangianColorMap: "Warm to Cool",
			MixingRatioMin:     0,
			MixingRatioMax:     0.0012,
			RadiusMin:          0,
			RadiusMax:          18,
			GaussianRadius:     1.3,
			Rotation:           1,
			CameraX:            -1000,
			CameraY:            1300,
			CameraZ:            3000,
			FocalX:             512,
			FocalY:             400,
			FocalZ:             512,
			Width:              2555,
			Height:             1376,
			PVBatch:            "pvbatch",
			ProjectionBins:     256,
		},
		Video: VideoConfig{
			Backend: VideoMJPEG,
			FPS:     5,
			Quality: 90,
			Codec:   "mpeg4",
			Tag:     "DIVX",
		},
		SkipExisting: true,
		ColorMode:    ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// VariableNames splits Extract.Variables into trimmed, non-empty names.
func (c *Config) VariableNames() []string {
	var names []string
	for _, v := range strings.Split(c.Extract.Variables, ",") {
		if v = strings.TrimSpace(v); v != "" {
			names = append(names, v)
		}
	}
	return names
}

// Validate checks enum fields and numeric ranges for the active stage.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("invalid color mode %q", c.ColorMode)
	}

	switch c.Stage {
	case StageExtract:
		if c.Extract.Input == "" || c.Extract.Output == "" {
			return errors.New("need exactly input_dir and output_dir")
		}
		if c.Extract.Stride < 1 {
			return fmt.Errorf("stride must be >= 1 (got %d)", c.Extract.Stride)
		}
		if len(c.VariableNames()) == 0 {
			return errors.New("no variables selected")
		}
	case StagePoints:
		if c.Points.Input == "" || c.Points.Output == "" {
			return errors.New("need exactly input_dir and output_dir")
		}
		if c.Points.Stride < 1 {
			return fmt.Errorf("stride must be >= 1 (got %d)", c.Points.Stride)
		}
		switch c.Points.Encoding {
		case EncodingASCII, EncodingBinary, EncodingZlib:
		default:
			return fmt.Errorf("invalid encoding %q (use 'ascii', 'binary' or 'zlib')", c.Points.Encoding)
		}
	case StageRender:
		r := &c.Render
		if r.Eulerian == "" || r.Lagrangian == "" || r.Images == "" {
			return errors.New("need eulerian_dir, lagrangian_dir and image_dir")
		}
		switch r.Backend {
		case RenderParaView, RenderPlot:
		default:
			return fmt.Errorf("invalid render backend %q (use 'paraview' or 'plot')", r.Backend)
		}
		if r.Start < 0 || r.Frames < 0 {
			return errors.New("start and frames must not be negative")
		}
		if r.Width <= 0 || r.Height <= 0 {
			return fmt.Errorf("invalid view size %dx%d", r.Width, r.Height)
		}
		if r.MixingRatioMax <= r.MixingRatioMin || r.RadiusMax <= r.RadiusMin {
			return errors.New("color ranges must have max > min")
		}
		if r.Backend == RenderPlot && r.ProjectionBins < 2 {
			return fmt.Errorf("projection bins must be >= 2 (got %d)", r.ProjectionBins)
		}
	case StageVideo:
		if c.Video.Input == "" {
			return errors.New("need image_dir")
		}
		switch c.Video.Backend {
		case VideoMJPEG, VideoFFmpeg:
		default:
			return fmt.Errorf("invalid video backend %q (use 'mjpeg' or 'ffmpeg')", c.Video.Backend)
		}
		if c.Video.FPS <= 0 {
			return fmt.Errorf("fps must be > 0 (got %d)", c.Video.FPS)
		}
		if c.Video.Quality < 1 || c.Video.Quality > 100 {
			return fmt.Errorf("quality must be in 1..100 (got %d)", c.Video.Quality)
		}
	case StageInspect:
		if c.Inspect.Input == "" {
			return errors.New("need a directory to inspect")
		}
	case StageCheck, StageExample:
	default:
		return fmt.Errorf("unknown command %q", c.Stage)
	}
	return nil
}

// ValidatePaths rejects an output directory equal to its input directory.
// Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	if inputAbs == outputAbs {
		return errors.New("input and output directories must be different")
	}
	return nil
}
