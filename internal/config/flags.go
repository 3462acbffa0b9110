package config

// This file implements subcommand selection, CLI flag parsing and help text.
// Every subcommand shares the common flags; stage flags are registered only
// for their own stage. A -config file is loaded between two parses of the
// same arguments so that explicit flags override file values.

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
)

// version is shown by -version and in help; override at build time with -ldflags "-X ...config.version=...".
var version = "0.4.0-dev"

// Version returns the build version string.
func Version() string { return version }

// ErrVersion is returned by [ParseArgs] after the version has been printed.
var ErrVersion = errors.New("version requested")

// ParseArgs parses os.Args[1:]-style arguments into cfg. The first argument
// selects the stage. On -help it prints usage and returns [flag.ErrHelp]; on
// -version it prints the version and returns [ErrVersion].
func ParseArgs(cfg *Config, args []string) error {
	if len(args) == 0 {
		printUsage(os.Stderr)
		return errors.New("no command given")
	}
	switch args[0] {
	case "-h", "-help", "--help", "help":
		printUsage(os.Stderr)
		return flag.ErrHelp
	case "-V", "-version", "--version", "version":
		fmt.Fprintln(os.Stdout, "cloudviz v"+version)
		return ErrVersion
	}

	cfg.Stage = Stage(args[0])
	fs := flag.NewFlagSet("cloudviz "+args[0], flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var negated negatedFlags
	defineCommonFlags(fs, cfg, &negated)
	switch cfg.Stage {
	case StageExtract:
		defineExtractFlags(fs, cfg)
	case StagePoints:
		definePointsFlags(fs, cfg)
	case StageRender:
		defineRenderFlags(fs, cfg)
	case StageVideo:
		defineVideoFlags(fs, cfg)
	case StageInspect, StageCheck, StageExample:
	default:
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}

	rest := args[1:]
	positional, err := parseInterspersed(fs, rest)
	if err != nil {
		return err
	}
	if negated.showHelp {
		printUsage(os.Stderr)
		return flag.ErrHelp
	}
	if cfg.ConfigFile != "" {
		if err := LoadFile(cfg, cfg.ConfigFile); err != nil {
			return err
		}
		// Second pass: explicit flags win over the file.
		if positional, err = parseInterspersed(fs, rest); err != nil {
			return err
		}
	}

	applyNegatedFlags(cfg, &negated)
	return parsePositionalArgs(cfg, positional)
}

// parseInterspersed parses flags that may appear before, between or after
// positional arguments and returns the positionals in order.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

// negatedFlags holds boolean flags that are applied after Parse.
type negatedFlags struct {
	force      bool
	forceColor bool
	noColor    bool
	showHelp   bool
}

// defineCommonFlags registers the flags shared by every stage.
func defineCommonFlags(fs *flag.FlagSet, cfg *Config, n *negatedFlags) {
	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "INI-style config file")
	fs.BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "Preview only; write nothing")
	fs.BoolVar(&cfg.DryRun, "d", cfg.DryRun, "Same as -dry-run")
	fs.BoolVar(&n.force, "force", false, "Overwrite existing outputs")
	fs.BoolVar(&n.force, "f", false, "Same as -force")
	fs.BoolVar(&cfg.StrictMode, "strict", cfg.StrictMode, "Disable retry fallbacks")
	fs.BoolVar(&n.forceColor, "color", false, "Force colored logs")
	fs.BoolVar(&n.noColor, "no-color", false, "Disable colored logs")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Verbose output")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Same as -verbose")
	fs.StringVar(&cfg.LogFile, "log", cfg.LogFile, "Append logs to file")
	fs.StringVar(&cfg.LogFile, "l", cfg.LogFile, "Same as -log")
	fs.BoolVar(&n.showHelp, "help", false, "Show help and exit")
	fs.BoolVar(&n.showHelp, "h", false, "Same as -help")
}

func defineExtractFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Extract.Stride, "stride", cfg.Extract.Stride, "Subsampling stride along each axis")
	fs.StringVar(&cfg.Extract.Variables, "var", cfg.Extract.Variables, "Comma-separated variables to keep")
}

func definePointsFlags(fs *flag.FlagSet, cfg *Config) {
	fs.IntVar(&cfg.Points.Stride, "stride", cfg.Points.Stride, "Keep every n-th particle")
	fs.IntVar(&cfg.Points.Stride, "n", cfg.Points.Stride, "Same as -stride")
	fs.Var(&choiceValue{&cfg.Points.Encoding, []string{EncodingASCII, EncodingBinary, EncodingZlib}}, "encoding", "VTU data encoding")
	fs.Float64Var(&cfg.Points.PositionScale, "position-scale", cfg.Points.PositionScale, "Multiplier for x, y, z")
	fs.Float64Var(&cfg.Points.RadiusScale, "radius-scale", cfg.Points.RadiusScale, "Multiplier for radius")
}

func defineRenderFlags(fs *flag.FlagSet, cfg *Config) {
	r := &cfg.Render
	fs.Var(&choiceValue{&r.Backend, []string{RenderParaView, RenderPlot}}, "backend", "Renderer backend")
	fs.IntVar(&r.Start, "start", r.Start, "First file index")
	fs.IntVar(&r.Frames, "frames", r.Frames, "Number of files to render")
	fs.BoolVar(&r.Overwrite, "overwrite", r.Overwrite, "Re-render existing images")
	fs.Float64Var(&r.Rotation, "rotation", r.Rotation, "Camera rotation in degrees per frame (0 disables)")
	fs.IntVar(&r.Width, "width", r.Width, "Image width")
	fs.IntVar(&r.Height, "height", r.Height, "Image height")
	fs.StringVar(&r.Variable, "var", r.Variable, "Field variable to color by")
	fs.StringVar(&r.PresetsFile, "presets", r.PresetsFile, "ParaView color-map presets file")
	fs.StringVar(&r.PVBatch, "pvbatch", r.PVBatch, "pvbatch binary")
	fs.IntVar(&r.ProjectionBins, "bins", r.ProjectionBins, "Projection raster resolution (plot backend)")
	fs.Float64Var(&r.MixingRatioMax, "mr-max", r.MixingRatioMax, "Upper bound of the mixing-ratio color range")
	fs.Float64Var(&r.RadiusMax, "radius-max", r.RadiusMax, "Upper bound of the radius color range")
}

func defineVideoFlags(fs *flag.FlagSet, cfg *Config) {
	v := &cfg.Video
	fs.Var(&choiceValue{&v.Backend, []string{VideoMJPEG, VideoFFmpeg}}, "backend", "Video backend")
	fs.IntVar(&v.FPS, "fps", v.FPS, "Frames per second")
	fs.IntVar(&v.Quality, "quality", v.Quality, "JPEG quality (mjpeg backend)")
	fs.StringVar(&v.Codec, "codec", v.Codec, "Video codec (ffmpeg backend)")
	fs.StringVar(&v.Output, "o", v.Output, "Output video path")
}

// applyNegatedFlags copies negated and override flag values into cfg.
func applyNegatedFlags(cfg *Config, n *negatedFlags) {
	if n.force {
		cfg.SkipExisting = false
	}
	if n.noColor {
		cfg.ColorMode = ColorNever
	} else if n.forceColor {
		cfg.ColorMode = ColorAlways
	}
}

// parsePositionalArgs assigns positional arguments per stage. An empty
// positional list keeps whatever the config file provided.
func parsePositionalArgs(cfg *Config, args []string) error {
	switch cfg.Stage {
	case StageExtract:
		switch len(args) {
		case 0:
		case 2:
			cfg.Extract.Input, cfg.Extract.Output = NormalizeDirArg(args[0]), NormalizeDirArg(args[1])
		default:
			return errors.New("need exactly input_dir and output_dir")
		}
	case StagePoints:
		switch len(args) {
		case 0:
		case 2:
			cfg.Points.Input, cfg.Points.Output = NormalizeDirArg(args[0]), NormalizeDirArg(args[1])
		default:
			return errors.New("need exactly input_dir and output_dir")
		}
	case StageRender:
		switch len(args) {
		case 0:
		case 3:
			cfg.Render.Eulerian = NormalizeDirArg(args[0])
			cfg.Render.Lagrangian = NormalizeDirArg(args[1])
			cfg.Render.Images = NormalizeDirArg(args[2])
		default:
			return errors.New("need eulerian_dir, lagrangian_dir and image_dir")
		}
	case StageVideo:
		if len(args) > 2 {
			return errors.New("need image_dir and an optional output file")
		}
		if len(args) > 0 {
			cfg.Video.Input = NormalizeDirArg(args[0])
		}
		if len(args) > 1 {
			cfg.Video.Output = args[1]
		}
	case StageInspect:
		if len(args) < 1 || len(args) > 2 {
			return errors.New("need a directory and an optional lagrangian directory")
		}
		cfg.Inspect.Input = NormalizeDirArg(args[0])
		if len(args) == 2 {
			cfg.Inspect.Lagrangian = NormalizeDirArg(args[1])
		}
	case StageExample:
		if len(args) > 1 {
			return errors.New("example-config takes at most one stage name")
		}
		if len(args) == 1 {
			cfg.ExampleFor = Stage(args[0])
		}
	case StageCheck:
		if len(args) != 0 {
			return errors.New("check takes no arguments")
		}
	}
	return nil
}

// printUsage writes the help text. Column-aligned for readability.
func printUsage(w io.Writer) {
	const col1 = 30
	lines := []struct {
		flags string
		desc  string
	}{
		{"", "cloudviz v" + version + " - cloud droplet DNS post-processing"},
		{"", ""},
		{"  cloudviz <command> [OPTIONS] <args>", ""},
		{"", ""},
		{"Commands", ""},
		{"  extract <in_dir> <out_dir>", "Down-sample NetCDF fields"},
		{"  points <in_dir> <out_dir>", "Convert particle text to VTU point clouds"},
		{"  render <eulr> <lagr> <img>", "Render one PNG per time step"},
		{"  video <img_dir> [out]", "Assemble img.<N>.png frames into a video"},
		{"  inspect <dir> [lagr_dir]", "Summarize a data directory"},
		{"  check", "Report external tool availability"},
		{"  example-config [command]", "Print an example config file"},
		{"", ""},
		{"Common", ""},
		{"  -config <path>", "INI config file (flags override it)"},
		{"  -f, -force", "Overwrite existing outputs"},
		{"  -d, -dry-run", "Preview only; write nothing"},
		{"  -strict", "Disable retry fallbacks"},
		{"  -color, -no-color", "Force or disable colored logs"},
		{"  -v, -verbose", "Verbose output"},
		{"  -l, -log <path>", "Append logs to file"},
		{"", ""},
		{"extract", ""},
		{"  -stride <n>", "Stride along z, y and x (default: 2)"},
		{"  -var <names>", "Variables to keep (default: mixing_ratio)"},
		{"", ""},
		{"points", ""},
		{"  -n, -stride <n>", "Keep every n-th particle (default: 1)"},
		{"  -encoding <ascii|binary|zlib>", "VTU data encoding (default: binary)"},
		{"  -position-scale <f>", "Position multiplier (default: 10)"},
		{"  -radius-scale <f>", "Radius multiplier (default: 10000)"},
		{"", ""},
		{"render", ""},
		{"  -backend <paraview|plot>", "Renderer (default: paraview)"},
		{"  -start <n>, -frames <n>", "File range (default: 0, 80)"},
		{"  -overwrite", "Re-render existing images"},
		{"  -rotation <deg>", "Degrees per frame, 0 disables (default: 1)"},
		{"  -width <px>, -height <px>", "View size (default: 2555x1376)"},
		{"  -presets <path>", "Import ParaView color-map presets"},
		{"  -pvbatch <path>", "pvbatch binary (default: pvbatch)"},
		{"  -bins <n>", "Projection resolution, plot backend (default: 256)"},
		{"", ""},
		{"video", ""},
		{"  -backend <mjpeg|ffmpeg>", "Encoder (default: mjpeg)"},
		{"  -fps <n>", "Frames per second (default: 5)"},
		{"  -quality <1-100>", "JPEG quality, mjpeg backend (default: 90)"},
		{"  -codec <name>", "ffmpeg codec (default: mpeg4)"},
		{"  -o <path>", "Output file (default: <img_dir>/" + DefaultOutputVideo + ")"},
	}

	for _, l := range lines {
		if l.flags == "" && l.desc == "" {
			fmt.Fprintln(w)
			continue
		}
		if l.desc == "" {
			fmt.Fprintln(w, l.flags)
			continue
		}
		if l.flags == "" {
			fmt.Fprintln(w, l.desc)
			continue
		}
		padding := col1 - len(l.flags)
		if padding < 1 {
			padding = 1
		}
		fmt.Fprintf(w, "%s%*s%s\n", l.flags, padding, "", l.desc)
	}
}

// choiceValue is a flag.Value restricted to a fixed set of lower-case names.
type choiceValue struct {
	p       *string
	choices []string
}

func (c *choiceValue) String() string {
	if c.p == nil {
		return ""
	}
	return *c.p
}

func (c *choiceValue) Set(s string) error {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, ch := range c.choices {
		if s == ch {
			*c.p = s
			return nil
		}
	}
	return fmt.Errorf("invalid value %q (use %s)", s, strings.Join(c.choices, " | "))
}
