package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDirArg(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no trailing slash", "/data/eulr", "/data/eulr"},
		{"single trailing slash", "/data/eulr/", "/data/eulr"},
		{"multiple trailing slashes", "/data/eulr///", "/data/eulr"},
		{"root path", "/", "/"},
		{"relative with slash", "images/", "images"},
		{"empty string", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeDirArg(tt.in); got != tt.want {
				t.Errorf("NormalizeDirArg(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 2, cfg.Extract.Stride)
	assert.Equal(t, []string{"mixing_ratio"}, cfg.VariableNames())
	assert.Equal(t, 1, cfg.Points.Stride)
	assert.Equal(t, 80, cfg.Render.Frames)
	assert.Equal(t, 1.0, cfg.Render.Rotation)
	assert.Equal(t, [3]float64{-1000, 1300, 3000}, [3]float64{cfg.Render.CameraX, cfg.Render.CameraY, cfg.Render.CameraZ})
	assert.Equal(t, [3]float64{512, 400, 512}, [3]float64{cfg.Render.FocalX, cfg.Render.FocalY, cfg.Render.FocalZ})
	assert.Equal(t, 2555, cfg.Render.Width)
	assert.Equal(t, 1376, cfg.Render.Height)
	assert.Equal(t, 5, cfg.Video.FPS)
	assert.True(t, cfg.SkipExisting)
}

func TestVariableNames(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Extract.Variables = " mixing_ratio, ,temperature,"
	assert.Equal(t, []string{"mixing_ratio", "temperature"}, cfg.VariableNames())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"extract ok", func(c *Config) {
			c.Stage, c.Extract.Input, c.Extract.Output = StageExtract, "a", "b"
		}, false},
		{"extract zero stride", func(c *Config) {
			c.Stage, c.Extract.Input, c.Extract.Output = StageExtract, "a", "b"
			c.Extract.Stride = 0
		}, true},
		{"extract missing output", func(c *Config) {
			c.Stage, c.Extract.Input = StageExtract, "a"
		}, true},
		{"extract no variables", func(c *Config) {
			c.Stage, c.Extract.Input, c.Extract.Output = StageExtract, "a", "b"
			c.Extract.Variables = ","
		}, true},
		{"points bad encoding", func(c *Config) {
			c.Stage, c.Points.Input, c.Points.Output = StagePoints, "a", "b"
			c.Points.Encoding = "base85"
		}, true},
		{"render ok", func(c *Config) {
			c.Stage = StageRender
			c.Render.Eulerian, c.Render.Lagrangian, c.Render.Images = "e", "l", "i"
		}, false},
		{"render bad backend", func(c *Config) {
			c.Stage = StageRender
			c.Render.Eulerian, c.Render.Lagrangian, c.Render.Images = "e", "l", "i"
			c.Render.Backend = "blender"
		}, true},
		{"render inverted range", func(c *Config) {
			c.Stage = StageRender
			c.Render.Eulerian, c.Render.Lagrangian, c.Render.Images = "e", "l", "i"
			c.Render.RadiusMax = -1
		}, true},
		{"video zero fps", func(c *Config) {
			c.Stage, c.Video.Input = StageVideo, "i"
			c.Video.FPS = 0
		}, true},
		{"check needs nothing", func(c *Config) { c.Stage = StageCheck }, false},
		{"unknown stage", func(c *Config) { c.Stage = "mesh" }, true},
		{"bad color mode", func(c *Config) {
			c.Stage = StageCheck
			c.ColorMode = "sometimes"
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidatePaths(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.ValidatePaths("/data/lagr", "/data/lagr"))
	assert.NoError(t, cfg.ValidatePaths("/data/lagr", "/data/lagr/vtk"))
	assert.NoError(t, cfg.ValidatePaths("/data/lagr", "/data/lagr_stride_4"))
}

func TestParseArgs_Positionals(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ParseArgs(&cfg, []string{"points", "-n", "4", "txt/", "vtk/", "-encoding", "zlib", "-f"}))
	assert.Equal(t, StagePoints, cfg.Stage)
	assert.Equal(t, "txt", cfg.Points.Input)
	assert.Equal(t, "vtk", cfg.Points.Output)
	assert.Equal(t, 4, cfg.Points.Stride)
	assert.Equal(t, EncodingZlib, cfg.Points.Encoding)
	assert.False(t, cfg.SkipExisting)
}

func TestParseArgs_Render(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, ParseArgs(&cfg, []string{
		"render", "-backend", "plot", "-start", "10", "-frames", "5", "-rotation", "0",
		"eulr", "lagr", "img",
	}))
	assert.Equal(t, RenderPlot, cfg.Render.Backend)
	assert.Equal(t, 10, cfg.Render.Start)
	assert.Equal(t, 5, cfg.Render.Frames)
	assert.Zero(t, cfg.Render.Rotation)
	assert.Equal(t, "img", cfg.Render.Images)
}

func TestParseArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"mesh"}},
		{"extract one dir", []string{"extract", "in"}},
		{"render two dirs", []string{"render", "e", "l"}},
		{"bad backend", []string{"video", "-backend", "gif", "img"}},
		{"unknown flag", []string{"check", "-bogus"}},
		{"check with args", []string{"check", "now"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			assert.Error(t, ParseArgs(&cfg, tt.args))
		})
	}
}

func TestParseArgs_HelpAndVersion(t *testing.T) {
	cfg := DefaultConfig()
	assert.True(t, errors.Is(ParseArgs(&cfg, []string{"extract", "-h"}), flag.ErrHelp))
	assert.True(t, errors.Is(ParseArgs(&cfg, []string{"--version"}), ErrVersion))
}

func TestParseArgs_ConfigFilePrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cloudviz.ini")
	body := "[Render]\nBackend = plot\nFrames = 12\nEulerian = /data/eulr/\nLagrangian = /data/lagr\nImages = /data/img\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg := DefaultConfig()
	require.NoError(t, ParseArgs(&cfg, []string{"render", "-config", path, "-frames", "3"}))
	assert.Equal(t, RenderPlot, cfg.Render.Backend, "file overrides default")
	assert.Equal(t, 3, cfg.Render.Frames, "flag overrides file")
	assert.Equal(t, "/data/eulr", cfg.Render.Eulerian)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFile_UnknownVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.ini")
	require.NoError(t, os.WriteFile(path, []byte("[Extract]\nStrid = 3\n"), 0o644))
	cfg := DefaultConfig()
	assert.Error(t, LoadFile(&cfg, path))
}

func TestExampleConfig_MatchesDefaults(t *testing.T) {
	text, err := ExampleConfig("")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "example.ini")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))

	var cfg Config
	require.NoError(t, LoadFile(&cfg, path))
	def := DefaultConfig()
	assert.Equal(t, def.Extract, cfg.Extract)
	assert.Equal(t, def.Points, cfg.Points)
	assert.Equal(t, def.Render, cfg.Render)
	assert.Equal(t, def.Video, cfg.Video)

	_, err = ExampleConfig(StageCheck)
	assert.Error(t, err)
}
