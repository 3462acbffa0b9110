package check

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/backmassage/cloudviz/internal/config"
)

type recLogger struct{ lines []string }

func (r *recLogger) add(level, f string, a ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(f, a...))
}
func (r *recLogger) Info(f string, a ...interface{})    { r.add("INFO", f, a...) }
func (r *recLogger) Success(f string, a ...interface{}) { r.add("OK", f, a...) }
func (r *recLogger) Warn(f string, a ...interface{})    { r.add("WARN", f, a...) }
func (r *recLogger) Error(f string, a ...interface{})   { r.add("ERROR", f, a...) }
func (r *recLogger) Debug(v bool, f string, a ...interface{}) {
	if v {
		r.add("DEBUG", f, a...)
	}
}

const sampleEncoders = `Encoders:
 V..... = Video
 ------
 V....D mjpeg                MJPEG (Motion JPEG)
 V....D mpeg4                MPEG-4 part 2
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC / MPEG-4 part 10 (codec h264)
`

func TestListsEncoder(t *testing.T) {
	assert.True(t, ListsEncoder(sampleEncoders, "mpeg4"))
	assert.True(t, ListsEncoder(sampleEncoders, "mjpeg"))
	assert.False(t, ListsEncoder(sampleEncoders, "libxvid"))
	assert.False(t, ListsEncoder(sampleEncoders, "Video"))
}

func TestEncodeTestArgs(t *testing.T) {
	cfg := config.DefaultConfig()
	args := encodeTestArgs(&cfg)
	assert.Contains(t, args, "mpeg4")
	assert.Contains(t, args, "DIVX")

	cfg.Video.Tag = ""
	assert.NotContains(t, encodeTestArgs(&cfg), "-vtag")
}

func TestCheckDeps_PureGoBackends(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Stage = config.StageRender
	cfg.Render.Backend = config.RenderPlot
	assert.NoError(t, CheckDeps(&cfg))

	cfg.Stage = config.StageVideo
	cfg.Video.Backend = config.VideoMJPEG
	assert.NoError(t, CheckDeps(&cfg))

	cfg.Stage = config.StageExtract
	assert.NoError(t, CheckDeps(&cfg))
}

func TestCheckDeps_MissingPVBatch(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Stage = config.StageRender
	cfg.Render.PVBatch = "/nonexistent/pvbatch"
	assert.ErrorIs(t, CheckDeps(&cfg), ErrPVBatchNotFound)
}

func TestCheckDeps_MissingFFmpeg(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := config.DefaultConfig()
	cfg.Stage = config.StageVideo
	cfg.Video.Backend = config.VideoFFmpeg
	assert.ErrorIs(t, CheckDeps(&cfg), ErrFfmpegNotFound)
}

func TestRunCheck_NoTools(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	cfg := config.DefaultConfig()
	log := &recLogger{}
	RunCheck(&cfg, log)
	assert.Contains(t, log.lines, "WARN pvbatch not found")
	assert.Contains(t, log.lines, "WARN ffmpeg not found")
	assert.Contains(t, log.lines, "WARN ffprobe not found")
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "ffmpeg version 6.1", firstLine("ffmpeg version 6.1\nbuilt with gcc\n"))
	assert.Equal(t, "paraview version 5.11.2", firstLine("  paraview version 5.11.2  "))
}
