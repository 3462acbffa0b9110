package video

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/probe"
)

// ErrNoFrames is returned when there is nothing to encode.
var ErrNoFrames = errors.New("no img.<N>.png frames")

// Assemble encodes frames into cfg.Video.Output with the configured backend.
func Assemble(ctx context.Context, cfg *config.Config, log *logging.Logger, frames []string) error {
	v := &cfg.Video
	switch v.Backend {
	case config.VideoMJPEG:
		return EncodeMJPEG(ctx, frames, v.Output, v.FPS, v.Quality)
	case config.VideoFFmpeg:
		return EncodeFFmpeg(ctx, cfg, log, frames, v.Output)
	}
	return fmt.Errorf("unknown video backend %q", v.Backend)
}

// Verify probes the encoded video with ffprobe and logs its resolution,
// frame count and duration. It is a no-op when ffprobe is not installed.
// A frame count more than one off want is reported as a warning.
func Verify(ctx context.Context, log *logging.Logger, path string, want int) {
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return
	}
	pr, err := probe.Probe(ctx, path)
	if err != nil {
		log.Warn("Cannot probe %s: %v", path, err)
		return
	}
	log.Info("  Video: %s | %d frames | %.1f fps | %.1fs",
		pr.Resolution(), pr.FrameCount(), pr.FrameRate(), pr.Format.Duration)
	if got := pr.FrameCount(); math.Abs(float64(got-want)) > 1 {
		log.Warn("  Expected %d frames, found %d", want, got)
	}
}
