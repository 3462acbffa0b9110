package ffmpeg

import (
	"strconv"

	"github.com/backmassage/cloudviz/internal/config"
)

// Job describes one video assembly: PNG frames in playback order and the
// output path.
type Job struct {
	Frames []string
	Output string
}

// Build constructs the complete ffmpeg argument slice for one attempt. The
// frames arrive on stdin as a PNG stream; rs supplies the codec, tag and
// scaling currently in effect.
func Build(cfg *config.Config, job *Job, rs *RetryState) []string {
	args := make([]string, 0, 32)

	// --- Preamble ---
	args = append(args, "ffmpeg", "-hide_banner", "-y")
	if cfg.Verbose {
		args = append(args, "-loglevel", "info")
	} else {
		args = append(args, "-loglevel", "error")
	}

	// --- Input ---
	args = append(args,
		"-f", "image2pipe",
		"-framerate", strconv.Itoa(cfg.Video.FPS),
		"-c:v", "png",
		"-i", "-",
	)

	// --- Filters ---
	if rs.EvenScale {
		args = append(args, "-vf", "scale=trunc(iw/2)*2:trunc(ih/2)*2")
	}

	// --- Video codec ---
	args = append(args, "-c:v", rs.Codec)
	if rs.Tag != "" {
		args = append(args, "-vtag", rs.Tag)
	}
	args = append(args, "-q:v", strconv.Itoa(QScale(cfg.Video.Quality)))
	if rs.Codec == FallbackCodec {
		args = append(args, "-pix_fmt", "yuvj420p")
	} else {
		args = append(args, "-pix_fmt", "yuv420p")
	}

	args = append(args, "-an", job.Output)
	return args
}

// QScale maps a 1-100 quality to ffmpeg's 2-31 qscale, where lower is
// better.
func QScale(quality int) int {
	quality = max(1, min(100, quality))
	return 2 + (100-quality)*29/99
}
