package video

import (
	"context"
	"errors"
	"os"
	"strings"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/ffmpeg"
	"github.com/backmassage/cloudviz/internal/logging"
)

// ErrEncodeFailed is returned when ffmpeg fails with no applicable retry.
var ErrEncodeFailed = errors.New("ffmpeg encode failed")

// EncodeFFmpeg pipes frames through ffmpeg, classifying stderr on failure
// and retrying with one fix per attempt.
func EncodeFFmpeg(ctx context.Context, cfg *config.Config, log *logging.Logger, frames []string, out string) error {
	if len(frames) == 0 {
		return ErrNoFrames
	}
	job := &ffmpeg.Job{Frames: frames, Output: out}
	rs := ffmpeg.NewRetryState(cfg)

	for {
		result := ffmpeg.Execute(ctx, cfg, job, rs)
		if result.Err == nil {
			return nil
		}
		os.Remove(out)

		// Stop retrying if the context has been cancelled (e.g. SIGINT).
		if err := ctx.Err(); err != nil {
			log.Warn("Interrupted, aborting retries")
			return err
		}

		if cfg.StrictMode {
			log.Error("ffmpeg failed (strict mode, no retry)")
			logStderr(log, result.Stderr)
			return ErrEncodeFailed
		}

		action := rs.Advance(result.Stderr)
		if action == ffmpeg.RetryNone {
			log.Error("ffmpeg failed (no applicable retry)")
			logStderr(log, result.Stderr)
			return ErrEncodeFailed
		}
		log.Warn("Retry %d: %s", rs.Attempt, action)
	}
}

func logStderr(log *logging.Logger, stderr string) {
	if stderr == "" {
		return
	}
	log.Error("Last ffmpeg output:")
	lines := strings.Split(strings.TrimSpace(stderr), "\n")
	start := 0
	if len(lines) > 20 {
		start = len(lines) - 20
	}
	for _, l := range lines[start:] {
		log.Error("  %s", l)
	}
}
