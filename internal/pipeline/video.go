package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/display"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/video"
)

// maxListed caps how many gap indices and ignored names are logged.
const maxListed = 10

// RunVideo assembles the img.<N>.png frames of cfg.Video.Input, in numeric
// order, into one AVI.
func RunVideo(ctx context.Context, cfg *config.Config, log *logging.Logger) RunStats {
	var stats RunStats
	vc := &cfg.Video
	if vc.Output == "" {
		vc.Output = filepath.Join(vc.Input, config.DefaultOutputVideo)
	}

	frames, err := video.CollectFrames(vc.Input)
	if err != nil {
		log.Error("Frame discovery failed: %v", err)
		stats.Failed++
		return stats
	}
	stats.Total = 1
	stats.Current = 1
	if n := len(frames.Ignored); n > 0 {
		log.Warn("Ignoring %d PNG files not named img.<N>.png: %s", n, listed(frames.Ignored))
	}
	if n := len(frames.Gaps); n > 0 {
		gaps := make([]string, len(frames.Gaps))
		for i, g := range frames.Gaps {
			gaps[i] = strconv.Itoa(g)
		}
		log.Warn("%d missing frame indices: %s", n, listed(gaps))
	}
	if frames.Len() == 0 {
		log.Warn("No frames found in %s", vc.Input)
		stats.Total = 0
		return stats
	}

	log.Info("Found %d frames (img.%d.png - img.%d.png)",
		frames.Len(), frames.Indices[0], frames.Indices[frames.Len()-1])
	log.Info("Backend: %s | %d fps | %s", vc.Backend, vc.FPS, display.FormatDuration(
		time.Duration(float64(frames.Len())/float64(vc.FPS)*float64(time.Second))))
	log.Info("Output: %s", vc.Output)
	blank()

	if cfg.SkipExisting && fileSize(vc.Output) > 0 {
		log.Warn("Skip: %s exists", filepath.Base(vc.Output))
		stats.Skipped++
		return stats
	}
	if cfg.DryRun {
		log.Success("[DRY] Would encode %d frames", frames.Len())
		stats.Processed++
		logSummary(cfg, log, &stats, "encoded")
		return stats
	}
	if ctx.Err() != nil {
		log.Warn("Interrupted")
		return stats
	}

	start := time.Now()
	if err := video.Assemble(ctx, cfg, log, frames.Paths); err != nil {
		log.Error("Encode failed: %v", err)
		os.Remove(vc.Output)
		stats.Failed++
		return stats
	}

	var in int64
	for _, p := range frames.Paths {
		in += fileSize(p)
	}
	stats.addBytes(in, fileSize(vc.Output))
	stats.Processed++
	log.Success("Encoded %d frames in %s", frames.Len(), display.FormatDuration(time.Since(start)))
	video.Verify(ctx, log, vc.Output, frames.Len())
	logSummary(cfg, log, &stats, "encoded")
	return stats
}

func listed(items []string) string {
	if len(items) <= maxListed {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:maxListed], ", ") + fmt.Sprintf(", … (%d more)", len(items)-maxListed)
}
