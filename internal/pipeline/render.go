package pipeline

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/display"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/planner"
	"github.com/backmassage/cloudviz/internal/render"
)

// RunRender pairs the sorted Eulerian and Lagrangian files by position and
// renders one image per pair in [Start, Start+Frames), with the camera
// advanced by Rotation degrees per absolute file index.
func RunRender(ctx context.Context, cfg *config.Config, log *logging.Logger) RunStats {
	var stats RunStats
	rc := &cfg.Render

	eulr, err := Discover(rc.Eulerian, extNetCDF)
	if err != nil {
		log.Error("Eulerian discovery failed: %v", err)
		stats.Failed++
		return stats
	}
	lagr, err := Discover(rc.Lagrangian, extVTU)
	if err != nil {
		log.Error("Lagrangian discovery failed: %v", err)
		stats.Failed++
		return stats
	}

	sched := planner.BuildFramePlans(cfg, eulr, lagr)
	stats.Total = len(sched.Plans)
	if sched.Mismatched {
		log.Warn("Eulerian and Lagrangian file counts differ (%d vs %d); pairing by position",
			len(eulr), len(lagr))
	}
	if sched.Clamped {
		log.Warn("Requested files %d-%d but only %d pairs exist; stopping at %d",
			rc.Start, sched.Requested-1, sched.Available, sched.Stop)
	}
	if stats.Total == 0 {
		log.Warn("No frames to render")
		return stats
	}

	renderer, err := render.New(cfg, log)
	if err != nil {
		log.Error("%v", err)
		stats.Failed++
		return stats
	}

	logBatchHeader(cfg, log, &stats,
		fmt.Sprintf("Backend: %s | View: %dx%d", renderer.Name(), rc.Width, rc.Height),
		fmt.Sprintf("Files %d-%d | Rotation: %g°/file", sched.Start, sched.Stop-1, rc.Rotation),
		fmt.Sprintf("Images: %s", rc.Images))

	if !cfg.DryRun {
		if err := os.MkdirAll(rc.Images, 0o755); err != nil {
			log.Error("Cannot create image directory: %v", err)
			stats.Failed++
			return stats
		}
	}

	for i, plan := range sched.Plans {
		stats.Current = i + 1
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}
		renderFrame(ctx, cfg, log, renderer, plan, &stats)
	}

	logSummary(cfg, log, &stats, "rendered")
	return stats
}

func renderFrame(ctx context.Context, cfg *config.Config, log *logging.Logger, r render.Renderer, plan *planner.FramePlan, stats *RunStats) {
	log.Info("[%d/%d] Time Step: %d, Eulerian File: %s, Lagrangian File: %s",
		stats.Current, stats.Total, plan.Index,
		filepath.Base(plan.EulerianPath), filepath.Base(plan.LagrangianPath))
	defer blank()

	if plan.Action == planner.ActionSkip {
		log.Warn("Skip: %s", plan.SkipReason)
		stats.Skipped++
		return
	}
	log.Info("  Image File: %s", plan.ImagePath)
	log.Debug(cfg.Verbose, "  Camera (%.1f, %.1f, %.1f) at %.2f°",
		plan.Camera.X, plan.Camera.Y, plan.Camera.Z, plan.Angle*180/math.Pi)

	if cfg.DryRun {
		log.Success("[DRY] Would render")
		stats.Processed++
		return
	}

	start := time.Now()
	if err := r.Render(ctx, plan); err != nil {
		log.Error("Render failed: %v", err)
		stats.Failed++
		return
	}
	in := fileSize(plan.EulerianPath) + fileSize(plan.LagrangianPath)
	out := fileSize(plan.ImagePath)
	stats.addBytes(in, out)
	stats.Processed++
	log.Success("Rendered %s in %s (%s)", filepath.Base(plan.ImagePath),
		display.FormatDuration(time.Since(start)), display.FormatBytes(out))
}
