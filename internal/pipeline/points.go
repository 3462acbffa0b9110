package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/naming"
	"github.com/backmassage/cloudviz/internal/particle"
	"github.com/backmassage/cloudviz/internal/planner"
	"github.com/backmassage/cloudviz/internal/vtk"
)

// RunPoints converts every particle text dump of cfg.Points.Input into a
// .vtu point cloud. With a stride above 1 the output directory gains a
// _stride_<n> suffix. The column count of the first dump is used for every
// file.
func RunPoints(ctx context.Context, cfg *config.Config, log *logging.Logger) RunStats {
	var stats RunStats
	pc := &cfg.Points

	in, out, err := resolveDirs(cfg, pc.Input, naming.StrideDir(pc.Output, pc.Stride))
	if err != nil {
		log.Error("%v", err)
		stats.Failed++
		return stats
	}
	enc, err := vtk.ParseEncoding(pc.Encoding)
	if err != nil {
		log.Error("%v", err)
		stats.Failed++
		return stats
	}
	files, err := Discover(in, extText)
	if err != nil {
		log.Error("File discovery failed: %v", err)
		stats.Failed++
		return stats
	}
	stats.Total = len(files)
	if stats.Total == 0 {
		log.Warn("No %s files found in %s", extText, in)
		return stats
	}

	ncols, err := particle.CountColumns(files[0])
	if err != nil {
		log.Error("Cannot read %s: %v", filepath.Base(files[0]), err)
		stats.Failed++
		return stats
	}
	if ncols == 0 {
		log.Warn("%s is empty; cannot determine the column count", filepath.Base(files[0]))
		return stats
	}

	logBatchHeader(cfg, log, &stats,
		fmt.Sprintf("Columns: %d | Stride: %d | Encoding: %s", ncols, pc.Stride, enc),
		fmt.Sprintf("Scale: position x%g, radius x%g", pc.PositionScale, pc.RadiusScale),
		fmt.Sprintf("Output: %s", out))

	if !cfg.DryRun {
		if err := os.MkdirAll(out, 0o755); err != nil {
			log.Error("Cannot create output directory: %v", err)
			stats.Failed++
			return stats
		}
	}

	for i, path := range files {
		stats.Current = i + 1
		if ctx.Err() != nil {
			log.Warn("Interrupted")
			break
		}
		plan := planner.BuildFilePlan(cfg, path, naming.OutputPath(out, path, vtk.Ext))
		convertFile(cfg, log, plan, ncols, enc, &stats)
	}

	logSummary(cfg, log, &stats, "converted")
	return stats
}

func convertFile(cfg *config.Config, log *logging.Logger, plan *planner.FilePlan, ncols int, enc vtk.Encoding, stats *RunStats) {
	pc := &cfg.Points
	log.Info("[%d/%d] %s", stats.Current, stats.Total, filepath.Base(plan.InputPath))
	defer blank()

	if plan.Action == planner.ActionSkip {
		log.Warn("Skip: %s", plan.SkipReason)
		stats.Skipped++
		return
	}
	log.Info("  -> %s", filepath.Base(plan.OutputPath))
	if cfg.DryRun {
		log.Success("[DRY] Would convert")
		stats.Processed++
		return
	}

	rs, err := particle.ReadText(plan.InputPath, ncols)
	if err != nil {
		log.Error("Read failed: %v", err)
		stats.Failed++
		return
	}
	rs = particle.Subsample(rs, pc.Stride)
	if len(rs) == 0 {
		log.Warn("no data in range in %s", plan.OutputPath)
		stats.Skipped++
		return
	}
	particle.Scale(rs, float32(pc.PositionScale), float32(pc.RadiusScale))

	if err := vtk.WritePoints(plan.OutputPath, Cloud(rs), enc); err != nil {
		log.Error("Write failed: %v", err)
		stats.Failed++
		return
	}

	mean, std := particle.RadiusStats(rs)
	stats.addBytes(fileSize(plan.InputPath), fileSize(plan.OutputPath))
	stats.Processed++
	log.Success("Wrote %d particles (radius %.2f ± %.2f μm)", len(rs), mean, std)
}

// Cloud converts particle records into a point cloud with radius and ID
// point arrays.
func Cloud(rs []particle.Record) *vtk.Cloud {
	c := &vtk.Cloud{
		X: make([]float32, len(rs)),
		Y: make([]float32, len(rs)),
		Z: make([]float32, len(rs)),
	}
	radius := make([]float32, len(rs))
	ids := make([]float32, len(rs))
	for i, r := range rs {
		c.X[i], c.Y[i], c.Z[i] = r.X, r.Y, r.Z
		radius[i], ids[i] = r.Radius, r.ID
	}
	c.Arrays = []vtk.Array{{Name: "radius", Values: radius}, {Name: "ID", Values: ids}}
	return c
}
