package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/display"
	"github.com/backmassage/cloudviz/internal/field"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/naming"
	"github.com/backmassage/cloudviz/internal/planner"
)

// RunExtract down-samples every NetCDF file of cfg.Extract.Input into
// cfg.Extract.Output under the same name, keeping every Stride-th grid
// point of the selected variables.
func RunExtract(ctx context.Context, cfg *config.Config, log *logging.Logger) RunStats {
	var stats RunStats
	ec := &cfg.Extract

	in, out, err := resolveDirs(cfg, ec.Input, ec.Output)
	if err != nil {
		log.Error("%v", err)
		stats.Failed++
		return stats
	}
	files, err := Discover(in, extNetCDF)
	if err != nil {
		log.Error("File discovery failed: %v", err)
		stats.Failed++
		return stats
	}
	stats.Total = len(files)
	if stats.Total == 0 {
		log.Warn("No %s files found in %s", extNetCDF, in)
		return stats
	}

	logBatchHeader(cfg, log, &stats,
		fmt.Sprintf("Variables: %s", strings.Join(cfg.VariableNames(), ", ")),
		fmt.Sprintf("Stride: %d", ec.Stride),
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
		extractFile(cfg, log, planner.BuildFilePlan(cfg, path, naming.OutputPath(out, path, "")), &stats)
	}

	logSummary(cfg, log, &stats, "extracted")
	return stats
}

func extractFile(cfg *config.Config, log *logging.Logger, plan *planner.FilePlan, stats *RunStats) {
	log.Info("[%d/%d] %s", stats.Current, stats.Total, filepath.Base(plan.InputPath))
	defer blank()

	if plan.Action == planner.ActionSkip {
		log.Warn("Skip: %s", plan.SkipReason)
		stats.Skipped++
		return
	}
	if cfg.DryRun {
		log.Success("[DRY] Would write %s", plan.OutputPath)
		stats.Processed++
		return
	}

	start := time.Now()
	f, err := field.Read(plan.InputPath, cfg.VariableNames())
	if err != nil {
		log.Error("Read failed: %v", err)
		stats.Failed++
		return
	}
	sub, err := f.Subsample(cfg.Extract.Stride)
	if err != nil {
		log.Error("Subsample failed: %v", err)
		stats.Failed++
		return
	}
	for _, v := range sub.Vars {
		s := v.Stats()
		log.Render("  %s %v float64 | min %.4g | max %.4g | mean %.4g", v.Name, v.Data.Shape, s.Min, s.Max, s.Mean)
	}

	if err := field.Write(plan.OutputPath, sub); err != nil {
		log.Error("Write failed: %v", err)
		os.Remove(plan.OutputPath)
		stats.Failed++
		return
	}

	inSize, outSize := fileSize(plan.InputPath), fileSize(plan.OutputPath)
	stats.addBytes(inSize, outSize)
	stats.Processed++
	log.Success("Extracted %v -> %v in %s (%s)", f.Shape(), sub.Shape(),
		display.FormatDuration(time.Since(start)), display.FormatReduction(inSize, outSize))
}
