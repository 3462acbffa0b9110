package pipeline

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/display"
	"github.com/backmassage/cloudviz/internal/logging"
)

// stdout receives the blank separator lines and tables between log lines.
var stdout io.Writer = os.Stdout

func blank() { fmt.Fprintln(stdout) }

// resolveDirs returns the absolute, symlink-resolved forms of in and out and
// rejects an output directory equal to the input directory. out need not
// exist yet.
func resolveDirs(cfg *config.Config, in, out string) (string, string, error) {
	inAbs, err := absPath(in)
	if err != nil {
		return "", "", fmt.Errorf("input not found: %s", in)
	}
	outAbs, err := absPath(out)
	if err != nil {
		return "", "", fmt.Errorf("cannot resolve output path: %s", out)
	}
	if err := cfg.ValidatePaths(inAbs, outAbs); err != nil {
		return "", "", err
	}
	return inAbs, outAbs, nil
}

// absPath returns the absolute path with symlinks resolved when path exists.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return abs, nil
	}
	return resolved, err
}

func fileSize(path string) int64 {
	fi, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return fi.Size()
}

// logBatchHeader logs the file count and the settings that shape the run.
func logBatchHeader(cfg *config.Config, log *logging.Logger, stats *RunStats, lines ...string) {
	log.Info("Found %d files", stats.Total)
	for _, l := range lines {
		log.Info("%s", l)
	}
	if cfg.DryRun {
		log.Info("Dry run: nothing will be written")
	}
	if !cfg.SkipExisting {
		log.Info("Existing outputs will be overwritten")
	}
	if cfg.StrictMode {
		log.Info("Retry policy: Strict mode (no auto-retry)")
	}
	blank()
}

func logSummary(cfg *config.Config, log *logging.Logger, stats *RunStats, verb string) {
	log.Info("==============================")
	log.Info("Done: %d %s, %d skipped, %d failed", stats.Processed, verb, stats.Skipped, stats.Failed)
	log.Info("Summary report:")
	log.Info("  Total files processed: %d", stats.Current)

	if cfg.DryRun {
		log.Info("  Size change: n/a (dry run)")
		return
	}
	if stats.TotalInputBytes == 0 {
		return
	}

	saved := stats.SpaceSaved()
	msg := fmt.Sprintf("  Output: %s from %s input (%s)",
		display.FormatBytes(stats.TotalOutputBytes),
		display.FormatBytes(stats.TotalInputBytes),
		display.FormatReduction(stats.TotalInputBytes, stats.TotalOutputBytes))
	if saved >= 0 {
		log.Success("%s", msg)
	} else {
		log.Warn("%s", msg)
	}
	log.Info("  Space saved: %s", display.FormatBytesWithSign(saved))
}
