// Package check provides system diagnostics (the check subcommand) and
// pre-stage dependency validation (CheckDeps) for pvbatch, ffmpeg and
// ffprobe.
package check

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/backmassage/cloudviz/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool or encoder is missing.
var (
	ErrPVBatchNotFound = errors.New("pvbatch not found (set -pvbatch or use -backend plot)")
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH (use -backend mjpeg)")
	ErrEncoderFailed   = errors.New("ffmpeg test encode with the configured codec failed")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck prints the availability and version of each external tool and
// whether the configured ffmpeg codec works. It is informational only and
// does not stop on failure.
func RunCheck(cfg *config.Config, log Logger) {
	log.Info("=== System Check ===")
	log.Success("Built in: NetCDF read/write, VTU encode, plot renderer, mjpeg video")

	checkTool(log, cfg.Render.PVBatch, "--version")
	if checkTool(log, "ffmpeg", "-version") {
		checkEncoder(cfg, log)
	}
	if checkTool(log, "ffprobe", "-version") {
		log.Debug(cfg.Verbose, "Encoded videos will be verified with ffprobe")
	} else {
		log.Info("Encoded videos will not be verified")
	}
}

// checkTool verifies name is runnable and logs the first line of its version
// output.
func checkTool(log Logger, name, versionFlag string) bool {
	if _, err := exec.LookPath(name); err != nil {
		log.Warn("%s not found", name)
		return false
	}
	out, err := exec.Command(name, versionFlag).CombinedOutput()
	if err != nil {
		log.Warn("%s found but %s failed: %v", name, versionFlag, err)
		return true
	}
	log.Success("%s: %s", name, firstLine(string(out)))
	return true
}

// checkEncoder reports whether the configured codec is listed by ffmpeg and
// passes a short test encode.
func checkEncoder(cfg *config.Config, log Logger) {
	codec := cfg.Video.Codec
	out, err := exec.Command("ffmpeg", "-hide_banner", "-encoders").Output()
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		return
	}
	if !ListsEncoder(string(out), codec) {
		log.Error("ffmpeg has no %s encoder", codec)
		return
	}
	if runSilent("ffmpeg", encodeTestArgs(cfg)...) {
		log.Success("ffmpeg %s (%s) test encode works", codec, cfg.Video.Tag)
	} else {
		log.Error("ffmpeg %s test encode failed", codec)
	}
}

// CheckDeps is the pre-stage validation: it verifies that the tool behind
// the selected backend is present. Pure-Go backends need nothing. In strict
// mode the ffmpeg codec must also pass a test encode, since the codec
// fallback is disabled. Returns a sentinel error on failure.
func CheckDeps(cfg *config.Config) error {
	switch cfg.Stage {
	case config.StageRender:
		if cfg.Render.Backend != config.RenderParaView {
			return nil
		}
		if _, err := exec.LookPath(cfg.Render.PVBatch); err != nil {
			return ErrPVBatchNotFound
		}
	case config.StageVideo:
		if cfg.Video.Backend != config.VideoFFmpeg {
			return nil
		}
		if _, err := exec.LookPath("ffmpeg"); err != nil {
			return ErrFfmpegNotFound
		}
		if cfg.StrictMode && !runSilent("ffmpeg", encodeTestArgs(cfg)...) {
			return ErrEncoderFailed
		}
	}
	return nil
}

// ListsEncoder reports whether `ffmpeg -encoders` output contains codec as
// an encoder name.
func ListsEncoder(encoders, codec string) bool {
	for _, line := range strings.Split(encoders, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == codec {
			return true
		}
	}
	return false
}

// --- internal helpers ---

// encodeTestArgs returns the ffmpeg arguments for a minimal test encode with
// the configured codec and tag.
func encodeTestArgs(cfg *config.Config) []string {
	args := []string{
		"-hide_banner", "-nostdin", "-loglevel", "error",
		"-f", "lavfi", "-i", "color=black:s=256x256:d=0.2",
		"-c:v", cfg.Video.Codec,
	}
	if cfg.Video.Tag != "" {
		args = append(args, "-vtag", cfg.Video.Tag)
	}
	return append(args, "-f", "avi", "-y", nullDevice)
}

const nullDevice = "/dev/null"

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.Index(s, "\n"); idx > 0 {
		s = s[:idx]
	}
	return s
}

// runSilent runs a command and returns true if it exits with status 0.
// Both stdout and stderr are discarded.
func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}
