package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/backmassage/cloudviz/internal/config"
)

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Stderr string
	Err    error
}

// Execute builds and runs the ffmpeg command for a job, streaming each frame
// file into stdin in order. When verbose is enabled, stderr is tee'd to
// os.Stderr in real time; otherwise it is captured silently for retry
// classification.
func Execute(ctx context.Context, cfg *config.Config, job *Job, rs *RetryState) ExecResult {
	args := Build(cfg, job, rs)

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if cfg.Verbose {
		cmd.Stderr = io.MultiWriter(&stderrBuf, os.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return ExecResult{Err: err}
	}
	if err := cmd.Start(); err != nil {
		return ExecResult{Err: err}
	}

	feedErr := feed(stdin, job.Frames)
	closeErr := stdin.Close()
	waitErr := cmd.Wait()

	// A failed ffmpeg closes its stdin early, so the wait error is the one
	// worth reporting.
	err = waitErr
	if err == nil {
		err = errors.Join(feedErr, closeErr)
	}
	return ExecResult{
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}

func feed(w io.Writer, frames []string) error {
	for _, path := range frames {
		if err := copyFile(w, path); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("stream %s: %w", path, err)
	}
	return nil
}
