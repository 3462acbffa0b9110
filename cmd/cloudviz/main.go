// Command cloudviz runs the cloud-microphysics visualization stages:
// NetCDF down-sampling, particle text to VTU, frame rendering and video
// assembly. Each stage is a subcommand; see "cloudviz help".
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/backmassage/cloudviz/internal/check"
	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/display"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Phase 1: bootstrap. No logger yet, errors go straight to stderr.
	cfg := config.DefaultConfig()
	if err := config.ParseArgs(&cfg, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) || errors.Is(err, config.ErrVersion) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "cloudviz: %v\n", err)
		return 1
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "cloudviz: %v\n", err)
		return 1
	}

	if cfg.Stage == config.StageExample {
		text, err := config.ExampleConfig(cfg.ExampleFor)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cloudviz: %v\n", err)
			return 1
		}
		fmt.Print(text)
		return 0
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cloudviz: %v\n", err)
		return 1
	}
	defer log.Close()

	// Phase 2: logger available.
	display.PrintBanner(os.Stdout, string(cfg.Stage))
	log.Info("=== cloudviz v%s ===", config.Version())

	if cfg.Stage == config.StageCheck {
		check.RunCheck(&cfg, log)
		return 0
	}

	if err := check.CheckDeps(&cfg); err != nil {
		log.Error("%v", err)
		return 1
	}

	// Phase 3: SIGINT/SIGTERM cancel the context, which also kills a
	// running pvbatch or ffmpeg.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go watchInterrupt(sigCh, log, cancel)

	// Phase 4: run the stage.
	var stats pipeline.RunStats
	switch cfg.Stage {
	case config.StageExtract:
		stats = pipeline.RunExtract(ctx, &cfg, log)
	case config.StagePoints:
		stats = pipeline.RunPoints(ctx, &cfg, log)
	case config.StageRender:
		stats = pipeline.RunRender(ctx, &cfg, log)
	case config.StageVideo:
		stats = pipeline.RunVideo(ctx, &cfg, log)
	case config.StageInspect:
		pipeline.Inspect(ctx, &cfg, log)
	}

	if !stats.OK() {
		return 1
	}
	return 0
}

// watchInterrupt cancels the run on the first signal from sigCh.
func watchInterrupt(sigCh <-chan os.Signal, log *logging.Logger, cancel context.CancelFunc) {
	<-sigCh
	log.Warn("Received interrupt, stopping…")
	cancel()
}
