// Package render draws one image per frame plan. Two backends share the
// [Renderer] interface: "paraview" drives pvbatch with a generated script and
// reproduces the volume + point-Gaussian scene, and "plot" is a native
// gonum/plot projection that needs no external tools.
package render

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/logging"
	"github.com/backmassage/cloudviz/internal/planner"
)

// Renderer writes plan.ImagePath from the plan's Eulerian and Lagrangian
// inputs.
type Renderer interface {
	Name() string
	Render(ctx context.Context, plan *planner.FramePlan) error
}

// ErrNoImage is returned when a backend exits cleanly without writing the
// image.
var ErrNoImage = errors.New("renderer produced no image")

// New returns the renderer selected by cfg.Render.Backend.
func New(cfg *config.Config, log *logging.Logger) (Renderer, error) {
	switch cfg.Render.Backend {
	case config.RenderParaView:
		return &ParaView{cfg: cfg, log: log}, nil
	case config.RenderPlot:
		return &Plot{cfg: cfg, log: log}, nil
	}
	return nil, fmt.Errorf("unknown render backend %q", cfg.Render.Backend)
}

func checkImage(path string) error {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		return fmt.Errorf("%w: %s", ErrNoImage, path)
	}
	return nil
}
