package planner

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/backmassage/cloudviz/internal/camera"
	"github.com/backmassage/cloudviz/internal/config"
	"github.com/backmassage/cloudviz/internal/naming"
)

// BuildFilePlan decides whether input must be converted to output. With
// SkipExisting set, an existing output is left alone.
func BuildFilePlan(cfg *config.Config, input, output string) *FilePlan {
	plan := &FilePlan{Action: ActionProcess, InputPath: input, OutputPath: output}
	if cfg.SkipExisting && exists(output) {
		plan.Action = ActionSkip
		plan.SkipReason = filepath.Base(output) + " exists"
	}
	return plan
}

// BuildFramePlans pairs eulr[n] with lagr[n] for n in [Start, Start+Frames).
// Both lists must already be sorted. The range is clamped to the shorter
// list. A plan is skipped when its image name cannot be derived, when an
// earlier plan already claimed the same image, when either input has
// vanished, or when the image exists and overwriting is off.
func BuildFramePlans(cfg *config.Config, eulr, lagr []string) *Schedule {
	r := &cfg.Render
	s := &Schedule{
		Start:      r.Start,
		Requested:  r.Start + r.Frames,
		Available:  min(len(eulr), len(lagr)),
		Mismatched: len(eulr) != len(lagr),
	}
	s.Stop = s.Requested
	if s.Stop > s.Available {
		s.Stop = s.Available
		s.Clamped = true
	}
	if s.Start > s.Stop {
		s.Start = s.Stop
	}

	focal := r3.Vec{X: r.FocalX, Y: r.FocalY, Z: r.FocalZ}
	orbit := camera.NewOrbit(r3.Vec{X: r.CameraX, Y: r.CameraY, Z: r.CameraZ}, focal, r.Rotation)
	claims := naming.NewClaimTracker()
	skipExisting := cfg.SkipExisting && !r.Overwrite

	for n := s.Start; n < s.Stop; n++ {
		p := &FramePlan{
			Action:         ActionProcess,
			Index:          n,
			EulerianPath:   eulr[n],
			LagrangianPath: lagr[n],
			Frame:          -1,
			Camera:         orbit.Position(n),
			Focal:          focal,
			Up:             camera.Up,
			Angle:          orbit.Angle(n),
		}
		s.Plans = append(s.Plans, p)

		frame, err := naming.ImageIndex(lagr[n])
		if err != nil {
			p.skip(err.Error())
			continue
		}
		p.Frame = frame
		p.ImagePath = filepath.Join(r.Images, naming.FrameName(frame))
		if owner, ok := claims.Claim(lagr[n], p.ImagePath); !ok {
			p.skip(fmt.Sprintf("%s already rendered from %s", filepath.Base(p.ImagePath), filepath.Base(owner)))
			continue
		}
		if !exists(eulr[n]) || !exists(lagr[n]) {
			p.skip("eulerian and/or lagrangian file not found")
			continue
		}
		if skipExisting && exists(p.ImagePath) {
			p.skip("image already exists")
		}
	}
	return s
}

func (p *FramePlan) skip(reason string) {
	p.Action = ActionSkip
	p.SkipReason = reason
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
