package planner

import "gonum.org/v1/gonum/spatial/r3"

// Action describes the per-item processing decision.
type Action int

const (
	ActionProcess Action = iota
	ActionSkip
)

func (a Action) String() string {
	if a == ActionSkip {
		return "skip"
	}
	return "process"
}

// FilePlan is the decision for one input file of a one-to-one stage
// (extract, points).
type FilePlan struct {
	Action     Action
	SkipReason string
	InputPath  string
	OutputPath string
}

// FramePlan pairs one Eulerian and one Lagrangian file with the image they
// render to and the camera for that time step. It is consumed by the render
// package.
type FramePlan struct {
	Action     Action
	SkipReason string

	Index          int // Absolute position in the sorted file lists.
	EulerianPath   string
	LagrangianPath string
	ImagePath      string
	Frame          int // N of img.<N>.png; -1 when the name could not be derived.

	Camera r3.Vec // Camera position.
	Focal  r3.Vec
	Up     r3.Vec
	Angle  float64 // Orbit angle in radians.
}

// Schedule is the ordered frame plans of a render run.
type Schedule struct {
	Plans      []*FramePlan
	Start      int  // First index planned.
	Stop       int  // One past the last index planned.
	Requested  int  // Stop before clamping.
	Available  int  // Length of the shorter input list.
	Clamped    bool // Stop was reduced to Available.
	Mismatched bool // The two input lists differ in length.
}

// Pending returns the plans that will be rendered.
func (s *Schedule) Pending() int {
	n := 0
	for _, p := range s.Plans {
		if p.Action == ActionProcess {
			n++
		}
	}
	return n
}
