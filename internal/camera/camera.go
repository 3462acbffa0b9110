// Package camera computes the orbiting view used when rendering frames: the
// camera circles the focal point about the vertical (y) axis at a fixed
// height, advancing a fixed angle per file index.
package camera

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Up is the view-up direction.
var Up = r3.Vec{X: 0, Y: 1, Z: 0}

// Orbit is a horizontal circle around Focal through the start position.
type Orbit struct {
	Focal      r3.Vec
	Height     float64 // y of the camera, fixed at the start position's y.
	Radius     float64 // Horizontal distance from the focal point.
	StartAngle float64 // atan2(dx, dz) of the start position, radians.
	Step       float64 // Radians per frame index.
}

// NewOrbit builds the orbit through start around focal, advancing
// degreesPerFrame per index. Zero keeps the camera at start.
func NewOrbit(start, focal r3.Vec, degreesPerFrame float64) *Orbit {
	dx, dz := start.X-focal.X, start.Z-focal.Z
	return &Orbit{
		Focal:      focal,
		Height:     start.Y,
		Radius:     math.Hypot(dx, dz),
		StartAngle: math.Atan2(dx, dz),
		Step:       degreesPerFrame * math.Pi / 180,
	}
}

// Angle returns the orbit angle in radians for absolute frame index n.
func (o *Orbit) Angle(n int) float64 {
	return o.StartAngle + float64(n)*o.Step
}

// Position returns the camera position for absolute frame index n.
func (o *Orbit) Position(n int) r3.Vec {
	a := o.Angle(n)
	return r3.Vec{
		X: o.Radius*math.Sin(a) + o.Focal.X,
		Y: o.Height,
		Z: o.Radius*math.Cos(a) + o.Focal.Z,
	}
}

// ErrDegenerate is returned when the view direction is parallel to up or the
// camera sits on the focal point.
var ErrDegenerate = errors.New("camera: degenerate view")

// Basis is an orthonormal camera frame. Forward points from the camera to
// the focal point; Right and Up span the image plane.
type Basis struct {
	Right, Up, Forward r3.Vec
}

// NewBasis builds the camera frame looking from pos toward focal with the
// given up hint.
func NewBasis(pos, focal, up r3.Vec) (Basis, error) {
	fwd := r3.Sub(focal, pos)
	if r3.Norm(fwd) == 0 {
		return Basis{}, ErrDegenerate
	}
	fwd = r3.Unit(fwd)
	right := r3.Cross(fwd, up)
	if r3.Norm(right) < 1e-12 {
		return Basis{}, ErrDegenerate
	}
	right = r3.Unit(right)
	return Basis{Right: right, Up: r3.Cross(right, fwd), Forward: fwd}, nil
}

// Project returns the image-plane coordinates of p relative to origin under
// an orthographic projection, and its depth along Forward.
func (b Basis) Project(p, origin r3.Vec) (u, v, depth float64) {
	d := r3.Sub(p, origin)
	return r3.Dot(d, b.Right), r3.Dot(d, b.Up), r3.Dot(d, b.Forward)
}
