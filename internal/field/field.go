// Package field holds Eulerian gridded fields: a set of 3-D variables on a
// shared (z, y, x) grid, one NetCDF file per time step. It reads classic and
// NetCDF-4 files, down-samples by a stride, and writes NetCDF classic.
package field

import (
	"errors"
	"fmt"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Dims is the dimension order of every data variable.
var Dims = []string{"z", "y", "x"}

// ErrMissingVariable is returned when a requested variable is not in a file.
var ErrMissingVariable = errors.New("variable not in file")

// Attribute is a NetCDF attribute. Value is a string, []int32, []float32
// or []float64.
type Attribute struct {
	Name  string
	Value interface{}
}

// Variable is one (z, y, x) data variable stored as float64.
type Variable struct {
	Name  string
	Data  *sparse.DenseArray
	Attrs []Attribute
}

// Field is a set of variables sharing integer z, y and x coordinates.
type Field struct {
	Z, Y, X []int32
	Vars    []*Variable
	Attrs   []Attribute // Global attributes.
}

// Shape returns (nz, ny, nx).
func (f *Field) Shape() [3]int {
	return [3]int{len(f.Z), len(f.Y), len(f.X)}
}

// Var returns the named variable or nil.
func (f *Field) Var(name string) *Variable {
	for _, v := range f.Vars {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Subsample keeps every stride-th coordinate along each axis, starting at 0,
// and the matching grid points of every variable.
func (f *Field) Subsample(stride int) (*Field, error) {
	if stride < 1 {
		return nil, fmt.Errorf("stride must be >= 1 (got %d)", stride)
	}
	out := &Field{
		Z:     strideInt32(f.Z, stride),
		Y:     strideInt32(f.Y, stride),
		X:     strideInt32(f.X, stride),
		Attrs: f.Attrs,
	}
	nz, ny, nx := len(out.Z), len(out.Y), len(out.X)
	for _, v := range f.Vars {
		if err := checkShape(v, f.Shape()); err != nil {
			return nil, err
		}
		data := sparse.ZerosDense(nz, ny, nx)
		for k := 0; k < nz; k++ {
			for j := 0; j < ny; j++ {
				for i := 0; i < nx; i++ {
					data.Set(v.Data.Get(k*stride, j*stride, i*stride), k, j, i)
				}
			}
		}
		out.Vars = append(out.Vars, &Variable{Name: v.Name, Data: data, Attrs: v.Attrs})
	}
	return out, nil
}

func strideInt32(in []int32, stride int) []int32 {
	out := make([]int32, 0, (len(in)+stride-1)/stride)
	for i := 0; i < len(in); i += stride {
		out = append(out, in[i])
	}
	return out
}

func checkShape(v *Variable, want [3]int) error {
	if len(v.Data.Shape) != 3 || v.Data.Shape[0] != want[0] || v.Data.Shape[1] != want[1] || v.Data.Shape[2] != want[2] {
		return fmt.Errorf("variable %s: shape %v does not match grid %v", v.Name, v.Data.Shape, want)
	}
	return nil
}

// Stats summarizes a variable's values.
type Stats struct {
	Min, Max, Mean float64
	Count          int
}

// Stats returns min, max and mean over every grid point.
func (v *Variable) Stats() Stats {
	e := v.Data.Elements
	if len(e) == 0 {
		return Stats{}
	}
	return Stats{
		Min:   floats.Min(e),
		Max:   floats.Max(e),
		Mean:  stat.Mean(e, nil),
		Count: len(e),
	}
}
