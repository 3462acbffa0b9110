package field

import (
	"errors"
	"fmt"
	"math"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/ctessum/sparse"
)

var errRagged = errors.New("ragged array")

// Read loads the named variables and the z, y, x coordinate vectors from a
// NetCDF file (classic or NetCDF-4). Coordinates are truncated to integers.
// A dimension without a coordinate variable gets 0..n-1. Leading length-1
// dimensions (a single time step) are dropped.
func Read(path string, names []string) (*Field, error) {
	if len(names) == 0 {
		return nil, errors.New("no variables requested")
	}
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer nc.Close()

	present := make(map[string]bool)
	for _, name := range nc.ListVariables() {
		present[name] = true
	}

	f := &Field{Attrs: convertAttrs(nc.Attributes())}
	for _, name := range names {
		if !present[name] {
			return nil, fmt.Errorf("%s: %q: %w", path, name, ErrMissingVariable)
		}
		v, err := nc.GetVariable(name)
		if err != nil {
			return nil, fmt.Errorf("%s: read %q: %w", path, name, err)
		}
		vals, shape, err := flatten(v.Values)
		if err != nil {
			return nil, fmt.Errorf("%s: %q: %w", path, name, err)
		}
		for len(shape) > 3 && shape[0] == 1 {
			shape = shape[1:]
		}
		if len(shape) != 3 {
			return nil, fmt.Errorf("%s: %q has %d dimensions, want 3 (z, y, x)", path, name, len(shape))
		}
		data := sparse.ZerosDense(shape...)
		copy(data.Elements, vals)
		f.Vars = append(f.Vars, &Variable{Name: name, Data: data, Attrs: convertAttrs(v.Attributes)})
	}

	shape := f.Vars[0].Data.Shape
	coords := [3]*[]int32{&f.Z, &f.Y, &f.X}
	for i, dim := range Dims {
		c, err := readCoords(nc, present[dim], dim, shape[i])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		*coords[i] = c
	}
	for _, v := range f.Vars {
		if err := checkShape(v, f.Shape()); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return f, nil
}

func readCoords(nc api.Group, present bool, dim string, n int) ([]int32, error) {
	out := make([]int32, n)
	if !present {
		for i := range out {
			out[i] = int32(i)
		}
		return out, nil
	}
	v, err := nc.GetVariable(dim)
	if err != nil {
		return nil, fmt.Errorf("coordinate %q: %w", dim, err)
	}
	vals, _, err := flatten(v.Values)
	if err != nil {
		return nil, fmt.Errorf("coordinate %q: %w", dim, err)
	}
	if len(vals) != n {
		return nil, fmt.Errorf("coordinate %q has %d values, grid has %d", dim, len(vals), n)
	}
	for i, x := range vals {
		out[i] = int32(math.Trunc(x))
	}
	return out, nil
}

// convertAttrs keeps the attributes NetCDF classic can store. _FillValue is
// dropped so written files carry no fill value.
func convertAttrs(am api.AttributeMap) []Attribute {
	if am == nil {
		return nil
	}
	var out []Attribute
	for _, key := range am.Keys() {
		if key == "_FillValue" {
			continue
		}
		val, ok := am.Get(key)
		if !ok {
			continue
		}
		if s, ok := val.(string); ok {
			out = append(out, Attribute{Name: key, Value: s})
			continue
		}
		vals, _, err := flatten(val)
		if err != nil || len(vals) == 0 {
			continue
		}
		out = append(out, Attribute{Name: key, Value: typedAttr(val, vals)})
	}
	return out
}

// typedAttr picks the classic type closest to the original element type.
func typedAttr(orig interface{}, vals []float64) interface{} {
	switch elemKind(reflect.TypeOf(orig)) {
	case reflect.Float32:
		out := make([]float32, len(vals))
		for i, v := range vals {
			out[i] = float32(v)
		}
		return out
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Uint8, reflect.Uint16:
		out := make([]int32, len(vals))
		for i, v := range vals {
			out[i] = int32(v)
		}
		return out
	}
	return vals
}

func elemKind(t reflect.Type) reflect.Kind {
	for t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t.Kind()
}

// flatten converts a scalar or (nested) numeric slice into row-major float64
// values and the slice shape.
func flatten(v interface{}) ([]float64, []int, error) {
	switch t := v.(type) {
	case []float64:
		return t, []int{len(t)}, nil
	case [][][]float32:
		return flatten3(t, func(x float32) float64 { return float64(x) })
	case [][][]float64:
		return flatten3(t, func(x float64) float64 { return x })
	}

	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil, nil, errors.New("no values")
	}
	var shape []int
	for r := rv; r.Kind() == reflect.Slice; r = r.Index(0) {
		shape = append(shape, r.Len())
		if r.Len() == 0 {
			break
		}
	}
	n := 1
	for _, s := range shape {
		n *= s
	}
	out := make([]float64, 0, n)
	var walk func(r reflect.Value, depth int) error
	walk = func(r reflect.Value, depth int) error {
		if r.Kind() == reflect.Slice {
			if depth >= len(shape) || r.Len() != shape[depth] {
				return errRagged
			}
			for i := 0; i < r.Len(); i++ {
				if err := walk(r.Index(i), depth+1); err != nil {
					return err
				}
			}
			return nil
		}
		switch r.Kind() {
		case reflect.Float32, reflect.Float64:
			out = append(out, r.Float())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			out = append(out, float64(r.Int()))
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out = append(out, float64(r.Uint()))
		default:
			return fmt.Errorf("unsupported element type %s", r.Type())
		}
		return nil
	}
	if err := walk(rv, 0); err != nil {
		return nil, nil, err
	}
	return out, shape, nil
}

func flatten3[T float32 | float64](a [][][]T, conv func(T) float64) ([]float64, []int, error) {
	nz := len(a)
	if nz == 0 {
		return nil, []int{0, 0, 0}, nil
	}
	ny := len(a[0])
	nx := 0
	if ny > 0 {
		nx = len(a[0][0])
	}
	out := make([]float64, 0, nz*ny*nx)
	for _, plane := range a {
		if len(plane) != ny {
			return nil, nil, errRagged
		}
		for _, row := range plane {
			if len(row) != nx {
				return nil, nil, errRagged
			}
			for _, x := range row {
				out = append(out, conv(x))
			}
		}
	}
	return out, []int{nz, ny, nx}, nil
}
