package field

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
)

// Write creates path as a NetCDF classic file with dimensions (z, y, x),
// int32 coordinate variables and float64 data variables. Attributes are
// copied as given and no fill value is set.
func Write(path string, f *Field) (err error) {
	nz, ny, nx := len(f.Z), len(f.Y), len(f.X)
	if nz == 0 || ny == 0 || nx == 0 {
		return fmt.Errorf("%s: empty grid %v", path, f.Shape())
	}

	h := cdf.NewHeader(Dims, []int{nz, ny, nx})
	for _, a := range f.Attrs {
		h.AddAttribute("", a.Name, a.Value)
	}
	for _, d := range Dims {
		h.AddVariable(d, []string{d}, []int32{0})
	}
	for _, v := range f.Vars {
		if err := checkShape(v, f.Shape()); err != nil {
			return err
		}
		h.AddVariable(v.Name, Dims, []float64{0})
		for _, a := range v.Attrs {
			h.AddAttribute(v.Name, a.Name, a.Value)
		}
	}
	h.Define()

	w, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	cf, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("%s: write header: %w", path, err)
	}
	for i, c := range [][]int32{f.Z, f.Y, f.X} {
		if err := writeVar(cf, Dims[i], c); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, v := range f.Vars {
		if err := writeVar(cf, v.Name, v.Data.Elements); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	// cdf.Create leaves numrecs as STREAMING; readers reject that.
	if err := cdf.UpdateNumRecs(w); err != nil {
		return fmt.Errorf("%s: update record count: %w", path, err)
	}
	return nil
}

func writeVar(cf *cdf.File, name string, data interface{}) error {
	end := cf.Header.Lengths(name)
	start := make([]int, len(end))
	if _, err := cf.Writer(name, start, end).Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}
