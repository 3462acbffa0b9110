// Package particle reads Lagrangian particle dumps: whitespace-delimited
// text with one particle per row as (id, x, y, z, radius).
package particle

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Columns is the number of values per particle row.
const Columns = 5

// ErrColumns is returned when a dump does not have Columns values per row.
var ErrColumns = errors.New("particle rows must have 5 columns (id x y z radius)")

// Record is one particle.
type Record struct {
	ID      float32
	X, Y, Z float32
	Radius  float32
}

// CountColumns returns the number of whitespace-separated fields on the first
// line of path. An empty file has zero columns.
func CountColumns(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return len(strings.Fields(line)), nil
}

// ReadText parses every whitespace-separated number in path as float32 and
// groups them into rows of ncols. Line breaks are not significant, only the
// total count, which must be a multiple of ncols.
func ReadText(path string, ncols int) ([]Record, error) {
	if ncols != Columns {
		return nil, fmt.Errorf("%s: %d columns: %w", path, ncols, ErrColumns)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)
	var (
		row  [Columns]float32
		col  int
		out  []Record
		read int
	)
	for sc.Scan() {
		v, err := strconv.ParseFloat(sc.Text(), 32)
		if err != nil {
			return nil, fmt.Errorf("%s: value %d: %w", path, read+1, err)
		}
		read++
		row[col] = float32(v)
		col++
		if col == ncols {
			out = append(out, Record{ID: row[0], X: row[1], Y: row[2], Z: row[3], Radius: row[4]})
			col = 0
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if col != 0 {
		return nil, fmt.Errorf("%s: %d values is not a multiple of %d", path, read, ncols)
	}
	return out, nil
}

// Subsample returns every stride-th record starting with the first.
func Subsample(rs []Record, stride int) []Record {
	if stride <= 1 {
		return rs
	}
	out := make([]Record, 0, (len(rs)+stride-1)/stride)
	for i := 0; i < len(rs); i += stride {
		out = append(out, rs[i])
	}
	return out
}

// Scale multiplies positions by pos and radii by radius in place.
func Scale(rs []Record, pos, radius float32) {
	for i := range rs {
		rs[i].X *= pos
		rs[i].Y *= pos
		rs[i].Z *= pos
		rs[i].Radius *= radius
	}
}

// RadiusStats returns the mean and standard deviation of the radii.
func RadiusStats(rs []Record) (mean, std float64) {
	if len(rs) == 0 {
		return 0, 0
	}
	r := make([]float64, len(rs))
	for i, p := range rs {
		r[i] = float64(p.Radius)
	}
	return stat.MeanStdDev(r, nil)
}
