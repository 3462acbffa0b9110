// Package vtk writes and reads point clouds as VTK XML unstructured grids
// (.vtu). Each point is one VTK_VERTEX cell, and every named per-point
// array is stored as Float32 point data. Data arrays are inline, in one of
// three encodings: ascii, base64 binary, or base64 zlib-compressed blocks.
package vtk

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/klauspost/compress/zlib"
)

// Encoding selects how data arrays are stored.
type Encoding string

const (
	ASCII  Encoding = "ascii"
	Binary Encoding = "binary"
	Zlib   Encoding = "zlib"
)

// ParseEncoding validates an encoding name.
func ParseEncoding(s string) (Encoding, error) {
	switch e := Encoding(s); e {
	case ASCII, Binary, Zlib:
		return e, nil
	}
	return "", fmt.Errorf("unknown vtu encoding %q", s)
}

// Ext is the file extension of unstructured grid files.
const Ext = ".vtu"

// cellVertex is VTK_VERTEX.
const cellVertex = 1

// blockSize is the uncompressed size of each zlib block.
const blockSize = 1 << 15

// Array is a named per-point scalar array.
type Array struct {
	Name   string
	Values []float32
}

// Cloud is a set of points with per-point arrays.
type Cloud struct {
	X, Y, Z []float32
	Arrays  []Array
}

// Len returns the number of points.
func (c *Cloud) Len() int { return len(c.X) }

// Array returns the named array's values, or nil.
func (c *Cloud) Array(name string) []float32 {
	for _, a := range c.Arrays {
		if a.Name == name {
			return a.Values
		}
	}
	return nil
}

func (c *Cloud) validate() error {
	n := len(c.X)
	if len(c.Y) != n || len(c.Z) != n {
		return fmt.Errorf("coordinate lengths differ: %d, %d, %d", len(c.X), len(c.Y), len(c.Z))
	}
	for _, a := range c.Arrays {
		if len(a.Values) != n {
			return fmt.Errorf("array %q has %d values for %d points", a.Name, len(a.Values), n)
		}
	}
	return nil
}

// WritePoints writes c to path. The caller chooses the file name; use [Ext].
// A partially written file is removed on error.
func WritePoints(path string, c *Cloud, enc Encoding) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(path)
		}
	}()
	if err := Encode(f, c, enc); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Encode writes c as a VTK XML unstructured grid document.
func Encode(w io.Writer, c *Cloud, enc Encoding) error {
	if err := c.validate(); err != nil {
		return err
	}
	if _, err := ParseEncoding(string(enc)); err != nil {
		return err
	}
	n := c.Len()
	bw := bufio.NewWriter(w)

	compressor := ""
	if enc == Zlib {
		compressor = ` compressor="vtkZLibDataCompressor"`
	}
	fmt.Fprintf(bw, "<?xml version=\"1.0\"?>\n")
	fmt.Fprintf(bw, "<VTKFile type=\"UnstructuredGrid\" version=\"1.0\" byte_order=\"LittleEndian\" header_type=\"UInt64\"%s>\n", compressor)
	fmt.Fprintf(bw, "  <UnstructuredGrid>\n")
	fmt.Fprintf(bw, "    <Piece NumberOfPoints=\"%d\" NumberOfCells=\"%d\">\n", n, n)

	if len(c.Arrays) > 0 {
		fmt.Fprintf(bw, "      <PointData Scalars=%q>\n", c.Arrays[0].Name)
		for _, a := range c.Arrays {
			writeArray(bw, enc, dataArray{name: a.Name, typ: "Float32", comps: 1, f32: a.Values})
		}
		fmt.Fprintf(bw, "      </PointData>\n")
	}

	xyz := make([]float32, 0, 3*n)
	for i := 0; i < n; i++ {
		xyz = append(xyz, c.X[i], c.Y[i], c.Z[i])
	}
	fmt.Fprintf(bw, "      <Points>\n")
	writeArray(bw, enc, dataArray{name: "Points", typ: "Float32", comps: 3, f32: xyz})
	fmt.Fprintf(bw, "      </Points>\n")

	conn := make([]int64, n)
	offsets := make([]int64, n)
	types := make([]uint8, n)
	for i := range conn {
		conn[i] = int64(i)
		offsets[i] = int64(i + 1)
		types[i] = cellVertex
	}
	fmt.Fprintf(bw, "      <Cells>\n")
	writeArray(bw, enc, dataArray{name: "connectivity", typ: "Int64", comps: 1, i64: conn})
	writeArray(bw, enc, dataArray{name: "offsets", typ: "Int64", comps: 1, i64: offsets})
	writeArray(bw, enc, dataArray{name: "types", typ: "UInt8", comps: 1, u8: types})
	fmt.Fprintf(bw, "      </Cells>\n")

	fmt.Fprintf(bw, "    </Piece>\n")
	fmt.Fprintf(bw, "  </UnstructuredGrid>\n")
	fmt.Fprintf(bw, "</VTKFile>\n")
	return bw.Flush()
}

// dataArray holds exactly one of f32, i64 or u8.
type dataArray struct {
	name  string
	typ   string
	comps int
	f32   []float32
	i64   []int64
	u8    []uint8
}

func (d dataArray) bytes() []byte {
	var buf bytes.Buffer
	switch {
	case d.f32 != nil:
		_ = binary.Write(&buf, binary.LittleEndian, d.f32)
	case d.i64 != nil:
		_ = binary.Write(&buf, binary.LittleEndian, d.i64)
	case d.u8 != nil:
		buf.Write(d.u8)
	}
	return buf.Bytes()
}

func (d dataArray) writeASCII(w *bufio.Writer) {
	const perLine = 12
	sep := func(i int) {
		if i%perLine == 0 {
			w.WriteString("\n          ")
		} else {
			w.WriteByte(' ')
		}
	}
	switch {
	case d.f32 != nil:
		for i, v := range d.f32 {
			sep(i)
			w.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
		}
	case d.i64 != nil:
		for i, v := range d.i64 {
			sep(i)
			w.WriteString(strconv.FormatInt(v, 10))
		}
	case d.u8 != nil:
		for i, v := range d.u8 {
			sep(i)
			w.WriteString(strconv.Itoa(int(v)))
		}
	}
	w.WriteString("\n        ")
}

func writeArray(w *bufio.Writer, enc Encoding, d dataArray) {
	format := "binary"
	if enc == ASCII {
		format = "ascii"
	}
	comps := ""
	if d.comps > 1 {
		comps = fmt.Sprintf(" NumberOfComponents=\"%d\"", d.comps)
	}
	fmt.Fprintf(w, "        <DataArray type=%q Name=%q%s format=%q>", d.typ, d.name, comps, format)
	switch enc {
	case ASCII:
		d.writeASCII(w)
	case Binary:
		raw := d.bytes()
		payload := make([]byte, 8, 8+len(raw))
		binary.LittleEndian.PutUint64(payload, uint64(len(raw)))
		payload = append(payload, raw...)
		w.WriteString(base64.StdEncoding.EncodeToString(payload))
	case Zlib:
		header, blocks := compressBlocks(d.bytes())
		w.WriteString(base64.StdEncoding.EncodeToString(header))
		w.WriteString(base64.StdEncoding.EncodeToString(blocks))
	}
	fmt.Fprintf(w, "</DataArray>\n")
}

// compressBlocks splits raw into blockSize chunks, compresses each, and
// returns the VTK block header [nblocks, blocksize, lastsize, csize...] and
// the concatenated compressed blocks.
func compressBlocks(raw []byte) (header, blocks []byte) {
	nblocks := (len(raw) + blockSize - 1) / blockSize
	last := 0
	if nblocks > 0 {
		last = len(raw) - (nblocks-1)*blockSize
	}
	header = make([]byte, 8*(3+nblocks))
	binary.LittleEndian.PutUint64(header[0:], uint64(nblocks))
	binary.LittleEndian.PutUint64(header[8:], blockSize)
	binary.LittleEndian.PutUint64(header[16:], uint64(last))

	var out bytes.Buffer
	for b := 0; b < nblocks; b++ {
		end := (b + 1) * blockSize
		if end > len(raw) {
			end = len(raw)
		}
		start := out.Len()
		zw := zlib.NewWriter(&out)
		_, _ = zw.Write(raw[b*blockSize : end])
		_ = zw.Close()
		binary.LittleEndian.PutUint64(header[8*(3+b):], uint64(out.Len()-start))
	}
	return header, out.Bytes()
}
