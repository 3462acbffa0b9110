package vtk

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// ErrUnsupported is returned for valid VTK files this package cannot decode,
// such as appended data sections or big-endian payloads.
var ErrUnsupported = errors.New("unsupported vtu layout")

type xmlFile struct {
	XMLName    xml.Name `xml:"VTKFile"`
	Type       string   `xml:"type,attr"`
	ByteOrder  string   `xml:"byte_order,attr"`
	HeaderType string   `xml:"header_type,attr"`
	Compressor string   `xml:"compressor,attr"`
	Piece      struct {
		NumberOfPoints int        `xml:"NumberOfPoints,attr"`
		PointData      []xmlArray `xml:"PointData>DataArray"`
		Points         xmlArray   `xml:"Points>DataArray"`
	} `xml:"UnstructuredGrid>Piece"`
}

type xmlArray struct {
	Type       string `xml:"type,attr"`
	Name       string `xml:"Name,attr"`
	Components int    `xml:"NumberOfComponents,attr"`
	Format     string `xml:"format,attr"`
	Text       string `xml:",chardata"`
}

// ReadPoints reads a point cloud written by [WritePoints], in any encoding.
// Float64 arrays are narrowed to float32.
func ReadPoints(path string) (*Cloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	c, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Decode parses a VTK XML unstructured grid document.
func Decode(r io.Reader) (*Cloud, error) {
	var doc xmlFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse vtu: %w", err)
	}
	if doc.Type != "UnstructuredGrid" {
		return nil, fmt.Errorf("%w: file type %q", ErrUnsupported, doc.Type)
	}
	if doc.ByteOrder != "" && doc.ByteOrder != "LittleEndian" {
		return nil, fmt.Errorf("%w: byte order %s", ErrUnsupported, doc.ByteOrder)
	}
	dec := decoder{headerSize: 4, compressed: doc.Compressor != ""}
	switch doc.HeaderType {
	case "UInt64":
		dec.headerSize = 8
	case "", "UInt32":
	default:
		return nil, fmt.Errorf("%w: header type %s", ErrUnsupported, doc.HeaderType)
	}
	if dec.compressed && doc.Compressor != "vtkZLibDataCompressor" {
		return nil, fmt.Errorf("%w: compressor %s", ErrUnsupported, doc.Compressor)
	}

	n := doc.Piece.NumberOfPoints
	xyz, err := dec.floats(doc.Piece.Points)
	if err != nil {
		return nil, fmt.Errorf("points: %w", err)
	}
	if len(xyz) != 3*n {
		return nil, fmt.Errorf("points: %d values for %d points", len(xyz), n)
	}
	c := &Cloud{X: make([]float32, n), Y: make([]float32, n), Z: make([]float32, n)}
	for i := 0; i < n; i++ {
		c.X[i], c.Y[i], c.Z[i] = xyz[3*i], xyz[3*i+1], xyz[3*i+2]
	}
	for _, a := range doc.Piece.PointData {
		vals, err := dec.floats(a)
		if err != nil {
			return nil, fmt.Errorf("array %q: %w", a.Name, err)
		}
		if len(vals) != n {
			return nil, fmt.Errorf("array %q: %d values for %d points", a.Name, len(vals), n)
		}
		c.Arrays = append(c.Arrays, Array{Name: a.Name, Values: vals})
	}
	return c, nil
}

type decoder struct {
	headerSize int
	compressed bool
}

func (d decoder) floats(a xmlArray) ([]float32, error) {
	if a.Type != "Float32" && a.Type != "Float64" {
		return nil, fmt.Errorf("%w: data type %s", ErrUnsupported, a.Type)
	}
	switch a.Format {
	case "ascii":
		fields := strings.Fields(a.Text)
		out := make([]float32, len(fields))
		for i, s := range fields {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, err
			}
			out[i] = float32(v)
		}
		return out, nil
	case "binary":
	default:
		return nil, fmt.Errorf("%w: format %q", ErrUnsupported, a.Format)
	}

	text := strings.Join(strings.Fields(a.Text), "")
	var raw []byte
	var err error
	if d.compressed {
		raw, err = d.inflate(text)
	} else {
		raw, err = d.plain(text)
	}
	if err != nil {
		return nil, err
	}
	if a.Type == "Float64" {
		if len(raw)%8 != 0 {
			return nil, fmt.Errorf("payload of %d bytes is not float64 aligned", len(raw))
		}
		out := make([]float32, len(raw)/8)
		for i := range out {
			out[i] = float32(math.Float64frombits(binary.LittleEndian.Uint64(raw[8*i:])))
		}
		return out, nil
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("payload of %d bytes is not float32 aligned", len(raw))
	}
	out := make([]float32, len(raw)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:]))
	}
	return out, nil
}

func (d decoder) word(b []byte, i int) int {
	if d.headerSize == 8 {
		return int(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return int(binary.LittleEndian.Uint32(b[4*i:]))
}

// plain decodes base64(byte count || data).
func (d decoder) plain(text string) ([]byte, error) {
	payload, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, err
	}
	if len(payload) < d.headerSize {
		return nil, errors.New("truncated binary header")
	}
	n := d.word(payload, 0)
	if len(payload)-d.headerSize < n {
		return nil, fmt.Errorf("binary payload holds %d of %d bytes", len(payload)-d.headerSize, n)
	}
	return payload[d.headerSize : d.headerSize+n], nil
}

// inflate decodes base64(header) followed by base64(zlib blocks).
func (d decoder) inflate(text string) ([]byte, error) {
	encLen := func(n int) int { return 4 * ((n + 2) / 3) }

	first := encLen(3 * d.headerSize)
	if len(text) < first {
		return nil, errors.New("truncated compression header")
	}
	head, err := base64.StdEncoding.DecodeString(text[:first])
	if err != nil {
		return nil, err
	}
	nblocks := d.word(head, 0)
	hdrLen := encLen((3 + nblocks) * d.headerSize)
	if len(text) < hdrLen {
		return nil, errors.New("truncated compression header")
	}
	head, err = base64.StdEncoding.DecodeString(text[:hdrLen])
	if err != nil {
		return nil, err
	}
	body, err := base64.StdEncoding.DecodeString(text[hdrLen:])
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	off := 0
	for b := 0; b < nblocks; b++ {
		size := d.word(head, 3+b)
		if off+size > len(body) {
			return nil, fmt.Errorf("block %d overruns payload", b)
		}
		zr, err := zlib.NewReader(bytes.NewReader(body[off : off+size]))
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", b, err)
		}
		if _, err := io.Copy(&out, zr); err != nil {
			return nil, fmt.Errorf("block %d: %w", b, err)
		}
		_ = zr.Close()
		off += size
	}
	return out.Bytes(), nil
}
