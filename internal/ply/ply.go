// Package ply reads point clouds from PLY files.
//
// Only the vertex element is decoded: x, y, z (any scalar type) and the
// optional red, green, blue properties. Integer colors are normalized by
// their type's maximum (255 for uchar); float colors are taken as is.
// Vertices without colors are white. Elements stored before the vertex
// element are skipped; everything after it is not read.
//
// Supported encodings are ascii 1.0 and binary_little_endian 1.0.
package ply

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrFormat is returned for a malformed header or body.
	ErrFormat = errors.New("ply: malformed file")

	// ErrUnsupported is returned for encodings and property types the
	// reader does not handle.
	ErrUnsupported = errors.New("ply: unsupported")
)

// Cloud is a decoded point cloud as flat N×3 arrays.
type Cloud struct {
	Positions []float32
	Colors    []float32 // 0..1
}

// Len returns the number of points.
func (c *Cloud) Len() int { return len(c.Positions) / 3 }

type property struct {
	name     string
	typ      string
	list     bool
	countTyp string // list count type
}

type element struct {
	name  string
	count int
	props []property
}

type header struct {
	format   string
	elements []element
}

// ReadFile reads a PLY file from disk.
func ReadFile(path string) (*Cloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ply: open: %w", err)
	}
	defer f.Close()
	c, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Read decodes a PLY stream.
func Read(r io.Reader) (*Cloud, error) {
	br := bufio.NewReaderSize(r, 1<<20)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}
	var decode func(*bufio.Reader, *element) (*Cloud, error)
	var skip func(*bufio.Reader, *element) error
	switch h.format {
	case "ascii":
		decode, skip = readASCII, skipASCII
	case "binary_little_endian":
		decode, skip = readBinary, skipBinary
	default:
		return nil, fmt.Errorf("%w: format %q", ErrUnsupported, h.format)
	}
	for i := range h.elements {
		e := &h.elements[i]
		if e.name == "vertex" {
			return decode(br, e)
		}
		if err := skip(br, e); err != nil {
			return nil, fmt.Errorf("skip element %q: %w", e.name, err)
		}
	}
	return nil, fmt.Errorf("%w: no vertex element", ErrFormat)
}

func readHeader(br *bufio.Reader) (*header, error) {
	magic, err := readLine(br)
	if err != nil || magic != "ply" {
		return nil, fmt.Errorf("%w: missing ply magic", ErrFormat)
	}
	h := &header{}
	for {
		line, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("%w: header: %w", ErrFormat, err)
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		switch parts[0] {
		case "end_header":
			if h.format == "" {
				return nil, fmt.Errorf("%w: missing format line", ErrFormat)
			}
			return h, nil
		case "format":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: format line %q", ErrFormat, line)
			}
			if parts[2] != "1.0" {
				return nil, fmt.Errorf("%w: version %s", ErrUnsupported, parts[2])
			}
			h.format = parts[1]
		case "comment", "obj_info":
		case "element":
			if len(parts) < 3 {
				return nil, fmt.Errorf("%w: element line %q", ErrFormat, line)
			}
			n, err := strconv.Atoi(parts[2])
			if err != nil || n < 0 {
				return nil, fmt.Errorf("%w: element count %q", ErrFormat, parts[2])
			}
			h.elements = append(h.elements, element{name: parts[1], count: n})
		case "property":
			if len(h.elements) == 0 {
				return nil, fmt.Errorf("%w: property before element", ErrFormat)
			}
			p, err := parseProperty(parts[1:])
			if err != nil {
				return nil, err
			}
			e := &h.elements[len(h.elements)-1]
			e.props = append(e.props, p)
		default:
			return nil, fmt.Errorf("%w: header line %q", ErrFormat, line)
		}
	}
}

func parseProperty(parts []string) (property, error) {
	if len(parts) >= 4 && parts[0] == "list" {
		p := property{name: parts[3], typ: parts[2], list: true, countTyp: parts[1]}
		if typeSize(p.typ) == 0 || typeSize(p.countTyp) == 0 {
			return property{}, fmt.Errorf("%w: list property %q type", ErrUnsupported, p.name)
		}
		return p, nil
	}
	if len(parts) != 2 {
		return property{}, fmt.Errorf("%w: property %q", ErrFormat, strings.Join(parts, " "))
	}
	if typeSize(parts[0]) == 0 {
		return property{}, fmt.Errorf("%w: property %q type %q", ErrUnsupported, parts[1], parts[0])
	}
	return property{name: parts[1], typ: parts[0]}, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// typeSize returns the byte size of a scalar type, or 0 if unknown.
func typeSize(t string) int {
	switch t {
	case "char", "int8", "uchar", "uint8":
		return 1
	case "short", "int16", "ushort", "uint16":
		return 2
	case "int", "int32", "uint", "uint32", "float", "float32":
		return 4
	case "double", "float64":
		return 8
	default:
		return 0
	}
}

// colorScale returns the divisor that maps a color type to 0..1.
func colorScale(t string) float64 {
	switch t {
	case "uchar", "uint8":
		return math.MaxUint8
	case "char", "int8":
		return math.MaxInt8
	case "ushort", "uint16":
		return math.MaxUint16
	case "short", "int16":
		return math.MaxInt16
	case "uint", "uint32":
		return math.MaxUint32
	case "int", "int32":
		return math.MaxInt32
	default:
		return 1
	}
}

// layout locates the used vertex properties.
type layout struct {
	xyz      [3]int // property index, -1 if absent
	rgb      [3]int
	hasColor bool
}

func vertexLayout(e *element) (layout, error) {
	l := layout{xyz: [3]int{-1, -1, -1}, rgb: [3]int{-1, -1, -1}}
	for i, p := range e.props {
		if p.list {
			continue
		}
		switch p.name {
		case "x":
			l.xyz[0] = i
		case "y":
			l.xyz[1] = i
		case "z":
			l.xyz[2] = i
		case "red", "r":
			l.rgb[0] = i
		case "green", "g":
			l.rgb[1] = i
		case "blue", "b":
			l.rgb[2] = i
		}
	}
	for _, idx := range l.xyz {
		if idx < 0 {
			return l, fmt.Errorf("%w: vertex element lacks x, y or z", ErrFormat)
		}
	}
	l.hasColor = l.rgb[0] >= 0 && l.rgb[1] >= 0 && l.rgb[2] >= 0
	return l, nil
}

func newCloud(n int) *Cloud {
	return &Cloud{Positions: make([]float32, 0, n*3), Colors: make([]float32, 0, n*3)}
}

// appendVertex appends one vertex from its decoded property values.
func (c *Cloud) appendVertex(e *element, l layout, values []float64) {
	c.Positions = append(c.Positions, float32(values[l.xyz[0]]), float32(values[l.xyz[1]]), float32(values[l.xyz[2]]))
	if !l.hasColor {
		c.Colors = append(c.Colors, 1, 1, 1)
		return
	}
	for _, idx := range l.rgb {
		c.Colors = append(c.Colors, float32(values[idx]/colorScale(e.props[idx].typ)))
	}
}

func readASCII(br *bufio.Reader, e *element) (*Cloud, error) {
	l, err := vertexLayout(e)
	if err != nil {
		return nil, err
	}
	c := newCloud(e.count)
	values := make([]float64, len(e.props))
	for i := 0; i < e.count; i++ {
		line, err := readLine(br)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %d: %w", ErrFormat, i, err)
		}
		fields := strings.Fields(line)
		pos := 0
		for j, p := range e.props {
			if pos >= len(fields) {
				return nil, fmt.Errorf("%w: vertex %d: %d values, want more", ErrFormat, i, len(fields))
			}
			if p.list {
				n, err := strconv.Atoi(fields[pos])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("%w: vertex %d: list count %q", ErrFormat, i, fields[pos])
				}
				pos += 1 + n
				continue
			}
			v, err := strconv.ParseFloat(fields[pos], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: vertex %d property %q: %w", ErrFormat, i, p.name, err)
			}
			values[j] = v
			pos++
		}
		c.appendVertex(e, l, values)
	}
	return c, nil
}

func skipASCII(br *bufio.Reader, e *element) error {
	for i := 0; i < e.count; i++ {
		if _, err := readLine(br); err != nil {
			return fmt.Errorf("%w: %w", ErrFormat, err)
		}
	}
	return nil
}

func readBinary(br *bufio.Reader, e *element) (*Cloud, error) {
	l, err := vertexLayout(e)
	if err != nil {
		return nil, err
	}
	c := newCloud(e.count)
	values := make([]float64, len(e.props))
	var scratch [8]byte
	for i := 0; i < e.count; i++ {
		for j, p := range e.props {
			if p.list {
				if err := skipList(br, p); err != nil {
					return nil, fmt.Errorf("%w: vertex %d: %w", ErrFormat, i, err)
				}
				continue
			}
			buf := scratch[:typeSize(p.typ)]
			if _, err := io.ReadFull(br, buf); err != nil {
				return nil, fmt.Errorf("%w: vertex %d: %w", ErrFormat, i, err)
			}
			values[j] = decodeLE(p.typ, buf)
		}
		c.appendVertex(e, l, values)
	}
	return c, nil
}

func skipBinary(br *bufio.Reader, e *element) error {
	fixed := 0
	hasList := false
	for _, p := range e.props {
		if p.list {
			hasList = true
			continue
		}
		fixed += typeSize(p.typ)
	}
	if !hasList {
		_, err := br.Discard(fixed * e.count)
		return err
	}
	for i := 0; i < e.count; i++ {
		for _, p := range e.props {
			var err error
			if p.list {
				err = skipList(br, p)
			} else {
				_, err = br.Discard(typeSize(p.typ))
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func skipList(br *bufio.Reader, p property) error {
	var scratch [8]byte
	buf := scratch[:typeSize(p.countTyp)]
	if _, err := io.ReadFull(br, buf); err != nil {
		return err
	}
	n := decodeLE(p.countTyp, buf)
	if n < 0 {
		return fmt.Errorf("negative list count for %q", p.name)
	}
	_, err := br.Discard(int(n) * typeSize(p.typ))
	return err
}

// decodeLE decodes a little-endian scalar of type t.
func decodeLE(t string, b []byte) float64 {
	switch t {
	case "char", "int8":
		return float64(int8(b[0]))
	case "uchar", "uint8":
		return float64(b[0])
	case "short", "int16":
		return float64(int16(binary.LittleEndian.Uint16(b))) //nolint:gosec // reinterpret
	case "ushort", "uint16":
		return float64(binary.LittleEndian.Uint16(b))
	case "int", "int32":
		return float64(int32(binary.LittleEndian.Uint32(b))) //nolint:gosec // reinterpret
	case "uint", "uint32":
		return float64(binary.LittleEndian.Uint32(b))
	case "float", "float32":
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
	case "double", "float64":
		return math.Float64frombits(binary.LittleEndian.Uint64(b))
	default:
		return 0
	}
}
