package grid

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

type vtkFile struct {
	XMLName    xml.Name     `xml:"VTKFile"`
	Type       string       `xml:"type,attr"`
	ByteOrder  string       `xml:"byte_order,attr"`
	HeaderType string       `xml:"header_type,attr"`
	Compressor string       `xml:"compressor,attr"`
	ImageData  vtkImageData `xml:"ImageData"`
}

type vtkImageData struct {
	WholeExtent string   `xml:"WholeExtent,attr"`
	Origin      string   `xml:"Origin,attr"`
	Spacing     string   `xml:"Spacing,attr"`
	Piece       vtkPiece `xml:"Piece"`
}

type vtkPiece struct {
	PointData vtkPointData `xml:"PointData"`
}

type vtkPointData struct {
	Scalars string         `xml:"Scalars,attr"`
	Arrays  []vtkDataArray `xml:"DataArray"`
}

type vtkDataArray struct {
	Type   string `xml:"type,attr"`
	Name   string `xml:"Name,attr"`
	Format string `xml:"format,attr"`
	Offset string `xml:"offset,attr"`
	Data   string `xml:",chardata"`
}

// EncodeVTI writes g as VTK XML ImageData with an inline base64 array.
// Header and payload are encoded as separate base64 blocks, as VTK does.
func EncodeVTI(w io.Writer, g *Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	nx, ny, nz := g.Dims[0], g.Dims[1], g.Dims[2]
	extent := fmt.Sprintf("0 %d 0 %d 0 %d", nx-1, ny-1, nz-1)
	name := xmlEscape(g.Name)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "<?xml version=\"1.0\"?>\n")
	fmt.Fprintf(bw, "<VTKFile type=\"ImageData\" version=\"0.1\" byte_order=\"LittleEndian\" header_type=\"UInt32\">\n")
	fmt.Fprintf(bw, "  <ImageData WholeExtent=\"%s\" Origin=\"%s\" Spacing=\"%s\">\n", extent, joinFloats(g.Origin[:]), joinFloats(g.Spacing[:]))
	fmt.Fprintf(bw, "    <Piece Extent=\"%s\">\n", extent)
	fmt.Fprintf(bw, "      <PointData Scalars=\"%s\">\n", name)
	fmt.Fprintf(bw, "        <DataArray type=\"Float32\" Name=\"%s\" format=\"binary\">\n          ", name)

	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(4*len(g.Values)))
	enc := base64.NewEncoder(base64.StdEncoding, bw)
	enc.Write(header[:])
	if err := enc.Close(); err != nil {
		return err
	}
	enc = base64.NewEncoder(base64.StdEncoding, bw)
	var buf [4]byte
	for _, v := range g.Values {
		binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
		if _, err := enc.Write(buf[:]); err != nil {
			return err
		}
	}
	if err := enc.Close(); err != nil {
		return err
	}

	fmt.Fprintf(bw, "\n        </DataArray>\n")
	fmt.Fprintf(bw, "      </PointData>\n")
	fmt.Fprintf(bw, "      <CellData>\n      </CellData>\n")
	fmt.Fprintf(bw, "    </Piece>\n")
	fmt.Fprintf(bw, "  </ImageData>\n")
	fmt.Fprintf(bw, "</VTKFile>\n")
	return bw.Flush()
}

const zlibCompressor = "vtkZLibDataCompressor"

type vtkAppendedData struct {
	Encoding string `xml:"encoding,attr"`
}

// appended holds the payload of an AppendedData section, starting right
// after its leading underscore. Array offsets index into it.
type appended struct {
	encoding string
	data     []byte
}

// DecodeVTI reads VTK XML ImageData. Scalars may be inline (ascii or
// binary) or stored in an AppendedData section (base64 or raw), optionally
// compressed with vtkZLibDataCompressor, which is what VTK writes by default.
func DecodeVTI(r io.Reader) (*Grid, error) {
	doc, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	head, app, err := splitAppended(doc)
	if err != nil {
		return nil, err
	}

	var f vtkFile
	if err := xml.Unmarshal(head, &f); err != nil {
		return nil, err
	}
	if f.Type != "ImageData" {
		return nil, fmt.Errorf("%w: VTKFile type %q", ErrUnsupportedFormat, f.Type)
	}
	if f.Compressor != "" && f.Compressor != zlibCompressor {
		return nil, fmt.Errorf("%w: compressor %s", ErrUnsupportedFormat, f.Compressor)
	}

	ext, err := parseInts(f.ImageData.WholeExtent, 6)
	if err != nil {
		return nil, fmt.Errorf("WholeExtent: %w", err)
	}
	g := &Grid{Dims: [3]int{ext[1] - ext[0] + 1, ext[3] - ext[2] + 1, ext[5] - ext[4] + 1}}
	origin, err := parseFloats(f.ImageData.Origin, 3)
	if err != nil {
		return nil, fmt.Errorf("Origin: %w", err)
	}
	spacing, err := parseFloats(f.ImageData.Spacing, 3)
	if err != nil {
		return nil, fmt.Errorf("Spacing: %w", err)
	}
	copy(g.Origin[:], origin)
	copy(g.Spacing[:], spacing)

	pd := f.ImageData.Piece.PointData
	if len(pd.Arrays) == 0 {
		return nil, fmt.Errorf("%w: no point data array", ErrInvalidGrid)
	}
	arr := pd.Arrays[0]
	for _, a := range pd.Arrays {
		if a.Name == pd.Scalars {
			arr = a
			break
		}
	}
	g.Name = arr.Name

	h := blockHeader{order: binary.ByteOrder(binary.LittleEndian), size: 4, compressed: f.Compressor != ""}
	if f.ByteOrder == "BigEndian" {
		h.order = binary.BigEndian
	}
	if f.HeaderType == "UInt64" {
		h.size = 8
	}

	var payload []byte
	switch arr.Format {
	case "ascii":
		g.Values, err = decodeASCII(arr.Data)
	case "binary":
		payload, err = h.decodeBase64(strings.Join(strings.Fields(arr.Data), ""))
	case "appended":
		payload, err = app.block(arr.Offset, h)
	default:
		err = fmt.Errorf("%w: DataArray format %q", ErrUnsupportedFormat, arr.Format)
	}
	if err == nil && payload != nil {
		g.Values, err = toFloat32(payload, arr.Type, h.order)
	}
	if err != nil {
		return nil, err
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// splitAppended cuts the AppendedData section off doc. The returned head is
// the XML before it, closed so that it parses on its own; raw appended bytes
// are not valid XML character data.
func splitAppended(doc []byte) ([]byte, *appended, error) {
	i := bytes.Index(doc, []byte("<AppendedData"))
	if i < 0 {
		return doc, nil, nil
	}
	gt := bytes.IndexByte(doc[i:], '>')
	if gt < 0 {
		return nil, nil, fmt.Errorf("%w: unterminated AppendedData tag", ErrInvalidGrid)
	}
	tag := doc[i : i+gt+1]
	var ad vtkAppendedData
	if err := xml.Unmarshal(append(append([]byte{}, tag...), "</AppendedData>"...), &ad); err != nil {
		return nil, nil, fmt.Errorf("AppendedData: %w", err)
	}

	rest := doc[i+gt+1:]
	u := bytes.IndexByte(rest, '_')
	if u < 0 {
		return nil, nil, fmt.Errorf("%w: AppendedData without leading underscore", ErrInvalidGrid)
	}
	data := rest[u+1:]
	if ad.Encoding != "raw" {
		if end := bytes.LastIndex(data, []byte("</AppendedData>")); end >= 0 {
			data = data[:end]
		}
	}

	head := append(append([]byte{}, doc[:i]...), "</VTKFile>"...)
	return head, &appended{encoding: ad.Encoding, data: data}, nil
}

func (a *appended) block(offset string, h blockHeader) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: appended array without AppendedData", ErrInvalidGrid)
	}
	off, err := strconv.Atoi(strings.TrimSpace(offset))
	if err != nil || off < 0 || off > len(a.data) {
		return nil, fmt.Errorf("%w: appended offset %q", ErrInvalidGrid, offset)
	}
	switch a.encoding {
	case "raw":
		return h.decodeRaw(a.data[off:])
	case "base64":
		return h.decodeBase64(string(a.data[off:]))
	}
	return nil, fmt.Errorf("%w: AppendedData encoding %q", ErrUnsupportedFormat, a.encoding)
}

// blockHeader describes how one binary array block is framed. An
// uncompressed block starts with its byte count. A compressed block starts
// with [nblocks, blocksize, lastblocksize, csize...] followed by the zlib
// streams of each block.
type blockHeader struct {
	order      binary.ByteOrder
	size       int
	compressed bool
}

func (h blockHeader) word(b []byte, i int) int {
	if h.size == 8 {
		return int(h.order.Uint64(b[8*i:]))
	}
	return int(h.order.Uint32(b[4*i:]))
}

func b64Len(n int) int { return (n + 2) / 3 * 4 }

// decodeBase64 decodes a block at the start of s. VTK encodes the header
// and the payload as separate base64 runs; an uncompressed block encoded
// as a single run is also accepted.
func (h blockHeader) decodeBase64(s string) ([]byte, error) {
	first := b64Len(h.size)
	if len(s) < first {
		return nil, fmt.Errorf("%w: binary block too short", ErrInvalidGrid)
	}
	lead, err := base64.StdEncoding.DecodeString(s[:first])
	if err != nil {
		return nil, fmt.Errorf("base64 header: %w", err)
	}
	n := h.word(lead, 0)

	if !h.compressed {
		if !strings.HasSuffix(s[:first], "=") {
			// header and payload share one run
			end := b64Len(h.size + n)
			if end > len(s) {
				return nil, fmt.Errorf("%w: binary block truncated", ErrInvalidGrid)
			}
			all, err := base64.StdEncoding.DecodeString(s[:end])
			if err != nil {
				return nil, fmt.Errorf("base64: %w", err)
			}
			return all[h.size:], nil
		}
		return decodeRun(s[first:], n)
	}

	headerChars := b64Len(h.size * (3 + n))
	if headerChars > len(s) {
		return nil, fmt.Errorf("%w: compression header truncated", ErrInvalidGrid)
	}
	header, err := base64.StdEncoding.DecodeString(s[:headerChars])
	if err != nil {
		return nil, fmt.Errorf("base64 header: %w", err)
	}
	body, err := decodeRun(s[headerChars:], h.compressedLen(header))
	if err != nil {
		return nil, err
	}
	return h.inflate(header, body)
}

// decodeRun decodes the base64 run at the start of s carrying n bytes.
func decodeRun(s string, n int) ([]byte, error) {
	end := b64Len(n)
	if end > len(s) {
		return nil, fmt.Errorf("%w: binary block truncated", ErrInvalidGrid)
	}
	out, err := base64.StdEncoding.DecodeString(s[:end])
	if err != nil {
		return nil, fmt.Errorf("base64 payload: %w", err)
	}
	return out[:n], nil
}

func (h blockHeader) decodeRaw(b []byte) ([]byte, error) {
	if len(b) < h.size {
		return nil, fmt.Errorf("%w: binary block too short", ErrInvalidGrid)
	}
	n := h.word(b, 0)
	if !h.compressed {
		if h.size+n > len(b) {
			return nil, fmt.Errorf("%w: binary block truncated", ErrInvalidGrid)
		}
		return b[h.size : h.size+n], nil
	}
	headerLen := h.size * (3 + n)
	if headerLen > len(b) {
		return nil, fmt.Errorf("%w: compression header truncated", ErrInvalidGrid)
	}
	header := b[:headerLen]
	end := headerLen + h.compressedLen(header)
	if end > len(b) {
		return nil, fmt.Errorf("%w: compressed data truncated", ErrInvalidGrid)
	}
	return h.inflate(header, b[headerLen:end])
}

func (h blockHeader) compressedLen(header []byte) int {
	total := 0
	for i := 0; i < h.word(header, 0); i++ {
		total += h.word(header, 3+i)
	}
	return total
}

func (h blockHeader) inflate(header, body []byte) ([]byte, error) {
	nblocks, blockSize, lastSize := h.word(header, 0), h.word(header, 1), h.word(header, 2)
	out := make([]byte, 0, nblocks*blockSize)
	pos := 0
	for i := 0; i < nblocks; i++ {
		c := h.word(header, 3+i)
		zr, err := zlib.NewReader(bytes.NewReader(body[pos : pos+c]))
		if err != nil {
			return nil, fmt.Errorf("zlib block %d: %w", i, err)
		}
		chunk, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("zlib block %d: %w", i, err)
		}
		want := blockSize
		if i == nblocks-1 && lastSize != 0 {
			want = lastSize
		}
		if len(chunk) != want {
			return nil, fmt.Errorf("%w: zlib block %d inflated to %d bytes, want %d", ErrInvalidGrid, i, len(chunk), want)
		}
		out = append(out, chunk...)
		pos += c
	}
	return out, nil
}

func decodeASCII(s string) ([]float32, error) {
	fields := strings.Fields(s)
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("ascii value %d: %w", i, err)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func toFloat32(payload []byte, typ string, order binary.ByteOrder) ([]float32, error) {
	switch typ {
	case "Float32":
		out := make([]float32, len(payload)/4)
		for i := range out {
			out[i] = math.Float32frombits(order.Uint32(payload[4*i:]))
		}
		return out, nil
	case "Float64":
		out := make([]float32, len(payload)/8)
		for i := range out {
			out[i] = float32(math.Float64frombits(order.Uint64(payload[8*i:])))
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: DataArray type %q", ErrUnsupportedFormat, typ)
}

func parseInts(s string, n int) ([]int, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("want %d values, got %q", n, s)
	}
	out := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(s string, n int) ([]float64, error) {
	fields := strings.Fields(s)
	if len(fields) != n {
		return nil, fmt.Errorf("want %d values, got %q", n, s)
	}
	out := make([]float64, n)
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func joinFloats(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

func xmlEscape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
