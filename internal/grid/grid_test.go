package grid

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleGrid() *Grid {
	g := New("Absolute vorticity", 3, 2, 4)
	g.Spacing = [3]float64{1, 1, 0.5}
	g.Origin = [3]float64{0, 0, -100}
	for i := range g.Values {
		g.Values[i] = float32(i)*0.25 - 1
	}
	return g
}

func TestIndexOrder(t *testing.T) {
	g := New("t", 3, 2, 2)
	assert.Equal(t, 0, g.Index(0, 0, 0))
	assert.Equal(t, 1, g.Index(1, 0, 0))
	assert.Equal(t, 3, g.Index(0, 1, 0))
	assert.Equal(t, 6, g.Index(0, 0, 1))
	assert.Equal(t, 11, g.Index(2, 1, 1))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		g    *Grid
		ok   bool
	}{
		{"ok", New("a", 2, 2, 2), true},
		{"short", &Grid{Dims: [3]int{2, 2, 2}, Values: make([]float32, 7)}, false},
		{"zero dim", &Grid{Dims: [3]int{0, 2, 2}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidGrid)
			}
		})
	}
}

func TestSliceAndPoint(t *testing.T) {
	g := sampleGrid()
	s := g.Slice(1)
	require.Len(t, s, 6)
	assert.Equal(t, g.At(0, 0, 1), s[0])
	assert.Equal(t, [3]float64{2, 1, -99.5}, g.Point(2, 1, 1))
}

func TestDecimate(t *testing.T) {
	g := New("d", 5, 4, 2)
	for i := range g.Values {
		g.Values[i] = float32(i)
	}
	d := g.Decimate(2)
	assert.Equal(t, [3]int{3, 2, 2}, d.Dims)
	assert.Equal(t, [3]float64{2, 2, 1}, d.Spacing)
	assert.Equal(t, g.At(4, 2, 1), d.At(2, 1, 1))
	assert.Same(t, g, g.Decimate(1))
}

func TestVTIRoundTrip(t *testing.T) {
	g := sampleGrid()
	var buf bytes.Buffer
	require.NoError(t, EncodeVTI(&buf, g))
	assert.Contains(t, buf.String(), `WholeExtent="0 2 0 1 0 3"`)

	got, err := DecodeVTI(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(g, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeVTIASCII(t *testing.T) {
	doc := `<?xml version="1.0"?>
<VTKFile type="ImageData" version="0.1" byte_order="LittleEndian">
  <ImageData WholeExtent="0 1 0 0 0 1" Origin="0 0 0" Spacing="1 1 1">
    <Piece Extent="0 1 0 0 0 1">
      <PointData Scalars="HGT">
        <DataArray type="Float32" Name="HGT" format="ascii">
          1 2.5 -3 4
        </DataArray>
      </PointData>
    </Piece>
  </ImageData>
</VTKFile>`
	g, err := DecodeVTI(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "HGT", g.Name)
	assert.Equal(t, [3]int{2, 1, 2}, g.Dims)
	assert.Equal(t, []float32{1, 2.5, -3, 4}, g.Values)
}

func TestDecodeVTISingleBlock(t *testing.T) {
	// header and payload encoded as one base64 stream
	raw := make([]byte, 4+8)
	binary.LittleEndian.PutUint32(raw, 8)
	binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(1.5))
	binary.LittleEndian.PutUint32(raw[8:], math.Float32bits(-2))
	doc := `<VTKFile type="ImageData" byte_order="LittleEndian" header_type="UInt32">
  <ImageData WholeExtent="0 1 0 0 0 0" Origin="0 0 0" Spacing="1 1 1">
    <Piece><PointData Scalars="v">
      <DataArray type="Float32" Name="v" format="binary">` + base64.StdEncoding.EncodeToString(raw) + `</DataArray>
    </PointData></Piece>
  </ImageData>
</VTKFile>`
	g, err := DecodeVTI(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []float32{1.5, -2}, g.Values)
}

// zlibBlock frames payload the way vtkZLibDataCompressor does with a UInt64
// header: [nblocks, blocksize, lastblocksize, csize...] then the streams.
func zlibBlock(t *testing.T, payload []byte, blockSize int) (header, body []byte) {
	t.Helper()
	var sizes []uint64
	for off := 0; off < len(payload); off += blockSize {
		end := min(off+blockSize, len(payload))
		var z bytes.Buffer
		w := zlib.NewWriter(&z)
		_, err := w.Write(payload[off:end])
		require.NoError(t, err)
		require.NoError(t, w.Close())
		sizes = append(sizes, uint64(z.Len()))
		body = append(body, z.Bytes()...)
	}
	last := len(payload) % blockSize
	words := append([]uint64{uint64(len(sizes)), uint64(blockSize), uint64(last)}, sizes...)
	header = make([]byte, 8*len(words))
	for i, w := range words {
		binary.LittleEndian.PutUint64(header[8*i:], w)
	}
	return header, body
}

func float32Bytes(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(f))
	}
	return b
}

// vtkDefaultDoc builds ImageData the way vtkXMLImageDataWriter does by
// default: appended data, UInt64 headers, zlib compression. A decoy array
// precedes the scalars so the reader has to follow offsets.
func vtkDefaultDoc(t *testing.T, encoding string, values []float32) []byte {
	t.Helper()
	var blocks [][]byte
	for _, v := range [][]float32{{9, 9, 9}, values} {
		header, body := zlibBlock(t, float32Bytes(v), 12)
		if encoding == "base64" {
			enc := base64.StdEncoding.EncodeToString(header) + base64.StdEncoding.EncodeToString(body)
			blocks = append(blocks, []byte(enc))
		} else {
			blocks = append(blocks, append(header, body...))
		}
	}

	var doc bytes.Buffer
	doc.WriteString(`<?xml version="1.0"?>
<VTKFile type="ImageData" version="1.0" byte_order="LittleEndian" header_type="UInt64" compressor="vtkZLibDataCompressor">
  <ImageData WholeExtent="0 1 0 1 0 1" Origin="0 0 -1" Spacing="1 1 2">
    <Piece Extent="0 1 0 1 0 1">
      <PointData Scalars="TMP">
        <DataArray type="Float32" Name="decoy" format="appended" RangeMin="9" RangeMax="9" offset="0"/>
        <DataArray type="Float32" Name="TMP" format="appended" RangeMin="1" RangeMax="8" offset="`)
	doc.WriteString(strconv.Itoa(len(blocks[0])))
	doc.WriteString(`"/>
      </PointData>
      <CellData>
      </CellData>
    </Piece>
  </ImageData>
  <AppendedData encoding="`)
	doc.WriteString(encoding)
	doc.WriteString("\">\n   _")
	doc.Write(blocks[0])
	doc.Write(blocks[1])
	doc.WriteString("\n  </AppendedData>\n</VTKFile>\n")
	return doc.Bytes()
}

func TestDecodeVTIAppendedCompressed(t *testing.T) {
	values := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	for _, encoding := range []string{"base64", "raw"} {
		t.Run(encoding, func(t *testing.T) {
			g, err := DecodeVTI(bytes.NewReader(vtkDefaultDoc(t, encoding, values)))
			require.NoError(t, err)
			assert.Equal(t, "TMP", g.Name)
			assert.Equal(t, [3]int{2, 2, 2}, g.Dims)
			assert.Equal(t, [3]float64{0, 0, -1}, g.Origin)
			assert.Equal(t, [3]float64{1, 1, 2}, g.Spacing)
			assert.Equal(t, values, g.Values)
		})
	}
}

func TestDecodeVTIAppendedUncompressed(t *testing.T) {
	raw := float32Bytes([]float32{0.5, -1})
	var header [8]byte
	binary.LittleEndian.PutUint64(header[:], uint64(len(raw)))
	data := base64.StdEncoding.EncodeToString(header[:]) + base64.StdEncoding.EncodeToString(raw)
	doc := `<VTKFile type="ImageData" byte_order="LittleEndian" header_type="UInt64">
  <ImageData WholeExtent="0 1 0 0 0 0" Origin="0 0 0" Spacing="1 1 1">
    <Piece><PointData Scalars="v">
      <DataArray type="Float32" Name="v" format="appended" offset="0"/>
    </PointData></Piece>
  </ImageData>
  <AppendedData encoding="base64">_` + data + `</AppendedData>
</VTKFile>`
	g, err := DecodeVTI(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -1}, g.Values)
}

func TestDecodeVTICorruptCompressedBlock(t *testing.T) {
	doc := vtkDefaultDoc(t, "raw", []float32{1, 2, 3, 4, 5, 6, 7, 8})
	// truncate inside the last zlib stream
	doc = append(doc[:len(doc)-40], "</AppendedData></VTKFile>"...)
	_, err := DecodeVTI(bytes.NewReader(doc))
	assert.Error(t, err)
}

func TestDecodeVTIUnsupported(t *testing.T) {
	doc := `<VTKFile type="ImageData" compressor="vtkLZ4DataCompressor"><ImageData/></VTKFile>`
	_, err := DecodeVTI(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	doc = `<VTKFile type="PolyData"><ImageData/></VTKFile>`
	_, err = DecodeVTI(strings.NewReader(doc))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	g := sampleGrid()
	for _, ext := range []string{ExtVTI, ExtNetCDF} {
		t.Run(ext, func(t *testing.T) {
			path := filepath.Join(dir, "grid"+ext)
			require.NoError(t, Write(path, g))
			got, err := Read(path)
			require.NoError(t, err)
			if diff := cmp.Diff(g, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadUnknownExtension(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "grid.vtk"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, ".vtk", filepath.Ext(fe.Path))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a/b/ABSV_2025-04-07_00.vti"))
	assert.True(t, Supported("x.NC"))
	assert.False(t, Supported("x.png"))
}

func TestSummarize(t *testing.T) {
	g := New("s", 2, 1, 2)
	copy(g.Values, []float32{1, 2, 3, 4})
	s := Summarize(g)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.Equal(t, []float64{1.5, 3.5}, SliceMeans(g))
}
