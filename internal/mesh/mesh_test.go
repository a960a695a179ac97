package mesh

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/grid"
)

// linearZ returns a grid whose value equals the z index.
func linearZ(nx, ny, nz int) *grid.Grid {
	g := grid.New("z", nx, ny, nz)
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				g.Set(i, j, k, float32(k))
			}
		}
	}
	return g
}

func TestIsosurfacePlane(t *testing.T) {
	g := linearZ(4, 3, 3)
	m := Isosurface(g, 0.5)
	require.False(t, m.Empty())

	for _, v := range m.Vertices {
		assert.InDelta(t, 0.5, v.Z, 1e-9)
	}
	// a horizontal cut through the lower cell layer
	assert.InDelta(t, 3.0*2.0, m.Area(), 1e-9)

	lo, hi := m.Bounds()
	assert.Equal(t, r3.Vec{X: 0, Y: 0, Z: 0.5}, lo)
	assert.Equal(t, r3.Vec{X: 3, Y: 2, Z: 0.5}, hi)
}

func TestIsosurfaceSharesVertices(t *testing.T) {
	m := Isosurface(linearZ(3, 3, 2), 0.5)
	seen := make(map[r3.Vec]bool)
	for _, v := range m.Vertices {
		assert.False(t, seen[v], "duplicate vertex %v", v)
		seen[v] = true
	}
}

func TestIsosurfaceOutOfRange(t *testing.T) {
	g := linearZ(3, 3, 3)
	assert.True(t, Isosurface(g, 10).Empty())
	assert.True(t, Isosurface(g, -1).Empty())
	assert.True(t, Isosurface(linearZ(3, 3, 1), 0).Empty())
}

func TestIsosurfaceSphere(t *testing.T) {
	n := 12
	g := grid.New("r", n, n, n)
	c := float64(n-1) / 2
	for k := 0; k < n; k++ {
		for j := 0; j < n; j++ {
			for i := 0; i < n; i++ {
				d := r3.Norm(r3.Sub(r3.Vec{X: float64(i), Y: float64(j), Z: float64(k)}, r3.Vec{X: c, Y: c, Z: c}))
				g.Set(i, j, k, float32(d))
			}
		}
	}
	m := Isosurface(g, 4)
	require.False(t, m.Empty())
	for _, v := range m.Vertices {
		d := r3.Norm(r3.Sub(v, r3.Vec{X: c, Y: c, Z: c}))
		assert.InDelta(t, 4, d, 0.5)
	}
}

func TestHeightField(t *testing.T) {
	g := grid.New("h", 3, 2, 1)
	copy(g.Values, []float32{0, 10, 20, 30, 40, 50})
	m := HeightField(g, 0.5)

	require.Len(t, m.Vertices, 6)
	assert.Len(t, m.Triangles, 4)
	assert.Equal(t, r3.Vec{X: 2, Y: 1, Z: 25}, m.Vertices[5])
	assert.Equal(t, [2]float64{1, 1}, m.UV[5])
}

func TestPlane(t *testing.T) {
	m := Plane(1798, 1058, 4, 2)
	assert.Len(t, m.Vertices, 15)
	assert.Len(t, m.Triangles, 16)
	assert.InDelta(t, 1798.0*1058.0, m.Area(), 1e-6)
}

func TestActorWorld(t *testing.T) {
	a := NewActor("a", &Mesh{Vertices: []r3.Vec{{X: 1, Y: 2, Z: 3}}})
	a.Scale = r3.Vec{X: 1, Y: 1, Z: 5}
	a.Position = r3.Vec{Z: -100}
	assert.Equal(t, r3.Vec{X: 1, Y: 2, Z: -85}, a.World(0))
}

func twoTone() *image.RGBA {
	// top half red, bottom half blue
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := color.RGBA{R: 255, A: 255}
			if y >= 4 {
				c = color.RGBA{B: 255, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestSample(t *testing.T) {
	img := twoTone()
	assert.Equal(t, color.RGBA{B: 255, A: 255}, Sample(img, 0.5, 0))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, Sample(img, 0.5, 1))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, Sample(img, -3, 7))
}

func TestApplyTexture(t *testing.T) {
	a := NewActor("map", Plane(10, 10, 1, 2))
	a.ApplyTexture(twoTone())
	require.Len(t, a.FaceColors, 4)
	assert.Equal(t, uint8(255), a.FaceColor(0).B, "bottom row is blue")
	assert.Equal(t, uint8(255), a.FaceColor(3).R, "top row is red")
}

func TestLoadTextureShrinks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "map.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 400, 200))))
	require.NoError(t, f.Close())

	img, err := LoadTexture(path, 100)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 100, 50), img.Bounds())

	_, err = LoadTexture(filepath.Join(t.TempDir(), "missing.png"), 0)
	assert.Error(t, err)
}
