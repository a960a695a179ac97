package mesh

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/grid"
)

// HeightField turns slice 0 of g into a surface whose points are displaced
// along +z by value*scale. Every grid cell becomes two triangles.
func HeightField(g *grid.Grid, scale float64) *Mesh {
	nx, ny := g.Dims[0], g.Dims[1]
	m := &Mesh{
		Vertices: make([]r3.Vec, 0, nx*ny),
		UV:       make([][2]float64, 0, nx*ny),
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			p := g.Point(i, j, 0)
			m.Vertices = append(m.Vertices, r3.Vec{X: p[0], Y: p[1], Z: p[2] + float64(g.At(i, j, 0))*scale})
			m.UV = append(m.UV, [2]float64{frac(i, nx), frac(j, ny)})
		}
	}
	m.Triangles = quads(nx, ny)
	return m
}

// Plane is a flat width x height rectangle at z=0 with its origin at the
// corner, tessellated into segX x segY cells so a texture can be sampled
// per cell.
func Plane(width, height float64, segX, segY int) *Mesh {
	if segX < 1 {
		segX = 1
	}
	if segY < 1 {
		segY = 1
	}
	nx, ny := segX+1, segY+1
	m := &Mesh{
		Vertices: make([]r3.Vec, 0, nx*ny),
		UV:       make([][2]float64, 0, nx*ny),
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			u, v := frac(i, nx), frac(j, ny)
			m.Vertices = append(m.Vertices, r3.Vec{X: u * width, Y: v * height})
			m.UV = append(m.UV, [2]float64{u, v})
		}
	}
	m.Triangles = quads(nx, ny)
	return m
}

func quads(nx, ny int) [][3]int {
	tris := make([][3]int, 0, 2*(nx-1)*(ny-1))
	for j := 0; j < ny-1; j++ {
		for i := 0; i < nx-1; i++ {
			a := j*nx + i
			b, c, d := a+1, a+nx+1, a+nx
			tris = append(tris, [3]int{a, b, c}, [3]int{a, c, d})
		}
	}
	return tris
}

func frac(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// LoadTexture decodes an image file and shrinks it so neither side exceeds
// maxDim. A maxDim of zero keeps the original size.
func LoadTexture(path string, maxDim int) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return Shrink(src, maxDim), nil
}

// Shrink resamples img to fit within maxDim on its longer side.
func Shrink(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	if w >= h {
		h = max(1, h*maxDim/w)
		w = maxDim
	} else {
		w = max(1, w*maxDim/h)
		h = maxDim
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Sample returns the colour of img at texture coordinate (u, v), with v=0
// at the bottom row. Coordinates are clamped to [0, 1].
func Sample(img image.Image, u, v float64) color.RGBA {
	b := img.Bounds()
	u = clamp01(u)
	v = clamp01(v)
	x := b.Min.X + int(u*float64(b.Dx()-1)+0.5)
	y := b.Min.Y + int((1-v)*float64(b.Dy()-1)+0.5)
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
