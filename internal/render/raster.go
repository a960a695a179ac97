package render

import (
	"image/color"
	"math"
)

// Raster is a software framebuffer that records which pixels geometry has
// touched, for the braille canvas.
type Raster struct {
	W, H       int
	Background color.RGBA
	pix        []color.RGBA
	covered    []bool
}

func NewRaster(w, h int, bg color.RGBA) *Raster {
	r := &Raster{W: w, H: h, Background: bg, pix: make([]color.RGBA, w*h), covered: make([]bool, w*h)}
	for i := range r.pix {
		r.pix[i] = bg
	}
	return r
}

func (r *Raster) At(x, y int) color.RGBA {
	if x < 0 || y < 0 || x >= r.W || y >= r.H {
		return r.Background
	}
	return r.pix[y*r.W+x]
}

func (r *Raster) Covered(x, y int) bool {
	if x < 0 || y < 0 || x >= r.W || y >= r.H {
		return false
	}
	return r.covered[y*r.W+x]
}

func blend(dst, src color.RGBA, alpha float64) color.RGBA {
	mix := func(d, s uint8) uint8 {
		return uint8(math.Round(float64(s)*alpha + float64(d)*(1-alpha)))
	}
	return color.RGBA{R: mix(dst.R, src.R), G: mix(dst.G, src.G), B: mix(dst.B, src.B), A: 255}
}

func edge(a, b [2]float64, x, y float64) float64 {
	return (b[0]-a[0])*(y-a[1]) - (b[1]-a[1])*(x-a[0])
}

// FillTriangle blends a flat triangle over the pixels whose centres it
// contains. Winding does not matter.
func (r *Raster) FillTriangle(p [3][2]float64, col color.RGBA, opacity float64) {
	area := edge(p[0], p[1], p[2][0], p[2][1])
	if area == 0 {
		return
	}
	minX := int(math.Max(0, math.Floor(math.Min(p[0][0], math.Min(p[1][0], p[2][0])))))
	maxX := int(math.Min(float64(r.W-1), math.Ceil(math.Max(p[0][0], math.Max(p[1][0], p[2][0])))))
	minY := int(math.Max(0, math.Floor(math.Min(p[0][1], math.Min(p[1][1], p[2][1])))))
	maxY := int(math.Min(float64(r.H-1), math.Ceil(math.Max(p[0][1], math.Max(p[1][1], p[2][1])))))
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			cx, cy := float64(x)+0.5, float64(y)+0.5
			w0 := edge(p[1], p[2], cx, cy)
			w1 := edge(p[2], p[0], cx, cy)
			w2 := edge(p[0], p[1], cx, cy)
			if area < 0 {
				w0, w1, w2 = -w0, -w1, -w2
			}
			if w0 < 0 || w1 < 0 || w2 < 0 {
				continue
			}
			i := y*r.W + x
			r.pix[i] = blend(r.pix[i], col, opacity)
			r.covered[i] = true
		}
	}
}
