package render

import (
	"image/color"
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/mesh"
)

const ambient = 0.35

// Face is one projected, shaded triangle.
type Face struct {
	P       [3][2]float64
	Depth   float64
	Color   color.RGBA
	Opacity float64
}

// Frame is a painter-sorted list of faces for a w x h pixel screen.
type Frame struct {
	W, H       int
	Background color.RGBA
	Faces      []Face
}

func shade(c color.RGBA, intensity float64) color.RGBA {
	s := func(v uint8) uint8 { return uint8(math.Min(255, math.Round(float64(v)*intensity))) }
	return color.RGBA{R: s(c.R), G: s(c.G), B: s(c.B), A: 255}
}

// Project projects every triangle of the actors through cam. Faces are lit
// by a headlight and sorted far to near. Triangles with a vertex behind the
// eye or fully off screen are dropped.
func Project(actors []*mesh.Actor, cam *Camera, w, h int, bg color.RGBA) *Frame {
	f := &Frame{W: w, H: h, Background: bg}
	fw, fh := float64(w), float64(h)
	dir := cam.Direction()
	for _, a := range actors {
		if a == nil || a.Mesh.Empty() || a.Opacity <= 0 {
			continue
		}
		world := make([]r3.Vec, len(a.Mesh.Vertices))
		for i := range world {
			world[i] = a.World(i)
		}
		for ti, t := range a.Mesh.Triangles {
			var face Face
			visible := true
			for k, vi := range t {
				x, y, d, ok := cam.Project(world[vi], fw, fh)
				if !ok {
					visible = false
					break
				}
				face.P[k] = [2]float64{x, y}
				face.Depth += d / 3
			}
			if !visible || offscreen(face.P, fw, fh) {
				continue
			}
			n := r3.Cross(r3.Sub(world[t[1]], world[t[0]]), r3.Sub(world[t[2]], world[t[0]]))
			lambert := 0.0
			if l := r3.Norm(n); l > 0 {
				lambert = math.Abs(r3.Dot(r3.Scale(1/l, n), dir))
			}
			face.Color = shade(a.FaceColor(ti), ambient+(1-ambient)*lambert)
			face.Opacity = a.Opacity
			f.Faces = append(f.Faces, face)
		}
	}
	sort.SliceStable(f.Faces, func(i, j int) bool { return f.Faces[i].Depth > f.Faces[j].Depth })
	return f
}

// Bounds returns the world-space bounding box of the non-empty actors.
func Bounds(actors []*mesh.Actor) (lo, hi r3.Vec, ok bool) {
	for _, a := range actors {
		if a == nil || a.Mesh.Empty() {
			continue
		}
		mlo, mhi := a.Mesh.Bounds()
		for _, v := range [2]r3.Vec{world(a, mlo), world(a, mhi)} {
			if !ok {
				lo, hi, ok = v, v, true
				continue
			}
			lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
			hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
		}
	}
	return lo, hi, ok
}

func world(a *mesh.Actor, v r3.Vec) r3.Vec {
	return r3.Add(r3.Vec{X: v.X * a.Scale.X, Y: v.Y * a.Scale.Y, Z: v.Z * a.Scale.Z}, a.Position)
}

func offscreen(p [3][2]float64, w, h float64) bool {
	minX := math.Min(p[0][0], math.Min(p[1][0], p[2][0]))
	maxX := math.Max(p[0][0], math.Max(p[1][0], p[2][0]))
	minY := math.Min(p[0][1], math.Min(p[1][1], p[2][1]))
	maxY := math.Max(p[0][1], math.Max(p[1][1], p[2][1]))
	return maxX < 0 || maxY < 0 || minX >= w || minY >= h
}

// Rasterize paints the faces in order.
func (f *Frame) Rasterize() *Raster {
	r := NewRaster(f.W, f.H, f.Background)
	for _, face := range f.Faces {
		r.FillTriangle(face.P, face.Color, face.Opacity)
	}
	return r
}

// Terminal renders the actors into a braille canvas of cols x rows cells.
func Terminal(actors []*mesh.Actor, cam *Camera, cols, rows int, bg color.RGBA) *Canvas {
	c := NewCanvas(cols, rows)
	c.Draw(Project(actors, cam, cols*2, rows*4, bg).Rasterize())
	return c
}
