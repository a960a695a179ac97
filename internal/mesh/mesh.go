// Package mesh builds the triangle meshes the viewer draws: isosurfaces of
// 3-D grids, height-warped pressure layers and the textured basemap plane.
package mesh

import (
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Mesh is an indexed triangle mesh. UV, when present, holds one texture
// coordinate per vertex with the origin at the image's bottom-left corner.
type Mesh struct {
	Vertices  []r3.Vec
	Triangles [][3]int
	UV        [][2]float64
}

func (m *Mesh) Empty() bool { return m == nil || len(m.Triangles) == 0 }

// Bounds returns the axis-aligned bounding box of the vertices.
func (m *Mesh) Bounds() (lo, hi r3.Vec) {
	if len(m.Vertices) == 0 {
		return
	}
	lo, hi = m.Vertices[0], m.Vertices[0]
	for _, v := range m.Vertices[1:] {
		lo = r3.Vec{X: math.Min(lo.X, v.X), Y: math.Min(lo.Y, v.Y), Z: math.Min(lo.Z, v.Z)}
		hi = r3.Vec{X: math.Max(hi.X, v.X), Y: math.Max(hi.Y, v.Y), Z: math.Max(hi.Z, v.Z)}
	}
	return lo, hi
}

// Area returns the total surface area.
func (m *Mesh) Area() float64 {
	var a float64
	for _, t := range m.Triangles {
		e1 := r3.Sub(m.Vertices[t[1]], m.Vertices[t[0]])
		e2 := r3.Sub(m.Vertices[t[2]], m.Vertices[t[0]])
		a += r3.Norm(r3.Cross(e1, e2)) / 2
	}
	return a
}

// Actor places a mesh in the scene. The world position of a vertex v is
// v scaled component-wise by Scale, then offset by Position.
type Actor struct {
	Name     string
	Mesh     *Mesh
	Scale    r3.Vec
	Position r3.Vec
	Opacity  float64
	Color    color.RGBA

	// FaceColors overrides Color per triangle once a texture is applied.
	FaceColors []color.RGBA
}

func NewActor(name string, m *Mesh) *Actor {
	return &Actor{
		Name:    name,
		Mesh:    m,
		Scale:   r3.Vec{X: 1, Y: 1, Z: 1},
		Opacity: 1,
		Color:   color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}
}

// World returns vertex i in world coordinates.
func (a *Actor) World(i int) r3.Vec {
	v := a.Mesh.Vertices[i]
	return r3.Add(r3.Vec{X: v.X * a.Scale.X, Y: v.Y * a.Scale.Y, Z: v.Z * a.Scale.Z}, a.Position)
}

// FaceColor returns the base colour of triangle t.
func (a *Actor) FaceColor(t int) color.RGBA {
	if t < len(a.FaceColors) {
		return a.FaceColors[t]
	}
	return a.Color
}

// ApplyTexture samples img at each triangle's centroid texture coordinate.
// Meshes without UV keep the flat colour.
func (a *Actor) ApplyTexture(img image.Image) {
	m := a.Mesh
	if img == nil || len(m.UV) != len(m.Vertices) {
		return
	}
	a.FaceColors = make([]color.RGBA, len(m.Triangles))
	for i, t := range m.Triangles {
		u := (m.UV[t[0]][0] + m.UV[t[1]][0] + m.UV[t[2]][0]) / 3
		v := (m.UV[t[0]][1] + m.UV[t[1]][1] + m.UV[t[2]][1]) / 3
		a.FaceColors[i] = Sample(img, u, v)
	}
}
