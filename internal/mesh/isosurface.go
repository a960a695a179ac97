package mesh

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/grid"
)

// Cube corners, x fastest:
//
//	c0=(0,0,0) c1=(1,0,0) c2=(1,1,0) c3=(0,1,0)
//	c4=(0,0,1) c5=(1,0,1) c6=(1,1,1) c7=(0,1,1)
var cubeCorners = [8][3]int{
	{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
	{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
}

// The cube splits into six tetrahedra around the c0-c6 diagonal, so
// neighbouring cells agree on every face diagonal.
var cubeTets = [6][4]int{
	{0, 5, 1, 6},
	{0, 1, 2, 6},
	{0, 2, 3, 6},
	{0, 3, 7, 6},
	{0, 7, 4, 6},
	{0, 4, 5, 6},
}

type isoBuilder struct {
	g     *grid.Grid
	iso   float64
	mesh  *Mesh
	edges map[[2]int]int
}

// Isosurface extracts the surface where g equals iso using marching
// tetrahedra. Vertices on shared grid edges are merged. Grids thinner than
// two points along any axis yield an empty mesh.
func Isosurface(g *grid.Grid, iso float64) *Mesh {
	b := &isoBuilder{g: g, iso: iso, mesh: &Mesh{}, edges: make(map[[2]int]int)}
	nx, ny, nz := g.Dims[0], g.Dims[1], g.Dims[2]
	if nx < 2 || ny < 2 || nz < 2 {
		return b.mesh
	}

	var idx [8]int
	for k := 0; k < nz-1; k++ {
		for j := 0; j < ny-1; j++ {
			for i := 0; i < nx-1; i++ {
				below := 0
				for c, off := range cubeCorners {
					idx[c] = g.Index(i+off[0], j+off[1], k+off[2])
					if float64(g.Values[idx[c]]) < iso {
						below++
					}
				}
				if below == 0 || below == 8 {
					continue
				}
				for _, tet := range cubeTets {
					b.tetra(idx[tet[0]], idx[tet[1]], idx[tet[2]], idx[tet[3]])
				}
			}
		}
	}
	return b.mesh
}

func (b *isoBuilder) point(idx int) r3.Vec {
	nx, ny := b.g.Dims[0], b.g.Dims[1]
	p := b.g.Point(idx%nx, (idx/nx)%ny, idx/(nx*ny))
	return r3.Vec{X: p[0], Y: p[1], Z: p[2]}
}

// vertex returns the surface crossing on edge (p, q), creating it once.
func (b *isoBuilder) vertex(p, q int) int {
	if p > q {
		p, q = q, p
	}
	key := [2]int{p, q}
	if v, ok := b.edges[key]; ok {
		return v
	}
	vp, vq := float64(b.g.Values[p]), float64(b.g.Values[q])
	t := 0.5
	if vp != vq {
		t = (b.iso - vp) / (vq - vp)
	}
	pp, pq := b.point(p), b.point(q)
	b.mesh.Vertices = append(b.mesh.Vertices, r3.Add(pp, r3.Scale(t, r3.Sub(pq, pp))))
	v := len(b.mesh.Vertices) - 1
	b.edges[key] = v
	return v
}

func (b *isoBuilder) tri(a0, a1, b0, b1, c0, c1 int) {
	b.mesh.Triangles = append(b.mesh.Triangles, [3]int{
		b.vertex(a0, a1), b.vertex(b0, b1), b.vertex(c0, c1),
	})
}

func (b *isoBuilder) tetra(v0, v1, v2, v3 int) {
	mask := 0
	for bit, v := range [4]int{v0, v1, v2, v3} {
		if float64(b.g.Values[v]) < b.iso {
			mask |= 1 << bit
		}
	}
	switch mask {
	case 0x0, 0xF:
	case 0x1, 0xE:
		b.tri(v0, v1, v0, v2, v0, v3)
	case 0x2, 0xD:
		b.tri(v1, v0, v1, v3, v1, v2)
	case 0x4, 0xB:
		b.tri(v2, v0, v2, v1, v2, v3)
	case 0x8, 0x7:
		b.tri(v3, v0, v3, v2, v3, v1)
	case 0x3, 0xC:
		b.tri(v0, v3, v0, v2, v1, v3)
		b.tri(v1, v2, v1, v3, v0, v2)
	case 0x5, 0xA:
		b.tri(v0, v1, v2, v3, v0, v3)
		b.tri(v1, v2, v2, v3, v0, v1)
	case 0x6, 0x9:
		b.tri(v0, v1, v1, v3, v2, v3)
		b.tri(v0, v1, v0, v2, v2, v3)
	}
}
