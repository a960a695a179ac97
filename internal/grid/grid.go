package grid

import "fmt"

// Grid is a structured grid with implicit connectivity and one scalar array.
type Grid struct {
	Name    string
	Dims    [3]int
	Spacing [3]float64
	Origin  [3]float64
	Values  []float32
}

// New allocates a zero-filled grid with unit spacing and zero origin.
func New(name string, nx, ny, nz int) *Grid {
	return &Grid{
		Name:    name,
		Dims:    [3]int{nx, ny, nz},
		Spacing: [3]float64{1, 1, 1},
		Values:  make([]float32, nx*ny*nz),
	}
}

// Len returns the number of points described by the dimensions.
func (g *Grid) Len() int {
	return g.Dims[0] * g.Dims[1] * g.Dims[2]
}

// Validate checks the array length invariant.
func (g *Grid) Validate() error {
	for _, d := range g.Dims {
		if d <= 0 {
			return fmt.Errorf("%w: dims %v", ErrInvalidGrid, g.Dims)
		}
	}
	if len(g.Values) != g.Len() {
		return fmt.Errorf("%w: dims %v want %d values, have %d", ErrInvalidGrid, g.Dims, g.Len(), len(g.Values))
	}
	return nil
}

// Index returns the flat offset of point (i, j, k).
func (g *Grid) Index(i, j, k int) int {
	return (k*g.Dims[1]+j)*g.Dims[0] + i
}

func (g *Grid) At(i, j, k int) float32 { return g.Values[g.Index(i, j, k)] }

func (g *Grid) Set(i, j, k int, v float32) { g.Values[g.Index(i, j, k)] = v }

// Point returns the world coordinates of point (i, j, k).
func (g *Grid) Point(i, j, k int) [3]float64 {
	return [3]float64{
		g.Origin[0] + float64(i)*g.Spacing[0],
		g.Origin[1] + float64(j)*g.Spacing[1],
		g.Origin[2] + float64(k)*g.Spacing[2],
	}
}

// Slice returns the values of z-slice k without copying.
func (g *Grid) Slice(k int) []float32 {
	n := g.Dims[0] * g.Dims[1]
	return g.Values[k*n : (k+1)*n]
}

// Decimate returns a grid sampling every stride-th point along x and y.
// The z axis is kept intact since pressure levels are few. Spacing grows by
// the stride so world extents are preserved.
func (g *Grid) Decimate(stride int) *Grid {
	if stride <= 1 {
		return g
	}
	nx := (g.Dims[0] + stride - 1) / stride
	ny := (g.Dims[1] + stride - 1) / stride
	nz := g.Dims[2]
	out := &Grid{
		Name:    g.Name,
		Dims:    [3]int{nx, ny, nz},
		Spacing: [3]float64{g.Spacing[0] * float64(stride), g.Spacing[1] * float64(stride), g.Spacing[2]},
		Origin:  g.Origin,
		Values:  make([]float32, nx*ny*nz),
	}
	for k := 0; k < nz; k++ {
		for j := 0; j < ny; j++ {
			for i := 0; i < nx; i++ {
				out.Set(i, j, k, g.At(i*stride, j*stride, k))
			}
		}
	}
	return out
}
