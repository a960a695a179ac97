package grid

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of a scalar array.
type Summary struct {
	Min, Max     float64
	Mean, StdDev float64
}

// Summarize computes statistics over all values of g.
func Summarize(g *Grid) Summary {
	if len(g.Values) == 0 {
		return Summary{}
	}
	x := widen(g.Values)
	mean, std := stat.MeanStdDev(x, nil)
	return Summary{Min: floats.Min(x), Max: floats.Max(x), Mean: mean, StdDev: std}
}

// SliceMeans returns the mean of each z-slice, bottom first.
func SliceMeans(g *Grid) []float64 {
	means := make([]float64, g.Dims[2])
	for k := range means {
		means[k] = stat.Mean(widen(g.Slice(k)), nil)
	}
	return means
}

func widen(v []float32) []float64 {
	x := make([]float64, len(v))
	for i, f := range v {
		x[i] = float64(f)
	}
	return x
}
