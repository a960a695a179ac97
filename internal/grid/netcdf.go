package grid

import (
	"fmt"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/cdf"
	"github.com/batchatco/go-native-netcdf/netcdf/util"
)

const ncVariable = "scalars"

// WriteNetCDF stores g as a classic netCDF file with one variable shaped
// (z, y, x).
func WriteNetCDF(path string, g *Grid) error {
	if err := g.Validate(); err != nil {
		return err
	}
	nx, ny, nz := g.Dims[0], g.Dims[1], g.Dims[2]
	values := make([][][]float32, nz)
	for k := range values {
		values[k] = make([][]float32, ny)
		slice := g.Slice(k)
		for j := range values[k] {
			row := make([]float32, nx)
			copy(row, slice[j*nx:(j+1)*nx])
			values[k][j] = row
		}
	}

	attrs, err := util.NewOrderedMap(
		[]string{"long_name", "spacing", "origin"},
		map[string]interface{}{
			"long_name": g.Name,
			"spacing":   g.Spacing[:],
			"origin":    g.Origin[:],
		})
	if err != nil {
		return err
	}

	w, err := cdf.OpenWriter(path)
	if err != nil {
		return err
	}
	err = w.AddVar(ncVariable, api.Variable{
		Values:     values,
		Dimensions: []string{"z", "y", "x"},
		Attributes: attrs,
	})
	if err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// ReadNetCDF loads a grid written by WriteNetCDF.
func ReadNetCDF(path string) (*Grid, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	v, err := nc.GetVariable(ncVariable)
	if err != nil {
		return nil, err
	}
	values, ok := v.Values.([][][]float32)
	if !ok {
		return nil, fmt.Errorf("%w: variable %s has type %T", ErrUnsupportedFormat, ncVariable, v.Values)
	}

	g := &Grid{Spacing: [3]float64{1, 1, 1}}
	nz := len(values)
	ny, nx := 0, 0
	if nz > 0 {
		ny = len(values[0])
		if ny > 0 {
			nx = len(values[0][0])
		}
	}
	g.Dims = [3]int{nx, ny, nz}
	g.Values = make([]float32, 0, nx*ny*nz)
	for _, plane := range values {
		for _, row := range plane {
			g.Values = append(g.Values, row...)
		}
	}

	if name, ok := v.Attributes.Get("long_name"); ok {
		g.Name, _ = name.(string)
	}
	if s, ok := v.Attributes.Get("spacing"); ok {
		if f, ok := s.([]float64); ok && len(f) == 3 {
			copy(g.Spacing[:], f)
		}
	}
	if o, ok := v.Attributes.Get("origin"); ok {
		if f, ok := o.([]float64); ok && len(f) == 3 {
			copy(g.Origin[:], f)
		}
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
