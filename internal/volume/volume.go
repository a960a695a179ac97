// Package volume assembles decoded 2-D level slices into grids and names
// the files they are written to.
package volume

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/atmovis/internal/grid"
	"github.com/san-kum/atmovis/internal/store"
)

// ErrNoData is returned when no level matched the requested parameter, in
// which case nothing is written.
var ErrNoData = errors.New("volume: no data found")

// Level is one decoded 2-D slice, loaded lazily. Key orders the slices
// along z; for isobaric data it is the pressure in hPa.
type Level struct {
	Key    int
	Nx, Ny int
	Load   func(ctx context.Context) ([]float32, error)
}

// Assemble stacks levels into one grid named name, slice k holding the k-th
// smallest key. The horizontal shape comes from the first level. A level
// that fails to load, or loads with the wrong length, is logged and left
// zero-filled; its key is returned in failed.
func Assemble(ctx context.Context, name string, levels []Level, log logrus.FieldLogger) (g *grid.Grid, failed []int, err error) {
	if len(levels) == 0 {
		return nil, nil, fmt.Errorf("%w for %s", ErrNoData, name)
	}
	sorted := make([]Level, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })

	nx, ny := sorted[0].Nx, sorted[0].Ny
	if nx <= 0 || ny <= 0 {
		return nil, nil, fmt.Errorf("%w: level %d has shape %dx%d", grid.ErrInvalidGrid, sorted[0].Key, nx, ny)
	}
	g = grid.New(name, nx, ny, len(sorted))

	for k, lvl := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		vals, err := lvl.Load(ctx)
		if err == nil && len(vals) != nx*ny {
			err = fmt.Errorf("got %d values, want %d", len(vals), nx*ny)
		}
		if err != nil {
			if cerr := ctx.Err(); cerr != nil {
				return nil, nil, fmt.Errorf("level %d hPa: %w", lvl.Key, cerr)
			}
			log.WithFields(logrus.Fields{"level": lvl.Key, "error": err}).
				Warnf("error at level %d hPa", lvl.Key)
			failed = append(failed, lvl.Key)
			continue
		}
		copy(g.Slice(k), vals)
	}
	return g, failed, nil
}

// LayerName is the array name of a single-level grid.
func LayerName(variable string, level int) string {
	return fmt.Sprintf("%s_%dhPa", variable, level)
}

// AssembleLayer builds a single-slice grid from lvl. Unlike Assemble, a
// load failure is returned.
func AssembleLayer(ctx context.Context, variable string, lvl Level) (*grid.Grid, error) {
	if lvl.Nx <= 0 || lvl.Ny <= 0 {
		return nil, fmt.Errorf("%w: level %d has shape %dx%d", grid.ErrInvalidGrid, lvl.Key, lvl.Nx, lvl.Ny)
	}
	vals, err := lvl.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s at %d hPa: %w", variable, lvl.Key, err)
	}
	g := grid.New(LayerName(variable, lvl.Key), lvl.Nx, lvl.Ny, 1)
	if len(vals) != len(g.Values) {
		return nil, fmt.Errorf("%w: %s at %d hPa has %d values, want %d", grid.ErrInvalidGrid, variable, lvl.Key, len(vals), len(g.Values))
	}
	copy(g.Values, vals)
	return g, nil
}

// VolumeFileName is <Variable>_<YYYY-MM-DD>_<HH>, without extension.
func VolumeFileName(variable string, date time.Time, hour int) string {
	return fmt.Sprintf("%s_%s_%02d", variable, date.Format("2006-01-02"), hour)
}

// LayerFileName is <Variable>_<Level>hPa_<YYYY-MM-DD>_<HH>, without
// extension.
func LayerFileName(variable string, level int, date time.Time, hour int) string {
	return fmt.Sprintf("%s_%s_%02d", LayerName(variable, level), date.Format("2006-01-02"), hour)
}

// Writer places grids in an output directory in one encoding.
type Writer struct {
	Store *store.Store
	Ext   string
}

// NewWriter returns a writer for format "vti" or "nc".
func NewWriter(dir, format string) (*Writer, error) {
	var ext string
	switch format {
	case "", "vti":
		ext = grid.ExtVTI
	case "nc", "netcdf":
		ext = grid.ExtNetCDF
	default:
		return nil, fmt.Errorf("%w: %q", grid.ErrUnsupportedFormat, format)
	}
	st := store.New(dir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return &Writer{Store: st, Ext: ext}, nil
}

// Write stores g as base+Ext and returns the path. Existing files are
// replaced.
func (w *Writer) Write(g *grid.Grid, base string) (string, error) {
	return w.Store.Save(base+w.Ext, g)
}
