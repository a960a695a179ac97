package scene

import (
	"image"
	"image/color"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/grid"
	"github.com/san-kum/atmovis/internal/mesh"
)

// LayerID names one toggleable layer of the scene.
type LayerID int

const (
	Folder1 LayerID = iota
	Folder2
	Pressure
	Map
)

// Layers lists every layer in key-binding order.
var Layers = []LayerID{Folder1, Folder2, Pressure, Map}

func (l LayerID) String() string {
	switch l {
	case Folder1:
		return "Folder 1"
	case Folder2:
		return "Folder 2"
	case Pressure:
		return "Pressure surface"
	case Map:
		return "Map"
	}
	return "unknown"
}

// Kind selects how a grid becomes a primitive.
type Kind int

const (
	// Contour extracts an isosurface at Isovalue.
	Contour Kind = iota
	// HeightField warps slice 0 along z by ScaleFactor.
	HeightField
)

// SeriesConfig describes how every file of a series is turned into an actor.
type SeriesConfig struct {
	ID          LayerID
	Kind        Kind
	Isovalue    float64
	ScaleFactor float64
	Opacity     float64
	Scale       r3.Vec
	Position    r3.Vec
	Color       color.RGBA
	Texture     image.Image
	Stride      int
}

// Series is the ordered per-timestep actors of one layer. A static series
// holds a single actor shown regardless of the time index.
type Series struct {
	ID     LayerID
	Actors []*mesh.Actor
	Static bool
}

func (s *Series) Len() int { return len(s.Actors) }

var workers = runtime.NumCPU()

// Loader reads one grid file.
type Loader func(path string) (*grid.Grid, error)

// Build loads every file and derives one actor per file, keeping file
// order. Files are decoded concurrently, at most workers at a time. The
// failure of the earliest file in order is reported. load must be safe for
// concurrent use.
func Build(cfg SeriesConfig, files []string, load Loader) (*Series, error) {
	actors := make([]*mesh.Actor, len(files))
	errs := make([]error, len(files))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup
	for i, path := range files {
		wg.Add(1)
		go func(idx int, path string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			g, err := load(path)
			if err != nil {
				errs[idx] = &LoadError{Layer: cfg.ID, Path: path, Err: err}
				return
			}
			if cfg.Stride > 1 {
				g = g.Decimate(cfg.Stride)
			}
			actors[idx] = cfg.actor(path, g)
		}(i, path)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return &Series{ID: cfg.ID, Actors: actors}, nil
}

func (cfg SeriesConfig) actor(name string, g *grid.Grid) *mesh.Actor {
	var m *mesh.Mesh
	switch cfg.Kind {
	case HeightField:
		m = mesh.HeightField(g, cfg.ScaleFactor)
	default:
		m = mesh.Isosurface(g, cfg.Isovalue)
	}
	a := mesh.NewActor(name, m)
	if cfg.Scale != (r3.Vec{}) {
		a.Scale = cfg.Scale
	}
	a.Position = cfg.Position
	a.Opacity = cfg.Opacity
	if cfg.Color != (color.RGBA{}) {
		a.Color = cfg.Color
	}
	a.ApplyTexture(cfg.Texture)
	return a
}

// StaticSeries wraps a single actor, such as the basemap.
func StaticSeries(id LayerID, a *mesh.Actor) *Series {
	return &Series{ID: id, Actors: []*mesh.Actor{a}, Static: true}
}
