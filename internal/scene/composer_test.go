package scene_test

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/grid"
	"github.com/san-kum/atmovis/internal/logging"
	"github.com/san-kum/atmovis/internal/mesh"
	"github.com/san-kum/atmovis/internal/scene"
)

func series(id scene.LayerID, n int) *scene.Series {
	s := &scene.Series{ID: id}
	for i := 0; i < n; i++ {
		s.Actors = append(s.Actors, mesh.NewActor(fmt.Sprintf("%s/%d", id, i), &mesh.Mesh{}))
	}
	return s
}

// members returns the actors of s currently in the set.
func members(set *scene.ActorSet, s *scene.Series) []*mesh.Actor {
	var out []*mesh.Actor
	for _, a := range s.Actors {
		if set.Contains(a) {
			out = append(out, a)
		}
	}
	return out
}

var _ = Describe("Composer", func() {
	var (
		set            *scene.ActorSet
		f1, f2, p, mp  *scene.Series
		composer       *scene.Composer
		visibility     *scene.Visibility
		dataSeriesList []*scene.Series
	)

	BeforeEach(func() {
		set = scene.NewActorSet()
		f1 = series(scene.Folder1, 5)
		f2 = series(scene.Folder2, 5)
		p = series(scene.Pressure, 5)
		mp = scene.StaticSeries(scene.Map, mesh.NewActor("map", &mesh.Mesh{}))
		dataSeriesList = []*scene.Series{f1, f2, p}
		composer = scene.NewComposer(set, logging.Discard(), mp, f1, f2, p)
		visibility = scene.NewVisibility(composer)
	})

	It("starts with every layer visible at time 0", func() {
		Expect(set.Len()).To(Equal(4))
		for _, s := range dataSeriesList {
			Expect(members(set, s)).To(ConsistOf(s.Actors[0]))
		}
		Expect(set.Contains(mp.Actors[0])).To(BeTrue())
		n, ok := composer.TimeRange()
		Expect(ok).To(BeTrue())
		Expect(n).To(Equal(5))
	})

	It("keeps exactly one actor per visible series for every index", func() {
		Expect(visibility.Handler(scene.Folder2)()).To(BeFalse())
		for i := 0; i < 5; i++ {
			Expect(composer.SetTime(i)).To(Succeed())
			Expect(members(set, f1)).To(ConsistOf(f1.Actors[i]))
			Expect(members(set, f2)).To(BeEmpty())
			Expect(members(set, p)).To(ConsistOf(p.Actors[i]))
		}
	})

	It("advances hidden series so they reappear at the current time", func() {
		_, err := visibility.Toggle(scene.Pressure)
		Expect(err).NotTo(HaveOccurred())
		Expect(composer.SetTime(3)).To(Succeed())
		Expect(members(set, p)).To(BeEmpty())

		Expect(visibility.Handler(scene.Pressure)()).To(BeTrue())
		Expect(members(set, p)).To(ConsistOf(p.Actors[3]))
	})

	It("restores membership after toggling twice, leaving other layers alone", func() {
		Expect(composer.SetTime(2)).To(Succeed())
		_, _ = visibility.Toggle(scene.Folder2)
		before := append([]*mesh.Actor(nil), set.Actors()...)

		visibility.Handler(scene.Folder1)()
		Expect(members(set, f1)).To(BeEmpty())
		Expect(visibility.Visible(scene.Folder2)).To(BeFalse())
		Expect(composer.Index(scene.Folder2)).To(Equal(2))

		visibility.Handler(scene.Folder1)()
		Expect(set.Actors()).To(ConsistOf(before))
	})

	It("toggles the static map without touching the time index", func() {
		Expect(composer.SetTime(4)).To(Succeed())
		Expect(visibility.Handler(scene.Map)()).To(BeFalse())
		Expect(set.Contains(mp.Actors[0])).To(BeFalse())
		Expect(composer.Time()).To(Equal(4))
		Expect(visibility.Handler(scene.Map)()).To(BeTrue())
		Expect(set.Contains(mp.Actors[0])).To(BeTrue())
	})

	It("treats setting the same visibility twice as a no-op", func() {
		Expect(composer.SetVisible(scene.Folder1, true)).To(Succeed())
		Expect(set.Len()).To(Equal(4))
		Expect(composer.SetVisible(scene.Folder1, false)).To(Succeed())
		version := set.Version()
		Expect(composer.SetVisible(scene.Folder1, false)).To(Succeed())
		Expect(set.Len()).To(Equal(3))
		Expect(set.Version()).To(Equal(version))
	})

	It("rejects out-of-range indices", func() {
		Expect(composer.SetTime(5)).To(MatchError(scene.ErrIndexOutOfRange))
		Expect(composer.SetTime(-1)).To(MatchError(scene.ErrIndexOutOfRange))
		Expect(composer.Time()).To(Equal(0))
		Expect(composer.SetSeriesTime(scene.Folder1, 9)).To(MatchError(scene.ErrIndexOutOfRange))
	})

	It("moves a single series independently", func() {
		Expect(composer.SetSeriesTime(scene.Folder2, 3)).To(Succeed())
		Expect(members(set, f2)).To(ConsistOf(f2.Actors[3]))
		Expect(members(set, f1)).To(ConsistOf(f1.Actors[0]))
	})

	It("reports unknown layers", func() {
		Expect(composer.SetVisible(scene.LayerID(42), true)).To(MatchError(scene.ErrUnknownLayer))
		Expect(visibility.Handler(scene.LayerID(42))).To(BeNil())
	})
})

var _ = Describe("Composer with uneven series", func() {
	It("limits the time range to the shortest non-empty series", func() {
		set := scene.NewActorSet()
		f1 := series(scene.Folder1, 5)
		f2 := series(scene.Folder2, 3)
		p := series(scene.Pressure, 0)
		c := scene.NewComposer(set, logging.Discard(), f1, f2, p)

		n, ok := c.TimeRange()
		Expect(ok).To(BeTrue())
		Expect(n).To(Equal(3))
		Expect(c.SetTime(2)).To(Succeed())
		Expect(c.SetTime(3)).To(MatchError(scene.ErrIndexOutOfRange))
		Expect(c.Active(scene.Pressure)).To(BeNil())

		v := scene.NewVisibility(c)
		Expect(v.Handler(scene.Pressure)()).To(BeFalse())
		Expect(set.Len()).To(Equal(2))
	})

	It("disables the time control when every data series is empty", func() {
		set := scene.NewActorSet()
		mp := scene.StaticSeries(scene.Map, mesh.NewActor("map", &mesh.Mesh{}))
		c := scene.NewComposer(set, logging.Discard(), mp, series(scene.Folder1, 0))

		_, ok := c.TimeRange()
		Expect(ok).To(BeFalse())
		Expect(c.SetTime(0)).To(MatchError(scene.ErrNoTimesteps))
		Expect(set.Len()).To(Equal(1))
	})
})

var _ = Describe("Build", func() {
	var files []string
	var grids map[string]*grid.Grid

	load := func(path string) (*grid.Grid, error) {
		g, ok := grids[path]
		if !ok {
			return nil, errors.New("no such file")
		}
		return g, nil
	}

	BeforeEach(func() {
		grids = map[string]*grid.Grid{}
		files = nil
		for h := 0; h < 3; h++ {
			g := grid.New("v", 4, 4, 3)
			for k := 0; k < 3; k++ {
				for j := 0; j < 4; j++ {
					for i := 0; i < 4; i++ {
						g.Set(i, j, k, float32(k+h))
					}
				}
			}
			name := fmt.Sprintf("v_2025-04-07_%02d.vti", h)
			grids[name] = g
			files = append(files, name)
		}
	})

	It("builds one contour actor per file in order", func() {
		cfg := scene.SeriesConfig{
			ID:       scene.Folder1,
			Kind:     scene.Contour,
			Isovalue: 1.5,
			Opacity:  0.5,
			Scale:    r3.Vec{X: 1, Y: 1, Z: 5},
		}
		s, err := scene.Build(cfg, files, load)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Len()).To(Equal(3))
		Expect(s.Actors[0].Name).To(Equal(files[0]))
		Expect(s.Actors[0].Opacity).To(Equal(0.5))
		Expect(s.Actors[0].Scale).To(Equal(r3.Vec{X: 1, Y: 1, Z: 5}))
		Expect(s.Actors[0].Mesh.Empty()).To(BeFalse())
		// the third grid ranges over 2..4 and never crosses 1.5
		Expect(s.Actors[2].Mesh.Empty()).To(BeTrue())
	})

	It("builds textured height fields", func() {
		tex := image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255})
		cfg := scene.SeriesConfig{
			ID:          scene.Pressure,
			Kind:        scene.HeightField,
			ScaleFactor: 0.5,
			Opacity:     0.8,
			Position:    r3.Vec{Z: -100},
			Texture:     image.Image(tex),
			Stride:      2,
		}
		s, err := scene.Build(cfg, files[:1], load)
		Expect(err).NotTo(HaveOccurred())
		a := s.Actors[0]
		Expect(a.Mesh.Vertices).To(HaveLen(4))
		Expect(a.World(0).Z).To(BeNumerically("~", -100))
		Expect(a.FaceColors).To(HaveLen(len(a.Mesh.Triangles)))
	})

	It("fails on the first unreadable file", func() {
		_, err := scene.Build(scene.SeriesConfig{ID: scene.Folder2}, append(files, "missing.vti"), load)
		var le *scene.LoadError
		Expect(errors.As(err, &le)).To(BeTrue())
		Expect(le.Path).To(Equal("missing.vti"))
		Expect(le.Layer).To(Equal(scene.Folder2))
	})

	It("reports the earliest failure in file order", func() {
		paths := []string{files[0], "a.vti", files[1], "b.vti"}
		_, err := scene.Build(scene.SeriesConfig{ID: scene.Folder1}, paths, load)
		var le *scene.LoadError
		Expect(errors.As(err, &le)).To(BeTrue())
		Expect(le.Path).To(Equal("a.vti"))
	})

	It("yields an empty series for no files", func() {
		s, err := scene.Build(scene.SeriesConfig{ID: scene.Folder1}, nil, load)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Len()).To(BeZero())
	})
})
