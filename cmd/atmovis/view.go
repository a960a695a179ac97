package main

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/atmovis/internal/camera"
	"github.com/san-kum/atmovis/internal/config"
	"github.com/san-kum/atmovis/internal/grid"
	"github.com/san-kum/atmovis/internal/logging"
	"github.com/san-kum/atmovis/internal/mesh"
	"github.com/san-kum/atmovis/internal/scene"
	"github.com/san-kum/atmovis/internal/session"
	"github.com/san-kum/atmovis/internal/store"
	"github.com/san-kum/atmovis/internal/viewer"
)

const viewUsage = "Usage: atmovis view --folder1 <name of folder1> <isovalue> --folder2 <name of folder2> <isovalue> --pressure <name of pressure layer folder> [--camera <file>] [--config <file>] [--stride <n>]"

var errHelp = errors.New("help requested")

type viewArgs struct {
	Folder1, Folder2 string
	Iso1, Iso2       float64
	Pressure         string
	Camera           string
	Config           string
	Stride           int
	LogLevel         string
	LogFormat        string
}

// parseViewArgs reads the viewer's argument list. --folder1 and --folder2
// take two values each, which the standard flag parser cannot express.
func parseViewArgs(args []string) (*viewArgs, error) {
	va := &viewArgs{LogLevel: "info", LogFormat: "text"}
	seen := map[string]bool{}
	for i := 0; i < len(args); i++ {
		name, inline, hasInline := strings.Cut(args[i], "=")
		// value returns the next single value of the current flag.
		value := func() (string, error) {
			if hasInline {
				return inline, nil
			}
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "--") {
				return "", fmt.Errorf("argument %s: expected one argument", name)
			}
			i++
			return args[i], nil
		}
		switch name {
		case "-h", "--help":
			return nil, errHelp
		case "--folder1", "--folder2":
			if hasInline || i+2 >= len(args) {
				return nil, fmt.Errorf("argument %s: expected 2 arguments", name)
			}
			dir, raw := args[i+1], args[i+2]
			iso, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("argument %s: invalid isovalue %q", name, raw)
			}
			i += 2
			if name == "--folder1" {
				va.Folder1, va.Iso1 = dir, iso
			} else {
				va.Folder2, va.Iso2 = dir, iso
			}
		case "--pressure", "--camera", "--config", "--stride", "--log-level", "--log-format":
			v, err := value()
			if err != nil {
				return nil, err
			}
			switch name {
			case "--pressure":
				va.Pressure = v
			case "--camera":
				va.Camera = v
			case "--config":
				va.Config = v
			case "--log-level":
				va.LogLevel = v
			case "--log-format":
				va.LogFormat = v
			case "--stride":
				n, err := strconv.Atoi(v)
				if err != nil || n < 1 {
					return nil, fmt.Errorf("argument --stride: invalid value %q", v)
				}
				va.Stride = n
			}
		default:
			return nil, fmt.Errorf("unrecognized arguments: %s", args[i])
		}
		seen[name] = true
	}
	var missing []string
	for _, req := range []string{"--folder1", "--folder2", "--pressure"} {
		if !seen[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("the following arguments are required: %s", strings.Join(missing, ", "))
	}
	return va, nil
}

func newViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "view",
		Short:              "interactive viewer for extracted grids",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.OutOrStdout(), args)
		},
	}
}

// usageError prints msg with the usage line and maps to exit status 2.
func usageError(out io.Writer, err error) error {
	fmt.Fprintf(out, "Error: %v\n%s\n", err, viewUsage)
	return &exitError{code: 2}
}

func rgba(c [3]uint8) color.RGBA { return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255} }
func v3(a [3]float64) r3.Vec { return r3.Vec{X: a[0], Y: a[1], Z: a[2]} }

// listDir returns the grid files of a series directory. A missing directory
// is a configuration error; an empty one yields an empty series.
func listDir(flag, dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("argument %s: %q is not a directory", flag, dir)
	}
	return store.New(dir).Paths()
}

func runView(out io.Writer, args []string) error {
	va, err := parseViewArgs(args)
	if errors.Is(err, errHelp) {
		fmt.Fprintln(out, viewUsage)
		return nil
	}
	if err != nil {
		return usageError(out, err)
	}
	logger, err := logging.New(va.LogLevel, va.LogFormat, os.Stderr)
	if err != nil {
		return usageError(out, err)
	}

	cfg := config.DefaultConfig()
	if va.Config != "" {
		if cfg, err = config.Load(va.Config); err != nil {
			return usageError(out, err)
		}
	}
	vc := cfg.Viewer
	if va.Stride > 0 {
		vc.Stride = va.Stride
	}

	var cam *camera.State
	if va.Camera != "" {
		st, err := camera.Load(va.Camera)
		if err != nil {
			return usageError(out, err)
		}
		cam = &st
	}

	files := map[string][]string{}
	for _, d := range []struct{ flag, dir string }{
		{"--folder1", va.Folder1}, {"--folder2", va.Folder2}, {"--pressure", va.Pressure},
	} {
		paths, err := listDir(d.flag, d.dir)
		if err != nil {
			return usageError(out, err)
		}
		files[d.flag] = paths
	}

	panel := viewer.NewPanel(50)
	logger.AddHook(panel)

	look := func(id scene.LayerID, l config.SeriesLook) scene.SeriesConfig {
		return scene.SeriesConfig{
			ID:       id,
			Opacity:  l.Opacity,
			Scale:    v3(l.Scale),
			Position: v3(l.Position),
			Color:    rgba(l.Color),
			Stride:   vc.Stride,
		}
	}
	f1 := look(scene.Folder1, vc.Folder1)
	f1.Kind, f1.Isovalue = scene.Contour, va.Iso1
	f2 := look(scene.Folder2, vc.Folder2)
	f2.Kind, f2.Isovalue = scene.Contour, va.Iso2
	pr := look(scene.Pressure, vc.Pressure)
	pr.Kind, pr.ScaleFactor = scene.HeightField, vc.ScaleFactor

	var series []*scene.Series
	for _, s := range []struct {
		cfg   scene.SeriesConfig
		files []string
	}{{f1, files["--folder1"]}, {f2, files["--folder2"]}, {pr, files["--pressure"]}} {
		for _, path := range s.files {
			logger.WithField("layer", s.cfg.ID.String()).Debug(path)
		}
		built, err := scene.Build(s.cfg, s.files, grid.Read)
		if err != nil {
			return err
		}
		series = append(series, built)
	}
	series = append(series, scene.StaticSeries(scene.Map, mapActor(vc, logger)))

	set := scene.NewActorSet()
	composer := scene.NewComposer(set, logger, series...)
	m := viewer.NewModel(viewer.Options{
		Set:        set,
		Composer:   composer,
		Session:    session.New(".", "", cam),
		Panel:      panel,
		Log:        logger,
		Background: rgba(vc.Background),
	})
	return viewer.Run(m, logger)
}

// mapActor builds the textured basemap plane under the data. Without the
// image the plane keeps a flat colour.
func mapActor(vc config.ViewerConfig, logger logrus.FieldLogger) *mesh.Actor {
	segX, segY := max(1, int(vc.MapWidth/10)), max(1, int(vc.MapHeight/10))
	a := mesh.NewActor("map", mesh.Plane(vc.MapWidth, vc.MapHeight, segX, segY))
	a.Position = r3.Vec{Z: config.DefaultLayerOffset}
	a.Color = color.RGBA{R: 220, G: 220, B: 220, A: 255}
	tex, err := mesh.LoadTexture(vc.MapImage, 512)
	if err != nil {
		logger.WithError(err).Warn("map image unavailable, using a flat basemap")
		return a
	}
	a.ApplyTexture(tex)
	return a
}
