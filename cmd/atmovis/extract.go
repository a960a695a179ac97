package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/san-kum/atmovis/internal/config"
	"github.com/san-kum/atmovis/internal/extract"
	"github.com/san-kum/atmovis/internal/fetch"
	"github.com/san-kum/atmovis/internal/grib"
	"github.com/san-kum/atmovis/internal/observability"
	"github.com/san-kum/atmovis/internal/store"
)

type jobFlags struct {
	config      string
	preset      string
	variable    string
	date        string
	start, end  int
	minLevel    int
	maxLevel    int
	level       int
	out         string
	format      string
	subset      bool
	latest      bool
	metricsFile string
}

func newExtractCmd() *cobra.Command {
	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "fetch HRRR GRIB2 files and write grid files",
	}
	volumeCmd, _ := newJobCmd("volume", "extract a variable over a pressure-level range into 3-D grids")
	layerCmd, _ := newJobCmd("layer", "extract a single pressure level into 2-D grids")
	extractCmd.AddCommand(volumeCmd, layerCmd)
	return extractCmd
}

func newJobCmd(kind, short string) (*cobra.Command, *jobFlags) {
	f := &jobFlags{}
	cmd := &cobra.Command{
		Use:   kind,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJob(cmd, kind, f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.config, "config", "", "config file path (yaml)")
	fl.StringVar(&f.preset, "preset", "", "use preset job")
	fl.StringVar(&f.variable, "variable", "", "variable long name")
	fl.StringVar(&f.date, "date", config.DefaultDate, "run date (YYYY-MM-DD)")
	fl.IntVar(&f.start, "start", config.DefaultStartHour, "first hour (UTC)")
	fl.IntVar(&f.end, "end", config.DefaultEndHour, "last hour (UTC), inclusive")
	if kind == "volume" {
		fl.IntVar(&f.minLevel, "min-level", config.DefaultMinLevel, "lowest pressure level (hPa)")
		fl.IntVar(&f.maxLevel, "max-level", config.DefaultMaxLevel, "highest pressure level (hPa)")
	} else {
		fl.IntVar(&f.level, "level", config.DefaultLevel, "pressure level (hPa)")
	}
	fl.StringVar(&f.out, "out", ".", "output directory")
	fl.StringVar(&f.format, "format", config.DefaultFormat, "grid format (vti, nc)")
	fl.BoolVar(&f.subset, "subset", false, "download only the selected records")
	fl.BoolVar(&f.latest, "latest", false, "use the most recent published run")
	fl.StringVar(&f.metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")
	return cmd, f
}

// resolveJob layers defaults, config file, preset and explicitly set flags.
func resolveJob(cmd *cobra.Command, kind string, f *jobFlags) (*config.Config, *config.Job, error) {
	cfg := config.DefaultConfig()
	if f.config != "" {
		var err error
		if cfg, err = config.Load(f.config); err != nil {
			return nil, nil, err
		}
	}
	job := &cfg.Volume
	if kind == "layer" {
		job = &cfg.Layer
	}
	if f.preset != "" {
		p := config.GetPreset(kind, f.preset)
		if p == nil {
			return nil, nil, fmt.Errorf("unknown %s preset %q (see 'atmovis presets')", kind, f.preset)
		}
		job = p
	}

	changed := cmd.Flags().Changed
	if changed("variable") {
		job.Variable = grib.LongName(f.variable)
	}
	if changed("date") {
		job.Date = f.date
	}
	if changed("start") {
		job.StartHour = f.start
	}
	if changed("end") {
		job.EndHour = f.end
	}
	if changed("min-level") {
		job.MinLevel = f.minLevel
	}
	if changed("max-level") {
		job.MaxLevel = f.maxLevel
	}
	if changed("level") {
		job.Level = f.level
	}
	if changed("out") {
		job.Out = f.out
	}
	if changed("format") {
		job.Format = f.format
	}
	if changed("subset") {
		cfg.Archive.Subset = f.subset
	}
	if f.latest {
		run := fetch.LatestRun()
		job.Date = run.Time.Format("2006-01-02")
		job.StartHour, job.EndHour = run.Time.Hour(), run.Time.Hour()
	}
	if err := job.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, job, nil
}

func runJob(cmd *cobra.Command, kind string, f *jobFlags) error {
	cfg, job, err := resolveJob(cmd, kind, f)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	metrics := observability.NewMetrics()
	p := extract.New(
		fetch.NewClient(cfg.Archive.BaseURL, log),
		grib.NewWgrib2(cfg.Archive.Wgrib2),
		cfg.Archive,
		log,
		metrics,
	)

	var manifest *store.Manifest
	if kind == "volume" {
		manifest, err = p.RunVolume(ctx, job)
	} else {
		manifest, err = p.RunLayer(ctx, job)
	}
	if werr := metrics.WriteTextfile(f.metricsFile); werr != nil {
		log.WithError(werr).Warn("metrics textfile not written")
	}
	if err != nil {
		return err
	}
	log.WithField("files", len(manifest.Files)).WithField("skipped", len(manifest.Skipped)).
		Infof("%s extraction of %s finished in %s", kind, job.Variable, job.Out)
	return nil
}
