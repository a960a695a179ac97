// Package extract runs the batch jobs that turn archived HRRR analyses into
// grid files: fetch, decode, assemble, write, one forecast hour at a time.
package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/atmovis/internal/config"
	"github.com/san-kum/atmovis/internal/fetch"
	"github.com/san-kum/atmovis/internal/grib"
	"github.com/san-kum/atmovis/internal/grid"
	"github.com/san-kum/atmovis/internal/observability"
	"github.com/san-kum/atmovis/internal/store"
	"github.com/san-kum/atmovis/internal/volume"
)

// Fetcher retrieves archived GRIB2 files. *fetch.Client implements it.
type Fetcher interface {
	Inventory(ctx context.Context, run fetch.Run) ([]grib.Message, error)
	Download(ctx context.Context, run fetch.Run, dst string) (int64, error)
	DownloadSubset(ctx context.Context, run fetch.Run, all, selected []grib.Message, dst string) (int64, error)
}

// Pipeline executes extraction jobs sequentially. Any fetch, decode or
// write failure of a timestep aborts the job; failed levels inside a volume
// are zero-filled.
type Pipeline struct {
	Fetcher Fetcher
	Decoder grib.Decoder
	Archive config.ArchiveConfig
	Log     logrus.FieldLogger
	Metrics *observability.Metrics
}

func New(f Fetcher, d grib.Decoder, archive config.ArchiveConfig, log logrus.FieldLogger, m *observability.Metrics) *Pipeline {
	if m == nil {
		m = observability.NewMetricsForTesting()
	}
	return &Pipeline{Fetcher: f, Decoder: d, Archive: archive, Log: log, Metrics: m}
}

// builder turns the decoded inventory of one timestep into a grid and the
// base file name it is written under.
type builder func(ctx context.Context, path string, msgs []grib.Message, date time.Time, hour int) (*grid.Grid, string, error)

// RunVolume extracts job.Variable over MinLevel..MaxLevel for every hour.
func (p *Pipeline) RunVolume(ctx context.Context, job *config.Job) (*store.Manifest, error) {
	filter := grib.Filter{Name: job.Variable, MinLevel: job.MinLevel, MaxLevel: job.MaxLevel}
	build := func(ctx context.Context, path string, msgs []grib.Message, date time.Time, hour int) (*grid.Grid, string, error) {
		sel, err := grib.Select(msgs, filter)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", volume.ErrNoData, err)
		}
		levels := make([]volume.Level, 0, len(sel))
		for _, m := range sel {
			levels = append(levels, p.level(path, m))
		}
		g, failed, err := volume.Assemble(ctx, job.Variable, levels, p.Log)
		if err != nil {
			return nil, "", err
		}
		if len(failed) > 0 {
			p.Log.WithFields(logrus.Fields{"hour": hour, "levels": failed}).Warn("levels zero-filled")
		}
		return g, volume.VolumeFileName(job.Variable, date, hour), nil
	}
	return p.run(ctx, "volume", job, filter, build)
}

// RunLayer extracts job.Variable at job.Level for every hour. Hours without
// the requested level are skipped.
func (p *Pipeline) RunLayer(ctx context.Context, job *config.Job) (*store.Manifest, error) {
	filter := grib.Filter{Name: job.Variable, Level: job.Level}
	build := func(ctx context.Context, path string, msgs []grib.Message, date time.Time, hour int) (*grid.Grid, string, error) {
		sel, err := grib.Select(msgs, filter)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", volume.ErrNoData, err)
		}
		g, err := volume.AssembleLayer(ctx, job.Variable, p.level(path, sel[0]))
		if err != nil {
			return nil, "", err
		}
		return g, volume.LayerFileName(job.Variable, job.Level, date, hour), nil
	}
	return p.run(ctx, "layer", job, filter, build)
}

func (p *Pipeline) level(path string, m grib.Message) volume.Level {
	key, _ := m.Pressure()
	return volume.Level{
		Key: key,
		Nx:  m.Nx,
		Ny:  m.Ny,
		Load: func(ctx context.Context) ([]float32, error) {
			vals, err := p.Decoder.Values(ctx, path, m)
			if err != nil {
				p.Metrics.LevelErrors.Inc()
				return nil, err
			}
			p.Metrics.LevelsDecoded.Inc()
			return vals, nil
		},
	}
}

func (p *Pipeline) run(ctx context.Context, kind string, job *config.Job, filter grib.Filter, build builder) (*store.Manifest, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}
	date, _ := job.RunDate()
	w, err := volume.NewWriter(job.Out, job.Format)
	if err != nil {
		return nil, err
	}

	tmp := p.Archive.TempFile
	if tmp == "" {
		tmp = config.DefaultTempFile
	}
	defer os.Remove(tmp)

	p.Metrics.JobRunning.Set(1)
	defer p.Metrics.JobRunning.Set(0)

	manifest := &store.Manifest{
		Job:      kind,
		Variable: job.Variable,
		Date:     job.Date,
		Hours:    job.Hours(),
	}
	if kind == "layer" {
		manifest.Levels = []int{job.Level}
	}

	log := p.Log.WithFields(logrus.Fields{"job": kind, "variable": job.Variable})
	log.WithFields(logrus.Fields{"date": job.Date, "hours": manifest.Hours, "out": w.Store.Dir()}).Info("starting extraction")

	for _, hour := range manifest.Hours {
		if err := ctx.Err(); err != nil {
			return manifest, err
		}
		run := fetch.NewRun(date, hour)
		if p.Archive.Model != "" {
			run.Model = p.Archive.Model
		}
		if p.Archive.Product != "" {
			run.Product = p.Archive.Product
		}
		run.Fxx = p.Archive.Fxx
		hlog := log.WithFields(logrus.Fields{"hour": hour, "run": run.String()})

		start := time.Now()
		if err := p.download(ctx, run, filter, tmp, hlog); err != nil {
			if errors.Is(err, volume.ErrNoData) {
				p.skip(manifest, run, filter, hlog)
				continue
			}
			return manifest, fmt.Errorf("hour %02d: %w", hour, err)
		}
		p.Metrics.StageDuration.WithLabelValues("fetch").Observe(time.Since(start).Seconds())

		start = time.Now()
		msgs, err := p.Decoder.Inventory(ctx, tmp)
		if err != nil {
			return manifest, fmt.Errorf("hour %02d: inventory: %w", hour, err)
		}
		g, base, err := build(ctx, tmp, msgs, date, hour)
		if errors.Is(err, volume.ErrNoData) {
			p.skip(manifest, run, filter, hlog)
			continue
		}
		if err != nil {
			return manifest, fmt.Errorf("hour %02d: %w", hour, err)
		}
		p.Metrics.StageDuration.WithLabelValues("decode").Observe(time.Since(start).Seconds())

		start = time.Now()
		path, err := w.Write(g, base)
		if err != nil {
			return manifest, fmt.Errorf("hour %02d: %w", hour, err)
		}
		p.Metrics.StageDuration.WithLabelValues("write").Observe(time.Since(start).Seconds())
		p.Metrics.FilesWritten.Inc()
		manifest.Files = append(manifest.Files, filepath.Base(path))
		hlog.WithFields(logrus.Fields{"file": path, "dims": g.Dims}).Info("saved grid")
	}

	manifest.Timestamp = time.Now().UTC()
	if err := w.Store.SaveManifest(manifest); err != nil {
		return manifest, err
	}
	p.Metrics.LastSuccessful.SetToCurrentTime()
	log.WithFields(logrus.Fields{"files": len(manifest.Files), "skipped": len(manifest.Skipped)}).Info("extraction finished")
	return manifest, nil
}

func (p *Pipeline) skip(m *store.Manifest, run fetch.Run, filter grib.Filter, log logrus.FieldLogger) {
	p.Metrics.StepsSkipped.Inc()
	m.Skipped = append(m.Skipped, run.String())
	if filter.Level != 0 {
		log.Warnf("No data found for %s at %d hPa", filter.Name, filter.Level)
		return
	}
	log.Warnf("No data found for %s", filter.Name)
}

// download fetches the run into dst. The archive inventory is always read
// first; in subset mode only the matching records are transferred.
func (p *Pipeline) download(ctx context.Context, run fetch.Run, filter grib.Filter, dst string, log logrus.FieldLogger) error {
	inv, err := p.Fetcher.Inventory(ctx, run)
	if err != nil {
		return fmt.Errorf("inventory: %w", err)
	}
	logHeights(inv, log)

	var n int64
	mode := "full"
	if p.Archive.Subset {
		mode = "subset"
		sel, err := grib.Select(inv, filter)
		if err != nil {
			return fmt.Errorf("%w: %v", volume.ErrNoData, err)
		}
		n, err = p.Fetcher.DownloadSubset(ctx, run, inv, sel, dst)
		if err != nil {
			p.Metrics.Downloads.WithLabelValues(mode, "error").Inc()
			return err
		}
	} else {
		n, err = p.Fetcher.Download(ctx, run, dst)
		if err != nil {
			p.Metrics.Downloads.WithLabelValues(mode, "error").Inc()
			return err
		}
	}
	p.Metrics.Downloads.WithLabelValues(mode, "success").Inc()
	p.Metrics.DownloadBytes.Add(float64(n))
	log.WithFields(logrus.Fields{"mode": mode, "bytes": n}).Info("downloaded")
	return nil
}

// logHeights prints the first geopotential height records of the archive
// inventory at debug level.
func logHeights(inv []grib.Message, log logrus.FieldLogger) {
	shown := 0
	for _, m := range inv {
		if m.Name != "HGT" {
			continue
		}
		log.Debug(m.String())
		if shown++; shown == 10 {
			return
		}
	}
}
