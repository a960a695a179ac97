package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms and gauges of an
// extraction job. Jobs are short-lived, so metrics live in a private
// registry and are flushed to a textfile at the end of the run.
type Metrics struct {
	Downloads      *prometheus.CounterVec // labels: mode={full,subset}, outcome={success,error}
	DownloadBytes  prometheus.Counter
	LevelsDecoded  prometheus.Counter
	LevelErrors    prometheus.Counter
	FilesWritten   prometheus.Counter
	StepsSkipped   prometheus.Counter
	StageDuration  *prometheus.HistogramVec // labels: stage={fetch,decode,write}
	JobRunning     prometheus.Gauge
	LastSuccessful prometheus.Gauge

	registry *prometheus.Registry
}

func newMetrics() *Metrics {
	return &Metrics{
		Downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "atmovis",
			Name:      "downloads_total",
			Help:      "GRIB2 downloads by mode and outcome.",
		}, []string{"mode", "outcome"}),
		DownloadBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atmovis",
			Name:      "download_bytes_total",
			Help:      "Bytes received from the forecast archive.",
		}),
		LevelsDecoded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atmovis",
			Name:      "levels_decoded_total",
			Help:      "Pressure levels decoded into grids.",
		}),
		LevelErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atmovis",
			Name:      "level_errors_total",
			Help:      "Pressure levels that failed to decode and were zero-filled.",
		}),
		FilesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atmovis",
			Name:      "files_written_total",
			Help:      "Grid files written.",
		}),
		StepsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "atmovis",
			Name:      "timesteps_skipped_total",
			Help:      "Timesteps skipped because no matching data was found.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "atmovis",
			Name:      "stage_duration_seconds",
			Help:      "Duration of each pipeline stage per timestep.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		JobRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atmovis",
			Name:      "job_running",
			Help:      "1 while an extraction job is active.",
		}),
		LastSuccessful: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "atmovis",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last job that completed without error.",
		}),
	}
}

// NewMetrics creates the job metrics and registers them with a fresh
// registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.Downloads,
		m.DownloadBytes,
		m.LevelsDecoded,
		m.LevelErrors,
		m.FilesWritten,
		m.StepsSkipped,
		m.StageDuration,
		m.JobRunning,
		m.LastSuccessful,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// WriteTextfile writes the registry in the node exporter textfile format.
// Metrics without a registry write nothing.
func (m *Metrics) WriteTextfile(path string) error {
	if m.registry == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
