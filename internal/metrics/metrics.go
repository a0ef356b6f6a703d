// Package metrics records batch statistics as Prometheus metrics and writes them
// in the node_exporter textfile format.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
)

// File outcome labels.
const (
	StatusOK      = "ok"
	StatusNoText  = "no_text"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// Recorder holds the metrics of one run in its own registry.
// A nil *Recorder ignores every observation.
type Recorder struct {
	reg *prometheus.Registry

	filesTotal       *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	textLength       *prometheus.HistogramVec
	orientationTotal *prometheus.CounterVec
	batchDuration    prometheus.Gauge
	lastRun          prometheus.Gauge
}

// New creates a recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		reg: reg,
		filesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heic2txt_files_total",
				Help: "Total number of processed input files",
			},
			[]string{"engine", "status"}, // status: ok, no_text, skipped, failed
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heic2txt_stage_duration_seconds",
				Help:    "Per-file processing duration by pipeline stage",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"engine", "stage"}, // stage: convert, preprocess, orientation, recognition, total
		),
		textLength: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "heic2txt_text_length_chars",
				Help:    "Length of recognized text in characters",
				Buckets: []float64{0, 10, 50, 100, 500, 1000, 5000, 10000},
			},
			[]string{"engine"},
		),
		orientationTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "heic2txt_orientation_total",
				Help: "Selected page orientation per file",
			},
			[]string{"angle"},
		),
		batchDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heic2txt_batch_duration_seconds",
			Help: "Wall-clock duration of the last batch",
		}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "heic2txt_last_run_timestamp_seconds",
			Help: "Unix time the last batch finished",
		}),
	}
}

// Registry exposes the underlying registry, e.g. for testutil.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// ObserveFile records a successfully processed file.
func (r *Recorder) ObserveFile(res *pipeline.FileResult) {
	if r == nil || res == nil {
		return
	}
	status := StatusOK
	if res.NoText {
		status = StatusNoText
	}
	r.filesTotal.WithLabelValues(res.Engine, status).Inc()
	r.observeStage(res.Engine, "convert", res.ConvertNs)
	r.observeStage(res.Engine, "total", res.TotalNs)
	r.textLength.WithLabelValues(res.Engine).Observe(float64(res.Stats.Chars))
	if img := res.Image; img != nil {
		if img.Processing.PreprocessNs > 0 {
			r.observeStage(res.Engine, "preprocess", img.Processing.PreprocessNs)
		}
		r.observeStage(res.Engine, "orientation", img.Processing.OrientationNs)
		r.observeStage(res.Engine, "recognition", img.Processing.RecognitionNs)
		r.orientationTotal.WithLabelValues(strconv.Itoa(img.Orientation.Angle)).Inc()
	}
}

func (r *Recorder) observeStage(engine, stage string, ns int64) {
	r.stageDuration.WithLabelValues(engine, stage).Observe(time.Duration(ns).Seconds())
}

// ObserveFailure records a file that was skipped or failed.
func (r *Recorder) ObserveFailure(engine, status string) {
	if r == nil {
		return
	}
	r.filesTotal.WithLabelValues(engine, status).Inc()
}

// ObserveBatch records the end of a batch.
func (r *Recorder) ObserveBatch(d time.Duration) {
	if r == nil {
		return
	}
	r.batchDuration.Set(d.Seconds())
	r.lastRun.SetToCurrentTime()
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
