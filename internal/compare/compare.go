// Package compare runs several engines over the same image and ranks their output.
package compare

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/MeKo-Tech/heic2txt/internal/convert"
	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
	"github.com/MeKo-Tech/heic2txt/internal/textutil"
	"github.com/MeKo-Tech/heic2txt/internal/vocabulary"
)

// Config controls how each engine is run.
type Config struct {
	Pipeline   pipeline.Config
	Converter  convert.Converter
	Vocabulary *vocabulary.List
	Logger     *slog.Logger
}

// EngineResult is the outcome of one engine on the compared image.
type EngineResult struct {
	Engine   string         `json:"engine"`
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Text     string         `json:"text"`
	Stats    textutil.Stats `json:"stats"`
	Quality  float64        `json:"quality_score"`
	Angle    int            `json:"angle"`
	Duration time.Duration  `json:"duration_ns"`
}

// Difference compares two successful engines.
type Difference struct {
	A              string  `json:"a"`
	B              string  `json:"b"`
	MeaningfulDiff int     `json:"meaningful_chars_diff"`
	WordsDiff      int     `json:"words_diff"`
	LinesDiff      int     `json:"lines_diff"`
	QualityDiff    float64 `json:"quality_score_diff"`
	Similarity     float64 `json:"similarity"`
	Better         string  `json:"better_engine"`
}

// Report is the full comparison of one input.
type Report struct {
	File        string         `json:"file"`
	Date        time.Time      `json:"date"`
	AutoRotate  bool           `json:"auto_rotate"`
	Preprocess  bool           `json:"preprocess"`
	Results     []EngineResult `json:"results"`
	Differences []Difference   `json:"differences"`
	Best        string         `json:"best_engine,omitempty"`
	QualityGap  float64        `json:"quality_gap"`
}

// BestResult returns the result of the best engine, or nil when no engine produced usable text.
func (r *Report) BestResult() *EngineResult {
	for i := range r.Results {
		if r.Results[i].Engine == r.Best {
			return &r.Results[i]
		}
	}
	return nil
}

// Successful counts engines that ran without error.
func (r *Report) Successful() int {
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Run converts input once and transcribes it with every engine in order.
// An engine error is recorded in its result; only conversion failures and
// cancellation abort the comparison. The caller keeps ownership of engines.
func Run(ctx context.Context, input string, engines []engine.Engine, cfg Config) (*Report, error) {
	if len(engines) == 0 {
		return nil, errors.New("no engines to compare")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	conv := cfg.Converter
	if conv == nil {
		conv = convert.NewAuto()
	}

	img, err := conv.Convert(ctx, input)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("convert %s: %w", input, err)
	}

	report := &Report{
		File:       input,
		Date:       time.Now(),
		AutoRotate: cfg.Pipeline.Orientation.Enabled,
		Preprocess: cfg.Pipeline.Preprocess,
	}
	for _, eng := range engines {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res := runEngine(ctx, img, eng, conv, cfg, logger)
		if !res.Success && ctx.Err() != nil {
			return report, ctx.Err()
		}
		report.Results = append(report.Results, res)
	}
	analyze(report)
	return report, nil
}

func runEngine(ctx context.Context, img image.Image, eng engine.Engine, conv convert.Converter, cfg Config, logger *slog.Logger) EngineResult {
	res := EngineResult{Engine: eng.Name()}
	pl, err := pipeline.NewBuilder().
		WithConfig(cfg.Pipeline).
		WithEngine(eng).
		WithConverter(conv).
		WithVocabulary(cfg.Vocabulary).
		WithLogger(logger).
		Build()
	if err != nil {
		res.Error = err.Error()
		return res
	}

	start := time.Now()
	out, err := pl.ProcessImage(ctx, img)
	res.Duration = time.Since(start)
	if err != nil {
		logger.Warn("engine failed", "engine", res.Engine, "error", err)
		res.Error = err.Error()
		return res
	}

	res.Success = true
	res.Text = out.Text
	res.Stats = textutil.ComputeStats(out.Text)
	res.Quality = textutil.QualityScore(out.Text)
	res.Angle = out.Orientation.Angle
	logger.Info("engine finished", "engine", res.Engine, "meaningful", res.Stats.Meaningful,
		"words", res.Stats.Words, "lines", res.Stats.Lines, "quality", res.Quality)
	return res
}

// analyze picks the best engine and fills in pairwise differences.
// The best engine is the first with the highest positive quality score.
func analyze(r *Report) {
	best := 0.0
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, res := range r.Results {
		if !res.Success {
			continue
		}
		if res.Quality > best {
			best = res.Quality
			r.Best = res.Engine
		}
		lo = math.Min(lo, res.Quality)
		hi = math.Max(hi, res.Quality)
	}
	if r.Successful() > 0 {
		r.QualityGap = hi - lo
	}

	r.Differences = nil
	for i, a := range r.Results {
		for _, b := range r.Results[i+1:] {
			if !a.Success || !b.Success {
				continue
			}
			d := Difference{
				A:              a.Engine,
				B:              b.Engine,
				MeaningfulDiff: a.Stats.Meaningful - b.Stats.Meaningful,
				WordsDiff:      a.Stats.Words - b.Stats.Words,
				LinesDiff:      a.Stats.Lines - b.Stats.Lines,
				QualityDiff:    a.Quality - b.Quality,
				Similarity:     textutil.Similarity(a.Text, b.Text),
				Better:         b.Engine,
			}
			if a.Quality > b.Quality {
				d.Better = a.Engine
			}
			r.Differences = append(r.Differences, d)
		}
	}
}
