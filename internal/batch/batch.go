// Package batch runs the pipeline over many input files, one at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/heic2txt/internal/metrics"
	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
)

// Process discovers the inputs and runs pl over each of them sequentially.
// A failing file is recorded in the report and the batch continues; only context
// cancellation stops it early, in which case the partial report is returned with the error.
func Process(ctx context.Context, pl *pipeline.Pipeline, inputs []string, config Config) (*Report, error) {
	images, err := DiscoverImages(inputs, config.Recursive, config.IncludePatterns, config.ExcludePatterns)
	if err != nil {
		return nil, fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return ProcessImages(ctx, pl, images, config)
}

// ProcessImages runs pl over discovered images. Output names are planned up front
// so that no input overwrites the text of another.
func ProcessImages(ctx context.Context, pl *pipeline.Pipeline, images []ImageFile, config Config) (*Report, error) {
	progress := config.Progress
	if progress == nil || config.Quiet {
		progress = pipeline.NoOpProgressCallback{}
	}
	var recorder *metrics.Recorder
	if config.MetricsFile != "" {
		recorder = metrics.New()
	}

	outputs := PlanOutputs(images, config.OutputDir)
	report := &Report{Engine: pl.EngineName(), Started: time.Now()}
	progress.OnStart(len(images))

	var runErr error
	for i, img := range images {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		path := img.Path
		fr := processOne(ctx, pl, path, outputs[i])
		if fr.Status == StatusFailed && ctx.Err() != nil {
			// the file was interrupted, not broken
			runErr = ctx.Err()
			break
		}
		report.Files = append(report.Files, fr)

		switch fr.Status {
		case StatusSkipped, StatusFailed:
			recorder.ObserveFailure(report.Engine, fr.Status)
			progress.OnError(i+1, path, errors.New(fr.Error))
		}
		progress.OnFile(i+1, len(images), path)
	}

	report.Duration = time.Since(report.Started)
	progress.OnComplete(report.Succeeded(), len(report.Failures()))

	if recorder != nil {
		for _, f := range report.Files {
			if f.result != nil {
				recorder.ObserveFile(f.result)
			}
		}
		recorder.ObserveBatch(report.Duration)
		if err := recorder.WriteTextfile(config.MetricsFile); err != nil {
			slog.Warn("failed to write metrics", "file", config.MetricsFile, "error", err)
		}
	}
	return report, runErr
}

func processOne(ctx context.Context, pl *pipeline.Pipeline, path, outFile string) FileReport {
	fr := FileReport{Input: path}
	if outFile == "" {
		err := fmt.Errorf("%w: %s", ErrOutputConflict, path)
		slog.Error("file failed", "file", path, "error", err)
		fr.Status = StatusFailed
		fr.Error = err.Error()
		return fr
	}

	start := time.Now()
	res, err := pl.ProcessFile(ctx, path, outFile)
	fr.DurationMs = float64(time.Since(start).Microseconds()) / 1000.0

	switch {
	case errors.Is(err, pipeline.ErrUnreadableImage):
		slog.Warn("skipping unreadable image", "file", path, "error", err)
		fr.Status = StatusSkipped
		fr.Error = err.Error()
		return fr
	case err != nil:
		slog.Error("file failed", "file", path, "error", err)
		fr.Status = StatusFailed
		fr.Error = err.Error()
		return fr
	}

	fr.result = res
	fr.Output = res.Output
	fr.Status = StatusOK
	if res.NoText {
		fr.Status = StatusNoText
	}
	fr.Chars = res.Stats.Chars
	fr.Words = res.Stats.Words
	fr.Lines = res.Stats.Lines
	fr.Artifacts = res.Artifacts
	if res.Image != nil {
		fr.Angle = res.Image.Orientation.Angle
		fr.Confidence = res.Image.Confidence
	}
	return fr
}
