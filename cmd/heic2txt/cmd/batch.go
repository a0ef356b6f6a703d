package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/heic2txt/internal/batch"
	"github.com/MeKo-Tech/heic2txt/internal/config"
	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
)

func newBatchCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <dir|files...>",
		Short: "Transcribe every image in a directory",
		Long: `Transcribe all supported images found in the given directories and files,
one after another with a single engine instance.

A failing file is reported and the batch continues. Unreadable images are
skipped with a warning. The exit code is 1 when any file failed.

Supported formats: HEIC, HEIF, JPEG, PNG, BMP, TIFF

Examples:
  heic2txt batch ./photos
  heic2txt batch ./photos --recursive --output-dir texts
  heic2txt batch ./photos --format json --report report.json
  heic2txt batch ./photos --include 'IMG_*' --exclude '*_edited*' --progress
  heic2txt batch ./photos --metrics-file /var/lib/node_exporter/heic2txt.prom`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBatch(cmd, args)
		},
	}

	cmd.Flags().StringP("output-dir", "o", "", "directory for the text files (default: next to each input)")
	cmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	cmd.Flags().StringSlice("include", nil, "only process files matching these glob patterns")
	cmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")
	cmd.Flags().StringP("format", "f", "text", "report format (text, json, csv)")
	cmd.Flags().String("report", "", "write the report to this file instead of stdout")
	cmd.Flags().Bool("progress", false, "show a progress bar on stderr")
	cmd.Flags().Bool("stats", false, "print processing statistics after the report")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics in textfile format")
	cmd.Flags().BoolP("quiet", "q", false, "suppress progress output")
	return cmd
}

// configToBatchConfig maps the loaded configuration to batch.Config.
// Flags given on the command line override the file and environment. Progress is
// always logged at debug level; --progress adds the bar on stderr.
func configToBatchConfig(cfg *config.Config, cmd *cobra.Command, logger *slog.Logger) batch.Config {
	bc := cfg.ToBatchConfig()

	if cmd.Flags().Changed("output-dir") {
		bc.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("recursive") {
		bc.Recursive, _ = cmd.Flags().GetBool("recursive")
	}
	if cmd.Flags().Changed("include") {
		bc.IncludePatterns, _ = cmd.Flags().GetStringSlice("include")
	}
	if cmd.Flags().Changed("exclude") {
		bc.ExcludePatterns, _ = cmd.Flags().GetStringSlice("exclude")
	}
	if cmd.Flags().Changed("format") {
		bc.Format, _ = cmd.Flags().GetString("format")
	}
	if cmd.Flags().Changed("report") {
		bc.ReportFile, _ = cmd.Flags().GetString("report")
	}
	if cmd.Flags().Changed("metrics-file") {
		bc.MetricsFile, _ = cmd.Flags().GetString("metrics-file")
	}

	showProgress := cfg.Batch.Progress
	if cmd.Flags().Changed("progress") {
		showProgress, _ = cmd.Flags().GetBool("progress")
	}
	progress := pipeline.NewMultiProgressCallback(
		pipeline.NewLogProgressCallback(logger, slog.LevelDebug).WithInterval(10),
	)
	if showProgress {
		progress.Add(pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Transcribing"))
	}
	bc.Progress = progress
	bc.Quiet, _ = cmd.Flags().GetBool("quiet")
	return bc
}

func (a *app) runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	bc := configToBatchConfig(a.cfg, cmd, a.logger)

	files, err := batch.DiscoverImages(args, bc.Recursive, bc.IncludePatterns, bc.ExcludePatterns)
	if err != nil {
		return fmt.Errorf("failed to discover image files: %w", err)
	}
	if len(files) == 0 {
		return batch.ErrNoImages
	}
	a.logger.Info("starting batch", "files", len(files), "engine", a.cfg.Engine.Name)

	profiler := &pipeline.Profiler{}
	pl, err := a.newPipeline(ctx, profiler)
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	report, runErr := batch.ProcessImages(ctx, pl, files, bc)
	if report == nil {
		return runErr
	}
	if err := report.Save(cmd.OutOrStdout(), bc.Format, bc.ReportFile); err != nil {
		return err
	}
	if stats, _ := cmd.Flags().GetBool("stats"); stats {
		report.PrintStats(cmd.ErrOrStderr(), profiler)
	}

	if runErr != nil {
		return fmt.Errorf("batch interrupted after %d of %d files: %w", len(report.Files), len(files), runErr)
	}
	if report.HasFailed() {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, report.Count(batch.StatusFailed), len(files))
	}
	if skipped := report.Count(batch.StatusSkipped); skipped > 0 {
		a.logger.Warn("some images were skipped", "skipped", skipped)
	}
	return nil
}
