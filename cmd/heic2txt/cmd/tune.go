package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/heic2txt/internal/convert"
	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
	"github.com/MeKo-Tech/heic2txt/internal/tune"
)

func newTuneCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tune <dir>",
		Short: "Grid-search EasyOCR thresholds against ground-truth transcripts",
		Long: `Search the EasyOCR detector thresholds (text_threshold, low_text,
link_threshold) for the combination that best reproduces ground truth.

The directory must hold images with a matching transcript: IMG_0001.HEIC next
to IMG_0001.txt. Each combination is scored by the mean of character sequence
similarity and word overlap. The results are written to
<output-dir>/optimization_results.json; pass that file to --params-file to use
the best combination.

Examples:
  heic2txt tune ./ground-truth
  heic2txt tune ./ground-truth --max-files 3 --output-dir results`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTune(cmd, args[0])
		},
	}

	cmd.Flags().Int("max-files", 10, "maximum number of samples to evaluate (0 for all)")
	cmd.Flags().StringP("output-dir", "o", "optimization_results", "directory for optimization_results.json")
	cmd.Flags().Int("top", 5, "number of best combinations to print")
	cmd.Flags().Bool("progress", false, "show a progress bar on stderr")
	return cmd
}

func (a *app) runTune(cmd *cobra.Command, dir string) error {
	tc := a.cfg.ToTuneConfig()
	outDir := a.cfg.Tune.OutputDir
	if cmd.Flags().Changed("max-files") {
		tc.MaxFiles, _ = cmd.Flags().GetInt("max-files")
	}
	if cmd.Flags().Changed("output-dir") {
		outDir, _ = cmd.Flags().GetString("output-dir")
	}
	if p, _ := cmd.Flags().GetBool("progress"); p {
		tc.Progress = pipeline.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Tuning")
	}

	conv, err := convert.New(a.cfg.Convert.Tool)
	if err != nil {
		return err
	}
	tc.Converter = conv
	tc.Logger = a.logger

	name := a.cfg.Engine.Name
	tc.Factory = func(ctx context.Context, params engine.EasyOCRParams) (engine.Engine, error) {
		opts, err := a.cfg.ToEngineOptions()
		if err != nil {
			return nil, err
		}
		opts.EasyOCR = params
		return engine.New(ctx, name, opts)
	}

	results, err := tune.Run(cmd.Context(), dir, tc)
	if err != nil {
		return err
	}
	path, err := tune.Save(results, outDir)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "Tested %d combinations on %d files\n", len(tc.Combinations()), len(results.TestFiles))
	if results.BestCombination == nil {
		_, _ = fmt.Fprintln(w, "No combination produced a usable result")
	} else {
		p := results.BestCombination.Parameters
		_, _ = fmt.Fprintf(w, "Best: text_threshold=%.2f low_text=%.2f link_threshold=%.2f (score %.3f)\n",
			p.TextThreshold, p.LowText, p.LinkThreshold, results.BestCombination.CombinedScore)
	}
	top, _ := cmd.Flags().GetInt("top")
	for i, c := range tune.Top(results, top) {
		_, _ = fmt.Fprintf(w, "%2d. text=%.2f low=%.2f link=%.2f  score=%.3f  seq=%.3f  words=%.3f  (%d/%d)\n",
			i+1, c.Parameters.TextThreshold, c.Parameters.LowText, c.Parameters.LinkThreshold,
			c.CombinedScore, c.AvgSequenceRatio, c.AvgWordRatio, c.SuccessfulTests, c.TotalTests)
	}
	_, _ = fmt.Fprintf(w, "Results saved to %s\n", path)
	return nil
}
