package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/heic2txt/internal/compare"
	"github.com/MeKo-Tech/heic2txt/internal/convert"
	"github.com/MeKo-Tech/heic2txt/internal/engine"
)

func newCompareCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <file>",
		Short: "Run several engines on one image and compare their output",
		Long: `Transcribe one image with every listed engine and compare the results:
character, word and line counts, a quality score, pairwise differences and
text similarity.

The comparison log is written to <name>_comparison.log and the best engine's
text to <name>.txt. Engines that cannot be started are reported and left out.

Examples:
  heic2txt compare IMG_0001.HEIC
  heic2txt compare IMG_0001.HEIC --engines easyocr,tesseract,paddleocr --preprocess`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompare(cmd, args[0])
		},
	}

	cmd.Flags().StringSlice("engines", nil, "engines to compare (default from config: easyocr, paddleocr)")
	cmd.Flags().StringP("output-dir", "o", "", "directory for the log and text (default: next to the input)")
	return cmd
}

func (a *app) runCompare(cmd *cobra.Command, input string) error {
	ctx := cmd.Context()
	names := a.cfg.Compare.Engines
	if cmd.Flags().Changed("engines") {
		names, _ = cmd.Flags().GetStringSlice("engines")
	}
	if len(names) == 0 {
		return errors.New("no engines to compare")
	}
	outDir, _ := cmd.Flags().GetString("output-dir")

	conv, err := convert.New(a.cfg.Convert.Tool)
	if err != nil {
		return err
	}
	vocab, err := a.cfg.LoadVocabulary()
	if err != nil {
		return err
	}

	var (
		engines  []engine.Engine
		firstErr error
	)
	defer func() {
		for _, e := range engines {
			_ = e.Close()
		}
	}()
	for _, name := range names {
		eng, err := a.newEngine(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			a.logger.Warn("engine unavailable, leaving it out", "engine", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		engines = append(engines, eng)
	}
	if len(engines) == 0 {
		return fmt.Errorf("no engine could be started: %w", firstErr)
	}

	report, err := compare.Run(ctx, input, engines, compare.Config{
		Pipeline:   a.cfg.ToPipelineConfig(),
		Converter:  conv,
		Vocabulary: vocab,
		Logger:     a.logger,
	})
	if err != nil {
		return err
	}

	if err := report.WriteLog(cmd.OutOrStdout()); err != nil {
		return err
	}
	logFile, textFile, err := report.Save(outDir)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "\nComparison log: %s\nBest text: %s\n", logFile, textFile)
	return nil
}
