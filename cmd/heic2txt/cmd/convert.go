package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/heic2txt/internal/batch"
	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
)

func newConvertCommand(a *app) *cobra.Command {
	var (
		output string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "convert [files...]",
		Short: "Transcribe HEIC images into text files",
		Long: `Transcribe one or more images. Each input is written to <name>.txt next to
the input, or into the directory given with --output. Inputs sharing a name,
such as scan.HEIC and scan.png, keep their extension (scan.HEIC.txt). With a
single input, --output may name the text file itself.

Unreadable images are skipped with a warning. The exit code is 1 when any
other file fails and 2 when the engine cannot be started.

Examples:
  heic2txt convert IMG_0001.HEIC
  heic2txt convert IMG_0001.HEIC -o notes.txt
  heic2txt convert *.HEIC -o texts/ --engine tesseract --no-rotate`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConvert(cmd.Context(), cmd.OutOrStdout(), args, output, asJSON)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output directory, or a .txt file for a single input")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print per-file results as JSON instead of a summary line")
	return cmd
}

func (a *app) runConvert(ctx context.Context, w io.Writer, files []string, output string, asJSON bool) error {
	toFile := strings.EqualFold(filepath.Ext(output), ".txt")
	if toFile && len(files) > 1 {
		return fmt.Errorf("--output %s names a file but %d inputs were given", output, len(files))
	}

	pl, err := a.newPipeline(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	targets := []string{output}
	if !toFile {
		targets = batch.PlanOutputs(batch.ExplicitImages(files), output)
	}

	var (
		results []*pipeline.FileResult
		failed  int
	)
	for i, file := range files {
		var res *pipeline.FileResult
		if target := targets[i]; target != "" {
			res, err = pl.ProcessFile(ctx, file, target)
		} else {
			err = fmt.Errorf("%w: %s", batch.ErrOutputConflict, file)
		}

		switch {
		case errors.Is(err, pipeline.ErrUnreadableImage):
			a.logger.Warn("skipping unreadable image", "file", file, "error", err)
			continue
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			a.logger.Error("file failed", "file", file, "error", err)
			failed++
			continue
		}

		results = append(results, res)
		if !asJSON {
			_, _ = fmt.Fprintln(w, summaryLine(res))
		}
	}

	if asJSON && len(results) > 0 {
		out, err := pipeline.ToJSON(results...)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(w, out)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrFilesFailed, failed, len(files))
	}
	return nil
}

func summaryLine(res *pipeline.FileResult) string {
	if res.NoText {
		return fmt.Sprintf("%s -> %s (no text detected)", res.Input, res.Output)
	}
	angle := 0
	if res.Image != nil {
		angle = res.Image.Orientation.Angle
	}
	return fmt.Sprintf("%s -> %s (%d chars, %d°)", res.Input, res.Output, res.Stats.Chars, angle)
}
