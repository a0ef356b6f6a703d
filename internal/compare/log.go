package compare

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
)

const ruler = "=================================================="

// LogPath returns <outDir>/<stem>_comparison.log for input.
func LogPath(input, outDir string) string {
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	return filepath.Join(outDir, pipeline.Stem(input)+"_comparison.log")
}

// WriteLog renders the human-readable comparison log.
func (r *Report) WriteLog(w io.Writer) error {
	var b strings.Builder
	fmt.Fprintf(&b, "OCR Engine Comparison Results\n")
	fmt.Fprintf(&b, "File: %s\n", filepath.Base(r.File))
	fmt.Fprintf(&b, "Date: %s\n", r.Date.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Auto-rotation: %s\n", enabled(r.AutoRotate))
	fmt.Fprintf(&b, "Image preprocessing: %s\n", enabled(r.Preprocess))
	fmt.Fprintf(&b, "\n%s\n\n", ruler)

	for _, res := range r.Results {
		fmt.Fprintf(&b, "%s Results:\n", strings.ToUpper(res.Engine))
		fmt.Fprintf(&b, "  Success: %t\n", res.Success)
		fmt.Fprintf(&b, "  Total characters: %d\n", res.Stats.Chars)
		fmt.Fprintf(&b, "  Meaningful characters: %d\n", res.Stats.Meaningful)
		fmt.Fprintf(&b, "  Words: %d\n", res.Stats.Words)
		fmt.Fprintf(&b, "  Lines: %d\n", res.Stats.Lines)
		fmt.Fprintf(&b, "  Quality score: %.1f\n", res.Quality)
		if res.Success {
			fmt.Fprintf(&b, "  Rotation: %d°\n", res.Angle)
			fmt.Fprintf(&b, "  Duration: %v\n", res.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(&b, "  Error: %s\n", res.Error)
		}
		b.WriteString("\n")
	}

	best := r.Best
	if best == "" {
		best = "none"
	}
	fmt.Fprintf(&b, "Analysis:\n")
	fmt.Fprintf(&b, "  Best engine: %s\n", best)
	fmt.Fprintf(&b, "  Quality gap: %.1f points\n", r.QualityGap)
	b.WriteString("\n")

	for _, d := range r.Differences {
		fmt.Fprintf(&b, "%s vs %s:\n", strings.ToUpper(d.A), strings.ToUpper(d.B))
		fmt.Fprintf(&b, "  Character difference: %+d\n", d.MeaningfulDiff)
		fmt.Fprintf(&b, "  Word difference: %+d\n", d.WordsDiff)
		fmt.Fprintf(&b, "  Line difference: %+d\n", d.LinesDiff)
		fmt.Fprintf(&b, "  Quality difference: %+.1f\n", d.QualityDiff)
		fmt.Fprintf(&b, "  Text similarity: %.1f%%\n", d.Similarity)
		fmt.Fprintf(&b, "  Winner: %s\n", d.Better)
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Save writes the comparison log and the best engine's text into outDir
// (the input's directory when empty). It returns the paths written.
func (r *Report) Save(outDir string) (logFile, textFile string, err error) {
	logFile = LogPath(r.File, outDir)
	textFile = pipeline.OutputPath(r.File, outDir)
	if err := os.MkdirAll(filepath.Dir(logFile), 0o750); err != nil {
		return "", "", fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600) //nolint:gosec // G304: output path built from input stem
	if err != nil {
		return "", "", fmt.Errorf("create comparison log: %w", err)
	}
	if err := r.WriteLog(f); err != nil {
		_ = f.Close()
		return "", "", fmt.Errorf("write comparison log: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", "", fmt.Errorf("close comparison log: %w", err)
	}

	text := pipeline.NoTextPlaceholder
	if best := r.BestResult(); best != nil && strings.TrimSpace(best.Text) != "" {
		text = best.Text
	}
	if err := os.WriteFile(textFile, []byte(text), 0o600); err != nil {
		return "", "", fmt.Errorf("write text output: %w", err)
	}
	return logFile, textFile, nil
}

func enabled(b bool) string {
	if b {
		return "Enabled"
	}
	return "Disabled"
}
