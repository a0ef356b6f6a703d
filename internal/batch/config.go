package batch

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
)

// File outcomes recorded in a Report.
const (
	StatusOK      = "ok"
	StatusNoText  = "no_text"
	StatusSkipped = "skipped" // unreadable input
	StatusFailed  = "failed"
)

// Config holds all configuration for batch processing.
type Config struct {
	// OutputDir receives <stem>.txt per input, mirroring the layout below each
	// discovered directory; empty writes next to each input.
	OutputDir string

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// Report settings
	Format     string // text, json or csv
	ReportFile string // empty writes the report to stdout

	// Progress settings
	Progress pipeline.ProgressCallback
	Quiet    bool

	// MetricsFile, when set, receives Prometheus metrics in textfile format.
	MetricsFile string
}

// FileReport is the outcome of one input file.
type FileReport struct {
	Input      string   `json:"input"`
	Output     string   `json:"output,omitempty"`
	Status     string   `json:"status"`
	Error      string   `json:"error,omitempty"`
	Angle      int      `json:"angle"`
	Chars      int      `json:"chars"`
	Words      int      `json:"words"`
	Lines      int      `json:"lines"`
	Confidence float64  `json:"confidence"`
	DurationMs float64  `json:"duration_ms"`
	Artifacts  []string `json:"artifacts,omitempty"`

	result *pipeline.FileResult
}

// Report holds the result of batch processing.
type Report struct {
	Engine   string        `json:"engine"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration_ns"`
	Files    []FileReport  `json:"files"`
}

// Succeeded counts files that produced a text output, including "no text" placeholders.
func (r *Report) Succeeded() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == StatusOK || f.Status == StatusNoText {
			n++
		}
	}
	return n
}

// Failures returns the skipped and failed files.
func (r *Report) Failures() []FileReport {
	var out []FileReport
	for _, f := range r.Files {
		if f.Status == StatusSkipped || f.Status == StatusFailed {
			out = append(out, f)
		}
	}
	return out
}

// Count returns the number of files with the given status.
func (r *Report) Count(status string) int {
	n := 0
	for _, f := range r.Files {
		if f.Status == status {
			n++
		}
	}
	return n
}

// HasFailed reports whether any file failed outright. Skipped files do not count.
func (r *Report) HasFailed() bool {
	return r.Count(StatusFailed) > 0
}

// Format renders the report in the given format.
func (r *Report) Format(format string) (string, error) {
	return formatReport(r, format)
}

// Save writes the formatted report to outputFile, or to w when outputFile is empty.
func (r *Report) Save(w io.Writer, format, outputFile string) error {
	output, err := r.Format(format)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(output), 0o600); err != nil {
			return fmt.Errorf("failed to write report file: %w", err)
		}
		return nil
	}
	_, err = fmt.Fprint(w, output)
	return err
}

// PrintStats prints a short summary with the pipeline profile.
func (r *Report) PrintStats(w io.Writer, profiler *pipeline.Profiler) {
	_, _ = fmt.Fprintf(w, "\nProcessing Statistics:\n")
	_, _ = fmt.Fprintf(w, "  Engine: %s\n", r.Engine)
	_, _ = fmt.Fprintf(w, "  Total files: %d\n", len(r.Files))
	_, _ = fmt.Fprintf(w, "  Succeeded: %d (no text: %d)\n", r.Succeeded(), r.Count(StatusNoText))
	_, _ = fmt.Fprintf(w, "  Skipped: %d\n", r.Count(StatusSkipped))
	_, _ = fmt.Fprintf(w, "  Failed: %d\n", r.Count(StatusFailed))
	_, _ = fmt.Fprintf(w, "  Duration: %v\n", r.Duration.Round(time.Millisecond))
	if n := len(r.Files); n > 0 {
		_, _ = fmt.Fprintf(w, "  Avg per file: %v\n", (r.Duration / time.Duration(n)).Round(time.Millisecond))
	}
	if profiler != nil {
		snap := profiler.Snapshot()
		_, _ = fmt.Fprintf(w, "  Rotated: %v\n", snap["rotated"])
		if v, ok := snap["rec_ms_per_file"]; ok {
			_, _ = fmt.Fprintf(w, "  Recognition per file: %.1fms\n", v)
		}
	}
}
