package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Formats lists the report formats.
var Formats = []string{"text", "json", "csv"}

// formatReport renders r in the specified format.
func formatReport(r *Report, format string) (string, error) {
	switch strings.ToLower(format) {
	case "json":
		return formatJSON(r)
	case "csv":
		return formatCSV(r)
	case "text", "":
		return formatText(r), nil
	}
	return "", fmt.Errorf("unknown report format %q (available: %s)", format, strings.Join(Formats, ", "))
}

func formatJSON(r *Report) (string, error) {
	out := struct {
		*Report
		Summary struct {
			Total     int `json:"total"`
			Succeeded int `json:"succeeded"`
			NoText    int `json:"no_text"`
			Skipped   int `json:"skipped"`
			Failed    int `json:"failed"`
		} `json:"summary"`
	}{Report: r}
	out.Summary.Total = len(r.Files)
	out.Summary.Succeeded = r.Succeeded()
	out.Summary.NoText = r.Count(StatusNoText)
	out.Summary.Skipped = r.Count(StatusSkipped)
	out.Summary.Failed = r.Count(StatusFailed)

	bts, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(bts) + "\n", nil
}

func formatCSV(r *Report) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write([]string{
		"file", "output", "status", "angle", "chars", "words", "lines", "confidence", "duration_ms", "error",
	}); err != nil {
		return "", err
	}
	for _, f := range r.Files {
		row := []string{
			f.Input,
			f.Output,
			f.Status,
			strconv.Itoa(f.Angle),
			strconv.Itoa(f.Chars),
			strconv.Itoa(f.Words),
			strconv.Itoa(f.Lines),
			fmt.Sprintf("%.3f", f.Confidence),
			fmt.Sprintf("%.1f", f.DurationMs),
			f.Error,
		}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

func formatText(r *Report) string {
	var output strings.Builder
	for _, f := range r.Files {
		switch f.Status {
		case StatusOK:
			fmt.Fprintf(&output, "OK       %s -> %s (%d chars, %d°)\n", f.Input, f.Output, f.Chars, f.Angle)
		case StatusNoText:
			fmt.Fprintf(&output, "NO TEXT  %s -> %s\n", f.Input, f.Output)
		case StatusSkipped:
			fmt.Fprintf(&output, "SKIPPED  %s: %s\n", f.Input, f.Error)
		default:
			fmt.Fprintf(&output, "FAILED   %s: %s\n", f.Input, f.Error)
		}
	}
	fmt.Fprintf(&output, "\n%d files: %d succeeded, %d skipped, %d failed in %v\n",
		len(r.Files), r.Succeeded(), r.Count(StatusSkipped), r.Count(StatusFailed), r.Duration.Round(time.Millisecond))
	return output.String()
}
