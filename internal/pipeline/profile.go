package pipeline

import (
	"sync/atomic"
)

// Profiler aggregates stage timings across processed files.
type Profiler struct {
	ConvertTimeNs     atomic.Int64
	PreprocessTimeNs  atomic.Int64
	OrientationTimeNs atomic.Int64
	RecognitionTimeNs atomic.Int64
	FilesProcessed    atomic.Int64
	FilesRotated      atomic.Int64
	FilesWithoutText  atomic.Int64
}

// Record adds the timings of one file.
func (p *Profiler) Record(r *FileResult) {
	if p == nil || r == nil {
		return
	}
	p.ConvertTimeNs.Add(r.ConvertNs)
	p.FilesProcessed.Add(1)
	if r.NoText {
		p.FilesWithoutText.Add(1)
	}
	if r.Image == nil {
		return
	}
	p.PreprocessTimeNs.Add(r.Image.Processing.PreprocessNs)
	p.OrientationTimeNs.Add(r.Image.Processing.OrientationNs)
	p.RecognitionTimeNs.Add(r.Image.Processing.RecognitionNs)
	if r.Image.Orientation.Applied {
		p.FilesRotated.Add(1)
	}
}

// Snapshot returns cumulative metrics in milliseconds for readability.
func (p *Profiler) Snapshot() map[string]any {
	files := p.FilesProcessed.Load()
	conv := p.ConvertTimeNs.Load()
	orient := p.OrientationTimeNs.Load()
	rec := p.RecognitionTimeNs.Load()
	out := map[string]any{
		"files":               files,
		"rotated":             p.FilesRotated.Load(),
		"no_text":             p.FilesWithoutText.Load(),
		"convert_ms_total":    conv / 1_000_000,
		"preprocess_ms_total": p.PreprocessTimeNs.Load() / 1_000_000,
		"orient_ms_total":     orient / 1_000_000,
		"rec_ms_total":        rec / 1_000_000,
	}
	if files > 0 {
		out["convert_ms_per_file"] = float64(conv) / 1_000_000.0 / float64(files)
		out["orient_ms_per_file"] = float64(orient) / 1_000_000.0 / float64(files)
		out["rec_ms_per_file"] = float64(rec) / 1_000_000.0 / float64(files)
	}
	return out
}
