package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
	"github.com/MeKo-Tech/heic2txt/internal/textutil"
)

func fileResult(engine string, angle int, noText bool) *pipeline.FileResult {
	res := &pipeline.FileResult{
		Engine:    engine,
		NoText:    noText,
		Stats:     textutil.Stats{Chars: 42},
		ConvertNs: int64(20 * time.Millisecond),
		TotalNs:   int64(200 * time.Millisecond),
		Image:     &pipeline.ImageResult{},
	}
	res.Image.Orientation.Angle = angle
	res.Image.Processing.RecognitionNs = int64(150 * time.Millisecond)
	return res
}

func TestRecorder_ObserveFile(t *testing.T) {
	r := New()
	r.ObserveFile(fileResult("tesseract", 0, false))
	r.ObserveFile(fileResult("tesseract", 180, false))
	r.ObserveFile(fileResult("tesseract", 0, true))
	r.ObserveFailure("tesseract", StatusSkipped)
	r.ObserveFailure("tesseract", StatusFailed)

	assert.InDelta(t, 2, promtestutil.ToFloat64(r.filesTotal.WithLabelValues("tesseract", StatusOK)), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(r.filesTotal.WithLabelValues("tesseract", StatusNoText)), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(r.filesTotal.WithLabelValues("tesseract", StatusSkipped)), 0)
	assert.InDelta(t, 2, promtestutil.ToFloat64(r.orientationTotal.WithLabelValues("0")), 0)
	assert.InDelta(t, 1, promtestutil.ToFloat64(r.orientationTotal.WithLabelValues("180")), 0)

	// convert, total, orientation and recognition; preprocess was not timed
	assert.Equal(t, 4, promtestutil.CollectAndCount(r.stageDuration))
}

func TestRecorder_WriteTextfile(t *testing.T) {
	r := New()
	r.ObserveFile(fileResult("easyocr", 90, false))
	r.ObserveBatch(1500 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "textfile", "heic2txt.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path) //nolint:gosec // test output
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, `heic2txt_files_total{engine="easyocr",status="ok"} 1`)
	assert.Contains(t, out, "heic2txt_batch_duration_seconds 1.5")
	assert.Contains(t, out, "heic2txt_last_run_timestamp_seconds")
	assert.Contains(t, out, `heic2txt_orientation_total{angle="90"} 1`)
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.ObserveFile(fileResult("x", 0, false))
	r.ObserveFailure("x", StatusFailed)
	r.ObserveBatch(time.Second)
	assert.NoError(t, r.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
}
