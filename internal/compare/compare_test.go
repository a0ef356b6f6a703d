package compare

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
	"github.com/MeKo-Tech/heic2txt/internal/testutil"
)

const terraform = "resource \"aws_s3_bucket\" \"logs\" {\n  bucket = \"app-logs\"\n}"

func testConfig() Config {
	return Config{Pipeline: pipeline.DefaultConfig(), Converter: testutil.PNGConverter{}}
}

func writePage(t *testing.T, rotation int) string {
	t.Helper()
	cfg := testutil.DefaultTestImageConfig()
	cfg.Rotation = rotation
	return testutil.WriteImage(t, t.TempDir(), "IMG_2001.HEIC", testutil.MustTextImage(t, cfg))
}

func TestRun_PicksBestEngine(t *testing.T) {
	input := writePage(t, 90)
	good := testutil.NewScriptedEngine("easyocr", terraform)
	noisy := testutil.NewScriptedEngine("paddleocr", "| ° § ± |")
	broken := testutil.NewScriptedEngine("vision", "")
	broken.Err = assert.AnError

	report, err := Run(context.Background(), input, []engine.Engine{noisy, broken, good}, testConfig())
	require.NoError(t, err)
	require.Len(t, report.Results, 3)

	assert.Equal(t, "easyocr", report.Best)
	assert.Equal(t, 2, report.Successful())
	assert.False(t, report.Results[1].Success)
	assert.NotEmpty(t, report.Results[1].Error)

	best := report.BestResult()
	require.NotNil(t, best)
	assert.Equal(t, terraform, best.Text)
	assert.Equal(t, 270, best.Angle)
	assert.Positive(t, best.Quality)
	assert.InDelta(t, best.Quality-report.Results[0].Quality, report.QualityGap, 1e-9)

	require.Len(t, report.Differences, 1, "only successful pairs are compared")
	d := report.Differences[0]
	assert.Equal(t, "paddleocr", d.A)
	assert.Equal(t, "easyocr", d.B)
	assert.Equal(t, "easyocr", d.Better)
	assert.Negative(t, d.QualityDiff)

	assert.False(t, good.Closed(), "engines stay open for the caller")
}

func TestRun_Errors(t *testing.T) {
	eng := testutil.NewScriptedEngine("easyocr", terraform)

	_, err := Run(context.Background(), writePage(t, 0), nil, testConfig())
	require.Error(t, err)

	empty := testutil.WriteEmptyFile(t, t.TempDir(), "IMG_0.HEIC")
	_, err = Run(context.Background(), empty, []engine.Engine{eng}, testConfig())
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, writePage(t, 0), []engine.Engine{eng}, testConfig())
	require.ErrorIs(t, err, context.Canceled)
}

func TestAnalyze(t *testing.T) {
	t.Run("ties go to the first engine", func(t *testing.T) {
		r := &Report{Results: []EngineResult{
			{Engine: "a", Success: true, Quality: 40},
			{Engine: "b", Success: true, Quality: 40},
		}}
		analyze(r)
		assert.Equal(t, "a", r.Best)
		assert.Zero(t, r.QualityGap)
		require.Len(t, r.Differences, 1)
		assert.Equal(t, "b", r.Differences[0].Better)
	})

	t.Run("zero quality has no winner", func(t *testing.T) {
		r := &Report{Results: []EngineResult{
			{Engine: "a", Success: true},
			{Engine: "b", Success: false, Quality: 99},
		}}
		analyze(r)
		assert.Empty(t, r.Best)
		assert.Nil(t, r.BestResult())
		assert.Empty(t, r.Differences)
	})
}

func TestReport_WriteLogAndSave(t *testing.T) {
	r := &Report{
		File:       "/photos/IMG_3001.HEIC",
		Date:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		AutoRotate: true,
		Results: []EngineResult{
			{Engine: "easyocr", Success: true, Text: "hosts: all", Quality: 80},
			{Engine: "paddleocr", Success: true, Text: "hosts al", Quality: 60},
			{Engine: "vision", Error: "vision requires macOS"},
		},
	}
	analyze(r)

	var buf bytes.Buffer
	require.NoError(t, r.WriteLog(&buf))
	log := buf.String()
	assert.Contains(t, log, "File: IMG_3001.HEIC")
	assert.Contains(t, log, "Date: 2026-03-01 12:00:00")
	assert.Contains(t, log, "Auto-rotation: Enabled")
	assert.Contains(t, log, "Image preprocessing: Disabled")
	assert.Contains(t, log, "VISION Results:\n  Success: false")
	assert.Contains(t, log, "Error: vision requires macOS")
	assert.Contains(t, log, "Best engine: easyocr")
	assert.Contains(t, log, "Quality gap: 20.0 points")
	assert.Contains(t, log, "EASYOCR vs PADDLEOCR:")
	assert.Contains(t, log, "Quality difference: +20.0")
	assert.Contains(t, log, "Winner: easyocr")

	r.File = filepath.Join(t.TempDir(), "IMG_3001.HEIC")
	out := filepath.Join(t.TempDir(), "out")
	logFile, textFile, err := r.Save(out)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(out, "IMG_3001_comparison.log"), logFile)
	assert.FileExists(t, logFile)

	data, err := os.ReadFile(textFile) //nolint:gosec // test output
	require.NoError(t, err)
	assert.Equal(t, "hosts: all", string(data))
}

func TestReport_SaveWithoutWinner(t *testing.T) {
	r := &Report{File: filepath.Join(t.TempDir(), "IMG_1.HEIC"), Results: []EngineResult{{Engine: "easyocr", Success: true}}}
	analyze(r)

	_, textFile, err := r.Save("")
	require.NoError(t, err)
	data, err := os.ReadFile(textFile) //nolint:gosec // test output
	require.NoError(t, err)
	assert.Equal(t, pipeline.NoTextPlaceholder, string(data))
}
