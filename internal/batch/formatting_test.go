package batch

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		Engine:   "easyocr",
		Duration: 1500 * time.Millisecond,
		Files: []FileReport{
			{Input: "in/IMG_1.HEIC", Output: "out/IMG_1.txt", Status: StatusOK, Angle: 180, Chars: 120, Words: 20, Lines: 4, Confidence: 0.87},
			{Input: "in/IMG_2.HEIC", Output: "out/IMG_2.txt", Status: StatusNoText},
			{Input: "in/IMG_3.HEIC", Status: StatusSkipped, Error: "unreadable image: empty image"},
			{Input: "in/IMG_4.HEIC", Status: StatusFailed, Error: "conversion tool not found: sips"},
		},
	}
}

func TestFormatText(t *testing.T) {
	out, err := sampleReport().Format("text")
	require.NoError(t, err)
	assert.Contains(t, out, "OK       in/IMG_1.HEIC -> out/IMG_1.txt (120 chars, 180°)")
	assert.Contains(t, out, "NO TEXT  in/IMG_2.HEIC")
	assert.Contains(t, out, "SKIPPED  in/IMG_3.HEIC: unreadable image")
	assert.Contains(t, out, "FAILED   in/IMG_4.HEIC: conversion tool not found")
	assert.Contains(t, out, "4 files: 2 succeeded, 1 skipped, 1 failed in 1.5s")

	empty, err := sampleReport().Format("")
	require.NoError(t, err)
	assert.Equal(t, out, empty, "text is the default")
}

func TestFormatJSON(t *testing.T) {
	out, err := sampleReport().Format("JSON")
	require.NoError(t, err)

	var decoded struct {
		Engine  string       `json:"engine"`
		Files   []FileReport `json:"files"`
		Summary map[string]int
	}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "easyocr", decoded.Engine)
	assert.Len(t, decoded.Files, 4)
	assert.Equal(t, map[string]int{"total": 4, "succeeded": 2, "no_text": 1, "skipped": 1, "failed": 1}, decoded.Summary)
}

func TestFormatCSV(t *testing.T) {
	out, err := sampleReport().Format("csv")
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "file", rows[0][0])
	assert.Equal(t, []string{"in/IMG_1.HEIC", "out/IMG_1.txt", "ok", "180", "120", "20", "4", "0.870", "0.0", ""}, rows[1])
	assert.Equal(t, "conversion tool not found: sips", rows[4][9])
}

func TestFormatUnknown(t *testing.T) {
	_, err := sampleReport().Format("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "text, json, csv")
}
