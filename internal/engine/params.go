package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// EasyOCRParams are the EasyOCR text detector thresholds.
type EasyOCRParams struct {
	TextThreshold float64 `json:"text_threshold" yaml:"text_threshold" mapstructure:"text_threshold"`
	LowText       float64 `json:"low_text" yaml:"low_text" mapstructure:"low_text"`
	LinkThreshold float64 `json:"link_threshold" yaml:"link_threshold" mapstructure:"link_threshold"`
}

// DefaultEasyOCRParams returns EasyOCR's library defaults.
func DefaultEasyOCRParams() EasyOCRParams {
	return EasyOCRParams{TextThreshold: 0.7, LowText: 0.5, LinkThreshold: 0.5}
}

// Validate checks that every threshold lies in (0, 1].
func (p EasyOCRParams) Validate() error {
	checks := []struct {
		name string
		v    float64
	}{
		{"text_threshold", p.TextThreshold},
		{"low_text", p.LowText},
		{"link_threshold", p.LinkThreshold},
	}
	for _, c := range checks {
		if c.v <= 0 || c.v > 1 {
			return fmt.Errorf("invalid easyocr %s: %.2f (must be in (0, 1])", c.name, c.v)
		}
	}
	return nil
}

// TuningResults is the document written by a parameter search (optimization_results.json).
type TuningResults struct {
	BestCombination *TuningCombination   `json:"best_combination"`
	AllResults      []TuningCombination  `json:"all_results"`
	TestFiles       []string             `json:"test_files"`
	ParameterRanges map[string][]float64 `json:"parameter_ranges"`
	Engine          string               `json:"engine,omitempty"`
}

// TuningCombination is the averaged score of one parameter combination.
type TuningCombination struct {
	Parameters       EasyOCRParams      `json:"parameters"`
	AvgSequenceRatio float64            `json:"avg_sequence_ratio"`
	AvgWordRatio     float64            `json:"avg_word_ratio"`
	CombinedScore    float64            `json:"combined_score"`
	SuccessfulTests  int                `json:"successful_tests"`
	TotalTests       int                `json:"total_tests"`
	Details          []TuningFileResult `json:"detailed_results,omitempty"`
}

// TuningFileResult is the similarity of one file's recognized text to its ground truth.
type TuningFileResult struct {
	File              string  `json:"file"`
	SequenceRatio     float64 `json:"sequence_ratio"`
	WordRatio         float64 `json:"word_ratio"`
	TextLength        int     `json:"text_length"`
	GroundTruthLength int     `json:"ground_truth_length"`
}

// LoadEasyOCRParams reads the best combination from a tuning results file.
func LoadEasyOCRParams(path string) (EasyOCRParams, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: params file path comes from configuration
	if err != nil {
		return EasyOCRParams{}, fmt.Errorf("read params file: %w", err)
	}
	var tr TuningResults
	if err := json.Unmarshal(data, &tr); err != nil {
		return EasyOCRParams{}, fmt.Errorf("parse params file %s: %w", path, err)
	}
	if tr.BestCombination == nil {
		return EasyOCRParams{}, errors.New("params file has no best_combination")
	}
	if err := tr.BestCombination.Parameters.Validate(); err != nil {
		return EasyOCRParams{}, err
	}
	return tr.BestCombination.Parameters, nil
}
