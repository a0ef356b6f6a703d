// Package tune grid-searches EasyOCR detector thresholds against ground-truth transcripts.
package tune

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MeKo-Tech/heic2txt/internal/convert"
	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
	"github.com/MeKo-Tech/heic2txt/internal/textutil"
	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

// ResultsFile is the name of the document written by Save.
const ResultsFile = "optimization_results.json"

// ErrNoSamples is returned when a directory has no image with a ground-truth transcript.
var ErrNoSamples = errors.New("no images with ground truth found")

// imageExts are tried in order when pairing a transcript with its image.
var imageExts = []string{".HEIC", ".heic", ".HEIF", ".heif", ".png", ".jpg", ".jpeg"}

// EngineFactory starts an engine configured with the given thresholds.
type EngineFactory func(ctx context.Context, params engine.EasyOCRParams) (engine.Engine, error)

// Config controls the search.
type Config struct {
	TextThresholds []float64
	LowTexts       []float64
	LinkThresholds []float64
	// MaxFiles limits the number of samples; 0 uses all of them.
	MaxFiles int

	Preprocess        bool
	PreprocessOptions utils.PreprocessOptions

	Converter convert.Converter
	Factory   EngineFactory
	Progress  pipeline.ProgressCallback
	Logger    *slog.Logger
}

// DefaultConfig returns the standard 4x4x4 grid.
func DefaultConfig() Config {
	return Config{
		TextThresholds:    []float64{0.4, 0.5, 0.6, 0.7},
		LowTexts:          []float64{0.2, 0.3, 0.4, 0.5},
		LinkThresholds:    []float64{0.4, 0.5, 0.6, 0.7},
		MaxFiles:          10,
		Preprocess:        true,
		PreprocessOptions: utils.DefaultPreprocessOptions(),
	}
}

// Combinations expands the grid in text, low, link order.
func (c Config) Combinations() []engine.EasyOCRParams {
	out := make([]engine.EasyOCRParams, 0, len(c.TextThresholds)*len(c.LowTexts)*len(c.LinkThresholds))
	for _, text := range c.TextThresholds {
		for _, low := range c.LowTexts {
			for _, link := range c.LinkThresholds {
				out = append(out, engine.EasyOCRParams{TextThreshold: text, LowText: low, LinkThreshold: link})
			}
		}
	}
	return out
}

// Validate rejects empty ranges and thresholds outside (0, 1].
func (c Config) Validate() error {
	for _, p := range c.Combinations() {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	if len(c.Combinations()) == 0 {
		return errors.New("every parameter range needs at least one value")
	}
	if c.MaxFiles < 0 {
		return fmt.Errorf("max files must not be negative: %d", c.MaxFiles)
	}
	if c.Factory == nil {
		return errors.New("engine factory is required")
	}
	return nil
}

// Sample pairs an image with its ground-truth transcript.
type Sample struct {
	Name  string
	Image string
	Truth string
}

// LoadSamples pairs every non-empty <stem>.txt in dir with an image of the same stem.
// Transcripts without an image are skipped. Samples are sorted by name.
func LoadSamples(dir string, maxFiles int) ([]Sample, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read sample directory: %w", err)
	}
	var samples []Sample
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".txt" {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".txt")
		data, err := os.ReadFile(filepath.Join(dir, e.Name())) //nolint:gosec // G304: transcript in user-supplied directory
		if err != nil {
			return nil, fmt.Errorf("read ground truth: %w", err)
		}
		truth := strings.TrimSpace(string(data))
		if truth == "" {
			continue
		}
		img := findImage(dir, stem)
		if img == "" {
			slog.Debug("ground truth without image", "file", e.Name())
			continue
		}
		samples = append(samples, Sample{Name: stem, Image: img, Truth: truth})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })
	if maxFiles > 0 && len(samples) > maxFiles {
		samples = samples[:maxFiles]
	}
	return samples, nil
}

func findImage(dir, stem string) string {
	for _, ext := range imageExts {
		p := filepath.Join(dir, stem+ext)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// Run scores every parameter combination over the samples in dir.
// Images are converted and preprocessed once; each combination starts its own engine.
func Run(ctx context.Context, dir string, cfg Config) (*engine.TuningResults, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	progress := cfg.Progress
	if progress == nil {
		progress = pipeline.NoOpProgressCallback{}
	}
	conv := cfg.Converter
	if conv == nil {
		conv = convert.NewAuto()
	}

	samples, err := LoadSamples(dir, cfg.MaxFiles)
	if err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSamples, dir)
	}
	images, samples, err := prepare(ctx, conv, samples, cfg, logger)
	if err != nil {
		return nil, err
	}

	results := &engine.TuningResults{
		Engine: engine.EasyOCR,
		ParameterRanges: map[string][]float64{
			"text_thresholds": cfg.TextThresholds,
			"low_texts":       cfg.LowTexts,
			"link_thresholds": cfg.LinkThresholds,
		},
	}
	for _, s := range samples {
		results.TestFiles = append(results.TestFiles, s.Name)
	}

	combos := cfg.Combinations()
	logger.Info("starting parameter search", "combinations", len(combos), "files", len(samples))
	progress.OnStart(len(combos))
	bestScore, failed := 0.0, 0
	for i, params := range combos {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		combo, err := evaluate(ctx, cfg.Factory, params, samples, images, logger)
		if err != nil {
			var initErr *engine.InitError
			if errors.As(err, &initErr) || ctx.Err() != nil {
				return results, err
			}
			failed++
			progress.OnError(i+1, paramLabel(params), err)
			progress.OnFile(i+1, len(combos), paramLabel(params))
			continue
		}
		progress.OnFile(i+1, len(combos), paramLabel(params))
		if combo.SuccessfulTests == 0 {
			logger.Warn("no successful tests for combination", "params", paramLabel(params))
			failed++
			continue
		}
		results.AllResults = append(results.AllResults, *combo)
		if combo.CombinedScore > bestScore {
			bestScore = combo.CombinedScore
			best := *combo
			results.BestCombination = &best
			logger.Info("new best combination", "params", paramLabel(params), "score", combo.CombinedScore)
		}
	}
	progress.OnComplete(len(combos)-failed, failed)
	return results, nil
}

// prepare converts and optionally preprocesses every sample, dropping unreadable ones.
func prepare(ctx context.Context, conv convert.Converter, samples []Sample, cfg Config, logger *slog.Logger) ([]image.Image, []Sample, error) {
	images := make([]image.Image, 0, len(samples))
	kept := samples[:0]
	for _, s := range samples {
		img, err := conv.Convert(ctx, s.Image)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			logger.Warn("skipping sample", "file", s.Image, "error", err)
			continue
		}
		if cfg.Preprocess {
			pre, err := utils.Preprocess(img, cfg.PreprocessOptions)
			if err != nil {
				logger.Warn("preprocessing failed, using original image", "file", s.Image, "error", err)
			} else {
				img = pre
			}
		}
		images = append(images, img)
		kept = append(kept, s)
	}
	if len(kept) == 0 {
		return nil, nil, ErrNoSamples
	}
	return images, kept, nil
}

func evaluate(ctx context.Context, factory EngineFactory, params engine.EasyOCRParams,
	samples []Sample, images []image.Image, logger *slog.Logger,
) (*engine.TuningCombination, error) {
	eng, err := factory(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("start engine with %s: %w", paramLabel(params), err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("failed to close engine", "error", err)
		}
	}()

	combo := &engine.TuningCombination{Parameters: params, TotalTests: len(samples)}
	var seqSum, wordSum float64
	for i, s := range samples {
		res, err := eng.Recognize(ctx, images[i], engine.Request{})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Error("recognition failed", "file", s.Name, "params", paramLabel(params), "error", err)
			continue
		}
		m := textutil.Compare(s.Truth, res.Text)
		seqSum += m.SequenceRatio
		wordSum += m.WordRatio
		combo.SuccessfulTests++
		combo.Details = append(combo.Details, engine.TuningFileResult{
			File:              s.Name,
			SequenceRatio:     m.SequenceRatio,
			WordRatio:         m.WordRatio,
			TextLength:        len([]rune(res.Text)),
			GroundTruthLength: len([]rune(s.Truth)),
		})
		logger.Debug("sample scored", "file", s.Name, "sequence_ratio", m.SequenceRatio, "word_ratio", m.WordRatio)
	}
	if combo.SuccessfulTests > 0 {
		n := float64(combo.SuccessfulTests)
		combo.AvgSequenceRatio = seqSum / n
		combo.AvgWordRatio = wordSum / n
		combo.CombinedScore = (combo.AvgSequenceRatio + combo.AvgWordRatio) / 2
	}
	return combo, nil
}

func paramLabel(p engine.EasyOCRParams) string {
	return fmt.Sprintf("text_threshold=%.2f low_text=%.2f link_threshold=%.2f", p.TextThreshold, p.LowText, p.LinkThreshold)
}

// Top returns up to n combinations ordered by combined score, best first.
func Top(results *engine.TuningResults, n int) []engine.TuningCombination {
	sorted := append([]engine.TuningCombination(nil), results.AllResults...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].CombinedScore > sorted[j].CombinedScore })
	if n > 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Save writes results as indented JSON to <outDir>/optimization_results.json.
func Save(results *engine.TuningResults, outDir string) (string, error) {
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode results: %w", err)
	}
	path := filepath.Join(outDir, ResultsFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write results: %w", err)
	}
	return path, nil
}
