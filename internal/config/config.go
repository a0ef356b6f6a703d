package config

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/MeKo-Tech/heic2txt/internal/batch"
	"github.com/MeKo-Tech/heic2txt/internal/convert"
	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/orientation"
	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
	"github.com/MeKo-Tech/heic2txt/internal/tune"
	"github.com/MeKo-Tech/heic2txt/internal/utils"
	"github.com/MeKo-Tech/heic2txt/internal/vocabulary"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	engOpts := engine.DefaultOptions()
	pre := utils.DefaultPreprocessOptions()
	grid := tune.DefaultConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Engine: EngineConfig{
			Name:          engine.EasyOCR,
			Language:      engOpts.Language,
			GPU:           false,
			Python:        engine.DefaultPython,
			InitTimeout:   engOpts.InitTimeout,
			MinConfidence: engOpts.MinConfidence,
			EasyOCR: EasyOCRParamsConfig{
				TextThreshold: engOpts.EasyOCR.TextThreshold,
				LowText:       engOpts.EasyOCR.LowText,
				LinkThreshold: engOpts.EasyOCR.LinkThreshold,
			},
		},
		Convert: ConvertConfig{Tool: convert.Auto},
		Pipeline: PipelineConfig{
			AutoRotate:   true,
			ProbeMaxSide: orientation.DefaultConfig().ProbeMaxSide,
			Preprocess:   false,
			PostProcess:  false,
			SaveImages:   false,
			Preprocessing: PreprocessConfig{
				Invert:      pre.Invert,
				BlockSize:   pre.BlockSize,
				C:           pre.C,
				CloseKernel: pre.CloseKernel,
				OpenKernel:  pre.OpenKernel,
			},
		},
		Vocabulary: VocabularyConfig{},
		Output: OutputConfig{
			Format: "text",
		},
		Batch: BatchConfig{
			Recursive: false,
			Progress:  false,
		},
		Compare: CompareConfig{
			Engines: []string{engine.EasyOCR, engine.PaddleOCR},
		},
		Tune: TuneConfig{
			TextThresholds: grid.TextThresholds,
			LowTexts:       grid.LowTexts,
			LinkThresholds: grid.LinkThresholds,
			MaxFiles:       grid.MaxFiles,
			OutputDir:      "optimization_results",
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if c.Engine.Name == "" {
		return fmt.Errorf("invalid engine: name must not be empty (available: %s)", strings.Join(engine.Names(), ", "))
	}
	if c.Engine.InitTimeout < 0 {
		return fmt.Errorf("invalid engine init timeout: %v (must not be negative)", c.Engine.InitTimeout)
	}
	if err := validateThreshold(c.Engine.MinConfidence, "engine.min_confidence"); err != nil {
		return err
	}
	if err := c.easyOCRParams().Validate(); err != nil {
		return err
	}

	if !slices.Contains(convert.Names(), c.Convert.Tool) {
		return fmt.Errorf("invalid converter: %s (must be one of: %s)", c.Convert.Tool, strings.Join(convert.Names(), ", "))
	}

	if c.Output.Format != "" && !slices.Contains(batch.Formats, strings.ToLower(c.Output.Format)) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(batch.Formats, ", "))
	}

	if c.Pipeline.ProbeMaxSide < 0 {
		return fmt.Errorf("invalid probe max side: %d (must not be negative)", c.Pipeline.ProbeMaxSide)
	}
	if c.Pipeline.Preprocess {
		if err := c.preprocessOptions().Validate(); err != nil {
			return fmt.Errorf("invalid preprocessing: %w", err)
		}
	}

	for _, d := range c.Vocabulary.Domains {
		if strings.EqualFold(d, vocabulary.AllDomains) {
			continue
		}
		if _, err := vocabulary.LookupDomain(d); err != nil {
			return err
		}
	}

	if c.Tune.MaxFiles < 0 {
		return fmt.Errorf("invalid tune max files: %d (must not be negative)", c.Tune.MaxFiles)
	}
	for _, v := range slices.Concat(c.Tune.TextThresholds, c.Tune.LowTexts, c.Tune.LinkThresholds) {
		if v <= 0 || v > 1 {
			return fmt.Errorf("invalid tune threshold: %.2f (must be in (0, 1])", v)
		}
	}

	return nil
}

// ToPipelineConfig converts the config to the internal pipeline configuration.
func (c *Config) ToPipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Orientation.Enabled = c.Pipeline.AutoRotate
	cfg.Orientation.ProbeMaxSide = c.Pipeline.ProbeMaxSide
	cfg.Preprocess = c.Pipeline.Preprocess
	cfg.PreprocessOptions = c.preprocessOptions()
	cfg.PostProcess = c.Pipeline.PostProcess
	cfg.SaveArtifacts = c.Pipeline.SaveImages
	return cfg
}

// ToEngineOptions converts the engine section to engine.Options. When a params file
// is configured its best combination replaces the EasyOCR thresholds.
func (c *Config) ToEngineOptions() (engine.Options, error) {
	opts := engine.DefaultOptions()
	opts.Language = c.Engine.Language
	opts.GPU = c.Engine.GPU
	opts.Python = c.Engine.Python
	if c.Engine.InitTimeout > 0 {
		opts.InitTimeout = c.Engine.InitTimeout
	}
	opts.MinConfidence = c.Engine.MinConfidence
	opts.EasyOCR = c.easyOCRParams()
	if c.Engine.ParamsFile != "" {
		params, err := engine.LoadEasyOCRParams(c.Engine.ParamsFile)
		if err != nil {
			return opts, err
		}
		opts.EasyOCR = params
	}
	return opts, nil
}

// ToBatchConfig converts output and batch settings. Progress reporting is left to the caller.
func (c *Config) ToBatchConfig() batch.Config {
	return batch.Config{
		OutputDir:       c.Output.Dir,
		Recursive:       c.Batch.Recursive,
		IncludePatterns: c.Batch.Include,
		ExcludePatterns: c.Batch.Exclude,
		Format:          c.Output.Format,
		ReportFile:      c.Output.ReportFile,
		MetricsFile:     c.Batch.MetricsFile,
	}
}

// ToTuneConfig converts the grid search settings. The engine factory is left to the caller.
func (c *Config) ToTuneConfig() tune.Config {
	cfg := tune.DefaultConfig()
	cfg.TextThresholds = c.Tune.TextThresholds
	cfg.LowTexts = c.Tune.LowTexts
	cfg.LinkThresholds = c.Tune.LinkThresholds
	cfg.MaxFiles = c.Tune.MaxFiles
	cfg.Preprocess = c.Pipeline.Preprocess
	cfg.PreprocessOptions = c.preprocessOptions()
	return cfg
}

// LoadVocabulary combines the configured domains and word file. It returns nil
// when neither is set.
func (c *Config) LoadVocabulary() (*vocabulary.List, error) {
	var lists []*vocabulary.List
	if len(c.Vocabulary.Domains) > 0 {
		l, err := vocabulary.ForDomains(c.Vocabulary.Domains)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	if c.Vocabulary.File != "" {
		l, err := vocabulary.Load(c.Vocabulary.File)
		if err != nil {
			return nil, err
		}
		lists = append(lists, l)
	}
	if len(lists) == 0 {
		return nil, nil
	}
	return vocabulary.Combine(lists...)
}

// InitTimeout returns the effective engine start-up timeout.
func (c *Config) InitTimeout() time.Duration {
	if c.Engine.InitTimeout > 0 {
		return c.Engine.InitTimeout
	}
	return engine.DefaultOptions().InitTimeout
}

func (c *Config) easyOCRParams() engine.EasyOCRParams {
	return engine.EasyOCRParams{
		TextThreshold: c.Engine.EasyOCR.TextThreshold,
		LowText:       c.Engine.EasyOCR.LowText,
		LinkThreshold: c.Engine.EasyOCR.LinkThreshold,
	}
}

func (c *Config) preprocessOptions() utils.PreprocessOptions {
	return utils.PreprocessOptions{
		Invert:      c.Pipeline.Preprocessing.Invert,
		BlockSize:   c.Pipeline.Preprocessing.BlockSize,
		C:           c.Pipeline.Preprocessing.C,
		CloseKernel: c.Pipeline.Preprocessing.CloseKernel,
		OpenKernel:  c.Pipeline.Preprocessing.OpenKernel,
	}
}

// validateThreshold validates that a value is between 0.0 and 1.0.
func validateThreshold(value float64, name string) error {
	if value < 0.0 || value > 1.0 {
		return fmt.Errorf("invalid %s: %.2f (must be between 0.0 and 1.0)", name, value)
	}
	return nil
}
