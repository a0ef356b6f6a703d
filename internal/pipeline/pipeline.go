package pipeline

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/heic2txt/internal/convert"
	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/orientation"
	"github.com/MeKo-Tech/heic2txt/internal/textutil"
	"github.com/MeKo-Tech/heic2txt/internal/utils"
	"github.com/MeKo-Tech/heic2txt/internal/vocabulary"
)

// NoTextPlaceholder is written instead of an empty transcription.
const NoTextPlaceholder = "[No text detected]"

// Config holds configuration for the per-image pipeline.
type Config struct {
	Orientation orientation.Config
	Preprocess  bool
	// PreprocessOptions is used when Preprocess is set.
	PreprocessOptions utils.PreprocessOptions
	PostProcess       bool
	CleanOptions      textutil.CleanOptions
	// SaveArtifacts writes the preprocessed and rotated images next to the text output.
	SaveArtifacts bool
	// Constraints are checked on every decoded image; violations are logged, not fatal.
	Constraints utils.ImageConstraints
}

// DefaultConfig returns a pipeline config with component defaults.
func DefaultConfig() Config {
	return Config{
		Orientation:       orientation.DefaultConfig(),
		Preprocess:        false,
		PreprocessOptions: utils.DefaultPreprocessOptions(),
		PostProcess:       false,
		CleanOptions:      textutil.DefaultCleanOptions(),
		SaveArtifacts:     false,
		Constraints:       utils.DefaultImageConstraints(),
	}
}

// Validate checks the configuration before any engine is started.
func (c Config) Validate() error {
	if c.Preprocess {
		if err := c.PreprocessOptions.Validate(); err != nil {
			return fmt.Errorf("preprocess: %w", err)
		}
	}
	if c.Orientation.ProbeMaxSide < 0 {
		return errors.New("orientation probe max side must not be negative")
	}
	return nil
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg       Config
	converter convert.Converter
	engine    engine.Engine
	vocab     *vocabulary.List
	logger    *slog.Logger
	profiler  *Profiler
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithEngine sets the recognition engine. The pipeline takes ownership and closes it.
func (b *Builder) WithEngine(e engine.Engine) *Builder {
	b.engine = e
	return b
}

// WithConverter overrides the default auto converter.
func (b *Builder) WithConverter(c convert.Converter) *Builder {
	b.converter = c
	return b
}

// WithVocabulary sets the hint words passed to the full recognition pass.
func (b *Builder) WithVocabulary(v *vocabulary.List) *Builder {
	b.vocab = v
	return b
}

// WithLogger sets the logger used for per-file diagnostics.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithProfiler records stage timings into p.
func (b *Builder) WithProfiler(p *Profiler) *Builder {
	b.profiler = p
	return b
}

// Build validates the configuration and assembles the pipeline.
func (b *Builder) Build() (*Pipeline, error) {
	if b.engine == nil {
		return nil, errors.New("pipeline requires an engine")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	conv := b.converter
	if conv == nil {
		conv = convert.NewAuto()
	}
	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	profiler := b.profiler
	if profiler == nil {
		profiler = &Profiler{}
	}

	adapter := engine.NewAdapter(b.engine, b.vocab)
	return &Pipeline{
		cfg:       b.cfg,
		Converter: conv,
		Engine:    adapter,
		Detector:  orientation.NewDetector(adapter, b.cfg.Orientation).WithLogger(logger),
		Profiler:  profiler,
		logger:    logger,
	}, nil
}

// Pipeline converts, orients and transcribes one image at a time.
type Pipeline struct {
	cfg       Config
	Converter convert.Converter
	Engine    *engine.Adapter
	Detector  *orientation.Detector
	Profiler  *Profiler
	logger    *slog.Logger
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// EngineName returns the name of the wrapped engine.
func (p *Pipeline) EngineName() string { return p.Engine.Engine().Name() }

// Close releases the engine.
func (p *Pipeline) Close() error {
	if p == nil || p.Engine == nil {
		return nil
	}
	return p.Engine.Engine().Close()
}
