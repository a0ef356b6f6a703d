//nolint:lll
package config

import "time"

// Config represents the complete configuration for heic2txt.
// It covers every command (convert, batch, compare, tune) and is loaded from
// configuration files, environment variables and command-line flags.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Recognition engine
	Engine EngineConfig `mapstructure:"engine" yaml:"engine" json:"engine"`

	// Input conversion
	Convert ConvertConfig `mapstructure:"convert" yaml:"convert" json:"convert"`

	// Per-image pipeline
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`

	// Recognition hints
	Vocabulary VocabularyConfig `mapstructure:"vocabulary" yaml:"vocabulary" json:"vocabulary"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Engine comparison
	Compare CompareConfig `mapstructure:"compare" yaml:"compare" json:"compare"`

	// Parameter search
	Tune TuneConfig `mapstructure:"tune" yaml:"tune" json:"tune"`
}

// EngineConfig selects and configures the recognition engine.
type EngineConfig struct {
	Name          string        `mapstructure:"name" yaml:"name" json:"name"`
	Language      string        `mapstructure:"language" yaml:"language" json:"language"`
	GPU           bool          `mapstructure:"gpu" yaml:"gpu" json:"gpu"`
	Python        string        `mapstructure:"python" yaml:"python" json:"python"`
	InitTimeout   time.Duration `mapstructure:"init_timeout" yaml:"init_timeout" json:"init_timeout"`
	MinConfidence float64       `mapstructure:"min_confidence" yaml:"min_confidence" json:"min_confidence"`

	// ParamsFile points at optimization_results.json; its best combination overrides EasyOCR.
	ParamsFile string              `mapstructure:"params_file" yaml:"params_file" json:"params_file"`
	EasyOCR    EasyOCRParamsConfig `mapstructure:"easyocr" yaml:"easyocr" json:"easyocr"`
}

// EasyOCRParamsConfig holds the EasyOCR detector thresholds.
type EasyOCRParamsConfig struct {
	TextThreshold float64 `mapstructure:"text_threshold" yaml:"text_threshold" json:"text_threshold"`
	LowText       float64 `mapstructure:"low_text" yaml:"low_text" json:"low_text"`
	LinkThreshold float64 `mapstructure:"link_threshold" yaml:"link_threshold" json:"link_threshold"`
}

// ConvertConfig selects how HEIC inputs are decoded.
type ConvertConfig struct {
	Tool string `mapstructure:"tool" yaml:"tool" json:"tool"`
}

// PipelineConfig contains per-image processing settings.
type PipelineConfig struct {
	AutoRotate   bool `mapstructure:"auto_rotate" yaml:"auto_rotate" json:"auto_rotate"`
	ProbeMaxSide int  `mapstructure:"probe_max_side" yaml:"probe_max_side" json:"probe_max_side"`
	Preprocess   bool `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
	PostProcess  bool `mapstructure:"postprocess" yaml:"postprocess" json:"postprocess"`
	SaveImages   bool `mapstructure:"save_images" yaml:"save_images" json:"save_images"`

	Preprocessing PreprocessConfig `mapstructure:"preprocessing" yaml:"preprocessing" json:"preprocessing"`
}

// PreprocessConfig contains the binarization settings.
type PreprocessConfig struct {
	Invert      bool    `mapstructure:"invert" yaml:"invert" json:"invert"`
	BlockSize   int     `mapstructure:"block_size" yaml:"block_size" json:"block_size"`
	C           float64 `mapstructure:"c" yaml:"c" json:"c"`
	CloseKernel int     `mapstructure:"close_kernel" yaml:"close_kernel" json:"close_kernel"`
	OpenKernel  int     `mapstructure:"open_kernel" yaml:"open_kernel" json:"open_kernel"`
}

// VocabularyConfig selects built-in domains and an optional word file.
type VocabularyConfig struct {
	Domains []string `mapstructure:"domains" yaml:"domains" json:"domains"`
	File    string   `mapstructure:"file" yaml:"file" json:"file"`
}

// OutputConfig contains output settings.
type OutputConfig struct {
	Dir        string `mapstructure:"dir" yaml:"dir" json:"dir"`
	Format     string `mapstructure:"format" yaml:"format" json:"format"`
	ReportFile string `mapstructure:"report_file" yaml:"report_file" json:"report_file"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Recursive   bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include     []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude     []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	Progress    bool     `mapstructure:"progress" yaml:"progress" json:"progress"`
	MetricsFile string   `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// CompareConfig lists the engines run by the compare command.
type CompareConfig struct {
	Engines []string `mapstructure:"engines" yaml:"engines" json:"engines"`
}

// TuneConfig contains the EasyOCR grid search ranges.
type TuneConfig struct {
	TextThresholds []float64 `mapstructure:"text_thresholds" yaml:"text_thresholds" json:"text_thresholds"`
	LowTexts       []float64 `mapstructure:"low_texts" yaml:"low_texts" json:"low_texts"`
	LinkThresholds []float64 `mapstructure:"link_thresholds" yaml:"link_thresholds" json:"link_thresholds"`
	MaxFiles       int       `mapstructure:"max_files" yaml:"max_files" json:"max_files"`
	OutputDir      string    `mapstructure:"output_dir" yaml:"output_dir" json:"output_dir"`
}
