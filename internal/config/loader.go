package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "heic2txt"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "HEIC2TXT"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoaderWith creates a loader over v. Commands built for tests use a fresh instance.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load loads configuration from files, environment variables and defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile loads configuration from configFile, or from the search paths when
// configFile is empty, and validates it.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	config, err := l.LoadWithFileWithoutValidation(configFile)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// LoadWithFileWithoutValidation loads configuration from configFile without validation.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	if err := l.read(configFile); err != nil {
		return nil, err
	}
	return l.Unmarshal()
}

// Unmarshal decodes the current settings, including bound flags, into a Config.
func (l *Loader) Unmarshal() (*Config, error) {
	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

func (l *Loader) read(configFile string) error {
	l.setupEnvironmentVariables()
	l.setDefaults()

	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
		if err := l.v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	l.v.SetConfigName(ConfigFileName)
	l.addConfigPaths()
	if err := l.v.ReadInConfig(); err != nil {
		// a missing config file is fine; defaults and env vars still apply
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// Get returns a value from the configuration.
func (l *Loader) Get(key string) any {
	return l.v.Get(key)
}

// GetString returns a string value from the configuration.
func (l *Loader) GetString(key string) string {
	return l.v.GetString(key)
}

// Set sets a value in the configuration.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// GetConfigFileUsed returns the path of the config file used.
func (l *Loader) GetConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// GetViper returns the underlying viper instance for advanced usage.
func (l *Loader) GetViper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// HEIC2TXT_ENGINE_NAME maps to engine.name
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults sets default values for all configuration options.
func (l *Loader) setDefaults() {
	defaults := DefaultConfig()

	l.v.SetDefault("log_level", defaults.LogLevel)
	l.v.SetDefault("verbose", defaults.Verbose)

	l.v.SetDefault("engine.name", defaults.Engine.Name)
	l.v.SetDefault("engine.language", defaults.Engine.Language)
	l.v.SetDefault("engine.gpu", defaults.Engine.GPU)
	l.v.SetDefault("engine.python", defaults.Engine.Python)
	l.v.SetDefault("engine.init_timeout", defaults.Engine.InitTimeout)
	l.v.SetDefault("engine.min_confidence", defaults.Engine.MinConfidence)
	l.v.SetDefault("engine.params_file", defaults.Engine.ParamsFile)
	l.v.SetDefault("engine.easyocr.text_threshold", defaults.Engine.EasyOCR.TextThreshold)
	l.v.SetDefault("engine.easyocr.low_text", defaults.Engine.EasyOCR.LowText)
	l.v.SetDefault("engine.easyocr.link_threshold", defaults.Engine.EasyOCR.LinkThreshold)

	l.v.SetDefault("convert.tool", defaults.Convert.Tool)

	l.v.SetDefault("pipeline.auto_rotate", defaults.Pipeline.AutoRotate)
	l.v.SetDefault("pipeline.probe_max_side", defaults.Pipeline.ProbeMaxSide)
	l.v.SetDefault("pipeline.preprocess", defaults.Pipeline.Preprocess)
	l.v.SetDefault("pipeline.postprocess", defaults.Pipeline.PostProcess)
	l.v.SetDefault("pipeline.save_images", defaults.Pipeline.SaveImages)
	l.v.SetDefault("pipeline.preprocessing.invert", defaults.Pipeline.Preprocessing.Invert)
	l.v.SetDefault("pipeline.preprocessing.block_size", defaults.Pipeline.Preprocessing.BlockSize)
	l.v.SetDefault("pipeline.preprocessing.c", defaults.Pipeline.Preprocessing.C)
	l.v.SetDefault("pipeline.preprocessing.close_kernel", defaults.Pipeline.Preprocessing.CloseKernel)
	l.v.SetDefault("pipeline.preprocessing.open_kernel", defaults.Pipeline.Preprocessing.OpenKernel)

	l.v.SetDefault("vocabulary.domains", defaults.Vocabulary.Domains)
	l.v.SetDefault("vocabulary.file", defaults.Vocabulary.File)

	l.v.SetDefault("output.dir", defaults.Output.Dir)
	l.v.SetDefault("output.format", defaults.Output.Format)
	l.v.SetDefault("output.report_file", defaults.Output.ReportFile)

	l.v.SetDefault("batch.recursive", defaults.Batch.Recursive)
	l.v.SetDefault("batch.include", defaults.Batch.Include)
	l.v.SetDefault("batch.exclude", defaults.Batch.Exclude)
	l.v.SetDefault("batch.progress", defaults.Batch.Progress)
	l.v.SetDefault("batch.metrics_file", defaults.Batch.MetricsFile)

	l.v.SetDefault("compare.engines", defaults.Compare.Engines)

	l.v.SetDefault("tune.text_thresholds", defaults.Tune.TextThresholds)
	l.v.SetDefault("tune.low_texts", defaults.Tune.LowTexts)
	l.v.SetDefault("tune.link_thresholds", defaults.Tune.LinkThresholds)
	l.v.SetDefault("tune.max_files", defaults.Tune.MaxFiles)
	l.v.SetDefault("tune.output_dir", defaults.Tune.OutputDir)
}

// GetResolvedConfig returns the current resolved configuration for debugging.
func (l *Loader) GetResolvedConfig() map[string]any {
	return l.v.AllSettings()
}

// WriteDefaultConfig writes DefaultConfig as YAML to w.
func WriteDefaultConfig(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	cfg := DefaultConfig()
	if err := enc.Encode(&cfg); err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	return enc.Close()
}

// GenerateDefaultConfigFile writes a default configuration file. It refuses to
// overwrite an existing file unless force is set.
func GenerateDefaultConfigFile(filename string, force bool) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(filename, flags, 0o600) //nolint:gosec // G304: path chosen by the operator
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", filename)
		}
		return fmt.Errorf("create config file: %w", err)
	}
	if err := WriteDefaultConfig(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// GetConfigSearchPaths returns the paths where configuration files are searched, in order.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists && configDir != "" {
		paths = append(paths, filepath.Join(configDir, ConfigFileName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}

	paths = append(paths, "/etc/"+ConfigFileName)
	return paths
}

// PrintConfigInfo prints information about configuration loading for debugging.
func (l *Loader) PrintConfigInfo(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Configuration file used: %s\n", l.GetConfigFileUsed())
	_, _ = fmt.Fprintf(w, "Configuration search paths: %v\n", GetConfigSearchPaths())
	_, _ = fmt.Fprintf(w, "Environment prefix: %s\n", EnvPrefix)
}
