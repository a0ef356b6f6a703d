package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/heic2txt/internal/config"
	"github.com/MeKo-Tech/heic2txt/internal/convert"
	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
	"github.com/MeKo-Tech/heic2txt/internal/version"
)

// Process exit codes.
const (
	ExitOK = 0
	// ExitFailure covers usage errors and runs in which at least one file failed.
	ExitFailure = 1
	// ExitEngineInit means the recognition engine could not be started.
	ExitEngineInit = 2
)

// ErrFilesFailed is returned when a run completed but some inputs failed.
var ErrFilesFailed = errors.New("one or more files failed")

// app carries the state of one command invocation. Every root command gets its
// own viper instance so that tests can build and run commands repeatedly.
type app struct {
	v        *viper.Viper
	loader   *config.Loader
	cfgFile  string
	noRotate *pflag.Flag

	cfg    *config.Config
	logger *slog.Logger
}

// NewRootCommand builds the heic2txt command tree.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	a.loader = config.NewLoaderWith(a.v)

	rootCmd := &cobra.Command{
		Use:   "heic2txt",
		Short: "Extract text from HEIC photos with external OCR engines",
		Long: `heic2txt converts HEIC/HEIF photos of screens and printed pages into text files.

Each image is decoded, optionally binarized, turned upright by probing all four
rotations with a fast recognition pass, and finally transcribed by the selected
engine (EasyOCR, Tesseract, PaddleOCR or Apple Vision).

Examples:
  heic2txt convert IMG_0001.HEIC
  heic2txt batch ./photos --recursive --output-dir texts --format json
  heic2txt compare IMG_0001.HEIC --engines easyocr,tesseract
  heic2txt tune ./ground-truth --max-files 5`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.initialize(cmd.ErrOrStderr())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "",
		"config file (default is search in ., $HOME, $XDG_CONFIG_HOME/heic2txt, /etc/heic2txt)")
	pf.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")

	pf.StringP("engine", "e", engine.EasyOCR, "recognition engine (easyocr, tesseract, paddleocr, vision)")
	pf.StringP("language", "l", "en", "recognition language (en, de, fr, es, ...)")
	pf.Bool("gpu", false, "run the engine on the GPU where supported")
	pf.String("python", "", "python interpreter for Python-backed engines (default: python3 on PATH)")
	pf.String("params-file", "", "optimization_results.json whose best EasyOCR parameters are used")
	pf.String("converter", convert.Auto, "HEIC decoder (auto, native, sips, heif-convert)")

	pf.Bool("no-rotate", false, "disable automatic orientation detection")
	pf.Bool("preprocess", false, "binarize images before recognition")
	pf.Bool("postprocess", false, "clean up recognized text (OCR character fixes, whitespace)")
	pf.Bool("save-images", false, "save preprocessed and rotated images next to the text output")

	pf.StringSlice("vocab", nil, "built-in vocabulary domains passed as recognition hints (or 'all')")
	pf.String("vocab-file", "", "file with extra vocabulary words, one per line")

	a.noRotate = pf.Lookup("no-rotate")

	bindings := map[string]string{
		"verbose":              "verbose",
		"log_level":            "log-level",
		"engine.name":          "engine",
		"engine.language":      "language",
		"engine.gpu":           "gpu",
		"engine.python":        "python",
		"engine.params_file":   "params-file",
		"convert.tool":         "converter",
		"pipeline.preprocess":  "preprocess",
		"pipeline.postprocess": "postprocess",
		"pipeline.save_images": "save-images",
		"vocabulary.domains":   "vocab",
		"vocabulary.file":      "vocab-file",
	}
	for key, flag := range bindings {
		_ = a.v.BindPFlag(key, pf.Lookup(flag))
	}

	rootCmd.AddCommand(
		newConvertCommand(a),
		newBatchCommand(a),
		newCompareCommand(a),
		newTuneCommand(a),
		newVocabCommand(a),
		newEnginesCommand(a),
		newConfigCommand(a),
	)
	return rootCmd
}

// initialize loads the configuration and sets up structured logging.
func (a *app) initialize(stderr io.Writer) error {
	if a.noRotate.Changed {
		a.v.Set("pipeline.auto_rotate", a.noRotate.Value.String() != "true")
	}

	cfg, err := a.loader.LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	var logLevel slog.Level
	if cfg.Verbose {
		logLevel = slog.LevelDebug
	} else {
		switch cfg.LogLevel {
		case "debug":
			logLevel = slog.LevelDebug
		case "warn":
			logLevel = slog.LevelWarn
		case "error":
			logLevel = slog.LevelError
		default:
			logLevel = slog.LevelInfo
		}
	}

	// stdout carries transcriptions and reports
	a.logger = slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(a.logger)
	return nil
}

// newEngine starts the named engine with the configured options.
func (a *app) newEngine(ctx context.Context, name string) (engine.Engine, error) {
	opts, err := a.cfg.ToEngineOptions()
	if err != nil {
		return nil, err
	}
	a.logger.Debug("starting engine", "engine", name, "language", opts.Language, "gpu", opts.GPU)
	return engine.New(ctx, name, opts)
}

// newPipeline assembles the per-image pipeline around the configured engine.
// The caller must Close the pipeline, which releases the engine.
func (a *app) newPipeline(ctx context.Context, profiler *pipeline.Profiler) (*pipeline.Pipeline, error) {
	conv, err := convert.New(a.cfg.Convert.Tool)
	if err != nil {
		return nil, err
	}
	vocab, err := a.cfg.LoadVocabulary()
	if err != nil {
		return nil, err
	}

	eng, err := a.newEngine(ctx, a.cfg.Engine.Name)
	if err != nil {
		return nil, err
	}
	pl, err := pipeline.NewBuilder().
		WithConfig(a.cfg.ToPipelineConfig()).
		WithEngine(eng).
		WithConverter(conv).
		WithVocabulary(vocab).
		WithLogger(a.logger).
		WithProfiler(profiler).
		Build()
	if err != nil {
		_ = eng.Close()
		return nil, err
	}
	return pl, nil
}

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var initErr *engine.InitError
	if errors.As(err, &initErr) {
		return ExitEngineInit
	}
	return ExitFailure
}

// ReportError prints err for an operator, with the remediation hint for engine start-up failures.
func ReportError(w io.Writer, err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	var initErr *engine.InitError
	if errors.As(err, &initErr) && initErr.Remediation != "" {
		_, _ = fmt.Fprintf(w, "Hint: %s\n", initErr.Remediation)
	}
}

// Run executes the command tree with args and returns the exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCommand()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	err := rootCmd.ExecuteContext(ctx)
	ReportError(stderr, err)
	return ExitCode(err)
}

// Execute runs heic2txt with the process arguments. SIGINT and SIGTERM cancel
// the running engine call.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
