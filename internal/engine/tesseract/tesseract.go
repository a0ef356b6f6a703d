// Package tesseract registers the Tesseract engine, backed by libtesseract through gosseract.
// Import it for its side effect:
//
//	import _ "github.com/MeKo-Tech/heic2txt/internal/engine/tesseract"
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"

	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/textutil"
	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

// Capabilities of the Tesseract engine.
var Capabilities = engine.Capabilities{FastMode: true, Vocabulary: true, Language: true}

// SweepModes are the page segmentation modes tried by a full pass, in order.
var SweepModes = []gosseract.PageSegMode{
	gosseract.PSM_SINGLE_BLOCK,
	gosseract.PSM_AUTO,
	gosseract.PSM_RAW_LINE,
	gosseract.PSM_SINGLE_WORD,
	gosseract.PSM_SINGLE_CHAR,
	gosseract.PSM_SPARSE_TEXT,
}

const varPageSegMode = gosseract.SettableVariable("tessedit_pageseg_mode")

func init() {
	engine.Register(engine.Descriptor{
		Name:         engine.Tesseract,
		Description:  "Tesseract via libtesseract",
		Capabilities: Capabilities,
		Factory:      New,
		Check:        Check,
	})
}

// Engine runs Tesseract. A fresh client is created per pass; vocabulary config
// files are cached in a scratch directory owned by the engine.
type Engine struct {
	languages []string
	logger    *slog.Logger

	mu      sync.Mutex
	tmpDir  string
	configs map[string]string // vocabulary key -> config file
	closed  bool
}

// New creates a Tesseract engine after checking the language data is installed.
func New(_ context.Context, opts engine.Options) (engine.Engine, error) {
	langs := engine.TesseractLanguages(opts.Language)
	if err := checkLanguages(langs); err != nil {
		return nil, engine.NewInitError(engine.Tesseract, engine.KindMissingDependency, "", err)
	}
	return &Engine{
		languages: langs,
		logger:    slog.Default().With("engine", engine.Tesseract),
		configs:   map[string]string{},
	}, nil
}

// Check reports whether libtesseract and the requested language data are available.
func Check(opts engine.Options) error {
	return checkLanguages(engine.TesseractLanguages(opts.Language))
}

func checkLanguages(langs []string) error {
	available, err := gosseract.GetAvailableLanguages()
	if err != nil {
		return fmt.Errorf("list tesseract languages: %w", err)
	}
	have := make(map[string]bool, len(available))
	for _, l := range available {
		have[l] = true
	}
	var missing []string
	for _, l := range langs {
		if !have[l] {
			missing = append(missing, l)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("tesseract language data not installed: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (e *Engine) Name() string                      { return engine.Tesseract }
func (e *Engine) Capabilities() engine.Capabilities { return Capabilities }

// Recognize runs one automatic pass when req.Fast is set; otherwise it sweeps
// SweepModes and keeps the output with the highest textutil.TesseractScore.
func (e *Engine) Recognize(ctx context.Context, img image.Image, req engine.Request) (engine.Result, error) {
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return engine.Result{}, engine.ErrEngineClosed
	}

	data, err := encodePNG(img)
	if err != nil {
		return engine.Result{}, err
	}

	var configFile string
	if req.Vocabulary != nil {
		if configFile, err = e.vocabularyConfig(req.Vocabulary.Words()); err != nil {
			return engine.Result{}, err
		}
	}

	modes := SweepModes
	if req.Fast {
		modes = []gosseract.PageSegMode{gosseract.PSM_AUTO}
	}

	best := engine.Result{}
	bestScore := math.Inf(-1)
	var lastErr error
	for _, mode := range modes {
		if err := ctx.Err(); err != nil {
			return engine.Result{}, err
		}
		res, err := e.pass(data, mode, configFile)
		if err != nil {
			e.logger.Debug("tesseract pass failed", "psm", int(mode), "error", err)
			lastErr = err
			continue
		}
		score := textutil.TesseractScore(res.Text)
		if score > bestScore {
			best, bestScore = res, score
		}
	}
	if math.IsInf(bestScore, -1) && lastErr != nil {
		return engine.Result{}, lastErr
	}
	return best, nil
}

func (e *Engine) pass(data []byte, mode gosseract.PageSegMode, configFile string) (engine.Result, error) {
	c := gosseract.NewClient()
	defer func() { _ = c.Close() }()

	if err := c.SetLanguage(e.languages...); err != nil {
		return engine.Result{}, fmt.Errorf("set languages: %w", err)
	}
	if configFile != "" {
		if err := c.SetConfigFile(configFile); err != nil {
			return engine.Result{}, fmt.Errorf("set config file: %w", err)
		}
	}
	if err := c.SetVariable(varPageSegMode, fmt.Sprint(int(mode))); err != nil {
		return engine.Result{}, fmt.Errorf("set page segmentation mode: %w", err)
	}
	if err := c.SetImageFromBytes(data); err != nil {
		return engine.Result{}, fmt.Errorf("set image: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return engine.Result{}, fmt.Errorf("recognize text: %w", err)
	}
	res := engine.Result{Text: strings.TrimSpace(text)}

	boxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err == nil && len(boxes) > 0 {
		var sum float64
		for _, b := range boxes {
			conf := b.Confidence / 100
			sum += conf
			res.Lines = append(res.Lines, engine.Line{Text: strings.TrimSpace(b.Word), Confidence: conf})
		}
		res.Confidence = sum / float64(len(boxes))
	}
	return res, nil
}

// vocabularyConfig writes (once per word list) a user-words file and a config file pointing at it.
func (e *Engine) vocabularyConfig(words []string) (string, error) {
	key := strings.Join(words, "\n")

	e.mu.Lock()
	defer e.mu.Unlock()
	if path, ok := e.configs[key]; ok {
		return path, nil
	}
	if e.tmpDir == "" {
		dir, err := os.MkdirTemp("", "heic2txt-tesseract-")
		if err != nil {
			return "", err
		}
		e.tmpDir = dir
	}

	n := len(e.configs)
	wordsPath := filepath.Join(e.tmpDir, fmt.Sprintf("words-%d.txt", n))
	if err := os.WriteFile(wordsPath, []byte(key+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write user words: %w", err)
	}
	cfgPath := filepath.Join(e.tmpDir, fmt.Sprintf("words-%d.config", n))
	if err := os.WriteFile(cfgPath, []byte("user_words_file "+wordsPath+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write tesseract config: %w", err)
	}
	e.configs[key] = cfgPath
	return cfgPath, nil
}

// Close removes the engine's scratch files.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	if e.tmpDir != "" {
		return os.RemoveAll(e.tmpDir)
	}
	return nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, utils.Flatten(img)); err != nil {
		return nil, &utils.ImageProcessingError{Operation: "encode", Err: err}
	}
	return buf.Bytes(), nil
}
