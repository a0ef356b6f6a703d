package testutil

import (
	"bytes"
	"context"
	"image"
	"strings"
	"sync"

	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

// ScriptedEngine is an engine.Engine that "reads" fixed text from pages generated
// by GenerateTextImage. When RequireUpright is set, rotated pages read as noise.
type ScriptedEngine struct {
	EngineName     string
	Caps           engine.Capabilities
	Text           string
	Confidence     float64
	RequireUpright bool
	// Err, when set, is returned by every Recognize call.
	Err error

	mu       sync.Mutex
	requests []engine.Request
	closed   bool
}

// NewScriptedEngine returns an upright-sensitive engine with every capability.
func NewScriptedEngine(name, text string) *ScriptedEngine {
	return &ScriptedEngine{
		EngineName:     name,
		Caps:           engine.Capabilities{FastMode: true, Vocabulary: true, Language: true},
		Text:           text,
		Confidence:     0.9,
		RequireUpright: true,
	}
}

func (e *ScriptedEngine) Name() string                      { return e.EngineName }
func (e *ScriptedEngine) Capabilities() engine.Capabilities { return e.Caps }

func (e *ScriptedEngine) Recognize(ctx context.Context, img image.Image, req engine.Request) (engine.Result, error) {
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}
	e.mu.Lock()
	e.requests = append(e.requests, req)
	closed := e.closed
	e.mu.Unlock()

	if closed {
		return engine.Result{}, engine.ErrEngineClosed
	}
	if e.Err != nil {
		return engine.Result{}, e.Err
	}
	if e.RequireUpright && !IsUpright(img) {
		return engine.Result{Text: "~ ,", Confidence: 0.1, Lines: []engine.Line{{Text: "~ ,", Confidence: 0.1}}}, nil
	}
	res := engine.Result{Text: e.Text}
	if e.Text == "" {
		return res, nil
	}
	res.Confidence = e.Confidence
	for _, l := range strings.Split(e.Text, "\n") {
		res.Lines = append(res.Lines, engine.Line{Text: l, Confidence: e.Confidence})
	}
	return res, nil
}

func (e *ScriptedEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// Requests returns a copy of every request received.
func (e *ScriptedEngine) Requests() []engine.Request {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.Request(nil), e.requests...)
}

// Closed reports whether Close was called.
func (e *ScriptedEngine) Closed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// RegisterScripted registers a factory for name that returns a fresh
// ScriptedEngine reading text. The returned func unregisters it.
func RegisterScripted(name, text string) func() {
	engine.Register(engine.Descriptor{
		Name:         name,
		Description:  "scripted test engine",
		Capabilities: engine.Capabilities{FastMode: true, Vocabulary: true, Language: true},
		Factory: func(context.Context, engine.Options) (engine.Engine, error) {
			return NewScriptedEngine(name, text), nil
		},
	})
	return func() { engine.Unregister(name) }
}

// PNGConverter decodes any raster regardless of the file extension, so fixture
// PNGs can stand in for HEIC photos.
type PNGConverter struct{}

func (PNGConverter) Name() string { return "fixture" }

func (PNGConverter) Convert(_ context.Context, path string) (image.Image, error) {
	data, err := utils.ReadImageFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := utils.DecodeImage(bytes.NewReader(data))
	return img, err
}
