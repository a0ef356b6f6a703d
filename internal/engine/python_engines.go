package engine

import (
	"context"
	"runtime"
)

var (
	easyOCRCapabilities = Capabilities{Language: true, GPU: true}
	paddleCapabilities  = Capabilities{Language: true, GPU: true}
	visionCapabilities  = Capabilities{FastMode: true, Vocabulary: true, Language: true}
)

// visionMinTextHeight is the minimum text height as a fraction of the image height.
const visionMinTextHeight = 0.02

func newEasyOCREngine(ctx context.Context, opts Options) (Engine, error) {
	params := opts.EasyOCR
	if params == (EasyOCRParams{}) {
		params = DefaultEasyOCRParams()
	}
	if err := params.Validate(); err != nil {
		return nil, NewInitError(EasyOCR, KindRuntime, "", err)
	}
	cfg := runnerConfig{
		Engine:    EasyOCR,
		Languages: EasyOCRLanguages(opts.Language),
		InitArgs:  map[string]any{"gpu": opts.GPU},
		Params:    &params,
	}
	return startPython(ctx, EasyOCR, easyOCRCapabilities, cfg, opts)
}

func newPaddleEngine(ctx context.Context, opts Options) (Engine, error) {
	args := map[string]any{
		"use_angle_cls":           true,
		"lang":                    PaddleLanguage(opts.Language),
		"text_det_limit_side_len": 4000,
		"text_det_limit_type":     "max",
	}
	if opts.GPU {
		args["use_gpu"] = true
	}
	cfg := runnerConfig{Engine: PaddleOCR, InitArgs: args}
	return startPython(ctx, PaddleOCR, paddleCapabilities, cfg, opts)
}

func newVisionEngine(ctx context.Context, opts Options) (Engine, error) {
	if runtime.GOOS != "darwin" {
		return nil, NewInitError(Vision, KindMissingDependency, "", errNotDarwin())
	}
	cfg := runnerConfig{
		Engine:        Vision,
		Languages:     VisionLanguages(opts.Language),
		MinTextHeight: visionMinTextHeight,
	}
	return startPython(ctx, Vision, visionCapabilities, cfg, opts)
}
