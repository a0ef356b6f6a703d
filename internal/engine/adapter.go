package engine

import (
	"context"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/heic2txt/internal/vocabulary"
)

// Adapter presents an Engine as a fast probe and a full recognition pass.
// Request features the engine does not declare are silently dropped.
type Adapter struct {
	eng    Engine
	caps   Capabilities
	vocab  *vocabulary.List
	logger *slog.Logger
}

// NewAdapter wraps eng. vocab may be nil.
func NewAdapter(eng Engine, vocab *vocabulary.List) *Adapter {
	a := &Adapter{eng: eng, caps: eng.Capabilities(), vocab: vocab, logger: slog.Default()}
	if vocab != nil && !a.caps.Vocabulary {
		a.logger.Debug("engine ignores vocabulary hints", "engine", eng.Name(), "words", vocab.Len())
	}
	return a
}

// Engine returns the wrapped engine.
func (a *Adapter) Engine() Engine { return a.eng }

// Probe runs a fast pass without vocabulary hints.
func (a *Adapter) Probe(ctx context.Context, img image.Image) (Result, error) {
	return a.Do(ctx, img, Request{Fast: true})
}

// Recognize runs the full pass with the adapter's vocabulary.
func (a *Adapter) Recognize(ctx context.Context, img image.Image) (Result, error) {
	return a.Do(ctx, img, Request{Vocabulary: a.vocab})
}

// Do normalizes req against the engine's capabilities and runs it.
func (a *Adapter) Do(ctx context.Context, img image.Image, req Request) (Result, error) {
	return a.eng.Recognize(ctx, img, a.normalize(req))
}

func (a *Adapter) normalize(req Request) Request {
	if req.Fast && !a.caps.FastMode {
		req.Fast = false
	}
	if req.Vocabulary != nil && !a.caps.Vocabulary {
		req.Vocabulary = nil
	}
	return req
}
