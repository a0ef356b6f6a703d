package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Factory creates an engine handle.
type Factory func(ctx context.Context, opts Options) (Engine, error)

// Descriptor describes a registered engine.
type Descriptor struct {
	Name         string
	Description  string
	Capabilities Capabilities
	Factory      Factory
	// Check reports whether the engine's runtime appears to be installed.
	Check func(opts Options) error
}

var (
	registryMu sync.RWMutex
	registry   = map[string]Descriptor{}
)

// Register adds or replaces an engine descriptor.
func Register(d Descriptor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d.Name] = d
}

// Unregister removes an engine descriptor.
func Unregister(name string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	delete(registry, name)
}

// Lookup returns the descriptor for name.
func Lookup(name string) (Descriptor, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[name]
	return d, ok
}

// Names lists registered engine names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// New creates the named engine. The caller owns the handle and must Close it.
func New(ctx context.Context, name string, opts Options) (Engine, error) {
	d, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownEngine, name, Names())
	}
	return d.Factory(ctx, opts)
}

// Available reports whether the named engine's runtime appears to be installed.
func Available(name string, opts Options) error {
	d, ok := Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEngine, name)
	}
	if d.Check == nil {
		return nil
	}
	return d.Check(opts)
}

// The Python-backed engines are always registered. Tesseract links libtesseract
// through cgo and registers itself from package engine/tesseract.
func init() {
	Register(Descriptor{
		Name:         EasyOCR,
		Description:  "EasyOCR through a Python runner",
		Capabilities: easyOCRCapabilities,
		Factory:      newEasyOCREngine,
		Check:        pythonModuleCheck("easyocr"),
	})
	Register(Descriptor{
		Name:         PaddleOCR,
		Description:  "PaddleOCR through a Python runner",
		Capabilities: paddleCapabilities,
		Factory:      newPaddleEngine,
		Check:        pythonModuleCheck("paddleocr"),
	})
	Register(Descriptor{
		Name:         Vision,
		Description:  "Apple Vision framework through PyObjC (macOS only)",
		Capabilities: visionCapabilities,
		Factory:      newVisionEngine,
		Check:        checkVision,
	})
}
