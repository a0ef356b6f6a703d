package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinEnginesRegistered(t *testing.T) {
	names := Names()
	for _, n := range []string{EasyOCR, PaddleOCR, Vision} {
		assert.Contains(t, names, n)
		d, ok := Lookup(n)
		require.True(t, ok)
		assert.NotNil(t, d.Factory)
		assert.NotNil(t, d.Check)
	}
	assert.True(t, visionCapabilities.Vocabulary)
	assert.False(t, easyOCRCapabilities.Vocabulary)
	assert.False(t, paddleCapabilities.FastMode)
}

func TestRegisterAndNew(t *testing.T) {
	const name = "test-recording"
	eng := &recordingEngine{result: Result{Text: "ok"}}
	var gotOpts Options
	Register(Descriptor{
		Name: name,
		Factory: func(_ context.Context, opts Options) (Engine, error) {
			gotOpts = opts
			return eng, nil
		},
	})
	t.Cleanup(func() { Unregister(name) })

	opts := DefaultOptions()
	opts.Language = "de"
	e, err := New(context.Background(), name, opts)
	require.NoError(t, err)
	assert.Same(t, eng, e)
	assert.Equal(t, "de", gotOpts.Language)
	assert.NoError(t, Available(name, opts), "engines without a check are always available")
}

func TestNew_UnknownEngine(t *testing.T) {
	_, err := New(context.Background(), "does-not-exist", DefaultOptions())
	require.ErrorIs(t, err, ErrUnknownEngine)

	err = Available("does-not-exist", DefaultOptions())
	require.ErrorIs(t, err, ErrUnknownEngine)
}

func TestAvailable_UsesCheck(t *testing.T) {
	const name = "test-unavailable"
	missing := errors.New("not installed")
	Register(Descriptor{
		Name:    name,
		Factory: func(context.Context, Options) (Engine, error) { return nil, missing },
		Check:   func(Options) error { return missing },
	})
	t.Cleanup(func() { Unregister(name) })

	assert.ErrorIs(t, Available(name, DefaultOptions()), missing)
}

func TestNames_Sorted(t *testing.T) {
	Register(Descriptor{Name: "aaa-first"})
	Register(Descriptor{Name: "zzz-last"})
	t.Cleanup(func() {
		Unregister("aaa-first")
		Unregister("zzz-last")
	})

	names := Names()
	require.NotEmpty(t, names)
	assert.Equal(t, "aaa-first", names[0])
	assert.Equal(t, "zzz-last", names[len(names)-1])
}
