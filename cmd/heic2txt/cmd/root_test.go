package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/testutil"
)

const pageText = "resource \"aws_instance\" \"web\" {\n  ami = \"ami-123\"\n}"

// isolate runs the test in an empty directory with no user configuration.
func isolate(t *testing.T) string {
	t.Helper()
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "HEIC2TXT_") {
			name, _, _ := strings.Cut(env, "=")
			t.Setenv(name, "")
			_ = os.Unsetenv(name)
		}
	}
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	wd := t.TempDir()
	t.Chdir(wd)
	return wd
}

// scripted registers a test engine that reads pageText from upright pages.
func scripted(t *testing.T) string {
	t.Helper()
	name := "scripted-" + strings.ToLower(strings.ReplaceAll(t.Name(), "/", "-"))
	t.Cleanup(testutil.RegisterScripted(name, pageText))
	return name
}

func writePage(t *testing.T, dir, name string, rotation int) string {
	t.Helper()
	cfg := testutil.DefaultTestImageConfig()
	cfg.Rotation = rotation
	return testutil.WriteImage(t, dir, name, testutil.MustTextImage(t, cfg))
}

type result struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(context.Background(), args, &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func TestRootCommand(t *testing.T) {
	rootCmd := NewRootCommand()
	assert.Equal(t, "heic2txt", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)

	var names []string
	for _, sub := range rootCmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"convert", "batch", "compare", "tune", "vocab", "engines", "config"} {
		assert.Contains(t, names, expected, "Expected subcommand '%s' not found", expected)
	}

	for _, flag := range []string{"config", "engine", "language", "gpu", "no-rotate", "preprocess",
		"postprocess", "save-images", "vocab", "vocab-file", "converter", "log-level", "verbose"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(flag), "missing global flag --%s", flag)
	}
}

func TestRootCommandHelpAndVersion(t *testing.T) {
	isolate(t)

	res := run(t, "--help")
	require.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "Available Commands:")
	assert.Contains(t, res.stdout, "Usage:")

	res = run(t, "--version")
	require.Equal(t, ExitOK, res.code)
	assert.Contains(t, res.stdout, "dev (commit: unknown")
}

func TestRootCommandInvalidFlag(t *testing.T) {
	isolate(t)
	res := run(t, "convert", "--definitely-not-a-flag")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "unknown flag")
}

func TestRootCommandInvalidConfig(t *testing.T) {
	isolate(t)
	res := run(t, "engines", "--converter", "imagemagick")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "invalid converter")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(ErrFilesFailed))
	initErr := engine.NewInitError(engine.PaddleOCR, engine.KindUnsupportedOption, "use_gpu", errors.New("unexpected keyword"))
	assert.Equal(t, ExitEngineInit, ExitCode(fmt.Errorf("start: %w", initErr)))

	var buf bytes.Buffer
	ReportError(&buf, initErr)
	assert.Contains(t, buf.String(), `unsupported option "use_gpu"`)
	assert.Contains(t, buf.String(), "Hint: ")
	assert.Contains(t, buf.String(), "paddleocr<3")
}

func TestEnginesCommand(t *testing.T) {
	isolate(t)
	name := scripted(t)

	res := run(t, "engines")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "ENGINE")
	assert.Contains(t, res.stdout, name)
	assert.Contains(t, res.stdout, engine.EasyOCR)

	res = run(t, "engines", "--json")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"name": "`+name+`"`)
	assert.Contains(t, res.stdout, `"fast_mode": true`)
}

func TestVocabCommand(t *testing.T) {
	isolate(t)

	res := run(t, "vocab", "list")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, "DOMAIN")
	assert.Contains(t, res.stdout, "terraform")

	res = run(t, "vocab", "show", "terraform")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.NotEmpty(t, strings.TrimSpace(res.stdout))

	res = run(t, "vocab", "show", "cobol")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "unknown vocabulary domain")
}

func TestConfigCommand(t *testing.T) {
	wd := isolate(t)

	res := run(t, "config", "init")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.FileExists(t, filepath.Join(wd, "heic2txt.yaml"))

	res = run(t, "config", "init")
	assert.Equal(t, ExitFailure, res.code)
	assert.Contains(t, res.stderr, "already exists")

	res = run(t, "config", "init", "--force")
	assert.Equal(t, ExitOK, res.code, res.stderr)

	res = run(t, "config", "show", "--engine", "tesseract")
	require.Equal(t, ExitOK, res.code, res.stderr)
	assert.Contains(t, res.stdout, `"name": "tesseract"`)
	assert.Contains(t, res.stderr, "heic2txt.yaml")

	res = run(t, "config", "show", "--settings", "--engine", "tesseract")
	require.Equal(t, ExitOK, res.code, res.stderr)
	var settings map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(res.stdout), &settings))
	require.Contains(t, settings, "engine")
	assert.Equal(t, "tesseract", settings["engine"].(map[string]any)["name"])
}
