package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// TestContext holds the state for integration tests.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastStdout   string
	LastStderr   string
	LastExitCode int
	LastDuration time.Duration

	// Test environment
	OriginalDir string
	TempDir     string

	// Restored on cleanup
	envBackup map[string]*string
	cleanups  []func()
}

// NewTestContext creates a scenario workspace and changes into it, so relative
// paths in feature files resolve inside the workspace.
func NewTestContext() (*TestContext, error) {
	originalDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "heic2txt-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	ctx := &TestContext{
		OriginalDir: originalDir,
		TempDir:     tempDir,
		envBackup:   map[string]*string{},
	}

	// keep user configuration out of the scenario
	ctx.SetEnv("HOME", filepath.Join(tempDir, ".home"))
	ctx.SetEnv("XDG_CONFIG_HOME", filepath.Join(tempDir, ".home", "xdg"))
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "HEIC2TXT_") {
			name, _, _ := strings.Cut(env, "=")
			ctx.UnsetEnv(name)
		}
	}

	if err := os.Chdir(tempDir); err != nil {
		return nil, fmt.Errorf("failed to enter temp directory: %w", err)
	}
	return ctx, nil
}

// Cleanup restores the environment and working directory and removes the workspace.
func (testCtx *TestContext) Cleanup() error {
	var errs []error

	for i := len(testCtx.cleanups) - 1; i >= 0; i-- {
		testCtx.cleanups[i]()
	}
	testCtx.cleanups = nil

	for name, value := range testCtx.envBackup {
		if value == nil {
			_ = os.Unsetenv(name)
		} else {
			_ = os.Setenv(name, *value)
		}
	}
	testCtx.envBackup = map[string]*string{}

	if err := os.Chdir(testCtx.OriginalDir); err != nil {
		errs = append(errs, fmt.Errorf("failed to restore working directory: %w", err))
	}
	if err := os.RemoveAll(testCtx.TempDir); err != nil && !os.IsNotExist(err) {
		errs = append(errs, fmt.Errorf("failed to remove temp directory %s: %w", testCtx.TempDir, err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("cleanup errors: %v", errs)
	}
	return nil
}

// SetEnv sets an environment variable for the rest of the scenario.
func (testCtx *TestContext) SetEnv(name, value string) {
	testCtx.backupEnv(name)
	_ = os.Setenv(name, value)
}

// UnsetEnv removes an environment variable for the rest of the scenario.
func (testCtx *TestContext) UnsetEnv(name string) {
	testCtx.backupEnv(name)
	_ = os.Unsetenv(name)
}

func (testCtx *TestContext) backupEnv(name string) {
	if _, saved := testCtx.envBackup[name]; saved {
		return
	}
	if value, ok := os.LookupEnv(name); ok {
		testCtx.envBackup[name] = &value
	} else {
		testCtx.envBackup[name] = nil
	}
}

// OnCleanup registers f to run when the scenario ends.
func (testCtx *TestContext) OnCleanup(f func()) {
	testCtx.cleanups = append(testCtx.cleanups, f)
}

// Path resolves a scenario-relative path.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.TempDir, name)
}

// LastOutput is stdout followed by stderr.
func (testCtx *TestContext) LastOutput() string {
	return testCtx.LastStdout + testCtx.LastStderr
}
