package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// EnvPython overrides the interpreter used by Python-backed engines.
const EnvPython = "HEIC2TXT_PYTHON"

// DefaultPython is the interpreter looked up on PATH when nothing else is configured.
const DefaultPython = "python3"

// ErrPythonNotFound is returned when no Python interpreter can be located.
var ErrPythonNotFound = errors.New("python interpreter not found")

// ResolvePython returns the interpreter path.
// Priority: 1. explicit path, 2. environment variable, 3. active virtualenv, 4. python3/python on PATH.
func ResolvePython(explicit string) (string, error) {
	var candidates []string
	if explicit != "" {
		candidates = append(candidates, explicit)
	}
	if env := os.Getenv(EnvPython); env != "" {
		candidates = append(candidates, env)
	}
	if venv := os.Getenv("VIRTUAL_ENV"); venv != "" {
		bin := "bin"
		if runtime.GOOS == "windows" {
			bin = "Scripts"
		}
		candidates = append(candidates, filepath.Join(venv, bin, "python"))
	}
	candidates = append(candidates, DefaultPython, "python")

	for _, c := range candidates {
		if p, err := exec.LookPath(c); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w (tried %v; set %s)", ErrPythonNotFound, candidates, EnvPython)
}

// pythonModuleCheck returns an availability check that imports module in the configured interpreter.
func pythonModuleCheck(module string) func(Options) error {
	return func(opts Options) error {
		py, err := ResolvePython(opts.Python)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()
		out, err := exec.CommandContext(ctx, py, "-c", "import "+module).CombinedOutput() //nolint:gosec // fixed module names
		if err != nil {
			return fmt.Errorf("python module %s not importable with %s: %w: %s", module, py, err, trimOutput(out))
		}
		return nil
	}
}

func errNotDarwin() error {
	return fmt.Errorf("apple vision is only available on macOS (running on %s)", runtime.GOOS)
}

func checkVision(opts Options) error {
	if runtime.GOOS != "darwin" {
		return errNotDarwin()
	}
	return pythonModuleCheck("Vision")(opts)
}

func trimOutput(out []byte) string {
	const limit = 400
	s := string(out)
	if len(s) > limit {
		s = s[len(s)-limit:]
	}
	return s
}
