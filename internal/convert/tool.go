package convert

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

// DefaultToolTimeout bounds one external conversion.
const DefaultToolTimeout = 30 * time.Second

// ToolConverter converts HEIC files to PNG with an external command and decodes the result.
// Non-HEIC inputs are decoded in-process.
type ToolConverter struct {
	name    string
	tool    string
	args    func(in, out string) []string
	Timeout time.Duration
}

// NewSips returns the macOS sips converter.
func NewSips() *ToolConverter {
	return &ToolConverter{
		name: Sips,
		tool: "sips",
		args: func(in, out string) []string {
			return []string{"-s", "format", "png", in, "--out", out}
		},
		Timeout: DefaultToolTimeout,
	}
}

// NewHeifConvert returns the libheif heif-convert converter.
func NewHeifConvert() *ToolConverter {
	return &ToolConverter{
		name:    HeifConvert,
		tool:    "heif-convert",
		args:    func(in, out string) []string { return []string{in, out} },
		Timeout: DefaultToolTimeout,
	}
}

func (t *ToolConverter) Name() string { return t.name }

func (t *ToolConverter) Convert(ctx context.Context, path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &utils.ImageProcessingError{Operation: "load", Err: err}
	}
	if info.Size() == 0 {
		return nil, &utils.ImageProcessingError{Operation: "load", Err: utils.ErrEmptyImage}
	}
	if !utils.IsHEICPath(path) {
		img, _, err := utils.LoadImage(path)
		return img, err
	}

	bin, err := exec.LookPath(t.tool)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrToolNotFound, t.tool, err)
	}

	tmpDir, err := os.MkdirTemp("", "heic2txt-convert-")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	out := filepath.Join(tmpDir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".png")

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, t.args(path, out)...) //nolint:gosec // fixed tool, file path argument
	cmd.WaitDelay = time.Second
	output, err := cmd.CombinedOutput()
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s timed out after %v converting %s", t.tool, timeout, path)
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s failed for %s: %w: %s", t.tool, path, err, strings.TrimSpace(string(output)))
	}

	img, _, err := utils.LoadImage(out)
	if err != nil {
		return nil, fmt.Errorf("read %s output: %w", t.tool, err)
	}
	return img, nil
}
