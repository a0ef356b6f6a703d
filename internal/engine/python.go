package engine

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

//go:embed runner.py
var runnerScript string

// runnerConfig is passed to the runner as its only argument.
type runnerConfig struct {
	Engine        string         `json:"engine"`
	Languages     []string       `json:"languages,omitempty"`
	InitArgs      map[string]any `json:"init_args,omitempty"`
	Params        *EasyOCRParams `json:"params,omitempty"`
	MinTextHeight float64        `json:"min_text_height,omitempty"`
}

type runnerRequest struct {
	ID         int64    `json:"id"`
	ImagePath  string   `json:"image_path"`
	Fast       bool     `json:"fast,omitempty"`
	Vocabulary []string `json:"vocabulary,omitempty"`
}

type runnerResponse struct {
	ID     int64  `json:"id"`
	Ready  *bool  `json:"ready,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Option string `json:"option,omitempty"`
	Error  string `json:"error,omitempty"`
	Trace  string `json:"trace,omitempty"`
	Lines  []Line `json:"lines,omitempty"`
}

// pythonEngine drives a long-lived runner process speaking JSON lines over stdin/stdout.
// Calls are serialized; the runner handles one request at a time.
type pythonEngine struct {
	name    string
	caps    Capabilities
	minConf float64
	logger  *slog.Logger

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	out    <-chan []byte
	stderr *tailWriter
	tmpDir string
	nextID int64
	closed bool
	broken error
}

func startPython(ctx context.Context, name string, caps Capabilities, cfg runnerConfig, opts Options) (Engine, error) {
	py, err := ResolvePython(opts.Python)
	if err != nil {
		return nil, NewInitError(name, KindMissingDependency, "", err)
	}
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return nil, NewInitError(name, KindRuntime, "", err)
	}

	tmpDir, err := os.MkdirTemp("", "heic2txt-"+name+"-")
	if err != nil {
		return nil, NewInitError(name, KindRuntime, "", err)
	}

	cmd := exec.Command(py, "-u", "-c", runnerScript, string(cfgJSON)) //nolint:gosec // interpreter path is operator-configured
	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, NewInitError(name, KindRuntime, "", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, NewInitError(name, KindRuntime, "", err)
	}
	stderr := newTailWriter(4096)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		_ = os.RemoveAll(tmpDir)
		return nil, NewInitError(name, KindMissingDependency, "", fmt.Errorf("start %s: %w", py, err))
	}

	e := &pythonEngine{
		name:    name,
		caps:    caps,
		minConf: opts.MinConfidence,
		logger:  slog.Default().With("engine", name),
		cmd:     cmd,
		stdin:   stdin,
		out:     readLines(stdout),
		stderr:  stderr,
		tmpDir:  tmpDir,
	}

	timeout := opts.InitTimeout
	if timeout <= 0 {
		timeout = DefaultOptions().InitTimeout
	}
	if err := e.awaitReady(ctx, timeout); err != nil {
		e.kill()
		return nil, err
	}
	e.logger.Debug("engine ready", "python", py)
	return e, nil
}

// readLines forwards stdout lines until EOF, then closes the channel.
func readLines(r io.Reader) <-chan []byte {
	ch := make(chan []byte, 1)
	go func() {
		defer close(ch)
		br := bufio.NewReader(r)
		for {
			line, err := br.ReadBytes('\n')
			if len(line) > 0 {
				ch <- line
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

func (e *pythonEngine) awaitReady(ctx context.Context, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return NewInitError(e.name, KindRuntime, "", ctx.Err())
		case <-timer.C:
			return NewInitError(e.name, KindRuntime, "", fmt.Errorf("runner not ready after %v", timeout))
		case line, ok := <-e.out:
			if !ok {
				return NewInitError(e.name, KindRuntime, "", fmt.Errorf("runner exited during start-up: %s", e.stderr.String()))
			}
			var resp runnerResponse
			if err := json.Unmarshal(line, &resp); err != nil || resp.Ready == nil {
				e.logger.Debug("runner output", "line", string(line))
				continue
			}
			if *resp.Ready {
				return nil
			}
			kind := InitErrorKind(resp.Kind)
			switch kind {
			case KindUnsupportedOption, KindMissingDependency, KindRuntime:
			default:
				kind = KindRuntime
			}
			return NewInitError(e.name, kind, resp.Option, errors.New(resp.Error))
		}
	}
}

func (e *pythonEngine) Name() string               { return e.name }
func (e *pythonEngine) Capabilities() Capabilities { return e.caps }

// Recognize writes img to a temporary PNG and asks the runner to read it.
func (e *pythonEngine) Recognize(ctx context.Context, img image.Image, req Request) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return Result{}, ErrEngineClosed
	}
	if e.broken != nil {
		return Result{}, fmt.Errorf("%s runner unusable: %w", e.name, e.broken)
	}

	e.nextID++
	id := e.nextID
	path := filepath.Join(e.tmpDir, fmt.Sprintf("req-%d.png", id))
	if err := utils.SaveImagePNG(utils.Flatten(img), path); err != nil {
		return Result{}, err
	}
	defer func() { _ = os.Remove(path) }()

	rr := runnerRequest{ID: id, ImagePath: path, Fast: req.Fast}
	if req.Vocabulary != nil {
		rr.Vocabulary = req.Vocabulary.Words()
	}
	payload, err := json.Marshal(rr)
	if err != nil {
		return Result{}, err
	}
	if _, err := e.stdin.Write(append(payload, '\n')); err != nil {
		e.broken = err
		return Result{}, fmt.Errorf("%s: write request: %w", e.name, err)
	}

	for {
		select {
		case <-ctx.Done():
			e.broken = ctx.Err()
			e.kill()
			return Result{}, ctx.Err()
		case line, ok := <-e.out:
			if !ok {
				e.broken = errors.New("runner exited")
				return Result{}, fmt.Errorf("%s: runner exited: %s", e.name, e.stderr.String())
			}
			var resp runnerResponse
			if err := json.Unmarshal(line, &resp); err != nil || resp.ID != id {
				e.logger.Debug("runner output", "line", string(line))
				continue
			}
			if resp.Error != "" {
				e.logger.Debug("runner traceback", "trace", resp.Trace)
				return Result{}, fmt.Errorf("%s: %s", e.name, resp.Error)
			}
			return joinLines(resp.Lines, e.minConf), nil
		}
	}
}

// Close stops the runner and removes its scratch directory.
func (e *pythonEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	_ = e.stdin.Close()
	go drain(e.out)
	done := make(chan error, 1)
	go func() { done <- e.cmd.Wait() }()

	var err error
	select {
	case err = <-done:
	case <-time.After(5 * time.Second):
		_ = e.cmd.Process.Kill()
		err = <-done
	}
	if rmErr := os.RemoveAll(e.tmpDir); rmErr != nil && err == nil {
		err = rmErr
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && e.broken != nil {
		// killed after cancellation
		err = nil
	}
	return err
}

func (e *pythonEngine) kill() {
	if e.cmd.Process != nil {
		_ = e.cmd.Process.Kill()
	}
	if e.broken == nil {
		// start-up failure: reap now, Close will not be called
		go drain(e.out)
		_ = e.cmd.Wait()
		_ = os.RemoveAll(e.tmpDir)
	}
}

func drain(ch <-chan []byte) {
	for range ch {
	}
}

// tailWriter keeps the last n bytes written to it.
type tailWriter struct {
	mu  sync.Mutex
	n   int
	buf []byte
}

func newTailWriter(n int) *tailWriter { return &tailWriter{n: n} }

func (t *tailWriter) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.n {
		t.buf = t.buf[len(t.buf)-t.n:]
	}
	return len(p), nil
}

func (t *tailWriter) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
