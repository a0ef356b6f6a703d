package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ProgressCallback receives per-file progress during a batch run.
type ProgressCallback interface {
	// OnStart is called once with the number of files to process.
	OnStart(total int)

	// OnFile is called after each file, successful or not. current is 1-based.
	OnFile(current, total int, file string)

	// OnError is called for a file that failed or was skipped.
	OnError(current int, file string, err error)

	// OnComplete is called when the batch is finished.
	OnComplete(succeeded, failed int)
}

// NoOpProgressCallback implements ProgressCallback but does nothing.
type NoOpProgressCallback struct{}

func (NoOpProgressCallback) OnStart(int)                {}
func (NoOpProgressCallback) OnFile(int, int, string)    {}
func (NoOpProgressCallback) OnError(int, string, error) {}
func (NoOpProgressCallback) OnComplete(int, int)        {}

// ConsoleProgressCallback draws a progress bar with the current file name.
type ConsoleProgressCallback struct {
	writer         io.Writer
	prefix         string
	width          int
	lastUpdate     time.Time
	updateInterval time.Duration
	mutex          sync.Mutex
	startTime      time.Time
	showETA        bool
}

// NewConsoleProgressCallback creates a console progress reporter writing to writer (stderr when nil).
func NewConsoleProgressCallback(writer io.Writer, prefix string) *ConsoleProgressCallback {
	if writer == nil {
		writer = os.Stderr
	}
	return &ConsoleProgressCallback{
		writer:         writer,
		prefix:         prefix,
		width:          30,
		updateInterval: 100 * time.Millisecond,
		showETA:        true,
	}
}

// WithWidth sets the progress bar width.
func (c *ConsoleProgressCallback) WithWidth(width int) *ConsoleProgressCallback {
	c.width = width
	return c
}

// WithUpdateInterval sets how frequently the progress bar updates.
func (c *ConsoleProgressCallback) WithUpdateInterval(interval time.Duration) *ConsoleProgressCallback {
	c.updateInterval = interval
	return c
}

// WithETA toggles the remaining-time estimate.
func (c *ConsoleProgressCallback) WithETA(show bool) *ConsoleProgressCallback {
	c.showETA = show
	return c
}

func (c *ConsoleProgressCallback) OnStart(total int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.startTime = time.Now()
	c.lastUpdate = time.Time{}
	_, _ = fmt.Fprintf(c.writer, "%s0/%d files\n", c.prefix, total)
}

func (c *ConsoleProgressCallback) OnFile(current, total int, file string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	if now.Sub(c.lastUpdate) < c.updateInterval && current < total {
		return
	}
	c.lastUpdate = now
	c.drawProgressBar(current, total, file, now)
}

func (c *ConsoleProgressCallback) OnError(current int, file string, err error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	_, _ = fmt.Fprintf(c.writer, "\n%s%s (file %d): %v\n", c.prefix, filepath.Base(file), current, err)
}

func (c *ConsoleProgressCallback) OnComplete(succeeded, failed int) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elapsed := time.Since(c.startTime)
	_, _ = fmt.Fprintf(c.writer, "\n%s%d succeeded, %d failed in %v\n", c.prefix, succeeded, failed,
		elapsed.Round(time.Millisecond))
}

func (c *ConsoleProgressCallback) drawProgressBar(current, total int, file string, now time.Time) {
	if total <= 0 {
		return
	}
	current = min(current, total)
	percent := float64(current) / float64(total) * 100.0
	filled := c.width * current / total

	bar := strings.Repeat("█", filled) + strings.Repeat("░", c.width-filled)
	status := fmt.Sprintf("\r%s[%s] %d/%d (%.1f%%) %s", c.prefix, bar, current, total, percent, filepath.Base(file))

	elapsed := now.Sub(c.startTime)
	if c.showETA && current > 0 && current < total && elapsed > 0 {
		eta := time.Duration(elapsed.Seconds()*float64(total-current)/float64(current)) * time.Second
		status += fmt.Sprintf(" ETA: %v", eta.Round(time.Second))
	}
	_, _ = fmt.Fprint(c.writer, status)
}

// LogProgressCallback logs progress through slog.
type LogProgressCallback struct {
	logger    *slog.Logger
	level     slog.Level
	interval  int // log every N files
	lastLog   int
	startTime time.Time
}

// NewLogProgressCallback creates a log-based progress reporter.
func NewLogProgressCallback(logger *slog.Logger, level slog.Level) *LogProgressCallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgressCallback{logger: logger, level: level, interval: 1}
}

// WithInterval sets how frequently to log progress (every N files).
func (l *LogProgressCallback) WithInterval(interval int) *LogProgressCallback {
	l.interval = max(interval, 1)
	return l
}

func (l *LogProgressCallback) OnStart(total int) {
	l.startTime = time.Now()
	l.lastLog = 0
	l.logger.Log(context.Background(), l.level, "batch started", "total", total)
}

func (l *LogProgressCallback) OnFile(current, total int, file string) {
	if current-l.lastLog < l.interval && current != total {
		return
	}
	l.lastLog = current
	l.logger.Log(context.Background(), l.level, "batch progress",
		"current", current,
		"total", total,
		"file", file,
		"elapsed", time.Since(l.startTime).Round(time.Millisecond),
	)
}

// OnError logs at the callback's level; the batch itself reports the failure.
func (l *LogProgressCallback) OnError(current int, file string, err error) {
	l.logger.Log(context.Background(), l.level, "batch file failed", "current", current, "file", file, "error", err)
}

func (l *LogProgressCallback) OnComplete(succeeded, failed int) {
	l.logger.Log(context.Background(), l.level, "batch completed",
		"succeeded", succeeded, "failed", failed, "elapsed", time.Since(l.startTime).Round(time.Millisecond))
}

// MultiProgressCallback fans progress out to several callbacks.
type MultiProgressCallback struct {
	callbacks []ProgressCallback
}

// NewMultiProgressCallback creates a progress callback that reports to all callbacks.
func NewMultiProgressCallback(callbacks ...ProgressCallback) *MultiProgressCallback {
	return &MultiProgressCallback{callbacks: callbacks}
}

// Add adds another progress callback.
func (m *MultiProgressCallback) Add(callback ProgressCallback) {
	m.callbacks = append(m.callbacks, callback)
}

func (m *MultiProgressCallback) OnStart(total int) {
	for _, cb := range m.callbacks {
		cb.OnStart(total)
	}
}

func (m *MultiProgressCallback) OnFile(current, total int, file string) {
	for _, cb := range m.callbacks {
		cb.OnFile(current, total, file)
	}
}

func (m *MultiProgressCallback) OnError(current int, file string, err error) {
	for _, cb := range m.callbacks {
		cb.OnError(current, file, err)
	}
}

func (m *MultiProgressCallback) OnComplete(succeeded, failed int) {
	for _, cb := range m.callbacks {
		cb.OnComplete(succeeded, failed)
	}
}
