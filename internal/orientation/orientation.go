// Package orientation picks the upright rotation of an image by probing
// each right-angle candidate with a fast recognition pass.
package orientation

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

// Angle is a clockwise rotation in degrees.
type Angle int

// Candidate rotations.
const (
	Angle0   Angle = 0
	Angle90  Angle = 90
	Angle180 Angle = 180
	Angle270 Angle = 270
)

// Angles lists the candidate rotations in probe order. Ties resolve to the earliest entry.
var Angles = []Angle{Angle0, Angle90, Angle180, Angle270}

// Valid reports whether a is one of the candidate rotations.
func (a Angle) Valid() bool {
	switch a {
	case Angle0, Angle90, Angle180, Angle270:
		return true
	}
	return false
}

// Inverse returns the rotation that undoes a.
func (a Angle) Inverse() Angle {
	return Angle((360 - int(a)) % 360)
}

func (a Angle) String() string {
	return fmt.Sprintf("%ddeg", int(a))
}

// Candidate is one rotated variant of the input image.
type Candidate struct {
	Angle Angle
	Image image.Image
}

// Rotate returns img rotated clockwise by a.
func Rotate(img image.Image, a Angle) (image.Image, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("invalid orientation angle %d", int(a))
	}
	return utils.RotateClockwise(img, int(a))
}

// GenerateCandidates returns the four rotated variants of img in probe order.
func GenerateCandidates(img image.Image) ([]Candidate, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	candidates := make([]Candidate, 0, len(Angles))
	for _, a := range Angles {
		rotated, err := Rotate(img, a)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, Candidate{Angle: a, Image: rotated})
	}
	return candidates, nil
}

// Config controls orientation probing.
type Config struct {
	Enabled bool
	// ProbeMaxSide downsizes candidates before probing; 0 probes at full resolution.
	ProbeMaxSide int
}

// DefaultConfig provides sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		ProbeMaxSide: 0,
	}
}

// Prober runs a fast recognition pass over an image.
type Prober interface {
	Probe(ctx context.Context, img image.Image) (engine.Result, error)
}

// Result represents the chosen orientation.
type Result struct {
	Angle      Angle
	Confidence float64 // winner score divided by the sum of all scores; 0 when nothing was read
	Scores     []Score
	Image      image.Image // full-resolution image rotated by Angle
}

// Detector selects the orientation of an image.
type Detector struct {
	prober Prober
	cfg    Config
	logger *slog.Logger
}

// NewDetector creates a detector that probes through p.
func NewDetector(p Prober, cfg Config) *Detector {
	return &Detector{prober: p, cfg: cfg, logger: slog.Default()}
}

// WithLogger sets the logger used for per-candidate diagnostics.
func (d *Detector) WithLogger(l *slog.Logger) *Detector {
	if l != nil {
		d.logger = l
	}
	return d
}

// Detect probes every candidate rotation of img and returns the best one.
// A failed probe scores zero for its candidate; only context cancellation aborts detection.
func (d *Detector) Detect(ctx context.Context, img image.Image) (Result, error) {
	if img == nil {
		return Result{}, errors.New("input image is nil")
	}
	if !d.cfg.Enabled || d.prober == nil {
		return Result{Angle: Angle0, Image: img}, nil
	}

	candidates, err := GenerateCandidates(img)
	if err != nil {
		return Result{}, fmt.Errorf("generate orientation candidates: %w", err)
	}

	scores := make([]Score, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		scores = append(scores, d.probeCandidate(ctx, c))
	}

	best := Select(scores)
	res := Result{
		Angle:      best.Angle,
		Confidence: confidence(best, scores),
		Scores:     scores,
	}
	for _, c := range candidates {
		if c.Angle == best.Angle {
			res.Image = c.Image
			break
		}
	}

	d.logger.Debug("orientation selected", "angle", int(res.Angle), "score", best.Score,
		"confidence", res.Confidence)
	return res, nil
}

// probeCandidate scores one candidate. Any failure scores 0 and is logged.
func (d *Detector) probeCandidate(ctx context.Context, c Candidate) Score {
	r, err := d.readCandidate(ctx, c.Image)
	if err != nil {
		d.logger.Warn("orientation probe failed", "angle", int(c.Angle), "error", err)
		return Score{Angle: c.Angle, Err: err}
	}
	s := Score{Angle: c.Angle, Text: r.Text, Score: ScoreText(r.Text)}
	d.logger.Debug("orientation probe", "angle", int(c.Angle), "score", s.Score)
	return s
}

func (d *Detector) readCandidate(ctx context.Context, img image.Image) (engine.Result, error) {
	small, err := utils.ScaleDownToMaxSide(img, d.cfg.ProbeMaxSide)
	if err != nil {
		return engine.Result{}, fmt.Errorf("downscale candidate: %w", err)
	}
	return d.prober.Probe(ctx, small)
}

func confidence(best Score, scores []Score) float64 {
	total := 0
	for _, s := range scores {
		total += s.Score
	}
	if total == 0 {
		return 0
	}
	return float64(best.Score) / float64(total)
}
