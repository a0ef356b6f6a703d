package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/heic2txt/internal/common"
	"github.com/MeKo-Tech/heic2txt/internal/convert"
	"github.com/MeKo-Tech/heic2txt/internal/textutil"
	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

// ErrUnreadableImage marks inputs that are empty or cannot be decoded. Callers skip them with a warning.
var ErrUnreadableImage = errors.New("unreadable image")

// artifactSaver receives intermediate images; kind is "preprocessed" or "rotated_<angle>deg".
type artifactSaver func(kind string, img image.Image) error

// OutputPath returns <stem>.txt for input in outDir. An empty outDir places the
// text next to the input.
func OutputPath(input, outDir string) string {
	if outDir == "" {
		outDir = filepath.Dir(input)
	}
	return filepath.Join(outDir, Stem(input)+".txt")
}

// Stem is the input file name without directory and extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ProcessFile converts, orients and transcribes input and writes the text to outFile.
// Artifacts are written next to outFile and named after it.
func (p *Pipeline) ProcessFile(ctx context.Context, input, outFile string) (*FileResult, error) {
	total := common.NewNamedTimer("total")
	res := &FileResult{Input: input, Output: outFile, Engine: p.EngineName()}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	convTimer := common.NewNamedTimer("convert")
	img, err := p.Converter.Convert(ctx, input)
	res.ConvertNs = convTimer.Stop().Nanoseconds()
	if err != nil {
		return nil, p.classifyConvertError(ctx, input, err)
	}
	if err := utils.ValidateImageConstraints(img, p.cfg.Constraints); err != nil {
		p.logger.Warn("image does not meet constraints, continuing", "file", input, "error", err)
	}

	outDir := filepath.Dir(outFile)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	var save artifactSaver
	if p.cfg.SaveArtifacts {
		stem := strings.TrimSuffix(filepath.Base(outFile), filepath.Ext(outFile))
		save = func(kind string, img image.Image) error {
			path := filepath.Join(outDir, stem+"_"+kind+".png")
			if err := utils.SaveImagePNG(img, path); err != nil {
				return err
			}
			res.Artifacts = append(res.Artifacts, path)
			return nil
		}
	}

	imgRes, err := p.process(ctx, img, save)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}
	res.Image = imgRes
	res.Stats = textutil.ComputeStats(imgRes.Text)

	text := imgRes.Text
	if strings.TrimSpace(text) == "" {
		p.logger.Warn("no text found", "file", input)
		res.NoText = true
		text = NoTextPlaceholder
	}
	if err := os.WriteFile(outFile, []byte(text), 0o600); err != nil {
		return nil, fmt.Errorf("write text output: %w", err)
	}

	res.TotalNs = total.Stop().Nanoseconds()
	p.Profiler.Record(res)
	p.logger.Info("processed file", "file", input, "output", outFile, "engine", res.Engine,
		"angle", imgRes.Orientation.Angle, "chars", res.Stats.Chars)
	return res, nil
}

func (p *Pipeline) classifyConvertError(ctx context.Context, input string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, convert.ErrToolNotFound) {
		return fmt.Errorf("convert %s: %w", input, err)
	}
	var ipe *utils.ImageProcessingError
	if errors.Is(err, utils.ErrEmptyImage) || errors.As(err, &ipe) {
		return fmt.Errorf("%w: %s: %w", ErrUnreadableImage, input, err)
	}
	return fmt.Errorf("convert %s: %w", input, err)
}

// ProcessImage runs preprocessing, orientation selection and the full recognition
// pass over an already decoded image. No files are written.
func (p *Pipeline) ProcessImage(ctx context.Context, img image.Image) (*ImageResult, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	return p.process(ctx, img, nil)
}

func (p *Pipeline) process(ctx context.Context, img image.Image, save artifactSaver) (*ImageResult, error) {
	var stages common.Stages
	res := &ImageResult{}
	b := img.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()

	working := img
	if p.cfg.Preprocess {
		t := stages.Start("preprocess")
		pre, err := utils.Preprocess(img, p.cfg.PreprocessOptions)
		res.Processing.PreprocessNs = stages.Stop(t).Nanoseconds()
		if err != nil {
			// recognition still runs on the unprocessed image
			p.logger.Warn("preprocessing failed, using original image", "error", err)
		} else {
			working = pre
			p.saveArtifact(save, "preprocessed", pre)
		}
	}

	t := stages.Start("orientation")
	orient, err := p.Detector.Detect(ctx, working)
	res.Processing.OrientationNs = stages.Stop(t).Nanoseconds()
	if err != nil {
		return nil, fmt.Errorf("orientation: %w", err)
	}
	res.Orientation.Angle = int(orient.Angle)
	res.Orientation.Confidence = orient.Confidence
	res.Orientation.Applied = orient.Angle != 0
	for i, s := range orient.Scores {
		if i < len(res.Orientation.Scores) {
			res.Orientation.Scores[i] = s.Score
		}
	}
	working = orient.Image
	if res.Orientation.Applied {
		p.saveArtifact(save, fmt.Sprintf("rotated_%ddeg", res.Orientation.Angle), working)
	}

	t = stages.Start("recognition")
	rec, err := p.Engine.Recognize(ctx, working)
	res.Processing.RecognitionNs = stages.Stop(t).Nanoseconds()
	if err != nil {
		return nil, fmt.Errorf("recognize: %w", err)
	}

	res.Text = rec.Text
	res.Confidence = rec.Confidence
	res.Lines = rec.Lines
	if p.cfg.PostProcess {
		res.Text = textutil.PostProcess(res.Text, p.cfg.CleanOptions)
	}
	res.Processing.TotalNs = stages.Total().Nanoseconds()
	if err := ValidateImageResult(res); err != nil {
		p.logger.Warn("engine returned an inconsistent result", "engine", p.EngineName(), "error", err)
	}
	p.logger.Debug("image processed", "angle", res.Orientation.Angle, "stages", stages.String())
	return res, nil
}

func (p *Pipeline) saveArtifact(save artifactSaver, kind string, img image.Image) {
	if save == nil {
		return
	}
	if err := save(kind, img); err != nil {
		p.logger.Warn("failed to save intermediate image", "kind", kind, "error", err)
	}
}
