package batch

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
)

// ErrOutputConflict marks an input whose text file is already claimed by another input.
var ErrOutputConflict = errors.New("output file already claimed by another input")

// PlanOutputs returns the text file for each image, in order.
//
// With outDir set the layout below each discovery root is mirrored, so
// trip1/IMG_0001.HEIC and trip2/IMG_0001.HEIC land in different folders. Inputs
// that would still share a file, such as scan.HEIC next to scan.png, keep their
// extension: scan.HEIC.txt and scan.png.txt. An empty entry means no unique name
// was left for that input.
func PlanOutputs(images []ImageFile, outDir string) []string {
	dirOf := func(img ImageFile) string {
		if outDir == "" {
			return filepath.Dir(img.Path)
		}
		return filepath.Join(outDir, filepath.Dir(img.Rel))
	}

	plans := make([]string, len(images))
	claims := make(map[string]int, len(images))
	for i, img := range images {
		plans[i] = pipeline.OutputPath(img.Path, dirOf(img))
		claims[outputKey(plans[i])]++
	}

	taken := make(map[string]bool, len(images))
	for i, img := range images {
		if claims[outputKey(plans[i])] > 1 {
			plans[i] = filepath.Join(dirOf(img), filepath.Base(img.Path)+".txt")
		}
		key := outputKey(plans[i])
		if taken[key] {
			plans[i] = ""
			continue
		}
		taken[key] = true
	}
	return plans
}

// outputKey folds case: IMG_1.txt and img_1.txt are one file on macOS volumes.
func outputKey(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
