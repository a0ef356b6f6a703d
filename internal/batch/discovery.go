package batch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

// ErrNoImages is returned when discovery finds nothing to process.
var ErrNoImages = errors.New("no image files found")

// ImageFile is a discovered input. Rel is its path below the directory argument it
// was found in, or its base name when the file was named directly.
type ImageFile struct {
	Path string
	Rel  string
}

// DiscoverImages expands files and directories into the supported images they
// contain. Directories are listed in lexical order; explicitly named files keep their
// position. Each image remembers its place below the directory it was found in.
func DiscoverImages(args []string, recursive bool, includePatterns, excludePatterns []string) ([]ImageFile, error) {
	var images []ImageFile
	seen := make(map[string]bool)
	add := func(path, rel string) {
		if !seen[path] {
			seen[path] = true
			images = append(images, ImageFile{Path: path, Rel: rel})
		}
	}

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			files, err := discoverInDirectory(arg, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				rel, err := filepath.Rel(arg, f)
				if err != nil {
					rel = filepath.Base(f)
				}
				add(f, rel)
			}
		} else if !utils.IsSupportedImage(arg) {
			slog.Warn("skipping unsupported file", "file", arg)
		} else if shouldIncludeFile(arg, includePatterns, excludePatterns) {
			add(arg, filepath.Base(arg))
		}
	}

	return images, nil
}

// ExplicitImages wraps a plain file list; every file is its own root.
func ExplicitImages(files []string) []ImageFile {
	images := make([]ImageFile, len(files))
	for i, f := range files {
		images[i] = ImageFile{Path: f, Rel: filepath.Base(f)}
	}
	return images
}

// discoverInDirectory lists supported images in dir, descending when recursive is set.
func discoverInDirectory(dir string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path == dir {
				return nil
			}
			if !recursive || strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if utils.IsSupportedImage(path) && shouldIncludeFile(path, includePatterns, excludePatterns) {
			files = append(files, path)
		}
		return nil
	}

	if err := filepath.WalkDir(dir, walkFn); err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// shouldIncludeFile applies exclude patterns first, then include patterns.
// With no include patterns every file not excluded is included.
func shouldIncludeFile(path string, includePatterns, excludePatterns []string) bool {
	if matchesAnyPattern(path, excludePatterns) {
		return false
	}
	if len(includePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, includePatterns)
}

// matchesAnyPattern matches the base name case-insensitively, so "*.heic" also selects IMG_1.HEIC.
func matchesAnyPattern(path string, patterns []string) bool {
	base := strings.ToLower(filepath.Base(path))
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(strings.ToLower(pattern), base); matched {
			return true
		}
	}
	return false
}
