package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	return path
}

func discover(args []string, recursive bool, include, exclude []string) ([]string, error) {
	images, err := DiscoverImages(args, recursive, include, exclude)
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, img := range images {
		paths = append(paths, img.Path)
	}
	return paths, nil
}

func TestDiscoverImages_EmptyArgs(t *testing.T) {
	files, err := discover(nil, false, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverImages_Directory(t *testing.T) {
	dir := t.TempDir()
	heic := touch(t, filepath.Join(dir, "IMG_0002.HEIC"))
	lower := touch(t, filepath.Join(dir, "IMG_0001.heic"))
	png := touch(t, filepath.Join(dir, "scan.png"))
	touch(t, filepath.Join(dir, "IMG_0001.txt"))
	touch(t, filepath.Join(dir, "notes.md"))
	touch(t, filepath.Join(dir, "sub", "IMG_0003.HEIC"))

	files, err := discover([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{lower, heic, png}, files, "sorted, images only, no recursion")
}

func TestDiscoverImages_Recursive(t *testing.T) {
	dir := t.TempDir()
	root := touch(t, filepath.Join(dir, "a.heic"))
	nested := touch(t, filepath.Join(dir, "sub", "deeper", "b.HEIF"))
	touch(t, filepath.Join(dir, ".thumbnails", "c.heic"))

	files, err := discover([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{root, nested}, files)
}

func TestDiscoverImages_Patterns(t *testing.T) {
	dir := t.TempDir()
	a := touch(t, filepath.Join(dir, "IMG_0001.HEIC"))
	touch(t, filepath.Join(dir, "IMG_0002_preprocessed.png"))
	touch(t, filepath.Join(dir, "other.jpg"))

	files, err := discover([]string{dir}, false, []string{"*.heic"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files, "include patterns are case-insensitive")

	files, err = discover([]string{dir}, false, nil, []string{"*_preprocessed.*", "*.JPG"})
	require.NoError(t, err)
	assert.Equal(t, []string{a}, files)
}

func TestDiscoverImages_ExplicitFiles(t *testing.T) {
	dir := t.TempDir()
	b := touch(t, filepath.Join(dir, "b.heic"))
	a := touch(t, filepath.Join(dir, "a.heic"))
	txt := touch(t, filepath.Join(dir, "readme.txt"))

	files, err := discover([]string{b, a, txt, b, dir}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{b, a}, files, "argument order kept, duplicates and non-images dropped")
}

func TestDiscoverImages_Missing(t *testing.T) {
	_, err := discover([]string{"/nonexistent/IMG_0001.HEIC"}, false, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestDiscoverImages_RelativeToRoot(t *testing.T) {
	dir := t.TempDir()
	first := touch(t, filepath.Join(dir, "trip1", "IMG_0001.HEIC"))
	second := touch(t, filepath.Join(dir, "trip2", "IMG_0001.HEIC"))
	single := touch(t, filepath.Join(t.TempDir(), "deep", "scan.png"))

	images, err := DiscoverImages([]string{dir, single, first}, true, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []ImageFile{
		{Path: first, Rel: filepath.Join("trip1", "IMG_0001.HEIC")},
		{Path: second, Rel: filepath.Join("trip2", "IMG_0001.HEIC")},
		{Path: single, Rel: "scan.png"},
	}, images, "explicit files keep only their base name and duplicates are dropped")
}
