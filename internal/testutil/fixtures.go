package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFixture is a synthetic photo paired with its ground-truth transcription.
type TestFixture struct {
	Name     string // file stem
	Text     string // ground truth, one line per rendered line
	Rotation int    // clockwise quarter turn applied to the page
	Ext      string // image extension, ".png" when empty
}

// SampleFixtures returns a small set of pages in the domains the vocabularies cover.
func SampleFixtures() []TestFixture {
	return []TestFixture{
		{Name: "IMG_0001", Text: "resource \"aws_s3_bucket\" \"logs\" {\n  acl = \"private\"\n}"},
		{Name: "IMG_0002", Text: "- name: install nginx\n  ansible.builtin.apt:\n    name: nginx", Rotation: 90},
		{Name: "IMG_0003", Text: "SELECT id, name FROM users WHERE active;", Rotation: 180},
	}
}

// WriteFixture renders f into dir and writes <name>.txt next to it.
// It returns the image and ground-truth paths.
func WriteFixture(t *testing.T, dir string, f TestFixture) (string, string) {
	t.Helper()
	cfg := DefaultTestImageConfig()
	cfg.Lines = strings.Split(f.Text, "\n")
	cfg.Rotation = f.Rotation

	ext := f.Ext
	if ext == "" {
		ext = ".png"
	}
	imgPath := WriteImage(t, dir, f.Name+ext, MustTextImage(t, cfg))
	truthPath := filepath.Join(dir, f.Name+".txt")
	require.NoError(t, os.WriteFile(truthPath, []byte(f.Text), 0o600))
	return imgPath, truthPath
}

// WriteFixtures writes every fixture into dir and returns the image paths.
func WriteFixtures(t *testing.T, dir string, fixtures []TestFixture) []string {
	t.Helper()
	paths := make([]string, 0, len(fixtures))
	for _, f := range fixtures {
		p, _ := WriteFixture(t, dir, f)
		paths = append(paths, p)
	}
	return paths
}
