package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/heic2txt/internal/pipeline"
	"github.com/MeKo-Tech/heic2txt/internal/testutil"
)

func writePage(t *testing.T, dir, name string) string {
	t.Helper()
	return testutil.WriteImage(t, dir, name, testutil.MustTextImage(t, testutil.DefaultTestImageConfig()))
}

func textFiles(t *testing.T, root string) []string {
	t.Helper()
	var files []string
	require.NoError(t, filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(path) == ".txt" {
			rel, _ := filepath.Rel(root, path)
			files = append(files, rel)
		}
		return err
	}))
	return files
}

func TestPlanOutputs(t *testing.T) {
	images := []ImageFile{
		{Path: filepath.Join("photos", "trip1", "IMG_0001.HEIC"), Rel: filepath.Join("trip1", "IMG_0001.HEIC")},
		{Path: filepath.Join("photos", "trip2", "IMG_0001.HEIC"), Rel: filepath.Join("trip2", "IMG_0001.HEIC")},
		{Path: filepath.Join("photos", "scan.HEIC"), Rel: "scan.HEIC"},
		{Path: filepath.Join("photos", "scan.png"), Rel: "scan.png"},
		{Path: filepath.Join("photos", "notes.heic"), Rel: "notes.heic"},
	}

	assert.Equal(t, []string{
		filepath.Join("out", "trip1", "IMG_0001.txt"),
		filepath.Join("out", "trip2", "IMG_0001.txt"),
		filepath.Join("out", "scan.HEIC.txt"),
		filepath.Join("out", "scan.png.txt"),
		filepath.Join("out", "notes.txt"),
	}, PlanOutputs(images, "out"))

	assert.Equal(t, []string{
		filepath.Join("photos", "trip1", "IMG_0001.txt"),
		filepath.Join("photos", "trip2", "IMG_0001.txt"),
		filepath.Join("photos", "scan.HEIC.txt"),
		filepath.Join("photos", "scan.png.txt"),
		filepath.Join("photos", "notes.txt"),
	}, PlanOutputs(images, ""))
}

func TestPlanOutputs_CaseAndUnresolvable(t *testing.T) {
	images := ExplicitImages([]string{
		filepath.Join("a", "IMG_1.heic"),
		filepath.Join("b", "img_1.png"),
		filepath.Join("c", "IMG_1.heic"),
	})
	plans := PlanOutputs(images, "out")
	assert.Equal(t, filepath.Join("out", "IMG_1.heic.txt"), plans[0])
	assert.Equal(t, filepath.Join("out", "img_1.png.txt"), plans[1])
	assert.Empty(t, plans[2], "a third IMG_1.heic has no free name left")
}

func TestProcess_RecursiveOutputDirKeepsSameNamedPhotos(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writePage(t, filepath.Join(in, "trip1"), "IMG_0001.HEIC")
	writePage(t, filepath.Join(in, "trip2"), "IMG_0001.HEIC")
	writePage(t, filepath.Join(in, "trip2"), "IMG_0002.HEIC")

	pl, _ := newPipeline(t, pageText)
	report, err := Process(context.Background(), pl, []string{in}, Config{OutputDir: out, Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Succeeded())
	assert.ElementsMatch(t, []string{
		filepath.Join("trip1", "IMG_0001.txt"),
		filepath.Join("trip2", "IMG_0001.txt"),
		filepath.Join("trip2", "IMG_0002.txt"),
	}, textFiles(t, out))

	outputs := map[string]bool{}
	for _, f := range report.Files {
		outputs[f.Output] = true
	}
	assert.Len(t, outputs, 3, "every input reports its own output file")
}

func TestProcess_SameStemDifferentExtension(t *testing.T) {
	in := t.TempDir()
	writePage(t, in, "scan.HEIC")
	writePage(t, in, "scan.png")
	writePage(t, in, "receipt.png")

	pl, _ := newPipeline(t, pageText)
	report, err := Process(context.Background(), pl, []string{in}, Config{})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Succeeded())
	assert.ElementsMatch(t, []string{"receipt.txt", "scan.HEIC.txt", "scan.png.txt"}, textFiles(t, in))
}

func TestProcessImages_ConflictingInputsFail(t *testing.T) {
	in := t.TempDir()
	first := writePage(t, filepath.Join(in, "a"), "IMG_1.png")
	second := writePage(t, filepath.Join(in, "b"), "IMG_1.png")
	out := t.TempDir()

	pl, _ := newPipeline(t, pageText)
	report, err := ProcessImages(context.Background(), pl, ExplicitImages([]string{first, second}), Config{OutputDir: out})
	require.NoError(t, err)

	require.Len(t, report.Files, 2)
	assert.Equal(t, StatusOK, report.Files[0].Status)
	assert.Equal(t, filepath.Join(out, "IMG_1.png.txt"), report.Files[0].Output)
	assert.Equal(t, StatusFailed, report.Files[1].Status)
	assert.Contains(t, report.Files[1].Error, ErrOutputConflict.Error())
	assert.True(t, report.HasFailed())
	assert.Equal(t, []string{"IMG_1.png.txt"}, textFiles(t, out))
}

func TestProcessImages_ArtifactsFollowOutputName(t *testing.T) {
	in := t.TempDir()
	cfg := testutil.DefaultTestImageConfig()
	cfg.Rotation = 90
	heic := testutil.WriteImage(t, in, "scan.HEIC", testutil.MustTextImage(t, cfg))
	png := testutil.WriteImage(t, in, "scan.png", testutil.MustTextImage(t, cfg))

	eng := testutil.NewScriptedEngine("scripted", pageText)
	pc := pipeline.DefaultConfig()
	pc.SaveArtifacts = true
	pl, err := pipeline.NewBuilder().WithConfig(pc).WithEngine(eng).WithConverter(testutil.PNGConverter{}).Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = pl.Close() })

	report, err := ProcessImages(context.Background(), pl, ExplicitImages([]string{heic, png}), Config{})
	require.NoError(t, err)
	require.Equal(t, 2, report.Succeeded())
	assert.Equal(t, []string{filepath.Join(in, "scan.HEIC_rotated_270deg.png")}, report.Files[0].Artifacts)
	assert.Equal(t, []string{filepath.Join(in, "scan.png_rotated_270deg.png")}, report.Files[1].Artifacts)
}
