package testutil

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

func TestGenerateTextImage(t *testing.T) {
	cfg := DefaultTestImageConfig()
	img := MustTextImage(t, cfg)
	assert.Equal(t, image.Pt(MediumSize.Width, MediumSize.Height), img.Bounds().Size())
	assert.True(t, IsUpright(img))

	cfg.Size = ImageSize{}
	_, err := GenerateTextImage(cfg)
	require.Error(t, err)

	cfg = DefaultTestImageConfig()
	cfg.Rotation = 45
	_, err = GenerateTextImage(cfg)
	require.Error(t, err)
}

func TestGenerateTextImage_Rotation(t *testing.T) {
	upright := MustTextImage(t, DefaultTestImageConfig())
	for _, angle := range []int{90, 180, 270} {
		cfg := DefaultTestImageConfig()
		cfg.Rotation = angle
		rotated := MustTextImage(t, cfg)
		assert.False(t, IsUpright(rotated), "angle %d", angle)

		// turning the page back by the remaining quarter turns restores it
		back, err := utils.RotateClockwise(rotated, (360-angle)%360)
		require.NoError(t, err)
		assert.True(t, utils.ImagesEqual(upright, back), "angle %d", angle)
	}
}

func TestCompareImages(t *testing.T) {
	img1 := MustTextImage(t, DefaultTestImageConfig())
	img2 := MustTextImage(t, DefaultTestImageConfig())
	assert.True(t, CompareImages(img1, img2, 0.001))

	cfg := DefaultTestImageConfig()
	cfg.Rotation = 180
	assert.False(t, CompareImages(img1, MustTextImage(t, cfg), 0.01))
	assert.False(t, CompareImages(img1, image.NewGray(image.Rect(0, 0, 3, 3)), 1))
}

func TestScriptedEngine(t *testing.T) {
	e := NewScriptedEngine("scripted", "line one\nline two")
	upright := MustTextImage(t, DefaultTestImageConfig())

	res, err := e.Recognize(context.Background(), upright, engine.Request{Fast: true})
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", res.Text)
	assert.Len(t, res.Lines, 2)

	cfg := DefaultTestImageConfig()
	cfg.Rotation = 90
	res, err = e.Recognize(context.Background(), MustTextImage(t, cfg), engine.Request{})
	require.NoError(t, err)
	assert.NotContains(t, res.Text, "line")

	assert.Len(t, e.Requests(), 2)
	assert.True(t, e.Requests()[0].Fast)

	require.NoError(t, e.Close())
	assert.True(t, e.Closed())
	_, err = e.Recognize(context.Background(), upright, engine.Request{})
	require.ErrorIs(t, err, engine.ErrEngineClosed)
}

func TestRegisterScripted(t *testing.T) {
	unregister := RegisterScripted("scripted-test", "hello")
	eng, err := engine.New(context.Background(), "scripted-test", engine.DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "scripted-test", eng.Name())

	unregister()
	_, ok := engine.Lookup("scripted-test")
	assert.False(t, ok)
}

func TestWriteFixture(t *testing.T) {
	dir := t.TempDir()
	f := TestFixture{Name: "IMG_9", Text: "a\nb", Rotation: 270, Ext: ".HEIC"}
	imgPath, truthPath := WriteFixture(t, dir, f)
	assert.True(t, FileExists(truthPath))

	img, err := PNGConverter{}.Convert(context.Background(), imgPath)
	require.NoError(t, err)
	assert.False(t, IsUpright(img))

	paths := WriteFixtures(t, dir, SampleFixtures())
	assert.Len(t, paths, 3)
}

func TestPNGConverter_Empty(t *testing.T) {
	path := WriteEmptyFile(t, t.TempDir(), "empty.HEIC")
	_, err := PNGConverter{}.Convert(context.Background(), path)
	require.ErrorIs(t, err, utils.ErrEmptyImage)

	path = WriteCorruptFile(t, t.TempDir(), "bad.HEIC")
	_, err = PNGConverter{}.Convert(context.Background(), path)
	require.Error(t, err)
}
