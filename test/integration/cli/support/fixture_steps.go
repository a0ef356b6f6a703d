package support

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/heic2txt/internal/engine"
	"github.com/MeKo-Tech/heic2txt/internal/testutil"
	"github.com/MeKo-Tech/heic2txt/internal/utils"
)

// aScriptedEngineThatReads registers an engine that returns text for upright pages
// and noise for rotated ones.
func (testCtx *TestContext) aScriptedEngineThatReads(name string, text *godog.DocString) error {
	testCtx.OnCleanup(testutil.RegisterScripted(name, text.Content))
	return nil
}

func (testCtx *TestContext) aScriptedEngineThatReadsNothing(name string) error {
	testCtx.OnCleanup(testutil.RegisterScripted(name, ""))
	return nil
}

func (testCtx *TestContext) anEngineThatFailsEveryCall(name string) error {
	testCtx.register(name, func(context.Context, engine.Options) (engine.Engine, error) {
		e := testutil.NewScriptedEngine(name, "")
		e.Err = errors.New("runner crashed")
		return e, nil
	})
	return nil
}

func (testCtx *TestContext) anEngineThatRejectsTheOption(name, option string) error {
	testCtx.register(name, func(context.Context, engine.Options) (engine.Engine, error) {
		return nil, engine.NewInitError(name, engine.KindUnsupportedOption, option,
			fmt.Errorf("unexpected keyword argument '%s'", option))
	})
	return nil
}

func (testCtx *TestContext) anEngineThatIsNotInstalled(name string) error {
	testCtx.register(name, func(context.Context, engine.Options) (engine.Engine, error) {
		return nil, engine.NewInitError(name, engine.KindMissingDependency, "",
			fmt.Errorf("No module named '%s'", name))
	})
	return nil
}

func (testCtx *TestContext) register(name string, factory engine.Factory) {
	engine.Register(engine.Descriptor{Name: name, Description: "scenario engine", Factory: factory})
	testCtx.OnCleanup(func() { engine.Unregister(name) })
}

// aPageImage renders a synthetic page, turned clockwise by rotation degrees.
func (testCtx *TestContext) aPageImage(name string, rotation int) error {
	cfg := testutil.DefaultTestImageConfig()
	cfg.Rotation = rotation
	img, err := testutil.GenerateTextImage(cfg)
	if err != nil {
		return err
	}
	return utils.SaveImagePNG(img, testCtx.Path(name))
}

func (testCtx *TestContext) anUprightPageImage(name string) error {
	return testCtx.aPageImage(name, 0)
}

func (testCtx *TestContext) anEmptyImage(name string) error {
	return testCtx.writeFile(name, "")
}

func (testCtx *TestContext) aCorruptImage(name string) error {
	return testCtx.writeFile(name, "\x00\x01 this is not an image \xff")
}

// aGroundTruthSample writes an upright page and its transcript <stem>.txt.
func (testCtx *TestContext) aGroundTruthSample(stem string, text *godog.DocString) error {
	if err := testCtx.anUprightPageImage(stem + ".png"); err != nil {
		return err
	}
	return testCtx.writeFile(strings.TrimSuffix(stem, filepath.Ext(stem))+".txt", text.Content)
}

func (testCtx *TestContext) aFileContaining(name string, content *godog.DocString) error {
	return testCtx.writeFile(name, content.Content)
}

func (testCtx *TestContext) writeFile(name, content string) error {
	path := testCtx.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func (testCtx *TestContext) readFile(name string) (string, error) {
	data, err := os.ReadFile(testCtx.Path(name)) //nolint:gosec // G304: scenario workspace
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if !testutil.FileExists(testCtx.Path(name)) {
		return fmt.Errorf("file %s does not exist\n%s", name, testCtx.describe())
	}
	return nil
}

func (testCtx *TestContext) theFileShouldNotExist(name string) error {
	if testutil.FileExists(testCtx.Path(name)) {
		return fmt.Errorf("file %s should not exist", name)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, expected string) error {
	content, err := testCtx.readFile(name)
	if err != nil {
		return err
	}
	if !strings.Contains(content, expected) {
		return fmt.Errorf("file %s does not contain %q:\n%s", name, expected, content)
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContainExactly(name string, expected *godog.DocString) error {
	content, err := testCtx.readFile(name)
	if err != nil {
		return err
	}
	if content != expected.Content {
		return fmt.Errorf("file %s has unexpected content:\n--- got\n%s\n--- want\n%s", name, content, expected.Content)
	}
	return nil
}

func (testCtx *TestContext) theDirectoryShouldContainTextFiles(dir string, n int) error {
	matches, err := filepath.Glob(filepath.Join(testCtx.Path(dir), "*.txt"))
	if err != nil {
		return err
	}
	if len(matches) != n {
		return fmt.Errorf("directory %s has %d text files, expected %d: %v", dir, len(matches), n, matches)
	}
	return nil
}

// RegisterFixtureSteps registers engines, input images and file assertions.
func (testCtx *TestContext) RegisterFixtureSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a scripted engine "([^"]*)" that reads:$`, testCtx.aScriptedEngineThatReads)
	sc.Step(`^a scripted engine "([^"]*)" that reads nothing$`, testCtx.aScriptedEngineThatReadsNothing)
	sc.Step(`^an engine "([^"]*)" that fails every call$`, testCtx.anEngineThatFailsEveryCall)
	sc.Step(`^an engine "([^"]*)" that rejects the option "([^"]*)"$`, testCtx.anEngineThatRejectsTheOption)
	sc.Step(`^an engine "([^"]*)" that is not installed$`, testCtx.anEngineThatIsNotInstalled)

	sc.Step(`^a page image "([^"]*)" rotated by (\d+) degrees$`, testCtx.aPageImage)
	sc.Step(`^an upright page image "([^"]*)"$`, testCtx.anUprightPageImage)
	sc.Step(`^an empty image "([^"]*)"$`, testCtx.anEmptyImage)
	sc.Step(`^a corrupt image "([^"]*)"$`, testCtx.aCorruptImage)
	sc.Step(`^a ground truth sample "([^"]*)" reading:$`, testCtx.aGroundTruthSample)
	sc.Step(`^a file "([^"]*)" containing:$`, testCtx.aFileContaining)

	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should not exist$`, testCtx.theFileShouldNotExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
	sc.Step(`^the file "([^"]*)" should contain exactly:$`, testCtx.theFileShouldContainExactly)
	sc.Step(`^the directory "([^"]*)" should contain (\d+) text files?$`, testCtx.theDirectoryShouldContainTextFiles)
}
