package vocabulary

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type wordFile struct {
	Words []string `yaml:"words"`
}

// Load reads a hint list from a file. YAML files (.yaml, .yml) hold a "words" list;
// any other file is read as one word per line with '#' starting a comment line.
func Load(path string) (*List, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: vocabulary path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("read vocabulary file: %w", err)
	}

	var words []string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var wf wordFile
		if err := yaml.Unmarshal(data, &wf); err != nil {
			return nil, fmt.Errorf("parse vocabulary file %s: %w", path, err)
		}
		words = wf.Words
	default:
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			words = append(words, line)
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("scan vocabulary file %s: %w", path, err)
		}
	}

	l, err := New(words)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}
