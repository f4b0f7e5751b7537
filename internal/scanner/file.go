package scanner

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type patternFile struct {
	Patterns []PatternSpec `yaml:"patterns"`
}

// LoadSpecs reads a YAML file with a top-level patterns list.
func LoadSpecs(path string) ([]PatternSpec, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var pf patternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(pf.Patterns) == 0 {
		return nil, fmt.Errorf("%s: no patterns defined", path)
	}
	return pf.Patterns, nil
}
