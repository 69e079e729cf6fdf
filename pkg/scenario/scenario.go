package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ProjectFile is the scenario file name inside a project directory.
const ProjectFile = "scenario.yaml"

// Load reads a scenario from a YAML file. Fields absent from the file keep
// their Default() values; map entries are merged into the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading scenario file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	return cfg, nil
}

// Parse decodes YAML scenario data on top of Default(). Unknown keys are
// rejected so that a misspelt parameter does not silently fall back.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return cfg, nil
}

// LoadProject loads the scenario from a project directory.
// It looks for scenario.yaml in the given directory.
func LoadProject(projectDir string) (Config, error) {
	return Load(filepath.Join(projectDir, ProjectFile))
}
