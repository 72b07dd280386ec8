package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a settings file, auto-detecting format by extension, expands
// ${NAME} environment references and applies it over Default(). The result
// is validated.
func Load(path string) (Settings, error) {
	values, err := FromFile(path)
	if err != nil {
		return Settings{}, err
	}
	values, err = ExpandEnv(values)
	if err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}
	s := FromValues(values)
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("config %s: %w", path, err)
	}
	return s, nil
}

// FromFile decodes a file into Values.
// Supported extensions: .yaml, .yml, .json
func FromFile(path string) (Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Values{}, fmt.Errorf("read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FromYAML(data)
	case ".json":
		return FromJSON(data)
	default:
		return Values{}, fmt.Errorf("unsupported config file extension: %s", ext)
	}
}

// FromYAML parses YAML data into Values.
func FromYAML(data []byte) (Values, error) {
	var m map[string]any
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Values{}, fmt.Errorf("parse yaml: %w", err)
	}
	return NewValues(m), nil
}

// FromJSON parses JSON data into Values.
func FromJSON(data []byte) (Values, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return Values{}, fmt.Errorf("parse json: %w", err)
	}
	return NewValues(m), nil
}
