// Package fileformat reads and writes structured files as JSON, TOML or YAML
// depending on the file extension.
package fileformat

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupported is returned for file extensions with no known format.
var ErrUnsupported = errors.New("fileformat: unsupported extension")

// Format is a structured text encoding.
type Format int

const (
	JSON Format = iota
	TOML
	YAML
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case TOML:
		return "toml"
	case YAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ForPath picks the format from path's extension.
func ForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))
}

// Unmarshal decodes data in format f into v.
func Unmarshal(f Format, data []byte, v any) error {
	switch f {
	case JSON:
		return json.Unmarshal(data, v)
	case TOML:
		return toml.Unmarshal(data, v)
	case YAML:
		return yaml.Unmarshal(data, v)
	}
	return ErrUnsupported
}

// Marshal encodes v in format f.
func Marshal(f Format, v any) ([]byte, error) {
	switch f {
	case JSON:
		return json.MarshalIndent(v, "", "  ")
	case TOML:
		return toml.Marshal(v)
	case YAML:
		return yaml.Marshal(v)
	}
	return nil, ErrUnsupported
}

// ReadFile decodes the file at path into v.
func ReadFile(path string, v any) error {
	f, err := ForPath(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("fileformat: read %s: %w", path, err)
	}
	if err := Unmarshal(f, data, v); err != nil {
		return fmt.Errorf("fileformat: parse %s as %s: %w", path, f, err)
	}
	return nil
}

// WriteFile encodes v into the file at path, creating parent directories.
func WriteFile(path string, v any) error {
	f, err := ForPath(path)
	if err != nil {
		return err
	}
	data, err := Marshal(f, v)
	if err != nil {
		return fmt.Errorf("fileformat: encode %s as %s: %w", path, f, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("fileformat: %w", err)
		}
	}
	return os.WriteFile(path, data, 0644)
}
