package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a schema document from disk. YAML is used for .yaml/.yml
// files, JSON otherwise.
func LoadFile(path string) (Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, fmt.Errorf("schema: read %s: %w", path, err)
	}
	return Parse(data, filepath.Ext(path))
}

// LoadOrCreate loads path, writing the Default schema there first when the
// file does not exist yet.
func LoadOrCreate(path string) (Schema, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		def := Default()
		if err := WriteFile(path, def); err != nil {
			return Schema{}, err
		}
		return def, nil
	}
	return LoadFile(path)
}

// Parse decodes {"fields": [...]} from JSON or YAML. ext selects the format
// (".yaml", ".yml", ".json"); when empty JSON is tried first, then YAML.
func Parse(data []byte, ext string) (Schema, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Schema{}, ErrEmpty
	}

	var doc document
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		if err = json.Unmarshal(data, &doc); err != nil {
			err = yaml.Unmarshal(data, &doc)
		}
	}
	if err != nil {
		return Schema{}, fmt.Errorf("schema: parse document: %w", err)
	}
	if len(doc.Fields) == 0 {
		return Schema{}, ErrEmpty
	}
	return New(doc.Fields...)
}

// WriteFile persists the schema as JSON or YAML depending on the extension.
func WriteFile(path string, s Schema) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(document{Fields: s.fields})
	default:
		data, err = json.MarshalIndent(document{Fields: s.fields}, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("schema: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("schema: create dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("schema: write %s: %w", path, err)
	}
	return nil
}
