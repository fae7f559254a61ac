package query

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// LoadRecords reads a JSON array or a YAML sequence of records.
// JSON elements are returned as gjson.Result, YAML ones as decoded values.
func LoadRecords(path string) ([]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return ParseJSONRecords(data)
	case ".yaml", ".yml":
		return ParseYAMLRecords(data)
	default:
		return nil, fmt.Errorf("unsupported records file extension %q", ext)
	}
}

func ParseJSONRecords(data []byte) ([]any, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json")
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("records must be a json array, got %s", root.Type)
	}
	var records []any
	root.ForEach(func(_, value gjson.Result) bool {
		records = append(records, value)
		return true
	})
	return records, nil
}

func ParseYAMLRecords(data []byte) ([]any, error) {
	var records []any
	if err := yaml.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("unmarshal yaml records: %w", err)
	}
	return records, nil
}
