package testsupport

import (
	"os"

	"github.com/goccy/go-json"
)

func LoadFixture(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// LoadDocument decodes a JSON document fixture into a plain map.
func LoadDocument(path string) (map[string]any, error) {
	var doc map[string]any
	if err := LoadGolden(path, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func LoadGolden(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
