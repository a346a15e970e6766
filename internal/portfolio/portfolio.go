package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads the portfolio context from a JSON object file. An empty path or
// a missing file yields an empty context.
func Load(filePath string) (map[string]any, error) {
	if filePath == "" {
		return map[string]any{}, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("read portfolio: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return map[string]any{}, nil
	}
	var p map[string]any
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse portfolio %s: %w", filePath, err)
	}
	if p == nil {
		p = map[string]any{}
	}
	return p, nil
}

// Save writes the portfolio context as indented JSON, creating the directory if needed.
func Save(filePath string, p map[string]any) error {
	if filePath == "" {
		return fmt.Errorf("save portfolio: no file configured")
	}
	if p == nil {
		p = map[string]any{}
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolio: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("create portfolio dir: %w", err)
	}
	return os.WriteFile(filePath, data, 0644)
}

// Parse decodes a portfolio context given as a JSON object.
func Parse(text string) (map[string]any, error) {
	var p map[string]any
	if err := json.Unmarshal([]byte(text), &p); err != nil {
		return nil, fmt.Errorf("parse portfolio: %w", err)
	}
	if p == nil {
		return nil, fmt.Errorf("parse portfolio: expected a JSON object")
	}
	return p, nil
}

// Keys returns the top level entries of p in sorted order.
func Keys(p map[string]any) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
