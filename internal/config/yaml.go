package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	yaml "go.yaml.in/yaml/v3"
)

// idPaths are string fields that YAML users tend to write as bare numbers
// (chat_id: -100123).
var idPaths = [][]string{
	{"telegram", "chat_id"},
	{"logging", "telegram", "chat_id"},
}

// yamlToJSON converts a .yaml/.yml config to JSON so both formats go through
// the same strict decoder. Other files are returned unchanged.
func yamlToJSON(path string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return data, nil
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	for _, p := range idPaths {
		quoteID(doc, p)
	}
	j, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("yaml to json: %w", err)
	}
	return j, nil
}

// quoteID rewrites a numeric leaf at path as its decimal string.
func quoteID(doc map[string]any, path []string) {
	for _, k := range path[:len(path)-1] {
		next, ok := doc[k].(map[string]any)
		if !ok {
			return
		}
		doc = next
	}
	leaf := path[len(path)-1]
	switch v := doc[leaf].(type) {
	case int:
		doc[leaf] = strconv.Itoa(v)
	case int64:
		doc[leaf] = strconv.FormatInt(v, 10)
	case uint64:
		doc[leaf] = strconv.FormatUint(v, 10)
	}
}
