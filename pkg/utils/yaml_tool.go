package utils

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// SplitYAMLDocuments splits content on lines that are exactly "---" (or
// "--- " followed by a comment). Empty documents are dropped.
var SplitYAMLDocuments = func(content string) []string {
	docs := make([]string, 0)
	var current []string

	flush := func() {
		if doc := strings.TrimSpace(strings.Join(current, "\n")); doc != "" {
			docs = append(docs, doc)
		}
		current = nil
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "---" || strings.HasPrefix(trimmed, "--- ") {
			flush()
			continue
		}
		current = append(current, line)
	}
	flush()
	return docs
}

// DecodeYAMLDocuments expands ${VAR} references from the environment and
// decodes every document of content into a T.
func DecodeYAMLDocuments[T any](content string) ([]T, error) {
	docs := SplitYAMLDocuments(os.ExpandEnv(content))
	out := make([]T, 0, len(docs))
	for i, doc := range docs {
		var v T
		if err := yaml.UnmarshalStrict([]byte(doc), &v); err != nil {
			return nil, fmt.Errorf("document %d: %w", i+1, err)
		}
		out = append(out, v)
	}
	return out, nil
}
