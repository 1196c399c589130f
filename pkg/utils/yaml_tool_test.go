package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitYAMLDocuments(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name: "single document",
			input: `
name: gpu-01
rack: R1
`,
			expected: []string{"name: gpu-01\nrack: R1"},
		},
		{
			name: "multiple documents with --- separator",
			input: `
---
name: gpu-01
---
name: gpu-02
`,
			expected: []string{"name: gpu-01", "name: gpu-02"},
		},
		{
			name:     "separator with comment and empty documents",
			input:    "--- # first\nname: a\n---\n---\n",
			expected: []string{"name: a"},
		},
		{
			name:     "dashes inside a value are kept",
			input:    "note: a---b\n",
			expected: []string{"note: a---b"},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitYAMLDocuments(tt.input))
		})
	}
}

type rackDoc struct {
	Name string `yaml:"name"`
	User string `yaml:"ssh_username"`
}

func TestDecodeYAMLDocuments(t *testing.T) {
	t.Setenv("SEED_SSH_USER", "lab")

	docs, err := DecodeYAMLDocuments[rackDoc]("name: gpu-01\nssh_username: ${SEED_SSH_USER}\n---\nname: gpu-02\n")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "lab", docs[0].User)
	assert.Equal(t, "gpu-02", docs[1].Name)
}

func TestDecodeYAMLDocuments_UnknownField(t *testing.T) {
	_, err := DecodeYAMLDocuments[rackDoc]("name: gpu-01\ncolour: red\n")
	assert.ErrorContains(t, err, "document 1")
}
