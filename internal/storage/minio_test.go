package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("/requests/12/", "Proposal.PDF")
	assert.True(t, strings.HasPrefix(key, "requests/12/"))
	assert.True(t, strings.HasSuffix(key, ".pdf"))
	assert.NotContains(t, key, "Proposal")

	assert.NotEqual(t, ObjectKey("a", "x.pdf"), ObjectKey("a", "x.pdf"))
	assert.False(t, strings.Contains(ObjectKey("", "x"), "/"))
}

func TestContentType(t *testing.T) {
	cases := map[string]string{
		"a.pdf":  "application/pdf",
		"b.DOCX": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"c.md":   "text/plain",
		"d":      "application/octet-stream",
	}
	for name, want := range cases {
		assert.Equal(t, want, ContentType(name), name)
	}
}

func TestNewMinioStore_NotConfigured(t *testing.T) {
	_, err := NewMinioStore(context.Background(), "", "", "", "attachments", false)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
