//go:build integration

package integration

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/linskybing/gpu-portal/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinioStoreRoundTrip(t *testing.T) {
	endpoint, access, secret := setupMinio(t)
	ctx := context.Background()

	store, err := storage.NewMinioStore(ctx, endpoint, access, secret, "gpu-portal-test", false)
	require.NoError(t, err)

	content := "# Proposal\nFine-tune a 7B model.\n"
	key, err := store.Put(ctx, "requests/42", "Proposal.MD", strings.NewReader(content), int64(len(content)))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "requests/42/"))
	assert.True(t, strings.HasSuffix(key, ".md"))

	url, err := store.PresignedGet(ctx, key, time.Minute)
	require.NoError(t, err)

	resp, err := http.Get(url)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, content, string(body))

	require.NoError(t, store.Delete(ctx, key))
	resp, err = http.Get(url)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
