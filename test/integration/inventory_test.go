//go:build integration

package integration

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/cron"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcurrentSubmitNeverOversells(t *testing.T) {
	conn, raw := setupPostgres(t)
	repos := repository.NewRepositories(conn)
	seeded := testutils.SeedInventory(t, repos,
		testutils.Stock{Rack: "gpu-node-01", IP: "10.0.0.11", Model: "A100 SXM4 80GB", Total: 8, Available: 5},
	)
	serverID := seeded.Racks["gpu-node-01"].ID
	modelID := seeded.Models["A100 SXM4 80GB"].ID

	svc := application.NewRequestService(repos, time.Now)
	ctx := context.Background()

	const workers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		rejected  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Submit(ctx, fmt.Sprintf("user-%02d", i), request.CreateRequestDTO{
				ServerID:           serverID,
				GPUModelID:         modelID,
				Quantity:           1,
				ProjectName:        fmt.Sprintf("project %d", i),
				ProjectDescription: "load test",
				DurationDays:       "3",
				AgreedToTerms:      true,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, application.ErrQuantityExceedsAvailable), errors.Is(err, repository.ErrInsufficientGPUs):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, workers-5, rejected)

	var available int
	require.NoError(t, raw.QueryRowContext(ctx,
		"SELECT available_count FROM server_gpus WHERE server_id = $1 AND gpu_model_id = $2", serverID, modelID,
	).Scan(&available))
	assert.Equal(t, 0, available)

	var pending int
	require.NoError(t, raw.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM resource_requests WHERE status = 'pending'",
	).Scan(&pending))
	assert.Equal(t, 5, pending)
}

func TestAvailableCountConstraint(t *testing.T) {
	conn, raw := setupPostgres(t)
	repos := repository.NewRepositories(conn)
	seeded := testutils.SeedInventory(t, repos,
		testutils.Stock{Rack: "gpu-node-02", Model: "H100 PCIe 80GB", Total: 4, Available: 4},
	)
	ctx := context.Background()

	_, err := raw.ExecContext(ctx,
		"UPDATE server_gpus SET available_count = total_count + 1 WHERE server_id = $1",
		seeded.Racks["gpu-node-02"].ID)
	assert.Error(t, err)

	_, err = raw.ExecContext(ctx,
		"UPDATE server_gpus SET available_count = -1 WHERE server_id = $1",
		seeded.Racks["gpu-node-02"].ID)
	assert.Error(t, err)
}

func TestExpirySweepRestoresCappedAtTotal(t *testing.T) {
	conn, raw := setupPostgres(t)
	repos := repository.NewRepositories(conn)
	seeded := testutils.SeedInventory(t, repos,
		testutils.Stock{Rack: "gpu-node-03", Model: "V100 SXM2 32GB", Total: 4, Available: 4},
	)
	serverID := seeded.Racks["gpu-node-03"].ID
	modelID := seeded.Models["V100 SXM2 32GB"].ID
	ctx := context.Background()

	past := time.Now().Add(-72 * time.Hour)
	svc := application.NewRequestService(repos, func() time.Time { return past })
	req, err := svc.Submit(ctx, "user-1", request.CreateRequestDTO{
		ServerID: serverID, GPUModelID: modelID, Quantity: 2,
		ProjectName: "vision", ProjectDescription: "detector",
		DurationDays: "1", AgreedToTerms: true,
	})
	require.NoError(t, err)
	_, _, err = svc.Process(ctx, req.ID, request.StatusApproved)
	require.NoError(t, err)

	// Capacity shrank to the units still free; the return must not overflow it.
	_, err = raw.ExecContext(ctx,
		"UPDATE server_gpus SET total_count = 3, available_count = 2 WHERE server_id = $1 AND gpu_model_id = $2",
		serverID, modelID)
	require.NoError(t, err)

	live := application.NewRequestService(repos, time.Now)
	assert.Equal(t, 1, cron.SweepExpired(ctx, live, repos.Audit))

	var available int
	require.NoError(t, raw.QueryRowContext(ctx,
		"SELECT available_count FROM server_gpus WHERE server_id = $1 AND gpu_model_id = $2", serverID, modelID,
	).Scan(&available))
	assert.Equal(t, 3, available)

	var status string
	require.NoError(t, raw.QueryRowContext(ctx,
		"SELECT status FROM resource_requests WHERE id = $1", req.ID,
	).Scan(&status))
	assert.Equal(t, string(request.StatusExpired), status)
}
