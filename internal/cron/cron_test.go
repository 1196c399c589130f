package cron

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/domain/audit"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepExpired(t *testing.T) {
	repos := testutils.NewTestRepos(t)
	ctx := context.Background()
	now := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

	seeded := testutils.SeedInventory(t, repos,
		testutils.Stock{Rack: "gpu-01", Model: "A100", Total: 8, Available: 5},
	)
	testutils.SeedUser(t, repos, "u1", "alice@lab.edu")
	rack, model := seeded.Racks["gpu-01"], seeded.Models["A100"]

	overdue := &request.ResourceRequest{
		UserID: "u1", ServerID: rack.ID, GPUModelID: model.ID, Quantity: 2,
		ProjectName: "vision", StartDate: now.AddDate(0, 0, -7), EndDate: now.Add(-time.Hour),
		DurationDays: 7, Status: request.StatusApproved,
	}
	running := &request.ResourceRequest{
		UserID: "u1", ServerID: rack.ID, GPUModelID: model.ID, Quantity: 1,
		ProjectName: "nlp", StartDate: now, EndDate: now.AddDate(0, 0, 7),
		DurationDays: 7, Status: request.StatusApproved,
	}
	require.NoError(t, repos.Request.Create(ctx, overdue))
	require.NoError(t, repos.Request.Create(ctx, running))

	svc := application.NewRequestService(repos, func() time.Time { return now })
	assert.Equal(t, 1, SweepExpired(ctx, svc, repos.Audit))
	assert.Equal(t, 0, SweepExpired(ctx, svc, repos.Audit))

	got, err := repos.Request.GetByID(ctx, overdue.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusExpired, got.Status)

	row, err := repos.Inventory.Get(ctx, rack.ID, model.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, row.AvailableCount)

	action := audit.ActionExpire
	logs, err := repos.Audit.GetAuditLogs(ctx, repository.AuditQueryParams{Action: &action})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, systemActor, logs[0].UserID)
}

func TestEvery_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32

	done := make(chan struct{})
	go func() {
		every(ctx, 5*time.Millisecond, func(context.Context) {
			if calls.Add(1) == 3 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("every did not return after cancel")
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}
