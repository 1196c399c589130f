package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/linskybing/gpu-portal/internal/domain/audit"
	"github.com/linskybing/gpu-portal/internal/domain/inventory"
	"github.com/linskybing/gpu-portal/internal/domain/notification"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/domain/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepos(t *testing.T) (*Repos, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:repo_%d?mode=memory&cache=shared", time.Now().UnixNano())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&user.User{}, &user.Identity{},
		&inventory.GPUModel{}, &inventory.Rack{}, &inventory.ServerGPU{},
		&request.ResourceRequest{}, &notification.Notification{}, &audit.AuditLog{},
	))
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return NewRepositories(conn), conn
}

func seedInventory(t *testing.T, repos *Repos, total, available int) (inventory.Rack, inventory.GPUModel) {
	t.Helper()
	ctx := context.Background()
	rack := inventory.Rack{Name: "gpu-node-01", Label: "R1"}
	model := inventory.GPUModel{Name: "A100", MemoryGB: 80}
	require.NoError(t, repos.Rack.Upsert(ctx, &rack))
	require.NoError(t, repos.GPUModel.Upsert(ctx, &model))
	require.NoError(t, repos.Inventory.Upsert(ctx, &inventory.ServerGPU{
		ServerID: rack.ID, GPUModelID: model.ID, TotalCount: total, AvailableCount: available,
	}))
	return rack, model
}

// --------------------- Inventory ---------------------
func TestInventory_DecrementAndRestore(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	rack, model := seedInventory(t, repos, 4, 2)

	require.NoError(t, repos.Inventory.Decrement(ctx, rack.ID, model.ID, 2))
	row, err := repos.Inventory.Get(ctx, rack.ID, model.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, row.AvailableCount)
	assert.Equal(t, "gpu-node-01", row.Server.Name)
	assert.Equal(t, "A100", row.GPUModel.Name)

	err = repos.Inventory.Decrement(ctx, rack.ID, model.ID, 1)
	assert.ErrorIs(t, err, ErrInsufficientGPUs)

	require.NoError(t, repos.Inventory.Restore(ctx, rack.ID, model.ID, 3))
	row, _ = repos.Inventory.Get(ctx, rack.ID, model.ID)
	assert.Equal(t, 3, row.AvailableCount)

	// restore never exceeds total
	require.NoError(t, repos.Inventory.Restore(ctx, rack.ID, model.ID, 10))
	row, _ = repos.Inventory.Get(ctx, rack.ID, model.ID)
	assert.Equal(t, 4, row.AvailableCount)
}

func TestInventory_DecrementUnknownPair(t *testing.T) {
	repos, _ := newTestRepos(t)
	err := repos.Inventory.Decrement(context.Background(), 99, 99, 1)
	assert.ErrorIs(t, err, ErrInsufficientGPUs)
}

func TestInventory_SetTotal(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	rack, model := seedInventory(t, repos, 4, 1)

	// 3 units in use; growing capacity keeps them in use
	require.NoError(t, repos.Inventory.SetTotal(ctx, rack.ID, model.ID, 8))
	row, _ := repos.Inventory.Get(ctx, rack.ID, model.ID)
	assert.Equal(t, 8, row.TotalCount)
	assert.Equal(t, 5, row.AvailableCount)

	require.NoError(t, repos.Inventory.SetTotal(ctx, rack.ID, model.ID, 2))
	row, _ = repos.Inventory.Get(ctx, rack.ID, model.ID)
	assert.Equal(t, 2, row.TotalCount)
	assert.Equal(t, 0, row.AvailableCount)

	// unknown pair is created fully available
	other := inventory.GPUModel{Name: "H100"}
	require.NoError(t, repos.GPUModel.Upsert(ctx, &other))
	require.NoError(t, repos.Inventory.SetTotal(ctx, rack.ID, other.ID, 6))
	row, err := repos.Inventory.Get(ctx, rack.ID, other.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, row.AvailableCount)
}

func TestInventory_UpsertIsIdempotent(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	seedInventory(t, repos, 4, 4)
	seedInventory(t, repos, 6, 5)

	rows, err := repos.Inventory.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 6, rows[0].TotalCount)
	assert.Equal(t, 5, rows[0].AvailableCount)

	racks, _ := repos.Rack.List(ctx)
	assert.Len(t, racks, 1)
}

// --------------------- Requests ---------------------
func newRequest(rack inventory.Rack, model inventory.GPUModel, userID string, status request.Status) *request.ResourceRequest {
	now := time.Now()
	return &request.ResourceRequest{
		UserID:       userID,
		ServerID:     rack.ID,
		GPUModelID:   model.ID,
		Quantity:     1,
		ProjectName:  "p",
		StartDate:    now,
		EndDate:      now.AddDate(0, 0, 3),
		DurationDays: 3,
		Status:       status,
		Server:       rack,
		GPUModel:     model,
	}
}

func TestRequest_CreateAndList(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	rack, model := seedInventory(t, repos, 4, 4)

	first := newRequest(rack, model, "u1", request.StatusPending)
	require.NoError(t, repos.Request.Create(ctx, first))
	second := newRequest(rack, model, "u1", request.StatusApproved)
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	require.NoError(t, repos.Request.Create(ctx, second))
	require.NoError(t, repos.Request.Create(ctx, newRequest(rack, model, "u2", request.StatusPending)))

	list, err := repos.Request.ListByUser(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, "gpu-node-01", list[0].Server.Name)

	limited, _ := repos.Request.ListByUser(ctx, "u1", 1)
	assert.Len(t, limited, 1)

	pending, _ := repos.Request.ListByStatus(ctx, request.StatusPending)
	assert.Len(t, pending, 2)
	all, _ := repos.Request.ListByStatus(ctx, "")
	assert.Len(t, all, 3)

	// associations are not re-inserted
	racks, _ := repos.Rack.List(ctx)
	assert.Len(t, racks, 1)
}

func TestRequest_DeleteOwned(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	rack, model := seedInventory(t, repos, 4, 4)
	req := newRequest(rack, model, "u1", request.StatusPending)
	require.NoError(t, repos.Request.Create(ctx, req))

	err := repos.Request.DeleteOwned(ctx, req.ID, "someone-else", request.StatusPending)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	require.NoError(t, repos.Request.DeleteOwned(ctx, req.ID, "u1", request.StatusPending))

	err = repos.Request.DeleteOwned(ctx, req.ID, "u1", request.StatusPending)
	assert.True(t, IsNotFound(err))
}

func TestRequest_UpdateStatus(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	rack, model := seedInventory(t, repos, 4, 4)
	req := newRequest(rack, model, "u1", request.StatusPending)
	require.NoError(t, repos.Request.Create(ctx, req))

	at := time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repos.Request.UpdateStatus(ctx, req.ID, request.StatusPending, request.StatusApproved, at))
	err := repos.Request.UpdateStatus(ctx, req.ID, request.StatusPending, request.StatusDenied, at.Add(time.Hour))
	assert.ErrorIs(t, err, ErrStatusConflict)

	got, err := repos.Request.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, got.Status)
	assert.True(t, at.Equal(got.UpdatedAt), "updated_at = %v", got.UpdatedAt)
}

func TestRequest_ListExpired(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	rack, model := seedInventory(t, repos, 4, 4)

	old := newRequest(rack, model, "u1", request.StatusApproved)
	old.EndDate = time.Now().Add(-time.Hour)
	require.NoError(t, repos.Request.Create(ctx, old))
	require.NoError(t, repos.Request.Create(ctx, newRequest(rack, model, "u1", request.StatusApproved)))
	stalePending := newRequest(rack, model, "u1", request.StatusPending)
	stalePending.EndDate = time.Now().Add(-time.Hour)
	require.NoError(t, repos.Request.Create(ctx, stalePending))

	expired, err := repos.Request.ListExpired(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, old.ID, expired[0].ID)
}

// --------------------- Notifications ---------------------
func TestNotification_MarkReadIsIdempotent(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	n := &notification.Notification{UserID: "u1", Title: "t", Message: "m", Type: notification.TypeInfo}
	require.NoError(t, repos.Notification.Create(ctx, n))
	require.NotEmpty(t, n.ID)
	require.NoError(t, repos.Notification.Create(ctx, &notification.Notification{UserID: "u1", Title: "t2", Message: "m"}))

	count, err := repos.Notification.CountUnread(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	require.NoError(t, repos.Notification.MarkRead(ctx, n.ID, "u1"))
	count, _ = repos.Notification.CountUnread(ctx, "u1")
	assert.Equal(t, int64(1), count)

	require.NoError(t, repos.Notification.MarkRead(ctx, n.ID, "u1"))
	count, _ = repos.Notification.CountUnread(ctx, "u1")
	assert.Equal(t, int64(1), count)

	err = repos.Notification.MarkRead(ctx, n.ID, "intruder")
	assert.True(t, IsNotFound(err))

	ids, _ := repos.Notification.ListUnreadIDs(ctx, "u1")
	assert.Len(t, ids, 1)
}

// --------------------- Users ---------------------
func TestUser_CreateDuplicateEmail(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.User.Create(ctx, &user.User{ID: "a", Email: "Alice@Lab.edu", Name: "Alice"}))
	err := repos.User.Create(ctx, &user.User{ID: "b", Email: "alice@lab.edu", Name: "Alice 2"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := repos.User.GetByEmail(ctx, "ALICE@lab.edu")
	require.NoError(t, err)
	assert.Equal(t, "a", got.ID)
}

// --------------------- Audit ---------------------
func TestAudit_QueryAndCleanup(t *testing.T) {
	repos, conn := newTestRepos(t)
	ctx := context.Background()

	require.NoError(t, repos.Audit.CreateAuditLog(ctx, &audit.AuditLog{UserID: "u1", Action: audit.ActionCreate, ResourceType: audit.ResourceRequest, ResourceID: "1"}))
	require.NoError(t, repos.Audit.CreateAuditLog(ctx, &audit.AuditLog{UserID: "u2", Action: audit.ActionCancel, ResourceType: audit.ResourceRequest, ResourceID: "2"}))
	old := &audit.AuditLog{UserID: "u1", Action: audit.ActionUpdate, ResourceType: audit.ResourceProfile}
	require.NoError(t, repos.Audit.CreateAuditLog(ctx, old))
	require.NoError(t, conn.Model(old).Update("created_at", time.Now().AddDate(0, 0, -40)).Error)

	uid := "u1"
	logs, err := repos.Audit.GetAuditLogs(ctx, AuditQueryParams{UserID: &uid})
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	deleted, err := repos.Audit.DeleteOldAuditLogs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

// --------------------- Transactions ---------------------
func TestExecTx_RollsBack(t *testing.T) {
	repos, _ := newTestRepos(t)
	ctx := context.Background()
	rack, model := seedInventory(t, repos, 4, 4)

	boom := errors.New("boom")
	err := repos.ExecTx(ctx, func(tx *Repos) error {
		if err := tx.Inventory.Decrement(ctx, rack.ID, model.ID, 3); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	row, _ := repos.Inventory.Get(ctx, rack.ID, model.ID)
	assert.Equal(t, 4, row.AvailableCount)
}
