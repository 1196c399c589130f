package testutils

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/linskybing/gpu-portal/internal/config/db"
	"github.com/linskybing/gpu-portal/internal/domain/inventory"
	"github.com/linskybing/gpu-portal/internal/domain/user"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewTestDB opens a private in-memory sqlite database with every table
// migrated. It is closed when the test ends.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", dbSeq.Add(1))
	conn, err := db.Open(dsn)
	require.NoError(t, err)
	conn.Logger = logger.Default.LogMode(logger.Silent)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Migrate(conn))
	return conn
}

func NewTestRepos(t *testing.T) *repository.Repos {
	return repository.NewRepositories(NewTestDB(t))
}

// Stock describes one seeded inventory row.
type Stock struct {
	Rack      string
	IP        string
	Model     string
	Total     int
	Available int
}

type Seeded struct {
	Racks  map[string]inventory.Rack
	Models map[string]inventory.GPUModel
}

func SeedInventory(t *testing.T, repos *repository.Repos, stock ...Stock) Seeded {
	t.Helper()
	ctx := context.Background()
	out := Seeded{Racks: map[string]inventory.Rack{}, Models: map[string]inventory.GPUModel{}}

	for _, s := range stock {
		rack, ok := out.Racks[s.Rack]
		if !ok {
			rack = inventory.Rack{Name: s.Rack, Label: "R-" + s.Rack, SSHPort: 22, SSHUsername: "lab"}
			if s.IP != "" {
				ip := s.IP
				rack.IPAddress = &ip
			}
			require.NoError(t, repos.Rack.Upsert(ctx, &rack))
			out.Racks[s.Rack] = rack
		}
		model, ok := out.Models[s.Model]
		if !ok {
			model = inventory.GPUModel{Name: s.Model, Vendor: "NVIDIA"}
			require.NoError(t, repos.GPUModel.Upsert(ctx, &model))
			out.Models[s.Model] = model
		}
		require.NoError(t, repos.Inventory.Upsert(ctx, &inventory.ServerGPU{
			ServerID:       rack.ID,
			GPUModelID:     model.ID,
			TotalCount:     s.Total,
			AvailableCount: s.Available,
		}))
	}
	return out
}

func SeedUser(t *testing.T, repos *repository.Repos, id, email string) user.User {
	t.Helper()
	u := user.User{ID: id, Email: email, Name: "Test " + id, Provider: user.ProviderPassword}
	require.NoError(t, repos.User.Create(context.Background(), &u))
	return u
}
