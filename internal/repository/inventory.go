package repository

import (
	"context"
	"time"

	"github.com/linskybing/gpu-portal/internal/domain/inventory"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GPUModelRepo interface {
	List(ctx context.Context) ([]inventory.GPUModel, error)
	Upsert(ctx context.Context, m *inventory.GPUModel) error
	WithTx(tx *gorm.DB) GPUModelRepo
}

type RackRepo interface {
	List(ctx context.Context) ([]inventory.Rack, error)
	GetByID(ctx context.Context, id uint) (inventory.Rack, error)
	Upsert(ctx context.Context, rack *inventory.Rack) error
	WithTx(tx *gorm.DB) RackRepo
}

// InventoryRepo manages server_gpus. Count changes are conditional updates so
// 0 <= available_count <= total_count holds without application locks.
type InventoryRepo interface {
	List(ctx context.Context) ([]inventory.ServerGPU, error)
	ListByServer(ctx context.Context, serverID uint) ([]inventory.ServerGPU, error)
	Get(ctx context.Context, serverID, modelID uint) (inventory.ServerGPU, error)
	Decrement(ctx context.Context, serverID, modelID uint, qty int) error
	Restore(ctx context.Context, serverID, modelID uint, qty int) error
	Upsert(ctx context.Context, row *inventory.ServerGPU) error
	SetTotal(ctx context.Context, serverID, modelID uint, total int) error
	WithTx(tx *gorm.DB) InventoryRepo
}

type DBGPUModelRepo struct {
	db *gorm.DB
}

func NewGPUModelRepo(db *gorm.DB) *DBGPUModelRepo {
	return &DBGPUModelRepo{db: db}
}

func (r *DBGPUModelRepo) List(ctx context.Context) ([]inventory.GPUModel, error) {
	models := []inventory.GPUModel{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&models).Error
	return models, err
}

// Upsert matches on name.
func (r *DBGPUModelRepo) Upsert(ctx context.Context, m *inventory.GPUModel) error {
	return r.db.WithContext(ctx).
		Where(inventory.GPUModel{Name: m.Name}).
		Assign(inventory.GPUModel{Vendor: m.Vendor, MemoryGB: m.MemoryGB, ComputeCapability: m.ComputeCapability}).
		FirstOrCreate(m).Error
}

func (r *DBGPUModelRepo) WithTx(tx *gorm.DB) GPUModelRepo {
	if tx == nil {
		return r
	}
	return &DBGPUModelRepo{db: tx}
}

type DBRackRepo struct {
	db *gorm.DB
}

func NewRackRepo(db *gorm.DB) *DBRackRepo {
	return &DBRackRepo{db: db}
}

func (r *DBRackRepo) List(ctx context.Context) ([]inventory.Rack, error) {
	racks := []inventory.Rack{}
	err := r.db.WithContext(ctx).Order("name ASC").Find(&racks).Error
	return racks, err
}

func (r *DBRackRepo) GetByID(ctx context.Context, id uint) (inventory.Rack, error) {
	var rack inventory.Rack
	err := r.db.WithContext(ctx).First(&rack, id).Error
	return rack, err
}

// Upsert matches on name.
func (r *DBRackRepo) Upsert(ctx context.Context, rack *inventory.Rack) error {
	return r.db.WithContext(ctx).
		Where(inventory.Rack{Name: rack.Name}).
		Assign(inventory.Rack{
			IPAddress:   rack.IPAddress,
			Label:       rack.Label,
			SSHPort:     rack.SSHPort,
			SSHUsername: rack.SSHUsername,
			NodeName:    rack.NodeName,
		}).
		FirstOrCreate(rack).Error
}

func (r *DBRackRepo) WithTx(tx *gorm.DB) RackRepo {
	if tx == nil {
		return r
	}
	return &DBRackRepo{db: tx}
}

type DBInventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) *DBInventoryRepo {
	return &DBInventoryRepo{db: db}
}

func (r *DBInventoryRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Server").Preload("GPUModel")
}

func (r *DBInventoryRepo) List(ctx context.Context) ([]inventory.ServerGPU, error) {
	rows := []inventory.ServerGPU{}
	err := r.preloaded(ctx).Order("server_id ASC, gpu_model_id ASC").Find(&rows).Error
	return rows, err
}

func (r *DBInventoryRepo) ListByServer(ctx context.Context, serverID uint) ([]inventory.ServerGPU, error) {
	rows := []inventory.ServerGPU{}
	err := r.preloaded(ctx).
		Where("server_id = ?", serverID).
		Order("gpu_model_id ASC").
		Find(&rows).Error
	return rows, err
}

func (r *DBInventoryRepo) Get(ctx context.Context, serverID, modelID uint) (inventory.ServerGPU, error) {
	var row inventory.ServerGPU
	err := r.preloaded(ctx).
		Where("server_id = ? AND gpu_model_id = ?", serverID, modelID).
		First(&row).Error
	return row, err
}

func (r *DBInventoryRepo) Decrement(ctx context.Context, serverID, modelID uint, qty int) error {
	res := r.db.WithContext(ctx).Model(&inventory.ServerGPU{}).
		Where("server_id = ? AND gpu_model_id = ? AND available_count >= ?", serverID, modelID, qty).
		Updates(map[string]any{
			"available_count": gorm.Expr("available_count - ?", qty),
			"updated_at":      time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientGPUs
	}
	return nil
}

// Restore gives units back, never exceeding total_count.
func (r *DBInventoryRepo) Restore(ctx context.Context, serverID, modelID uint, qty int) error {
	return r.db.WithContext(ctx).Model(&inventory.ServerGPU{}).
		Where("server_id = ? AND gpu_model_id = ?", serverID, modelID).
		Updates(map[string]any{
			"available_count": gorm.Expr(
				"CASE WHEN available_count + ? > total_count THEN total_count ELSE available_count + ? END", qty, qty),
			"updated_at": time.Now(),
		}).Error
}

func (r *DBInventoryRepo) Upsert(ctx context.Context, row *inventory.ServerGPU) error {
	row.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "server_id"}, {Name: "gpu_model_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_count", "available_count", "updated_at"}),
		}).
		Create(row).Error
}

// SetTotal changes capacity and shifts available_count by the same delta,
// clamped to [0, total].
func (r *DBInventoryRepo) SetTotal(ctx context.Context, serverID, modelID uint, total int) error {
	res := r.db.WithContext(ctx).Model(&inventory.ServerGPU{}).
		Where("server_id = ? AND gpu_model_id = ?", serverID, modelID).
		Updates(map[string]any{
			"available_count": gorm.Expr(
				"CASE WHEN available_count + ? - total_count < 0 THEN 0 "+
					"WHEN available_count + ? - total_count > ? THEN ? "+
					"ELSE available_count + ? - total_count END",
				total, total, total, total, total),
			"total_count": total,
			"updated_at":  time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return r.Upsert(ctx, &inventory.ServerGPU{
			ServerID:       serverID,
			GPUModelID:     modelID,
			TotalCount:     total,
			AvailableCount: total,
		})
	}
	return nil
}

func (r *DBInventoryRepo) WithTx(tx *gorm.DB) InventoryRepo {
	if tx == nil {
		return r
	}
	return &DBInventoryRepo{db: tx}
}
