package repository

import (
	"context"
	"time"

	"github.com/linskybing/gpu-portal/internal/domain/request"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepo interface {
	Create(ctx context.Context, req *request.ResourceRequest) error
	GetByID(ctx context.Context, id uint) (request.ResourceRequest, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]request.ResourceRequest, error)
	ListByStatus(ctx context.Context, status request.Status) ([]request.ResourceRequest, error)
	ListExpired(ctx context.Context, now time.Time) ([]request.ResourceRequest, error)
	DeleteOwned(ctx context.Context, id uint, userID string, status request.Status) error
	// UpdateStatus moves id from one status to another and stamps updated_at
	// with at. ErrStatusConflict means the row was not in status from.
	UpdateStatus(ctx context.Context, id uint, from, to request.Status, at time.Time) error
	SetAttachment(ctx context.Context, id uint, userID, key string) error
	WithTx(tx *gorm.DB) RequestRepo
}

type DBRequestRepo struct {
	db *gorm.DB
}

func NewRequestRepo(db *gorm.DB) *DBRequestRepo {
	return &DBRequestRepo{
		db: db,
	}
}

func (r *DBRequestRepo) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Server").Preload("GPUModel")
}

func (r *DBRequestRepo) Create(ctx context.Context, req *request.ResourceRequest) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(req).Error
}

func (r *DBRequestRepo) GetByID(ctx context.Context, id uint) (request.ResourceRequest, error) {
	var req request.ResourceRequest
	err := r.preloaded(ctx).First(&req, id).Error
	return req, err
}

// ListByUser returns newest first. limit <= 0 returns everything.
func (r *DBRequestRepo) ListByUser(ctx context.Context, userID string, limit int) ([]request.ResourceRequest, error) {
	reqs := []request.ResourceRequest{}
	q := r.preloaded(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&reqs).Error
	return reqs, err
}

// ListByStatus returns every request when status is empty.
func (r *DBRequestRepo) ListByStatus(ctx context.Context, status request.Status) ([]request.ResourceRequest, error) {
	reqs := []request.ResourceRequest{}
	q := r.preloaded(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&reqs).Error
	return reqs, err
}

func (r *DBRequestRepo) ListExpired(ctx context.Context, now time.Time) ([]request.ResourceRequest, error) {
	reqs := []request.ResourceRequest{}
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date < ?", request.StatusApproved, now).
		Order("end_date ASC").
		Find(&reqs).Error
	return reqs, err
}

// DeleteOwned removes the row only if it still belongs to userID and is in
// the expected status.
func (r *DBRequestRepo) DeleteOwned(ctx context.Context, id uint, userID string, status request.Status) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND status = ?", id, userID, status).
		Delete(&request.ResourceRequest{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DBRequestRepo) UpdateStatus(ctx context.Context, id uint, from, to request.Status, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&request.ResourceRequest{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStatusConflict
	}
	return nil
}

func (r *DBRequestRepo) SetAttachment(ctx context.Context, id uint, userID, key string) error {
	res := r.db.WithContext(ctx).Model(&request.ResourceRequest{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("attachment_key", key)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DBRequestRepo) WithTx(tx *gorm.DB) RequestRepo {
	if tx == nil {
		return r
	}
	return &DBRequestRepo{
		db: tx,
	}
}
