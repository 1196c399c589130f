package repository

import (
	"context"
	"strings"

	"github.com/linskybing/gpu-portal/internal/domain/user"
	"gorm.io/gorm"
)

// IdentityRepo stores credentials on behalf of the identity gateway.
type IdentityRepo interface {
	GetByID(ctx context.Context, id string) (user.Identity, error)
	GetByEmail(ctx context.Context, email string) (user.Identity, error)
	Create(ctx context.Context, ident *user.Identity) error
	UpdatePassword(ctx context.Context, id, hash string) error
	LinkExternal(ctx context.Context, id, externalID string) error
	Delete(ctx context.Context, id string) error
	WithTx(tx *gorm.DB) IdentityRepo
}

type DBIdentityRepo struct {
	db *gorm.DB
}

func NewIdentityRepo(db *gorm.DB) *DBIdentityRepo {
	return &DBIdentityRepo{
		db: db,
	}
}

func (r *DBIdentityRepo) GetByID(ctx context.Context, id string) (user.Identity, error) {
	var ident user.Identity
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ident).Error
	return ident, err
}

func (r *DBIdentityRepo) GetByEmail(ctx context.Context, email string) (user.Identity, error) {
	var ident user.Identity
	err := r.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&ident).Error
	return ident, err
}

func (r *DBIdentityRepo) Create(ctx context.Context, ident *user.Identity) error {
	ident.Email = strings.ToLower(strings.TrimSpace(ident.Email))
	if err := r.db.WithContext(ctx).Create(ident).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *DBIdentityRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	res := r.db.WithContext(ctx).Model(&user.Identity{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *DBIdentityRepo) LinkExternal(ctx context.Context, id, externalID string) error {
	return r.db.WithContext(ctx).Model(&user.Identity{}).
		Where("id = ?", id).
		Update("external_id", externalID).Error
}

func (r *DBIdentityRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&user.Identity{}).Error
}

func (r *DBIdentityRepo) WithTx(tx *gorm.DB) IdentityRepo {
	if tx == nil {
		return r
	}
	return &DBIdentityRepo{
		db: tx,
	}
}
