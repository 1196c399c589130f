package repository

import (
	"context"

	"gorm.io/gorm"
)

type Repos struct {
	User         UserRepo
	Identity     IdentityRepo
	GPUModel     GPUModelRepo
	Rack         RackRepo
	Inventory    InventoryRepo
	Request      RequestRepo
	Notification NotificationRepo
	Audit        AuditRepo

	db *gorm.DB
}

func NewRepositories(db *gorm.DB) *Repos {
	return &Repos{
		User:         NewUserRepo(db),
		Identity:     NewIdentityRepo(db),
		GPUModel:     NewGPUModelRepo(db),
		Rack:         NewRackRepo(db),
		Inventory:    NewInventoryRepo(db),
		Request:      NewRequestRepo(db),
		Notification: NewNotificationRepo(db),
		Audit:        NewAuditRepo(db),
		db:           db,
	}
}

func (r *Repos) Begin() *gorm.DB {
	return r.db.Begin()
}

func (r *Repos) WithTx(tx *gorm.DB) *Repos {
	return &Repos{
		User:         r.User.WithTx(tx),
		Identity:     r.Identity.WithTx(tx),
		GPUModel:     r.GPUModel.WithTx(tx),
		Rack:         r.Rack.WithTx(tx),
		Inventory:    r.Inventory.WithTx(tx),
		Request:      r.Request.WithTx(tx),
		Notification: r.Notification.WithTx(tx),
		Audit:        r.Audit.WithTx(tx),
		db:           tx,
	}
}

// ExecTx runs fn inside one database transaction. Repos built without a
// connection (mocks in unit tests) run fn directly.
func (r *Repos) ExecTx(ctx context.Context, fn func(*Repos) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepos := r.WithTx(tx)
		return fn(txRepos)
	})
}

