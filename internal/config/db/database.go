package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/linskybing/gpu-portal/internal/config"
	"github.com/linskybing/gpu-portal/internal/domain/audit"
	"github.com/linskybing/gpu-portal/internal/domain/inventory"
	"github.com/linskybing/gpu-portal/internal/domain/notification"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/domain/user"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Init opens the configured database and runs migrations.
func Init() {
	conn, err := Open(config.PostgresDSN())
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	if err := Migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	DB = conn
	log.Info("Database connected and migrated")
}

func InitWithGormDB(gormDB *gorm.DB) {
	DB = gormDB
}

// Open picks the postgres or sqlite driver from the DSN.
func Open(dsn string) (*gorm.DB, error) {
	trimmed := strings.TrimSpace(dsn)
	if trimmed == "" {
		return nil, fmt.Errorf("db: empty dsn")
	}

	cfg := &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)}

	var (
		conn *gorm.DB
		err  error
	)
	if isPostgres(trimmed) {
		conn, err = gorm.Open(postgres.Open(trimmed), cfg)
	} else {
		conn, err = gorm.Open(sqlite.Open(trimmed), cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("db: open: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("db: sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(25)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return conn, nil
}

func isPostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return true
	case strings.Contains(lower, "host=") || strings.Contains(lower, "dbname="):
		return true
	}
	return false
}

// Migrate creates or updates every table owned by the portal.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&user.User{},
		&user.Identity{},
		&inventory.GPUModel{},
		&inventory.Rack{},
		&inventory.ServerGPU{},
		&request.ResourceRequest{},
		&notification.Notification{},
		&audit.AuditLog{},
	)
}
