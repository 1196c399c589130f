package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/api/handlers"
	"github.com/linskybing/gpu-portal/internal/api/middleware"
	"github.com/linskybing/gpu-portal/internal/api/routes"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/config"
	"github.com/linskybing/gpu-portal/internal/config/db"
	"github.com/linskybing/gpu-portal/internal/cron"
	"github.com/linskybing/gpu-portal/internal/identity"
	"github.com/linskybing/gpu-portal/internal/mail"
	"github.com/linskybing/gpu-portal/internal/notify"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/internal/storage"
	"github.com/linskybing/gpu-portal/pkg/logger"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// @title GPU Portal API
// @version 1.0
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration from environment variables and .env file
	config.LoadConfig()
	logger.Init(config.LogLevel, config.LogFile, config.IsProduction)

	// Initialize database connection and run migrations
	db.Init()
	repos := repository.NewRepositories(db.DB)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		tracker notify.Tracker = notify.NewMemoryTracker()
		inbox   notify.Inbox   = notify.NewMemoryInbox()
		revoker identity.Revoker
	)
	if config.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     config.RedisAddr,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("Failed to connect to redis")
		}
		defer rdb.Close()
		tracker = notify.NewRedisTracker(rdb, config.SessionTTL)
		inbox = notify.NewRedisInbox(rdb, config.SessionTTL)
		revoker = identity.NewRedisRevoker(rdb)
		log.WithField("addr", config.RedisAddr).Info("Session state stored in redis")
	}

	var store storage.ObjectStore
	if minioStore, err := storage.NewMinioStore(ctx, config.MinioEndpoint, config.MinioAccessKey, config.MinioSecretKey, config.MinioBucket, config.MinioUseSSL); err != nil {
		if !errors.Is(err, storage.ErrNotConfigured) {
			log.WithError(err).Fatal("Failed to initialize object storage")
		}
		log.Warn("MINIO_ENDPOINT not set, attachments are disabled")
	} else {
		store = minioStore
	}

	gwOpts := identity.Options{
		Secret:     config.JwtSecret,
		Issuer:     config.Issuer,
		SessionTTL: config.SessionTTL,
		ResetTTL:   config.ResetTTL,
		Revoker:    revoker,
		Mailer: mail.New(mail.SMTPConfig{
			Host:     config.SMTPHost,
			Port:     config.SMTPPort,
			User:     config.SMTPUser,
			Password: config.SMTPPassword,
			From:     config.SMTPFrom,
		}),
	}
	if config.GithubClientID != "" {
		gwOpts.OAuth = identity.NewGithubOAuth(config.GithubClientID, config.GithubClientSecret, config.GithubRedirectURL)
	}
	gw := identity.NewLocalGateway(repos.Identity, gwOpts)

	services := application.New(repos, application.Deps{
		Gateway: gw,
		Tracker: tracker,
		Inbox:   inbox,
		Storage: store,
	})

	// Start background tasks
	cron.StartCleanupTask(ctx, services.Audit, config.AuditRetentionDays)
	cron.StartExpirySweeper(ctx, services.Request, repos.Audit, config.ExpirySweepInterval)
	cron.StartSessionSweeper(ctx, services.Notification, config.SessionSweepInterval)

	if config.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.CORSMiddleware(config.CORSOrigins))
	router.Use(middleware.LoggingMiddleware())
	router.Use(gin.Recovery())

	routes.RegisterRoutes(router, handlers.New(services, repos), gw)

	srv := &http.Server{
		Addr:    ":" + config.ServerPort,
		Handler: router,
	}
	go func() {
		log.Infof("Starting API server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	log.Info("Shutdown signal")
	cancel()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
}
