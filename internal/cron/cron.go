package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/domain/audit"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// systemActor is recorded as the user of audit entries written by background tasks.
const systemActor = "system"

// every runs fn immediately and then on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn(ctx)
		}
	}
}

// StartCleanupTask deletes audit entries older than retentionDays once a day.
func StartCleanupTask(ctx context.Context, auditService *application.AuditService, retentionDays int) {
	go func() {
		log.Infof("Starting background cleanup task (retention: %d days)", retentionDays)
		every(ctx, 24*time.Hour, func(ctx context.Context) {
			deleted, err := auditService.CleanupOldLogs(ctx, retentionDays)
			if err != nil {
				log.WithError(err).Error("Failed to cleanup old audit logs")
				return
			}
			log.WithField("deleted", deleted).Info("Audit log cleanup completed")
		})
	}()
}

// StartExpirySweeper moves approved requests past their end date to expired
// and gives their GPUs back.
func StartExpirySweeper(ctx context.Context, requests *application.RequestService, auditRepo repository.AuditRepo, interval time.Duration) {
	go func() {
		log.WithField("interval", interval).Info("Starting request expiry sweeper")
		every(ctx, interval, func(ctx context.Context) {
			SweepExpired(ctx, requests, auditRepo)
		})
	}()
}

// SweepExpired runs one expiry pass and records an audit entry per request.
func SweepExpired(ctx context.Context, requests *application.RequestService, auditRepo repository.AuditRepo) int {
	expired, err := requests.ExpireOverdue(ctx)
	if err != nil {
		log.WithError(err).Error("expiry sweep failed")
	}
	for _, r := range expired {
		err := utils.LogAudit(ctx, systemActor, "", "", audit.ActionExpire, audit.ResourceRequest,
			fmt.Sprint(r.ID),
			map[string]any{"status": request.StatusApproved},
			map[string]any{"status": request.StatusExpired, "quantity_returned": r.Quantity},
			fmt.Sprintf("request %q expired", r.ProjectName), auditRepo)
		if err != nil {
			log.WithError(err).WithField("request_id", r.ID).Warn("failed to audit expiry")
		}
	}
	if len(expired) > 0 {
		log.WithField("count", len(expired)).Info("expired overdue requests")
	}
	return len(expired)
}

// StartSessionSweeper evicts notification state of sessions whose token has
// expired without a sign-out.
func StartSessionSweeper(ctx context.Context, notifications *application.NotificationService, interval time.Duration) {
	go func() {
		log.WithField("interval", interval).Info("Starting notification session sweeper")
		every(ctx, interval, func(context.Context) {
			if dropped := notifications.SweepSessions(); dropped > 0 {
				log.WithField("count", dropped).Debug("dropped expired notification sessions")
			}
		})
	}()
}
