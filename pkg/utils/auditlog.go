package utils

import (
	"context"
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/domain/audit"
	"github.com/linskybing/gpu-portal/internal/repository"
	log "github.com/sirupsen/logrus"
)

var LogAuditWithConsole = func(c *gin.Context, action, resourceType, resourceID string, oldData, newData interface{}, msg string, repos repository.AuditRepo) {
	// Extract data synchronously to avoid race conditions
	userID, _ := GetUserIDFromContext(c)
	ip := c.ClientIP()
	ua := c.GetHeader("User-Agent")

	// Run DB operation in background
	go func() {
		if err := LogAudit(context.Background(), userID, ip, ua, action, resourceType, resourceID, oldData, newData, msg, repos); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"action":        action,
				"resource_type": resourceType,
				"resource_id":   resourceID,
			}).Error("failed to write audit log")
		}
	}()
}

var LogAudit = func(
	ctx context.Context,
	userID string,
	ip string,
	ua string,
	action string,
	resourceType string,
	resourceID string,
	before any,
	after any,
	description string,
	repos repository.AuditRepo,
) error {
	entry := &audit.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		OldData:      marshalAudit(before),
		NewData:      marshalAudit(after),
		IPAddress:    ip,
		UserAgent:    ua,
		Description:  description,
	}

	return repos.CreateAuditLog(ctx, entry)
}

func marshalAudit(v any) []byte {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		log.WithError(err).Warn("audit marshal error")
		return nil
	}
	return b
}
