package audit

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ActionCreate  = "create"
	ActionCancel  = "cancel"
	ActionReturn  = "return"
	ActionApprove = "approve"
	ActionDeny    = "deny"
	ActionExpire  = "expire"
	ActionUpdate  = "update"
)

const (
	ResourceRequest      = "resource_request"
	ResourceProfile      = "profile"
	ResourceNotification = "notification"
	ResourceInventory    = "inventory"
)

type AuditLog struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	UserID       string         `gorm:"size:36;index" json:"user_id"`
	Action       string         `gorm:"size:50;not null;index" json:"action"`
	ResourceType string         `gorm:"size:50;not null;index" json:"resource_type"`
	ResourceID   string         `gorm:"size:64" json:"resource_id"`
	OldData      datatypes.JSON `json:"old_data,omitempty" swaggertype:"object"`
	NewData      datatypes.JSON `json:"new_data,omitempty" swaggertype:"object"`
	IPAddress    string         `gorm:"size:45" json:"ip_address"`
	UserAgent    string         `gorm:"size:255" json:"user_agent"`
	Description  string         `gorm:"type:text" json:"description"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
