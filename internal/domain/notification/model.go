package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Type string

const (
	TypeInfo    Type = "info"
	TypeSuccess Type = "success"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
)

func (t Type) Valid() bool {
	switch t {
	case TypeInfo, TypeSuccess, TypeWarning, TypeError:
		return true
	}
	return false
}

// Status ties a notification back to the request event that raised it.
type Status string

const (
	StatusExpireSoon Status = "expire_soon"
	StatusApproved   Status = "approved"
	StatusDenied     Status = "denied"
	StatusExpired    Status = "expired"
)

type Notification struct {
	ID        string         `gorm:"primaryKey;size:64" json:"id"`
	UserID    string         `gorm:"size:36;not null;index" json:"user_id"`
	Title     string         `gorm:"size:200;not null" json:"title"`
	Message   string         `gorm:"type:text;not null" json:"message"`
	Type      Type           `gorm:"size:20;not null;default:info" json:"type"`
	Status    *Status        `gorm:"size:20" json:"status,omitempty"`
	Read      bool           `gorm:"not null;default:false;index" json:"read"`
	Metadata  datatypes.JSON `json:"metadata,omitempty" swaggertype:"object"`
	CreatedAt time.Time      `json:"created_at"`

	Synthetic bool `gorm:"-" json:"synthetic"`
}

func (Notification) TableName() string {
	return "notifications"
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
