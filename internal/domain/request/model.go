package request

import (
	"time"

	"github.com/linskybing/gpu-portal/internal/domain/inventory"
)

type ResourceRequest struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             string    `gorm:"size:36;not null;index" json:"user_id"`
	ServerID           uint      `gorm:"not null;index" json:"server_id"`
	GPUModelID         uint      `gorm:"not null" json:"gpu_model_id"`
	Quantity           int       `gorm:"not null;check:chk_resource_requests_quantity,quantity > 0" json:"quantity"`
	ProjectName        string    `gorm:"size:200;not null" json:"project_name"`
	ProjectDescription string    `gorm:"type:text" json:"project_description"`
	StartDate          time.Time `gorm:"not null" json:"start_date"`
	EndDate            time.Time `gorm:"not null;index" json:"end_date"`
	DurationDays       int       `gorm:"column:duration_days;not null" json:"duration_days"`
	Status             Status    `gorm:"size:20;not null;default:pending;index" json:"status"`
	AttachmentKey      *string   `gorm:"size:255" json:"attachment_key,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`

	Server   inventory.Rack     `gorm:"foreignKey:ServerID" json:"server"`
	GPUModel inventory.GPUModel `gorm:"foreignKey:GPUModelID" json:"gpu_model"`
}

func (ResourceRequest) TableName() string {
	return "resource_requests"
}
