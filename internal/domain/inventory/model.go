package inventory

import "time"

type GPUModel struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Name              string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	Vendor            string    `gorm:"size:50" json:"vendor"`
	MemoryGB          int       `gorm:"column:memory_gb" json:"memory_gb"`
	ComputeCapability *string   `gorm:"size:20" json:"compute_capability,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func (GPUModel) TableName() string {
	return "gpu_models"
}

// Rack is a racked server hosting one or more GPU models.
type Rack struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null;uniqueIndex" json:"name"`
	IPAddress   *string   `gorm:"size:45" json:"ip_address,omitempty"`
	Label       string    `gorm:"column:rack;size:50" json:"rack"`
	SSHPort     int       `gorm:"default:22" json:"ssh_port"`
	SSHUsername string    `gorm:"size:50" json:"ssh_username,omitempty"`
	NodeName    string    `gorm:"size:100" json:"node_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Rack) TableName() string {
	return "racks"
}

// ServerGPU is the per-server inventory of one GPU model.
type ServerGPU struct {
	ServerID       uint      `gorm:"primaryKey" json:"server_id"`
	GPUModelID     uint      `gorm:"primaryKey" json:"gpu_model_id"`
	TotalCount     int       `gorm:"not null;default:0;check:chk_server_gpus_total,total_count >= 0" json:"total_count"`
	AvailableCount int       `gorm:"not null;default:0;check:chk_server_gpus_available,available_count >= 0 AND available_count <= total_count" json:"available_count"`
	UpdatedAt      time.Time `json:"updated_at"`

	Server   Rack     `gorm:"foreignKey:ServerID" json:"server"`
	GPUModel GPUModel `gorm:"foreignKey:GPUModelID" json:"gpu_model"`
}

func (ServerGPU) TableName() string {
	return "server_gpus"
}
