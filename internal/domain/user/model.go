package user

import "time"

const (
	ProviderPassword = "password"
	ProviderGithub   = "github"
)

// User is the directory record of a portal member. ID equals the identity subject.
type User struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Email      string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	Department string    `gorm:"size:100" json:"department"`
	StudentID  string    `gorm:"column:student_id;size:50" json:"student_id"`
	Provider   string    `gorm:"size:20;default:password" json:"provider"`
	IsAdmin    bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Identity holds the credentials owned by the identity gateway. It is never
// serialized to clients.
type Identity struct {
	ID           string `gorm:"primaryKey;size:36"`
	Email        string `gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string `gorm:"size:255"`
	Provider     string `gorm:"size:20;not null"`
	ExternalID   string `gorm:"size:100;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
