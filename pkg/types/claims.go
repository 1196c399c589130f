package types

import "github.com/golang-jwt/jwt/v5"

// Token purposes carried in Claims.Purpose.
const (
	PurposeSession = "session"
	PurposeReset   = "reset"
	PurposePending = "pending"
)

// Claims is the JWT payload shared by the identity gateway and the HTTP layer.
// RegisteredClaims.ID (jti) identifies the session.
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	IsAdmin bool   `json:"is_admin"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (c *Claims) SessionID() string {
	return c.ID
}
