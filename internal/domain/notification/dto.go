package notification

type CreateNotificationDTO struct {
	UserID  string `json:"user_id" binding:"required" example:"6f1c2a7e-1d5b-4c1e-9b55-0c5b1f0b9a11"`
	Title   string `json:"title" binding:"required,max=200" example:"Maintenance window"`
	Message string `json:"message" binding:"required" example:"gpu-node-01 reboots on Friday 18:00."`
	Type    Type   `json:"type" binding:"omitempty,oneof=info success warning error" example:"info"`
}

// Feed is what the dashboard and the websocket push to a client.
type Feed struct {
	UnreadCount   int64          `json:"unread_count"`
	Notifications []Notification `json:"notifications"`
}
