package request

import (
	"fmt"
	"math"
	"time"
)

const (
	ExpiringSoonDays   = 2
	RecentChangeWindow = 24 * time.Hour
	Day                = 24 * time.Hour
)

// DeleteAction names what removing an owned request means in its current state.
type DeleteAction string

const (
	ActionCancel DeleteAction = "cancel"
	ActionReturn DeleteAction = "return"
)

// DaysRemaining is ceil((end - now) / 1 day).
func DaysRemaining(end, now time.Time) int {
	return int(math.Ceil(float64(end.Sub(now)) / float64(Day)))
}

func RemainingLabel(days int) string {
	if days <= 0 {
		return "Expired"
	}
	return fmt.Sprintf("%d days remaining", days)
}

func IsExpiringSoon(days int) bool {
	return days > 0 && days <= ExpiringSoonDays
}

// ChangedAt is the last status change time, falling back to creation.
func ChangedAt(r ResourceRequest) time.Time {
	if r.UpdatedAt.IsZero() {
		return r.CreatedAt
	}
	return r.UpdatedAt
}

func IsRecentlyChanged(r ResourceRequest, now time.Time) bool {
	return r.Status.Terminal() && now.Sub(ChangedAt(r)) <= RecentChangeWindow
}

func IsActive(r ResourceRequest, now time.Time) bool {
	return r.Status == StatusApproved && r.EndDate.After(now)
}

// EndDate is start plus the given number of whole days.
func EndDate(start time.Time, days int) time.Time {
	return start.AddDate(0, 0, days)
}

func DeleteActionFor(s Status) (DeleteAction, bool) {
	switch s {
	case StatusPending:
		return ActionCancel, true
	case StatusApproved:
		return ActionReturn, true
	}
	return "", false
}

// SSHCommand is the connection hint shown for approved requests.
func SSHCommand(r ResourceRequest) string {
	if r.Status != StatusApproved || r.Server.IPAddress == nil || *r.Server.IPAddress == "" {
		return ""
	}
	username := r.Server.SSHUsername
	if username == "" {
		username = "user"
	}
	port := r.Server.SSHPort
	if port == 0 {
		port = 22
	}
	return fmt.Sprintf("ssh %s@%s -p %d", username, *r.Server.IPAddress, port)
}

// View is a request enriched with the values derived at time now.
type View struct {
	ResourceRequest
	Display        Display `json:"display"`
	DaysRemaining  int     `json:"days_remaining"`
	RemainingLabel string  `json:"remaining_label"`
	ExpiringSoon   bool    `json:"expiring_soon"`
	Active         bool    `json:"active"`
	SSHCommand     string  `json:"ssh_command,omitempty"`
}

func NewView(r ResourceRequest, now time.Time) View {
	days := DaysRemaining(r.EndDate, now)
	return View{
		ResourceRequest: r,
		Display:         r.Status.Display(),
		DaysRemaining:   days,
		RemainingLabel:  RemainingLabel(days),
		ExpiringSoon:    IsActive(r, now) && IsExpiringSoon(days),
		Active:          IsActive(r, now),
		SSHCommand:      SSHCommand(r),
	}
}

func NewViews(rs []ResourceRequest, now time.Time) []View {
	views := make([]View, 0, len(rs))
	for _, r := range rs {
		views = append(views, NewView(r, now))
	}
	return views
}
