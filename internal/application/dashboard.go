package application

import (
	"context"

	"github.com/linskybing/gpu-portal/internal/domain/notification"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/domain/user"
	"github.com/linskybing/gpu-portal/internal/notify"
	"github.com/linskybing/gpu-portal/internal/repository"
)

type Dashboard struct {
	User            user.User                   `json:"user"`
	ActiveResources []request.View              `json:"active_resources"`
	RecentRequests  []request.View              `json:"recent_requests"`
	Notifications   []notification.Notification `json:"notifications"`
	UnreadCount     int64                       `json:"unread_count"`
}

type DashboardService struct {
	Repos         *repository.Repos
	notifications NotificationSurface
	now           Clock
}

func NewDashboardService(repos *repository.Repos, notifications NotificationSurface, now Clock) *DashboardService {
	return &DashboardService{
		Repos:         repos,
		notifications: notifications,
		now:           now,
	}
}

// Overview loads the user, their active resources and three most recent
// requests, and the synthetic notifications raised by this refresh.
func (s *DashboardService) Overview(ctx context.Context, userID string, sess notify.Session) (Dashboard, error) {
	u, err := s.Repos.User.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return Dashboard{}, ErrUserNotFound
		}
		return Dashboard{}, err
	}

	reqs, err := s.Repos.Request.ListByUser(ctx, userID, 0)
	if err != nil {
		return Dashboard{}, err
	}
	now := s.now()

	active := []request.View{}
	for _, r := range reqs {
		if request.IsActive(r, now) {
			active = append(active, request.NewView(r, now))
		}
	}
	recent := reqs
	if len(recent) > RecentRequestLimit {
		recent = recent[:RecentRequestLimit]
	}

	emitted, err := s.notifications.Refresh(ctx, userID, sess)
	if err != nil {
		return Dashboard{}, err
	}
	unread, err := s.notifications.UnreadCount(ctx, userID, sess.ID)
	if err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		User:            u,
		ActiveResources: active,
		RecentRequests:  request.NewViews(recent, now),
		Notifications:   emitted,
		UnreadCount:     unread,
	}, nil
}
