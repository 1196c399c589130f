package application

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/linskybing/gpu-portal/internal/domain/notification"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/identity"
	"github.com/linskybing/gpu-portal/internal/notify"
	"github.com/linskybing/gpu-portal/internal/repository"
	log "github.com/sirupsen/logrus"
)

var ErrNotificationNotFound = errors.New("notification not found")

// DefaultSessionTTL bounds session state for callers that pass no expiry.
const DefaultSessionTTL = 24 * time.Hour

// NotificationSurface is what the HTTP layer needs from notifications.
type NotificationSurface interface {
	Refresh(ctx context.Context, userID string, sess notify.Session) ([]notification.Notification, error)
	List(ctx context.Context, userID, sessionID string) ([]notification.Notification, error)
	MarkRead(ctx context.Context, userID, sessionID, id string) error
	MarkAllRead(ctx context.Context, userID, sessionID string) error
	UnreadCount(ctx context.Context, userID, sessionID string) (int64, error)
	Feed(ctx context.Context, userID string, sess notify.Session) (notification.Feed, error)
	Create(ctx context.Context, dto notification.CreateNotificationDTO) (notification.Notification, error)
	EndSession(ctx context.Context, sessionID string) error
}

// NotificationService merges persisted notifications with the synthetic ones
// derived from the user's requests. Synthetic notifications are emitted at
// most once per session.
type NotificationService struct {
	Repos   *repository.Repos
	tracker notify.Tracker
	inbox   notify.Inbox
	now     Clock
}

func NewNotificationService(repos *repository.Repos, tracker notify.Tracker, inbox notify.Inbox, gw identity.Gateway, now Clock) *NotificationService {
	s := &NotificationService{
		Repos:   repos,
		tracker: tracker,
		inbox:   inbox,
		now:     now,
	}
	if gw != nil {
		gw.Subscribe(func(ev identity.Event) {
			if ev.Kind != identity.SignedOut {
				return
			}
			if err := s.EndSession(context.Background(), ev.SessionID); err != nil {
				log.WithError(err).WithField("session_id", ev.SessionID).Warn("failed to clear notification session")
			}
		})
	}
	return s
}

// Refresh derives candidates from the user's active and most recent requests
// and returns the ones this session has not seen yet.
func (s *NotificationService) Refresh(ctx context.Context, userID string, sess notify.Session) ([]notification.Notification, error) {
	reqs, err := s.Repos.Request.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if sess.ExpiresAt.IsZero() {
		sess.ExpiresAt = now.Add(DefaultSessionTTL)
	}

	active := make([]request.ResourceRequest, 0, len(reqs))
	for _, r := range reqs {
		if request.IsActive(r, now) {
			active = append(active, r)
		}
	}
	recent := reqs
	if len(recent) > RecentRequestLimit {
		recent = recent[:RecentRequestLimit]
	}

	emitted := []notification.Notification{}
	for _, n := range notification.Derive(now, userID, active, recent) {
		fresh, err := s.tracker.MarkIfNew(ctx, sess, n.ID)
		if err != nil {
			return nil, err
		}
		if fresh {
			emitted = append(emitted, n)
		}
	}
	if err := s.inbox.Add(ctx, sess, emitted...); err != nil {
		return nil, err
	}
	return emitted, nil
}

// List returns persisted and session notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID, sessionID string) ([]notification.Notification, error) {
	persisted, err := s.Repos.Notification.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	synthetic, err := s.inbox.List(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	all := append(persisted, synthetic...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, sessionID, id string) error {
	ok, err := s.inbox.MarkRead(ctx, sessionID, id)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if err := s.Repos.Notification.MarkRead(ctx, id, userID); err != nil {
		if repository.IsNotFound(err) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// MarkAllRead updates every unread persisted row one by one, then the
// session's synthetic notifications.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID, sessionID string) error {
	ids, err := s.Repos.Notification.ListUnreadIDs(ctx, userID)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.Repos.Notification.MarkRead(ctx, id, userID); err != nil && !repository.IsNotFound(err) {
			return err
		}
	}
	_, err = s.inbox.MarkAllRead(ctx, sessionID)
	return err
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID, sessionID string) (int64, error) {
	count, err := s.Repos.Notification.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	synthetic, err := s.inbox.UnreadCount(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return count + int64(synthetic), nil
}

// Feed refreshes the session and returns everything a client renders.
func (s *NotificationService) Feed(ctx context.Context, userID string, sess notify.Session) (notification.Feed, error) {
	if _, err := s.Refresh(ctx, userID, sess); err != nil {
		return notification.Feed{}, err
	}
	list, err := s.List(ctx, userID, sess.ID)
	if err != nil {
		return notification.Feed{}, err
	}
	count, err := s.UnreadCount(ctx, userID, sess.ID)
	if err != nil {
		return notification.Feed{}, err
	}
	return notification.Feed{UnreadCount: count, Notifications: list}, nil
}

func (s *NotificationService) Create(ctx context.Context, dto notification.CreateNotificationDTO) (notification.Notification, error) {
	typ := dto.Type
	if typ == "" {
		typ = notification.TypeInfo
	}
	n := notification.Notification{
		UserID:  dto.UserID,
		Title:   dto.Title,
		Message: dto.Message,
		Type:    typ,
	}
	if _, err := s.Repos.User.GetByID(ctx, dto.UserID); err != nil {
		if repository.IsNotFound(err) {
			return n, ErrUserNotFound
		}
		return n, err
	}
	if err := s.Repos.Notification.Create(ctx, &n); err != nil {
		return n, err
	}
	return n, nil
}

func (s *NotificationService) EndSession(ctx context.Context, sessionID string) error {
	if err := s.inbox.Drop(ctx, sessionID); err != nil {
		return err
	}
	return s.tracker.Reset(ctx, sessionID)
}

// SweepSessions evicts expired sessions from stores held in process memory.
// Redis-backed stores expire on their own and are skipped.
func (s *NotificationService) SweepSessions() int {
	now := s.now()
	var seen, boxed int
	if sw, ok := s.tracker.(notify.Sweeper); ok {
		seen = sw.Sweep(now)
	}
	if sw, ok := s.inbox.(notify.Sweeper); ok {
		boxed = sw.Sweep(now)
	}
	return max(seen, boxed)
}
