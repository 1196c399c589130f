package application

import (
	"time"

	"github.com/linskybing/gpu-portal/internal/identity"
	"github.com/linskybing/gpu-portal/internal/notify"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/internal/storage"
)

// Clock supplies the current time to derived-field computations.
type Clock func() time.Time

type Deps struct {
	Gateway identity.Gateway
	Tracker notify.Tracker
	Inbox   notify.Inbox
	Storage storage.ObjectStore
	Now     Clock
}

type Services struct {
	Audit        *AuditService
	Auth         *AuthService
	User         *UserService
	Inventory    *InventoryService
	Request      *RequestService
	Notification *NotificationService
	Dashboard    *DashboardService
	Attachment   *AttachmentService
}

func New(repos *repository.Repos, deps Deps) *Services {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Tracker == nil {
		deps.Tracker = notify.NewMemoryTracker()
	}
	if deps.Inbox == nil {
		deps.Inbox = notify.NewMemoryInbox()
	}

	requests := NewRequestService(repos, deps.Now)
	notifications := NewNotificationService(repos, deps.Tracker, deps.Inbox, deps.Gateway, deps.Now)
	return &Services{
		Audit:        NewAuditService(repos),
		Auth:         NewAuthService(repos, deps.Gateway),
		User:         NewUserService(repos, deps.Gateway),
		Inventory:    NewInventoryService(repos),
		Request:      requests,
		Notification: notifications,
		Dashboard:    NewDashboardService(repos, notifications, deps.Now),
		Attachment:   NewAttachmentService(repos, deps.Storage),
	}
}
