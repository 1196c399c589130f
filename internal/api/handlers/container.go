package handlers

import (
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/repository"
)

type Handlers struct {
	Auth         *AuthHandler
	Profile      *ProfileHandler
	Inventory    *InventoryHandler
	Request      *RequestHandler
	Admin        *AdminHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
	WS           *WSHandler
}

func New(svc *application.Services, repos *repository.Repos) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(svc.Auth),
		Profile:      NewProfileHandler(svc.User, repos.Audit),
		Inventory:    NewInventoryHandler(svc.Inventory),
		Request:      NewRequestHandler(svc.Request, svc.Attachment, repos.Audit),
		Admin:        NewAdminHandler(svc.Request, svc.Notification, svc.Audit, repos.Audit),
		Notification: NewNotificationHandler(svc.Notification),
		Dashboard:    NewDashboardHandler(svc.Dashboard),
		WS:           NewWSHandler(svc.Notification),
	}
}
