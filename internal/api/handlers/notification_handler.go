package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/notify"
	"github.com/linskybing/gpu-portal/pkg/response"
	"github.com/linskybing/gpu-portal/pkg/types"
	"github.com/linskybing/gpu-portal/pkg/utils"
)

type NotificationHandler struct {
	svc application.NotificationSurface
}

func NewNotificationHandler(svc application.NotificationSurface) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// session returns the caller's claims; the jti scopes synthetic notifications.
func session(c *gin.Context) (*types.Claims, bool) {
	claims, err := utils.GetClaimsFromContext(c)
	if err != nil || claims.UserID == "" {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: "Please login first"})
		return nil, false
	}
	return claims, true
}

// sessionOf scopes session state to the token's lifetime.
func sessionOf(claims *types.Claims) notify.Session {
	sess := notify.Session{ID: claims.SessionID()}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess
}

// ListNotifications godoc
// @Summary Notifications, newest first
// @Description Persisted notifications plus the ones derived for this session.
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {array} notification.Notification
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	claims, ok := session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if _, err := h.svc.Refresh(ctx, claims.UserID, sessionOf(claims)); err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	list, err := h.svc.List(ctx, claims.UserID, claims.SessionID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

// UnreadCount godoc
// @Summary Number of unread notifications
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.CountResponse
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	claims, ok := session(c)
	if !ok {
		return
	}
	count, err := h.svc.UnreadCount(c.Request.Context(), claims.UserID, claims.SessionID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.CountResponse{Count: count})
}

// MarkRead godoc
// @Summary Mark one notification as read
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Param id path string true "Notification ID"
// @Success 200 {object} response.CountResponse "Unread count after the update"
// @Failure 404 {object} response.ErrorResponse
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	claims, ok := session(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if err := h.svc.MarkRead(ctx, claims.UserID, claims.SessionID(), c.Param("id")); err != nil {
		if errors.Is(err, application.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	h.respondCount(c, claims)
}

// MarkAllRead godoc
// @Summary Mark every notification as read
// @Tags notifications
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.CountResponse "Unread count after the update"
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	claims, ok := session(c)
	if !ok {
		return
	}
	if err := h.svc.MarkAllRead(c.Request.Context(), claims.UserID, claims.SessionID()); err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	h.respondCount(c, claims)
}

func (h *NotificationHandler) respondCount(c *gin.Context, claims *types.Claims) {
	count, err := h.svc.UnreadCount(c.Request.Context(), claims.UserID, claims.SessionID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, response.CountResponse{Count: count})
}
