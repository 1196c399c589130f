package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/domain/audit"
	"github.com/linskybing/gpu-portal/internal/domain/notification"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/pkg/response"
)

type AdminHandler struct {
	requests      *application.RequestService
	notifications application.NotificationSurface
	logs          *application.AuditService
	audit         repository.AuditRepo
}

func NewAdminHandler(requests *application.RequestService, notifications application.NotificationSurface, logs *application.AuditService, auditRepo repository.AuditRepo) *AdminHandler {
	return &AdminHandler{requests: requests, notifications: notifications, logs: logs, audit: auditRepo}
}

// ListRequests godoc
// @Summary Requests by status (Admin only)
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Param status query string false "pending, approved, denied or expired; empty for all"
// @Success 200 {array} request.View
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/requests [get]
func (h *AdminHandler) ListRequests(c *gin.Context) {
	var status request.Status
	if raw := c.Query("status"); raw != "" {
		parsed, ok := request.ParseStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid status"})
			return
		}
		status = parsed
	}

	views, err := h.requests.ListByStatus(c.Request.Context(), status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, views)
}

// ProcessRequest godoc
// @Summary Approve or deny a pending request (Admin only)
// @Description Denial gives the GPUs back to inventory.
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path uint true "Request ID"
// @Param input body request.UpdateStatusDTO true "New status"
// @Success 200 {object} request.ResourceRequest
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Request is no longer pending"
// @Router /admin/requests/{id}/status [put]
func (h *AdminHandler) ProcessRequest(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input request.UpdateStatusDTO
	if !bind(c, &input) {
		return
	}

	req, from, err := h.requests.Process(c.Request.Context(), id, input.Status)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
		case errors.Is(err, application.ErrInvalidTransition):
			c.JSON(http.StatusConflict, response.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		}
		return
	}

	action := audit.ActionApprove
	if req.Status == request.StatusDenied {
		action = audit.ActionDeny
	}
	audited(c, h.audit, action, audit.ResourceRequest, fmt.Sprint(req.ID),
		map[string]any{"status": from}, map[string]any{"status": req.Status},
		fmt.Sprintf("request %q %s", req.ProjectName, req.Status))
	c.JSON(http.StatusOK, req)
}

// CreateNotification godoc
// @Summary Send a notification to a user (Admin only)
// @Tags admin
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body notification.CreateNotificationDTO true "Notification"
// @Success 201 {object} notification.Notification
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Router /admin/notifications [post]
func (h *AdminHandler) CreateNotification(c *gin.Context) {
	var input notification.CreateNotificationDTO
	if !bind(c, &input) {
		return
	}

	n, err := h.notifications.Create(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}

	audited(c, h.audit, audit.ActionCreate, audit.ResourceNotification, n.ID, nil, n, "notification sent to "+n.UserID)
	c.JSON(http.StatusCreated, n)
}

// GetAuditLogs godoc
// @Summary      Query audit logs (Admin only)
// @Description  Filters are optional. Results are newest first, paged by limit and offset.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        user_id       query     string   false  "Actor user ID"
// @Param        resource_type query     string   false  "Resource type" example("resource_request")
// @Param        resource_id   query     string   false  "Resource ID"
// @Param        action        query     string   false  "Action" example("approve")
// @Param        start_time    query     string   false  "Start time in RFC3339 format" example("2025-01-01T00:00:00Z")
// @Param        end_time      query     string   false  "End time in RFC3339 format" example("2025-02-01T00:00:00Z")
// @Param        limit         query     int      false  "Max number of records to return (default 100, max 1000)"
// @Param        offset        query     int      false  "Offset for pagination (default 0)"
// @Success      200 {array}   audit.AuditLog
// @Failure      400 {object}  response.ErrorResponse "Invalid query parameters"
// @Failure      500 {object}  response.ErrorResponse
// @Router       /admin/audit/logs [get]
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	var params repository.AuditQueryParams

	if uid := c.Query("user_id"); uid != "" {
		params.UserID = &uid
	}
	if rt := c.Query("resource_type"); rt != "" {
		params.ResourceType = &rt
	}
	if rid := c.Query("resource_id"); rid != "" {
		params.ResourceID = &rid
	}
	if act := c.Query("action"); act != "" {
		params.Action = &act
	}

	if start := c.Query("start_time"); start != "" {
		t, err := time.Parse(time.RFC3339, start)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "Invalid start_time"})
			return
		}
		params.StartTime = &t
	}
	if end := c.Query("end_time"); end != "" {
		t, err := time.Parse(time.RFC3339, end)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "Invalid end_time"})
			return
		}
		params.EndTime = &t
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	params.Limit = limit
	params.Offset = offset

	logs, err := h.logs.QueryAuditLogs(c.Request.Context(), params)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, logs)
}
