package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/domain/audit"
	"github.com/linskybing/gpu-portal/internal/domain/user"
	"github.com/linskybing/gpu-portal/internal/identity"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/pkg/response"
)

type ProfileHandler struct {
	svc   *application.UserService
	audit repository.AuditRepo
}

func NewProfileHandler(svc *application.UserService, auditRepo repository.AuditRepo) *ProfileHandler {
	return &ProfileHandler{svc: svc, audit: auditRepo}
}

// GetProfile godoc
// @Summary Current user's profile
// @Tags profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} user.User
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	u, err := h.svc.Profile(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, u)
}

// UpdateProfile godoc
// @Summary Update name, department or student ID
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body user.UpdateProfileInput true "Fields to change"
// @Success 200 {object} user.User
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input user.UpdateProfileInput
	if !bind(c, &input) {
		return
	}

	old, updated, err := h.svc.UpdateProfile(c.Request.Context(), userID, input)
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}

	audited(c, h.audit, audit.ActionUpdate, audit.ResourceProfile, userID, old, updated, "profile updated")
	c.JSON(http.StatusOK, updated)
}

// ChangePassword godoc
// @Summary Change the current user's password
// @Tags profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body user.ChangePasswordInput true "New password"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse "Passwords do not match"
// @Router /profile/password [put]
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input user.ChangePasswordInput
	if !bind(c, &input) {
		return
	}

	err := h.svc.ChangePassword(c.Request.Context(), userID, input)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrPasswordMismatch), errors.Is(err, identity.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		case errors.Is(err, application.ErrUserNotFound):
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: "Failed to update password"})
		}
		return
	}

	audited(c, h.audit, audit.ActionUpdate, audit.ResourceProfile, userID, nil, nil, "password changed")
	c.JSON(http.StatusOK, response.MessageResponse{Message: "Password updated successfully"})
}
