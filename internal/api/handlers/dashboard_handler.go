package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/pkg/response"
)

type DashboardHandler struct {
	svc *application.DashboardService
}

func NewDashboardHandler(svc *application.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// Overview godoc
// @Summary Dashboard for the current user
// @Description Profile, active resources, the three most recent requests and any notifications raised since the session started.
// @Tags dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} application.Dashboard
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	claims, ok := session(c)
	if !ok {
		return
	}

	d, err := h.svc.Overview(c.Request.Context(), claims.UserID, sessionOf(claims))
	if err != nil {
		if errors.Is(err, application.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}
