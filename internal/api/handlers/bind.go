package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/pkg/response"
	"github.com/linskybing/gpu-portal/pkg/utils"
)

var fieldLabels = map[string]string{
	"Email":           "email",
	"Password":        "password",
	"ConfirmPassword": "confirm password",
	"Name":            "name",
	"Department":      "department",
	"StudentID":       "student ID",
	"Token":           "token",
	"UserID":          "user",
	"Title":           "title",
	"Message":         "message",
	"Type":            "type",
	"Status":          "status",
}

// validationMessage turns validator errors into a sentence the frontend can
// show as-is.
func validationMessage(err error) string {
	var verr validator.ValidationErrors
	if !errors.As(err, &verr) {
		return "Invalid input"
	}

	msgs := make([]string, 0, len(verr))
	for _, fe := range verr {
		field := fe.StructField()
		lbl, ok := fieldLabels[field]
		if !ok {
			lbl = strings.ToLower(field)
		}

		var msg string
		switch fe.Tag() {
		case "required":
			msg = fmt.Sprintf("%s is required", lbl)
		case "min":
			msg = fmt.Sprintf("%s must be at least %s characters", lbl, fe.Param())
		case "max":
			msg = fmt.Sprintf("%s must be at most %s characters", lbl, fe.Param())
		case "email":
			msg = fmt.Sprintf("%s must be a valid email address", lbl)
		case "oneof":
			msg = fmt.Sprintf("%s must be one of [%s]", lbl, fe.Param())
		default:
			msg = fmt.Sprintf("%s is invalid", lbl)
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}

// bind binds the body into dst and writes a 400 with a readable message on
// failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBind(dst); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: validationMessage(err)})
		return false
	}
	return true
}

// currentUser writes a 401 when the request carries no claims.
func currentUser(c *gin.Context) (string, bool) {
	userID, err := utils.GetUserIDFromContext(c)
	if err != nil || userID == "" {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: "Please login first"})
		return "", false
	}
	return userID, true
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := utils.ParseIDParam(c, name)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return id, true
}

// audited records an audit entry for the caller without blocking the response.
func audited(c *gin.Context, repo repository.AuditRepo, action, resourceType, resourceID string, before, after any, msg string) {
	if repo == nil {
		return
	}
	utils.LogAuditWithConsole(c, action, resourceType, resourceID, before, after, msg, repo)
}
