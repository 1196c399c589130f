package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/domain/audit"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/internal/storage"
	"github.com/linskybing/gpu-portal/pkg/response"
	"github.com/linskybing/gpu-portal/pkg/utils"
	log "github.com/sirupsen/logrus"
)

// MaxAttachmentSize bounds uploaded project proposals.
const MaxAttachmentSize = 20 << 20

type RequestHandler struct {
	svc         *application.RequestService
	attachments *application.AttachmentService
	audit       repository.AuditRepo
}

func NewRequestHandler(svc *application.RequestService, attachments *application.AttachmentService, auditRepo repository.AuditRepo) *RequestHandler {
	return &RequestHandler{svc: svc, attachments: attachments, audit: auditRepo}
}

type URLResponse struct {
	URL string `json:"url"`
}

// Submit godoc
// @Summary Submit a GPU resource request
// @Description Validates the form, then takes the GPUs from inventory and stores the request in one transaction.
// @Tags requests
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param input body request.CreateRequestDTO true "Request form"
// @Success 201 {object} response.SuccessResponse{data=request.ResourceRequest}
// @Failure 400 {object} response.ErrorResponse "Validation failed"
// @Failure 401 {object} response.ErrorResponse "Please login first"
// @Failure 409 {object} response.ErrorResponse "Not enough GPUs left"
// @Failure 500 {object} response.ErrorResponse
// @Router /requests [post]
func (h *RequestHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var input request.CreateRequestDTO
	if err := c.ShouldBind(&input); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "Invalid input"})
		return
	}

	req, err := h.svc.Submit(c.Request.Context(), userID, input)
	if err != nil {
		var verr *request.ValidationError
		switch {
		case errors.As(err, &verr):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: verr.Message})
		case errors.Is(err, application.ErrNotLoggedIn):
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: err.Error()})
		case errors.Is(err, application.ErrQuantityExceedsAvailable):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		case errors.Is(err, repository.ErrInsufficientGPUs):
			c.JSON(http.StatusConflict, response.ErrorResponse{Error: application.ErrSubmitFailed.Error()})
		default:
			log.WithError(err).WithField("user_id", userID).Error("request submission failed")
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: application.ErrSubmitFailed.Error()})
		}
		return
	}

	audited(c, h.audit, audit.ActionCreate, audit.ResourceRequest, fmt.Sprint(req.ID), nil, req,
		fmt.Sprintf("requested %d GPU(s) for %q", req.Quantity, req.ProjectName))
	c.JSON(http.StatusCreated, response.SuccessResponse{Message: "Request submitted successfully!", Data: req})
}

// History godoc
// @Summary The caller's requests, newest first
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Success 200 {array} request.View
// @Router /requests [get]
func (h *RequestHandler) History(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	views, err := h.svc.History(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, views)
}

// Withdraw godoc
// @Summary Cancel a pending request or return an active one
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Param id path uint true "Request ID"
// @Success 200 {object} response.MessageResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse "Request can no longer be removed"
// @Router /requests/{id} [delete]
func (h *RequestHandler) Withdraw(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	req, action, err := h.svc.Withdraw(c.Request.Context(), userID, id)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
		case errors.Is(err, application.ErrNotRemovable):
			c.JSON(http.StatusConflict, response.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: err.Error()})
		}
		return
	}

	msg := "Request cancelled"
	auditAction := audit.ActionCancel
	if action == request.ActionReturn {
		msg = "Resource returned"
		auditAction = audit.ActionReturn
	}
	audited(c, h.audit, auditAction, audit.ResourceRequest, fmt.Sprint(req.ID), req, nil, msg)
	c.JSON(http.StatusOK, response.MessageResponse{Message: msg})
}

// UploadAttachment godoc
// @Summary Attach a project proposal to an owned request
// @Tags requests
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path uint true "Request ID"
// @Param file formData file true "Proposal document"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse "Object storage is not configured"
// @Router /requests/{id}/attachment [post]
func (h *RequestHandler) UploadAttachment(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "file is required"})
		return
	}
	if fh.Size > MaxAttachmentSize {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "file must be at most 20MB"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "failed to read file"})
		return
	}
	defer f.Close()

	key, err := h.attachments.Upload(c.Request.Context(), userID, id, fh.Filename, f, fh.Size)
	if err != nil {
		h.attachmentError(c, err)
		return
	}

	audited(c, h.audit, audit.ActionUpdate, audit.ResourceRequest, fmt.Sprint(id), nil, map[string]string{"attachment_key": key}, "attachment uploaded")
	c.JSON(http.StatusOK, response.SuccessResponse{Message: "Attachment uploaded", Data: map[string]string{"key": key}})
}

// AttachmentURL godoc
// @Summary Presigned download link for a request's attachment
// @Tags requests
// @Security BearerAuth
// @Produce json
// @Param id path uint true "Request ID"
// @Success 200 {object} URLResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /requests/{id}/attachment [get]
func (h *RequestHandler) AttachmentURL(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	url, err := h.attachments.DownloadURL(c.Request.Context(), userID, utils.IsAdmin(c), id)
	if err != nil {
		h.attachmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, URLResponse{URL: url})
}

func (h *RequestHandler) attachmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrRequestNotFound), errors.Is(err, application.ErrNoAttachment):
		c.JSON(http.StatusNotFound, response.ErrorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, response.ErrorResponse{Error: err.Error()})
	default:
		log.WithError(err).Error("attachment operation failed")
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: "attachment operation failed"})
	}
}
