package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/internal/storage"
	log "github.com/sirupsen/logrus"
)

var ErrNoAttachment = errors.New("request has no attachment")

const AttachmentURLExpiry = time.Hour

type AttachmentService struct {
	Repos *repository.Repos
	Store storage.ObjectStore
}

func NewAttachmentService(repos *repository.Repos, store storage.ObjectStore) *AttachmentService {
	return &AttachmentService{
		Repos: repos,
		Store: store,
	}
}

// Upload stores a project proposal for an owned request, replacing any
// earlier one.
func (s *AttachmentService) Upload(ctx context.Context, userID string, requestID uint, filename string, r io.Reader, size int64) (string, error) {
	if s.Store == nil {
		return "", storage.ErrNotConfigured
	}
	req, err := s.Repos.Request.GetByID(ctx, requestID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", ErrRequestNotFound
		}
		return "", err
	}
	if req.UserID != userID {
		return "", ErrRequestNotFound
	}

	key, err := s.Store.Put(ctx, fmt.Sprintf("requests/%d", requestID), filename, r, size)
	if err != nil {
		return "", err
	}
	if err := s.Repos.Request.SetAttachment(ctx, requestID, userID, key); err != nil {
		if delErr := s.Store.Delete(ctx, key); delErr != nil {
			log.WithError(delErr).WithField("key", key).Warn("failed to remove orphaned attachment")
		}
		return "", err
	}
	if req.AttachmentKey != nil && *req.AttachmentKey != key {
		if err := s.Store.Delete(ctx, *req.AttachmentKey); err != nil {
			log.WithError(err).WithField("key", *req.AttachmentKey).Warn("failed to remove replaced attachment")
		}
	}
	return key, nil
}

// DownloadURL returns a presigned link for the owner or an admin.
func (s *AttachmentService) DownloadURL(ctx context.Context, userID string, isAdmin bool, requestID uint) (string, error) {
	if s.Store == nil {
		return "", storage.ErrNotConfigured
	}
	req, err := s.Repos.Request.GetByID(ctx, requestID)
	if err != nil {
		if repository.IsNotFound(err) {
			return "", ErrRequestNotFound
		}
		return "", err
	}
	if req.UserID != userID && !isAdmin {
		return "", ErrRequestNotFound
	}
	if req.AttachmentKey == nil || *req.AttachmentKey == "" {
		return "", ErrNoAttachment
	}
	return s.Store.PresignedGet(ctx, *req.AttachmentKey, AttachmentURLExpiry)
}
