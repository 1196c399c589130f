package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/linskybing/gpu-portal/internal/domain/inventory"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/repository"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotLoggedIn              = errors.New("Please login first")
	ErrQuantityExceedsAvailable = errors.New("Requested quantity exceeds available GPUs")
	ErrSubmitFailed             = errors.New("Failed to submit request. Please try again.")
	ErrRequestNotFound          = errors.New("request not found")
	ErrNotRemovable             = errors.New("only pending or active requests can be removed")
	ErrInvalidTransition        = errors.New("request is no longer pending")
)

// RecentRequestLimit is how many of the newest requests the dashboard shows
// and derives status notifications from.
const RecentRequestLimit = 3

type RequestService struct {
	Repos *repository.Repos
	now   Clock
}

func NewRequestService(repos *repository.Repos, now Clock) *RequestService {
	return &RequestService{
		Repos: repos,
		now:   now,
	}
}

// Submit validates the form, then inserts the request and takes the units
// from inventory in one transaction.
func (s *RequestService) Submit(ctx context.Context, userID string, dto request.CreateRequestDTO) (request.ResourceRequest, error) {
	if userID == "" {
		return request.ResourceRequest{}, ErrNotLoggedIn
	}
	days, err := dto.Validate()
	if err != nil {
		return request.ResourceRequest{}, err
	}

	row, err := s.Repos.Inventory.Get(ctx, dto.ServerID, dto.GPUModelID)
	if err != nil {
		if repository.IsNotFound(err) {
			return request.ResourceRequest{}, ErrQuantityExceedsAvailable
		}
		return request.ResourceRequest{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}
	if dto.Quantity > inventory.Cap(row.AvailableCount) {
		return request.ResourceRequest{}, ErrQuantityExceedsAvailable
	}

	now := s.now()
	req := request.ResourceRequest{
		UserID:             userID,
		ServerID:           dto.ServerID,
		GPUModelID:         dto.GPUModelID,
		Quantity:           dto.Quantity,
		ProjectName:        strings.TrimSpace(dto.ProjectName),
		ProjectDescription: strings.TrimSpace(dto.ProjectDescription),
		StartDate:          now,
		EndDate:            request.EndDate(now, days),
		DurationDays:       days,
		Status:             request.StatusPending,
	}

	err = s.Repos.ExecTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Inventory.Decrement(ctx, dto.ServerID, dto.GPUModelID, dto.Quantity); err != nil {
			return err
		}
		return tx.Request.Create(ctx, &req)
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"user_id":      userID,
			"server_id":    dto.ServerID,
			"gpu_model_id": dto.GPUModelID,
			"quantity":     dto.Quantity,
		}).Warn("resource request rejected by store")
		return request.ResourceRequest{}, fmt.Errorf("%w: %w", ErrSubmitFailed, err)
	}

	req.Server = row.Server
	req.GPUModel = row.GPUModel
	return req, nil
}

// History returns the user's requests newest first.
func (s *RequestService) History(ctx context.Context, userID string) ([]request.View, error) {
	reqs, err := s.Repos.Request.ListByUser(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	return request.NewViews(reqs, s.now()), nil
}

// Withdraw deletes an owned request: cancel while pending, return while
// approved. The units go back to inventory in the same transaction.
func (s *RequestService) Withdraw(ctx context.Context, userID string, id uint) (request.ResourceRequest, request.DeleteAction, error) {
	req, err := s.Repos.Request.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return req, "", ErrRequestNotFound
		}
		return req, "", err
	}
	if req.UserID != userID {
		return request.ResourceRequest{}, "", ErrRequestNotFound
	}
	action, ok := request.DeleteActionFor(req.Status)
	if !ok {
		return req, "", ErrNotRemovable
	}

	err = s.Repos.ExecTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Request.DeleteOwned(ctx, id, userID, req.Status); err != nil {
			return err
		}
		return tx.Inventory.Restore(ctx, req.ServerID, req.GPUModelID, req.Quantity)
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return req, "", ErrRequestNotFound
		}
		return req, "", err
	}
	return req, action, nil
}

func (s *RequestService) ListByStatus(ctx context.Context, status request.Status) ([]request.View, error) {
	reqs, err := s.Repos.Request.ListByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return request.NewViews(reqs, s.now()), nil
}

// Process moves a pending request to approved or denied. Denial gives the
// units back.
func (s *RequestService) Process(ctx context.Context, id uint, to request.Status) (request.ResourceRequest, request.Status, error) {
	if to != request.StatusApproved && to != request.StatusDenied {
		return request.ResourceRequest{}, "", ErrInvalidTransition
	}
	req, err := s.Repos.Request.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return req, "", ErrRequestNotFound
		}
		return req, "", err
	}
	from := req.Status
	if from != request.StatusPending {
		return req, from, ErrInvalidTransition
	}

	now := s.now()
	err = s.Repos.ExecTx(ctx, func(tx *repository.Repos) error {
		if err := tx.Request.UpdateStatus(ctx, id, request.StatusPending, to, now); err != nil {
			return err
		}
		if to == request.StatusDenied {
			return tx.Inventory.Restore(ctx, req.ServerID, req.GPUModelID, req.Quantity)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return req, from, ErrInvalidTransition
		}
		return req, from, err
	}

	req.Status = to
	req.UpdatedAt = now
	return req, from, nil
}

// ExpireOverdue marks approved requests past their end date as expired and
// restores their units, one transaction per request.
func (s *RequestService) ExpireOverdue(ctx context.Context) ([]request.ResourceRequest, error) {
	now := s.now()
	overdue, err := s.Repos.Request.ListExpired(ctx, now)
	if err != nil {
		return nil, err
	}

	expired := make([]request.ResourceRequest, 0, len(overdue))
	for _, req := range overdue {
		err := s.Repos.ExecTx(ctx, func(tx *repository.Repos) error {
			if err := tx.Request.UpdateStatus(ctx, req.ID, request.StatusApproved, request.StatusExpired, now); err != nil {
				return err
			}
			return tx.Inventory.Restore(ctx, req.ServerID, req.GPUModelID, req.Quantity)
		})
		if errors.Is(err, repository.ErrStatusConflict) {
			continue
		}
		if err != nil {
			return expired, fmt.Errorf("expire request %d: %w", req.ID, err)
		}
		req.Status = request.StatusExpired
		req.UpdatedAt = now
		expired = append(expired, req)
	}
	return expired, nil
}
