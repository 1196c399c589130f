package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/linskybing/gpu-portal/internal/domain/inventory"
	"github.com/linskybing/gpu-portal/internal/domain/request"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/internal/repository/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var fixedNow = time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// --------------------- Setup ---------------------
func setupRequestServiceMocks(t *testing.T) (*RequestService, *mock.MockInventoryRepo, *mock.MockRequestRepo) {
	ctrl := gomock.NewController(t)
	t.Cleanup(func() { ctrl.Finish() })

	mockInventory := mock.NewMockInventoryRepo(ctrl)
	mockRequest := mock.NewMockRequestRepo(ctrl)
	repos := &repository.Repos{
		Inventory: mockInventory,
		Request:   mockRequest,
	}
	svc := NewRequestService(repos, fixedClock)
	return svc, mockInventory, mockRequest
}

func validDTO() request.CreateRequestDTO {
	return request.CreateRequestDTO{
		ServerID:           1,
		GPUModelID:         2,
		Quantity:           2,
		ProjectName:        "LLM fine-tuning",
		ProjectDescription: "Fine-tune a 7B model",
		DurationDays:       "7",
		AgreedToTerms:      true,
	}
}

func stockRow(available int) inventory.ServerGPU {
	return inventory.ServerGPU{
		ServerID:       1,
		GPUModelID:     2,
		TotalCount:     8,
		AvailableCount: available,
		Server:         inventory.Rack{ID: 1, Name: "gpu-node-01"},
		GPUModel:       inventory.GPUModel{ID: 2, Name: "A100"},
	}
}

// --------------------- Submit ---------------------
func TestSubmit_Success(t *testing.T) {
	svc, mockInventory, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()

	mockInventory.EXPECT().Get(ctx, uint(1), uint(2)).Return(stockRow(5), nil)
	mockInventory.EXPECT().Decrement(ctx, uint(1), uint(2), 2).Return(nil)
	mockRequest.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, r *request.ResourceRequest) error {
		r.ID = 11
		return nil
	})

	req, err := svc.Submit(ctx, "u1", validDTO())
	require.NoError(t, err)
	assert.Equal(t, uint(11), req.ID)
	assert.Equal(t, request.StatusPending, req.Status)
	assert.Equal(t, fixedNow, req.StartDate)
	assert.Equal(t, fixedNow.AddDate(0, 0, 7), req.EndDate)
	assert.Equal(t, 7, req.DurationDays)
	assert.Equal(t, "gpu-node-01", req.Server.Name)
}

func TestSubmit_NotLoggedIn(t *testing.T) {
	svc, _, _ := setupRequestServiceMocks(t)
	_, err := svc.Submit(context.Background(), "", validDTO())
	assert.Equal(t, ErrNotLoggedIn, err)
	assert.Equal(t, "Please login first", err.Error())
}

func TestSubmit_InvalidDurationMakesNoStoreCall(t *testing.T) {
	svc, _, _ := setupRequestServiceMocks(t)

	for _, raw := range []request.DurationInput{"0", "31", "abc", ""} {
		dto := validDTO()
		dto.DurationDays = raw
		_, err := svc.Submit(context.Background(), "u1", dto)
		var vErr *request.ValidationError
		require.True(t, errors.As(err, &vErr), "duration %q", raw)
		assert.Equal(t, "Duration must be between 1 and 30 days", vErr.Message)
	}
}

func TestSubmit_QuantityAboveAvailable(t *testing.T) {
	svc, mockInventory, _ := setupRequestServiceMocks(t)
	ctx := context.Background()

	mockInventory.EXPECT().Get(ctx, uint(1), uint(2)).Return(stockRow(1), nil)

	_, err := svc.Submit(ctx, "u1", validDTO())
	assert.Equal(t, ErrQuantityExceedsAvailable, err)
}

func TestSubmit_UnknownPair(t *testing.T) {
	svc, mockInventory, _ := setupRequestServiceMocks(t)
	ctx := context.Background()

	mockInventory.EXPECT().Get(ctx, uint(1), uint(2)).Return(inventory.ServerGPU{}, gorm.ErrRecordNotFound)

	_, err := svc.Submit(ctx, "u1", validDTO())
	assert.Equal(t, ErrQuantityExceedsAvailable, err)
}

func TestSubmit_ExhaustedConcurrently(t *testing.T) {
	svc, mockInventory, _ := setupRequestServiceMocks(t)
	ctx := context.Background()

	mockInventory.EXPECT().Get(ctx, uint(1), uint(2)).Return(stockRow(2), nil)
	mockInventory.EXPECT().Decrement(ctx, uint(1), uint(2), 2).Return(repository.ErrInsufficientGPUs)

	_, err := svc.Submit(ctx, "u1", validDTO())
	assert.ErrorIs(t, err, ErrSubmitFailed)
	assert.ErrorIs(t, err, repository.ErrInsufficientGPUs)
}

// --------------------- Withdraw ---------------------
func TestWithdraw_CancelPending(t *testing.T) {
	svc, mockInventory, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()
	req := request.ResourceRequest{ID: 5, UserID: "u1", ServerID: 1, GPUModelID: 2, Quantity: 3, Status: request.StatusPending}

	mockRequest.EXPECT().GetByID(ctx, uint(5)).Return(req, nil)
	mockRequest.EXPECT().DeleteOwned(ctx, uint(5), "u1", request.StatusPending).Return(nil)
	mockInventory.EXPECT().Restore(ctx, uint(1), uint(2), 3).Return(nil)

	_, action, err := svc.Withdraw(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, request.ActionCancel, action)
}

func TestWithdraw_ReturnApproved(t *testing.T) {
	svc, mockInventory, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()
	req := request.ResourceRequest{ID: 5, UserID: "u1", ServerID: 1, GPUModelID: 2, Quantity: 1, Status: request.StatusApproved}

	mockRequest.EXPECT().GetByID(ctx, uint(5)).Return(req, nil)
	mockRequest.EXPECT().DeleteOwned(ctx, uint(5), "u1", request.StatusApproved).Return(nil)
	mockInventory.EXPECT().Restore(ctx, uint(1), uint(2), 1).Return(nil)

	_, action, err := svc.Withdraw(ctx, "u1", 5)
	require.NoError(t, err)
	assert.Equal(t, request.ActionReturn, action)
}

func TestWithdraw_Rejections(t *testing.T) {
	svc, _, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()

	mockRequest.EXPECT().GetByID(ctx, uint(1)).Return(request.ResourceRequest{ID: 1, UserID: "u1", Status: request.StatusDenied}, nil)
	_, _, err := svc.Withdraw(ctx, "u1", 1)
	assert.Equal(t, ErrNotRemovable, err)

	mockRequest.EXPECT().GetByID(ctx, uint(2)).Return(request.ResourceRequest{ID: 2, UserID: "someone", Status: request.StatusPending}, nil)
	_, _, err = svc.Withdraw(ctx, "u1", 2)
	assert.Equal(t, ErrRequestNotFound, err)

	mockRequest.EXPECT().GetByID(ctx, uint(3)).Return(request.ResourceRequest{}, gorm.ErrRecordNotFound)
	_, _, err = svc.Withdraw(ctx, "u1", 3)
	assert.Equal(t, ErrRequestNotFound, err)
}

func TestWithdraw_AlreadyDeleted(t *testing.T) {
	svc, _, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()
	req := request.ResourceRequest{ID: 5, UserID: "u1", Status: request.StatusPending}

	mockRequest.EXPECT().GetByID(ctx, uint(5)).Return(req, nil)
	mockRequest.EXPECT().DeleteOwned(ctx, uint(5), "u1", request.StatusPending).Return(gorm.ErrRecordNotFound)

	_, _, err := svc.Withdraw(ctx, "u1", 5)
	assert.Equal(t, ErrRequestNotFound, err)
}

// --------------------- Process ---------------------
func TestProcess_DenyRestoresInventory(t *testing.T) {
	svc, mockInventory, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()
	req := request.ResourceRequest{ID: 9, UserID: "u1", ServerID: 1, GPUModelID: 2, Quantity: 2, Status: request.StatusPending}

	mockRequest.EXPECT().GetByID(ctx, uint(9)).Return(req, nil)
	mockRequest.EXPECT().UpdateStatus(ctx, uint(9), request.StatusPending, request.StatusDenied, fixedNow).Return(nil)
	mockInventory.EXPECT().Restore(ctx, uint(1), uint(2), 2).Return(nil)

	got, from, err := svc.Process(ctx, 9, request.StatusDenied)
	require.NoError(t, err)
	assert.Equal(t, request.StatusPending, from)
	assert.Equal(t, request.StatusDenied, got.Status)
	assert.Equal(t, fixedNow, got.UpdatedAt)
}

func TestProcess_Approve(t *testing.T) {
	svc, _, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()

	mockRequest.EXPECT().GetByID(ctx, uint(9)).Return(request.ResourceRequest{ID: 9, Status: request.StatusPending}, nil)
	mockRequest.EXPECT().UpdateStatus(ctx, uint(9), request.StatusPending, request.StatusApproved, fixedNow).Return(nil)

	got, _, err := svc.Process(ctx, 9, request.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, request.StatusApproved, got.Status)
}

func TestProcess_InvalidTransitions(t *testing.T) {
	svc, _, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()

	_, _, err := svc.Process(ctx, 9, request.StatusExpired)
	assert.Equal(t, ErrInvalidTransition, err)

	mockRequest.EXPECT().GetByID(ctx, uint(9)).Return(request.ResourceRequest{ID: 9, Status: request.StatusApproved}, nil)
	_, _, err = svc.Process(ctx, 9, request.StatusDenied)
	assert.Equal(t, ErrInvalidTransition, err)

	mockRequest.EXPECT().GetByID(ctx, uint(10)).Return(request.ResourceRequest{ID: 10, Status: request.StatusPending}, nil)
	mockRequest.EXPECT().UpdateStatus(ctx, uint(10), request.StatusPending, request.StatusApproved, fixedNow).Return(repository.ErrStatusConflict)
	_, _, err = svc.Process(ctx, 10, request.StatusApproved)
	assert.Equal(t, ErrInvalidTransition, err)
}

// --------------------- ExpireOverdue ---------------------
func TestExpireOverdue(t *testing.T) {
	svc, mockInventory, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()
	overdue := []request.ResourceRequest{
		{ID: 1, ServerID: 1, GPUModelID: 2, Quantity: 2, Status: request.StatusApproved},
		{ID: 2, ServerID: 1, GPUModelID: 2, Quantity: 1, Status: request.StatusApproved},
	}

	mockRequest.EXPECT().ListExpired(ctx, fixedNow).Return(overdue, nil)
	mockRequest.EXPECT().UpdateStatus(ctx, uint(1), request.StatusApproved, request.StatusExpired, fixedNow).Return(nil)
	mockInventory.EXPECT().Restore(ctx, uint(1), uint(2), 2).Return(nil)
	mockRequest.EXPECT().UpdateStatus(ctx, uint(2), request.StatusApproved, request.StatusExpired, fixedNow).Return(repository.ErrStatusConflict)

	expired, err := svc.ExpireOverdue(ctx)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, uint(1), expired[0].ID)
	assert.Equal(t, request.StatusExpired, expired[0].Status)
	assert.Equal(t, fixedNow, expired[0].UpdatedAt)
}

// --------------------- History ---------------------
func TestHistory_Views(t *testing.T) {
	svc, _, mockRequest := setupRequestServiceMocks(t)
	ctx := context.Background()
	ip := "10.0.0.5"
	reqs := []request.ResourceRequest{
		{ID: 2, Status: request.StatusApproved, EndDate: fixedNow.Add(36 * time.Hour), Server: inventory.Rack{IPAddress: &ip, SSHUsername: "lab", SSHPort: 2222}},
		{ID: 1, Status: request.StatusDenied, EndDate: fixedNow.Add(-time.Hour)},
	}
	mockRequest.EXPECT().ListByUser(ctx, "u1", 0).Return(reqs, nil)

	views, err := svc.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "2 days remaining", views[0].RemainingLabel)
	assert.True(t, views[0].ExpiringSoon)
	assert.Equal(t, "ssh lab@10.0.0.5 -p 2222", views[0].SSHCommand)
	assert.Equal(t, "Expired", views[1].RemainingLabel)
	assert.Equal(t, "Denied", views[1].Display.Label)
}
