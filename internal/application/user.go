package application

import (
	"context"
	"errors"
	"strings"

	"github.com/linskybing/gpu-portal/internal/domain/user"
	"github.com/linskybing/gpu-portal/internal/identity"
	"github.com/linskybing/gpu-portal/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	Repos   *repository.Repos
	Gateway identity.Gateway
}

func NewUserService(repos *repository.Repos, gw identity.Gateway) *UserService {
	return &UserService{
		Repos:   repos,
		Gateway: gw,
	}
}

func (s *UserService) Profile(ctx context.Context, id string) (user.User, error) {
	u, err := s.Repos.User.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return u, ErrUserNotFound
		}
		return u, err
	}
	return u, nil
}

// UpdateProfile returns the record before and after the change.
func (s *UserService) UpdateProfile(ctx context.Context, id string, input user.UpdateProfileInput) (user.User, user.User, error) {
	u, err := s.Profile(ctx, id)
	if err != nil {
		return u, u, err
	}
	old := u

	if input.Name != nil {
		u.Name = strings.TrimSpace(*input.Name)
	}
	if input.Department != nil {
		u.Department = strings.TrimSpace(*input.Department)
	}
	if input.StudentID != nil {
		u.StudentID = strings.TrimSpace(*input.StudentID)
	}

	if err := s.Repos.User.Save(ctx, &u); err != nil {
		return old, u, err
	}
	return old, u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id string, input user.ChangePasswordInput) error {
	if input.Password != input.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := s.Gateway.UpdatePassword(ctx, id, input.Password); err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}
