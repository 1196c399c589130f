package application

import (
	"context"
	"errors"
	"strings"

	"github.com/linskybing/gpu-portal/internal/config"
	"github.com/linskybing/gpu-portal/internal/domain/user"
	"github.com/linskybing/gpu-portal/internal/identity"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/pkg/types"
	log "github.com/sirupsen/logrus"
)

var ErrPasswordMismatch = errors.New("Passwords do not match")

// LoginResult is an opened session plus the directory record behind it.
type LoginResult struct {
	Session identity.Session
	User    user.User
}

// CallbackResult is either a session for a known user or a pending token for
// a first-time OAuth user who still has to complete registration.
type CallbackResult struct {
	Login        *LoginResult
	PendingToken string
	Profile      identity.Profile
}

type AuthService struct {
	Repos   *repository.Repos
	Gateway identity.Gateway
}

func NewAuthService(repos *repository.Repos, gw identity.Gateway) *AuthService {
	return &AuthService{
		Repos:   repos,
		Gateway: gw,
	}
}

func (s *AuthService) Register(ctx context.Context, in user.RegisterInput) (user.User, error) {
	profile, err := s.Gateway.SignUp(ctx, in.Email, in.Password)
	if err != nil {
		return user.User{}, err
	}
	u := user.User{
		ID:         profile.Subject,
		Email:      profile.Email,
		Name:       strings.TrimSpace(in.Name),
		Department: strings.TrimSpace(in.Department),
		StudentID:  strings.TrimSpace(in.StudentID),
		Provider:   user.ProviderPassword,
	}
	if err := s.Repos.User.Create(ctx, &u); err != nil {
		// Credentials must not outlive a failed directory insert.
		if derr := s.Gateway.DeleteAccount(ctx, profile.Subject); derr != nil {
			log.WithError(derr).WithField("user_id", profile.Subject).Error("failed to roll back identity after registration error")
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return user.User{}, identity.ErrEmailTaken
		}
		return user.User{}, err
	}
	log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, in user.LoginInput) (LoginResult, error) {
	profile, err := s.Gateway.SignInWithPassword(ctx, in.Email, in.Password)
	if err != nil {
		return LoginResult{}, err
	}
	u, err := s.Repos.User.GetByID(ctx, profile.Subject)
	if err != nil {
		if repository.IsNotFound(err) {
			return LoginResult{}, ErrUserNotFound
		}
		return LoginResult{}, err
	}
	return s.openSession(ctx, u)
}

func (s *AuthService) openSession(ctx context.Context, u user.User) (LoginResult, error) {
	sess, err := s.Gateway.IssueSession(ctx, identity.Subject{
		UserID:  u.ID,
		Email:   u.Email,
		Name:    u.Name,
		IsAdmin: u.IsAdmin || config.IsAdminEmail(u.Email),
	})
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Session: sess, User: u}, nil
}

func (s *AuthService) OAuthStart(state string) (string, error) {
	return s.Gateway.OAuthRedirectURL(state)
}

func (s *AuthService) OAuthCallback(ctx context.Context, code string) (CallbackResult, error) {
	profile, err := s.Gateway.ExchangeCode(ctx, code)
	if err != nil {
		return CallbackResult{}, err
	}

	u, err := s.Repos.User.GetByEmail(ctx, profile.Email)
	switch {
	case err == nil:
		login, err := s.openSession(ctx, u)
		if err != nil {
			return CallbackResult{}, err
		}
		return CallbackResult{Login: &login, Profile: profile}, nil
	case repository.IsNotFound(err):
		token, err := s.Gateway.IssuePendingToken(profile)
		if err != nil {
			return CallbackResult{}, err
		}
		return CallbackResult{PendingToken: token, Profile: profile}, nil
	default:
		return CallbackResult{}, err
	}
}

// CompleteRegistration creates the directory record for a first-time OAuth
// user and opens their session.
func (s *AuthService) CompleteRegistration(ctx context.Context, in user.CompleteRegistrationInput) (LoginResult, error) {
	profile, err := s.Gateway.ParsePendingToken(in.Token)
	if err != nil {
		return LoginResult{}, err
	}
	u := user.User{
		ID:         profile.Subject,
		Email:      profile.Email,
		Name:       strings.TrimSpace(in.Name),
		Department: strings.TrimSpace(in.Department),
		StudentID:  strings.TrimSpace(in.StudentID),
		Provider:   user.ProviderGithub,
	}
	if err := s.Repos.User.Create(ctx, &u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return LoginResult{}, identity.ErrEmailTaken
		}
		return LoginResult{}, err
	}
	return s.openSession(ctx, u)
}

func (s *AuthService) Logout(ctx context.Context, claims *types.Claims) error {
	return s.Gateway.SignOut(ctx, claims)
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	return s.Gateway.RequestPasswordReset(ctx, email, strings.TrimRight(config.FrontendURL, "/")+"/auth/reset-password")
}

func (s *AuthService) ResetPassword(ctx context.Context, in user.ResetPasswordInput) error {
	if in.Password != in.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return s.Gateway.ConfirmPasswordReset(ctx, in.Token, in.Password)
}
