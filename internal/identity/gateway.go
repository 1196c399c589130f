package identity

import (
	"context"
	"errors"
	"time"

	"github.com/linskybing/gpu-portal/pkg/types"
)

var (
	ErrInvalidCredentials = errors.New("Invalid login credentials")
	ErrEmailTaken         = errors.New("User already registered")
	ErrWeakPassword       = errors.New("Password should be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token expired")
	ErrSessionRevoked     = errors.New("session has been signed out")
	ErrOAuthNotConfigured = errors.New("github sign-in is not configured")
	ErrOAuthFailed        = errors.New("github sign-in failed")
)

const MinPasswordLength = 6

// Profile is what the gateway knows about an authenticated subject.
type Profile struct {
	Subject  string `json:"id"`
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Provider string `json:"provider"`
}

// Subject carries the directory data embedded in a session token.
type Subject struct {
	UserID  string
	Email   string
	Name    string
	IsAdmin bool
}

type Session struct {
	Token     string
	Claims    *types.Claims
	ExpiresAt time.Time
}

type EventKind string

const (
	SignedIn  EventKind = "SIGNED_IN"
	SignedOut EventKind = "SIGNED_OUT"
)

type Event struct {
	Kind      EventKind
	UserID    string
	SessionID string
}

// Gateway is the authentication boundary. Application services only talk to
// this interface.
type Gateway interface {
	SignUp(ctx context.Context, email, password string) (Profile, error)
	// DeleteAccount removes credentials created by SignUp when the caller
	// could not finish registering the subject.
	DeleteAccount(ctx context.Context, subjectID string) error
	SignInWithPassword(ctx context.Context, email, password string) (Profile, error)

	OAuthRedirectURL(state string) (string, error)
	ExchangeCode(ctx context.Context, code string) (Profile, error)

	IssueSession(ctx context.Context, subject Subject) (Session, error)
	ParseSession(ctx context.Context, token string) (*types.Claims, error)
	SignOut(ctx context.Context, claims *types.Claims) error

	UpdatePassword(ctx context.Context, subjectID, password string) error
	RequestPasswordReset(ctx context.Context, email, resetURL string) error
	ConfirmPasswordReset(ctx context.Context, token, password string) error

	// Pending tokens carry an OAuth profile between the callback and the
	// registration completion form.
	IssuePendingToken(p Profile) (string, error)
	ParsePendingToken(token string) (Profile, error)

	Subscribe(fn func(Event)) (unsubscribe func())
}

// Mailer delivers HTML mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}
