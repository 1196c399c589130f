package identity

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/linskybing/gpu-portal/internal/domain/user"
	"github.com/linskybing/gpu-portal/internal/repository"
	"github.com/linskybing/gpu-portal/pkg/types"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

type Options struct {
	Secret     string
	Issuer     string
	SessionTTL time.Duration
	ResetTTL   time.Duration
	PendingTTL time.Duration

	OAuth    *oauth2.Config
	Profiles ProfileFetcher
	Revoker  Revoker
	Mailer   Mailer
	Now      func() time.Time
}

// LocalGateway keeps credentials in the portal database and signs its own
// HS256 session tokens.
type LocalGateway struct {
	identities repository.IdentityRepo
	opts       Options
	tokens     signer

	mu          sync.RWMutex
	nextID      int
	subscribers map[int]func(Event)
}

func NewLocalGateway(identities repository.IdentityRepo, opts Options) *LocalGateway {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.PendingTTL <= 0 {
		opts.PendingTTL = 15 * time.Minute
	}
	if opts.Revoker == nil {
		opts.Revoker = NewMemoryRevoker()
	}
	if opts.Profiles == nil {
		opts.Profiles = GithubProfiles{}
	}
	return &LocalGateway{
		identities:  identities,
		opts:        opts,
		tokens:      signer{key: []byte(opts.Secret), issuer: opts.Issuer, now: opts.Now},
		subscribers: make(map[int]func(Event)),
	}
}

func (g *LocalGateway) SignUp(ctx context.Context, email, password string) (Profile, error) {
	email = normalizeEmail(email)
	if len(password) < MinPasswordLength {
		return Profile{}, ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Profile{}, err
	}

	ident := &user.Identity{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hashed),
		Provider:     user.ProviderPassword,
	}
	if err := g.identities.Create(ctx, ident); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return Profile{}, ErrEmailTaken
		}
		return Profile{}, err
	}
	return Profile{Subject: ident.ID, Email: ident.Email, Provider: ident.Provider}, nil
}

func (g *LocalGateway) DeleteAccount(ctx context.Context, subjectID string) error {
	return g.identities.Delete(ctx, subjectID)
}

func (g *LocalGateway) SignInWithPassword(ctx context.Context, email, password string) (Profile, error) {
	ident, err := g.identities.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, err
	}
	if ident.PasswordHash == "" {
		return Profile{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(ident.PasswordHash), []byte(password)); err != nil {
		return Profile{}, ErrInvalidCredentials
	}
	return Profile{Subject: ident.ID, Email: ident.Email, Provider: ident.Provider}, nil
}

func (g *LocalGateway) OAuthRedirectURL(state string) (string, error) {
	if g.opts.OAuth == nil {
		return "", ErrOAuthNotConfigured
	}
	return g.opts.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline), nil
}

// ExchangeCode finishes the provider flow. A first-time email gets a new
// identity; an existing one is linked to the provider account.
func (g *LocalGateway) ExchangeCode(ctx context.Context, code string) (Profile, error) {
	if g.opts.OAuth == nil {
		return Profile{}, ErrOAuthNotConfigured
	}
	token, err := g.opts.OAuth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrOAuthFailed, err)
	}
	ext, err := g.opts.Profiles.Fetch(ctx, g.opts.OAuth, token)
	if err != nil {
		return Profile{}, err
	}

	email := normalizeEmail(ext.Email)
	ident, err := g.identities.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if ident.ExternalID == "" {
			if err := g.identities.LinkExternal(ctx, ident.ID, ext.ExternalID); err != nil {
				return Profile{}, err
			}
		}
	case repository.IsNotFound(err):
		ident = user.Identity{
			ID:         uuid.NewString(),
			Email:      email,
			Provider:   user.ProviderGithub,
			ExternalID: ext.ExternalID,
		}
		if err := g.identities.Create(ctx, &ident); err != nil {
			return Profile{}, err
		}
	default:
		return Profile{}, err
	}

	return Profile{
		Subject:  ident.ID,
		Email:    ident.Email,
		Name:     ext.Name,
		Provider: user.ProviderGithub,
	}, nil
}

func (g *LocalGateway) IssueSession(_ context.Context, subject Subject) (Session, error) {
	claims := &types.Claims{
		UserID:  subject.UserID,
		Email:   subject.Email,
		Name:    subject.Name,
		IsAdmin: subject.IsAdmin,
		Purpose: types.PurposeSession,
	}
	signed, expiresAt, err := g.tokens.sign(claims, g.opts.SessionTTL)
	if err != nil {
		return Session{}, err
	}
	g.publish(Event{Kind: SignedIn, UserID: subject.UserID, SessionID: claims.ID})
	return Session{Token: signed, Claims: claims, ExpiresAt: expiresAt}, nil
}

func (g *LocalGateway) ParseSession(ctx context.Context, token string) (*types.Claims, error) {
	claims, err := g.tokens.parse(token, types.PurposeSession)
	if err != nil {
		return nil, err
	}
	revoked, err := g.opts.Revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrSessionRevoked
	}
	return claims, nil
}

func (g *LocalGateway) SignOut(ctx context.Context, claims *types.Claims) error {
	if claims == nil {
		return ErrInvalidToken
	}
	until := g.opts.Now().Add(g.opts.SessionTTL)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}
	if err := g.opts.Revoker.Revoke(ctx, claims.ID, until); err != nil {
		return err
	}
	g.publish(Event{Kind: SignedOut, UserID: claims.UserID, SessionID: claims.ID})
	return nil
}

func (g *LocalGateway) UpdatePassword(ctx context.Context, subjectID, password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return g.identities.UpdatePassword(ctx, subjectID, string(hashed))
}

// RequestPasswordReset mails a reset link. Unknown addresses succeed silently.
func (g *LocalGateway) RequestPasswordReset(ctx context.Context, email, resetURL string) error {
	ident, err := g.identities.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if repository.IsNotFound(err) {
			log.WithField("email", email).Debug("password reset for unknown email")
			return nil
		}
		return err
	}

	claims := &types.Claims{UserID: ident.ID, Email: ident.Email, Purpose: types.PurposeReset}
	signed, _, err := g.tokens.sign(claims, g.opts.ResetTTL)
	if err != nil {
		return err
	}
	if g.opts.Mailer == nil {
		log.WithField("email", ident.Email).Warn("no mailer configured, reset link not sent")
		return nil
	}

	link := resetURL
	if strings.Contains(link, "?") {
		link += "&token=" + url.QueryEscape(signed)
	} else {
		link += "?token=" + url.QueryEscape(signed)
	}
	body := fmt.Sprintf(
		`<p>A password reset was requested for your GPU portal account.</p>`+
			`<p><a href="%s">Reset your password</a></p>`+
			`<p>The link expires in %s. Ignore this email if you did not ask for it.</p>`,
		html.EscapeString(link), g.opts.ResetTTL)
	return g.opts.Mailer.Send(ctx, ident.Email, "Reset your password", body)
}

// ConfirmPasswordReset sets the new password. Each reset token works once.
func (g *LocalGateway) ConfirmPasswordReset(ctx context.Context, token, password string) error {
	claims, err := g.tokens.parse(token, types.PurposeReset)
	if err != nil {
		return err
	}
	used, err := g.opts.Revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if used {
		return ErrInvalidToken
	}
	if err := g.UpdatePassword(ctx, claims.UserID, password); err != nil {
		return err
	}
	return g.opts.Revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

func (g *LocalGateway) IssuePendingToken(p Profile) (string, error) {
	claims := &types.Claims{
		UserID:  p.Subject,
		Email:   p.Email,
		Name:    p.Name,
		Purpose: types.PurposePending,
	}
	signed, _, err := g.tokens.sign(claims, g.opts.PendingTTL)
	return signed, err
}

func (g *LocalGateway) ParsePendingToken(token string) (Profile, error) {
	claims, err := g.tokens.parse(token, types.PurposePending)
	if err != nil {
		return Profile{}, err
	}
	return Profile{
		Subject:  claims.UserID,
		Email:    claims.Email,
		Name:     claims.Name,
		Provider: user.ProviderGithub,
	}, nil
}

func (g *LocalGateway) Subscribe(fn func(Event)) func() {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.subscribers[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subscribers, id)
		g.mu.Unlock()
	}
}

func (g *LocalGateway) publish(ev Event) {
	g.mu.RLock()
	fns := make([]func(Event), 0, len(g.subscribers))
	for _, fn := range g.subscribers {
		fns = append(fns, fn)
	}
	g.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
