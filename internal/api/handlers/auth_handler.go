package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/linskybing/gpu-portal/internal/api/middleware"
	"github.com/linskybing/gpu-portal/internal/application"
	"github.com/linskybing/gpu-portal/internal/config"
	"github.com/linskybing/gpu-portal/internal/domain/user"
	"github.com/linskybing/gpu-portal/internal/identity"
	"github.com/linskybing/gpu-portal/pkg/response"
	"github.com/linskybing/gpu-portal/pkg/types"
	"github.com/linskybing/gpu-portal/pkg/utils"
	log "github.com/sirupsen/logrus"
)

const (
	stateCookie   = "oauth_state"
	pendingCookie = "pending_token"

	dashboardPath = "/dashboard"
)

type AuthHandler struct {
	svc *application.AuthService
}

func NewAuthHandler(svc *application.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

func frontend(path string, query url.Values) string {
	u := config.FrontendURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func setSessionCookie(c *gin.Context, sess identity.Session) {
	maxAge := int(time.Until(sess.ExpiresAt).Seconds())
	if maxAge <= 0 {
		maxAge = int(config.SessionTTL.Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.TokenCookie, sess.Token, maxAge, "/", "", config.IsProduction, true)
}

func clearCookie(c *gin.Context, name string) {
	c.SetCookie(name, "", -1, "/", "", config.IsProduction, true)
}

func tokenResponse(res application.LoginResult) response.TokenResponse {
	return response.TokenResponse{
		Token:    res.Session.Token,
		UserID:   res.User.ID,
		Email:    res.User.Email,
		Name:     res.User.Name,
		IsAdmin:  res.Session.Claims.IsAdmin,
		Redirect: dashboardPath,
	}
}

// Register godoc
// @Summary User registration
// @Tags auth
// @Accept json
// @Produce json
// @Param input body user.RegisterInput true "User registration info"
// @Success 201 {object} user.User
// @Failure 400 {object} response.ErrorResponse "Invalid input"
// @Failure 409 {object} response.ErrorResponse "User already registered"
// @Failure 500 {object} response.ErrorResponse "Failed to create user"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var input user.RegisterInput
	if !bind(c, &input) {
		return
	}

	u, err := h.svc.Register(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrEmailTaken):
			c.JSON(http.StatusConflict, response.ErrorResponse{Error: err.Error()})
		case errors.Is(err, identity.ErrWeakPassword):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		default:
			log.WithError(err).Error("registration failed")
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: "Failed to create user"})
		}
		return
	}

	c.JSON(http.StatusCreated, u)
}

// Login godoc
// @Summary User login
// @Description Signs in with email and password. The token is also set as an HttpOnly cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body user.LoginInput true "Credentials"
// @Success 200 {object} response.TokenResponse
// @Failure 400 {object} response.ErrorResponse "Invalid input"
// @Failure 401 {object} response.ErrorResponse "Invalid login credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var input user.LoginInput
	if !bind(c, &input) {
		return
	}

	res, err := h.svc.Login(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) || errors.Is(err, application.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: err.Error()})
			return
		}
		log.WithError(err).Error("login failed")
		c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: "Failed to sign in"})
		return
	}

	setSessionCookie(c, res.Session)
	c.JSON(http.StatusOK, tokenResponse(res))
}

// Logout godoc
// @Summary User logout
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.MessageResponse "Logout successful"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if claims, err := utils.GetClaimsFromContext(c); err == nil {
		if err := h.svc.Logout(c.Request.Context(), claims); err != nil {
			log.WithError(err).WithField("user_id", claims.UserID).Warn("failed to revoke session")
		}
	}
	clearCookie(c, middleware.TokenCookie)
	c.JSON(http.StatusOK, response.MessageResponse{Message: "Logout successful"})
}

// AuthStatus godoc
// @Summary Current session
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} types.Claims
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/status [get]
func (h *AuthHandler) AuthStatus(c *gin.Context) {
	claimsVal, _ := c.Get("claims")
	claims, ok := claimsVal.(*types.Claims)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: "Invalid token claims"})
		return
	}
	c.JSON(http.StatusOK, claims)
}

// GithubStart godoc
// @Summary Start GitHub sign-in
// @Tags auth
// @Success 307 "Redirect to GitHub"
// @Failure 503 {object} response.ErrorResponse "GitHub sign-in is not configured"
// @Router /auth/github [get]
func (h *AuthHandler) GithubStart(c *gin.Context) {
	state := uuid.NewString()
	target, err := h.svc.OAuthStart(state)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, response.ErrorResponse{Error: err.Error()})
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, 600, "/", "", config.IsProduction, true)
	c.Redirect(http.StatusTemporaryRedirect, target)
}

func loginError(c *gin.Context, msg string) {
	c.Redirect(http.StatusFound, frontend("/auth/login", url.Values{"error": {msg}}))
}

// GithubCallback godoc
// @Summary GitHub sign-in callback
// @Description Known users get a session and go to the dashboard. First-time users go to the registration completion page.
// @Tags auth
// @Param code query string true "Authorization code"
// @Param state query string true "State issued by /auth/github"
// @Success 302 "Redirect to the frontend"
// @Router /auth/callback [get]
func (h *AuthHandler) GithubCallback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		loginError(c, c.DefaultQuery("error_description", providerErr))
		return
	}
	state, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		loginError(c, "Invalid OAuth state")
		return
	}
	clearCookie(c, stateCookie)

	res, err := h.svc.OAuthCallback(c.Request.Context(), c.Query("code"))
	if err != nil {
		log.WithError(err).Warn("github callback failed")
		loginError(c, err.Error())
		return
	}

	if res.Login != nil {
		setSessionCookie(c, res.Login.Session)
		c.Redirect(http.StatusFound, frontend(dashboardPath, nil))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(pendingCookie, res.PendingToken, 900, "/", "", config.IsProduction, true)
	c.Redirect(http.StatusFound, frontend("/auth/github-complete", url.Values{
		"email": {res.Profile.Email},
		"id":    {res.Profile.Subject},
		"name":  {res.Profile.Name},
	}))
}

// GithubComplete godoc
// @Summary Finish GitHub registration
// @Description The pending token comes from the body or the cookie set by the callback.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body user.CompleteRegistrationInput true "Profile details"
// @Success 200 {object} response.TokenResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse "Invalid or expired pending token"
// @Failure 409 {object} response.ErrorResponse "User already registered"
// @Router /auth/github-complete [post]
func (h *AuthHandler) GithubComplete(c *gin.Context) {
	var input user.CompleteRegistrationInput
	if token, err := c.Cookie(pendingCookie); err == nil {
		input.Token = token
	}
	if !bind(c, &input) {
		return
	}

	res, err := h.svc.CompleteRegistration(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrInvalidToken), errors.Is(err, identity.ErrExpiredToken):
			c.JSON(http.StatusUnauthorized, response.ErrorResponse{Error: err.Error()})
		case errors.Is(err, identity.ErrEmailTaken):
			c.JSON(http.StatusConflict, response.ErrorResponse{Error: err.Error()})
		default:
			log.WithError(err).Error("github registration failed")
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: "Failed to create user"})
		}
		return
	}

	clearCookie(c, pendingCookie)
	setSessionCookie(c, res.Session)
	c.JSON(http.StatusOK, tokenResponse(res))
}

// ForgotPassword godoc
// @Summary Request a password reset link
// @Description Always answers 200 so callers cannot discover which emails are registered.
// @Tags auth
// @Accept json
// @Produce json
// @Param input body user.ForgotPasswordInput true "Email"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /auth/password/forgot [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var input user.ForgotPasswordInput
	if !bind(c, &input) {
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), input.Email); err != nil {
		log.WithError(err).Error("failed to send password reset mail")
	}
	c.JSON(http.StatusOK, response.MessageResponse{Message: "If the email is registered, a reset link has been sent."})
}

// ResetPassword godoc
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param input body user.ResetPasswordInput true "Token and new password"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Router /auth/password/reset [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input user.ResetPasswordInput
	if !bind(c, &input) {
		return
	}

	err := h.svc.ResetPassword(c.Request.Context(), input)
	if err != nil {
		switch {
		case errors.Is(err, application.ErrPasswordMismatch),
			errors.Is(err, identity.ErrWeakPassword),
			errors.Is(err, identity.ErrInvalidToken),
			errors.Is(err, identity.ErrExpiredToken):
			c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		default:
			log.WithError(err).Error("password reset failed")
			c.JSON(http.StatusInternalServerError, response.ErrorResponse{Error: "Failed to reset password"})
		}
		return
	}

	c.JSON(http.StatusOK, response.MessageResponse{Message: "Password reset successfully"})
}
