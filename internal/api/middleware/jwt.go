package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/linskybing/gpu-portal/internal/identity"
	"github.com/linskybing/gpu-portal/pkg/response"
)

// TokenCookie carries the session token for browser clients.
const TokenCookie = "token"

// TokenFromRequest reads the Bearer token from the Authorization header,
// falling back to the token cookie.
func TokenFromRequest(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", errors.New("Authorization header format must be Bearer {token}")
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie, nil
	}
	// Browsers cannot set headers on a websocket handshake.
	if token := c.Query("token"); token != "" && strings.EqualFold(c.GetHeader("Upgrade"), "websocket") {
		return token, nil
	}
	return "", errors.New("Authorization required (header or cookie)")
}

// JWTAuthMiddleware validates the session with the identity gateway and
// stores its claims under "claims".
func JWTAuthMiddleware(gw identity.Gateway) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := TokenFromRequest(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: err.Error()})
			return
		}

		claims, err := gw.ParseSession(c.Request.Context(), tokenStr)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrExpiredToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: "token expired"})
			case errors.Is(err, identity.ErrSessionRevoked):
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: err.Error()})
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: "Invalid token: " + err.Error()})
			}
			return
		}

		c.Set("claims", claims)
		c.Next()
	}
}
