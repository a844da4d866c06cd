package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// AuthMiddleware checks a shared operator bearer token.
type AuthMiddleware struct {
	token []byte
}

// NewAuthMiddleware returns nil when token is empty; routes are then left open.
func NewAuthMiddleware(token string) *AuthMiddleware {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	return &AuthMiddleware{token: []byte(token)}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return c.JSON(http.StatusUnauthorized, map[string]map[string]string{
				"error": {"code": "unauthorized", "message": "missing bearer token"},
			})
		}
		tokenStr := strings.TrimPrefix(authz, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(tokenStr), m.token) != 1 {
			return c.JSON(http.StatusUnauthorized, map[string]map[string]string{
				"error": {"code": "invalid_token", "message": "invalid bearer token"},
			})
		}
		return next(c)
	}
}
