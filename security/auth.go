package security

import (
	"net/http"

	"github.com/labstack/echo/v5"
	"golang.org/x/crypto/bcrypt"
)

// ManageChannelsAuth gates routes that mutate ticket membership or state.
// The caller presents the shared manage key in X-Api-Key; the configured
// value is a bcrypt hash so the key itself never sits in the environment.
// An empty hash disables the check (local development).
func ManageChannelsAuth(keyHash string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if keyHash == "" {
				return next(c)
			}

			key := c.Request().Header.Get("X-Api-Key")
			if key == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error": "Missing API key",
				})
			}
			if err := bcrypt.CompareHashAndPassword([]byte(keyHash), []byte(key)); err != nil {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "Access denied",
				})
			}
			return next(c)
		}
	}
}
