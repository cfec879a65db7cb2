package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/amalieborg/bridal-crm/internal/auth"
	"github.com/amalieborg/bridal-crm/internal/session"
)

// ContextKeyEmail is where the authorize middleware stores the verified
// subject for downstream handlers.
const ContextKeyEmail = "authEmail"

// Authorize verifies the bearer token on every request and records it as
// session activity on the guard.
func Authorize(validator *auth.TokenValidator, guard *session.Guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHdr := c.Request().Header.Get("Authorization")
			hdrSplit := strings.Split(authHdr, " ")
			if len(hdrSplit) != 2 || !strings.EqualFold(hdrSplit[0], "Bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid Authorization header format")
			}

			claims, err := validator.Verify(hdrSplit[1])
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			if guard != nil {
				if guard.State() == session.Expired {
					return echo.NewHTTPError(http.StatusUnauthorized, "session expired, please sign in again")
				}
				guard.Touch()
			}

			c.Set(ContextKeyEmail, claims.Subject)
			return next(c)
		}
	}
}
