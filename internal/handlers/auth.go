package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/amalieborg/bridal-crm/internal/auth"
	apperrors "github.com/amalieborg/bridal-crm/internal/errors"
	"github.com/amalieborg/bridal-crm/internal/ratelimit"
)

type login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type sessionResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int64  `json:"expiresIn"`
	Email       string `json:"email"`
}

type throttledResponse struct {
	Error   string    `json:"error"`
	ResetAt time.Time `json:"resetAt"`
}

// AuthHandler fronts the hosted identity service, gated by the login
// throttle.
type AuthHandler struct {
	authClient *auth.Client
	throttle   *ratelimit.Throttle
}

func NewAuthHandler(authClient *auth.Client, throttle *ratelimit.Throttle) *AuthHandler {
	return &AuthHandler{authClient: authClient, throttle: throttle}
}

// Login verifies credentials against the identity service. Attempts are
// counted per lowercased email; a saturated window is reported with its
// concrete reset time.
func (h *AuthHandler) Login(c echo.Context) error {
	var lgn login
	if err := c.Bind(&lgn); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := c.Validate(&lgn); err != nil {
		return err
	}

	identifier := strings.ToLower(lgn.Email)
	res := h.throttle.Check(identifier)
	if !res.Allowed {
		apperrors.LogSecurityEvent("login rate limit exceeded", logrus.Fields{
			"identifier": identifier,
			"resetAt":    res.ResetAt,
		})
		rlErr := apperrors.NewRateLimitError(identifier, res.ResetAt)
		return c.JSON(http.StatusTooManyRequests, &throttledResponse{
			Error:   apperrors.Sanitize(rlErr),
			ResetAt: res.ResetAt,
		})
	}

	session, err := h.authClient.SignIn(c.Request().Context(), lgn.Email, lgn.Password)
	if err != nil {
		apperrors.LogSecurityEvent("login rejected", logrus.Fields{
			"identifier":        identifier,
			"remainingAttempts": res.RemainingAttempts,
		})
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: apperrors.Sanitize(err)})
	}

	h.throttle.Reset(identifier)

	return c.JSON(http.StatusOK, &sessionResponse{
		AccessToken: session.AccessToken,
		ExpiresIn:   session.ExpiresIn,
		Email:       session.User.Email,
	})
}

// Logout revokes the current session at the identity service.
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authClient.SignOut(c.Request().Context()); err != nil {
		return c.JSON(http.StatusBadGateway, errorResponse{Error: apperrors.Sanitize(err)})
	}
	return c.NoContent(http.StatusNoContent)
}

// Session looks the current session's user up.
func (h *AuthHandler) Session(c echo.Context) error {
	user, err := h.authClient.CurrentUser(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errorResponse{Error: apperrors.Sanitize(err)})
	}
	return c.JSON(http.StatusOK, user)
}
