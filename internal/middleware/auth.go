package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/command_pilot/internal/models"
	jwthelp "github.com/Skotchmaster/command_pilot/pkg/jwt"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
	"github.com/Skotchmaster/command_pilot/pkg/tokens"
)

const (
	CtxUser   = "user"
	CtxUserID = "user_id"
)

type UserFinder interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type Auth struct {
	Secret []byte
	Users  UserFinder
}

func NewAuth(secret []byte, users UserFinder) *Auth {
	return &Auth{Secret: secret, Users: users}
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(h, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
}

// sessionToken prefers the session cookie over the Authorization header.
func sessionToken(c echo.Context) string {
	if ck, err := c.Cookie(jwthelp.SessionCookie); err == nil && ck.Value != "" {
		return ck.Value
	}
	return bearerToken(c)
}

func (m *Auth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		l := logging.FromContext(ctx).With("mw", "require_auth")

		raw := sessionToken(c)
		if raw == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not authenticated"})
		}

		claims, err := tokens.SessionClaimsFromToken(raw, m.Secret)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "error", err)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not authenticated"})
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			l.Warn("auth_failed", "status", 401, "reason", "bad subject", "error", err)
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "User not authenticated"})
		}

		user, err := m.Users.GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				l.Warn("auth_failed", "status", 404, "reason", "user not found", "user_id", userID)
				return c.JSON(http.StatusNotFound, echo.Map{"error": "User not found"})
			}
			l.Error("auth_failed", "status", 500, "error", err)
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Internal server error"})
		}

		c.Set(CtxUser, user)
		c.Set(CtxUserID, user.ID)
		return next(c)
	}
}

// OptionalAuth attaches the user when a valid bearer token is present and
// otherwise lets the request through untouched.
func (m *Auth) OptionalAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := bearerToken(c)
		if raw == "" {
			return next(c)
		}
		claims, err := tokens.SessionClaimsFromToken(raw, m.Secret)
		if err != nil {
			return next(c)
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			return next(c)
		}
		if user, err := m.Users.GetUserByID(c.Request().Context(), userID); err == nil {
			c.Set(CtxUser, user)
			c.Set(CtxUserID, user.ID)
		}
		return next(c)
	}
}

func UserFrom(c echo.Context) (*models.User, bool) {
	u, ok := c.Get(CtxUser).(*models.User)
	return u, ok && u != nil
}
