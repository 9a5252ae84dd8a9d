package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/schemawatch/schemawatch/internal/store"
)

type SessionUserReader interface {
	GetUserBySessionID(ctx context.Context, sessionID string) (*store.User, error)
}

type SessionCookieReader interface {
	GetSessionID(c echo.Context) (string, error)
}

// SessionMiddleware resolves the session cookie into a user and stores it on
// the request context. Requests without a valid session pass through with no
// user set; route-level middleware decides whether that is allowed.
func SessionMiddleware(
	userService SessionUserReader,
	cookieService SessionCookieReader,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sessionID, err := cookieService.GetSessionID(c)
			if err == nil && sessionID != "" {
				if u, err := userService.GetUserBySessionID(
					c.Request().Context(), sessionID,
				); err == nil {
					c.Set("user", u)
				}
			}
			return next(c)
		}
	}
}

func IsAuthenticated(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := getCtxUser(c)
		if user == nil {
			return newError(nil, http.StatusUnauthorized, "authentication required")
		}
		if user.PasswordChangedOn == nil || user.PasswordChangedOn.IsZero() {
			return newError(nil, http.StatusForbidden, "password must be changed before use")
		}
		return next(c)
	}
}

func RoleMiddleware(requiredRole store.Role) func(next echo.HandlerFunc) echo.HandlerFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			u := getCtxUser(c)
			if u == nil || int64(u.UserRoleID) < int64(requiredRole) {
				return newError(nil, http.StatusForbidden, "invalid permissions")
			}
			return next(c)
		}
	}
}
