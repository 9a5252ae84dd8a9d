package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/schemawatch/schemawatch/internal/store"
)

type UserServicer interface {
	UserAuthServicer
	GetUserByID(ctx context.Context, userID int64) (*store.User, error)
	CreateUser(
		ctx context.Context,
		userRoleID store.Role,
		username, password string,
	) (*store.User, error)
	ListUsers(ctx context.Context) ([]*store.User, error)
	ChangeUserPassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	ResetUserPassword(ctx context.Context, userID int64, newPassword string) error
	DeleteUser(ctx context.Context, u *store.User) error
	UpdateUserRole(ctx context.Context, userID int64, role store.Role) error
}

func SetupUserRoutes(g *echo.Group, userService UserServicer) {
	h := NewUserHandler(userService)
	usersGroup := g.Group("/api/users", IsAuthenticated)
	usersGroup.GET("", h.GetUsers, RoleMiddleware(store.Admin))
	usersGroup.POST("", h.PostUser, RoleMiddleware(store.Admin))
	usersGroup.DELETE("/:user_id", h.DeleteUser, RoleMiddleware(store.Admin))
	usersGroup.PATCH("/:user_id/change-password", h.PatchChangeUserPassword)
	usersGroup.PATCH("/:user_id/reset-password", h.PatchResetUserPassword, RoleMiddleware(store.Admin))
	usersGroup.PATCH("/:user_id/role", h.PatchUserRole, RoleMiddleware(store.Superuser))
}

type UserHandler struct {
	userService UserServicer
}

func NewUserHandler(userService UserServicer) *UserHandler {
	return &UserHandler{userService}
}

func (h *UserHandler) GetUsers(c echo.Context) error {
	users, err := h.userService.ListUsers(c.Request().Context())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(err, http.StatusInternalServerError, "unable to list users")
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) PostUser(c echo.Context) error {
	up := new(UserParams)
	if err := c.Bind(up); err != nil {
		return newError(err, http.StatusBadRequest, "invalid user data")
	}

	if up.Username == "" || up.Password == "" {
		return newError(nil, http.StatusBadRequest, "username and password are required")
	}

	u, err := h.userService.CreateUser(
		c.Request().Context(),
		up.UserRoleID,
		up.Username,
		up.Password,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return newError(err,
				http.StatusConflict,
				fmt.Sprintf("a user with the username %s already exists", up.Username),
			)
		}
		return newError(err, http.StatusInternalServerError, "unable to create user")
	}

	return c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) DeleteUser(c echo.Context) error {
	up := new(UserParams)
	if err := c.Bind(up); err != nil {
		return newError(err, http.StatusBadRequest, "invalid user data")
	}

	u, err := h.userService.GetUserByID(c.Request().Context(), up.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "user not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to delete user")
	}

	if u.IsSuperuser() {
		return newError(nil, http.StatusForbidden, "superuser cannot be deleted")
	}

	if err := h.userService.DeleteUser(c.Request().Context(), u); err != nil {
		return newError(err, http.StatusInternalServerError, "unable to delete user")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) PatchChangeUserPassword(c echo.Context) error {
	pup := new(PatchUserPasswordParams)
	if err := c.Bind(pup); err != nil {
		return newError(err, http.StatusBadRequest, "invalid user data")
	}

	u := getCtxUser(c)
	if u.UserID != pup.UserID {
		return newError(nil, http.StatusForbidden, "cannot change another user's password")
	}

	if pup.Password != pup.PasswordConfirm {
		return newError(nil, http.StatusBadRequest, "passwords do not match")
	}

	if err := h.userService.ChangeUserPassword(
		c.Request().Context(), pup.UserID, pup.OldPassword, pup.Password,
	); err != nil {
		return newError(err, http.StatusInternalServerError, "unable to change password")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) PatchResetUserPassword(c echo.Context) error {
	pup := new(PatchUserPasswordParams)
	if err := c.Bind(pup); err != nil {
		return newError(err, http.StatusBadRequest, "invalid user data")
	}

	if pup.Password != pup.PasswordConfirm {
		return newError(nil, http.StatusBadRequest, "passwords do not match")
	}

	if err := h.userService.ResetUserPassword(
		c.Request().Context(), pup.UserID, pup.Password,
	); err != nil {
		return newError(err, http.StatusInternalServerError, "unable to reset password")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) PatchUserRole(c echo.Context) error {
	pp := new(PatchUserParams)
	if err := c.Bind(pp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid user data")
	}

	if pp.RoleID == store.Superuser {
		return newError(nil, http.StatusBadRequest, "cannot promote to superuser")
	}

	if err := h.userService.UpdateUserRole(
		c.Request().Context(), pp.UserID, pp.RoleID,
	); err != nil {
		return newError(err, http.StatusInternalServerError, "unable to update user role")
	}

	return c.NoContent(http.StatusNoContent)
}
