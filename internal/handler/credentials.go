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

type CredentialServicer interface {
	CreateCredential(
		ctx context.Context,
		name string,
		kind store.CredentialKind,
		username, description, secret string,
	) (*store.Credential, error)
	GetCredentialByID(ctx context.Context, credentialID int64) (*store.Credential, error)
	ListCredentials(ctx context.Context) ([]*store.Credential, error)
	UpdateCredential(ctx context.Context, credentialID int64, name, username, description string) error
	DeleteCredential(ctx context.Context, credentialID int64) error
}

func SetupCredentialRoutes(g *echo.Group, credentialService CredentialServicer) {
	h := NewCredentialHandler(credentialService)
	credentialsGroup := g.Group("/api/credentials", IsAuthenticated)
	credentialsGroup.GET("", h.GetCredentials)
	credentialsGroup.GET("/:credential_id", h.GetCredential)
	credentialsGroup.POST("", h.PostCredential, RoleMiddleware(store.Admin))
	credentialsGroup.PATCH("/:credential_id", h.PatchCredential, RoleMiddleware(store.Admin))
	credentialsGroup.DELETE("/:credential_id", h.DeleteCredential, RoleMiddleware(store.Admin))
}

type CredentialHandler struct {
	credentialService CredentialServicer
}

func NewCredentialHandler(credentialService CredentialServicer) *CredentialHandler {
	return &CredentialHandler{credentialService}
}

func (h *CredentialHandler) GetCredentials(c echo.Context) error {
	credentials, err := h.credentialService.ListCredentials(c.Request().Context())
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return newError(err, http.StatusInternalServerError, "unable to list credentials")
	}
	return c.JSON(http.StatusOK, credentials)
}

func (h *CredentialHandler) GetCredential(c echo.Context) error {
	cp := new(CredentialParams)
	if err := c.Bind(cp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid credential data")
	}

	credential, err := h.credentialService.GetCredentialByID(
		c.Request().Context(), cp.CredentialID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "credential not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read credential")
	}
	return c.JSON(http.StatusOK, credential)
}

func (h *CredentialHandler) PostCredential(c echo.Context) error {
	cp := new(CredentialParams)
	if err := c.Bind(cp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid credential data")
	}

	kind := store.CredentialKind(cp.Kind)
	if kind != store.CredentialHeader && kind != store.CredentialSSH {
		return newError(nil, http.StatusBadRequest, "credential kind must be header or ssh")
	}
	if cp.Secret == "" {
		return newError(nil, http.StatusBadRequest, "credential secret is required")
	}

	credential, err := h.credentialService.CreateCredential(
		c.Request().Context(),
		cp.Name,
		kind,
		cp.Username,
		cp.Description,
		cp.Secret,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return newError(err,
				http.StatusConflict,
				fmt.Sprintf("a credential with the name %s already exists", cp.Name),
			)
		}
		return newError(err, http.StatusInternalServerError, "unable to create credential")
	}

	return c.JSON(http.StatusCreated, credential)
}

func (h *CredentialHandler) PatchCredential(c echo.Context) error {
	cp := new(CredentialParams)
	if err := c.Bind(cp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid credential data")
	}

	if err := h.credentialService.UpdateCredential(
		c.Request().Context(),
		cp.CredentialID,
		cp.Name,
		cp.Username,
		cp.Description,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "credential not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to update credential")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *CredentialHandler) DeleteCredential(c echo.Context) error {
	cp := new(CredentialParams)
	if err := c.Bind(cp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid credential data")
	}

	if err := h.credentialService.DeleteCredential(
		c.Request().Context(), cp.CredentialID,
	); err != nil {
		if isForeignKeyConstraintError(err) {
			return newError(err, http.StatusConflict, "credential is in use by a suite")
		}
		return newError(err, http.StatusInternalServerError, "unable to delete credential")
	}

	return c.NoContent(http.StatusNoContent)
}
