package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/schemawatch/schemawatch/internal/store"
	"github.com/schemawatch/schemawatch/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestGetCredentials(t *testing.T) {
	t.Run("success - credentials are listed", func(t *testing.T) {
		// arrange
		c, rec := newTestContext(http.MethodGet, "/api/credentials")
		mockCredentialService := new(testutil.MockCredentialService)
		mockCredentialService.On("ListCredentials", mock.Anything).
			Return([]*store.Credential{{CredentialID: 1, Name: "staging-ssh"}}, nil)
		h := NewCredentialHandler(mockCredentialService)

		// act
		err := h.GetCredentials(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "staging-ssh")
	})
}

func TestGetCredential(t *testing.T) {
	t.Run("failure - credential is not found", func(t *testing.T) {
		// arrange
		c, _ := newTestContext(http.MethodGet, "/api/credentials/:credential_id")
		c.SetParamNames("credential_id")
		c.SetParamValues("999")
		mockCredentialService := new(testutil.MockCredentialService)
		mockCredentialService.On("GetCredentialByID", mock.Anything, int64(999)).
			Return(nil, sql.ErrNoRows)
		h := NewCredentialHandler(mockCredentialService)

		// act
		err := h.GetCredential(c)

		// assert
		assert.Error(t, err)
		var httpErr *echo.HTTPError
		assert.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusNotFound, httpErr.Code)
		assert.Equal(t, "credential not found", httpErr.Message)
	})
}

func TestPostCredential(t *testing.T) {
	t.Run("success - credential is created", func(t *testing.T) {
		// arrange
		body := `{
			"name": "staging-header",
			"kind": "header",
			"description": "staging api token",
			"secret": "Bearer token"
		}`
		c, rec := newJSONContext(http.MethodPost, "/api/credentials", body)
		mockCredentialService := new(testutil.MockCredentialService)
		mockCredentialService.On(
			"CreateCredential",
			mock.Anything,
			"staging-header",
			store.CredentialHeader,
			"",
			"staging api token",
			"Bearer token",
		).Return(&store.Credential{
			CredentialID: 1,
			Name:         "staging-header",
			Kind:         store.CredentialHeader,
		}, nil)
		h := NewCredentialHandler(mockCredentialService)

		// act
		err := h.PostCredential(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), "staging-header")
	})
	t.Run("failure - kind must be header or ssh", func(t *testing.T) {
		// arrange
		body := `{"name": "bad", "kind": "oauth", "secret": "x"}`
		c, _ := newJSONContext(http.MethodPost, "/api/credentials", body)
		h := NewCredentialHandler(new(testutil.MockCredentialService))

		// act
		err := h.PostCredential(c)

		// assert
		assert.Error(t, err)
		var httpErr *echo.HTTPError
		assert.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		assert.Equal(t, "credential kind must be header or ssh", httpErr.Message)
	})
	t.Run("failure - secret is required", func(t *testing.T) {
		// arrange
		body := `{"name": "nosecret", "kind": "ssh"}`
		c, _ := newJSONContext(http.MethodPost, "/api/credentials", body)
		h := NewCredentialHandler(new(testutil.MockCredentialService))

		// act
		err := h.PostCredential(c)

		// assert
		assert.Error(t, err)
		var httpErr *echo.HTTPError
		assert.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
		assert.Equal(t, "credential secret is required", httpErr.Message)
	})
	t.Run("failure - name is taken", func(t *testing.T) {
		// arrange
		body := `{"name": "taken", "kind": "ssh", "secret": "key"}`
		c, _ := newJSONContext(http.MethodPost, "/api/credentials", body)
		mockCredentialService := new(testutil.MockCredentialService)
		mockCredentialService.On(
			"CreateCredential",
			mock.Anything, "taken", store.CredentialSSH, "", "", "key",
		).Return(nil, uniqueConstraintErr)
		h := NewCredentialHandler(mockCredentialService)

		// act
		err := h.PostCredential(c)

		// assert
		assert.Error(t, err)
		var httpErr *echo.HTTPError
		assert.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusConflict, httpErr.Code)
		assert.Equal(t, "a credential with the name taken already exists", httpErr.Message)
	})
}

func TestPatchCredential(t *testing.T) {
	t.Run("success - credential is updated", func(t *testing.T) {
		// arrange
		body := `{"name": "renamed", "username": "deploy", "description": "rotated"}`
		c, rec := newJSONContext(http.MethodPatch, "/api/credentials/:credential_id", body)
		c.SetParamNames("credential_id")
		c.SetParamValues("7")
		mockCredentialService := new(testutil.MockCredentialService)
		mockCredentialService.On(
			"UpdateCredential", mock.Anything, int64(7), "renamed", "deploy", "rotated",
		).Return(nil)
		h := NewCredentialHandler(mockCredentialService)

		// act
		err := h.PatchCredential(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		mockCredentialService.AssertExpectations(t)
	})
}

func TestDeleteCredential(t *testing.T) {
	t.Run("success - credential is deleted", func(t *testing.T) {
		// arrange
		c, rec := newTestContext(http.MethodDelete, "/api/credentials/:credential_id")
		c.SetParamNames("credential_id")
		c.SetParamValues("7")
		mockCredentialService := new(testutil.MockCredentialService)
		mockCredentialService.On("DeleteCredential", mock.Anything, int64(7)).Return(nil)
		h := NewCredentialHandler(mockCredentialService)

		// act
		err := h.DeleteCredential(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
	t.Run("failure - credential is in use by a suite", func(t *testing.T) {
		// arrange
		c, _ := newTestContext(http.MethodDelete, "/api/credentials/:credential_id")
		c.SetParamNames("credential_id")
		c.SetParamValues(strconv.Itoa(7))
		mockCredentialService := new(testutil.MockCredentialService)
		mockCredentialService.On("DeleteCredential", mock.Anything, int64(7)).
			Return(foreignKeyConstraintErr)
		h := NewCredentialHandler(mockCredentialService)

		// act
		err := h.DeleteCredential(c)

		// assert
		assert.Error(t, err)
		var httpErr *echo.HTTPError
		assert.True(t, errors.As(err, &httpErr))
		assert.Equal(t, http.StatusConflict, httpErr.Code)
		assert.Equal(t, "credential is in use by a suite", httpErr.Message)
	})
}
