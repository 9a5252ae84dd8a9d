package service

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/schemawatch/schemawatch/internal"
	"github.com/schemawatch/schemawatch/internal/security"
	"github.com/schemawatch/schemawatch/internal/settings"
	"github.com/stretchr/testify/assert"
)

func testCookieService() *CookieService {
	return NewCookieService(
		[]byte(security.GenerateRandomKey(32)),
		[]byte(security.GenerateRandomKey(24)),
	)
}

func TestCookieService(t *testing.T) {
	settings.Settings = settings.NewSettings()

	t.Run("success - session id round trips through the cookie", func(t *testing.T) {
		// arrange
		cookieService := testCookieService()
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

		// act
		err := cookieService.SetSessionCookie(c, "testsessionid")

		// assert
		assert.NoError(t, err)
		cookies := rec.Result().Cookies()
		assert.Len(t, cookies, 1)
		assert.Equal(t, internal.SessionCookie, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		// read it back on a fresh request
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(cookies[0])
		c2 := e.NewContext(req, httptest.NewRecorder())
		sessionID, err := cookieService.GetSessionID(c2)
		assert.NoError(t, err)
		assert.Equal(t, "testsessionid", sessionID)
	})
	t.Run("failure - cookie is missing", func(t *testing.T) {
		// arrange
		cookieService := testCookieService()
		e := echo.New()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

		// act
		_, err := cookieService.GetSessionID(c)

		// assert
		assert.Error(t, err)
	})
	t.Run("failure - cookie was encoded with different keys", func(t *testing.T) {
		// arrange
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)
		assert.NoError(t, testCookieService().SetSessionCookie(c, "testsessionid"))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(rec.Result().Cookies()[0])
		c2 := e.NewContext(req, httptest.NewRecorder())

		// act
		_, err := testCookieService().GetSessionID(c2)

		// assert
		assert.Error(t, err)
	})
	t.Run("success - removal expires the cookie", func(t *testing.T) {
		// arrange
		cookieService := testCookieService()
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

		// act
		cookieService.RemoveSessionCookie(c)

		// assert
		cookies := rec.Result().Cookies()
		assert.Len(t, cookies, 1)
		assert.Empty(t, cookies[0].Value)
	})
}
