package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/schemawatch/schemawatch/internal/store"
)

func getCtxUser(c echo.Context) *store.User {
	if u, ok := c.Get("user").(*store.User); ok {
		return u
	}
	return nil
}
