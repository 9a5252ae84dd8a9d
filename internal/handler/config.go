package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/schemawatch/schemawatch/internal"
	"github.com/schemawatch/schemawatch/internal/store"
)

func SetupConfigRoutes(g *echo.Group) {
	configGroup := g.Group("/api/config", IsAuthenticated)
	configGroup.GET("", GetConfig, RoleMiddleware(store.Admin))
	configGroup.PUT("", PutConfig, RoleMiddleware(store.Admin))
}

func GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, internal.Config)
}

func PutConfig(c echo.Context) error {
	cp := new(ConfigParams)
	if err := c.Bind(cp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid config data")
	}

	config := &internal.Configuration{
		SessionExpiresHours: internal.HoursDuration(
			time.Duration(cp.SessionExpiresHours) * time.Hour,
		),
		QueueSize:           cp.QueueSize,
		ProbeTimeoutSeconds: cp.ProbeTimeoutSeconds,
		SchemaCacheMinutes:  cp.SchemaCacheMinutes,
	}

	if err := internal.UpdateConfiguration(config); err != nil {
		return newError(err, http.StatusInternalServerError, "unable to update configuration file")
	}

	return c.JSON(http.StatusOK, config)
}
