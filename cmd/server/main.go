package main

import (
	"context"
	"log"

	"github.com/schemawatch/schemawatch/internal"
	"github.com/schemawatch/schemawatch/internal/handler"
	"github.com/schemawatch/schemawatch/internal/security"
	"github.com/schemawatch/schemawatch/internal/service"
	"github.com/schemawatch/schemawatch/internal/settings"
	"github.com/schemawatch/schemawatch/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	_ "modernc.org/sqlite"
)

func main() {
	internal.InitializeConfiguration()
	settings.ReadDotenv(internal.DotEnvPath)
	settings.Settings = settings.NewSettings()
	hashKey, blockKey := security.NewKeys()
	rdb := store.InitDatabase(true)
	defer rdb.Close()
	rwdb := store.InitDatabase(false)
	defer rwdb.Close()
	store.RunMigrations(rwdb, internal.MigrationsDir)

	scheduler := service.NewScheduler()
	defer scheduler.Shutdown()

	userStore := store.NewUserSQLiteStore(rdb, rwdb)
	credentialStore := store.NewCredentialSQLiteStore(rdb, rwdb)
	suiteStore := store.NewSuiteSQLiteStore(rdb, rwdb)
	runStore := store.NewRunSQLiteStore(rdb, rwdb)
	apiKeyStore := store.NewAPIKeySQLiteStore(rdb, rwdb)
	aesEncrypter := security.NewAESEncrypter(hashKey)

	schemaCache := store.NewSchemaCache()
	schemaCache.ScheduleDailyCleanUp(scheduler)

	cookieSvc := service.NewCookieService(hashKey, blockKey)
	userSvc := service.NewUserService(userStore)
	credentialSvc := service.NewCredentialService(credentialStore, aesEncrypter)
	apiKeySvc := service.NewAPIKeyService(apiKeyStore, service.NewUUIDGen())
	schemaSvc := service.NewSchemaService(schemaCache)
	suiteSvc := service.NewSuiteService(
		suiteStore,
		runStore,
		apiKeyStore,
		scheduler,
		aesEncrypter,
		schemaSvc,
	)
	if err := suiteSvc.InitializeRunQueues(context.Background()); err != nil {
		log.Fatal(err)
	}
	if err := suiteSvc.InitializeSchedules(context.Background()); err != nil {
		log.Fatal(err)
	}
	scheduler.Start()

	userSvc.InitializeSuperuser(context.Background())

	e := setupEcho()
	g := e.Group("", handler.SessionMiddleware(userSvc, cookieSvc))
	handler.SetupAuthRoutes(g, userSvc, cookieSvc)
	handler.SetupUserRoutes(g, userSvc)
	handler.SetupCredentialRoutes(g, credentialSvc)
	handler.SetupSuiteRoutes(g, suiteSvc, apiKeySvc)
	handler.SetupAPIKeyRoutes(g, apiKeySvc)
	handler.SetupConfigRoutes(g)

	internal.GracefulShutdown(e, settings.Settings.Port)
}

func setupEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = handler.ErrorHandler
	e.Use(
		middleware.CORSWithConfig(internal.GetCORSConfig()),
		middleware.RateLimiterWithConfig(internal.GetRateLimiterConfig()),
	)
	return e
}
