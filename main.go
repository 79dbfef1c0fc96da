package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"homework-tracker/cloud"
	"homework-tracker/config"
	"homework-tracker/db"
	"homework-tracker/handlers"
	"homework-tracker/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.LogError("Failed to open local store", err, "driver", cfg.Store.Driver)
		os.Exit(1)
	}
	defer store.Close()

	storage := db.NewStorageService(store)

	// Seed the default periods if none were ever configured
	if _, err := storage.GetPeriods(ctx); err != nil {
		logger.LogWarn("Could not check school periods", "error", err.Error())
	}

	syncer, auth, closeRemote := setupCloud(ctx, cfg, storage)
	defer closeRemote()
	defer syncer.Wait()

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	handlers.NewAPIHandler(storage, syncer, auth).Register(router)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.LogInfo("Starting server", "port", cfg.Port, "store", cfg.Store.Driver, "cloud", syncer.Configured())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError("Failed to run server", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError("Server shutdown failed", err)
	}
}

func openStore(ctx context.Context, cfg *config.Config) (db.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		return db.NewSQLiteStore(cfg.SQLite.Path, cfg.Debug)
	case config.DriverMemory:
		logger.LogWarn("Using the in-memory store, data will not survive a restart")
		return db.NewMemoryStore(), nil
	default:
		client, err := db.InitializeRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return db.NewRedisStore(client), nil
	}
}

// setupCloud connects the remote store when credentials are configured and
// pulls once at startup. Without credentials the service runs local-only.
// The returned func releases the remote connection pool.
func setupCloud(ctx context.Context, cfg *config.Config, storage *db.StorageService) (*cloud.Syncer, *cloud.Authenticator, func()) {
	noop := func() {}
	if !cfg.Cloud.Configured() {
		logger.LogWarn("Cloud credentials missing, running in local-only mode")
		return cloud.NewSyncer(storage, nil), nil, noop
	}

	remote, err := cloud.NewPostgresRemote(ctx, cfg.Cloud.DatabaseURL)
	if err != nil {
		logger.LogError("Cloud store unavailable, running in local-only mode", err)
		return cloud.NewSyncer(storage, nil), nil, noop
	}
	if err := remote.EnsureSchema(ctx); err != nil {
		logger.LogError("Failed to prepare cloud schema", err)
	}

	syncer := cloud.NewSyncer(storage, remote)
	auth := cloud.NewAuthenticator(cfg.Cloud.JWTSecret)

	if cfg.Cloud.StartupToken != "" {
		id, err := auth.Verify(cfg.Cloud.StartupToken)
		if err != nil {
			logger.LogWarn("Startup token rejected, skipping initial pull", "error", err.Error())
			return syncer, auth, remote.Close
		}
		err = syncer.Pull(cloud.WithIdentity(ctx, id))
		switch {
		case errors.Is(err, cloud.ErrNoRemoteData):
			logger.LogInfo("No cloud data yet, keeping local state", "userId", id.UserID)
		case err != nil:
			logger.LogError("Initial pull failed", err)
		}
	}
	return syncer, auth, remote.Close
}
