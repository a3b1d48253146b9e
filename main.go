package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jayeen28/techzu-backend/config"
	"github.com/jayeen28/techzu-backend/logging"
	"github.com/jayeen28/techzu-backend/middleware"
	"github.com/jayeen28/techzu-backend/realtime"
	"github.com/jayeen28/techzu-backend/repository"
	"github.com/jayeen28/techzu-backend/routes"
	"github.com/jayeen28/techzu-backend/services"
	"github.com/jayeen28/techzu-backend/storage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

const subscriberBuffer = 16

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	logging.Setup(cfg.Log.Level, cfg.IsDevelopment())

	// Initialize database
	db, err := config.ConnectDatabase(cfg.Database, cfg.IsDevelopment())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := realtime.NewHub(subscriberBuffer)
	go hub.Run(ctx)

	store, err := newStorage(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize file storage")
	}

	errLog, err := logging.NewErrorLog(afero.NewOsFs(), cfg.App.DataPath, cfg.Log.ErrorLogTZ)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize error log")
	}

	users := services.NewUserService(repository.NewUserRepository(db), repository.NewFileRepository(db), services.TokenConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiry,
	})
	comments := services.NewCommentService(repository.NewCommentRepository(db), hub)
	files := services.NewFileService(repository.NewFileRepository(db), store)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	go rateLimiter.Cleanup(ctx, time.Minute)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorLogger(errLog))

	routes.SetupRoutes(r, routes.Dependencies{
		Users:        users,
		Comments:     comments,
		Files:        files,
		Hub:          hub,
		Google:       config.NewGoogleConfig(cfg.Google),
		RateLimiter:  rateLimiter,
		CookieKey:    cfg.App.CookieKey,
		CookieSecure: cfg.App.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Str("env", cfg.App.Env).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// Event streams only end once the hub is closed.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
	if err := config.CloseDatabase(db); err != nil {
		log.Error().Err(err).Msg("Failed to close database")
	}
}

func newStorage(cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.Driver == "r2" {
		return storage.NewR2(storage.R2Config{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			SecretAccessKey: cfg.R2.SecretAccessKey,
			BucketName:      cfg.R2.BucketName,
			Region:          cfg.R2.Region,
		})
	}
	dir, err := filepath.Abs(cfg.Storage.FilePath)
	if err != nil {
		return nil, err
	}
	return storage.NewLocal(afero.NewOsFs(), dir)
}
