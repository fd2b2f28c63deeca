package main

import (
	"context"
	"database/sql"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/vacunorg/vaccination-records/internal/certificate"
	"github.com/vacunorg/vaccination-records/internal/config"
	"github.com/vacunorg/vaccination-records/internal/database"
	"github.com/vacunorg/vaccination-records/internal/handler"
	"github.com/vacunorg/vaccination-records/internal/logging"
	"github.com/vacunorg/vaccination-records/internal/middleware"
	"github.com/vacunorg/vaccination-records/internal/queue"
	"github.com/vacunorg/vaccination-records/internal/router"
	"github.com/vacunorg/vaccination-records/internal/storage"
	"github.com/vacunorg/vaccination-records/internal/store"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env always wins

	cfg := config.Load()
	logger := logging.New()

	// One Redis client serves the storage backend, the rate limiter and the
	// response cache; nil when Redis is unreachable, which degrades all
	// three gracefully.
	rdb := config.NewRedisClient()
	backend := newStorageBackend(cfg, rdb)
	recordStore := store.New(backend, cfg.BcryptCost)
	generator := certificate.New(logger)

	// Optional MySQL sink for the certificate issuance log.
	var issueDB *sql.DB
	if cfg.IssuanceDBConfigured() {
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			logger.Warn("issuance database unavailable, falling back to file log", "error", err)
		} else if err := database.EnsureIssuanceTable(context.Background(), db); err != nil {
			logger.Warn("issuance table setup failed, falling back to file log", "error", err)
		} else {
			issueDB = db
		}
	}
	go queue.StartIssuanceConsumer(issueDB)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, recordStore),
		User:         handler.NewUserHandler(recordStore),
		Dependent:    handler.NewDependentHandler(recordStore),
		Professional: handler.NewProfessionalHandler(recordStore),
		Certificate:  handler.NewCertificateHandler(cfg, recordStore, generator, logger),
		Admin:        handler.NewAdminHandler(recordStore),
	}, cfg.JWTSecret,
		middleware.RateLimit(config.LoadRateLimitConfig(), rdb),
		middleware.ResponseCache(config.LoadCacheConfig(), rdb),
	)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env, "storage", cfg.StorageBackend)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

// newStorageBackend picks the collection storage: Redis when configured and
// reachable, the file backend otherwise.
func newStorageBackend(cfg config.Config, rdb *redis.Client) storage.Storage {
	if cfg.StorageBackend == "redis" {
		if rdb != nil {
			return storage.NewRedisStorage(rdb, cfg.StoragePrefix)
		}
		log.Printf("redis unreachable, falling back to file storage in %s", cfg.DataDir)
	}
	fs, err := storage.NewFileStorage(cfg.DataDir)
	if err != nil {
		log.Fatalf("open file storage: %v", err)
	}
	return fs
}
