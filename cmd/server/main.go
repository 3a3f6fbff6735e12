package main

import (
	"context"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/avasile/snapvault/internal/cache"
	"github.com/avasile/snapvault/internal/config"
	"github.com/avasile/snapvault/internal/database"
	"github.com/avasile/snapvault/internal/router"
	"github.com/avasile/snapvault/internal/storage"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	db, err := database.NewSQLiteDB(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	store, err := newObjectStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object store")
	}

	c, closeCache, err := newCache(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize cache")
	}
	defer closeCache()

	srv := router.New(db, store, c, cfg)

	log.Info().
		Str("addr", cfg.ListenAddr).
		Str("storage", cfg.StorageBackend).
		Str("cache", cfg.CacheBackend).
		Msg("starting server")
	if err := http.ListenAndServe(cfg.ListenAddr, srv.Router); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}

func newObjectStore(cfg *config.Config) (storage.ObjectStore, error) {
	switch cfg.StorageBackend {
	case "s3":
		return storage.NewS3(context.Background(), storage.S3Config{
			Region:          cfg.S3Region,
			Bucket:          cfg.S3Bucket,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Endpoint:        cfg.S3Endpoint,
			UsePathStyle:    cfg.S3UsePathStyle,
		})
	default:
		return storage.NewFileSystem(cfg.StoragePath, cfg.BaseURL, []byte(cfg.URLSigningSecret)), nil
	}
}

func newCache(cfg *config.Config) (cache.Cache, func(), error) {
	switch cfg.CacheBackend {
	case "redis":
		c, err := cache.NewRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	case "memory":
		return cache.NewMemory(), func() {}, nil
	default:
		c, err := cache.NewBadger(cfg.CachePath)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { c.Close() }, nil
	}
}
