package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all runtime settings, read from the environment.
type Config struct {
	ListenAddr string `env:"SV_LISTEN_ADDR" env-default:":8080"`
	BaseURL    string `env:"SV_BASE_URL" env-default:"http://localhost:8080"`
	DBPath     string `env:"SV_DB_PATH" env-default:"snapvault.db"`

	JWTSecret        string `env:"SV_JWT_SECRET" env-default:"dev-jwt-secret"`
	URLSigningSecret string `env:"SV_URL_SIGNING_SECRET" env-default:"dev-url-secret"`

	// StorageBackend selects the object store: "fs" or "s3".
	StorageBackend string `env:"SV_STORAGE_BACKEND" env-default:"fs"`
	StoragePath    string `env:"SV_STORAGE_PATH" env-default:"data/images"`

	S3Region          string `env:"SV_S3_REGION" env-default:"us-east-1"`
	S3Bucket          string `env:"SV_S3_BUCKET"`
	S3AccessKeyID     string `env:"SV_S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"SV_S3_SECRET_ACCESS_KEY"`
	S3Endpoint        string `env:"SV_S3_ENDPOINT"`
	S3UsePathStyle    bool   `env:"SV_S3_USE_PATH_STYLE" env-default:"false"`

	// CacheBackend selects the transform result cache: "badger", "redis"
	// or "memory".
	CacheBackend  string `env:"SV_CACHE_BACKEND" env-default:"badger"`
	CachePath     string `env:"SV_CACHE_PATH" env-default:"data/cache"`
	RedisAddr     string `env:"SV_REDIS_ADDR" env-default:"127.0.0.1:6379"`
	RedisPassword string `env:"SV_REDIS_PASSWORD"`
	RedisDB       int    `env:"SV_REDIS_DB" env-default:"0"`

	CacheTTLSeconds     int `env:"SV_CACHE_TTL_SECONDS" env-default:"3600"`
	SignedURLTTLSeconds int `env:"SV_SIGNED_URL_TTL_SECONDS" env-default:"3600"`

	TransformRateLimit  int `env:"SV_TRANSFORM_RATE_LIMIT" env-default:"5"`
	TransformRateWindow int `env:"SV_TRANSFORM_RATE_WINDOW_SECONDS" env-default:"60"`

	MaxUploadBytes int64 `env:"SV_MAX_UPLOAD_BYTES" env-default:"5242880"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if cfg.StorageBackend == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("SV_S3_BUCKET is required when SV_STORAGE_BACKEND=s3")
	}
	return &cfg, nil
}
