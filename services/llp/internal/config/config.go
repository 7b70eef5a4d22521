package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

func Load() (Config, error) {
	cfg := Config{}

	cfg.HTTP.Addr = getEnv("LISTEN_ADDR", ":8080")
	if err := validateAddr(cfg.HTTP.Addr); err != nil {
		return Config{}, fmt.Errorf("invalid LISTEN_ADDR: %w", err)
	}

	cfg.Database.URL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if cfg.Database.URL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.Bus.URL = strings.TrimSpace(os.Getenv("NATS_URL"))
	cfg.Bus.Enabled = cfg.Bus.URL != ""
	cfg.Bus.Stream = getEnv("NATS_STREAM", "LIFETRACK_LLP")

	cfg.S3.Bucket = strings.TrimSpace(os.Getenv("S3_BUCKET"))
	cfg.S3.Enabled = strings.TrimSpace(os.Getenv("S3_ENDPOINT")) != ""
	if cfg.S3.Enabled && cfg.S3.Bucket == "" {
		return Config{}, fmt.Errorf("S3_BUCKET is required when S3_ENDPOINT is set")
	}

	ttlSecs, err := getEnvInt("PRESIGN_TTL_SECONDS", 900)
	if err != nil {
		return Config{}, fmt.Errorf("invalid PRESIGN_TTL_SECONDS: %w", err)
	}
	if ttlSecs <= 0 {
		return Config{}, fmt.Errorf("PRESIGN_TTL_SECONDS must be positive, got %d", ttlSecs)
	}
	cfg.S3.PresignTTL = time.Duration(ttlSecs) * time.Second

	return cfg, nil
}

// validateAddr accepts ":8080" or "host:8080" forms with an in-range port.
func validateAddr(addr string) error {
	idx := strings.LastIndex(addr, ":")
	if idx < 0 {
		return fmt.Errorf("missing port in %q", addr)
	}
	port, err := strconv.Atoi(addr[idx+1:])
	if err != nil {
		return fmt.Errorf("invalid port in %q", addr)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%q is not an integer", v)
	}
	return parsed, nil
}
