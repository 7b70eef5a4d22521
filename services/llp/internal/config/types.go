package config

import "time"

type Config struct {
	HTTP     HTTPConfig
	Database DatabaseConfig
	Bus      BusConfig
	S3       S3Config
}

type HTTPConfig struct {
	Addr string
}

type DatabaseConfig struct {
	URL string
}

type BusConfig struct {
	Enabled bool
	URL     string
	Stream  string
}

type S3Config struct {
	Enabled    bool
	Bucket     string
	PresignTTL time.Duration
}
