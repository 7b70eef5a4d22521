package config

import (
	"testing"
	"time"
)

func TestValidateAddr(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "port only",
			input: ":8080",
		},
		{
			name:  "host and port",
			input: "0.0.0.0:9000",
		},
		{
			name:    "missing port",
			input:   "localhost",
			wantErr: true,
		},
		{
			name:    "non numeric port",
			input:   ":http",
			wantErr: true,
		},
		{
			name:    "out of range",
			input:   ":70000",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAddr(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateAddr(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without DATABASE_URL")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lifetrack")
	t.Setenv("LISTEN_ADDR", "")
	t.Setenv("NATS_URL", "")
	t.Setenv("S3_ENDPOINT", "")
	t.Setenv("PRESIGN_TTL_SECONDS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("HTTP.Addr = %q, want :8080", cfg.HTTP.Addr)
	}
	if cfg.Bus.Enabled {
		t.Fatal("Bus.Enabled = true without NATS_URL")
	}
	if cfg.S3.Enabled {
		t.Fatal("S3.Enabled = true without S3_ENDPOINT")
	}
	if cfg.S3.PresignTTL != 15*time.Minute {
		t.Fatalf("S3.PresignTTL = %v, want 15m", cfg.S3.PresignTTL)
	}
}

func TestLoadS3RequiresBucket(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lifetrack")
	t.Setenv("S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("S3_BUCKET", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded with S3_ENDPOINT but no S3_BUCKET")
	}
}

func TestLoadRejectsBadTTL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/lifetrack")
	t.Setenv("PRESIGN_TTL_SECONDS", "soon")

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a non-numeric PRESIGN_TTL_SECONDS")
	}
}
