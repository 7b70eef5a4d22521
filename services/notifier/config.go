package notifier

import (
	"fmt"
	"net/url"
	"os"

	"gopkg.in/yaml.v3"
)

// ChannelConfig describes how notifications for one channel are delivered.
type ChannelConfig struct {
	Webhook string `yaml:"webhook"`
}

// Config is the notifier routing definition loaded from YAML.
type Config struct {
	// MinSeverity suppresses notifications below the given severity.
	// Empty means deliver everything.
	MinSeverity string `yaml:"min_severity"`

	Channels struct {
		Email     ChannelConfig `yaml:"email"`
		SMS       ChannelConfig `yaml:"sms"`
		Dashboard ChannelConfig `yaml:"dashboard"`
	} `yaml:"channels"`
}

// LoadConfig reads and validates a notifier configuration file.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if cfg.MinSeverity != "" && severityRank(cfg.MinSeverity) < 0 {
		return cfg, fmt.Errorf("invalid min_severity %q", cfg.MinSeverity)
	}

	for name, ch := range map[string]ChannelConfig{
		"email":     cfg.Channels.Email,
		"sms":       cfg.Channels.SMS,
		"dashboard": cfg.Channels.Dashboard,
	} {
		if ch.Webhook == "" {
			continue
		}
		u, err := url.Parse(ch.Webhook)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return cfg, fmt.Errorf("invalid webhook for channel %s: %q", name, ch.Webhook)
		}
	}

	return cfg, nil
}

func severityRank(s string) int {
	switch s {
	case "INFO":
		return 0
	case "WARNING":
		return 1
	case "CRITICAL":
		return 2
	case "URGENT":
		return 3
	default:
		return -1
	}
}
