package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig carries every tunable of the server. Values come from an
// optional YAML file (CONFIG_FILE) with environment variables layered on
// top, so a deployment can override a checked-in file without editing it.
type AppConfig struct {
	ListenAddr string `yaml:"listen_addr"`

	RedisURL    string `yaml:"redis_url"`
	DatabaseURL string `yaml:"database_url"`

	AdvisoryURL        string        `yaml:"advisory_url"`
	AdvisoryTimeout    time.Duration `yaml:"advisory_timeout"`
	BotMaxChainedMoves int           `yaml:"bot_max_chained_moves"`
	BotDefaultLevel    string        `yaml:"bot_default_level"`

	WinningScore        int           `yaml:"winning_score"`
	TurnTimeout         time.Duration `yaml:"turn_timeout"`
	TimeoutScanInterval time.Duration `yaml:"timeout_scan_interval"`
}

func defaults() *AppConfig {
	return &AppConfig{
		ListenAddr:          ":8080",
		AdvisoryTimeout:     3 * time.Second,
		BotMaxChainedMoves:  4,
		BotDefaultLevel:     "normal",
		WinningScore:        3,
		TurnTimeout:         60 * time.Second,
		TimeoutScanInterval: 5 * time.Second,
	}
}

func Load() (*AppConfig, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}
	if v := strings.TrimSpace(os.Getenv("REDIS_URL")); v != "" {
		cfg.RedisURL = v
	}
	if v := strings.TrimSpace(os.Getenv("DATABASE_URL")); v != "" {
		cfg.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ADVISORY_URL")); v != "" {
		cfg.AdvisoryURL = v
	}
	if v := strings.TrimSpace(os.Getenv("ADVISORY_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.AdvisoryTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("BOT_MAX_CHAINED_MOVES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BotMaxChainedMoves = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("BOT_DEFAULT_LEVEL")); v != "" {
		cfg.BotDefaultLevel = v
	}
	if v := strings.TrimSpace(os.Getenv("WINNING_SCORE")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.WinningScore = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("TURN_TIMEOUT")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TurnTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("TIMEOUT_SCAN_INTERVAL")); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TimeoutScanInterval = d
		}
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	return cfg, nil
}
