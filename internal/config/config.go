package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Run modes. Full-refresh truncates both tables before crawling so every run
// replaces prior state; accumulate merges the new batch into whatever is
// already stored.
const (
	ModeFullRefresh = "full-refresh"
	ModeAccumulate  = "accumulate"
)

// DBConfig holds the PostgreSQL connection parameters.
type DBConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
}

// BlueskyConfig holds the API credential and fetch tuning.
type BlueskyConfig struct {
	AppPassword          string `json:"app_password"`
	APIBaseURL           string `json:"api_base_url"`
	RequestTimeoutMs     int    `json:"request_timeout_ms"`
	MaxConcurrentFetches int    `json:"max_concurrent_fetches"`
}

// Config holds all runtime configuration parameters
type Config struct {
	DB      DBConfig      `json:"db_config"`
	Bluesky BlueskyConfig `json:"bluesky_config"`

	Mode                  string `json:"mode"`
	AccountsReportPath    string `json:"accounts_report_path"`
	ConnectionsReportPath string `json:"connections_report_path"`
	MetricsPath           string `json:"metrics_path"`
}

// LoadConfig reads and validates configuration from a JSON file
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	var cfg Config
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&cfg)

	// Validate configuration
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for unspecified fields
func applyDefaults(cfg *Config) {
	if cfg.DB.Host == "" {
		cfg.DB.Host = "localhost"
	}
	if cfg.DB.Port == 0 {
		cfg.DB.Port = 5432
	}
	if cfg.DB.DBName == "" {
		cfg.DB.DBName = "bluesky_network"
	}
	if cfg.Bluesky.APIBaseURL == "" {
		cfg.Bluesky.APIBaseURL = "https://public.api.bsky.app"
	}
	if cfg.Bluesky.RequestTimeoutMs == 0 {
		cfg.Bluesky.RequestTimeoutMs = 10000
	}
	if cfg.Bluesky.MaxConcurrentFetches == 0 {
		cfg.Bluesky.MaxConcurrentFetches = 8
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeFullRefresh
	}
	if cfg.AccountsReportPath == "" {
		cfg.AccountsReportPath = "accounts_data.txt"
	}
	if cfg.ConnectionsReportPath == "" {
		cfg.ConnectionsReportPath = "connections_data.txt"
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "metrics.json"
	}
}

// validate checks that required fields are present and values are sensible
func validate(cfg *Config) error {
	if cfg.DB.User == "" {
		return fmt.Errorf("db_config.user is required")
	}
	if cfg.DB.Port < 1 || cfg.DB.Port > 65535 {
		return fmt.Errorf("db_config.port must be between 1 and 65535")
	}
	if cfg.Bluesky.AppPassword == "" {
		return fmt.Errorf("bluesky_config.app_password is required")
	}
	if cfg.Bluesky.RequestTimeoutMs < 1000 {
		return fmt.Errorf("bluesky_config.request_timeout_ms must be >= 1000")
	}
	if cfg.Bluesky.MaxConcurrentFetches < 1 {
		return fmt.Errorf("bluesky_config.max_concurrent_fetches must be >= 1")
	}
	if cfg.Mode != ModeFullRefresh && cfg.Mode != ModeAccumulate {
		return fmt.Errorf("mode must be %q or %q", ModeFullRefresh, ModeAccumulate)
	}
	return nil
}

// ConnString renders the parameters as a postgres:// URL accepted by pgx.
func (d DBConfig) ConnString() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.DBName,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	return u.String()
}

// RequestTimeout returns the configured per-request timeout as a Duration.
func (b BlueskyConfig) RequestTimeout() time.Duration {
	return time.Duration(b.RequestTimeoutMs) * time.Millisecond
}
