package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the agent configuration loaded from files and environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	BaseURL               string        `mapstructure:"base_url"`
	DefaultsToEnabled     bool          `mapstructure:"defaults_to_enabled"`
	UserAgent             string        `mapstructure:"user_agent"`
	ReloadIntervalSeconds int64         `mapstructure:"reload_interval"`
	FetchTimeoutSeconds   int64         `mapstructure:"fetch_timeout_seconds"`
	ReloadInterval        time.Duration `mapstructure:"-"`
	FetchTimeout          time.Duration `mapstructure:"-"`

	NotifiersFile string `mapstructure:"notifiers_file"`

	JournalType            string        `mapstructure:"journal_type"`
	JournalPath            string        `mapstructure:"journal_path"`
	JournalTTLSeconds      int64         `mapstructure:"journal_ttl_seconds"`
	JournalCleanupSeconds  int64         `mapstructure:"journal_cleanup_interval_seconds"`
	JournalTTL             time.Duration `mapstructure:"-"`
	JournalCleanupInterval time.Duration `mapstructure:"-"`
}

// Load reads configuration from configs/.env and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("app_name", "featurette")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("base_url", "")
	v.SetDefault("defaults_to_enabled", false)
	v.SetDefault("user_agent", "featurette/1.0")
	v.SetDefault("reload_interval", 300) // seconds, 0 disables
	v.SetDefault("fetch_timeout_seconds", 15)
	v.SetDefault("notifiers_file", "")
	v.SetDefault("journal_type", "none")
	v.SetDefault("journal_path", "./data/journal.db")
	v.SetDefault("journal_ttl_seconds", int64((7*24*time.Hour)/time.Second))
	v.SetDefault("journal_cleanup_interval_seconds", int64((6*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base_url is required")
	}
	if u, err := url.Parse(cfg.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base_url %q (must be an absolute URL)", cfg.BaseURL)
	}

	if cfg.ReloadIntervalSeconds < 0 {
		return nil, fmt.Errorf("invalid reload_interval (must be zero or positive seconds)")
	}
	cfg.ReloadInterval = time.Duration(cfg.ReloadIntervalSeconds) * time.Second

	if cfg.FetchTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid fetch_timeout_seconds (must be positive seconds)")
	}
	cfg.FetchTimeout = time.Duration(cfg.FetchTimeoutSeconds) * time.Second

	if cfg.JournalTTLSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_ttl_seconds (must be positive seconds)")
	}
	if cfg.JournalCleanupSeconds <= 0 {
		return nil, fmt.Errorf("invalid journal_cleanup_interval_seconds (must be positive seconds)")
	}
	cfg.JournalTTL = time.Duration(cfg.JournalTTLSeconds) * time.Second
	cfg.JournalCleanupInterval = time.Duration(cfg.JournalCleanupSeconds) * time.Second

	return &cfg, nil
}
