package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	appName   = "newsdash"
	envPrefix = "NEWSDASH"
)

// Config holds all application configuration
type Config struct {
	API       APIConfig       `mapstructure:"api"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// APIConfig holds news API connection settings
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // per request, applied by the HTTP client
}

// DashboardConfig holds fetch and refresh behaviour
type DashboardConfig struct {
	Category         string        `mapstructure:"category"`
	PageSize         int           `mapstructure:"page_size"`
	RefreshInterval  time.Duration `mapstructure:"refresh_interval"` // 0 disables auto-refresh
	RememberCategory bool          `mapstructure:"remember_category"`
}

// BrowserConfig holds the command used to open articles
type BrowserConfig struct {
	Command string   `mapstructure:"command"` // empty for system default
	Args    []string `mapstructure:"args"`
}

// MetricsConfig holds the optional Prometheus listener
type MetricsConfig struct {
	Addr string `mapstructure:"addr"` // e.g. ":9091", empty disables
}

// StorageConfig holds local state paths
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:9000/api/news",
			Timeout: 30 * time.Second,
		},
		Dashboard: DashboardConfig{
			Category:         "technology",
			PageSize:         6,
			RefreshInterval:  5 * time.Minute,
			RememberCategory: true,
		},
		Browser: BrowserConfig{
			Args: []string{},
		},
		Storage: StorageConfig{
			Dir: filepath.Join(xdg.DataHome, appName),
		},
		Logging: LoggingConfig{
			File:  filepath.Join(xdg.StateHome, appName, appName+".log"),
			Level: "INFO",
		},
	}
}

// DefaultConfigPath returns the config file used when none is given
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, appName, "config.yaml")
}

// flagKeys maps command line flags onto config keys
var flagKeys = map[string]string{
	"category":     "dashboard.category",
	"metrics-addr": "metrics.addr",
	"api-url":      "api.base_url",
	"log-level":    "logging.level",
}

// Load reads configuration from defaults, the yaml file at path (or the
// default location when path is empty), NEWSDASH_* environment variables
// and any changed flags in fs, in increasing order of precedence.
// A missing file at the default location is not an error.
func Load(path string, fs *pflag.FlagSet) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Dir(DefaultConfigPath()))
	}

	if fs != nil {
		for flag, key := range flagKeys {
			if f := fs.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", flag, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.API.BaseURL = strings.TrimRight(cfg.API.BaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setValues(DefaultConfig(), v.SetDefault)
	return v
}

// setValues writes every field of cfg through set so that keys are snake_case
func setValues(cfg *Config, set func(string, any)) {
	set("api.base_url", cfg.API.BaseURL)
	set("api.timeout", cfg.API.Timeout.String())

	set("dashboard.category", cfg.Dashboard.Category)
	set("dashboard.page_size", cfg.Dashboard.PageSize)
	set("dashboard.refresh_interval", cfg.Dashboard.RefreshInterval.String())
	set("dashboard.remember_category", cfg.Dashboard.RememberCategory)

	set("browser.command", cfg.Browser.Command)
	set("browser.args", cfg.Browser.Args)

	set("metrics.addr", cfg.Metrics.Addr)

	set("storage.dir", cfg.Storage.Dir)

	set("logging.file", cfg.Logging.File)
	set("logging.level", cfg.Logging.Level)
}

// Save writes cfg as yaml to path, or to the default location when path is empty
func Save(cfg *Config, path string) (string, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	setValues(cfg, v.Set)

	if err := v.WriteConfigAs(path); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return path, nil
}

// Validate rejects settings the dashboard cannot run with
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url: invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api.base_url: scheme must be http or https, got %q", u.Scheme)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", c.API.Timeout)
	}
	if c.Dashboard.PageSize < 1 {
		return fmt.Errorf("dashboard.page_size must be at least 1, got %d", c.Dashboard.PageSize)
	}
	if c.Dashboard.RefreshInterval < 0 {
		return fmt.Errorf("dashboard.refresh_interval must not be negative, got %s", c.Dashboard.RefreshInterval)
	}
	return nil
}
