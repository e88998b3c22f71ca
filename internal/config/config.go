// Package config handles configuration loading for macrovista.
// It supports YAML config files with environment variable overrides
// and an optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration, grouped by concern.
type Config struct {
	Upstream  UpstreamConfig  `mapstructure:"upstream"  yaml:"upstream"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	News      NewsConfig      `mapstructure:"news"      yaml:"news"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// UpstreamConfig holds DataMapper API client settings.
type UpstreamConfig struct {
	BaseURL       string `mapstructure:"base_url"        yaml:"base_url"`
	UserAgent     string `mapstructure:"user_agent"      yaml:"user_agent"`
	TimeoutSec    int    `mapstructure:"timeout_sec"     yaml:"timeout_sec"`
	CacheTTLSec   int    `mapstructure:"cache_ttl_sec"   yaml:"cache_ttl_sec"`
	FetchDelayMs  int    `mapstructure:"fetch_delay_ms"  yaml:"fetch_delay_ms"` // negative disables the politeness delay
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"          yaml:"host"`
	Port        int      `mapstructure:"port"          yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"  yaml:"cors_origins"`
}

// DashboardConfig holds default selection values for the dashboard.
type DashboardConfig struct {
	DefaultCountries []string `mapstructure:"default_countries" yaml:"default_countries"`
	DefaultStartYear int      `mapstructure:"default_start_year" yaml:"default_start_year"`
	DefaultEndYear   int      `mapstructure:"default_end_year"   yaml:"default_end_year"`
}

// NewsFeed is one configurable RSS source for the headlines strip.
type NewsFeed struct {
	Name   string `mapstructure:"name"    yaml:"name"`
	RSSURL string `mapstructure:"rss_url" yaml:"rss_url"`
}

// NewsConfig holds headline strip settings. An empty Feeds list means
// the built-in IMF feeds.
type NewsConfig struct {
	Enabled bool       `mapstructure:"enabled" yaml:"enabled"`
	Limit   int        `mapstructure:"limit"   yaml:"limit"`
	Feeds   []NewsFeed `mapstructure:"feeds"   yaml:"feeds"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load builds the configuration from defaults, then an optional YAML
// file, then environment overrides. The file is searched in order:
//  1. ./config/macrovista.yaml (project root)
//  2. ~/.macrovista/macrovista.yaml (home directory)
//  3. /etc/macrovista/macrovista.yaml (system)
//
// Environment overrides use MACROVISTA_<SECTION>_<KEY>, e.g.,
// MACROVISTA_API_PORT.
func Load() (*Config, error) {
	// Pull in a local .env first so AutomaticEnv sees it. Missing file
	// is the normal case outside development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("macrovista")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".macrovista"))
	v.AddConfigPath("/etc/macrovista")
	bindEnv(v)

	// A missing file means defaults plus env; any other read error is real.
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return unmarshal(v)
}

// LoadFromFile skips the search path and loads one YAML file, which
// must exist. The --config flag uses it.
func LoadFromFile(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	return unmarshal(v)
}

// bindEnv wires MACROVISTA_* environment overrides onto viper keys,
// mapping section.key to SECTION_KEY.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix("MACROVISTA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults registers a default for every key so Unmarshal always
// yields a complete Config.
func setDefaults(v *viper.Viper) {
	// Upstream defaults
	v.SetDefault("upstream.base_url", "https://www.imf.org/external/datamapper/api/v1")
	v.SetDefault("upstream.user_agent", "macrovista/1.0 (+https://github.com/macrovista/macrovista)")
	v.SetDefault("upstream.timeout_sec", 30)
	v.SetDefault("upstream.cache_ttl_sec", 3600) // 1 hour
	v.SetDefault("upstream.fetch_delay_ms", 500)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})

	// Dashboard defaults
	v.SetDefault("dashboard.default_countries", []string{"MEX", "USA", "BRA"})
	v.SetDefault("dashboard.default_start_year", 2010)
	v.SetDefault("dashboard.default_end_year", 2023)

	// News defaults
	v.SetDefault("news.enabled", true)
	v.SetDefault("news.limit", 6)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the home directory, or "." when the lookup fails.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
