package config

import (
	"os"
	"path/filepath"
	"testing"
)

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	// Unset any env vars that would interfere
	envVars := []string{
		"MACROVISTA_API_PORT", "MACROVISTA_API_HOST",
		"MACROVISTA_UPSTREAM_BASE_URL", "MACROVISTA_UPSTREAM_FETCH_DELAY_MS",
		"MACROVISTA_NEWS_LIMIT", "MACROVISTA_LOGGING_LEVEL",
	}
	for _, e := range envVars {
		os.Unsetenv(e)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Upstream defaults
	if cfg.Upstream.BaseURL != "https://www.imf.org/external/datamapper/api/v1" {
		t.Errorf("Upstream.BaseURL: got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSec != 30 {
		t.Errorf("Upstream.TimeoutSec: got %d, want 30", cfg.Upstream.TimeoutSec)
	}
	if cfg.Upstream.CacheTTLSec != 3600 {
		t.Errorf("Upstream.CacheTTLSec: got %d, want 3600", cfg.Upstream.CacheTTLSec)
	}
	if cfg.Upstream.FetchDelayMs != 500 {
		t.Errorf("Upstream.FetchDelayMs: got %d, want 500", cfg.Upstream.FetchDelayMs)
	}
	if cfg.Upstream.UserAgent == "" {
		t.Error("Upstream.UserAgent should have a default")
	}

	// API defaults
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host: got %q, want %q", cfg.API.Host, "0.0.0.0")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("API.Port: got %d, want 8080", cfg.API.Port)
	}
	if len(cfg.API.CORSOrigins) == 0 {
		t.Error("API.CORSOrigins should have a default")
	}

	// Dashboard defaults
	wantCountries := []string{"MEX", "USA", "BRA"}
	if len(cfg.Dashboard.DefaultCountries) != len(wantCountries) {
		t.Fatalf("Dashboard.DefaultCountries: got %v", cfg.Dashboard.DefaultCountries)
	}
	for i, c := range wantCountries {
		if cfg.Dashboard.DefaultCountries[i] != c {
			t.Errorf("Dashboard.DefaultCountries[%d]: got %q, want %q", i, cfg.Dashboard.DefaultCountries[i], c)
		}
	}
	if cfg.Dashboard.DefaultStartYear != 2010 {
		t.Errorf("Dashboard.DefaultStartYear: got %d, want 2010", cfg.Dashboard.DefaultStartYear)
	}
	if cfg.Dashboard.DefaultEndYear != 2023 {
		t.Errorf("Dashboard.DefaultEndYear: got %d, want 2023", cfg.Dashboard.DefaultEndYear)
	}

	// News defaults
	if !cfg.News.Enabled {
		t.Error("News.Enabled should default to true")
	}
	if cfg.News.Limit != 6 {
		t.Errorf("News.Limit: got %d, want 6", cfg.News.Limit)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "info")
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "text")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	// Create a temp config file
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
upstream:
  base_url: "http://localhost:8181/api/v1"
  timeout_sec: 5
  cache_ttl_sec: 60
  fetch_delay_ms: -1
api:
  port: 9090
dashboard:
  default_countries: ["DEU", "FRA"]
  default_start_year: 2000
  default_end_year: 2020
news:
  enabled: false
  limit: 3
  feeds:
    - name: "Custom Feed"
      rss_url: "https://example.com/rss"
logging:
  level: "debug"
  format: "json"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	os.Unsetenv("MACROVISTA_API_PORT")
	os.Unsetenv("MACROVISTA_UPSTREAM_BASE_URL")

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Upstream.BaseURL != "http://localhost:8181/api/v1" {
		t.Errorf("Upstream.BaseURL: got %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.TimeoutSec != 5 {
		t.Errorf("Upstream.TimeoutSec: got %d, want 5", cfg.Upstream.TimeoutSec)
	}
	if cfg.Upstream.CacheTTLSec != 60 {
		t.Errorf("Upstream.CacheTTLSec: got %d, want 60", cfg.Upstream.CacheTTLSec)
	}
	if cfg.Upstream.FetchDelayMs != -1 {
		t.Errorf("Upstream.FetchDelayMs: got %d, want -1", cfg.Upstream.FetchDelayMs)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port: got %d, want 9090", cfg.API.Port)
	}
	if len(cfg.Dashboard.DefaultCountries) != 2 || cfg.Dashboard.DefaultCountries[0] != "DEU" {
		t.Errorf("Dashboard.DefaultCountries: got %v", cfg.Dashboard.DefaultCountries)
	}
	if cfg.Dashboard.DefaultStartYear != 2000 || cfg.Dashboard.DefaultEndYear != 2020 {
		t.Errorf("year defaults: got %d-%d", cfg.Dashboard.DefaultStartYear, cfg.Dashboard.DefaultEndYear)
	}
	if cfg.News.Enabled {
		t.Error("News.Enabled should be false")
	}
	if cfg.News.Limit != 3 {
		t.Errorf("News.Limit: got %d, want 3", cfg.News.Limit)
	}
	if len(cfg.News.Feeds) != 1 || cfg.News.Feeds[0].Name != "Custom Feed" {
		t.Errorf("News.Feeds: got %+v", cfg.News.Feeds)
	}
	if cfg.News.Feeds[0].RSSURL != "https://example.com/rss" {
		t.Errorf("News.Feeds[0].RSSURL: got %q", cfg.News.Feeds[0].RSSURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q", cfg.Logging.Level, "debug")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format: got %q, want %q", cfg.Logging.Format, "json")
	}

	// Untouched sections keep their defaults.
	if cfg.API.Host != "0.0.0.0" {
		t.Errorf("API.Host should keep default, got %q", cfg.API.Host)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/macrovista.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── Environment overrides ──

func TestEnvOverridesDefaults(t *testing.T) {
	os.Setenv("MACROVISTA_API_PORT", "9999")
	os.Setenv("MACROVISTA_UPSTREAM_FETCH_DELAY_MS", "0")
	os.Setenv("MACROVISTA_LOGGING_LEVEL", "debug")
	defer func() {
		os.Unsetenv("MACROVISTA_API_PORT")
		os.Unsetenv("MACROVISTA_UPSTREAM_FETCH_DELAY_MS")
		os.Unsetenv("MACROVISTA_LOGGING_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.API.Port != 9999 {
		t.Errorf("API.Port: got %d, want 9999 from env", cfg.API.Port)
	}
	if cfg.Upstream.FetchDelayMs != 0 {
		t.Errorf("Upstream.FetchDelayMs: got %d, want 0 from env", cfg.Upstream.FetchDelayMs)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level: got %q, want %q from env", cfg.Logging.Level, "debug")
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	h := homeDir()
	if h == "" {
		t.Error("homeDir() should not return empty string")
	}
}
