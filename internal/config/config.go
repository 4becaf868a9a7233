package config

import (
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"hyperleaf/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `validate:"required"`
	API      APIConfig      `validate:"required"`
	Browser  BrowserConfig
	Export   ExportConfig   `validate:"required"`
	Report   ReportConfig
	Upstream UpstreamConfig
	LogLevel string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string
}

// APIConfig locates the prediction service. The base URL is fixed for the
// lifetime of the process.
type APIConfig struct {
	BaseURL      string        `validate:"required"`
	Timeout      time.Duration
	DefaultToken string
}

// BrowserConfig controls the headless Chrome used for rasterizing
type BrowserConfig struct {
	Bin         string
	DebuggerURL string
	Headless    bool
	Timeout     time.Duration
}

// ExportConfig holds snapshot export settings
type ExportConfig struct {
	Scale         float64
	Background    string
	FilePrefix    string
	ViewportWidth int
	Enabled       bool
}

// ReportConfig holds report rendering settings
type ReportConfig struct {
	TTL              time.Duration
	EchartsAssetHost string
	DefaultLanguage  string
}

// UpstreamConfig is only read by the development prediction service
type UpstreamConfig struct {
	Port        string
	DatabaseURL string
	CORSOrigins []string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:   *loadServerConfig(),
		Browser:  *loadBrowserConfig(),
		Export:   *loadExportConfig(),
		Report:   *loadReportConfig(),
		Upstream: *loadUpstreamConfig(),
		LogLevel: getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	apiConfig, err := loadAPIConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load API configuration")
	}
	config.API = *apiConfig

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadAPIConfig() (*APIConfig, error) {
	base := strings.TrimRight(getEnvOrDefault("HYPERLEAF_API_URL", "http://localhost:8000"), "/")
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.ConfigInvalid("HYPERLEAF_API_URL must be an absolute URL")
	}

	return &APIConfig{
		BaseURL:      base,
		Timeout:      getEnvDurationOrDefault("HYPERLEAF_API_TIMEOUT", 60*time.Second),
		DefaultToken: getEnvOrDefault("HYPERLEAF_DEFAULT_TOKEN", ""),
	}, nil
}

func loadBrowserConfig() *BrowserConfig {
	return &BrowserConfig{
		Bin:         getEnvOrDefault("CHROME_BIN", ""),
		DebuggerURL: getEnvOrDefault("CHROME_DEBUGGER_URL", ""),
		Headless:    getEnvBoolOrDefault("CHROME_HEADLESS", true),
		Timeout:     getEnvDurationOrDefault("CHROME_TIMEOUT", 30*time.Second),
	}
}

func loadExportConfig() *ExportConfig {
	return &ExportConfig{
		Scale:         getEnvFloatOrDefault("EXPORT_SCALE", 2),
		Background:    getEnvOrDefault("EXPORT_BACKGROUND", "#030712"),
		FilePrefix:    getEnvOrDefault("EXPORT_FILE_PREFIX", "HyperLeaf_Report_"),
		ViewportWidth: getEnvIntOrDefault("EXPORT_VIEWPORT_WIDTH", 1024),
		Enabled:       getEnvBoolOrDefault("EXPORT_ENABLED", true),
	}
}

func loadReportConfig() *ReportConfig {
	return &ReportConfig{
		TTL:              getEnvDurationOrDefault("REPORT_TTL", 2*time.Hour),
		EchartsAssetHost: getEnvOrDefault("ECHARTS_ASSETS_HOST", "https://go-echarts.github.io/go-echarts-assets/assets/"),
		DefaultLanguage:  getEnvOrDefault("DEFAULT_LANGUAGE", "en"),
	}
}

func loadUpstreamConfig() *UpstreamConfig {
	return &UpstreamConfig{
		Port:        getEnvOrDefault("UPSTREAM_PORT", "8000"),
		DatabaseURL: getEnvOrDefault("DATABASE_URL", ""),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ORIGINS", "http://localhost:8080,http://127.0.0.1:8080")),
	}
}

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return errors.ConfigInvalid("PORT is required")
	}
	if config.API.BaseURL == "" {
		return errors.ConfigInvalid("prediction API URL is required")
	}
	if config.API.Timeout <= 0 {
		return errors.ConfigInvalid("HYPERLEAF_API_TIMEOUT must be positive")
	}
	if config.Export.Scale < 1 || config.Export.Scale > 4 {
		return errors.ConfigInvalid("EXPORT_SCALE must be between 1 and 4")
	}
	if !hexColor.MatchString(config.Export.Background) {
		return errors.ConfigInvalid("EXPORT_BACKGROUND must be a #rrggbb color")
	}
	if config.Export.FilePrefix == "" {
		return errors.ConfigInvalid("EXPORT_FILE_PREFIX is required")
	}
	if config.Export.ViewportWidth <= 0 {
		return errors.ConfigInvalid("EXPORT_VIEWPORT_WIDTH must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
