package api

import (
	"fmt"
	"net/url"
	"time"
)

// ClientConfig locates the prediction service
type ClientConfig struct {
	BaseURL      string        `json:"base_url"`
	Timeout      time.Duration `json:"timeout"`
	UserAgent    string        `json:"user_agent"`
	MaxBodyBytes int64         `json:"max_body_bytes"`
	IdentityTTL  time.Duration `json:"identity_ttl"`
}

// DefaultClientConfig returns sensible defaults for a local service
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:      "http://localhost:8000",
		Timeout:      60 * time.Second,
		UserAgent:    "hyperleaf-report/1.0",
		MaxBodyBytes: 32 << 20,
		IdentityTTL:  5 * time.Minute,
	}
}

// Validate checks if the configuration is valid
func (c ClientConfig) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: "BaseURL", Message: "must be an absolute URL"}
	}
	if c.Timeout <= 0 {
		return &ValidationError{Field: "Timeout", Message: "must be positive"}
	}
	if c.IdentityTTL <= 0 {
		return &ValidationError{Field: "IdentityTTL", Message: "must be positive"}
	}
	if c.MaxBodyBytes <= 0 {
		return &ValidationError{Field: "MaxBodyBytes", Message: "must be positive"}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}
