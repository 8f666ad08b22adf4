package config

import "fmt"

// LookupStrategy defines how user keys from the mapping input are resolved
// to Canvas accounts.
type LookupStrategy string

const (
	LookupStrategySISID    LookupStrategy = "sis_id"    // Default: keys are SIS user IDs (sis_user_id:<key> lookups)
	LookupStrategyCanvasID LookupStrategy = "canvas_id" // Keys are numeric Canvas user IDs
)

// APIConfig holds the configuration for the Canvas REST API client
type APIConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url" toml:"base_url"` // Canvas instance root, e.g. https://canvas.example.edu
	Token   string `json:"token" yaml:"token" toml:"token"`          // Bearer token of the acting administrator

	Lookup LookupStrategy `json:"lookup_strategy,omitempty" yaml:"lookup_strategy,omitempty" toml:"lookup_strategy,omitempty"` // optional: how mapping user keys are resolved

	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"` // optional: per-request timeout in seconds
	MaxRetries     int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" toml:"max_retries,omitempty"`             // optional: maximum number of retries for API calls
	MaxRPS         int `json:"max_rps,omitempty" yaml:"max_rps,omitempty" toml:"max_rps,omitempty"`                         // optional: maximum requests per second to the API (0 = no limit)
	PageSize       int `json:"page_size,omitempty" yaml:"page_size,omitempty" toml:"page_size,omitempty"`                   // optional: per_page used for file listings
}

// Validate validates the API configuration
func (ac *APIConfig) Validate() error {
	if ac.BaseURL == "" {
		return fmt.Errorf("api base_url is required")
	}
	if ac.Token == "" {
		return fmt.Errorf("api token is required")
	}

	switch ac.Lookup {
	case LookupStrategySISID, LookupStrategyCanvasID:
		// Valid strategies
	case "":
		// Empty is OK, will be set to default in ApplyDefaults
	default:
		return fmt.Errorf("unsupported lookup strategy: %s (must be 'sis_id' or 'canvas_id')", ac.Lookup)
	}

	if ac.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if ac.MaxRPS < 0 {
		return fmt.Errorf("max_rps cannot be negative")
	}
	return nil
}

// ApplyDefaults sets default values if they are not provided
func (ac *APIConfig) ApplyDefaults() {
	if ac.Lookup == "" {
		ac.Lookup = LookupStrategySISID
	}
	if ac.TimeoutSeconds <= 0 {
		ac.TimeoutSeconds = 30
	}
	if ac.MaxRetries <= 0 {
		ac.MaxRetries = 3
	}
	if ac.PageSize <= 0 {
		ac.PageSize = 100
	}
	// MaxRPS leave 0 (means no limit)
}
