package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// AppConfig represents the complete application configuration
type AppConfig struct {
	API     APIConfig     `json:"api" yaml:"api" toml:"api"`
	Mapping MappingConfig `json:"mapping" yaml:"mapping" toml:"mapping"`
	Report  ReportConfig  `json:"report" yaml:"report" toml:"report"`
	Logger  LoggerConfig  `json:"logger" yaml:"logger" toml:"logger"`
	DryRun  bool          `json:"dry_run" yaml:"dry_run" toml:"dry_run"` // If true, no files are deleted on the Canvas side
}

// Validate validates the entire configuration
func (ac *AppConfig) Validate() error {
	if err := ac.API.Validate(); err != nil {
		return fmt.Errorf("api config error: %w", err)
	}
	if err := ac.Mapping.Validate(); err != nil {
		return fmt.Errorf("mapping config error: %w", err)
	}
	if err := ac.Report.Validate(); err != nil {
		return fmt.Errorf("report config error: %w", err)
	}
	if err := ac.Logger.Validate(); err != nil {
		return fmt.Errorf("logger config error: %w", err)
	}
	return nil
}

// ApplyDefaults applies default values to all components
func (ac *AppConfig) ApplyDefaults() {
	ac.API.ApplyDefaults()
	ac.Mapping.Common.ApplyDefaults()
	ac.Report.ApplyDefaults()
	ac.Logger.ApplyDefaults()

	// Apply defaults for specific configs
	if ac.Mapping.FTP != nil {
		ac.Mapping.FTP.ApplyDefaults()
	}
}

// Default returns the configuration used to seed a freshly created config file
func Default() *AppConfig {
	cfg := &AppConfig{
		API: APIConfig{
			BaseURL: "https://canvas.example.edu",
			Token:   "",
			Lookup:  LookupStrategySISID,
		},
		Mapping: MappingConfig{
			MappingType: MappingTypeFile,
			File:        &FileMappingConfig{Path: "./mapping.csv"},
		},
		Report: ReportConfig{
			Dir: "./reports",
			History: &HistoryConfig{
				Enabled: true,
				Path:    "./report-history.db",
				Bucket:  "runs",
			},
		},
		Logger: LoggerConfig{
			Level: LogLevelInfo,
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

// Load builds the effective configuration: built-in defaults, overlaid by the
// yaml config file, overlaid by environment variables. When the config file
// does not exist, a template is written to its path and created is true so
// the caller can tell the operator to fill in credentials before re-running.
// Flag overrides and validation are left to the caller.
func Load(path string) (cfg *AppConfig, created bool, err error) {
	if _, statErr := os.Stat(path); os.IsNotExist(statErr) {
		cfg = Default()
		data, merr := yaml.Marshal(cfg)
		if merr != nil {
			return nil, false, fmt.Errorf("failed to render default config: %w", merr)
		}
		if werr := os.WriteFile(path, data, 0600); werr != nil {
			return nil, false, fmt.Errorf("failed to write default config %s: %w", path, werr)
		}
		return cfg, true, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg = &AppConfig{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, false, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	cfg.ApplyEnv()
	cfg.ApplyDefaults()
	return cfg, false, nil
}

// ApplyEnv overrides configuration fields from environment variables.
// Only variables that are actually set take effect.
func (ac *AppConfig) ApplyEnv() {
	// General configuration
	ac.DryRun = getEnvBool("DRY_RUN", ac.DryRun)

	// Logger configuration
	ac.Logger.Level = LogLevel(getEnv("LOG_LEVEL", string(ac.Logger.Level)))

	// API configuration
	ac.API.BaseURL = getEnv("CANVAS_BASE_URL", ac.API.BaseURL)
	ac.API.Token = getEnv("CANVAS_API_TOKEN", ac.API.Token)
	ac.API.Lookup = LookupStrategy(getEnv("CANVAS_LOOKUP_STRATEGY", string(ac.API.Lookup)))
	ac.API.TimeoutSeconds = getEnvInt("CANVAS_TIMEOUT_SECONDS", ac.API.TimeoutSeconds)
	ac.API.MaxRetries = getEnvInt("CANVAS_MAX_RETRIES", ac.API.MaxRetries)
	ac.API.MaxRPS = getEnvInt("CANVAS_MAX_RPS", ac.API.MaxRPS)
	ac.API.PageSize = getEnvInt("CANVAS_PAGE_SIZE", ac.API.PageSize)

	// Mapping configuration
	ac.Mapping.MappingType = MappingType(getEnv("MAPPING_TYPE", string(ac.Mapping.MappingType)))
	ac.Mapping.Common.TimeoutSeconds = getEnvInt("MAPPING_TIMEOUT_SECONDS", ac.Mapping.Common.TimeoutSeconds)
	ac.Mapping.Common.MaxRetries = getEnvInt("MAPPING_MAX_RETRIES", ac.Mapping.Common.MaxRetries)

	if v := os.Getenv("MAPPING_FILE_PATH"); v != "" {
		if ac.Mapping.File == nil {
			ac.Mapping.File = &FileMappingConfig{}
		}
		ac.Mapping.File.Path = v
	}

	if hasEnvAny("S3_REGION", "S3_BUCKET", "S3_KEY", "S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY", "S3_ENDPOINT") {
		if ac.Mapping.S3 == nil {
			ac.Mapping.S3 = &S3MappingConfig{}
		}
		ac.Mapping.S3.Region = getEnv("S3_REGION", ac.Mapping.S3.Region)
		ac.Mapping.S3.Bucket = getEnv("S3_BUCKET", ac.Mapping.S3.Bucket)
		ac.Mapping.S3.Key = getEnv("S3_KEY", ac.Mapping.S3.Key)
		ac.Mapping.S3.AccessKeyID = getEnv("S3_ACCESS_KEY_ID", ac.Mapping.S3.AccessKeyID)
		ac.Mapping.S3.SecretAccessKey = getEnv("S3_SECRET_ACCESS_KEY", ac.Mapping.S3.SecretAccessKey)
		ac.Mapping.S3.Endpoint = getEnv("S3_ENDPOINT", ac.Mapping.S3.Endpoint)
	}

	if hasEnvAny("FTP_HOST", "FTP_PORT", "FTP_USERNAME", "FTP_PASSWORD", "FTP_PATH", "FTP_USE_TLS") {
		if ac.Mapping.FTP == nil {
			ac.Mapping.FTP = &FTPMappingConfig{}
		}
		ac.Mapping.FTP.Host = getEnv("FTP_HOST", ac.Mapping.FTP.Host)
		ac.Mapping.FTP.Port = getEnvInt("FTP_PORT", ac.Mapping.FTP.Port)
		ac.Mapping.FTP.Username = getEnv("FTP_USERNAME", ac.Mapping.FTP.Username)
		ac.Mapping.FTP.Password = getEnv("FTP_PASSWORD", ac.Mapping.FTP.Password)
		ac.Mapping.FTP.Path = getEnv("FTP_PATH", ac.Mapping.FTP.Path)
		ac.Mapping.FTP.UseTLS = getEnvBool("FTP_USE_TLS", ac.Mapping.FTP.UseTLS)
	}

	// Report configuration
	ac.Report.Dir = getEnv("REPORT_DIR", ac.Report.Dir)

	if hasEnvAny("REPORT_HISTORY_ENABLED", "REPORT_HISTORY_PATH", "REPORT_HISTORY_BUCKET", "REPORT_HISTORY_NO_SYNC") {
		if ac.Report.History == nil {
			ac.Report.History = &HistoryConfig{}
		}
		ac.Report.History.Enabled = getEnvBool("REPORT_HISTORY_ENABLED", ac.Report.History.Enabled)
		ac.Report.History.Path = getEnv("REPORT_HISTORY_PATH", ac.Report.History.Path)
		ac.Report.History.Bucket = getEnv("REPORT_HISTORY_BUCKET", ac.Report.History.Bucket)
		ac.Report.History.NoSync = getEnvBool("REPORT_HISTORY_NO_SYNC", ac.Report.History.NoSync)
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func hasEnvAny(keys ...string) bool {
	for _, key := range keys {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}
