package config

import (
	"fmt"
	"os"
)

// ReportConfig holds the configuration for run report output
type ReportConfig struct {
	Dir string `json:"dir" yaml:"dir" toml:"dir"` // Directory where report JSON files are written

	// Optional local store of past run reports
	History *HistoryConfig `json:"history,omitempty" yaml:"history,omitempty" toml:"history,omitempty"`
}

// HistoryConfig holds bbolt-specific configuration for the run history store
type HistoryConfig struct {
	Enabled bool        `json:"enabled" yaml:"enabled" toml:"enabled"`                               // Record run reports in a local DB
	Path    string      `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`          // Path to bbolt DB file
	Bucket  string      `json:"bucket,omitempty" yaml:"bucket,omitempty" toml:"bucket,omitempty"`    // Name of the bucket
	Mode    os.FileMode `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`          // File open mode: "0600", "0644"
	NoSync  bool        `json:"no_sync,omitempty" yaml:"no_sync,omitempty" toml:"no_sync,omitempty"` // Disable fsync for better performance
}

// Validate validates the report configuration
func (rc *ReportConfig) Validate() error {
	if rc.Dir == "" {
		return fmt.Errorf("report dir is required")
	}
	if rc.History != nil && rc.History.Enabled {
		return rc.History.Validate()
	}
	return nil
}

// ApplyDefaults sets default values if they are not provided
func (rc *ReportConfig) ApplyDefaults() {
	if rc.Dir == "" {
		rc.Dir = "./reports"
	}
	if rc.History != nil {
		rc.History.ApplyDefaults()
	}
}

// Validate validates the history store configuration
func (hc *HistoryConfig) Validate() error {
	if hc.Path == "" {
		return fmt.Errorf("history path is required")
	}
	if hc.Bucket == "" {
		return fmt.Errorf("history bucket is required")
	}
	return nil
}

// ApplyDefaults sets default values if not provided for the history store
func (hc *HistoryConfig) ApplyDefaults() {
	if hc.Path == "" {
		hc.Path = "./report-history.db"
	}
	if hc.Bucket == "" {
		hc.Bucket = "runs"
	}
	if hc.Mode == 0 {
		hc.Mode = 0600
	}
	// NoSync remains false by default for data safety
}
