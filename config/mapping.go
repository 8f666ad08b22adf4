// The mapping configuration is designed to allow adding other input sources in the future. To do this, you need to add a new MappingType, update MappingConfig, and define the validation for the new source.
package config

import "fmt"

// MappingType represents where the user/filename mapping input is read from
type MappingType string

const (
	MappingTypeFile MappingType = "file" // Default: local file
	MappingTypeS3   MappingType = "s3"   // Object in an S3 (or S3-compatible) bucket
	MappingTypeFTP  MappingType = "ftp"  // File on an FTP server
)

// MappingConfig holds the configuration for the mapping input source
type MappingConfig struct {
	MappingType MappingType `json:"type" yaml:"type" toml:"type"`

	// Common options for all mapping sources
	Common CommonMappingConfig `json:"common,omitempty" yaml:"common,omitempty" toml:"common,omitempty"`

	// Type-specific configurations
	File *FileMappingConfig `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty"`
	S3   *S3MappingConfig   `json:"s3,omitempty" yaml:"s3,omitempty" toml:"s3,omitempty"`
	FTP  *FTPMappingConfig  `json:"ftp,omitempty" yaml:"ftp,omitempty" toml:"ftp,omitempty"`
}

// CommonMappingConfig contains general settings applicable to all mapping sources
type CommonMappingConfig struct {
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty" toml:"timeout_seconds,omitempty"` // optional: fetch timeout in seconds
	MaxRetries     int `json:"max_retries,omitempty" yaml:"max_retries,omitempty" toml:"max_retries,omitempty"`             // optional: maximum number of retries for remote fetches
}

// FileMappingConfig holds local-file specific configuration
type FileMappingConfig struct {
	Path string `json:"path" yaml:"path" toml:"path"` // Path to the mapping file
}

// S3MappingConfig holds S3-specific configuration
type S3MappingConfig struct {
	Region          string `json:"region,omitempty" yaml:"region,omitempty" toml:"region,omitempty"`
	Bucket          string `json:"bucket" yaml:"bucket" toml:"bucket"`
	Key             string `json:"key" yaml:"key" toml:"key"` // Object key of the mapping file
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty" toml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty" toml:"secret_access_key,omitempty"`
	Endpoint        string `json:"endpoint,omitempty" yaml:"endpoint,omitempty" toml:"endpoint,omitempty"` // For S3-compatible services
}

// FTPMappingConfig holds FTP-specific configuration
type FTPMappingConfig struct {
	Host     string `json:"host" yaml:"host" toml:"host"`                                           // FTP server host
	Port     int    `json:"port" yaml:"port" toml:"port"`                                           // FTP server port (default: 21)
	Username string `json:"username" yaml:"username" toml:"username"`                               // FTP username
	Password string `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"` // FTP password
	Path     string `json:"path" yaml:"path" toml:"path"`                                           // Path of the mapping file on the server
	UseTLS   bool   `json:"use_tls,omitempty" yaml:"use_tls,omitempty" toml:"use_tls,omitempty"`    // Use FTPS (FTP over TLS)
}

// Validate ensures the configuration is valid for the specified mapping type
func (mc *MappingConfig) Validate() error {
	if err := mc.Common.Validate(); err != nil {
		return err
	}

	switch mc.MappingType {
	case MappingTypeFile:
		if mc.File == nil {
			return fmt.Errorf("file configuration is required when type is 'file'")
		}
		return mc.File.Validate()
	case MappingTypeS3:
		if mc.S3 == nil {
			return fmt.Errorf("s3 configuration is required when type is 's3'")
		}
		return mc.S3.Validate()
	case MappingTypeFTP:
		if mc.FTP == nil {
			return fmt.Errorf("ftp configuration is required when type is 'ftp'")
		}
		return mc.FTP.Validate()
	default:
		return fmt.Errorf("unsupported mapping type: %s", mc.MappingType)
	}
}

// Validate validates common mapping settings
func (c *CommonMappingConfig) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	return nil
}

// ApplyDefaults sets default values if they are not provided
func (c *CommonMappingConfig) ApplyDefaults() {
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
}

// Validate validates local-file configuration
func (fc *FileMappingConfig) Validate() error {
	if fc.Path == "" {
		return fmt.Errorf("mapping file path is required")
	}
	return nil
}

// Validate validates S3 configuration
func (s3c *S3MappingConfig) Validate() error {
	if s3c.Bucket == "" {
		return fmt.Errorf("s3 bucket is required")
	}
	if s3c.Key == "" {
		return fmt.Errorf("s3 key is required")
	}
	if s3c.AccessKeyID != "" && s3c.SecretAccessKey == "" {
		return fmt.Errorf("s3 secret key is required when access key is set")
	}
	return nil
}

// Validate validates FTP configuration
func (fc *FTPMappingConfig) Validate() error {
	if fc.Host == "" {
		return fmt.Errorf("ftp host is required")
	}
	if fc.Port <= 0 || fc.Port > 65535 {
		return fmt.Errorf("ftp port must be between 1 and 65535")
	}
	if fc.Username == "" {
		return fmt.Errorf("ftp username is required")
	}
	if fc.Path == "" {
		return fmt.Errorf("ftp path is required")
	}
	// Password can be empty for anonymous FTP
	return nil
}

// ApplyDefaults sets default values if they are not provided for FTP
func (fc *FTPMappingConfig) ApplyDefaults() {
	if fc.Port == 0 {
		fc.Port = 21
	}
}
