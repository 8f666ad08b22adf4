package mapping

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uvadev/CanvasBulkFileDelete/config"
)

// getFTPConfigFromEnv reads FTP configuration from environment variables for integration testing
func getFTPConfigFromEnv() *config.FTPMappingConfig {
	host := os.Getenv("FTP_HOST")
	username := os.Getenv("FTP_USERNAME")

	if host == "" || username == "" {
		return nil
	}

	cfg := &config.FTPMappingConfig{
		Host:     host,
		Username: username,
		Password: os.Getenv("FTP_PASSWORD"),
		Path:     os.Getenv("FTP_PATH"),
	}

	if port := os.Getenv("FTP_PORT"); port != "" {
		// Parse port if provided
		var p int
		if _, err := fmt.Sscanf(port, "%d", &p); err == nil {
			cfg.Port = p
		}
	}

	return cfg
}

func TestNewFTPSource_InvalidConfig(t *testing.T) {
	tests := []struct {
		name         string
		cfg          *config.FTPMappingConfig
		errorMessage string
	}{
		{
			name:         "missing host",
			cfg:          &config.FTPMappingConfig{Username: "user", Path: "/mapping.csv"},
			errorMessage: "ftp host is required",
		},
		{
			name:         "missing username",
			cfg:          &config.FTPMappingConfig{Host: "ftp.example.com", Path: "/mapping.csv"},
			errorMessage: "ftp username is required",
		},
		{
			name:         "missing path",
			cfg:          &config.FTPMappingConfig{Host: "ftp.example.com", Username: "user"},
			errorMessage: "ftp path is required",
		},
		{
			name:         "invalid port",
			cfg:          &config.FTPMappingConfig{Host: "ftp.example.com", Username: "user", Path: "/mapping.csv", Port: 70000},
			errorMessage: "ftp port must be between",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewFTPSource(tt.cfg, &config.CommonMappingConfig{})
			require.Error(t, err)
			require.Nil(t, src)
			require.Contains(t, err.Error(), tt.errorMessage)
		})
	}
}

func TestFTPSource_Open_Integration(t *testing.T) {
	cfg := getFTPConfigFromEnv()
	if cfg == nil {
		t.Skip("Skipping test because FTP environment variables are not set")
	}

	src, err := NewFTPSource(cfg, &config.CommonMappingConfig{})
	require.NoError(t, err)

	reader, err := src.Open(context.Background())
	require.NoError(t, err)
	defer reader.Close()

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	t.Logf("Fetched %d bytes from FTP", len(content))
}
