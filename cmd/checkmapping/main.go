package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/mapping"
)

// Standalone checker that fetches and parses the mapping input without
// touching the Canvas API. Useful to vet a mapping before a deletion run.
func main() {
	ctx := context.Background()

	// Creating configuration from ENV
	cfg := &config.MappingConfig{
		MappingType: config.MappingType(getEnvDefault("MAPPING_TYPE", string(config.MappingTypeFile))),
		Common: config.CommonMappingConfig{
			TimeoutSeconds: mustGetEnvInt("MAPPING_TIMEOUT_SECONDS", 30),
			MaxRetries:     mustGetEnvInt("MAPPING_MAX_RETRIES", 3),
		},
	}

	switch cfg.MappingType {
	case config.MappingTypeFile:
		cfg.File = &config.FileMappingConfig{Path: getEnvDefault("MAPPING_FILE_PATH", "./mapping.csv")}
	case config.MappingTypeS3:
		cfg.S3 = &config.S3MappingConfig{
			Region:          os.Getenv("S3_REGION"),
			Bucket:          os.Getenv("S3_BUCKET"),
			Key:             os.Getenv("S3_KEY"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
		}
	case config.MappingTypeFTP:
		cfg.FTP = &config.FTPMappingConfig{
			Host:     os.Getenv("FTP_HOST"),
			Port:     mustGetEnvInt("FTP_PORT", 21),
			Username: os.Getenv("FTP_USERNAME"),
			Password: os.Getenv("FTP_PASSWORD"),
			Path:     os.Getenv("FTP_PATH"),
			UseTLS:   os.Getenv("FTP_USE_TLS") == "true",
		}
	}

	src, err := mapping.CreateSource(cfg)
	if err != nil {
		log.Fatalf("Failed to create mapping source: %v", err)
	}

	start := time.Now()
	records, err := mapping.Load(ctx, src)
	if err != nil {
		log.Fatalf("Mapping check failed: %v", err)
	}

	seen := make(map[string]int, len(records))
	for _, rec := range records {
		seen[rec.UserKey]++
	}

	duplicates := 0
	for _, n := range seen {
		if n > 1 {
			duplicates++
		}
	}

	fmt.Printf("Mapping OK: %d records, %d distinct user keys in %s\n", len(records), len(seen), time.Since(start))
	if duplicates > 0 {
		fmt.Printf("Note: %d user keys appear more than once; the run report keeps the last outcome per key\n", duplicates)
	}
}

// getEnvDefault returns the environment value or the default when unset
func getEnvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// mustGetEnvInt tries to parse an environment variable as int, returns default if not set or invalid
func mustGetEnvInt(key string, def int) int {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Printf("Invalid int value for %s: %v. Using default: %d", key, err, def)
		return def
	}
	return i
}
