package processor

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/uvadev/CanvasBulkFileDelete/canvas"
	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/mapping"
	"github.com/uvadev/CanvasBulkFileDelete/report"
)

// Runs a full pass against a live Canvas instance in dry-run mode, so
// nothing is deleted. Requires real credentials and a mapping file.
func TestRun_Integration_DryRun(t *testing.T) {
	baseURL := os.Getenv("CANVAS_BASE_URL")
	token := os.Getenv("CANVAS_API_TOKEN")
	mappingPath := os.Getenv("CANVAS_TEST_MAPPING")

	if baseURL == "" || token == "" || mappingPath == "" {
		t.Skip("Canvas credentials not provided, skipping integration test")
	}

	client, err := canvas.NewClient(&config.APIConfig{
		BaseURL: baseURL,
		Token:   token,
		MaxRPS:  10,
	})
	require.NoError(t, err)

	src, err := mapping.CreateSource(&config.MappingConfig{
		MappingType: config.MappingTypeFile,
		File:        &config.FileMappingConfig{Path: mappingPath},
	})
	require.NoError(t, err)

	sink, err := report.CreateSink(&config.ReportConfig{Dir: t.TempDir()}, nil)
	require.NoError(t, err)
	defer sink.Close()

	r := NewRunner(src, client, sink, nil, config.LookupStrategySISID, true)

	// Start the test
	ctx := context.Background()
	start := time.Now()
	stats, err := r.Run(ctx)
	elapsed := time.Since(start)

	require.NoError(t, err)

	fmt.Printf("Run completed in %s\n", elapsed)
	fmt.Printf("Statistics: %s\n", stats.String())
	fmt.Printf("Report written to: %s\n", stats.ReportPath)
}
