package mapping

import (
	"context"
	"fmt"
	"io"

	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/model"
)

// Source provides the raw mapping input stream
type Source interface {
	// Open returns a reader over the raw mapping bytes. The caller must close it.
	Open(ctx context.Context) (io.ReadCloser, error)
	// GetType returns the source type for logging
	GetType() string
}

func CreateSource(cfg *config.MappingConfig) (Source, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid mapping configuration: %w", err)
	}

	switch cfg.MappingType {
	case config.MappingTypeFile:
		return NewFileSource(cfg.File)
	case config.MappingTypeS3:
		return NewS3Source(cfg.S3, &cfg.Common)
	case config.MappingTypeFTP:
		return NewFTPSource(cfg.FTP, &cfg.Common)
	default:
		return nil, fmt.Errorf("unsupported mapping type: %s", cfg.MappingType)
	}
}

// Load opens the source, parses all records, and closes the reader
func Load(ctx context.Context, src Source) ([]model.TaskRecord, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s mapping source: %w", src.GetType(), err)
	}
	defer rc.Close()

	return ParseRecords(rc)
}
