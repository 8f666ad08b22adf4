package report

import (
	"errors"
	"fmt"
	"time"

	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/logger"
	"github.com/uvadev/CanvasBulkFileDelete/model"
)

// Sink persists the report of a finished run
type Sink interface {
	// Write stores the report and returns the location it was written to
	Write(start time.Time, rep *model.RunReport) (string, error)
	Close() error
}

var (
	ErrBucketNotFound error = errors.New("bucket not found")
	ErrRunNotFound    error = errors.New("run not found")
)

func CreateSink(cfg *config.ReportConfig, log logger.Logger) (Sink, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return NewWriter(cfg, log)
}
