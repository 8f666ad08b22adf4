package mapping

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/uvadev/CanvasBulkFileDelete/config"
)

var _ Source = (*FileSource)(nil)

// FileSource reads the mapping from a local file
type FileSource struct {
	config *config.FileMappingConfig
}

func NewFileSource(cfg *config.FileMappingConfig) (*FileSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid file config: %w", err)
	}
	return &FileSource{config: cfg}, nil
}

func (s *FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.config.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping file %s: %w", s.config.Path, err)
	}
	return f, nil
}

func (s *FileSource) GetType() string {
	return string(config.MappingTypeFile)
}
