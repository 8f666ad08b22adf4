package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/logger"
	"github.com/uvadev/CanvasBulkFileDelete/model"
)

// stampLayout names report files and keys history entries. Lexicographic
// order of stamps matches chronological order.
const stampLayout = "20060102-150405"

var _ Sink = (*Writer)(nil)

// Writer writes run reports as JSON files into a directory and optionally
// records them in the run history store.
type Writer struct {
	dir     string
	history *History
	logger  logger.Logger
}

// NewWriter creates a new Writer based on configuration
func NewWriter(cfg *config.ReportConfig, log logger.Logger) (*Writer, error) {
	// Apply defaults to ensure required values are set
	cfg.ApplyDefaults()

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report config: %w", err)
	}

	// Use NoOpLogger if none provided
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	var history *History
	if cfg.History != nil && cfg.History.Enabled {
		h, err := OpenHistory(cfg.History)
		if err != nil {
			return nil, fmt.Errorf("failed to open run history: %w", err)
		}
		history = h
	}

	return &Writer{
		dir:     cfg.Dir,
		history: history,
		logger:  log,
	}, nil
}

// Write stores the report as report-<stamp>.json in the report directory,
// where the stamp is derived from the run start time. The file is created
// exclusively, so a second run started within the same second fails instead
// of overwriting the first report.
func (w *Writer) Write(start time.Time, rep *model.RunReport) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(w.dir, fmt.Sprintf("report-%s.json", start.Format(stampLayout)))

	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return path, fmt.Errorf("failed to encode report: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return path, fmt.Errorf("failed to create report file: %w", err)
	}

	_, writeErr := f.Write(data)
	closeErr := f.Close()
	if writeErr != nil {
		return path, fmt.Errorf("failed to write report file: %w", writeErr)
	}
	if closeErr != nil {
		return path, fmt.Errorf("failed to close report file: %w", closeErr)
	}

	// History is best effort: the report file on disk is the source of truth
	if w.history != nil {
		if err := w.history.Record(start, rep); err != nil {
			w.logger.Warn("Failed to record run in history: %v", err)
		}
	}

	return path, nil
}

// History returns the underlying run history store, or nil when history is
// disabled.
func (w *Writer) History() *History {
	return w.history
}

func (w *Writer) Close() error {
	if w.history != nil {
		return w.history.Close()
	}
	return nil
}
