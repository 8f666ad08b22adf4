package mapping

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/uvadev/CanvasBulkFileDelete/model"
)

// ParseError describes a malformed mapping line
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("mapping line %d: %s", e.Line, e.Reason)
}

// ParseRecords reads userKey,filename records, one per line. Blank lines are
// skipped and field values are trimmed of surrounding whitespace. Parsing is
// all-or-nothing: the first malformed line fails the whole input, so no task
// runs against a partially understood mapping.
func ParseRecords(r io.Reader) ([]model.TaskRecord, error) {
	var records []model.TaskRecord

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		parts := strings.Split(text, ",")
		if len(parts) != 2 {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("expected 2 comma-separated fields, got %d", len(parts))}
		}

		userKey := strings.TrimSpace(parts[0])
		filename := strings.TrimSpace(parts[1])
		if userKey == "" {
			return nil, &ParseError{Line: line, Reason: "empty user key"}
		}
		if filename == "" {
			return nil, &ParseError{Line: line, Reason: "empty filename"}
		}

		records = append(records, model.TaskRecord{
			UserKey:        userKey,
			TargetFilename: filename,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read mapping input: %w", err)
	}

	return records, nil
}
