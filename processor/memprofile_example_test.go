package processor

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/uvadev/CanvasBulkFileDelete/canvas"
	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/logger"
)

// TestRun_DebugLogging_Example exercises the full logging path during a
// large dry run without touching a server
func TestRun_DebugLogging_Example(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping logging example in short mode")
	}

	const totalRecords = 5000

	users := make(map[string]*canvas.User, totalRecords)
	files := make(map[int64][]canvas.File, totalRecords)
	var lines strings.Builder
	for i := 0; i < totalRecords; i++ {
		key := fmt.Sprintf("user%06d", i)
		id := int64(i + 1)
		users[key] = &canvas.User{ID: id}
		files[id] = []canvas.File{{ID: id, DisplayName: "cleanup-target.docx"}}
		fmt.Fprintf(&lines, "%s,cleanup-target.docx\n", key)
	}

	factory := &fakeFactory{build: func() *fakeSession {
		return &fakeSession{usersBySIS: users, files: files}
	}}
	sink := &fakeSink{}

	// Full debug output, discarded so the test log stays readable
	logCfg := &config.LoggerConfig{
		Level:      config.LogLevelDebug,
		AddSource:  false,
		TimeFormat: "15:04:05",
	}
	log := logger.NewLoggerWithWriter(logCfg, io.Discard)

	r := NewRunner(&stringSource{data: lines.String()}, factory, sink, log, config.LookupStrategySISID, true)

	t.Logf("Running dry-run pass over %d records (debug logging enabled)...", totalRecords)
	stats, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(totalRecords), stats.Deleted)
	require.Equal(t, int64(totalRecords), stats.WouldDelete)

	t.Logf("Completed: %s", stats.String())
}
