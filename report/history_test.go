package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/model"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(&config.HistoryConfig{
		Enabled: true,
		Path:    filepath.Join(t.TempDir(), "history.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func TestHistory_RecordAndGet(t *testing.T) {
	h := newTestHistory(t)

	start := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	rep := testReport(start, start.Add(time.Minute))

	require.NoError(t, h.Record(start, rep))

	archived, err := h.Get("20240315-103000")
	require.NoError(t, err)
	require.Equal(t, rep.DateStarted, archived.DateStarted)
	require.Equal(t, rep.UserNotFound, archived.UserNotFound)

	_, err = h.Get("19700101-000000")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestHistory_List_ChronologicalOrder(t *testing.T) {
	h := newTestHistory(t)

	// Record out of time order
	for _, hour := range []int{12, 9, 15} {
		start := time.Date(2024, 3, 15, hour, 0, 0, 0, time.UTC)
		require.NoError(t, h.Record(start, testReport(start, start.Add(time.Minute))))
	}

	records, err := h.List()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "20240315-090000", records[0].Stamp)
	require.Equal(t, "20240315-120000", records[1].Stamp)
	require.Equal(t, "20240315-150000", records[2].Stamp)
}

func TestHistory_RecordOverwrites(t *testing.T) {
	h := newTestHistory(t)

	start := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

	first := model.NewRunReport(start, start.Add(time.Minute), model.OutcomeSets{
		Deleted: []string{"u1001"},
	})
	second := model.NewRunReport(start, start.Add(2*time.Minute), model.OutcomeSets{
		Deleted: []string{"u1001", "u1002"},
	})

	require.NoError(t, h.Record(start, first))
	require.NoError(t, h.Record(start, second))

	count, err := h.Count()
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	archived, err := h.Get("20240315-103000")
	require.NoError(t, err)
	require.Equal(t, second.CompletedWithDeletion, archived.CompletedWithDeletion)
}
