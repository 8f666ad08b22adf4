package processor

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uvadev/CanvasBulkFileDelete/model"
)

func TestAggregator_SnapshotCategorizes(t *testing.T) {
	agg := NewAggregator()

	agg.Append("u1003", model.OutcomeNoMatchingFile)
	agg.Append("u1001", model.OutcomeDeleted)
	agg.Append("u1004", model.OutcomeUserNotFound)
	agg.Append("u1002", model.OutcomeDeleted)
	agg.Append("u1005", model.OutcomeError)

	require.Equal(t, 5, agg.Len())

	sets := agg.Snapshot()
	require.Equal(t, []string{"u1001", "u1002"}, sets.Deleted)
	require.Equal(t, []string{"u1003"}, sets.NoMatchingFile)
	require.Equal(t, []string{"u1004"}, sets.UserNotFound)
	require.Equal(t, []string{"u1005"}, sets.Errors)
}

func TestAggregator_LastOutcomeWinsPerKey(t *testing.T) {
	agg := NewAggregator()

	// The same user key can appear in several mapping records. All appends
	// are retained, but the report places the key in a single category.
	agg.Append("carol", model.OutcomeError)
	agg.Append("carol", model.OutcomeDeleted)

	require.Equal(t, 2, agg.Len())

	sets := agg.Snapshot()
	require.Equal(t, []string{"carol"}, sets.Deleted)
	require.Empty(t, sets.Errors)
	require.Empty(t, sets.NoMatchingFile)
	require.Empty(t, sets.UserNotFound)
}

func TestAggregator_DuplicateKeySameCategory(t *testing.T) {
	agg := NewAggregator()

	agg.Append("carol", model.OutcomeDeleted)
	agg.Append("carol", model.OutcomeDeleted)

	require.Equal(t, 2, agg.Len())
	require.Equal(t, []string{"carol"}, agg.Snapshot().Deleted)
}

func TestAggregator_EmptySnapshot(t *testing.T) {
	sets := NewAggregator().Snapshot()

	// Sets must be present even when empty so the report serializes arrays
	require.NotNil(t, sets.Deleted)
	require.NotNil(t, sets.NoMatchingFile)
	require.NotNil(t, sets.UserNotFound)
	require.NotNil(t, sets.Errors)
	require.Empty(t, sets.Deleted)
}

func TestAggregator_ConcurrentAppends(t *testing.T) {
	agg := NewAggregator()

	const workers = 10
	const perWorker = 100

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				key := fmt.Sprintf("w%d-u%03d", workerID, i)
				agg.Append(key, model.OutcomeDeleted)
			}
		}(w)
	}
	wg.Wait()

	require.Equal(t, workers*perWorker, agg.Len())

	sets := agg.Snapshot()
	require.Len(t, sets.Deleted, workers*perWorker)
	require.Empty(t, sets.Errors)
}
