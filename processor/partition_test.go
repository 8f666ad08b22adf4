package processor

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uvadev/CanvasBulkFileDelete/model"
)

func makeRecords(n int) []model.TaskRecord {
	records := make([]model.TaskRecord, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, model.TaskRecord{
			UserKey:        fmt.Sprintf("u%04d", i),
			TargetFilename: "essay.docx",
		})
	}
	return records
}

func TestPartition_Empty(t *testing.T) {
	require.Empty(t, Partition(nil))
	require.Empty(t, Partition([]model.TaskRecord{}))
}

func TestPartition_TinyInputsStaySingleChunk(t *testing.T) {
	one := Partition(makeRecords(1))
	require.Len(t, one, 1)
	require.Len(t, one[0], 1)

	two := Partition(makeRecords(2))
	require.Len(t, two, 1)
	require.Len(t, two[0], 2)
}

func TestPartition_ChunkCounts(t *testing.T) {
	tests := []struct {
		total      int
		wantChunks int
		wantSize   int
	}{
		{total: 3, wantChunks: 2, wantSize: 2},
		{total: 7, wantChunks: 4, wantSize: 2},
		{total: 14, wantChunks: 7, wantSize: 2},
		{total: 15, wantChunks: 8, wantSize: 2},
		{total: 70, wantChunks: 7, wantSize: 10},
		{total: 100, wantChunks: 8, wantSize: 14},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("total=%d", tt.total), func(t *testing.T) {
			chunks := Partition(makeRecords(tt.total))
			require.Len(t, chunks, tt.wantChunks)

			// All chunks except the last carry the full chunk size
			for i, chunk := range chunks[:len(chunks)-1] {
				require.Len(t, chunk, tt.wantSize, "chunk %d", i)
			}
			require.LessOrEqual(t, len(chunks[len(chunks)-1]), tt.wantSize)
			require.NotEmpty(t, chunks[len(chunks)-1])
		})
	}
}

func TestPartition_PreservesOrderAndContiguity(t *testing.T) {
	for total := 1; total <= 200; total++ {
		records := makeRecords(total)
		chunks := Partition(records)

		// Concatenating the chunks reproduces the input exactly
		var flat []model.TaskRecord
		for _, chunk := range chunks {
			require.NotEmpty(t, chunk, "total=%d", total)
			flat = append(flat, chunk...)
		}
		require.Equal(t, records, flat, "total=%d", total)

		if total >= 3 {
			require.GreaterOrEqual(t, len(chunks), 2, "total=%d", total)
		}
	}
}
