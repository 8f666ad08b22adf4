package processor

import "github.com/uvadev/CanvasBulkFileDelete/model"

// Partition splits records into contiguous chunks while preserving input
// order. The chunk size grows with the input (about a seventh of it) but
// never drops below 2, so any input of three or more records is spread
// across at least two chunks. One or two records form a single chunk, and
// an empty input yields no chunks.
func Partition(records []model.TaskRecord) [][]model.TaskRecord {
	if len(records) == 0 {
		return nil
	}

	size := chunkSize(len(records))

	chunks := make([][]model.TaskRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}

// chunkSize clamps total/7 to the range [2, total-1]. For totals of two or
// fewer the bounds cross, so everything fits in one chunk.
func chunkSize(total int) int {
	if total <= 2 {
		return total
	}

	size := total / 7
	if size < 2 {
		size = 2
	}
	if size > total-1 {
		size = total - 1
	}
	return size
}
