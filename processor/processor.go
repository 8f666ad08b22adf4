package processor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uvadev/CanvasBulkFileDelete/canvas"
	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/logger"
	"github.com/uvadev/CanvasBulkFileDelete/mapping"
	"github.com/uvadev/CanvasBulkFileDelete/model"
	"github.com/uvadev/CanvasBulkFileDelete/report"
)

type Runner struct {
	source   mapping.Source
	sessions canvas.SessionFactory
	reports  report.Sink
	logger   logger.Logger
	lookup   config.LookupStrategy
	dryRun   bool
}

// NewRunner creates a new Runner with the provided dependencies
func NewRunner(source mapping.Source, sessions canvas.SessionFactory, reports report.Sink, log logger.Logger, lookup config.LookupStrategy, dryRun bool) *Runner {
	// Use NoOpLogger if none provided
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if lookup == "" {
		lookup = config.LookupStrategySISID
	}
	return &Runner{
		source:   source,
		sessions: sessions,
		reports:  reports,
		logger:   log,
		lookup:   lookup,
		dryRun:   dryRun,
	}
}

// RunStats contains statistics from a full deletion run
type RunStats struct {
	TotalTasks     int64  // Tasks read from the mapping source
	Chunks         int64  // Number of chunks the tasks were split into
	Deleted        int64  // Tasks that removed at least one file
	NoMatchingFile int64  // Tasks whose user had no file with the target name
	UserNotFound   int64  // Tasks whose user key resolved to no account
	Errors         int64  // Tasks that failed
	FilesDeleted   int64  // Individual files deleted across all tasks (actual mode)
	WouldDelete    int64  // Individual files that would be deleted (dry-run mode)
	ReportPath     string // Where the run report was written
}

func (s *RunStats) String() string {
	if s.WouldDelete > 0 {
		return fmt.Sprintf("Run (dry-run): tasks=%d, chunks=%d, would_delete=%d files, deleted=%d, no_matching_file=%d, user_not_found=%d, errors=%d",
			s.TotalTasks, s.Chunks, s.WouldDelete, s.Deleted, s.NoMatchingFile, s.UserNotFound, s.Errors)
	}
	return fmt.Sprintf("Run: tasks=%d, chunks=%d, files_deleted=%d, deleted=%d, no_matching_file=%d, user_not_found=%d, errors=%d",
		s.TotalTasks, s.Chunks, s.FilesDeleted, s.Deleted, s.NoMatchingFile, s.UserNotFound, s.Errors)
}

// Run executes one full deletion pass: load the mapping, partition it into
// chunks, process the chunks concurrently and write the run report. A run
// that started processing always produces a report; individual task
// failures are recorded in it rather than aborting the run.
func (r *Runner) Run(ctx context.Context) (*RunStats, error) {
	start := time.Now()
	stats := &RunStats{}

	if r.dryRun {
		r.logger.Info("Starting bulk file deletion run (dry-run mode)")
	} else {
		r.logger.Info("Starting bulk file deletion run")
	}

	// 1. Load the user/filename mapping
	r.logger.Debug("Step 1: Loading mapping records")
	records, err := mapping.Load(ctx, r.source)
	if err != nil {
		r.logger.Error("Failed to load mapping records: %v", err)
		return stats, err
	}
	stats.TotalTasks = int64(len(records))
	r.logger.Info("Loaded %d mapping records from %s source", len(records), r.source.GetType())

	// 2. Partition the records into chunks, one worker per chunk
	r.logger.Debug("Step 2: Partitioning records")
	chunks := Partition(records)
	stats.Chunks = int64(len(chunks))
	r.logger.Info("Partitioned %d records into %d chunks", len(records), len(chunks))

	// 3. Process all chunks
	r.logger.Debug("Step 3: Processing chunks")
	agg := NewAggregator()
	r.processChunks(ctx, chunks, agg, stats)

	// 4. Build and write the run report
	r.logger.Debug("Step 4: Writing run report")
	rep := model.NewRunReport(start, time.Now(), agg.Snapshot())

	path, err := r.reports.Write(start, rep)
	if err != nil {
		r.logger.Error("Failed to write run report to %s: %v", path, err)
		return stats, fmt.Errorf("failed to write run report: %w", err)
	}
	stats.ReportPath = path

	r.logger.Info(stats.String())
	r.logger.Info("Run report written to %s", path)
	return stats, nil
}

// processChunks fans the chunks out to workers and waits for all of them.
// Each worker gets its own API session and walks its chunk in order. A
// failing task is recorded and the worker moves on; nothing aborts the run.
func (r *Runner) processChunks(ctx context.Context, chunks [][]model.TaskRecord, agg *Aggregator, stats *RunStats) {
	if len(chunks) == 0 {
		return
	}

	var totalTasks int64
	for _, chunk := range chunks {
		totalTasks += int64(len(chunk))
	}
	var processedTasks int64

	// Start periodic progress and RPS logging
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	tickerCtx, tickerCancel := context.WithCancel(ctx)
	defer tickerCancel()

	go func() {
		for {
			select {
			case <-tickerCtx.Done():
				return
			case <-ticker.C:
				processed := atomic.LoadInt64(&processedTasks)
				if processed > 0 && processed < totalTasks {
					percentage := float64(processed) / float64(totalTasks) * 100
					r.logger.Info("Progress: %d/%d tasks (%.1f%%)", processed, totalTasks, percentage)
				}
				if rps, ok := r.apiRPS(); ok && rps > 0 {
					r.logger.Verbose("Canvas API: current RPS = %d req/s", rps)
				}
			}
		}
	}()

	r.logger.Debug("Starting %d workers...", len(chunks))

	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(workerID int, chunk []model.TaskRecord) {
			defer wg.Done()

			sess := r.sessions.NewSession()
			r.logger.Debug("[Worker %d] Processing %d tasks", workerID, len(chunk))

			for _, rec := range chunk {
				res := r.processRecord(ctx, workerID, sess, rec)
				agg.Append(rec.UserKey, res.Outcome)

				switch res.Outcome {
				case model.OutcomeDeleted:
					atomic.AddInt64(&stats.Deleted, 1)
					if r.dryRun {
						atomic.AddInt64(&stats.WouldDelete, int64(res.FilesDeleted))
					} else {
						atomic.AddInt64(&stats.FilesDeleted, int64(res.FilesDeleted))
					}
				case model.OutcomeNoMatchingFile:
					atomic.AddInt64(&stats.NoMatchingFile, 1)
				case model.OutcomeUserNotFound:
					atomic.AddInt64(&stats.UserNotFound, 1)
				default:
					atomic.AddInt64(&stats.Errors, 1)
				}

				atomic.AddInt64(&processedTasks, 1)
			}

			r.logger.Debug("[Worker %d] Finished", workerID)
		}(i, chunk)
	}

	wg.Wait()
}

// apiRPS reports the session factory's request rate when it exposes one
func (r *Runner) apiRPS() (int64, bool) {
	meter, ok := r.sessions.(interface{ GetCurrentRPS() int64 })
	if !ok {
		return 0, false
	}
	return meter.GetCurrentRPS(), true
}
