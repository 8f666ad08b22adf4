package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/uvadev/CanvasBulkFileDelete/canvas"
	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/model"
)

// processRecord runs the full workflow for one mapping record against the
// worker's session: resolve the user key to an account, impersonate that
// user, find the files whose display name matches the target exactly and
// delete each one, then stop impersonating. Failures are classified into
// the task result and never escape.
func (r *Runner) processRecord(ctx context.Context, workerID int, sess canvas.Session, rec model.TaskRecord) model.TaskResult {
	result := model.TaskResult{Record: rec}

	// 1. Resolve the user key to a Canvas user
	user, err := r.resolveUser(ctx, sess, rec.UserKey)
	if err != nil {
		if errors.Is(err, canvas.ErrUserNotFound) {
			r.logger.Info("[Worker %d] User %s not found, skipping", workerID, rec.UserKey)
			result.Outcome = model.OutcomeUserNotFound
			return result
		}
		r.logger.Error("[Worker %d] Failed to resolve user %s: %v", workerID, rec.UserKey, err)
		result.Outcome = model.OutcomeError
		result.Err = err
		return result
	}

	// 2. Act as that user for the rest of the task
	if err := sess.BeginImpersonation(user); err != nil {
		r.logger.Error("[Worker %d] Failed to impersonate user %s: %v", workerID, rec.UserKey, err)
		result.Outcome = model.OutcomeError
		result.Err = err
		return result
	}
	defer func() {
		// Ending impersonation is cleanup. A failure here must not change
		// how the task itself is reported.
		if err := sess.EndImpersonation(); err != nil {
			r.logger.Warn("[Worker %d] Failed to end impersonation for user %s: %v", workerID, rec.UserKey, err)
		}
	}()

	// 3. Search the user's personal files. The server matches the search
	//    term as a substring, so the exact name is re-checked client-side.
	matches, err := r.collectMatches(ctx, sess, rec.TargetFilename)
	if err != nil {
		r.logger.Error("[Worker %d] Failed to list files of user %s: %v", workerID, rec.UserKey, err)
		result.Outcome = model.OutcomeError
		result.Err = err
		return result
	}

	if len(matches) == 0 {
		r.logger.Info("[Worker %d] User %s has no file named %q", workerID, rec.UserKey, rec.TargetFilename)
		result.Outcome = model.OutcomeNoMatchingFile
		return result
	}

	// 4. Delete every match. Display names are not unique, so one record
	//    can remove several files.
	for _, file := range matches {
		if r.dryRun {
			r.logger.Info("[Worker %d] Dry-run: would delete file %d (%s) of user %s", workerID, file.ID, file.DisplayName, rec.UserKey)
			result.FilesDeleted++
			continue
		}

		if _, err := sess.DeleteFile(ctx, file.ID, false); err != nil {
			r.logger.Error("[Worker %d] Failed to delete file %d of user %s: %v", workerID, file.ID, rec.UserKey, err)
			result.Outcome = model.OutcomeError
			result.Err = fmt.Errorf("delete file %d: %w", file.ID, err)
			return result
		}

		r.logger.Debug("[Worker %d] Deleted file %d (%s) of user %s", workerID, file.ID, file.DisplayName, rec.UserKey)
		result.FilesDeleted++
	}

	result.Outcome = model.OutcomeDeleted
	return result
}

// resolveUser looks the user up by the identifier kind the runner was
// configured with
func (r *Runner) resolveUser(ctx context.Context, sess canvas.Session, userKey string) (*canvas.User, error) {
	switch r.lookup {
	case config.LookupStrategyCanvasID:
		return sess.ResolveUserByID(ctx, userKey)
	default:
		return sess.ResolveUserBySISID(ctx, userKey)
	}
}

// collectMatches drains the search stream, keeping only files whose display
// name equals the target exactly
func (r *Runner) collectMatches(ctx context.Context, sess canvas.Session, filename string) ([]canvas.File, error) {
	filesCh, errCh := sess.ListPersonalFiles(ctx, filename)

	var matches []canvas.File
	for file := range filesCh {
		if file.DisplayName == filename {
			matches = append(matches, file)
		}
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return matches, nil
}
