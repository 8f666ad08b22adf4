package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/uvadev/CanvasBulkFileDelete/canvas"
	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/model"
)

// fakeSession implements canvas.Session in memory so the workflow can be
// tested without a server.
type fakeSession struct {
	mu sync.Mutex

	usersBySIS map[string]*canvas.User
	usersByID  map[string]*canvas.User
	files      map[int64][]canvas.File // personal files keyed by owner ID

	resolveErr error
	listErr    error
	deleteErr  error
	endErr     error

	impersonating int64
	searches      []string
	deleted       []int64
	begins        int
	ends          int
}

var _ canvas.Session = (*fakeSession)(nil)

func (f *fakeSession) ResolveUserBySISID(ctx context.Context, sisID string) (*canvas.User, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if u, ok := f.usersBySIS[sisID]; ok {
		return u, nil
	}
	return nil, canvas.ErrUserNotFound
}

func (f *fakeSession) ResolveUserByID(ctx context.Context, id string) (*canvas.User, error) {
	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	if u, ok := f.usersByID[id]; ok {
		return u, nil
	}
	return nil, canvas.ErrUserNotFound
}

func (f *fakeSession) BeginImpersonation(user *canvas.User) error {
	if user == nil || user.ID == 0 {
		return errors.New("missing user id")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.impersonating != 0 {
		return fmt.Errorf("already impersonating user %d", f.impersonating)
	}
	f.impersonating = user.ID
	f.begins++
	return nil
}

func (f *fakeSession) EndImpersonation() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.impersonating == 0 {
		return errors.New("no impersonation in progress")
	}
	f.impersonating = 0
	f.ends++
	return f.endErr
}

func (f *fakeSession) ListPersonalFiles(ctx context.Context, searchTerm string) (<-chan canvas.File, <-chan error) {
	f.mu.Lock()
	f.searches = append(f.searches, searchTerm)
	owned := f.files[f.impersonating]
	listErr := f.listErr
	f.mu.Unlock()

	filesCh := make(chan canvas.File, len(owned))
	errCh := make(chan error, 1)

	if listErr != nil {
		errCh <- listErr
	} else {
		// The server treats the search term as a substring match
		for _, file := range owned {
			if strings.Contains(file.DisplayName, searchTerm) {
				filesCh <- file
			}
		}
	}
	close(filesCh)
	close(errCh)
	return filesCh, errCh
}

func (f *fakeSession) DeleteFile(ctx context.Context, fileID int64, permanent bool) (*canvas.File, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return &canvas.File{ID: fileID}, nil
}

// fakeFactory hands every worker its own fakeSession built from the same
// template.
type fakeFactory struct {
	mu       sync.Mutex
	build    func() *fakeSession
	sessions []*fakeSession
}

var _ canvas.SessionFactory = (*fakeFactory)(nil)

func (f *fakeFactory) NewSession() canvas.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := f.build()
	f.sessions = append(f.sessions, s)
	return s
}

func newAliceSession() *fakeSession {
	alice := &canvas.User{ID: 11, Name: "Alice Doe", SISUserID: "u1001"}
	return &fakeSession{
		usersBySIS: map[string]*canvas.User{"u1001": alice},
		usersByID:  map[string]*canvas.User{"11": alice},
		files: map[int64][]canvas.File{
			11: {
				{ID: 1, DisplayName: "essay.docx"},
				{ID: 2, DisplayName: "essay.docx.bak"},
				{ID: 3, DisplayName: "old-essay.docx"},
				{ID: 4, DisplayName: "essay.docx"},
			},
		},
	}
}

func newWorkflowRunner(lookup config.LookupStrategy, dryRun bool) *Runner {
	return NewRunner(nil, nil, nil, nil, lookup, dryRun)
}

func TestProcessRecord_DeletesExactMatchesOnly(t *testing.T) {
	sess := newAliceSession()
	r := newWorkflowRunner(config.LookupStrategySISID, false)

	res := r.processRecord(context.Background(), 0, sess, model.TaskRecord{UserKey: "u1001", TargetFilename: "essay.docx"})

	require.Equal(t, model.OutcomeDeleted, res.Outcome)
	require.NoError(t, res.Err)
	require.Equal(t, 2, res.FilesDeleted)

	// Near matches returned by the substring search stay untouched
	require.Equal(t, []int64{1, 4}, sess.deleted)

	// Impersonation is balanced around the task
	require.Equal(t, 1, sess.begins)
	require.Equal(t, 1, sess.ends)
	require.Zero(t, sess.impersonating)
}

func TestProcessRecord_NoMatchingFile(t *testing.T) {
	sess := newAliceSession()
	r := newWorkflowRunner(config.LookupStrategySISID, false)

	res := r.processRecord(context.Background(), 0, sess, model.TaskRecord{UserKey: "u1001", TargetFilename: "transcript.pdf"})

	require.Equal(t, model.OutcomeNoMatchingFile, res.Outcome)
	require.Zero(t, res.FilesDeleted)
	require.Empty(t, sess.deleted)
	require.Equal(t, 1, sess.ends)
}

func TestProcessRecord_UserNotFound(t *testing.T) {
	sess := newAliceSession()
	r := newWorkflowRunner(config.LookupStrategySISID, false)

	res := r.processRecord(context.Background(), 0, sess, model.TaskRecord{UserKey: "ghost", TargetFilename: "essay.docx"})

	require.Equal(t, model.OutcomeUserNotFound, res.Outcome)
	require.NoError(t, res.Err)
	require.Zero(t, sess.begins)
}

func TestProcessRecord_ResolveFailure(t *testing.T) {
	sess := newAliceSession()
	sess.resolveErr = errors.New("all retries failed: connection refused")
	r := newWorkflowRunner(config.LookupStrategySISID, false)

	res := r.processRecord(context.Background(), 0, sess, model.TaskRecord{UserKey: "u1001", TargetFilename: "essay.docx"})

	require.Equal(t, model.OutcomeError, res.Outcome)
	require.Error(t, res.Err)
	require.Zero(t, sess.begins)
}

func TestProcessRecord_CanvasIDLookup(t *testing.T) {
	sess := newAliceSession()
	r := newWorkflowRunner(config.LookupStrategyCanvasID, false)

	res := r.processRecord(context.Background(), 0, sess, model.TaskRecord{UserKey: "11", TargetFilename: "essay.docx"})

	require.Equal(t, model.OutcomeDeleted, res.Outcome)
	require.Equal(t, []int64{1, 4}, sess.deleted)
}

func TestProcessRecord_ListFailure(t *testing.T) {
	sess := newAliceSession()
	sess.listErr = errors.New("listing returned 500 Internal Server Error")
	r := newWorkflowRunner(config.LookupStrategySISID, false)

	res := r.processRecord(context.Background(), 0, sess, model.TaskRecord{UserKey: "u1001", TargetFilename: "essay.docx"})

	require.Equal(t, model.OutcomeError, res.Outcome)
	require.Error(t, res.Err)
	require.Empty(t, sess.deleted)
	require.Equal(t, 1, sess.ends)
}

func TestProcessRecord_DeleteFailure(t *testing.T) {
	sess := newAliceSession()
	sess.deleteErr = errors.New("deletion returned 401 Unauthorized")
	r := newWorkflowRunner(config.LookupStrategySISID, false)

	res := r.processRecord(context.Background(), 0, sess, model.TaskRecord{UserKey: "u1001", TargetFilename: "essay.docx"})

	require.Equal(t, model.OutcomeError, res.Outcome)
	require.Error(t, res.Err)
	require.Zero(t, res.FilesDeleted)
	require.Equal(t, 1, sess.ends)
}

func TestProcessRecord_EndFailureDoesNotChangeOutcome(t *testing.T) {
	sess := newAliceSession()
	sess.endErr = errors.New("session expired")
	r := newWorkflowRunner(config.LookupStrategySISID, false)

	res := r.processRecord(context.Background(), 0, sess, model.TaskRecord{UserKey: "u1001", TargetFilename: "essay.docx"})

	require.Equal(t, model.OutcomeDeleted, res.Outcome)
	require.NoError(t, res.Err)
	require.Equal(t, 2, res.FilesDeleted)
	require.Equal(t, 1, sess.ends)
}

func TestProcessRecord_DryRunSkipsDeletion(t *testing.T) {
	sess := newAliceSession()
	r := newWorkflowRunner(config.LookupStrategySISID, true)

	res := r.processRecord(context.Background(), 0, sess, model.TaskRecord{UserKey: "u1001", TargetFilename: "essay.docx"})

	require.Equal(t, model.OutcomeDeleted, res.Outcome)
	require.Equal(t, 2, res.FilesDeleted)
	require.Empty(t, sess.deleted)
}
