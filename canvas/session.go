package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

// SessionFactory creates isolated API sessions, one per worker.
type SessionFactory interface {
	NewSession() Session
}

// Session is a worker's private view of the Canvas API. It carries its own
// HTTP state and impersonation scope and is not safe for concurrent use.
type Session interface {
	// ResolveUserBySISID looks up a user by SIS ID.
	// Returns ErrUserNotFound when no such account exists.
	ResolveUserBySISID(ctx context.Context, sisID string) (*User, error)
	// ResolveUserByID looks up a user by numeric Canvas ID.
	// Returns ErrUserNotFound when no such account exists.
	ResolveUserByID(ctx context.Context, id string) (*User, error)
	// BeginImpersonation makes subsequent calls act as the given user.
	BeginImpersonation(user *User) error
	// EndImpersonation reverts the session to the token's own identity.
	EndImpersonation() error
	// ListPersonalFiles streams the impersonated user's personal files
	// matching the search term, fetching pages lazily.
	ListPersonalFiles(ctx context.Context, searchTerm string) (<-chan File, <-chan error)
	// DeleteFile deletes a file by ID. When permanent is false the file is
	// moved to the user's trash on the Canvas side.
	DeleteFile(ctx context.Context, fileID int64, permanent bool) (*File, error)
}

var _ Session = (*apiSession)(nil)

type apiSession struct {
	client  *Client
	http    *http.Client
	actAsID int64 // non-zero while impersonating
}

func (s *apiSession) ResolveUserBySISID(ctx context.Context, sisID string) (*User, error) {
	return s.fetchUser(ctx, "/api/v1/users/sis_user_id:"+url.PathEscape(sisID))
}

func (s *apiSession) ResolveUserByID(ctx context.Context, id string) (*User, error) {
	return s.fetchUser(ctx, "/api/v1/users/"+url.PathEscape(id))
}

func (s *apiSession) fetchUser(ctx context.Context, path string) (*User, error) {
	resp, err := s.do(ctx, http.MethodGet, s.buildURL(path, nil))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, fmt.Errorf("failed to decode user: %w", err)
		}
		return &user, nil
	case http.StatusNotFound:
		return nil, ErrUserNotFound
	default:
		return nil, fmt.Errorf("user lookup returned %s", resp.Status)
	}
}

func (s *apiSession) BeginImpersonation(user *User) error {
	if user == nil || user.ID == 0 {
		return fmt.Errorf("cannot impersonate: missing user id")
	}
	if s.actAsID != 0 {
		return fmt.Errorf("already impersonating user %d", s.actAsID)
	}
	s.actAsID = user.ID
	return nil
}

func (s *apiSession) EndImpersonation() error {
	if s.actAsID == 0 {
		return fmt.Errorf("no impersonation in progress")
	}
	s.actAsID = 0
	return nil
}

// ListPersonalFiles streams the personal files of the impersonated user that
// match the search term. The server treats search_term as a substring match
// on display names. Pages are fetched lazily while the consumer reads, so an
// abandoned consumer must cancel ctx to release the producer.
func (s *apiSession) ListPersonalFiles(ctx context.Context, searchTerm string) (<-chan File, <-chan error) {
	filesCh := make(chan File, s.client.cfg.PageSize)
	errCh := make(chan error, 1)

	query := url.Values{}
	query.Set("search_term", searchTerm)
	query.Set("per_page", strconv.Itoa(s.client.cfg.PageSize))
	// Impersonation and search parameters are carried forward by the
	// pagination links Canvas returns.
	next := s.buildURL("/api/v1/users/self/files", query)

	go func() {
		defer close(filesCh)
		defer close(errCh)

		for next != "" {
			resp, err := s.do(ctx, http.MethodGet, next)
			if err != nil {
				errCh <- err
				return
			}

			if resp.StatusCode != http.StatusOK {
				resp.Body.Close()
				errCh <- fmt.Errorf("file listing returned %s", resp.Status)
				return
			}

			var page []File
			err = json.NewDecoder(resp.Body).Decode(&page)
			links := resp.Header.Get("Link")
			resp.Body.Close()
			if err != nil {
				errCh <- fmt.Errorf("failed to decode file page: %w", err)
				return
			}

			for _, f := range page {
				select {
				case filesCh <- f:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}

			next = nextLink(links)
		}
	}()

	return filesCh, errCh
}

// DeleteFile deletes a file by ID. Canvas soft-deletes by default; the
// replace parameter destroys the file outright instead of moving it to the
// trash.
func (s *apiSession) DeleteFile(ctx context.Context, fileID int64, permanent bool) (*File, error) {
	query := url.Values{}
	if permanent {
		query.Set("replace", "true")
	}

	u := s.buildURL("/api/v1/files/"+strconv.FormatInt(fileID, 10), query)
	resp, err := s.do(ctx, http.MethodDelete, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file delete returned %s", resp.Status)
	}

	var deleted File
	if err := json.NewDecoder(resp.Body).Decode(&deleted); err != nil {
		return nil, fmt.Errorf("failed to decode deleted file: %w", err)
	}
	return &deleted, nil
}

// buildURL renders an API path into an absolute request URL, folding in the
// session's impersonation parameter.
func (s *apiSession) buildURL(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	if s.actAsID != 0 {
		query.Set("as_user_id", strconv.FormatInt(s.actAsID, 10))
	}

	u := s.client.baseURL + path
	if enc := query.Encode(); enc != "" {
		u += "?" + enc
	}
	return u
}

// do executes one API request with rate limiting, bearer auth, and retry
// logic with exponential backoff. Retries apply to transport errors, 5xx
// responses, and Canvas throttle rejections; other statuses are returned to
// the caller for interpretation.
func (s *apiSession) do(ctx context.Context, method, rawURL string) (*http.Response, error) {
	var lastErr error
	retries := s.client.cfg.MaxRetries
	if retries == 0 {
		retries = 1
	}
	for i := 0; i < retries; i++ {
		if i > 0 {
			// Exponential backoff before next retry
			backoff := time.Duration(math.Pow(2, float64(i))) * 200 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		// Rate limiting: wait for token before each attempt
		if s.client.limiter != nil {
			if err := s.client.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("rate limiter error: %w", err)
			}
		}
		atomic.AddInt64(&s.client.requestCount, 1)

		req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+s.client.cfg.Token)
		req.Header.Set("Accept", "application/json")

		resp, err := s.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || isThrottled(resp) {
			resp.Body.Close()
			lastErr = fmt.Errorf("%s request returned %s", method, resp.Status)
			continue
		}

		return resp, nil
	}
	return nil, fmt.Errorf("all retries failed: %w", lastErr)
}

// isThrottled reports whether the response is a Canvas rate-limit rejection.
// Canvas signals throttling with 403 and a drained X-Rate-Limit-Remaining.
func isThrottled(resp *http.Response) bool {
	return resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-Rate-Limit-Remaining") == "0"
}

// nextLink extracts the rel="next" URL from an RFC 5988 Link header.
func nextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		sections := strings.Split(part, ";")
		if len(sections) < 2 {
			continue
		}
		target := strings.Trim(strings.TrimSpace(sections[0]), "<>")
		for _, param := range sections[1:] {
			if strings.TrimSpace(param) == `rel="next"` {
				return target
			}
		}
	}
	return ""
}
