package canvas

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/uvadev/CanvasBulkFileDelete/config"
	"golang.org/x/time/rate"
)

// ErrUserNotFound is returned by the resolve calls when the remote side has
// no account for the given key.
var ErrUserNotFound = errors.New("user not found")

var _ SessionFactory = (*Client)(nil)

// Client holds the state shared by all API sessions: configuration, the
// client-side rate limiter, and request counting for RPS monitoring. The
// Client itself is safe for concurrent use; the sessions it creates are not.
type Client struct {
	cfg     *config.APIConfig
	baseURL string
	limiter *rate.Limiter

	requestCount     int64      // Total requests made
	lastRequestCount int64      // Request count at last RPS calculation
	lastRPS          int64      // Last calculated RPS
	lastRPSTime      time.Time  // Time of last RPS calculation
	mu               sync.Mutex // Protects RPS calculation fields
}

func NewClient(cfg *config.APIConfig) (*Client, error) {
	// Apply defaults before validating
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid api configuration: %w", err)
	}

	// default 0
	var limiter *rate.Limiter
	if cfg.MaxRPS > 0 {
		// Create rate limiter
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), cfg.MaxRPS) // burst = MaxRPS
	}

	return &Client{
		cfg:         cfg,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		limiter:     limiter,
		lastRPSTime: time.Now(),
	}, nil
}

// NewSession returns an isolated session with its own HTTP transport and
// impersonation scope. A session must be owned by a single goroutine.
func (c *Client) NewSession() Session {
	return &apiSession{
		client: c,
		http: &http.Client{
			Transport: &http.Transport{},
			Timeout:   time.Duration(c.cfg.TimeoutSeconds) * time.Second,
		},
	}
}

// GetCurrentRPS calculates and returns the current requests per second rate
// This method is thread-safe and can be called periodically for monitoring
func (c *Client) GetCurrentRPS() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(c.lastRPSTime).Seconds()

	// Only recalculate if at least 1 second has passed
	if elapsed >= 1.0 {
		currentCount := atomic.LoadInt64(&c.requestCount)
		requestsDelta := currentCount - c.lastRequestCount

		// Calculate RPS based on the delta and elapsed time
		c.lastRPS = int64(float64(requestsDelta) / elapsed)
		c.lastRequestCount = currentCount
		c.lastRPSTime = now
	}

	return c.lastRPS
}
