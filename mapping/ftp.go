package mapping

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/uvadev/CanvasBulkFileDelete/config"
)

var _ Source = (*FTPSource)(nil)

// FTPSource reads the mapping from a file on an FTP server
type FTPSource struct {
	config     *config.FTPMappingConfig
	common     *config.CommonMappingConfig
	dialConfig *ftp.DialOption
}

func NewFTPSource(cfg *config.FTPMappingConfig, common *config.CommonMappingConfig) (*FTPSource, error) {
	// Apply defaults
	cfg.ApplyDefaults()
	common.ApplyDefaults()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ftp config: %w", err)
	}

	// Setup dial options
	var dialConfig *ftp.DialOption
	if cfg.UseTLS {
		opt := ftp.DialWithExplicitTLS(&tls.Config{
			InsecureSkipVerify: false,
		})
		dialConfig = &opt
	}

	return &FTPSource{
		config:     cfg,
		common:     common,
		dialConfig: dialConfig,
	}, nil
}

// connect dials and logs in to the FTP server
func (s *FTPSource) connect() (*ftp.ServerConn, error) {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	var conn *ftp.ServerConn
	var err error

	if s.dialConfig != nil {
		conn, err = ftp.Dial(addr, *s.dialConfig, ftp.DialWithTimeout(time.Duration(s.common.TimeoutSeconds)*time.Second))
	} else {
		conn, err = ftp.Dial(addr, ftp.DialWithTimeout(time.Duration(s.common.TimeoutSeconds)*time.Second))
	}

	if err != nil {
		return nil, fmt.Errorf("failed to dial: %w", err)
	}

	// Login
	if err := conn.Login(s.config.Username, s.config.Password); err != nil {
		conn.Quit()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	return conn, nil
}

// Open retrieves the mapping file with retry logic and exponential backoff.
// Closing the returned reader also quits the underlying FTP connection.
func (s *FTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	var lastErr error
	for attempt := 0; attempt < s.common.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 200 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		conn, err := s.connect()
		if err != nil {
			lastErr = err
			continue
		}

		resp, err := conn.Retr(s.config.Path)
		if err != nil {
			conn.Quit()
			lastErr = fmt.Errorf("failed to retrieve %s: %w", s.config.Path, err)
			continue
		}

		return &ftpReader{resp: resp, conn: conn}, nil
	}

	return nil, fmt.Errorf("fetch failed after %d attempts: %w", s.common.MaxRetries, lastErr)
}

func (s *FTPSource) GetType() string {
	return string(config.MappingTypeFTP)
}

// ftpReader closes both the data transfer and the control connection
type ftpReader struct {
	resp *ftp.Response
	conn *ftp.ServerConn
}

func (r *ftpReader) Read(p []byte) (int, error) {
	return r.resp.Read(p)
}

func (r *ftpReader) Close() error {
	err := r.resp.Close()
	if qerr := r.conn.Quit(); qerr != nil && err == nil {
		err = qerr
	}
	return err
}
