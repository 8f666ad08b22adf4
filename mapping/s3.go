package mapping

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/uvadev/CanvasBulkFileDelete/config"

	s3config "github.com/aws/aws-sdk-go-v2/config"
)

var _ Source = (*S3Source)(nil)

// I created an interface so the S3 client can be tested by providing a custom implementation.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads the mapping from an object in an S3 (or S3-compatible) bucket
type S3Source struct {
	client S3API
	config *config.S3MappingConfig
	common *config.CommonMappingConfig
}

func NewS3Source(cfg *config.S3MappingConfig, common *config.CommonMappingConfig) (*S3Source, error) {
	ctx := context.TODO()

	// Apply defaults to common config
	common.ApplyDefaults()

	// For S3-compatible storage, region is often just a placeholder
	// Use provided region or default to "us-east-1"
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*s3config.LoadOptions) error{
		s3config.WithRegion(region),
		// Suppress AWS SDK logging warnings about missing checksums
		s3config.WithClientLogMode(0),
	}
	// Static credentials when provided, otherwise the default credential chain
	if cfg.AccessKeyID != "" {
		opts = append(opts, s3config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	s3cfg, err := s3config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %v", err)
	}

	client := s3.NewFromConfig(s3cfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// Use path-style addressing for S3-compatible storage
			o.UsePathStyle = true
		}
	})

	return &S3Source{
		client: client,
		config: cfg,
		common: common,
	}, nil
}

// Open fetches the mapping object and returns its body as a reader.
// The caller closing the reader also releases the request context.
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	reqCtx, cancel := context.WithTimeout(ctx, time.Duration(s.common.TimeoutSeconds)*time.Second)
	// Note: We cannot defer cancel() here because the reader needs to stay open
	// The caller is responsible for closing the reader, which will release the context

	result, err := s.getWithRetry(reqCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to get object %s: %w", s.config.Key, err)
	}

	return &contextAwareReader{
		ReadCloser: result.Body,
		cancel:     cancel,
	}, nil
}

// getWithRetry executes GetObject with retry logic and exponential backoff
func (s *S3Source) getWithRetry(ctx context.Context) (*s3.GetObjectOutput, error) {
	var lastErr error
	retries := s.common.MaxRetries
	if retries == 0 {
		retries = 1
	}
	for i := 0; i < retries; i++ {
		if i > 0 {
			backoff := time.Duration(math.Pow(2, float64(i))) * 200 * time.Millisecond
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    aws.String(s.config.Key),
		})
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("all retries failed: %w", lastErr)
}

func (s *S3Source) GetType() string {
	return string(config.MappingTypeS3)
}

// contextAwareReader wraps an io.ReadCloser and cancels context on close
type contextAwareReader struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *contextAwareReader) Close() error {
	defer r.cancel()
	return r.ReadCloser.Close()
}
