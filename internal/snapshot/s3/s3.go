// Package s3 stores the snapshot as an object in S3 or MinIO.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/logging"
)

// Config holds the S3 connection settings.
type Config struct {
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	Key       string
}

// Store writes the snapshot to a single object key.
type Store struct {
	client *s3.Client
	bucket string
	key    string
}

// New creates an S3 snapshot store and makes sure the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("s3 bucket and key are required")
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = true
	})

	s := &Store{client: client, bucket: cfg.Bucket, key: cfg.Key}
	if err := s.ensureBucket(ctx); err != nil {
		logging.Error("bucket check failed", zap.Error(err))
	}
	return s, nil
}

func (s *Store) ensureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}
	if _, createErr := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}); createErr != nil {
		return fmt.Errorf("bucket %s does not exist and cannot create: %w", s.bucket, createErr)
	}
	logging.Info("created S3 bucket", zap.String("bucket", s.bucket))
	return nil
}

// Write uploads the snapshot object.
func (s *Store) Write(ctx context.Context, data []byte) error {
	start := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", s.key, err)
	}
	logging.Debug("snapshot uploaded",
		zap.String("key", s.key),
		zap.Int("bytes", len(data)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// Read downloads the snapshot object.
func (s *Store) Read(ctx context.Context) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("get %s: %w", s.key, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.key, err)
	}
	return data, nil
}

// Type returns "s3".
func (s *Store) Type() string { return "s3" }

// Close is a no-op; the S3 client holds no persistent connections.
func (s *Store) Close() error { return nil }
