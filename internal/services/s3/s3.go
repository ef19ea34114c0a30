// Package s3service publishes and serves banking standards snapshots on S3.
package s3service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	appConfig "loan-underwriting-engine/internal/config"
	"loan-underwriting-engine/internal/models"
	"loan-underwriting-engine/internal/standards"
	"loan-underwriting-engine/internal/utils"
)

// DefaultRefresh bounds how long a downloaded snapshot is reused.
const DefaultRefresh = 5 * time.Minute

// ObjectAPI is the subset of the S3 client the service uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Service handles S3 operations
type Service struct {
	client     ObjectAPI
	bucketName string
	logger     *zap.Logger
}

// NewService creates a new S3 service
func NewService(ctx context.Context, cfg *appConfig.Config) (*Service, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewServiceWithClient(s3.NewFromConfig(awsCfg), cfg.S3Bucket), nil
}

// NewServiceWithClient wraps an existing client.
func NewServiceWithClient(client ObjectAPI, bucket string) *Service {
	return &Service{client: client, bucketName: bucket, logger: utils.GetLogger()}
}

// DownloadFile downloads a file from S3
func (s *Service) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("Failed to download file from S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}

	s.logger.Debug("Downloaded file from S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return data, nil
}

// UploadFile uploads a file to S3
func (s *Service) UploadFile(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("Failed to upload file to S3",
			zap.String("bucket", s.bucketName),
			zap.String("key", key),
			zap.Error(err),
		)
		return fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.Info("Uploaded file to S3",
		zap.String("bucket", s.bucketName),
		zap.String("key", key),
		zap.Int("size", len(data)),
	)

	return nil
}

// PublishSnapshot writes a standards snapshot as JSON.
func (s *Service) PublishSnapshot(ctx context.Context, key string, snapshot *standards.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return s.UploadFile(ctx, key, data, "application/json")
}

// DecodeSnapshot parses a snapshot document and rejects unknown business paths.
func DecodeSnapshot(data []byte) (*standards.Snapshot, error) {
	var snap standards.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode standards snapshot: %w", err)
	}

	check := func(paths map[models.ProductLine]standards.Grouped) error {
		for path := range paths {
			if !path.IsValid() {
				return fmt.Errorf("%w: %q in standards snapshot", models.ErrUnknownProductLine, path)
			}
		}
		return nil
	}
	if err := check(snap.Paths); err != nil {
		return nil, err
	}
	for _, paths := range snap.Banks {
		if err := check(paths); err != nil {
			return nil, err
		}
	}
	return &snap, nil
}

// SnapshotSource serves standards from one S3 object, re-downloading it at
// most once per refresh interval.
type SnapshotSource struct {
	service *Service
	key     string
	refresh time.Duration
	now     func() time.Time

	mu        sync.Mutex
	snapshot  *standards.Snapshot
	fetchedAt time.Time
}

// NewSnapshotSource creates a source for the snapshot at key.
func NewSnapshotSource(service *Service, key string, refresh time.Duration) *SnapshotSource {
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &SnapshotSource{service: service, key: key, refresh: refresh, now: time.Now}
}

// Fetch implements standards.Source. A failed refresh keeps serving the
// previous snapshot when there is one.
func (s *SnapshotSource) Fetch(ctx context.Context, q standards.Query) ([]models.BankingStandard, error) {
	snap, err := s.current(ctx)
	if err != nil {
		return nil, err
	}
	return (&standards.SnapshotSource{Snapshot: snap}).Fetch(ctx, q)
}

func (s *SnapshotSource) current(ctx context.Context) (*standards.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.snapshot != nil && s.now().Sub(s.fetchedAt) < s.refresh {
		return s.snapshot, nil
	}

	data, err := s.service.DownloadFile(ctx, s.key)
	if err == nil {
		var snap *standards.Snapshot
		if snap, err = DecodeSnapshot(data); err == nil {
			s.snapshot, s.fetchedAt = snap, s.now()
			return snap, nil
		}
	}

	if s.snapshot != nil {
		s.service.logger.Warn("Serving stale standards snapshot",
			zap.String("key", s.key),
			zap.Time("fetched_at", s.fetchedAt),
			zap.Error(err),
		)
		return s.snapshot, nil
	}
	return nil, err
}
