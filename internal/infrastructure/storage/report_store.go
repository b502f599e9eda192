// Package storage archives reconciliation reports to S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/fishfarm/backend/internal/domain/dispatch"
	"github.com/fishfarm/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// objectClient is the subset of *s3.Client the store uses
type objectClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// S3ReportStore writes each reconciliation report as one JSON object
type S3ReportStore struct {
	client objectClient
	bucket string
	prefix string
	logger *zap.Logger
}

// NewS3ReportStore builds a store for any S3-compatible endpoint (AWS, MinIO, ...)
func NewS3ReportStore(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (*S3ReportStore, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("archive credentials are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(normalizeEndpoint(cfg.Endpoint))
		}
	})
	return newS3ReportStore(client, cfg.Bucket, cfg.Prefix, logger), nil
}

func newS3ReportStore(client objectClient, bucket, prefix string, logger *zap.Logger) *S3ReportStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3ReportStore{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
		logger: logger,
	}
}

func normalizeEndpoint(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}

// EnsureBucket creates the bucket if it does not exist
func (s *S3ReportStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("Creating archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	var alreadyOwned *types.BucketAlreadyOwnedByYou
	if err != nil && !errors.As(err, &alreadyOwned) {
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Key returns the object key for a report:
// <prefix>/reconciliations/YYYY/MM/DD/<dispatch-id>.json
func (s *S3ReportStore) Key(report dispatch.ReconciliationReport) string {
	at := report.ReconciledAt.UTC()
	return path.Join(s.prefix, "reconciliations", at.Format("2006/01/02"), report.DispatchID.String()+".json")
}

// Archive uploads the report and returns its key
func (s *S3ReportStore) Archive(ctx context.Context, report dispatch.ReconciliationReport) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("encode reconciliation report: %w", err)
	}
	key := s.Key(report)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"dispatch-id": report.DispatchID.String(),
			"status":      string(report.Status),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return key, nil
}

// NoopReportStore discards reports; used when archiving is disabled
type NoopReportStore struct{}

// Archive returns an empty key
func (NoopReportStore) Archive(context.Context, dispatch.ReconciliationReport) (string, error) {
	return "", nil
}

// NewReportArchive returns an S3 store when archiving is enabled and a
// no-op store otherwise.
func NewReportArchive(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (dispatch.ReportArchive, error) {
	if !cfg.Enabled {
		return NoopReportStore{}, nil
	}
	return NewS3ReportStore(ctx, cfg, logger)
}

var (
	_ dispatch.ReportArchive = (*S3ReportStore)(nil)
	_ dispatch.ReportArchive = NoopReportStore{}
)
