package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/OFFIS-RIT/inventory-sync/internal/config"
	"github.com/OFFIS-RIT/inventory-sync/internal/related"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrReportNotFound is returned when no report was archived under a key.
var ErrReportNotFound = errors.New("report not found")

// ObjectAPI is the subset of the S3 client the archive needs.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

func NewS3Client(ctx context.Context, cfg config.S3) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	}), nil
}

// ReportArchive stores sync reports as JSON objects in a bucket.
type ReportArchive struct {
	client ObjectAPI
	bucket string
}

func NewReportArchive(client ObjectAPI, bucket string) *ReportArchive {
	return &ReportArchive{client: client, bucket: bucket}
}

// ReportKey is reports/<tenant>/<instance>/<correlation>.json.
func ReportKey(tenant, instanceID, correlationID string) string {
	return fmt.Sprintf("reports/%s/%s/%s.json", tenant, instanceID, correlationID)
}

// Put archives a report and returns its key.
func (a *ReportArchive) Put(ctx context.Context, tenant, correlationID string, report related.Report) (string, error) {
	body, err := json.Marshal(report)
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	key := ReportKey(tenant, report.InstanceID, correlationID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload report to S3: %w", err)
	}

	return key, nil
}

// Get returns the raw JSON of an archived report.
func (a *ReportArchive) Get(ctx context.Context, tenant, instanceID, correlationID string) ([]byte, error) {
	result, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(ReportKey(tenant, instanceID, correlationID)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrReportNotFound
		}
		return nil, fmt.Errorf("failed to get report from S3: %w", err)
	}
	defer result.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, result.Body); err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}

	return buf.Bytes(), nil
}
