package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds S3/MinIO configuration
type S3Config struct {
	Endpoint        string // e.g., "http://localhost:9000" for MinIO; empty for AWS
	Region          string
	Bucket          string
	Prefix          string
	AccessKeyID     string
	SecretAccessKey string
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver uploads run results to a bucket.
type Archiver struct {
	client objectPutter
	bucket string
	prefix string
}

// NewS3Archiver creates an Archiver with static credentials.
func NewS3Archiver(cfg S3Config) *Archiver {
	opts := s3.Options{
		Region: cfg.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true // Required for MinIO
	}

	return newArchiver(s3.New(opts), cfg.Bucket, cfg.Prefix)
}

func newArchiver(client objectPutter, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: prefix}
}

// ArchiveKey returns the object key of a run: <prefix>/YYYY/MM/DD/<run>.json,
// dated by the run's as-of time.
func ArchiveKey(prefix string, at time.Time, runID string) string {
	return path.Join(prefix, at.Format("2006/01/02"), runID+".json")
}

// Archive uploads payload as indented JSON and returns its key.
func (a *Archiver) Archive(ctx context.Context, runID string, at time.Time, payload any) (string, error) {
	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding archive: %w", err)
	}

	key := ArchiveKey(a.prefix, at, runID)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String("application/json"),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return "", fmt.Errorf("uploading to s3: %w", err)
	}

	return key, nil
}
