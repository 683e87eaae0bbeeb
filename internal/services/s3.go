package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used for snapshots
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// SnapshotStore keeps raw listing pages the parser could not recognize, so a
// markup change can be investigated after the fact. Nothing reads them back.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, key string, content []byte) (*S3UploadResult, error)
}

// S3UploadResult represents the result of an S3 upload operation
type S3UploadResult struct {
	Key         string    `json:"key"`
	Location    string    `json:"location"`
	ETag        string    `json:"etag"`
	Size        int64     `json:"size"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ContentType string    `json:"content_type"`
}

// S3Client stores snapshots in a single bucket
type S3Client struct {
	client     S3API
	bucketName string
	region     string
}

// NewS3Client creates an S3 snapshot client for bucketName using the default AWS configuration chain
func NewS3Client(ctx context.Context, bucketName string) (*S3Client, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("snapshot bucket name cannot be empty")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return NewS3ClientWithAPI(s3.NewFromConfig(cfg), bucketName, cfg.Region), nil
}

// NewS3ClientWithAPI wraps an existing S3 client
func NewS3ClientWithAPI(client S3API, bucketName, region string) *S3Client {
	return &S3Client{client: client, bucketName: bucketName, region: region}
}

// SaveSnapshot uploads a raw HTML page under key
func (s *S3Client) SaveSnapshot(ctx context.Context, key string, content []byte) (*S3UploadResult, error) {
	return s.upload(ctx, content, key, "text/html; charset=utf-8")
}

func (s *S3Client) upload(ctx context.Context, data []byte, key, contentType string) (*S3UploadResult, error) {
	// Ensure key doesn't start with /
	key = strings.TrimPrefix(key, "/")

	uploadInput := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"uploaded-by": "puppy-adoption-notifier",
			"upload-time": time.Now().UTC().Format(time.RFC3339),
		},
	}

	result, err := s.client.PutObject(ctx, uploadInput)
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &S3UploadResult{
		Key:         key,
		Location:    s.GetObjectURL(key),
		ETag:        strings.Trim(aws.ToString(result.ETag), `"`),
		Size:        int64(len(data)),
		UploadedAt:  time.Now(),
		ContentType: contentType,
	}, nil
}

// GetBucketName returns the configured bucket name
func (s *S3Client) GetBucketName() string {
	return s.bucketName
}

// GetObjectURL returns the virtual-hosted URL of an object
func (s *S3Client) GetObjectURL(key string) string {
	key = strings.TrimPrefix(key, "/")
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, key)
}
