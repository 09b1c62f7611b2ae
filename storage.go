package ziptfrecord

// Object storage access for job inputs and outputs.

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// ObjectStorage fetches job inputs from and stores job outputs to external
// object storage.
type ObjectStorage interface {
	// Fetch reads the object at bucket/key into memory.
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)

	// Store uploads the local file at localPath to bucket/key.
	Store(ctx context.Context, bucket, key, localPath string) error
}

// s3API is the subset of the S3 client used by S3Storage. It exists so that
// tests can substitute a mock client.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Verify that the AWS S3 client implements the interface.
var _ s3API = (*s3.Client)(nil)

// S3Storage implements ObjectStorage on top of the AWS SDK S3 client.
type S3Storage struct {
	client s3API
	log    *zap.Logger
}

// NewS3Storage creates an S3Storage using the default AWS credential chain.
func NewS3Storage(ctx context.Context, log *zap.Logger) (*S3Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, &Error{Op: "load AWS config", Err: err}
	}

	return &S3Storage{client: s3.NewFromConfig(cfg), log: log}, nil
}

// newS3Storage wraps an existing client, for tests.
func newS3Storage(client s3API, log *zap.Logger) *S3Storage {
	return &S3Storage{client: client, log: log}
}

// Fetch reads the object at bucket/key into memory.
func (s *S3Storage) Fetch(ctx context.Context, bucket, key string) (data []byte, err error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, &Error{Op: fmt.Sprintf("download s3://%s/%s", bucket, key), Err: err}
	}
	defer closeWithErrCheck(out.Body, &err)

	data, err = io.ReadAll(out.Body)
	if err != nil {
		return nil, &Error{Op: fmt.Sprintf("download s3://%s/%s", bucket, key), Err: err}
	}

	s.log.Info("Fetched archive",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)))
	return data, nil
}

// Store uploads the local file at localPath to bucket/key.
func (s *S3Storage) Store(ctx context.Context, bucket, key, localPath string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return &Error{Op: "open output file", Err: err}
	}
	defer f.Close()

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
		Body:   f,
	}); err != nil {
		return &Error{Op: fmt.Sprintf("upload s3://%s/%s", bucket, key), Err: err}
	}

	s.log.Info("Uploaded TFRecord file",
		zap.String("bucket", bucket),
		zap.String("key", key))
	return nil
}
