package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"systemqa/internal/config"
	"systemqa/internal/services"
)

// S3API is the subset of the S3 client used by S3Client.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Client stores objects in a single S3 bucket.
type S3Client struct {
	api    S3API
	bucket string
}

// NewS3Client wraps an existing S3 API for bucket.
func NewS3Client(api S3API, bucket string) *S3Client {
	return &S3Client{api: api, bucket: bucket}
}

// LoadAWSConfig resolves AWS settings from configuration, falling back to the
// default credential chain when no static keys are configured.
func LoadAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.Region),
	}
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, services.Wrap(services.ErrConfiguration, "blob", "load aws config", "resolve AWS configuration", err)
	}
	return awsCfg, nil
}

// NewS3ClientFromConfig builds an S3Client for the configured bucket.
func NewS3ClientFromConfig(awsCfg aws.Config, cfg *config.Config) (*S3Client, error) {
	if strings.TrimSpace(cfg.Storage.Bucket) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "blob", "new client", "storage.bucket is not configured", nil)
	}
	api := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Storage.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Storage.Endpoint)
		}
		o.UsePathStyle = cfg.Storage.UsePathStyle
	})
	return NewS3Client(api, cfg.Storage.Bucket), nil
}

// Bucket returns the target bucket name.
func (c *S3Client) Bucket() string {
	return c.bucket
}

// Get streams the object stored at key.
func (c *S3Client) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return nil, services.Wrap(services.ErrNotFound, "blob", "get", fmt.Sprintf("s3://%s/%s does not exist", c.bucket, key), err)
		}
		return nil, fmt.Errorf("S3 GetObject: %w", err)
	}
	return out.Body, nil
}

// Put uploads body to key with the given content type.
func (c *S3Client) Put(ctx context.Context, key string, body io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if file, ok := body.(*os.File); ok {
		if info, err := file.Stat(); err == nil {
			input.ContentLength = aws.Int64(info.Size())
		}
	}
	if _, err := c.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("S3 PutObject: %w", err)
	}
	return nil
}
