package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds what is needed to build the client.
type S3Config struct {
	Region    string
	AccessKey string
	SecretKey string
	Endpoint  string // Optional custom endpoint (MinIO, LocalStack, tests)
}

type S3Fetcher struct {
	client *s3.Client
}

// NewS3Fetcher builds the S3 client. Static credentials are used when given,
// otherwise the default AWS chain. Requests are attempted once.
func NewS3Fetcher(ctx context.Context, cfg S3Config) (*S3Fetcher, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithRetryMaxAttempts(1),
	}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Fetcher{client: client}, nil
}

// Fetch streams bucket/key into w.
func (f *S3Fetcher) Fetch(ctx context.Context, bucket, key string, w io.Writer) error {
	out, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 get %s/%s: %w", bucket, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	if _, err := io.Copy(w, out.Body); err != nil {
		return fmt.Errorf("s3 read %s/%s: %w", bucket, key, err)
	}
	return nil
}

// Probe checks that bucket is reachable with the configured credentials.
func (f *S3Fetcher) Probe(ctx context.Context, bucket string) error {
	_, err := f.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err != nil {
		return fmt.Errorf("s3 head bucket %s: %w", bucket, err)
	}
	return nil
}
