package snapshot

import (
	"bytes"
	"context"
	"fmt"

	jmconfig "jobmatch/internal/config"
	"jobmatch/internal/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror uploads each saved snapshot to an S3-compatible bucket (R2, MinIO)
type S3Mirror struct {
	client objectPutter
	bucket string
	key    string
}

// NewS3Mirror builds the client. Static credentials are used when configured,
// otherwise the default AWS credential chain applies.
func NewS3Mirror(ctx context.Context, cfg jmconfig.S3Config) (*S3Mirror, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
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

	return &S3Mirror{client: client, bucket: cfg.Bucket, key: cfg.Key}, nil
}

func (m *S3Mirror) Name() string { return "s3" }

// Publish uploads the exact bytes written locally
func (m *S3Mirror) Publish(ctx context.Context, _ types.Snapshot, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(m.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.bucket, m.key, err)
	}
	return nil
}
