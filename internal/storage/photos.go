package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PhotoStore uploads listing and evidence photos and returns a public URL.
type PhotoStore interface {
	Upload(ctx context.Context, key string, contentType string, body io.Reader) (string, error)
}

// S3Store implements PhotoStore against an S3-compatible backend
// (AWS S3 or MinIO). Single bucket, keys map to object keys directly.
type S3Store struct {
	client     *s3.Client
	bucket     string
	region     string
	publicBase string
}

// S3Config holds explicit construction parameters; production wiring
// uses environment variables via NewS3StoreFromEnv.
type S3Config struct {
	Bucket     string
	Region     string
	Endpoint   string // optional, for MinIO
	PathStyle  bool
	PublicBase string // optional explicit base for public URLs
}

// NewS3Store creates an S3 photo store from S3Config.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	publicBase := strings.TrimRight(cfg.PublicBase, "/")
	if publicBase == "" && cfg.Endpoint != "" {
		publicBase = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}

	return &S3Store{client: client, bucket: cfg.Bucket, region: region, publicBase: publicBase}, nil
}

// NewS3StoreFromEnv constructs an S3 store from process environment:
//
//	PHOTOS_S3_BUCKET=<bucket> (required)
//	PHOTOS_S3_REGION=<region> (default us-east-1)
//	PHOTOS_S3_ENDPOINT=<url> (optional, for MinIO)
//	PHOTOS_S3_PATH_STYLE=true|false (default false)
//	PHOTOS_PUBLIC_BASE_URL=<url> (optional)
func NewS3StoreFromEnv(ctx context.Context) (*S3Store, error) {
	bucket := os.Getenv("PHOTOS_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("PHOTOS_S3_BUCKET required")
	}
	cfg := S3Config{
		Bucket:     bucket,
		Region:     os.Getenv("PHOTOS_S3_REGION"),
		Endpoint:   os.Getenv("PHOTOS_S3_ENDPOINT"),
		PathStyle:  strings.EqualFold(os.Getenv("PHOTOS_S3_PATH_STYLE"), "true"),
		PublicBase: os.Getenv("PHOTOS_PUBLIC_BASE_URL"),
	}
	return NewS3Store(ctx, cfg)
}

// Upload stores the object and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, key string, contentType string, body io.Reader) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return s.PublicURL(key), nil
}

// PublicURL builds the addressable URL for a stored object.
func (s *S3Store) PublicURL(key string) string {
	if s.publicBase != "" {
		return s.publicBase + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
