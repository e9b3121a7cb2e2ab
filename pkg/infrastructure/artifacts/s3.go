package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config selects the bucket and, optionally, a custom endpoint such as MinIO
type S3Config struct {
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
	SessionToken    string `yaml:"-"`
}

// S3ConfigFromEnv fills credentials and unset fields from the environment:
//
//	MICAP_S3_BUCKET, MICAP_S3_PREFIX, MICAP_S3_REGION, MICAP_S3_ENDPOINT,
//	MICAP_S3_PATH_STYLE, AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY,
//	AWS_SESSION_TOKEN
func S3ConfigFromEnv(base S3Config) S3Config {
	cfg := base
	setIfEmpty := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	setIfEmpty(&cfg.Bucket, "MICAP_S3_BUCKET")
	setIfEmpty(&cfg.Prefix, "MICAP_S3_PREFIX")
	setIfEmpty(&cfg.Region, "MICAP_S3_REGION")
	setIfEmpty(&cfg.Endpoint, "MICAP_S3_ENDPOINT")
	setIfEmpty(&cfg.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setIfEmpty(&cfg.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setIfEmpty(&cfg.SessionToken, "AWS_SESSION_TOKEN")
	if !cfg.PathStyle {
		cfg.PathStyle = strings.EqualFold(os.Getenv("MICAP_S3_PATH_STYLE"), "true")
	}
	return cfg
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads artifacts to a single bucket
type S3Sink struct {
	client s3API
	bucket string
	prefix string
}

var _ Sink = (*S3Sink)(nil)

// NewS3Sink builds a client from the default AWS configuration chain.
// Static credentials are used when both keys are set.
func NewS3Sink(ctx context.Context, cfg S3Config) (*S3Sink, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3Sink(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Sink(client s3API, bucket, prefix string) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *S3Sink) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(key)),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, s.objectKey(key), err)
	}
	return nil
}

func (s *S3Sink) Location(key string) string {
	return "s3://" + s.bucket + "/" + s.objectKey(key)
}

func (s *S3Sink) objectKey(key string) string {
	key = strings.TrimPrefix(key, "/")
	if s.prefix == "" {
		return key
	}
	return path.Join(s.prefix, key)
}
