package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/paulmach/orb/geojson"

	"geolabel/internal/domain"
	"geolabel/internal/output"
)

// ContentType is set on uploaded objects.
const ContentType = "application/geo+json"

// Client is the subset of the S3 API used by Sink. *s3.Client satisfies it.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config locates the bucket and carries static credentials.
type Config struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Sink uploads the collection as a single object, so readers never see a partial file.
type Sink struct {
	client Client
	bucket string
	key    string
}

// NewSink creates a sink over an existing client.
func NewSink(client Client, bucket, key string) *Sink {
	return &Sink{client: client, bucket: bucket, key: key}
}

// NewClient builds an S3 client from static credentials. A custom Endpoint
// (MinIO, R2) switches to path-style addressing.
func NewClient(cfg Config) (*s3.Client, error) {
	if cfg.Bucket == "" || cfg.Key == "" {
		return nil, fmt.Errorf("%w: s3 bucket and key are required", domain.ErrConfig)
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("%w: s3 credentials are empty", domain.ErrConfig)
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	creds := aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
		return aws.Credentials{AccessKeyID: cfg.AccessKey, SecretAccessKey: cfg.SecretKey, Source: "geolabel"}, nil
	})
	opts := s3.Options{
		Region:      cfg.Region,
		Credentials: aws.NewCredentialsCache(creds),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts), nil
}

func (s *Sink) Write(ctx context.Context, fc *geojson.FeatureCollection) error {
	data, err := output.Marshal(fc)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(ContentType),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return fmt.Errorf("%w: s3 put %s/%s: %s: %w", domain.ErrExternalService, s.bucket, s.key, apiErr.ErrorCode(), err)
		}
		return fmt.Errorf("%w: s3 put %s/%s: %w", domain.ErrExternalService, s.bucket, s.key, err)
	}
	return nil
}
