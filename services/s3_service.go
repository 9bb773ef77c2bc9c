package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	appConfig "github.com/fildor/atelier-api/config"
)

// ErrBlobNotFound is returned by PresignGet when the object does not exist
var ErrBlobNotFound = errors.New("blob not found")

// BlobStore stores order images. Upload returns the public URL of the object;
// KeyFromURL recovers the object key from such a URL (or from a bare key).
type BlobStore interface {
	Upload(ctx context.Context, key string, content []byte, contentType string) (string, error)
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	KeyFromURL(ref string) string
}

// S3Service is the BlobStore backed by an S3 bucket
type S3Service struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	baseURL   string
}

// NewS3Service builds an S3 client from the application configuration
func NewS3Service(ctx context.Context, cfg *appConfig.Config) (*S3Service, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if cfg.AWSAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig)

	baseURL := strings.TrimRight(cfg.AWSS3PublicURL, "/")
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.AWSS3Bucket, cfg.AWSRegion)
	}

	return &S3Service{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.AWSS3Bucket,
		baseURL:   baseURL,
	}, nil
}

// Upload puts the object and returns its URL
func (s *S3Service) Upload(ctx context.Context, key string, content []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.baseURL + "/" + key, nil
}

// PresignGet generates a time-limited URL for reading a private object.
// The object is checked first so a dangling reference is reported as missing.
func (s *S3Service) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return "", fmt.Errorf("%w: %s", ErrBlobNotFound, key)
		}
		return "", fmt.Errorf("failed to check object in S3: %w", err)
	}

	request, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return request.URL, nil
}

// Delete removes an object. Deleting a missing key is not an error in S3.
func (s *S3Service) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// KeyFromURL extracts the object key from a URL produced by Upload
func (s *S3Service) KeyFromURL(ref string) string {
	return keyFromURL(ref, s.baseURL, s.bucket)
}

// keyFromURL accepts either a full URL or a bare key. Path-style URLs
// (https://host/bucket/key) have the bucket segment removed.
func keyFromURL(ref, baseURL, bucket string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if baseURL != "" && strings.HasPrefix(ref, baseURL+"/") {
		return strings.TrimPrefix(ref, baseURL+"/")
	}
	if !strings.HasPrefix(ref, "http://") && !strings.HasPrefix(ref, "https://") {
		return strings.TrimPrefix(ref, "/")
	}

	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	key := strings.TrimPrefix(parsed.Path, "/")
	if bucket != "" {
		key = strings.TrimPrefix(key, bucket+"/")
	}
	return key
}
