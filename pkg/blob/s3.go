package blob

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// NewS3Store creates a blob store backed by an S3 bucket, using
// the default SDK credential chain
func NewS3Store(ctx context.Context, bucket string, logger *zap.SugaredLogger) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &S3Store{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Logger: logger,
	}, nil
}

// S3Store keeps blobs as objects in a single S3 bucket
type S3Store struct {
	Client *s3.Client
	Bucket string
	Logger *zap.SugaredLogger
}

// Put uploads data under a fresh ulid-suffixed key derived from keyHint
func (s *S3Store) Put(ctx context.Context, data []byte, mimeType, keyHint string) (string, error) {
	key := path.Join(keyHint, ulid.Make().String()+extensionFor(mimeType))
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload blob %s: %w", key, err)
	}
	s.Logger.Debugw("blob uploaded", "key", key, "size", len(data))
	return s.urlFor(key), nil
}

// Delete removes the object behind url
func (s *S3Store) Delete(ctx context.Context, url string) error {
	key, err := s.ParseKey(url)
	if err != nil {
		return err
	}
	_, err = s.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	s.Logger.Debugw("blob deleted", "key", key)
	return nil
}

// ParseKey extracts the object key from a bucket URL
func (s *S3Store) ParseKey(url string) (string, error) {
	prefix := s.urlFor("")
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %s does not belong to bucket %s", url, s.Bucket)
	}
	return strings.TrimPrefix(url, prefix), nil
}

func (s *S3Store) urlFor(key string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.Bucket, key)
}
