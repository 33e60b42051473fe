package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

// S3Store persists assets in an S3 (or S3-compatible) bucket.
type S3Store struct {
	bucket   string
	uploader *s3manager.Uploader
	client   *s3.S3
}

// S3Config configures the store. Endpoint is optional and supports
// MinIO-style deployments.
type S3Config struct {
	Bucket   string
	Region   string
	Endpoint string
}

// NewS3Store constructs an S3 backed store.
func NewS3Store(cfg S3Config) (*S3Store, error) {
	awsCfg := aws.NewConfig().WithRegion(cfg.Region)
	if cfg.Endpoint != "" {
		awsCfg = awsCfg.WithEndpoint(cfg.Endpoint).WithS3ForcePathStyle(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, err
	}
	return &S3Store{
		bucket:   cfg.Bucket,
		uploader: s3manager.NewUploader(sess),
		client:   s3.New(sess),
	}, nil
}

// Put uploads an asset and returns its location.
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) (Object, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Object{}, fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return Object{Key: key, URL: out.Location}, nil
}

// Delete removes an asset.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}
