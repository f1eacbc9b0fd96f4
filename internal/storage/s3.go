package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/smartduck/ducktodo/internal/config"
)

// S3Remover removes attachment objects from an S3-compatible bucket such as MinIO.
type S3Remover struct {
	client s3iface.S3API
	bucket string
}

func NewS3Remover(cfg config.StorageConfig) (*S3Remover, error) {
	sess, err := session.NewSession(&aws.Config{
		Endpoint:         aws.String(cfg.Endpoint),
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 session: %w", err)
	}
	return NewS3RemoverWithClient(s3.New(sess), cfg.Bucket), nil
}

func NewS3RemoverWithClient(client s3iface.S3API, bucket string) *S3Remover {
	return &S3Remover{client: client, bucket: bucket}
}

func (r *S3Remover) Remove(ctx context.Context, objectRef string) error {
	if objectRef == "" {
		return nil
	}
	_, err := r.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(objectRef),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil
		}
		return fmt.Errorf("failed to remove object %s: %w", objectRef, err)
	}
	return nil
}

// New returns an S3Remover when an endpoint is configured and a NopRemover otherwise.
func New(cfg config.StorageConfig) (Remover, error) {
	if cfg.Endpoint == "" {
		return NopRemover{}, nil
	}
	return NewS3Remover(cfg)
}
