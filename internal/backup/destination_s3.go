package backup

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"invoicestore/internal/config"
	apperrors "invoicestore/internal/errors"
)

// S3Destination uploads exports to an Amazon S3 bucket.
type S3Destination struct {
	client *s3.S3
	bucket string
	prefix string
	retry  *apperrors.RetryHandler
}

// NewS3Destination creates an S3Destination instance
func NewS3Destination(cfg *config.S3ExportConfig) (*S3Destination, error) {
	if cfg == nil {
		return nil, NewValidationError("S3 export configuration is required", nil)
	}
	if cfg.Bucket == "" {
		return nil, NewValidationError("S3 export requires a bucket", nil)
	}
	if cfg.Region == "" {
		return nil, NewValidationError("S3 export requires a region", nil)
	}

	awsConfig := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, NewDestinationError("failed to create AWS session", err)
	}

	return &S3Destination{
		client: s3.New(sess),
		bucket: cfg.Bucket,
		prefix: "exports/",
		retry:  apperrors.NewDefaultRetryHandler(),
	}, nil
}

// Name identifies the destination
func (sd *S3Destination) Name() string {
	return "s3"
}

// Store uploads the export to S3, retrying transient failures.
func (sd *S3Destination) Store(ctx context.Context, filename string, data []byte) (string, error) {
	objectKey := sd.prefix + filename

	err := sd.retry.Retry(ctx, func() error {
		_, err := sd.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:        aws.String(sd.bucket),
			Key:           aws.String(objectKey),
			Body:          bytes.NewReader(data),
			ContentType:   aws.String("application/json"),
			ContentLength: aws.Int64(int64(len(data))),
		})
		return err
	})
	if err != nil {
		return "", NewDestinationError("failed to upload export to S3", err)
	}
	return fmt.Sprintf("s3://%s/%s", sd.bucket, objectKey), nil
}
