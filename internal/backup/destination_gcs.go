package backup

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"invoicestore/internal/config"
	apperrors "invoicestore/internal/errors"
)

// GCSDestination uploads exports to a Google Cloud Storage bucket.
type GCSDestination struct {
	client *storage.Client
	bucket string
	prefix string
	retry  *apperrors.RetryHandler
}

// NewGCSDestination creates a GCSDestination instance
func NewGCSDestination(ctx context.Context, cfg *config.GCSExportConfig) (*GCSDestination, error) {
	if cfg == nil {
		return nil, NewValidationError("GCS export configuration is required", nil)
	}
	if cfg.Bucket == "" {
		return nil, NewValidationError("GCS export requires a bucket", nil)
	}

	var client *storage.Client
	var err error
	if cfg.CredentialsPath != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(cfg.CredentialsPath))
	} else {
		// Default credentials from environment or metadata server.
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, NewDestinationError("failed to create GCS client", err)
	}

	return &GCSDestination{
		client: client,
		bucket: cfg.Bucket,
		prefix: "exports/",
		retry:  apperrors.NewDefaultRetryHandler(),
	}, nil
}

// Name identifies the destination
func (gd *GCSDestination) Name() string {
	return "gcs"
}

// Store uploads the export to GCS, retrying transient failures.
func (gd *GCSDestination) Store(ctx context.Context, filename string, data []byte) (string, error) {
	objectName := gd.prefix + filename

	err := gd.retry.Retry(ctx, func() error {
		writer := gd.client.Bucket(gd.bucket).Object(objectName).NewWriter(ctx)
		writer.ContentType = "application/json"
		if _, err := writer.Write(data); err != nil {
			writer.Close()
			return err
		}
		return writer.Close()
	})
	if err != nil {
		return "", NewDestinationError("failed to upload export to GCS", err)
	}
	return fmt.Sprintf("gs://%s/%s", gd.bucket, objectName), nil
}

// Close releases the GCS client.
func (gd *GCSDestination) Close() error {
	return gd.client.Close()
}
