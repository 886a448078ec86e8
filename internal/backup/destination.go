package backup

import (
	"context"
	"fmt"

	"invoicestore/internal/config"
)

// Destination receives exported documents. Exports are fire-and-forget
// uploads: the store never reads them back, so destinations only need to
// write.
type Destination interface {
	// Name identifies the destination for logs and error messages.
	Name() string
	// Store writes data under filename and returns the resulting location.
	Store(ctx context.Context, filename string, data []byte) (string, error)
}

// NewDestination builds the destination named by the export configuration.
func NewDestination(ctx context.Context, cfg config.ExportConfig) (Destination, error) {
	switch cfg.Destination {
	case "local":
		return NewLocalDestination(cfg.Local)
	case "s3":
		return NewS3Destination(cfg.S3)
	case "gcs":
		return NewGCSDestination(ctx, cfg.GCS)
	case "azure":
		return NewAzureDestination(cfg.Azure)
	default:
		return nil, NewValidationError(fmt.Sprintf("unsupported export destination: %s", cfg.Destination), nil)
	}
}
