package backup

import (
	"context"
	"fmt"
	"net/url"

	"github.com/Azure/azure-storage-blob-go/azblob"

	"invoicestore/internal/config"
	apperrors "invoicestore/internal/errors"
)

// AzureDestination uploads exports to an Azure Blob Storage container.
type AzureDestination struct {
	containerURL azblob.ContainerURL
	container    string
	prefix       string
	retry        *apperrors.RetryHandler
}

// NewAzureDestination creates an AzureDestination instance
func NewAzureDestination(cfg *config.AzureExportConfig) (*AzureDestination, error) {
	if cfg == nil {
		return nil, NewValidationError("Azure export configuration is required", nil)
	}
	if cfg.AccountName == "" || cfg.AccountKey == "" {
		return nil, NewValidationError("Azure export requires an account name and key", nil)
	}
	if cfg.ContainerName == "" {
		return nil, NewValidationError("Azure export requires a container name", nil)
	}

	credential, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, NewDestinationError("failed to create Azure credentials", err)
	}
	pipeline := azblob.NewPipeline(credential, azblob.PipelineOptions{})

	serviceURL, err := url.Parse(fmt.Sprintf("https://%s.blob.core.windows.net", cfg.AccountName))
	if err != nil {
		return nil, NewDestinationError("failed to parse Azure service URL", err)
	}

	return &AzureDestination{
		containerURL: azblob.NewServiceURL(*serviceURL, pipeline).NewContainerURL(cfg.ContainerName),
		container:    cfg.ContainerName,
		prefix:       "exports/",
		retry:        apperrors.NewDefaultRetryHandler(),
	}, nil
}

// Name identifies the destination
func (ad *AzureDestination) Name() string {
	return "azure"
}

// Store uploads the export to Azure Blob Storage, retrying transient
// failures.
func (ad *AzureDestination) Store(ctx context.Context, filename string, data []byte) (string, error) {
	blobName := ad.prefix + filename
	blobURL := ad.containerURL.NewBlockBlobURL(blobName)

	err := ad.retry.Retry(ctx, func() error {
		_, err := azblob.UploadBufferToBlockBlob(ctx, data, blobURL, azblob.UploadToBlockBlobOptions{
			BlobHTTPHeaders: azblob.BlobHTTPHeaders{ContentType: "application/json"},
		})
		return err
	})
	if err != nil {
		return "", NewDestinationError("failed to upload export to Azure", err)
	}
	return fmt.Sprintf("azure://%s/%s", ad.container, blobName), nil
}
