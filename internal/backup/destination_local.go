package backup

import (
	"context"
	"os"
	"path/filepath"

	"invoicestore/internal/config"
)

// LocalDestination writes exports to a directory on the local filesystem.
type LocalDestination struct {
	basePath string
}

// NewLocalDestination creates a LocalDestination, creating the directory if
// needed.
func NewLocalDestination(cfg *config.LocalExportConfig) (*LocalDestination, error) {
	if cfg == nil || cfg.BasePath == "" {
		return nil, NewValidationError("local export destination requires a base path", nil)
	}
	if err := os.MkdirAll(cfg.BasePath, 0o755); err != nil {
		return nil, NewDestinationError("failed to create export directory", err)
	}
	return &LocalDestination{basePath: cfg.BasePath}, nil
}

// Name identifies the destination
func (ld *LocalDestination) Name() string {
	return "local"
}

// Store writes the export atomically: to a temp file first, then a rename.
func (ld *LocalDestination) Store(ctx context.Context, filename string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(ld.basePath, filename)
	tmp, err := os.CreateTemp(ld.basePath, filename+".tmp-*")
	if err != nil {
		return "", NewDestinationError("failed to create temporary export file", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", NewDestinationError("failed to write export file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", NewDestinationError("failed to close export file", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", NewDestinationError("failed to finalize export file", err)
	}
	return target, nil
}
