// Package config holds the application configuration: which backend to use,
// the assumed storage capacity ceiling, backup retention and compression,
// the auto-backup schedule, and export destinations.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the complete application configuration.
type Config struct {
	Backend     BackendConfig     `yaml:"backend"`
	Quota       QuotaConfig       `yaml:"quota"`
	Retention   RetentionConfig   `yaml:"retention"`
	Compression CompressionConfig `yaml:"compression"`
	AutoBackup  AutoBackupConfig  `yaml:"auto_backup"`
	Export      ExportConfig      `yaml:"export"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// BackendConfig selects and parameterizes the key-value backend.
type BackendConfig struct {
	// Type is one of "file", "sqlite", "memory".
	Type string `yaml:"type"`
	// Path is the backend directory (file) or database file (sqlite).
	Path string `yaml:"path"`
}

// QuotaConfig holds the assumed capacity ceiling for the quota guard.
//
// The ceiling is a guess, not a measurement: the backend offers no quota
// API and real capacity varies by environment. Treat it as a tunable.
type QuotaConfig struct {
	CapacityBytes     int `yaml:"capacity_bytes"`
	SafetyMarginBytes int `yaml:"safety_margin_bytes"`
}

// RetentionConfig bounds the stored backup lists.
type RetentionConfig struct {
	// MaxBackups bounds the regular backup list; oldest evicted first.
	MaxBackups int `yaml:"max_backups"`
	// MaxMigrationBackups bounds the separate pre-migration list.
	MaxMigrationBackups int `yaml:"max_migration_backups"`
}

// CompressionConfig controls compression of bundle payloads and exports.
type CompressionConfig struct {
	Enabled bool `yaml:"enabled"`
	// Algorithm is one of "gzip", "lz4", "zstd".
	Algorithm string `yaml:"algorithm"`
	Level     int    `yaml:"level"`
	// ThresholdBytes is the minimum payload size worth compressing.
	ThresholdBytes int `yaml:"threshold_bytes"`
}

// AutoBackupConfig controls the scheduled backup task.
type AutoBackupConfig struct {
	Enabled bool `yaml:"enabled"`
	// Schedule is a cron expression (or descriptor like "@hourly").
	Schedule string `yaml:"schedule"`
	// MinInterval suppresses a scheduled run that fires too soon after the
	// previous backup, so overlapping triggers stay idempotent.
	MinInterval time.Duration `yaml:"min_interval"`
}

// ExportConfig selects where exported documents are copied.
type ExportConfig struct {
	// Destination is one of "local", "s3", "gcs", "azure".
	Destination string             `yaml:"destination"`
	Local       *LocalExportConfig `yaml:"local,omitempty"`
	S3          *S3ExportConfig    `yaml:"s3,omitempty"`
	GCS         *GCSExportConfig   `yaml:"gcs,omitempty"`
	Azure       *AzureExportConfig `yaml:"azure,omitempty"`
}

// LocalExportConfig for exports written to a local directory
type LocalExportConfig struct {
	BasePath string `yaml:"base_path"`
}

// S3ExportConfig for exports uploaded to Amazon S3
type S3ExportConfig struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// GCSExportConfig for exports uploaded to Google Cloud Storage
type GCSExportConfig struct {
	Bucket          string `yaml:"bucket"`
	CredentialsPath string `yaml:"credentials_path"`
	ProjectID       string `yaml:"project_id"`
}

// AzureExportConfig for exports uploaded to Azure Blob Storage
type AzureExportConfig struct {
	AccountName   string `yaml:"account_name"`
	AccountKey    string `yaml:"account_key"`
	ContainerName string `yaml:"container_name"`
}

// LoggingConfig controls the structured logger.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	LogFile string `yaml:"log_file"`
}

// SetDefaults sets default values for the configuration
func (c *Config) SetDefaults() {
	if c.Backend.Type == "" {
		c.Backend.Type = "file"
	}
	if c.Backend.Path == "" {
		switch c.Backend.Type {
		case "sqlite":
			c.Backend.Path = "./invoicestore.db"
		default:
			c.Backend.Path = "./data"
		}
	}

	if c.Quota.CapacityBytes == 0 {
		c.Quota.CapacityBytes = 5 * 1024 * 1024
	}
	if c.Quota.SafetyMarginBytes == 0 {
		c.Quota.SafetyMarginBytes = 64 * 1024
	}

	if c.Retention.MaxBackups == 0 {
		c.Retention.MaxBackups = 10
	}
	if c.Retention.MaxMigrationBackups == 0 {
		c.Retention.MaxMigrationBackups = 3
	}

	if c.Compression.Algorithm == "" {
		c.Compression.Enabled = true
		c.Compression.Algorithm = "gzip"
	}
	if c.Compression.Level == 0 {
		switch c.Compression.Algorithm {
		case "gzip":
			c.Compression.Level = 6
		case "lz4":
			c.Compression.Level = 1
		case "zstd":
			c.Compression.Level = 3
		}
	}
	if c.Compression.ThresholdBytes == 0 {
		c.Compression.ThresholdBytes = 1024
	}

	if c.AutoBackup.Schedule == "" {
		c.AutoBackup.Schedule = "@hourly"
	}
	if c.AutoBackup.MinInterval == 0 {
		c.AutoBackup.MinInterval = 30 * time.Minute
	}

	if c.Export.Destination == "" {
		c.Export.Destination = "local"
	}
	if c.Export.Destination == "local" && c.Export.Local == nil {
		c.Export.Local = &LocalExportConfig{BasePath: "./exports"}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "normal"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Backend.Type {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("invalid backend type %q, must be file, sqlite, or memory", c.Backend.Type)
	}
	if c.Backend.Type != "memory" && c.Backend.Path == "" {
		return fmt.Errorf("backend path is required for the %s backend", c.Backend.Type)
	}

	if c.Quota.CapacityBytes < 0 {
		return fmt.Errorf("quota capacity cannot be negative")
	}
	if c.Quota.SafetyMarginBytes < 0 {
		return fmt.Errorf("quota safety margin cannot be negative")
	}
	if c.Quota.CapacityBytes > 0 && c.Quota.SafetyMarginBytes >= c.Quota.CapacityBytes {
		return fmt.Errorf("quota safety margin must be smaller than the capacity ceiling")
	}

	if c.Retention.MaxBackups < 1 {
		return fmt.Errorf("retention must keep at least one backup")
	}
	if c.Retention.MaxMigrationBackups < 1 {
		return fmt.Errorf("retention must keep at least one migration backup")
	}

	if c.Compression.Enabled {
		switch c.Compression.Algorithm {
		case "gzip":
			if c.Compression.Level < 1 || c.Compression.Level > 9 {
				return fmt.Errorf("gzip compression level must be between 1 and 9")
			}
		case "lz4":
			if c.Compression.Level < 1 || c.Compression.Level > 12 {
				return fmt.Errorf("lz4 compression level must be between 1 and 12")
			}
		case "zstd":
			if c.Compression.Level < 1 || c.Compression.Level > 22 {
				return fmt.Errorf("zstd compression level must be between 1 and 22")
			}
		default:
			return fmt.Errorf("invalid compression algorithm %q", c.Compression.Algorithm)
		}
	}

	switch c.Export.Destination {
	case "local":
		if c.Export.Local == nil || c.Export.Local.BasePath == "" {
			return fmt.Errorf("local export destination requires a base path")
		}
	case "s3":
		if c.Export.S3 == nil || c.Export.S3.Bucket == "" {
			return fmt.Errorf("s3 export destination requires a bucket")
		}
	case "gcs":
		if c.Export.GCS == nil || c.Export.GCS.Bucket == "" {
			return fmt.Errorf("gcs export destination requires a bucket")
		}
	case "azure":
		if c.Export.Azure == nil || c.Export.Azure.ContainerName == "" {
			return fmt.Errorf("azure export destination requires a container name")
		}
	default:
		return fmt.Errorf("invalid export destination %q", c.Export.Destination)
	}

	return nil
}

// LoadFromEnvironment overrides configuration values from environment variables
func (c *Config) LoadFromEnvironment() {
	if val := os.Getenv("INVOICESTORE_BACKEND_TYPE"); val != "" {
		c.Backend.Type = strings.ToLower(val)
	}
	if val := os.Getenv("INVOICESTORE_BACKEND_PATH"); val != "" {
		c.Backend.Path = val
	}

	if val := os.Getenv("INVOICESTORE_QUOTA_CAPACITY_BYTES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.Quota.CapacityBytes = parsed
		}
	}
	if val := os.Getenv("INVOICESTORE_QUOTA_SAFETY_MARGIN_BYTES"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.Quota.SafetyMarginBytes = parsed
		}
	}

	if val := os.Getenv("INVOICESTORE_MAX_BACKUPS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			c.Retention.MaxBackups = parsed
		}
	}

	if val := os.Getenv("INVOICESTORE_COMPRESSION_ALGORITHM"); val != "" {
		c.Compression.Algorithm = strings.ToLower(val)
	}

	if val := os.Getenv("INVOICESTORE_AUTO_BACKUP_SCHEDULE"); val != "" {
		c.AutoBackup.Schedule = val
	}
	if val := os.Getenv("INVOICESTORE_AUTO_BACKUP_MIN_INTERVAL"); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			c.AutoBackup.MinInterval = parsed
		}
	}

	if val := os.Getenv("INVOICESTORE_EXPORT_DESTINATION"); val != "" {
		c.Export.Destination = strings.ToLower(val)
	}
	if val := os.Getenv("INVOICESTORE_LOG_LEVEL"); val != "" {
		c.Logging.Level = strings.ToLower(val)
	}
}
