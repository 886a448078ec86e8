package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tag values distinguishing how a bundle came to exist.
const (
	TagManual       = "manual"
	TagScheduled    = "scheduled"
	TagPreMigration = "pre-migration"
)

// ApplicationName identifies export documents produced by this tool.
const ApplicationName = "invoicestore"

// Bundle is one stored backup: a point-in-time copy of every primary
// collection, carried as an optionally compressed payload with an integrity
// checksum. Bundles live inside the same store they protect, so they count
// against the quota like everything else.
type Bundle struct {
	ID            string    `json:"id"`
	Tag           string    `json:"tag"`
	Transition    string    `json:"transition,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	SchemaVersion string    `json:"schema_version"`
	Compression   string    `json:"compression"`
	Payload       string    `json:"payload"`
	PayloadBytes  int64     `json:"payload_bytes"`
	Checksum      string    `json:"checksum"`
}

// Collections is the decoded payload of a bundle: the raw stored value of
// each primary key. Raw strings round-trip exactly, so a restore reproduces
// what snapshot saw byte for byte. An empty field means the key did not
// exist when the snapshot was taken.
type Collections struct {
	Invoices  string            `json:"invoices,omitempty"`
	Customers string            `json:"customers,omitempty"`
	Settings  string            `json:"settings,omitempty"`
	Sequences map[string]string `json:"sequences,omitempty"`
}

// Validate checks the structural integrity of a bundle's envelope.
func (b *Bundle) Validate() error {
	if b.ID == "" {
		return NewValidationError("bundle id is required", nil)
	}
	if b.CreatedAt.IsZero() {
		return NewValidationError("bundle creation time is required", nil)
	}
	if b.Payload == "" {
		return NewValidationError("bundle payload is empty", nil)
	}
	if b.Checksum == "" {
		return NewValidationError("bundle checksum is missing", nil)
	}
	return nil
}

// IsMigrationBundle reports whether the bundle was taken before a migration.
func (b *Bundle) IsMigrationBundle() bool {
	return b.Tag == TagPreMigration
}

// CalculateChecksum returns the hex SHA-256 of the uncompressed payload.
func CalculateChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChecksum reports whether data matches the expected checksum.
func VerifyChecksum(data []byte, expected string) bool {
	return CalculateChecksum(data) == expected
}

// GenerateBundleID builds a sortable unique bundle id from the tag, a
// timestamp, and a short random suffix.
func GenerateBundleID(tag string) string {
	timestamp := time.Now().UTC().Format("20060102-150405")
	shortUUID := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s-%s-%s", tag, timestamp, shortUUID)
}

// CollectionRestore reports the outcome for one collection of a restore.
type CollectionRestore struct {
	Key      string `json:"key"`
	Restored bool   `json:"restored"`
	Error    string `json:"error,omitempty"`
}

// RestoreResult summarizes a restore: the bundle used and what happened to
// each collection. A collection absent from the bundle is reported as not
// restored with no error; its current value is left alone.
type RestoreResult struct {
	BundleID      string              `json:"bundle_id"`
	SchemaVersion string              `json:"schema_version"`
	Collections   []CollectionRestore `json:"collections"`
}

// Failed reports whether any collection restore errored.
func (r *RestoreResult) Failed() bool {
	for _, c := range r.Collections {
		if c.Error != "" {
			return true
		}
	}
	return false
}

// ExportDocument is the portable JSON envelope written by export and read
// by import.
type ExportDocument struct {
	Timestamp   time.Time  `json:"timestamp"`
	Version     string     `json:"version"`
	Application string     `json:"application"`
	Data        ExportData `json:"data"`
}

// ExportData carries the collections inside an export document. Raw JSON is
// preserved so export/import round-trips exactly.
type ExportData struct {
	Invoices          json.RawMessage `json:"invoices,omitempty"`
	Customers         json.RawMessage `json:"customers,omitempty"`
	Settings          json.RawMessage `json:"settings,omitempty"`
	NextInvoiceNumber int64           `json:"nextInvoiceNumber,omitempty"`
}

// ImportResult summarizes what an import replaced.
type ImportResult struct {
	Invoices         int  `json:"invoices"`
	Customers        int  `json:"customers"`
	SettingsReplaced bool `json:"settings_replaced"`
	SequenceSet      bool `json:"sequence_set"`
}
