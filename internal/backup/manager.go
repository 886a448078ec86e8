package backup

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"invoicestore/internal/codec"
	"invoicestore/internal/config"
	apperrors "invoicestore/internal/errors"
	"invoicestore/internal/logging"
	"invoicestore/internal/store"
)

// Manager creates, lists, restores, and exports backup bundles. Regular and
// pre-migration bundles live in separate lists with separate retention caps,
// both stored inside the same quota-guarded store they protect.
type Manager struct {
	store       *store.Store
	compression *CompressionManager
	compressCfg config.CompressionConfig
	retention   config.RetentionConfig
	logger      *logging.Logger
}

// NewManager creates a backup manager over the store.
func NewManager(s *store.Store, cfg *config.Config, logger *logging.Logger) *Manager {
	return &Manager{
		store:       s,
		compression: NewCompressionManager(),
		compressCfg: cfg.Compression,
		retention:   cfg.Retention,
		logger:      logger,
	}
}

// Snapshot takes a backup of every primary collection and appends it to the
// regular backup list, evicting the oldest bundles beyond the retention cap.
func (m *Manager) Snapshot(tag string) (*Bundle, error) {
	if tag == "" {
		tag = TagManual
	}
	return m.snapshot(tag, "", store.KeyBackups, m.retention.MaxBackups)
}

// EnsureMigrationBackup guarantees a pre-migration bundle exists for the
// given version transition. An existing bundle for the exact same
// transition is reused rather than duplicated, so a resumed migration does
// not overwrite the backup of its own starting state.
func (m *Manager) EnsureMigrationBackup(fromVersion, toVersion string) (string, bool, error) {
	transition := fmt.Sprintf("%s->%s", fromVersion, toVersion)
	for _, bundle := range m.loadList(store.KeyMigrationBackups) {
		if bundle.Transition == transition {
			return bundle.ID, true, nil
		}
	}

	bundle, err := m.snapshot(TagPreMigration, transition, store.KeyMigrationBackups, m.retention.MaxMigrationBackups)
	if err != nil {
		return "", false, err
	}
	return bundle.ID, false, nil
}

// List returns the regular backup list, newest first.
func (m *Manager) List() []Bundle {
	bundles := m.loadList(store.KeyBackups)
	sorted, _ := applyRetention(bundles, len(bundles))
	return sorted
}

// ListMigration returns the pre-migration backup list, newest first.
func (m *Manager) ListMigration() []Bundle {
	bundles := m.loadList(store.KeyMigrationBackups)
	sorted, _ := applyRetention(bundles, len(bundles))
	return sorted
}

// Find returns the bundle with the given id from either list.
func (m *Manager) Find(bundleID string) (*Bundle, error) {
	for _, key := range []string{store.KeyBackups, store.KeyMigrationBackups} {
		for _, bundle := range m.loadList(key) {
			if bundle.ID == bundleID {
				b := bundle
				return &b, nil
			}
		}
	}
	return nil, NewNotFoundError("no backup with id " + bundleID)
}

// Restore writes a bundle's collections back over the store. Collections
// are restored independently: one failing write does not stop the others,
// and the result reports each outcome. The schema version marker is reset
// to the bundle's version so an older bundle is re-migrated on next start.
func (m *Manager) Restore(bundleID string) (*RestoreResult, error) {
	bundle, err := m.Find(bundleID)
	if err != nil {
		return nil, err
	}
	return m.restoreBundle(bundle)
}

// Rollback restores a pre-migration bundle. It is Restore with a guard
// against picking a regular bundle by accident.
func (m *Manager) Rollback(bundleID string) (*RestoreResult, error) {
	bundle, err := m.Find(bundleID)
	if err != nil {
		return nil, err
	}
	if !bundle.IsMigrationBundle() {
		return nil, NewValidationError(
			fmt.Sprintf("bundle %s is a %s backup, not a pre-migration backup; use restore instead", bundleID, bundle.Tag), nil)
	}
	return m.restoreBundle(bundle)
}

// Delete removes a bundle from whichever list holds it.
func (m *Manager) Delete(bundleID string) error {
	for _, key := range []string{store.KeyBackups, store.KeyMigrationBackups} {
		bundles := m.loadList(key)
		kept := bundles[:0]
		found := false
		for _, bundle := range bundles {
			if bundle.ID == bundleID {
				found = true
				continue
			}
			kept = append(kept, bundle)
		}
		if found {
			return m.saveList(key, kept)
		}
	}
	return NewNotFoundError("no backup with id " + bundleID)
}

// Export builds the portable export document and hands it to the
// destination. It returns the location reported by the destination.
func (m *Manager) Export(ctx context.Context, destination Destination) (string, error) {
	doc, err := m.BuildExportDocument()
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", NewValidationError("failed to encode export document", err)
	}

	filename := fmt.Sprintf("%s-export-%s.json", ApplicationName, doc.Timestamp.UTC().Format("20060102-150405"))
	location, err := destination.Store(ctx, filename, data)
	if err != nil {
		return "", NewDestinationError("export to "+destination.Name()+" failed", err)
	}
	m.logger.Infof("exported %d bytes to %s", len(data), location)
	return location, nil
}

// BuildExportDocument assembles the export envelope from current data.
func (m *Manager) BuildExportDocument() (*ExportDocument, error) {
	doc := &ExportDocument{
		Timestamp:   time.Now().UTC(),
		Version:     m.schemaVersion(),
		Application: ApplicationName,
	}

	guard := m.store.Guard()
	if raw, ok := guard.Read(store.KeyInvoices); ok && raw != "" {
		doc.Data.Invoices = json.RawMessage(raw)
	}
	if raw, ok := guard.Read(store.KeyCustomers); ok && raw != "" {
		doc.Data.Customers = json.RawMessage(raw)
	}
	if raw, ok := guard.Read(store.KeySettings); ok && raw != "" {
		doc.Data.Settings = json.RawMessage(raw)
	}
	doc.Data.NextInvoiceNumber = m.store.Sequences.Next(store.SequenceInvoiceNumber)

	return doc, nil
}

// Import replaces collections from an export document. A collection missing
// from the document leaves the current data untouched. Each incoming
// collection must at least parse as the right JSON shape before it replaces
// anything.
func (m *Manager) Import(data []byte) (*ImportResult, error) {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, NewValidationError("import document is not valid JSON", err)
	}
	if doc.Application != "" && doc.Application != ApplicationName {
		return nil, NewValidationError(
			fmt.Sprintf("import document was produced by %q, not %s", doc.Application, ApplicationName), nil)
	}
	if doc.Data.Invoices == nil && doc.Data.Customers == nil && doc.Data.Settings == nil && doc.Data.NextInvoiceNumber == 0 {
		return nil, NewValidationError("import document carries no data", nil)
	}

	guard := m.store.Guard()
	result := &ImportResult{}

	if doc.Data.Invoices != nil {
		var rows []json.RawMessage
		if err := json.Unmarshal(doc.Data.Invoices, &rows); err != nil {
			return nil, NewValidationError("import document's invoices are not a JSON array", err)
		}
		if err := guard.Write(store.KeyInvoices, string(doc.Data.Invoices)); err != nil {
			return result, err
		}
		invoices, _ := codec.DecodeCollection[codec.Invoice](string(doc.Data.Invoices))
		result.Invoices = len(invoices)
	}

	if doc.Data.Customers != nil {
		var rows []json.RawMessage
		if err := json.Unmarshal(doc.Data.Customers, &rows); err != nil {
			return nil, NewValidationError("import document's customers are not a JSON array", err)
		}
		if err := guard.Write(store.KeyCustomers, string(doc.Data.Customers)); err != nil {
			return result, err
		}
		customers, _ := codec.DecodeCollection[codec.Customer](string(doc.Data.Customers))
		result.Customers = len(customers)
	}

	if doc.Data.Settings != nil {
		if _, ok := codec.DecodeValue[codec.Settings](string(doc.Data.Settings)); !ok {
			return nil, NewValidationError("import document's settings are unreadable", nil)
		}
		if err := guard.Write(store.KeySettings, string(doc.Data.Settings)); err != nil {
			return result, err
		}
		result.SettingsReplaced = true
	}

	if doc.Data.NextInvoiceNumber > 0 {
		if err := m.store.Sequences.Set(store.SequenceInvoiceNumber, doc.Data.NextInvoiceNumber); err != nil {
			return result, err
		}
		result.SequenceSet = true
	}

	if doc.Version != "" {
		if err := m.store.SetDataVersion(doc.Version); err != nil {
			return result, err
		}
	}
	return result, nil
}

// snapshot takes a bundle and appends it to the given list under retention.
func (m *Manager) snapshot(tag, transition, listKey string, maxKeep int) (*Bundle, error) {
	collections := m.collectCurrent()
	payload, err := json.Marshal(collections)
	if err != nil {
		return nil, NewValidationError("failed to encode backup payload", err)
	}

	algorithm := CompressionTypeNone
	stored := payload
	if m.compressCfg.Enabled && m.compression.ShouldCompress(int64(len(payload)), int64(m.compressCfg.ThresholdBytes)) {
		algorithm = CompressionType(m.compressCfg.Algorithm)
		compressed, err := m.compression.Compress(payload, algorithm, m.compressCfg.Level)
		if err != nil {
			return nil, err
		}
		// Incompressible payloads are stored uncompressed.
		if len(compressed) < len(payload) {
			stored = compressed
		} else {
			algorithm = CompressionTypeNone
		}
	}

	bundle := Bundle{
		ID:            GenerateBundleID(tag),
		Tag:           tag,
		Transition:    transition,
		CreatedAt:     time.Now().UTC(),
		SchemaVersion: m.schemaVersion(),
		Compression:   string(algorithm),
		Payload:       base64.StdEncoding.EncodeToString(stored),
		PayloadBytes:  int64(len(payload)),
		Checksum:      CalculateChecksum(payload),
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	bundles := append(m.loadList(listKey), bundle)
	kept, evicted := applyRetention(bundles, maxKeep)
	if err := m.saveList(listKey, kept); err != nil {
		m.logger.LogBackupCreation(bundle.ID, tag, len(bundle.Payload), evicted, err)
		return nil, err
	}

	m.logger.LogBackupCreation(bundle.ID, tag, len(bundle.Payload), evicted, nil)
	return &bundle, nil
}

// restoreBundle decodes a bundle and writes its collections back.
func (m *Manager) restoreBundle(bundle *Bundle) (*RestoreResult, error) {
	payload, err := m.decodePayload(bundle)
	if err != nil {
		return nil, err
	}

	var collections Collections
	if err := json.Unmarshal(payload, &collections); err != nil {
		return nil, NewCorruptionError("bundle "+bundle.ID+" payload is unreadable", err)
	}

	guard := m.store.Guard()
	result := &RestoreResult{BundleID: bundle.ID, SchemaVersion: bundle.SchemaVersion}

	restore := func(key, value string) {
		outcome := CollectionRestore{Key: key}
		if value != "" {
			if err := guard.Write(key, value); err != nil {
				outcome.Error = err.Error()
			} else {
				outcome.Restored = true
			}
		}
		result.Collections = append(result.Collections, outcome)
	}
	restore(store.KeyInvoices, collections.Invoices)
	restore(store.KeyCustomers, collections.Customers)
	restore(store.KeySettings, collections.Settings)
	for name, value := range collections.Sequences {
		restore(store.SequenceKey(name), value)
	}

	if err := m.store.SetDataVersion(bundle.SchemaVersion); err != nil {
		return result, apperrors.WrapError(err, apperrors.ErrorTypeRestore, "restored data but could not reset the version marker")
	}

	if result.Failed() {
		return result, apperrors.NewAppError(apperrors.ErrorTypeRestore,
			"restore of bundle "+bundle.ID+" completed with failed collections", nil)
	}
	return result, nil
}

// decodePayload unpacks and integrity-checks a bundle's payload.
func (m *Manager) decodePayload(bundle *Bundle) ([]byte, error) {
	if err := bundle.Validate(); err != nil {
		return nil, err
	}

	stored, err := base64.StdEncoding.DecodeString(bundle.Payload)
	if err != nil {
		return nil, NewCorruptionError("bundle "+bundle.ID+" payload is not valid base64", err)
	}
	payload, err := m.compression.Decompress(stored, CompressionType(bundle.Compression))
	if err != nil {
		return nil, NewCorruptionError("bundle "+bundle.ID+" payload does not decompress", err)
	}
	if !VerifyChecksum(payload, bundle.Checksum) {
		return nil, NewCorruptionError("bundle "+bundle.ID+" failed its checksum", nil)
	}
	return payload, nil
}

// collectCurrent copies the raw stored value of every primary key.
func (m *Manager) collectCurrent() Collections {
	guard := m.store.Guard()
	collections := Collections{}

	if raw, ok := guard.Read(store.KeyInvoices); ok {
		collections.Invoices = raw
	}
	if raw, ok := guard.Read(store.KeyCustomers); ok {
		collections.Customers = raw
	}
	if raw, ok := guard.Read(store.KeySettings); ok {
		collections.Settings = raw
	}
	for _, key := range guard.Backend().Keys() {
		if !store.IsSequenceKey(key) {
			continue
		}
		if raw, ok := guard.Read(key); ok {
			if collections.Sequences == nil {
				collections.Sequences = make(map[string]string)
			}
			collections.Sequences[sequenceName(key)] = raw
		}
	}
	return collections
}

// loadList reads a bundle list, tolerating a missing or corrupt document.
func (m *Manager) loadList(key string) []Bundle {
	raw, ok := m.store.Guard().Read(key)
	if !ok || raw == "" {
		return nil
	}
	var bundles []Bundle
	if err := json.Unmarshal([]byte(raw), &bundles); err != nil {
		m.logger.Warnf("backup list %s is unreadable, starting a fresh list: %v", key, err)
		return nil
	}
	return bundles
}

// saveList writes a bundle list back through the guard.
func (m *Manager) saveList(key string, bundles []Bundle) error {
	if bundles == nil {
		bundles = []Bundle{}
	}
	encoded, err := json.Marshal(bundles)
	if err != nil {
		return NewValidationError("failed to encode backup list", err)
	}
	return m.store.Guard().Write(key, string(encoded))
}

// schemaVersion returns the stored version, mapping a missing marker to the
// legacy zero version.
func (m *Manager) schemaVersion() string {
	if version := m.store.DataVersion(); version != "" {
		return version
	}
	return "0.0.0"
}

// sequenceName strips the key prefix from a sequence key.
func sequenceName(key string) string {
	return key[len(store.SequenceKey("")):]
}
