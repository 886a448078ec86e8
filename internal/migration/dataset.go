package migration

import (
	"encoding/json"

	apperrors "invoicestore/internal/errors"
	"invoicestore/internal/store"
)

// Dataset gives migration steps raw-shape access to stored documents. Steps
// run before the typed codec can be trusted, so everything here is generic
// JSON. Writes go through the quota guard like any other write.
type Dataset struct {
	guard *store.QuotaGuard
}

// NewDataset wraps the guard for step execution.
func NewDataset(guard *store.QuotaGuard) *Dataset {
	return &Dataset{guard: guard}
}

// LoadCollection returns the rows stored under key as generic maps. A
// missing key is an empty collection; a malformed document is an error,
// because a migration step must not silently discard data.
func (d *Dataset) LoadCollection(key string) ([]map[string]interface{}, error) {
	raw, ok := d.guard.Read(key)
	if !ok || raw == "" {
		return []map[string]interface{}{}, nil
	}
	var rows []map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrorTypeMigration, "collection "+key+" is not migratable")
	}
	return rows, nil
}

// SaveCollection writes the rows back under key.
func (d *Dataset) SaveCollection(key string, rows []map[string]interface{}) error {
	encoded, err := json.Marshal(rows)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeMigration, "failed to encode collection "+key)
	}
	return d.guard.Write(key, string(encoded))
}

// LoadObject returns the single document stored under key, reporting whether
// one exists.
func (d *Dataset) LoadObject(key string) (map[string]interface{}, bool, error) {
	raw, ok := d.guard.Read(key)
	if !ok || raw == "" {
		return nil, false, nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, false, apperrors.WrapError(err, apperrors.ErrorTypeMigration, "document "+key+" is not migratable")
	}
	return obj, true, nil
}

// SaveObject writes the single document back under key.
func (d *Dataset) SaveObject(key string, obj map[string]interface{}) error {
	encoded, err := json.Marshal(obj)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeMigration, "failed to encode document "+key)
	}
	return d.guard.Write(key, string(encoded))
}

// WriteRaw stores a scalar value under key.
func (d *Dataset) WriteRaw(key, value string) error {
	return d.guard.Write(key, value)
}
