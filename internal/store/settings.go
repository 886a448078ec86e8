package store

import (
	"invoicestore/internal/codec"
	apperrors "invoicestore/internal/errors"
	"invoicestore/internal/logging"
)

// SettingsStore manages the single business settings document. A missing or
// unreadable document yields the defaults rather than an error, so a fresh
// install and a corrupted value behave the same.
type SettingsStore struct {
	guard  *QuotaGuard
	logger *logging.Logger
}

// NewSettingsStore creates a settings store over the guard.
func NewSettingsStore(guard *QuotaGuard, logger *logging.Logger) *SettingsStore {
	return &SettingsStore{guard: guard, logger: logger}
}

// Load returns the stored settings, or the defaults when nothing valid is
// stored.
func (s *SettingsStore) Load() codec.Settings {
	raw, ok := s.guard.Read(KeySettings)
	if !ok {
		return codec.DefaultSettings()
	}
	settings, ok := codec.DecodeValue[codec.Settings](raw)
	if !ok {
		s.logger.LogDecodeDrops(KeySettings, 0, 1)
		return codec.DefaultSettings()
	}
	return settings
}

// Save validates and stores the settings document.
func (s *SettingsStore) Save(settings codec.Settings) error {
	if err := settings.Validate(); err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeValidation, "invalid settings")
	}
	encoded, err := codec.Encode(settings)
	if err != nil {
		return apperrors.WrapError(err, apperrors.ErrorTypeValidation, "failed to encode settings")
	}
	return s.guard.Write(KeySettings, encoded)
}
