package codec

import (
	"encoding/json"
	"fmt"
)

// Encode serializes a single record or document to its stored string form.
func Encode[T any](value T) (string, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode record: %w", err)
	}
	return string(data), nil
}

// Decode parses a single record, returning ok=false for malformed JSON or a
// record that fails its own validation. It never returns an error: a bad
// record is simply not a record.
func Decode[T Record](s string) (T, bool) {
	var rec T
	if err := json.Unmarshal([]byte(s), &rec); err != nil {
		var zero T
		return zero, false
	}
	if err := rec.Validate(); err != nil {
		var zero T
		return zero, false
	}
	return rec, true
}

// DecodeValue parses a non-collection document (settings, export documents)
// without record validation.
func DecodeValue[T any](s string) (T, bool) {
	var value T
	if err := json.Unmarshal([]byte(s), &value); err != nil {
		var zero T
		return zero, false
	}
	return value, true
}

// EncodeCollection serializes a full collection as a JSON array.
func EncodeCollection[T Record](records []T) (string, error) {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to encode collection: %w", err)
	}
	return string(data), nil
}

// DecodeCollection parses a stored collection, decoding each entry
// independently and dropping malformed ones. It returns the surviving
// records and the number dropped. A document that is not a JSON array at
// all decodes to an empty collection: lossy but available.
func DecodeCollection[T Record](s string) ([]T, int) {
	if s == "" {
		return []T{}, 0
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return []T{}, 0
	}

	records := make([]T, 0, len(raw))
	dropped := 0
	for _, entry := range raw {
		rec, ok := Decode[T](string(entry))
		if !ok {
			dropped++
			continue
		}
		records = append(records, rec)
	}
	return records, dropped
}
