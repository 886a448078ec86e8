package backup

import (
	"bytes"
	"strings"
	"testing"
)

func TestCompressionRoundTrip(t *testing.T) {
	cm := NewCompressionManager()
	payload := []byte(strings.Repeat(`{"description":"Service call","unit_cents":7500}`, 200))

	algorithms := []struct {
		algorithm CompressionType
		level     int
	}{
		{CompressionTypeGzip, 6},
		{CompressionTypeLZ4, 1},
		{CompressionTypeLZ4, 9},
		{CompressionTypeZstd, 3},
		{CompressionTypeNone, 0},
	}

	for _, tt := range algorithms {
		t.Run(string(tt.algorithm), func(t *testing.T) {
			compressed, err := cm.Compress(payload, tt.algorithm, tt.level)
			if err != nil {
				t.Fatalf("compress failed: %v", err)
			}
			if tt.algorithm != CompressionTypeNone && len(compressed) >= len(payload) {
				t.Errorf("repetitive payload did not shrink: %d -> %d", len(payload), len(compressed))
			}

			decompressed, err := cm.Decompress(compressed, tt.algorithm)
			if err != nil {
				t.Fatalf("decompress failed: %v", err)
			}
			if !bytes.Equal(decompressed, payload) {
				t.Error("payload did not round-trip")
			}
		})
	}
}

func TestCompressUnknownAlgorithm(t *testing.T) {
	cm := NewCompressionManager()
	if _, err := cm.Compress([]byte("data"), "brotli", 5); err == nil {
		t.Error("expected an error for an unknown algorithm")
	}
	if _, err := cm.Decompress([]byte("data"), "brotli"); err == nil {
		t.Error("expected an error for an unknown algorithm")
	}
}

func TestOutOfRangeLevelFallsBackToDefault(t *testing.T) {
	cm := NewCompressionManager()
	payload := []byte(strings.Repeat("abc", 500))

	compressed, err := cm.Compress(payload, CompressionTypeGzip, 99)
	if err != nil {
		t.Fatalf("compress with bad level failed: %v", err)
	}
	decompressed, err := cm.Decompress(compressed, CompressionTypeGzip)
	if err != nil || !bytes.Equal(decompressed, payload) {
		t.Error("fallback level did not round-trip")
	}
}

func TestShouldCompress(t *testing.T) {
	cm := NewCompressionManager()
	if cm.ShouldCompress(100, 1024) {
		t.Error("payload under the threshold should not be compressed")
	}
	if !cm.ShouldCompress(2048, 1024) {
		t.Error("payload over the threshold should be compressed")
	}
}
