package kv

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
)

const fileSuffix = ".kv"

// FileBackend stores one file per key under a base directory. Key names are
// hex-encoded so arbitrary logical keys map to safe file names. A full device
// (ENOSPC) surfaces as ErrCapacityExceeded, matching the Backend contract.
type FileBackend struct {
	mu       sync.Mutex
	basePath string
	perm     os.FileMode
}

// NewFileBackend creates a FileBackend rooted at basePath, creating the
// directory if needed.
func NewFileBackend(basePath string) (*FileBackend, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path is required for the file backend")
	}

	backend := &FileBackend{
		basePath: basePath,
		perm:     0755,
	}

	if err := os.MkdirAll(basePath, backend.perm); err != nil {
		return nil, fmt.Errorf("failed to create backend directory %s: %w", basePath, err)
	}

	return backend, nil
}

// Get returns the value for key and whether it was present
func (f *FileBackend) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.pathFor(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

// Set stores value under key. The value is written to a temporary file and
// renamed into place so a failed write never clobbers the prior value.
func (f *FileBackend) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	target := f.pathFor(key)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, []byte(value), 0644); err != nil {
		os.Remove(tmp)
		if isDeviceFull(err) {
			return fmt.Errorf("setting %q: %w", key, ErrCapacityExceeded)
		}
		return fmt.Errorf("failed to write value for %q: %w", key, err)
	}

	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit value for %q: %w", key, err)
	}

	return nil
}

// Remove deletes key
func (f *FileBackend) Remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	os.Remove(f.pathFor(key))
}

// Keys enumerates every key currently present
func (f *FileBackend) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.basePath)
	if err != nil {
		return nil
	}

	var keys []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		decoded, err := hex.DecodeString(strings.TrimSuffix(entry.Name(), fileSuffix))
		if err != nil {
			continue
		}
		keys = append(keys, string(decoded))
	}
	return keys
}

func (f *FileBackend) pathFor(key string) string {
	return filepath.Join(f.basePath, hex.EncodeToString([]byte(key))+fileSuffix)
}

func isDeviceFull(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err == syscall.ENOSPC
	}
	return false
}
