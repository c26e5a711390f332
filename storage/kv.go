package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidKey is returned for keys that cannot be used as file names.
var ErrInvalidKey = errors.New("invalid storage key")

const kvExt = ".state"

// FileKV is a key/value store keeping one file per key in a directory.
// Writes are atomic. The directory is created on first write.
type FileKV struct {
	dir string
}

// NewFileKV returns a store rooted at dir.
func NewFileKV(dir string) *FileKV {
	return &FileKV{dir: dir}
}

// OpenGameKV returns the store for one game's save slots.
func OpenGameKV(gameID string) (*FileKV, error) {
	dir, err := GetGameSaveDir(gameID)
	if err != nil {
		return nil, err
	}
	return NewFileKV(dir), nil
}

// Dir returns the directory backing the store.
func (kv *FileKV) Dir() string { return kv.dir }

func (kv *FileKV) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\:`) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(kv.dir, key+kvExt), nil
}

// Get returns the value stored under key; ok is false if there is none.
func (kv *FileKV) Get(key string) ([]byte, bool, error) {
	p, err := kv.path(key)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return data, true, nil
}

// Set replaces the value stored under key.
func (kv *FileKV) Set(key string, value []byte) error {
	p, err := kv.path(key)
	if err != nil {
		return err
	}
	return AtomicWriteFile(p, value)
}
