// Package snapshot persists a single save state of the running engine in
// a key/value store and restores it atomically.
package snapshot

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultKey is the slot save states are stored under.
const DefaultKey = "nes_save_state"

// KV is the host storage a snapshot lives in. Get reports ok=false for a
// key that was never set.
type KV interface {
	Get(key string) (value []byte, ok bool, err error)
	Set(key string, value []byte) error
}

// Engine is the part of the emulation engine a snapshot needs.
type Engine interface {
	SerializeState() ([]byte, error)
	DeserializeState(data []byte) error
}

// Error reports a failed save or load. Op is one of "serialize",
// "write", "read", "checkpoint", "deserialize" or "rollback".
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("snapshot %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Store saves and loads the snapshot kept under one key.
type Store struct {
	kv  KV
	key string
}

// NewStore returns a store using key, or DefaultKey when key is empty.
func NewStore(kv KV, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{kv: kv, key: key}
}

// KV returns the backing store.
func (s *Store) KV() KV { return s.kv }

// Save serializes the engine and overwrites the slot. The engine is only
// read.
func (s *Store) Save(e Engine) error {
	blob, err := e.SerializeState()
	if err != nil {
		return &Error{Op: "serialize", Err: err}
	}
	if err := s.kv.Set(s.key, blob); err != nil {
		return &Error{Op: "write", Err: err}
	}
	return nil
}

// Load replaces the engine state with the stored snapshot. An empty slot
// is not an error: Load returns false and leaves the engine alone.
//
// Load is all or nothing. The live state is checkpointed first and put
// back if the snapshot is rejected, so a failed load never leaves the
// engine half restored.
func (s *Store) Load(e Engine) (bool, error) {
	blob, ok, err := s.kv.Get(s.key)
	if err != nil {
		return false, &Error{Op: "read", Err: err}
	}
	if !ok {
		return false, nil
	}

	checkpoint, err := e.SerializeState()
	if err != nil {
		return false, &Error{Op: "checkpoint", Err: err}
	}
	if err := e.DeserializeState(blob); err != nil {
		if rerr := e.DeserializeState(checkpoint); rerr != nil {
			return false, &Error{Op: "rollback", Err: errors.Join(err, rerr)}
		}
		return false, &Error{Op: "deserialize", Err: err}
	}
	return true, nil
}

// Exists reports whether the slot holds a snapshot.
func (s *Store) Exists() (bool, error) {
	_, ok, err := s.kv.Get(s.key)
	if err != nil {
		return false, &Error{Op: "read", Err: err}
	}
	return ok, nil
}

// MemoryKV is an in-memory KV. Values are copied on the way in and out.
type MemoryKV struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{m: make(map[string][]byte)}
}

func (kv *MemoryKV) Get(key string) ([]byte, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.m[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (kv *MemoryKV) Set(key string, value []byte) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = append([]byte(nil), value...)
	return nil
}
