// Package storage persists opaque blobs by key. Backends are interchangeable;
// wrappers add per-character namespacing and transparent compression.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no blob is stored under the key.
var ErrNotFound = errors.New("key not found")

// Store is a key-value blob store.
type Store interface {
	Get(key string) ([]byte, error) // returns ErrNotFound if absent
	Set(key string, data []byte) error
	Remove(key string) error
}

// CorruptError is returned when a stored blob exists but cannot be decoded.
// Callers treat it as "no prior data".
type CorruptError struct {
	Key string
	Err error
}

func (e *CorruptError) Error() string {
	return "corrupt stored data under " + e.Key + ": " + e.Err.Error()
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// GetJSON loads key and decodes it into v.
func GetJSON(s Store, key string, v any) error {
	data, err := s.Get(key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &CorruptError{Key: key, Err: err}
	}
	return nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(key, data)
}
