package db

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// Collection keys
const (
	KeyClasses  = "cda_classes"
	KeyStudents = "cda_students"
	KeySessions = "cda_sessions"
	KeyRecords  = "cda_records"
	KeyPeriods  = "cda_periods"
)

// AllKeys lists the five collections in a fixed order.
var AllKeys = []string{KeyClasses, KeyStudents, KeySessions, KeyRecords, KeyPeriods}

// Store is a flat key-value persistence layer holding serialized collections.
type Store interface {
	// Read returns the stored value for key, or nil when the key is absent.
	Read(ctx context.Context, key string) ([]byte, error)
	// Write replaces every given key. Either all values are stored or none.
	Write(ctx context.Context, entries map[string][]byte) error
	// Remove deletes the given keys. Absent keys are ignored.
	Remove(ctx context.Context, keys ...string) error
	// Snapshot reads several keys in one consistent call. Absent keys map to nil.
	Snapshot(ctx context.Context, keys ...string) (map[string][]byte, error)
	Close() error
}

// readCollection returns the array stored under key, or an empty one when absent.
func readCollection[T any](ctx context.Context, s Store, key string) ([]T, error) {
	raw, err := s.Read(ctx, key)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", key)
	}
	return decodeCollection[T](key, raw)
}

func decodeCollection[T any](key string, raw []byte) ([]T, error) {
	out := []T{}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrapf(err, "decoding %s", key)
	}
	if out == nil { // stored "null"
		out = []T{}
	}
	return out, nil
}

// writeCollection serializes the full array and replaces the stored value.
func writeCollection[T any](ctx context.Context, s Store, key string, items []T) error {
	raw, err := encodeCollection(key, items)
	if err != nil {
		return err
	}
	return errors.Wrapf(s.Write(ctx, map[string][]byte{key: raw}), "writing %s", key)
}

func encodeCollection[T any](key string, items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return nil, errors.Wrapf(err, "encoding %s", key)
	}
	return raw, nil
}
