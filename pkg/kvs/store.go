// Package kvs wraps a persistent string key-value medium. It backs the
// session/user/theme state of the app and the fallback storage buckets.
package kvs

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by Get when the key is absent
var ErrNotFound = errors.New("kvs: key not found")

// Store is a string key-value medium
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Ping(ctx context.Context) error
	Close() error
}

// GetJSON reads key and decodes it into dest
func GetJSON(ctx context.Context, s Store, key string, dest any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return errors.Wrapf(err, "kvs: key %s does not hold valid JSON", key)
	}
	return nil
}

// SetJSON encodes value and stores it under key
func SetJSON(ctx context.Context, s Store, key string, value any) error {
	b, err := json.Marshal(value)
	if err != nil {
		return errors.Wrapf(err, "kvs: failed to encode value for key %s", key)
	}
	return s.Set(ctx, key, string(b))
}
