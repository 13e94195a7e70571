// Package storage selects and owns the active persistence backend: a
// relational engine when one can be opened and initialized, otherwise a
// key-value fallback that keeps one JSON document per collection.
package storage

import (
	"context"

	"github.com/pkg/errors"
)

// Mode identifies the active backend
type Mode string

const (
	ModeUnset      Mode = ""
	ModeRelational Mode = "relational"
	ModeFallback   Mode = "kvs-fallback"
)

// Platform is the runtime the selector is running on
type Platform string

const (
	PlatformNative Platform = "native"
	PlatformWeb    Platform = "web"
)

var (
	// ErrNotFound is returned by Get when no row has the id
	ErrNotFound = errors.New("storage: record not found")
	// ErrDuplicateKey is returned by Insert when the id is already stored
	ErrDuplicateKey = errors.New("storage: duplicate key")
	// ErrUnknownColumn is returned for criteria or fields outside the collection schema
	ErrUnknownColumn = errors.New("storage: unknown column")
	// ErrEngineUnavailable means no relational engine is configured or registered
	ErrEngineUnavailable = errors.New("storage: relational engine unavailable")
)

// Row is one record keyed by column name.
//
// Values read back from an adapter are normalized per column kind: string,
// int64, float64, bool, time.Time or json.RawMessage. Absent or NULL columns
// are omitted.
type Row map[string]any

// Criteria holds equality constraints by column name
type Criteria map[string]any

// Adapter is one persistence backend. All rows passed to it are encoded
// according to the collection schema.
type Adapter interface {
	Mode() Mode
	Insert(ctx context.Context, c *Collection, row Row) error
	// Select returns matching rows newest-created first, ties by id
	Select(ctx context.Context, c *Collection, where Criteria) ([]Row, error)
	Get(ctx context.Context, c *Collection, id string) (Row, error)
	// Update writes only the given fields and reports whether the id matched
	Update(ctx context.Context, c *Collection, id string, fields Row) (bool, error)
	// Delete removes the id; deleting a missing id is not an error
	Delete(ctx context.Context, c *Collection, id string) error
	Close() error
}
