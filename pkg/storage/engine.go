package storage

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/database"
)

// Engine opens the relational connection
type Engine interface {
	Open(ctx context.Context) (database.DB, error)
}

// EngineFunc adapts a function to Engine
type EngineFunc func(ctx context.Context) (database.DB, error)

func (f EngineFunc) Open(ctx context.Context) (database.DB, error) {
	return f(ctx)
}

// SQLEngine opens a named driver/DSN pair through database.Open
type SQLEngine struct {
	Driver string
	DSN    string
	Pool   database.PoolConfig
	Logger ectologger.Logger
}

func (e SQLEngine) Open(ctx context.Context) (database.DB, error) {
	if e.Driver == "" {
		return nil, ErrEngineUnavailable
	}
	return database.Open(ctx, e.Driver, e.DSN, e.Pool, e.Logger)
}

// BridgeProbe reports whether the runtime support the relational engine needs
// on the web platform is present and registered
type BridgeProbe func(ctx context.Context) bool
