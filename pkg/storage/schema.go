package storage

import (
	"context"
	"embed"
	"io/fs"

	"github.com/Gobusters/ectologger"
	"github.com/pkg/errors"

	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/database"
	"github.com/CleytonSalvego/gestao-lead-app-sub000/pkg/tracing"
)

//go:embed migrations
var migrationFiles embed.FS

// SchemaInitializer ensures the tables and indexes of every collection exist
// on an open relational connection. It must be safe to run on every startup.
type SchemaInitializer interface {
	Initialize(ctx context.Context, db database.DB) error
}

// MigrationSchema applies the embedded migrations for the connection driver
type MigrationSchema struct {
	service *database.MigrationService
}

func NewSchemaInitializer(logger ectologger.Logger) *MigrationSchema {
	migrations, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		// the embedded tree always has the directory
		panic(err)
	}
	return &MigrationSchema{
		service: database.NewMigrationService(logger, &database.MigrationConfig{
			Migrations: migrations,
		}),
	}
}

func (s *MigrationSchema) Initialize(ctx context.Context, db database.DB) error {
	_, span := tracing.StartSpan(ctx, "MigrationSchema.Initialize")
	defer span.End()

	if err := s.service.Migrate(db); err != nil {
		tracing.RecordError(span, err)
		return errors.Wrap(err, "schema initialization failed")
	}
	return nil
}

// SchemaFunc adapts a function to SchemaInitializer
type SchemaFunc func(ctx context.Context, db database.DB) error

func (f SchemaFunc) Initialize(ctx context.Context, db database.DB) error {
	return f(ctx, db)
}
