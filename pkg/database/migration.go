package database

import (
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(strings.TrimSuffix(format, "\n"), v...)
}

type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

type MigrationConfig struct {
	// Migrations holds one directory per driver name ("sqlite", "postgres")
	Migrations fs.FS
	// Version pins the target version; 0 migrates to the latest
	Version      uint
	AutoRollback bool // If enabled, will attempt to rollback the database to the previous version if an error occurs
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

// Migrate applies the embedded migrations for db's driver. Already applied
// migrations are skipped, so it is safe to call on every startup.
func (ms *MigrationService) Migrate(db DB) error {
	driverName := db.DriverName()

	source, err := iofs.New(ms.config.Migrations, driverName)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("no migrations found for driver %s", driverName))
	}

	instance, err := ms.databaseDriver(db)
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, instance)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}

	m.Log = MigrationLogger{Logger: ms.logger}

	return ms.runMigration(m)
}

func (ms *MigrationService) databaseDriver(db DB) (migratedb.Driver, error) {
	switch db.DriverName() {
	case DriverSQLite:
		driver, err := migratesqlite.WithInstance(db.SQL(), &migratesqlite.Config{})
		return driver, errors.Wrap(err, "failed to create sqlite migration driver")
	case DriverPostgres:
		driver, err := postgres.WithInstance(db.SQL(), &postgres.Config{})
		return driver, errors.Wrap(err, "failed to create postgres migration driver")
	default:
		return nil, fmt.Errorf("unsupported migration driver: %s", db.DriverName())
	}
}

func (ms *MigrationService) runMigration(m *migrate.Migrate) error {
	version, _, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ms.logger.WithError(versionErr).Error("Failed to get current migration version")
	}

	startTime := time.Now()

	var migrationErr error
	if ms.config.Version != 0 {
		migrationErr = m.Migrate(ms.config.Version)
	} else {
		migrationErr = m.Up()
	}

	ms.logger.Debugf("Database migrations completed in %v", time.Since(startTime))

	return ms.handleMigrationError(m, migrationErr, version)
}

func (ms *MigrationService) handleMigrationError(m *migrate.Migrate, err error, previousVersion uint) error {
	if err == nil {
		ms.logger.Info("Successfully applied migrations")
		return nil
	}

	if err == migrate.ErrNoChange {
		ms.logger.Info("No new migrations to apply")
		return nil
	}

	ms.logger.WithError(err).Errorf("Migration failed with error: %v", err)

	version, dirty, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ms.logger.WithError(versionErr).Error("Failed to get current migration version")
		return err
	}

	if ms.config.AutoRollback && dirty {
		if previousVersion == 0 && version > 0 {
			previousVersion = version - 1
		}
		ms.logger.Warnf("Database is dirty at version %d. Reverting to version %d", version, previousVersion)

		target := int(previousVersion)
		if target == 0 {
			target = -1 // nil version
		}
		if forceErr := m.Force(target); forceErr != nil {
			ms.logger.WithError(forceErr).Errorf("Failed to force database to version %d", previousVersion)
		}
	}

	// still return the error so the caller can fall back
	return err
}
