package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationFiles embed.FS

// Migration describes one embedded migration file pair.
type Migration struct {
	Version uint
	Name    string
}

// MigrationStatus is the schema state of a database.
type MigrationStatus struct {
	Current    uint
	Dirty      bool
	Migrations []Migration
}

// Pending returns the migrations newer than the current version.
func (s *MigrationStatus) Pending() []Migration {
	var pending []Migration
	for _, m := range s.Migrations {
		if m.Version > s.Current {
			pending = append(pending, m)
		}
	}
	return pending
}

// Migrator applies the embedded migrations for one SQL dialect. It holds its
// own connection because closing a migrate instance closes the underlying pool.
type Migrator struct {
	m      *migrate.Migrate
	driver string
}

func NewMigrator(config Config) (*Migrator, error) {
	config.Driver = config.driverName()

	db, err := sql.Open(config.Driver, config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open migration connection: %w", err)
	}

	var target migratedb.Driver
	switch config.Driver {
	case DriverPostgres:
		target, err = migratepg.WithInstance(db, &migratepg.Config{})
	case DriverSQLite:
		target, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		err = fmt.Errorf("unsupported database driver %q", config.Driver)
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare migration driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations/"+config.Driver)
	if err != nil {
		target.Close()
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, config.Driver, target)
	if err != nil {
		target.Close()
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return &Migrator{m: m, driver: config.Driver}, nil
}

// Up runs all pending migrations
func (m *Migrator) Up() error {
	err := m.m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("database schema is up to date", "driver", m.driver)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("migrations applied", "driver", m.driver)
	return nil
}

// Down rolls back the given number of migrations.
func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive, got %d", steps)
	}
	if err := m.m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	return nil
}

// Status returns the applied version and the list of known migrations
func (m *Migrator) Status() (*MigrationStatus, error) {
	status := &MigrationStatus{}

	version, dirty, err := m.m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	status.Current = version
	status.Dirty = dirty

	migrations, err := LoadMigrations(m.driver)
	if err != nil {
		return nil, err
	}
	status.Migrations = migrations

	return status, nil
}

func (m *Migrator) Close() error {
	sourceErr, dbErr := m.m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	return dbErr
}

// LoadMigrations lists the embedded migrations for a driver
func LoadMigrations(driver string) ([]Migration, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		// e.g. "000001_create_users.up.sql"
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".up.sql") {
			continue
		}

		parts := strings.SplitN(entry.Name(), "_", 2)
		if len(parts) != 2 {
			continue
		}

		var version uint
		if _, err := fmt.Sscanf(parts[0], "%d", &version); err != nil {
			continue
		}

		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(parts[1], ".up.sql"),
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}
