package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"eventhub/internal/config"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type DB struct {
	*sql.DB
	config Config
}

type Config struct {
	Driver     string
	URL        string // Full database URL
	Host       string
	Port       int
	User       string
	Password   string
	DBName     string
	SSLMode    string
	SQLitePath string
}

// DSN builds the driver specific data source name.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		// IMMEDIATE transactions take the write lock up front so two booking
		// transactions never deadlock upgrading from a read lock.
		return fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on&_txlock=immediate", c.SQLitePath)
	}

	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

func (c Config) driverName() string {
	if c.Driver == "" {
		return DriverPostgres
	}
	return c.Driver
}

// ConfigFrom builds a connection config from the application settings.
func ConfigFrom(c config.DatabaseConfig) Config {
	return Config{
		Driver:     c.Driver,
		URL:        c.URL,
		Host:       c.Host,
		Port:       c.Port,
		User:       c.User,
		Password:   c.Password,
		DBName:     c.DBName,
		SSLMode:    c.SSLMode,
		SQLitePath: c.SQLitePath,
	}
}

func NewConnection(config Config) (*DB, error) {
	config.Driver = config.driverName()
	if config.Driver != DriverPostgres && config.Driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", config.Driver)
	}

	db, err := sql.Open(config.Driver, config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if config.Driver == DriverSQLite {
		// SQLite allows a single writer
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, config: config}, nil
}

// Driver returns the name of the SQL driver in use.
func (db *DB) Driver() string {
	return db.config.Driver
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// RunMigrations applies all pending migrations
func (db *DB) RunMigrations() error {
	migrator, err := NewMigrator(db.config)
	if err != nil {
		return err
	}
	defer migrator.Close()

	return migrator.Up()
}

// GetMigrationStatus reports the current schema version
func (db *DB) GetMigrationStatus() (*MigrationStatus, error) {
	migrator, err := NewMigrator(db.config)
	if err != nil {
		return nil, err
	}
	defer migrator.Close()

	return migrator.Status()
}
