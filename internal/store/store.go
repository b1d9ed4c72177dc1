// Package store persists canonical incidents and roads in MySQL. It is the
// only shared mutable resource in the pipeline; correctness under
// concurrent ingestion comes from the uuid uniqueness constraint plus the
// conflict-driven fallback in the ingest engine, never from application
// locks.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Config holds the MySQL connection settings.
type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DSN renders the driver connection string. parseTime makes DATETIME
// columns scan into time.Time.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// Store wraps the connection pool.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to MySQL and verifies the connection.
func Open(cfg Config, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("mysql", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("ping database: %w", err)
	}

	logger.Info("database connected", "host", cfg.Host, "db", cfg.DBName)
	return &Store{db: db, logger: logger}, nil
}

// NewWithDB wraps an existing pool; used by integration tests.
func NewWithDB(db *sql.DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS incidents (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		uuid VARCHAR(64) NOT NULL,
		source_system VARCHAR(64) NOT NULL,
		source_event_id VARCHAR(128) NULL,
		source_url TEXT NULL,
		state VARCHAR(2) NULL,
		county VARCHAR(128) NULL,
		route VARCHAR(64) NULL,
		route_class VARCHAR(32) NULL,
		direction VARCHAR(32) NULL,
		milepost DOUBLE NULL,
		latitude DOUBLE NULL,
		longitude DOUBLE NULL,
		reported_time DATETIME NULL,
		updated_time DATETIME NULL,
		cleared_time DATETIME NULL,
		is_active TINYINT(1) NULL,
		event_type VARCHAR(64) NULL,
		lanes_affected VARCHAR(255) NULL,
		closure_status VARCHAR(32) NULL,
		severity_flag VARCHAR(16) NULL,
		severity_score INT NULL,
		raw_blob JSON NULL,
		created_at DATETIME NULL,
		updated_at DATETIME NULL,
		UNIQUE KEY ix_incidents_uuid (uuid),
		KEY idx_source_event (source_system, source_event_id),
		KEY idx_state_route (state, route),
		KEY idx_reported_time (reported_time),
		KEY idx_updated_time (updated_time)
	)`,
	`CREATE TABLE IF NOT EXISTS roads (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		source_system VARCHAR(50) NOT NULL,
		road_id VARCHAR(50) NOT NULL,
		name VARCHAR(100) NULL,
		description TEXT NULL,
		direction VARCHAR(20) NULL,
		begin_mile DOUBLE NULL,
		end_mile DOUBLE NULL,
		length DOUBLE NULL,
		geometry JSON NULL,
		last_updated DATETIME NULL,
		UNIQUE KEY uq_road_source_id (source_system, road_id)
	)`,
}

// EnsureSchema creates the incidents and roads tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
