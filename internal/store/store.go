// Package store is the storage layer of the loader: it owns the connection,
// the star schema DDL and the parameterized upsert statements for each
// supported database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/sparkify-etl/internal/config"
	"github.com/franz/sparkify-etl/internal/util"
)

// pingTimeout bounds connection establishment in Open.
const pingTimeout = 10 * time.Second

// Store represents a connection to the star schema database
type Store struct {
	db      *sql.DB
	dialect *Dialect
}

// Open connects to the database described by cfg. Any failure to reach the
// database is wrapped in util.ErrConnection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*Store, error) {
	dialect, ok := LookupDialect(cfg.Driver)
	if !ok {
		return nil, fmt.Errorf("%w: unknown database driver %q (have %v)", util.ErrInvalidConfig, cfg.Driver, Dialects())
	}

	db, err := sql.Open(dialect.DriverName, cfg.DSNString())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrConnection, err)
	}

	if dialect.MaxOpenConns > 0 {
		db.SetMaxOpenConns(dialect.MaxOpenConns)
		db.SetMaxIdleConns(dialect.MaxOpenConns)
	}
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", util.ErrConnection, dialect.wrap(err))
	}

	util.DebugLog("Connected to %s", cfg.Redacted())
	return &Store{db: db, dialect: dialect}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection for custom queries
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect returns the name of the dialect in use.
func (s *Store) Dialect() string {
	return s.dialect.Name
}

// EnsureSchema creates any missing star schema table.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.execAll(ctx, "create table", s.dialect.Queries.CreateTables)
}

// DropTables drops every star schema table, fact table first.
func (s *Store) DropTables(ctx context.Context) error {
	return s.execAll(ctx, "drop table", s.dialect.Queries.DropTables)
}

// Reset drops and recreates the schema, discarding all loaded data.
func (s *Store) Reset(ctx context.Context) error {
	if err := s.DropTables(ctx); err != nil {
		return err
	}
	return s.EnsureSchema(ctx)
}

func (s *Store) execAll(ctx context.Context, what string, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to %s: %w", what, s.dialect.wrap(err))
		}
	}
	return nil
}

// Begin opens the unit of work for one source file.
func (s *Store) Begin(ctx context.Context) (*Cursor, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", s.dialect.wrap(err))
	}
	return &Cursor{tx: tx, q: &s.dialect.Queries, dialect: s.dialect}, nil
}

// Stats returns the row count of every star schema table, keyed by table name.
func (s *Store) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, len(Tables))
	for _, table := range Tables {
		var n int64
		// table names come from the fixed Tables list
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, s.dialect.wrap(err))
		}
		stats[table] = n
	}
	return stats, nil
}

// Song is a row of the songs dimension.
type Song struct {
	SongID   string
	Title    string
	ArtistID string
	Year     *int
	Duration float64
}

// Artist is a row of the artists dimension.
type Artist struct {
	ArtistID  string
	Name      string
	Location  *string
	Latitude  *float64
	Longitude *float64
}

// Time is a row of the time dimension.
type Time struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int
	Month     int
	Year      int
	Weekday   int
}

// User is a row of the users dimension.
type User struct {
	UserID    int64
	FirstName string
	LastName  string
	Gender    string
	Level     string
}

// Songplay is a row of the songplays fact table. SongID and ArtistID are nil
// when the play could not be matched to a stored song.
type Songplay struct {
	StartTime time.Time
	UserID    *int64
	Level     *string
	SongID    *string
	ArtistID  *string
	SessionID int64
	Location  *string
	UserAgent *string
}
