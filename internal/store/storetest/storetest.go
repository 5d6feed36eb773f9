// Package storetest opens throwaway SQLite-backed stores for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/franz/sparkify-etl/internal/config"
	"github.com/franz/sparkify-etl/internal/store"
)

// Config returns a sqlite database config pointing into t's temp dir.
func Config(t testing.TB) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "sparkify-test.db"),
	}
}

// Open returns a store with the star schema created. It is closed when the
// test ends.
func Open(t testing.TB) *store.Store {
	t.Helper()
	ctx := context.Background()

	s, err := store.Open(ctx, Config(t))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return s
}

// Count returns the number of rows in table.
func Count(t testing.TB, s *store.Store, table string) int64 {
	t.Helper()
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("failed to read stats: %v", err)
	}
	n, ok := stats[table]
	if !ok {
		t.Fatalf("unknown table %q", table)
	}
	return n
}
