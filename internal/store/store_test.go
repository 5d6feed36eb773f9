package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/franz/sparkify-etl/internal/config"
	"github.com/franz/sparkify-etl/internal/store"
	"github.com/franz/sparkify-etl/internal/store/storetest"
	"github.com/franz/sparkify-etl/internal/util"
)

func ptr[T any](v T) *T { return &v }

func begin(t *testing.T, s *store.Store) *store.Cursor {
	t.Helper()
	cur, err := s.Begin(context.Background())
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	t.Cleanup(func() { cur.Rollback() })
	return cur
}

func commit(t *testing.T, cur *store.Cursor) {
	t.Helper()
	if err := cur.Commit(); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func TestDialectsRegistered(t *testing.T) {
	names := store.Dialects()
	if len(names) != 2 || names[0] != "postgres" || names[1] != "sqlite" {
		t.Errorf("Dialects() = %v, expected [postgres sqlite]", names)
	}

	d, ok := store.LookupDialect("postgres")
	if !ok || d.DriverName != "pgx" {
		t.Errorf("postgres dialect = %+v", d)
	}
	for _, q := range []string{d.Queries.InsertSong, d.Queries.UpsertUser, d.Queries.FindSong} {
		if q == "" {
			t.Error("postgres dialect has an empty query template")
		}
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), config.DatabaseConfig{Driver: "oracle"})
	if !errors.Is(err, util.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestOpenConnectionFailure(t *testing.T) {
	cfg := config.Default().Database
	cfg.Port = 1 // nothing listens here

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := store.Open(ctx, cfg)
	if !errors.Is(err, util.ErrConnection) {
		t.Errorf("expected ErrConnection, got %v", err)
	}
}

func TestEnsureSchemaAndStats(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	// Second call must be a no-op
	if err := s.EnsureSchema(ctx); err != nil {
		t.Fatalf("EnsureSchema (second) failed: %v", err)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	for _, table := range store.Tables {
		n, ok := stats[table]
		if !ok {
			t.Errorf("missing table %s", table)
		}
		if n != 0 {
			t.Errorf("table %s: expected 0 rows, got %d", table, n)
		}
	}
	if s.Dialect() != "sqlite" {
		t.Errorf("Dialect() = %q", s.Dialect())
	}
}

func TestInsertSongAndArtistIdempotent(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	song := &store.Song{SongID: "S1", Title: "T1", ArtistID: "A1", Year: ptr(2000), Duration: 180.5}
	artist := &store.Artist{ArtistID: "A1", Name: "Art1", Location: ptr("LA"), Latitude: ptr(34.0), Longitude: ptr(-118.0)}

	for i := 0; i < 2; i++ {
		cur := begin(t, s)
		if err := cur.InsertSong(ctx, song); err != nil {
			t.Fatalf("InsertSong #%d failed: %v", i+1, err)
		}
		if err := cur.InsertArtist(ctx, artist); err != nil {
			t.Fatalf("InsertArtist #%d failed: %v", i+1, err)
		}
		commit(t, cur)
	}

	if n := storetest.Count(t, s, "songs"); n != 1 {
		t.Errorf("expected 1 song, got %d", n)
	}
	if n := storetest.Count(t, s, "artists"); n != 1 {
		t.Errorf("expected 1 artist, got %d", n)
	}

	var title, artistID string
	var year int
	var duration float64
	err := s.DB().QueryRow("SELECT title, artist_id, year, duration FROM songs WHERE song_id = ?", "S1").
		Scan(&title, &artistID, &year, &duration)
	if err != nil {
		t.Fatalf("select song failed: %v", err)
	}
	if title != "T1" || artistID != "A1" || year != 2000 || duration != 180.5 {
		t.Errorf("song row = (%s, %s, %d, %v)", title, artistID, year, duration)
	}
}

func TestInsertArtistNullables(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	cur := begin(t, s)
	if err := cur.InsertArtist(ctx, &store.Artist{ArtistID: "A2", Name: "Nowhere Man"}); err != nil {
		t.Fatalf("InsertArtist failed: %v", err)
	}
	commit(t, cur)

	var nulls int
	err := s.DB().QueryRow(`SELECT COUNT(*) FROM artists
		WHERE artist_id = 'A2' AND location IS NULL AND latitude IS NULL AND longitude IS NULL`).Scan(&nulls)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if nulls != 1 {
		t.Error("expected location and coordinates to be stored as NULL")
	}
}

func TestUpsertUserOverwritesLevel(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	cur := begin(t, s)
	if err := cur.UpsertUser(ctx, &store.User{UserID: 10, FirstName: "Ann", LastName: "Lee", Gender: "F", Level: "free"}); err != nil {
		t.Fatalf("UpsertUser failed: %v", err)
	}
	if err := cur.UpsertUser(ctx, &store.User{UserID: 10, FirstName: "Changed", LastName: "Lee", Gender: "F", Level: "paid"}); err != nil {
		t.Fatalf("UpsertUser (conflict) failed: %v", err)
	}
	commit(t, cur)

	var first, level string
	if err := s.DB().QueryRow("SELECT first_name, level FROM users WHERE user_id = 10").Scan(&first, &level); err != nil {
		t.Fatalf("select user failed: %v", err)
	}
	if level != "paid" {
		t.Errorf("level = %q, expected paid", level)
	}
	if first != "Ann" {
		t.Errorf("first_name = %q, only level may change on conflict", first)
	}
	if n := storetest.Count(t, s, "users"); n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestInsertTimeIdempotent(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	row := &store.Time{StartTime: time.UnixMilli(1541207953796).UTC(), Hour: 1, Day: 3, Week: 44, Month: 11, Year: 2018, Weekday: 5}
	cur := begin(t, s)
	for i := 0; i < 3; i++ {
		if err := cur.InsertTime(ctx, row); err != nil {
			t.Fatalf("InsertTime #%d failed: %v", i+1, err)
		}
	}
	commit(t, cur)

	if n := storetest.Count(t, s, "time"); n != 1 {
		t.Errorf("expected 1 time row, got %d", n)
	}
}

func TestFindSong(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	cur := begin(t, s)
	if err := cur.InsertSong(ctx, &store.Song{SongID: "S1", Title: "T1", ArtistID: "A1", Duration: 180.5}); err != nil {
		t.Fatal(err)
	}
	if err := cur.InsertArtist(ctx, &store.Artist{ArtistID: "A1", Name: "Art1"}); err != nil {
		t.Fatal(err)
	}
	commit(t, cur)

	tests := []struct {
		name     string
		title    string
		artist   string
		duration float64
		match    bool
	}{
		{"exact", "T1", "Art1", 180.5, true},
		{"duration off by a hair", "T1", "Art1", 180.50001, false},
		{"wrong artist", "T1", "Art2", 180.5, false},
		{"wrong title", "t1", "Art1", 180.5, false},
	}

	cur = begin(t, s)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			songID, artistID, err := cur.FindSong(ctx, tt.title, tt.artist, tt.duration)
			if err != nil {
				t.Fatalf("FindSong failed: %v", err)
			}
			if !tt.match {
				if songID != nil || artistID != nil {
					t.Errorf("expected no match, got %v/%v", songID, artistID)
				}
				return
			}
			if songID == nil || artistID == nil || *songID != "S1" || *artistID != "A1" {
				t.Errorf("expected S1/A1, got %v/%v", songID, artistID)
			}
		})
	}
}

func TestInsertSongplayAllowsDuplicatesAndNulls(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	start := time.UnixMilli(1541207953796).UTC()
	cur := begin(t, s)
	if err := cur.InsertTime(ctx, &store.Time{StartTime: start, Hour: 1, Day: 3, Week: 44, Month: 11, Year: 2018, Weekday: 5}); err != nil {
		t.Fatal(err)
	}
	if err := cur.UpsertUser(ctx, &store.User{UserID: 10, FirstName: "Ann", LastName: "Lee", Gender: "F", Level: "free"}); err != nil {
		t.Fatal(err)
	}
	play := &store.Songplay{StartTime: start, UserID: ptr(int64(10)), Level: ptr("free"), SessionID: 7, Location: ptr("LA"), UserAgent: ptr("curl")}
	for i := 0; i < 2; i++ {
		if err := cur.InsertSongplay(ctx, play); err != nil {
			t.Fatalf("InsertSongplay #%d failed: %v", i+1, err)
		}
	}
	commit(t, cur)

	if n := storetest.Count(t, s, "songplays"); n != 2 {
		t.Errorf("expected 2 songplays, got %d", n)
	}

	var nulls int
	if err := s.DB().QueryRow("SELECT COUNT(*) FROM songplays WHERE song_id IS NULL AND artist_id IS NULL").Scan(&nulls); err != nil {
		t.Fatal(err)
	}
	if nulls != 2 {
		t.Errorf("expected unmatched plays to store NULL ids, got %d", nulls)
	}
}

func TestSongplayForeignKeys(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	cur := begin(t, s)
	err := cur.InsertSongplay(ctx, &store.Songplay{StartTime: time.UnixMilli(1).UTC(), UserID: ptr(int64(99))})
	if err == nil {
		t.Fatal("expected foreign key violation for unknown user and time")
	}
}

func TestRollbackDiscardsWrites(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	cur := begin(t, s)
	if err := cur.InsertArtist(ctx, &store.Artist{ArtistID: "A1", Name: "Art1"}); err != nil {
		t.Fatal(err)
	}
	if err := cur.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if err := cur.Rollback(); err != nil {
		t.Errorf("second Rollback should be a no-op, got %v", err)
	}

	if n := storetest.Count(t, s, "artists"); n != 0 {
		t.Errorf("expected rollback to discard artist, got %d rows", n)
	}
}

func TestReset(t *testing.T) {
	s := storetest.Open(t)
	ctx := context.Background()

	cur := begin(t, s)
	if err := cur.InsertArtist(ctx, &store.Artist{ArtistID: "A1", Name: "Art1"}); err != nil {
		t.Fatal(err)
	}
	commit(t, cur)

	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if n := storetest.Count(t, s, "artists"); n != 0 {
		t.Errorf("expected empty artists after reset, got %d", n)
	}
}
