package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Cursor issues the loader's statements inside the transaction of one
// source file. It is not safe for concurrent use.
type Cursor struct {
	tx      *sql.Tx
	q       *Queries
	dialect *Dialect
}

// Commit commits every write made through the cursor.
func (c *Cursor) Commit() error {
	if err := c.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", c.dialect.wrap(err))
	}
	return nil
}

// Rollback discards the writes made through the cursor. It is a no-op after
// Commit.
func (c *Cursor) Rollback() error {
	err := c.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// InsertSong inserts a song, ignoring it when song_id already exists.
func (c *Cursor) InsertSong(ctx context.Context, s *Song) error {
	var year any
	if s.Year != nil {
		year = int64(*s.Year)
	}
	_, err := c.tx.ExecContext(ctx, c.q.InsertSong, s.SongID, s.Title, s.ArtistID, year, s.Duration)
	if err != nil {
		return fmt.Errorf("failed to insert song %s: %w", s.SongID, c.dialect.wrap(err))
	}
	return nil
}

// InsertArtist inserts an artist, ignoring it when artist_id already exists.
func (c *Cursor) InsertArtist(ctx context.Context, a *Artist) error {
	_, err := c.tx.ExecContext(ctx, c.q.InsertArtist,
		a.ArtistID, a.Name, nullable(a.Location), nullable(a.Latitude), nullable(a.Longitude))
	if err != nil {
		return fmt.Errorf("failed to insert artist %s: %w", a.ArtistID, c.dialect.wrap(err))
	}
	return nil
}

// InsertTime inserts a time row, ignoring it when start_time already exists.
func (c *Cursor) InsertTime(ctx context.Context, t *Time) error {
	_, err := c.tx.ExecContext(ctx, c.q.InsertTime,
		t.StartTime, int64(t.Hour), int64(t.Day), int64(t.Week), int64(t.Month), int64(t.Year), int64(t.Weekday))
	if err != nil {
		return fmt.Errorf("failed to insert time %s: %w", t.StartTime.Format("2006-01-02T15:04:05.000"), c.dialect.wrap(err))
	}
	return nil
}

// UpsertUser inserts a user; on user_id conflict only the level is
// overwritten.
func (c *Cursor) UpsertUser(ctx context.Context, u *User) error {
	_, err := c.tx.ExecContext(ctx, c.q.UpsertUser, u.UserID, u.FirstName, u.LastName, u.Gender, u.Level)
	if err != nil {
		return fmt.Errorf("failed to upsert user %d: %w", u.UserID, c.dialect.wrap(err))
	}
	return nil
}

// InsertSongplay appends a fact row. Songplays have no natural key, so the
// same play inserted twice produces two rows.
func (c *Cursor) InsertSongplay(ctx context.Context, p *Songplay) error {
	_, err := c.tx.ExecContext(ctx, c.q.InsertSongplay,
		p.StartTime, nullable(p.UserID), nullable(p.Level), nullable(p.SongID), nullable(p.ArtistID),
		p.SessionID, nullable(p.Location), nullable(p.UserAgent))
	if err != nil {
		return fmt.Errorf("failed to insert songplay: %w", c.dialect.wrap(err))
	}
	return nil
}

// FindSong looks up the song and artist ids for an exact (title, artist name,
// duration) match. No match is not an error: both ids come back nil.
func (c *Cursor) FindSong(ctx context.Context, title, artist string, duration float64) (songID, artistID *string, err error) {
	var sid, aid string
	err = c.tx.QueryRowContext(ctx, c.q.FindSong, title, artist, duration).Scan(&sid, &aid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to look up song %q by %q: %w", title, artist, c.dialect.wrap(err))
	}
	return &sid, &aid, nil
}

// nullable converts an optional field into a database/sql argument.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
