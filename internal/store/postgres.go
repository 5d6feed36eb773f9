package store

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

func init() {
	RegisterDialect(&Dialect{
		Name:       "postgres",
		DriverName: "pgx",
		Queries: Queries{
			CreateTables: []string{pgCreateUsers, pgCreateSongs, pgCreateArtists, pgCreateTime, pgCreateSongplays},
			DropTables:   dropTables,

			InsertSong: `
				INSERT INTO songs (song_id, title, artist_id, year, duration)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (song_id) DO NOTHING`,
			InsertArtist: `
				INSERT INTO artists (artist_id, name, location, latitude, longitude)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (artist_id) DO NOTHING`,
			InsertTime: `
				INSERT INTO time (start_time, hour, day, week, month, year, weekday)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (start_time) DO NOTHING`,
			UpsertUser: `
				INSERT INTO users (user_id, first_name, last_name, gender, level)
				VALUES ($1, $2, $3, $4, $5)
				ON CONFLICT (user_id) DO UPDATE SET level = EXCLUDED.level`,
			InsertSongplay: `
				INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
				ON CONFLICT DO NOTHING`,
			FindSong: `
				SELECT songs.song_id, artists.artist_id
				FROM songs JOIN artists ON songs.artist_id = artists.artist_id
				WHERE songs.title = $1 AND artists.name = $2 AND songs.duration = $3
				LIMIT 1`,
		},
		wrapError: pgError,
	})
}

// pgError appends the server-side detail and SQLSTATE of a Postgres error.
func pgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Detail != "" {
		return fmt.Errorf("%w (%s, SQLSTATE %s)", err, pgErr.Detail, pgErr.SQLState())
	}
	return err
}
