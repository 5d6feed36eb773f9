package store

import (
	_ "modernc.org/sqlite" // SQLite driver
)

func init() {
	RegisterDialect(&Dialect{
		Name:       "sqlite",
		DriverName: "sqlite",
		// SQLite works best with a single writer
		MaxOpenConns: 1,
		Queries: Queries{
			CreateTables: []string{liteCreateUsers, liteCreateSongs, liteCreateArtists, liteCreateTime, liteCreateSongplays},
			DropTables:   dropTables,

			InsertSong: `
				INSERT INTO songs (song_id, title, artist_id, year, duration)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(song_id) DO NOTHING`,
			InsertArtist: `
				INSERT INTO artists (artist_id, name, location, latitude, longitude)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(artist_id) DO NOTHING`,
			InsertTime: `
				INSERT INTO time (start_time, hour, day, week, month, year, weekday)
				VALUES (?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(start_time) DO NOTHING`,
			UpsertUser: `
				INSERT INTO users (user_id, first_name, last_name, gender, level)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(user_id) DO UPDATE SET level = excluded.level`,
			InsertSongplay: `
				INSERT INTO songplays (start_time, user_id, level, song_id, artist_id, session_id, location, user_agent)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT DO NOTHING`,
			FindSong: `
				SELECT songs.song_id, artists.artist_id
				FROM songs JOIN artists ON songs.artist_id = artists.artist_id
				WHERE songs.title = ? AND artists.name = ? AND songs.duration = ?
				LIMIT 1`,
		},
	})
}
