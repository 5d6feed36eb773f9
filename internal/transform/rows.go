// Package transform derives star schema rows from source records and writes
// them through a store cursor.
package transform

import (
	"time"

	"github.com/franz/sparkify-etl/internal/record"
	"github.com/franz/sparkify-etl/internal/store"
)

// SongRowOf projects a song record onto the songs dimension.
func SongRowOf(s *record.Song) *store.Song {
	row := &store.Song{
		SongID:   s.SongID,
		Title:    deref(s.Title),
		ArtistID: s.ArtistID,
		Year:     s.Year,
	}
	if s.Duration != nil {
		row.Duration = *s.Duration
	}
	return row
}

// ArtistRowOf projects the artist fields of a song record onto the artists
// dimension.
func ArtistRowOf(s *record.Song) *store.Artist {
	return &store.Artist{
		ArtistID:  s.ArtistID,
		Name:      deref(s.ArtistName),
		Location:  s.ArtistLocation,
		Latitude:  s.ArtistLatitude,
		Longitude: s.ArtistLongitude,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StartTime converts epoch milliseconds to a UTC timestamp.
func StartTime(ts int64) time.Time {
	return time.UnixMilli(ts).UTC()
}

// NewTimeRow decomposes an event timestamp into the time dimension.
// Weeks follow ISO-8601 and weekdays run Monday=0 through Sunday=6.
func NewTimeRow(ts int64) *store.Time {
	t := StartTime(ts)
	_, week := t.ISOWeek()
	return &store.Time{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}

// userKey is the full projected user row, used for identity dedup.
type userKey struct {
	id     int64
	first  string
	last   string
	gender string
	level  string
}

// UserRows projects events onto the users dimension. Rows are deduplicated by
// full-row identity in first-occurrence order; a row with any NULL field is
// dropped. Two rows for one user that differ only in level both survive, so
// the later one wins the level on upsert.
func UserRows(events []record.Event) []*store.User {
	seen := make(map[userKey]bool)
	var rows []*store.User
	for i := range events {
		e := &events[i]
		if !e.UserID.Valid || e.FirstName == nil || e.LastName == nil || e.Gender == nil || e.Level == nil {
			continue
		}
		key := userKey{e.UserID.Value, *e.FirstName, *e.LastName, *e.Gender, *e.Level}
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, &store.User{
			UserID:    key.id,
			FirstName: key.first,
			LastName:  key.last,
			Gender:    key.gender,
			Level:     key.level,
		})
	}
	return rows
}

// SongplayOf builds the fact row for a playback event with the ids resolved
// by lookup (nil when unresolved).
func SongplayOf(e *record.Event, songID, artistID *string) *store.Songplay {
	return &store.Songplay{
		StartTime: StartTime(e.Ts),
		UserID:    e.UserID.Ptr(),
		Level:     e.Level,
		SongID:    songID,
		ArtistID:  artistID,
		SessionID: e.SessionID,
		Location:  e.Location,
		UserAgent: e.UserAgent,
	}
}

// NextSongs returns the playback events, preserving order.
func NextSongs(events []record.Event) []record.Event {
	out := make([]record.Event, 0, len(events))
	for _, e := range events {
		if e.IsNextSong() {
			out = append(out, e)
		}
	}
	return out
}
