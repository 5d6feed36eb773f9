package transform

import (
	"context"
	"fmt"

	"github.com/franz/sparkify-etl/internal/record"
	"github.com/franz/sparkify-etl/internal/store"
	"github.com/spf13/afero"
)

// Cursor is the subset of *store.Cursor the loaders write through.
type Cursor interface {
	InsertSong(ctx context.Context, s *store.Song) error
	InsertArtist(ctx context.Context, a *store.Artist) error
	InsertTime(ctx context.Context, t *store.Time) error
	UpsertUser(ctx context.Context, u *store.User) error
	InsertSongplay(ctx context.Context, p *store.Songplay) error
	FindSong(ctx context.Context, title, artist string, duration float64) (songID, artistID *string, err error)
}

var _ Cursor = (*store.Cursor)(nil)

// Result counts the statements issued for one batch. Conflict policies decide
// how many of them actually changed a row.
type Result struct {
	Records   int
	Skipped   int // events that are not playbacks
	Songs     int
	Artists   int
	Times     int
	Users     int
	Songplays int
	Matched   int // songplays whose song and artist were resolved
}

// Add accumulates r2 into r.
func (r *Result) Add(r2 Result) {
	r.Records += r2.Records
	r.Skipped += r2.Skipped
	r.Songs += r2.Songs
	r.Artists += r2.Artists
	r.Times += r2.Times
	r.Users += r2.Users
	r.Songplays += r2.Songplays
	r.Matched += r2.Matched
}

// LoadSongs writes the song and the artist of every record, ignoring rows
// whose key is already stored.
func LoadSongs(ctx context.Context, cur Cursor, songs []record.Song) (Result, error) {
	res := Result{Records: len(songs)}
	for i := range songs {
		if err := cur.InsertSong(ctx, SongRowOf(&songs[i])); err != nil {
			return res, err
		}
		res.Songs++

		if err := cur.InsertArtist(ctx, ArtistRowOf(&songs[i])); err != nil {
			return res, err
		}
		res.Artists++
	}
	return res, nil
}

// LoadEvents writes the time, user and songplay rows derived from the
// playback events of one log file. Other events are dropped.
func LoadEvents(ctx context.Context, cur Cursor, events []record.Event) (Result, error) {
	plays := NextSongs(events)
	res := Result{Records: len(events), Skipped: len(events) - len(plays)}

	for i := range plays {
		if err := cur.InsertTime(ctx, NewTimeRow(plays[i].Ts)); err != nil {
			return res, err
		}
		res.Times++
	}

	for _, u := range UserRows(plays) {
		if err := cur.UpsertUser(ctx, u); err != nil {
			return res, err
		}
		res.Users++
	}

	for i := range plays {
		e := &plays[i]
		songID, artistID, err := lookup(ctx, cur, e)
		if err != nil {
			return res, err
		}
		if songID != nil {
			res.Matched++
		}
		if err := cur.InsertSongplay(ctx, SongplayOf(e, songID, artistID)); err != nil {
			return res, err
		}
		res.Songplays++
	}

	return res, nil
}

// lookup resolves the song and artist of a playback. An event missing the
// title, artist or length cannot match anything.
func lookup(ctx context.Context, cur Cursor, e *record.Event) (*string, *string, error) {
	if e.Song == nil || e.Artist == nil || e.Length == nil {
		return nil, nil, nil
	}
	return cur.FindSong(ctx, *e.Song, *e.Artist, *e.Length)
}

// FileFunc reads one source file and loads it through cur.
type FileFunc func(ctx context.Context, cur Cursor, fs afero.Fs, path string) (Result, error)

// SongFile is the FileFunc for song data files.
func SongFile(ctx context.Context, cur Cursor, fs afero.Fs, path string) (Result, error) {
	songs, err := record.ReadSongs(fs, path)
	if err != nil {
		return Result{}, err
	}
	res, err := LoadSongs(ctx, cur, songs)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// LogFile is the FileFunc for event log files.
func LogFile(ctx context.Context, cur Cursor, fs afero.Fs, path string) (Result, error) {
	events, err := record.ReadEvents(fs, path)
	if err != nil {
		return Result{}, err
	}
	res, err := LoadEvents(ctx, cur, events)
	if err != nil {
		return res, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
