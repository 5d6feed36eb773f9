// Package record defines the typed source records and reads them from
// newline-delimited JSON files.
package record

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// PageNextSong is the event page that marks an actual playback.
const PageNextSong = "NextSong"

// Song is one object of a song data file. The artist fields travel with the
// song; the loader splits them into the artists dimension.
type Song struct {
	NumSongs        int      `json:"num_songs"`
	SongID          string   `json:"song_id"`
	Title           *string  `json:"title"`
	ArtistID        string   `json:"artist_id"`
	Year            *int     `json:"year"`
	Duration        *float64 `json:"duration"`
	ArtistName      *string  `json:"artist_name"`
	ArtistLocation  *string  `json:"artist_location"`
	ArtistLatitude  *float64 `json:"artist_latitude"`
	ArtistLongitude *float64 `json:"artist_longitude"`
}

// Validate checks the fields the schema declares NOT NULL. The ids are
// primary keys and must be non-empty; title and artist name only have to be
// present.
func (s *Song) Validate() error {
	switch {
	case s.SongID == "":
		return fmt.Errorf("song_id is empty")
	case s.ArtistID == "":
		return fmt.Errorf("artist_id is empty")
	case s.Title == nil:
		return fmt.Errorf("song %s: title is missing", s.SongID)
	case s.Duration == nil:
		return fmt.Errorf("song %s: duration is missing", s.SongID)
	case s.ArtistName == nil:
		return fmt.Errorf("artist %s: name is missing", s.ArtistID)
	}
	return nil
}

// Event is one user action from an event log file.
type Event struct {
	Artist        *string  `json:"artist"`
	Auth          string   `json:"auth"`
	FirstName     *string  `json:"firstName"`
	Gender        *string  `json:"gender"`
	ItemInSession int      `json:"itemInSession"`
	LastName      *string  `json:"lastName"`
	Length        *float64 `json:"length"`
	Level         *string  `json:"level"`
	Location      *string  `json:"location"`
	Method        string   `json:"method"`
	Page          string   `json:"page"`
	Registration  *float64 `json:"registration"`
	SessionID     int64    `json:"sessionId"`
	Song          *string  `json:"song"`
	Status        int      `json:"status"`
	Ts            int64    `json:"ts"`
	UserAgent     *string  `json:"userAgent"`
	UserID        UserID   `json:"userId"`
}

// IsNextSong reports whether the event is a playback.
func (e *Event) IsNextSong() bool {
	return e.Page == PageNextSong
}

// Validate checks the fields a playback needs. Other events are dropped by
// the loader whatever they carry.
func (e *Event) Validate() error {
	if e.IsNextSong() && e.Ts <= 0 {
		return fmt.Errorf("ts %d is not a positive epoch milliseconds value", e.Ts)
	}
	return nil
}

// UserID is the userId field of an event. Source files carry it as a
// string ("39"), occasionally as a number, and as "" for logged-out actions.
type UserID struct {
	Value int64
	Valid bool
}

// NewUserID returns a valid UserID.
func NewUserID(v int64) UserID {
	return UserID{Value: v, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *UserID) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = UserID{}

	var v int64
	var err error
	switch x := raw.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return nil
		}
		v, err = strconv.ParseInt(s, 10, 64)
	case float64:
		if x != math.Trunc(x) {
			err = fmt.Errorf("not a whole number")
			break
		}
		v, err = cast.ToInt64E(x)
	case bool:
		err = fmt.Errorf("not a number")
	default:
		v, err = cast.ToInt64E(x)
	}
	if err != nil {
		return fmt.Errorf("userId %s: %w", bytes.TrimSpace(data), err)
	}
	*u = NewUserID(v)
	return nil
}

// Ptr returns the id as a nullable database value.
func (u UserID) Ptr() *int64 {
	if !u.Valid {
		return nil
	}
	v := u.Value
	return &v
}
