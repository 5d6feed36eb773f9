package store

import (
	"fmt"
	"sort"
	"sync"
)

// Queries is the set of parameterized statements a dialect provides. Every
// write the loader performs goes through one of these templates.
type Queries struct {
	// CreateTables is ordered so that referenced tables come first.
	CreateTables []string
	// DropTables is ordered so that referencing tables come first.
	DropTables []string

	InsertSong     string
	InsertArtist   string
	InsertTime     string
	UpsertUser     string
	InsertSongplay string
	FindSong       string
}

// Dialect binds a configuration driver name to a database/sql driver and the
// statements written for it.
type Dialect struct {
	// Name is the config-facing driver name ("postgres", "sqlite").
	Name string
	// DriverName is the name registered with database/sql.
	DriverName string
	// MaxOpenConns caps the pool; zero leaves the database/sql default.
	MaxOpenConns int
	Queries      Queries

	// wrapError enriches driver errors with backend detail. May be nil.
	wrapError func(error) error
}

func (d *Dialect) wrap(err error) error {
	if err == nil || d.wrapError == nil {
		return err
	}
	return d.wrapError(err)
}

var (
	dialectsMu sync.RWMutex
	dialects   = map[string]*Dialect{}
)

// RegisterDialect makes a dialect available to Open. Backends call it from init.
func RegisterDialect(d *Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	if _, dup := dialects[d.Name]; dup {
		panic(fmt.Sprintf("store: dialect %q registered twice", d.Name))
	}
	dialects[d.Name] = d
}

// LookupDialect returns the dialect registered under name.
func LookupDialect(name string) (*Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[name]
	return d, ok
}

// Dialects lists the registered dialect names, sorted.
func Dialects() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
