// Package config holds the loader's runtime configuration: where the source
// data lives and how to reach the database.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/franz/sparkify-etl/internal/util"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DatabaseConfig describes the database connection.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`

	// Path is the database file for the sqlite driver.
	Path string `mapstructure:"path"`

	// DSN overrides every other field when set.
	DSN string `mapstructure:"dsn"`
}

// Config is the complete runtime configuration.
type Config struct {
	Database    DatabaseConfig `mapstructure:"database"`
	SongData    string         `mapstructure:"song_data"`
	LogData     string         `mapstructure:"log_data"`
	Extension   string         `mapstructure:"extension"`
	EventLogDir string         `mapstructure:"event_log_dir"`
	Verbose     bool           `mapstructure:"verbose"`
	Quiet       bool           `mapstructure:"quiet"`
}

// Default returns the configuration the loader historically ran with.
func Default() Config {
	return Config{
		Database: DatabaseConfig{
			Driver:   DriverPostgres,
			Host:     "127.0.0.1",
			Port:     5432,
			Name:     "sparkifydb",
			User:     "student",
			Password: "student",
			SSLMode:  "disable",
			Path:     "sparkify.db",
		},
		SongData:    "data/song_data",
		LogData:     "data/log_data",
		Extension:   ".json",
		EventLogDir: "artifacts",
	}
}

// SetDefaults registers Default() with v so that env vars and config files
// can override individual keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.dsn", "")
	v.SetDefault("song_data", d.SongData)
	v.SetDefault("log_data", d.LogData)
	v.SetDefault("extension", d.Extension)
	v.SetDefault("event_log_dir", d.EventLogDir)
	v.SetDefault("verbose", false)
	v.SetDefault("quiet", false)
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the loader cannot run with.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" && c.Database.Host == "" {
			return fmt.Errorf("%w: database.host is required for postgres", util.ErrInvalidConfig)
		}
	case DriverSQLite:
		if c.Database.DSN == "" && c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite", util.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown database driver %q", util.ErrInvalidConfig, c.Database.Driver)
	}

	if strings.TrimSpace(c.SongData) == "" {
		return fmt.Errorf("%w: song_data root is required", util.ErrInvalidConfig)
	}
	if strings.TrimSpace(c.LogData) == "" {
		return fmt.Errorf("%w: log_data root is required", util.ErrInvalidConfig)
	}
	if !strings.HasPrefix(c.Extension, ".") || len(c.Extension) < 2 {
		return fmt.Errorf("%w: extension must start with a dot, got %q", util.ErrInvalidConfig, c.Extension)
	}
	if c.Verbose && c.Quiet {
		return fmt.Errorf("%w: verbose and quiet are mutually exclusive", util.ErrInvalidConfig)
	}
	return nil
}

// DSNString renders the connection string for the configured driver.
//
// Postgres gets a libpq keyword/value string; sqlite gets a file URI with
// foreign key enforcement switched on.
func (d DatabaseConfig) DSNString() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case DriverSQLite:
		return "file:" + d.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	default:
		parts := []string{"host=" + quoteValue(d.Host)}
		if d.Port > 0 {
			parts = append(parts, fmt.Sprintf("port=%d", d.Port))
		}
		if d.Name != "" {
			parts = append(parts, "dbname="+quoteValue(d.Name))
		}
		if d.User != "" {
			parts = append(parts, "user="+quoteValue(d.User))
		}
		if d.Password != "" {
			parts = append(parts, "password="+quoteValue(d.Password))
		}
		if d.SSLMode != "" {
			parts = append(parts, "sslmode="+quoteValue(d.SSLMode))
		}
		return strings.Join(parts, " ")
	}
}

// Redacted returns a printable description of the connection with the
// password removed.
func (d DatabaseConfig) Redacted() string {
	switch {
	case d.DSN != "":
		if u, err := url.Parse(d.DSN); err == nil && u.User != nil {
			return u.Redacted()
		}
		return d.Driver + " (custom dsn)"
	case d.Driver == DriverSQLite:
		return "sqlite " + d.Path
	default:
		return fmt.Sprintf("postgres %s@%s:%d/%s", d.User, d.Host, d.Port, d.Name)
	}
}

// quoteValue quotes a libpq keyword value when it contains spaces, quotes or
// backslashes, or is empty.
func quoteValue(s string) string {
	if s != "" && !strings.ContainsAny(s, ` '\`) {
		return s
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
