package store

// Tables lists the star schema tables, fact table last.
var Tables = []string{"users", "songs", "artists", "time", "songplays"}

// Drop statements are shared by every dialect.
var dropTables = []string{
	"DROP TABLE IF EXISTS songplays",
	"DROP TABLE IF EXISTS users",
	"DROP TABLE IF EXISTS songs",
	"DROP TABLE IF EXISTS artists",
	"DROP TABLE IF EXISTS time",
}

// Postgres schema

const pgCreateUsers = `
CREATE TABLE IF NOT EXISTS users (
  user_id INT PRIMARY KEY,
  first_name VARCHAR,
  last_name VARCHAR,
  gender VARCHAR,
  level VARCHAR
)`

const pgCreateSongs = `
CREATE TABLE IF NOT EXISTS songs (
  song_id VARCHAR PRIMARY KEY,
  title VARCHAR NOT NULL,
  artist_id VARCHAR,
  year INT,
  duration NUMERIC NOT NULL
)`

const pgCreateArtists = `
CREATE TABLE IF NOT EXISTS artists (
  artist_id VARCHAR PRIMARY KEY,
  name VARCHAR NOT NULL,
  location VARCHAR,
  latitude DOUBLE PRECISION,
  longitude DOUBLE PRECISION
)`

const pgCreateTime = `
CREATE TABLE IF NOT EXISTS time (
  start_time TIMESTAMP PRIMARY KEY,
  hour INT NOT NULL,
  day INT NOT NULL,
  week INT NOT NULL,
  month INT NOT NULL,
  year INT NOT NULL,
  weekday INT NOT NULL
)`

const pgCreateSongplays = `
CREATE TABLE IF NOT EXISTS songplays (
  songplay_id SERIAL PRIMARY KEY,
  start_time TIMESTAMP NOT NULL,
  user_id INT NOT NULL,
  level VARCHAR,
  song_id VARCHAR,
  artist_id VARCHAR,
  session_id INT,
  location VARCHAR,
  user_agent VARCHAR,
  CONSTRAINT fk_users FOREIGN KEY (user_id) REFERENCES users(user_id),
  CONSTRAINT fk_songs FOREIGN KEY (song_id) REFERENCES songs(song_id),
  CONSTRAINT fk_artists FOREIGN KEY (artist_id) REFERENCES artists(artist_id),
  CONSTRAINT fk_time FOREIGN KEY (start_time) REFERENCES time(start_time)
)`

// SQLite schema. Types follow SQLite affinity rules; duration keeps NUMERIC
// affinity so lookups compare numerically like Postgres does.

const liteCreateUsers = `
CREATE TABLE IF NOT EXISTS users (
  user_id INTEGER PRIMARY KEY,
  first_name TEXT,
  last_name TEXT,
  gender TEXT,
  level TEXT
)`

const liteCreateSongs = `
CREATE TABLE IF NOT EXISTS songs (
  song_id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  artist_id TEXT,
  year INTEGER,
  duration NUMERIC NOT NULL
)`

const liteCreateArtists = `
CREATE TABLE IF NOT EXISTS artists (
  artist_id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  location TEXT,
  latitude REAL,
  longitude REAL
)`

const liteCreateTime = `
CREATE TABLE IF NOT EXISTS time (
  start_time TIMESTAMP PRIMARY KEY,
  hour INTEGER NOT NULL,
  day INTEGER NOT NULL,
  week INTEGER NOT NULL,
  month INTEGER NOT NULL,
  year INTEGER NOT NULL,
  weekday INTEGER NOT NULL
)`

const liteCreateSongplays = `
CREATE TABLE IF NOT EXISTS songplays (
  songplay_id INTEGER PRIMARY KEY AUTOINCREMENT,
  start_time TIMESTAMP NOT NULL REFERENCES time(start_time),
  user_id INTEGER NOT NULL REFERENCES users(user_id),
  level TEXT,
  song_id TEXT REFERENCES songs(song_id),
  artist_id TEXT REFERENCES artists(artist_id),
  session_id INTEGER,
  location TEXT,
  user_agent TEXT
)`
