package storage

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // database driver
)

const schema = `CREATE TABLE IF NOT EXISTS videos (
	channel_title TEXT,
	video_title   TEXT,
	views         INTEGER,
	likes         INTEGER,
	comment_count INTEGER
)`

// SQLiteStore owns the database handle for the life of the process. Each
// insert commits individually; there is no batching.
type SQLiteStore struct {
	db *sqlx.DB
}

// Open connects to the SQLite database at path, creating the videos table
// if it does not exist.
func Open(path string) (*SQLiteStore, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: init schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// InsertVideo appends one record to the videos table.
func (s *SQLiteStore) InsertVideo(ctx context.Context, rec VideoRecord) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO videos (channel_title, video_title, views, likes, comment_count)
		VALUES (:channel_title, :video_title, :views, :likes, :comment_count)`, rec)
	if err != nil {
		return fmt.Errorf("storage: insert video %q: %w", rec.VideoTitle, err)
	}
	return nil
}

// DB exposes the underlying handle so other stores can share the connection.
func (s *SQLiteStore) DB() *sqlx.DB { return s.db }

// Close releases the database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }
