package checkpoint

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const sqlSchema = `CREATE TABLE IF NOT EXISTS processed_channels (
	channel_id TEXT NOT NULL
)`

// SQLStore keeps the processed-channel set in a processed_channels table,
// usually sharing the harvester's database handle.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLStore creates a store over db, creating the table if absent.
func NewSQLStore(db *sqlx.DB) (*SQLStore, error) {
	if _, err := db.Exec(sqlSchema); err != nil {
		return nil, fmt.Errorf("checkpoint: init schema: %w", err)
	}
	return &SQLStore{db: db}, nil
}

// Load reads all persisted channel IDs.
func (s *SQLStore) Load(ctx context.Context) (Set, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, `SELECT channel_id FROM processed_channels`); err != nil {
		return nil, fmt.Errorf("checkpoint: load: %w", err)
	}
	return NewSet(ids...), nil
}

// Save replaces all persisted rows with the given set in one transaction.
func (s *SQLStore) Save(ctx context.Context, set Set) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("checkpoint: save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM processed_channels`); err != nil {
		return fmt.Errorf("checkpoint: save: %w", err)
	}
	for _, id := range set.IDs() {
		if _, err := tx.ExecContext(ctx, `INSERT INTO processed_channels (channel_id) VALUES (?)`, id); err != nil {
			return fmt.Errorf("checkpoint: save %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("checkpoint: save: %w", err)
	}
	return nil
}
