package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// FileStore persists the set as plain text, one channel ID per line, no
// header. The format matches checkpoint files written by earlier versions
// of the collector.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the file at path. The file is not
// touched until the first Save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the checkpoint file. A missing file yields an empty set.
func (s *FileStore) Load(ctx context.Context) (Set, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("checkpoint: read %s: %w", s.path, err)
	}

	set := Set{}
	for _, line := range strings.Split(string(data), "\n") {
		if id := strings.TrimSpace(line); id != "" {
			set.Add(id)
		}
	}
	return set, nil
}

// Save overwrites the checkpoint file with the full set, atomically.
func (s *FileStore) Save(ctx context.Context, set Set) error {
	w, err := newAtomicWriter(s.path)
	if err != nil {
		return fmt.Errorf("checkpoint: write %s: %w", s.path, err)
	}

	for _, id := range set.IDs() {
		if _, err := fmt.Fprintln(w, id); err != nil {
			w.Abort()
			return fmt.Errorf("checkpoint: write %s: %w", s.path, err)
		}
	}

	if err := w.Commit(); err != nil {
		return fmt.Errorf("checkpoint: write %s: %w", s.path, err)
	}
	return nil
}
