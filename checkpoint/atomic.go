package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
)

// atomicWriter writes a file via temp file + rename so the checkpoint is
// never left half-written.
type atomicWriter struct {
	path    string
	tmpPath string
	file    *os.File
}

// newAtomicWriter creates a temporary file in the target's directory; on
// Commit it atomically renames it over the target.
func newAtomicWriter(path string) (*atomicWriter, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".ytharvest-*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	return &atomicWriter{
		path:    path,
		tmpPath: tmpFile.Name(),
		file:    tmpFile,
	}, nil
}

// Write writes data to the temporary file.
func (w *atomicWriter) Write(p []byte) (n int, err error) {
	return w.file.Write(p)
}

// Commit syncs the temporary file and renames it over the target.
func (w *atomicWriter) Commit() error {
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Rename(w.tmpPath, w.path); err != nil {
		os.Remove(w.tmpPath) // Best effort cleanup
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Abort discards the temporary file without committing.
func (w *atomicWriter) Abort() error {
	w.file.Close()
	return os.Remove(w.tmpPath)
}
