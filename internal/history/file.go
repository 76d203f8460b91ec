package history

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
)

// Compile-time interface check.
var _ Store = (*FileStore)(nil)

// FileStore persists records as append-only JSON lines in a local file.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore returns a FileStore writing to path. The file and its
// directory are created on first append.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Append implements [Store].
func (s *FileStore) Append(_ context.Context, r Record) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("history: marshal: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("history: create dir: %w", err)
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("history: open file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("history: write: %w", err)
	}
	return nil
}

// Recent implements [Store]. Lines that fail to parse are skipped.
func (s *FileStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: open file: %w", err)
	}
	defer f.Close()

	var out []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var r Record
		if err := json.Unmarshal(sc.Bytes(), &r); err != nil {
			slog.WarnContext(ctx, "history: skipping malformed line", "path", s.path, "line", line, "err", err)
			continue
		}
		out = append(out, r)
		if len(out) > limit {
			out = out[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("history: read: %w", err)
	}
	slices.Reverse(out)
	return out, nil
}

// Ping implements [Store]. It fails when the history directory exists but
// is not a directory.
func (s *FileStore) Ping(context.Context) error {
	info, err := os.Stat(filepath.Dir(s.path))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("history: stat dir: %w", err)
	case !info.IsDir():
		return fmt.Errorf("history: %s is not a directory", filepath.Dir(s.path))
	}
	return nil
}

// Close implements [Store].
func (s *FileStore) Close() error { return nil }
