package diary

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore implements Store using one flat text file per date.
// Storage layout:
//
//	~/.tsuzuri/diary/
//	  ├── 2024-05-01.txt
//	  └── 2024-05-02.txt
//
// Writes go through a temp file in the same directory followed by a
// rename, so a stored entry is never observable half-written.
type FileStore struct {
	baseDir string
	mu      sync.RWMutex
	closed  bool
}

// NewFileStore creates a new file-based diary store.
// If baseDir is empty, uses ~/.tsuzuri/diary.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".tsuzuri", "diary")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &FileStore{baseDir: baseDir}, nil
}

// BaseDir returns the directory entries are stored under.
func (s *FileStore) BaseDir() string {
	return s.baseDir
}

func (s *FileStore) entryPath(date string) string {
	return filepath.Join(s.baseDir, date+".txt")
}

// Save creates or fully overwrites the entry at date.
func (s *FileStore) Save(ctx context.Context, date, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrStoreClosed
	}
	if !ValidDate(date) {
		return "", ErrInvalidDate
	}

	path := s.entryPath(date)

	tmp, err := os.CreateTemp(s.baseDir, ".entry-*")
	if err != nil {
		return "", fmt.Errorf("create temp entry: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("write entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("close temp entry: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("store entry: %w", err)
	}

	return path, nil
}

// Get returns the stored content for date, or ok=false if none exists.
func (s *FileStore) Get(ctx context.Context, date string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return "", false, ErrStoreClosed
	}
	if !ValidDate(date) {
		return "", false, ErrInvalidDate
	}

	data, err := os.ReadFile(s.entryPath(date)) // #nosec G304 - date validated against YYYY-MM-DD
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read entry: %w", err)
	}

	return string(data), true, nil
}

// Delete removes the entry at date. Missing entries are ignored.
func (s *FileStore) Delete(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if !ValidDate(date) {
		return ErrInvalidDate
	}

	if err := os.Remove(s.entryPath(date)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete entry: %w", err)
	}

	return nil
}

// ListMonth projects every calendar day of (year, month).
func (s *FileStore) ListMonth(ctx context.Context, year, month int) (*MonthProjection, error) {
	return projectMonth(ctx, year, month, s.Get)
}

// Close marks the store closed.
func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}
