package session

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileBackend implements LogBackend using JSONL files.
// Storage layout:
//
//	~/.tsuzuri/session/
//	  ├── conversation.jsonl      # live log
//	  └── by-date/
//	      └── 2024-05-01.jsonl    # per-date mirror
type FileBackend struct {
	baseDir string
	mu      sync.RWMutex
	closed  bool
}

// NewFileBackend creates a new file-based log backend.
// If baseDir is empty, uses ~/.tsuzuri/session.
func NewFileBackend(baseDir string) (*FileBackend, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".tsuzuri", "session")
	}

	if err := os.MkdirAll(filepath.Join(baseDir, "by-date"), 0700); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	return &FileBackend{baseDir: baseDir}, nil
}

func (f *FileBackend) livePath() string {
	return filepath.Join(f.baseDir, "conversation.jsonl")
}

func (f *FileBackend) datePath(date string) string {
	return filepath.Join(f.baseDir, "by-date", date+".jsonl")
}

// validateDateKey rejects anything that is not a plain YYYY-MM-DD date,
// which also keeps date keys safe as path components.
func validateDateKey(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("invalid date key %q: %w", date, err)
	}
	return nil
}

// Reset atomically clears the live log. Removing the file is a single
// filesystem operation, so a failed reset never leaves a partial log.
func (f *FileBackend) Reset(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrBackendClosed
	}

	if err := os.Remove(f.livePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reset live log: %w", err)
	}

	return nil
}

// Append adds one turn to the live log and mirrors it into the dated log.
func (f *FileBackend) Append(ctx context.Context, turn Turn, date string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return ErrBackendClosed
	}
	if err := validateDateKey(date); err != nil {
		return err
	}

	data, err := json.Marshal(turn)
	if err != nil {
		return fmt.Errorf("marshal turn: %w", err)
	}
	line := append(data, '\n')

	if err := appendLine(f.livePath(), line); err != nil {
		return fmt.Errorf("append live log: %w", err)
	}
	if err := appendLine(f.datePath(date), line); err != nil {
		return fmt.Errorf("append dated log: %w", err)
	}

	return nil
}

func appendLine(path string, line []byte) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 - path components validated
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = file.Write(line)
	return err
}

// Turns returns the live log's turns in insertion order.
func (f *FileBackend) Turns(ctx context.Context) ([]Turn, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrBackendClosed
	}

	return readTurns(f.livePath())
}

// TurnsByDate returns the turns recorded under date in insertion order.
func (f *FileBackend) TurnsByDate(ctx context.Context, date string) ([]Turn, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if f.closed {
		return nil, ErrBackendClosed
	}
	if err := validateDateKey(date); err != nil {
		return nil, err
	}

	return readTurns(f.datePath(date))
}

func readTurns(path string) ([]Turn, error) {
	file, err := os.Open(path) // #nosec G304 - path components validated
	if err != nil {
		if os.IsNotExist(err) {
			return []Turn{}, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer func() { _ = file.Close() }()

	var turns []Turn
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var turn Turn
		if err := json.Unmarshal(scanner.Bytes(), &turn); err != nil {
			return nil, fmt.Errorf("parse turn: %w", err)
		}
		turns = append(turns, turn)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}

	return turns, nil
}

// Close marks the backend closed.
func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	return nil
}
