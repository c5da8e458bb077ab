package session

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// LogBackend abstracts persistence of the conversation log.
// Implementations must be safe for concurrent use. The live log is a
// single slot; appends are additionally mirrored into a per-date log so
// transcripts can later be dumped keyed by date.
type LogBackend interface {
	// Reset atomically clears the live log. Dated logs are untouched.
	Reset(ctx context.Context) error

	// Append adds one turn to the live log and to the log for date.
	Append(ctx context.Context, turn Turn, date string) error

	// Turns returns the live log's turns in insertion order.
	Turns(ctx context.Context) ([]Turn, error)

	// TurnsByDate returns the turns recorded under date in insertion order.
	TurnsByDate(ctx context.Context, date string) ([]Turn, error)

	// Close releases any resources held by the backend.
	Close() error
}

// Log is the single in-progress conversation. At most one session is
// active per Log; Start resets whatever was there before (last start
// wins). Log is safe for concurrent use.
type Log struct {
	backend LogBackend

	mu     sync.Mutex
	active bool
	now    func() time.Time
}

// NewLog creates a conversation log over the given backend.
func NewLog(backend LogBackend) *Log {
	return &Log{
		backend: backend,
		now:     time.Now,
	}
}

// Start resets the log to empty and marks the session active. A failed
// reset leaves the session inactive so a partially cleared log is never
// appended to.
func (l *Log) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.active = false
	if err := l.backend.Reset(ctx); err != nil {
		return fmt.Errorf("reset log: %w", err)
	}
	l.active = true

	return nil
}

// Active reports whether a session is in progress.
func (l *Log) Active() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.active
}

// Append adds one turn to the active session.
func (l *Log) Append(ctx context.Context, turn Turn) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active {
		return ErrNoActiveSession
	}

	date := l.now().Format("2006-01-02")
	if err := l.backend.Append(ctx, turn, date); err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	return nil
}

// Dump serializes the live log into the canonical transcript.
// Read-only; the log is left untouched.
func (l *Log) Dump(ctx context.Context) (string, error) {
	turns, err := l.backend.Turns(ctx)
	if err != nil {
		return "", fmt.Errorf("load turns: %w", err)
	}
	return Transcript(turns), nil
}

// DumpDate serializes the turns recorded under date into the canonical
// transcript. Read-only.
func (l *Log) DumpDate(ctx context.Context, date string) (string, error) {
	turns, err := l.backend.TurnsByDate(ctx, date)
	if err != nil {
		return "", fmt.Errorf("load turns for %s: %w", date, err)
	}
	return Transcript(turns), nil
}

// Discard clears the live log and returns the session to uninitialized
// without producing a diary entry.
func (l *Log) Discard(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.backend.Reset(ctx); err != nil {
		return fmt.Errorf("discard log: %w", err)
	}
	l.active = false

	return nil
}

// Close releases the backend.
func (l *Log) Close() error {
	return l.backend.Close()
}
