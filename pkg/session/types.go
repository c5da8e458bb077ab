// Package session provides the ephemeral conversation log for a diary
// session: a single-slot, append-only sequence of turns that exists
// between "start" and "commit or discard".
package session

import (
	"errors"
	"strings"
)

// Common errors for session log operations.
var (
	// ErrNoActiveSession is returned when an operation requires a started
	// session and none is active.
	ErrNoActiveSession = errors.New("no active session")
	// ErrBackendClosed is returned when operating on a closed log backend.
	ErrBackendClosed = errors.New("log backend is closed")
)

// Role identifies the speaker of a turn.
type Role string

const (
	// RoleUser marks an utterance by the person writing the diary.
	RoleUser Role = "user"
	// RoleAssistant marks a generated reply.
	RoleAssistant Role = "assistant"
)

// Turn is one utterance by either side of the conversation.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// Line renders the turn in the canonical transcript form `[ROLE] text`.
func (t Turn) Line() string {
	return "[" + strings.ToUpper(string(t.Role)) + "] " + t.Text
}

// Transcript joins turns into the canonical transcript: one `[ROLE] text`
// line per turn, newline-separated, in insertion order. The result is
// bit-exact for round-tripping into a diary entry.
func Transcript(turns []Turn) string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = t.Line()
	}
	return strings.Join(lines, "\n")
}
