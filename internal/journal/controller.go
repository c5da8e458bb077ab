// Package journal drives the guided diary writing session: one active
// conversation at a time, finished into a transcript and committed to the
// diary store.
package journal

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tsuzuri-dev/tsuzuri/internal/gateway"
	"github.com/tsuzuri-dev/tsuzuri/internal/observability"
	"github.com/tsuzuri-dev/tsuzuri/internal/speech"
	"github.com/tsuzuri-dev/tsuzuri/pkg/diary"
	obs "github.com/tsuzuri-dev/tsuzuri/pkg/observability"
	"github.com/tsuzuri-dev/tsuzuri/pkg/session"
)

// State is the lifecycle phase of the writing session.
type State int

const (
	// StateUninitialized means no session has been started.
	StateUninitialized State = iota
	// StateActive means utterances are being collected.
	StateActive
	// StateFinished means a transcript snapshot was taken and is waiting
	// to be committed or abandoned.
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// degradedReply is appended as the companion's turn when generation is
// unavailable, so the transcript stays coherent.
const degradedReply = "ごめんなさい、いまはうまく言葉が出てきません。でも、ちゃんと聞いていますよ。続きを聞かせてください。"

// Reply is the companion's response to one utterance.
type Reply struct {
	Text string
	// Audio is nil when synthesis is disabled or failed.
	Audio *speech.Clip
	// Degraded is true when Text is the canned fallback rather than a
	// generated reply.
	Degraded bool
}

// Controller owns the single writing session and its transition into the
// diary store.
type Controller struct {
	mu sync.Mutex

	state   State
	log     *session.Log
	store   diary.Store
	gw      *gateway.Gateway
	draftID uuid.UUID

	now func() time.Time
}

// NewController creates a controller over the given log, store and gateway.
func NewController(log *session.Log, store diary.Store, gw *gateway.Gateway) *Controller {
	return &Controller{
		log:   log,
		store: store,
		gw:    gw,
		now:   time.Now,
	}
}

// State reports the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// DraftID identifies the current session. Zero when uninitialized.
func (c *Controller) DraftID() uuid.UUID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draftID
}

// Start begins a new session. Starting over an existing session discards
// its turns; the last start wins.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "journal.start")
	defer span.End()

	if err := c.log.Start(ctx); err != nil {
		return fmt.Errorf("start session log: %w", err)
	}

	c.state = StateActive
	c.draftID = uuid.New()
	obs.SetSessionActive(true)
	return nil
}

// SubmitUtterance records the user's words, obtains the companion's reply
// and records that too. When generation is unavailable the reply degrades
// to a canned apology and synthesis is skipped; the user turn is still
// kept so nothing said is lost.
func (c *Controller) SubmitUtterance(ctx context.Context, text string) (*Reply, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "journal.submit")
	defer span.End()

	if c.state != StateActive {
		return nil, session.ErrNoActiveSession
	}

	transcript, err := c.log.Dump(ctx)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}

	if err := c.log.Append(ctx, session.Turn{Role: session.RoleUser, Text: text}); err != nil {
		return nil, fmt.Errorf("append user turn: %w", err)
	}
	obs.RecordSessionTurn(string(session.RoleUser))

	reply := &Reply{}
	generated, err := c.gw.GenerateReply(ctx, transcript, text)
	if err != nil {
		span.RecordError(err)
		reply.Text = degradedReply
		reply.Degraded = true
	} else {
		reply.Text = generated
		reply.Audio = c.gw.Synthesize(ctx, generated)
	}

	if err := c.log.Append(ctx, session.Turn{Role: session.RoleAssistant, Text: reply.Text}); err != nil {
		return nil, fmt.Errorf("append assistant turn: %w", err)
	}
	obs.RecordSessionTurn(string(session.RoleAssistant))

	return reply, nil
}

// Finish snapshots the transcript and moves the session to finished. The
// log itself is left untouched so the transcript can be re-read or the
// session abandoned. An empty date snapshots the live session; a date in
// YYYY-MM-DD form snapshots the turns recorded on that day.
func (c *Controller) Finish(ctx context.Context, date string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "journal.finish")
	defer span.End()

	if date != "" {
		if !diary.ValidDate(date) {
			return "", diary.ErrInvalidDate
		}
		return c.log.DumpDate(ctx, date)
	}

	if c.state != StateActive && c.state != StateFinished {
		return "", session.ErrNoActiveSession
	}

	transcript, err := c.log.Dump(ctx)
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}

	c.state = StateFinished
	obs.SetSessionActive(false)
	return transcript, nil
}

// Commit saves content under date and clears the finished session. On a
// save failure the session stays finished so the commit can be retried.
func (c *Controller) Commit(ctx context.Context, date, content string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "journal.commit")
	defer span.End()

	path, err := c.store.Save(ctx, date, content)
	if err != nil {
		obs.RecordDiaryOperation("save", "error")
		span.RecordError(err)
		return "", err
	}
	obs.RecordDiaryOperation("save", "ok")

	if c.state == StateFinished {
		if err := c.log.Discard(ctx); err != nil {
			return "", fmt.Errorf("discard session log: %w", err)
		}
		c.state = StateUninitialized
		c.draftID = uuid.Nil
	}

	return path, nil
}

// Abandon throws away the session without saving anything.
func (c *Controller) Abandon(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := observability.StartSpan(ctx, "journal.abandon")
	defer span.End()

	if err := c.log.Discard(ctx); err != nil {
		return fmt.Errorf("discard session log: %w", err)
	}

	c.state = StateUninitialized
	c.draftID = uuid.Nil
	obs.SetSessionActive(false)
	return nil
}

// Today returns the current date key in YYYY-MM-DD form.
func (c *Controller) Today() string {
	return c.now().Format("2006-01-02")
}
