package session

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	backend := NewRedisBackendFromClient(client, "test:log:")

	t.Cleanup(func() {
		_ = backend.Close()
	})

	return backend
}

func TestRedisBackendAppendAndTurns(t *testing.T) {
	backend := setupRedisBackend(t)
	ctx := context.Background()

	turns := []Turn{
		{Role: RoleUser, Text: "こんばんは"},
		{Role: RoleAssistant, Text: "こんばんは。今日はどんな一日でしたか？"},
	}
	for _, turn := range turns {
		if err := backend.Append(ctx, turn, "2024-05-01"); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	got, err := backend.Turns(ctx)
	if err != nil {
		t.Fatalf("Turns failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Turns returned %d turns, want 2", len(got))
	}
	for i := range turns {
		if got[i] != turns[i] {
			t.Errorf("turn %d = %+v, want %+v", i, got[i], turns[i])
		}
	}

	dated, err := backend.TurnsByDate(ctx, "2024-05-01")
	if err != nil {
		t.Fatalf("TurnsByDate failed: %v", err)
	}
	if len(dated) != 2 {
		t.Errorf("TurnsByDate returned %d turns, want 2", len(dated))
	}
}

func TestRedisBackendReset(t *testing.T) {
	backend := setupRedisBackend(t)
	ctx := context.Background()

	if err := backend.Append(ctx, Turn{Role: RoleUser, Text: "x"}, "2024-05-01"); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := backend.Reset(ctx); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	got, err := backend.Turns(ctx)
	if err != nil {
		t.Fatalf("Turns failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Turns after Reset returned %d turns, want 0", len(got))
	}

	// The dated mirror is not touched by a reset.
	dated, err := backend.TurnsByDate(ctx, "2024-05-01")
	if err != nil {
		t.Fatalf("TurnsByDate failed: %v", err)
	}
	if len(dated) != 1 {
		t.Errorf("TurnsByDate after Reset returned %d turns, want 1", len(dated))
	}
}

func TestRedisBackendClosed(t *testing.T) {
	backend := setupRedisBackend(t)
	_ = backend.Close()

	if err := backend.Reset(context.Background()); err != ErrBackendClosed {
		t.Errorf("Reset after Close error = %v, want ErrBackendClosed", err)
	}
}

func TestLogWithRedisBackend(t *testing.T) {
	backend := setupRedisBackend(t)
	log := NewLog(backend)
	ctx := context.Background()

	if err := log.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := log.Append(ctx, Turn{Role: RoleUser, Text: "redis log"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	got, err := log.Dump(ctx)
	if err != nil {
		t.Fatalf("Dump failed: %v", err)
	}
	if got != "[USER] redis log" {
		t.Errorf("Dump = %q, want %q", got, "[USER] redis log")
	}
}
