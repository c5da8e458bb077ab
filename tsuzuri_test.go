package tsuzuri

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsuzuri-dev/tsuzuri/pkg/config"
	obs "github.com/tsuzuri-dev/tsuzuri/pkg/observability"
)

func TestNewAppFromDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Provider.Name = "mock"
	cfg.Session.BaseDir = t.TempDir()
	cfg.Diary.BaseDir = t.TempDir()

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	require.NoError(t, app.Controller.Start(context.Background()))
	reply, err := app.Controller.SubmitUtterance(context.Background(), "元気です")
	require.NoError(t, err)
	assert.NotEmpty(t, reply.Text)
}

func TestHealthChecksCoverRedisBackends(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Provider.Name = "mock"
	cfg.Session.Backend = "redis"
	cfg.Session.Redis.Addr = mr.Addr()
	cfg.Diary.Store = "redis"
	cfg.Diary.Redis.Addr = mr.Addr()

	app, err := NewApp(context.Background(), cfg)
	require.NoError(t, err)
	defer app.Close()

	registerHealthChecks(app)

	resp := obs.GetHealthChecker().Check(context.Background())
	require.Contains(t, resp.Checks, "diary_store")
	require.Contains(t, resp.Checks, "session_backend")
	assert.Equal(t, obs.HealthStatusHealthy, resp.Checks["diary_store"].Status)
	assert.Equal(t, obs.HealthStatusHealthy, resp.Checks["session_backend"].Status)
}
