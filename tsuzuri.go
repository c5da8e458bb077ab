// Package tsuzuri assembles and runs the diary companion service: a
// guided conversation that becomes a dated diary entry.
package tsuzuri

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsuzuri-dev/tsuzuri/internal/api"
	"github.com/tsuzuri-dev/tsuzuri/internal/gateway"
	"github.com/tsuzuri-dev/tsuzuri/internal/journal"
	"github.com/tsuzuri-dev/tsuzuri/internal/llm/provider"
	"github.com/tsuzuri-dev/tsuzuri/internal/observability"
	"github.com/tsuzuri-dev/tsuzuri/internal/speech"
	"github.com/tsuzuri-dev/tsuzuri/pkg/config"
	"github.com/tsuzuri-dev/tsuzuri/pkg/diary"
	obs "github.com/tsuzuri-dev/tsuzuri/pkg/observability"
	"github.com/tsuzuri-dev/tsuzuri/pkg/session"
)

// App holds the assembled service components.
type App struct {
	Config     *config.Config
	Controller *journal.Controller
	Store      diary.Store
	Log        *session.Log
	Backend    session.LogBackend
}

// NewApp builds the service from configuration: diary store, session log,
// generation provider and optional speech synthesizer.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, err := buildDiaryStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build diary store: %w", err)
	}

	backend, err := buildSessionBackend(cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build session backend: %w", err)
	}
	sessionLog := session.NewLog(backend)

	prov, err := provider.New(cfg.Provider.Name, map[string]any{
		"api_key": cfg.Provider.APIKey,
	})
	if err != nil {
		store.Close()
		sessionLog.Close()
		return nil, fmt.Errorf("build provider: %w", err)
	}

	var synth speech.Synthesizer
	if cfg.Speech.Enabled {
		synth, err = speech.New(cfg.Speech.Name, map[string]any{
			"voice": cfg.Speech.Voice,
			"lang":  cfg.Speech.Lang,
			"speed": cfg.Speech.Speed,
		})
		if err != nil {
			store.Close()
			sessionLog.Close()
			return nil, fmt.Errorf("build synthesizer: %w", err)
		}
	}

	gw := gateway.New(prov, synth, gateway.Options{
		Model:             cfg.Provider.Model,
		GenTimeout:        time.Duration(cfg.Provider.TimeoutSeconds) * time.Second,
		SynthTimeout:      time.Duration(cfg.Speech.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.Provider.RequestsPerSecond,
		Burst:             cfg.Provider.Burst,
	})

	return &App{
		Config:     cfg,
		Controller: journal.NewController(sessionLog, store, gw),
		Store:      store,
		Log:        sessionLog,
		Backend:    backend,
	}, nil
}

// Close releases the app's storage handles.
func (a *App) Close() error {
	err := a.Log.Close()
	if serr := a.Store.Close(); serr != nil && err == nil {
		err = serr
	}
	return err
}

// Run loads configuration, assembles the service and serves it until a
// termination signal arrives.
func Run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := observability.Init(observability.Config{
		Enabled:      cfg.Tracing.Enabled,
		ExporterType: cfg.Tracing.Exporter,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
	}); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := observability.Shutdown(context.Background()); err != nil {
			log.Printf("tracing shutdown: %v", err)
		}
	}()

	obs.InitMetrics()

	app, err := NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	registerHealthChecks(app)

	apiServer := api.NewServer(cfg.ListenAddr, app.Controller, app.Store)
	obsServer := obs.NewServer(cfg.MetricsPort)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("diary API listening on %s", cfg.ListenAddr)
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		log.Printf("metrics and health on :%d", cfg.MetricsPort)
		if err := obsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("observability server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("api shutdown: %v", err)
		}
		if err := obsServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("observability shutdown: %v", err)
		}
		return nil
	})

	return g.Wait()
}

func buildDiaryStore(ctx context.Context, cfg *config.Config) (diary.Store, error) {
	switch cfg.Diary.Store {
	case "file":
		return diary.NewFileStore(cfg.Diary.BaseDir)
	case "redis":
		return diary.NewRedisStore(diary.RedisStoreConfig{
			Addr:     cfg.Diary.Redis.Addr,
			Password: cfg.Diary.Redis.Password,
			DB:       cfg.Diary.Redis.DB,
			Prefix:   cfg.Diary.Redis.Prefix,
			PoolSize: cfg.Diary.Redis.PoolSize,
		})
	case "firestore":
		return diary.NewFirestoreStore(ctx, diary.FirestoreConfig{
			ProjectID:       cfg.Diary.Firestore.ProjectID,
			CredentialsFile: cfg.Diary.Firestore.CredentialsFile,
			Collection:      cfg.Diary.Firestore.Collection,
		})
	default:
		return nil, fmt.Errorf("unknown diary store: %s", cfg.Diary.Store)
	}
}

func buildSessionBackend(cfg *config.Config) (session.LogBackend, error) {
	switch cfg.Session.Backend {
	case "file":
		return session.NewFileBackend(cfg.Session.BaseDir)
	case "redis":
		return session.NewRedisBackend(session.RedisConfig{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
			Prefix:   cfg.Session.Redis.Prefix,
			PoolSize: cfg.Session.Redis.PoolSize,
		})
	default:
		return nil, fmt.Errorf("unknown session backend: %s", cfg.Session.Backend)
	}
}

// registerHealthChecks wires storage pings into the health endpoint.
// File-backed stores expose no ping; only backends with real connections
// get a check.
func registerHealthChecks(app *App) {
	checker := obs.InitHealthChecker()
	checker.RegisterCheck(obs.PingCheck())

	type pinger interface {
		Ping(ctx context.Context) error
	}

	if p, ok := app.Store.(pinger); ok {
		checker.RegisterCheck(obs.DiaryStoreCheck(p.Ping))
	}
	if p, ok := app.Backend.(pinger); ok {
		checker.RegisterCheck(obs.SessionBackendCheck(p.Ping))
	}
}
