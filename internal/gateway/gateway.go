// Package gateway fronts reply generation and speech synthesis for the
// writing session. Generation failures surface as a single sentinel so
// callers can degrade gracefully; synthesis failures are never fatal.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/tsuzuri-dev/tsuzuri/internal/llm/provider"
	"github.com/tsuzuri-dev/tsuzuri/internal/observability"
	"github.com/tsuzuri-dev/tsuzuri/internal/speech"
	obs "github.com/tsuzuri-dev/tsuzuri/pkg/observability"
)

// ErrGenerationUnavailable is returned when a reply could not be produced,
// whatever the underlying provider failure was.
var ErrGenerationUnavailable = errors.New("generation unavailable")

const (
	defaultGenTimeout   = 30 * time.Second
	defaultSynthTimeout = 20 * time.Second
	defaultTemperature  = 0.7
)

// Options configures a Gateway.
type Options struct {
	// Model overrides the provider's default model when set.
	Model string
	// GenTimeout bounds a single generation call.
	GenTimeout time.Duration
	// SynthTimeout bounds a single synthesis call.
	SynthTimeout time.Duration
	// RequestsPerSecond throttles generation. Zero disables throttling.
	RequestsPerSecond float64
	// Burst is the limiter burst size.
	Burst int
}

// Gateway produces conversational replies and optional audio for them.
type Gateway struct {
	provider     provider.Provider
	synth        speech.Synthesizer
	limiter      *rate.Limiter
	model        string
	genTimeout   time.Duration
	synthTimeout time.Duration
}

// New creates a Gateway. synth may be nil when speech is disabled.
func New(p provider.Provider, synth speech.Synthesizer, opts Options) *Gateway {
	genTimeout := opts.GenTimeout
	if genTimeout <= 0 {
		genTimeout = defaultGenTimeout
	}
	synthTimeout := opts.SynthTimeout
	if synthTimeout <= 0 {
		synthTimeout = defaultSynthTimeout
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	return &Gateway{
		provider:     p,
		synth:        synth,
		limiter:      limiter,
		model:        opts.Model,
		genTimeout:   genTimeout,
		synthTimeout: synthTimeout,
	}
}

// GenerateReply produces the companion's next reply given the session
// transcript so far and the latest user utterance. Any failure is wrapped
// in ErrGenerationUnavailable.
func (g *Gateway) GenerateReply(ctx context.Context, transcript, utterance string) (string, error) {
	ctx, span := observability.StartSpan(ctx, "gateway.generate")
	defer span.End()
	span.SetAttributes(attribute.String("provider", g.provider.Name()))

	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, g.genTimeout)
	defer cancel()

	start := time.Now()
	resp, err := g.provider.CreateCompletion(genCtx, provider.CompletionRequest{
		Messages:    buildMessages(transcript, utterance),
		Model:       g.model,
		Temperature: defaultTemperature,
	})
	if err != nil {
		obs.RecordGeneration(g.provider.Name(), "error", time.Since(start))
		span.RecordError(err)
		return "", fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	obs.RecordGeneration(g.provider.Name(), "ok", time.Since(start))

	return parseReply(resp.Content, utterance), nil
}

// Synthesize renders reply text to audio. Returns nil when no synthesizer
// is configured or synthesis fails; audio is best effort.
func (g *Gateway) Synthesize(ctx context.Context, text string) *speech.Clip {
	if g.synth == nil || text == "" {
		return nil
	}

	ctx, span := observability.StartSpan(ctx, "gateway.synthesize")
	defer span.End()

	synthCtx, cancel := context.WithTimeout(ctx, g.synthTimeout)
	defer cancel()

	start := time.Now()
	clip, err := g.synth.Synthesize(synthCtx, text)
	if err != nil {
		obs.RecordSynthesis(g.synth.Name(), "error", time.Since(start))
		span.RecordError(err)
		log.Printf("gateway: synthesis failed, continuing without audio: %v", err)
		return nil
	}
	obs.RecordSynthesis(g.synth.Name(), "ok", time.Since(start))

	return clip
}
