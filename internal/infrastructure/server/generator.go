package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/generator"
)

// demoDelay paces the demo stream so clients see the tree grow
const demoDelay = 40 * time.Millisecond

// newGenerator builds the configured generator. The breaker is only
// returned for the remote generator.
func newGenerator(cfg config.GeneratorConfig, cat *catalog.Catalog, logger *zap.Logger) (session.Generator, *resilience.Breaker, error) {
	switch cfg.Kind() {
	case config.GeneratorHTTP:
		breaker := resilience.New("generator", resilience.Settings{
			MaxRequests: 2,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to resilience.State) {
				logger.Warn("Circuit breaker state changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
		gen := generator.NewHTTP(generator.HTTPConfig{
			URL:     cfg.URL,
			APIKey:  cfg.APIKey,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
			Retries: cfg.Retries,
			RPS:     cfg.RPS,
		}, cat, breaker, logger)
		logger.Info("Using HTTP generator", zap.String("url", cfg.URL))
		return gen, breaker, nil

	case config.GeneratorReplay:
		if _, err := os.Stat(cfg.ReplayPath); err != nil {
			return nil, nil, fmt.Errorf("replay trace: %w", err)
		}
		logger.Info("Using replay generator", zap.String("path", cfg.ReplayPath))
		return generator.NewReplay(cfg.ReplayPath, generator.WithDelay(demoDelay)), nil, nil

	default:
		logger.Info("Using demo generator")
		return generator.NewDemo(generator.WithDemoDelay(demoDelay)), nil, nil
	}
}

// tracedGenerator records one span per generation, from opening the
// stream until it ends
type tracedGenerator struct {
	inner  session.Generator
	tracer *tracing.Tracer
}

func traced(gen session.Generator, tracer *tracing.Tracer) session.Generator {
	return &tracedGenerator{inner: gen, tracer: tracer}
}

func (g *tracedGenerator) Generate(ctx context.Context, in session.Input) (ingest.Source, error) {
	span, ctx := g.tracer.StartSpan(ctx, "generate")
	span.SetTag("prompt.chars", strconv.Itoa(len([]rune(in.Prompt))))

	src, err := g.inner.Generate(ctx, in)
	if err != nil {
		span.SetError(err)
		g.tracer.Submit(span)
		return nil, err
	}

	ts := &tracedSource{inner: src, span: span, tracer: g.tracer}
	// The generation context ends with the generation, however it stops
	ts.stop = context.AfterFunc(ctx, func() { ts.finish(ctx.Err()) })
	return ts, nil
}

type tracedSource struct {
	inner  ingest.Source
	span   *tracing.Span
	tracer *tracing.Tracer
	stop   func() bool

	mu     sync.Mutex
	chunks int
	bytes  int
	once   sync.Once
}

func (s *tracedSource) Next(ctx context.Context) (string, error) {
	chunk, err := s.inner.Next(ctx)
	if err != nil {
		s.stop()
		s.finish(err)
		return chunk, err
	}
	s.mu.Lock()
	s.chunks++
	s.bytes += len(chunk)
	s.mu.Unlock()
	return chunk, nil
}

func (s *tracedSource) finish(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.span.SetTag("stream.chunks", strconv.Itoa(s.chunks))
		s.span.SetTag("stream.bytes", strconv.Itoa(s.bytes))
		s.mu.Unlock()

		switch {
		case err == nil || errors.Is(err, io.EOF):
			s.span.SetTag("outcome", "complete")
		case errors.Is(err, context.Canceled):
			s.span.SetTag("outcome", "cancelled")
		default:
			s.span.SetTag("outcome", "errored")
			s.span.SetError(err)
		}
		s.tracer.Submit(s.span)
	})
}
