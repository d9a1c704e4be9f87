package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/generator"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Development = true
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func request(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestServerEndToEnd(t *testing.T) {
	s := newTestServer(t, testConfig())
	h := s.Handler()

	w := request(t, h, http.MethodPost, "/sessions", `{"prompt":"quarterly sales review","wait":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get(tracing.HeaderTraceID))

	var view struct {
		ID     string       `json:"id"`
		Status ingest.State `json:"status"`
	}
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, ingest.StateComplete, view.Status)

	w = request(t, h, http.MethodGet, "/sessions/"+view.ID+"/render?format=text", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Quarterly sales review")

	w = request(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	metrics := w.Body.String()
	assert.Contains(t, metrics, "jsonrender_patches_applied_total")
	assert.Contains(t, metrics, `jsonrender_generations_finished_total{state="complete"} 1`)
	assert.Contains(t, metrics, "jsonrender_sessions_active 1")
	assert.Contains(t, metrics, `jsonrender_render_duration_seconds_count{format="text"} 1`)

	w = request(t, h, http.MethodDelete, "/sessions/"+view.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	w = request(t, h, http.MethodGet, "/metrics", "")
	assert.Contains(t, w.Body.String(), "jsonrender_sessions_active 0")
}

func TestServerHealthWithoutRemoteGenerator(t *testing.T) {
	s := newTestServer(t, testConfig())

	w := request(t, s.Handler(), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health map[string]any
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Nil(t, s.breaker)
}

func TestServerUsesCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
components:
  - name: Card
    description: A card
    props:
      - name: title
        type: string
        required: true
`), 0o644))

	cfg := testConfig()
	cfg.Catalog.Path = filepath.Join(dir, "*.yaml")
	s := newTestServer(t, cfg)

	assert.Equal(t, []string{"Card"}, s.Sessions().Catalog().Types())
}

func TestNewServerBuildsItsLogger(t *testing.T) {
	cfg := testConfig()
	cfg.Logging.Level = "error"
	s, err := NewServer(cfg)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, request(t, s.Handler(), http.MethodGet, "/health", "").Code)
	require.NoError(t, s.Close())

	cfg.Logging.Level = "loud"
	_, err = NewServer(cfg)
	assert.ErrorContains(t, err, "failed to create logger")

	s, err = New(testConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestServerRejectsBadCatalogAndTrace(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Path = filepath.Join(t.TempDir(), "missing", "*.yaml")
	_, err := New(cfg, logging.NewNop())
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Generator.ReplayPath = filepath.Join(t.TempDir(), "missing.ndjson")
	_, err = New(cfg, logging.NewNop())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewGeneratorKinds(t *testing.T) {
	cat := catalog.Default()

	gen, breaker, err := newGenerator(config.GeneratorConfig{URL: "http://127.0.0.1:1"}, cat, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &generator.HTTP{}, gen)
	assert.NotNil(t, breaker)

	trace := filepath.Join(t.TempDir(), "trace.ndjson")
	require.NoError(t, os.WriteFile(trace, []byte(`{"op":"set","path":"/root","value":"a"}`+"\n"), 0o644))
	gen, breaker, err = newGenerator(config.GeneratorConfig{ReplayPath: trace}, cat, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &generator.Replay{}, gen)
	assert.Nil(t, breaker)

	gen, _, err = newGenerator(config.GeneratorConfig{}, cat, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &generator.Demo{}, gen)
}

func TestTracedGeneratorRecordsSpan(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tracer := tracing.New("test", zap.New(core))

	gen := traced(session.GeneratorFunc(func(context.Context, session.Input) (ingest.Source, error) {
		return ingest.NewStringsSource("a", "bc"), nil
	}), tracer)

	src, err := gen.Generate(t.Context(), session.Input{Prompt: "héllo"})
	require.NoError(t, err)
	for {
		if _, err := src.Next(t.Context()); err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}
	}
	tracer.Close()

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "generate", fields["operation"])
	assert.Equal(t, "complete", fields["outcome"])
	assert.Equal(t, "2", fields["stream.chunks"])
	assert.Equal(t, "3", fields["stream.bytes"])
	assert.Equal(t, "5", fields["prompt.chars"])
}

func TestTracedGeneratorRecordsFailures(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	tracer := tracing.New("test", zap.New(core))

	gen := traced(session.GeneratorFunc(func(context.Context, session.Input) (ingest.Source, error) {
		return nil, errors.New("upstream down")
	}), tracer)
	_, err := gen.Generate(t.Context(), session.Input{Prompt: "x"})
	require.Error(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	blocked := traced(session.GeneratorFunc(func(context.Context, session.Input) (ingest.Source, error) {
		return ingest.NewChanSource(make(chan ingest.Chunk)), nil
	}), tracer)
	_, err = blocked.Generate(ctx, session.Input{Prompt: "x"})
	require.NoError(t, err)
	cancel()

	require.Eventually(t, func() bool {
		return logs.Len() >= 2
	}, 2*time.Second, 10*time.Millisecond)
	tracer.Close()
	assert.Equal(t, 2, logs.Len())
	assert.Equal(t, 1, logs.FilterLevelExact(zap.ErrorLevel).Len())
}
