package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/patch"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/providers/generator"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router   *gin.Engine
	handlers *Handlers
	sessions *session.Manager
}

func newFixture(t *testing.T, breaker *resilience.Breaker) *fixture {
	t.Helper()
	mgr := session.NewManager(catalog.Default(), generator.NewDemo(), nil)
	t.Cleanup(mgr.Close)

	h := NewHandlers(mgr, monitoring.NewMetrics(), breaker, nil)
	router := gin.New()
	h.Register(router)
	return &fixture{router: router, handlers: h, sessions: mgr}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (f *fixture) create(t *testing.T, prompt string) SessionView {
	t.Helper()
	w := f.do(t, http.MethodPost, "/sessions", `{"prompt":"`+prompt+`","wait":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[SessionView](t, w)
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, w.Code)
	root := decode[map[string]any](t, w)
	assert.Equal(t, "jsonrender", root["service"])

	w = f.do(t, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[map[string]any](t, w)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, map[string]any{"remote": false}, health["generator"])
	assert.EqualValues(t, catalog.Default().Len(), health["catalog"].(map[string]any)["components"])
}

func TestHealthReportsOpenBreaker(t *testing.T) {
	breaker := resilience.New("generator", resilience.Settings{
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 1 },
	})
	err := breaker.Execute(context.Background(), func(context.Context) error {
		return errors.New("upstream down")
	})
	require.Error(t, err)
	require.Equal(t, resilience.StateOpen, breaker.State())

	f := newFixture(t, breaker)
	health := decode[map[string]any](t, f.do(t, http.MethodGet, "/health", ""))
	assert.Equal(t, "degraded", health["status"])

	gen := health["generator"].(map[string]any)
	assert.Equal(t, true, gen["remote"])
	assert.Equal(t, "open", gen["breaker"].(map[string]any)["state"])
}

func TestCatalogEndpoints(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, http.MethodGet, "/catalog", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Contains(t, w.Body.String(), `"TitleSlide"`)

	w = f.do(t, http.MethodGet, "/catalog/prompt", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "TitleSlide")

	w = f.do(t, http.MethodGet, "/catalog/schema", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/catalog/schema?type=TitleSlide", "")
	require.Equal(t, http.StatusOK, w.Code)
	schema := decode[map[string]any](t, w)
	assert.Contains(t, schema, "$schema")

	w = f.do(t, http.MethodGet, "/catalog/schema?type=Nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateSessionWaits(t *testing.T) {
	f := newFixture(t, nil)

	view := f.create(t, "quarterly sales review")
	assert.True(t, strings.HasPrefix(view.ID, "sess_"))
	assert.Equal(t, ingest.StateComplete, view.Status)
	assert.Equal(t, "quarterly sales review", view.Prompt)
	assert.Equal(t, "deck", view.Tree.Root)
	assert.Contains(t, view.Tree.Elements, "intro")
	assert.Equal(t, "Quarterly sales review", view.Tree.Elements["intro"].Props["title"])
	assert.Empty(t, view.Diagnostics)
	assert.Equal(t, len(generator.DemoDeck("x")), view.Stats.Applied)
}

func TestCreateSessionValidation(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"prompt":`},
		{"missing prompt", `{}`},
		{"blank prompt", `{"prompt":"   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, http.MethodPost, "/sessions", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, decode[map[string]any](t, w), "error")
		})
	}

	huge := `{"prompt":"x","context":{"notes":"` + strings.Repeat("x", utils.MaxJSONSize) + `"}}`
	w := f.do(t, http.MethodPost, "/sessions", huge)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["error"], "too large")

	assert.Equal(t, 0, f.sessions.Stats().Total)
}

func TestSessionLookupErrors(t *testing.T) {
	f := newFixture(t, nil)

	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/sessions/sess_missing", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/sessions/bad!id", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/sessions/sess_missing/cancel", "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodDelete, "/sessions/sess_missing", "").Code)
}

func TestListAndGetSession(t *testing.T) {
	f := newFixture(t, nil)
	created := f.create(t, "team offsite plan")

	w := f.do(t, http.MethodGet, "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Sessions []session.Info `json:"sessions"`
		Stats    session.Stats  `json:"stats"`
	}](t, w)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, created.ID, list.Sessions[0].ID)
	assert.Equal(t, 1, list.Stats.Complete)

	w = f.do(t, http.MethodGet, "/sessions/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[SessionView](t, w)
	assert.Equal(t, created.Revision, got.Revision)
	assert.Equal(t, created.Tree, got.Tree)
	assert.Empty(t, got.Dangling)

	sess, ok := f.sessions.Get(created.ID)
	require.True(t, ok)
	require.True(t, sess.Store().Apply(patch.Remove("/elements/intro")))

	got = decode[SessionView](t, f.do(t, http.MethodGet, "/sessions/"+created.ID, ""))
	assert.Equal(t, []string{"intro"}, got.Dangling)
	assert.NotContains(t, got.Tree.Elements, "intro")
}

func TestGenerateReplacesTree(t *testing.T) {
	f := newFixture(t, nil)
	created := f.create(t, "first topic")

	w := f.do(t, http.MethodPost, "/sessions/"+created.ID+"/generate", `{"prompt":"second topic","wait":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[SessionView](t, w)
	assert.Equal(t, 2, view.Generations)
	assert.Equal(t, "Second topic", view.Tree.Elements["intro"].Props["title"])
	assert.Greater(t, view.Revision, created.Revision)

	w = f.do(t, http.MethodPost, "/sessions/"+created.ID+"/generate", `{"prompt":"third topic"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = f.do(t, http.MethodPost, "/sessions/"+created.ID+"/generate", `{"prompt":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRender(t *testing.T) {
	f := newFixture(t, nil)
	created := f.create(t, "quarterly sales review")
	base := "/sessions/" + created.ID + "/render"

	w := f.do(t, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.NotEmpty(t, w.Header().Get("X-Revision"))
	assert.Equal(t, "0", w.Header().Get("X-Render-Diagnostics"))
	body := w.Body.String()
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE html>"))
	assert.Contains(t, body, "<title>quarterly sales review</title>")
	assert.Contains(t, body, "Quarterly sales review")

	w = f.do(t, http.MethodGet, base+"?fragment=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "<!DOCTYPE html>")
	assert.Contains(t, w.Body.String(), "Quarterly sales review")

	w = f.do(t, http.MethodGet, base+"?format=text&width=100", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "Quarterly sales review")

	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, base+"?format=pdf", "").Code)
	assert.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, base+"?format=text&width=wide", "").Code)
	assert.Equal(t, 1, f.handlers.views.len())
}

func TestRenderReusesCachedNodes(t *testing.T) {
	f := newFixture(t, nil)
	created := f.create(t, "quarterly sales review")
	snap := created.Tree

	first := f.handlers.views.text(created.ID, 80, snap)
	second := f.handlers.views.text(created.ID, 80, snap)
	assert.Positive(t, first.Stats.Rendered)
	assert.Zero(t, second.Stats.Rendered)
	assert.Equal(t, first.Stats.Rendered, second.Stats.Reused)
	assert.Equal(t, first.Output, second.Output)
}

func TestCancelClearDelete(t *testing.T) {
	f := newFixture(t, nil)
	created := f.create(t, "quarterly sales review")
	path := "/sessions/" + created.ID

	w := f.do(t, http.MethodPost, path+"/cancel", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode[map[string]any](t, w)["success"])

	w = f.do(t, http.MethodPost, path+"/clear", "")
	require.Equal(t, http.StatusOK, w.Code)
	cleared := decode[map[string]any](t, w)
	assert.EqualValues(t, created.Revision+1, cleared["revision"])

	view := decode[SessionView](t, f.do(t, http.MethodGet, path, ""))
	assert.Empty(t, view.Tree.Root)
	assert.Empty(t, view.Tree.Elements)

	f.do(t, http.MethodGet, path+"/render", "")
	require.Equal(t, 1, f.handlers.views.len())

	w = f.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, f.handlers.views.len())
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, path, "").Code)
}

func TestMetricsEndpoints(t *testing.T) {
	f := newFixture(t, nil)
	f.create(t, "quarterly sales review")

	w := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = f.do(t, http.MethodGet, "/metrics/json", "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Contains(t, body, "metrics")
	assert.EqualValues(t, 1, body["sessions"].(map[string]any)["total"])
}
