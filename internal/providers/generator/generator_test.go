package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"testing/iotest"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/tracing"
)

const trace = `{"op":"set","path":"/root","value":"s1"}
{"op":"set","path":"/elements/s1","value":{"key":"s1","type":"TitleSlide","props":{"title":"Hello"}}}
`

func ingestAll(t *testing.T, src ingest.Source) (*tree.Store, ingest.Stats) {
	t.Helper()
	store := tree.NewStore(catalog.Default())
	ing := ingest.New(store)
	require.NoError(t, ing.Run(t.Context(), src))
	return store, ing.Stats()
}

func TestSystemPrompt(t *testing.T) {
	prompt := SystemPrompt(catalog.Default())
	assert.Contains(t, prompt, "/elements/<key>/props/<name>")
	assert.Contains(t, prompt, "TitleSlide")
	assert.Contains(t, prompt, "BulletList")

	bare := SystemPrompt(nil)
	assert.NotContains(t, bare, "Available components")
}

func TestUserPrompt(t *testing.T) {
	assert.Equal(t, "a deck", UserPrompt(session.Input{Prompt: "a deck"}))

	got := UserPrompt(session.Input{
		Prompt:  "a deck",
		Context: map[string]string{"tone": "formal", "audience": "board"},
	})
	assert.Equal(t, "a deck\n\nContext:\n- audience: board\n- tone: formal", got)
}

func TestHTTPStreamsPatches(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "trace-1", r.Header.Get(tracing.HeaderTraceID))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, sonic.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/x-ndjson")
		flusher := w.(http.Flusher)
		for _, line := range strings.SplitAfter(trace, "\n") {
			io.WriteString(w, line)
			flusher.Flush()
		}
	}))
	defer srv.Close()

	gen := NewHTTP(HTTPConfig{URL: srv.URL, APIKey: "secret", Model: "m1"}, catalog.Default(), nil, nil)
	ctx := tracing.WithSpanContext(t.Context(), "trace-1", "span-1")
	src, err := gen.Generate(ctx, session.Input{Prompt: "hello"})
	require.NoError(t, err)

	store, stats := ingestAll(t, src)
	assert.Equal(t, 2, stats.Applied)
	assert.Equal(t, "Hello", store.Snapshot().Elements["s1"].Props["title"])

	assert.Equal(t, "m1", got.Model)
	assert.Equal(t, "hello", got.Prompt)
	assert.True(t, got.Stream)
	assert.Contains(t, got.System, "TitleSlide")
}

func TestHTTPStatusError(t *testing.T) {
	tests := []struct {
		name string
		code int
	}{
		{"client error", http.StatusBadRequest},
		{"server error", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				io.WriteString(w, "bad prompt")
			}))
			defer srv.Close()

			gen := NewHTTP(HTTPConfig{URL: srv.URL}, nil, nil, nil)
			_, err := gen.Generate(t.Context(), session.Input{Prompt: "x"})

			var statusErr *StatusError
			require.ErrorAs(t, err, &statusErr)
			assert.Equal(t, tt.code, statusErr.Code)
			assert.Equal(t, "bad prompt", statusErr.Body)
		})
	}
}

func TestHTTPBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	breaker := resilience.New("test", resilience.Settings{
		Timeout: time.Minute,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 2
		},
	})
	gen := NewHTTP(HTTPConfig{URL: srv.URL}, nil, breaker, nil)

	for range 2 {
		_, err := gen.Generate(t.Context(), session.Input{Prompt: "x"})
		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
	}
	assert.Equal(t, resilience.StateOpen, gen.Breaker().State())

	_, err := gen.Generate(t.Context(), session.Input{Prompt: "x"})
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestHTTPTruncatedStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Promise more than is sent so the client sees an unexpected EOF
		w.Header().Set("Content-Length", "1000")
		io.WriteString(w, `{"op":"set","path":"/root","value":"s1"}`+"\n")
	}))
	defer srv.Close()

	gen := NewHTTP(HTTPConfig{URL: srv.URL}, nil, nil, nil)
	src, err := gen.Generate(t.Context(), session.Input{Prompt: "x"})
	require.NoError(t, err)

	store := tree.NewStore(nil)
	ing := ingest.New(store)
	err = ing.Run(t.Context(), src)

	var transportErr *ingest.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Equal(t, "s1", store.Snapshot().Root)
}

func writeTrace(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReplayEncodings(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	_, err := zw.Write([]byte(trace))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zst := enc.EncodeAll([]byte(trace), nil)
	require.NoError(t, enc.Close())

	tests := []struct {
		name string
		file string
		data []byte
		want Encoding
	}{
		{"plain", "trace.ndjson", []byte(trace), EncodingPlain},
		{"gzip", "trace.ndjson.gz", gz.Bytes(), EncodingGzip},
		{"zstd", "trace.ndjson.zst", zst, EncodingZstd},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeTrace(t, tt.file, tt.data)

			rc, encoding, err := OpenTrace(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, encoding)
			require.NoError(t, rc.Close())

			src, err := NewReplay(path, WithChunkSize(16)).Generate(t.Context(), session.Input{})
			require.NoError(t, err)

			store, stats := ingestAll(t, src)
			assert.Equal(t, 2, stats.Applied)
			assert.Greater(t, stats.Chunks, 2)
			assert.Equal(t, "s1", store.Snapshot().Root)
		})
	}
}

func TestReplayTruncatedTraceErrors(t *testing.T) {
	var gz bytes.Buffer
	zw := gzip.NewWriter(&gz)
	for i := 0; i < 200; i++ {
		_, err := fmt.Fprintf(zw, `{"op":"set","path":"/root","value":"s%d"}`+"\n", i)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	cut := gz.Bytes()[:gz.Len()*2/3]

	for _, size := range []int{16, 64 * 1024} {
		path := writeTrace(t, "trace.ndjson.gz", cut)
		src, err := NewReplay(path, WithChunkSize(size)).Generate(t.Context(), session.Input{})
		require.NoError(t, err)

		ing := ingest.New(tree.NewStore(nil))
		err = ing.Run(t.Context(), src)

		var transportErr *ingest.TransportError
		require.ErrorAs(t, err, &transportErr, "chunk size %d", size)
		assert.Equal(t, ingest.StateErrored, ing.State())
	}
}

func TestPacedSourceHoldsErrorAfterPartialChunk(t *testing.T) {
	boom := errors.New("checksum mismatch")
	r := io.NopCloser(io.MultiReader(strings.NewReader("abc"), iotest.ErrReader(boom)))
	src := NewPacedSource(r, 8, 0)

	chunk, err := src.Next(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "abc", chunk)

	_, err = src.Next(t.Context())
	assert.ErrorIs(t, err, boom)

	_, err = src.Next(t.Context())
	assert.ErrorIs(t, err, io.EOF)
}

func TestReplayRejectsBinary(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")
	path := writeTrace(t, "trace.png", png)

	_, err := NewReplay(path).Generate(t.Context(), session.Input{})
	assert.ErrorIs(t, err, ErrUnsupportedTrace)

	_, err = NewReplay(filepath.Join(t.TempDir(), "missing")).Generate(t.Context(), session.Input{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestPacedSourceHonorsContext(t *testing.T) {
	src := NewPacedSource(io.NopCloser(strings.NewReader(trace)), 8, time.Hour)

	ctx, cancel := context.WithCancel(t.Context())
	chunk, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Len(t, chunk, 8)

	cancel()
	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = src.Next(t.Context())
	assert.ErrorIs(t, err, io.EOF)
}

func TestDemoIngestsCleanly(t *testing.T) {
	src, err := NewDemo().Generate(t.Context(), session.Input{Prompt: "quarterly sales review for the team"})
	require.NoError(t, err)

	store, stats := ingestAll(t, src)
	assert.Equal(t, len(DemoDeck("x")), stats.Applied)
	assert.Zero(t, stats.Rejected)
	assert.Empty(t, store.Diagnostics())

	snap := store.Snapshot()
	assert.Equal(t, "deck", snap.Root)
	assert.Equal(t, "Quarterly sales review for the team", snap.Elements["intro"].Props["title"])
	assert.Equal(t, "A generated overview", snap.Elements["intro"].Props["subtitle"])
	assert.Equal(t, []any{"quarterly", "sales", "review", "for", "the"}, snap.Elements["points-list"].Props["items"])
}

func TestDemoPreambleIsRejected(t *testing.T) {
	src, err := NewDemo(WithPreamble("Here is your deck:")).Generate(t.Context(), session.Input{Prompt: ""})
	require.NoError(t, err)

	store, stats := ingestAll(t, src)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, "Untitled", store.Snapshot().Elements["intro"].Props["title"])
}
