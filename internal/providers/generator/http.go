package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/tracing"
)

// maxErrorBody bounds how much of a failed response is quoted in errors
const maxErrorBody = 512

// HTTPConfig configures the upstream model endpoint
type HTTPConfig struct {
	URL     string
	APIKey  string
	Model   string
	Timeout time.Duration // time to response headers; the stream itself is unbounded
	Retries int
	RPS     float64 // 0 = unlimited
}

// StatusError is returned when the upstream answers with a non-2xx status
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generator returned status %d", e.Code)
	}
	return fmt.Sprintf("generator returned status %d: %s", e.Code, e.Body)
}

type generateRequest struct {
	Model   string            `json:"model,omitempty"`
	System  string            `json:"system"`
	Prompt  string            `json:"prompt"`
	Context map[string]string `json:"context,omitempty"`
	Stream  bool              `json:"stream"`
}

// HTTP streams generations from an upstream endpoint
type HTTP struct {
	cfg     HTTPConfig
	system  string
	client  *resty.Client
	limiter *rate.Limiter
	breaker *resilience.Breaker
	logger  *zap.Logger
}

// NewHTTP creates the HTTP generator. The system prompt is built once from
// cat, which is read-only.
func NewHTTP(cfg HTTPConfig, cat *catalog.Catalog, breaker *resilience.Breaker, logger *zap.Logger) *HTTP {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = max(cfg.Retries, 0)
	retryClient.RetryWaitMin = 500 * time.Millisecond
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.Logger = leveledLogger{logger.Sugar()}
	// Hand the final response back so status errors keep their body
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	if transport, ok := retryClient.HTTPClient.Transport.(*http.Transport); ok {
		transport.ResponseHeaderTimeout = cfg.Timeout
	}

	restyClient := resty.NewWithClient(retryClient.StandardClient()).
		SetHeader("User-Agent", "jsonrender/1.0").
		SetHeader("Accept", "application/x-ndjson, text/plain").
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal)
	if cfg.APIKey != "" {
		restyClient.SetAuthToken(cfg.APIKey)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), max(int(cfg.RPS), 1))
	}

	if breaker == nil {
		breaker = resilience.New("generator", resilience.Settings{
			MaxRequests: 2,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts resilience.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		})
	}

	return &HTTP{
		cfg:     cfg,
		system:  SystemPrompt(cat),
		client:  restyClient,
		limiter: limiter,
		breaker: breaker,
		logger:  logger,
	}
}

// Breaker exposes the circuit breaker for health reporting
func (g *HTTP) Breaker() *resilience.Breaker {
	return g.breaker
}

// Generate opens the response stream. Only opening is guarded by the
// limiter and breaker; the returned source owns the body.
func (g *HTTP) Generate(ctx context.Context, in session.Input) (ingest.Source, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req := generateRequest{
		Model:   g.cfg.Model,
		System:  g.system,
		Prompt:  UserPrompt(in),
		Context: in.Context,
		Stream:  true,
	}

	headers := make(map[string]string, 2)
	tracing.InjectTraceContext(ctx, headers)

	start := time.Now()
	body, err := resilience.Call(ctx, g.breaker, func(ctx context.Context) (io.ReadCloser, error) {
		resp, err := g.client.R().
			SetContext(ctx).
			SetHeaders(headers).
			SetDoNotParseResponse(true).
			SetBody(req).
			Post(g.cfg.URL)
		if err != nil {
			return nil, err
		}

		raw := resp.RawBody()
		if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
			defer raw.Close()
			snippet, _ := io.ReadAll(io.LimitReader(raw, maxErrorBody))
			return nil, &StatusError{Code: resp.StatusCode(), Body: string(snippet)}
		}
		return raw, nil
	})
	if err != nil {
		g.logger.Warn("Generator request failed",
			zap.String("url", g.cfg.URL),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	g.logger.Debug("Generator stream opened",
		zap.String("url", g.cfg.URL),
		zap.Duration("elapsed", time.Since(start)))
	return NewBodySource(body), nil
}

// BodySource streams a response body and closes it once the stream ends,
// fails or is cancelled
type BodySource struct {
	src  *ingest.ReaderSource
	body io.Closer
	once sync.Once
}

// NewBodySource wraps body
func NewBodySource(body io.ReadCloser) *BodySource {
	return &BodySource{src: ingest.NewReaderSource(body), body: body}
}

// Next returns the next chunk of the body
func (s *BodySource) Next(ctx context.Context) (string, error) {
	chunk, err := s.src.Next(ctx)
	if err != nil {
		s.Close()
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return "", fmt.Errorf("stream truncated: %w", err)
		}
	}
	return chunk, err
}

// Close releases the body; it is safe to call more than once
func (s *BodySource) Close() error {
	var err error
	s.once.Do(func() {
		err = s.body.Close()
	})
	return err
}

// leveledLogger adapts zap to retryablehttp's logger interface
type leveledLogger struct {
	s *zap.SugaredLogger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
