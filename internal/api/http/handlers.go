package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/resilience"
)

// Version is reported by the root endpoint
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions *session.Manager
	catalog  *catalog.Catalog
	views    *views
	metrics  *monitoring.Metrics
	breaker  *resilience.Breaker
	logger   *zap.Logger
}

// NewHandlers creates a new handler set. breaker is the generator's circuit
// breaker and may be nil when the generator is not remote.
func NewHandlers(
	sessions *session.Manager,
	metrics *monitoring.Metrics,
	breaker *resilience.Breaker,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handlers{
		sessions: sessions,
		catalog:  sessions.Catalog(),
		views:    newViews(metrics, logger),
		metrics:  metrics,
		breaker:  breaker,
		logger:   logger,
	}
	sessions.OnRemove(h.views.drop)
	return h
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "jsonrender",
		"version": Version,
	})
}

// Health handles the detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	generator := gin.H{"remote": h.breaker != nil}
	if h.breaker != nil {
		state := h.breaker.State()
		if state == resilience.StateOpen {
			status = "degraded"
		}
		generator["breaker"] = gin.H{
			"name":   h.breaker.Name(),
			"state":  state.String(),
			"counts": h.breaker.Counts(),
		}
	}

	components := 0
	if h.catalog != nil {
		components = h.catalog.Len()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"sessions":  h.sessions.Stats(),
		"catalog":   gin.H{"components": components},
		"generator": generator,
		"metrics":   h.metrics.Snapshot(),
	})
}

// Metrics serves the Prometheus exposition format
func (h *Handlers) Metrics(c *gin.Context) {
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// MetricsJSON returns the metrics snapshot as JSON
func (h *Handlers) MetricsJSON(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"timestamp": time.Now(),
		"metrics":   h.metrics.Snapshot(),
		"sessions":  h.sessions.Stats(),
	})
}

// Register mounts every REST route on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics", h.Metrics)
	r.GET("/metrics/json", h.MetricsJSON)

	// Catalog
	r.GET("/catalog", h.Catalog)
	r.GET("/catalog/prompt", h.CatalogPrompt)
	r.GET("/catalog/schema", h.CatalogSchema)

	// Sessions
	r.POST("/sessions", h.CreateSession)
	r.GET("/sessions", h.ListSessions)
	r.GET("/sessions/:id", h.GetSession)
	r.POST("/sessions/:id/generate", h.Generate)
	r.GET("/sessions/:id/render", h.Render)
	r.POST("/sessions/:id/cancel", h.CancelSession)
	r.POST("/sessions/:id/clear", h.ClearSession)
	r.DELETE("/sessions/:id", h.DeleteSession)
}
