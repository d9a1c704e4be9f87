package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/ingest"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/utils"
)

const (
	writeWait       = 10 * time.Second
	maxMessageBytes = 64 << 10
)

var messageValidator = utils.NewJSONSizeValidator(maxMessageBytes)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced by middleware
	},
}

// Event is a message pushed to clients
type Event struct {
	Type         string             `json:"type"`
	SessionID    string             `json:"session_id,omitempty"`
	ConnectionID string             `json:"connection_id,omitempty"`
	Revision     uint64             `json:"revision,omitempty"`
	Tree         *tree.UITree       `json:"tree,omitempty"`
	Status       ingest.State       `json:"status,omitempty"`
	Generation   int                `json:"generation,omitempty"`
	Stats        *ingest.Stats      `json:"stats,omitempty"`
	Diagnostics  []types.Diagnostic `json:"diagnostics,omitempty"`
	Message      string             `json:"message,omitempty"`
	Timestamp    int64              `json:"timestamp"`
}

// Handler manages WebSocket connections
type Handler struct {
	sessions *session.Manager
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(sessions *session.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger,
	}
}

// client is one connection bound to one session
type client struct {
	h      *Handler
	id     string
	conn   *websocket.Conn
	sess   *session.Session
	owned  bool
	logger *zap.Logger

	updates chan struct{}

	// mu guards writes and lastRev
	mu      sync.Mutex
	lastRev uint64
}

// HandleConnection upgrades the request and serves the connection. A
// connection follows the session named by ?session=, or a new session it
// owns and deletes on disconnect.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	cl := &client{
		h:       h,
		id:      uuid.NewString(),
		conn:    conn,
		updates: make(chan struct{}, 1),
	}
	cl.logger = h.logger.With(zap.String("connection_id", cl.id))

	if sid := c.Query("session"); sid != "" {
		if err := utils.ValidateID(sid, "session", true); err != nil {
			cl.sendError(err.Error())
			return
		}
		s, ok := h.sessions.Get(sid)
		if !ok {
			cl.sendError("session not found")
			return
		}
		cl.sess = s
	} else {
		cl.sess = h.sessions.Create()
		cl.owned = true
		defer h.sessions.Delete(cl.sess.ID())
	}
	cl.logger = cl.logger.With(zap.String("session_id", cl.sess.ID()))
	cl.logger.Info("WebSocket connected", zap.Bool("owned", cl.owned))

	// The request context ends when this handler returns
	ctx := c.Request.Context()
	unsubscribe := cl.sess.OnRevision(func(uint64) {
		select {
		case cl.updates <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()
	go cl.pump(ctx)

	cl.send(Event{
		Type:         types.WSSession,
		SessionID:    cl.sess.ID(),
		ConnectionID: cl.id,
		Status:       cl.sess.Status(),
	})
	cl.pushRevision()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				cl.logger.Warn("WebSocket read error", zap.Error(err))
			}
			break
		}
		var msg types.WSMessage
		if err := messageValidator.ValidateJSON(data); err != nil {
			h.record("in", "invalid")
			cl.sendError(err.Error())
			continue
		}
		if err := sonic.Unmarshal(data, &msg); err != nil {
			h.record("in", "invalid")
			cl.sendError("message must be a JSON object")
			continue
		}
		h.record("in", msg.Type)

		switch msg.Type {
		case types.WSGenerate:
			cl.handleGenerate(ctx, msg)
		case types.WSCancel:
			cl.sess.Cancel()
			cl.sendStatus()
		case types.WSClear:
			cl.sess.Clear()
			cl.sendStatus()
		case types.WSPing:
			cl.send(Event{Type: types.WSPong})
		default:
			cl.sendError("unknown message type")
		}
	}
	cl.logger.Info("WebSocket disconnected")
}

func (cl *client) handleGenerate(ctx context.Context, msg types.WSMessage) {
	if err := utils.ValidatePrompt(msg.Message); err != nil {
		cl.sendError(err.Error())
		return
	}
	if err := utils.ValidateContext(msg.Context); err != nil {
		cl.sendError("context too large")
		return
	}

	// Generations outlive the connection; owned sessions are closed on
	// disconnect, which stops them
	handle, err := cl.sess.Start(context.WithoutCancel(ctx), session.Input{
		Prompt:  msg.Message,
		Context: msg.Context,
	})
	if err != nil {
		cl.sendError(err.Error())
		return
	}
	cl.send(Event{
		Type:       types.WSStatus,
		SessionID:  cl.sess.ID(),
		Status:     handle.State(),
		Generation: handle.Generation(),
	})

	go func() {
		select {
		case <-handle.Done():
		case <-ctx.Done():
			return
		}
		cl.pushRevision()

		if err := handle.Err(); err != nil {
			cl.sendError(err.Error())
		}
		stats := handle.Stats()
		cl.send(Event{
			Type:        types.WSComplete,
			SessionID:   cl.sess.ID(),
			Status:      handle.State(),
			Generation:  handle.Generation(),
			Stats:       &stats,
			Diagnostics: cl.sess.Diagnostics(),
		})
	}()
}

// pump forwards coalesced revision notifications until ctx ends
func (cl *client) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-cl.updates:
			cl.pushRevision()
		}
	}
}

// pushRevision sends the current tree if it is newer than the last one sent
func (cl *client) pushRevision() {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	snap, rev := cl.sess.Current()
	if rev == 0 || rev <= cl.lastRev {
		return
	}
	cl.lastRev = rev
	cl.write(Event{
		Type:      types.WSRevision,
		SessionID: cl.sess.ID(),
		Revision:  rev,
		Tree:      &snap,
	})
}

func (cl *client) sendStatus() {
	cl.send(Event{
		Type:      types.WSStatus,
		SessionID: cl.sess.ID(),
		Status:    cl.sess.Status(),
	})
}

func (cl *client) send(ev Event) {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	cl.write(ev)
}

func (cl *client) sendError(msg string) {
	cl.send(Event{Type: types.WSError, Message: msg})
}

// write sends one event; mu must be held
func (cl *client) write(ev Event) {
	ev.Timestamp = time.Now().Unix()
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := cl.conn.WriteJSON(ev); err != nil {
		cl.logger.Debug("WebSocket write failed", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	cl.h.record("out", ev.Type)
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics != nil {
		h.metrics.RecordWSMessage(direction, msgType)
	}
}
