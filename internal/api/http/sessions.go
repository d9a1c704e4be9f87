package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/tree"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/utils"
)

// SessionView is a session with its current tree
type SessionView struct {
	session.Info
	Tree        tree.UITree        `json:"tree"`
	Diagnostics []types.Diagnostic `json:"diagnostics"`
	// Dangling lists referenced keys that have not arrived or were removed
	Dangling []string `json:"dangling"`
}

func viewOf(s *session.Session) SessionView {
	snap, rev := s.Current()
	info := s.Info()
	info.Revision = rev

	diags := s.Diagnostics()
	if diags == nil {
		diags = []types.Diagnostic{}
	}
	dangling := snap.Dangling()
	if dangling == nil {
		dangling = []string{}
	}
	return SessionView{Info: info, Tree: snap, Diagnostics: diags, Dangling: dangling}
}

// bindGenerate decodes and validates a generation request
func bindGenerate(c *gin.Context) (types.GenerateRequest, bool) {
	var req types.GenerateRequest
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxJSONSize)
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if err := utils.ValidatePrompt(req.Prompt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	if err := utils.ValidateContext(req.Context); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return req, false
	}
	return req, true
}

// lookup resolves the :id parameter, writing the error response on failure
func (h *Handlers) lookup(c *gin.Context) (*session.Session, bool) {
	sid := c.Param("id")
	if err := utils.ValidateID(sid, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	s, ok := h.sessions.Get(sid)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return s, true
}

// start runs a generation detached from the request's lifetime, optionally
// waiting for it to finish
func (h *Handlers) start(c *gin.Context, s *session.Session, req types.GenerateRequest) bool {
	// Keep trace values but not the request's cancellation
	ctx := context.WithoutCancel(c.Request.Context())
	handle, err := s.Start(ctx, session.Input{Prompt: req.Prompt, Context: req.Context})
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return false
	}

	if req.Wait {
		// A transport failure is reported in the session view, not as an
		// HTTP error
		if err := handle.Wait(c.Request.Context()); err != nil {
			h.logger.Debug("Generation ended with error",
				zap.String("session_id", s.ID()),
				zap.Error(err),
			)
		}
	}
	return true
}

// CreateSession creates a session and starts its first generation
func (h *Handlers) CreateSession(c *gin.Context) {
	req, ok := bindGenerate(c)
	if !ok {
		return
	}

	s := h.sessions.Create()
	if !h.start(c, s, req) {
		h.sessions.Delete(s.ID())
		return
	}
	c.JSON(http.StatusCreated, viewOf(s))
}

// ListSessions lists all sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"sessions": h.sessions.List(),
		"stats":    h.sessions.Stats(),
	})
}

// GetSession returns a session with its tree and diagnostics
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(s))
}

// Generate starts a new generation on an existing session, replacing its tree
func (h *Handlers) Generate(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	req, ok := bindGenerate(c)
	if !ok {
		return
	}
	if !h.start(c, s, req) {
		return
	}

	status := http.StatusAccepted
	if req.Wait {
		status = http.StatusOK
	}
	c.JSON(status, viewOf(s))
}

// Render renders the session's current tree as an HTML page or as text
func (h *Handlers) Render(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}

	format := c.DefaultQuery("format", FormatHTML)
	width := 0
	if w := c.Query("width"); w != "" {
		n, err := strconv.Atoi(w)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "width must be a positive integer"})
			return
		}
		width = n
	}

	snap, rev := s.Current()
	c.Header("X-Revision", strconv.FormatUint(rev, 10))

	switch format {
	case FormatHTML:
		title := s.Info().Prompt
		if title == "" {
			title = s.ID()
		}
		page, res := h.views.page(s.ID(), title, snap, c.Query("fragment") == "true")
		c.Header("X-Render-Diagnostics", strconv.Itoa(len(res.Diagnostics)))
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
	case FormatText:
		res := h.views.text(s.ID(), width, snap)
		c.Header("X-Render-Diagnostics", strconv.Itoa(len(res.Diagnostics)))
		c.String(http.StatusOK, res.Output)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be html or text"})
	}
}

// CancelSession stops the in-flight generation, keeping the partial tree
func (h *Handlers) CancelSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	s.Cancel()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": s.ID(),
		"status":     s.Status(),
	})
}

// ClearSession cancels any generation and empties the tree
func (h *Handlers) ClearSession(c *gin.Context) {
	s, ok := h.lookup(c)
	if !ok {
		return
	}
	s.Clear()
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": s.ID(),
		"revision":   s.Store().Revision(),
	})
}

// DeleteSession closes and removes a session
func (h *Handlers) DeleteSession(c *gin.Context) {
	sid := c.Param("id")
	if err := utils.ValidateID(sid, "session_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !h.sessions.Delete(sid) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sid,
	})
}
