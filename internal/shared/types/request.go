package types

// GenerateRequest starts a generation over REST
type GenerateRequest struct {
	Prompt  string            `json:"prompt"`
	Context map[string]string `json:"context,omitempty"`
	// Wait holds the response until the generation ends
	Wait bool `json:"wait,omitempty"`
}

// WebSocket message types sent by clients
const (
	WSGenerate = "generate"
	WSCancel   = "cancel"
	WSClear    = "clear"
	WSPing     = "ping"
)

// WebSocket message types pushed by the server
const (
	WSSession  = "session"
	WSRevision = "revision"
	WSStatus   = "status"
	WSComplete = "complete"
	WSError    = "error"
	WSPong     = "pong"
)

// WSMessage represents a client WebSocket message
type WSMessage struct {
	Type    string            `json:"type"`
	Message string            `json:"message,omitempty"`
	Context map[string]string `json:"context,omitempty"`
}
