// Package ws streams tree revisions to WebSocket clients.
//
// Each connection follows one session: a new session it owns, or an
// existing one named by ?session=. Owned sessions are deleted when the
// connection closes.
//
// Message Types (Client → Server):
//   - generate: start a generation; message is the prompt, context is optional
//   - cancel: stop the running generation, keeping the partial tree
//   - clear: cancel and empty the tree
//   - ping: keep-alive
//
// Message Types (Server → Client):
//   - session: the session and connection ids, sent once on connect
//   - revision: the tree after a mutation, with its revision; bursts are
//     coalesced so a slow client only sees the latest tree
//   - status: the session state after a command
//   - complete: a generation ended, with its state, stats and diagnostics
//   - error: a command failed or the stream hit a transport error
//   - pong: reply to ping
//
// Example Usage:
//
//	handler := ws.NewHandler(sessions, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
