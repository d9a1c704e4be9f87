// Package types provides data structures shared across layers.
//
// Diagnostic is the uniform record of anything skipped while applying or
// rendering a tree: parse, schema, path, unknown_type and transport kinds.
// Request types describe the REST body for starting a generation and the
// messages exchanged on the /stream websocket.
package types
