// Package main is the entry point for the jsonrender server.
//
// The server accepts prompts, streams generated patch lines into per-session
// UI trees and serves those trees as JSON, HTML or terminal text, over REST
// and a revision-pushing websocket.
//
// Configuration:
//   - Environment variables (12-factor), see internal/infrastructure/config
//   - CLI flags (override env vars)
//   - Defaults for development: built-in catalog and demo generator
//
// Usage:
//
//	# Serve the demo generator
//	./server -port 8000
//
//	# Stream from an upstream model
//	GENERATOR_API_KEY=... ./server -generator https://llm.internal/v1/stream
//
//	# Replay a recorded trace (plain, gzip or zstd)
//	./server -replay traces/deck.ndjson.zst -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
