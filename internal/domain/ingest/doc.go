// Package ingest bridges a raw model text stream into a tree store.
//
// The ingest loop pulls chunks from a Source, cuts them into lines, parses
// each line into a patch and applies it. Bad lines are recorded on the store
// and skipped; only a failing Source ends a run with an error.
//
// States:
//
//	idle -> streaming -> complete | errored | cancelled
//
// Streaming() is true from the first chunk until a terminal state and is
// independent of the store's revision counter. Cancellation is observed at
// every await point and between lines; nothing applied is rolled back.
package ingest
