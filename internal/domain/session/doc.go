// Package session drives streaming generations into per-session UI trees.
//
// A Session owns one tree store. Start asks the Generator for a text stream
// and ingests it on its own goroutine; a second Start cancels the first and
// resets the tree. Sessions never share mutable state; only the catalog is
// shared, read-only.
//
// Lifecycle of one generation (a Handle):
//
//	idle -> streaming -> complete | errored | cancelled
//
// A transport failure ends the generation as errored and keeps the partial
// tree. Cancel keeps the partial tree too and stops streaming at once.
//
// The Manager creates sessions with ULID ids, lists and deletes them, and
// prunes the ones left idle.
//
// Example Usage:
//
//	mgr := session.NewManager(catalog.Default(), gen, logger)
//	s := mgr.Create()
//	unsubscribe := s.OnRevision(func(rev uint64) { render(s.Tree()) })
//	defer unsubscribe()
//	h, err := s.Start(ctx, session.Input{Prompt: "A deck about Go"})
//	err = h.Wait(ctx)
package session
