// Package tree holds the UI tree and the store that applies patches to it.
//
// The tree is a root key plus a flat map of elements; parents reference
// children by key, never by embedding. The Store applies patches strictly
// in arrival order (last write wins), validates every mutation against the
// catalog before committing it, and records rejected patches instead of
// failing the stream.
//
// Supported Paths:
//   - /root                          set (string or null), remove
//   - /elements/<key>                set whole element, remove
//   - /elements/<key>/props          set (object), remove
//   - /elements/<key>/props/<p>/...  set, remove (nested pointer, "-" appends)
//   - /elements/<key>/children       set (array of keys), remove
//   - /elements/<key>/children/<i>   set, remove ("-" appends)
//   - /elements/<key>/type           set
//
// Patches that address an element which does not exist yet are dropped
// with a PathError; they are not buffered.
//
// Concurrency:
//
// A store has a single writer (the ingest loop). Readers take deep-copy
// snapshots under a read lock. Revision callbacks run after the write
// lock is released, one at a time, in revision order.
package tree
