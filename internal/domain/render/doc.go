// Package render turns a UI tree into host output through a component
// registry supplied by the host.
//
// The renderer is generic over the output type: a terminal host renders to
// strings, an HTML host to markup, a test host to plain structs. Rendering
// walks from the root, renders children first in declared order, and hands
// their outputs to the parent's component function.
//
// Reconciliation:
//
// Every element key owns a cache entry holding its last output, a canonical
// fingerprint of {type, props, children} and the versions of the child
// outputs it was built from. When both are unchanged the previous output is
// returned as is, so host components that keep state (an animating chart,
// a focused input) are not recreated when an unrelated part of the tree
// changes. A changed element gets a new version, which in turn invalidates
// its ancestors. Keys that are no longer reachable from the root are evicted.
package render
