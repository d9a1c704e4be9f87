// Package patch defines the patch vocabulary a model emits and the parser
// that turns one line of model output into a Patch.
//
// Wire Format:
//
//	{"op":"set","path":"/root","value":"deck"}
//	{"op":"set","path":"/elements/deck","value":{"key":"deck","type":"Deck","children":["s1"]}}
//	{"op":"set","path":"/elements/s1/props/title","value":"Hello"}
//	{"op":"remove","path":"/elements/s1"}
//
// Paths are JSON pointers into the tree ("~1" escapes "/", "~0" escapes "~").
//
// Parsing never halts a stream: every rejected line yields a *ParseError
// whose Reason classifies the rejection, and callers skip the line.
package patch
