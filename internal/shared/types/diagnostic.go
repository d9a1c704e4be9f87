package types

import "fmt"

// DiagnosticKind classifies a recovered error
type DiagnosticKind string

const (
	DiagnosticParse       DiagnosticKind = "parse"
	DiagnosticSchema      DiagnosticKind = "schema"
	DiagnosticPath        DiagnosticKind = "path"
	DiagnosticUnknownType DiagnosticKind = "unknown_type"
	DiagnosticTransport   DiagnosticKind = "transport"
)

// Diagnostic is a developer-facing record of something that was skipped
// rather than applied or rendered. Diagnostics never block rendering.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Key     string         `json:"key,omitempty"`  // Element key, when known
	Path    string         `json:"path,omitempty"` // Patch path, when known
	Line    string         `json:"line,omitempty"` // Raw stream line for parse diagnostics
	Message string         `json:"message"`
}

// String renders the diagnostic on one line for logs and CLI output
func (d Diagnostic) String() string {
	switch {
	case d.Path != "":
		return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Path, d.Message)
	case d.Key != "":
		return fmt.Sprintf("[%s] %s: %s", d.Kind, d.Key, d.Message)
	default:
		return fmt.Sprintf("[%s] %s", d.Kind, d.Message)
	}
}

// CountByKind tallies diagnostics per kind
func CountByKind(diags []Diagnostic) map[DiagnosticKind]int {
	counts := make(map[DiagnosticKind]int)
	for _, d := range diags {
		counts[d.Kind]++
	}
	return counts
}
