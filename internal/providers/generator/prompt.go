package generator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/session"
)

const wireRules = `Respond with JSON patches only, one per line, no prose and no code fences.
Each line is an object {"op": "set"|"remove", "path": "...", "value": ...}.
Paths:
  /root                          the key of the root element
  /elements/<key>                a whole element {"key", "type", "props", "children"}
  /elements/<key>/props/<name>   one prop
  /elements/<key>/children       the ordered child key list
Emit the root first, then parents before their children, so the UI can
render while you stream. Use short unique keys.`

// SystemPrompt builds the instructions sent ahead of the user's prompt:
// the wire format followed by the catalog description. A nil catalog
// omits the component list.
func SystemPrompt(cat *catalog.Catalog) string {
	var b strings.Builder
	b.WriteString("You build user interfaces by streaming JSON patches.\n\n")
	b.WriteString(wireRules)
	if cat != nil && cat.Len() > 0 {
		b.WriteString("\n\nAvailable components:\n\n")
		b.WriteString(cat.Describe().String())
	}
	return b.String()
}

// UserPrompt renders the prompt followed by its context entries in key order
func UserPrompt(in session.Input) string {
	if len(in.Context) == 0 {
		return in.Prompt
	}

	keys := make([]string, 0, len(in.Context))
	for k := range in.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(in.Prompt)
	b.WriteString("\n\nContext:\n")
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", k, in.Context[k])
	}
	return strings.TrimRight(b.String(), "\n")
}
