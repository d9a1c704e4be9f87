package patch

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// Reason classifies why a line was rejected
type Reason string

const (
	ReasonEmpty        Reason = "empty"
	ReasonFence        Reason = "fence"
	ReasonInvalidJSON  Reason = "invalid_json"
	ReasonNotObject    Reason = "not_object"
	ReasonMissingOp    Reason = "missing_op"
	ReasonUnknownOp    Reason = "unknown_op"
	ReasonMissingPath  Reason = "missing_path"
	ReasonInvalidPath  Reason = "invalid_path"
	ReasonMissingValue Reason = "missing_value"
	ReasonTooLong      Reason = "too_long"
)

// maxExcerpt bounds the line excerpt carried by a ParseError
const maxExcerpt = 120

// ParseError is returned for a line that is not a usable patch
type ParseError struct {
	Reason Reason
	Line   string // excerpt of the offending line
	Err    error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse: %s", e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Line != "" {
		msg += fmt.Sprintf(" (line %q)", e.Line)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Soft reports whether the rejection is expected noise rather than a
// malformed patch. Blank lines are soft; everything else is recorded.
func (e *ParseError) Soft() bool {
	return e.Reason == ReasonEmpty
}

// NewParseError builds a ParseError with a bounded excerpt of line
func NewParseError(reason Reason, line string, err error) *ParseError {
	return &ParseError{Reason: reason, Line: Excerpt(line), Err: err}
}

// Excerpt trims line to a bounded length for diagnostics
func Excerpt(line string) string {
	line = strings.TrimSpace(line)
	if len(line) <= maxExcerpt {
		return line
	}
	cut := maxExcerpt
	for cut > 0 && !utf8.RuneStart(line[cut]) {
		cut--
	}
	return line[:cut] + "..."
}

// ParseLine converts one line of model output into a Patch.
// It never panics; every rejection is a *ParseError.
func ParseLine(line string) (Patch, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Patch{}, &ParseError{Reason: ReasonEmpty}
	}
	if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
		return Patch{}, NewParseError(ReasonFence, trimmed, nil)
	}
	if trimmed[0] != '{' {
		return Patch{}, NewParseError(ReasonNotObject, trimmed, nil)
	}

	var decoded any
	if err := sonic.UnmarshalString(trimmed, &decoded); err != nil {
		return Patch{}, NewParseError(ReasonInvalidJSON, trimmed, err)
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		return Patch{}, NewParseError(ReasonNotObject, trimmed, nil)
	}

	rawOp, ok := obj["op"]
	if !ok {
		return Patch{}, NewParseError(ReasonMissingOp, trimmed, nil)
	}
	opStr, ok := rawOp.(string)
	if !ok || !Op(opStr).Valid() {
		return Patch{}, NewParseError(ReasonUnknownOp, trimmed, fmt.Errorf("op %v", rawOp))
	}
	op := Op(opStr)

	path, ok := obj["path"].(string)
	if !ok || path == "" {
		return Patch{}, NewParseError(ReasonMissingPath, trimmed, nil)
	}
	if _, err := SplitPath(path); err != nil {
		return Patch{}, NewParseError(ReasonInvalidPath, trimmed, err)
	}

	p := Patch{Op: op, Path: path}
	if op == OpSet {
		value, present := obj["value"]
		if !present {
			return Patch{}, NewParseError(ReasonMissingValue, trimmed, nil)
		}
		p.Value = value
	}
	return p, nil
}

// Parse is ParseLine for callers that only need accept/reject
func Parse(line string) (Patch, bool) {
	p, err := ParseLine(line)
	return p, err == nil
}
