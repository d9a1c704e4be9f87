package tree

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/catalog"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/domain/patch"
	"github.com/GriffinCanCode/AgentOS/jsonrender/internal/shared/types"
)

// PathError is returned when a patch path does not resolve to a mutable location
type PathError struct {
	Path   string
	Reason string
}

func (e *PathError) Error() string {
	return fmt.Sprintf("path %s: %s", e.Path, e.Reason)
}

// Common path rejection reasons
const (
	ReasonElementNotFound = "element not found"
	ReasonUnknownTarget   = "unknown target"
)

func pathErrorf(path, format string, args ...any) *PathError {
	return &PathError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Rejection records one patch or line the store did not apply
type Rejection struct {
	Kind   types.DiagnosticKind `json:"kind"`
	Op     patch.Op             `json:"op,omitempty"`
	Path   string               `json:"path,omitempty"`
	Key    string               `json:"key,omitempty"`
	Line   string               `json:"line,omitempty"`
	Reason string               `json:"reason"`
	Err    error                `json:"-"`
}

// Diagnostic converts the rejection into the shared diagnostic form
func (r Rejection) Diagnostic() types.Diagnostic {
	return types.Diagnostic{
		Kind:    r.Kind,
		Key:     r.Key,
		Path:    r.Path,
		Line:    r.Line,
		Message: r.Reason,
	}
}

// rejectionFor classifies an apply error
func rejectionFor(p patch.Patch, err error) Rejection {
	r := Rejection{
		Kind:   types.DiagnosticPath,
		Op:     p.Op,
		Path:   p.Path,
		Key:    p.Key(),
		Reason: err.Error(),
		Err:    err,
	}

	var schemaErr *catalog.SchemaError
	var pathErr *PathError
	switch {
	case errors.As(err, &schemaErr):
		r.Kind = types.DiagnosticSchema
	case errors.As(err, &pathErr):
		r.Reason = pathErr.Reason
	}
	return r
}

// parseRejection converts a parser error into a rejection
func parseRejection(err error) Rejection {
	r := Rejection{Kind: types.DiagnosticParse, Reason: err.Error(), Err: err}
	var parseErr *patch.ParseError
	if errors.As(err, &parseErr) {
		r.Reason = string(parseErr.Reason)
		if parseErr.Err != nil {
			r.Reason += ": " + parseErr.Err.Error()
		}
		r.Line = parseErr.Line
	}
	return r
}
