package patch

import (
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Op is a patch operation
type Op string

const (
	OpSet    Op = "set"
	OpRemove Op = "remove"
)

// Valid reports whether op is part of the vocabulary
func (o Op) Valid() bool {
	return o == OpSet || o == OpRemove
}

// Top-level path segments
const (
	SegmentRoot     = "root"
	SegmentElements = "elements"
	SegmentProps    = "props"
	SegmentChildren = "children"
	SegmentType     = "type"
)

// Patch is one immutable instruction against the tree.
// Value is only meaningful for OpSet and holds decoded JSON
// (nil, bool, float64, string, []any, map[string]any).
type Patch struct {
	Op    Op
	Path  string
	Value any
}

// Set builds a set patch
func Set(path string, value any) Patch {
	return Patch{Op: OpSet, Path: path, Value: value}
}

// Remove builds a remove patch
func Remove(path string) Patch {
	return Patch{Op: OpRemove, Path: path}
}

// Segments splits Path into unescaped pointer segments.
// "/elements/a~1b/props" yields ["elements", "a/b", "props"].
func (p Patch) Segments() []string {
	segs, err := SplitPath(p.Path)
	if err != nil {
		return nil
	}
	return segs
}

// Key returns the element key addressed by an /elements/... path
func (p Patch) Key() string {
	segs := p.Segments()
	if len(segs) >= 2 && segs[0] == SegmentElements {
		return segs[1]
	}
	return ""
}

// Line encodes the patch in its wire form
func (p Patch) Line() (string, error) {
	wire := map[string]any{"op": string(p.Op), "path": p.Path}
	if p.Op == OpSet {
		wire["value"] = p.Value
	}
	return sonic.ConfigStd.MarshalToString(wire)
}

func (p Patch) String() string {
	if p.Op == OpSet {
		return fmt.Sprintf("set %s", p.Path)
	}
	return fmt.Sprintf("%s %s", p.Op, p.Path)
}

// SplitPath splits a JSON pointer into unescaped segments
func SplitPath(path string) ([]string, error) {
	if path == "" || path[0] != '/' {
		return nil, fmt.Errorf("path must start with '/': %q", path)
	}
	raw := strings.Split(path[1:], "/")
	segs := make([]string, len(raw))
	for i, seg := range raw {
		unescaped, err := unescape(seg)
		if err != nil {
			return nil, fmt.Errorf("path %q: %w", path, err)
		}
		segs[i] = unescaped
	}
	return segs, nil
}

// JoinPath builds a pointer from raw segments, escaping as needed
func JoinPath(segments ...string) string {
	var sb strings.Builder
	for _, seg := range segments {
		sb.WriteByte('/')
		sb.WriteString(escape(seg))
	}
	return sb.String()
}

// ElementPath returns "/elements/<key>" with extra segments appended
func ElementPath(key string, rest ...string) string {
	return JoinPath(append([]string{SegmentElements, key}, rest...)...)
}

func unescape(seg string) (string, error) {
	if !strings.Contains(seg, "~") {
		return seg, nil
	}
	var sb strings.Builder
	for i := 0; i < len(seg); i++ {
		if seg[i] != '~' {
			sb.WriteByte(seg[i])
			continue
		}
		if i+1 >= len(seg) {
			return "", fmt.Errorf("dangling '~' in segment %q", seg)
		}
		switch seg[i+1] {
		case '0':
			sb.WriteByte('~')
		case '1':
			sb.WriteByte('/')
		default:
			return "", fmt.Errorf("invalid escape '~%c' in segment %q", seg[i+1], seg)
		}
		i++
	}
	return sb.String(), nil
}

func escape(seg string) string {
	seg = strings.ReplaceAll(seg, "~", "~0")
	return strings.ReplaceAll(seg, "/", "~1")
}
