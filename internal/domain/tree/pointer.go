package tree

import (
	"fmt"
	"strconv"
)

// setPointer sets value at segs inside doc and returns the updated document.
// Maps and slices are modified in place; callers pass a private copy.
// The final segment may name a new map key, an existing array index, or
// "-" to append to an array. Intermediate containers must already exist.
func setPointer(doc any, segs []string, value any) (any, error) {
	if len(segs) == 0 {
		return value, nil
	}
	head, rest := segs[0], segs[1:]

	switch node := doc.(type) {
	case map[string]any:
		if len(rest) == 0 {
			node[head] = value
			return node, nil
		}
		child, ok := node[head]
		if !ok || child == nil {
			return nil, fmt.Errorf("%q not found", head)
		}
		updated, err := setPointer(child, rest, value)
		if err != nil {
			return nil, err
		}
		node[head] = updated
		return node, nil

	case []any:
		if head == "-" {
			if len(rest) != 0 {
				return nil, fmt.Errorf("'-' must be the last segment")
			}
			return append(node, value), nil
		}
		idx, err := arrayIndex(head, len(node))
		if err != nil {
			return nil, err
		}
		updated, err := setPointer(node[idx], rest, value)
		if err != nil {
			return nil, err
		}
		node[idx] = updated
		return node, nil

	default:
		return nil, fmt.Errorf("cannot descend into %s at %q", jsonKind(doc), head)
	}
}

// removePointer deletes the value at segs inside doc
func removePointer(doc any, segs []string) (any, error) {
	if len(segs) == 0 {
		return nil, fmt.Errorf("empty pointer")
	}
	head, rest := segs[0], segs[1:]

	switch node := doc.(type) {
	case map[string]any:
		child, ok := node[head]
		if !ok {
			return nil, fmt.Errorf("%q not found", head)
		}
		if len(rest) == 0 {
			delete(node, head)
			return node, nil
		}
		updated, err := removePointer(child, rest)
		if err != nil {
			return nil, err
		}
		node[head] = updated
		return node, nil

	case []any:
		idx, err := arrayIndex(head, len(node))
		if err != nil {
			return nil, err
		}
		if len(rest) == 0 {
			return append(node[:idx:idx], node[idx+1:]...), nil
		}
		updated, err := removePointer(node[idx], rest)
		if err != nil {
			return nil, err
		}
		node[idx] = updated
		return node, nil

	default:
		return nil, fmt.Errorf("cannot descend into %s at %q", jsonKind(doc), head)
	}
}

func arrayIndex(seg string, length int) (int, error) {
	idx, err := strconv.Atoi(seg)
	if err != nil || idx < 0 || (len(seg) > 1 && seg[0] == '0') {
		return 0, fmt.Errorf("invalid array index %q", seg)
	}
	if idx >= length {
		return 0, fmt.Errorf("index %d out of range (length %d)", idx, length)
	}
	return idx, nil
}

func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
