package tree

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// UIElement is one node of the tree. Children are referenced by key only.
type UIElement struct {
	Key      string         `json:"key"`
	Type     string         `json:"type"`
	Props    map[string]any `json:"props"`
	Children []string       `json:"children,omitempty"`
}

// Clone returns a deep copy of the element
func (e UIElement) Clone() UIElement {
	out := UIElement{Key: e.Key, Type: e.Type}
	if e.Props != nil {
		out.Props = cloneMap(e.Props)
	} else {
		out.Props = map[string]any{}
	}
	if e.Children != nil {
		out.Children = make([]string, len(e.Children))
		copy(out.Children, e.Children)
	}
	return out
}

// UITree is the root pointer plus the flat element map.
// An empty Root means no root has been set.
type UITree struct {
	Root     string
	Elements map[string]UIElement
}

// New returns an empty tree
func New() UITree {
	return UITree{Elements: make(map[string]UIElement)}
}

// Clone returns a deep copy of the tree
func (t UITree) Clone() UITree {
	out := UITree{Root: t.Root, Elements: make(map[string]UIElement, len(t.Elements))}
	for k, el := range t.Elements {
		out.Elements[k] = el.Clone()
	}
	return out
}

// RootElement returns the root element when it is set and present
func (t UITree) RootElement() (UIElement, bool) {
	if t.Root == "" {
		return UIElement{}, false
	}
	el, ok := t.Elements[t.Root]
	return el, ok
}

// Len returns the number of elements
func (t UITree) Len() int {
	return len(t.Elements)
}

// Dangling returns child references, in walk order, that point at missing
// elements. Unreachable elements are not inspected.
func (t UITree) Dangling() []string {
	var missing []string
	seen := make(map[string]bool)
	var walk func(key string)
	walk = func(key string) {
		if seen[key] {
			return
		}
		seen[key] = true
		el, ok := t.Elements[key]
		if !ok {
			missing = append(missing, key)
			return
		}
		for _, child := range el.Children {
			walk(child)
		}
	}
	if t.Root != "" {
		walk(t.Root)
	}
	return missing
}

type wireTree struct {
	Root     *string              `json:"root"`
	Elements map[string]UIElement `json:"elements"`
}

// MarshalJSON encodes the tree with a null root when unset
func (t UITree) MarshalJSON() ([]byte, error) {
	w := wireTree{Elements: t.Elements}
	if w.Elements == nil {
		w.Elements = map[string]UIElement{}
	}
	if t.Root != "" {
		root := t.Root
		w.Root = &root
	}
	return sonic.ConfigStd.Marshal(w)
}

// UnmarshalJSON decodes the wire form produced by MarshalJSON
func (t *UITree) UnmarshalJSON(data []byte) error {
	var w wireTree
	if err := sonic.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("failed to decode tree: %w", err)
	}
	t.Root = ""
	if w.Root != nil {
		t.Root = *w.Root
	}
	t.Elements = w.Elements
	if t.Elements == nil {
		t.Elements = make(map[string]UIElement)
	}
	return nil
}

// decodeElement converts a decoded JSON value into a UIElement
func decodeElement(value any) (UIElement, error) {
	obj, ok := value.(map[string]any)
	if !ok {
		return UIElement{}, fmt.Errorf("element must be an object")
	}

	var el UIElement
	if raw, ok := obj["key"]; ok && raw != nil {
		key, ok := raw.(string)
		if !ok {
			return UIElement{}, fmt.Errorf("key must be a string")
		}
		el.Key = key
	}

	typ, ok := obj["type"].(string)
	if !ok || typ == "" {
		return UIElement{}, fmt.Errorf("type must be a non-empty string")
	}
	el.Type = typ

	switch raw := obj["props"].(type) {
	case nil:
		el.Props = map[string]any{}
	case map[string]any:
		el.Props = cloneMap(raw)
	default:
		return UIElement{}, fmt.Errorf("props must be an object")
	}

	if raw, ok := obj["children"]; ok && raw != nil {
		children, err := decodeChildren(raw)
		if err != nil {
			return UIElement{}, err
		}
		el.Children = children
	}
	return el, nil
}

// decodeChildren converts a decoded JSON array into child keys
func decodeChildren(value any) ([]string, error) {
	items, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("children must be an array of keys")
	}
	children := make([]string, 0, len(items))
	for i, item := range items {
		key, ok := item.(string)
		if !ok || key == "" {
			return nil, fmt.Errorf("children[%d] must be a non-empty string key", i)
		}
		children = append(children, key)
	}
	return children, nil
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}
