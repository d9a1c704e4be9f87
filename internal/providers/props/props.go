// Package props reads element props leniently for host components. Every
// accessor falls back to a default instead of failing, since hosts render
// trees that may not have been validated against a catalog.
package props

import (
	"encoding/json"
	"fmt"
	"math"
)

// String returns props[key] when it is a string
func String(p map[string]any, key string) string {
	s, _ := p[key].(string)
	return s
}

// StringOr returns props[key] when it is a non-empty string, else def
func StringOr(p map[string]any, key, def string) string {
	if s := String(p, key); s != "" {
		return s
	}
	return def
}

// Int returns props[key] as an int when it is a whole number, else def
func Int(p map[string]any, key string, def int) int {
	switch n := p[key].(type) {
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
	}
	return def
}

// Bool returns props[key] when it is a bool, else false
func Bool(p map[string]any, key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Strings returns the string items of props[key]. Non-string items are
// formatted with fmt.
func Strings(p map[string]any, key string) []string {
	switch items := p[key].(type) {
	case []string:
		return items
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(item))
			}
		}
		return out
	}
	return nil
}

// Clamp bounds n to [lo, hi]
func Clamp(n, lo, hi int) int {
	return max(lo, min(n, hi))
}
