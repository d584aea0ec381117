package lex

import (
	"fmt"
	"sort"
	"strconv"
)

// ChildrenKey is the property under which a component receives its children.
const ChildrenKey = "children"

// Props maps property names to literals, handlers, cells, refs or nodes.
type Props map[string]any

// Children returns the children passed to a component, or nil.
func (p Props) Children() []any {
	ch, _ := p[ChildrenKey].([]any)
	return ch
}

// String returns the property formatted as text, or "" when absent.
func (p Props) String(key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Int returns an integer property, accepting every integer and float kind
// as well as decimal strings. Page inputs decoded on the client come back as
// int64/uint64/float64, so components read them through Int rather than a
// type assertion.
func (p Props) Int(key string) (int, bool) {
	switch v := p[key].(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	case float32:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	default:
		return 0, false
	}
}

// Bool returns a boolean property.
func (p Props) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// keys returns the property names in sorted order so that attribute order
// in the produced markup does not depend on map iteration.
func (p Props) keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// with returns a shallow copy of p with key set to v.
func (p Props) with(key string, v any) Props {
	out := make(Props, len(p)+1)
	for k, val := range p {
		out[k] = val
	}
	out[key] = v
	return out
}
