package transform

import (
	"bytes"
	"encoding/json"
)

// Reserved output keys
const (
	KeyLinks       = "links"
	KeyPermissions = "permissions"
)

// Conventional link names
const (
	LinkPermalink = "permalink"
	LinkDetail    = "detail"
)

// Output is an ordered map of output keys to values. Values are scalars, nil, nested
// *Output values or slices of *Output. JSON encoding preserves insertion order.
type Output struct {
	keys   []string
	values map[string]interface{}
}

// NewOutput creates an empty output map
func NewOutput() *Output {
	return &Output{values: make(map[string]interface{})}
}

// Set stores a value. Setting an existing key keeps its original position.
func (o *Output) Set(key string, value interface{}) *Output {
	if _, exists := o.values[key]; !exists {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
	return o
}

// Get returns the value stored under key
func (o *Output) Get(key string) (interface{}, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[key]
	return v, ok
}

// Has reports whether key is present
func (o *Output) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Keys returns the keys in insertion order
func (o *Output) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Len returns the number of keys
func (o *Output) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Map converts the output into plain maps and slices, recursively
func (o *Output) Map() map[string]interface{} {
	if o == nil {
		return nil
	}
	m := make(map[string]interface{}, len(o.keys))
	for _, k := range o.keys {
		m[k] = plain(o.values[k])
	}
	return m
}

func plain(v interface{}) interface{} {
	switch t := v.(type) {
	case *Output:
		if t == nil {
			return nil
		}
		return t.Map()
	case []*Output:
		if t == nil {
			return nil
		}
		out := make([]interface{}, len(t))
		for i, o := range t {
			out[i] = plain(o)
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes the output as a JSON object in key order
func (o *Output) MarshalJSON() ([]byte, error) {
	if o == nil {
		return []byte("null"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		value, err := json.Marshal(o.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Permissions builds a permission map from name/value pairs in order
func Permissions(pairs ...Permission) *Output {
	out := NewOutput()
	for _, p := range pairs {
		out.Set(p.Name, p.Allowed)
	}
	return out
}

// Permission is one named capability
type Permission struct {
	Name    string
	Allowed bool
}

// Allow pairs a permission name with its value
func Allow(name string, allowed bool) Permission {
	return Permission{Name: name, Allowed: allowed}
}
