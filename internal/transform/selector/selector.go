// Package selector implements the client field selection used by transforms.
//
// A Selector is built from two lists of dotted keys. Include keys name optional fields
// the caller wants and, once any key is included at a level, restrict that level to the
// listed keys (a "*" entry lifts the restriction). Exclude keys suppress a field and its
// whole subtree. Include and exclude answer different questions and are evaluated
// independently: an unlisted key is neither included nor excluded.
//
//	sel := selector.New([]string{"*", "last_message"}, []string{"recipients"})
//	sel.ShouldInclude("last_message")        // true
//	sel.ShouldExclude("recipients.user_id")  // true
//	sel.ShouldExclude("conversation_title")  // false
package selector

import (
	"sort"
	"strings"
)

// Wildcard lifts the whitelist restriction at its level
const Wildcard = "*"

// Selector is an immutable predicate over dotted field keys. It is safe for concurrent use.
type Selector struct {
	include  map[string]bool
	exclude  map[string]bool
	children map[string]map[string]bool
}

// New creates a selector from include and exclude key lists
func New(include, exclude []string) *Selector {
	s := &Selector{
		include:  make(map[string]bool),
		exclude:  make(map[string]bool),
		children: make(map[string]map[string]bool),
	}

	for _, key := range include {
		key = normalize(key)
		if key == "" {
			continue
		}
		s.include[key] = true

		prefix := ""
		for _, seg := range strings.Split(key, ".") {
			if s.children[prefix] == nil {
				s.children[prefix] = make(map[string]bool)
			}
			s.children[prefix][seg] = true
			prefix = join(prefix, seg)
		}
	}

	for _, key := range exclude {
		if key = normalize(key); key != "" {
			s.exclude[key] = true
		}
	}

	return s
}

// Parse creates a selector from comma-separated include and exclude lists
func Parse(include, exclude string) *Selector {
	return New(split(include), split(exclude))
}

// All returns a selector with no include or exclude entries
func All() *Selector {
	return New(nil, nil)
}

// ShouldInclude reports whether key was explicitly asked for, either directly or through
// one of its descendants.
func (s *Selector) ShouldInclude(key string) bool {
	if s == nil {
		return false
	}
	key = normalize(key)
	if key == "" || key == Wildcard {
		return false
	}
	if s.include[key] {
		return true
	}
	_, hasChildren := s.children[key]
	return hasChildren
}

// ShouldExclude reports whether key is suppressed, either by an exclude entry on the key
// or an ancestor, or by an include whitelist that does not list it.
func (s *Selector) ShouldExclude(key string) bool {
	if s == nil {
		return false
	}
	key = normalize(key)
	if key == "" {
		return false
	}

	prefix := ""
	unrestricted := false
	for _, seg := range strings.Split(key, ".") {
		path := join(prefix, seg)
		if s.exclude[path] {
			return true
		}

		if !unrestricted {
			if kids, ok := s.children[prefix]; ok && !kids[Wildcard] && !kids[seg] {
				return true
			}
			if s.include[path] {
				// a leaf include keeps its whole subtree
				unrestricted = true
			}
		}

		prefix = path
	}

	return false
}

// IsEmpty reports whether the selector has neither include nor exclude entries
func (s *Selector) IsEmpty() bool {
	return s == nil || (len(s.include) == 0 && len(s.exclude) == 0)
}

// String returns a canonical representation, stable across equal selectors
func (s *Selector) String() string {
	if s.IsEmpty() {
		return ""
	}
	return "include=" + strings.Join(sortedKeys(s.include), ",") +
		";exclude=" + strings.Join(sortedKeys(s.exclude), ",")
}

func normalize(key string) string {
	return strings.Trim(strings.TrimSpace(key), ".")
}

func join(prefix, seg string) string {
	if prefix == "" {
		return seg
	}
	return prefix + "." + seg
}

func split(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
