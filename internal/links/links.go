// Package links builds public and API URLs for entities from named routes.
package links

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/conduit-lang/projector/internal/entity"
)

// Link types
const (
	TypePublic = "public"
	TypeAPI    = "api"
)

// fullPrefix marks a route that must be rendered as an absolute URL
const fullPrefix = "full:"

var placeholderPattern = regexp.MustCompile(`\{([a-z0-9_]+)\}`)

// Builder renders a link for a link type, route name, optional entity and extra arguments
type Builder interface {
	BuildLink(linkType, route string, e *entity.Entity, args map[string]interface{}) string
}

// Router is a route table based Builder.
//
// Patterns may reference entity fields with placeholders, e.g. "conversations/{conversation_id}/".
// Routes without a registered pattern render as "route/" or, given an entity, "route/{id}/".
// Public links are relative to the public base URL unless the route carries the "full:"
// prefix; API links are always absolute.
type Router struct {
	bases  map[string]string
	routes map[string]string
}

// NewRouter creates a router for the given base URLs
func NewRouter(publicBaseURL, apiBaseURL string) *Router {
	return &Router{
		bases: map[string]string{
			TypePublic: strings.TrimRight(publicBaseURL, "/"),
			TypeAPI:    strings.TrimRight(apiBaseURL, "/"),
		},
		routes: make(map[string]string),
	}
}

// Handle registers a pattern for a route name
func (r *Router) Handle(route, pattern string) *Router {
	r.routes[route] = strings.TrimLeft(pattern, "/")
	return r
}

// BuildLink implements Builder
func (r *Router) BuildLink(linkType, route string, e *entity.Entity, args map[string]interface{}) string {
	absolute := linkType == TypeAPI
	if strings.HasPrefix(route, fullPrefix) {
		route = strings.TrimPrefix(route, fullPrefix)
		absolute = true
	}

	path := r.path(route, e)
	if query := encodeArgs(args); query != "" {
		path += "?" + query
	}

	if !absolute {
		return "/" + path
	}
	return r.bases[linkType] + "/" + path
}

func (r *Router) path(route string, e *entity.Entity) string {
	pattern, ok := r.routes[route]
	if !ok {
		if e == nil {
			return route + "/"
		}
		return fmt.Sprintf("%s/%s/", route, url.PathEscape(e.Identity()))
	}

	return placeholderPattern.ReplaceAllStringFunc(pattern, func(m string) string {
		if e == nil {
			return ""
		}
		field := m[1 : len(m)-1]
		if field == "id" {
			return url.PathEscape(e.Identity())
		}
		return url.PathEscape(e.String(field))
	})
}

// encodeArgs renders extra arguments as a query string with sorted keys
func encodeArgs(args map[string]interface{}) string {
	if len(args) == 0 {
		return ""
	}
	values := url.Values{}
	for k, v := range args {
		values.Set(k, entity.KeyOf(v))
	}
	return values.Encode()
}
