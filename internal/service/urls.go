package service

import (
	"net/url"
	"sort"
	"strings"
)

// RoutePermalink is the route name the permalink property builds against.
const RoutePermalink = "display_posts_by_slug"

// URLBuilder renders named routes into absolute URLs. Patterns use {name}
// placeholders; params without a placeholder become query parameters.
type URLBuilder struct {
	base   string
	routes map[string]string
}

// NewURLBuilder creates a builder rooted at base with the default post
// routes registered.
func NewURLBuilder(base string) *URLBuilder {
	b := &URLBuilder{
		base:   strings.TrimRight(strings.TrimSpace(base), "/"),
		routes: make(map[string]string),
	}
	b.Register(RoutePermalink, "/posts/{slug}")
	return b
}

// Register adds or replaces a route pattern.
func (b *URLBuilder) Register(route, pattern string) {
	b.routes[route] = pattern
}

// Build renders the named route. An unknown route yields the base URL.
func (b *URLBuilder) Build(route string, params map[string]string) string {
	pattern, ok := b.routes[route]
	if !ok {
		return b.base + "/"
	}

	leftover := make([]string, 0, len(params))
	path := pattern
	for name, value := range params {
		placeholder := "{" + name + "}"
		if strings.Contains(path, placeholder) {
			path = strings.ReplaceAll(path, placeholder, url.PathEscape(value))
			continue
		}
		leftover = append(leftover, name)
	}

	built := b.base + path
	if len(leftover) == 0 {
		return built
	}

	sort.Strings(leftover)
	query := url.Values{}
	for _, name := range leftover {
		query.Set(name, params[name])
	}
	return built + "?" + query.Encode()
}
