// Package router resolves navigation paths against an ordered route table.
//
// The table is built once at startup and is immutable thereafter. Resolution
// is first-match-wins over the registration order, and a catch-all entry
// ordered last guarantees every path resolves.
package router

import (
	"context"
	"strings"
)

// CatchAll is the pattern that matches any path not matched earlier.
const CatchAll = "/:pathMatch(.*)*"

// catchAllParam names the parameter that receives the unmatched path.
const catchAllParam = "pathMatch"

// View is a page constructed lazily on first navigation to its route.
type View interface {
	// Name identifies the view in logs and metrics.
	Name() string
	// Render produces the view model for a resolved navigation.
	Render(ctx context.Context, nav *Navigation) (any, error)
}

// Loader constructs a route's view. It runs at most once successfully per table.
type Loader func(ctx context.Context) (View, error)

// Route maps a path pattern to a view and its display metadata.
type Route struct {
	Path  string
	Name  string
	Title string
	Load  Loader
}

// Navigation is the outcome of resolving a path.
type Navigation struct {
	Route  *Route
	Path   string
	Params map[string]string
	Title  string
}

// IsCatchAll reports whether the navigation fell through to the catch-all entry.
func (n *Navigation) IsCatchAll() bool {
	return n != nil && n.Route != nil && n.Route.Path == CatchAll
}

// FormatTitle renders a page title as "{title} | {app}", or the app name alone
// when title is empty.
func FormatTitle(title, appName string) string {
	if strings.TrimSpace(title) == "" {
		return appName
	}
	return title + " | " + appName
}

// segment is one compiled element of a route pattern.
type segment struct {
	literal string // lowercased static text
	param   string // name of a :param segment
}

// pattern is a compiled route path.
type pattern struct {
	segments []segment
	catchAll bool
}

func compile(path string) pattern {
	if path == CatchAll {
		return pattern{catchAll: true}
	}
	parts := split(path)
	segs := make([]segment, len(parts))
	for i, p := range parts {
		if strings.HasPrefix(p, ":") && len(p) > 1 {
			segs[i] = segment{param: p[1:]}
			continue
		}
		segs[i] = segment{literal: strings.ToLower(p)}
	}
	return pattern{segments: segs}
}

// match reports whether path matches and returns the captured parameters.
func (p pattern) match(path string) (map[string]string, bool) {
	if p.catchAll {
		return map[string]string{catchAllParam: strings.Trim(path, "/")}, true
	}
	parts := split(path)
	if len(parts) != len(p.segments) {
		return nil, false
	}
	var params map[string]string
	for i, seg := range p.segments {
		if seg.param != "" {
			if params == nil {
				params = make(map[string]string)
			}
			params[seg.param] = parts[i]
			continue
		}
		if strings.ToLower(parts[i]) != seg.literal {
			return nil, false
		}
	}
	return params, true
}

// split breaks a path into its non-empty segments; "/" yields none.
func split(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// normalize strips query string and fragment and guarantees a leading slash.
func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}
