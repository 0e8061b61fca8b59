package router

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/okian/capio/pkg/logger"
	"github.com/okian/capio/pkg/metrics"
)

// Hook runs after a navigation resolves. Hooks observe; they cannot cancel.
type Hook func(ctx context.Context, nav *Navigation)

// Option applies a configuration option to the Table.
type Option func(*Table)

// WithLogger sets a custom logger for the table.
func WithLogger(l logger.Logger) Option {
	return func(t *Table) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithHook appends a navigation hook. Hooks run in registration order after
// the built-in title hook.
func WithHook(h Hook) Option {
	return func(t *Table) {
		if h != nil {
			t.hooks = append(t.hooks, h)
		}
	}
}

// entry pairs a route with its compiled pattern and lazily loaded view.
type entry struct {
	route   Route
	pattern pattern

	mu   sync.Mutex
	view View
}

// Table is an ordered, immutable route table.
type Table struct {
	appName string
	entries []*entry
	byPath  map[string]*entry
	hooks   []Hook
	title   atomic.Pointer[string]
	logger  logger.Logger
}

// New validates routes and builds a Table. The last route must be the
// catch-all; paths and names must be unique; every route needs a loader.
func New(appName string, routes []Route, opts ...Option) (*Table, error) {
	if len(routes) == 0 {
		return nil, fmt.Errorf("%w: no routes", ErrInvalidTable)
	}

	t := &Table{
		appName: appName,
		entries: make([]*entry, 0, len(routes)),
		byPath:  make(map[string]*entry, len(routes)),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = logger.Get().Named("router")
	}

	names := make(map[string]struct{}, len(routes))
	for i, r := range routes {
		switch {
		case r.Path == "":
			return nil, fmt.Errorf("%w: route %d has no path", ErrInvalidTable, i)
		case r.Name == "":
			return nil, fmt.Errorf("%w: route %q has no name", ErrInvalidTable, r.Path)
		case r.Load == nil:
			return nil, fmt.Errorf("%w: route %q has no loader", ErrInvalidTable, r.Path)
		case r.Path == CatchAll && i != len(routes)-1:
			return nil, fmt.Errorf("%w: catch-all route %q must be last", ErrInvalidTable, r.Name)
		}
		if _, dup := t.byPath[r.Path]; dup {
			return nil, fmt.Errorf("%w: duplicate path %q", ErrInvalidTable, r.Path)
		}
		if _, dup := names[r.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate name %q", ErrInvalidTable, r.Name)
		}
		names[r.Name] = struct{}{}

		e := &entry{route: r, pattern: compile(r.Path)}
		t.entries = append(t.entries, e)
		t.byPath[r.Path] = e
	}
	if routes[len(routes)-1].Path != CatchAll {
		return nil, fmt.Errorf("%w: missing catch-all route", ErrInvalidTable)
	}

	initial := appName
	t.title.Store(&initial)
	return t, nil
}

// AppName returns the name appended to page titles.
func (t *Table) AppName() string {
	return t.appName
}

// Routes returns a copy of the ordered route entries.
func (t *Table) Routes() []Route {
	out := make([]Route, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.route
	}
	return out
}

// Resolve returns the navigation for the first route matching path.
// It never returns nil: the catch-all matches anything left over.
func (t *Table) Resolve(path string) *Navigation {
	path = normalize(path)
	for _, e := range t.entries {
		params, ok := e.pattern.match(path)
		if !ok {
			continue
		}
		r := e.route
		return &Navigation{
			Route:  &r,
			Path:   path,
			Params: params,
			Title:  FormatTitle(e.route.Title, t.appName),
		}
	}
	// Unreachable with a validated table.
	last := t.entries[len(t.entries)-1].route
	return &Navigation{Route: &last, Path: path, Title: FormatTitle(last.Title, t.appName)}
}

// Navigate resolves path, sets the page title and runs the registered hooks.
func (t *Table) Navigate(ctx context.Context, path string) *Navigation {
	nav := t.Resolve(path)

	title := nav.Title
	t.title.Store(&title)
	metrics.RecordNavigation(nav.Route.Name)
	t.logger.Debug(ctx, "navigation resolved",
		logger.String("path", nav.Path),
		logger.String("route", nav.Route.Name),
		logger.String("title", title),
	)

	for _, h := range t.hooks {
		h(ctx, nav)
	}
	return nav
}

// Title returns the title set by the most recent navigation, or the app
// name before any navigation.
func (t *Table) Title() string {
	return *t.title.Load()
}

// View returns the view registered for the navigation's route, constructing
// it on first use. A failed load is not cached, so the next call retries.
func (t *Table) View(ctx context.Context, nav *Navigation) (View, error) {
	if nav == nil || nav.Route == nil {
		return nil, fmt.Errorf("%w: nil navigation", ErrViewLoad)
	}
	e, ok := t.byPath[nav.Route.Path]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrViewLoad, ErrUnknownRoute, nav.Route.Path)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view != nil {
		return e.view, nil
	}

	v, err := e.route.Load(ctx)
	if err == nil && v == nil {
		err = fmt.Errorf("loader returned no view")
	}
	if err != nil {
		metrics.RecordViewLoad(e.route.Name, false)
		t.logger.Error(ctx, "view load failed",
			logger.String("route", e.route.Name),
			logger.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %w", ErrViewLoad, e.route.Name, err)
	}

	metrics.RecordViewLoad(e.route.Name, true)
	t.logger.Debug(ctx, "view loaded",
		logger.String("route", e.route.Name),
		logger.String("view", v.Name()),
	)
	e.view = v
	return v, nil
}
