package collection

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

type tables struct {
	all      []*route.Definition
	deferred []target.TypeID
	dynamic  []*route.Definition
	ids      map[string]*route.Definition
	named    map[string]*route.Definition
	static   map[string]*route.Definition
}

func newTables() tables {
	return tables{
		ids:    make(map[string]*route.Definition),
		named:  make(map[string]*route.Definition),
		static: make(map[string]*route.Definition),
	}
}

func (t *tables) insert(d *route.Definition) {
	t.all = append(t.all, d)
	t.ids[d.ID] = d

	if d.Name != "" {
		t.named[d.Name] = d
	}

	if d.Dynamic {
		t.dynamic = append(t.dynamic, d)
		return
	}

	for _, m := range d.Methods {
		t.static[staticKey(m, d.Literal())] = d
	}
}

func (t tables) clone() tables {
	c := newTables()
	c.all = append(c.all, t.all...)
	c.deferred = append(c.deferred, t.deferred...)
	c.dynamic = append(c.dynamic, t.dynamic...)
	for k, v := range t.ids {
		c.ids[k] = v
	}

	for k, v := range t.named {
		c.named[k] = v
	}

	for k, v := range t.static {
		c.static[k] = v
	}

	return c
}

func staticKey(method, path string) string { return method + " " + path }

// A Collection is a frozen set of routes ready for matching.
//
// A Collection is safe for concurrent use.
type Collection struct {
	tables
	byMethod map[string][]*route.Definition
}

func newCollection(t tables) *Collection {
	c := &Collection{tables: t, byMethod: make(map[string][]*route.Definition)}
	for _, d := range t.dynamic {
		for _, m := range d.Methods {
			c.byMethod[m] = append(c.byMethod[m], d)
		}
	}

	return c
}

// An OutcomeKind classifies the result of matching a request.
type OutcomeKind uint8

const (
	Matched OutcomeKind = iota
	NotFound
	MethodNotAllowed
)

func (k OutcomeKind) String() string {
	switch k {
	case Matched:
		return "matched"
	case NotFound:
		return "not found"
	case MethodNotAllowed:
		return "method not allowed"
	default:
		return "unknown"
	}
}

// An Outcome is the result of matching a request against a Collection.
type Outcome struct {
	// Allowed lists the methods accepted at the path when Kind is MethodNotAllowed.
	Allowed []string

	// Captures holds the raw values of the matched Route's captured parameters, in parameter order.
	Captures []route.Capture

	Kind OutcomeKind

	// Route is the matched route when Kind is Matched.
	Route *route.Definition
}

// Match finds the route accepting method at path.
//
// Static routes are consulted first, then dynamic routes in the order they were added.
func (c *Collection) Match(method, path string) Outcome {
	method = strings.ToUpper(method)
	path = route.NormalizePath(path)

	if d, ok := c.static[staticKey(method, path)]; ok {
		return Outcome{Kind: Matched, Route: d}
	}

	for _, d := range c.byMethod[method] {
		if captures, ok := d.Match(path); ok {
			return Outcome{Kind: Matched, Route: d, Captures: captures}
		}
	}

	if allowed := c.allowed(path); len(allowed) > 0 {
		return Outcome{Kind: MethodNotAllowed, Allowed: allowed}
	}

	return Outcome{Kind: NotFound}
}

func (c *Collection) allowed(path string) []string {
	seen := make(map[string]bool)
	for _, d := range c.all {
		if _, ok := d.Match(path); !ok {
			continue
		}

		for _, m := range d.Methods {
			seen[m] = true
		}
	}

	allowed := make([]string, 0, len(seen))
	for m := range seen {
		allowed = append(allowed, m)
	}

	sort.Strings(allowed)
	return allowed
}

// Route retrieves the route named name.
func (c *Collection) Route(name string) (*route.Definition, bool) {
	d, ok := c.named[name]
	return d, ok
}

// Routes lists every route in the order added.
func (c *Collection) Routes() []*route.Definition {
	return append([]*route.Definition(nil), c.all...)
}

// Deferred lists the services marked for lazy construction.
func (c *Collection) Deferred() []target.TypeID {
	return append([]target.TypeID(nil), c.deferred...)
}

// IsDeferred asserts whether id is marked for lazy construction.
func (c *Collection) IsDeferred(id target.TypeID) bool { return containsType(c.deferred, id) }

// URL generates the path of the route named name, filled with values.
func (c *Collection) URL(name string, values map[string]any) (string, error) {
	d, ok := c.named[name]
	if !ok {
		return "", fmt.Errorf("%w: route %q", switchback.ErrNotExist, name)
	}

	return d.URL(values)
}
