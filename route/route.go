package route

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/spf13/cast"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/pipeline"
	"github.com/xy-planning-network/switchback/target"
)

// RedirectRef references the inline callable every redirect route dispatches to.
const RedirectRef = "redirect"

// A Definition describes an endpoint: where it is, what it accepts and what it invokes.
//
// Definitions returned by [Build] are compiled and must not be mutated.
type Definition struct {
	ID           string                      `msgpack:"id"`
	Path         string                      `msgpack:"path"`
	Methods      []string                    `msgpack:"methods"`
	Name         string                      `msgpack:"name,omitempty"`
	Params       []Parameter                 `msgpack:"params,omitempty"`
	Target       target.Target               `msgpack:"target"`
	Middleware   map[pipeline.Stage][]string `msgpack:"middleware,omitempty"`
	Pattern      string                      `msgpack:"pattern,omitempty"`
	Dynamic      bool                        `msgpack:"dynamic"`
	Secure       bool                        `msgpack:"secure"`
	Dependencies []target.TypeID             `msgpack:"dependencies,omitempty"`

	re *regexp.Regexp
}

// An Option configures a Definition.
type Option func(*Definition)

// Methods sets the methods a Definition accepts.
func Methods(methods ...string) Option {
	return func(d *Definition) { d.Methods = append(d.Methods, methods...) }
}

// Name names a Definition so it can be looked up and have URLs generated for it.
func Name(name string) Option { return func(d *Definition) { d.Name = name } }

// Params declares what a placeholder in the path cannot express inline.
func Params(params ...Parameter) Option {
	return func(d *Definition) { d.Params = append(d.Params, params...) }
}

// Secure requires requests matching a Definition to arrive over a secure transport.
func Secure() Option { return func(d *Definition) { d.Secure = true } }

// Use runs the middleware registered under names at stage for this Definition only,
// after any middleware run at that stage for every request.
func Use(stage pipeline.Stage, names ...string) Option {
	return func(d *Definition) {
		if d.Middleware == nil {
			d.Middleware = make(map[pipeline.Stage][]string)
		}

		d.Middleware[stage] = append(d.Middleware[stage], names...)
	}
}

// New describes the uncompiled endpoint at path dispatching to t.
func New(path string, t target.Target, opts ...Option) Definition {
	d := Definition{Path: path, Target: t}
	for _, opt := range opts {
		opt(&d)
	}

	return d
}

func Get(path string, t target.Target, opts ...Option) Definition {
	return New(path, t, append([]Option{Methods("GET")}, opts...)...)
}

func Post(path string, t target.Target, opts ...Option) Definition {
	return New(path, t, append([]Option{Methods("POST")}, opts...)...)
}

func Put(path string, t target.Target, opts ...Option) Definition {
	return New(path, t, append([]Option{Methods("PUT")}, opts...)...)
}

func Patch(path string, t target.Target, opts ...Option) Definition {
	return New(path, t, append([]Option{Methods("PATCH")}, opts...)...)
}

func Delete(path string, t target.Target, opts ...Option) Definition {
	return New(path, t, append([]Option{Methods("DELETE")}, opts...)...)
}

// Redirect describes a GET endpoint at path that redirects to to.
func Redirect(path, to string, permanent bool, opts ...Option) Definition {
	t := target.Inline(RedirectRef).With("to", to).With("permanent", permanent)
	return Get(path, t, opts...)
}

// An Introspector reports the injectable dependencies of a Target.
type Introspector interface {
	DependenciesFor(t target.Target) ([]target.TypeID, error)
}

// Build compiles def.
//
// in may be nil, in which case Dependencies are left empty and explicit arguments unchecked.
// Building equal Definitions produces equal IDs.
func Build(def Definition, in Introspector) (*Definition, error) {
	d := def
	d.Path = NormalizePath(def.Path)

	methods, err := normalizeMethods(def.Methods)
	if err != nil {
		return nil, &CompileError{Path: d.Path, Err: err}
	}
	d.Methods = methods

	if err := d.Target.Valid(); err != nil {
		return nil, &CompileError{Path: d.Path, Err: err}
	}

	for stage := range d.Middleware {
		if err := stage.Valid(); err != nil {
			return nil, &CompileError{Path: d.Path, Err: err}
		}
	}

	pattern, params, err := Compile(d.Path, def.Params...)
	if err != nil {
		return nil, err
	}
	d.Params = params

	d.Pattern, d.Dynamic, d.re = "", false, nil
	if len(params) > 0 {
		d.Pattern, d.Dynamic = pattern, true
		d.re = regexp.MustCompile(pattern)
	}

	d.Dependencies = nil
	if in != nil {
		deps, err := in.DependenciesFor(d.Target)
		if err != nil {
			return nil, &CompileError{Path: d.Path, Err: err}
		}

		d.Dependencies = withoutEntities(deps, params)
	}

	if d.ID, err = identify(&d); err != nil {
		return nil, &CompileError{Path: d.Path, Err: err}
	}

	return &d, nil
}

// Restore recompiles a Definition previously built and serialized.
func Restore(def Definition) (*Definition, error) {
	d := def
	if !d.Dynamic {
		return &d, nil
	}

	re, err := regexp.Compile(d.Pattern)
	if err != nil {
		return nil, &CompileError{Path: d.Path, Err: fmt.Errorf("%w: %s", ErrInvalidRegex, err)}
	}

	d.re = re
	return &d, nil
}

// Literal is the request path a static Definition matches: its Path with escapes resolved.
// A dynamic Definition's Path is returned unchanged.
func (d *Definition) Literal() string {
	if d.Dynamic {
		return d.Path
	}

	segs, err := scan(d.Path)
	if err != nil {
		return d.Path
	}

	var b strings.Builder
	for _, seg := range segs {
		b.WriteString(seg.literal)
	}

	return b.String()
}

// NormalizePath ensures path begins with a slash and, unless it is the root, does not end with one.
func NormalizePath(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}

	return path
}

func normalizeMethods(methods []string) ([]string, error) {
	seen := make(map[string]bool, len(methods))
	out := make([]string, 0, len(methods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if m == "" || seen[m] {
			continue
		}

		seen[m] = true
		out = append(out, m)
	}

	if len(out) == 0 {
		return nil, ErrNoMethods
	}

	sort.Strings(out)
	return out, nil
}

func withoutEntities(deps []target.TypeID, params []Parameter) []target.TypeID {
	entities := make(map[target.TypeID]bool)
	for _, p := range params {
		if p.Cast.Kind == CastEntity {
			entities[p.Cast.Entity] = true
		}
	}

	var out []target.TypeID
	for _, dep := range deps {
		if !entities[dep] {
			out = append(out, dep)
		}
	}

	return out
}

func identify(d *Definition) (string, error) {
	sig, err := d.Target.Signature()
	if err != nil {
		return "", err
	}

	b, err := json.Marshal(struct {
		Methods []string    `json:"methods"`
		Path    string      `json:"path"`
		Params  []Parameter `json:"params"`
		Target  string      `json:"target"`
	}{d.Methods, d.Path, d.Params, sig})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", xxhash.Sum64(b)), nil
}

// Allows asserts whether d accepts method.
func (d *Definition) Allows(method string) bool {
	for _, m := range d.Methods {
		if m == method {
			return true
		}
	}

	return false
}

// Match reports whether path matches d and, if so, the values captured in parameter order.
func (d *Definition) Match(path string) ([]Capture, bool) {
	if !d.Dynamic {
		return nil, d.Literal() == path
	}

	if d.re == nil {
		return nil, false
	}

	loc := d.re.FindStringSubmatchIndex(path)
	if loc == nil {
		return nil, false
	}

	var captures []Capture
	for _, p := range d.Params {
		if !p.Captured {
			continue
		}

		c := Capture{Param: p}
		if idx := d.re.SubexpIndex(p.Name); idx >= 0 && loc[2*idx] >= 0 {
			c.Raw, c.Present = path[loc[2*idx]:loc[2*idx+1]], true
		}

		captures = append(captures, c)
	}

	return captures, true
}

// URL fills d's placeholders with values, leaving out absent optional ones.
func (d *Definition) URL(values map[string]any) (string, error) {
	segs, err := scan(d.Path)
	if err != nil {
		return "", err
	}

	byName := make(map[string]Parameter, len(d.Params))
	for _, p := range d.Params {
		byName[p.Name] = p
	}

	var b strings.Builder
	for _, seg := range segs {
		if !seg.placeholder {
			b.WriteString(seg.literal)
			continue
		}

		p := byName[seg.param.Name]
		v, ok := values[p.Name]
		if !ok || v == nil {
			if !p.Optional {
				return "", fmt.Errorf("%w: value for %q", switchback.ErrMissingData, p.Name)
			}

			s := strings.TrimSuffix(b.String(), "/")
			b.Reset()
			b.WriteString(s)
			continue
		}

		s, err := cast.ToStringE(v)
		if err != nil {
			return "", fmt.Errorf("%w: value for %q: %s", switchback.ErrNotValid, p.Name, err)
		}

		if !regexp.MustCompile(`^(?:` + p.pattern() + `)$`).MatchString(s) {
			return "", fmt.Errorf("%w: %q does not satisfy %q", switchback.ErrNotValid, s, p.Name)
		}

		b.WriteString(url.PathEscape(s))
	}

	if b.Len() == 0 {
		return "/", nil
	}

	return b.String(), nil
}
