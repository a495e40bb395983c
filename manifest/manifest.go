package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/collection"
	"github.com/xy-planning-network/switchback/pipeline"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

// A Format is the syntax a manifest is written in.
type Format string

const (
	FormatUnknown Format = ""
	YAML          Format = "yaml"
	TOML          Format = "toml"
)

func (f Format) String() string { return string(f) }

func (f Format) Valid() error {
	switch f {
	case YAML, TOML:
		return nil
	default:
		return fmt.Errorf("%w: manifest format %q", switchback.ErrNotValid, string(f))
	}
}

// FormatOf infers the Format of the file at path from its extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: cannot infer manifest format of %s", switchback.ErrNotValid, path)
	}
}

// A File is a decoded manifest.
type File struct {
	Deferred  []string   `mapstructure:"deferred" validate:"dive,required"`
	Redirects []Redirect `mapstructure:"redirects" validate:"dive"`
	Routes    []Route    `mapstructure:"routes" validate:"dive"`
}

// A Redirect declares a route.Redirect.
type Redirect struct {
	Name      string `mapstructure:"name"`
	Path      string `mapstructure:"path" validate:"required,startswith=/"`
	Permanent bool   `mapstructure:"permanent"`
	To        string `mapstructure:"to" validate:"required"`
}

// A Route declares a route.Definition.
type Route struct {
	Methods    []string            `mapstructure:"methods" validate:"required,dive,required,alpha"`
	Middleware map[string][]string `mapstructure:"middleware" validate:"dive,dive,required"`
	Name       string              `mapstructure:"name"`
	Params     []Param             `mapstructure:"params" validate:"dive"`
	Path       string              `mapstructure:"path" validate:"required,startswith=/"`
	Secure     bool                `mapstructure:"secure"`
	Target     Target              `mapstructure:"target"`
}

// A Param declares what a placeholder cannot express inline.
type Param struct {
	Captured   *bool          `mapstructure:"captured"`
	Cast       route.CastKind `mapstructure:"cast" validate:"enum"`
	Column     string         `mapstructure:"column"`
	Constraint string         `mapstructure:"constraint"`
	Entity     string         `mapstructure:"entity"`
	Name       string         `mapstructure:"name" validate:"required"`
	Optional   bool           `mapstructure:"optional"`
}

// A Target declares a target.Target.
type Target struct {
	Args   map[string]any `mapstructure:"args"`
	Func   string         `mapstructure:"func"`
	Kind   target.Kind    `mapstructure:"kind" validate:"enum"`
	Member string         `mapstructure:"member"`
	Ref    string         `mapstructure:"ref"`
	Type   string         `mapstructure:"type"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*File, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest: %s", switchback.ErrBadConfig, err)
	}

	f, err := Parse(b, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return f, nil
}

// Parse decodes and validates the manifest b written in format.
func Parse(b []byte, format Format) (*File, error) {
	raw, err := unmarshal(b, format)
	if err != nil {
		return nil, err
	}

	f := new(File)
	if err := decode(raw, f); err != nil {
		return nil, err
	}

	if err := newValidator().validate(f); err != nil {
		return nil, err
	}

	return f, nil
}

// Definitions converts the routes in f into uncompiled route.Definitions,
// redirects first, then routes, each in the order declared.
func (f *File) Definitions() ([]route.Definition, error) {
	defs := make([]route.Definition, 0, len(f.Redirects)+len(f.Routes))
	for _, r := range f.Redirects {
		var opts []route.Option
		if r.Name != "" {
			opts = append(opts, route.Name(r.Name))
		}

		defs = append(defs, route.Redirect(r.Path, r.To, r.Permanent, opts...))
	}

	for i, r := range f.Routes {
		def, err := r.definition()
		if err != nil {
			return nil, fmt.Errorf("routes[%d] %s: %w", i, r.Path, err)
		}

		defs = append(defs, def)
	}

	return defs, nil
}

// DeferredTypes lists the deferred markers declared in f.
func (f *File) DeferredTypes() []target.TypeID {
	ids := make([]target.TypeID, 0, len(f.Deferred))
	for _, d := range f.Deferred {
		ids = append(ids, target.TypeID(d))
	}

	return ids
}

// Apply adds every route and deferred marker in f to b.
func (f *File) Apply(b *collection.Builder) error {
	defs, err := f.Definitions()
	if err != nil {
		return err
	}

	for _, def := range defs {
		if _, err := b.AddRoute(def); err != nil {
			return err
		}
	}

	return b.Defer(f.DeferredTypes()...)
}

func (r Route) definition() (route.Definition, error) {
	t := target.Target{
		Kind:   r.Target.Kind,
		Func:   r.Target.Func,
		Type:   r.Target.Type,
		Member: r.Target.Member,
		Ref:    r.Target.Ref,
	}

	for name, v := range r.Target.Args {
		t = t.With(name, v)
	}

	opts := []route.Option{route.Methods(r.Methods...)}
	if r.Name != "" {
		opts = append(opts, route.Name(r.Name))
	}

	if r.Secure {
		opts = append(opts, route.Secure())
	}

	for _, p := range r.Params {
		param, err := p.parameter()
		if err != nil {
			return route.Definition{}, err
		}

		opts = append(opts, route.Params(param))
	}

	for name, mws := range r.Middleware {
		stage, err := pipeline.ParseStage(name)
		if err != nil {
			return route.Definition{}, err
		}

		opts = append(opts, route.Use(stage, mws...))
	}

	return route.New(r.Path, t, opts...), nil
}

func (p Param) parameter() (route.Parameter, error) {
	var opts []route.ParamOption
	if p.Constraint != "" {
		opts = append(opts, route.Constraint(p.Constraint))
	}

	if p.Optional {
		opts = append(opts, route.Optional())
	}

	if p.Captured != nil && !*p.Captured {
		opts = append(opts, route.Uncaptured())
	}

	switch p.Cast {
	case route.CastInt:
		opts = append(opts, route.AsInt())
	case route.CastFloat:
		opts = append(opts, route.AsFloat())
	case route.CastBool:
		opts = append(opts, route.AsBool())
	case route.CastEntity:
		if p.Entity == "" {
			return route.Parameter{}, fmt.Errorf("%w: param %q casts to an entity but names none", switchback.ErrMissingData, p.Name)
		}

		opts = append(opts, route.AsEntity(target.TypeID(p.Entity), p.Column))
	}

	return route.Param(p.Name, opts...), nil
}
