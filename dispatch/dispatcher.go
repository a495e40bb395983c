package dispatch

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/cast"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

// A Dispatcher invokes the target of a matched route.
//
// Each parameter of the target is filled from the first of these that applies:
//  1. an argument explicitly bound to the target under the parameter's declared name;
//  2. the route value of the same name;
//  3. a service from the Resolver, if the parameter's type is injectable;
//  4. the next route value not yet used, in parameter order;
//  5. the zero value.
type Dispatcher struct {
	introspector *target.Introspector
	registry     *target.Registry
}

// NewDispatcher constructs a *Dispatcher binding targets through in.
//
// NewDispatcher registers the inline callable redirect routes dispatch to.
func NewDispatcher(in *target.Introspector) (*Dispatcher, error) {
	d := &Dispatcher{introspector: in, registry: in.Registry()}

	if _, err := d.registry.Callable(target.Inline(route.RedirectRef)); err == nil {
		return d, nil
	}

	if err := d.registry.Inline(route.RedirectRef, Redirect, "to", "permanent"); err != nil {
		return nil, err
	}

	return d, nil
}

// Verify asserts def can be dispatched using what c provides.
func (d *Dispatcher) Verify(def *route.Definition, c *Container) error {
	callable, err := d.registry.Callable(def.Target)
	if err != nil {
		return err
	}

	if err := checkReturns(callable.Out()); err != nil {
		return fmt.Errorf("%s: %w", def.Target, err)
	}

	deps, err := d.introspector.DependenciesFor(def.Target)
	if err != nil {
		return err
	}

	if recv := callable.Receiver(); recv != nil {
		deps = append(deps, target.TypeIDOf(recv))
	}

	entities := entityTypes(def)
	for _, dep := range deps {
		if !entities[dep] && !c.Has(dep) {
			return fmt.Errorf("%w: %s needs %s", ErrUnresolvableDependency, def.Target, dep)
		}
	}

	return nil
}

// Dispatch invokes def's target with values, the route values bound from the matched request,
// resolving services from res.
//
// A target returning an error or panicking produces an *InvocationError.
func (d *Dispatcher) Dispatch(ctx context.Context, def *route.Definition, values []route.Value, res Resolver) (*Result, error) {
	callable, err := d.registry.Callable(def.Target)
	if err != nil {
		return nil, err
	}

	if err := checkReturns(callable.Out()); err != nil {
		return nil, fmt.Errorf("%s: %w", def.Target, err)
	}

	var recv reflect.Value
	if typ := callable.Receiver(); typ != nil {
		if recv, err = resolve(ctx, res, typ); err != nil {
			return nil, err
		}
	}

	args, err := d.arguments(ctx, def, callable, values, res)
	if err != nil {
		return nil, err
	}

	out, err := invoke(callable, recv, args)
	if err != nil {
		return nil, &InvocationError{Route: label(def), Cause: err}
	}

	if err := failure(out, callable.Out()); err != nil {
		return nil, &InvocationError{Route: label(def), Cause: err}
	}

	return normalize(out, callable.Out())
}

func (d *Dispatcher) arguments(
	ctx context.Context,
	def *route.Definition,
	c target.Callable,
	values []route.Value,
	res Resolver,
) ([]reflect.Value, error) {
	in := c.In()
	entities := entityTypes(def)

	declared := make(map[string]bool, len(in))
	for i := range in {
		if name := c.Name(i); name != "" {
			declared[name] = true
		}
	}

	named := make(map[string]route.Value, len(values))
	var positional []route.Value
	for _, v := range values {
		if declared[v.Name] {
			named[v.Name] = v
			continue
		}

		positional = append(positional, v)
	}

	args := make([]reflect.Value, len(in))
	for i, slot := range in {
		name := c.Name(i)
		variadic := c.Variadic() && i == len(in)-1

		if explicit, ok := def.Target.Args[name]; ok && name != "" {
			v, err := convert(explicit, slot)
			if err != nil {
				return nil, fmt.Errorf("argument %q: %w", name, err)
			}

			args[i] = v
			continue
		}

		if rv, ok := named[name]; ok {
			v, err := routeValue(rv, slot)
			if err != nil {
				return nil, fmt.Errorf("route value %q: %w", name, err)
			}

			args[i] = v
			continue
		}

		if target.IsInjectable(slot) && !entities[target.TypeIDOf(slot)] {
			v, err := resolve(ctx, res, slot)
			if err != nil {
				return nil, err
			}

			args[i] = v
			continue
		}

		if variadic {
			rest := reflect.MakeSlice(slot, 0, len(positional))
			for _, rv := range positional {
				if !rv.Present {
					continue
				}

				v, err := convert(rv.Value, slot.Elem())
				if err != nil {
					return nil, fmt.Errorf("route value %q: %w", rv.Name, err)
				}

				rest = reflect.Append(rest, v)
			}

			positional = nil
			args[i] = rest
			continue
		}

		if len(positional) > 0 {
			rv := positional[0]
			positional = positional[1:]

			v, err := routeValue(rv, slot)
			if err != nil {
				return nil, fmt.Errorf("route value %q: %w", rv.Name, err)
			}

			args[i] = v
			continue
		}

		args[i] = reflect.Zero(slot)
	}

	return args, nil
}

func routeValue(rv route.Value, slot reflect.Type) (reflect.Value, error) {
	if !rv.Present {
		return reflect.Zero(slot), nil
	}

	return convert(rv.Value, slot)
}

func resolve(ctx context.Context, res Resolver, slot reflect.Type) (reflect.Value, error) {
	if res == nil {
		return reflect.Value{}, fmt.Errorf("%w: %s: no resolver", ErrUnresolvableDependency, target.TypeIDOf(slot))
	}

	v, err := res.Resolve(ctx, target.TypeIDOf(slot))
	if err != nil {
		return reflect.Value{}, err
	}

	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("%w: %s resolved to nothing", ErrUnresolvableDependency, target.TypeIDOf(slot))
	}

	if !v.Type().AssignableTo(slot) {
		return reflect.Value{}, fmt.Errorf("%w: %s resolved to %s", ErrUnresolvableDependency, target.TypeIDOf(slot), v.Type())
	}

	return v, nil
}

// convert coerces v into a value of type t.
func convert(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		return reflect.Zero(t), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}

	var (
		x   any
		err error
	)

	switch t.Kind() {
	case reflect.String:
		x, err = cast.ToStringE(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		x, err = cast.ToInt64E(decimal(v))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		x, err = cast.ToUint64E(decimal(v))
	case reflect.Float32, reflect.Float64:
		x, err = cast.ToFloat64E(v)
	case reflect.Bool:
		x, err = cast.ToBoolE(v)
	default:
		if rv.Type().ConvertibleTo(t) {
			return rv.Convert(t), nil
		}

		return reflect.Value{}, fmt.Errorf("%w: cannot use %T as %s", switchback.ErrNotValid, v, t)
	}

	if err != nil {
		return reflect.Value{}, fmt.Errorf("%w: %s", switchback.ErrNotValid, err)
	}

	return reflect.ValueOf(x).Convert(t), nil
}

// decimal trims leading zeros from a string v,
// which cast would otherwise read as an octal literal.
// Values of any other type are returned unchanged.
func decimal(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}

	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}

	digits := strings.TrimLeft(s, "0")
	if digits == "" && s != "" {
		digits = "0"
	}

	return sign + digits
}

func invoke(c target.Callable, recv reflect.Value, args []reflect.Value) (out []reflect.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			if rerr, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", rerr)
				return
			}

			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return c.Call(recv, args), nil
}

func entityTypes(def *route.Definition) map[target.TypeID]bool {
	entities := make(map[target.TypeID]bool)
	for _, p := range def.Params {
		if p.Cast.Kind == route.CastEntity {
			entities[p.Cast.Entity] = true
		}
	}

	return entities
}

func label(def *route.Definition) string {
	if def.Name != "" {
		return def.Name
	}

	return def.Target.String()
}
