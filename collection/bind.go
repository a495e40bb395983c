package collection

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/route"
	"github.com/xy-planning-network/switchback/target"
)

//go:generate mockgen -destination=../internal/mocks/hydrator.go -package=mocks . Hydrator

// A Hydrator loads the entity of type entity whose column equals value.
//
// Hydrate returns an error wrapping switchback.ErrNotExist when no such entity exists.
type Hydrator interface {
	Hydrate(ctx context.Context, entity target.TypeID, column, value string) (any, error)
}

// Bind casts, or hydrates, each value captured in o.
// Absent optional values are bound as not present.
func Bind(ctx context.Context, o Outcome, h Hydrator) ([]route.Value, error) {
	values := make([]route.Value, 0, len(o.Captures))
	for _, c := range o.Captures {
		v := route.Value{Name: c.Param.Name}
		if !c.Present {
			values = append(values, v)
			continue
		}

		x, err := castValue(ctx, c, h)
		if err != nil {
			return nil, err
		}

		v.Value, v.Present = x, true
		values = append(values, v)
	}

	return values, nil
}

func castValue(ctx context.Context, c route.Capture, h Hydrator) (any, error) {
	var (
		x   any
		err error
	)

	switch c.Param.Cast.Kind {
	case route.CastInt:
		x, err = cast.ToIntE(decimal(c.Raw))
	case route.CastFloat:
		x, err = cast.ToFloat64E(c.Raw)
	case route.CastBool:
		x, err = cast.ToBoolE(c.Raw)
	case route.CastEntity:
		if h == nil {
			return nil, fmt.Errorf("%w: no hydrator for %s", switchback.ErrBadConfig, c.Param.Cast.Entity)
		}

		x, err = h.Hydrate(ctx, c.Param.Cast.Entity, c.Param.Cast.Column, c.Raw)
		if err != nil {
			return nil, fmt.Errorf("hydrating %q: %w", c.Param.Name, err)
		}

		return x, nil
	default:
		return c.Raw, nil
	}

	if err != nil {
		return nil, fmt.Errorf("%w: casting %q to %s: %s", switchback.ErrNotValid, c.Param.Name, c.Param.Cast.Kind, err)
	}

	return x, nil
}

// decimal trims leading zeros from the digits of s,
// which cast would otherwise read as an octal literal.
func decimal(s string) string {
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
