package route

import (
	"fmt"

	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/target"
)

// A CastKind is the type a captured value is converted to before dispatch.
type CastKind uint8

const (
	CastString CastKind = iota
	CastInt
	CastFloat
	CastBool
	CastEntity
)

var castNames = [...]string{
	CastString: "string",
	CastInt:    "int",
	CastFloat:  "float",
	CastBool:   "bool",
	CastEntity: "entity",
}

func (k CastKind) String() string {
	if int(k) < len(castNames) {
		return castNames[k]
	}

	return "unknown"
}

func (k CastKind) Valid() error {
	if int(k) >= len(castNames) {
		return fmt.Errorf("%w: cast kind %d", switchback.ErrNotValid, k)
	}

	return nil
}

// ParseCastKind converts the name of a CastKind, as returned by [CastKind.String], into a CastKind.
func ParseCastKind(name string) (CastKind, error) {
	for k, n := range castNames {
		if n == name {
			return CastKind(k), nil
		}
	}

	return CastString, fmt.Errorf("%w: cast kind %q", switchback.ErrNotValid, name)
}

func (k CastKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *CastKind) UnmarshalText(b []byte) error {
	kind, err := ParseCastKind(string(b))
	if err != nil {
		return err
	}

	*k = kind
	return nil
}

// defaultConstraint is the pattern a value of k must match absent an explicit constraint.
func (k CastKind) defaultConstraint() string {
	switch k {
	case CastInt:
		return `-?\d+`
	case CastFloat:
		return `-?\d+(?:\.\d+)?`
	case CastBool:
		return `true|false|1|0`
	default:
		return `[^/]+`
	}
}

// A Cast describes converting a captured string.
// An entity Cast looks up a record of type Entity whose Column equals the captured value.
type Cast struct {
	Column string        `json:"column,omitempty" msgpack:"column,omitempty"`
	Entity target.TypeID `json:"entity,omitempty" msgpack:"entity,omitempty"`
	Kind   CastKind      `json:"kind" msgpack:"kind"`
}

// A Parameter describes one placeholder in a route path.
type Parameter struct {
	Cast       Cast   `json:"cast" msgpack:"cast"`
	Captured   bool   `json:"captured" msgpack:"captured"`
	Constraint string `json:"constraint,omitempty" msgpack:"constraint,omitempty"`
	Name       string `json:"name" msgpack:"name"`
	Optional   bool   `json:"optional" msgpack:"optional"`
}

// A ParamOption configures a Parameter.
type ParamOption func(*Parameter)

// Param describes the placeholder called name.
// By default, a Parameter is required, captured and cast to a string.
func Param(name string, opts ...ParamOption) Parameter {
	p := Parameter{Name: name, Captured: true}
	for _, opt := range opts {
		opt(&p)
	}

	return p
}

// Constraint restricts the values the Parameter matches to those matching the regular expression re.
func Constraint(re string) ParamOption { return func(p *Parameter) { p.Constraint = re } }

// Optional allows the Parameter to be absent.
func Optional() ParamOption { return func(p *Parameter) { p.Optional = true } }

// Uncaptured matches the Parameter without passing its value to the target.
func Uncaptured() ParamOption { return func(p *Parameter) { p.Captured = false } }

func AsInt() ParamOption   { return func(p *Parameter) { p.Cast = Cast{Kind: CastInt} } }
func AsFloat() ParamOption { return func(p *Parameter) { p.Cast = Cast{Kind: CastFloat} } }
func AsBool() ParamOption  { return func(p *Parameter) { p.Cast = Cast{Kind: CastBool} } }

// AsEntity hydrates the value into the record of type entity whose column equals it.
func AsEntity(entity target.TypeID, column string) ParamOption {
	return func(p *Parameter) { p.Cast = Cast{Kind: CastEntity, Entity: entity, Column: column} }
}

// A Capture is the raw value matched for a captured Parameter.
type Capture struct {
	Param   Parameter
	Raw     string
	Present bool
}

// A Value is a Capture after casting or hydration, ready for dispatch.
type Value struct {
	Name    string
	Value   any
	Present bool
}
