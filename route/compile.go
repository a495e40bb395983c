package route

import (
	"fmt"
	"regexp"
	"strings"
)

var paramName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// A segment is either literal text or a placeholder in a route path.
type segment struct {
	literal     string
	placeholder bool
	param       Parameter
}

// scan splits pattern into literal text and placeholders.
//
// Placeholders take the forms {name}, {name?}, {name:constraint} and {name?:constraint}.
// A constraint may itself contain balanced braces, e.g. {year:\d{4}}.
// A backslash escapes the next character outside of a placeholder.
func scan(pattern string) ([]segment, error) {
	var (
		segs []segment
		lit  strings.Builder
	)

	flush := func() {
		if lit.Len() > 0 {
			segs = append(segs, segment{literal: lit.String()})
			lit.Reset()
		}
	}

	for i := 0; i < len(pattern); i++ {
		switch c := pattern[i]; c {
		case '\\':
			if i+1 < len(pattern) {
				i++
				lit.WriteByte(pattern[i])
				continue
			}

			lit.WriteByte(c)

		case '}':
			return nil, fmt.Errorf("%w: unbalanced '}' at %d", ErrMalformedPattern, i)

		case '{':
			end, err := closing(pattern, i)
			if err != nil {
				return nil, err
			}

			p, err := placeholder(pattern[i+1 : end])
			if err != nil {
				return nil, err
			}

			flush()
			segs = append(segs, segment{placeholder: true, param: p})
			i = end

		default:
			lit.WriteByte(c)
		}
	}

	flush()
	return segs, nil
}

// closing finds the brace balancing the one at open.
func closing(pattern string, open int) (int, error) {
	depth := 0
	for i := open; i < len(pattern); i++ {
		switch pattern[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}

	return 0, fmt.Errorf("%w: unbalanced '{' at %d", ErrMalformedPattern, open)
}

func placeholder(body string) (Parameter, error) {
	head, constraint, _ := strings.Cut(body, ":")

	p := Param(head, Constraint(constraint))
	if strings.HasSuffix(head, "?") {
		p.Name = strings.TrimSuffix(head, "?")
		p.Optional = true
	}

	if !paramName.MatchString(p.Name) {
		return p, fmt.Errorf("%w: bad placeholder name %q", ErrMalformedPattern, p.Name)
	}

	return p, nil
}

// Compile converts pattern into an anchored regular expression
// and the ordered Parameters its placeholders describe.
//
// declared supplies what a placeholder cannot express inline: casts, capture and constraints.
// Each declared Parameter must name a placeholder, and each placeholder appears once.
// An inline constraint takes precedence over a declared one,
// and a placeholder is optional if either marks it so.
//
// Compile is pure: equal inputs produce equal outputs.
func Compile(pattern string, declared ...Parameter) (string, []Parameter, error) {
	segs, err := scan(pattern)
	if err != nil {
		return "", nil, &CompileError{Path: pattern, Err: err}
	}

	byName := make(map[string]Parameter, len(declared))
	for _, d := range declared {
		if _, ok := byName[d.Name]; ok {
			return "", nil, &CompileError{Path: pattern, Param: d.Name, Err: ErrDuplicateParameter}
		}

		byName[d.Name] = d
	}

	var (
		params   []Parameter
		seen     = make(map[string]bool)
		required bool
		parts    []string
	)

	for _, seg := range segs {
		if !seg.placeholder {
			parts = append(parts, regexp.QuoteMeta(seg.literal))
			required = required || strings.Trim(seg.literal, "/") != ""
			continue
		}

		p := seg.param
		if seen[p.Name] {
			return "", nil, &CompileError{Path: pattern, Param: p.Name, Err: ErrDuplicateParameter}
		}
		seen[p.Name] = true

		if d, ok := byName[p.Name]; ok {
			if p.Constraint != "" {
				d.Constraint = p.Constraint
			}

			d.Optional = d.Optional || p.Optional
			p = d
		}

		if err := p.Cast.Kind.Valid(); err != nil {
			return "", nil, &CompileError{Path: pattern, Param: p.Name, Err: err}
		}

		if _, err := regexp.Compile(`^(?:` + p.pattern() + `)$`); err != nil {
			return "", nil, &CompileError{
				Path:  pattern,
				Param: p.Name,
				Err:   fmt.Errorf("%w: %s", ErrInvalidRegex, err),
			}
		}

		group := `(?:` + p.pattern() + `)`
		if p.Captured {
			group = `(?P<` + p.Name + `>` + p.pattern() + `)`
		}

		if !p.Optional {
			required = true
			parts = append(parts, group)
			params = append(params, p)
			continue
		}

		// an optional placeholder swallows the separator preceding it
		sep := ""
		if n := len(parts); n > 0 && strings.HasSuffix(parts[n-1], "/") {
			parts[n-1] = strings.TrimSuffix(parts[n-1], "/")
			sep = "/"
		}

		parts = append(parts, `(?:`+sep+group+`)?`)
		params = append(params, p)
	}

	for _, d := range declared {
		if !seen[d.Name] {
			return "", nil, &CompileError{Path: pattern, Param: d.Name, Err: ErrMissingPlaceholder}
		}
	}

	re := `^` + strings.Join(parts, "")
	if !required && len(params) > 0 {
		re += `/?`
	}
	re += `$`

	if _, err := regexp.Compile(re); err != nil {
		return "", nil, &CompileError{Path: pattern, Err: fmt.Errorf("%w: %s", ErrInvalidRegex, err)}
	}

	return re, params, nil
}

// pattern is the regular expression a value of p must match.
func (p Parameter) pattern() string {
	if p.Constraint != "" {
		return p.Constraint
	}

	return p.Cast.Kind.defaultConstraint()
}
