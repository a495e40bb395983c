package manifest

import (
	"bytes"
	"fmt"
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/go-viper/mapstructure/v2"
	"github.com/xy-planning-network/switchback"
	"github.com/xy-planning-network/switchback/target"
	"gopkg.in/yaml.v3"
)

// unmarshal parses b into generic maps so YAML and TOML decode identically.
func unmarshal(b []byte, format Format) (map[string]any, error) {
	if err := format.Valid(); err != nil {
		return nil, err
	}

	raw := make(map[string]any)
	if len(bytes.TrimSpace(b)) == 0 {
		return raw, nil
	}

	var err error
	switch format {
	case YAML:
		err = yaml.Unmarshal(b, &raw)
	case TOML:
		err = toml.Unmarshal(b, &raw)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: parsing %s manifest: %s", switchback.ErrNotValid, format, err)
	}

	return raw, nil
}

// decode binds raw onto f.
// Unknown keys are errors so typos do not silently drop routes.
func decode(raw map[string]any, f *File) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			targetKeyHookFunc(),
			mapstructure.TextUnmarshallerHookFunc(),
		),
		ErrorUnused:      true,
		Result:           f,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %s", switchback.ErrUnexpected, err)
	}

	if err := d.Decode(raw); err != nil {
		return fmt.Errorf("%w: decoding manifest: %s", switchback.ErrNotValid, err)
	}

	return nil
}

// targetKeyHookFunc expands a target written as a key, e.g. "function:greet", into a Target.
func targetKeyHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf(Target{}) {
			return data, nil
		}

		t, err := target.ParseKey(data.(string))
		if err != nil {
			return nil, err
		}

		return map[string]any{
			"kind":   t.Kind.String(),
			"func":   t.Func,
			"type":   t.Type,
			"member": t.Member,
			"ref":    t.Ref,
		}, nil
	}
}
