package confstack

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Scan bulk-decodes the subtree at basePath into target using weak typing:
// strings convert to durations, comma-separated slices, URLs and numbers as
// the target fields require. Exact environment overrides are folded in before
// decoding. Scan trades the per-field provenance of Get for convenience; use
// it for wide settings structs, Get for single keys.
func (c *Config) Scan(basePath string, target any) error {
	values, err := c.Values()
	if err != nil {
		return err
	}

	raw := make(map[string]any, len(values))
	key := newConfigKey(c.envPrefix)
	for name, cv := range values {
		key.push(name)
		raw[name] = c.rawWithEnv(cv, key)
		key.pop()
	}

	src := any(raw)
	if basePath != "" {
		src, err = navigateToPath(raw, strings.Split(basePath, "."))
		if err != nil {
			return fmt.Errorf("failed to scan config path `%s`: %w", basePath, err)
		}
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "toml",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
			stringToURLHookFunc(),
		),
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(src); err != nil {
		return fmt.Errorf("failed to scan config path `%s`: %w", basePath, err)
	}
	return nil
}

// rawWithEnv strips provenance from a subtree, substituting the exact
// environment projection at any leaf it does not outrank. Env-only keys
// absent from every file stay invisible to Scan, matching map enumeration
// semantics.
func (c *Config) rawWithEnv(cv *ConfigValue, key *ConfigKey) any {
	if table, ok := cv.Table(); ok {
		out := make(map[string]any, len(table))
		for name, child := range table {
			key.push(name)
			out[name] = c.rawWithEnv(child, key)
			key.pop()
		}
		return out
	}
	if raw, ok := c.envVal(key); ok && !cv.Definition().HigherPriority(EnvDefinition(key.EnvKey())) {
		return raw
	}
	return cv.ToRaw()
}

func navigateToPath(raw map[string]any, parts []string) (any, error) {
	var current any = raw
	for i, part := range parts {
		table, ok := current.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("`%s` is not a table", strings.Join(parts[:i], "."))
		}
		current, ok = table[part]
		if !ok {
			return nil, fmt.Errorf("%w `%s`", ErrMissingKey, strings.Join(parts[:i+1], "."))
		}
	}
	return current, nil
}

func stringToURLHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(url.URL{}) {
			return data, nil
		}
		u, err := url.Parse(data.(string))
		if err != nil {
			return nil, err
		}
		return *u, nil
	}
}
