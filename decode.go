package confstack

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Get resolves the dotted key across all sources and decodes the result into
// target, which must be a non-nil pointer. Struct fields are matched by their
// `toml` tag, falling back to the lowercased field name; fields absent from
// every source are left at their zero value, so pointer fields double as
// presence markers. A top-level key defined nowhere returns an error wrapping
// ErrMissingKey.
func (c *Config) Get(key string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("config target for key `%s` must be a non-nil pointer, got %T", key, target)
	}
	k := keyFrom(c.envPrefix, key)
	if _, err := c.getCV(k); err != nil {
		return err
	}
	if !c.present(k, rv.Type().Elem()) {
		return missingError(k)
	}
	if err := c.decodeValue(k, rv.Elem()); err != nil {
		return err
	}
	return nil
}

// present reports whether any source defines the key, widening to an
// environment prefix probe for container-shaped targets (a variable naming a
// deeper key proves the container exists).
func (c *Config) present(key *ConfigKey, t reflect.Type) bool {
	return c.hasKey(key, containerish(t))
}

func containerish(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Map, reflect.Slice:
		return true
	case reflect.Ptr:
		return containerish(t.Elem())
	default:
		return false
	}
}

func (c *Config) decodeValue(key *ConfigKey, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Ptr:
		elem := reflect.New(v.Type().Elem())
		if err := c.decodeValue(key, elem.Elem()); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	case reflect.Struct:
		return c.decodeStruct(key, v)
	case reflect.Map:
		return c.decodeMap(key, v)
	case reflect.Slice:
		return c.decodeSlice(key, v)
	case reflect.String:
		s, err := c.leafString(key)
		if err != nil {
			return err
		}
		v.SetString(s)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := c.leafInt(key)
		if err != nil {
			return err
		}
		v.SetInt(i)
		return nil
	case reflect.Bool:
		b, err := c.leafBool(key)
		if err != nil {
			return err
		}
		v.SetBool(b)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := c.leafFloat(key)
		if err != nil {
			return err
		}
		v.SetFloat(f)
		return nil
	default:
		return fmt.Errorf("unsupported config target type %s for key `%s`", v.Type(), key)
	}
}

func (c *Config) decodeStruct(key *ConfigKey, v reflect.Value) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name := fieldKeyName(field)
		if name == "" || !field.IsExported() {
			continue
		}
		key.push(name)
		err := c.decodeField(key, v.Field(i))
		key.pop()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) decodeField(key *ConfigKey, v reflect.Value) error {
	t := v.Type()
	isContainer := containerish(t)

	if isContainer && tableShaped(t) && c.hasEnvKey(key) {
		def := EnvDefinition(key.EnvKey())
		return newConfigError(
			fmt.Sprintf("`%s` expected a table, but found a string", key), def)
	}

	present := c.hasEnvKey(key)
	if !present && isContainer {
		present = c.hasEnvPrefix(key)
	}
	if !present {
		cv, err := c.getCV(key)
		if err != nil {
			return asConfigError(err).withKeyContext(key)
		}
		present = cv != nil
	}
	if !present {
		// Environment variables map onto a key hierarchy by prefix, so a
		// variable extending this field's projection is ambiguous: it may
		// belong to a sibling whose name this field is a prefix of, or be a
		// misspelling of a nested key. Required scalar fields report the
		// miss rather than defaulting through; optional (pointer) fields
		// stay unset.
		if !isContainer && t.Kind() != reflect.Ptr && c.envExtendsKey(key) {
			return missingError(key)
		}
		return nil
	}
	if err := c.decodeValue(key, v); err != nil {
		return asConfigError(err).withKeyContext(key)
	}
	return nil
}

func tableShaped(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct, reflect.Map:
		return true
	case reflect.Ptr:
		return tableShaped(t.Elem())
	default:
		return false
	}
}

// envExtendsKey reports whether some environment variable name extends this
// key's projection. Unlike hasEnvPrefix it does not require a segment
// boundary: `APP_T_INNER_VALUE` extends the projection of both `t.inner` and
// its sibling `t.inn`, which is exactly the ambiguity being probed for.
func (c *Config) envExtendsKey(key *ConfigKey) bool {
	proj := key.EnvKey()
	for name := range c.env {
		if len(name) > len(proj) && strings.HasPrefix(name, proj) {
			return true
		}
	}
	return false
}

// decodeMap enumerates the keys of a file-defined table. Keys defined only in
// the environment are not enumerable, so they do not appear here.
func (c *Config) decodeMap(key *ConfigKey, v reflect.Value) error {
	if v.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("unsupported config map key type %s for key `%s`", v.Type().Key(), key)
	}
	cv, err := c.getCV(key)
	if err != nil {
		return asConfigError(err).withKeyContext(key)
	}
	out := reflect.MakeMap(v.Type())
	if cv != nil {
		table, ok := cv.Table()
		if !ok {
			return expectedError(key, "a table", cv)
		}
		for name := range table {
			key.push(name)
			elem := reflect.New(v.Type().Elem()).Elem()
			err := c.decodeValue(key, elem)
			key.pop()
			if err != nil {
				return asConfigError(err).withKeyContext(key)
			}
			out.SetMapIndex(reflect.ValueOf(name), elem)
		}
	}
	v.Set(out)
	return nil
}

// decodeSlice concatenates the file-defined list with environment elements,
// file elements first. Only string element types are supported here; richer
// element types go through Scan.
func (c *Config) decodeSlice(key *ConfigKey, v reflect.Value) error {
	if v.Type().Elem().Kind() != reflect.String {
		return fmt.Errorf("unsupported config slice element type %s for key `%s`", v.Type().Elem(), key)
	}
	var items []ListItem
	cv, err := c.getCV(key)
	if err != nil {
		return asConfigError(err).withKeyContext(key)
	}
	if cv != nil {
		list, ok := cv.List()
		if !ok {
			return expectedError(key, "a list", cv)
		}
		items = append(items, list...)
	}
	envItems, err := c.getEnvList(key)
	if err != nil {
		return asConfigError(err).withKeyContext(key)
	}
	items = append(items, envItems...)

	out := reflect.MakeSlice(v.Type(), len(items), len(items))
	for i, item := range items {
		out.Index(i).SetString(item.Val)
	}
	v.Set(out)
	return nil
}

// leafSource arbitrates a scalar key between the cached tree and the
// environment: the tree wins only when its definition outranks the
// environment (a --config override), otherwise a set variable wins.
func (c *Config) leafSource(key *ConfigKey) (*ConfigValue, string, bool, error) {
	cv, err := c.getCV(key)
	if err != nil {
		return nil, "", false, asConfigError(err).withKeyContext(key)
	}
	raw, envOK := c.envVal(key)
	if envOK && (cv == nil || !cv.Definition().HigherPriority(EnvDefinition(key.EnvKey()))) {
		return nil, raw, true, nil
	}
	if cv != nil {
		return cv, "", false, nil
	}
	return nil, "", false, missingError(key)
}

func (c *Config) leafString(key *ConfigKey) (string, error) {
	cv, raw, fromEnv, err := c.leafSource(key)
	if err != nil {
		return "", err
	}
	if fromEnv {
		return raw, nil
	}
	if cv.Kind() != KindString {
		return "", expectedError(key, "a string", cv)
	}
	return cv.s, nil
}

func (c *Config) leafInt(key *ConfigKey) (int64, error) {
	cv, raw, fromEnv, err := c.leafSource(key)
	if err != nil {
		return 0, err
	}
	if fromEnv {
		i, perr := strconv.ParseInt(raw, 0, 64)
		if perr != nil {
			def := EnvDefinition(key.EnvKey())
			return 0, newConfigError(
				fmt.Sprintf("invalid numeric value for `%s`: %v", key, perr), def)
		}
		return i, nil
	}
	if cv.Kind() != KindInteger {
		return 0, expectedError(key, "an integer", cv)
	}
	return cv.i, nil
}

func (c *Config) leafBool(key *ConfigKey) (bool, error) {
	cv, raw, fromEnv, err := c.leafSource(key)
	if err != nil {
		return false, err
	}
	if fromEnv {
		b, perr := strconv.ParseBool(raw)
		if perr != nil {
			def := EnvDefinition(key.EnvKey())
			return false, newConfigError(
				fmt.Sprintf("invalid boolean value for `%s`: %v", key, perr), def)
		}
		return b, nil
	}
	if cv.Kind() != KindBool {
		return false, expectedError(key, "true/false", cv)
	}
	return cv.b, nil
}

func (c *Config) leafFloat(key *ConfigKey) (float64, error) {
	cv, raw, fromEnv, err := c.leafSource(key)
	if err != nil {
		return 0, err
	}
	if fromEnv {
		f, perr := strconv.ParseFloat(raw, 64)
		if perr != nil {
			def := EnvDefinition(key.EnvKey())
			return 0, newConfigError(
				fmt.Sprintf("invalid numeric value for `%s`: %v", key, perr), def)
		}
		return f, nil
	}
	if cv.Kind() != KindInteger {
		return 0, expectedError(key, "a number", cv)
	}
	return float64(cv.i), nil
}

// fieldKeyName returns the config key segment a struct field binds to, or ""
// when the field is skipped.
func fieldKeyName(field reflect.StructField) string {
	tag := field.Tag.Get("toml")
	if tag == "-" {
		return ""
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag != "" {
		return tag
	}
	return strings.ToLower(field.Name)
}

// asConfigError normalizes arbitrary errors into ConfigError so key context
// can be layered on as decoding unwinds.
func asConfigError(err error) *ConfigError {
	if ce, ok := err.(*ConfigError); ok {
		return ce
	}
	return &ConfigError{err: err}
}
