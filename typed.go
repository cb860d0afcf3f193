package confstack

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Value pairs a decoded value with the Definition it came from, for callers
// that need provenance (diagnostics, path resolution).
type Value[T any] struct {
	Val        T
	Definition Definition
}

// GetString returns the string at key with its provenance, or nil when the
// key is defined nowhere.
func (c *Config) GetString(key string) (*Value[string], error) {
	k := keyFrom(c.envPrefix, key)
	if raw, ok := c.envVal(k); ok {
		cv, err := c.getCV(k)
		if err != nil {
			return nil, err
		}
		if cv == nil || !cv.Definition().HigherPriority(EnvDefinition(k.EnvKey())) {
			return &Value[string]{Val: raw, Definition: EnvDefinition(k.EnvKey())}, nil
		}
	}
	cv, err := c.getCV(k)
	if err != nil {
		return nil, err
	}
	if cv == nil {
		return nil, nil
	}
	if cv.Kind() != KindString {
		return nil, expectedError(k, "a string", cv)
	}
	return &Value[string]{Val: cv.s, Definition: cv.Definition()}, nil
}

// GetInt64 returns the integer at key with its provenance, or nil when the
// key is defined nowhere.
func (c *Config) GetInt64(key string) (*Value[int64], error) {
	k := keyFrom(c.envPrefix, key)
	if raw, ok := c.envVal(k); ok {
		cv, err := c.getCV(k)
		if err != nil {
			return nil, err
		}
		if cv == nil || !cv.Definition().HigherPriority(EnvDefinition(k.EnvKey())) {
			def := EnvDefinition(k.EnvKey())
			i, perr := strconv.ParseInt(raw, 0, 64)
			if perr != nil {
				return nil, newConfigError("invalid numeric value: "+perr.Error(), def)
			}
			return &Value[int64]{Val: i, Definition: def}, nil
		}
	}
	cv, err := c.getCV(k)
	if err != nil {
		return nil, err
	}
	if cv == nil {
		return nil, nil
	}
	if cv.Kind() != KindInteger {
		return nil, expectedError(k, "an integer", cv)
	}
	return &Value[int64]{Val: cv.i, Definition: cv.Definition()}, nil
}

// GetBool returns the boolean at key with its provenance, or nil when the
// key is defined nowhere.
func (c *Config) GetBool(key string) (*Value[bool], error) {
	k := keyFrom(c.envPrefix, key)
	if raw, ok := c.envVal(k); ok {
		cv, err := c.getCV(k)
		if err != nil {
			return nil, err
		}
		if cv == nil || !cv.Definition().HigherPriority(EnvDefinition(k.EnvKey())) {
			def := EnvDefinition(k.EnvKey())
			b, perr := strconv.ParseBool(raw)
			if perr != nil {
				return nil, newConfigError("invalid boolean value: "+perr.Error(), def)
			}
			return &Value[bool]{Val: b, Definition: def}, nil
		}
	}
	cv, err := c.getCV(k)
	if err != nil {
		return nil, err
	}
	if cv == nil {
		return nil, nil
	}
	if cv.Kind() != KindBool {
		return nil, expectedError(k, "true/false", cv)
	}
	return &Value[bool]{Val: cv.b, Definition: cv.Definition()}, nil
}

// GetList returns the file-defined list at key, or nil when absent. The
// environment is not consulted; use GetStringList for the concatenating
// behavior.
func (c *Config) GetList(key string) ([]ListItem, error) {
	k := keyFrom(c.envPrefix, key)
	cv, err := c.getCV(k)
	if err != nil {
		return nil, err
	}
	if cv == nil {
		return nil, nil
	}
	list, ok := cv.List()
	if !ok {
		return nil, expectedError(k, "a list", cv)
	}
	return list, nil
}

// GetStringList resolves key as a list of strings across all sources: a
// file-defined string splits on whitespace, a file-defined list contributes
// its elements, and environment elements are appended last.
func (c *Config) GetStringList(key string) ([]ListItem, error) {
	k := keyFrom(c.envPrefix, key)
	var items []ListItem

	cv, err := c.getCV(k)
	if err != nil {
		return nil, err
	}
	if cv != nil {
		switch cv.Kind() {
		case KindString:
			for _, field := range strings.Fields(cv.s) {
				items = append(items, ListItem{Val: field, Definition: cv.Definition()})
			}
		case KindList:
			items = append(items, cv.list...)
		default:
			return nil, expectedError(k, "a string or array of strings", cv)
		}
	}

	envItems, err := c.getEnvList(k)
	if err != nil {
		return nil, err
	}
	items = append(items, envItems...)
	return items, nil
}

// GetPath resolves key as a filesystem path. A value containing a path
// separator is interpreted relative to the root of its definition, so a path
// in a config file is anchored next to that file rather than the process
// working directory. A bare name is returned as-is for PATH-style lookup.
func (c *Config) GetPath(key string) (*Value[string], error) {
	val, err := c.GetString(key)
	if err != nil || val == nil {
		return val, err
	}
	if !strings.ContainsRune(val.Val, '/') && !strings.ContainsRune(val.Val, filepath.Separator) {
		return val, nil
	}
	resolved := val.Val
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(val.Definition.Root(c.cwd), resolved)
	}
	return &Value[string]{Val: resolved, Definition: val.Definition}, nil
}

// GetRaw returns the untyped value at key with its provenance, preferring an
// exact environment match over file data. It exists for tooling that dumps
// configuration without a target type.
func (c *Config) GetRaw(key string) (any, *Definition, error) {
	k := keyFrom(c.envPrefix, key)
	if raw, ok := c.envVal(k); ok {
		def := EnvDefinition(k.EnvKey())
		return raw, &def, nil
	}
	cv, err := c.getCV(k)
	if err != nil {
		return nil, nil, err
	}
	if cv == nil {
		return nil, nil, missingError(k)
	}
	def := cv.Definition()
	return cv.ToRaw(), &def, nil
}
