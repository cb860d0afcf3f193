package confstack

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// envVal returns the environment variable projecting the key, if set.
// Only an exact match resolves a value; prefix matches (a variable naming a
// deeper key) never do, they only answer presence via hasEnvPrefix.
func (c *Config) envVal(key *ConfigKey) (string, bool) {
	v, ok := c.env[key.EnvKey()]
	return v, ok
}

func (c *Config) hasEnvKey(key *ConfigKey) bool {
	_, ok := c.env[key.EnvKey()]
	return ok
}

// hasEnvPrefix reports whether any environment variable names a key below
// this one, i.e. whether the subtree rooted here has environment overrides.
func (c *Config) hasEnvPrefix(key *ConfigKey) bool {
	prefix := key.EnvKey() + "_"
	for name := range c.env {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// getEnvList parses an environment variable as list elements. In advanced
// mode a value bracketed like a TOML array literal is parsed as one, so
// elements may contain spaces; otherwise (and always outside advanced mode)
// the value splits on whitespace.
func (c *Config) getEnvList(key *ConfigKey) ([]ListItem, error) {
	raw, ok := c.envVal(key)
	if !ok {
		return nil, nil
	}
	def := EnvDefinition(key.EnvKey())

	trimmed := strings.TrimSpace(raw)
	if c.advancedEnv && strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
		var doc struct {
			Value []any `toml:"value"`
		}
		if err := toml.Unmarshal([]byte("value = "+trimmed), &doc); err != nil {
			return nil, &ConfigError{
				err:        fmt.Errorf("could not parse TOML list: %w", err),
				definition: &def,
			}
		}
		items := make([]ListItem, 0, len(doc.Value))
		for _, elem := range doc.Value {
			s, isString := elem.(string)
			if !isString {
				return nil, newConfigError(
					fmt.Sprintf("expected string, found %T in list", elem), def)
			}
			items = append(items, ListItem{Val: s, Definition: def})
		}
		return items, nil
	}

	var items []ListItem
	for _, field := range strings.Fields(raw) {
		items = append(items, ListItem{Val: field, Definition: def})
	}
	return items, nil
}
