package confstack

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// mergeCLIArgsLocked folds the --config arguments into the loaded values.
// Each argument is either a path to an existing config file (relative to cwd)
// or an inline TOML fragment holding exactly one top-level key. CLI values
// override everything already loaded. Caller holds c.mu.
func (c *Config) mergeCLIArgsLocked() error {
	for _, arg := range c.cliConfig {
		var loaded *ConfigValue

		candidate := arg
		if !filepath.IsAbs(candidate) {
			candidate = filepath.Join(c.cwd, candidate)
		}
		if fileExists(candidate) {
			// A path argument behaves as if the file were included, so
			// relative paths inside it resolve against its own directory.
			loaded = TableValue(map[string]*ConfigValue{
				"include": StringValue(candidate, CLIDefinition()),
			}, CLIDefinition())
		} else {
			raw := make(map[string]any)
			if err := toml.Unmarshal([]byte(arg), &raw); err != nil {
				return fmt.Errorf("failed to parse value from --config argument `%s` as a dotted key expression: %w", arg, err)
			}
			if len(raw) != 1 {
				return fmt.Errorf("--config argument `%s` expected exactly one key=value pair, got %d keys", arg, len(raw))
			}
			value, err := fromRaw(CLIDefinition(), raw)
			if err != nil {
				return fmt.Errorf("failed to load --config argument `%s`: %w", arg, err)
			}
			loaded = value
		}

		seen := make(map[string]bool)
		resolved, err := c.loadIncludes(loaded, seen)
		if err != nil {
			return fmt.Errorf("failed to load --config include: %w", err)
		}

		table, _ := resolved.Table()
		for key, value := range table {
			existing, ok := c.values[key]
			if !ok {
				c.values[key] = value
				continue
			}
			existingDef := existing.Definition()
			if err := existing.merge(value, AlwaysOverride); err != nil {
				return fmt.Errorf("failed to merge --config key `%s` into `%s`: %w",
					key, existingDef, err)
			}
		}
	}
	return nil
}
