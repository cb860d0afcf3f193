package confstack

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// loadFile reads and parses one configuration file, then resolves any
// `include` directives it names, recursively.
func (c *Config) loadFile(path string) (*ConfigValue, error) {
	seen := make(map[string]bool)
	return c.loadFileRec(path, seen)
}

func (c *Config) loadFileRec(path string, seen map[string]bool) (*ConfigValue, error) {
	canon := path
	if abs, err := filepath.Abs(path); err == nil {
		canon = abs
	}
	if resolved, err := filepath.EvalSymlinks(canon); err == nil {
		canon = resolved
	}
	if seen[canon] {
		return nil, fmt.Errorf("%w with path `%s`", ErrIncludeCycle, path)
	}
	seen[canon] = true

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file `%s`: %w", path, err)
	}
	raw, err := parseBytes(data, path)
	if err != nil {
		return nil, fmt.Errorf("could not parse configuration in `%s`: %w", path, err)
	}
	value, err := fromRaw(FileDefinition(path), raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from `%s`: %w", path, err)
	}
	return c.loadIncludes(value, seen)
}

// loadIncludes resolves the `include` key of a table, if present: each named
// file is loaded (relative to the including file's directory, or to cwd for
// environment/CLI-defined includes) and the includes are merged together in
// listed order, later winning. The including table itself is then merged on
// top, so a file always wins over what it includes.
func (c *Config) loadIncludes(value *ConfigValue, seen map[string]bool) (*ConfigValue, error) {
	table, ok := value.Table()
	if !ok {
		return value, nil
	}
	inc, ok := table["include"]
	if !ok {
		return value, nil
	}
	delete(table, "include")

	var includes []ListItem
	switch inc.Kind() {
	case KindString:
		includes = []ListItem{{Val: inc.s, Definition: inc.def}}
	case KindList:
		includes = inc.list
	default:
		return nil, fmt.Errorf("`include` expected a string or list, but found %s in `%s`",
			inc.Kind(), inc.Definition())
	}

	if !c.includeEnabled {
		c.logger.Warn().Msgf("config `include` in `%s` ignored, includes are disabled", inc.Definition())
		return value, nil
	}

	root := TableValue(nil, value.Definition())
	for _, item := range includes {
		absPath := item.Val
		if !filepath.IsAbs(absPath) {
			if p, isFile := item.Definition.IsFile(); isFile {
				absPath = filepath.Join(filepath.Dir(p), item.Val)
			} else {
				absPath = filepath.Join(c.cwd, item.Val)
			}
		}
		child, err := c.loadFileRec(absPath, seen)
		if err != nil {
			return nil, fmt.Errorf("failed to load config include `%s` from `%s`: %w",
				item.Val, item.Definition, err)
		}
		if err := root.merge(child, AlwaysOverride); err != nil {
			return nil, fmt.Errorf("failed to load config include `%s` from `%s`: %w",
				item.Val, item.Definition, err)
		}
	}
	if err := root.merge(value, AlwaysOverride); err != nil {
		return nil, err
	}
	return root, nil
}

// parseBytes hands the raw bytes to the parser selected by file extension.
// Extensionless files (the historical bare `config`) are TOML.
func parseBytes(data []byte, path string) (map[string]any, error) {
	raw := make(map[string]any)
	switch detectFileFormat(path) {
	case "json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&raw); err != nil {
			return nil, err
		}
	case "yaml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	return raw, nil
}

func detectFileFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return "toml"
	}
}
