package confstack

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Config owns the merged configuration for one working directory. Values are
// loaded from disk lazily, at most once, and cached; concurrent readers after
// the first load observe an immutable snapshot. Construct one Config at
// process start (via New or Builder) and pass it down explicitly.
type Config struct {
	appName   string
	envPrefix string // e.g. "MYAPP", no trailing underscore
	cwd       string
	home      string // the app's home dot-directory, e.g. ~/.myapp
	env       map[string]string
	logger    zerolog.Logger

	includeEnabled bool
	advancedEnv    bool

	cliConfig []string

	mu     sync.Mutex
	values map[string]*ConfigValue
	loaded bool
	warned map[string]bool

	lockMu    sync.Mutex
	cacheLock *cacheLockState
}

// New creates a Config for the given application name with ambient defaults:
// the process working directory, the real environment, and a home directory
// of $<APP>_HOME or ~/.<appName>.
func New(appName string) (*Config, error) {
	return NewBuilder(appName).Build()
}

// AppName returns the application name the Config was constructed for.
func (c *Config) AppName() string { return c.appName }

// Cwd returns the working directory configuration is resolved for.
func (c *Config) Cwd() string { return c.cwd }

// Home returns the application's home dot-directory.
func (c *Config) Home() string { return c.home }

// EnvPrefix returns the environment variable prefix, without the trailing
// underscore.
func (c *Config) EnvPrefix() string { return c.envPrefix }

// Values returns the fully merged on-disk configuration keyed by top-level
// name, loading it on first use. Environment variables are not folded in
// here; typed access consults them per key. Any load failure aborts the
// whole resolution: there is no partial-config mode.
func (c *Config) Values() (map[string]*ConfigValue, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.valuesLocked()
}

func (c *Config) valuesLocked() (map[string]*ConfigValue, error) {
	if c.loaded {
		return c.values, nil
	}
	values, err := c.loadValues(c.cwd)
	if err != nil {
		return nil, err
	}
	c.values = values
	c.loaded = true
	if err := c.mergeCLIArgsLocked(); err != nil {
		c.loaded = false
		c.values = nil
		return nil, err
	}
	return c.values, nil
}

// ReloadRootedAt discards the cached values and recomputes them, walking up
// from path instead of the configured working directory. CLI overrides are
// re-applied on top.
func (c *Config) ReloadRootedAt(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	values, err := c.loadValues(path)
	if err != nil {
		return err
	}
	c.values = values
	c.loaded = true
	if err := c.mergeCLIArgsLocked(); err != nil {
		c.loaded = false
		c.values = nil
		return err
	}
	return nil
}

// ConfigFiles returns the config file paths that participate in resolution,
// in walk order (closest ancestor first, home last).
func (c *Config) ConfigFiles() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.walkTree(c.cwd)
}

// loadValues walks the ancestor tree and folds each discovered file into a
// fresh table. Files are folded outermost-first so the file closest to the
// working directory is merged last and wins scalar conflicts; the home
// directory file is folded first of all.
func (c *Config) loadValues(path string) (map[string]*ConfigValue, error) {
	paths, err := c.walkTree(path)
	if err != nil {
		return nil, fmt.Errorf("could not load configuration: %w", err)
	}

	root := TableValue(nil, FileDefinition("."))
	for i := len(paths) - 1; i >= 0; i-- {
		value, err := c.loadFile(paths[i])
		if err != nil {
			return nil, fmt.Errorf("could not load configuration: %w", err)
		}
		if err := root.merge(value, RespectPriority); err != nil {
			return nil, fmt.Errorf("failed to merge configuration at `%s`: %w", paths[i], err)
		}
	}
	return root.table, nil
}

// getCV walks the cached tree by key segments. It returns nil (no error) for
// a missing key, and an error when an intermediate segment resolves to a
// non-table value.
func (c *Config) getCV(key *ConfigKey) (*ConfigValue, error) {
	values, err := c.Values()
	if err != nil {
		return nil, err
	}
	parts := key.Parts()
	if len(parts) == 0 {
		return nil, nil
	}
	val, ok := values[parts[0]]
	if !ok {
		return nil, nil
	}
	for i, part := range parts[1:] {
		table, isTable := val.Table()
		if !isTable {
			soFar := strings.Join(parts[:i+1], ".")
			return nil, fmt.Errorf("expected table for configuration key `%s`, but found %s in %s",
				soFar, val.Kind(), val.Definition())
		}
		val, ok = table[part]
		if !ok {
			return nil, nil
		}
	}
	return val, nil
}

// hasKey reports whether any source defines the key. When prefixOK is set,
// an environment variable extending the key's projection also counts; this
// answers "does this subtree have any override" and must never be used to
// resolve a value (see the exact-match rule in env.go).
func (c *Config) hasKey(key *ConfigKey, prefixOK bool) bool {
	if c.hasEnvKey(key) {
		return true
	}
	if prefixOK && c.hasEnvPrefix(key) {
		return true
	}
	cv, err := c.getCV(key)
	return err == nil && cv != nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
