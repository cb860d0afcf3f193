package confstack

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Builder assembles a Config. All inputs that New takes from the ambient
// process (working directory, environment, home) can be pinned explicitly,
// which is how tests isolate themselves and how embedding tools point the
// resolver at a directory other than their own.
type Builder struct {
	appName     string
	cwd         string
	home        string
	env         map[string]string
	envSet      bool
	logger      zerolog.Logger
	loggerSet   bool
	includes    bool
	advancedEnv bool
	cliConfig   []string
}

// NewBuilder starts building a Config for the given application name. The
// name determines the dot-directory searched in each ancestor (`.<name>`) and
// the environment prefix (`<NAME>_`, uppercased, dashes to underscores).
func NewBuilder(appName string) *Builder {
	return &Builder{appName: appName}
}

// WithCwd pins the working directory configuration is resolved for.
func (b *Builder) WithCwd(cwd string) *Builder {
	b.cwd = cwd
	return b
}

// WithHome pins the application home directory, overriding $<APP>_HOME and
// the ~/.<app> default.
func (b *Builder) WithHome(home string) *Builder {
	b.home = home
	return b
}

// WithEnv replaces the process environment with an explicit snapshot.
func (b *Builder) WithEnv(env map[string]string) *Builder {
	b.env = env
	b.envSet = true
	return b
}

// WithCLIConfig supplies the --config arguments, each either a path to a
// config file or an inline `key=value` TOML fragment. Later arguments
// override earlier ones.
func (b *Builder) WithCLIConfig(args []string) *Builder {
	b.cliConfig = args
	return b
}

// WithIncludes enables resolution of the `include` key in config files.
// When disabled (the default) an `include` key is ignored with a warning.
func (b *Builder) WithIncludes(enabled bool) *Builder {
	b.includes = enabled
	return b
}

// WithAdvancedEnv enables TOML array literals in environment variables that
// map to list-typed keys.
func (b *Builder) WithAdvancedEnv(enabled bool) *Builder {
	b.advancedEnv = enabled
	return b
}

// WithLogger sets the logger warnings and diagnostics are emitted through.
// Without it the Config is silent.
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.logger = logger
	b.loggerSet = true
	return b
}

// Build materializes the Config, filling unpinned inputs from the process.
func (b *Builder) Build() (*Config, error) {
	if b.appName == "" {
		return nil, errors.New("application name must not be empty")
	}

	env := b.env
	if !b.envSet {
		env = make(map[string]string)
		for _, kv := range os.Environ() {
			if idx := strings.IndexByte(kv, '='); idx > 0 {
				env[kv[:idx]] = kv[idx+1:]
			}
		}
	}
	if env == nil {
		env = make(map[string]string)
	}

	cwd := b.cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not determine the current working directory: %w", err)
		}
		cwd = wd
	}

	prefix := envSegment(b.appName)

	home := b.home
	if home == "" {
		home = env[prefix+"_HOME"]
		if home != "" && !filepath.IsAbs(home) {
			home = filepath.Join(cwd, home)
		}
	}
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("could not determine the home directory: %w", err)
		}
		home = filepath.Join(userHome, "."+b.appName)
	}

	logger := b.logger
	if !b.loggerSet {
		logger = zerolog.Nop()
	}

	return &Config{
		appName:        b.appName,
		envPrefix:      prefix,
		cwd:            cwd,
		home:           home,
		env:            env,
		logger:         logger,
		includeEnabled: b.includes,
		advancedEnv:    b.advancedEnv,
		cliConfig:      b.cliConfig,
		warned:         make(map[string]bool),
	}, nil
}
