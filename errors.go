package confstack

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by loading and typed access.
var (
	// ErrMissingKey indicates a typed accessor found neither a file value
	// nor an environment override for the requested key.
	ErrMissingKey = errors.New("missing config key")

	// ErrIncludeCycle indicates a config file `include` chain that reaches
	// back to a file already being loaded.
	ErrIncludeCycle = errors.New("config `include` cycle detected")
)

// ConfigError is returned by typed access operations. It carries the
// location of the offending value when one is known, and wraps lower-level
// causes so the full key path from the requested key down to the root cause
// is preserved.
type ConfigError struct {
	err        error
	definition *Definition
}

func newConfigError(msg string, def Definition) *ConfigError {
	return &ConfigError{err: errors.New(msg), definition: &def}
}

func expectedError(key *ConfigKey, expected string, found *ConfigValue) *ConfigError {
	def := found.Definition()
	return &ConfigError{
		err:        fmt.Errorf("`%s` expected %s, but found a %s", key, expected, found.Kind()),
		definition: &def,
	}
}

func missingError(key *ConfigKey) *ConfigError {
	return &ConfigError{err: fmt.Errorf("%w `%s`", ErrMissingKey, key)}
}

// withKeyContext wraps e with the key currently being decoded, keeping the
// innermost definition when e does not carry one of its own.
func (e *ConfigError) withKeyContext(key *ConfigKey) *ConfigError {
	return &ConfigError{
		err:        fmt.Errorf("could not load config key `%s`: %w", key, e.err),
		definition: e.definition,
	}
}

// Definition returns the location of the bad value, if known.
func (e *ConfigError) Definition() (Definition, bool) {
	if e.definition == nil {
		return Definition{}, false
	}
	return *e.definition, true
}

func (e *ConfigError) Error() string {
	if e.definition != nil {
		return fmt.Sprintf("error in %s: %v", *e.definition, e.err)
	}
	return e.err.Error()
}

func (e *ConfigError) Unwrap() error { return e.err }

// MergeError reports an attempt to merge a container value with a
// non-container value (or a table with a list). It names both provenances so
// the user can locate the conflicting definitions.
type MergeError struct {
	Expected    string
	Found       string
	ExpectedDef Definition
	FoundDef    Definition
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("failed to merge config value from `%s` into `%s`: expected %s, but found %s",
		e.FoundDef, e.ExpectedDef, e.Expected, e.Found)
}
