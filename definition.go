package confstack

import (
	"fmt"
	"path/filepath"
)

type definitionKind int

const (
	defFile definitionKind = iota
	defEnvironment
	defCLI
)

// Definition records where a configuration value came from: a file on disk
// (with an optional line number), an environment variable, or a --config
// command-line argument. Definitions are immutable and cheap to copy.
type Definition struct {
	kind definitionKind
	path string // file path, defFile only
	line int    // 1-based, 0 when unknown
	env  string // variable name, defEnvironment only
}

// FileDefinition returns a Definition for a value read from path.
func FileDefinition(path string) Definition {
	return Definition{kind: defFile, path: path}
}

// FileDefinitionAt returns a Definition for a value read from path at the
// given 1-based line.
func FileDefinitionAt(path string, line int) Definition {
	return Definition{kind: defFile, path: path, line: line}
}

// EnvDefinition returns a Definition for a value read from the named
// environment variable.
func EnvDefinition(name string) Definition {
	return Definition{kind: defEnvironment, env: name}
}

// CLIDefinition returns a Definition for a value supplied via --config.
func CLIDefinition() Definition {
	return Definition{kind: defCLI}
}

func (d Definition) priority() int {
	switch d.kind {
	case defCLI:
		return 2
	case defEnvironment:
		return 1
	default:
		return 0
	}
}

// HigherPriority reports whether d is strictly higher priority than other.
// CLI > Environment > File; two file definitions never order each other,
// merge order decides between them.
func (d Definition) HigherPriority(other Definition) bool {
	return d.priority() > other.priority()
}

// IsFile reports whether the value was defined in a file, returning the path.
func (d Definition) IsFile() (string, bool) {
	return d.path, d.kind == defFile
}

// Root returns the directory that relative paths in the value are resolved
// against: the directory containing the config file's dot-directory for file
// definitions, or cwd for environment and CLI definitions.
func (d Definition) Root(cwd string) string {
	if d.kind != defFile {
		return cwd
	}
	// <root>/.app/config -> <root>
	return filepath.Dir(filepath.Dir(d.path))
}

func (d Definition) String() string {
	switch d.kind {
	case defEnvironment:
		return fmt.Sprintf("environment variable `%s`", d.env)
	case defCLI:
		return "--config cli option"
	default:
		if d.line > 0 {
			return fmt.Sprintf("%s:%d", d.path, d.line)
		}
		return d.path
	}
}
