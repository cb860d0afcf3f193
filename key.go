package confstack

import "strings"

// ConfigKey is a dot-separated configuration key that tracks its
// environment-variable projection incrementally, so pushing and popping
// segments during struct decoding is cheap.
type ConfigKey struct {
	// env is the projected environment variable name for the key so far,
	// e.g. "MYAPP_PROFILE_DEV" for key `profile.dev` under prefix "MYAPP".
	env   string
	parts []keyPart
}

type keyPart struct {
	name   string
	envLen int // length of env before this part was pushed
}

// newConfigKey returns the empty key under the given environment prefix
// (without a trailing underscore, e.g. "MYAPP").
func newConfigKey(envPrefix string) *ConfigKey {
	return &ConfigKey{env: envPrefix}
}

// keyFrom parses a dotted key string. Key quoting is not supported; avoid
// segments containing dots.
func keyFrom(envPrefix, dotted string) *ConfigKey {
	k := newConfigKey(envPrefix)
	for _, part := range strings.Split(dotted, ".") {
		k.push(part)
	}
	return k
}

// push appends one key segment.
func (k *ConfigKey) push(name string) {
	k.parts = append(k.parts, keyPart{name: name, envLen: len(k.env)})
	k.env += "_" + envSegment(name)
}

// pop removes the most recently pushed segment.
func (k *ConfigKey) pop() {
	last := k.parts[len(k.parts)-1]
	k.parts = k.parts[:len(k.parts)-1]
	k.env = k.env[:last.envLen]
}

// EnvKey returns the environment variable name this key projects to:
// prefix plus each segment uppercased with dashes replaced by underscores,
// joined with underscores.
func (k *ConfigKey) EnvKey() string { return k.env }

// Parts returns the key segments in order.
func (k *ConfigKey) Parts() []string {
	out := make([]string, len(k.parts))
	for i, p := range k.parts {
		out[i] = p.name
	}
	return out
}

func (k *ConfigKey) String() string {
	return strings.Join(k.Parts(), ".")
}

func envSegment(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
