package confstack

import (
	"os"
	"path/filepath"
)

// walkTree enumerates the config files visible from pwd: one candidate per
// ancestor directory (in its .<app> subdirectory, closest ancestor first),
// then the home dot-directory if it was not already visited. Directories
// without a config file contribute nothing.
func (c *Config) walkTree(pwd string) ([]string, error) {
	var found []string
	stash := make(map[string]bool)

	dir := pwd
	for {
		path, err := c.configFilePath(filepath.Join(dir, "."+c.appName), "config", true)
		if err != nil {
			return nil, err
		}
		if path != "" {
			found = append(found, path)
			stash[path] = true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	path, err := c.configFilePath(c.home, "config", true)
	if err != nil {
		return nil, err
	}
	if path != "" && !stash[path] {
		found = append(found, path)
	}
	return found, nil
}

// configFilePath resolves the historical ambiguity between a bare config
// filename and its .toml variant. When both exist the bare name wins for
// backward compatibility and a warning is emitted once per path — unless the
// bare name is a symlink to the .toml file, which is intentional aliasing.
func (c *Config) configFilePath(dir, name string, warn bool) (string, error) {
	bare := filepath.Join(dir, name)
	withExt := bare + ".toml"

	bareExists := fileExists(bare)
	extExists := fileExists(withExt)

	switch {
	case bareExists:
		if warn && extExists {
			skip := false
			if target, err := os.Readlink(bare); err == nil {
				if !filepath.IsAbs(target) {
					target = filepath.Join(dir, target)
				}
				skip = filepath.Clean(target) == filepath.Clean(withExt)
			}
			if !skip && !c.warned[bare] {
				c.warned[bare] = true
				c.logger.Warn().
					Str("using", bare).
					Str("ignoring", withExt).
					Msgf("both `%s` and `%s` exist, using `%s`", bare, withExt, bare)
			}
		}
		return bare, nil
	case extExists:
		return withExt, nil
	default:
		return "", nil
	}
}
