package confstack

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LoadCredentials folds the home-directory credentials file into the merged
// values. Credentials are kept out of the regular walk so that casual dumps
// of configuration do not traverse them; call this only on code paths that
// actually need a token. Credential values override anything already loaded.
func (c *Config) LoadCredentials() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.valuesLocked(); err != nil {
		return err
	}

	path, err := c.configFilePath(c.home, "credentials", true)
	if err != nil {
		return err
	}
	if path == "" {
		return nil
	}

	value, err := c.loadFile(path)
	if err != nil {
		return fmt.Errorf("could not load credentials from `%s`: %w", path, err)
	}
	table, ok := value.Table()
	if !ok {
		return fmt.Errorf("credential file `%s` is not a table", path)
	}

	// Historical layout: a bare top-level `token` belongs to the default
	// registry. Hoist it unless a registry table already claims the key.
	if token, ok := table["token"]; ok {
		if _, taken := table["registry"]; !taken {
			delete(table, "token")
			table["registry"] = TableValue(map[string]*ConfigValue{
				"token": token,
			}, token.Definition())
		}
	}

	for key, value := range table {
		existing, ok := c.values[key]
		if !ok {
			c.values[key] = value
			continue
		}
		existingDef := existing.Definition()
		if err := existing.merge(value, AlwaysOverride); err != nil {
			return fmt.Errorf("failed to merge credential key `%s` into `%s`: %w",
				key, existingDef, err)
		}
	}
	return nil
}

// SaveCredentials writes (or removes, when token is empty) the token for the
// named registry to the home credentials file, preserving unrelated keys. An
// empty registry name targets the default registry. The file is written
// atomically with owner-only permissions.
func (c *Config) SaveCredentials(token, registry string) error {
	path, err := c.configFilePath(c.home, "credentials", false)
	if err != nil {
		return err
	}
	if path == "" {
		path = filepath.Join(c.home, "credentials")
	}

	raw := make(map[string]any)
	if data, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("could not parse credentials in `%s`: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to read credentials file `%s`: %w", path, err)
	}

	if registry == "" {
		setOrDeleteToken(raw, "registry", token)
	} else {
		registries, _ := raw["registries"].(map[string]any)
		if registries == nil {
			registries = make(map[string]any)
		}
		setOrDeleteToken(registries, registry, token)
		if len(registries) == 0 {
			delete(raw, "registries")
		} else {
			raw["registries"] = registries
		}
	}
	// The legacy bare token is superseded by whatever we write now.
	delete(raw, "token")

	data, err := toml.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	if err := atomicWriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file `%s`: %w", path, err)
	}
	return nil
}

func setOrDeleteToken(node map[string]any, name, token string) {
	entry, _ := node[name].(map[string]any)
	if entry == nil {
		entry = make(map[string]any)
	}
	if token == "" {
		delete(entry, "token")
	} else {
		entry["token"] = token
	}
	if len(entry) == 0 {
		delete(node, name)
	} else {
		node[name] = entry
	}
}

// atomicWriteFile writes data to a temp file in the target directory and
// renames it into place, so readers never observe a partial file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
