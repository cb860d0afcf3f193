package confstack

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCredentials(t *testing.T) {
	t.Run("NotLoadedByDefault", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		writeFile(t, filepath.Join(home, "credentials"), "[registry]\ntoken = \"secret\"\n")

		cfg := newTestConfig(t, cwd, home, nil)
		s, err := cfg.GetString("registry.token")
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("MergesOverConfig", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		writeFile(t, filepath.Join(home, "config"), "[registry]\ntoken = \"stale\"\nindex = \"https://example.com\"\n")
		writeFile(t, filepath.Join(home, "credentials"), "[registry]\ntoken = \"secret\"\n")

		cfg := newTestConfig(t, cwd, home, nil)
		require.NoError(t, cfg.LoadCredentials())

		s, err := cfg.GetString("registry.token")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "secret", s.Val)

		idx, err := cfg.GetString("registry.index")
		require.NoError(t, err)
		require.NotNil(t, idx)
		assert.Equal(t, "https://example.com", idx.Val)
	})

	t.Run("BareTokenHoistedToRegistry", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		writeFile(t, filepath.Join(home, "credentials"), "token = \"legacy\"\n")

		cfg := newTestConfig(t, cwd, home, nil)
		require.NoError(t, cfg.LoadCredentials())

		s, err := cfg.GetString("registry.token")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "legacy", s.Val)
	})

	t.Run("NoCredentialFile", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		cfg := newTestConfig(t, cwd, home, nil)
		assert.NoError(t, cfg.LoadCredentials())
	})
}

func TestSaveCredentials(t *testing.T) {
	t.Run("DefaultRegistryRoundTrip", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		cfg := newTestConfig(t, cwd, home, nil)

		require.NoError(t, cfg.SaveCredentials("secret", ""))

		reread := newTestConfig(t, cwd, home, nil)
		require.NoError(t, reread.LoadCredentials())
		s, err := reread.GetString("registry.token")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "secret", s.Val)
	})

	t.Run("NamedRegistry", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		cfg := newTestConfig(t, cwd, home, nil)

		require.NoError(t, cfg.SaveCredentials("alt-secret", "alt"))

		reread := newTestConfig(t, cwd, home, nil)
		require.NoError(t, reread.LoadCredentials())
		s, err := reread.GetString("registries.alt.token")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "alt-secret", s.Val)
	})

	t.Run("EmptyTokenRemoves", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		cfg := newTestConfig(t, cwd, home, nil)

		require.NoError(t, cfg.SaveCredentials("secret", ""))
		require.NoError(t, cfg.SaveCredentials("", ""))

		reread := newTestConfig(t, cwd, home, nil)
		require.NoError(t, reread.LoadCredentials())
		s, err := reread.GetString("registry.token")
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("PreservesUnrelatedKeys", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		writeFile(t, filepath.Join(home, "credentials"), "[registries.other]\ntoken = \"keep\"\n")

		cfg := newTestConfig(t, cwd, home, nil)
		require.NoError(t, cfg.SaveCredentials("secret", "alt"))

		reread := newTestConfig(t, cwd, home, nil)
		require.NoError(t, reread.LoadCredentials())
		s, err := reread.GetString("registries.other.token")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "keep", s.Val)
	})

	t.Run("OwnerOnlyPermissions", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("file modes are not meaningful on windows")
		}
		cwd := t.TempDir()
		home := t.TempDir()
		cfg := newTestConfig(t, cwd, home, nil)

		require.NoError(t, cfg.SaveCredentials("secret", ""))

		info, err := os.Stat(filepath.Join(home, "credentials"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	})

	t.Run("RespectsExistingTomlName", func(t *testing.T) {
		cwd := t.TempDir()
		home := t.TempDir()
		writeFile(t, filepath.Join(home, "credentials.toml"), "")

		cfg := newTestConfig(t, cwd, home, nil)
		require.NoError(t, cfg.SaveCredentials("secret", ""))

		_, err := os.Stat(filepath.Join(home, "credentials.toml"))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(home, "credentials"))
		assert.True(t, os.IsNotExist(err))
	})
}
