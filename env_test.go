package confstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvPresence(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	cfg := newTestConfig(t, cwd, home, map[string]string{
		"MYAPP_NET_RETRY": "3",
	})

	t.Run("ExactMatch", func(t *testing.T) {
		k := keyFrom("MYAPP", "net.retry")
		assert.True(t, cfg.hasEnvKey(k))
		v, ok := cfg.envVal(k)
		assert.True(t, ok)
		assert.Equal(t, "3", v)
	})

	t.Run("PrefixAnswersPresenceOnly", func(t *testing.T) {
		k := keyFrom("MYAPP", "net")
		assert.False(t, cfg.hasEnvKey(k))
		assert.True(t, cfg.hasEnvPrefix(k))
		_, ok := cfg.envVal(k)
		assert.False(t, ok)
	})

	t.Run("UnrelatedKey", func(t *testing.T) {
		k := keyFrom("MYAPP", "build")
		assert.False(t, cfg.hasEnvKey(k))
		assert.False(t, cfg.hasEnvPrefix(k))
	})
}

func TestEnvList(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()

	t.Run("WhitespaceSplit", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, map[string]string{
			"MYAPP_BUILD_FLAGS": "-v  --color always",
		})
		items, err := cfg.getEnvList(keyFrom("MYAPP", "build.flags"))
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "-v", items[0].Val)
		assert.Equal(t, "--color", items[1].Val)
		assert.Equal(t, "always", items[2].Val)
	})

	t.Run("Unset", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, nil)
		items, err := cfg.getEnvList(keyFrom("MYAPP", "build.flags"))
		require.NoError(t, err)
		assert.Nil(t, items)
	})

	t.Run("AdvancedTOMLArray", func(t *testing.T) {
		cfg, err := NewBuilder("myapp").
			WithCwd(cwd).
			WithHome(home).
			WithEnv(map[string]string{
				"MYAPP_BUILD_FLAGS": `["has space", "plain"]`,
			}).
			WithAdvancedEnv(true).
			Build()
		require.NoError(t, err)

		items, err := cfg.getEnvList(keyFrom("MYAPP", "build.flags"))
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "has space", items[0].Val)
		assert.Equal(t, "plain", items[1].Val)
	})

	t.Run("AdvancedRejectsNonStringElements", func(t *testing.T) {
		cfg, err := NewBuilder("myapp").
			WithCwd(cwd).
			WithHome(home).
			WithEnv(map[string]string{
				"MYAPP_BUILD_FLAGS": `[1, 2]`,
			}).
			WithAdvancedEnv(true).
			Build()
		require.NoError(t, err)

		_, err = cfg.getEnvList(keyFrom("MYAPP", "build.flags"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected string")
	})

	t.Run("BracketsSplitLiterallyWithoutAdvanced", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, map[string]string{
			"MYAPP_BUILD_FLAGS": `["a", "b"]`,
		})
		items, err := cfg.getEnvList(keyFrom("MYAPP", "build.flags"))
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, `["a",`, items[0].Val)
		assert.Equal(t, `"b"]`, items[1].Val)
	})
}
