package confstack

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedAccessors(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(cwd, ".myapp", "config"), `
[term]
color = "auto"
quiet = false
width = 80
`)

	t.Run("MissingIsNilNotError", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, nil)
		s, err := cfg.GetString("term.cursor")
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("StringWithProvenance", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, nil)
		s, err := cfg.GetString("term.color")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "auto", s.Val)
		_, isFile := s.Definition.IsFile()
		assert.True(t, isFile)
	})

	t.Run("EnvOverride", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, map[string]string{
			"MYAPP_TERM_COLOR": "never",
		})
		s, err := cfg.GetString("term.color")
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "never", s.Val)
		assert.Contains(t, s.Definition.String(), "MYAPP_TERM_COLOR")
	})

	t.Run("Int64AndBool", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, nil)
		w, err := cfg.GetInt64("term.width")
		require.NoError(t, err)
		require.NotNil(t, w)
		assert.Equal(t, int64(80), w.Val)

		q, err := cfg.GetBool("term.quiet")
		require.NoError(t, err)
		require.NotNil(t, q)
		assert.False(t, q.Val)
	})

	t.Run("KindMismatch", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, nil)
		_, err := cfg.GetInt64("term.color")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "expected an integer")
	})
}

func TestGetStringList(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(cwd, ".myapp", "config"), `
as-string = "a b"
as-list = ["a", "b"]
`)

	t.Run("StringSplitsOnWhitespace", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, nil)
		items, err := cfg.GetStringList("as-string")
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "a", items[0].Val)
	})

	t.Run("ListPassesThrough", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, nil)
		items, err := cfg.GetStringList("as-list")
		require.NoError(t, err)
		assert.Len(t, items, 2)
	})

	t.Run("EnvAppends", func(t *testing.T) {
		cfg := newTestConfig(t, cwd, home, map[string]string{
			"MYAPP_AS_LIST": "c",
		})
		items, err := cfg.GetStringList("as-list")
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "c", items[2].Val)
	})
}

func TestGetPath(t *testing.T) {
	root := t.TempDir()
	home := t.TempDir()
	cwd := filepath.Join(root, "proj")
	writeFile(t, filepath.Join(cwd, ".myapp", "config"), `
bare = "gcc"
relative = "tools/gcc"
absolute = "/usr/bin/gcc"
`)

	cfg := newTestConfig(t, cwd, home, nil)

	t.Run("BareNameUntouched", func(t *testing.T) {
		p, err := cfg.GetPath("bare")
		require.NoError(t, err)
		assert.Equal(t, "gcc", p.Val)
	})

	t.Run("RelativeAnchoredToDefiningFile", func(t *testing.T) {
		p, err := cfg.GetPath("relative")
		require.NoError(t, err)
		// <proj>/.myapp/config defines it, so <proj> is the root.
		assert.Equal(t, filepath.Join(cwd, "tools", "gcc"), p.Val)
	})

	t.Run("AbsoluteUntouched", func(t *testing.T) {
		p, err := cfg.GetPath("absolute")
		require.NoError(t, err)
		assert.Equal(t, "/usr/bin/gcc", p.Val)
	})

	t.Run("EnvRelativeAnchoredToCwd", func(t *testing.T) {
		envCfg := newTestConfig(t, cwd, home, map[string]string{
			"MYAPP_RUNNER": "bin/run",
		})
		p, err := envCfg.GetPath("runner")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, "bin", "run"), p.Val)
	})
}

func TestGetRaw(t *testing.T) {
	cwd := t.TempDir()
	home := t.TempDir()
	writeFile(t, filepath.Join(cwd, ".myapp", "config"), "[net]\nretry = 3\n")

	cfg := newTestConfig(t, cwd, home, nil)

	raw, def, err := cfg.GetRaw("net")
	require.NoError(t, err)
	require.NotNil(t, def)
	assert.Equal(t, map[string]any{"retry": int64(3)}, raw)

	_, _, err = cfg.GetRaw("nope")
	assert.ErrorIs(t, err, ErrMissingKey)
}
