package router_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dispatch/core/router"
)

func TestParsePattern(t *testing.T) {
	t.Parallel()

	t.Run("valid patterns", func(t *testing.T) {
		t.Parallel()

		for _, text := range []string{
			"/",
			"/users",
			"/users/{id}",
			"/orgs/{org}/users/{id}",
			"/files/{*path}",
			"/{key}/method",
			"/a/",
		} {
			p, err := router.ParsePattern(text)
			require.NoError(t, err, text)
			assert.Equal(t, text, p.String())
		}
	})

	t.Run("must start with slash", func(t *testing.T) {
		t.Parallel()

		_, err := router.ParsePattern("users")
		require.ErrorIs(t, err, router.ErrInvalidPattern)

		_, err = router.ParsePattern("")
		require.ErrorIs(t, err, router.ErrInvalidPattern)
	})

	t.Run("wildcard only in final position", func(t *testing.T) {
		t.Parallel()

		_, err := router.ParsePattern("/files/{*path}/meta")
		require.ErrorIs(t, err, router.ErrWildcardPosition)
	})

	t.Run("unbalanced braces", func(t *testing.T) {
		t.Parallel()

		_, err := router.ParsePattern("/users/{id")
		require.ErrorIs(t, err, router.ErrParamDelimiter)

		_, err = router.ParsePattern("/users/id}")
		require.ErrorIs(t, err, router.ErrInvalidPattern)
	})

	t.Run("empty capture name", func(t *testing.T) {
		t.Parallel()

		_, err := router.ParsePattern("/users/{}")
		require.ErrorIs(t, err, router.ErrParamDelimiter)

		_, err = router.ParsePattern("/files/{*}")
		require.ErrorIs(t, err, router.ErrParamDelimiter)
	})

	t.Run("duplicate capture names", func(t *testing.T) {
		t.Parallel()

		_, err := router.ParsePattern("/{id}/sub/{id}")
		require.ErrorIs(t, err, router.ErrDuplicateParam)

		_, err = router.ParsePattern("/{id}/files/{*id}")
		require.ErrorIs(t, err, router.ErrDuplicateParam)
	})

	t.Run("must parse panics on error", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() { router.MustParsePattern("broken") })
	})
}

func TestPatternMatch(t *testing.T) {
	t.Parallel()

	t.Run("literal segments", func(t *testing.T) {
		t.Parallel()

		p := router.MustParsePattern("/users/all")
		_, ok := p.Match("/users/all")
		assert.True(t, ok)

		_, ok = p.Match("/users/one")
		assert.False(t, ok)

		_, ok = p.Match("/users")
		assert.False(t, ok)

		_, ok = p.Match("/users/all/extra")
		assert.False(t, ok)
	})

	t.Run("capture binds one segment", func(t *testing.T) {
		t.Parallel()

		p := router.MustParsePattern("/users/{id}")
		params, ok := p.Match("/users/42")
		require.True(t, ok)
		assert.Equal(t, "42", params["id"])

		_, ok = p.Match("/users/42/posts")
		assert.False(t, ok)
	})

	t.Run("capture binds the empty segment in every position", func(t *testing.T) {
		t.Parallel()

		p := router.MustParsePattern("/{key}/method")
		params, ok := p.Match("//method")
		require.True(t, ok)
		assert.Equal(t, "", params["key"])

		p = router.MustParsePattern("/users/{id}")
		params, ok = p.Match("/users/")
		require.True(t, ok)
		assert.Equal(t, "", params["id"])
	})

	t.Run("wildcard binds remaining path with slashes", func(t *testing.T) {
		t.Parallel()

		p := router.MustParsePattern("/files/{*path}")
		params, ok := p.Match("/files/docs/2026/report.pdf")
		require.True(t, ok)
		assert.Equal(t, "docs/2026/report.pdf", params["path"])
	})

	t.Run("wildcard binds empty remainder", func(t *testing.T) {
		t.Parallel()

		p := router.MustParsePattern("/files/{*path}")
		params, ok := p.Match("/files")
		require.True(t, ok)
		assert.Equal(t, "", params["path"])

		params, ok = p.Match("/files/")
		require.True(t, ok)
		assert.Equal(t, "", params["path"])
	})

	t.Run("trailing slash is a distinct path", func(t *testing.T) {
		t.Parallel()

		p := router.MustParsePattern("/users")
		_, ok := p.Match("/users/")
		assert.False(t, ok)
	})

	t.Run("param keys in pattern order", func(t *testing.T) {
		t.Parallel()

		p := router.MustParsePattern("/orgs/{org}/files/{*path}")
		assert.Equal(t, []string{"org", "path"}, p.ParamKeys())
	})
}
