package cmds

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mockpress/mockpress/pkg/config"
	"github.com/mockpress/mockpress/pkg/imagedoc"
	"github.com/mockpress/mockpress/pkg/match"
)

const placeholderManifest = `canvas:
  width: 100
  height: 100
layers:
  - name: design front
    kind: fill
    color: "#444444"
    bounds: [0, 0, 100, 100]
  - name: design back
    kind: image
    bounds: [10, 10, 90, 90]
  - name: backdrop
    kind: image
    bounds: [0, 0, 100, 100]
`

func writeManifest(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(placeholderManifest), 0644))
	return path
}

func TestPlaceholderSources(t *testing.T) {
	dir := t.TempDir()
	tpl := writeManifest(t, dir, "tee.mockup.yaml")

	t.Run("ScansBasesDir", func(t *testing.T) {
		cfg := &config.Config{BasesDir: dir}
		paths, err := placeholderSources(cfg, "")
		require.NoError(t, err)
		assert.Equal(t, []string{tpl}, paths)
	})

	t.Run("ActiveDocumentSkipsScan", func(t *testing.T) {
		// No bases_dir configured at all; the named document is the only
		// source.
		cfg := &config.Config{UseActiveDocument: true}
		paths, err := placeholderSources(cfg, tpl)
		require.NoError(t, err)
		assert.Equal(t, []string{tpl}, paths)
	})

	t.Run("ActiveDocumentUnnamed", func(t *testing.T) {
		cfg := &config.Config{UseActiveDocument: true}
		_, err := placeholderSources(cfg, "")
		require.ErrorContains(t, err, "--active")
	})
}

func TestListPlaceholders(t *testing.T) {
	dir := t.TempDir()
	tpl := writeManifest(t, dir, "tee.mockup.yaml")
	missing := filepath.Join(dir, "gone.mockup.yaml")

	matcher, err := match.Compile("design")
	require.NoError(t, err)
	everything, err := match.Compile("/.*/")
	require.NoError(t, err)

	// Walk with the match-everything pattern, report the real verdict.
	listings := listPlaceholders(imagedoc.NewService(), []string{tpl, missing}, everything, matcher)
	require.Len(t, listings, 3)

	assert.Equal(t, "design back", listings[0].Region.Name)
	assert.True(t, listings[0].Matched)
	assert.Equal(t, "backdrop", listings[1].Region.Name)
	assert.False(t, listings[1].Matched)

	assert.Equal(t, "gone", listings[2].Template)
	require.Error(t, listings[2].Err)
}
