package mzbuild

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, root, dir, content string) {
	t.Helper()
	full := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, ManifestName), []byte(content), 0o600))
}

func TestNewRepository(t *testing.T) {
	t.Run("discovers manifests", func(t *testing.T) {
		root := t.TempDir()
		writeManifest(t, root, "src/imgA", "name: img-a\n")
		writeManifest(t, root, "src/nested/imgB", "name: img-b\n")

		repo, err := NewRepository(root)
		require.NoError(t, err)

		require.Len(t, repo.Images, 2)
		assert.Equal(t, filepath.Join("src", "imgA"), repo.Images["img-a"].Dir)
	})

	t.Run("hidden directories are skipped", func(t *testing.T) {
		root := t.TempDir()
		writeManifest(t, root, ".git/objects", "name: ghost\n")

		repo, err := NewRepository(root)
		require.NoError(t, err)
		assert.Empty(t, repo.Images)
	})

	t.Run("manifest without a name is fatal", func(t *testing.T) {
		root := t.TempDir()
		writeManifest(t, root, "src/imgA", "inputs: [x/]\n")

		_, err := NewRepository(root)
		require.ErrorContains(t, err, "missing a name")
	})

	t.Run("duplicate names are fatal", func(t *testing.T) {
		root := t.TempDir()
		writeManifest(t, root, "a", "name: dup\n")
		writeManifest(t, root, "b", "name: dup\n")

		_, err := NewRepository(root)
		require.ErrorContains(t, err, "duplicate artifact name")
	})
}

func TestResolveDependencies(t *testing.T) {
	t.Run("transitive inputs", func(t *testing.T) {
		root := t.TempDir()
		writeManifest(t, root, "src/base", "name: base\ninputs: [shared/proto]\n")
		writeManifest(t, root, "src/app", "name: app\ndepends_on: [base]\n")

		repo, err := NewRepository(root)
		require.NoError(t, err)
		set, err := repo.ResolveDependencies()
		require.NoError(t, err)

		base := set["base"]
		require.NotNil(t, base)
		assert.Equal(t, map[string]struct{}{
			filepath.Join("src", "base"): {},
			"shared/proto":               {},
		}, base.TransitiveInputs())

		app := set["app"]
		require.NotNil(t, app)
		assert.Equal(t, map[string]struct{}{
			filepath.Join("src", "app"):  {},
			filepath.Join("src", "base"): {},
			"shared/proto":               {},
		}, app.TransitiveInputs())
	})

	t.Run("unknown dependency is fatal", func(t *testing.T) {
		root := t.TempDir()
		writeManifest(t, root, "src/app", "name: app\ndepends_on: [ghost]\n")

		repo, err := NewRepository(root)
		require.NoError(t, err)
		_, err = repo.ResolveDependencies()
		require.ErrorContains(t, err, "unknown build artifact")
	})

	t.Run("dependency cycle is fatal", func(t *testing.T) {
		root := t.TempDir()
		writeManifest(t, root, "a", "name: a\ndepends_on: [b]\n")
		writeManifest(t, root, "b", "name: b\ndepends_on: [a]\n")

		repo, err := NewRepository(root)
		require.NoError(t, err)
		_, err = repo.ResolveDependencies()
		require.ErrorContains(t, err, "cycle")
	})
}
