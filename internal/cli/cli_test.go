package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("help requests a clean exit", func(t *testing.T) {
		out := &bytes.Buffer{}

		config, shouldExit, err := Parse([]string{"-h"}, out)

		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, config)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("no pipeline path prints usage and exits", func(t *testing.T) {
		out := &bytes.Buffer{}

		config, shouldExit, err := Parse([]string{"--branch", "feature"}, out)

		require.NoError(t, err)
		assert.True(t, shouldExit)
		assert.Nil(t, config)
		assert.Contains(t, out.String(), "Usage:")
	})

	t.Run("positional pipeline path", func(t *testing.T) {
		config, shouldExit, err := Parse([]string{"ci/pipeline.yml"}, &bytes.Buffer{})

		require.NoError(t, err)
		require.False(t, shouldExit)
		assert.Equal(t, "ci/pipeline.yml", config.PipelinePath)
		assert.Equal(t, "origin", config.Remote)
		assert.Equal(t, "master", config.BaseBranch)
		assert.Equal(t, 8, config.Workers)
	})

	t.Run("explicit flags win", func(t *testing.T) {
		config, _, err := Parse([]string{
			"--pipeline", "ci/pipeline.yml",
			"--repo", "/work/checkout",
			"--base-branch", "main",
			"--branch", "feature-x",
			"--tag", "v1.2.3",
			"--workers", "3",
			"--dry-run",
		}, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, "/work/checkout", config.RepoDir)
		assert.Equal(t, "main", config.BaseBranch)
		assert.Equal(t, "feature-x", config.Branch)
		assert.Equal(t, "v1.2.3", config.Tag)
		assert.Equal(t, 3, config.Workers)
		assert.True(t, config.DryRun)
	})

	t.Run("branch and tag default from the CI environment", func(t *testing.T) {
		t.Setenv("BUILDKITE_BRANCH", "pr-branch")
		t.Setenv("BUILDKITE_TAG", "")

		config, _, err := Parse([]string{"ci/pipeline.yml"}, &bytes.Buffer{})

		require.NoError(t, err)
		assert.Equal(t, "pr-branch", config.Branch)
		assert.Empty(t, config.Tag)
	})

	t.Run("invalid log-format", func(t *testing.T) {
		_, _, err := Parse([]string{"--log-format", "xml", "ci/pipeline.yml"}, &bytes.Buffer{})

		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("invalid log-level", func(t *testing.T) {
		_, _, err := Parse([]string{"--log-level", "loud", "ci/pipeline.yml"}, &bytes.Buffer{})

		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})

	t.Run("unknown flag", func(t *testing.T) {
		_, _, err := Parse([]string{"--frobnicate"}, &bytes.Buffer{})

		var exitErr *ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 2, exitErr.Code)
	})
}
