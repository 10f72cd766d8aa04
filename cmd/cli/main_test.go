package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/mkpipeline/internal/cli"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// The "-h" (help) flag should cause cli.Parse to return `shouldExit=true`.
	out := &bytes.Buffer{}

	err := run(out, io.Discard, []string{"-h"})

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_BadFlag(t *testing.T) {
	t.Parallel()

	err := run(io.Discard, io.Discard, []string{"--log-level", "loud", "pipeline.yml"})

	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestRun_BaseBranchDryRun(t *testing.T) {
	t.Parallel()

	// Building the base branch skips trimming entirely, so a dry run must
	// emit the full pipeline without touching git.
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yml")
	pipelineYAML := strings.Join([]string{
		"steps:",
		"  - id: build",
		"    inputs: [src/]",
		"  - id: lint",
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(pipelineYAML), 0o600))

	out := &bytes.Buffer{}
	err := run(out, io.Discard, []string{
		"--pipeline", path,
		"--repo", dir,
		"--branch", "master",
		"--base-branch", "master",
		"--tag", "",
		"--dry-run",
	})

	require.NoError(t, err)
	assert.Contains(t, out.String(), "id: build")
	assert.Contains(t, out.String(), "id: lint")
}
