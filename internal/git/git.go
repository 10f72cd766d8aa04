// Package git shells out to the git CLI for the two repository operations
// the selection pass needs: bringing the base reference up to date and
// asking whether a set of pathspecs differs from it.
package git

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/vk/mkpipeline/internal/ctxlog"
)

// Repo is a checked-out git repository.
type Repo struct {
	// Dir is the repository's working directory.
	Dir string
}

func (r *Repo) command(ctx context.Context, args ...string) *exec.Cmd {
	ctxlog.FromContext(ctx).Debug("running git", "args", args)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.Dir
	cmd.Stderr = os.Stderr
	return cmd
}

// EnsureRemoteUpToDate fetches branch from remote so that diffs against the
// remote tracking ref see its current state.
func (r *Repo) EnsureRemoteUpToDate(ctx context.Context, remote, branch string) error {
	cmd := r.command(ctx, "fetch", remote, branch)
	return errors.Wrapf(cmd.Run(), "fetching %s %s", remote, branch)
}

// PathsDifferFromRef reports whether anything under the given pathspecs
// differs between the merge base with ref and the current working tree.
// It must never be called with an empty pathspec list: git would treat that
// as "diff everything".
func (r *Repo) PathsDifferFromRef(ctx context.Context, ref string, paths []string) (bool, error) {
	if len(paths) == 0 {
		panic("git: PathsDifferFromRef called without pathspecs")
	}

	args := append([]string{"diff", "--no-patch", "--quiet", ref + "...", "--"}, paths...)
	err := r.command(ctx, args...).Run()
	if err == nil {
		return false, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		// --quiet makes git exit 1 when a difference exists.
		return true, nil
	}
	return false, errors.Wrapf(err, "diffing %v against %s", paths, ref)
}

// DiffSummary writes a human-readable summary of everything that changed
// relative to the merge base with ref. It is informational only.
func (r *Repo) DiffSummary(ctx context.Context, w io.Writer, ref string) error {
	cmd := r.command(ctx, "diff", "--stat", ref+"...")
	cmd.Stdout = w
	return errors.Wrapf(cmd.Run(), "summarizing diff against %s", ref)
}
