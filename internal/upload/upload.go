// Package upload delivers the final pipeline document to the execution
// backend on a byte stream.
package upload

import (
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/pkg/errors"

	"github.com/vk/mkpipeline/internal/ctxlog"
)

// Uploader accepts a finished pipeline document.
type Uploader interface {
	Upload(ctx context.Context, doc io.Reader) error
}

// Agent pipes the document to `buildkite-agent pipeline upload`.
type Agent struct {
	// Dir is the working directory the agent runs in.
	Dir string
}

// Upload implements Uploader.
func (a *Agent) Upload(ctx context.Context, doc io.Reader) error {
	ctxlog.FromContext(ctx).Debug("uploading pipeline", "agent", "buildkite-agent")
	cmd := exec.CommandContext(ctx, "buildkite-agent", "pipeline", "upload")
	cmd.Dir = a.Dir
	cmd.Stdin = doc
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return errors.Wrap(cmd.Run(), "uploading pipeline")
}

// Writer copies the document to an io.Writer instead of uploading it. It
// backs dry runs and tests.
type Writer struct {
	W io.Writer
}

// Upload implements Uploader.
func (w *Writer) Upload(_ context.Context, doc io.Reader) error {
	_, err := io.Copy(w.W, doc)
	return errors.Wrap(err, "writing pipeline")
}
