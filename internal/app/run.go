package app

import (
	"bytes"
	"context"

	"github.com/pkg/errors"

	"github.com/vk/mkpipeline/internal/ctxlog"
	"github.com/vk/mkpipeline/internal/dag"
	"github.com/vk/mkpipeline/internal/mzbuild"
	"github.com/vk/mkpipeline/internal/pipeline"
	"github.com/vk/mkpipeline/internal/trim"
)

// Run executes the pipeline-generation pass: load the definition, trim it to
// the steps the current change needs (unless gating disables trimming), and
// hand the result to the execution backend. Any failure aborts the whole run
// with no partial output.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	doc, err := pipeline.Load(a.config.PipelinePath)
	if err != nil {
		return err
	}
	a.logger.Debug("Pipeline definition loaded.", "steps", len(doc.Steps))

	if a.shouldTrim() {
		a.logger.Info("Trimming unchanged steps from pipeline.",
			"base", a.config.Remote+"/"+a.config.BaseBranch, "branch", a.config.Branch)
		if err := a.trim(ctx, doc); err != nil {
			return err
		}
	} else {
		a.logger.Info("Building the full pipeline.",
			"branch", a.config.Branch, "tag", a.config.Tag)
	}

	var buf bytes.Buffer
	if err := doc.Encode(&buf); err != nil {
		return err
	}
	if err := a.uploader.Upload(ctx, &buf); err != nil {
		return err
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// shouldTrim reports whether trimming applies to this build. Builds of the
// base branch and of release tags always run the full pipeline.
func (a *App) shouldTrim() bool {
	return a.config.Branch != a.config.BaseBranch && a.config.Tag == ""
}

func (a *App) trim(ctx context.Context, doc *pipeline.Doc) error {
	repo, err := mzbuild.NewRepository(a.config.RepoDir)
	if err != nil {
		return err
	}
	resolved, err := repo.ResolveDependencies()
	if err != nil {
		return errors.Wrap(err, "resolving build artifacts")
	}
	a.logger.Debug("Build artifacts resolved.", "images", len(resolved))

	images := make(dag.ImageSet, len(resolved))
	for name, img := range resolved {
		images[name] = img
	}

	// The selection report is informational; it must not mix with the
	// document a dry run writes to stdout.
	return trim.Run(ctx, doc, a.config.RepoDir, images, a.vcs, trim.Options{
		Remote:     a.config.Remote,
		BaseBranch: a.config.BaseBranch,
		Workers:    a.config.Workers,
		Out:        a.logW,
	})
}
