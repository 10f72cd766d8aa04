// Package trim implements the selection pass: build the step graph, detect
// which steps' inputs changed relative to the base reference, close that set
// over depends_on edges, and cut the pipeline document down to the result.
// The pass is a single linear flow; the first error aborts it before the
// document is touched, so a partial pipeline is never produced.
package trim

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/vk/mkpipeline/internal/ctxlog"
	"github.com/vk/mkpipeline/internal/dag"
	"github.com/vk/mkpipeline/internal/pipeline"
)

// VCS is the capability the pass needs from version control. *git.Repo
// satisfies it; tests substitute deterministic fakes.
type VCS interface {
	EnsureRemoteUpToDate(ctx context.Context, remote, branch string) error
	PathsDifferFromRef(ctx context.Context, ref string, paths []string) (bool, error)
	DiffSummary(ctx context.Context, w io.Writer, ref string) error
}

// Options configures one selection pass.
type Options struct {
	// Remote and BaseBranch name the base reference steps are diffed
	// against, e.g. origin/master.
	Remote     string
	BaseBranch string
	// Workers bounds the concurrent per-step diff queries.
	Workers int
	// Out receives the informational change summary and decision table.
	Out io.Writer
}

// Run trims doc in place to the steps that must run for the current change.
// dir is the repository root; images is the resolved build-artifact
// universe.
func Run(ctx context.Context, doc *pipeline.Doc, dir string, images dag.ImageSet, vcs VCS, opts Options) error {
	logger := ctxlog.FromContext(ctx)
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	g, err := dag.Build(ctx, dir, doc.Steps, images)
	if err != nil {
		return err
	}

	// The one permitted repository mutation, strictly before any diff.
	if err := vcs.EnsureRemoteUpToDate(ctx, opts.Remote, opts.BaseBranch); err != nil {
		return err
	}
	ref := opts.Remote + "/" + opts.BaseBranch

	if err := vcs.DiffSummary(ctx, opts.Out, ref); err != nil {
		return err
	}

	changed, err := changedSteps(ctx, g, vcs, ref, opts.Workers)
	if err != nil {
		return err
	}
	logger.Debug("change detection complete", "changed", len(changed))

	needed, err := g.Needed(changed)
	if err != nil {
		return err
	}

	printDecisions(opts.Out, g, needed)

	doc.Trim(needed)
	return nil
}

// changedSteps finds every step whose effective input set differs from the
// base reference. The per-step queries are independent, so they run under a
// bounded errgroup; only set membership matters, never completion order.
func changedSteps(ctx context.Context, g *dag.Graph, vcs VCS, ref string, workers int) (map[string]struct{}, error) {
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	changed := make(map[string]struct{})

	grp, gctx := errgroup.WithContext(ctx)
	grp.SetLimit(workers)
	for _, step := range g.Steps() {
		inputs := sortedKeys(step.Inputs())
		step := step
		if len(inputs) == 0 {
			// No inputs means there is no way this step can be considered
			// changed. A diff query without pathspecs would mean "diff
			// everything", so it must not be issued at all.
			continue
		}
		grp.Go(func() error {
			differs, err := vcs.PathsDifferFromRef(gctx, ref, inputs)
			if err != nil {
				return errors.Wrapf(err, "detecting changes for step %q", step.ID)
			}
			if differs {
				mu.Lock()
				changed[step.ID] = struct{}{}
				mu.Unlock()
			}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return changed, nil
}

// printDecisions writes the per-step keep/trim table. Informational only.
func printDecisions(w io.Writer, g *dag.Graph, needed map[string]struct{}) {
	for _, step := range g.Steps() {
		mark := "✗"
		if _, ok := needed[step.ID]; ok {
			mark = "✓"
		}
		fmt.Fprintf(w, "%s %s\n", mark, step.ID)
		if len(step.StepDependencies) > 0 {
			fmt.Fprintf(w, "    wait: %s\n", strings.Join(sortedKeys(step.StepDependencies), " "))
		}
		if len(step.ManualInputs) > 0 {
			fmt.Fprintf(w, "    globs: %s\n", strings.Join(sortedKeys(step.ManualInputs), " "))
		}
		if len(step.ImageDependencies) > 0 {
			names := make([]string, 0, len(step.ImageDependencies))
			for name := range step.ImageDependencies {
				names = append(names, name)
			}
			sort.Strings(names)
			fmt.Fprintf(w, "    images: %s\n", strings.Join(names, " "))
		}
	}
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
