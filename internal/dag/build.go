package dag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/vk/mkpipeline/internal/compose"
	"github.com/vk/mkpipeline/internal/ctxlog"
	"github.com/vk/mkpipeline/internal/pipeline"
)

// imageMarker is the reserved prefix that distinguishes a build-artifact
// name from a literal path glob in a step's inputs list.
const imageMarker = "#"

// composePlugin is the plugin name that bridges a step to a composition
// document. Steps using it gain implicit image dependencies from the
// artifacts that document's services are built from.
const composePlugin = "./ci/plugins/mzcompose"

// Build parses the ordered step records into a Graph. Composition documents
// referenced by plugins are resolved relative to dir, the repository root.
// Any step record the builder cannot fully understand fails the build with
// a ConfigurationError.
func Build(ctx context.Context, dir string, configs []pipeline.Config, images ImageSet) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)

	g := &Graph{
		steps: make(map[string]*Step, len(configs)),
		edges: graph.New(graph.StringHash, graph.Directed()),
	}

	for _, cfg := range configs {
		step, err := buildStep(dir, cfg, images)
		if err != nil {
			return nil, err
		}
		if _, ok := g.steps[step.ID]; !ok {
			g.order = append(g.order, step.ID)
			_ = g.edges.AddVertex(step.ID)
		}
		g.steps[step.ID] = step
	}

	// Edges are wired only after every vertex exists so steps may depend on
	// steps declared later in the document.
	for _, id := range g.order {
		for dep := range g.steps[id].StepDependencies {
			if err := g.edges.AddEdge(id, dep); err != nil {
				return nil, &ConfigurationError{
					StepID: id,
					Reason: fmt.Sprintf("depends_on references unknown step %q", dep),
				}
			}
		}
	}

	logger.Debug("pipeline graph built", "steps", len(g.order))
	return g, nil
}

func buildStep(dir string, cfg pipeline.Config, images ImageSet) (*Step, error) {
	id, ok := cfg.ID()
	if !ok {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("step record %v is missing a string id", cfg)}
	}

	step := &Step{
		ID:                id,
		ManualInputs:      make(map[string]struct{}),
		ImageDependencies: make(map[string]Image),
		StepDependencies:  make(map[string]struct{}),
	}

	if raw, ok := cfg["inputs"]; ok {
		if err := parseInputs(step, raw, images); err != nil {
			return nil, err
		}
	}
	if raw, ok := cfg["depends_on"]; ok {
		if err := parseDependsOn(step, raw); err != nil {
			return nil, err
		}
	}
	if raw, ok := cfg["plugins"]; ok {
		if err := parsePlugins(step, dir, raw, images); err != nil {
			return nil, err
		}
	}

	return step, nil
}

func parseInputs(step *Step, raw any, images ImageSet) error {
	entries, ok := raw.([]any)
	if !ok {
		return &ConfigurationError{
			StepID: step.ID,
			Reason: fmt.Sprintf("inputs must be a sequence of strings, got %v", raw),
		}
	}
	for _, entry := range entries {
		input, ok := entry.(string)
		if !ok {
			return &ConfigurationError{
				StepID: step.ID,
				Reason: fmt.Sprintf("inputs must be a sequence of strings, got entry %v", entry),
			}
		}
		if name, isImage := strings.CutPrefix(input, imageMarker); isImage {
			img, ok := images[name]
			if !ok {
				return &ConfigurationError{
					StepID: step.ID,
					Reason: fmt.Sprintf("input references unknown build artifact %q", name),
				}
			}
			step.ImageDependencies[name] = img
		} else {
			step.ManualInputs[input] = struct{}{}
		}
	}
	return nil
}

func parseDependsOn(step *Step, raw any) error {
	switch deps := raw.(type) {
	case string:
		step.StepDependencies[deps] = struct{}{}
	case []any:
		for _, entry := range deps {
			dep, ok := entry.(string)
			if !ok {
				return &ConfigurationError{
					StepID: step.ID,
					Reason: fmt.Sprintf("unexpected non-string depends_on entry: %v", entry),
				}
			}
			step.StepDependencies[dep] = struct{}{}
		}
	default:
		return &ConfigurationError{
			StepID: step.ID,
			Reason: fmt.Sprintf("unexpected non-string non-sequence depends_on: %v", raw),
		}
	}
	return nil
}

func parsePlugins(step *Step, dir string, raw any, images ImageSet) error {
	entries, ok := raw.([]any)
	if !ok {
		return &ConfigurationError{
			StepID: step.ID,
			Reason: fmt.Sprintf("plugins must be a sequence, got %v", raw),
		}
	}
	for _, entry := range entries {
		plugin, ok := entry.(map[string]any)
		if !ok {
			return &ConfigurationError{
				StepID: step.ID,
				Reason: fmt.Sprintf("plugin entries must be mappings, got %v", entry),
			}
		}
		for name, pluginConfig := range plugin {
			if name != composePlugin {
				continue
			}
			if err := expandComposePlugin(step, dir, pluginConfig, images); err != nil {
				return err
			}
		}
	}
	return nil
}

// expandComposePlugin loads the composition document a step delegates to and
// records the build artifacts its services name as implicit dependencies of
// the step.
func expandComposePlugin(step *Step, dir string, pluginConfig any, images ImageSet) error {
	cfg, ok := pluginConfig.(map[string]any)
	if !ok {
		return &ConfigurationError{
			StepID: step.ID,
			Reason: fmt.Sprintf("composition plugin config must be a mapping, got %v", pluginConfig),
		}
	}
	path, ok := cfg["config"].(string)
	if !ok {
		return &ConfigurationError{
			StepID: step.ID,
			Reason: "composition plugin config is missing the document path",
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}

	names, err := compose.ImageNames(path)
	if err != nil {
		return err
	}
	for _, name := range names {
		img, ok := images[name]
		if !ok {
			return &ConfigurationError{
				StepID: step.ID,
				Reason: fmt.Sprintf("composition document %s references unknown build artifact %q", path, name),
			}
		}
		step.ImageDependencies[name] = img
	}
	return nil
}
