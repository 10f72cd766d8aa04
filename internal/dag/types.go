package dag

import (
	"fmt"

	"github.com/dominikbraun/graph"
)

// Image is the capability the graph needs from a resolved build artifact:
// the transitive set of paths whose change invalidates it.
type Image interface {
	TransitiveInputs() map[string]struct{}
}

// ImageSet is the resolved build-artifact universe, keyed by artifact name.
type ImageSet map[string]Image

// Step is one pipeline stage with its declared inputs and ordering
// constraints. Steps are built once per run and immutable afterwards.
type Step struct {
	// ID is the step's unique identifier within the pipeline.
	ID string
	// ManualInputs holds the literal path globs declared on the step.
	ManualInputs map[string]struct{}
	// ImageDependencies holds the build artifacts the step depends on,
	// keyed by artifact name. Both explicit (marker-prefixed inputs) and
	// implicit (composition document) dependencies end up here.
	ImageDependencies map[string]Image
	// StepDependencies holds the ids of steps this step waits for.
	StepDependencies map[string]struct{}
}

// Inputs returns the step's effective input set: its manual globs plus the
// transitive inputs of every image dependency. An empty result means the
// step cannot be marked changed by input diffing.
func (s *Step) Inputs() map[string]struct{} {
	inputs := make(map[string]struct{}, len(s.ManualInputs))
	for glob := range s.ManualInputs {
		inputs[glob] = struct{}{}
	}
	for _, img := range s.ImageDependencies {
		for path := range img.TransitiveInputs() {
			inputs[path] = struct{}{}
		}
	}
	return inputs
}

// Graph holds every step of one pipeline, in encounter order, together with
// the depends_on edges between them.
type Graph struct {
	steps map[string]*Step
	order []string
	edges graph.Graph[string, string]
}

// Step returns the step with the given id.
func (g *Graph) Step(id string) (*Step, bool) {
	s, ok := g.steps[id]
	return s, ok
}

// Steps returns all steps in pipeline encounter order.
func (g *Graph) Steps() []*Step {
	steps := make([]*Step, 0, len(g.order))
	for _, id := range g.order {
		steps = append(steps, g.steps[id])
	}
	return steps
}

// ConfigurationError reports a malformed pipeline definition. It is always
// fatal: the selection pass never emits a trimmed pipeline from a definition
// it could not fully understand.
type ConfigurationError struct {
	// StepID names the offending step, when known.
	StepID string
	// Reason describes what was wrong with it.
	Reason string
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	if e.StepID == "" {
		return e.Reason
	}
	return fmt.Sprintf("step %q: %s", e.StepID, e.Reason)
}
