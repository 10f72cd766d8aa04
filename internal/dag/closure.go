package dag

import (
	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"
)

// Needed expands the directly-changed step ids into the full set of steps
// that must run: every changed step plus, transitively, every step it waits
// for. The traversal follows depends_on edges only in the prerequisite
// direction; a changed step never pulls in the steps that depend on it.
func (g *Graph) Needed(changed map[string]struct{}) (map[string]struct{}, error) {
	needed := make(map[string]struct{}, len(changed))
	for id := range changed {
		err := graph.DFS(g.edges, id, func(visited string) bool {
			needed[visited] = struct{}{}
			return false
		})
		if err != nil {
			return nil, errors.Wrapf(err, "collecting prerequisites of step %q", id)
		}
	}
	return needed, nil
}
