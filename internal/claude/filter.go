package claude

import (
	"fmt"

	"github.com/joshharrison/netplanner/internal/activity"
	"github.com/joshharrison/netplanner/internal/graph"
)

// Rejected is an inferred edge that could not be used.
type Rejected struct {
	Edge   Edge   `json:"edge"`
	Reason string `json:"reason"`
}

// Filter validates inferred edges against the activity list. Edges naming
// unknown activities, self edges, edges already present and edges that would
// close a cycle are rejected. Edges are accepted greedily in the order given.
func Filter(acts []activity.Activity, edges []Edge) (accepted []Edge, rejected []Rejected) {
	ids := make([]string, 0, len(acts))
	known := make(map[string]bool, len(acts))
	adj := make(map[string][]string)
	existing := make(map[[2]string]bool)
	for _, a := range acts {
		if !known[a.ID] {
			ids = append(ids, a.ID)
		}
		known[a.ID] = true
		for _, p := range a.Predecessors {
			adj[p] = append(adj[p], a.ID)
			existing[[2]string{p, a.ID}] = true
		}
	}

	reject := func(e Edge, format string, args ...any) {
		rejected = append(rejected, Rejected{Edge: e, Reason: fmt.Sprintf(format, args...)})
	}

	for _, e := range edges {
		switch {
		case !known[e.Activity]:
			reject(e, "unknown activity %s", e.Activity)
			continue
		case !known[e.Predecessor]:
			reject(e, "unknown predecessor %s", e.Predecessor)
			continue
		case e.Activity == e.Predecessor:
			reject(e, "self-dependency %s", e.Activity)
			continue
		case existing[[2]string{e.Predecessor, e.Activity}]:
			reject(e, "already a predecessor")
			continue
		}

		// Tentatively add edge: predecessor -> activity
		adj[e.Predecessor] = append(adj[e.Predecessor], e.Activity)
		if graph.HasCycle(ids, adj) {
			adj[e.Predecessor] = adj[e.Predecessor][:len(adj[e.Predecessor])-1]
			reject(e, "would create cycle: %s -> %s", e.Predecessor, e.Activity)
			continue
		}
		existing[[2]string{e.Predecessor, e.Activity}] = true
		accepted = append(accepted, e)
	}
	return accepted, rejected
}

// Apply returns a copy of acts with the accepted edges added as predecessors.
func Apply(acts []activity.Activity, edges []Edge) []activity.Activity {
	out := activity.CloneAll(acts)
	index := make(map[string]int, len(out))
	for i := range out {
		if _, ok := index[out[i].ID]; !ok {
			index[out[i].ID] = i
		}
	}
	for _, e := range edges {
		if i, ok := index[e.Activity]; ok {
			out[i].Predecessors = append(out[i].Predecessors, e.Predecessor)
		}
	}
	return out
}
