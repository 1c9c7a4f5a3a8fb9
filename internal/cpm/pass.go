package cpm

import (
	"errors"
	"fmt"

	"github.com/joshharrison/netplanner/internal/graph"
)

// ErrNotDAG is returned when the pass engine is handed a graph that was not
// validated by graph.Build.
var ErrNotDAG = errors.New("graph is not a validated DAG")

// Run performs the forward and backward passes over g using the given
// per-activity durations. It returns the schedules and the project duration.
func Run(g *graph.Graph, durations map[string]float64) (map[string]*Schedule, float64, error) {
	if len(g.Topo) != len(g.Order) {
		return nil, 0, fmt.Errorf("%w: topological order covers %d of %d activities", ErrNotDAG, len(g.Topo), len(g.Order))
	}

	schedules := make(map[string]*Schedule, len(g.Topo))

	// Forward pass: ES = max(EF of all predecessors)
	for _, id := range g.Topo {
		if _, seen := schedules[id]; seen {
			return nil, 0, fmt.Errorf("%w: activity %q appears twice in topological order", ErrNotDAG, id)
		}
		d, ok := durations[id]
		if !ok {
			return nil, 0, fmt.Errorf("no duration for activity %q", id)
		}
		es := 0.0
		for _, pred := range g.RevAdj[id] {
			ps, ok := schedules[pred]
			if !ok {
				return nil, 0, fmt.Errorf("%w: predecessor %q of %q not scheduled before it", ErrNotDAG, pred, id)
			}
			if ps.EF > es {
				es = ps.EF
			}
		}
		schedules[id] = &Schedule{ActivityID: id, Duration: d, ES: es, EF: es + d}
	}

	projectDuration := 0.0
	for _, id := range g.Leaves {
		if ef := schedules[id].EF; ef > projectDuration {
			projectDuration = ef
		}
	}

	// Backward pass in reverse topological order.
	for i := len(g.Topo) - 1; i >= 0; i-- {
		id := g.Topo[i]
		ts := schedules[id]

		lf := projectDuration
		for j, succ := range g.Adj[id] {
			if ls := schedules[succ].LS; j == 0 || ls < lf {
				lf = ls
			}
		}
		ts.LF = lf
		ts.LS = lf - ts.Duration
	}

	return schedules, projectDuration, nil
}
