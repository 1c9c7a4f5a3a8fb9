package cpm

import (
	"sort"

	"github.com/joshharrison/netplanner/internal/graph"
)

// Analyze performs critical path method analysis on a validated graph.
// durations maps every activity id to the duration it is scheduled with.
func Analyze(g *graph.Graph, durations map[string]float64, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	schedules, projectDuration, err := Run(g, durations)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Schedules:       schedules,
		TopoOrder:       g.Topo,
		ProjectDuration: projectDuration,
		Tolerance:       Tolerance(opts.Epsilon, projectDuration),
	}

	for _, id := range g.Topo {
		succs := make([]*Schedule, 0, len(g.Adj[id]))
		for _, s := range g.Adj[id] {
			succs = append(succs, schedules[s])
		}
		Annotate(schedules[id], succs, result.Tolerance)
	}

	result.CriticalPaths, result.Truncated = Enumerate(g, schedules, result.Tolerance, opts.MaxPaths)
	result.Waves = computeWaves(result)

	return result, nil
}

// computeWaves groups activities by their earliest start time.
func computeWaves(result *Result) []Wave {
	ids := append([]string(nil), result.TopoOrder...)
	sort.SliceStable(ids, func(a, b int) bool {
		return result.Schedules[ids[a]].ES < result.Schedules[ids[b]].ES
	})

	var waves []Wave
	for _, id := range ids {
		ts := result.Schedules[id]
		if n := len(waves); n == 0 || ts.ES-waves[n-1].ES >= result.Tolerance {
			waves = append(waves, Wave{Index: n, ES: ts.ES})
		}
		w := &waves[len(waves)-1]
		ts.Wave = w.Index
		w.ActivityIDs = append(w.ActivityIDs, id)
		if ts.IsCritical {
			w.IsCritical = true
		}
	}

	// Critical activities first within a wave.
	for i := range waves {
		taskIDs := waves[i].ActivityIDs
		sort.SliceStable(taskIDs, func(a, b int) bool {
			aCrit := result.Schedules[taskIDs[a]].IsCritical
			bCrit := result.Schedules[taskIDs[b]].IsCritical
			if aCrit != bCrit {
				return aCrit
			}
			return false
		})
	}

	return waves
}
