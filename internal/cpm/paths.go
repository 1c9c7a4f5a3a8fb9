package cpm

import (
	"math"

	"github.com/joshharrison/netplanner/internal/graph"
)

// Enumerate lists every maximal chain of critical activities joined by tight
// precedence edges (EF of the predecessor equals ES of the successor). Paths
// start at critical activities in topological order and branch in successor
// order. When maxPaths > 0 enumeration stops after that many paths and the
// second return value is true.
func Enumerate(g *graph.Graph, schedules map[string]*Schedule, tol float64, maxPaths int) ([][]string, bool) {
	critical := func(id string) bool {
		s := schedules[id]
		return s != nil && s.IsCritical
	}
	tight := func(from, to string) bool {
		return critical(from) && critical(to) &&
			math.Abs(schedules[from].EF-schedules[to].ES) < tol
	}

	var (
		paths     [][]string
		truncated bool
	)

	var walk func(id string, path []string) bool
	walk = func(id string, path []string) bool {
		extended := false
		for _, succ := range g.Adj[id] {
			if !tight(id, succ) {
				continue
			}
			extended = true
			if !walk(succ, append(path, succ)) {
				return false
			}
		}
		if extended {
			return true
		}
		if maxPaths > 0 && len(paths) == maxPaths {
			truncated = true
			return false
		}
		paths = append(paths, append([]string(nil), path...))
		return true
	}

	for _, id := range g.Topo {
		if !critical(id) {
			continue
		}
		start := true
		for _, pred := range g.RevAdj[id] {
			if tight(pred, id) {
				start = false
				break
			}
		}
		if !start {
			continue
		}
		if !walk(id, []string{id}) {
			break
		}
	}

	return paths, truncated
}
