package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/joshharrison/netplanner/internal/activity"
)

// Build validates a flat activity list and constructs its precedence graph.
// Every structural problem is collected; when any is found the returned error
// is a ValidationErrors and the graph is nil. Build never modifies its input.
func Build(activities []activity.Activity) (*Graph, error) {
	g := &Graph{
		Nodes:  make(map[string]*Node, len(activities)),
		Adj:    make(map[string][]string),
		RevAdj: make(map[string][]string),
	}
	var errs ValidationErrors

	// Index activities; the first record with a given id owns it.
	owners := make([]bool, len(activities))
	for i := range activities {
		a := &activities[i]
		if strings.TrimSpace(a.ID) == "" {
			errs = append(errs, &StructuralError{
				Kind: KindEmptyID,
				Msg:  fmt.Sprintf("activity at position %d has an empty id", i+1),
			})
			continue
		}
		if _, dup := g.Nodes[a.ID]; dup {
			errs = append(errs, &StructuralError{
				Kind:     KindDuplicateID,
				Activity: a.ID,
				Msg:      fmt.Sprintf("duplicate activity id %q (position %d)", a.ID, i+1),
			})
			continue
		}
		g.Nodes[a.ID] = &Node{ID: a.ID, Name: a.Name, Index: len(g.Order)}
		g.Order = append(g.Order, a.ID)
		owners[i] = true
	}

	edgeSet := make(map[[2]string]bool)
	for i := range activities {
		if !owners[i] {
			continue
		}
		a := &activities[i]
		for _, pred := range a.Predecessors {
			switch {
			case pred == a.ID:
				errs = append(errs, &StructuralError{
					Kind:     KindSelfReference,
					Activity: a.ID,
					Msg:      fmt.Sprintf("activity %q lists itself as a predecessor", a.ID),
				})
				continue
			case g.Nodes[pred] == nil:
				errs = append(errs, &StructuralError{
					Kind:     KindDanglingPredecessor,
					Activity: a.ID,
					Msg:      fmt.Sprintf("activity %q has unknown predecessor %q", a.ID, pred),
				})
				continue
			}
			key := [2]string{pred, a.ID}
			if edgeSet[key] {
				g.Warnings = append(g.Warnings,
					fmt.Sprintf("activity %q lists predecessor %q more than once", a.ID, pred))
				continue
			}
			edgeSet[key] = true
			g.Adj[pred] = append(g.Adj[pred], a.ID)
			g.RevAdj[a.ID] = append(g.RevAdj[a.ID], pred)
		}
	}

	// Adjacency follows input order so traversal is reproducible.
	byIndex := func(ids []string) {
		sort.SliceStable(ids, func(i, j int) bool {
			return g.Nodes[ids[i]].Index < g.Nodes[ids[j]].Index
		})
	}
	for k := range g.Adj {
		byIndex(g.Adj[k])
	}
	for k := range g.RevAdj {
		byIndex(g.RevAdj[k])
	}

	for _, id := range g.Order {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	if cycle := g.DetectCycle(); cycle != nil {
		errs = append(errs, &StructuralError{
			Kind:     KindCycle,
			Activity: cycle[0],
			Msg:      fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> ")),
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	order, err := TopoSort(g)
	if err != nil {
		return nil, ValidationErrors{{Kind: KindCycle, Msg: err.Error()}}
	}
	g.Topo = order
	g.Warnings = append(g.Warnings, g.redundantEdges()...)

	return g, nil
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
func (g *Graph) DetectCycle() []string {
	return detectCycle(g.Order, g.Adj)
}

// HasCycle reports whether adj contains a directed cycle over the given ids.
func HasCycle(ids []string, adj map[string][]string) bool {
	return detectCycle(ids, adj) != nil
}

func detectCycle(ids []string, adj map[string][]string) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range adj[node] {
			if color[next] == gray {
				// Walk parents back from node to next, then close the loop.
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range ids {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// TopoSort performs Kahn's algorithm. Ready activities are released in input
// order, so the result is deterministic for a given activity list.
func TopoSort(g *Graph) ([]string, error) {
	inDegree := make(map[string]int, len(g.Order))
	for _, id := range g.Order {
		inDegree[id] = len(g.RevAdj[id])
	}

	var queue []string
	for _, id := range g.Order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.Order))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		var newReady []string
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				newReady = append(newReady, succ)
			}
		}
		sort.SliceStable(newReady, func(i, j int) bool {
			return g.Nodes[newReady[i]].Index < g.Nodes[newReady[j]].Index
		})
		queue = append(queue, newReady...)
	}

	if len(order) != len(g.Order) {
		return nil, fmt.Errorf("topological sort failed: graph has a cycle (%d of %d activities sorted)", len(order), len(g.Order))
	}
	return order, nil
}

// redundantEdges reports precedence edges already implied through another
// predecessor. Requires g.Topo.
func (g *Graph) redundantEdges() []string {
	ancestors := make(map[string]map[string]bool, len(g.Topo))
	var warnings []string
	for _, id := range g.Topo {
		anc := make(map[string]bool)
		for _, p := range g.RevAdj[id] {
			anc[p] = true
			for a := range ancestors[p] {
				anc[a] = true
			}
		}
		ancestors[id] = anc

		for _, p := range g.RevAdj[id] {
			for _, q := range g.RevAdj[id] {
				if p != q && ancestors[q][p] {
					warnings = append(warnings, fmt.Sprintf(
						"activity %q: predecessor %q is redundant (already implied through %q)", id, p, q))
					break
				}
			}
		}
	}
	return warnings
}

// NodeCount returns the number of activities in the graph.
func (g *Graph) NodeCount() int {
	return len(g.Order)
}

// Successors returns the ids that directly depend on id.
func (g *Graph) Successors(id string) []string {
	return g.Adj[id]
}

// Predecessors returns the ids id directly depends on.
func (g *Graph) Predecessors(id string) []string {
	return g.RevAdj[id]
}
