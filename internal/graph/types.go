package graph

// Node is a single activity in the precedence graph.
type Node struct {
	ID    string
	Name  string
	Index int // position in the caller's activity list
}

// Graph is a directed acyclic graph of activities keyed by id.
type Graph struct {
	Nodes    map[string]*Node
	Order    []string            // ids in input order
	Adj      map[string][]string // activity -> successors
	RevAdj   map[string][]string // activity -> predecessors
	Roots    []string            // activities with no predecessors
	Leaves   []string            // activities with no successors
	Topo     []string            // topological order, ties broken by input position
	Warnings []string            // non-fatal findings (duplicate or redundant edges)
}
