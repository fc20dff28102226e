package dag

import (
	"fmt"
	"slices"
)

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string `yaml:"from" json:"from"`
	To   string `yaml:"to" json:"to"`
}

// Graph declares nodes and edges. Node insertion order is kept and decides
// the order of nodes inside a level.
type Graph struct {
	nodes      map[string]Node
	order      []string
	edges      []Edge
	upstream   map[string][]string
	downstream map[string][]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:      make(map[string]Node),
		upstream:   make(map[string][]string),
		downstream: make(map[string][]string),
	}
}

// Add registers nodes. Node names must be unique.
func (g *Graph) Add(nodes ...Node) error {
	for _, n := range nodes {
		name := n.Name()
		if name == "" {
			return fmt.Errorf("dag: node name is empty")
		}
		if _, exists := g.nodes[name]; exists {
			return fmt.Errorf("dag: duplicate node %q", name)
		}
		g.nodes[name] = n
		g.order = append(g.order, name)
	}
	return nil
}

// AddEdge declares that to runs after from. Repeated edges are ignored.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.nodes[from]; !ok {
		return fmt.Errorf("dag: edge references unknown node %q", from)
	}
	if _, ok := g.nodes[to]; !ok {
		return fmt.Errorf("dag: edge references unknown node %q", to)
	}
	if from == to {
		return fmt.Errorf("dag: node %q cannot depend on itself", from)
	}
	if slices.Contains(g.downstream[from], to) {
		return nil
	}
	g.edges = append(g.edges, Edge{From: from, To: to})
	g.downstream[from] = append(g.downstream[from], to)
	g.upstream[to] = append(g.upstream[to], from)
	return nil
}

// Chain links the named nodes in sequence: a >> b >> c.
func (g *Graph) Chain(names ...string) error {
	for i := 1; i < len(names); i++ {
		if err := g.AddEdge(names[i-1], names[i]); err != nil {
			return err
		}
	}
	return nil
}

// FanOut places the branches between from and to, so each branch depends
// on from and to depends on every branch. With no branches from links
// directly to to.
func (g *Graph) FanOut(from string, branches []string, to string) error {
	if len(branches) == 0 {
		return g.AddEdge(from, to)
	}
	for _, b := range branches {
		if err := g.Chain(from, b, to); err != nil {
			return err
		}
	}
	return nil
}

// Node returns a node by name.
func (g *Graph) Node(name string) (Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Names returns node names in insertion order.
func (g *Graph) Names() []string {
	return slices.Clone(g.order)
}

// Edges returns the edges in declaration order.
func (g *Graph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// Upstream returns the direct dependencies of a node.
func (g *Graph) Upstream(name string) []string {
	return slices.Clone(g.upstream[name])
}

// Downstream returns the direct dependents of a node.
func (g *Graph) Downstream(name string) []string {
	return slices.Clone(g.downstream[name])
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.order)
}

// BuildLevels uses Kahn's algorithm to group nodes by dependency level.
// Nodes within a level have no dependency on each other and are listed in
// insertion order. Returns an error if a cycle is detected.
func BuildLevels(g *Graph) ([][]string, error) {
	index := make(map[string]int, len(g.order))
	inDegree := make(map[string]int, len(g.order))
	for i, name := range g.order {
		index[name] = i
		inDegree[name] = len(g.upstream[name])
	}
	byInsertion := func(a, b string) int { return index[a] - index[b] }

	var queue []string
	for _, name := range g.order {
		if inDegree[name] == 0 {
			queue = append(queue, name)
		}
	}

	var levels [][]string
	visited := 0
	for len(queue) > 0 {
		levels = append(levels, queue)
		visited += len(queue)

		var next []string
		for _, name := range queue {
			for _, dep := range g.downstream[name] {
				inDegree[dep]--
				if inDegree[dep] == 0 {
					next = append(next, dep)
				}
			}
		}
		slices.SortFunc(next, byInsertion)
		queue = next
	}

	if visited != len(g.order) {
		return nil, fmt.Errorf("dag: cycle detected, processed %d of %d nodes", visited, len(g.order))
	}
	return levels, nil
}
