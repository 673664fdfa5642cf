// Package dag models task dependencies as a directed graph. Unlike a strict
// DAG it tolerates cycles so they can be reported rather than rejected. It
// provides cycle discovery, dependency centrality, execution ordering, and
// partitioning into independent tracks.
package dag

import (
	"errors"
	"fmt"

	"github.com/papapumpkin/sextant/internal/task"
)

// ErrCycle is returned when an ordering is requested for a cyclic graph.
var ErrCycle = errors.New("cycle detected")

// ErrNodeNotFound is returned when an operation references a non-existent node.
var ErrNodeNotFound = errors.New("node not found")

// ErrDuplicateNode is returned when adding a node that already exists.
var ErrDuplicateNode = errors.New("duplicate node")

// Cycle is a closed dependency loop. The first and last elements are the
// same node.
type Cycle []string

// Graph is a directed graph of task keys. Edges point from a task to its
// dependencies: if A depends on B, there is an edge from A to B. Node
// iteration order is insertion order, which keeps every traversal
// reproducible.
type Graph struct {
	order []string
	index map[string]int
	// adjacency maps nodeID → dependency IDs in declaration order.
	// Repeated declarations are kept as repeated edges.
	adjacency map[string][]string
	// reverse maps nodeID → set of dependent IDs.
	reverse map[string]map[string]bool
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		index:     make(map[string]int),
		adjacency: make(map[string][]string),
		reverse:   make(map[string]map[string]bool),
	}
}

// FromTasks builds a graph with one node per task key. Dependencies that
// do not name a task key in the batch are ignored. When several tasks share
// a key, the node keeps the position of the first and the dependencies of
// the last.
func FromTasks(tasks []task.Task) *Graph {
	g := New()
	deps := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		key := t.Key()
		if _, ok := g.index[key]; !ok {
			_ = g.AddNode(key)
		}
		deps[key] = t.Dependencies
	}
	for _, id := range g.order {
		for _, dep := range deps[id] {
			if _, ok := g.index[dep]; ok {
				_ = g.AddEdge(id, dep)
			}
		}
	}
	return g
}

// AddNode appends a node. Returns ErrDuplicateNode if it already exists.
func (g *Graph) AddNode(id string) error {
	if _, exists := g.index[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, id)
	}
	g.index[id] = len(g.order)
	g.order = append(g.order, id)
	g.reverse[id] = make(map[string]bool)
	return nil
}

// AddEdge records that from depends on to. Both nodes must exist. Self
// edges and edges that close a loop are accepted.
func (g *Graph) AddEdge(from, to string) error {
	if _, ok := g.index[from]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	if _, ok := g.index[to]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	g.adjacency[from] = append(g.adjacency[from], to)
	g.reverse[to][from] = true
	return nil
}

// Dependencies returns the distinct dependencies of id in declaration order.
func (g *Graph) Dependencies(id string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, dep := range g.adjacency[id] {
		if !seen[dep] {
			seen[dep] = true
			out = append(out, dep)
		}
	}
	return out
}

// Dependents returns the nodes that depend on id, in insertion order.
func (g *Graph) Dependents(id string) []string {
	return g.inOrder(g.reverse[id])
}

// FindCycles walks the graph depth-first from every node not yet visited,
// in insertion order. Reaching a node that is on the current path records
// the path slice from that node's position through the repeated node.
// Nodes already visited are not expanded again, but the path check runs
// before the visited check, so overlapping loops sharing nodes can all be
// reported. Cycles are not de-duplicated.
func (g *Graph) FindCycles() []Cycle {
	visited := make(map[string]bool, len(g.order))
	cycles := []Cycle{}
	for _, root := range g.order {
		if visited[root] {
			continue
		}
		cycles = g.walk(root, visited, cycles)
	}
	return cycles
}

// frame is one entry of the explicit traversal stack: a node and the
// index of the next outgoing edge to follow.
type frame struct {
	id   string
	next int
}

func (g *Graph) walk(root string, visited map[string]bool, cycles []Cycle) []Cycle {
	visited[root] = true
	stack := []frame{{id: root}}
	onPath := map[string]bool{root: true}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		deps := g.adjacency[top.id]
		if top.next >= len(deps) {
			delete(onPath, top.id)
			stack = stack[:len(stack)-1]
			continue
		}
		dep := deps[top.next]
		top.next++

		switch {
		case onPath[dep]:
			cycles = append(cycles, closeCycle(stack, dep))
		case !visited[dep]:
			visited[dep] = true
			onPath[dep] = true
			stack = append(stack, frame{id: dep})
		}
	}
	return cycles
}

// closeCycle slices the stack from the first occurrence of id to the top
// and appends id again to close the loop.
func closeCycle(stack []frame, id string) Cycle {
	start := 0
	for i, f := range stack {
		if f.id == id {
			start = i
			break
		}
	}
	cycle := make(Cycle, 0, len(stack)-start+1)
	for _, f := range stack[start:] {
		cycle = append(cycle, f.id)
	}
	return append(cycle, id)
}

// TopologicalOrder returns node IDs with dependencies before dependents.
// Among nodes that become ready together, insertion order is kept.
// Returns ErrCycle if the graph contains a cycle.
func (g *Graph) TopologicalOrder() ([]string, error) {
	pending := make(map[string]int, len(g.order))
	var queue []string
	for _, id := range g.order {
		pending[id] = len(g.Dependencies(id))
		if pending[id] == 0 {
			queue = append(queue, id)
		}
	}

	sorted := make([]string, 0, len(g.order))
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		sorted = append(sorted, id)

		for _, dependent := range g.Dependents(id) {
			pending[dependent]--
			if pending[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(sorted) != len(g.order) {
		return nil, fmt.Errorf("%w: not all nodes could be ordered (%d of %d)",
			ErrCycle, len(sorted), len(g.order))
	}
	return sorted, nil
}

// inOrder returns the members of set sorted by insertion order.
func (g *Graph) inOrder(set map[string]bool) []string {
	var out []string
	for _, id := range g.order {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}
