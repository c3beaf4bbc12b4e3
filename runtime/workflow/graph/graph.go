// Package graph validates workflows and produces topological execution
// orders. It is the only place that inspects edge structure; the engine
// consumes the order and the predecessor lists it returns.
package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/autoflow/autoflow/runtime/workflow"
)

// ErrCycle is returned when the edge set contains a cycle (including
// self-loops). The message is part of the HTTP contract.
var ErrCycle = errors.New("Cycle detected in workflow")

// Graph is the validated adjacency view of a workflow.
type Graph struct {
	order        []string
	predecessors map[string][]string
}

// Build validates the workflow and computes a topological order using
// Kahn's algorithm. It fails with ErrCycle when any cycle exists and
// with a dangling-edge error when an edge endpoint references a missing
// node. Both failures are fatal to the run.
func Build(w workflow.Workflow) (*Graph, error) {
	ids := make(map[string]struct{}, len(w.Nodes))
	for _, n := range w.Nodes {
		if n.ID == "" {
			return nil, errors.New("node with empty id")
		}
		if _, ok := ids[n.ID]; ok {
			return nil, fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = struct{}{}
	}

	indegree := make(map[string]int, len(w.Nodes))
	succ := make(map[string][]string, len(w.Nodes))
	pred := make(map[string][]string, len(w.Nodes))
	for id := range ids {
		indegree[id] = 0
	}
	seen := make(map[[2]string]struct{}, len(w.Edges))
	for _, e := range w.Edges {
		if _, ok := ids[e.Source]; !ok {
			return nil, fmt.Errorf("edge references unknown source node %q", e.Source)
		}
		if _, ok := ids[e.Target]; !ok {
			return nil, fmt.Errorf("edge references unknown target node %q", e.Target)
		}
		if e.Source == e.Target {
			return nil, ErrCycle
		}
		// Duplicate edges are permitted but counted once.
		key := [2]string{e.Source, e.Target}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		succ[e.Source] = append(succ[e.Source], e.Target)
		pred[e.Target] = append(pred[e.Target], e.Source)
		indegree[e.Target]++
	}

	// Seed the frontier in sorted order so a given workflow always yields
	// the same topological order.
	frontier := make([]string, 0, len(indegree))
	for id, d := range indegree {
		if d == 0 {
			frontier = append(frontier, id)
		}
	}
	sort.Strings(frontier)

	order := make([]string, 0, len(w.Nodes))
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		order = append(order, id)
		next := succ[id]
		sort.Strings(next)
		for _, t := range next {
			indegree[t]--
			if indegree[t] == 0 {
				frontier = append(frontier, t)
			}
		}
	}
	if len(order) != len(w.Nodes) {
		return nil, ErrCycle
	}
	return &Graph{order: order, predecessors: pred}, nil
}

// Order returns the node ids in execution order.
func (g *Graph) Order() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Predecessors returns the ids of the immediate predecessors of id.
func (g *Graph) Predecessors(id string) []string {
	in := g.predecessors[id]
	out := make([]string, len(in))
	copy(out, in)
	return out
}
