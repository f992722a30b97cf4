// Package reconcile computes and applies the minimal edit set that turns the
// graph currently on screen into a newly built one.
package reconcile

import (
	"fmt"

	"github.com/matsen/pdbkg/internal/edge"
	"github.com/matsen/pdbkg/internal/graph"
	"github.com/matsen/pdbkg/internal/node"
)

// Renderer is the set of mutation primitives a visualization exposes.
// *graph.Graph satisfies it.
type Renderer interface {
	AddNode(n node.Node) error
	RemoveNode(id string) error
	AddEdge(e edge.Edge) error
	RemoveEdge(e edge.Edge) error
}

// Edits is the difference between two graphs.
type Edits struct {
	AddNodes    []node.Node `json:"add_nodes"`
	RemoveNodes []string    `json:"remove_nodes"`
	AddEdges    []edge.Edge `json:"add_edges"`
	RemoveEdges []edge.Edge `json:"remove_edges"`
}

// Empty returns true if applying the edits would change nothing.
func (e Edits) Empty() bool {
	return e.Size() == 0
}

// Size returns the total number of primitive operations.
func (e Edits) Size() int {
	return len(e.AddNodes) + len(e.RemoveNodes) + len(e.AddEdges) + len(e.RemoveEdges)
}

// Diff compares current against target. Nodes are matched by ID and edges by
// unordered endpoint pair. Edits follow the insertion order of the graph they
// come from. A nil current is treated as empty.
func Diff(current, target *graph.Graph) Edits {
	if current == nil {
		current = graph.New()
	}
	if target == nil {
		target = graph.New()
	}

	edits := Edits{
		AddNodes:    []node.Node{},
		RemoveNodes: []string{},
		AddEdges:    []edge.Edge{},
		RemoveEdges: []edge.Edge{},
	}

	for _, e := range current.Edges() {
		if !target.HasEdge(e.SourceID, e.TargetID) {
			edits.RemoveEdges = append(edits.RemoveEdges, e)
		}
	}
	for _, id := range current.NodeIDs() {
		if !target.HasNode(id) {
			edits.RemoveNodes = append(edits.RemoveNodes, id)
		}
	}
	for _, n := range target.Nodes() {
		if !current.HasNode(n.ID) {
			edits.AddNodes = append(edits.AddNodes, n)
		}
	}
	for _, e := range target.Edges() {
		if !current.HasEdge(e.SourceID, e.TargetID) {
			edits.AddEdges = append(edits.AddEdges, e)
		}
	}
	return edits
}

// Apply performs edits on r: edge removals, node removals, node additions,
// then edge additions. It stops at the first primitive that fails.
func Apply(r Renderer, edits Edits) error {
	for _, e := range edits.RemoveEdges {
		if err := r.RemoveEdge(e); err != nil {
			return fmt.Errorf("removing edge %s-%s: %w", e.SourceID, e.TargetID, err)
		}
	}
	for _, id := range edits.RemoveNodes {
		if err := r.RemoveNode(id); err != nil {
			return fmt.Errorf("removing node %s: %w", id, err)
		}
	}
	for _, n := range edits.AddNodes {
		if err := r.AddNode(n); err != nil {
			return fmt.Errorf("adding node %s: %w", n.ID, err)
		}
	}
	for _, e := range edits.AddEdges {
		if err := r.AddEdge(e); err != nil {
			return fmt.Errorf("adding edge %s-%s: %w", e.SourceID, e.TargetID, err)
		}
	}
	return nil
}

// Render draws g onto an empty renderer.
func Render(r Renderer, g *graph.Graph) error {
	return Apply(r, Diff(nil, g))
}
