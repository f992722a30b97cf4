// Package graph provides the rendered graph: the set of nodes and edges a
// visualization currently shows, mutated only through its edit primitives.
package graph

import (
	"errors"
	"fmt"

	"github.com/matsen/pdbkg/internal/edge"
	"github.com/matsen/pdbkg/internal/node"
)

// Mutation errors.
var (
	ErrDuplicateNode   = errors.New("node already present")
	ErrDuplicateEdge   = errors.New("edge already present")
	ErrMissingEndpoint = errors.New("edge endpoint not present")
	ErrNotPresent      = errors.New("element not present")
)

// Graph is an insertion-ordered set of nodes and unordered edges.
// Node IDs are unique, no two edges share an unordered pair, and every edge
// references nodes present in the graph.
type Graph struct {
	nodeOrder []string
	nodes     map[string]node.Node

	edgeOrder []edge.Pair
	edges     map[edge.Pair]edge.Edge
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]node.Node),
		edges: make(map[edge.Pair]edge.Edge),
	}
}

// AddNode adds a node. Returns ErrDuplicateNode if the ID is already present.
func (g *Graph) AddNode(n node.Node) error {
	if n.ID == "" {
		return node.ErrEmptyID
	}
	if _, ok := g.nodes[n.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	g.nodes[n.ID] = n
	g.nodeOrder = append(g.nodeOrder, n.ID)
	return nil
}

// RemoveNode removes a node and every edge incident to it.
func (g *Graph) RemoveNode(id string) error {
	if _, ok := g.nodes[id]; !ok {
		return fmt.Errorf("%w: node %s", ErrNotPresent, id)
	}
	delete(g.nodes, id)
	g.nodeOrder = removeString(g.nodeOrder, id)

	kept := g.edgeOrder[:0]
	for _, p := range g.edgeOrder {
		if p.Has(id) {
			delete(g.edges, p)
			continue
		}
		kept = append(kept, p)
	}
	g.edgeOrder = kept
	return nil
}

// AddEdge adds an edge between two present nodes.
func (g *Graph) AddEdge(e edge.Edge) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if _, ok := g.nodes[e.SourceID]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingEndpoint, e.SourceID)
	}
	if _, ok := g.nodes[e.TargetID]; !ok {
		return fmt.Errorf("%w: %s", ErrMissingEndpoint, e.TargetID)
	}
	key := e.Key()
	if _, ok := g.edges[key]; ok {
		return fmt.Errorf("%w: %s-%s", ErrDuplicateEdge, key.A, key.B)
	}
	g.edges[key] = e
	g.edgeOrder = append(g.edgeOrder, key)
	return nil
}

// RemoveEdge removes the edge with the same unordered pair as e.
func (g *Graph) RemoveEdge(e edge.Edge) error {
	key := e.Key()
	if _, ok := g.edges[key]; !ok {
		return fmt.Errorf("%w: edge %s-%s", ErrNotPresent, key.A, key.B)
	}
	delete(g.edges, key)
	kept := g.edgeOrder[:0]
	for _, p := range g.edgeOrder {
		if p != key {
			kept = append(kept, p)
		}
	}
	g.edgeOrder = kept
	return nil
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (node.Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether a node with the given ID is present.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// HasEdge reports whether an edge between a and b (in either direction) is present.
func (g *Graph) HasEdge(a, b string) bool {
	_, ok := g.edges[edge.MakePair(a, b)]
	return ok
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []node.Node {
	out := make([]node.Node, 0, len(g.nodeOrder))
	for _, id := range g.nodeOrder {
		out = append(out, g.nodes[id])
	}
	return out
}

// NodeIDs returns the node IDs in insertion order.
func (g *Graph) NodeIDs() []string {
	return append([]string(nil), g.nodeOrder...)
}

// Edges returns the edges in insertion order.
func (g *Graph) Edges() []edge.Edge {
	out := make([]edge.Edge, 0, len(g.edgeOrder))
	for _, p := range g.edgeOrder {
		out = append(out, g.edges[p])
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodeOrder)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edgeOrder)
}

// IsEmpty returns true if the graph has no nodes.
func (g *Graph) IsEmpty() bool {
	return len(g.nodeOrder) == 0
}

// Clone returns an independent copy of the graph.
func (g *Graph) Clone() *Graph {
	c := New()
	for _, id := range g.nodeOrder {
		c.nodes[id] = g.nodes[id]
	}
	c.nodeOrder = append(c.nodeOrder, g.nodeOrder...)
	for _, p := range g.edgeOrder {
		c.edges[p] = g.edges[p]
	}
	c.edgeOrder = append(c.edgeOrder, g.edgeOrder...)
	return c
}

// SameShape reports whether both graphs have the same node-ID set and the
// same unordered edge-pair set, ignoring order and node payloads.
func (g *Graph) SameShape(other *Graph) bool {
	if g.Len() != other.Len() || g.EdgeCount() != other.EdgeCount() {
		return false
	}
	for id := range g.nodes {
		if _, ok := other.nodes[id]; !ok {
			return false
		}
	}
	for p := range g.edges {
		if _, ok := other.edges[p]; !ok {
			return false
		}
	}
	return true
}

func removeString(ids []string, target string) []string {
	kept := ids[:0]
	for _, id := range ids {
		if id != target {
			kept = append(kept, id)
		}
	}
	return kept
}
