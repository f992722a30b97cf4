package viz

import (
	"github.com/matsen/pdbkg/internal/edge"
	"github.com/matsen/pdbkg/internal/graph"
	"github.com/matsen/pdbkg/internal/node"
)

// FromGraph converts a rendered graph into display data. Nodes on backbone
// are flagged, as are edges joining consecutive backbone nodes.
func FromGraph(g *graph.Graph, backbone []string) *GraphData {
	onBackbone := make(map[string]bool, len(backbone))
	for _, id := range backbone {
		onBackbone[id] = true
	}
	backboneEdges := make(map[edge.Pair]bool)
	for i := 1; i < len(backbone); i++ {
		backboneEdges[edge.MakePair(backbone[i-1], backbone[i])] = true
	}

	edges := g.Edges()
	degree := make(map[string]int, g.Len())
	for _, e := range edges {
		degree[e.SourceID]++
		degree[e.TargetID]++
	}

	data := &GraphData{
		Nodes: make([]Node, 0, g.Len()),
		Edges: make([]Edge, 0, len(edges)),
	}
	for _, n := range g.Nodes() {
		vn := newNode(n)
		vn.Backbone = onBackbone[n.ID]
		vn.Degree = degree[n.ID]
		data.Nodes = append(data.Nodes, vn)
	}
	for _, e := range edges {
		ve := newEdge(e)
		ve.Backbone = backboneEdges[e.Key()]
		data.Edges = append(data.Edges, ve)
	}
	return data
}

// newNode creates a visualization node from a knowledge graph node.
func newNode(n node.Node) Node {
	return Node{
		ID:          n.ID,
		Kind:        string(n.Kind),
		Label:       n.DisplayLabel(),
		Color:       n.Kind.Color(),
		Name:        n.Name,
		ExternalID:  n.ExternalID,
		EntryID:     n.EntryID,
		Description: n.Description,
		Synonyms:    n.Synonyms,
	}
}

func newEdge(e edge.Edge) Edge {
	return Edge{
		Source:           e.SourceID,
		Target:           e.TargetID,
		RelationshipType: e.RelationshipType,
	}
}
