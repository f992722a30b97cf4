package viz

import (
	"encoding/json"
	"fmt"

	"github.com/matsen/pdbkg/internal/edge"
	"github.com/matsen/pdbkg/internal/reconcile"
)

// Element wraps element data the way Cytoscape.js expects it.
type Element[T any] struct {
	Data T `json:"data"`
}

// CytoscapeElements is the grouped form accepted by cytoscape({elements}).
type CytoscapeElements struct {
	Nodes []Element[Node]              `json:"nodes"`
	Edges []Element[CytoscapeEdgeData] `json:"edges"`
}

// CytoscapeEdgeData is an Edge plus the stable element ID Cytoscape.js
// needs to remove it later.
type CytoscapeEdgeData struct {
	ID string `json:"id"`
	Edge
}

// Elements groups the graph into Cytoscape.js elements.
func (g *GraphData) Elements() CytoscapeElements {
	out := CytoscapeElements{
		Nodes: make([]Element[Node], len(g.Nodes)),
		Edges: make([]Element[CytoscapeEdgeData], len(g.Edges)),
	}
	for i, n := range g.Nodes {
		out.Nodes[i].Data = n
	}
	for i, e := range g.Edges {
		out.Edges[i].Data = edgeData(e)
	}
	return out
}

// ToCytoscapeJSON encodes Elements as a JSON string for embedding in a page.
func (g *GraphData) ToCytoscapeJSON() (string, error) {
	b, err := json.Marshal(g.Elements())
	if err != nil {
		return "", fmt.Errorf("encoding cytoscape elements: %w", err)
	}
	return string(b), nil
}

func edgeData(e Edge) CytoscapeEdgeData {
	return CytoscapeEdgeData{ID: EdgeID(e.Source, e.Target), Edge: e}
}

// EdgeID returns the Cytoscape element ID for the undirected edge a-b.
// Both orientations produce the same ID, so removals can address edges
// added in either direction.
func EdgeID(a, b string) string {
	p := edge.MakePair(a, b)
	return p.A + "--" + p.B
}

// Op is one incremental Cytoscape mutation.
type Op struct {
	Op    string `json:"op"`    // "add" or "remove"
	Group string `json:"group"` // "nodes" or "edges"
	Data  any    `json:"data"`
}

// EditsToCytoscape converts reconciler edits into Cytoscape operations in
// the order they must be applied.
func EditsToCytoscape(edits reconcile.Edits) []Op {
	ops := make([]Op, 0, edits.Size())
	for _, e := range edits.RemoveEdges {
		ops = append(ops, Op{Op: "remove", Group: "edges", Data: map[string]string{"id": EdgeID(e.SourceID, e.TargetID)}})
	}
	for _, id := range edits.RemoveNodes {
		ops = append(ops, Op{Op: "remove", Group: "nodes", Data: map[string]string{"id": id}})
	}
	for _, n := range edits.AddNodes {
		ops = append(ops, Op{Op: "add", Group: "nodes", Data: newNode(n)})
	}
	for _, e := range edits.AddEdges {
		ops = append(ops, Op{Op: "add", Group: "edges", Data: edgeData(newEdge(e))})
	}
	return ops
}
