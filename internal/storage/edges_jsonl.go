package storage

import "github.com/matsen/pdbkg/internal/edge"

// ReadAllEdges loads edges.jsonl. Self edges and edges with a blank
// endpoint are rejected.
func ReadAllEdges(path string) ([]edge.Edge, error) {
	return readJSONL[edge.Edge](path, "edge")
}

// WriteAllEdges rewrites the file with exactly edges.
func WriteAllEdges(path string, edges []edge.Edge) error {
	return writeJSONL(path, edges)
}

// AppendEdge adds one edge to the end of the file.
func AppendEdge(path string, e edge.Edge) error {
	return appendJSONL(path, e)
}

// UpsertEdgeInSlice replaces the edge joining the same unordered pair or
// appends e. Reversed endpoints count as the same edge.
func UpsertEdgeInSlice(edges []edge.Edge, e edge.Edge) ([]edge.Edge, bool) {
	return upsert(edges, e, edge.Edge.Key)
}
