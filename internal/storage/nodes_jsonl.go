package storage

import "github.com/matsen/pdbkg/internal/node"

// ReadAllNodes loads nodes.jsonl, failing on the first malformed or invalid
// record.
func ReadAllNodes(path string) ([]node.Node, error) {
	return readJSONL[node.Node](path, "node")
}

// WriteAllNodes rewrites the file with exactly nodes.
func WriteAllNodes(path string, nodes []node.Node) error {
	return writeJSONL(path, nodes)
}

// AppendNode adds one node to the end of the file.
func AppendNode(path string, n node.Node) error {
	return appendJSONL(path, n)
}

// UpsertNodeInSlice replaces the node with the same ID or appends n.
func UpsertNodeInSlice(nodes []node.Node, n node.Node) ([]node.Node, bool) {
	return upsert(nodes, n, func(n node.Node) string { return n.ID })
}
